// Copyright 2025 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package gormstore

import (
	"fmt"

	"github.com/blinklabs-io/ballot/database/models"
	"github.com/blinklabs-io/ballot/database/types"
	"github.com/ethereum/go-ethereum/common"
	"gorm.io/gorm/clause"
)

// GetGovernanceParams returns all persisted parameters
func (s *Store) GetGovernanceParams(
	txn types.Txn,
) ([]models.GovernanceParam, error) {
	db, err := s.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	var ret []models.GovernanceParam
	if result := db.Order("name").Find(&ret); result.Error != nil {
		return nil, fmt.Errorf("get governance params: %w", result.Error)
	}
	return ret, nil
}

// SetGovernanceParam upserts a parameter value
func (s *Store) SetGovernanceParam(
	param *models.GovernanceParam,
	txn types.Txn,
) error {
	db, err := s.resolveDB(txn)
	if err != nil {
		return err
	}
	result := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_time"}),
	}).Create(param)
	if result.Error != nil {
		return fmt.Errorf("set governance param %s: %w", param.Name, result.Error)
	}
	return nil
}

// AddPayout records a treasury release
func (s *Store) AddPayout(payout *models.Payout, txn types.Txn) error {
	db, err := s.resolveDB(txn)
	if err != nil {
		return err
	}
	if result := db.Create(payout); result.Error != nil {
		return fmt.Errorf("add payout: %w", result.Error)
	}
	return nil
}

// GetPayouts returns the releases made to a recipient
func (s *Store) GetPayouts(
	recipient common.Address,
	txn types.Txn,
) ([]models.Payout, error) {
	db, err := s.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	var ret []models.Payout
	result := db.Where("recipient = ?", recipient).Order("id").Find(&ret)
	if result.Error != nil {
		return nil, fmt.Errorf("get payouts: %w", result.Error)
	}
	return ret, nil
}
