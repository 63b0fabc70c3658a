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
	"errors"
	"fmt"

	"github.com/blinklabs-io/ballot/database/models"
	"github.com/blinklabs-io/ballot/database/types"
	"gorm.io/gorm"
)

// GetEpoch returns an epoch by number, or nil if it was never materialized
func (s *Store) GetEpoch(number uint64, txn types.Txn) (*models.Epoch, error) {
	db, err := s.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	ret, err := first[models.Epoch](db, "number = ?", number)
	if err != nil {
		return nil, fmt.Errorf("get epoch %d: %w", number, err)
	}
	return ret, nil
}

// GetEpochLatest returns the highest materialized epoch, or nil
func (s *Store) GetEpochLatest(txn types.Txn) (*models.Epoch, error) {
	db, err := s.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	var ret models.Epoch
	result := db.Order("number DESC").First(&ret)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get latest epoch: %w", result.Error)
	}
	return &ret, nil
}

// GetEpochs returns all materialized epochs
func (s *Store) GetEpochs(txn types.Txn) ([]models.Epoch, error) {
	db, err := s.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	var ret []models.Epoch
	if result := db.Order("number").Find(&ret); result.Error != nil {
		return nil, fmt.Errorf("get epochs: %w", result.Error)
	}
	return ret, nil
}

// SetEpoch creates or updates an epoch record
func (s *Store) SetEpoch(epoch *models.Epoch, txn types.Txn) error {
	db, err := s.resolveDB(txn)
	if err != nil {
		return err
	}
	if result := db.Save(epoch); result.Error != nil {
		return fmt.Errorf("save epoch %d: %w", epoch.Number, result.Error)
	}
	return nil
}
