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
)

// SetGrant creates or updates a grant
func (s *Store) SetGrant(grant *models.Grant, txn types.Txn) error {
	db, err := s.resolveDB(txn)
	if err != nil {
		return err
	}
	if result := db.Save(grant); result.Error != nil {
		return fmt.Errorf("save grant: %w", result.Error)
	}
	return nil
}

// GetGrant returns a grant by ID, or nil if not found
func (s *Store) GetGrant(id uint64, txn types.Txn) (*models.Grant, error) {
	db, err := s.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	ret, err := first[models.Grant](db, "id = ?", id)
	if err != nil {
		return nil, fmt.Errorf("get grant %d: %w", id, err)
	}
	return ret, nil
}

// GetGrantsByGauge returns the grants paid out of a gauge
func (s *Store) GetGrantsByGauge(
	gaugeID uint64,
	txn types.Txn,
) ([]models.Grant, error) {
	db, err := s.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	var ret []models.Grant
	result := db.Where("gauge_id = ?", gaugeID).Order("id").Find(&ret)
	if result.Error != nil {
		return nil, fmt.Errorf("get grants by gauge: %w", result.Error)
	}
	return ret, nil
}

// GetGrantClaim returns the claim of a grant in an epoch, or nil
func (s *Store) GetGrantClaim(
	grantID uint64,
	epoch uint64,
	txn types.Txn,
) (*models.GrantClaim, error) {
	db, err := s.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	ret, err := first[models.GrantClaim](
		db,
		"grant_id = ? AND epoch = ?",
		grantID,
		epoch,
	)
	if err != nil {
		return nil, fmt.Errorf("get grant claim: %w", err)
	}
	return ret, nil
}

// GetGrantClaims returns all claims of a grant
func (s *Store) GetGrantClaims(
	grantID uint64,
	txn types.Txn,
) ([]models.GrantClaim, error) {
	db, err := s.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	var ret []models.GrantClaim
	result := db.Where("grant_id = ?", grantID).Order("epoch").Find(&ret)
	if result.Error != nil {
		return nil, fmt.Errorf("get grant claims: %w", result.Error)
	}
	return ret, nil
}

// AddGrantClaim records a grant claim
func (s *Store) AddGrantClaim(claim *models.GrantClaim, txn types.Txn) error {
	db, err := s.resolveDB(txn)
	if err != nil {
		return err
	}
	if result := db.Create(claim); result.Error != nil {
		return fmt.Errorf("add grant claim: %w", result.Error)
	}
	return nil
}
