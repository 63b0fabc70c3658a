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

// GetCouncilAction returns the action of a kind for a proposal, or nil
func (s *Store) GetCouncilAction(
	proposalID uint64,
	kind uint8,
	txn types.Txn,
) (*models.CouncilAction, error) {
	db, err := s.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	ret, err := first[models.CouncilAction](
		db,
		"proposal_id = ? AND kind = ?",
		proposalID,
		kind,
	)
	if err != nil {
		return nil, fmt.Errorf("get council action: %w", err)
	}
	return ret, nil
}

// GetCouncilActions returns all actions for a proposal
func (s *Store) GetCouncilActions(
	proposalID uint64,
	txn types.Txn,
) ([]models.CouncilAction, error) {
	db, err := s.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	var ret []models.CouncilAction
	result := db.Where("proposal_id = ?", proposalID).Order("kind").Find(&ret)
	if result.Error != nil {
		return nil, fmt.Errorf("get council actions: %w", result.Error)
	}
	return ret, nil
}

// SetCouncilAction creates or updates a council action
func (s *Store) SetCouncilAction(
	action *models.CouncilAction,
	txn types.Txn,
) error {
	db, err := s.resolveDB(txn)
	if err != nil {
		return err
	}
	if result := db.Save(action); result.Error != nil {
		return fmt.Errorf("save council action: %w", result.Error)
	}
	return nil
}

// AddCouncilApproval records a member approval
func (s *Store) AddCouncilApproval(
	approval *models.CouncilApproval,
	txn types.Txn,
) error {
	db, err := s.resolveDB(txn)
	if err != nil {
		return err
	}
	if result := db.Create(approval); result.Error != nil {
		return fmt.Errorf("add council approval: %w", result.Error)
	}
	return nil
}

// GetCouncilApprovals returns the approvals recorded for an action
func (s *Store) GetCouncilApprovals(
	actionID uint64,
	txn types.Txn,
) ([]models.CouncilApproval, error) {
	db, err := s.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	var ret []models.CouncilApproval
	result := db.Where("action_id = ?", actionID).Order("id").Find(&ret)
	if result.Error != nil {
		return nil, fmt.Errorf("get council approvals: %w", result.Error)
	}
	return ret, nil
}
