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

// CreateProposal inserts a proposal and assigns its identifier
func (s *Store) CreateProposal(
	proposal *models.Proposal,
	txn types.Txn,
) error {
	db, err := s.resolveDB(txn)
	if err != nil {
		return err
	}
	if result := db.Create(proposal); result.Error != nil {
		return fmt.Errorf("create proposal: %w", result.Error)
	}
	return nil
}

// SetProposal updates all fields of an existing proposal
func (s *Store) SetProposal(proposal *models.Proposal, txn types.Txn) error {
	db, err := s.resolveDB(txn)
	if err != nil {
		return err
	}
	if result := db.Save(proposal); result.Error != nil {
		return fmt.Errorf("save proposal %d: %w", proposal.ID, result.Error)
	}
	return nil
}

// GetProposal returns a proposal by ID, or nil if not found
func (s *Store) GetProposal(id uint64, txn types.Txn) (*models.Proposal, error) {
	db, err := s.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	ret, err := first[models.Proposal](db, "id = ?", id)
	if err != nil {
		return nil, fmt.Errorf("get proposal %d: %w", id, err)
	}
	return ret, nil
}

// GetProposals returns proposals ordered by ID
func (s *Store) GetProposals(
	offset int,
	limit int,
	txn types.Txn,
) ([]models.Proposal, error) {
	db, err := s.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	var ret []models.Proposal
	result := db.Order("id").Offset(offset).Limit(limit).Find(&ret)
	if result.Error != nil {
		return nil, fmt.Errorf("get proposals: %w", result.Error)
	}
	return ret, nil
}

// AddProposalVote records a vote
func (s *Store) AddProposalVote(vote *models.ProposalVote, txn types.Txn) error {
	db, err := s.resolveDB(txn)
	if err != nil {
		return err
	}
	if result := db.Create(vote); result.Error != nil {
		return fmt.Errorf(
			"add vote for proposal %d position %d: %w",
			vote.ProposalID,
			vote.PositionID,
			result.Error,
		)
	}
	return nil
}

// GetProposalVote returns the vote of a position on a proposal, or nil
func (s *Store) GetProposalVote(
	proposalID uint64,
	positionID uint64,
	txn types.Txn,
) (*models.ProposalVote, error) {
	db, err := s.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	ret, err := first[models.ProposalVote](
		db,
		"proposal_id = ? AND position_id = ?",
		proposalID,
		positionID,
	)
	if err != nil {
		return nil, fmt.Errorf("get proposal vote: %w", err)
	}
	return ret, nil
}

// GetProposalVotes returns all votes on a proposal
func (s *Store) GetProposalVotes(
	proposalID uint64,
	txn types.Txn,
) ([]models.ProposalVote, error) {
	db, err := s.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	var ret []models.ProposalVote
	result := db.Where("proposal_id = ?", proposalID).Order("id").Find(&ret)
	if result.Error != nil {
		return nil, fmt.Errorf("get proposal votes: %w", result.Error)
	}
	return ret, nil
}
