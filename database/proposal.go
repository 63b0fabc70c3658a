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

package database

import (
	"github.com/blinklabs-io/ballot/database/models"
)

func (d *Database) CreateProposal(proposal *models.Proposal, txn *Txn) error {
	if txn == nil {
		return d.Transaction(true).Do(func(txn *Txn) error {
			return d.metadata.CreateProposal(proposal, txn.Metadata())
		})
	}
	return d.metadata.CreateProposal(proposal, txn.Metadata())
}

func (d *Database) SetProposal(proposal *models.Proposal, txn *Txn) error {
	if txn == nil {
		return d.Transaction(true).Do(func(txn *Txn) error {
			return d.metadata.SetProposal(proposal, txn.Metadata())
		})
	}
	return d.metadata.SetProposal(proposal, txn.Metadata())
}

func (d *Database) GetProposal(id uint64, txn *Txn) (*models.Proposal, error) {
	if txn == nil {
		txn = d.Transaction(false)
		defer txn.Release()
	}
	return d.metadata.GetProposal(id, txn.Metadata())
}

func (d *Database) GetProposals(
	offset int,
	limit int,
	txn *Txn,
) ([]models.Proposal, error) {
	if txn == nil {
		txn = d.Transaction(false)
		defer txn.Release()
	}
	return d.metadata.GetProposals(offset, limit, txn.Metadata())
}

func (d *Database) AddProposalVote(vote *models.ProposalVote, txn *Txn) error {
	if txn == nil {
		return d.Transaction(true).Do(func(txn *Txn) error {
			return d.metadata.AddProposalVote(vote, txn.Metadata())
		})
	}
	return d.metadata.AddProposalVote(vote, txn.Metadata())
}

func (d *Database) GetProposalVote(
	proposalID uint64,
	positionID uint64,
	txn *Txn,
) (*models.ProposalVote, error) {
	if txn == nil {
		txn = d.Transaction(false)
		defer txn.Release()
	}
	return d.metadata.GetProposalVote(proposalID, positionID, txn.Metadata())
}

func (d *Database) GetProposalVotes(
	proposalID uint64,
	txn *Txn,
) ([]models.ProposalVote, error) {
	if txn == nil {
		txn = d.Transaction(false)
		defer txn.Release()
	}
	return d.metadata.GetProposalVotes(proposalID, txn.Metadata())
}
