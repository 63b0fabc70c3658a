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

func (d *Database) GetCouncilAction(
	proposalID uint64,
	kind uint8,
	txn *Txn,
) (*models.CouncilAction, error) {
	if txn == nil {
		txn = d.Transaction(false)
		defer txn.Release()
	}
	return d.metadata.GetCouncilAction(proposalID, kind, txn.Metadata())
}

func (d *Database) GetCouncilActions(
	proposalID uint64,
	txn *Txn,
) ([]models.CouncilAction, error) {
	if txn == nil {
		txn = d.Transaction(false)
		defer txn.Release()
	}
	return d.metadata.GetCouncilActions(proposalID, txn.Metadata())
}

func (d *Database) SetCouncilAction(
	action *models.CouncilAction,
	txn *Txn,
) error {
	if txn == nil {
		return d.Transaction(true).Do(func(txn *Txn) error {
			return d.metadata.SetCouncilAction(action, txn.Metadata())
		})
	}
	return d.metadata.SetCouncilAction(action, txn.Metadata())
}

func (d *Database) AddCouncilApproval(
	approval *models.CouncilApproval,
	txn *Txn,
) error {
	if txn == nil {
		return d.Transaction(true).Do(func(txn *Txn) error {
			return d.metadata.AddCouncilApproval(approval, txn.Metadata())
		})
	}
	return d.metadata.AddCouncilApproval(approval, txn.Metadata())
}

func (d *Database) GetCouncilApprovals(
	actionID uint64,
	txn *Txn,
) ([]models.CouncilApproval, error) {
	if txn == nil {
		txn = d.Transaction(false)
		defer txn.Release()
	}
	return d.metadata.GetCouncilApprovals(actionID, txn.Metadata())
}
