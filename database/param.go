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
	"github.com/ethereum/go-ethereum/common"
)

func (d *Database) GetGovernanceParams(
	txn *Txn,
) ([]models.GovernanceParam, error) {
	if txn == nil {
		txn = d.Transaction(false)
		defer txn.Release()
	}
	return d.metadata.GetGovernanceParams(txn.Metadata())
}

func (d *Database) SetGovernanceParam(param *models.GovernanceParam, txn *Txn) error {
	if txn == nil {
		return d.Transaction(true).Do(func(txn *Txn) error {
			return d.metadata.SetGovernanceParam(param, txn.Metadata())
		})
	}
	return d.metadata.SetGovernanceParam(param, txn.Metadata())
}

func (d *Database) AddPayout(payout *models.Payout, txn *Txn) error {
	if txn == nil {
		return d.Transaction(true).Do(func(txn *Txn) error {
			return d.metadata.AddPayout(payout, txn.Metadata())
		})
	}
	return d.metadata.AddPayout(payout, txn.Metadata())
}

func (d *Database) GetPayouts(
	recipient common.Address,
	txn *Txn,
) ([]models.Payout, error) {
	if txn == nil {
		txn = d.Transaction(false)
		defer txn.Release()
	}
	return d.metadata.GetPayouts(recipient, txn.Metadata())
}
