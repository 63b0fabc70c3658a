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

func (d *Database) GetEpoch(number uint64, txn *Txn) (*models.Epoch, error) {
	if txn == nil {
		txn = d.Transaction(false)
		defer txn.Release()
	}
	return d.metadata.GetEpoch(number, txn.Metadata())
}

func (d *Database) GetEpochLatest(txn *Txn) (*models.Epoch, error) {
	if txn == nil {
		txn = d.Transaction(false)
		defer txn.Release()
	}
	return d.metadata.GetEpochLatest(txn.Metadata())
}

func (d *Database) GetEpochs(txn *Txn) ([]models.Epoch, error) {
	if txn == nil {
		txn = d.Transaction(false)
		defer txn.Release()
	}
	return d.metadata.GetEpochs(txn.Metadata())
}

func (d *Database) SetEpoch(epoch *models.Epoch, txn *Txn) error {
	if txn == nil {
		return d.Transaction(true).Do(func(txn *Txn) error {
			return d.metadata.SetEpoch(epoch, txn.Metadata())
		})
	}
	return d.metadata.SetEpoch(epoch, txn.Metadata())
}
