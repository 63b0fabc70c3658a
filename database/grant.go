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

func (d *Database) SetGrant(grant *models.Grant, txn *Txn) error {
	if txn == nil {
		return d.Transaction(true).Do(func(txn *Txn) error {
			return d.metadata.SetGrant(grant, txn.Metadata())
		})
	}
	return d.metadata.SetGrant(grant, txn.Metadata())
}

func (d *Database) GetGrant(
	id uint64,
	txn *Txn,
) (*models.Grant, error) {
	if txn == nil {
		txn = d.Transaction(false)
		defer txn.Release()
	}
	return d.metadata.GetGrant(id, txn.Metadata())
}

func (d *Database) GetGrantsByGauge(
	gaugeID uint64,
	txn *Txn,
) ([]models.Grant, error) {
	if txn == nil {
		txn = d.Transaction(false)
		defer txn.Release()
	}
	return d.metadata.GetGrantsByGauge(gaugeID, txn.Metadata())
}

func (d *Database) GetGrantClaim(
	grantID uint64,
	epoch uint64,
	txn *Txn,
) (*models.GrantClaim, error) {
	if txn == nil {
		txn = d.Transaction(false)
		defer txn.Release()
	}
	return d.metadata.GetGrantClaim(grantID, epoch, txn.Metadata())
}

func (d *Database) GetGrantClaims(
	grantID uint64,
	txn *Txn,
) ([]models.GrantClaim, error) {
	if txn == nil {
		txn = d.Transaction(false)
		defer txn.Release()
	}
	return d.metadata.GetGrantClaims(grantID, txn.Metadata())
}

func (d *Database) AddGrantClaim(claim *models.GrantClaim, txn *Txn) error {
	if txn == nil {
		return d.Transaction(true).Do(func(txn *Txn) error {
			return d.metadata.AddGrantClaim(claim, txn.Metadata())
		})
	}
	return d.metadata.AddGrantClaim(claim, txn.Metadata())
}
