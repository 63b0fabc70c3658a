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

func (d *Database) SetGauge(gauge *models.Gauge, txn *Txn) error {
	if txn == nil {
		return d.Transaction(true).Do(func(txn *Txn) error {
			return d.metadata.SetGauge(gauge, txn.Metadata())
		})
	}
	return d.metadata.SetGauge(gauge, txn.Metadata())
}

func (d *Database) GetGauge(
	id uint64,
	txn *Txn,
) (*models.Gauge, error) {
	if txn == nil {
		txn = d.Transaction(false)
		defer txn.Release()
	}
	return d.metadata.GetGauge(id, txn.Metadata())
}

func (d *Database) GetGauges(
	activeOnly bool,
	txn *Txn,
) ([]models.Gauge, error) {
	if txn == nil {
		txn = d.Transaction(false)
		defer txn.Release()
	}
	return d.metadata.GetGauges(activeOnly, txn.Metadata())
}

func (d *Database) GetGaugeWeight(
	gaugeID uint64,
	epoch uint64,
	txn *Txn,
) (*models.GaugeWeight, error) {
	if txn == nil {
		txn = d.Transaction(false)
		defer txn.Release()
	}
	return d.metadata.GetGaugeWeight(gaugeID, epoch, txn.Metadata())
}

func (d *Database) GetGaugeWeights(
	epoch uint64,
	txn *Txn,
) ([]models.GaugeWeight, error) {
	if txn == nil {
		txn = d.Transaction(false)
		defer txn.Release()
	}
	return d.metadata.GetGaugeWeights(epoch, txn.Metadata())
}

func (d *Database) SetGaugeWeight(weight *models.GaugeWeight, txn *Txn) error {
	if txn == nil {
		return d.Transaction(true).Do(func(txn *Txn) error {
			return d.metadata.SetGaugeWeight(weight, txn.Metadata())
		})
	}
	return d.metadata.SetGaugeWeight(weight, txn.Metadata())
}

func (d *Database) GetGaugeVotes(
	positionID uint64,
	epoch uint64,
	txn *Txn,
) ([]models.GaugeVote, error) {
	if txn == nil {
		txn = d.Transaction(false)
		defer txn.Release()
	}
	return d.metadata.GetGaugeVotes(positionID, epoch, txn.Metadata())
}

func (d *Database) DeleteGaugeVotes(
	positionID uint64,
	epoch uint64,
	txn *Txn,
) error {
	if txn == nil {
		return d.Transaction(true).Do(func(txn *Txn) error {
			return d.metadata.DeleteGaugeVotes(positionID, epoch, txn.Metadata())
		})
	}
	return d.metadata.DeleteGaugeVotes(positionID, epoch, txn.Metadata())
}

func (d *Database) AddGaugeVote(vote *models.GaugeVote, txn *Txn) error {
	if txn == nil {
		return d.Transaction(true).Do(func(txn *Txn) error {
			return d.metadata.AddGaugeVote(vote, txn.Metadata())
		})
	}
	return d.metadata.AddGaugeVote(vote, txn.Metadata())
}

func (d *Database) GetGaugeEpochVoter(
	positionID uint64,
	epoch uint64,
	txn *Txn,
) (*models.GaugeEpochVoter, error) {
	if txn == nil {
		txn = d.Transaction(false)
		defer txn.Release()
	}
	return d.metadata.GetGaugeEpochVoter(positionID, epoch, txn.Metadata())
}

func (d *Database) SetGaugeEpochVoter(voter *models.GaugeEpochVoter, txn *Txn) error {
	if txn == nil {
		return d.Transaction(true).Do(func(txn *Txn) error {
			return d.metadata.SetGaugeEpochVoter(voter, txn.Metadata())
		})
	}
	return d.metadata.SetGaugeEpochVoter(voter, txn.Metadata())
}

func (d *Database) GetDistribution(
	gaugeID uint64,
	epoch uint64,
	txn *Txn,
) (*models.Distribution, error) {
	if txn == nil {
		txn = d.Transaction(false)
		defer txn.Release()
	}
	return d.metadata.GetDistribution(gaugeID, epoch, txn.Metadata())
}

func (d *Database) GetDistributions(
	epoch uint64,
	txn *Txn,
) ([]models.Distribution, error) {
	if txn == nil {
		txn = d.Transaction(false)
		defer txn.Release()
	}
	return d.metadata.GetDistributions(epoch, txn.Metadata())
}

func (d *Database) SetDistribution(dist *models.Distribution, txn *Txn) error {
	if txn == nil {
		return d.Transaction(true).Do(func(txn *Txn) error {
			return d.metadata.SetDistribution(dist, txn.Metadata())
		})
	}
	return d.metadata.SetDistribution(dist, txn.Metadata())
}
