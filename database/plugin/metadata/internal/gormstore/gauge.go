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

// SetGauge creates or updates a gauge
func (s *Store) SetGauge(gauge *models.Gauge, txn types.Txn) error {
	db, err := s.resolveDB(txn)
	if err != nil {
		return err
	}
	if result := db.Save(gauge); result.Error != nil {
		return fmt.Errorf("save gauge: %w", result.Error)
	}
	return nil
}

// GetGauge returns a gauge by ID, or nil if not found
func (s *Store) GetGauge(id uint64, txn types.Txn) (*models.Gauge, error) {
	db, err := s.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	ret, err := first[models.Gauge](db, "id = ?", id)
	if err != nil {
		return nil, fmt.Errorf("get gauge %d: %w", id, err)
	}
	return ret, nil
}

// GetGauges returns the gauge catalog, optionally only active gauges
func (s *Store) GetGauges(
	activeOnly bool,
	txn types.Txn,
) ([]models.Gauge, error) {
	db, err := s.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	query := db.Order("id")
	if activeOnly {
		query = query.Where("active = ?", true)
	}
	var ret []models.Gauge
	if result := query.Find(&ret); result.Error != nil {
		return nil, fmt.Errorf("get gauges: %w", result.Error)
	}
	return ret, nil
}

// GetGaugeWeight returns the weight record of a gauge in an epoch, or nil
func (s *Store) GetGaugeWeight(
	gaugeID uint64,
	epoch uint64,
	txn types.Txn,
) (*models.GaugeWeight, error) {
	db, err := s.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	ret, err := first[models.GaugeWeight](
		db,
		"gauge_id = ? AND epoch = ?",
		gaugeID,
		epoch,
	)
	if err != nil {
		return nil, fmt.Errorf("get gauge weight: %w", err)
	}
	return ret, nil
}

// GetGaugeWeights returns all weight records for an epoch
func (s *Store) GetGaugeWeights(
	epoch uint64,
	txn types.Txn,
) ([]models.GaugeWeight, error) {
	db, err := s.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	var ret []models.GaugeWeight
	result := db.Where("epoch = ?", epoch).Order("gauge_id").Find(&ret)
	if result.Error != nil {
		return nil, fmt.Errorf("get gauge weights: %w", result.Error)
	}
	return ret, nil
}

// SetGaugeWeight creates or updates a weight record
func (s *Store) SetGaugeWeight(
	weight *models.GaugeWeight,
	txn types.Txn,
) error {
	db, err := s.resolveDB(txn)
	if err != nil {
		return err
	}
	if result := db.Save(weight); result.Error != nil {
		return fmt.Errorf("save gauge weight: %w", result.Error)
	}
	return nil
}

// GetGaugeVotes returns a position's live votes in an epoch
func (s *Store) GetGaugeVotes(
	positionID uint64,
	epoch uint64,
	txn types.Txn,
) ([]models.GaugeVote, error) {
	db, err := s.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	var ret []models.GaugeVote
	result := db.Where("position_id = ? AND epoch = ?", positionID, epoch).
		Order("gauge_id").
		Find(&ret)
	if result.Error != nil {
		return nil, fmt.Errorf("get gauge votes: %w", result.Error)
	}
	return ret, nil
}

// DeleteGaugeVotes removes a position's votes in an epoch
func (s *Store) DeleteGaugeVotes(
	positionID uint64,
	epoch uint64,
	txn types.Txn,
) error {
	db, err := s.resolveDB(txn)
	if err != nil {
		return err
	}
	result := db.Where("position_id = ? AND epoch = ?", positionID, epoch).
		Delete(&models.GaugeVote{})
	if result.Error != nil {
		return fmt.Errorf("delete gauge votes: %w", result.Error)
	}
	return nil
}

// AddGaugeVote records a single gauge vote
func (s *Store) AddGaugeVote(vote *models.GaugeVote, txn types.Txn) error {
	db, err := s.resolveDB(txn)
	if err != nil {
		return err
	}
	if result := db.Create(vote); result.Error != nil {
		return fmt.Errorf("add gauge vote: %w", result.Error)
	}
	return nil
}

// GetGaugeEpochVoter returns the power a position added to an epoch, or nil
func (s *Store) GetGaugeEpochVoter(
	positionID uint64,
	epoch uint64,
	txn types.Txn,
) (*models.GaugeEpochVoter, error) {
	db, err := s.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	ret, err := first[models.GaugeEpochVoter](
		db,
		"position_id = ? AND epoch = ?",
		positionID,
		epoch,
	)
	if err != nil {
		return nil, fmt.Errorf("get gauge epoch voter: %w", err)
	}
	return ret, nil
}

// SetGaugeEpochVoter creates or updates a position's epoch power snapshot
func (s *Store) SetGaugeEpochVoter(
	voter *models.GaugeEpochVoter,
	txn types.Txn,
) error {
	db, err := s.resolveDB(txn)
	if err != nil {
		return err
	}
	if result := db.Save(voter); result.Error != nil {
		return fmt.Errorf("save gauge epoch voter: %w", result.Error)
	}
	return nil
}

// GetDistribution returns the distribution a gauge received in an epoch, or nil
func (s *Store) GetDistribution(
	gaugeID uint64,
	epoch uint64,
	txn types.Txn,
) (*models.Distribution, error) {
	db, err := s.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	ret, err := first[models.Distribution](
		db,
		"gauge_id = ? AND epoch = ?",
		gaugeID,
		epoch,
	)
	if err != nil {
		return nil, fmt.Errorf("get distribution: %w", err)
	}
	return ret, nil
}

// GetDistributions returns all distributions of an epoch
func (s *Store) GetDistributions(
	epoch uint64,
	txn types.Txn,
) ([]models.Distribution, error) {
	db, err := s.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	var ret []models.Distribution
	result := db.Where("epoch = ?", epoch).Order("gauge_id").Find(&ret)
	if result.Error != nil {
		return nil, fmt.Errorf("get distributions: %w", result.Error)
	}
	return ret, nil
}

// SetDistribution creates or updates a distribution
func (s *Store) SetDistribution(
	dist *models.Distribution,
	txn types.Txn,
) error {
	db, err := s.resolveDB(txn)
	if err != nil {
		return err
	}
	if result := db.Save(dist); result.Error != nil {
		return fmt.Errorf("save distribution: %w", result.Error)
	}
	return nil
}
