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

package metadata

import (
	"fmt"

	"github.com/blinklabs-io/ballot/database/models"
	"github.com/blinklabs-io/ballot/database/plugin"
	"github.com/blinklabs-io/ballot/database/types"
	"github.com/ethereum/go-ethereum/common"
	"gorm.io/gorm"
)

type MetadataStore interface {
	// Database
	Close() error
	DB() *gorm.DB
	GetCommitTimestamp() (int64, error)
	SetCommitTimestamp(int64, types.Txn) error
	Transaction() types.Txn

	// Proposals
	CreateProposal(*models.Proposal, types.Txn) error
	SetProposal(*models.Proposal, types.Txn) error
	GetProposal(uint64, types.Txn) (*models.Proposal, error)
	GetProposals(
		int, // offset
		int, // limit
		types.Txn,
	) ([]models.Proposal, error)
	AddProposalVote(*models.ProposalVote, types.Txn) error
	GetProposalVote(
		uint64, // proposalID
		uint64, // positionID
		types.Txn,
	) (*models.ProposalVote, error)
	GetProposalVotes(uint64, types.Txn) ([]models.ProposalVote, error)

	// Council
	GetCouncilAction(
		uint64, // proposalID
		uint8, // kind
		types.Txn,
	) (*models.CouncilAction, error)
	GetCouncilActions(uint64, types.Txn) ([]models.CouncilAction, error)
	SetCouncilAction(*models.CouncilAction, types.Txn) error
	AddCouncilApproval(*models.CouncilApproval, types.Txn) error
	GetCouncilApprovals(uint64, types.Txn) ([]models.CouncilApproval, error)

	// Epochs
	GetEpoch(uint64, types.Txn) (*models.Epoch, error)
	GetEpochLatest(types.Txn) (*models.Epoch, error)
	GetEpochs(types.Txn) ([]models.Epoch, error)
	SetEpoch(*models.Epoch, types.Txn) error

	// Gauges
	SetGauge(*models.Gauge, types.Txn) error
	GetGauge(uint64, types.Txn) (*models.Gauge, error)
	GetGauges(
		bool, // activeOnly
		types.Txn,
	) ([]models.Gauge, error)
	GetGaugeWeight(
		uint64, // gaugeID
		uint64, // epoch
		types.Txn,
	) (*models.GaugeWeight, error)
	GetGaugeWeights(uint64, types.Txn) ([]models.GaugeWeight, error)
	SetGaugeWeight(*models.GaugeWeight, types.Txn) error
	GetGaugeVotes(
		uint64, // positionID
		uint64, // epoch
		types.Txn,
	) ([]models.GaugeVote, error)
	DeleteGaugeVotes(
		uint64, // positionID
		uint64, // epoch
		types.Txn,
	) error
	AddGaugeVote(*models.GaugeVote, types.Txn) error
	GetGaugeEpochVoter(
		uint64, // positionID
		uint64, // epoch
		types.Txn,
	) (*models.GaugeEpochVoter, error)
	SetGaugeEpochVoter(*models.GaugeEpochVoter, types.Txn) error
	GetDistribution(
		uint64, // gaugeID
		uint64, // epoch
		types.Txn,
	) (*models.Distribution, error)
	GetDistributions(uint64, types.Txn) ([]models.Distribution, error)
	SetDistribution(*models.Distribution, types.Txn) error

	// Grants
	SetGrant(*models.Grant, types.Txn) error
	GetGrant(uint64, types.Txn) (*models.Grant, error)
	GetGrantsByGauge(uint64, types.Txn) ([]models.Grant, error)
	GetGrantClaim(
		uint64, // grantID
		uint64, // epoch
		types.Txn,
	) (*models.GrantClaim, error)
	GetGrantClaims(uint64, types.Txn) ([]models.GrantClaim, error)
	AddGrantClaim(*models.GrantClaim, types.Txn) error

	// Parameters and payouts
	GetGovernanceParams(types.Txn) ([]models.GovernanceParam, error)
	SetGovernanceParam(*models.GovernanceParam, types.Txn) error
	AddPayout(*models.Payout, types.Txn) error
	GetPayouts(common.Address, types.Txn) ([]models.Payout, error)
}

// New returns the started metadata plugin selected by name
func New(pluginName string) (MetadataStore, error) {
	p, err := plugin.StartPlugin(plugin.PluginTypeMetadata, pluginName)
	if err != nil {
		return nil, err
	}
	metadataStore, ok := p.(MetadataStore)
	if !ok {
		return nil, fmt.Errorf(
			"plugin '%s' does not implement MetadataStore interface",
			pluginName,
		)
	}
	return metadataStore, nil
}
