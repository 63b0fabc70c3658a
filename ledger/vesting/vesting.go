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

package vesting

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/blinklabs-io/ballot/database"
	"github.com/blinklabs-io/ballot/database/models"
	"github.com/blinklabs-io/ballot/database/types"
	"github.com/blinklabs-io/ballot/event"
	lcommon "github.com/blinklabs-io/ballot/ledger/common"
	"github.com/blinklabs-io/ballot/ledger/epoch"
	"github.com/blinklabs-io/ballot/ledger/gauge"
	"github.com/ethereum/go-ethereum/common"
)

// Metadata is the descriptive document attached to a grant
type Metadata struct {
	Title       string            `cbor:"title"`
	Description string            `cbor:"description,omitempty"`
	URI         string            `cbor:"uri,omitempty"`
	Extra       map[string]string `cbor:"extra,omitempty"`
}

// GrantParams describes a new grant
type GrantParams struct {
	GaugeID       uint64
	Recipient     common.Address
	TotalAmount   uint64
	VestingEpochs uint64
	Metadata      *Metadata
}

type VestingConfig struct {
	Logger   *slog.Logger
	Executor *lcommon.Executor
	Epochs   *epoch.Scheduler
	Gauges   *gauge.Allocator
	Roles    lcommon.Roles
}

// Vesting releases grant-kind gauge funding to grant recipients on a
// linear schedule
type Vesting struct {
	config VestingConfig
}

func New(cfg VestingConfig) (*Vesting, error) {
	if cfg.Executor == nil || cfg.Epochs == nil || cfg.Gauges == nil {
		return nil, fmt.Errorf(
			"%w: executor, epoch scheduler and gauge allocator are required",
			lcommon.ErrInvalidArgument,
		)
	}
	if err := cfg.Roles.Validate(); err != nil {
		return nil, err
	}
	if cfg.Logger == nil {
		// Create logger to throw away logs
		// We do this so we don't have to add guards around every log operation
		cfg.Logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	v := &Vesting{config: cfg}
	cfg.Gauges.RegisterHooks(models.GaugeKindGrant, grantHooks{})
	return v, nil
}

// CreateGrant attaches a grant to a grant-kind gauge. Vesting starts in the
// epoch after the current one
func (v *Vesting) CreateGrant(
	ctx context.Context,
	call lcommon.Call,
	params GrantParams,
) (uint64, error) {
	if params.Recipient == (common.Address{}) {
		return 0, fmt.Errorf("%w: zero grant recipient", lcommon.ErrInvalidArgument)
	}
	if params.TotalAmount == 0 || params.VestingEpochs == 0 {
		return 0, fmt.Errorf(
			"%w: grant amount and vesting epochs must be positive",
			lcommon.ErrInvalidArgument,
		)
	}
	var id uint64
	err := v.config.Executor.Do(ctx, "grant.create", func(op *lcommon.Op) error {
		if err := v.config.Roles.RequireAdmin(call.Caller); err != nil {
			return err
		}
		g, err := op.DB().GetGauge(params.GaugeID, op.Txn())
		if err != nil {
			return fmt.Errorf("failed to get gauge: %w", err)
		}
		if g == nil {
			return fmt.Errorf("%w: gauge %d", lcommon.ErrNotFound, params.GaugeID)
		}
		if g.Kind != models.GaugeKindGrant {
			return fmt.Errorf(
				"%w: gauge %d is not a grant gauge",
				lcommon.ErrInvalidArgument,
				params.GaugeID,
			)
		}
		grant := &models.Grant{
			GaugeID:       params.GaugeID,
			Recipient:     params.Recipient,
			TotalAmount:   types.Uint64(params.TotalAmount),
			StartEpoch:    v.config.Epochs.CurrentEpoch(call.Now) + 1,
			VestingEpochs: params.VestingEpochs,
			Active:        true,
			CreatedTime:   call.Now.Unix(),
		}
		if params.Metadata != nil {
			hash, err := op.DB().PutDocument(
				types.DocumentKindGrantMetadata,
				params.Metadata,
				op.Txn(),
			)
			if err != nil {
				return err
			}
			grant.MetadataHash = hash
		}
		if err := op.DB().SetGrant(grant, op.Txn()); err != nil {
			return fmt.Errorf("failed to set grant: %w", err)
		}
		id = grant.ID
		op.Emit(
			event.GrantCreatedEventType,
			event.GrantCreatedEvent{
				GrantID:       grant.ID,
				GaugeID:       grant.GaugeID,
				Recipient:     grant.Recipient,
				TotalAmount:   params.TotalAmount,
				StartEpoch:    grant.StartEpoch,
				VestingEpochs: grant.VestingEpochs,
				MetadataHash:  grant.MetadataHash,
			},
		)
		return nil
	})
	if err != nil {
		return 0, err
	}
	v.config.Logger.Info(
		fmt.Sprintf("created grant %d for %s", id, params.Recipient.Hex()),
		"component", "vesting",
	)
	return id, nil
}

// ClaimGrant releases the amount claimable for an epoch to the recipient.
// Each epoch can be claimed once
func (v *Vesting) ClaimGrant(
	ctx context.Context,
	call lcommon.Call,
	grantID uint64,
	epochNum uint64,
) (uint64, error) {
	var amount uint64
	err := v.config.Executor.Do(ctx, "grant.claim", func(op *lcommon.Op) error {
		grant, err := getGrant(op, grantID)
		if err != nil {
			return err
		}
		if call.Caller != grant.Recipient {
			return fmt.Errorf(
				"%w: only the recipient of grant %d may claim",
				lcommon.ErrAuthorization,
				grantID,
			)
		}
		if epochNum > v.config.Epochs.CurrentEpoch(call.Now) {
			return fmt.Errorf(
				"%w: epoch %d has not started",
				lcommon.ErrInvalidState,
				epochNum,
			)
		}
		if !grant.Active {
			return fmt.Errorf("%w: grant %d is revoked", lcommon.ErrInvalidState, grantID)
		}
		existing, err := op.DB().GetGrantClaim(grantID, epochNum, op.Txn())
		if err != nil {
			return fmt.Errorf("failed to get grant claim: %w", err)
		}
		if existing != nil {
			return fmt.Errorf(
				"%w: grant %d already claimed for epoch %d",
				lcommon.ErrDuplicate,
				grantID,
				epochNum,
			)
		}
		claimable, err := v.ClaimableTxn(op, grant, epochNum)
		if err != nil {
			return err
		}
		if claimable == 0 {
			return fmt.Errorf(
				"%w: nothing claimable for grant %d in epoch %d",
				lcommon.ErrArithmeticBound,
				grantID,
				epochNum,
			)
		}
		claimed, err := lcommon.AddChecked(uint64(grant.ClaimedAmount), claimable)
		if err != nil {
			return err
		}
		if claimed > uint64(grant.TotalAmount) {
			return fmt.Errorf(
				"%w: claim exceeds total of grant %d",
				lcommon.ErrArithmeticBound,
				grantID,
			)
		}
		grant.ClaimedAmount = types.Uint64(claimed)
		if err := op.DB().SetGrant(grant, op.Txn()); err != nil {
			return fmt.Errorf("failed to set grant: %w", err)
		}
		claim := &models.GrantClaim{
			GrantID:     grantID,
			Epoch:       epochNum,
			Amount:      types.Uint64(claimable),
			ClaimedTime: call.Now.Unix(),
		}
		if err := op.DB().AddGrantClaim(claim, op.Txn()); err != nil {
			return fmt.Errorf("failed to add grant claim: %w", err)
		}
		g, err := op.DB().GetGauge(grant.GaugeID, op.Txn())
		if err != nil {
			return fmt.Errorf("failed to get gauge: %w", err)
		}
		if g == nil {
			return fmt.Errorf("%w: gauge %d", lcommon.ErrNotFound, grant.GaugeID)
		}
		err = v.config.Gauges.ClaimTxn(op, &gauge.Claim{
			Call:      call,
			Gauge:     g,
			Epoch:     epochNum,
			Recipient: grant.Recipient,
			Amount:    claimable,
			Source:    lcommon.ReleaseSourceGrant,
			SourceID:  grantID,
		})
		if err != nil {
			return err
		}
		amount = claimable
		op.Emit(
			event.GrantClaimedEventType,
			event.GrantClaimedEvent{
				GrantID:       grantID,
				Epoch:         epochNum,
				Recipient:     grant.Recipient,
				Amount:        claimable,
				ClaimedAmount: claimed,
			},
		)
		return nil
	})
	return amount, err
}

// RevokeGrant stops further vesting of a grant
func (v *Vesting) RevokeGrant(
	ctx context.Context,
	call lcommon.Call,
	grantID uint64,
) error {
	return v.config.Executor.Do(ctx, "grant.revoke", func(op *lcommon.Op) error {
		if err := v.config.Roles.RequireAdmin(call.Caller); err != nil {
			return err
		}
		grant, err := getGrant(op, grantID)
		if err != nil {
			return err
		}
		if !grant.Active {
			return fmt.Errorf("%w: grant %d is already revoked", lcommon.ErrInvalidState, grantID)
		}
		grant.Active = false
		if err := op.DB().SetGrant(grant, op.Txn()); err != nil {
			return fmt.Errorf("failed to set grant: %w", err)
		}
		op.Emit(
			event.GrantRevokedEventType,
			event.GrantRevokedEvent{
				GrantID:   grantID,
				RevokedBy: call.Caller,
			},
		)
		return nil
	})
}

// ClaimableTxn returns the amount of a grant claimable for an epoch
func (v *Vesting) ClaimableTxn(
	op *lcommon.Op,
	grant *models.Grant,
	epochNum uint64,
) (uint64, error) {
	if !grant.Active || epochNum < grant.StartEpoch {
		return 0, nil
	}
	total := uint64(grant.TotalAmount)
	claimed := uint64(grant.ClaimedAmount)
	if claimed >= total {
		return 0, nil
	}
	var claimable uint64
	since := epochNum - grant.StartEpoch
	if since >= grant.VestingEpochs {
		claimable = total - claimed
	} else {
		vested, err := lcommon.MulDiv(total, since+1, grant.VestingEpochs)
		if err != nil {
			return 0, err
		}
		if vested <= claimed {
			return 0, nil
		}
		claimable = vested - claimed
	}
	dist, err := op.DB().GetDistribution(grant.GaugeID, epochNum, op.Txn())
	if err != nil {
		return 0, fmt.Errorf("failed to get distribution: %w", err)
	}
	if dist == nil || dist.Amount == 0 {
		return 0, nil
	}
	g, err := op.DB().GetGauge(grant.GaugeID, op.Txn())
	if err != nil {
		return 0, fmt.Errorf("failed to get gauge: %w", err)
	}
	if g == nil {
		return 0, fmt.Errorf("%w: gauge %d", lcommon.ErrNotFound, grant.GaugeID)
	}
	return min(claimable, uint64(g.Balance)), nil
}

// Grant returns a grant by ID
func (v *Vesting) Grant(ctx context.Context, grantID uint64) (*models.Grant, error) {
	var ret *models.Grant
	err := v.config.Executor.View(ctx, "grant.get", func(op *lcommon.Op) error {
		var err error
		ret, err = getGrant(op, grantID)
		return err
	})
	return ret, err
}

// Claimable returns the amount of a grant claimable for an epoch
func (v *Vesting) Claimable(
	ctx context.Context,
	grantID uint64,
	epochNum uint64,
) (uint64, error) {
	var ret uint64
	err := v.config.Executor.View(ctx, "grant.claimable", func(op *lcommon.Op) error {
		grant, err := getGrant(op, grantID)
		if err != nil {
			return err
		}
		ret, err = v.ClaimableTxn(op, grant, epochNum)
		return err
	})
	return ret, err
}

// Claims returns the per-epoch claims of a grant
func (v *Vesting) Claims(ctx context.Context, grantID uint64) ([]models.GrantClaim, error) {
	var ret []models.GrantClaim
	err := v.config.Executor.View(ctx, "grant.claims", func(op *lcommon.Op) error {
		if _, err := getGrant(op, grantID); err != nil {
			return err
		}
		var err error
		ret, err = op.DB().GetGrantClaims(grantID, op.Txn())
		return err
	})
	return ret, err
}

// GrantsByGauge returns the grants attached to a gauge
func (v *Vesting) GrantsByGauge(ctx context.Context, gaugeID uint64) ([]models.Grant, error) {
	var ret []models.Grant
	err := v.config.Executor.View(ctx, "grant.by_gauge", func(op *lcommon.Op) error {
		var err error
		ret, err = op.DB().GetGrantsByGauge(gaugeID, op.Txn())
		return err
	})
	return ret, err
}

// Metadata returns the metadata document of a grant, or nil if it has none
func (v *Vesting) Metadata(ctx context.Context, grantID uint64) (*Metadata, error) {
	var ret *Metadata
	err := v.config.Executor.View(ctx, "grant.metadata", func(op *lcommon.Op) error {
		grant, err := getGrant(op, grantID)
		if err != nil {
			return err
		}
		if grant.MetadataHash == (common.Hash{}) {
			return nil
		}
		var doc Metadata
		err = op.DB().GetDocument(
			types.DocumentKindGrantMetadata,
			grant.MetadataHash,
			&doc,
			op.Txn(),
		)
		if err != nil {
			if errors.Is(err, database.ErrDocumentNotFound) {
				return fmt.Errorf("%w: %w", lcommon.ErrNotFound, err)
			}
			return err
		}
		ret = &doc
		return nil
	})
	return ret, err
}

func getGrant(op *lcommon.Op, grantID uint64) (*models.Grant, error) {
	grant, err := op.DB().GetGrant(grantID, op.Txn())
	if err != nil {
		return nil, fmt.Errorf("failed to get grant: %w", err)
	}
	if grant == nil {
		return nil, fmt.Errorf("%w: grant %d", lcommon.ErrNotFound, grantID)
	}
	return grant, nil
}

// grantHooks leave validation to ClaimGrant and flag the epoch distribution
// as claimed on the first claim against it
type grantHooks struct{}

func (grantHooks) OnDistributionReceived(*lcommon.Op, *models.Gauge, *models.Distribution) error {
	return nil
}

func (grantHooks) BeforeClaim(*lcommon.Op, *gauge.Claim) error {
	return nil
}

func (grantHooks) AfterClaim(op *lcommon.Op, claim *gauge.Claim) error {
	return gauge.MarkDistributionClaimed(op, claim.Gauge.ID, claim.Epoch)
}
