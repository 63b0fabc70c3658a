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

package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	lcommon "github.com/blinklabs-io/ballot/ledger/common"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

var testNow = time.Unix(1_700_000_000, 0)

// mockNode implements GovernanceNode for testing
type mockNode struct {
	epoch       EpochInfo
	proposal    ProposalInfo
	actions     []CouncilActionInfo
	gauges      []GaugeInfo
	weight      GaugeWeightInfo
	claimable   uint64
	err         error
	lastEpoch   uint64
	lastNow     time.Time
	lastGauge   uint64
	lastGrantID uint64
}

func (m *mockNode) CurrentEpoch(_ context.Context, now time.Time) (EpochInfo, error) {
	m.lastNow = now
	return m.epoch, m.err
}

func (m *mockNode) Epoch(_ context.Context, epoch uint64, now time.Time) (EpochInfo, error) {
	m.lastEpoch = epoch
	m.lastNow = now
	return m.epoch, m.err
}

func (m *mockNode) Proposal(_ context.Context, id uint64, _ time.Time) (ProposalInfo, error) {
	if m.err != nil {
		return ProposalInfo{}, m.err
	}
	if id != m.proposal.ID {
		return ProposalInfo{}, fmt.Errorf("%w: proposal %d", lcommon.ErrNotFound, id)
	}
	return m.proposal, nil
}

func (m *mockNode) CouncilActions(_ context.Context, _ uint64, _ time.Time) ([]CouncilActionInfo, error) {
	return m.actions, m.err
}

func (m *mockNode) Gauges(context.Context) ([]GaugeInfo, error) {
	return m.gauges, m.err
}

func (m *mockNode) GaugeWeight(_ context.Context, gaugeID uint64, _ uint64) (GaugeWeightInfo, error) {
	m.lastGauge = gaugeID
	return m.weight, m.err
}

func (m *mockNode) GrantClaimable(_ context.Context, grantID uint64, _ uint64) (uint64, error) {
	m.lastGrantID = grantID
	return m.claimable, m.err
}

func newTestAPI(node GovernanceNode) *API {
	return New(
		APIConfig{
			ListenAddress: "127.0.0.1:0",
			Now:           func() time.Time { return testNow },
		},
		node,
		nil,
	)
}

func serve(t *testing.T, a *API, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	a.Handler().ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	var ret T
	require.NoError(t, json.NewDecoder(w.Body).Decode(&ret))
	return ret
}

func TestStartStop(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())
	a := newTestAPI(&mockNode{})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, a.Start(ctx))
	require.NotEmpty(t, a.Addr())
	err := a.Start(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already started")

	client := &http.Client{
		Transport: &http.Transport{DisableKeepAlives: true},
		Timeout:   5 * time.Second,
	}
	resp, err := client.Get("http://" + a.Addr() + "/health")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"is_healthy":true}`, string(body))

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer stopCancel()
	require.NoError(t, a.Stop(stopCtx))
	// Stopping twice is harmless
	require.NoError(t, a.Stop(stopCtx))
	cancel()
}

func TestStopOnContextCancel(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())
	a := newTestAPI(&mockNode{})
	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, a.Start(ctx))
	cancel()
	require.Eventually(
		t,
		func() bool {
			a.mu.Lock()
			defer a.mu.Unlock()
			return a.httpServer == nil
		},
		5*time.Second,
		10*time.Millisecond,
	)
}

func TestHandleRootAndHealth(t *testing.T) {
	a := newTestAPI(&mockNode{})
	w := serve(t, a, "/")
	assert.Equal(t, http.StatusOK, w.Code)
	root := decode[RootResponse](t, w)
	assert.Equal(t, "ballot", root.Name)
	assert.NotEmpty(t, root.Version)

	w = serve(t, a, "/health")
	assert.True(t, decode[HealthResponse](t, w).IsHealthy)

	w = serve(t, a, "/nope")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandleEpochs(t *testing.T) {
	node := &mockNode{
		epoch: EpochInfo{
			Number:           3,
			Phase:            "voting",
			StartTime:        100,
			EndTime:          200,
			VotingEnd:        150,
			DistributionEnd:  170,
			TotalVotingPower: 18_446_744_073_709_551_615,
			TotalDistributed: 42,
		},
	}
	a := newTestAPI(node)

	w := serve(t, a, "/api/v0/epochs/current")
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[EpochResponse](t, w)
	assert.Equal(t, uint64(3), resp.Epoch)
	assert.Equal(t, "voting", resp.Phase)
	assert.Equal(t, "18446744073709551615", resp.TotalVotingPower)
	assert.Equal(t, "42", resp.TotalDistributed)
	assert.Equal(t, testNow, node.lastNow)

	w = serve(t, a, "/api/v0/epochs/2")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, uint64(2), node.lastEpoch)

	w = serve(t, a, "/api/v0/epochs/-1")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	errResp := decode[ErrorResponse](t, w)
	assert.Equal(t, http.StatusBadRequest, errResp.StatusCode)
	assert.Equal(t, "Bad Request", errResp.Error)

	node.err = errors.New("database unavailable")
	w = serve(t, a, "/api/v0/epochs/current")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	// Internal errors are not leaked to clients
	assert.NotContains(t, w.Body.String(), "database unavailable")
}

func TestHandleProposal(t *testing.T) {
	proposer := common.HexToAddress("0xba00000000000000000000000000000000000010")
	node := &mockNode{
		proposal: ProposalInfo{
			ID:          7,
			Proposer:    proposer,
			Title:       "Fund the audit",
			State:       "active",
			VoteStart:   10,
			VoteEnd:     20,
			ForVotes:    150_000,
			TotalPower:  1_000_000,
			Accelerated: true,
		},
	}
	a := newTestAPI(node)

	w := serve(t, a, "/api/v0/proposals/7")
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[ProposalResponse](t, w)
	assert.Equal(t, uint64(7), resp.ID)
	assert.Equal(t, proposer.Hex(), resp.Proposer)
	assert.Equal(t, "active", resp.State)
	assert.Equal(t, "150000", resp.ForVotes)
	assert.Equal(t, "0", resp.AgainstVotes)
	assert.Nil(t, resp.ExecutionTime)
	assert.True(t, resp.Accelerated)

	w = serve(t, a, "/api/v0/proposals/8")
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = serve(t, a, "/api/v0/proposals/abc")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleProposalCouncil(t *testing.T) {
	members := []common.Address{
		common.HexToAddress("0xba00000000000000000000000000000000000020"),
		common.HexToAddress("0xba00000000000000000000000000000000000021"),
	}
	node := &mockNode{
		actions: []CouncilActionInfo{
			{
				ID:        1,
				Kind:      "veto",
				Initiator: members[0],
				Approvers: members,
				Executed:  true,
			},
			{
				ID:               2,
				Kind:             "speedup",
				Initiator:        members[1],
				Approvers:        members[1:],
				Expired:          true,
				NewVotingPeriod:  86400,
				NewTimelockDelay: 3600,
			},
		},
	}
	a := newTestAPI(node)

	w := serve(t, a, "/api/v0/proposals/1/council")
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[[]CouncilActionResponse](t, w)
	require.Len(t, resp, 2)
	assert.Equal(t, "veto", resp[0].Kind)
	assert.Equal(t, 2, resp[0].Approvals)
	assert.Equal(t, []string{members[0].Hex(), members[1].Hex()}, resp[0].Approvers)
	assert.Nil(t, resp[0].NewVotingPeriod)
	assert.True(t, resp[1].Expired)
	require.NotNil(t, resp[1].NewTimelockDelay)
	assert.Equal(t, int64(3600), *resp[1].NewTimelockDelay)

	// No actions renders as an empty list
	node.actions = nil
	w = serve(t, a, "/api/v0/proposals/1/council")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestHandleGauges(t *testing.T) {
	node := &mockNode{}
	for i := range uint64(5) {
		node.gauges = append(node.gauges, GaugeInfo{
			ID:      i + 1,
			Name:    fmt.Sprintf("gauge-%d", i+1),
			Kind:    "standard",
			Active:  true,
			Balance: i * 100,
		})
	}
	a := newTestAPI(node)

	w := serve(t, a, "/api/v0/gauges?count=2&page=2")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "5", w.Header().Get("X-Pagination-Count-Total"))
	assert.Equal(t, "3", w.Header().Get("X-Pagination-Page-Total"))
	resp := decode[[]GaugeResponse](t, w)
	require.Len(t, resp, 2)
	assert.Equal(t, uint64(3), resp[0].ID)
	assert.Equal(t, "200", resp[0].Balance)

	w = serve(t, a, "/api/v0/gauges?order=desc&count=1")
	resp = decode[[]GaugeResponse](t, w)
	require.Len(t, resp, 1)
	assert.Equal(t, uint64(5), resp[0].ID)

	w = serve(t, a, "/api/v0/gauges?count=abc")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleGaugeWeightAndClaimable(t *testing.T) {
	node := &mockNode{
		weight: GaugeWeightInfo{
			GaugeID:           4,
			Epoch:             2,
			TotalVotingPower:  250,
			RelativeWeightBps: 6250,
		},
		claimable: 300,
	}
	a := newTestAPI(node)

	w := serve(t, a, "/api/v0/gauges/4/weights/2")
	require.Equal(t, http.StatusOK, w.Code)
	weight := decode[GaugeWeightResponse](t, w)
	assert.Equal(t, uint32(6250), weight.RelativeWeightBps)
	assert.Equal(t, "250", weight.TotalVotingPower)
	assert.Equal(t, uint64(4), node.lastGauge)

	w = serve(t, a, "/api/v0/grants/9/claimable/3")
	require.Equal(t, http.StatusOK, w.Code)
	claimable := decode[ClaimableResponse](t, w)
	assert.Equal(t, ClaimableResponse{GrantID: 9, Epoch: 3, Claimable: "300"}, claimable)
	assert.Equal(t, uint64(9), node.lastGrantID)

	w = serve(t, a, "/api/v0/grants/9/claimable/x")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	node.err = fmt.Errorf("%w: grant 9", lcommon.ErrNotFound)
	w = serve(t, a, "/api/v0/grants/9/claimable/3")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
