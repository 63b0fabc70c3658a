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
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/blinklabs-io/ballot/internal/version"
	lcommon "github.com/blinklabs-io/ballot/ledger/common"
	"github.com/ethereum/go-ethereum/common"
)

// writeJSON writes a JSON response with the given status code
func writeJSON(
	w http.ResponseWriter,
	status int,
	v any,
) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	//nolint:errcheck,errchkjson
	json.NewEncoder(w).Encode(v)
}

// writeError writes an error response
func writeError(
	w http.ResponseWriter,
	status int,
	message string,
) {
	writeJSON(w, status, ErrorResponse{
		StatusCode: status,
		Error:      http.StatusText(status),
		Message:    message,
	})
}

// writeLookupError maps a node error to a response. Unknown records are
// reported as 404, anything else as 500
func (a *API) writeLookupError(
	w http.ResponseWriter,
	err error,
	message string,
) {
	if errors.Is(err, lcommon.ErrNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	a.logger.Error(message, "error", err)
	writeError(w, http.StatusInternalServerError, message)
}

// pathUint parses a numeric path parameter, writing a 400 response when it
// is malformed
func pathUint(
	w http.ResponseWriter,
	r *http.Request,
	name string,
) (uint64, bool) {
	v, err := strconv.ParseUint(r.PathValue(name), 10, 64)
	if err != nil {
		writeError(
			w,
			http.StatusBadRequest,
			"invalid "+name+": "+r.PathValue(name),
		)
		return 0, false
	}
	return v, true
}

func amount(v uint64) string {
	return strconv.FormatUint(v, 10)
}

// handleRoot handles GET / and returns API metadata
func (a *API) handleRoot(
	w http.ResponseWriter,
	_ *http.Request,
) {
	writeJSON(w, http.StatusOK, RootResponse{
		Name:    "ballot",
		Version: version.GetVersionString(),
	})
}

// handleHealth handles GET /health
func (a *API) handleHealth(
	w http.ResponseWriter,
	_ *http.Request,
) {
	writeJSON(w, http.StatusOK, HealthResponse{
		IsHealthy: true,
	})
}

// handleCurrentEpoch handles GET /api/v0/epochs/current
func (a *API) handleCurrentEpoch(
	w http.ResponseWriter,
	r *http.Request,
) {
	info, err := a.node.CurrentEpoch(r.Context(), a.config.Now())
	if err != nil {
		a.writeLookupError(w, err, "failed to retrieve current epoch")
		return
	}
	writeJSON(w, http.StatusOK, epochResponse(info))
}

// handleEpoch handles GET /api/v0/epochs/{epoch}
func (a *API) handleEpoch(
	w http.ResponseWriter,
	r *http.Request,
) {
	epochNum, ok := pathUint(w, r, "epoch")
	if !ok {
		return
	}
	info, err := a.node.Epoch(r.Context(), epochNum, a.config.Now())
	if err != nil {
		a.writeLookupError(w, err, "failed to retrieve epoch")
		return
	}
	writeJSON(w, http.StatusOK, epochResponse(info))
}

func epochResponse(info EpochInfo) EpochResponse {
	return EpochResponse{
		Epoch:            info.Number,
		Phase:            info.Phase,
		StartTime:        info.StartTime,
		EndTime:          info.EndTime,
		VotingEnd:        info.VotingEnd,
		DistributionEnd:  info.DistributionEnd,
		TotalVotingPower: amount(info.TotalVotingPower),
		TotalDistributed: amount(info.TotalDistributed),
		Finalized:        info.Finalized,
		WeightsFinalized: info.WeightsFinalized,
		Distributed:      info.Distributed,
	}
}

// handleProposal handles GET /api/v0/proposals/{id}
func (a *API) handleProposal(
	w http.ResponseWriter,
	r *http.Request,
) {
	id, ok := pathUint(w, r, "id")
	if !ok {
		return
	}
	info, err := a.node.Proposal(r.Context(), id, a.config.Now())
	if err != nil {
		a.writeLookupError(w, err, "failed to retrieve proposal")
		return
	}
	resp := ProposalResponse{
		ID:           info.ID,
		Proposer:     info.Proposer.Hex(),
		Title:        info.Title,
		Description:  info.Description,
		ContentHash:  info.ContentHash.Hex(),
		BodyHash:     info.BodyHash.Hex(),
		State:        info.State,
		CreatedTime:  info.CreatedTime,
		VoteStart:    info.VoteStart,
		VoteEnd:      info.VoteEnd,
		ForVotes:     amount(info.ForVotes),
		AgainstVotes: amount(info.AgainstVotes),
		AbstainVotes: amount(info.AbstainVotes),
		TotalPower:   amount(info.TotalPower),
		Accelerated:  info.Accelerated,
	}
	if info.ExecutionTime != 0 {
		resp.ExecutionTime = &info.ExecutionTime
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleProposalCouncil handles GET /api/v0/proposals/{id}/council
func (a *API) handleProposalCouncil(
	w http.ResponseWriter,
	r *http.Request,
) {
	id, ok := pathUint(w, r, "id")
	if !ok {
		return
	}
	actions, err := a.node.CouncilActions(r.Context(), id, a.config.Now())
	if err != nil {
		a.writeLookupError(w, err, "failed to retrieve council actions")
		return
	}
	resp := make([]CouncilActionResponse, 0, len(actions))
	for _, action := range actions {
		item := CouncilActionResponse{
			ID:          action.ID,
			Kind:        action.Kind,
			Initiator:   action.Initiator.Hex(),
			CreatedTime: action.CreatedTime,
			ExpiryTime:  action.ExpiryTime,
			Approvals:   len(action.Approvers),
			Approvers:   hexAddresses(action.Approvers),
			Executed:    action.Executed,
			Expired:     action.Expired,
		}
		if action.NewVotingPeriod != 0 {
			item.NewVotingPeriod = &action.NewVotingPeriod
			item.NewTimelockDelay = &action.NewTimelockDelay
		}
		resp = append(resp, item)
	}
	writeJSON(w, http.StatusOK, resp)
}

func hexAddresses(addrs []common.Address) []string {
	ret := make([]string, 0, len(addrs))
	for _, addr := range addrs {
		ret = append(ret, addr.Hex())
	}
	return ret
}

// handleGauges handles GET /api/v0/gauges with count, page and order
// query parameters
func (a *API) handleGauges(
	w http.ResponseWriter,
	r *http.Request,
) {
	params, err := ParsePagination(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	gauges, err := a.node.Gauges(r.Context())
	if err != nil {
		a.writeLookupError(w, err, "failed to retrieve gauges")
		return
	}
	SetPaginationHeaders(w, len(gauges), params)
	page := Paginate(gauges, params)
	resp := make([]GaugeResponse, 0, len(page))
	for _, g := range page {
		resp = append(resp, GaugeResponse{
			ID:       g.ID,
			Target:   g.Target.Hex(),
			Name:     g.Name,
			Category: g.Category,
			Kind:     g.Kind,
			Active:   g.Active,
			Balance:  amount(g.Balance),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleGaugeWeight handles GET /api/v0/gauges/{id}/weights/{epoch}
func (a *API) handleGaugeWeight(
	w http.ResponseWriter,
	r *http.Request,
) {
	id, ok := pathUint(w, r, "id")
	if !ok {
		return
	}
	epochNum, ok := pathUint(w, r, "epoch")
	if !ok {
		return
	}
	info, err := a.node.GaugeWeight(r.Context(), id, epochNum)
	if err != nil {
		a.writeLookupError(w, err, "failed to retrieve gauge weight")
		return
	}
	writeJSON(w, http.StatusOK, GaugeWeightResponse{
		GaugeID:           info.GaugeID,
		Epoch:             info.Epoch,
		TotalVotingPower:  amount(info.TotalVotingPower),
		RelativeWeightBps: info.RelativeWeightBps,
	})
}

// handleGrantClaimable handles GET /api/v0/grants/{id}/claimable/{epoch}
func (a *API) handleGrantClaimable(
	w http.ResponseWriter,
	r *http.Request,
) {
	id, ok := pathUint(w, r, "id")
	if !ok {
		return
	}
	epochNum, ok := pathUint(w, r, "epoch")
	if !ok {
		return
	}
	claimable, err := a.node.GrantClaimable(r.Context(), id, epochNum)
	if err != nil {
		a.writeLookupError(w, err, "failed to retrieve claimable amount")
		return
	}
	writeJSON(w, http.StatusOK, ClaimableResponse{
		GrantID:   id,
		Epoch:     epochNum,
		Claimable: amount(claimable),
	})
}
