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

// Package api serves a read-only JSON view of the governance ledger
package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"
)

// APIConfig holds the HTTP server settings
type APIConfig struct {
	ListenAddress string
	// Now supplies the time used to compute epochs and proposal states.
	// It defaults to time.Now
	Now func() time.Time
}

// API is the read-only governance REST API server
type API struct {
	config     APIConfig
	logger     *slog.Logger
	node       GovernanceNode
	httpServer *http.Server
	listenAddr string
	mu         sync.Mutex
}

// New creates a new API server instance
func New(
	cfg APIConfig,
	node GovernanceNode,
	logger *slog.Logger,
) *API {
	if logger == nil {
		logger = slog.New(
			slog.NewJSONHandler(io.Discard, nil),
		)
	}
	logger = logger.With("component", "api")
	if cfg.ListenAddress == "" {
		cfg.ListenAddress = ":8080"
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &API{
		config: cfg,
		logger: logger,
		node:   node,
	}
}

// Handler returns the request router
func (a *API) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", a.handleRoot)
	mux.HandleFunc("GET /health", a.handleHealth)
	mux.HandleFunc(
		"GET /api/v0/epochs/current",
		a.handleCurrentEpoch,
	)
	mux.HandleFunc(
		"GET /api/v0/epochs/{epoch}",
		a.handleEpoch,
	)
	mux.HandleFunc(
		"GET /api/v0/proposals/{id}",
		a.handleProposal,
	)
	mux.HandleFunc(
		"GET /api/v0/proposals/{id}/council",
		a.handleProposalCouncil,
	)
	mux.HandleFunc(
		"GET /api/v0/gauges",
		a.handleGauges,
	)
	mux.HandleFunc(
		"GET /api/v0/gauges/{id}/weights/{epoch}",
		a.handleGaugeWeight,
	)
	mux.HandleFunc(
		"GET /api/v0/grants/{id}/claimable/{epoch}",
		a.handleGrantClaimable,
	)
	return mux
}

// Start starts the HTTP server in a background goroutine. The server stops
// when ctx is cancelled
func (a *API) Start(
	ctx context.Context,
) error {
	a.mu.Lock()
	if a.httpServer != nil {
		a.mu.Unlock()
		return errors.New("server already started")
	}
	server := &http.Server{
		Addr:              a.config.ListenAddress,
		Handler:           a.Handler(),
		ReadHeaderTimeout: 60 * time.Second,
	}
	a.httpServer = server
	a.mu.Unlock()

	ln, err := a.startServer(server)
	if err != nil {
		a.mu.Lock()
		a.httpServer = nil
		a.mu.Unlock()
		return err
	}

	a.mu.Lock()
	a.listenAddr = ln.Addr().String()
	a.mu.Unlock()
	a.logger.Info(
		"API listener started on " + ln.Addr().String(),
	)

	// Monitor context for cancellation
	go func() {
		<-ctx.Done()
		a.mu.Lock()
		srv := a.httpServer
		a.httpServer = nil
		a.mu.Unlock()

		if srv != nil {
			a.logger.Debug(
				"context cancelled, shutting down API server",
			)
			//nolint:contextcheck
			shutdownCtx, cancel := context.WithTimeout(
				context.Background(),
				30*time.Second,
			)
			defer cancel()
			//nolint:contextcheck
			if err := srv.Shutdown(shutdownCtx); err != nil {
				a.logger.Error(
					"failed to shutdown API server on context cancellation",
					"error", err,
				)
			}
		}
	}()

	return nil
}

// Addr returns the address the server is listening on. It is empty until
// the server starts
func (a *API) Addr() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.listenAddr
}

// Stop gracefully shuts down the HTTP server
func (a *API) Stop(
	ctx context.Context,
) error {
	a.mu.Lock()
	srv := a.httpServer
	a.httpServer = nil
	a.mu.Unlock()

	if srv != nil {
		a.logger.Debug("shutting down API server")
		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf(
				"failed to shutdown API server: %w",
				err,
			)
		}
	}
	return nil
}

// startServer binds the listening socket first so port conflicts are
// reported to the caller, then serves in a background goroutine
func (a *API) startServer(
	server *http.Server,
) (net.Listener, error) {
	ln, err := net.Listen("tcp", server.Addr)
	if err != nil {
		return nil, fmt.Errorf(
			"failed to listen for API server: %w",
			err,
		)
	}
	go func() {
		if err := server.Serve(ln); err != nil &&
			!errors.Is(err, http.ErrServerClosed) {
			a.logger.Error(
				"API server error",
				"error", err,
			)
		}
	}()
	return ln, nil
}
