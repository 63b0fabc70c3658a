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

package common

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/blinklabs-io/ballot/database"
	"github.com/blinklabs-io/ballot/event"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/blinklabs-io/ballot/ledger"

type transitionKey struct{}

// InTransition reports whether ctx belongs to a state transition that is
// still in progress
func InTransition(ctx context.Context) bool {
	v, _ := ctx.Value(transitionKey{}).(bool)
	return v
}

// Op is the handle for a single operation. All reads and writes made
// through it share one database transaction
type Op struct {
	ctx      context.Context
	db       *database.Database
	txn      *database.Txn
	events   []event.Event
	onCommit []func()
	failErr  error
	readOnly bool
}

// Context returns the operation context. It must be passed to any
// external collaborator called during the operation
func (o *Op) Context() context.Context {
	return o.ctx
}

// DB returns the database
func (o *Op) DB() *database.Database {
	return o.db
}

// Txn returns the operation transaction
func (o *Op) Txn() *database.Txn {
	return o.txn
}

// ReadOnly reports whether the operation is a view
func (o *Op) ReadOnly() bool {
	return o.readOnly
}

// Emit buffers an event. Events are published only after the operation
// commits
func (o *Op) Emit(eventType event.EventType, data any) {
	if o.readOnly {
		return
	}
	o.events = append(o.events, event.NewEvent(eventType, data))
}

// OnCommit registers a function that runs after commit while the write
// lock is still held
func (o *Op) OnCommit(fn func()) {
	o.onCommit = append(o.onCommit, fn)
}

// CommitThenFail makes the operation commit its changes and then return err
// to the caller
func (o *Op) CommitThenFail(err error) error {
	o.failErr = err
	return nil
}

// Executor runs operations one at a time against the database. Mutations
// hold an exclusive lock for their whole transaction; views share a read
// lock
type Executor struct {
	mu       sync.RWMutex
	db       *database.Database
	eventBus *event.EventBus
	logger   *slog.Logger
	metrics  *executorMetrics
	tracer   trace.Tracer
}

type ExecutorOptionFunc func(*Executor)

// WithEventBus specifies the event bus that committed events are published on
func WithEventBus(eventBus *event.EventBus) ExecutorOptionFunc {
	return func(e *Executor) {
		e.eventBus = eventBus
	}
}

// WithLogger specifies the logger object to use for logging messages
func WithLogger(logger *slog.Logger) ExecutorOptionFunc {
	return func(e *Executor) {
		e.logger = logger
	}
}

// WithPromRegistry specifies the prometheus registry to use for metrics
func WithPromRegistry(registry prometheus.Registerer) ExecutorOptionFunc {
	return func(e *Executor) {
		if registry != nil {
			e.metrics = newExecutorMetrics(registry)
		}
	}
}

// NewExecutor creates an executor on top of db
func NewExecutor(db *database.Database, opts ...ExecutorOptionFunc) *Executor {
	e := &Executor{
		db:     db,
		tracer: otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		// Create logger to throw away logs
		// We do this so we don't have to add guards around every log operation
		e.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return e
}

// DB returns the database the executor runs against
func (e *Executor) DB() *database.Database {
	return e.db
}

// Do runs fn as a single atomic state transition. The transaction commits
// only if fn returns nil
func (e *Executor) Do(
	ctx context.Context,
	name string,
	fn func(*Op) error,
) error {
	if InTransition(ctx) {
		return fmt.Errorf("%w: %s", ErrReentrantCall, name)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	ctx, span := e.tracer.Start(ctx, name)
	defer span.End()
	start := time.Now()
	op := &Op{
		ctx: context.WithValue(ctx, transitionKey{}, true),
		db:  e.db,
	}
	err := func() error {
		e.mu.Lock()
		defer e.mu.Unlock()
		op.txn = e.db.Transaction(true)
		err := op.txn.Do(func(*database.Txn) error {
			return fn(op)
		})
		if err != nil {
			return err
		}
		for _, hook := range op.onCommit {
			hook()
		}
		return nil
	}()
	if err == nil {
		e.publish(op.events)
		err = op.failErr
	}
	e.observe(name, start, err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		e.logger.Debug(
			"operation failed",
			"operation", name,
			"error", err,
			"component", "ledger",
		)
	}
	return err
}

// View runs fn with a read-only transaction
func (e *Executor) View(
	ctx context.Context,
	name string,
	fn func(*Op) error,
) error {
	if InTransition(ctx) {
		return fmt.Errorf("%w: %s", ErrReentrantCall, name)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	ctx, span := e.tracer.Start(ctx, name)
	defer span.End()
	e.mu.RLock()
	defer e.mu.RUnlock()
	txn := e.db.Transaction(false)
	defer txn.Release()
	op := &Op{
		ctx:      context.WithValue(ctx, transitionKey{}, true),
		db:       e.db,
		txn:      txn,
		readOnly: true,
	}
	err := fn(op)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func (e *Executor) publish(events []event.Event) {
	if e.eventBus == nil {
		return
	}
	e.eventBus.Publish(events...)
}

func (e *Executor) observe(name string, start time.Time, err error) {
	if e.metrics == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	e.metrics.operations.WithLabelValues(name, result).Inc()
	e.metrics.latency.WithLabelValues(name).Observe(time.Since(start).Seconds())
}
