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

package postgres

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/blinklabs-io/ballot/database/plugin/metadata/internal/gormstore"
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/driver/postgres"
)

var errNotStarted = errors.New("postgres metadata store not started")

// MetadataStorePostgres stores metadata in Postgres
type MetadataStorePostgres struct {
	*gormstore.Store
	promRegistry prometheus.Registerer
	logger       *slog.Logger
	server       gormstore.Server
}

// NewWithOptions creates a new, unconnected store. The connection is made
// in Start()
func NewWithOptions(
	opts ...PostgresOptionFunc,
) (*MetadataStorePostgres, error) {
	db := &MetadataStorePostgres{}
	for _, opt := range opts {
		opt(db)
	}
	db.server.Fill(defaultServer)
	if db.logger == nil {
		db.logger = slog.Default()
	}
	return db, nil
}

// DSN returns the connection string used by Start()
func (d *MetadataStorePostgres) DSN() string {
	if dsn := strings.TrimSpace(d.server.DSN); dsn != "" {
		return dsn
	}
	var sb strings.Builder
	fmt.Fprintf(
		&sb,
		"host=%s user=%s password=%s dbname=%s port=%d sslmode=%s",
		d.server.Host,
		d.server.User,
		d.server.Password,
		d.server.Database,
		d.server.Port,
		d.server.SSLMode,
	)
	if d.server.TimeZone != "" {
		sb.WriteString(" TimeZone=" + d.server.TimeZone)
	}
	return sb.String()
}

// Start implements the plugin.Plugin interface
func (d *MetadataStorePostgres) Start() error {
	metadataDb, err := gormstore.Open(postgres.Open(d.DSN()))
	if err != nil {
		return err
	}
	d.logger.Info(
		"connected to postgres metadata store",
		"host", d.server.Host,
		"database", d.server.Database,
		"component", "database",
	)
	store, err := gormstore.NewPooled(
		metadataDb,
		"metadata_postgres",
		d.logger,
		d.promRegistry,
	)
	if err != nil {
		return err
	}
	d.Store = store
	return nil
}

// Stop implements the plugin.Plugin interface
func (d *MetadataStorePostgres) Stop() error {
	return d.Close()
}

// Close closes the connection, if Start() opened one
func (d *MetadataStorePostgres) Close() error {
	if d.Store == nil {
		return nil
	}
	return d.Store.Close()
}

// Ping checks connectivity to the server
func (d *MetadataStorePostgres) Ping() error {
	if d.Store == nil {
		return errNotStarted
	}
	sqlDB, err := d.DB().DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}
