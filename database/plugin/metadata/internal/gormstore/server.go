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
	"log/slog"
	"sync"
	"time"

	"github.com/blinklabs-io/ballot/database/plugin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Server holds the connection settings of a networked SQL server
type Server struct {
	Host     string
	User     string
	Password string
	Database string
	SSLMode  string
	TimeZone string
	// DSN replaces every other field when set
	DSN  string
	Port uint64
}

// ServerOptions guards the package-level Server a plugin exposes as
// command line options
type ServerOptions struct {
	mu     sync.RWMutex
	server Server
}

// NewServerOptions returns options initialized to defaults
func NewServerOptions(defaults Server) *ServerOptions {
	return &ServerOptions{server: defaults}
}

// Snapshot returns a copy of the current settings
func (o *ServerOptions) Snapshot() Server {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.server
}

// PluginOptions describes each setting for the plugin registry. The
// engine name prefixes the descriptions
func (o *ServerOptions) PluginOptions(engine string) []plugin.PluginOption {
	d := o.server
	return []plugin.PluginOption{
		stringOption("host", engine+" host", d.Host, &o.server.Host),
		{
			Name:         "port",
			Type:         plugin.PluginOptionTypeUint,
			Description:  engine + " port",
			DefaultValue: d.Port,
			Dest:         &o.server.Port,
		},
		stringOption("user", engine+" user", d.User, &o.server.User),
		stringOption(
			"password",
			engine+" password (required)",
			d.Password,
			&o.server.Password,
		),
		stringOption(
			"database",
			engine+" database name",
			d.Database,
			&o.server.Database,
		),
		stringOption(
			"ssl-mode",
			engine+" TLS mode",
			d.SSLMode,
			&o.server.SSLMode,
		),
		stringOption(
			"timezone",
			engine+" time zone",
			d.TimeZone,
			&o.server.TimeZone,
		),
		stringOption(
			"dsn",
			"full "+engine+" DSN (overrides other options when set)",
			d.DSN,
			&o.server.DSN,
		),
	}
}

func stringOption(
	name, description, defaultValue string,
	dest *string,
) plugin.PluginOption {
	return plugin.PluginOption{
		Name:         name,
		Type:         plugin.PluginOptionTypeString,
		Description:  description,
		DefaultValue: defaultValue,
		Dest:         dest,
	}
}

// Fill replaces empty fields with the given defaults
func (s *Server) Fill(defaults Server) {
	fill := func(v *string, d string) {
		if *v == "" {
			*v = d
		}
	}
	fill(&s.Host, defaults.Host)
	fill(&s.User, defaults.User)
	fill(&s.Database, defaults.Database)
	fill(&s.SSLMode, defaults.SSLMode)
	fill(&s.TimeZone, defaults.TimeZone)
	if s.Port == 0 {
		s.Port = defaults.Port
	}
}

// Open opens a gorm handle with the settings shared by the metadata plugins
func Open(dialector gorm.Dialector) (*gorm.DB, error) {
	return gorm.Open(
		dialector,
		&gorm.Config{
			Logger:                 gormlogger.Discard,
			SkipDefaultTransaction: true,
			PrepareStmt:            true,
		},
	)
}

// NewPooled sizes the connection pool of a networked server, registers
// its pool statistics as metricsName and builds the Store
func NewPooled(
	db *gorm.DB,
	metricsName string,
	logger *slog.Logger,
	promRegistry prometheus.Registerer,
) (*Store, error) {
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)
	if promRegistry != nil {
		if err := promRegistry.Register(
			collectors.NewDBStatsCollector(sqlDB, metricsName),
		); err != nil && logger != nil {
			logger.Warn(
				"failed to register database metrics",
				"error", err,
				"component", "database",
			)
		}
	}
	return New(db, logger)
}
