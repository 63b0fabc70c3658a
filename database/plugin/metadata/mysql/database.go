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

package mysql

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/blinklabs-io/ballot/database/plugin/metadata/internal/gormstore"
	"github.com/go-sql-driver/mysql"
	"github.com/prometheus/client_golang/prometheus"
	gormmysql "gorm.io/driver/mysql"
)

// MySQL error code for an unknown database
const errUnknownDatabase = 1049

// MetadataStoreMysql stores metadata in MySQL
type MetadataStoreMysql struct {
	*gormstore.Store
	promRegistry prometheus.Registerer
	logger       *slog.Logger
	server       gormstore.Server
}

// NewWithOptions creates a new, unconnected store. The connection is made
// in Start()
func NewWithOptions(opts ...MysqlOptionFunc) (*MetadataStoreMysql, error) {
	db := &MetadataStoreMysql{}
	for _, opt := range opts {
		opt(db)
	}
	db.server.Fill(defaultServer)
	if db.logger == nil {
		db.logger = slog.Default()
	}
	return db, nil
}

// DSN returns the connection string and the database name it refers to
func (d *MetadataStoreMysql) DSN() (string, string) {
	if dsn := strings.TrimSpace(d.server.DSN); dsn != "" {
		if parsedDB, ok := databaseFromDSN(dsn); ok {
			return dsn, parsedDB
		}
		return dsn, d.server.Database
	}
	cfg := mysql.NewConfig()
	cfg.User = d.server.User
	cfg.Passwd = d.server.Password
	cfg.Net = "tcp"
	cfg.Addr = net.JoinHostPort(
		d.server.Host,
		strconv.FormatUint(d.server.Port, 10),
	)
	cfg.DBName = d.server.Database
	cfg.ParseTime = true
	if loc, err := time.LoadLocation(d.server.TimeZone); err == nil {
		cfg.Loc = loc
	}
	if d.server.SSLMode != "" {
		cfg.TLSConfig = d.server.SSLMode
	}
	return cfg.FormatDSN(), d.server.Database
}

// Start implements the plugin.Plugin interface. A missing database is
// created on first connect
func (d *MetadataStoreMysql) Start() error {
	dsn, dbName := d.DSN()
	metadataDb, err := gormstore.Open(gormmysql.Open(dsn))
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) && mysqlErr.Number == errUnknownDatabase {
		if createErr := d.ensureDatabaseExists(dsn, dbName); createErr != nil {
			return errors.Join(err, createErr)
		}
		metadataDb, err = gormstore.Open(gormmysql.Open(dsn))
	}
	if err != nil {
		return err
	}
	d.logger.Info(
		"connected to mysql metadata store",
		"address", net.JoinHostPort(
			d.server.Host,
			strconv.FormatUint(d.server.Port, 10),
		),
		"database", dbName,
		"component", "database",
	)
	store, err := gormstore.NewPooled(
		metadataDb,
		"metadata_mysql",
		d.logger,
		d.promRegistry,
	)
	if err != nil {
		return err
	}
	d.Store = store
	return nil
}

func (d *MetadataStoreMysql) ensureDatabaseExists(
	dsn string,
	dbName string,
) error {
	if dbName == "" {
		return errors.New("no database name in DSN")
	}
	adminDsn, ok := serverDSN(dsn)
	if !ok {
		return errors.New("could not derive server DSN")
	}
	adminDb, err := gormstore.Open(gormmysql.Open(adminDsn))
	if err != nil {
		return err
	}
	sqlAdminDb, err := adminDb.DB()
	if err != nil {
		return err
	}
	defer sqlAdminDb.Close()
	d.logger.Info(
		"creating mysql database",
		"database", dbName,
		"component", "database",
	)
	return adminDb.Exec(
		fmt.Sprintf("CREATE DATABASE IF NOT EXISTS `%s`", dbName),
	).Error
}

// databaseFromDSN returns the database name a DSN selects
func databaseFromDSN(dsn string) (string, bool) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil || cfg.DBName == "" {
		return "", false
	}
	return cfg.DBName, true
}

// serverDSN returns the DSN with its database removed, for connecting
// before the database exists
func serverDSN(dsn string) (string, bool) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "", false
	}
	cfg.DBName = ""
	return cfg.FormatDSN(), true
}

// Stop implements the plugin.Plugin interface
func (d *MetadataStoreMysql) Stop() error {
	return d.Close()
}

// Close closes the connection, if Start() opened one
func (d *MetadataStoreMysql) Close() error {
	if d.Store == nil {
		return nil
	}
	return d.Store.Close()
}
