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

package badger

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
)

// Default sizes for BadgerDB (in bytes). Governance documents are small, so
// these are far below badger's own defaults
const (
	DefaultBlockCacheSize   = 64 << 20
	DefaultIndexCacheSize   = 32 << 20
	DefaultValueLogFileSize = 64 << 20
	DefaultMemTableSize     = 16 << 20
)

// Settings are the user facing tunables of the store
type Settings struct {
	// DataDir holds the badger files under blob/. Empty keeps the store in
	// memory
	DataDir        string
	BlockCacheSize uint64
	IndexCacheSize uint64
	// GC runs value log garbage collection on an on-disk store
	GC bool
}

// DefaultSettings returns an in-memory store with collection enabled
func DefaultSettings() Settings {
	return Settings{
		BlockCacheSize: DefaultBlockCacheSize,
		IndexCacheSize: DefaultIndexCacheSize,
		GC:             true,
	}
}

type BlobStoreBadgerOptionFunc func(*BlobStoreBadger)

// WithLogger sets the logger used by the store and by badger itself
func WithLogger(logger *slog.Logger) BlobStoreBadgerOptionFunc {
	return func(b *BlobStoreBadger) {
		b.logger = logger
	}
}

// WithPromRegistry sets the registry for the store metrics
func WithPromRegistry(registry prometheus.Registerer) BlobStoreBadgerOptionFunc {
	return func(b *BlobStoreBadger) {
		b.promRegistry = registry
	}
}

// WithSettings replaces all tunables
func WithSettings(settings Settings) BlobStoreBadgerOptionFunc {
	return func(b *BlobStoreBadger) {
		b.settings = settings
	}
}

// WithDataDir sets only the data directory
func WithDataDir(dataDir string) BlobStoreBadgerOptionFunc {
	return func(b *BlobStoreBadger) {
		b.settings.DataDir = dataDir
	}
}
