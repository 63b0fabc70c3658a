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

package types

import (
	"slices"
)

const (
	DocumentBlobKeyPrefix = "doc/"
	CommitTimestampKey    = "metadata_commit_timestamp"
)

// DocumentKind identifies the type of document kept in the blob store
type DocumentKind string

const (
	DocumentKindProposal      DocumentKind = "proposal"
	DocumentKindGrantMetadata DocumentKind = "grant"
)

// DocumentBlobKey returns the blob key for a document of the given kind,
// addressed by its content hash
func DocumentBlobKey(kind DocumentKind, hash []byte) []byte {
	return slices.Concat(
		[]byte(DocumentBlobKeyPrefix),
		[]byte(kind),
		[]byte("/"),
		hash,
	)
}
