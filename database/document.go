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

package database

import (
	"errors"
	"fmt"

	"github.com/blinklabs-io/ballot/database/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/fxamacker/cbor/v2"
)

// ErrDocumentNotFound is returned when no document exists for a hash
var ErrDocumentNotFound = errors.New("document not found")

// Documents use the core deterministic encoding so equal content always
// hashes to the same key
var documentEncMode, documentEncModeErr = cbor.CoreDetEncOptions().EncMode()

// EncodeDocument returns the canonical CBOR encoding of a document and its
// keccak256 hash
func EncodeDocument(doc any) ([]byte, common.Hash, error) {
	if documentEncModeErr != nil {
		return nil, common.Hash{}, documentEncModeErr
	}
	data, err := documentEncMode.Marshal(doc)
	if err != nil {
		return nil, common.Hash{}, fmt.Errorf("encode document: %w", err)
	}
	return data, crypto.Keccak256Hash(data), nil
}

// PutDocument stores a document in the blob store and returns its hash
func (d *Database) PutDocument(
	kind types.DocumentKind,
	doc any,
	txn *Txn,
) (common.Hash, error) {
	data, hash, err := EncodeDocument(doc)
	if err != nil {
		return common.Hash{}, err
	}
	key := types.DocumentBlobKey(kind, hash.Bytes())
	setFn := func(txn *Txn) error {
		if txn.Blob() == nil {
			return types.ErrBlobStoreUnavailable
		}
		return d.blob.Set(txn.Blob(), key, data)
	}
	if txn == nil {
		err = d.Transaction(true).Do(setFn)
	} else {
		err = setFn(txn)
	}
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to store %s document: %w", kind, err)
	}
	return hash, nil
}

// GetDocument loads the document with the given hash into dest
func (d *Database) GetDocument(
	kind types.DocumentKind,
	hash common.Hash,
	dest any,
	txn *Txn,
) error {
	if txn == nil {
		txn = d.Transaction(false)
		defer txn.Release()
	}
	if txn.Blob() == nil {
		return types.ErrBlobStoreUnavailable
	}
	data, err := d.blob.Get(txn.Blob(), types.DocumentBlobKey(kind, hash.Bytes()))
	if err != nil {
		if errors.Is(err, types.ErrBlobKeyNotFound) {
			return fmt.Errorf("%w: %s %s", ErrDocumentNotFound, kind, hash.Hex())
		}
		return err
	}
	if err := cbor.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("decode %s document: %w", kind, err)
	}
	return nil
}
