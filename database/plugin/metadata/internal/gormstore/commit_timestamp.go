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
	"github.com/blinklabs-io/ballot/database/types"
	"gorm.io/gorm/clause"
)

// The commit timestamp lives in a single row
const commitTimestampRowId = 1

// CommitTimestamp records when the last ledger transaction committed, so
// the metadata and blob stores can be checked for agreement at startup
type CommitTimestamp struct {
	ID        uint `gorm:"primarykey"`
	Timestamp int64
}

func (CommitTimestamp) TableName() string {
	return "commit_timestamp"
}

// GetCommitTimestamp returns 0 when nothing was ever committed
func (s *Store) GetCommitTimestamp() (int64, error) {
	row, err := first[CommitTimestamp](s.db, "id = ?", commitTimestampRowId)
	if err != nil || row == nil {
		return 0, err
	}
	return row.Timestamp, nil
}

func (s *Store) SetCommitTimestamp(timestamp int64, txn types.Txn) error {
	if txn == nil {
		return types.ErrNilTxn
	}
	db, err := s.resolveDB(txn)
	if err != nil {
		return err
	}
	return db.Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&CommitTimestamp{
			ID:        commitTimestampRowId,
			Timestamp: timestamp,
		}).Error
}
