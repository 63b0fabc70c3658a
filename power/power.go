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

// Package power provides voting power sources backed by memory or a
// positions file
package power

import (
	"context"
	"fmt"
	"os"
	"slices"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"gopkg.in/yaml.v3"
)

// Position is a locked position and its current voting power
type Position struct {
	ID    uint64         `yaml:"id"`
	Owner common.Address `yaml:"owner"`
	Power uint64         `yaml:"power"`
}

// MemorySource is a mutable in-memory voting power source. The total
// voting power is the sum of all positions unless set explicitly
type MemorySource struct {
	mu        sync.RWMutex
	positions map[uint64]Position
	total     *uint64
}

func NewMemorySource(positions ...Position) *MemorySource {
	m := &MemorySource{
		positions: make(map[uint64]Position),
	}
	for _, p := range positions {
		m.positions[p.ID] = p
	}
	return m
}

// SetPosition adds or replaces a position
func (m *MemorySource) SetPosition(p Position) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.positions[p.ID] = p
}

// RemovePosition drops a position
func (m *MemorySource) RemovePosition(id uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.positions, id)
}

// SetTotal overrides the total voting power
func (m *MemorySource) SetTotal(total uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.total = &total
}

func (m *MemorySource) VotingPowerOf(_ context.Context, positionID uint64) (uint64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.positions[positionID].Power, nil
}

func (m *MemorySource) TotalVotingPower(context.Context) (uint64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.total != nil {
		return *m.total, nil
	}
	var total uint64
	for _, p := range m.positions {
		if total+p.Power < total {
			return 0, fmt.Errorf("total voting power overflows")
		}
		total += p.Power
	}
	return total, nil
}

func (m *MemorySource) IsAuthorized(
	_ context.Context,
	caller common.Address,
	positionID uint64,
) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.positions[positionID]
	return ok && p.Owner == caller, nil
}

func (m *MemorySource) PositionsOwnedBy(
	_ context.Context,
	account common.Address,
) ([]uint64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var ret []uint64
	for id, p := range m.positions {
		if p.Owner == account {
			ret = append(ret, id)
		}
	}
	slices.Sort(ret)
	return ret, nil
}

type positionsFile struct {
	Total     *uint64    `yaml:"total"`
	Positions []Position `yaml:"positions"`
}

// LoadFile builds a MemorySource from a YAML positions file
func LoadFile(path string) (*MemorySource, error) {
	// #nosec G304
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read positions file: %w", err)
	}
	var f positionsFile
	if err := yaml.Unmarshal(buf, &f); err != nil {
		return nil, fmt.Errorf("failed to parse positions file: %w", err)
	}
	m := NewMemorySource()
	for _, p := range f.Positions {
		if _, ok := m.positions[p.ID]; ok {
			return nil, fmt.Errorf("duplicate position %d in positions file", p.ID)
		}
		m.positions[p.ID] = p
	}
	if f.Total != nil {
		m.SetTotal(*f.Total)
	}
	return m, nil
}
