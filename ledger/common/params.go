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
	"fmt"
	"strings"

	"github.com/blinklabs-io/ballot/database/models"
	"github.com/blinklabs-io/ballot/database/types"
	"github.com/blinklabs-io/ballot/event"
)

// LoadParams returns the persisted parameters of a component, keyed by
// parameter name
func LoadParams(op *Op, component string) (map[string]uint64, error) {
	params, err := op.DB().GetGovernanceParams(op.Txn())
	if err != nil {
		return nil, fmt.Errorf("failed to load %s parameters: %w", component, err)
	}
	prefix := component + "."
	ret := make(map[string]uint64)
	for _, param := range params {
		name, ok := strings.CutPrefix(param.Name, prefix)
		if !ok {
			continue
		}
		ret[name] = uint64(param.Value)
	}
	return ret, nil
}

// SetParam persists a parameter change and emits its old and new value
func (o *Op) SetParam(
	call Call,
	component string,
	name string,
	oldValue uint64,
	newValue uint64,
) error {
	param := &models.GovernanceParam{
		Name:        component + "." + name,
		Value:       types.Uint64(newValue),
		UpdatedTime: call.Now.Unix(),
	}
	if err := o.DB().SetGovernanceParam(param, o.Txn()); err != nil {
		return fmt.Errorf("failed to set parameter %s: %w", param.Name, err)
	}
	o.Emit(
		event.ParamChangedEventType,
		event.ParamChangedEvent{
			Component: component,
			Name:      name,
			OldValue:  oldValue,
			NewValue:  newValue,
			ChangedBy: call.Caller,
		},
	)
	return nil
}
