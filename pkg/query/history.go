// Copyright (c) 2025, NVIDIA CORPORATION.  All rights reserved.
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

package query

import (
	"context"
	"fmt"
	"time"

	"github.com/NVIDIA/fleet-telemetry/pkg/errors"
	"github.com/NVIDIA/fleet-telemetry/pkg/measurement"
	"github.com/NVIDIA/fleet-telemetry/pkg/persistency"
)

// HistoryReader reads persisted samples.
type HistoryReader interface {
	History(ctx context.Context, t measurement.Type, deviceID string, since time.Time, limit int) ([]persistency.Record, error)
}

var _ HistoryReader = (*persistency.Store)(nil)

// History returns the persisted samples of one metric of a device newer
// than since, oldest first.
func (s *Service) History(ctx context.Context, deviceID string, t measurement.Type, since time.Time, limit int) ([]persistency.Record, error) {
	if _, err := s.device(deviceID); err != nil {
		return nil, err
	}
	if s.history == nil {
		return nil, errors.New(errors.ErrCodeUnavailable, "history is not enabled")
	}
	if !t.IsValid() {
		return nil, errors.NewWithContext(errors.ErrCodeInvalidRequest,
			fmt.Sprintf("unknown measurement type %q", t),
			map[string]any{"type": string(t)})
	}

	records, err := s.history.History(ctx, t, deviceID, since, limit)
	if err != nil {
		return nil, errors.WrapWithContext(errors.ErrCodeInternal, "failed to read history", err,
			map[string]any{"device": deviceID, "type": string(t)})
	}
	if records == nil {
		records = []persistency.Record{}
	}
	return records, nil
}
