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

package defaults

import (
	"testing"
	"time"
)

func TestTimeoutConstants(t *testing.T) {
	tests := []struct {
		name     string
		timeout  time.Duration
		minValue time.Duration
		maxValue time.Duration
	}{
		{"CollectionInterval", CollectionInterval, 100 * time.Millisecond, 10 * time.Second},
		{"CollectionTimeout", CollectionTimeout, 1 * time.Second, 30 * time.Second},
		{"DataWaitTimeout", DataWaitTimeout, 5 * time.Second, 2 * time.Minute},
		{"DataWaitInterval", DataWaitInterval, 100 * time.Millisecond, 5 * time.Second},
		{"QueryHandlerTimeout", QueryHandlerTimeout, 30 * time.Second, 2 * time.Minute},
		{"ServerReadTimeout", ServerReadTimeout, 5 * time.Second, 30 * time.Second},
		{"ServerWriteTimeout", ServerWriteTimeout, 15 * time.Second, 2 * time.Minute},
		{"ServerIdleTimeout", ServerIdleTimeout, 30 * time.Second, 300 * time.Second},
		{"ServerShutdownTimeout", ServerShutdownTimeout, 10 * time.Second, 60 * time.Second},
		{"HTTPClientTimeout", HTTPClientTimeout, 10 * time.Second, 2 * time.Minute},
		{"HTTPConnectTimeout", HTTPConnectTimeout, 1 * time.Second, 15 * time.Second},
		{"ConfigMapWriteTimeout", ConfigMapWriteTimeout, 5 * time.Second, 60 * time.Second},
		{"PersistTimeout", PersistTimeout, 100 * time.Millisecond, 10 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.timeout < tt.minValue {
				t.Errorf("%s = %v, below minimum %v", tt.name, tt.timeout, tt.minValue)
			}
			if tt.timeout > tt.maxValue {
				t.Errorf("%s = %v, above maximum %v", tt.name, tt.timeout, tt.maxValue)
			}
		})
	}
}

func TestTimeoutRelationships(t *testing.T) {
	if QueryHandlerTimeout <= DataWaitTimeout {
		t.Errorf("QueryHandlerTimeout (%v) must exceed DataWaitTimeout (%v)",
			QueryHandlerTimeout, DataWaitTimeout)
	}
	if ServerWriteTimeout <= QueryHandlerTimeout {
		t.Errorf("ServerWriteTimeout (%v) must exceed QueryHandlerTimeout (%v)",
			ServerWriteTimeout, QueryHandlerTimeout)
	}
	if StreamPingPeriod >= StreamPongWait {
		t.Errorf("StreamPingPeriod (%v) must be below StreamPongWait (%v)",
			StreamPingPeriod, StreamPongWait)
	}
	if DataWaitInterval >= DataWaitTimeout {
		t.Errorf("DataWaitInterval (%v) must be below DataWaitTimeout (%v)",
			DataWaitInterval, DataWaitTimeout)
	}
}

func TestSizingConstants(t *testing.T) {
	if MaxStatisticsSessions < 1 {
		t.Errorf("MaxStatisticsSessions = %d, want >= 1", MaxStatisticsSessions)
	}
	if MeasurementScale < 1 {
		t.Errorf("MeasurementScale = %d, want >= 1", MeasurementScale)
	}
}
