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

// Package persistency keeps a sqlite history of every stored sample set.
//
// Store implements handler.Persister: each processed set is flattened
// into one row per scope (device, tile, engine or fabric value) and
// written in a single transaction. History reads back rows of one type
// and device in time order; Prune and RunRetention bound the table.
//
//	store, err := persistency.Open(ctx, "/var/lib/telemd/history.db",
//	    persistency.WithRetention(24*time.Hour))
//	if err != nil {
//	    return err
//	}
//	defer store.Close()
//	mgr := handler.NewManager(handler.WithPersister(store))
package persistency
