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

package measurement

import (
	"fmt"
	"strings"
)

// MatchTypes expands the given patterns into measurement types, in Types
// order and without duplicates. Supports wildcard patterns:
//   - "prefix*" matches types starting with "prefix"
//   - "*suffix" matches types ending with "suffix"
//   - "*contains*" matches types containing "contains"
//   - "exact" matches the type exactly
//
// A pattern that matches no type is an error so configuration typos
// surface at load time.
func MatchTypes(patterns []string) ([]Type, error) {
	selected := make(map[Type]struct{})
	for _, raw := range patterns {
		pattern := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(raw)), "-", "_")
		if pattern == "" {
			continue
		}
		matched := false
		for _, t := range Types {
			if matchesPattern(string(t), pattern) {
				selected[t] = struct{}{}
				matched = true
			}
		}
		if !matched {
			return nil, fmt.Errorf("pattern %q matches no measurement type", raw)
		}
	}

	out := make([]Type, 0, len(selected))
	for _, t := range Types {
		if _, ok := selected[t]; ok {
			out = append(out, t)
		}
	}
	return out, nil
}

// FilterOut returns ts without the types matching any of the patterns.
func FilterOut(ts []Type, patterns []string) []Type {
	out := make([]Type, 0, len(ts))
	for _, t := range ts {
		omit := false
		for _, p := range patterns {
			if matchesPattern(string(t), p) {
				omit = true
				break
			}
		}
		if !omit {
			out = append(out, t)
		}
	}
	return out
}

// matchesPattern checks if a key matches a wildcard pattern.
// Supports multiple wildcard segments, e.g., "a*b*c" matches "aXbYc".
func matchesPattern(key, pattern string) bool {
	if !strings.Contains(pattern, "*") {
		return key == pattern
	}

	segments := strings.Split(pattern, "*")
	pos := 0
	for i, segment := range segments {
		if segment == "" {
			continue
		}

		// anchored at the start unless the pattern starts with *
		if i == 0 {
			if !strings.HasPrefix(key, segment) {
				return false
			}
			pos = len(segment)
			continue
		}

		// anchored at the end unless the pattern ends with *
		if i == len(segments)-1 {
			return strings.HasSuffix(key[pos:], segment)
		}

		idx := strings.Index(key[pos:], segment)
		if idx == -1 {
			return false
		}
		pos += idx + len(segment)
	}

	return true
}
