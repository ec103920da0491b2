/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package types

// Placeholder values reported by enums outside their valid range.
const (
	IllegalValue = -1
	IllegalName  = "unknown"
	IllegalDesc  = "unknown"
)

// BaseEnum is the contract of the small integer enums used across the module
// (storage types, log levels).
type BaseEnum interface {
	IsValid() bool
	Number() int
	String() string
	Desc() string
	Name() string
}

// ParseEnum returns the value among candidates whose Name equals name, case
// sensitively. Invalid candidates never match.
func ParseEnum[E BaseEnum](name string, candidates ...E) (E, bool) {
	for _, c := range candidates {
		if c.IsValid() && c.Name() == name {
			return c, true
		}
	}
	var zero E
	return zero, false
}
