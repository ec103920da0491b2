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

import (
	"regexp"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNextID(t *testing.T) {
	pattern := regexp.MustCompile(`^[0-9]{15}[0-9a-f]{32}000$`)
	seen := make(map[string]struct{})
	ids := make([]string, 0, 100)
	for i := 0; i < 100; i++ {
		id := NextID()
		assert.Len(t, id, IDLength)
		assert.Regexp(t, pattern, id)
		_, dup := seen[id]
		assert.False(t, dup, id)
		seen[id] = struct{}{}
		ids = append(ids, id)
	}

	// the millisecond prefix never goes backwards
	prefixes := make([]string, len(ids))
	for i, id := range ids {
		prefixes[i] = id[:15]
	}
	assert.True(t, sort.StringsAreSorted(prefixes))
}

func TestNextIDValue(t *testing.T) {
	v, ok := NextIDValue().(string)
	assert.True(t, ok)
	assert.Len(t, v, IDLength)
}
