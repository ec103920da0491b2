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
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// IDLength is the length of identifiers returned by NextID.
const IDLength = 50

// NextID returns a 50 character identifier: the zero-padded unix time in
// milliseconds, a random uuid in hex and a "000" suffix. Identifiers from
// later calls sort after earlier ones at millisecond granularity.
func NextID() string {
	return fmt.Sprintf("%015d%s000", time.Now().UnixMilli(), strings.ReplaceAll(uuid.NewString(), "-", ""))
}

// NextIDValue adapts NextID to a field default factory.
func NextIDValue() interface{} { return NextID() }
