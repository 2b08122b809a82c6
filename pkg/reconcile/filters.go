/*
 * Copyright 2025 Carver Automation Corporation.
 *
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

package reconcile

import (
	"fmt"
	"regexp"
)

// Filter is an include/exclude pair of name patterns. Patterns match from
// the start of the name. A nil pattern does not filter.
type Filter struct {
	Include *regexp.Regexp
	Exclude *regexp.Regexp
}

// NewFilter compiles include and exclude; empty strings disable a side.
func NewFilter(include, exclude string) (Filter, error) {
	var (
		f   Filter
		err error
	)

	if f.Include, err = compileAnchored(include); err != nil {
		return Filter{}, fmt.Errorf("include filter: %w", err)
	}

	if f.Exclude, err = compileAnchored(exclude); err != nil {
		return Filter{}, fmt.Errorf("exclude filter: %w", err)
	}

	return f, nil
}

func compileAnchored(pattern string) (*regexp.Regexp, error) {
	if pattern == "" {
		return nil, nil
	}

	return regexp.Compile("^(?:" + pattern + ")")
}

// Allows reports whether name passes the filter.
func (f Filter) Allows(name string) bool {
	if f.Include != nil && !f.Include.MatchString(name) {
		return false
	}

	if f.Exclude != nil && f.Exclude.MatchString(name) {
		return false
	}

	return true
}

// Filters groups the per-object-type filters of one source.
type Filters struct {
	Cluster Filter
	Host    Filter
	VM      Filter
}
