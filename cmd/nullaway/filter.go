//  Copyright (c) 2023 Uber Technologies, Inc.
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

package main

import (
	"path/filepath"
	"strings"
)

// filter selects the files to report diagnostics for. NullAway checks every unit it is given,
// including the ones of libraries whose source is only provided for their contracts, and may
// still report diagnostics in them. The usual way to handle them is to filter at the driver.
type filter struct {
	includes, excludes []string
}

func newFilter(includes, excludes []string) *filter {
	return &filter{includes: cleanPrefixes(includes), excludes: cleanPrefixes(excludes)}
}

// cleanPrefixes normalizes the file prefixes to slash-separated form, which is what front ends
// use for unit file names.
func cleanPrefixes(list []string) []string {
	var out []string
	for _, p := range list {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, filepath.ToSlash(filepath.Clean(p)))
		}
	}
	return out
}

// keep returns true if diagnostics in the file should be reported. Exclusions take precedence; an
// empty inclusion list includes every file.
func (f *filter) keep(name string) bool {
	name = filepath.ToSlash(name)
	for _, e := range f.excludes {
		if strings.HasPrefix(name, e) {
			return false
		}
	}
	if len(f.includes) == 0 {
		return true
	}
	for _, i := range f.includes {
		if strings.HasPrefix(name, i) {
			return true
		}
	}
	return false
}
