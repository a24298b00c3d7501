// Copyright 2024 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package filesystem

import "strings"

const (
	separator = "/"
	// slashes are trimmed from both ends of joined path segments.
	slashes = `\/`
)

// PathPrefixer scopes logical paths under a root directory of a bucket.
type PathPrefixer struct {
	prefix string
}

// NewPathPrefixer returns a prefixer for root. Surrounding separators are normalized so that the
// prefix is either empty or ends in exactly one "/".
func NewPathPrefixer(root string) *PathPrefixer {
	prefix := strings.TrimRight(root, slashes)
	if prefix != "" || root == separator {
		prefix += separator
	}
	return &PathPrefixer{prefix: prefix}
}

// Prefix returns the normalized prefix.
func (p *PathPrefixer) Prefix() string { return p.prefix }

// PrefixPath returns the object name for a logical path.
func (p *PathPrefixer) PrefixPath(path string) string {
	return p.prefix + strings.TrimLeft(path, slashes)
}

// PrefixDirectoryPath returns the object name prefix for a logical directory. The result is empty
// or ends in "/".
func (p *PathPrefixer) PrefixDirectoryPath(path string) string {
	prefixed := p.PrefixPath(strings.TrimRight(path, slashes))
	if prefixed == "" || strings.HasSuffix(prefixed, separator) {
		return prefixed
	}
	return prefixed + separator
}

// StripPrefix returns the logical path for an object name.
func (p *PathPrefixer) StripPrefix(name string) string {
	return strings.TrimPrefix(name, p.prefix)
}

// StripDirectoryPrefix returns the logical path for a directory object name, without a trailing
// separator.
func (p *PathPrefixer) StripDirectoryPrefix(name string) string {
	return strings.TrimRight(p.StripPrefix(name), slashes)
}

// ConcatPathToURL joins a base URL and a path with exactly one "/".
func ConcatPathToURL(url, path string) string {
	return strings.TrimRight(url, separator) + separator + strings.TrimLeft(path, separator)
}
