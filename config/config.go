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

// Package config normalizes loosely shaped disk configuration into the canonical form that the
// storage drivers consume.
//
// Disk configuration commonly arrives from hand-written YAML where the same logical field may be
// spelled in camelCase (the spelling the Cloud Storage client libraries document) or snake_case.
// Normalize folds both spellings into the canonical camelCase key, and Parse decodes the result into
// a Disk.
package config

import (
	"github.com/spf13/cast"
)

// Canonical configuration keys.
const (
	KeyDriver      = "driver"
	KeyBucket      = "bucket"
	KeyRoot        = "root"
	KeyKeyFilePath = "keyFilePath"
	KeyKeyFile     = "keyFile"
	KeyProjectID   = "projectId"
	KeyAPIEndpoint = "apiEndpoint"
	KeyVisibility  = "visibility"
	KeyURL         = "url"
)

// Alternate spellings that Normalize folds into the canonical keys.
const (
	keyPathPrefix      = "pathPrefix"
	keyPathPrefixSnake = "path_prefix"
	keyKeyFilePathAlt  = "key_file_path"
	keyKeyFileAlt      = "key_file"
	keyProjectIDAlt    = "project_id"
	keyAPIEndpointAlt  = "storage_api_uri"
)

// aliases lists each canonical key with its alternate spelling. The canonical spelling is checked
// first.
var aliases = []struct{ canonical, alternate string }{
	{KeyKeyFilePath, keyKeyFilePathAlt},
	{KeyKeyFile, keyKeyFileAlt},
	{KeyProjectID, keyProjectIDAlt},
	{KeyAPIEndpoint, keyAPIEndpointAlt},
}

// Values is a raw disk configuration mapping.
type Values map[string]any

// Clone returns a shallow copy of v. Nested maps are not copied.
func (v Values) Clone() Values {
	result := make(Values, len(v))
	for k, val := range v {
		result[k] = val
	}
	return result
}

func (v Values) has(key string) bool {
	_, ok := v[key]
	return ok
}

func (v Values) hasAny(keys ...string) bool {
	for _, k := range keys {
		if v.has(k) {
			return true
		}
	}
	return false
}

// firstNonEmpty returns the first value among keys that is present and not empty.
func (v Values) firstNonEmpty(keys ...string) (any, bool) {
	for _, k := range keys {
		if val, ok := v[k]; ok && !isEmpty(val) {
			return val, true
		}
	}
	return nil, false
}

// isEmpty reports whether a loosely typed config value counts as not provided.
func isEmpty(val any) bool {
	switch x := val.(type) {
	case nil:
		return true
	case string:
		return x == ""
	case bool:
		return !x
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return cast.ToFloat64(x) == 0
	}
	return false
}

// Normalize returns a copy of raw in which every recognized field supplied under either of its
// spellings is also present under its canonical key. raw itself is left untouched.
func Normalize(raw Values) Values {
	v := raw.Clone()

	if !v.hasAny(KeyRoot, keyPathPrefix, keyPathPrefixSnake) {
		v[KeyRoot] = ""
	} else if !v.has(KeyRoot) {
		// pathPrefix wins unless it is nil.
		if p, ok := v[keyPathPrefix]; ok && p != nil {
			v[KeyRoot] = p
		} else {
			v[KeyRoot] = v[keyPathPrefixSnake]
		}
	}

	for _, a := range aliases {
		if val, ok := v.firstNonEmpty(a.canonical, a.alternate); ok {
			v[a.canonical] = val
		}
	}
	return v
}

// recognized is the set of keys that Parse decodes into Disk fields.
var recognized = map[string]bool{
	KeyDriver:          true,
	KeyBucket:          true,
	KeyRoot:            true,
	KeyKeyFilePath:     true,
	KeyKeyFile:         true,
	KeyProjectID:       true,
	KeyAPIEndpoint:     true,
	KeyVisibility:      true,
	KeyURL:             true,
	keyPathPrefix:      true,
	keyPathPrefixSnake: true,
	keyKeyFilePathAlt:  true,
	keyKeyFileAlt:      true,
	keyProjectIDAlt:    true,
	keyAPIEndpointAlt:  true,
}

// Disk is the canonical configuration of a single disk.
type Disk struct {
	// Driver names the registered driver that builds the disk, e.g. "gcs" or "local".
	Driver string
	// Bucket is the Cloud Storage bucket name. The local driver uses it as the base directory.
	Bucket string
	// Root is the path prefix applied to every path before it reaches the storage backend.
	Root string
	// KeyFilePath is the path to a service account credentials file.
	KeyFilePath *string
	// KeyFile is the contents of a service account credentials file.
	KeyFile *string
	// ProjectID is the project that owns the bucket.
	ProjectID *string
	// APIEndpoint overrides the storage API endpoint and the base of public URLs.
	APIEndpoint *string
	// Visibility is the default visibility of written objects.
	Visibility Visibility
	// URL is the public base URL for drivers that don't compute their own.
	URL string
	// Extra holds every unrecognized key, unchanged.
	Extra Values
}

// optional returns a pointer to the string form of values[key], or nil if the key is absent.
func optional(values Values, key string) *string {
	val, ok := values[key]
	if !ok {
		return nil
	}
	s := cast.ToString(val)
	return &s
}

// Parse normalizes raw and decodes the canonical keys into a Disk.
func Parse(raw Values) *Disk {
	v := Normalize(raw)
	d := &Disk{
		Driver:      cast.ToString(v[KeyDriver]),
		Bucket:      cast.ToString(v[KeyBucket]),
		Root:        cast.ToString(v[KeyRoot]),
		KeyFilePath: optional(v, KeyKeyFilePath),
		KeyFile:     optional(v, KeyKeyFile),
		ProjectID:   optional(v, KeyProjectID),
		APIEndpoint: optional(v, KeyAPIEndpoint),
		Visibility:  ResolveVisibility(cast.ToString(v[KeyVisibility])),
		URL:         cast.ToString(v[KeyURL]),
		Extra:       Values{},
	}
	for k, val := range v {
		if !recognized[k] {
			d.Extra[k] = val
		}
	}
	return d
}

// Present returns the value of an optional field and whether it was provided with a non-empty
// value.
func Present(s *string) (string, bool) {
	if s == nil || *s == "" {
		return "", false
	}
	return *s, true
}
