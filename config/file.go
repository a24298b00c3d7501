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

package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
)

// ErrNoDisks is returned by ParseFile when the document configures no disks.
var ErrNoDisks = errors.New("no disks configured")

// File is the document form of a disks configuration file:
//
//	default: media
//	disks:
//	  media:
//	    driver: gcs
//	    bucket: my-bucket
//	    key_file_path: /secrets/sa.json
type File struct {
	// Default names the disk used when none is requested.
	Default string `yaml:"default"`
	// Disks maps disk names to their raw configuration.
	Disks map[string]Values `yaml:"disks"`
}

// ParseFile decodes a disks configuration document. Key spelling inside each disk is preserved so
// that Normalize can see both camelCase and snake_case variants.
func ParseFile(data []byte) (*File, error) {
	f := &File{}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(f); err != nil {
		return nil, fmt.Errorf("could not parse disks configuration: %w", err)
	}
	if len(f.Disks) == 0 {
		return nil, ErrNoDisks
	}
	var errs error
	for name, values := range f.Disks {
		if values == nil {
			errs = multierr.Append(errs, fmt.Errorf("disk %q has no configuration", name))
		}
	}
	if f.Default != "" {
		if _, ok := f.Disks[f.Default]; !ok {
			errs = multierr.Append(errs, fmt.Errorf("default disk %q is not configured", f.Default))
		}
	}
	if errs != nil {
		return nil, errs
	}
	return f, nil
}

// LoadFile reads and decodes the disks configuration file at path.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseFile(data)
}
