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
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/gcsdisk/testing/match"
	"github.com/google/go-cmp/cmp"
)

const goodFile = `
default: media
disks:
  media:
    driver: gcs
    bucket: my-bucket
    key_file_path: /secrets/sa.json
    pathPrefix: uploads
  scratch:
    driver: local
    root: /tmp/scratch
    visibility: public
`

func TestParseFile(t *testing.T) {
	tcs := []struct {
		name    string
		data    string
		want    *File
		wantErr string
	}{
		{
			name: "happy path",
			data: goodFile,
			want: &File{
				Default: "media",
				Disks: map[string]Values{
					"media": {
						"driver":        "gcs",
						"bucket":        "my-bucket",
						"key_file_path": "/secrets/sa.json",
						"pathPrefix":    "uploads",
					},
					"scratch": {
						"driver":     "local",
						"root":       "/tmp/scratch",
						"visibility": "public",
					},
				},
			},
		},
		{
			name:    "no disks",
			data:    "default: media\n",
			wantErr: "no disks configured",
		},
		{
			name:    "unknown default",
			data:    "default: nope\ndisks:\n  a:\n    driver: local\n",
			wantErr: `default disk "nope" is not configured`,
		},
		{
			name:    "empty disk",
			data:    "disks:\n  a:\n",
			wantErr: `disk "a" has no configuration`,
		},
		{
			name:    "unknown top-level field",
			data:    "disk:\n  a:\n    driver: local\n",
			wantErr: "could not parse disks configuration",
		},
	}
	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseFile([]byte(tc.data))
			if !match.Error(err, tc.wantErr) {
				t.Fatalf("ParseFile() = %v, want %q", err, tc.wantErr)
			}
			if diff := cmp.Diff(got, tc.want); diff != "" {
				t.Errorf("ParseFile() = %v, want %v. Diff: %s", got, tc.want, diff)
			}
		})
	}
}

func TestLoadFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "disks.yaml")
	if err := os.WriteFile(p, []byte(goodFile), 0644); err != nil {
		t.Fatal(err)
	}
	f, err := LoadFile(p)
	if err != nil {
		t.Fatal(err)
	}
	if f.Default != "media" || len(f.Disks) != 2 {
		t.Errorf("LoadFile() = %+v, want default media with 2 disks", f)
	}
	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("LoadFile(missing) = %v, want %v", err, os.ErrNotExist)
	}
}
