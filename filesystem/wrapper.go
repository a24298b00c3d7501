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

import (
	"golang.org/x/net/context"
	"time"

	"github.com/google/gcsdisk/config"
	"github.com/google/gcsdisk/storage/storagei"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Disk is a Filesystem that can also hand out URLs for its files.
type Disk interface {
	Filesystem
	// URL returns the permanent URL of the file at path.
	URL(path string) string
	// TemporaryURL returns a URL granting access to the file at path until expiration. opts are
	// passed to the backend's signer unchanged.
	TemporaryURL(ctx context.Context, path string, expiration time.Time, opts *storagei.SignedURLOptions) (string, error)
}

// Wrapper turns a Filesystem into a Disk with URL handling that only depends on configuration.
// Drivers with their own URL scheme embed a Wrapper and override URL and TemporaryURL.
type Wrapper struct {
	Filesystem
	// Config is the disk's normalized configuration.
	Config *config.Disk
}

var _ Disk = (*Wrapper)(nil)

// NewWrapper returns a Disk that forwards every file operation to fs.
func NewWrapper(fs Filesystem, cfg *config.Disk) *Wrapper {
	return &Wrapper{Filesystem: fs, Config: cfg}
}

// prefixed is implemented by filesystems that scope paths under a root, like Adapter.
type prefixed interface {
	Prefixer() *PathPrefixer
}

// URL joins the configured public base URL and the prefixed path. Without a base URL the prefixed
// path is returned as is.
func (w *Wrapper) URL(path string) string {
	if p, ok := w.Filesystem.(prefixed); ok {
		path = p.Prefixer().PrefixPath(path)
	}
	if w.Config.URL == "" {
		return path
	}
	return ConcatPathToURL(w.Config.URL, path)
}

// TemporaryURL is unsupported unless a driver overrides it.
func (w *Wrapper) TemporaryURL(context.Context, string, time.Time, *storagei.SignedURLOptions) (string, error) {
	return "", status.Errorf(codes.Unimplemented, "driver %q does not support creating temporary URLs", w.Config.Driver)
}
