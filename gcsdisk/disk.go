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

package gcsdisk

import (
	"golang.org/x/net/context"
	"io"
	"strings"
	"time"

	"github.com/google/gcsdisk/config"
	"github.com/google/gcsdisk/filesystem"
	"github.com/google/gcsdisk/storage/storagei"
)

// DefaultAPIEndpoint is the Cloud Storage endpoint public URLs are built on when the disk doesn't
// configure apiEndpoint.
const DefaultAPIEndpoint = "https://storage.googleapis.com"

// Disk is a gcs disk. File operations go to the bucket-scoped adapter; URLs are built from the
// configuration and signed by the storage client.
type Disk struct {
	*filesystem.Wrapper
	adapter *filesystem.Adapter
	client  storagei.Client
}

var _ filesystem.Disk = (*Disk)(nil)

// NewDisk composes a gcs disk from its adapter, normalized configuration and client.
func NewDisk(adapter *filesystem.Adapter, cfg *config.Disk, client storagei.Client) *Disk {
	return &Disk{
		Wrapper: filesystem.NewWrapper(adapter, cfg),
		adapter: adapter,
		client:  client,
	}
}

// Client returns the disk's storage client.
func (d *Disk) Client() storagei.Client { return d.client }

// URL returns the public URL of the object at path. A non-empty apiEndpoint replaces both the
// default endpoint and the bucket.
func (d *Disk) URL(path string) string {
	endpoint := strings.TrimRight(DefaultAPIEndpoint, "/") + "/" + strings.TrimLeft(d.Config.Bucket, "/")
	if ep, ok := config.Present(d.Config.APIEndpoint); ok {
		endpoint = ep
	}
	return filesystem.ConcatPathToURL(endpoint, d.adapter.Prefixer().PrefixPath(path))
}

// TemporaryURL returns a URL for the object at path, signed by the storage client and valid until
// expiration. opts are forwarded unchanged and errors are returned as the client reports them.
func (d *Disk) TemporaryURL(ctx context.Context, path string, expiration time.Time, opts *storagei.SignedURLOptions) (string, error) {
	return d.client.SignedURL(ctx, d.Config.Bucket, d.adapter.Prefixer().PrefixPath(path), expiration, opts)
}

// Close releases the storage client, if it holds resources.
func (d *Disk) Close() error {
	if c, ok := d.client.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
