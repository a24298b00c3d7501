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

// Package gcsdisk registers Google Cloud Storage as a disk driver.
//
// A gcs disk is configured with:
//
//	driver: gcs
//	bucket: my-bucket                      # required
//	root: uploads                          # or pathPrefix / path_prefix
//	keyFilePath: /secrets/sa.json          # or key_file_path
//	keyFile: '{"type": "service_account"}' # or key_file
//	projectId: my-project                  # or project_id
//	apiEndpoint: https://storage.example   # or storage_api_uri
//	visibility: public                     # anything else is private
package gcsdisk

import (
	"errors"
	"golang.org/x/net/context"

	"github.com/google/gcsdisk/cmd/output"
	"github.com/google/gcsdisk/config"
	"github.com/google/gcsdisk/disk"
	"github.com/google/gcsdisk/filesystem"
	"github.com/google/gcsdisk/storage/gcs"
	"github.com/google/gcsdisk/storage/storagei"
)

// DriverName is the name under which Register adds the driver.
const DriverName = "gcs"

// ErrNoBucket is returned when a gcs disk's configuration names no bucket.
var ErrNoBucket = errors.New("bucket is required")

// ClientFactory connects a storage client from the disk's client options.
type ClientFactory func(ctx context.Context, opts *gcs.Options) (storagei.Client, error)

// NewGCSClient is the ClientFactory for a real Cloud Storage client.
func NewGCSClient(ctx context.Context, opts *gcs.Options) (storagei.Client, error) {
	return gcs.NewClient(ctx, opts)
}

// Provider builds gcs disks.
type Provider struct {
	// NewClient connects the storage client. Nil uses NewGCSClient.
	NewClient ClientFactory
}

// Register adds the gcs driver to r, backed by real Cloud Storage clients.
func Register(r *disk.Registry) {
	p := &Provider{}
	r.Extend(DriverName, p.Create)
}

// Create normalizes raw, connects a client and returns the disk. Client construction errors are
// returned unchanged.
func (p *Provider) Create(ctx context.Context, raw config.Values) (filesystem.Disk, error) {
	cfg := config.Parse(raw)
	if cfg.Bucket == "" {
		return nil, ErrNoBucket
	}
	client, err := p.createClient(ctx, cfg)
	if err != nil {
		return nil, err
	}
	adapter := createAdapter(client, cfg)
	output.Debugf(ctx, "gcs disk bound to bucket %q with root %q (default visibility %s)",
		cfg.Bucket, adapter.Prefixer().Prefix(), adapter.DefaultVisibility())
	return NewDisk(adapter, cfg, client), nil
}

func (p *Provider) createClient(ctx context.Context, cfg *config.Disk) (storagei.Client, error) {
	opts := &gcs.Options{
		KeyFilePath: cfg.KeyFilePath,
		KeyFile:     cfg.KeyFile,
		ProjectID:   cfg.ProjectID,
		APIEndpoint: cfg.APIEndpoint,
	}
	newClient := p.NewClient
	if newClient == nil {
		newClient = NewGCSClient
	}
	return newClient(ctx, opts)
}

func createAdapter(client storagei.Client, cfg *config.Disk) *filesystem.Adapter {
	return filesystem.NewAdapter(client, cfg.Bucket, cfg.Root, cfg.Visibility)
}
