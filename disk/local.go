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

package disk

import (
	"errors"
	"golang.org/x/net/context"

	"github.com/google/gcsdisk/config"
	"github.com/google/gcsdisk/filesystem"
	"github.com/google/gcsdisk/storage/local"
)

// LocalDriverName is the name of the built-in driver for directories on local disk.
const LocalDriverName = "local"

// localBucket addresses the root directory itself.
const localBucket = "."

// ErrNoRoot is returned when a local disk's configuration names no root directory.
var ErrNoRoot = errors.New("local disks require a root directory")

// NewLocalDisk builds a disk over the directory named by root. Its URLs are the configured url
// joined with the file path.
func NewLocalDisk(_ context.Context, raw config.Values) (filesystem.Disk, error) {
	cfg := config.Parse(raw)
	if cfg.Root == "" {
		return nil, ErrNoRoot
	}
	client := &local.StorageClient{Root: cfg.Root}
	return filesystem.NewWrapper(filesystem.NewAdapter(client, localBucket, "", cfg.Visibility), cfg), nil
}
