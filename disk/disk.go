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

// Package disk provides a registry of named disks built by pluggable drivers.
//
// Drivers are registered up front with Extend and disks are configured by name. A disk is only
// built the first time it is requested, and the same instance is returned afterwards.
package disk

import (
	"errors"
	"golang.org/x/net/context"
	"io"
	"sync"

	"github.com/google/gcsdisk/cmd/output"
	"github.com/google/gcsdisk/config"
	"github.com/google/gcsdisk/filesystem"
	"github.com/spf13/cast"
	"go.uber.org/multierr"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Factory builds a disk from its raw configuration. The factory owns raw.
type Factory func(ctx context.Context, raw config.Values) (filesystem.Disk, error)

// Registry maps disk names to their configuration and driver names to their factories.
type Registry struct {
	mu      sync.Mutex
	def     string
	drivers map[string]Factory
	configs map[string]config.Values
	disks   map[string]filesystem.Disk
}

// NewRegistry returns a registry with the built-in local driver.
func NewRegistry() *Registry {
	r := &Registry{
		drivers: make(map[string]Factory),
		configs: make(map[string]config.Values),
		disks:   make(map[string]filesystem.Disk),
	}
	r.Extend(LocalDriverName, NewLocalDisk)
	return r
}

// Extend registers a driver factory, replacing any factory of the same name.
func (r *Registry) Extend(driver string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.drivers[driver] = f
}

// SetDefault names the disk returned for an empty name.
func (r *Registry) SetDefault(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.def = name
}

// Default returns the name of the default disk, or "" if there is none.
func (r *Registry) Default() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.def
}

// Configure records the configuration of disk `name`. raw is copied, so later changes to it don't
// affect the disk. A disk already built under this name is closed and rebuilt on next use; the
// error is from closing it.
func (r *Registry) Configure(name string, raw config.Values) error {
	r.mu.Lock()
	r.configs[name] = raw.Clone()
	d, built := r.disks[name]
	delete(r.disks, name)
	r.mu.Unlock()
	if !built {
		return nil
	}
	return closeDisk(d)
}

// ConfigureFile configures every disk in f and adopts its default.
func (r *Registry) ConfigureFile(f *config.File) error {
	var result error
	for name, raw := range f.Disks {
		result = multierr.Append(result, r.Configure(name, raw))
	}
	if f.Default != "" {
		r.SetDefault(f.Default)
	}
	return result
}

// Names returns the configured disk names in order.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := maps.Keys(r.configs)
	slices.Sort(names)
	return names
}

// Disk returns the disk called name, building it on first use. An empty name selects the default.
func (r *Registry) Disk(ctx context.Context, name string) (filesystem.Disk, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if name == "" {
		name = r.def
	}
	if name == "" {
		return nil, status.Error(codes.NotFound, "no disk requested and no default disk configured")
	}
	if d, ok := r.disks[name]; ok {
		return d, nil
	}
	raw, ok := r.configs[name]
	if !ok {
		return nil, status.Errorf(codes.NotFound, "disk %q is not configured", name)
	}
	driver := cast.ToString(raw[config.KeyDriver])
	factory, ok := r.drivers[driver]
	if !ok {
		return nil, status.Errorf(codes.InvalidArgument, "driver %q of disk %q is not supported", driver, name)
	}
	d, err := factory(ctx, raw.Clone())
	if err != nil {
		return nil, err
	}
	output.Debugf(ctx, "built disk %q with driver %q", name, driver)
	r.disks[name] = d
	return d, nil
}

// Close releases every built disk that holds resources.
func (r *Registry) Close() error {
	r.mu.Lock()
	disks := r.disks
	r.disks = make(map[string]filesystem.Disk)
	r.mu.Unlock()
	var result error
	for _, d := range disks {
		result = multierr.Append(result, closeDisk(d))
	}
	return result
}

func closeDisk(d filesystem.Disk) error {
	if c, ok := d.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// IsNotFound reports whether err is a registry lookup failure for an unknown disk.
func IsNotFound(err error) bool {
	var se interface{ GRPCStatus() *status.Status }
	return errors.As(err, &se) && se.GRPCStatus().Code() == codes.NotFound
}
