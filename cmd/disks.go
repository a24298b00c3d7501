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

package cmd

import (
	"errors"
	"fmt"
	"golang.org/x/net/context"
	"strings"

	"github.com/google/gcsdisk/cmd/output"
	"github.com/google/gcsdisk/config"
	"github.com/google/gcsdisk/disk"
	"github.com/google/gcsdisk/filesystem"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/multierr"
)

const (
	defaultConfigPath = "disks.yaml"
	envPrefix         = "GCSDISK"
)

// ErrNoDiskContext is returned when FromDiskContext cannot find a DiskContext in the context.
var ErrNoDiskContext = errors.New("no disk context found")

// DiskContext gives a command access to the configured disks.
type DiskContext struct {
	// Registry holds the configured disks.
	Registry *disk.Registry
	// Name is the disk selected with --disk. Empty selects the configuration's default.
	Name string
}

// Disk returns the selected disk, building it if needed. A disk that isn't configured is reported
// along with the disks that are.
func (c *DiskContext) Disk(ctx context.Context) (filesystem.Disk, error) {
	d, err := c.Registry.Disk(ctx, c.Name)
	if disk.IsNotFound(err) {
		return nil, fmt.Errorf("%w (configured disks: %s)", err, strings.Join(c.Registry.Names(), ", "))
	}
	return d, err
}

type diskKeyType struct{}

var diskKey diskKeyType

// NewDiskContext returns ctx extended with c.
func NewDiskContext(ctx context.Context, c *DiskContext) context.Context {
	return context.WithValue(ctx, diskKey, c)
}

// FromDiskContext returns the DiskContext in ctx, or ErrNoDiskContext.
func FromDiskContext(ctx context.Context) (*DiskContext, error) {
	c, ok := ctx.Value(diskKey).(*DiskContext)
	if !ok {
		return nil, ErrNoDiskContext
	}
	return c, nil
}

// diskFromContext returns the selected disk from the DiskContext in ctx.
func diskFromContext(ctx context.Context) (filesystem.Disk, error) {
	c, err := FromDiskContext(ctx)
	if err != nil {
		return nil, err
	}
	return c.Disk(ctx)
}

// DiskComponent loads the disks configuration file into a registry. The --config and --disk flags
// may also be given as GCSDISK_CONFIG and GCSDISK_DISK environment variables; flags win.
type DiskComponent struct {
	Registry   *disk.Registry
	ConfigPath string
	DiskName   string
}

// AddFlags adds the configuration file and disk selection flags.
func (c *DiskComponent) AddFlags(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()
	flags.StringVar(&c.ConfigPath, "config", defaultConfigPath,
		"Path to the YAML file that configures the disks.")
	flags.StringVar(&c.DiskName, "disk", "",
		"The disk to operate on. Defaults to the configuration file's default disk.")
}

// PersistentPreRunE resolves the flags against the environment.
func (c *DiskComponent) PersistentPreRunE(cmd *cobra.Command, _ []string) error {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetDefault("config", defaultConfigPath)
	for _, name := range []string{"config", "disk"} {
		if f := cmd.Flags().Lookup(name); f != nil {
			if err := v.BindPFlag(name, f); err != nil {
				return err
			}
		}
	}
	c.ConfigPath = v.GetString("config")
	c.DiskName = v.GetString("disk")
	if c.Registry == nil {
		return errors.New("no disk registry provided")
	}
	return multierr.Combine(MustBeNonempty("config", &c.ConfigPath))
}

// InitContext loads the configuration file and adds a DiskContext to ctx.
func (c *DiskComponent) InitContext(ctx context.Context) (context.Context, error) {
	f, err := config.LoadFile(c.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("could not load disks from %q: %w", c.ConfigPath, err)
	}
	if err := c.Registry.ConfigureFile(f); err != nil {
		return nil, fmt.Errorf("could not release disks replaced by %q: %w", c.ConfigPath, err)
	}
	output.Debugf(ctx, "loaded %d disks from %s", len(f.Disks), c.ConfigPath)
	return NewDiskContext(ctx, &DiskContext{Registry: c.Registry, Name: c.DiskName}), nil
}

func listDisks(ctx context.Context, _ []string) error {
	c, err := FromDiskContext(ctx)
	if err != nil {
		return err
	}
	w := output.Writer(ctx)
	def := c.Registry.Default()
	for _, name := range c.Registry.Names() {
		marker := ""
		if name == def {
			marker = " (default)"
		}
		if _, err := fmt.Fprintf(w, "%s%s\n", name, marker); err != nil {
			return err
		}
	}
	return nil
}

func makeDisksCmd(ctx context.Context, app *AppComponents) *cobra.Command {
	cmp := Compose(outputComponent(), app.global())
	cmd := &cobra.Command{
		Use:               "disks [flags]",
		Long:              `Lists the configured disks.`,
		Args:              cobra.NoArgs,
		PersistentPreRunE: cmp.PersistentPreRunE,
		RunE:              ComposeRun(cmp, listDisks),
	}
	cmd.SetContext(ctx)
	cmp.AddFlags(cmd)
	return cmd
}
