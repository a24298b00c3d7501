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
	"golang.org/x/net/context"

	"github.com/google/gcsdisk/cmd/output"
	"github.com/spf13/cobra"
)

// ErrWipeoutNotForced is returned when wipeout runs without --force.
var ErrWipeoutNotForced = errors.New("wipeout deletes every file on the disk. Use --force to proceed")

type wipeoutCommand struct {
	force bool
}

func (c *wipeoutCommand) run(ctx context.Context, args []string) error {
	d, err := diskFromContext(ctx)
	if err != nil {
		return err
	}
	if len(args) == 0 {
		if err := d.Wipeout(ctx); err != nil {
			return err
		}
		output.Infof(ctx, "Deleted every file on the disk")
		return nil
	}
	if err := d.DeleteDirectory(ctx, args[0]); err != nil {
		return err
	}
	output.Infof(ctx, "Deleted every file in %s", args[0])
	return nil
}

func makeWipeoutCmd(ctx context.Context, app *AppComponents) *cobra.Command {
	c := &wipeoutCommand{}
	cmp := Compose(outputComponent(), app.global(), &PartialComponent{
		FAddFlags: func(cmd *cobra.Command) {
			cmd.PersistentFlags().BoolVar(&c.force, "force", false,
				"Confirms that every file below the directory should be deleted.")
		},
		FPersistentPreRunE: func(*cobra.Command, []string) error {
			if !c.force {
				return ErrWipeoutNotForced
			}
			return nil
		},
	})
	cmd := &cobra.Command{
		Use:               "wipeout [flags] [dir]",
		Long:              `Deletes every file below a directory of the disk, or below the disk's root.`,
		Args:              cobra.MaximumNArgs(1),
		PersistentPreRunE: cmp.PersistentPreRunE,
		RunE:              ComposeRun(cmp, c.run),
	}
	cmd.SetContext(ctx)
	cmp.AddFlags(cmd)
	return cmd
}
