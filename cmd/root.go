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

// Package cmd defines the gcsdisk command line tool.
package cmd

import (
	"golang.org/x/net/context"

	"github.com/google/gcsdisk/cmd/output"
	"github.com/spf13/cobra"
)

// RunFn is the signature of a cobra RunE function.
type RunFn func(*cobra.Command, []string) error

// outputComponent validates the output flags for commands that replace the root's
// PersistentPreRunE.
func outputComponent() CommandComponent {
	return &PartialComponent{
		FPersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			opts, err := output.FromContext(cmd.Context())
			if err != nil {
				return err
			}
			return opts.Validate(cmd)
		},
	}
}

// makeRootCmd creates an entrypoint for gcsdisk.
func makeRootCmd(ctx0 context.Context, app *AppComponents) *cobra.Command {
	flags := &output.Options{}
	ctx := output.NewContext(ctx0, flags)
	cmd := &cobra.Command{
		Use: "gcsdisk",
		Long: `Command line tool for files on configured disks

Disks are named in a YAML configuration file and built by their driver, such as
"gcs" for Google Cloud Storage buckets or "local" for directories.
`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := flags.Validate(cmd); err != nil {
				return err
			}
			return app.global().PersistentPreRunE(cmd, args)
		},
	}
	cmd.SetContext(ctx)
	app.global().AddFlags(cmd)
	flags.AddFlags(cmd)
	return cmd
}
