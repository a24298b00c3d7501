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
	"golang.org/x/net/context"

	"github.com/google/gcsdisk/cmd/output"
	"github.com/spf13/cobra"
)

func bootstrap(ctx context.Context, _ []string) error {
	d, err := diskFromContext(ctx)
	if err != nil {
		return err
	}
	if err := d.Bootstrap(ctx); err != nil {
		return err
	}
	output.Infof(ctx, "The disk's storage is ready")
	return nil
}

func makeBootstrapCmd(ctx context.Context, app *AppComponents) *cobra.Command {
	cmp := Compose(outputComponent(), app.global())
	cmd := &cobra.Command{
		Use: "bootstrap [flags]",
		Long: `Creates the storage behind the disk if it does not exist.

A gcs disk's bucket is created in the disk's projectId.`,
		Args:              cobra.NoArgs,
		PersistentPreRunE: cmp.PersistentPreRunE,
		RunE:              ComposeRun(cmp, bootstrap),
	}
	cmd.SetContext(ctx)
	cmp.AddFlags(cmd)
	return cmd
}
