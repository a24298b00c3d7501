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
	"fmt"
	"golang.org/x/net/context"
	"io"
	"os"
	"time"

	"github.com/google/gcsdisk/cmd/output"
	"github.com/google/gcsdisk/config"
	"github.com/google/gcsdisk/filesystem"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const stdio = "-"

type putCommand struct {
	visibility config.Visibility
	mimeType   string
}

func (c *putCommand) run(ctx context.Context, args []string) error {
	d, err := diskFromContext(ctx)
	if err != nil {
		return err
	}
	path := args[0]
	if !output.AllowOverwrite(ctx) {
		exists, err := d.Exists(ctx, path)
		if err != nil {
			return err
		}
		if exists {
			return status.Errorf(codes.AlreadyExists, "%s exists. Use --overwrite to replace it", path)
		}
	}
	var r io.Reader = os.Stdin
	source := "stdin"
	if len(args) > 1 && args[1] != stdio {
		f, err := os.Open(args[1])
		if err != nil {
			return err
		}
		defer f.Close()
		r = f
		source = args[1]
	}
	opts := &filesystem.WriteOptions{Visibility: c.visibility, MimeType: c.mimeType}
	if err := d.WriteStream(ctx, path, r, opts); err != nil {
		return fmt.Errorf("could not write %s: %w", path, err)
	}
	output.Infof(ctx, "Wrote %s to %s", source, path)
	return nil
}

func makePutCmd(ctx context.Context, app *AppComponents) *cobra.Command {
	c := &putCommand{}
	cmp := Compose(outputComponent(), app.global(), &PartialComponent{
		FAddFlags: func(cmd *cobra.Command) {
			flags := cmd.PersistentFlags()
			flags.AddGoFlag(visibilityVar(&c.visibility, "visibility",
				"Visibility of the new file, public or private. Defaults to the disk's visibility."))
			flags.StringVar(&c.mimeType, "mime_type", "", "Content type of the new file.")
		},
	})
	cmd := &cobra.Command{
		Use: "put [flags] path [file]",
		Long: `Writes a file to the disk.

The contents are read from the named local file, or from stdin if the file is
omitted or "-".`,
		Args:              cobra.RangeArgs(1, 2),
		PersistentPreRunE: cmp.PersistentPreRunE,
		RunE:              ComposeRun(cmp, c.run),
	}
	cmd.SetContext(ctx)
	cmp.AddFlags(cmd)
	return cmd
}

type getCommand struct {
	out string
}

func (c *getCommand) run(ctx context.Context, args []string) (err error) {
	d, err := diskFromContext(ctx)
	if err != nil {
		return err
	}
	r, err := d.ReadStream(ctx, args[0])
	if err != nil {
		return err
	}
	defer r.Close()
	w := output.Writer(ctx)
	if c.out != "" && c.out != stdio {
		flag := os.O_WRONLY | os.O_CREATE | os.O_EXCL
		if output.AllowOverwrite(ctx) {
			flag = os.O_WRONLY | os.O_CREATE | os.O_TRUNC
		}
		f, err := os.OpenFile(c.out, flag, 0644)
		if err != nil {
			return err
		}
		defer func() { err = multierr.Append(err, f.Close()) }()
		w = f
	}
	n, err := io.Copy(w, r)
	if err != nil {
		return err
	}
	output.Debugf(ctx, "read %d bytes from %s", n, args[0])
	return nil
}

func makeGetCmd(ctx context.Context, app *AppComponents) *cobra.Command {
	c := &getCommand{}
	cmp := Compose(outputComponent(), app.global(), &PartialComponent{
		FAddFlags: func(cmd *cobra.Command) {
			cmd.PersistentFlags().StringVar(&c.out, "out", "",
				"Local file to write the contents to. Defaults to stdout.")
		},
	})
	cmd := &cobra.Command{
		Use:               "get [flags] path",
		Long:              `Reads a file from the disk.`,
		Args:              cobra.ExactArgs(1),
		PersistentPreRunE: cmp.PersistentPreRunE,
		RunE:              ComposeRun(cmp, c.run),
	}
	cmd.SetContext(ctx)
	cmp.AddFlags(cmd)
	return cmd
}

type listCommand struct {
	recursive bool
}

func (c *listCommand) run(ctx context.Context, args []string) error {
	d, err := diskFromContext(ctx)
	if err != nil {
		return err
	}
	var dir string
	if len(args) > 0 {
		dir = args[0]
	}
	entries, err := d.List(ctx, dir, c.recursive)
	if err != nil {
		return err
	}
	w := output.Writer(ctx)
	for _, e := range entries {
		name := e.Path
		if e.IsDir {
			name += "/"
		}
		if _, err := fmt.Fprintln(w, name); err != nil {
			return err
		}
	}
	return nil
}

func makeListCmd(ctx context.Context, app *AppComponents) *cobra.Command {
	c := &listCommand{}
	cmp := Compose(outputComponent(), app.global(), &PartialComponent{
		FAddFlags: func(cmd *cobra.Command) { addRecursiveFlag(cmd, &c.recursive) },
	})
	cmd := &cobra.Command{
		Use:               "ls [flags] [dir]",
		Long:              `Lists the files in a directory of the disk. Directories end with "/".`,
		Args:              cobra.MaximumNArgs(1),
		PersistentPreRunE: cmp.PersistentPreRunE,
		RunE:              ComposeRun(cmp, c.run),
	}
	cmd.SetContext(ctx)
	cmp.AddFlags(cmd)
	return cmd
}

func removeFiles(ctx context.Context, args []string) error {
	d, err := diskFromContext(ctx)
	if err != nil {
		return err
	}
	var result error
	for _, path := range args {
		if err := d.Delete(ctx, path); err != nil {
			if !output.AllowRecoverableError(ctx) {
				return fmt.Errorf("could not delete %s: %w", path, err)
			}
			output.Warningf(ctx, "could not delete %s: %v", path, err)
			result = multierr.Append(result, err)
			continue
		}
		output.Infof(ctx, "Deleted %s", path)
	}
	return result
}

func makeRemoveCmd(ctx context.Context, app *AppComponents) *cobra.Command {
	cmp := Compose(outputComponent(), app.global())
	cmd := &cobra.Command{
		Use: "rm [flags] path...",
		Long: `Deletes files from the disk.

Stops at the first failure unless --keep_going is given.`,
		Args:              cobra.MinimumNArgs(1),
		PersistentPreRunE: cmp.PersistentPreRunE,
		RunE:              ComposeRun(cmp, removeFiles),
	}
	cmd.SetContext(ctx)
	cmp.AddFlags(cmd)
	return cmd
}

func printAttributes(w io.Writer, a *filesystem.Attributes) error {
	if a.IsDir {
		_, err := fmt.Fprintf(w, "path: %s/\n", a.Path)
		return err
	}
	_, err := fmt.Fprintf(w, "path: %s\nsize: %d\nmime_type: %s\nlast_modified: %s\nvisibility: %s\n",
		a.Path, a.Size, a.MimeType, a.LastModified.UTC().Format(time.RFC3339), a.Visibility)
	return err
}

func statFile(ctx context.Context, args []string) error {
	d, err := diskFromContext(ctx)
	if err != nil {
		return err
	}
	attrs, err := d.Metadata(ctx, args[0])
	if err != nil {
		if d.IsNotExist(err) {
			return status.Errorf(codes.NotFound, "%s does not exist", args[0])
		}
		return err
	}
	return printAttributes(output.Writer(ctx), attrs)
}

func makeStatCmd(ctx context.Context, app *AppComponents) *cobra.Command {
	cmp := Compose(outputComponent(), app.global())
	cmd := &cobra.Command{
		Use:               "stat [flags] path",
		Long:              `Prints a file's size, content type, modification time and visibility.`,
		Args:              cobra.ExactArgs(1),
		PersistentPreRunE: cmp.PersistentPreRunE,
		RunE:              ComposeRun(cmp, statFile),
	}
	cmd.SetContext(ctx)
	cmp.AddFlags(cmd)
	return cmd
}
