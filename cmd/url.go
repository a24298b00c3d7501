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
	"net/url"
	"strings"
	"time"

	"github.com/google/gcsdisk/cmd/output"
	"github.com/google/gcsdisk/storage/storagei"
	"github.com/spf13/cobra"
)

const defaultExpiry = 15 * time.Minute

func printURL(ctx context.Context, args []string) error {
	d, err := diskFromContext(ctx)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(output.Writer(ctx), d.URL(args[0]))
	return err
}

func makeURLCmd(ctx context.Context, app *AppComponents) *cobra.Command {
	cmp := Compose(outputComponent(), app.global())
	cmd := &cobra.Command{
		Use:               "url [flags] path",
		Long:              `Prints the permanent URL of a file. No request is made to the storage service.`,
		Args:              cobra.ExactArgs(1),
		PersistentPreRunE: cmp.PersistentPreRunE,
		RunE:              ComposeRun(cmp, printURL),
	}
	cmd.SetContext(ctx)
	cmp.AddFlags(cmd)
	return cmd
}

// TemporaryURLContext holds the temporary-url command's signing request.
type TemporaryURLContext struct {
	// ExpiresIn is how long the URL stays valid. Ignored if ExpiresAt is set.
	ExpiresIn time.Duration
	// ExpiresAt is when the URL stops being valid.
	ExpiresAt time.Time
	// Options are passed to the signer.
	Options storagei.SignedURLOptions
	// Query holds "key=value" query parameters to sign into the URL.
	Query []string
}

type temporaryURLKeyType struct{}

var temporaryURLKey temporaryURLKeyType

// NewTemporaryURLContext returns ctx extended with c.
func NewTemporaryURLContext(ctx context.Context, c *TemporaryURLContext) context.Context {
	return context.WithValue(ctx, temporaryURLKey, c)
}

// FromTemporaryURLContext returns the TemporaryURLContext in ctx.
func FromTemporaryURLContext(ctx context.Context) (*TemporaryURLContext, error) {
	c, ok := ctx.Value(temporaryURLKey).(*TemporaryURLContext)
	if !ok {
		return nil, errors.New("no temporary URL context found")
	}
	return c, nil
}

// TemporaryURLCommand is the core temporary-url command component.
type TemporaryURLCommand struct{}

// InitContext extends the given context with whatever else the component needs before execution.
func (*TemporaryURLCommand) InitContext(ctx context.Context) (context.Context, error) {
	return ctx, nil
}

// AddFlags adds the signing request flags.
func (*TemporaryURLCommand) AddFlags(cmd *cobra.Command) {
	tc := &TemporaryURLContext{}
	cmd.SetContext(NewTemporaryURLContext(cmd.Context(), tc))
	flags := cmd.PersistentFlags()
	flags.DurationVar(&tc.ExpiresIn, "expires_in", defaultExpiry, "How long the URL stays valid.")
	flags.AddGoFlag(timeVar(&tc.ExpiresAt, "expires_at",
		"The RFC3339 time at which the URL stops being valid. Overrides --expires_in."))
	flags.StringVar(&tc.Options.Method, "method", "GET", "The HTTP method the URL is valid for.")
	flags.StringVar(&tc.Options.ContentType, "content_type", "",
		"The Content-Type header requests with the URL must send.")
	flags.StringSliceVar(&tc.Options.Headers, "header", nil,
		"A \"Key:Value\" header requests with the URL must send. May be repeated.")
	flags.StringSliceVar(&tc.Query, "query", nil,
		"A \"key=value\" query parameter to sign into the URL. May be repeated.")
}

// PersistentPreRunE resolves the expiration and query parameters.
func (*TemporaryURLCommand) PersistentPreRunE(cmd *cobra.Command, _ []string) error {
	tc, err := FromTemporaryURLContext(cmd.Context())
	if err != nil {
		return err
	}
	if tc.ExpiresAt.IsZero() {
		if tc.ExpiresIn <= 0 {
			return fmt.Errorf("--expires_in must be positive, got %v", tc.ExpiresIn)
		}
		tc.ExpiresAt = time.Now().Add(tc.ExpiresIn)
	}
	tc.Options.Method = strings.ToUpper(tc.Options.Method)
	if len(tc.Query) > 0 {
		tc.Options.QueryParameters = url.Values{}
		for _, kv := range tc.Query {
			k, v, ok := strings.Cut(kv, "=")
			if !ok {
				return fmt.Errorf("--query must be key=value, got %q", kv)
			}
			tc.Options.QueryParameters.Add(k, v)
		}
	}
	return nil
}

func printTemporaryURL(ctx context.Context, args []string) error {
	tc, err := FromTemporaryURLContext(ctx)
	if err != nil {
		return err
	}
	d, err := diskFromContext(ctx)
	if err != nil {
		return err
	}
	u, err := d.TemporaryURL(ctx, args[0], tc.ExpiresAt, &tc.Options)
	if err != nil {
		return err
	}
	output.Debugf(ctx, "URL for %s expires at %s", args[0], tc.ExpiresAt.Format(time.RFC3339))
	_, err = fmt.Fprintln(output.Writer(ctx), u)
	return err
}

func makeTemporaryURLCmd(ctx context.Context, app *AppComponents) *cobra.Command {
	cmp := Compose(outputComponent(), app.global(), &TemporaryURLCommand{})
	cmd := &cobra.Command{
		Use: "temporary-url [flags] path",
		Long: `Prints a signed URL that grants access to a file until it expires.

Signing needs credentials that can sign, such as a service account key, or the
permission to sign blobs as the default service account.`,
		Args:              cobra.ExactArgs(1),
		PersistentPreRunE: cmp.PersistentPreRunE,
		RunE:              ComposeRun(cmp, printTemporaryURL),
	}
	cmd.SetContext(ctx)
	cmp.AddFlags(cmd)
	return cmd
}
