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

package gcs

import (
	"golang.org/x/net/context"

	"cloud.google.com/go/storage"
	"github.com/google/gcsdisk/cmd/output"
	"github.com/google/gcsdisk/config"
	"google.golang.org/api/option"
)

// Options are the client construction settings a disk may provide. A nil or empty field is not
// passed to the client library, which then falls back to Application Default Credentials and the
// public endpoint.
type Options struct {
	KeyFilePath *string
	KeyFile     *string
	ProjectID   *string
	APIEndpoint *string
}

type optionBuilder struct {
	name  string
	field func(*Options) *string
	build func(string) option.ClientOption
}

// builders is ordered the way the options are handed to storage.NewClient.
var builders = []optionBuilder{
	{
		name:  "keyFilePath",
		field: func(o *Options) *string { return o.KeyFilePath },
		build: option.WithCredentialsFile,
	},
	{
		name:  "keyFile",
		field: func(o *Options) *string { return o.KeyFile },
		build: func(v string) option.ClientOption { return option.WithCredentialsJSON([]byte(v)) },
	},
	{
		name:  "apiEndpoint",
		field: func(o *Options) *string { return o.APIEndpoint },
		build: option.WithEndpoint,
	},
}

// ClientOptions returns the client options for the provided settings, and their names.
func (o *Options) ClientOptions() ([]option.ClientOption, []string) {
	var opts []option.ClientOption
	var names []string
	for _, b := range builders {
		if v, ok := config.Present(b.field(o)); ok {
			opts = append(opts, b.build(v))
			names = append(names, b.name)
		}
	}
	return opts, names
}

// NewClient connects a Cloud Storage client with only the provided options. Errors from the client
// library are returned unchanged.
func NewClient(ctx context.Context, o *Options) (*StorageClient, error) {
	if o == nil {
		o = &Options{}
	}
	opts, names := o.ClientOptions()
	output.Debugf(ctx, "connecting to Cloud Storage with options %v", names)
	c, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, err
	}
	project, _ := config.Present(o.ProjectID)
	return &StorageClient{Client: c, ProjectID: project}, nil
}
