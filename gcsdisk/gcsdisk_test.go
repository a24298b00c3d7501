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

package gcsdisk

import (
	"errors"
	"golang.org/x/net/context"
	"testing"
	"time"

	"github.com/google/gcsdisk/config"
	"github.com/google/gcsdisk/disk"
	"github.com/google/gcsdisk/storage/gcs"
	"github.com/google/gcsdisk/storage/storagei"
	"github.com/google/gcsdisk/testing/storage"
	"github.com/google/go-cmp/cmp"
)

func strptr(s string) *string { return &s }

// mockProvider returns a provider whose clients are m, and records the options they were built
// with.
func mockProvider(m *storage.Mock, got **gcs.Options) *Provider {
	return &Provider{NewClient: func(_ context.Context, opts *gcs.Options) (storagei.Client, error) {
		if got != nil {
			*got = opts
		}
		return m, nil
	}}
}

func mustCreate(t *testing.T, p *Provider, raw config.Values) *Disk {
	t.Helper()
	d, err := p.Create(context.Background(), raw)
	if err != nil {
		t.Fatalf("Create(%v) = %v", raw, err)
	}
	return d.(*Disk)
}

func TestURL(t *testing.T) {
	tcs := []struct {
		name string
		raw  config.Values
		path string
		want string
	}{
		{
			name: "default endpoint",
			raw:  config.Values{"bucket": "my-bucket"},
			path: "a/b.txt",
			want: "https://storage.googleapis.com/my-bucket/a/b.txt",
		},
		{
			name: "default endpoint with root",
			raw:  config.Values{"bucket": "my-bucket", "path_prefix": "media/"},
			path: "/a/b.txt",
			want: "https://storage.googleapis.com/my-bucket/media/a/b.txt",
		},
		{
			name: "custom endpoint",
			raw:  config.Values{"bucket": "my-bucket", "apiEndpoint": "https://custom.example/v1"},
			path: "a/b.txt",
			want: "https://custom.example/v1/a/b.txt",
		},
		{
			name: "custom endpoint from storage_api_uri with root",
			raw:  config.Values{"bucket": "my-bucket", "storage_api_uri": "https://custom.example/v1/", "root": "r"},
			path: "a/b.txt",
			want: "https://custom.example/v1/r/a/b.txt",
		},
		{
			name: "null endpoint",
			raw:  config.Values{"bucket": "my-bucket", "apiEndpoint": nil},
			path: "a/b.txt",
			want: "https://storage.googleapis.com/my-bucket/a/b.txt",
		},
		{
			name: "empty endpoint",
			raw:  config.Values{"bucket": "my-bucket", "apiEndpoint": ""},
			path: "a/b.txt",
			want: "https://storage.googleapis.com/my-bucket/a/b.txt",
		},
		{
			name: "bucket slashes trimmed",
			raw:  config.Values{"bucket": "/my-bucket"},
			path: "x",
			want: "https://storage.googleapis.com/my-bucket/x",
		},
	}
	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			d := mustCreate(t, mockProvider(storage.WithInitialContents(nil, "my-bucket"), nil), tc.raw)
			if got := d.URL(tc.path); got != tc.want {
				t.Errorf("URL(%q) = %q, want %q", tc.path, got, tc.want)
			}
		})
	}
}

func TestURLBlankEndpointInFile(t *testing.T) {
	f, err := config.ParseFile([]byte("disks:\n  media:\n    driver: gcs\n    bucket: my-bucket\n    apiEndpoint:\n"))
	if err != nil {
		t.Fatal(err)
	}
	var opts *gcs.Options
	d := mustCreate(t, mockProvider(&storage.Mock{}, &opts), f.Disks["media"])
	if got, want := d.URL("a/b.txt"), "https://storage.googleapis.com/my-bucket/a/b.txt"; got != want {
		t.Errorf("URL(a/b.txt) = %q, want %q", got, want)
	}
	if _, ok := config.Present(opts.APIEndpoint); ok {
		t.Errorf("client endpoint = %q, want the default endpoint", *opts.APIEndpoint)
	}
}

func TestTemporaryURL(t *testing.T) {
	m := &storage.Mock{SignResp: &storage.SignedURLResponse{URL: "https://signed.example/x?sig=abc"}}
	d := mustCreate(t, mockProvider(m, nil), config.Values{"bucket": "my-bucket", "root": "media"})
	expires := time.Date(2030, time.January, 1, 0, 0, 0, 0, time.UTC)
	opts := &storagei.SignedURLOptions{}
	got, err := d.TemporaryURL(context.Background(), "a/b.txt", expires, opts)
	if err != nil {
		t.Fatal(err)
	}
	if got != "https://signed.example/x?sig=abc" {
		t.Errorf("TemporaryURL() = %q, want the signer's URL verbatim", got)
	}
	want := []*storage.SignedURLCall{{Bucket: "my-bucket", Object: "media/a/b.txt", Expires: expires, Opts: opts}}
	if diff := cmp.Diff(m.SignedURLCalls, want); diff != "" {
		t.Errorf("SignedURL calls = %v, want %v. Diff: %s", m.SignedURLCalls, want, diff)
	}
	if m.SignedURLCalls[0].Opts != opts {
		t.Error("TemporaryURL() did not forward the options it was given")
	}
}

func TestTemporaryURLError(t *testing.T) {
	errSign := errors.New("no signing credentials")
	m := &storage.Mock{SignResp: &storage.SignedURLResponse{Err: errSign}}
	d := mustCreate(t, mockProvider(m, nil), config.Values{"bucket": "b"})
	if _, err := d.TemporaryURL(context.Background(), "a", time.Now(), nil); err != errSign {
		t.Errorf("TemporaryURL() = %v, want %v unchanged", err, errSign)
	}
}

func TestCreateClientOptions(t *testing.T) {
	tcs := []struct {
		name string
		raw  config.Values
		want *gcs.Options
	}{
		{
			name: "absent",
			raw:  config.Values{"bucket": "b"},
			want: &gcs.Options{},
		},
		{
			name: "snake_case",
			raw: config.Values{
				"bucket":          "b",
				"key_file_path":   "/sa.json",
				"key_file":        "{}",
				"project_id":      "proj",
				"storage_api_uri": "https://e",
			},
			want: &gcs.Options{
				KeyFilePath: strptr("/sa.json"),
				KeyFile:     strptr("{}"),
				ProjectID:   strptr("proj"),
				APIEndpoint: strptr("https://e"),
			},
		},
		{
			name: "camelCase wins",
			raw:  config.Values{"bucket": "b", "projectId": "p1", "project_id": "p2"},
			want: &gcs.Options{ProjectID: strptr("p1")},
		},
	}
	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			var got *gcs.Options
			mustCreate(t, mockProvider(&storage.Mock{}, &got), tc.raw)
			if diff := cmp.Diff(got, tc.want); diff != "" {
				t.Errorf("client options = %+v, want %+v. Diff: %s", got, tc.want, diff)
			}
		})
	}
}

func TestCreateErrors(t *testing.T) {
	errClient := errors.New("bad credentials")
	failing := &Provider{NewClient: func(context.Context, *gcs.Options) (storagei.Client, error) {
		return nil, errClient
	}}
	if _, err := failing.Create(context.Background(), config.Values{"bucket": "b"}); err != errClient {
		t.Errorf("Create() = %v, want %v unchanged", err, errClient)
	}
	if _, err := mockProvider(&storage.Mock{}, nil).Create(context.Background(), config.Values{}); !errors.Is(err, ErrNoBucket) {
		t.Errorf("Create() without bucket = %v, want %v", err, ErrNoBucket)
	}
}

func TestFileOperationsForwarded(t *testing.T) {
	ctx := context.Background()
	m := storage.WithInitialContents(map[string][]byte{"media/a.txt": []byte("hello")}, "my-bucket")
	d := mustCreate(t, mockProvider(m, nil), config.Values{"bucket": "my-bucket", "pathPrefix": "media", "visibility": "public"})
	got, err := d.Read(ctx, "a.txt")
	if err != nil || string(got) != "hello" {
		t.Errorf("Read(a.txt) = %q, %v, want %q, nil", got, err, "hello")
	}
	if err := d.Write(ctx, "b.txt", []byte("x"), nil); err != nil {
		t.Fatal(err)
	}
	attrs, err := m.Attrs(ctx, "my-bucket", "media/b.txt")
	if err != nil {
		t.Fatal(err)
	}
	if !attrs.Public {
		t.Error("object written to a public disk is private")
	}
	m.EnsureResponses = map[string]*storage.EnsureBucketExistsResponse{"my-bucket": {Err: errors.New("no project")}}
	if err := d.Bootstrap(ctx); !errors.Is(err, m.EnsureResponses["my-bucket"].Err) {
		t.Errorf("Bootstrap() = %v, want the bucket creation error of my-bucket", err)
	}
	if d.Client() != storagei.Client(m) {
		t.Error("Client() is not the client the disk was built with")
	}
}

func TestDisksAreIndependent(t *testing.T) {
	rawA := config.Values{"bucket": "bucket-a"}
	rawB := config.Values{"bucket": "bucket-b", "root": "b"}
	a := mustCreate(t, mockProvider(&storage.Mock{}, nil), rawA)
	b := mustCreate(t, mockProvider(&storage.Mock{}, nil), rawB)
	rawA["bucket"] = "changed"
	rawA["apiEndpoint"] = "https://changed"
	if got, want := a.URL("x"), "https://storage.googleapis.com/bucket-a/x"; got != want {
		t.Errorf("a.URL(x) = %q after changing its raw config, want %q", got, want)
	}
	if got, want := b.URL("x"), "https://storage.googleapis.com/bucket-b/b/x"; got != want {
		t.Errorf("b.URL(x) = %q, want %q", got, want)
	}
	a.Config.Bucket = "mutated"
	if got, want := b.URL("x"), "https://storage.googleapis.com/bucket-b/b/x"; got != want {
		t.Errorf("b.URL(x) = %q after mutating a's config, want %q", got, want)
	}
}

func TestRegister(t *testing.T) {
	r := disk.NewRegistry()
	Register(r)
	r.Configure("media", config.Values{"driver": DriverName})
	if _, err := r.Disk(context.Background(), "media"); !errors.Is(err, ErrNoBucket) {
		t.Errorf("Disk(media) = %v, want %v", err, ErrNoBucket)
	}
}

func TestClose(t *testing.T) {
	d := mustCreate(t, mockProvider(&storage.Mock{}, nil), config.Values{"bucket": "b"})
	if err := d.Close(); err != nil {
		t.Errorf("Close() = %v, want nil for a client without resources", err)
	}
}
