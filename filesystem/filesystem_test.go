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

package filesystem

import (
	"bytes"
	"errors"
	"golang.org/x/net/context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/google/gcsdisk/config"
	"github.com/google/gcsdisk/testing/match"
	"github.com/google/gcsdisk/testing/storage"
	"github.com/google/go-cmp/cmp"
	"google.golang.org/grpc/codes"
)

const bucket = "my-bucket"

var now = time.Date(2024, time.April, 1, 12, 0, 0, 0, time.UTC)

func newTestAdapter(contents map[string][]byte, root string, v config.Visibility) (*Adapter, *storage.Mock) {
	m := storage.WithInitialContents(contents, bucket)
	m.Now = now
	return NewAdapter(m, bucket, root, v), m
}

func TestReadWrite(t *testing.T) {
	ctx := context.Background()
	a, m := newTestAdapter(nil, "media", config.Private)
	if err := a.Write(ctx, "a/b.txt", []byte("hello"), nil); err != nil {
		t.Fatal(err)
	}
	if ok, err := m.Exists(ctx, bucket, "media/a/b.txt"); !ok || err != nil {
		t.Fatalf("object media/a/b.txt exists = %v, %v, want true, nil", ok, err)
	}
	got, err := a.Read(ctx, "/a/b.txt")
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, []byte("hello")) {
		t.Errorf("Read(a/b.txt) = %q, want %q", got, "hello")
	}
	if err := a.WriteStream(ctx, "c.txt", strings.NewReader("stream"), nil); err != nil {
		t.Fatal(err)
	}
	r, err := a.ReadStream(ctx, "c.txt")
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	got, err = io.ReadAll(r)
	if err != nil || string(got) != "stream" {
		t.Errorf("ReadStream(c.txt) = %q, %v, want %q, nil", got, err, "stream")
	}
}

func TestReadMissing(t *testing.T) {
	a, _ := newTestAdapter(nil, "", config.Private)
	_, err := a.Read(context.Background(), "nope")
	if !a.IsNotExist(err) {
		t.Errorf("Read(nope) = %v, want a not-exist error", err)
	}
	if a.IsNotExist(nil) {
		t.Error("IsNotExist(nil) = true, want false")
	}
}

func TestWriteVisibility(t *testing.T) {
	tcs := []struct {
		name       string
		visibility config.Visibility
		opts       *WriteOptions
		want       config.Visibility
	}{
		{name: "disk private", visibility: config.Private, want: config.Private},
		{name: "disk public", visibility: config.Public, want: config.Public},
		{name: "disk unknown", visibility: "world", want: config.Private},
		{name: "override public", visibility: config.Private, opts: &WriteOptions{Visibility: config.Public}, want: config.Public},
		{name: "override private", visibility: config.Public, opts: &WriteOptions{Visibility: config.Private}, want: config.Private},
		{name: "empty override", visibility: config.Public, opts: &WriteOptions{MimeType: "text/plain"}, want: config.Public},
	}
	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()
			a, _ := newTestAdapter(nil, "", tc.visibility)
			if err := a.Write(ctx, "f", []byte("x"), tc.opts); err != nil {
				t.Fatal(err)
			}
			got, err := a.Visibility(ctx, "f")
			if err != nil {
				t.Fatal(err)
			}
			if got != tc.want {
				t.Errorf("Visibility(f) = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestMetadata(t *testing.T) {
	ctx := context.Background()
	a, _ := newTestAdapter(nil, "root", config.Public)
	if err := a.Write(ctx, "doc.txt", []byte("four"), &WriteOptions{MimeType: "text/plain"}); err != nil {
		t.Fatal(err)
	}
	got, err := a.Metadata(ctx, "doc.txt")
	if err != nil {
		t.Fatal(err)
	}
	want := &Attributes{
		Path:         "doc.txt",
		Size:         4,
		MimeType:     "text/plain",
		LastModified: now,
		Visibility:   config.Public,
	}
	if diff := cmp.Diff(got, want); diff != "" {
		t.Errorf("Metadata(doc.txt) = %+v, want %+v. Diff: %s", got, want, diff)
	}
	if size, err := a.Size(ctx, "doc.txt"); err != nil || size != 4 {
		t.Errorf("Size(doc.txt) = %d, %v, want 4, nil", size, err)
	}
	if mt, err := a.MimeType(ctx, "doc.txt"); err != nil || mt != "text/plain" {
		t.Errorf("MimeType(doc.txt) = %q, %v, want text/plain, nil", mt, err)
	}
	if lm, err := a.LastModified(ctx, "doc.txt"); err != nil || !lm.Equal(now) {
		t.Errorf("LastModified(doc.txt) = %v, %v, want %v, nil", lm, err, now)
	}
	if err := a.SetVisibility(ctx, "doc.txt", config.Private); err != nil {
		t.Fatal(err)
	}
	if v, err := a.Visibility(ctx, "doc.txt"); err != nil || v != config.Private {
		t.Errorf("Visibility(doc.txt) = %q, %v, want private, nil", v, err)
	}
}

func TestList(t *testing.T) {
	ctx := context.Background()
	a, _ := newTestAdapter(map[string][]byte{
		"root/a.txt":       []byte("a"),
		"root/dir/b.txt":   []byte("bb"),
		"root/dir/c/d.txt": []byte("d"),
		"root/dir/c/":      nil,
		"elsewhere.txt":    nil,
	}, "root", config.Private)
	paths := func(attrs []*Attributes) []string {
		var result []string
		for _, at := range attrs {
			p := at.Path
			if at.IsDir {
				p += "/"
			}
			result = append(result, p)
		}
		return result
	}
	tcs := []struct {
		name      string
		dir       string
		recursive bool
		want      []string
	}{
		{name: "root", want: []string{"a.txt", "dir/"}},
		{name: "subdir", dir: "dir", want: []string{"dir/b.txt", "dir/c/"}},
		{name: "subdir trailing slash", dir: "/dir/", want: []string{"dir/b.txt", "dir/c/"}},
		{name: "recursive", recursive: true, want: []string{"a.txt", "dir/b.txt", "dir/c/d.txt"}},
		{name: "missing", dir: "nope"},
	}
	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			got, err := a.List(ctx, tc.dir, tc.recursive)
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(paths(got), tc.want); diff != "" {
				t.Errorf("List(%q, %v) = %v, want %v. Diff: %s", tc.dir, tc.recursive, paths(got), tc.want, diff)
			}
		})
	}
}

func TestCopyMoveDelete(t *testing.T) {
	ctx := context.Background()
	a, m := newTestAdapter(map[string][]byte{"r/a": []byte("a")}, "r", config.Private)
	if err := a.SetVisibility(ctx, "a", config.Public); err != nil {
		t.Fatal(err)
	}
	if err := a.Copy(ctx, "a", "b"); err != nil {
		t.Fatal(err)
	}
	if v, err := a.Visibility(ctx, "b"); err != nil || v != config.Public {
		t.Errorf("Visibility(b) = %q, %v, want public, nil", v, err)
	}
	if err := a.Move(ctx, "b", "c"); err != nil {
		t.Fatal(err)
	}
	if ok, _ := a.Exists(ctx, "b"); ok {
		t.Error("Exists(b) = true after move, want false")
	}
	if ok, _ := a.Exists(ctx, "c"); !ok {
		t.Error("Exists(c) = false after move, want true")
	}
	if err := a.Move(ctx, "c", "/c"); err != nil {
		t.Errorf("Move(c, /c) = %v, want nil", err)
	}
	if ok, _ := a.Exists(ctx, "c"); !ok {
		t.Error("Exists(c) = false after move onto itself, want true")
	}
	if err := a.Delete(ctx, "a"); err != nil {
		t.Fatal(err)
	}
	if err := a.Delete(ctx, "a"); !a.IsNotExist(err) {
		t.Errorf("Delete(a) twice = %v, want a not-exist error", err)
	}
	if err := a.DeleteDirectory(ctx, ""); err != nil {
		t.Fatal(err)
	}
	if objs, err := m.List(ctx, bucket, "", true); err != nil || len(objs) != 0 {
		t.Errorf("objects after DeleteDirectory = %v, %v, want none", objs, err)
	}
}

func TestErrorsPassThrough(t *testing.T) {
	ctx := context.Background()
	errBackend := errors.New("backend down")
	a := NewAdapter(storage.WithError(errBackend), bucket, "", config.Private)
	if _, err := a.Read(ctx, "x"); !errors.Is(err, errBackend) {
		t.Errorf("Read() = %v, want %v", err, errBackend)
	}
	if _, err := a.List(ctx, "", false); !errors.Is(err, errBackend) {
		t.Errorf("List() = %v, want %v", err, errBackend)
	}
	if err := a.Write(ctx, "x", nil, nil); !errors.Is(err, errBackend) {
		t.Errorf("Write() = %v, want %v", err, errBackend)
	}
}

func TestWrapper(t *testing.T) {
	a, _ := newTestAdapter(nil, "", config.Private)
	w := NewWrapper(a, &config.Disk{Driver: "local", URL: "https://files.example/"})
	if got, want := w.URL("/a/b.txt"), "https://files.example/a/b.txt"; got != want {
		t.Errorf("URL(/a/b.txt) = %q, want %q", got, want)
	}
	_, err := w.TemporaryURL(context.Background(), "a", now, nil)
	if !match.Code(err, codes.Unimplemented) {
		t.Errorf("TemporaryURL() = %v, want code %v", err, codes.Unimplemented)
	}
	if !match.Error(err, `driver "local" does not support`) {
		t.Errorf("TemporaryURL() = %v, want driver name in message", err)
	}
}

type unprefixed struct{ Filesystem }

func TestWrapperURL(t *testing.T) {
	media, _ := newTestAdapter(nil, "media/", config.Private)
	tcs := []struct {
		name string
		fs   Filesystem
		base string
		path string
		want string
	}{
		{name: "base and root", fs: media, base: "https://files.example", path: "/a/b.txt", want: "https://files.example/media/a/b.txt"},
		{name: "root without base", fs: media, path: "/a/b.txt", want: "media/a/b.txt"},
		{name: "no base no root", fs: NewAdapter(nil, bucket, "", config.Private), path: "a/b.txt", want: "a/b.txt"},
		{name: "filesystem without prefixer", fs: unprefixed{media}, base: "https://files.example/", path: "a.txt", want: "https://files.example/a.txt"},
	}
	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			w := NewWrapper(tc.fs, &config.Disk{URL: tc.base})
			if got := w.URL(tc.path); got != tc.want {
				t.Errorf("URL(%q) = %q, want %q", tc.path, got, tc.want)
			}
		})
	}
}

func TestWipeout(t *testing.T) {
	contents := map[string][]byte{"media/a": []byte("a"), "media/d/b": []byte("b"), "other": []byte("o")}
	tcs := []struct {
		name string
		root string
		want []string
	}{
		{name: "rooted", root: "media", want: []string{"other"}},
		{name: "whole bucket", want: nil},
	}
	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()
			a, m := newTestAdapter(contents, tc.root, config.Private)
			if err := a.Wipeout(ctx); err != nil {
				t.Fatal(err)
			}
			objs, err := m.List(ctx, bucket, "", true)
			if err != nil {
				t.Fatal(err)
			}
			var got []string
			for _, o := range objs {
				got = append(got, o.Name)
			}
			if diff := cmp.Diff(got, tc.want); diff != "" {
				t.Errorf("objects after Wipeout() = %v, want %v. Diff: %s", got, tc.want, diff)
			}
		})
	}
}

func TestBootstrap(t *testing.T) {
	errCreate := errors.New("cannot create bucket")
	a, m := newTestAdapter(nil, "media", config.Private)
	if err := a.Bootstrap(context.Background()); err != nil {
		t.Errorf("Bootstrap() = %v, want nil", err)
	}
	m.EnsureResponses = map[string]*storage.EnsureBucketExistsResponse{bucket: {Err: errCreate}}
	if err := a.Bootstrap(context.Background()); err != errCreate {
		t.Errorf("Bootstrap() = %v, want %v", err, errCreate)
	}
}
