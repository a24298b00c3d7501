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

// Package filesystem provides a bucket-scoped filesystem over a storagei.Client, and the Disk
// contract that storage drivers fulfil.
//
// Paths given to a Filesystem are logical: they are relative to the disk's root, and the root is
// applied with a PathPrefixer before any call reaches storage. Errors from the storage client are
// returned unchanged, so callers may test them with IsNotExist.
package filesystem

import (
	"golang.org/x/net/context"
	"io"
	"strings"
	"time"

	"github.com/google/gcsdisk/config"
	"github.com/google/gcsdisk/storage/ops"
	"github.com/google/gcsdisk/storage/storagei"
	"go.uber.org/multierr"
)

// Attributes describe a file or directory on a disk.
type Attributes struct {
	// Path is the logical path, relative to the disk root. Directories have no trailing "/".
	Path         string
	IsDir        bool
	Size         int64
	MimeType     string
	LastModified time.Time
	Visibility   config.Visibility
}

// WriteOptions override a disk's defaults for one write.
type WriteOptions struct {
	// Visibility of the new file. Empty uses the disk's default visibility.
	Visibility config.Visibility
	// MimeType of the new file. Empty lets the backend decide.
	MimeType string
}

// Filesystem is the set of file operations every disk supports.
type Filesystem interface {
	Read(ctx context.Context, path string) ([]byte, error)
	ReadStream(ctx context.Context, path string) (io.ReadCloser, error)
	Write(ctx context.Context, path string, contents []byte, opts *WriteOptions) error
	WriteStream(ctx context.Context, path string, r io.Reader, opts *WriteOptions) error
	Delete(ctx context.Context, path string) error
	DeleteDirectory(ctx context.Context, dir string) error
	Exists(ctx context.Context, path string) (bool, error)
	List(ctx context.Context, dir string, recursive bool) ([]*Attributes, error)
	Metadata(ctx context.Context, path string) (*Attributes, error)
	Size(ctx context.Context, path string) (int64, error)
	LastModified(ctx context.Context, path string) (time.Time, error)
	MimeType(ctx context.Context, path string) (string, error)
	Visibility(ctx context.Context, path string) (config.Visibility, error)
	SetVisibility(ctx context.Context, path string, v config.Visibility) error
	Copy(ctx context.Context, from, to string) error
	Move(ctx context.Context, from, to string) error
	// Bootstrap creates the storage that backs the disk if it does not exist yet.
	Bootstrap(ctx context.Context) error
	// Wipeout deletes every file on the disk.
	Wipeout(ctx context.Context) error
	// IsNotExist reports whether err means the file does not exist.
	IsNotExist(err error) bool
}

// Adapter is a Filesystem bound to one bucket, one root and one default visibility.
type Adapter struct {
	client     storagei.Client
	bucket     string
	prefixer   *PathPrefixer
	visibility config.Visibility
}

var _ Filesystem = (*Adapter)(nil)

// NewAdapter returns a Filesystem over bucket in client, rooted at root. Visibility values other
// than public and private are treated as private.
func NewAdapter(client storagei.Client, bucket, root string, visibility config.Visibility) *Adapter {
	return &Adapter{
		client:     client,
		bucket:     bucket,
		prefixer:   NewPathPrefixer(root),
		visibility: config.ResolveVisibility(string(visibility)),
	}
}

// Client returns the storage client the adapter delegates to.
func (a *Adapter) Client() storagei.Client { return a.client }

// Bucket returns the bucket the adapter is bound to.
func (a *Adapter) Bucket() string { return a.bucket }

// Prefixer returns the adapter's root prefixer.
func (a *Adapter) Prefixer() *PathPrefixer { return a.prefixer }

// DefaultVisibility returns the visibility applied to writes that don't specify one.
func (a *Adapter) DefaultVisibility() config.Visibility { return a.visibility }

func (a *Adapter) writeOptions(opts *WriteOptions) *storagei.WriteOptions {
	v := a.visibility
	var mimeType string
	if opts != nil {
		if opts.Visibility != "" {
			v = config.ResolveVisibility(string(opts.Visibility))
		}
		mimeType = opts.MimeType
	}
	return &storagei.WriteOptions{ContentType: mimeType, Public: v == config.Public}
}

func visibilityOf(public bool) config.Visibility {
	if public {
		return config.Public
	}
	return config.Private
}

func (a *Adapter) attributes(attrs *storagei.ObjectAttrs) *Attributes {
	if attrs.IsPrefix || strings.HasSuffix(attrs.Name, separator) {
		return &Attributes{Path: a.prefixer.StripDirectoryPrefix(attrs.Name), IsDir: true}
	}
	return &Attributes{
		Path:         a.prefixer.StripPrefix(attrs.Name),
		Size:         attrs.Size,
		MimeType:     attrs.ContentType,
		LastModified: attrs.Updated,
		Visibility:   visibilityOf(attrs.Public),
	}
}

// Read returns the file's contents.
func (a *Adapter) Read(ctx context.Context, path string) ([]byte, error) {
	return ops.ReadFile(ctx, a.client, a.bucket, a.prefixer.PrefixPath(path))
}

// ReadStream opens the file for reading. The caller must close it.
func (a *Adapter) ReadStream(ctx context.Context, path string) (io.ReadCloser, error) {
	return a.client.Reader(ctx, a.bucket, a.prefixer.PrefixPath(path))
}

// Write creates or replaces the file with contents.
func (a *Adapter) Write(ctx context.Context, path string, contents []byte, opts *WriteOptions) error {
	return ops.WriteFile(ctx, a.client, a.bucket, a.prefixer.PrefixPath(path), contents, a.writeOptions(opts))
}

// WriteStream creates or replaces the file with everything read from r.
func (a *Adapter) WriteStream(ctx context.Context, path string, r io.Reader, opts *WriteOptions) error {
	return ops.Upload(ctx, a.client, a.bucket, a.prefixer.PrefixPath(path), r, a.writeOptions(opts))
}

// Delete removes the file.
func (a *Adapter) Delete(ctx context.Context, path string) error {
	return a.client.Delete(ctx, a.bucket, a.prefixer.PrefixPath(path))
}

// DeleteDirectory removes every file below dir. It keeps going after a failure and returns all
// failures combined.
func (a *Adapter) DeleteDirectory(ctx context.Context, dir string) error {
	objs, err := a.client.List(ctx, a.bucket, a.prefixer.PrefixDirectoryPath(dir), true)
	if err != nil {
		return err
	}
	var result error
	for _, obj := range objs {
		result = multierr.Append(result, a.client.Delete(ctx, a.bucket, obj.Name))
	}
	return result
}

// Bootstrap creates the disk's bucket if it does not exist.
func (a *Adapter) Bootstrap(ctx context.Context) error {
	return a.client.EnsureBucketExists(ctx, a.bucket)
}

// Wipeout deletes every file below the root. A disk without a root empties its whole bucket.
func (a *Adapter) Wipeout(ctx context.Context) error {
	if a.prefixer.Prefix() == "" {
		return a.client.Wipeout(ctx, a.bucket)
	}
	return a.DeleteDirectory(ctx, "")
}

// Exists reports whether the file exists.
func (a *Adapter) Exists(ctx context.Context, path string) (bool, error) {
	return a.client.Exists(ctx, a.bucket, a.prefixer.PrefixPath(path))
}

// List returns the files and directories in dir. A recursive listing returns only files.
func (a *Adapter) List(ctx context.Context, dir string, recursive bool) ([]*Attributes, error) {
	objs, err := a.client.List(ctx, a.bucket, a.prefixer.PrefixDirectoryPath(dir), recursive)
	if err != nil {
		return nil, err
	}
	result := make([]*Attributes, 0, len(objs))
	for _, obj := range objs {
		attrs := a.attributes(obj)
		if attrs.IsDir && recursive {
			// Placeholder objects for directories created by other tools.
			continue
		}
		result = append(result, attrs)
	}
	return result, nil
}

// Metadata returns the file's attributes.
func (a *Adapter) Metadata(ctx context.Context, path string) (*Attributes, error) {
	attrs, err := a.client.Attrs(ctx, a.bucket, a.prefixer.PrefixPath(path))
	if err != nil {
		return nil, err
	}
	return a.attributes(attrs), nil
}

// Size returns the file's length in bytes.
func (a *Adapter) Size(ctx context.Context, path string) (int64, error) {
	attrs, err := a.Metadata(ctx, path)
	if err != nil {
		return 0, err
	}
	return attrs.Size, nil
}

// LastModified returns the file's modification time.
func (a *Adapter) LastModified(ctx context.Context, path string) (time.Time, error) {
	attrs, err := a.Metadata(ctx, path)
	if err != nil {
		return time.Time{}, err
	}
	return attrs.LastModified, nil
}

// MimeType returns the file's stored content type.
func (a *Adapter) MimeType(ctx context.Context, path string) (string, error) {
	attrs, err := a.Metadata(ctx, path)
	if err != nil {
		return "", err
	}
	return attrs.MimeType, nil
}

// Visibility returns whether the file is public or private.
func (a *Adapter) Visibility(ctx context.Context, path string) (config.Visibility, error) {
	attrs, err := a.Metadata(ctx, path)
	if err != nil {
		return "", err
	}
	return attrs.Visibility, nil
}

// SetVisibility changes the file's visibility. Values other than public are treated as private.
func (a *Adapter) SetVisibility(ctx context.Context, path string, v config.Visibility) error {
	public := config.ResolveVisibility(string(v)) == config.Public
	return a.client.SetPublic(ctx, a.bucket, a.prefixer.PrefixPath(path), public)
}

// Copy duplicates a file, keeping its visibility.
func (a *Adapter) Copy(ctx context.Context, from, to string) error {
	return a.client.Copy(ctx, a.bucket, a.prefixer.PrefixPath(from), a.prefixer.PrefixPath(to))
}

// Move copies a file and then deletes the original.
func (a *Adapter) Move(ctx context.Context, from, to string) error {
	if a.prefixer.PrefixPath(from) == a.prefixer.PrefixPath(to) {
		return nil
	}
	if err := a.Copy(ctx, from, to); err != nil {
		return err
	}
	return a.Delete(ctx, from)
}

// IsNotExist reports whether err means the file does not exist.
func (a *Adapter) IsNotExist(err error) bool {
	return err != nil && a.client.IsNotExists(err)
}
