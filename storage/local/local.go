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

// Package local provides a storagei.Client implementation for local disk file management.
package local

import (
	"errors"
	"fmt"
	"golang.org/x/net/context"
	"io"
	"io/fs"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/gcsdisk/cmd/output"
	"github.com/google/gcsdisk/storage/storagei"
	"github.com/google/uuid"
	"go.uber.org/multierr"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	dirPerm     os.FileMode = 0755
	publicPerm  os.FileMode = 0644
	privatePerm os.FileMode = 0600
	tmpSuffix               = ".tmp"
)

// StorageClient provides the storagei.Client interface on local disk. A bucket is a root
// directory in which relative paths are defined. Unlike a GCS storage client, the local
// StorageClient can accept a bucket of "." for current-working-directory-relative paths.
//
// Visibility maps onto the "other" read bit: public files are 0644 and private files 0600.
type StorageClient struct {
	Root string
}

func (s *StorageClient) localPath(bucket, object string) string {
	return filepath.Join(s.Root, bucket, filepath.FromSlash(object))
}

func perm(public bool) os.FileMode {
	if public {
		return publicPerm
	}
	return privatePerm
}

// isTemp reports whether a directory entry is an in-flight write.
func isTemp(base string) bool {
	return strings.HasPrefix(base, ".") && strings.HasSuffix(base, tmpSuffix)
}

// Reader returns an open ReadCloser object for reading the given object.
func (s *StorageClient) Reader(_ context.Context, bucket, object string) (io.ReadCloser, error) {
	r, err := os.Open(s.localPath(bucket, object))
	if err != nil {
		return nil, err
	}
	return r, nil
}

// atomicWriter writes to a hidden temporary file and renames it over the destination on Close, so
// readers never observe a partially written object.
type atomicWriter struct {
	f    *os.File
	dest string
}

func (w *atomicWriter) Write(p []byte) (int, error) { return w.f.Write(p) }

func (w *atomicWriter) Close() error {
	if err := w.f.Close(); err != nil {
		os.Remove(w.f.Name())
		return err
	}
	if err := os.Rename(w.f.Name(), w.dest); err != nil {
		os.Remove(w.f.Name())
		return err
	}
	return nil
}

// Writer returns an open WriteCloser object for populating the given object.
func (s *StorageClient) Writer(ctx context.Context, bucket, object string, opts *storagei.WriteOptions) (io.WriteCloser, error) {
	// objects in GCS can have slashes in them without needing extra mkdir commands since there's no
	// notion of a directory in GCS. We need to be more careful on a local filesystem.
	p := s.localPath(bucket, object)
	dir, base := filepath.Split(p)
	if dir != "" {
		if err := os.MkdirAll(dir, dirPerm); err != nil {
			return nil, fmt.Errorf("could not prepare directory for object %s in bucket %s: %w", object, bucket, err)
		}
	}
	tmp := filepath.Join(dir, fmt.Sprintf(".%s.%s%s", base, uuid.NewString(), tmpSuffix))
	mode := perm(opts != nil && opts.Public)
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_EXCL|os.O_WRONLY, mode)
	if err != nil {
		return nil, err
	}
	// The umask may have cleared the read bit that marks a public file.
	if err := f.Chmod(mode); err != nil {
		f.Close()
		os.Remove(tmp)
		return nil, err
	}
	output.Debugf(ctx, "opened writer for %s", p)
	return &atomicWriter{f: f, dest: p}, nil
}

// Exists returns whether a particular object exists in the given bucket, or an error.
func (s *StorageClient) Exists(_ context.Context, bucket, object string) (bool, error) {
	info, err := os.Stat(s.localPath(bucket, object))
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return !info.IsDir(), nil
}

// Delete removes the given object.
func (s *StorageClient) Delete(_ context.Context, bucket, object string) error {
	return os.Remove(s.localPath(bucket, object))
}

func attrsFromInfo(name string, info fs.FileInfo) *storagei.ObjectAttrs {
	return &storagei.ObjectAttrs{
		Name:        name,
		Size:        info.Size(),
		ContentType: mime.TypeByExtension(filepath.Ext(name)),
		Updated:     info.ModTime().UTC().Truncate(time.Second),
		Public:      info.Mode().Perm()&0004 != 0,
	}
}

// Attrs returns the metadata of the given object.
func (s *StorageClient) Attrs(_ context.Context, bucket, object string) (*storagei.ObjectAttrs, error) {
	info, err := os.Stat(s.localPath(bucket, object))
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, &fs.PathError{Op: "stat", Path: object, Err: fs.ErrNotExist}
	}
	return attrsFromInfo(object, info), nil
}

// SetPublic changes the object's permission bits to match the requested visibility.
func (s *StorageClient) SetPublic(_ context.Context, bucket, object string, public bool) error {
	return os.Chmod(s.localPath(bucket, object), perm(public))
}

// Copy duplicates src to dst within the bucket, keeping src's visibility.
func (s *StorageClient) Copy(ctx context.Context, bucket, src, dst string) error {
	attrs, err := s.Attrs(ctx, bucket, src)
	if err != nil {
		return err
	}
	r, err := s.Reader(ctx, bucket, src)
	if err != nil {
		return err
	}
	defer r.Close()
	w, err := s.Writer(ctx, bucket, dst, &storagei.WriteOptions{Public: attrs.Public})
	if err != nil {
		return err
	}
	if _, err := io.Copy(w, r); err != nil {
		w.(*atomicWriter).abort()
		return err
	}
	return w.Close()
}

func (w *atomicWriter) abort() {
	w.f.Close()
	os.Remove(w.f.Name())
}

// List returns the files under the bucket directory whose slash-separated names start with prefix.
func (s *StorageClient) List(_ context.Context, bucket, prefix string, recursive bool) ([]*storagei.ObjectAttrs, error) {
	base := s.localPath(bucket, "")
	var result []*storagei.ObjectAttrs
	seen := make(map[string]bool)
	err := filepath.WalkDir(base, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == base && errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if d.IsDir() || isTemp(d.Name()) {
			return nil
		}
		rel, err := filepath.Rel(base, p)
		if err != nil {
			return err
		}
		name := filepath.ToSlash(rel)
		if !strings.HasPrefix(name, prefix) {
			return nil
		}
		if !recursive {
			if i := strings.Index(name[len(prefix):], "/"); i >= 0 {
				dir := name[:len(prefix)+i+1]
				if !seen[dir] {
					seen[dir] = true
					result = append(result, &storagei.ObjectAttrs{Name: dir, IsPrefix: true})
				}
				return nil
			}
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		result = append(result, attrsFromInfo(name, info))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// SignedURL is not supported on local disk since there is no service to validate a signature.
func (s *StorageClient) SignedURL(_ context.Context, bucket, object string, _ time.Time, _ *storagei.SignedURLOptions) (string, error) {
	return "", status.Errorf(codes.Unimplemented, "local storage cannot sign URLs for %q in bucket %q", object, bucket)
}

// IsNotExists returns whether an error from Client indicates the object in question does
// not exist.
func (s *StorageClient) IsNotExists(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}

// EnsureBucketExists creates the given bucket if it does not exist. Only the owner has privileges.
func (s *StorageClient) EnsureBucketExists(_ context.Context, bucket string) error {
	return os.MkdirAll(filepath.Join(s.Root, bucket), dirPerm)
}

// Wipeout deletes all objects in the given bucket (subdirectory). The bucket itself remains.
func (s *StorageClient) Wipeout(_ context.Context, bucket string) error {
	p := filepath.Join(s.Root, bucket)
	if p == "" || p == "." {
		return fmt.Errorf("cannot delete current working directory")
	}
	entries, err := os.ReadDir(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	var result error
	for _, e := range entries {
		result = multierr.Append(result, os.RemoveAll(filepath.Join(p, e.Name())))
	}
	return result
}
