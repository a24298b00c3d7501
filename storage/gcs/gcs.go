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

// Package gcs provides a storagei.Client implementation backed by Google Cloud Storage.
package gcs

import (
	"errors"
	"fmt"
	"golang.org/x/net/context"
	"io"
	"net/http"
	"time"

	"cloud.google.com/go/storage"
	"github.com/google/gcsdisk/storage/storagei"
	"go.uber.org/multierr"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/iterator"
)

const (
	// Predefined ACLs used to apply visibility on write and copy.
	publicReadACL     = "publicRead"
	projectPrivateACL = "projectPrivate"

	delimiter = "/"
)

// ErrNoProject is returned by EnsureBucketExists when a bucket must be created but no project was
// configured to own it.
var ErrNoProject = errors.New("a project ID is required to create a bucket")

// StorageClient provides the storagei.Client interface over a Cloud Storage client.
type StorageClient struct {
	// Client is the connected Cloud Storage client.
	Client *storage.Client
	// ProjectID owns buckets created by EnsureBucketExists.
	ProjectID string
}

func (s *StorageClient) object(bucket, object string) *storage.ObjectHandle {
	return s.Client.Bucket(bucket).Object(object)
}

func predefinedACL(public bool) string {
	if public {
		return publicReadACL
	}
	return projectPrivateACL
}

func isPublic(acl []storage.ACLRule) bool {
	for _, rule := range acl {
		if rule.Entity == storage.AllUsers && rule.Role == storage.RoleReader {
			return true
		}
	}
	return false
}

func fromAttrs(attrs *storage.ObjectAttrs) *storagei.ObjectAttrs {
	if attrs.Prefix != "" {
		return &storagei.ObjectAttrs{Name: attrs.Prefix, IsPrefix: true}
	}
	return &storagei.ObjectAttrs{
		Name:        attrs.Name,
		Size:        attrs.Size,
		ContentType: attrs.ContentType,
		Updated:     attrs.Updated,
		Public:      isPublic(attrs.ACL),
	}
}

// Reader returns an open ReadCloser object for reading the given object.
func (s *StorageClient) Reader(ctx context.Context, bucket, object string) (io.ReadCloser, error) {
	return s.object(bucket, object).NewReader(ctx)
}

// Writer returns a WriteCloser that uploads the object. The object is committed on Close.
func (s *StorageClient) Writer(ctx context.Context, bucket, object string, opts *storagei.WriteOptions) (io.WriteCloser, error) {
	w := s.object(bucket, object).NewWriter(ctx)
	if opts == nil {
		opts = &storagei.WriteOptions{}
	}
	w.ContentType = opts.ContentType
	w.PredefinedACL = predefinedACL(opts.Public)
	return w, nil
}

// Exists returns whether a particular object exists in the given bucket, or an error.
func (s *StorageClient) Exists(ctx context.Context, bucket, object string) (bool, error) {
	_, err := s.object(bucket, object).Attrs(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Delete removes the given object.
func (s *StorageClient) Delete(ctx context.Context, bucket, object string) error {
	return s.object(bucket, object).Delete(ctx)
}

// Attrs returns the metadata of the given object.
func (s *StorageClient) Attrs(ctx context.Context, bucket, object string) (*storagei.ObjectAttrs, error) {
	attrs, err := s.object(bucket, object).Attrs(ctx)
	if err != nil {
		return nil, err
	}
	return fromAttrs(attrs), nil
}

// SetPublic grants or revokes read access for allUsers on the object.
func (s *StorageClient) SetPublic(ctx context.Context, bucket, object string, public bool) error {
	acl := s.object(bucket, object).ACL()
	if public {
		return acl.Set(ctx, storage.AllUsers, storage.RoleReader)
	}
	err := acl.Delete(ctx, storage.AllUsers)
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && apiErr.Code == http.StatusNotFound {
		// allUsers had no grant to begin with.
		return nil
	}
	return err
}

// Copy performs a server-side copy of src to dst within the bucket, keeping src's visibility.
func (s *StorageClient) Copy(ctx context.Context, bucket, src, dst string) error {
	srcObj := s.object(bucket, src)
	attrs, err := srcObj.Attrs(ctx)
	if err != nil {
		return err
	}
	copier := s.object(bucket, dst).CopierFrom(srcObj)
	copier.PredefinedACL = predefinedACL(isPublic(attrs.ACL))
	_, err = copier.Run(ctx)
	return err
}

// List returns the objects whose names start with prefix, in lexical order.
func (s *StorageClient) List(ctx context.Context, bucket, prefix string, recursive bool) ([]*storagei.ObjectAttrs, error) {
	q := &storage.Query{Prefix: prefix}
	if !recursive {
		q.Delimiter = delimiter
	}
	var result []*storagei.ObjectAttrs
	it := s.Client.Bucket(bucket).Objects(ctx, q)
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("could not list %q in bucket %q: %w", prefix, bucket, err)
		}
		result = append(result, fromAttrs(attrs))
	}
	return result, nil
}

// SignedURL returns a V4 signed URL for the object that expires at `expires`. Signing credentials
// are detected by the client library, which may call the IAM Credentials API when the client was
// built from default credentials rather than a service account key.
func (s *StorageClient) SignedURL(_ context.Context, bucket, object string, expires time.Time, opts *storagei.SignedURLOptions) (string, error) {
	if opts == nil {
		opts = &storagei.SignedURLOptions{}
	}
	method := opts.Method
	if method == "" {
		method = http.MethodGet
	}
	return s.Client.Bucket(bucket).SignedURL(object, &storage.SignedURLOptions{
		Scheme:          storage.SigningSchemeV4,
		Method:          method,
		Expires:         expires,
		ContentType:     opts.ContentType,
		Headers:         opts.Headers,
		QueryParameters: opts.QueryParameters,
	})
}

// IsNotExists returns whether an error from Client indicates the object or bucket in question does
// not exist.
func (s *StorageClient) IsNotExists(err error) bool {
	return errors.Is(err, storage.ErrObjectNotExist) || errors.Is(err, storage.ErrBucketNotExist)
}

// EnsureBucketExists creates the given bucket in ProjectID if it does not exist.
func (s *StorageClient) EnsureBucketExists(ctx context.Context, bucket string) error {
	b := s.Client.Bucket(bucket)
	_, err := b.Attrs(ctx)
	if err == nil {
		return nil
	}
	if !errors.Is(err, storage.ErrBucketNotExist) {
		return err
	}
	if s.ProjectID == "" {
		return ErrNoProject
	}
	return b.Create(ctx, s.ProjectID, nil)
}

// Wipeout deletes all objects in the given bucket.
func (s *StorageClient) Wipeout(ctx context.Context, bucket string) error {
	objs, err := s.List(ctx, bucket, "", true)
	if err != nil {
		return err
	}
	var result error
	for _, obj := range objs {
		result = multierr.Append(result, s.Delete(ctx, bucket, obj.Name))
	}
	return result
}

// Close releases the underlying client's connections.
func (s *StorageClient) Close() error {
	return s.Client.Close()
}
