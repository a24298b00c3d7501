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

// Package storagei provides a storage interface type that can be used for object management.
package storagei

import (
	"golang.org/x/net/context"
	"io"
	"net/url"
	"time"
)

// ObjectAttrs is the subset of object metadata that the filesystem layer exposes.
type ObjectAttrs struct {
	// Name is the full object name within its bucket.
	Name string
	// Size is the object length in bytes.
	Size int64
	// ContentType is the object's MIME type, if known.
	ContentType string
	// Updated is the last modification time.
	Updated time.Time
	// Public reports whether the object is readable without credentials.
	Public bool
	// IsPrefix is true for synthetic directory entries returned by non-recursive listings. Only
	// Name is populated for them.
	IsPrefix bool
}

// WriteOptions control how a new object is written.
type WriteOptions struct {
	// ContentType is stored with the object. Empty lets the backend detect it.
	ContentType string
	// Public makes the object readable without credentials.
	Public bool
}

// SignedURLOptions are forwarded to the backend when signing a URL.
type SignedURLOptions struct {
	// Method is the HTTP verb the URL is valid for. Empty means GET.
	Method string
	// ContentType is the Content-Type header the requester must send, if any.
	ContentType string
	// Headers are extra "Key:Value" headers the requester must send.
	Headers []string
	// QueryParameters are signed into the URL.
	QueryParameters url.Values
}

// Client defines the necessary slice needed for interacting with storage.
type Client interface {
	Reader(ctx context.Context, bucket, object string) (io.ReadCloser, error)
	Exists(ctx context.Context, bucket, object string) (bool, error)
	Writer(ctx context.Context, bucket, object string, opts *WriteOptions) (io.WriteCloser, error)
	Delete(ctx context.Context, bucket, object string) error
	Attrs(ctx context.Context, bucket, object string) (*ObjectAttrs, error)
	SetPublic(ctx context.Context, bucket, object string, public bool) error
	Copy(ctx context.Context, bucket, src, dst string) error
	// List returns the objects whose names start with prefix. When recursive is false, objects
	// below the next "/" after prefix are collapsed into IsPrefix entries.
	List(ctx context.Context, bucket, prefix string, recursive bool) ([]*ObjectAttrs, error)
	SignedURL(ctx context.Context, bucket, object string, expires time.Time, opts *SignedURLOptions) (string, error)
	IsNotExists(err error) bool
	EnsureBucketExists(ctx context.Context, bucket string) error
	Wipeout(ctx context.Context, bucket string) error
}
