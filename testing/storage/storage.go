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

// Package storage provides a mock storagei.Client implementation
package storage

import (
	"bytes"
	"fmt"
	"golang.org/x/net/context"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/gcsdisk/storage/storagei"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// ReaderResponse is the reader or error that Reader returns for a specific object.
type ReaderResponse struct {
	ReaderMaker func() io.ReadCloser
	Err         error
}

// WriterResponse is the writer or error that Writer returns for a specific object. A Writer that
// is not an *ObjectWriter is returned as is.
type WriterResponse struct {
	Writer io.WriteCloser
	Err    error
}

// EnsureBucketExistsResponse is the result of EnsureBucketExists for a given bucket.
type EnsureBucketExistsResponse struct {
	Err error
}

// SignedURLResponse is the result of every SignedURL call.
type SignedURLResponse struct {
	URL string
	Err error
}

// SignedURLCall records the arguments of one SignedURL call.
type SignedURLCall struct {
	Bucket  string
	Object  string
	Expires time.Time
	Opts    *storagei.SignedURLOptions
}

// Responses is a representation of the Reader and Writer responses at an object granularity.
type Responses struct {
	// If there is content, then it's stored here in Cell.
	Cell      *FakeObject
	ReadResp  *ReaderResponse
	WriteResp *WriterResponse
}

// Mock implements the storagei.Client interface to mock object contents. It is not safe for
// concurrent use.
type Mock struct {
	BucketObjects   map[string]map[string]*Responses
	EnsureResponses map[string]*EnsureBucketExistsResponse
	// SignResp is returned from SignedURL. Nil signs a fake URL that names the bucket, object and
	// expiration.
	SignResp *SignedURLResponse
	// SignedURLCalls holds the arguments of every SignedURL call in order.
	SignedURLCalls []*SignedURLCall
	// Now is the modification time given to written objects.
	Now time.Time
	// Return this error from all operations for simple error specification.
	err error
}

var _ storagei.Client = (*Mock)(nil)

type nopCloser struct {
	io.Reader
}

func (n *nopCloser) Close() error { return nil }

// FakeObject is a cell that can be used by readers and writers alike to manipulate an object's
// contents.
type FakeObject struct {
	Data        []byte
	ContentType string
	Public      bool
	Updated     time.Time
}

// ObjectWriter is an io.Writer that overwrites/creates a FakeObject with Content, or returns an
// error on Close().
type ObjectWriter struct {
	M *Mock

	Bucket   string
	Object   string
	Opts     storagei.WriteOptions
	Content  []byte
	WriteErr error
	CloseErr error
}

// ObjectReader is an io.Reader that reads a FakeObject or errors, and returns an error on Close().
type ObjectReader struct {
	ReadErr  error
	CloseErr error
}

func (r *ObjectReader) Read(b []byte) (int, error) {
	return 0, r.ReadErr
}

// Close returns the canned CloseErr.
func (r *ObjectReader) Close() error { return r.CloseErr }

// Write updates the Writer with b as additional content to be appended, or returns a canned error.
func (w *ObjectWriter) Write(b []byte) (int, error) {
	if w.WriteErr != nil {
		return 0, w.WriteErr
	}
	w.Content = append(w.Content, b...)
	return len(b), nil
}

// Close commits Writer changes back to the Storage representation, or returns a canned error.
func (w *ObjectWriter) Close() error {
	if w.CloseErr != nil {
		return w.CloseErr
	}
	w.M.put(w.Bucket, w.Object, &FakeObject{
		Data:        w.Content,
		ContentType: w.Opts.ContentType,
		Public:      w.Opts.Public,
		Updated:     w.M.Now,
	})
	return nil
}

// put stores obj, keeping any canned write error of an existing object.
func (s *Mock) put(bucket, object string, obj *FakeObject) {
	if s.BucketObjects == nil {
		s.BucketObjects = make(map[string]map[string]*Responses)
	}
	objs, ok := s.BucketObjects[bucket]
	if !ok || objs == nil {
		objs = make(map[string]*Responses)
		s.BucketObjects[bucket] = objs
	}
	result := &Responses{Cell: obj, WriteResp: &WriterResponse{}}
	if old, ok := objs[object]; ok && old.WriteResp != nil {
		result.WriteResp.Err = old.WriteResp.Err
	}
	result.ReadResp = &ReaderResponse{ReaderMaker: mkReaderMaker(result.Cell)}
	objs[object] = result
}

func (s *Mock) object(bucket, object string) (*Responses, bool) {
	objs, ok := s.BucketObjects[bucket]
	if !ok {
		return nil, false
	}
	resps, ok := objs[object]
	return resps, ok
}

// cell returns the contents of an object, or os.ErrNotExist.
func (s *Mock) cell(bucket, object string) (*FakeObject, error) {
	if s.err != nil {
		return nil, s.err
	}
	resps, ok := s.object(bucket, object)
	if !ok || resps.Cell == nil {
		return nil, os.ErrNotExist
	}
	return resps.Cell, nil
}

// Reader returns a reader over the object's contents, or its canned read error.
func (s *Mock) Reader(ctx context.Context, bucket, object string) (io.ReadCloser, error) {
	if s.err != nil {
		return nil, s.err
	}
	if resps, ok := s.object(bucket, object); ok && resps.ReadResp != nil {
		if resps.ReadResp.Err != nil {
			return nil, resps.ReadResp.Err
		}
		return resps.ReadResp.ReaderMaker(), nil
	}
	return nil, os.ErrNotExist
}

// Exists reports whether the object can be read.
func (s *Mock) Exists(ctx context.Context, bucket, object string) (bool, error) {
	if _, err := s.Reader(ctx, bucket, object); err != nil {
		if s.IsNotExists(err) {
			err = nil
		}
		return false, err
	}
	return true, s.err
}

// Writer returns a writer that replaces the object on Close, or the object's canned write response.
func (s *Mock) Writer(ctx context.Context, bucket, object string, opts *storagei.WriteOptions) (io.WriteCloser, error) {
	if s.err != nil {
		return nil, s.err
	}
	w := &ObjectWriter{M: s, Bucket: bucket, Object: object}
	if opts != nil {
		w.Opts = *opts
	}
	if resps, ok := s.object(bucket, object); ok && resps.WriteResp != nil {
		if resps.WriteResp.Err != nil {
			return nil, resps.WriteResp.Err
		}
		switch canned := resps.WriteResp.Writer.(type) {
		case nil:
		case *ObjectWriter:
			w.WriteErr = canned.WriteErr
			w.CloseErr = canned.CloseErr
		default:
			return canned, nil
		}
	}
	return w, nil
}

// Delete removes the object.
func (s *Mock) Delete(ctx context.Context, bucket, object string) error {
	if _, err := s.cell(bucket, object); err != nil {
		return err
	}
	delete(s.BucketObjects[bucket], object)
	return nil
}

// Attrs returns the object's metadata.
func (s *Mock) Attrs(ctx context.Context, bucket, object string) (*storagei.ObjectAttrs, error) {
	cell, err := s.cell(bucket, object)
	if err != nil {
		return nil, err
	}
	return &storagei.ObjectAttrs{
		Name:        object,
		Size:        int64(len(cell.Data)),
		ContentType: cell.ContentType,
		Updated:     cell.Updated,
		Public:      cell.Public,
	}, nil
}

// SetPublic changes the object's visibility.
func (s *Mock) SetPublic(ctx context.Context, bucket, object string, public bool) error {
	cell, err := s.cell(bucket, object)
	if err != nil {
		return err
	}
	cell.Public = public
	return nil
}

// Copy duplicates src as dst within the bucket, keeping its content type and visibility.
func (s *Mock) Copy(ctx context.Context, bucket, src, dst string) error {
	cell, err := s.cell(bucket, src)
	if err != nil {
		return err
	}
	s.put(bucket, dst, &FakeObject{
		Data:        bytes.Clone(cell.Data),
		ContentType: cell.ContentType,
		Public:      cell.Public,
		Updated:     s.Now,
	})
	return nil
}

// List returns the objects in bucket whose names start with prefix, ordered by name.
func (s *Mock) List(ctx context.Context, bucket, prefix string, recursive bool) ([]*storagei.ObjectAttrs, error) {
	if s.err != nil {
		return nil, s.err
	}
	names := maps.Keys(s.BucketObjects[bucket])
	slices.Sort(names)
	var result []*storagei.ObjectAttrs
	seen := make(map[string]bool)
	for _, name := range names {
		if !strings.HasPrefix(name, prefix) {
			continue
		}
		if i := strings.Index(name[len(prefix):], "/"); !recursive && i >= 0 {
			dir := name[:len(prefix)+i+1]
			if !seen[dir] {
				seen[dir] = true
				result = append(result, &storagei.ObjectAttrs{Name: dir, IsPrefix: true})
			}
			continue
		}
		attrs, err := s.Attrs(ctx, bucket, name)
		if err != nil {
			return nil, err
		}
		result = append(result, attrs)
	}
	return result, nil
}

// SignedURL records the call and returns SignResp, or a fake URL.
func (s *Mock) SignedURL(ctx context.Context, bucket, object string, expires time.Time, opts *storagei.SignedURLOptions) (string, error) {
	s.SignedURLCalls = append(s.SignedURLCalls, &SignedURLCall{
		Bucket:  bucket,
		Object:  object,
		Expires: expires,
		Opts:    opts,
	})
	if s.err != nil {
		return "", s.err
	}
	if s.SignResp != nil {
		return s.SignResp.URL, s.SignResp.Err
	}
	return fmt.Sprintf("https://signed.test/%s/%s?expires=%d", bucket, object, expires.Unix()), nil
}

// IsNotExists returns whether an error returned from Mock represents the NotExists error.
func (s *Mock) IsNotExists(err error) bool {
	return os.IsNotExist(err)
}

// EnsureBucketExists returns the bucket's canned response, or nil.
func (s *Mock) EnsureBucketExists(ctx context.Context, bucket string) error {
	if s.err != nil {
		return s.err
	}
	result, ok := s.EnsureResponses[bucket]
	if !ok {
		return nil // Treat a lack of a result as no error
	}
	return result.Err
}

func mkReaderMaker(cell *FakeObject) func() io.ReadCloser {
	return func() io.ReadCloser { return &nopCloser{bytes.NewReader(cell.Data)} }
}

// WithInitialContents returns an initial Mock implementation with objects with the given contents
// all in the same bucket.
func WithInitialContents(initialContents map[string][]byte, bucket string) *Mock {
	m := &Mock{BucketObjects: map[string]map[string]*Responses{bucket: {}}}
	for k, v := range initialContents {
		m.put(bucket, k, &FakeObject{Data: v})
	}
	return m
}

// Clone returns a new Mock with all objects containing the same contents in new cells.
func (s *Mock) Clone() *Mock {
	result := &Mock{
		BucketObjects:   make(map[string]map[string]*Responses),
		EnsureResponses: make(map[string]*EnsureBucketExistsResponse),
		SignResp:        s.SignResp,
		Now:             s.Now,
		err:             s.err,
	}
	cloneResponse := func(resp *Responses) *Responses {
		clone := &Responses{}
		if resp.Cell != nil {
			cell := *resp.Cell
			cell.Data = bytes.Clone(resp.Cell.Data)
			clone.Cell = &cell
			clone.ReadResp = &ReaderResponse{ReaderMaker: mkReaderMaker(clone.Cell)}
		}
		if resp.ReadResp != nil && resp.ReadResp.Err != nil {
			clone.ReadResp = &ReaderResponse{Err: resp.ReadResp.Err}
		}
		if resp.WriteResp != nil {
			writeResp := *resp.WriteResp
			clone.WriteResp = &writeResp
		}
		return clone
	}
	for b, objs := range s.BucketObjects {
		robjs := make(map[string]*Responses)
		for objName, resp := range objs {
			robjs[objName] = cloneResponse(resp)
		}
		result.BucketObjects[b] = robjs
	}
	for b, resp := range s.EnsureResponses {
		ensureCopy := *resp
		result.EnsureResponses[b] = &ensureCopy
	}
	return result
}

// Wipeout deletes all objects under the given bucket.
func (s *Mock) Wipeout(ctx context.Context, bucket string) error {
	if _, ok := s.BucketObjects[bucket]; !ok {
		return os.ErrNotExist
	}
	s.BucketObjects[bucket] = nil
	return nil
}

// WithError returns an initial Mock implementation that always returns the given error.
func WithError(err error) *Mock {
	return &Mock{err: err}
}
