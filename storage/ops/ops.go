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

// Package ops provides whole-object operations on a storagei.Client.
package ops

import (
	"fmt"
	"golang.org/x/net/context"
	"io"

	"github.com/google/gcsdisk/storage/storagei"
)

// Upload streams r into object `name` in `bucket`, creating or replacing it. The object only
// becomes visible once the writer closes without error.
func Upload(ctx context.Context, s storagei.Client, bucket, name string, r io.Reader, opts *storagei.WriteOptions) error {
	w, err := s.Writer(ctx, bucket, name, opts)
	if err != nil {
		return err
	}
	if _, err := io.Copy(w, r); err != nil {
		// Closing after a failed copy commits a partial object on some backends, so report the copy
		// error first.
		if cerr := w.Close(); cerr != nil {
			return fmt.Errorf("could not write file %q: %v (close: %w)", name, err, cerr)
		}
		return fmt.Errorf("could not write file %q: %w", name, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("could not close file %q: %w", name, err)
	}
	return nil
}

// WriteFile writes (over) contents of object `name` in `bucket` with `contents`. Creates the file
// if it doesn't already exist.
func WriteFile(ctx context.Context, s storagei.Client, bucket, name string, contents []byte, opts *storagei.WriteOptions) error {
	w, err := s.Writer(ctx, bucket, name, opts)
	if err != nil {
		return err
	}
	closer := func() error {
		if err := w.Close(); err != nil {
			return fmt.Errorf("could not close file %q: %w", name, err)
		}
		return nil
	}
	n, err := w.Write(contents)
	if err == nil && n != len(contents) {
		err = io.ErrShortWrite
	}
	if err != nil {
		if err := closer(); err != nil {
			return err
		}
		return fmt.Errorf("could not write file %q: %w", name, err)
	}
	return closer()
}

// ReadFile returns the object's contents. A missing object is reported with an error for which
// s.IsNotExists still holds.
func ReadFile(ctx context.Context, s storagei.Client, bucket, name string) ([]byte, error) {
	reader, err := s.Reader(ctx, bucket, name)
	if err != nil {
		return nil, err
	}
	defer reader.Close()
	return io.ReadAll(reader)
}
