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
	"flag"
	"fmt"
	"time"

	"github.com/google/gcsdisk/config"
	"github.com/spf13/cobra"
)

var (
	// ErrTimeAlreadySet is returned from a timeFlag parsing if the value has already been set.
	ErrTimeAlreadySet = errors.New("time flag has already been set")
)

// MustBeNonempty returns an error if the flag's value is empty.
func MustBeNonempty(name string, v *string) error {
	if v == nil || *v == "" {
		return fmt.Errorf("--%s must be nonempty", name)
	}
	return nil
}

func addRecursiveFlag(cmd *cobra.Command, f *bool) {
	cmd.PersistentFlags().BoolVar(f, "recursive", false,
		"If true, includes files in all subdirectories.")
}

type timeFlag struct {
	name string
	t    *time.Time
}

func (t *timeFlag) String() string {
	if t.t == nil || t.t.IsZero() {
		return ""
	}
	return (*t.t).Format(time.RFC3339)
}

func (t *timeFlag) Set(value string) error {
	if t.t == nil {
		return errors.New("time flag value destination cannot be nil")
	}
	if !(*t.t).IsZero() {
		return ErrTimeAlreadySet
	}
	if value != "" {
		v, err := time.Parse(time.RFC3339, value)
		if err != nil {
			return fmt.Errorf("--%s must be in RFC3339 format, got %q", t.name, value)
		}
		*t.t = v
	}
	return nil
}

func timeVar(v *time.Time, name, usage string) *flag.Flag {
	return &flag.Flag{
		Name:     name,
		Value:    &timeFlag{name: name, t: v},
		Usage:    usage,
		DefValue: "",
	}
}

// visibilityFlag accepts only the two visibility spellings, unlike disk configuration which
// quietly treats anything unknown as private.
type visibilityFlag struct {
	v *config.Visibility
}

func (f *visibilityFlag) String() string {
	if f.v == nil {
		return ""
	}
	return string(*f.v)
}

func (f *visibilityFlag) Set(value string) error {
	switch config.Visibility(value) {
	case config.Public, config.Private, "":
		*f.v = config.Visibility(value)
		return nil
	}
	return fmt.Errorf("visibility must be %q or %q, got %q", config.Public, config.Private, value)
}

func visibilityVar(v *config.Visibility, name, usage string) *flag.Flag {
	return &flag.Flag{
		Name:     name,
		Value:    &visibilityFlag{v: v},
		Usage:    usage,
		DefValue: "",
	}
}
