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

// Package main runs the gcsdisk CLI with the local and gcs drivers.
package main

import (
	"golang.org/x/net/context"
	"io"
	"os"

	"github.com/google/gcsdisk/cmd"
	"github.com/google/gcsdisk/disk"
	"github.com/google/gcsdisk/gcsdisk"
	"github.com/google/logger"
)

func run() error {
	defer logger.Init("gcsdisk", true, false, io.Discard).Close()
	reg := disk.NewRegistry()
	gcsdisk.Register(reg)
	app := cmd.MakeApp(context.Background(), &cmd.AppComponents{Registry: reg})
	err := app.Execute()
	if cerr := reg.Close(); cerr != nil {
		logger.Errorf("could not release disks: %v", cerr)
	}
	return err
}

func main() {
	if err := run(); err != nil {
		os.Exit(1)
	}
}
