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

// Package output provides helper functions for printing messages from the CLI and its libraries
// according to the output options carried in a context.
package output

import (
	"errors"
	"fmt"
	"golang.org/x/net/context"
	"io"
	"os"

	"github.com/google/logger"
	"github.com/spf13/cobra"
)

var (
	// ErrNoContext is returned when FromContext cannot find an output.Options in the context.
	ErrNoContext = errors.New("no output context found")

	stdoutTty  *typeWriter
	failingTty *typeWriter
	discardTty = &typeWriter{w: discard{}}
)

const (
	warningPrefix = "WARNING: "
	errorPrefix   = "ERROR: "
	debugPrefix   = "DEBUG: "
)

// Options control where and how much the CLI prints.
type Options struct {
	// Quiet prints nothing but command results.
	Quiet bool
	// Verbose additionally prints debug messages.
	Verbose bool
	// UseLogs sends messages to the logger instead of stdout.
	UseLogs bool
	// Overwrite allows writes to replace existing files.
	Overwrite bool
	// KeepGoing continues a multi-file operation after a failure.
	KeepGoing bool
	// Out receives messages and results instead of stdout when non-nil.
	Out io.Writer
	// Err receives debug messages when non-nil and not Verbose.
	Err io.Writer
}

// AddFlags registers the output flags on cmd.
func (opts *Options) AddFlags(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()
	flags.BoolVar(&opts.Quiet, "quiet", false, "Print nothing but command results")
	flags.BoolVar(&opts.Verbose, "verbose", false, "Print additional info to stdout")
	flags.BoolVar(&opts.UseLogs, "use_logs", false,
		"Print messages to log instead of stdout/stderr")
	flags.BoolVar(&opts.Overwrite, "overwrite", false,
		"Allow write operations to replace existing files.")
	flags.BoolVar(&opts.KeepGoing, "keep_going", false,
		"If a command operates on several files and one fails, keep going with the rest.")
}

// Validate returns an error for contradictory options.
func (opts *Options) Validate(cmd *cobra.Command) error {
	if opts.Quiet && opts.Verbose {
		return fmt.Errorf("cannot specify both --quiet and --verbose")
	}
	cmd.SilenceUsage = true
	return nil
}

type outputKeyType struct{}

var outputKey outputKeyType

// NewContext returns ctx extended with opts.
func NewContext(ctx context.Context, opts *Options) context.Context {
	return context.WithValue(ctx, outputKey, opts)
}

// FromContext returns the Options in ctx, or ErrNoContext.
func FromContext(ctx context.Context) (*Options, error) {
	opts, ok := ctx.Value(outputKey).(*Options)
	if !ok {
		return nil, ErrNoContext
	}
	return opts, nil
}

type typeWriter struct {
	w     io.Writer
	istty bool
}

type statWriter interface {
	Write(p []byte) (n int, err error)
	Stat() (os.FileInfo, error)
}

func isTty(w statWriter) bool {
	s, err := w.Stat()
	return err == nil && s != nil && (s.Mode()&os.ModeCharDevice) == os.ModeCharDevice
}

func init() {
	stdoutTty = &typeWriter{w: os.Stdout, istty: isTty(os.Stdout)}
	failingTty = &typeWriter{w: failingWriter{ErrNoContext}}
}

// failingWriter reports err for every write, so printing without options is visible to callers
// that check the result.
type failingWriter struct {
	err error
}

func (f failingWriter) Write([]byte) (int, error) { return 0, f.err }

// discard reports zero bytes written so callers can tell a message was suppressed.
type discard struct{}

func (discard) Write([]byte) (int, error) { return 0, nil }

type level int

const (
	levelInfo level = iota
	levelDebug
)

// sink returns the writer for a message of the given level, or nil if messages go to the logger.
func sink(ctx context.Context, l level) *typeWriter {
	opts, err := FromContext(ctx)
	if err != nil {
		return failingTty
	}
	if opts.UseLogs {
		return nil
	}
	switch {
	case opts.Quiet:
		return discardTty
	case l == levelDebug && opts.Verbose:
		return stdoutTty
	case l == levelDebug && opts.Err != nil:
		return &typeWriter{w: opts.Err}
	case l == levelDebug:
		return discardTty
	case opts.Out != nil:
		return &typeWriter{w: opts.Out}
	}
	return stdoutTty
}

// Writer returns the destination for command results, such as downloaded file contents. Results
// are written even in quiet mode.
func Writer(ctx context.Context) io.Writer {
	if opts, err := FromContext(ctx); err == nil && opts.Out != nil {
		return opts.Out
	}
	return os.Stdout
}

type ansiColor int

const (
	red    ansiColor = 31
	yellow ansiColor = 33
)

func prefix(w *typeWriter, color ansiColor, txt string) string {
	if w.istty {
		return fmt.Sprintf("\033[1;%dm%s\033[0m", color, txt)
	}
	return txt
}

// Infof prints a message, or logs it at info level.
func Infof(ctx context.Context, format string, args ...any) (int, error) {
	if cw := sink(ctx, levelInfo); cw != nil {
		return fmt.Fprintf(cw.w, format+"\n", args...)
	}
	logger.Infof(format, args...)
	return 1, nil
}

// AllowOverwrite reports whether --overwrite was given.
func AllowOverwrite(ctx context.Context) bool {
	o, _ := FromContext(ctx)
	return o != nil && o.Overwrite
}

// AllowRecoverableError reports whether --keep_going was given.
func AllowRecoverableError(ctx context.Context) bool {
	o, _ := FromContext(ctx)
	return o != nil && o.KeepGoing
}

// Warningf prints a message with a warning prefix, or logs it at warning level.
func Warningf(ctx context.Context, format string, args ...any) (int, error) {
	if cw := sink(ctx, levelInfo); cw != nil {
		return fmt.Fprintf(cw.w, prefix(cw, yellow, warningPrefix)+format+"\n", args...)
	}
	logger.Warningf(format, args...)
	return 1, nil
}

// Errorf prints a message with an error prefix, or logs it at error level.
func Errorf(ctx context.Context, format string, args ...any) (int, error) {
	if cw := sink(ctx, levelInfo); cw != nil {
		return fmt.Fprintf(cw.w, prefix(cw, red, errorPrefix)+format+"\n", args...)
	}
	logger.Errorf(format, args...)
	return 1, nil
}

type onRender struct{ wasRendered bool }

func (o *onRender) String() string {
	o.wasRendered = true
	return ""
}

// Debugf prints a message with a debug prefix in verbose mode, or logs it at verbosity 1.
func Debugf(ctx context.Context, format string, args ...any) (int, error) {
	if cw := sink(ctx, levelDebug); cw != nil {
		return fmt.Fprintf(cw.w, debugPrefix+format+"\n", args...)
	}
	// The logger drops the message below verbosity 1 without formatting it, so a rendered marker
	// tells whether it was printed.
	var w onRender
	logger.V(1).Infof(format+"%v", append(args, &w)...)
	if w.wasRendered {
		return 1, nil
	}
	return 0, nil
}
