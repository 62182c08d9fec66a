// Copyright 2024 The Driftwood Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package base

import (
	"fmt"
	"log"
	"os"
)

// Logger defines an interface for writing log messages.
type Logger interface {
	Infof(format string, args ...interface{})
	Fatalf(format string, args ...interface{})
}

// DefaultLogger writes to stderr with microsecond timestamps. It does not
// share configuration with the process-global stdlib logger.
var DefaultLogger Logger = &stderrLogger{
	l: log.New(os.Stderr, "", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
}

type stderrLogger struct {
	l *log.Logger
}

// Infof implements the Logger.Infof interface.
func (s *stderrLogger) Infof(format string, args ...interface{}) {
	_ = s.l.Output(2, fmt.Sprintf(format, args...))
}

// Fatalf implements the Logger.Fatalf interface.
func (s *stderrLogger) Fatalf(format string, args ...interface{}) {
	_ = s.l.Output(2, fmt.Sprintf(format, args...))
	os.Exit(1)
}

// NoopLogger discards all log messages.
var NoopLogger noopLogger

type noopLogger struct{}

var _ Logger = NoopLogger

func (noopLogger) Infof(format string, args ...interface{}) {}

func (noopLogger) Fatalf(format string, args ...interface{}) {
	panic(fmt.Errorf(format, args...))
}
