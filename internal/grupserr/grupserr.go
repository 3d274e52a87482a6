// Copyright 2024 The grups-go Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package grupserr implements the tagged-sum error taxonomy used across
// grups-go: IoError, ParseError, SchemaError, SemanticError and
// ResourceError, each carrying a Location built from the call site that
// raised it. Errors compose as they're re-wrapped on their way up, so the
// final message reads as "path:line ContextA: ContextB: <cause>"; no column
// is recorded.
//
// The shape mirrors the E(args...)/Once composition idiom used throughout
// github.com/grailbio/base/errors (see e.g. encoding/fastq/downsample.go in
// the bio repo), but defines its own fixed Kind enum since the upstream
// package's Kind values don't cover this domain.
package grupserr

import (
	"fmt"
	"runtime"
	"strings"
)

// Kind classifies an error for programmatic handling.
type Kind int

const (
	Other Kind = iota
	IoError
	ParseError
	SchemaError
	SemanticError
	ResourceError
)

func (k Kind) String() string {
	switch k {
	case IoError:
		return "IoError"
	case ParseError:
		return "ParseError"
	case SchemaError:
		return "SchemaError"
	case SemanticError:
		return "SemanticError"
	case ResourceError:
		return "ResourceError"
	default:
		return "Error"
	}
}

// Location is the file:line of the call site that constructed or re-wrapped
// an Error.
type Location string

func here(skip int) Location {
	_, file, line, ok := runtime.Caller(skip + 1)
	if !ok {
		return ""
	}
	return Location(fmt.Sprintf("%s:%d", file, line))
}

// Error is the tagged-sum error type. Context is the list of human-readable
// strings accumulated as the error was re-wrapped; Cause is the innermost
// error (possibly another *Error, possibly a plain error from the standard
// library or a third-party package).
type Error struct {
	Kind     Kind
	Loc      Location
	Context  []string
	Cause    error
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Loc != "" {
		b.WriteString(string(e.Loc))
		b.WriteString(" ")
	}
	for _, c := range e.Context {
		b.WriteString(c)
		b.WriteString(": ")
	}
	if e.Cause != nil {
		b.WriteString(e.Cause.Error())
	} else {
		b.WriteString(e.Kind.String())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Cause }

// Is reports whether err is a *Error of the given Kind, looking through any
// wrapping.
func Is(kind Kind, err error) bool {
	for err != nil {
		if e, ok := err.(*Error); ok {
			if e.Kind == kind {
				return true
			}
			err = e.Cause
			continue
		}
		return false
	}
	return false
}

// E constructs or re-wraps an error. args may contain:
//   - a Kind, to set/override the error's kind (defaults to the wrapped
//     error's kind, or Other if there is none)
//   - a string, appended to Context
//   - an error, set as Cause (wrapping it if it is itself a *Error)
func E(args ...interface{}) error {
	e := &Error{Loc: here(1)}
	for _, a := range args {
		switch v := a.(type) {
		case Kind:
			e.Kind = v
		case string:
			e.Context = append(e.Context, v)
		case error:
			if e.Cause != nil {
				// Multiple errors passed; keep the first, note the rest as context.
				e.Context = append(e.Context, v.Error())
				continue
			}
			e.Cause = v
			if inner, ok := v.(*Error); ok && e.Kind == Other {
				e.Kind = inner.Kind
			}
		default:
			e.Context = append(e.Context, fmt.Sprint(v))
		}
	}
	return e
}

// Once accumulates the first error set on it and ignores the rest, mirroring
// github.com/grailbio/base/errors.Once's role in fan-out/fan-in error
// handling (see pileup.processShard-style worker loops).
type Once struct {
	err error
}

// Set records err as the accumulated error if none has been recorded yet.
func (o *Once) Set(err error) {
	if err != nil && o.err == nil {
		o.err = err
	}
}

// Err returns the first error recorded, or nil.
func (o *Once) Err() error { return o.err }
