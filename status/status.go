// Copyright 2024 The Driftwood Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

// Package status provides the result value used throughout the block I/O
// core. A Status pairs a coarse code with an optional subcode and message.
// Two statuses compare equal when their codes match; subcodes and messages
// are diagnostic detail only.
package status

import "github.com/cockroachdb/errors"

// Code is the coarse classification of a Status.
type Code int32

// The available codes. These values are part of the durable format of
// statuses persisted by higher layers and should not be changed.
const (
	CodeOk Code = iota
	CodeNotFound
	CodeCorruption
	CodeNotSupported
	CodeInvalidArgument
	CodeIOError
	CodeMergeInProgress
	CodeIncomplete
	CodeShutdownInProgress
	CodeTimedOut
	CodeAborted
	CodeBusy
	CodeExpired
	CodeTryAgain
	CodeIOPending
)

// SubCode refines a Code with a more specific cause.
type SubCode int32

// The available subcodes.
const (
	SubCodeNone SubCode = iota
	SubCodeMutexTimeout
	SubCodeLockTimeout
	SubCodeLockLimit
	SubCodeNoSpace
	SubCodeDeadlock
	SubCodeStaleFile
	SubCodeMemoryLimit
)

// Status is the result of an operation. The zero value is OK.
//
// A Status is safe for concurrent reads. The async bit records that the
// status was delivered on a completion goroutine rather than the goroutine
// that initiated the operation.
type Status struct {
	code    Code
	subCode SubCode
	msg     string
	async   bool
}

// OK returns a success status.
func OK() Status { return Status{} }

func mk(code Code, sub SubCode, msg []string) Status {
	s := Status{code: code, subCode: sub}
	switch len(msg) {
	case 0:
	case 1:
		s.msg = msg[0]
	default:
		s.msg = msg[0] + ": " + msg[1]
	}
	return s
}

// NotFound returns a status indicating that the requested entity does not
// exist. Within the read pipeline it is the non-error cache miss signal.
func NotFound(msg ...string) Status { return mk(CodeNotFound, SubCodeNone, msg) }

// Corruption returns a status indicating an on-disk format violation.
func Corruption(msg ...string) Status { return mk(CodeCorruption, SubCodeNone, msg) }

// NotSupported returns a status indicating an unimplemented operation.
func NotSupported(msg ...string) Status { return mk(CodeNotSupported, SubCodeNone, msg) }

// InvalidArgument returns a status indicating a caller error.
func InvalidArgument(msg ...string) Status { return mk(CodeInvalidArgument, SubCodeNone, msg) }

// IOError returns a status carrying a failure from the storage backend.
func IOError(msg ...string) Status { return mk(CodeIOError, SubCodeNone, msg) }

// MergeInProgress returns a status indicating an unfinished merge.
func MergeInProgress(msg ...string) Status { return mk(CodeMergeInProgress, SubCodeNone, msg) }

// Incomplete returns a status indicating a partially performed operation.
func Incomplete(msg ...string) Status { return mk(CodeIncomplete, SubCodeNone, msg) }

// ShutdownInProgress returns the status delivered to operations outstanding
// when their environment is closed.
func ShutdownInProgress(msg ...string) Status { return mk(CodeShutdownInProgress, SubCodeNone, msg) }

// TimedOut returns a status indicating that the operation exceeded a
// deadline imposed by the storage backend.
func TimedOut(msg ...string) Status { return mk(CodeTimedOut, SubCodeNone, msg) }

// Aborted returns a status indicating that the operation was abandoned.
func Aborted(msg ...string) Status { return mk(CodeAborted, SubCodeNone, msg) }

// Busy returns a status indicating that a resource is temporarily
// unavailable.
func Busy(msg ...string) Status { return mk(CodeBusy, SubCodeNone, msg) }

// Expired returns a status indicating that the operation outlived its TTL.
func Expired(msg ...string) Status { return mk(CodeExpired, SubCodeNone, msg) }

// TryAgain returns a status indicating a failure that may succeed on retry.
func TryAgain(msg ...string) Status { return mk(CodeTryAgain, SubCodeNone, msg) }

// IOPending returns the status used by asynchronous reads to signal that a
// continuation has been scheduled. It is internal to the pipeline and never
// delivered as a final result.
func IOPending(msg ...string) Status { return mk(CodeIOPending, SubCodeNone, msg) }

// NoSpace returns an IOError status with the NoSpace subcode.
func NoSpace(msg ...string) Status { return mk(CodeIOError, SubCodeNoSpace, msg) }

// MemoryLimit returns an Aborted status with the MemoryLimit subcode.
func MemoryLimit(msg ...string) Status { return mk(CodeAborted, SubCodeMemoryLimit, msg) }

// Code returns the status code.
func (s Status) Code() Code { return s.code }

// SubCode returns the status subcode.
func (s Status) SubCode() SubCode { return s.subCode }

// Message returns the status message, if any.
func (s Status) Message() string { return s.msg }

// Ok reports whether the status indicates success.
func (s Status) Ok() bool { return s.code == CodeOk }

// Is reports whether s and other carry the same code. Subcodes and messages
// are ignored; callers rely on expressions like s.Is(status.NotFound()).
func (s Status) Is(other Status) bool { return s.code == other.code }

// IsNotFound reports whether the status indicates a NotFound error.
func (s Status) IsNotFound() bool { return s.code == CodeNotFound }

// IsCorruption reports whether the status indicates a Corruption error.
func (s Status) IsCorruption() bool { return s.code == CodeCorruption }

// IsNotSupported reports whether the status indicates a NotSupported error.
func (s Status) IsNotSupported() bool { return s.code == CodeNotSupported }

// IsInvalidArgument reports whether the status indicates an InvalidArgument
// error.
func (s Status) IsInvalidArgument() bool { return s.code == CodeInvalidArgument }

// IsIOError reports whether the status indicates an IOError.
func (s Status) IsIOError() bool { return s.code == CodeIOError }

// IsIncomplete reports whether the status indicates Incomplete.
func (s Status) IsIncomplete() bool { return s.code == CodeIncomplete }

// IsShutdownInProgress reports whether the status indicates a shutdown.
func (s Status) IsShutdownInProgress() bool { return s.code == CodeShutdownInProgress }

// IsTimedOut reports whether the status indicates TimedOut.
func (s Status) IsTimedOut() bool { return s.code == CodeTimedOut }

// IsAborted reports whether the status indicates Aborted.
func (s Status) IsAborted() bool { return s.code == CodeAborted }

// IsBusy reports whether the status indicates Busy.
func (s Status) IsBusy() bool { return s.code == CodeBusy }

// IsExpired reports whether the status indicates Expired.
func (s Status) IsExpired() bool { return s.code == CodeExpired }

// IsTryAgain reports whether the status indicates TryAgain.
func (s Status) IsTryAgain() bool { return s.code == CodeTryAgain }

// IsIOPending reports whether the status indicates that an asynchronous
// continuation was scheduled.
func (s Status) IsIOPending() bool { return s.code == CodeIOPending }

// IsNoSpace reports whether the status is an IOError caused by exhausted
// storage.
func (s Status) IsNoSpace() bool {
	return s.code == CodeIOError && s.subCode == SubCodeNoSpace
}

// IsMemoryLimit reports whether the status is an Aborted caused by a memory
// budget.
func (s Status) IsMemoryLimit() bool {
	return s.code == CodeAborted && s.subCode == SubCodeMemoryLimit
}

// Async reports whether the status was produced on a completion goroutine.
func (s Status) Async() bool { return s.async }

// AsAsync returns a copy of the status with the async bit set.
func (s Status) AsAsync() Status {
	s.async = true
	return s
}

func (c Code) String() string {
	switch c {
	case CodeOk:
		return "OK"
	case CodeNotFound:
		return "NotFound"
	case CodeCorruption:
		return "Corruption"
	case CodeNotSupported:
		return "Not implemented"
	case CodeInvalidArgument:
		return "Invalid argument"
	case CodeIOError:
		return "IO error"
	case CodeMergeInProgress:
		return "Merge in progress"
	case CodeIncomplete:
		return "Result incomplete"
	case CodeShutdownInProgress:
		return "Shutdown in progress"
	case CodeTimedOut:
		return "Operation timed out"
	case CodeAborted:
		return "Operation aborted"
	case CodeBusy:
		return "Resource busy"
	case CodeExpired:
		return "Operation expired"
	case CodeTryAgain:
		return "Operation failed. Try again."
	case CodeIOPending:
		return "IO pending"
	default:
		return "Unknown code"
	}
}

func (c SubCode) String() string {
	switch c {
	case SubCodeNone:
		return ""
	case SubCodeMutexTimeout:
		return "Timeout Acquiring Mutex"
	case SubCodeLockTimeout:
		return "Timeout waiting to lock key"
	case SubCodeLockLimit:
		return "Failed to acquire lock due to max_num_locks limit"
	case SubCodeNoSpace:
		return "No space left on device"
	case SubCodeDeadlock:
		return "Deadlock"
	case SubCodeStaleFile:
		return "Stale file handle"
	case SubCodeMemoryLimit:
		return "Memory limit reached"
	default:
		return "Unknown subcode"
	}
}

// String renders the status for logs and error messages. An OK status
// renders as "OK".
func (s Status) String() string {
	if s.code == CodeOk {
		return "OK"
	}
	out := s.code.String()
	if s.subCode != SubCodeNone {
		out += ": " + s.subCode.String()
	}
	if s.msg != "" {
		out += ": " + s.msg
	}
	return out
}

// Err bridges the status into Go error handling at module edges. It returns
// nil for OK and an error rendering the status otherwise.
func (s Status) Err() error {
	if s.code == CodeOk {
		return nil
	}
	return errors.Newf("%s", s.String())
}

// FromErr converts a Go error into a status. A nil error maps to OK;
// anything else maps to IOError carrying the error text.
func FromErr(err error) Status {
	if err == nil {
		return OK()
	}
	return IOError(err.Error())
}
