// Copyright (c) 2026 winacl contributors
// winacl - Windows ACL and registry security toolkit
// This source code is licensed under the MIT license found in the LICENSE file.

// Package regkey wraps a native registry-key handle in a guard that closes
// it exactly once. The guard exists because registry handles are released
// from cleanup paths (defers, finalizer-like teardown during shutdown)
// where a double close or a panic would be worse than a leaked handle:
// Release never panics and reports failure only through its status value.
package regkey

import (
	"fmt"
	"sync/atomic"
)

// Handle is the raw native registry-key handle value. The zero value is the
// invalid sentinel: a guard holding it owns no resource.
type Handle uintptr

// InvalidHandle is the "no resource" sentinel.
const InvalidHandle Handle = 0

// ReleaseStatus is the typed result of releasing a handle. Code is the raw
// platform status code from the close call; zero means success. Keeping the
// code instead of collapsing to a bool lets callers decide whether a failed
// close is worth logging without losing the original error detail.
type ReleaseStatus struct {
	Code uint32
}

// OK reports whether the release succeeded (or was a no-op).
func (s ReleaseStatus) OK() bool { return s.Code == 0 }

// String renders the status for log output.
func (s ReleaseStatus) String() string {
	if s.OK() {
		return "ok"
	}
	return fmt.Sprintf("close failed (code %d)", s.Code)
}

// closeKeyFunc is the platform close primitive. It is a package variable so
// tests can substitute a recording or failing implementation; the real one
// lives in the per-OS files.
var closeKeyFunc = closeKey

// Key owns a native registry-key handle exclusively. Once Release begins,
// no other user of the handle may remain; the guard only protects against
// the close call itself running twice.
type Key struct {
	handle   Handle
	released atomic.Bool
}

// Wrap takes ownership of h. Wrapping InvalidHandle yields a guard whose
// Release is a successful no-op.
func Wrap(h Handle) *Key {
	return &Key{handle: h}
}

// Handle returns the raw handle value. Callers must not close it
// themselves; the guard owns it.
func (k *Key) Handle() Handle { return k.handle }

// Released reports whether Release has already run.
func (k *Key) Released() bool { return k.released.Load() }

// Release closes the underlying handle. The close primitive is invoked at
// most once even when Release is called from multiple cleanup paths
// concurrently; later calls return success without touching the handle.
// Failure is reported only through the returned status, never as a panic.
func (k *Key) Release() ReleaseStatus {
	if !k.released.CompareAndSwap(false, true) {
		return ReleaseStatus{}
	}
	if k.handle == InvalidHandle {
		return ReleaseStatus{}
	}
	return ReleaseStatus{Code: closeKeyFunc(k.handle)}
}
