// Copyright (c) 2026 winacl contributors
// winacl - Windows ACL and registry security toolkit
// This source code is licensed under the MIT license found in the LICENSE file.

//go:build windows

package winsec

// DefaultBackend returns the live Windows backend.
func DefaultBackend() Backend {
	return NewWindowsBackend()
}
