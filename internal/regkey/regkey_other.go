// Copyright (c) 2026 winacl contributors
// winacl - Windows ACL and registry security toolkit
// This source code is licensed under the MIT license found in the LICENSE file.

//go:build !windows

package regkey

// ERROR_CALL_NOT_IMPLEMENTED; there is no registry to close on this OS.
const errCallNotImplemented = 120

func closeKey(Handle) uint32 {
	return errCallNotImplemented
}
