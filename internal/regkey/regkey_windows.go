// Copyright (c) 2026 winacl contributors
// winacl - Windows ACL and registry security toolkit
// This source code is licensed under the MIT license found in the LICENSE file.

//go:build windows

package regkey

import (
	"syscall"

	"golang.org/x/sys/windows"
)

// Root handles for OpenKey. These are the predefined registry hives; they
// are valid without being opened and must never be passed to Release.
const (
	ClassesRoot  = Handle(windows.HKEY_CLASSES_ROOT)
	CurrentUser  = Handle(windows.HKEY_CURRENT_USER)
	LocalMachine = Handle(windows.HKEY_LOCAL_MACHINE)
	Users        = Handle(windows.HKEY_USERS)
)

// closeKey invokes RegCloseKey and returns the raw status code.
func closeKey(h Handle) uint32 {
	err := windows.RegCloseKey(windows.Handle(h))
	if err == nil {
		return 0
	}
	if errno, ok := err.(syscall.Errno); ok {
		return uint32(errno)
	}
	return uint32(windows.ERROR_GEN_FAILURE)
}

// OpenKey opens the named subkey under root with the requested access mask
// and returns a guard owning the resulting handle.
func OpenKey(root Handle, path string, access uint32) (*Key, error) {
	p, err := syscall.UTF16PtrFromString(path)
	if err != nil {
		return nil, err
	}
	var h windows.Handle
	if err := windows.RegOpenKeyEx(windows.Handle(root), p, 0, access, &h); err != nil {
		return nil, err
	}
	return Wrap(Handle(h)), nil
}
