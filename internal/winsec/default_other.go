// Copyright (c) 2026 winacl contributors
// winacl - Windows ACL and registry security toolkit
// This source code is licensed under the MIT license found in the LICENSE file.

//go:build !windows

package winsec

import "github.com/spf13/afero"

// DefaultBackend returns a dry-run style backend on platforms without
// native security descriptors: real filesystem for existence checks,
// in-memory descriptor table.
func DefaultBackend() Backend {
	return NewMemoryBackendFS(afero.NewOsFs())
}
