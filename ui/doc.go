// Copyright (c) 2026 winacl contributors
// winacl - Windows ACL and registry security toolkit
// This source code is licensed under the MIT license found in the LICENSE file.

// Package ui contains the top-level UI wiring for winacl.
//
// This package groups the user-facing surfaces of the application; the
// command-line interface lives in the cli subpackage.
package ui
