// Copyright (c) 2026 winacl contributors
// winacl - Windows ACL and registry security toolkit
// This source code is licensed under the MIT license found in the LICENSE file.

// Package cli implements the winacl command-line interface using Cobra.
// It wires configuration, localization and the database layer, then exposes
// subcommands for reading, writing and auditing object security.
package cli
