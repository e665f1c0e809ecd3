// Copyright (c) 2026 winacl contributors
// winacl - Windows ACL and registry security toolkit
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"github.com/kburgoyne/winacl/internal/model"
)

// Store is the persistence interface for winacl: captured security
// baselines plus the audit log of mutating operations. Keeping it an
// interface lets the CLI run against any of the supported engines and lets
// tests substitute fakes.
type Store interface {
	// Baseline methods
	SaveBaseline(path, objectType, descriptor string) (int, error)
	GetBaseline(path string) (*model.Baseline, error)
	GetAllBaselines() ([]model.Baseline, error)
	DeleteBaseline(id int) error

	// Audit log methods
	LogAction(action string, details string) error
	GetAllAuditLogEntries() ([]model.AuditLogEntry, error)

	Close() error
}
