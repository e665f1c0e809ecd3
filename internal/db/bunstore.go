// Copyright (c) 2026 winacl contributors
// winacl - Windows ACL and registry security toolkit
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"github.com/kburgoyne/winacl/internal/model"
)

// BaselineModel is the Bun mapping for the baselines table.
type BaselineModel struct {
	bun.BaseModel `bun:"table:baselines"`
	ID            int       `bun:"id,pk,autoincrement"`
	Path          string    `bun:"path"`
	ObjectType    string    `bun:"object_type"`
	Descriptor    string    `bun:"descriptor"`
	CapturedAt    time.Time `bun:"captured_at"`
}

// AuditLogModel is the Bun mapping for the audit_log table.
type AuditLogModel struct {
	bun.BaseModel `bun:"table:audit_log"`
	ID            int    `bun:"id,pk,autoincrement"`
	Timestamp     string `bun:"timestamp"`
	Action        string `bun:"action"`
	Details       string `bun:"details"`
}

// bunStore implements Store on top of a *bun.DB. The same implementation
// serves all three engines; dialect differences live in the migrations and
// in bun itself.
type bunStore struct {
	bun *bun.DB
}

func baselineModelToModel(m BaselineModel) model.Baseline {
	return model.Baseline{
		ID:         m.ID,
		Path:       m.Path,
		ObjectType: m.ObjectType,
		Descriptor: m.Descriptor,
		CapturedAt: m.CapturedAt,
	}
}

// SaveBaseline records a descriptor for path, replacing any previous
// baseline of the same path, and returns the new row id.
func (s *bunStore) SaveBaseline(path, objectType, descriptor string) (int, error) {
	ctx := context.Background()

	tx, err := s.bun.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.NewDelete().Model((*BaselineModel)(nil)).Where("path = ?", path).Exec(ctx); err != nil {
		return 0, fmt.Errorf("failed to replace baseline for %s: %w", path, err)
	}

	m := &BaselineModel{
		Path:       path,
		ObjectType: objectType,
		Descriptor: descriptor,
		CapturedAt: time.Now().UTC(),
	}
	if _, err := tx.NewInsert().Model(m).Exec(ctx); err != nil {
		return 0, MapDBError(err)
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return m.ID, nil
}

// GetBaseline returns the baseline for path, or nil when none is recorded.
func (s *bunStore) GetBaseline(path string) (*model.Baseline, error) {
	ctx := context.Background()

	var m BaselineModel
	err := s.bun.NewSelect().Model(&m).Where("path = ?", path).Limit(1).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	b := baselineModelToModel(m)
	return &b, nil
}

// GetAllBaselines returns every recorded baseline ordered by path.
func (s *bunStore) GetAllBaselines() ([]model.Baseline, error) {
	ctx := context.Background()

	var ms []BaselineModel
	if err := s.bun.NewSelect().Model(&ms).Order("path ASC").Scan(ctx); err != nil {
		return nil, err
	}
	out := make([]model.Baseline, 0, len(ms))
	for _, m := range ms {
		out = append(out, baselineModelToModel(m))
	}
	return out, nil
}

// DeleteBaseline removes the baseline with the given id.
func (s *bunStore) DeleteBaseline(id int) error {
	ctx := context.Background()
	res, err := s.bun.NewDelete().Model((*BaselineModel)(nil)).Where("id = ?", id).Exec(ctx)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("baseline %d not found", id)
	}
	return nil
}

// LogAction appends an entry to the audit log.
func (s *bunStore) LogAction(action string, details string) error {
	ctx := context.Background()
	m := &AuditLogModel{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Action:    action,
		Details:   details,
	}
	_, err := s.bun.NewInsert().Model(m).Exec(ctx)
	return err
}

// GetAllAuditLogEntries returns the audit log, newest first.
func (s *bunStore) GetAllAuditLogEntries() ([]model.AuditLogEntry, error) {
	ctx := context.Background()

	var ms []AuditLogModel
	if err := s.bun.NewSelect().Model(&ms).Order("id DESC").Scan(ctx); err != nil {
		return nil, err
	}
	out := make([]model.AuditLogEntry, 0, len(ms))
	for _, m := range ms {
		out = append(out, model.AuditLogEntry{
			ID:        m.ID,
			Timestamp: m.Timestamp,
			Action:    m.Action,
			Details:   m.Details,
		})
	}
	return out, nil
}

// Close releases the underlying database handle.
func (s *bunStore) Close() error {
	return s.bun.Close()
}
