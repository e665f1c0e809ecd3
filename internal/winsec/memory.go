// Copyright (c) 2026 winacl contributors
// winacl - Windows ACL and registry security toolkit
// This source code is licensed under the MIT license found in the LICENSE file.

package winsec

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/afero"

	"github.com/kburgoyne/winacl/internal/model"
)

// MemoryBackend keeps security descriptors in a map beside an afero
// filesystem. It backs the test suite and the CLI --dry-run mode, and is
// the default backend on platforms without native security descriptors.
type MemoryBackend struct {
	fs afero.Fs

	mu   sync.Mutex
	desc map[string]*model.SecurityDescriptor
}

// NewMemoryBackend returns a backend over a fresh in-memory filesystem.
func NewMemoryBackend() *MemoryBackend {
	return NewMemoryBackendFS(afero.NewMemMapFs())
}

// NewMemoryBackendFS returns a backend over the given filesystem. Passing
// afero.NewOsFs() gives dry-run semantics: real existence checks, purely
// in-memory descriptors.
func NewMemoryBackendFS(fsys afero.Fs) *MemoryBackend {
	return &MemoryBackend{fs: fsys, desc: map[string]*model.SecurityDescriptor{}}
}

// descKey normalizes a path into the descriptor-table key. Windows object
// names are case-insensitive, so the memory backend is too.
func descKey(path string, objType ObjectType) string {
	p := strings.ToLower(filepath.ToSlash(filepath.Clean(path)))
	if objType == RegistryObject {
		return "reg:" + p
	}
	return "fs:" + p
}

// SeedRegistryKey records a registry key (and optionally its descriptor) so
// later Get/Set operations find it. Registry objects have no filesystem
// presence, so dry runs and tests seed them explicitly.
func (m *MemoryBackend) SeedRegistryKey(path string, sd *model.SecurityDescriptor) {
	if sd == nil {
		sd = &model.SecurityDescriptor{}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.desc[descKey(path, RegistryObject)] = sd.Clone()
}

func (m *MemoryBackend) lookup(path string, objType ObjectType) (*model.SecurityDescriptor, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sd, ok := m.desc[descKey(path, objType)]
	return sd, ok
}

func (m *MemoryBackend) store(path string, objType ObjectType, sd *model.SecurityDescriptor) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.desc[descKey(path, objType)] = sd.Clone()
}

// ObjectSecurity returns the recorded descriptor filtered down to the
// requested sections. Files that exist without a recorded descriptor get an
// empty one, which is what a freshly created object without explicit rules
// looks like.
func (m *MemoryBackend) ObjectSecurity(path string, objType ObjectType, sections Sections) (*model.SecurityDescriptor, error) {
	sd, ok := m.lookup(path, objType)
	if !ok {
		if objType == RegistryObject {
			return nil, fmt.Errorf("registry key %s: %w", path, os.ErrNotExist)
		}
		if _, err := m.fs.Stat(path); err != nil {
			return nil, fmt.Errorf("object %s: %w", path, os.ErrNotExist)
		}
		sd = &model.SecurityDescriptor{}
	}
	out := sd.Clone()
	if sections&SectionOwner == 0 {
		out.Owner = ""
	}
	if sections&SectionGroup == 0 {
		out.Group = ""
	}
	if sections&SectionAccess == 0 {
		out.Rules = nil
	}
	return out, nil
}

// SetObjectSecurity merges the requested sections of sd into the stored
// descriptor for an existing object.
func (m *MemoryBackend) SetObjectSecurity(path string, objType ObjectType, sd *model.SecurityDescriptor, sections Sections) error {
	cur, ok := m.lookup(path, objType)
	if !ok {
		if objType == RegistryObject {
			return fmt.Errorf("registry key %s: %w", path, os.ErrNotExist)
		}
		if _, err := m.fs.Stat(path); err != nil {
			return fmt.Errorf("object %s: %w", path, os.ErrNotExist)
		}
		cur = &model.SecurityDescriptor{}
	}
	next := cur.Clone()
	if sections&SectionOwner != 0 {
		next.Owner = sd.Owner
	}
	if sections&SectionGroup != 0 {
		next.Group = sd.Group
	}
	if sections&SectionAccess != 0 {
		next.Rules = append([]model.AccessRule(nil), sd.Rules...)
	}
	m.store(path, objType, next)
	return nil
}

// CreateFile creates or opens path per the creation mode. The descriptor
// is recorded only when a new file comes into existence.
func (m *MemoryBackend) CreateFile(path string, params CreateFileParams, sd *model.SecurityDescriptor) (fs.FileInfo, bool, error) {
	exists, err := afero.Exists(m.fs, path)
	if err != nil {
		return nil, false, err
	}

	var flag int
	switch params.Mode {
	case ModeCreateNew:
		if exists {
			return nil, false, fmt.Errorf("create %s: %w", path, os.ErrExist)
		}
		flag = os.O_RDWR | os.O_CREATE | os.O_EXCL
	case ModeCreate:
		flag = os.O_RDWR | os.O_CREATE | os.O_TRUNC
	case ModeOpen:
		if !exists {
			return nil, false, fmt.Errorf("open %s: %w", path, os.ErrNotExist)
		}
		flag = os.O_RDWR
	case ModeOpenOrCreate:
		flag = os.O_RDWR | os.O_CREATE
	case ModeTruncate:
		if !exists {
			return nil, false, fmt.Errorf("truncate %s: %w", path, os.ErrNotExist)
		}
		flag = os.O_RDWR | os.O_TRUNC
	case ModeAppend:
		flag = os.O_WRONLY | os.O_CREATE | os.O_APPEND
	}

	f, err := m.fs.OpenFile(path, flag, 0o666)
	if err != nil {
		return nil, false, err
	}
	defer f.Close()

	created := !exists
	if created {
		m.store(path, FileObject, sd)
	}
	info, err := m.fs.Stat(path)
	if err != nil {
		return nil, created, err
	}
	return info, created, nil
}

// CreateDirectory creates path and records sd as its descriptor. The
// facade has already handled the already-exists and missing-parent cases.
func (m *MemoryBackend) CreateDirectory(path string, sd *model.SecurityDescriptor) error {
	if err := m.fs.Mkdir(path, 0o777); err != nil {
		return err
	}
	m.store(path, FileObject, sd)
	return nil
}

// Stat reports on a filesystem path.
func (m *MemoryBackend) Stat(path string) (fs.FileInfo, error) {
	return m.fs.Stat(path)
}
