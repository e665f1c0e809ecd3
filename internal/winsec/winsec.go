// Copyright (c) 2026 winacl contributors
// winacl - Windows ACL and registry security toolkit
// This source code is licensed under the MIT license found in the LICENSE file.

// Package winsec reads and writes security descriptors on filesystem and
// registry objects. The operations are free functions over an explicit
// Backend so the same validation and semantics run against the live Windows
// security APIs, the in-memory backend used by tests and --dry-run, or any
// future target.
//
// All operations are single synchronous calls plus validation; nothing is
// retried or batched.
package winsec

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/kburgoyne/winacl/internal/model"
)

// ObjectType selects the kind of securable object a path refers to.
type ObjectType int

const (
	FileObject ObjectType = iota
	RegistryObject
)

// String returns the textual form used on the CLI (`--object`).
func (o ObjectType) String() string {
	if o == RegistryObject {
		return "registry"
	}
	return "file"
}

// ParseObjectType parses the CLI form of an object type.
func ParseObjectType(s string) (ObjectType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "file", "dir", "directory":
		return FileObject, nil
	case "registry", "regkey", "key":
		return RegistryObject, nil
	}
	return FileObject, fmt.Errorf("unknown object type %q", s)
}

// hivePrefixes maps the usual registry hive abbreviations to the names the
// named-object security calls expect.
var hivePrefixes = map[string]string{
	"hklm":               "MACHINE",
	"hkey_local_machine": "MACHINE",
	"hkcu":               "CURRENT_USER",
	"hkey_current_user":  "CURRENT_USER",
	"hkcr":               "CLASSES_ROOT",
	"hkey_classes_root":  "CLASSES_ROOT",
	"hku":                "USERS",
	"hkey_users":         "USERS",
}

// canonicalRegistryPath rewrites HKLM\Software\... into the native
// MACHINE\Software\... form. Paths already in native form pass through.
func canonicalRegistryPath(path string) string {
	hive, rest, found := strings.Cut(path, `\`)
	mapped, ok := hivePrefixes[strings.ToLower(hive)]
	if !ok {
		return path
	}
	if !found || rest == "" {
		return mapped
	}
	return mapped + `\` + rest
}

// splitRegistryRoot splits a registry path into its canonical hive name and
// the subkey below it: `HKLM\Software\Vendor` yields
// ("MACHINE", `Software\Vendor`). The subkey is empty for a bare hive.
func splitRegistryRoot(path string) (hive, subKey string) {
	hive, subKey, _ = strings.Cut(canonicalRegistryPath(path), `\`)
	return hive, subKey
}

// Sections selects which parts of a security descriptor an operation reads
// or writes.
type Sections uint32

const (
	SectionOwner Sections = 1 << iota
	SectionGroup
	SectionAccess // the discretionary ACL
	SectionAudit  // the system ACL

	SectionAll = SectionOwner | SectionGroup | SectionAccess
)

// ParseSections parses a comma-separated section list ("owner,access").
// An empty string means all sections.
func ParseSections(s string) (Sections, error) {
	if strings.TrimSpace(s) == "" {
		return SectionAll, nil
	}
	var out Sections
	for _, part := range strings.Split(s, ",") {
		switch strings.ToLower(strings.TrimSpace(part)) {
		case "owner":
			out |= SectionOwner
		case "group":
			out |= SectionGroup
		case "access", "dacl":
			out |= SectionAccess
		case "audit", "sacl":
			out |= SectionAudit
		case "all":
			out |= SectionAll
		default:
			return 0, fmt.Errorf("unknown section %q", part)
		}
	}
	return out, nil
}

// FileMode is the creation disposition for CreateFile. The values mirror
// the classic create-mode enumeration so policy files and flags can use the
// familiar names.
type FileMode int

const (
	ModeCreateNew FileMode = iota + 1
	ModeCreate
	ModeOpen
	ModeOpenOrCreate
	ModeTruncate
	ModeAppend
)

// ParseFileMode parses the CLI form of a creation mode.
func ParseFileMode(s string) (FileMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "createnew", "create-new":
		return ModeCreateNew, nil
	case "", "create":
		return ModeCreate, nil
	case "open":
		return ModeOpen, nil
	case "openorcreate", "open-or-create":
		return ModeOpenOrCreate, nil
	case "truncate":
		return ModeTruncate, nil
	case "append":
		return ModeAppend, nil
	}
	return 0, fmt.Errorf("unknown file mode %q", s)
}

// FileShare controls what concurrent access other openers may request.
type FileShare int

const (
	ShareNone        FileShare = 0x00
	ShareRead        FileShare = 0x01
	ShareWrite       FileShare = 0x02
	ShareReadWrite   FileShare = ShareRead | ShareWrite
	ShareDelete      FileShare = 0x04
	ShareInheritable FileShare = 0x10
)

// FileOptions carries additional native open flags. Only a few are
// surfaced; the rest of the FILE_FLAG space passes through untouched.
type FileOptions uint32

const (
	OptionsNone           FileOptions = 0
	OptionsDeleteOnClose  FileOptions = 0x04000000
	OptionsSequentialScan FileOptions = 0x08000000
	OptionsWriteThrough   FileOptions = 0x80000000
)

// CreateFileParams bundles the open parameters for CreateFile. BufferSize
// is the I/O buffer hint handed to the backend; it takes no part in
// security handling but is validated like the rest.
type CreateFileParams struct {
	Mode       FileMode
	Rights     model.FileRights
	Share      FileShare
	BufferSize int
	Options    FileOptions
}

// Backend performs the actual platform calls. Implementations do not
// validate arguments; the facade functions in this file do that before any
// backend method runs.
type Backend interface {
	// ObjectSecurity reads the requested sections of path's descriptor.
	ObjectSecurity(path string, objType ObjectType, sections Sections) (*model.SecurityDescriptor, error)
	// SetObjectSecurity applies the given sections of sd to an existing object.
	SetObjectSecurity(path string, objType ObjectType, sd *model.SecurityDescriptor, sections Sections) error
	// CreateFile creates or opens path according to params, applying sd
	// only when the call actually creates the file. The bool result
	// reports whether a new file came into existence.
	CreateFile(path string, params CreateFileParams, sd *model.SecurityDescriptor) (fs.FileInfo, bool, error)
	// CreateDirectory creates path (parent must exist) and applies sd.
	CreateDirectory(path string, sd *model.SecurityDescriptor) error
	// Stat reports on a filesystem path.
	Stat(path string) (fs.FileInfo, error)
}

// GetSecurity reads the security descriptor of an existing object.
func GetSecurity(b Backend, path string, objType ObjectType, sections Sections) (*model.SecurityDescriptor, error) {
	if path == "" {
		return nil, &ArgumentError{Param: "path"}
	}
	if sections == 0 {
		sections = SectionAll
	}
	return b.ObjectSecurity(path, objType, sections)
}

// SetSecurity applies a detached descriptor to an existing object. Only the
// sections actually populated in sd are written: rules always, owner and
// group when non-empty.
func SetSecurity(b Backend, path string, objType ObjectType, sd *model.SecurityDescriptor) error {
	if path == "" {
		return &ArgumentError{Param: "path"}
	}
	if sd == nil {
		return &ArgumentError{Param: "descriptor"}
	}
	sections := SectionAccess
	if sd.Owner != "" {
		sections |= SectionOwner
	}
	if sd.Group != "" {
		sections |= SectionGroup
	}
	return b.SetObjectSecurity(path, objType, sd, sections)
}

// modeImpliesWrite lists the creation modes that cannot be combined with a
// read-only rights mask: each either writes file content or creates it.
func modeImpliesWrite(m FileMode) bool {
	switch m {
	case ModeTruncate, ModeCreateNew, ModeCreate, ModeAppend:
		return true
	}
	return false
}

// CreateFile creates (or opens, depending on params.Mode) a file with sd as
// its initial security descriptor. The descriptor only lands on files the
// call itself creates; opening an existing file leaves its security alone.
func CreateFile(b Backend, path string, params CreateFileParams, sd *model.SecurityDescriptor) (fs.FileInfo, error) {
	if path == "" {
		return nil, &ArgumentError{Param: "path"}
	}
	if sd == nil {
		return nil, &ArgumentError{Param: "descriptor"}
	}
	if params.Mode < ModeCreateNew || params.Mode > ModeAppend {
		return nil, &RangeError{Param: "mode", Value: int(params.Mode)}
	}
	if params.Share < ShareNone || params.Share > ShareReadWrite|ShareDelete|ShareInheritable {
		return nil, &RangeError{Param: "share", Value: int(params.Share)}
	}
	if params.BufferSize <= 0 {
		return nil, &RangeError{Param: "bufferSize", Value: params.BufferSize}
	}
	if modeImpliesWrite(params.Mode) && (params.Rights == model.Read || params.Rights == model.ReadData) {
		return nil, &ArgumentError{
			Param:  "rights",
			Reason: fmt.Sprintf("mode %d implies write access but rights %q grant none", params.Mode, model.FormatRights(params.Rights)),
		}
	}
	if parent := filepath.Dir(path); parent != "" && parent != "." {
		if _, err := b.Stat(parent); err != nil {
			return nil, fmt.Errorf("parent directory %s: %w", parent, os.ErrNotExist)
		}
	}
	info, _, err := b.CreateFile(path, params, sd)
	return info, err
}

// CreateDirectory creates a directory with sd as its initial security
// descriptor and returns the descriptor the directory actually carries.
//
// When the directory already exists the supplied descriptor is silently
// ignored and the pre-existing one is preserved and returned. That matches
// the underlying platform behavior (directory creation reports
// ERROR_ALREADY_EXISTS and never rewrites the existing DACL) and is kept as
// a compatibility quirk; callers that want to replace the descriptor of an
// existing directory must call SetSecurity explicitly.
func CreateDirectory(b Backend, path string, sd *model.SecurityDescriptor) (*model.SecurityDescriptor, error) {
	if path == "" {
		return nil, &ArgumentError{Param: "path"}
	}
	if sd == nil {
		return nil, &ArgumentError{Param: "descriptor"}
	}
	if info, err := b.Stat(path); err == nil {
		// Only an existing directory triggers the preserve-and-return
		// behavior; a file occupying the path is a hard conflict.
		if !info.IsDir() {
			return nil, fmt.Errorf("create %s: a file occupies that path: %w", path, os.ErrExist)
		}
		return b.ObjectSecurity(path, FileObject, SectionAll)
	}
	if parent := filepath.Dir(path); parent != "" && parent != "." {
		if _, err := b.Stat(parent); err != nil {
			// Directory creation under a missing parent surfaces as an
			// access problem, matching the platform error rather than a
			// plain not-found.
			return nil, fmt.Errorf("create %s: parent directory missing: %w", path, os.ErrPermission)
		}
	}
	if err := b.CreateDirectory(path, sd); err != nil {
		return nil, err
	}
	return b.ObjectSecurity(path, FileObject, SectionAll)
}

// IsNotExist reports whether err denotes a missing object or parent.
func IsNotExist(err error) bool {
	return errors.Is(err, os.ErrNotExist) || errors.Is(err, fs.ErrNotExist)
}
