// Copyright (c) 2026 winacl contributors
// winacl - Windows ACL and registry security toolkit
// This source code is licensed under the MIT license found in the LICENSE file.

package winsec

import (
	"errors"
	"os"
	"testing"

	"github.com/kburgoyne/winacl/internal/model"
)

func TestMemoryBackend_SectionFiltering(t *testing.T) {
	b := NewMemoryBackend()
	sd := &model.SecurityDescriptor{
		Owner: "BUILTIN\\Administrators",
		Group: "BUILTIN\\Users",
		Rules: []model.AccessRule{{Identity: "Everyone", Rights: model.Read, Type: model.Allow}},
	}
	mustCreateFile(t, b, "f.txt", validParams(), sd)

	onlyAccess, err := GetSecurity(b, "f.txt", FileObject, SectionAccess)
	if err != nil {
		t.Fatalf("GetSecurity: %v", err)
	}
	if onlyAccess.Owner != "" || onlyAccess.Group != "" {
		t.Fatalf("access-only read leaked owner/group: %+v", onlyAccess)
	}
	if len(onlyAccess.Rules) != 1 {
		t.Fatalf("access-only read lost rules: %+v", onlyAccess)
	}

	onlyOwner, err := GetSecurity(b, "f.txt", FileObject, SectionOwner)
	if err != nil {
		t.Fatalf("GetSecurity: %v", err)
	}
	if onlyOwner.Owner != sd.Owner || onlyOwner.Rules != nil {
		t.Fatalf("owner-only read wrong: %+v", onlyOwner)
	}
}

func TestMemoryBackend_SetMergesSections(t *testing.T) {
	b := NewMemoryBackend()
	mustCreateFile(t, b, "f.txt", validParams(), &model.SecurityDescriptor{
		Owner: "BUILTIN\\Administrators",
		Rules: []model.AccessRule{{Identity: "Everyone", Rights: model.Read, Type: model.Allow}},
	})

	// A descriptor with rules but no owner rewrites only the DACL.
	newRules := []model.AccessRule{{Identity: "BUILTIN\\Users", Rights: model.Modify, Type: model.Allow}}
	if err := SetSecurity(b, "f.txt", FileObject, &model.SecurityDescriptor{Rules: newRules}); err != nil {
		t.Fatalf("SetSecurity: %v", err)
	}
	got, err := GetSecurity(b, "f.txt", FileObject, SectionAll)
	if err != nil {
		t.Fatalf("GetSecurity: %v", err)
	}
	if got.Owner != "BUILTIN\\Administrators" {
		t.Fatalf("owner should be untouched, got %q", got.Owner)
	}
	if !got.ContainsRules(newRules) || len(got.Rules) != 1 {
		t.Fatalf("rules not replaced: %v", got.Rules)
	}
}

func TestMemoryBackend_SetMissingObject(t *testing.T) {
	b := NewMemoryBackend()
	err := SetSecurity(b, "ghost.txt", FileObject, &model.SecurityDescriptor{})
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected os.ErrNotExist, got %v", err)
	}
}

func TestMemoryBackend_RegistryObjects(t *testing.T) {
	b := NewMemoryBackend()

	if _, err := GetSecurity(b, `HKLM\Software\Missing`, RegistryObject, SectionAll); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected os.ErrNotExist for unseeded key, got %v", err)
	}

	rules := []model.AccessRule{{Identity: "BUILTIN\\Administrators", Rights: model.FullControl, Type: model.Allow}}
	b.SeedRegistryKey(`HKLM\Software\Vendor`, &model.SecurityDescriptor{Rules: rules})

	got, err := GetSecurity(b, `HKLM\Software\Vendor`, RegistryObject, SectionAll)
	if err != nil {
		t.Fatalf("GetSecurity: %v", err)
	}
	if !got.ContainsRules(rules) {
		t.Fatalf("seeded key lost its rules: %v", got.Rules)
	}

	// Registry and file namespaces do not collide.
	if _, err := GetSecurity(b, `HKLM\Software\Vendor`, FileObject, SectionAll); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("registry seed must not create a file object, got %v", err)
	}
}

func TestMemoryBackend_CaseInsensitivePaths(t *testing.T) {
	b := NewMemoryBackend()
	rules := []model.AccessRule{{Identity: "Everyone", Rights: model.Read, Type: model.Allow}}
	mustCreateFile(t, b, "Case.TXT", validParams(), &model.SecurityDescriptor{Rules: rules})

	// The descriptor table is case-insensitive even when the underlying
	// filesystem is not; look it up through the same spelling.
	got, err := b.ObjectSecurity("case.txt", FileObject, SectionAccess)
	if err != nil {
		t.Fatalf("ObjectSecurity: %v", err)
	}
	if !got.ContainsRules(rules) {
		t.Fatalf("case-folded lookup lost rules: %+v", got)
	}
}

func TestMemoryBackend_ReturnsCopies(t *testing.T) {
	b := NewMemoryBackend()
	rules := []model.AccessRule{{Identity: "Everyone", Rights: model.Read, Type: model.Allow}}
	mustCreateFile(t, b, "f.txt", validParams(), &model.SecurityDescriptor{Rules: rules})

	got, err := GetSecurity(b, "f.txt", FileObject, SectionAll)
	if err != nil {
		t.Fatalf("GetSecurity: %v", err)
	}
	got.Rules[0].Rights = model.FullControl

	again, err := GetSecurity(b, "f.txt", FileObject, SectionAll)
	if err != nil {
		t.Fatalf("GetSecurity: %v", err)
	}
	if again.Rules[0].Rights != model.Read {
		t.Fatal("mutating a returned descriptor changed the stored one")
	}
}
