// Copyright (c) 2026 winacl contributors
// winacl - Windows ACL and registry security toolkit
// This source code is licensed under the MIT license found in the LICENSE file.

package policy

import (
	"strings"
	"testing"

	"github.com/kburgoyne/winacl/internal/model"
	"github.com/kburgoyne/winacl/internal/winsec"
)

const samplePolicy = `
version: 1
rules:
  - path: /etc/app
    object: file
    owner: BUILTIN\Administrators
    access:
      - identity: BUILTIN\Users
        rights: read
        type: allow
  - path: HKLM\Software\Vendor
    object: registry
    access:
      - identity: BUILTIN\Administrators
        rights: full
        type: allow
`

func TestParse(t *testing.T) {
	p, err := Parse([]byte(samplePolicy))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if p.Version != 1 {
		t.Fatalf("version = %d, want 1", p.Version)
	}
	if len(p.Entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(p.Entries))
	}
	e := p.Entries[0]
	if e.Path != "/etc/app" || e.Owner != `BUILTIN\Administrators` {
		t.Fatalf("first entry parsed wrong: %+v", e)
	}
	if len(e.Access) != 1 || e.Access[0].Rights != model.Read || e.Access[0].Type != model.Allow {
		t.Fatalf("first entry rules parsed wrong: %+v", e.Access)
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{name: "no rules", in: "version: 1\n"},
		{name: "missing path", in: "rules:\n  - owner: x\n"},
		{name: "bad object type", in: "rules:\n  - path: /x\n    object: pipe\n"},
		{name: "bad rights", in: "rules:\n  - path: /x\n    access:\n      - identity: a\n        rights: frob\n        type: allow\n"},
		{name: "not yaml", in: ":::"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.in)); err == nil {
				t.Fatal("expected parse error")
			}
		})
	}
}

func TestVerify(t *testing.T) {
	b := winsec.NewMemoryBackend()

	// Directory that matches the policy.
	okRules := []model.AccessRule{{Identity: `BUILTIN\Users`, Rights: model.Read, Type: model.Allow}}
	if _, err := winsec.CreateDirectory(b, "/etc", &model.SecurityDescriptor{}); err != nil {
		t.Fatalf("create /etc: %v", err)
	}
	if _, err := winsec.CreateDirectory(b, "/etc/app", &model.SecurityDescriptor{
		Owner: `BUILTIN\Administrators`,
		Rules: okRules,
	}); err != nil {
		t.Fatalf("create /etc/app: %v", err)
	}
	// Registry key with the wrong rules.
	b.SeedRegistryKey(`HKLM\Software\Vendor`, &model.SecurityDescriptor{
		Rules: []model.AccessRule{{Identity: `BUILTIN\Users`, Rights: model.FullControl, Type: model.Allow}},
	})

	p, err := Parse([]byte(samplePolicy))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	reports := Verify(b, p)
	if len(reports) != 2 {
		t.Fatalf("got %d reports, want 2", len(reports))
	}

	if !reports[0].OK() {
		t.Fatalf("first entry should verify cleanly: %+v", reports[0])
	}
	if reports[1].OK() {
		t.Fatal("second entry should report a missing rule")
	}
	if !reports[1].Exists {
		t.Fatal("second entry exists; only its rules are wrong")
	}
	if len(reports[1].Problems) != 1 || !strings.Contains(reports[1].Problems[0], "missing rule") {
		t.Fatalf("unexpected problems: %v", reports[1].Problems)
	}
}

func TestVerify_DuplicateRuleNeedsDistinctEntries(t *testing.T) {
	b := winsec.NewMemoryBackend()
	usersRead := model.AccessRule{Identity: `BUILTIN\Users`, Rights: model.Read, Type: model.Allow}
	if _, err := winsec.CreateDirectory(b, "/once", &model.SecurityDescriptor{
		Rules: []model.AccessRule{usersRead},
	}); err != nil {
		t.Fatalf("create /once: %v", err)
	}

	// The policy lists the same rule twice; the object carries it once, so
	// exactly one copy must be reported missing.
	dup := "rules:\n  - path: /once\n    access:\n" +
		"      - {identity: BUILTIN\\Users, rights: read, type: allow}\n" +
		"      - {identity: BUILTIN\\Users, rights: read, type: allow}\n"
	p, err := Parse([]byte(dup))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	reports := Verify(b, p)
	if reports[0].OK() {
		t.Fatal("duplicate expected rule should not be satisfied by a single entry")
	}
	if len(reports[0].Problems) != 1 || !strings.Contains(reports[0].Problems[0], "missing rule") {
		t.Fatalf("unexpected problems: %v", reports[0].Problems)
	}
}

func TestVerify_MissingObject(t *testing.T) {
	b := winsec.NewMemoryBackend()
	p, err := Parse([]byte("rules:\n  - path: /nope\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	reports := Verify(b, p)
	if reports[0].Exists || reports[0].OK() {
		t.Fatalf("missing object should fail verification: %+v", reports[0])
	}
	if len(reports[0].Problems) != 1 || !strings.Contains(reports[0].Problems[0], "does not exist") {
		t.Fatalf("unexpected problems: %v", reports[0].Problems)
	}
}

func TestVerify_OwnerMismatch(t *testing.T) {
	b := winsec.NewMemoryBackend()
	if _, err := winsec.CreateDirectory(b, "/data", &model.SecurityDescriptor{Owner: `CONTOSO\svc`}); err != nil {
		t.Fatalf("create /data: %v", err)
	}
	p, err := Parse([]byte("rules:\n  - path: /data\n    owner: BUILTIN\\Administrators\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	reports := Verify(b, p)
	if reports[0].OK() {
		t.Fatal("owner mismatch should be reported")
	}
	if !strings.Contains(reports[0].Problems[0], "owner") {
		t.Fatalf("unexpected problems: %v", reports[0].Problems)
	}
}
