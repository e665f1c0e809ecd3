// Copyright (c) 2026 winacl contributors
// winacl - Windows ACL and registry security toolkit
// This source code is licensed under the MIT license found in the LICENSE file.

package model

import (
	"testing"
)

func TestContainsRules_Multiset(t *testing.T) {
	usersRead := AccessRule{Identity: "BUILTIN\\Users", Rights: Read, Type: Allow}
	usersReadDup := usersRead
	adminFull := AccessRule{Identity: "BUILTIN\\Administrators", Rights: FullControl, Type: Allow}

	tests := []struct {
		name string
		have []AccessRule
		want []AccessRule
		ok   bool
	}{
		{
			name: "empty want always matches",
			have: []AccessRule{adminFull},
			want: nil,
			ok:   true,
		},
		{
			name: "exact match",
			have: []AccessRule{usersRead, adminFull},
			want: []AccessRule{adminFull, usersRead},
			ok:   true,
		},
		{
			name: "superset is fine",
			have: []AccessRule{usersRead, adminFull},
			want: []AccessRule{usersRead},
			ok:   true,
		},
		{
			name: "missing rule",
			have: []AccessRule{usersRead},
			want: []AccessRule{adminFull},
			ok:   false,
		},
		{
			name: "duplicates need distinct matches",
			have: []AccessRule{usersRead},
			want: []AccessRule{usersRead, usersReadDup},
			ok:   false,
		},
		{
			name: "duplicates matched pairwise",
			have: []AccessRule{usersRead, usersReadDup},
			want: []AccessRule{usersRead, usersReadDup},
			ok:   true,
		},
		{
			name: "identity compare is case-insensitive",
			have: []AccessRule{{Identity: "builtin\\users", Rights: Read, Type: Allow}},
			want: []AccessRule{usersRead},
			ok:   true,
		},
		{
			name: "deny and allow are distinct",
			have: []AccessRule{{Identity: "BUILTIN\\Users", Rights: Read, Type: Deny}},
			want: []AccessRule{usersRead},
			ok:   false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := &SecurityDescriptor{Rules: tt.have}
			if got := d.ContainsRules(tt.want); got != tt.ok {
				t.Fatalf("ContainsRules() = %v, want %v", got, tt.ok)
			}
		})
	}
}

func TestMissingRules_ReportsRemainder(t *testing.T) {
	usersRead := AccessRule{Identity: "BUILTIN\\Users", Rights: Read, Type: Allow}
	adminFull := AccessRule{Identity: "BUILTIN\\Administrators", Rights: FullControl, Type: Allow}

	d := &SecurityDescriptor{Rules: []AccessRule{usersRead}}

	// Wanting the same rule twice against a single entry leaves exactly one
	// copy unmatched.
	missing := d.MissingRules([]AccessRule{usersRead, usersRead})
	if len(missing) != 1 || missing[0].Identity != usersRead.Identity {
		t.Fatalf("MissingRules() = %v, want one unmatched duplicate", missing)
	}

	missing = d.MissingRules([]AccessRule{usersRead, adminFull})
	if len(missing) != 1 || missing[0].Identity != adminFull.Identity {
		t.Fatalf("MissingRules() = %v, want only the admin rule", missing)
	}

	if missing = d.MissingRules([]AccessRule{usersRead}); missing != nil {
		t.Fatalf("MissingRules() = %v, want none", missing)
	}

	// Inherited expectations are skipped, not reported.
	inherited := adminFull
	inherited.Inherited = true
	if missing = d.MissingRules([]AccessRule{inherited}); missing != nil {
		t.Fatalf("MissingRules() = %v, inherited expectation should be skipped", missing)
	}
}

func TestContainsRules_IgnoresInherited(t *testing.T) {
	inherited := AccessRule{Identity: "NT AUTHORITY\\SYSTEM", Rights: FullControl, Type: Allow, Inherited: true}
	explicit := AccessRule{Identity: "BUILTIN\\Users", Rights: Read, Type: Allow}

	d := &SecurityDescriptor{Rules: []AccessRule{inherited, explicit}}

	// Inherited rules on the object do not satisfy explicit expectations.
	want := inherited
	want.Inherited = false
	if d.ContainsRules([]AccessRule{want}) {
		t.Fatal("inherited rule must not satisfy an explicit expectation")
	}

	// Inherited rules in the expectation are skipped entirely.
	if !d.ContainsRules([]AccessRule{inherited, explicit}) {
		t.Fatal("inherited rules in the expectation should be ignored")
	}
}

func TestExplicitRules(t *testing.T) {
	d := &SecurityDescriptor{Rules: []AccessRule{
		{Identity: "a", Rights: Read, Type: Allow, Inherited: true},
		{Identity: "b", Rights: Write, Type: Allow},
	}}
	got := d.ExplicitRules()
	if len(got) != 1 || got[0].Identity != "b" {
		t.Fatalf("ExplicitRules() = %v, want only rule b", got)
	}
}

func TestClone_Independent(t *testing.T) {
	d := &SecurityDescriptor{
		Owner: "BUILTIN\\Administrators",
		Rules: []AccessRule{{Identity: "BUILTIN\\Users", Rights: Read, Type: Allow}},
	}
	c := d.Clone()
	c.Rules[0].Rights = FullControl
	c.Owner = "other"
	if d.Rules[0].Rights != Read {
		t.Fatal("mutating the clone changed the original rules")
	}
	if d.Owner != "BUILTIN\\Administrators" {
		t.Fatal("mutating the clone changed the original owner")
	}
	var nilDesc *SecurityDescriptor
	if nilDesc.Clone() != nil {
		t.Fatal("cloning nil should return nil")
	}
}

func TestAccessRuleString(t *testing.T) {
	r := AccessRule{
		Identity:    "BUILTIN\\Users",
		Rights:      Read,
		Type:        Allow,
		Inheritance: ContainerInherit | ObjectInherit,
	}
	got := r.String()
	want := `allow BUILTIN\Users read (ci,oi)`
	if got != want {
		t.Fatalf("String() = %q, want %q", got, want)
	}
}
