// Copyright (c) 2026 winacl contributors
// winacl - Windows ACL and registry security toolkit
// This source code is licensed under the MIT license found in the LICENSE file.

// Package model defines the core data structures shared across winacl:
// access rules, security descriptors, stored baselines and audit log
// entries. The types here are plain values with no platform dependencies,
// so every other package (backends, policy checks, the store) can exchange
// them freely.
package model

import (
	"fmt"
	"strings"
	"time"
)

// AccessType says whether a rule grants or denies the rights it carries.
type AccessType int

const (
	Allow AccessType = iota
	Deny
)

// String returns the textual form used in policy files and CLI output.
func (t AccessType) String() string {
	if t == Deny {
		return "deny"
	}
	return "allow"
}

// InheritanceFlags controls which children of a container receive the rule.
// The bit values match the Windows ACE flags they are translated to.
type InheritanceFlags int

const (
	InheritNone      InheritanceFlags = 0x0
	ContainerInherit InheritanceFlags = 0x1
	ObjectInherit    InheritanceFlags = 0x2
)

// PropagationFlags controls how an inheritable rule propagates below the
// first level of children.
type PropagationFlags int

const (
	PropagateNone      PropagationFlags = 0x0
	NoPropagateInherit PropagationFlags = 0x1
	InheritOnly        PropagationFlags = 0x2
)

// AccessRule is a single entry of a discretionary ACL: an identity, a
// rights bitmask, an allow/deny type and the inheritance behavior.
// Identity is an account name (e.g. "BUILTIN\\Users") or a textual SID
// ("S-1-5-32-545"); backends resolve whichever form they are given.
//
// Inherited marks rules that arrived via inheritance from a parent object.
// Inherited rules are carried when reading a descriptor but are never part
// of what winacl applies or compares.
type AccessRule struct {
	Identity    string           `yaml:"identity"`
	Rights      FileRights       `yaml:"rights"`
	Type        AccessType       `yaml:"type"`
	Inheritance InheritanceFlags `yaml:"inheritance,omitempty"`
	Propagation PropagationFlags `yaml:"propagation,omitempty"`
	Inherited   bool             `yaml:"inherited,omitempty"`
}

// String renders the rule in the compact one-line form used by the CLI,
// e.g. `allow BUILTIN\Users read (ci)`.
func (r AccessRule) String() string {
	var b strings.Builder
	b.WriteString(r.Type.String())
	b.WriteByte(' ')
	b.WriteString(r.Identity)
	b.WriteByte(' ')
	b.WriteString(FormatRights(r.Rights))
	var flags []string
	if r.Inheritance&ContainerInherit != 0 {
		flags = append(flags, "ci")
	}
	if r.Inheritance&ObjectInherit != 0 {
		flags = append(flags, "oi")
	}
	if r.Propagation&NoPropagateInherit != 0 {
		flags = append(flags, "np")
	}
	if r.Propagation&InheritOnly != 0 {
		flags = append(flags, "io")
	}
	if r.Inherited {
		flags = append(flags, "inherited")
	}
	if len(flags) > 0 {
		fmt.Fprintf(&b, " (%s)", strings.Join(flags, ","))
	}
	return b.String()
}

// ruleKey is the tuple identity used for multiset comparison of rules.
type ruleKey struct {
	identity    string
	rights      FileRights
	accessType  AccessType
	inheritance InheritanceFlags
	propagation PropagationFlags
}

func (r AccessRule) key() ruleKey {
	return ruleKey{
		identity:    strings.ToLower(r.Identity),
		rights:      r.Rights,
		accessType:  r.Type,
		inheritance: r.Inheritance,
		propagation: r.Propagation,
	}
}

// SecurityDescriptor is a detached, in-memory view of an object's security:
// owner, primary group and the ordered list of access rules. It has no
// relationship to any filesystem or registry object until a backend applies
// it; reading and applying are always explicit operations.
type SecurityDescriptor struct {
	Owner string       `yaml:"owner,omitempty"`
	Group string       `yaml:"group,omitempty"`
	Rules []AccessRule `yaml:"access,omitempty"`
}

// Clone returns a deep copy of the descriptor.
func (d *SecurityDescriptor) Clone() *SecurityDescriptor {
	if d == nil {
		return nil
	}
	c := &SecurityDescriptor{Owner: d.Owner, Group: d.Group}
	if d.Rules != nil {
		c.Rules = make([]AccessRule, len(d.Rules))
		copy(c.Rules, d.Rules)
	}
	return c
}

// ExplicitRules returns the rules that were set directly on the object,
// i.e. everything not marked as inherited.
func (d *SecurityDescriptor) ExplicitRules() []AccessRule {
	if d == nil {
		return nil
	}
	var out []AccessRule
	for _, r := range d.Rules {
		if !r.Inherited {
			out = append(out, r)
		}
	}
	return out
}

// MissingRules returns the explicit rules in want that the descriptor's
// explicit rules cannot cover, compared as unordered multisets of
// (identity, rights, type, inheritance, propagation) tuples. Identity
// comparison is case-insensitive, matching account-name semantics.
// Equivalent duplicate rules each consume a distinct entry, so wanting a
// rule twice against an object carrying it once reports one missing rule.
func (d *SecurityDescriptor) MissingRules(want []AccessRule) []AccessRule {
	have := map[ruleKey]int{}
	for _, r := range d.ExplicitRules() {
		have[r.key()]++
	}
	var missing []AccessRule
	for _, r := range want {
		if r.Inherited {
			continue
		}
		k := r.key()
		if have[k] == 0 {
			missing = append(missing, r)
			continue
		}
		have[k]--
	}
	return missing
}

// ContainsRules reports whether every explicit rule in want appears in the
// descriptor's explicit rules, under the same multiset semantics as
// MissingRules.
func (d *SecurityDescriptor) ContainsRules(want []AccessRule) bool {
	return len(d.MissingRules(want)) == 0
}

// Baseline is a captured security descriptor for a path, stored so later
// runs can detect drift.
type Baseline struct {
	ID         int       `json:"id"`
	Path       string    `json:"path"`
	ObjectType string    `json:"object_type"`
	Descriptor string    `json:"descriptor"` // YAML-serialized SecurityDescriptor
	CapturedAt time.Time `json:"captured_at"`
}

// AuditLogEntry records a mutating operation performed through winacl.
type AuditLogEntry struct {
	ID        int
	Timestamp string
	Action    string
	Details   string
}
