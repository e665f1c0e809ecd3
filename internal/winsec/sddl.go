// Copyright (c) 2026 winacl contributors
// winacl - Windows ACL and registry security toolkit
// This source code is licensed under the MIT license found in the LICENSE file.

package winsec

import (
	"fmt"
	"strings"

	"github.com/kburgoyne/winacl/internal/model"
)

// wellKnownAliases maps the account names of well-known principals to their
// two-letter SDDL aliases. Anything not listed here must be given as a
// textual SID or resolved by the caller-supplied resolver.
var wellKnownAliases = map[string]string{
	"builtin\\administrators": "BA",
	"builtin\\users":          "BU",
	"builtin\\guests":         "BG",
	"nt authority\\system":    "SY",
	"nt authority\\network":   "NU",
	"everyone":                "WD",
	"creator owner":           "CO",
	"creator group":           "CG",
}

// sddlRightsAliases are the exact-match rights aliases worth emitting; any
// other mask is rendered in hex, which every SDDL consumer accepts.
var sddlRightsAliases = map[model.FileRights]string{
	model.FullControl: "FA",
}

// DefaultSidResolver translates an identity into its SDDL account field
// using only static knowledge: well-known aliases and pass-through of
// textual SIDs. Platform backends wrap this with a live account lookup.
func DefaultSidResolver(identity string) (string, error) {
	if alias, ok := wellKnownAliases[strings.ToLower(identity)]; ok {
		return alias, nil
	}
	if strings.HasPrefix(identity, "S-1-") {
		return identity, nil
	}
	return "", fmt.Errorf("cannot resolve identity %q to a SID without a platform lookup", identity)
}

// FormatSDDL renders a descriptor in security descriptor definition
// language. Only explicit rules are emitted; inherited rules belong to the
// parent and would be rebuilt by inheritance anyway. resolve maps identities
// to SDDL account fields; pass DefaultSidResolver when no platform lookup
// is available.
func FormatSDDL(sd *model.SecurityDescriptor, resolve func(string) (string, error)) (string, error) {
	if sd == nil {
		return "", &ArgumentError{Param: "descriptor"}
	}
	if resolve == nil {
		resolve = DefaultSidResolver
	}

	var b strings.Builder
	if sd.Owner != "" {
		acct, err := resolve(sd.Owner)
		if err != nil {
			return "", fmt.Errorf("owner: %w", err)
		}
		b.WriteString("O:" + acct)
	}
	if sd.Group != "" {
		acct, err := resolve(sd.Group)
		if err != nil {
			return "", fmt.Errorf("group: %w", err)
		}
		b.WriteString("G:" + acct)
	}

	b.WriteString("D:")
	for _, r := range sd.ExplicitRules() {
		acct, err := resolve(r.Identity)
		if err != nil {
			return "", fmt.Errorf("rule for %s: %w", r.Identity, err)
		}
		aceType := "A"
		if r.Type == model.Deny {
			aceType = "D"
		}
		var flags strings.Builder
		if r.Inheritance&model.ObjectInherit != 0 {
			flags.WriteString("OI")
		}
		if r.Inheritance&model.ContainerInherit != 0 {
			flags.WriteString("CI")
		}
		if r.Propagation&model.NoPropagateInherit != 0 {
			flags.WriteString("NP")
		}
		if r.Propagation&model.InheritOnly != 0 {
			flags.WriteString("IO")
		}
		rights, ok := sddlRightsAliases[r.Rights]
		if !ok {
			rights = fmt.Sprintf("0x%x", uint32(r.Rights))
		}
		fmt.Fprintf(&b, "(%s;%s;%s;;;%s)", aceType, flags.String(), rights, acct)
	}
	return b.String(), nil
}
