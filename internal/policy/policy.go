// Copyright (c) 2026 winacl contributors
// winacl - Windows ACL and registry security toolkit
// This source code is licensed under the MIT license found in the LICENSE file.

// Package policy loads expectations about object security from a YAML file
// and checks them against a backend. A policy says "this path should exist,
// be owned by X and carry at least these rules"; verification produces a
// structured report per entry instead of failing on the first mismatch, so
// one run shows everything that drifted.
package policy

import (
	"fmt"
	"os"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/kburgoyne/winacl/internal/model"
	"github.com/kburgoyne/winacl/internal/winsec"
)

// Entry is a single expectation: a path, what kind of object it is, and
// the owner/rules it must carry. Access lists the minimum set of explicit
// rules; extra rules on the object are not a violation.
type Entry struct {
	Path   string             `yaml:"path"`
	Object string             `yaml:"object,omitempty"`
	Owner  string             `yaml:"owner,omitempty"`
	Access []model.AccessRule `yaml:"access,omitempty"`
}

// Policy is the parsed policy file.
type Policy struct {
	Version int     `yaml:"version,omitempty"`
	Entries []Entry `yaml:"rules"`
}

// Parse decodes and validates a policy document.
func Parse(data []byte) (*Policy, error) {
	var p Policy
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse policy: %w", err)
	}
	if len(p.Entries) == 0 {
		return nil, fmt.Errorf("policy contains no rules")
	}
	for i, e := range p.Entries {
		if e.Path == "" {
			return nil, fmt.Errorf("policy rule %d: missing path", i)
		}
		if _, err := winsec.ParseObjectType(e.Object); err != nil {
			return nil, fmt.Errorf("policy rule %d (%s): %w", i, e.Path, err)
		}
	}
	return &p, nil
}

// Load reads and parses a policy file.
func Load(path string) (*Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read policy: %w", err)
	}
	return Parse(data)
}

// Report is the verification result for one policy entry.
type Report struct {
	Path     string
	Exists   bool
	Problems []string
}

// OK reports whether the entry verified cleanly.
func (r Report) OK() bool {
	return r.Exists && len(r.Problems) == 0
}

// Verify checks every policy entry against the backend. The returned slice
// has one report per entry, in policy order.
func Verify(b winsec.Backend, p *Policy) []Report {
	reports := make([]Report, 0, len(p.Entries))
	for _, e := range p.Entries {
		reports = append(reports, verifyEntry(b, e))
	}
	return reports
}

func verifyEntry(b winsec.Backend, e Entry) Report {
	r := Report{Path: e.Path}
	objType, _ := winsec.ParseObjectType(e.Object)

	sd, err := winsec.GetSecurity(b, e.Path, objType, winsec.SectionAll)
	if err != nil {
		if winsec.IsNotExist(err) {
			r.Problems = append(r.Problems, "object does not exist")
		} else {
			r.Problems = append(r.Problems, fmt.Sprintf("read security: %v", err))
		}
		return r
	}
	r.Exists = true

	if e.Owner != "" && !strings.EqualFold(sd.Owner, e.Owner) {
		r.Problems = append(r.Problems, fmt.Sprintf("owner is %q, expected %q", sd.Owner, e.Owner))
	}
	// One multiset check over the whole expected list: a rule listed twice
	// needs two matching entries on the object.
	for _, rule := range sd.MissingRules(e.Access) {
		r.Problems = append(r.Problems, fmt.Sprintf("missing rule: %s", rule))
	}
	return r
}
