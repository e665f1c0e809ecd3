// Copyright (c) 2026 winacl contributors
// winacl - Windows ACL and registry security toolkit
// This source code is licensed under the MIT license found in the LICENSE file.

package model

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/goccy/go-yaml"
)

// FileRights is the bitmask of granular permissions on a file, directory or
// registry key. The bit values are the native Windows access-mask values,
// so a FileRights converts to an ACCESS_MASK without translation.
type FileRights uint32

const (
	ReadData                     FileRights = 0x000001
	WriteData                    FileRights = 0x000002
	AppendData                   FileRights = 0x000004
	ReadExtendedAttributes       FileRights = 0x000008
	WriteExtendedAttributes      FileRights = 0x000010
	ExecuteFile                  FileRights = 0x000020
	DeleteSubdirectoriesAndFiles FileRights = 0x000040
	ReadAttributes               FileRights = 0x000080
	WriteAttributes              FileRights = 0x000100
	Delete                       FileRights = 0x010000
	ReadPermissions              FileRights = 0x020000
	ChangePermissions            FileRights = 0x040000
	TakeOwnership                FileRights = 0x080000
	Synchronize                  FileRights = 0x100000

	// Composite rights, matching the standard Windows generic mappings.
	Read           = ReadData | ReadExtendedAttributes | ReadAttributes | ReadPermissions | Synchronize
	Write          = WriteData | AppendData | WriteExtendedAttributes | WriteAttributes
	ReadAndExecute = Read | ExecuteFile
	Modify         = ReadAndExecute | Write | Delete
	FullControl    FileRights = 0x1F01FF
)

// composite rights are matched before atoms so FormatRights prefers the
// short names users actually write in policies.
var compositeRights = []struct {
	name string
	mask FileRights
}{
	{"full", FullControl},
	{"modify", Modify},
	{"readandexecute", ReadAndExecute},
	{"read", Read},
	{"write", Write},
}

var atomRights = []struct {
	name string
	mask FileRights
}{
	{"readdata", ReadData},
	{"writedata", WriteData},
	{"appenddata", AppendData},
	{"readea", ReadExtendedAttributes},
	{"writeea", WriteExtendedAttributes},
	{"execute", ExecuteFile},
	{"deletetree", DeleteSubdirectoriesAndFiles},
	{"readattributes", ReadAttributes},
	{"writeattributes", WriteAttributes},
	{"delete", Delete},
	{"readpermissions", ReadPermissions},
	{"changepermissions", ChangePermissions},
	{"takeownership", TakeOwnership},
	{"synchronize", Synchronize},
}

var rightsByName = func() map[string]FileRights {
	m := map[string]FileRights{
		"fullcontrol": FullControl,
		"executefile": ExecuteFile,
	}
	for _, c := range compositeRights {
		m[c.name] = c.mask
	}
	for _, a := range atomRights {
		m[a.name] = a.mask
	}
	return m
}()

// ParseRights converts the textual rights form back into a bitmask. It
// accepts single names ("read", "full"), combinations joined with "|" or
// "+" ("read|writedata"), and raw hex masks ("0x1301bf").
func ParseRights(s string) (FileRights, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty rights string")
	}
	if strings.HasPrefix(strings.ToLower(s), "0x") {
		v, err := strconv.ParseUint(s[2:], 16, 32)
		if err != nil {
			return 0, fmt.Errorf("invalid rights mask %q: %w", s, err)
		}
		return FileRights(v), nil
	}
	var mask FileRights
	for _, part := range strings.FieldsFunc(s, func(r rune) bool { return r == '|' || r == '+' || r == ',' }) {
		name := strings.ToLower(strings.TrimSpace(part))
		if name == "" {
			continue
		}
		m, ok := rightsByName[name]
		if !ok {
			return 0, fmt.Errorf("unknown right %q", part)
		}
		mask |= m
	}
	return mask, nil
}

// FormatRights renders a rights mask in its shortest textual form: an exact
// composite name when one matches, otherwise the atoms joined with "|",
// falling back to hex for bits with no name.
func FormatRights(r FileRights) string {
	if r == 0 {
		return "none"
	}
	for _, c := range compositeRights {
		if r == c.mask {
			return c.name
		}
	}
	var parts []string
	rest := r
	for _, a := range atomRights {
		if rest&a.mask == a.mask {
			parts = append(parts, a.name)
			rest &^= a.mask
		}
	}
	if rest != 0 {
		parts = append(parts, fmt.Sprintf("0x%x", uint32(rest)))
	}
	return strings.Join(parts, "|")
}

// MarshalYAML writes rights in their textual form.
func (r FileRights) MarshalYAML() (interface{}, error) {
	return FormatRights(r), nil
}

// UnmarshalYAML accepts either the textual form or a bare integer mask.
func (r *FileRights) UnmarshalYAML(b []byte) error {
	var n uint32
	if err := yaml.Unmarshal(b, &n); err == nil {
		*r = FileRights(n)
		return nil
	}
	var s string
	if err := yaml.Unmarshal(b, &s); err != nil {
		return err
	}
	v, err := ParseRights(s)
	if err != nil {
		return err
	}
	*r = v
	return nil
}

// MarshalYAML writes the access type as "allow" or "deny".
func (t AccessType) MarshalYAML() (interface{}, error) {
	return t.String(), nil
}

// UnmarshalYAML parses "allow" or "deny" (case-insensitive).
func (t *AccessType) UnmarshalYAML(b []byte) error {
	var s string
	if err := yaml.Unmarshal(b, &s); err != nil {
		return err
	}
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "allow":
		*t = Allow
	case "deny":
		*t = Deny
	default:
		return fmt.Errorf("unknown access type %q", s)
	}
	return nil
}
