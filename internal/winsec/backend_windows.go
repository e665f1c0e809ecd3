// Copyright (c) 2026 winacl contributors
// winacl - Windows ACL and registry security toolkit
// This source code is licensed under the MIT license found in the LICENSE file.

//go:build windows

package winsec

import (
	"fmt"
	"io/fs"
	"os"
	"strings"
	"unsafe"

	"github.com/Microsoft/go-winio"
	"golang.org/x/sys/windows"

	"github.com/kburgoyne/winacl/internal/model"
)

// ACE header bits. These are the raw winnt.h values; x/sys/windows exposes
// the ACE structures but not all of the header constants.
const (
	aceTypeAccessAllowed = 0x0
	aceTypeAccessDenied  = 0x1

	aceFlagObjectInherit      = 0x01
	aceFlagContainerInherit   = 0x02
	aceFlagNoPropagateInherit = 0x04
	aceFlagInheritOnly        = 0x08
	aceFlagInherited          = 0x10
)

// WindowsBackend talks to the native security APIs. The zero value is
// ready to use.
type WindowsBackend struct{}

// NewWindowsBackend returns the live backend.
func NewWindowsBackend() *WindowsBackend { return &WindowsBackend{} }

// objectName converts a path into the form GetNamedSecurityInfo expects
// for the given object type. Registry paths accept the usual hive
// abbreviations (HKLM\..., HKCU\...) and are rewritten to the native
// MACHINE\... style.
func objectName(path string, objType ObjectType) (string, windows.SE_OBJECT_TYPE) {
	if objType == RegistryObject {
		return canonicalRegistryPath(path), windows.SE_REGISTRY_KEY
	}
	return path, windows.SE_FILE_OBJECT
}

func sectionsToNative(sections Sections) windows.SECURITY_INFORMATION {
	var si windows.SECURITY_INFORMATION
	if sections&SectionOwner != 0 {
		si |= windows.OWNER_SECURITY_INFORMATION
	}
	if sections&SectionGroup != 0 {
		si |= windows.GROUP_SECURITY_INFORMATION
	}
	if sections&SectionAccess != 0 {
		si |= windows.DACL_SECURITY_INFORMATION
	}
	if sections&SectionAudit != 0 {
		si |= windows.SACL_SECURITY_INFORMATION
	}
	return si
}

// resolveSID turns an identity (account name or textual SID) into a SID.
func resolveSID(identity string) (*windows.SID, error) {
	if strings.HasPrefix(identity, "S-1-") {
		return windows.StringToSid(identity)
	}
	sid, _, _, err := windows.LookupSID("", identity)
	if err != nil {
		return nil, fmt.Errorf("lookup account %q: %w", identity, err)
	}
	return sid, nil
}

// sidToIdentity renders a SID as DOMAIN\account, falling back to the
// textual SID for orphaned entries.
func sidToIdentity(sid *windows.SID) string {
	if sid == nil {
		return ""
	}
	account, domain, _, err := sid.LookupAccount("")
	if err != nil {
		return sid.String()
	}
	if domain != "" {
		return domain + `\` + account
	}
	return account
}

// ObjectSecurity reads the requested sections of path's descriptor.
func (w *WindowsBackend) ObjectSecurity(path string, objType ObjectType, sections Sections) (*model.SecurityDescriptor, error) {
	// Registry reads go through an open key handle so the key cannot be
	// swapped between the name lookup and the security call. SACL reads
	// stay on the named call, which acquires the audit privilege itself.
	if objType == RegistryObject && sections&SectionAudit == 0 {
		return w.keySecurityByPath(path, sections)
	}
	name, nativeType := objectName(path, objType)
	sd, err := windows.GetNamedSecurityInfo(name, nativeType, sectionsToNative(sections))
	if err != nil {
		return nil, fmt.Errorf("get security of %s: %w", path, err)
	}
	out := &model.SecurityDescriptor{}
	if sections&SectionOwner != 0 {
		if owner, _, err := sd.Owner(); err == nil {
			out.Owner = sidToIdentity(owner)
		}
	}
	if sections&SectionGroup != 0 {
		if group, _, err := sd.Group(); err == nil {
			out.Group = sidToIdentity(group)
		}
	}
	if sections&SectionAccess != 0 {
		dacl, _, err := sd.DACL()
		if err != nil {
			return nil, fmt.Errorf("read DACL of %s: %w", path, err)
		}
		out.Rules = rulesFromACL(dacl)
	}
	return out, nil
}

// rulesFromACL walks the ACL entry by entry. A nil ACL ("everyone has full
// access") yields no rules.
func rulesFromACL(acl *windows.ACL) []model.AccessRule {
	if acl == nil {
		return nil
	}
	var rules []model.AccessRule
	for i := uint32(0); ; i++ {
		var ace *windows.ACCESS_ALLOWED_ACE
		if err := windows.GetAce(acl, i, &ace); err != nil {
			break
		}
		rule := model.AccessRule{
			Rights: model.FileRights(ace.Mask),
		}
		switch ace.Header.AceType {
		case aceTypeAccessAllowed:
			rule.Type = model.Allow
		case aceTypeAccessDenied:
			rule.Type = model.Deny
		default:
			// Audit and object ACEs are outside the DACL contract.
			continue
		}
		if ace.Header.AceFlags&aceFlagContainerInherit != 0 {
			rule.Inheritance |= model.ContainerInherit
		}
		if ace.Header.AceFlags&aceFlagObjectInherit != 0 {
			rule.Inheritance |= model.ObjectInherit
		}
		if ace.Header.AceFlags&aceFlagNoPropagateInherit != 0 {
			rule.Propagation |= model.NoPropagateInherit
		}
		if ace.Header.AceFlags&aceFlagInheritOnly != 0 {
			rule.Propagation |= model.InheritOnly
		}
		rule.Inherited = ace.Header.AceFlags&aceFlagInherited != 0
		sid := (*windows.SID)(unsafe.Pointer(&ace.SidStart))
		rule.Identity = sidToIdentity(sid)
		rules = append(rules, rule)
	}
	return rules
}

// aclFromRules builds a native ACL out of the explicit rules.
func aclFromRules(rules []model.AccessRule) (*windows.ACL, error) {
	var entries []windows.EXPLICIT_ACCESS
	for _, r := range rules {
		if r.Inherited {
			continue
		}
		sid, err := resolveSID(r.Identity)
		if err != nil {
			return nil, err
		}
		mode := windows.GRANT_ACCESS
		if r.Type == model.Deny {
			mode = windows.DENY_ACCESS
		}
		var inheritance uint32
		if r.Inheritance&model.ContainerInherit != 0 {
			inheritance |= aceFlagContainerInherit
		}
		if r.Inheritance&model.ObjectInherit != 0 {
			inheritance |= aceFlagObjectInherit
		}
		if r.Propagation&model.NoPropagateInherit != 0 {
			inheritance |= aceFlagNoPropagateInherit
		}
		if r.Propagation&model.InheritOnly != 0 {
			inheritance |= aceFlagInheritOnly
		}
		entries = append(entries, windows.EXPLICIT_ACCESS{
			AccessPermissions: windows.ACCESS_MASK(r.Rights),
			AccessMode:        windows.ACCESS_MODE(mode),
			Inheritance:       inheritance,
			Trustee: windows.TRUSTEE{
				TrusteeForm:  windows.TRUSTEE_IS_SID,
				TrusteeType:  windows.TRUSTEE_IS_UNKNOWN,
				TrusteeValue: windows.TrusteeValueFromSID(sid),
			},
		})
	}
	return windows.ACLFromEntries(entries, nil)
}

// SetObjectSecurity applies the populated sections of sd to path.
func (w *WindowsBackend) SetObjectSecurity(path string, objType ObjectType, sd *model.SecurityDescriptor, sections Sections) error {
	name, nativeType := objectName(path, objType)

	var owner, group *windows.SID
	var err error
	if sections&SectionOwner != 0 && sd.Owner != "" {
		if owner, err = resolveSID(sd.Owner); err != nil {
			return err
		}
	}
	var dacl *windows.ACL
	if sections&SectionAccess != 0 {
		if dacl, err = aclFromRules(sd.Rules); err != nil {
			return err
		}
	}
	if sections&SectionGroup != 0 && sd.Group != "" {
		if group, err = resolveSID(sd.Group); err != nil {
			return err
		}
	}
	if err := windows.SetNamedSecurityInfo(name, nativeType, sectionsToNative(sections), owner, group, dacl, nil); err != nil {
		return fmt.Errorf("set security of %s: %w", path, err)
	}
	return nil
}

// securityAttributes builds the SecurityAttributes for object creation.
// The descriptor is rendered to SDDL and converted through go-winio, which
// hands back the self-relative binary form CreateFile wants.
func securityAttributes(sd *model.SecurityDescriptor) (*windows.SecurityAttributes, error) {
	sddl, err := FormatSDDL(sd, func(identity string) (string, error) {
		if acct, err := DefaultSidResolver(identity); err == nil {
			return acct, nil
		}
		sid, err := resolveSID(identity)
		if err != nil {
			return "", err
		}
		return sid.String(), nil
	})
	if err != nil {
		return nil, err
	}
	raw, err := winio.SddlToSecurityDescriptor(sddl)
	if err != nil {
		return nil, fmt.Errorf("convert %q to a security descriptor: %w", sddl, err)
	}
	sa := &windows.SecurityAttributes{
		SecurityDescriptor: (*windows.SECURITY_DESCRIPTOR)(unsafe.Pointer(&raw[0])),
	}
	sa.Length = uint32(unsafe.Sizeof(*sa))
	return sa, nil
}

func nativeCreateMode(mode FileMode) uint32 {
	switch mode {
	case ModeCreateNew:
		return windows.CREATE_NEW
	case ModeCreate:
		return windows.CREATE_ALWAYS
	case ModeOpen:
		return windows.OPEN_EXISTING
	case ModeOpenOrCreate, ModeAppend:
		return windows.OPEN_ALWAYS
	case ModeTruncate:
		return windows.TRUNCATE_EXISTING
	}
	return windows.OPEN_EXISTING
}

// CreateFile creates or opens path with the descriptor attached at birth.
func (w *WindowsBackend) CreateFile(path string, params CreateFileParams, sd *model.SecurityDescriptor) (fs.FileInfo, bool, error) {
	sa, err := securityAttributes(sd)
	if err != nil {
		return nil, false, err
	}
	_, statErr := os.Stat(path)
	existed := statErr == nil

	name, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return nil, false, err
	}
	access := uint32(params.Rights)
	if params.Mode == ModeAppend {
		access |= uint32(model.AppendData)
	}
	h, err := windows.CreateFile(
		name,
		access,
		uint32(params.Share&(ShareRead|ShareWrite|ShareDelete)),
		sa,
		nativeCreateMode(params.Mode),
		windows.FILE_ATTRIBUTE_NORMAL|uint32(params.Options),
		0,
	)
	if err != nil {
		return nil, false, fmt.Errorf("create %s: %w", path, err)
	}
	windows.CloseHandle(h)

	info, err := os.Stat(path)
	if err != nil {
		return nil, !existed, err
	}
	return info, !existed, nil
}

// CreateDirectory creates path with the descriptor attached at birth.
func (w *WindowsBackend) CreateDirectory(path string, sd *model.SecurityDescriptor) error {
	sa, err := securityAttributes(sd)
	if err != nil {
		return err
	}
	name, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return err
	}
	if err := windows.CreateDirectory(name, sa); err != nil {
		return fmt.Errorf("create directory %s: %w", path, err)
	}
	return nil
}

// Stat reports on a filesystem path.
func (w *WindowsBackend) Stat(path string) (fs.FileInfo, error) {
	return os.Stat(path)
}
