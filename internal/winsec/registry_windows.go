// Copyright (c) 2026 winacl contributors
// winacl - Windows ACL and registry security toolkit
// This source code is licensed under the MIT license found in the LICENSE file.

//go:build windows

package winsec

import (
	"fmt"

	"golang.org/x/sys/windows"

	"github.com/kburgoyne/winacl/internal/logging"
	"github.com/kburgoyne/winacl/internal/model"
	"github.com/kburgoyne/winacl/internal/regkey"
)

// registryRoots maps canonical hive names to the predefined root handles.
var registryRoots = map[string]regkey.Handle{
	"CLASSES_ROOT": regkey.ClassesRoot,
	"CURRENT_USER": regkey.CurrentUser,
	"MACHINE":      regkey.LocalMachine,
	"USERS":        regkey.Users,
}

// keySecurityByPath resolves the hive of a registry path and reads the key
// through KeySecurity. ObjectSecurity routes registry reads here.
func (w *WindowsBackend) keySecurityByPath(path string, sections Sections) (*model.SecurityDescriptor, error) {
	hive, subKey := splitRegistryRoot(path)
	root, ok := registryRoots[hive]
	if !ok {
		return nil, fmt.Errorf("unknown registry hive %q in %s", hive, path)
	}
	return w.KeySecurity(root, subKey, sections)
}

// KeySecurity reads a registry key's descriptor through an open handle
// instead of by name. Handle-based reads see the key exactly as the caller
// opened it, which matters when another process may rename or replace keys
// between a name lookup and the security call.
func (w *WindowsBackend) KeySecurity(root regkey.Handle, path string, sections Sections) (*model.SecurityDescriptor, error) {
	k, err := regkey.OpenKey(root, path, windows.READ_CONTROL)
	if err != nil {
		return nil, fmt.Errorf("open registry key %s: %w", path, err)
	}
	defer func() {
		if st := k.Release(); !st.OK() {
			logging.Debugf("releasing handle for %s: %s", path, st)
		}
	}()

	sd, err := windows.GetSecurityInfo(windows.Handle(k.Handle()), windows.SE_REGISTRY_KEY, sectionsToNative(sections))
	if err != nil {
		return nil, fmt.Errorf("get security of key %s: %w", path, err)
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
			return nil, fmt.Errorf("read DACL of key %s: %w", path, err)
		}
		out.Rules = rulesFromACL(dacl)
	}
	return out, nil
}
