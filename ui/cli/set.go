// Copyright (c) 2026 winacl contributors
// winacl - Windows ACL and registry security toolkit
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/kburgoyne/winacl/internal/i18n"
	"github.com/kburgoyne/winacl/internal/model"
	"github.com/kburgoyne/winacl/internal/winsec"
)

// stdinReader is swapped by tests that script a confirmation answer.
var stdinReader io.Reader = os.Stdin

// confirm asks the user before a mutating operation. Non-interactive
// sessions refuse instead of silently proceeding.
func confirm(cmd *cobra.Command, prompt string) bool {
	if f, ok := stdinReader.(*os.File); ok && !term.IsTerminal(int(f.Fd())) {
		fmt.Fprintln(cmd.ErrOrStderr(), "refusing to apply without confirmation; use --yes in scripts")
		return false
	}
	fmt.Fprint(cmd.OutOrStdout(), prompt)
	line, err := bufio.NewReader(stdinReader).ReadString('\n')
	if err != nil {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes", "j", "ja":
		return true
	}
	return false
}

// loadDescriptorFile reads a YAML security descriptor from disk.
func loadDescriptorFile(path string) (*model.SecurityDescriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read descriptor: %w", err)
	}
	var sd model.SecurityDescriptor
	if err := yaml.Unmarshal(data, &sd); err != nil {
		return nil, fmt.Errorf("parse descriptor: %w", err)
	}
	return &sd, nil
}

func newSetCmd() *cobra.Command {
	var objectFlag string
	var descriptorFile string
	var ownerFlag string
	var groupFlag string
	var yesFlag bool

	cmd := &cobra.Command{
		Use:   "set <path>",
		Short: i18n.T("cli.set.short"),
		Long: `Applies a security descriptor to a file, directory or registry key. The
descriptor is read from a YAML file (--descriptor) and/or assembled from
the --owner and --group flags. Only the populated parts of the descriptor
are written; everything else on the object is left alone.

Examples:
  winacl set --descriptor acl.yaml C:\Data
  winacl set --owner 'BUILTIN\Administrators' --yes C:\Data\app.log`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			objType, err := winsec.ParseObjectType(objectFlag)
			if err != nil {
				return err
			}

			sd := &model.SecurityDescriptor{}
			if descriptorFile != "" {
				if sd, err = loadDescriptorFile(descriptorFile); err != nil {
					return err
				}
			}
			if ownerFlag != "" {
				sd.Owner = ownerFlag
			}
			if groupFlag != "" {
				sd.Group = groupFlag
			}

			rendered, err := renderDescriptor(sd, false)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s\n%s", args[0], objType, rendered)

			if dryRun {
				fmt.Fprintln(cmd.OutOrStdout(), i18n.T("msg.dry_run"))
				return nil
			}
			if !yesFlag && !confirm(cmd, i18n.T("msg.set.confirm")) {
				fmt.Fprintln(cmd.OutOrStdout(), i18n.T("msg.set.aborted"))
				return nil
			}

			if err := winsec.SetSecurity(getBackend(), args[0], objType, sd); err != nil {
				return err
			}
			logAction("set", fmt.Sprintf("%s (%s)", args[0], objType))
			fmt.Fprintln(cmd.OutOrStdout(), i18n.T("msg.set.applied"))
			return nil
		},
	}

	cmd.Flags().StringVarP(&objectFlag, "object", "o", "file", "Object type: file or registry")
	cmd.Flags().StringVarP(&descriptorFile, "descriptor", "d", "", "YAML file with the descriptor to apply")
	cmd.Flags().StringVar(&ownerFlag, "owner", "", "Owner to set (account name or SID)")
	cmd.Flags().StringVar(&groupFlag, "group", "", "Primary group to set (account name or SID)")
	cmd.Flags().BoolVarP(&yesFlag, "yes", "y", false, "Apply without asking for confirmation")
	return cmd
}
