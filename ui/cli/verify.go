// Copyright (c) 2026 winacl contributors
// winacl - Windows ACL and registry security toolkit
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kburgoyne/winacl/internal/i18n"
	"github.com/kburgoyne/winacl/internal/policy"
)

func newVerifyCmd() *cobra.Command {
	var policyFile string

	cmd := &cobra.Command{
		Use:   "verify",
		Short: i18n.T("cli.verify.short"),
		Long: `Checks every entry of a policy file against the live objects and prints
one line per entry. The command fails when any entry drifted, so it can
gate CI jobs and scheduled audits.

Example:
  winacl verify --policy policy.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := policy.Load(policyFile)
			if err != nil {
				return err
			}

			reports := policy.Verify(getBackend(), p)
			drifted := 0
			for _, r := range reports {
				if r.OK() {
					fmt.Fprintf(cmd.OutOrStdout(), "ok   %s\n", r.Path)
					continue
				}
				drifted++
				fmt.Fprintf(cmd.OutOrStdout(), "FAIL %s\n", r.Path)
				for _, p := range r.Problems {
					fmt.Fprintf(cmd.OutOrStdout(), "     %s\n", p)
				}
			}

			if drifted > 0 {
				return errors.New(i18n.T("msg.verify.drift"))
			}
			fmt.Fprintln(cmd.OutOrStdout(), i18n.T("msg.verify.ok"))
			return nil
		},
	}

	cmd.Flags().StringVarP(&policyFile, "policy", "p", "policy.yaml", "Policy file to verify against")
	return cmd
}
