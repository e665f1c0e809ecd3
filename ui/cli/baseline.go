// Copyright (c) 2026 winacl contributors
// winacl - Windows ACL and registry security toolkit
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"

	"github.com/kburgoyne/winacl/internal/i18n"
	"github.com/kburgoyne/winacl/internal/model"
	"github.com/kburgoyne/winacl/internal/winsec"
)

func newBaselineCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "baseline",
		Short: i18n.T("cli.baseline.short"),
	}
	cmd.AddCommand(
		newBaselineSaveCmd(),
		newBaselineCheckCmd(),
		newBaselineListCmd(),
		newBaselineRmCmd(),
	)
	return cmd
}

func newBaselineSaveCmd() *cobra.Command {
	var objectFlag string

	cmd := &cobra.Command{
		Use:   "save <path>",
		Short: i18n.T("cli.baseline.save.short"),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := requireStore()
			if err != nil {
				return err
			}
			objType, err := winsec.ParseObjectType(objectFlag)
			if err != nil {
				return err
			}

			sd, err := winsec.GetSecurity(getBackend(), args[0], objType, winsec.SectionAll)
			if err != nil {
				return err
			}
			data, err := yaml.Marshal(sd)
			if err != nil {
				return err
			}

			id, err := st.SaveBaseline(args[0], objType.String(), string(data))
			if err != nil {
				return err
			}
			logAction("baseline-save", args[0])
			fmt.Fprintf(cmd.OutOrStdout(), "%s (#%d)\n", i18n.T("msg.baseline.saved"), id)
			return nil
		},
	}

	cmd.Flags().StringVarP(&objectFlag, "object", "o", "file", "Object type: file or registry")
	return cmd
}

func newBaselineCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check <path>",
		Short: i18n.T("cli.baseline.check.short"),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := requireStore()
			if err != nil {
				return err
			}
			b, err := st.GetBaseline(args[0])
			if err != nil {
				return err
			}
			if b == nil {
				return errors.New(i18n.T("msg.baseline.none"))
			}

			var recorded model.SecurityDescriptor
			if err := yaml.Unmarshal([]byte(b.Descriptor), &recorded); err != nil {
				return fmt.Errorf("parse recorded baseline: %w", err)
			}

			objType, err := winsec.ParseObjectType(b.ObjectType)
			if err != nil {
				return err
			}
			current, err := winsec.GetSecurity(getBackend(), args[0], objType, winsec.SectionAll)
			if err != nil {
				return err
			}

			if !descriptorsEqual(current, &recorded) {
				fmt.Fprintf(cmd.OutOrStdout(), "recorded %s:\n%s\ncurrent:\n", b.CapturedAt.Format("2006-01-02 15:04"), b.Descriptor)
				if out, rerr := renderDescriptor(current, false); rerr == nil {
					fmt.Fprint(cmd.OutOrStdout(), out)
				}
				return errors.New(i18n.T("msg.baseline.drift"))
			}
			fmt.Fprintln(cmd.OutOrStdout(), i18n.T("msg.baseline.match"))
			return nil
		},
	}
	return cmd
}

func newBaselineListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: i18n.T("cli.baseline.list.short"),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := requireStore()
			if err != nil {
				return err
			}
			baselines, err := st.GetAllBaselines()
			if err != nil {
				return err
			}
			for _, b := range baselines {
				fmt.Fprintf(cmd.OutOrStdout(), "#%d\t%s\t%s\t%s\n",
					b.ID, b.ObjectType, b.Path, b.CapturedAt.Format("2006-01-02 15:04"))
			}
			return nil
		},
	}
}

func newBaselineRmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <id>",
		Short: i18n.T("cli.baseline.rm.short"),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := requireStore()
			if err != nil {
				return err
			}
			id, err := strconv.Atoi(strings.TrimPrefix(args[0], "#"))
			if err != nil {
				return fmt.Errorf("invalid baseline id %q", args[0])
			}
			if err := st.DeleteBaseline(id); err != nil {
				return err
			}
			logAction("baseline-rm", args[0])
			fmt.Fprintln(cmd.OutOrStdout(), i18n.T("msg.baseline.deleted"))
			return nil
		},
	}
}

// descriptorsEqual compares two descriptors semantically: owner and group
// case-insensitively, explicit rules as an unordered multiset.
func descriptorsEqual(a, b *model.SecurityDescriptor) bool {
	if !strings.EqualFold(a.Owner, b.Owner) || !strings.EqualFold(a.Group, b.Group) {
		return false
	}
	ar, br := a.ExplicitRules(), b.ExplicitRules()
	if len(ar) != len(br) {
		return false
	}
	return a.ContainsRules(br) && b.ContainsRules(ar)
}
