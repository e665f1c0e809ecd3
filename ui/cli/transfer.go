// Copyright (c) 2026 winacl contributors
// winacl - Windows ACL and registry security toolkit
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/kburgoyne/winacl/internal/i18n"
	"github.com/kburgoyne/winacl/internal/snapshot"
)

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export [output-file]",
		Short: i18n.T("cli.export.short"),
		Long: `Dumps all recorded baselines into a Zstandard-compressed JSON file.

If an output file is specified, '.zst' will be appended to the name if it's
not already present. Without one, a default name of the form
'winacl-baselines-YYYY-MM-DD.json.zst' is used.

Examples:
  winacl export
  winacl export my-baselines.json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := requireStore()
			if err != nil {
				return err
			}

			var outputFile string
			if len(args) == 0 {
				outputFile = fmt.Sprintf("winacl-baselines-%s.json.zst", time.Now().Format("2006-01-02"))
			} else {
				outputFile = args[0]
				if !strings.HasSuffix(outputFile, ".zst") {
					outputFile += ".zst"
				}
			}

			baselines, err := st.GetAllBaselines()
			if err != nil {
				return err
			}
			if err := snapshot.WriteFile(outputFile, baselines); err != nil {
				return err
			}
			logAction("export", outputFile)
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s (%d)\n", i18n.T("msg.export.done"), outputFile, len(baselines))
			return nil
		},
	}
	return cmd
}

func newImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <input-file>",
		Short: i18n.T("cli.import.short"),
		Long: `Loads baselines from a snapshot created by 'winacl export'. Imported
baselines replace any recorded baseline for the same path.

Example:
  winacl import winacl-baselines-2026-08-25.json.zst`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := requireStore()
			if err != nil {
				return err
			}

			data, err := snapshot.ReadFile(args[0])
			if err != nil {
				return err
			}
			for _, b := range data.Baselines {
				if _, err := st.SaveBaseline(b.Path, b.ObjectType, b.Descriptor); err != nil {
					return fmt.Errorf("import %s: %w", b.Path, err)
				}
			}
			logAction("import", args[0])
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%d)\n", i18n.T("msg.import.done"), len(data.Baselines))
			return nil
		},
	}
	return cmd
}
