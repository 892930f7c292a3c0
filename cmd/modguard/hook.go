// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"modguard/internal/ci"
)

var hookCmd = &cobra.Command{
	Use:   "hook",
	Short: "Print a pre-commit hook configuration",
	Long: `Hook prints a .pre-commit-config.yaml stanza that runs the scan
before every commit. Pipe it into your config or copy the entry:

  modguard hook >> .pre-commit-config.yaml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Fprint(cmd.OutOrStdout(), ci.SampleConfig(ci.DefaultHook()))
		return nil
	},
}
