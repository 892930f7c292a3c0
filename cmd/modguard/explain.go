// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"modguard/internal/issue"
)

var explainCmd = &cobra.Command{
	Use:   "explain <topic>",
	Short: "Explain a conflict topic in depth",
	Long: `Explain renders a guide for one of the tool's topics: what the
condition means, why it matters, and how to resolve it.

Available topics: ` + strings.Join(issue.Topics(), ", "),
	Args:      cobra.ExactArgs(1),
	ValidArgs: issue.Topics(),
	RunE: func(cmd *cobra.Command, args []string) error {
		topic := args[0]
		guide, ok := issue.ByTopic(topic)
		if !ok {
			return fmt.Errorf("unknown topic %q (available: %s)", topic, strings.Join(issue.Topics(), ", "))
		}

		rendered, err := guide.Render("auto")
		if err != nil {
			return fmt.Errorf("render guide: %w", err)
		}
		fmt.Fprint(cmd.OutOrStdout(), rendered)
		return nil
	},
}
