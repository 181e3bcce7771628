package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// version is stamped at build time with -ldflags "-X main.version=...".
var version = "dev"

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "pagecraft",
		Short: "Apply plain-language formatting instructions to HTML or text",
		Long: `pagecraft turns an instruction such as "add navigation" or
"convert to table" into an edit of an HTML document or plain text.

Example:
  pagecraft transform lesson.html -i "Add top navigation and a blue theme"
  echo "Hello - World" | pagecraft transform -i "convert to table"`,
		SilenceUsage: true,
	}
	root.AddCommand(newTransformCmd(), newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "pagecraft "+version)
		},
	}
}
