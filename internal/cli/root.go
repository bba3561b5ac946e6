// Package cli is the waitlist command line client. It drives the same form
// controller a browser dialog would and prints each state change.
package cli

import (
	"github.com/spf13/cobra"
)

const defaultEndpoint = "http://localhost:8080"

// NewRootCommand builds a fresh command tree so tests can run it in isolation.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "waitlist",
		Short:         "Join the Pocketly waitlist from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().String("endpoint", defaultEndpoint, "site root serving /api/waitlist")
	root.PersistentFlags().String("lang", "", "message language (en, fr); defaults to $LANG")

	root.AddCommand(newSubscribeCommand())
	return root
}

func Execute() error {
	return NewRootCommand().Execute()
}
