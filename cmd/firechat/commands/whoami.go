package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func whoamiCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Print your user id and identity fingerprint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			acct, err := wire.Resume(cmd.Context())
			if err != nil {
				return err
			}
			fp, err := wire.Identity.Fingerprint()
			if err != nil {
				return err
			}
			fmt.Printf("User:        %s\n", acct.UserID)
			fmt.Printf("Name:        %s\n", acct.DisplayName)
			fmt.Printf("Fingerprint: %s\n", fp)
			return nil
		},
	}
	return withPassphrase(cmd)
}
