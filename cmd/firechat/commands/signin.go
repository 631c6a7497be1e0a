package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tuongmengleang/firechat/internal/services/identity"
)

// signin [--name NAME]: sign in anonymously and publish the identity key.
func signinCmd() *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "signin",
		Short: "Sign in anonymously and publish your public key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, existing, err := wire.Accounts.CurrentUser(cmd.Context())
			if err != nil {
				return err
			}
			if !existing {
				// A new key store gets a strong passphrase.
				if err := identity.CheckPassphrase(cfg.Passphrase); err != nil {
					return err
				}
			}
			if name == "" {
				name = cfg.DisplayName
			}
			acct, err := wire.SignIn(cmd.Context(), name)
			if err != nil {
				return err
			}
			fp, err := wire.Identity.Fingerprint()
			if err != nil {
				return err
			}
			fmt.Printf("Signed in as %s (%s)\n", acct.UserID, acct.DisplayName)
			fmt.Printf("Fingerprint: %s\n", fp)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "display name shown to peers")
	return withPassphrase(cmd)
}
