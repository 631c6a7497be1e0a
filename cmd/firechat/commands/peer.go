package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tuongmengleang/firechat/internal/crypto"
	"github.com/tuongmengleang/firechat/internal/domain"
)

// peer <user-id>: show a peer's directory record and key fingerprint.
func peerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "peer <user-id>",
		Short: "Show a peer's published public key fingerprint",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := domain.UserID(args[0])
			rec, found, err := wire.Directory.LookupRecord(cmd.Context(), id)
			if err != nil {
				return err
			}
			if !found {
				return fmt.Errorf("%w: %s", domain.ErrPublicKeyNotFound, id)
			}
			pub, err := wire.Directory.GetPublicKey(cmd.Context(), id)
			if err != nil {
				return err
			}
			fmt.Printf("User:        %s\n", rec.UserID)
			fmt.Printf("Name:        %s\n", rec.DisplayName)
			fmt.Printf("Fingerprint: %s\n", crypto.Fingerprint(pub.Bytes()))
			return nil
		},
	}
}
