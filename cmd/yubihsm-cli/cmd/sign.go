package cmd

import (
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yubihsm/scp03/commands"
	"github.com/yubihsm/scp03/message"
)

var (
	signKeyID uint16
	signData  string
	signAlgo  string
)

var signCmd = &cobra.Command{
	Use:   "sign",
	Short: "Sign data (or a digest, for ECDSA) with an asymmetric key",
	RunE: func(c *cobra.Command, args []string) error {
		data, err := hex.DecodeString(signData)
		if err != nil {
			return fmt.Errorf("--data must be hex: %w", err)
		}

		var tag message.Tag
		var payload []byte
		switch signAlgo {
		case "ed25519":
			tag = commands.TagSignDataEddsa
			payload = commands.SignDataEddsa(signKeyID, data)
		case "ecdsa":
			tag = commands.TagSignDataEcdsa
			payload = commands.SignDataEcdsa(signKeyID, data)
		default:
			return fmt.Errorf("unknown algorithm %q (want ed25519 or ecdsa)", signAlgo)
		}

		ctx, cancel := commandContext()
		defer cancel()

		mgr, key, err := openManager(ctx)
		if err != nil {
			return err
		}
		defer func() {
			_ = mgr.Close(ctx)
			key.Zero()
		}()

		reply, err := mgr.SendCommand(ctx, tag, payload)
		if err != nil {
			return err
		}

		fmt.Println(hex.EncodeToString(commands.ParseSignDataResponse(reply)))
		return nil
	},
}

func init() {
	signCmd.Flags().Uint16Var(&signKeyID, "key-id", 0, "Object ID of the signing key")
	signCmd.Flags().StringVar(&signData, "data", "", "Hex-encoded data (ed25519) or digest (ecdsa) to sign")
	signCmd.Flags().StringVar(&signAlgo, "algorithm", "ed25519", "Signing algorithm: ed25519 or ecdsa")
}
