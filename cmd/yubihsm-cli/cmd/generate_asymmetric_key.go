package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yubihsm/scp03/commands"
)

var (
	generateKeyID      uint16
	generateKeyLabel   string
	generateKeyAlgo    string
	generateKeyDomains uint16
)

var generateAsymmetricKeyCmd = &cobra.Command{
	Use:   "generate-asymmetric-key",
	Short: "Generate a new asymmetric key pair inside the HSM",
	RunE: func(c *cobra.Command, args []string) error {
		algo, err := parseAlgorithm(generateKeyAlgo)
		if err != nil {
			return err
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

		payload, err := commands.GenerateAsymmetricKey(
			generateKeyID,
			[]byte(generateKeyLabel),
			generateKeyDomains,
			commands.CapabilityAsymmetricSignEddsa|commands.CapabilityAsymmetricSignEcdsa,
			algo,
		)
		if err != nil {
			return err
		}

		reply, err := mgr.SendCommand(ctx, commands.TagGenerateAsymmetricKey, payload)
		if err != nil {
			return err
		}

		resp, err := commands.ParseGenerateAsymmetricKeyResponse(reply)
		if err != nil {
			return err
		}
		fmt.Printf("generated key %d\n", resp.KeyID)
		return nil
	},
}

func parseAlgorithm(name string) (commands.Algorithm, error) {
	switch name {
	case "ed25519":
		return commands.AlgorithmED25519, nil
	case "p256":
		return commands.AlgorithmP256, nil
	case "secp256k1":
		return commands.AlgorithmSecp256k1, nil
	default:
		return 0, fmt.Errorf("unknown algorithm %q (want ed25519, p256, or secp256k1)", name)
	}
}

func init() {
	generateAsymmetricKeyCmd.Flags().Uint16Var(&generateKeyID, "key-id", 0, "Object ID to assign the new key (0 lets the HSM choose)")
	generateAsymmetricKeyCmd.Flags().StringVar(&generateKeyLabel, "label", "", "Key label")
	generateAsymmetricKeyCmd.Flags().StringVar(&generateKeyAlgo, "algorithm", "ed25519", "Key algorithm: ed25519, p256, or secp256k1")
	generateAsymmetricKeyCmd.Flags().Uint16Var(&generateKeyDomains, "domains", commands.Domain1, "Domain bitmask the key is usable in")
}
