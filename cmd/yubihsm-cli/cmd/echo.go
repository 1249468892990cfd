package cmd

import (
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yubihsm/scp03/commands"
)

var echoData string

var echoCmd = &cobra.Command{
	Use:   "echo",
	Short: "Send data to the HSM and print what it echoes back",
	RunE: func(c *cobra.Command, args []string) error {
		data, err := hex.DecodeString(echoData)
		if err != nil {
			return fmt.Errorf("--data must be hex: %w", err)
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

		payload, err := mgr.SendCommand(ctx, commands.TagEcho, commands.Echo(data))
		if err != nil {
			return err
		}

		fmt.Println(hex.EncodeToString(commands.ParseEchoResponse(payload)))
		return nil
	},
}

func init() {
	echoCmd.Flags().StringVar(&echoData, "data", "", "Hex-encoded data to echo")
}
