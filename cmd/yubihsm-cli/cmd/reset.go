package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yubihsm/scp03/commands"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reboot the HSM, invalidating the current session",
	RunE: func(c *cobra.Command, args []string) error {
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

		// The HSM reboots without replying, so the connector round-trip
		// here is expected to fail or time out; a response is not the
		// signal that reset succeeded.
		_, err = mgr.SendCommand(ctx, commands.TagReset, commands.Reset())
		if err != nil {
			fmt.Println("reset sent (no response expected)")
			return nil
		}
		fmt.Println("reset sent")
		return nil
	},
}
