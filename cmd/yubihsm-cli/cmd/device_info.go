package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yubihsm/scp03/commands"
)

var deviceInfoCmd = &cobra.Command{
	Use:   "device-info",
	Short: "Print the connected HSM's firmware version and log store status",
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

		payload, err := mgr.SendCommand(ctx, commands.TagDeviceInfo, commands.DeviceInfo())
		if err != nil {
			return err
		}

		info, err := commands.ParseDeviceInfoResponse(payload)
		if err != nil {
			return err
		}
		fmt.Printf("version: %d.%d.%d\nserial: %d\nlog store: %d/%d used\n",
			info.VersionMajor, info.VersionMinor, info.VersionPatch,
			info.SerialNumber,
			info.LogStoreUsed, info.LogStoreSize)
		return nil
	},
}
