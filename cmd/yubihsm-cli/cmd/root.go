// Package cmd implements the yubihsm-cli command tree: thin wrappers
// around session.Manager for manually exercising a connector, config via
// viper (flags/env/file), logging via a devlog-backed slog.Logger.
package cmd

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"hermannm.dev/devlog"

	"github.com/yubihsm/scp03/authkey"
	"github.com/yubihsm/scp03/session"
	"github.com/yubihsm/scp03/transport"
)

var logLevel slog.LevelVar

var rootCmd = &cobra.Command{
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
	Use:   "yubihsm-cli",
	Short: "Command-line client for an SCP03-secured HSM connector",
}

// Execute adds all child commands to the root command and runs it. It is
// called once by main.main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	slog.SetDefault(slog.New(devlog.NewHandler(os.Stdout, &devlog.Options{
		Level: &logLevel,
	})))

	rootCmd.PersistentFlags().String("connector", "127.0.0.1:12345", "Connector host:port")
	rootCmd.PersistentFlags().Uint16("auth-key-id", 1, "Authentication key object ID")
	rootCmd.PersistentFlags().String("password", "", "Authentication key password")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().Duration("timeout", transport.DefaultTimeout, "Transport round-trip timeout")

	viper.BindPFlag("connector", rootCmd.PersistentFlags().Lookup("connector"))
	viper.BindPFlag("auth-key-id", rootCmd.PersistentFlags().Lookup("auth-key-id"))
	viper.BindPFlag("password", rootCmd.PersistentFlags().Lookup("password"))
	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("timeout", rootCmd.PersistentFlags().Lookup("timeout"))
	viper.SetEnvPrefix("yubihsm")
	viper.AutomaticEnv()
	viper.SetConfigName(".yubihsm")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("$HOME")
	_ = viper.ReadInConfig()

	rootCmd.AddCommand(deviceInfoCmd, echoCmd, generateAsymmetricKeyCmd, signCmd, resetCmd)
}

// openManager reads the bound connector/auth-key-id/password/timeout
// flags, performs the SCP03 handshake, and returns a ready session.Manager
// together with the AuthenticationKey it holds. The caller owns the
// key's lifetime: it must call key.Zero() once the manager has been
// closed and is no longer needed, since the manager keeps its own
// reference alive to re-derive session keys across reconnects.
func openManager(ctx context.Context) (*session.Manager, *authkey.AuthenticationKey, error) {
	if viper.GetBool("debug") {
		logLevel.Set(slog.LevelDebug)
	}

	connectorAddr := viper.GetString("connector")
	authKeyID := uint16(viper.GetUint("auth-key-id"))
	password := viper.GetString("password")
	timeout := viper.GetDuration("timeout")
	if timeout <= 0 {
		timeout = transport.DefaultTimeout
	}

	httpTransport := transport.NewHTTP(connectorAddr)
	httpTransport.Client.Timeout = timeout

	key := authkey.FromPassword(password)

	slog.Debug("opening session", "connector", connectorAddr, "authKeyID", authKeyID)
	mgr, err := session.Open(ctx, httpTransport, authKeyID, key, session.WithReconnectPolicy(session.ReconnectOnTimeoutOrDeviceSessionError))
	if err != nil {
		key.Zero()
		return nil, nil, err
	}
	return mgr, key, nil
}

func commandContext() (context.Context, context.CancelFunc) {
	timeout := viper.GetDuration("timeout")
	if timeout <= 0 {
		timeout = transport.DefaultTimeout
	}
	return context.WithTimeout(context.Background(), timeout)
}
