package main

import (
	"errors"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/kindredhq/hearth/internal/client"
	"github.com/kindredhq/hearth/internal/config"
	"github.com/kindredhq/hearth/internal/database"
	"github.com/kindredhq/hearth/internal/logging"
	"github.com/kindredhq/hearth/internal/mirror"
)

var (
	cfgFile string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "hearth",
		Short: "Household tracker device CLI",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
	}

	setupFlags(rootCmd)

	rootCmd.AddCommand(
		newCalendarCommand(),
		newTodayCommand(),
		newSummaryCommand(),
		newStreakCommand(),
		newLogCommand(),
		newSyncCommand(),
		newExportCommand(),
		newWatchCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setupFlags(cmd *cobra.Command) {
	config.ApplyDefaults(viper.GetViper())
	defaults := config.NewViper()
	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to configuration file")
	cmd.PersistentFlags().String("server-url", "", "Household server base URL")
	cmd.PersistentFlags().String("account-id", "", "Household account identifier")
	cmd.PersistentFlags().String("device-id", "", "This device's identifier")
	cmd.PersistentFlags().String("join-code", "", "Household join code (overrides env)")
	cmd.PersistentFlags().String("mirror-path", defaults.GetString("device.mirror_path"), "Device mirror database path")
	cmd.PersistentFlags().Duration("sync-interval", defaults.GetDuration("device.sync_interval"), "Interval between sync passes in watch mode")
	cmd.PersistentFlags().String("log-level", defaults.GetString("log.level"), "Log level (debug, info, warn, error)")

	bindFlag(cmd, "device.server_url", "server-url")
	bindFlag(cmd, "device.account_id", "account-id")
	bindFlag(cmd, "device.device_id", "device-id")
	bindFlag(cmd, "device.join_code", "join-code")
	bindFlag(cmd, "device.mirror_path", "mirror-path")
	bindFlag(cmd, "device.sync_interval", "sync-interval")
	bindFlag(cmd, "log.level", "log-level")
}

func bindFlag(cmd *cobra.Command, key, flag string) {
	if err := viper.BindPFlag(key, cmd.PersistentFlags().Lookup(flag)); err != nil {
		panic(err)
	}
}

func initConfig() error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}

	if err := viper.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if cfgFile != "" && errors.As(err, &configNotFound) {
			return err
		}
	}

	return nil
}

// app bundles the pieces every subcommand needs. Commands that never talk to
// the server leave the client nil.
type app struct {
	config config.DeviceConfig
	logger *zap.Logger
	db     *gorm.DB
	store  *mirror.Store
}

func newApp() (*app, error) {
	deviceConfig, err := config.LoadDevice(viper.GetViper())
	if err != nil {
		return nil, err
	}

	logger, err := logging.NewConsoleLogger(deviceConfig.LogLevel)
	if err != nil {
		return nil, err
	}

	db, err := database.OpenMirrorSQLite(deviceConfig.MirrorPath, logger)
	if err != nil {
		return nil, err
	}

	store, err := mirror.NewStore(mirror.StoreConfig{
		Database: db,
		Logger:   logger,
	})
	if err != nil {
		return nil, err
	}

	return &app{
		config: deviceConfig,
		logger: logger,
		db:     db,
		store:  store,
	}, nil
}

func (a *app) close() {
	if sqlDB, err := a.db.DB(); err == nil {
		sqlDB.Close() //nolint:errcheck
	}
	a.logger.Sync() //nolint:errcheck
}

func (a *app) newRemote() (*client.Client, error) {
	if a.config.ServerURL == "" {
		return nil, errors.New("device.server_url is required for sync")
	}
	return client.New(client.Config{
		BaseURL: a.config.ServerURL,
		Logger:  a.logger,
	})
}
