package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rosehollow/cookbook/backend/internal/admin"
	"github.com/rosehollow/cookbook/backend/internal/backup"
	"github.com/rosehollow/cookbook/backend/internal/config"
	"github.com/rosehollow/cookbook/backend/internal/database"
	"github.com/rosehollow/cookbook/backend/internal/logging"
	"github.com/rosehollow/cookbook/backend/internal/recipes"
	"github.com/rosehollow/cookbook/backend/internal/server"
	"github.com/rosehollow/cookbook/backend/internal/store"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var (
	cfgFile string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "cookbook-api",
		Short: "Cookbook backend service",
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context())
		},
	}

	setupFlags(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setupFlags(cmd *cobra.Command) {
	config.ApplyDefaults(viper.GetViper())
	defaults := config.NewViper()
	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to configuration file")
	cmd.PersistentFlags().String("http-address", defaults.GetString("http.address"), "HTTP listen address")
	cmd.PersistentFlags().String("primary-url", defaults.GetString("primary.url"), "Primary store base URL")
	cmd.PersistentFlags().String("primary-table", defaults.GetString("primary.table"), "Primary store table name")
	cmd.PersistentFlags().String("backup-url", defaults.GetString("backup.url"), "Backup store base URL")
	cmd.PersistentFlags().String("backup-table", defaults.GetString("backup.table"), "Backup store table name")
	cmd.PersistentFlags().Int("backup-batch-size", defaults.GetInt("backup.batch_size"), "Records per backup batch")
	cmd.PersistentFlags().String("session-db-path", defaults.GetString("session.db_path"), "SQLite session database path")
	cmd.PersistentFlags().Int("session-ttl-minutes", defaults.GetInt("session.ttl_minutes"), "Admin session TTL in minutes")
	cmd.PersistentFlags().String("admin-username", defaults.GetString("admin.username"), "Admin username")
	cmd.PersistentFlags().String("log-level", defaults.GetString("log.level"), "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().String("signing-secret", "", "Token signing secret (overrides env)")

	bindFlag(cmd, "http.address", "http-address")
	bindFlag(cmd, "primary.url", "primary-url")
	bindFlag(cmd, "primary.table", "primary-table")
	bindFlag(cmd, "backup.url", "backup-url")
	bindFlag(cmd, "backup.table", "backup-table")
	bindFlag(cmd, "backup.batch_size", "backup-batch-size")
	bindFlag(cmd, "session.db_path", "session-db-path")
	bindFlag(cmd, "session.ttl_minutes", "session-ttl-minutes")
	bindFlag(cmd, "admin.username", "admin-username")
	bindFlag(cmd, "log.level", "log-level")
	bindFlag(cmd, "auth.signing_secret", "signing-secret")
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

func runServer(ctx context.Context) error {
	appConfig, err := config.Load(viper.GetViper())
	if err != nil {
		return err
	}

	logger, err := logging.NewLogger(appConfig.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	db, err := database.OpenSQLite(appConfig.SessionDBPath, logger)
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	markers, err := admin.NewMarkerStore(db)
	if err != nil {
		return err
	}

	guard, err := admin.NewGuard(admin.GuardConfig{
		Credentials: admin.Credentials{
			Username: appConfig.AdminUsername,
			Password: appConfig.AdminPassword,
		},
		Markers:    markers,
		SessionTTL: appConfig.SessionTTL,
		Clock:      time.Now,
		Logger:     logger,
	})
	if err != nil {
		return err
	}
	guard.RestoreSession()

	tokens := admin.NewTokenIssuer(admin.TokenIssuerConfig{
		SigningSecret: []byte(appConfig.SigningSecret),
		Issuer:        "cookbook-auth",
		Audience:      "cookbook-api",
	})

	primaryStore, err := store.NewClient(store.ClientConfig{
		BaseURL: appConfig.PrimaryURL,
		APIKey:  appConfig.PrimaryKey,
		Table:   appConfig.PrimaryTable,
		Logger:  logger,
	})
	if err != nil {
		return err
	}

	backupStore, err := store.NewClient(store.ClientConfig{
		BaseURL: appConfig.BackupURL,
		APIKey:  appConfig.BackupKey,
		Table:   appConfig.BackupTable,
		Logger:  logger,
	})
	if err != nil {
		return err
	}

	repository, err := recipes.NewRepository(recipes.RepositoryConfig{
		Store:  primaryStore,
		Logger: logger,
	})
	if err != nil {
		return err
	}

	loadCtx, cancelLoad := context.WithTimeout(ctx, 30*time.Second)
	if _, err := repository.LoadAll(loadCtx); err != nil {
		logger.Warn("initial recipe load failed", zap.Error(err))
	}
	cancelLoad()

	synchronizer, err := backup.NewSynchronizer(backup.SynchronizerConfig{
		Repository: repository,
		Store:      backupStore,
		BatchSize:  appConfig.BackupBatchSize,
		BatchPause: appConfig.BackupPause,
		Clock:      time.Now,
		Logger:     logger,
	})
	if err != nil {
		return err
	}

	handler, err := server.NewHTTPHandler(server.Dependencies{
		Repository:   repository,
		Synchronizer: synchronizer,
		Guard:        guard,
		Tokens:       tokens,
		Logger:       logger,
	})
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:    appConfig.HTTPAddress,
		Handler: handler,
	}

	signalCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", zap.String("address", appConfig.HTTPAddress))
		err := httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-signalCtx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
