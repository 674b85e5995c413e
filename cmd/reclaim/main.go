package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/reclaimhq/reclaim/internal/profile"
	"github.com/reclaimhq/reclaim/plugin/ai"
	"github.com/reclaimhq/reclaim/server"
	"github.com/reclaimhq/reclaim/server/matcher"
	"github.com/reclaimhq/reclaim/server/notifier"
	"github.com/reclaimhq/reclaim/server/service/matching"
	"github.com/reclaimhq/reclaim/store"
	"github.com/reclaimhq/reclaim/store/db"
)

var version = "0.1.0"

var rootCmd = &cobra.Command{
	Use:   "reclaim",
	Short: "A lost & found item matching and notification service",
	Run: func(_ *cobra.Command, _ []string) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		instanceProfile := &profile.Profile{
			Mode:        viper.GetString("mode"),
			Addr:        viper.GetString("addr"),
			Port:        viper.GetInt("port"),
			Data:        viper.GetString("data"),
			Driver:      viper.GetString("driver"),
			DSN:         viper.GetString("dsn"),
			InstanceURL: viper.GetString("instance-url"),
			Version:     version,
		}
		instanceProfile.FromEnv()
		if err := instanceProfile.Validate(); err != nil {
			slog.Error("invalid configuration", "error", err)
			os.Exit(1)
		}

		dbDriver, err := db.NewDBDriver(instanceProfile)
		if err != nil {
			slog.Error("failed to create db driver", "error", err)
			os.Exit(1)
		}

		storeInstance := store.New(dbDriver, instanceProfile)
		if err := storeInstance.Migrate(ctx); err != nil {
			slog.Error("failed to migrate database", "error", err)
			os.Exit(1)
		}

		scorer, err := buildScorer(instanceProfile)
		if err != nil {
			slog.Error("failed to build scorer", "error", err)
			os.Exit(1)
		}
		slog.Info("scoring strategy selected", "strategy", scorer.Name(), "threshold", scorer.Threshold())

		matchNotifier := notifier.New(storeInstance, buildSender(instanceProfile), instanceProfile.NotifyThreshold)
		matchingService := matching.NewService(instanceProfile, storeInstance, matcher.NewRanker(scorer), matchNotifier)

		s, err := server.NewServer(ctx, instanceProfile, storeInstance, matchingService)
		if err != nil {
			slog.Error("failed to create server", "error", err)
			os.Exit(1)
		}

		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt, syscall.SIGTERM)
		go func() {
			sig := <-c
			slog.Info("received signal, shutting down", "signal", sig.String())
			s.Shutdown(ctx)
			cancel()
		}()

		printGreeting(instanceProfile)
		if err := s.Start(ctx); err != nil {
			slog.Error("failed to start server", "error", err)
			cancel()
		}

		<-ctx.Done()
	},
}

func buildScorer(p *profile.Profile) (matcher.Scorer, error) {
	if !p.UseSemanticScoring() {
		return matcher.NewLexicalScorer(), nil
	}

	cfg := ai.NewEmbeddingConfigFromProfile(p)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	embeddingService, err := ai.NewEmbeddingService(cfg)
	if err != nil {
		return nil, err
	}
	return matcher.NewSemanticScorer(embeddingService), nil
}

func buildSender(p *profile.Profile) notifier.Sender {
	if p.SMTPHost != "" {
		return notifier.NewSMTPSender(notifier.SMTPConfig{
			Host:     p.SMTPHost,
			Port:     p.SMTPPort,
			Username: p.SMTPUsername,
			Password: p.SMTPPassword,
			From:     p.SMTPFrom,
		})
	}
	if p.WebhookURL != "" {
		return notifier.NewWebhookSender(notifier.WebhookConfig{
			URL: p.WebhookURL,
		})
	}
	slog.Warn("no delivery backend configured, notifications go to the log only")
	return notifier.NewLogSender()
}

func printGreeting(p *profile.Profile) {
	fmt.Printf("reclaim v%s, mode %s, driver %s\n", p.Version, p.Mode, p.Driver)
	fmt.Printf("listening on %s:%d\n", p.Addr, p.Port)
}

func init() {
	rootCmd.PersistentFlags().String("mode", "demo", `mode of server, can be "prod" or "dev" or "demo"`)
	rootCmd.PersistentFlags().String("addr", "", "address of server")
	rootCmd.PersistentFlags().Int("port", 8081, "port of server")
	rootCmd.PersistentFlags().String("data", "", "data directory")
	rootCmd.PersistentFlags().String("driver", "sqlite", "database driver")
	rootCmd.PersistentFlags().String("dsn", "", "database source name (aka. DSN)")
	rootCmd.PersistentFlags().String("instance-url", "", "the url of your reclaim instance")

	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		panic(err)
	}

	viper.SetDefault("mode", "demo")
	viper.SetDefault("driver", "sqlite")
	viper.SetDefault("port", 8081)
	viper.SetEnvPrefix("reclaim")
	viper.AutomaticEnv()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		panic(err)
	}
}
