package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ASGawde/AgriGPT/ai/rag"
	"github.com/ASGawde/AgriGPT/internal/profile"
	"github.com/ASGawde/AgriGPT/store"
	"github.com/ASGawde/AgriGPT/store/db/postgres"
)

var seedCmd = &cobra.Command{
	Use:   "seed <subsidies.json>",
	Short: "Load official subsidy scheme records into the scheme database",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		instanceProfile := &profile.Profile{
			Mode: viper.GetString("mode"),
			Data: viper.GetString("data"),
		}
		instanceProfile.FromEnv()
		if dsn := viper.GetString("dsn"); dsn != "" {
			instanceProfile.DSN = dsn
		}
		if err := instanceProfile.Validate(); err != nil {
			return err
		}
		if !instanceProfile.IsRetrievalEnabled() {
			return fmt.Errorf("seeding requires a DSN and an embedding API key")
		}

		ctx := context.Background()

		driver, err := postgres.NewDB(instanceProfile.DSN, instanceProfile.EmbeddingDimensions)
		if err != nil {
			return fmt.Errorf("open scheme database: %w", err)
		}
		schemeStore := store.New(driver)
		defer schemeStore.Close()

		if err := schemeStore.Migrate(ctx); err != nil {
			return fmt.Errorf("migrate scheme database: %w", err)
		}

		embedder, err := rag.NewEmbedder(rag.EmbeddingConfig{
			APIKey:     instanceProfile.EmbeddingAPIKey,
			BaseURL:    instanceProfile.EmbeddingBaseURL,
			Model:      instanceProfile.EmbeddingModel,
			Dimensions: instanceProfile.EmbeddingDimensions,
		})
		if err != nil {
			return fmt.Errorf("create embedder: %w", err)
		}

		n, err := rag.NewSeeder(embedder, schemeStore).SeedFromFile(ctx, args[0])
		if err != nil {
			return err
		}
		slog.Info("scheme database seeded", "schemes", n, "source", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
}
