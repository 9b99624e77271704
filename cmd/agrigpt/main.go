package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ASGawde/AgriGPT/ai/agent"
	"github.com/ASGawde/AgriGPT/ai/completion"
	"github.com/ASGawde/AgriGPT/ai/core/llm"
	"github.com/ASGawde/AgriGPT/ai/metrics"
	"github.com/ASGawde/AgriGPT/ai/rag"
	"github.com/ASGawde/AgriGPT/ai/router"
	"github.com/ASGawde/AgriGPT/internal/profile"
	"github.com/ASGawde/AgriGPT/internal/version"
	"github.com/ASGawde/AgriGPT/server"
	"github.com/ASGawde/AgriGPT/store"
	"github.com/ASGawde/AgriGPT/store/db/postgres"
	"github.com/ASGawde/AgriGPT/store/interactionlog"
)

var rootCmd = &cobra.Command{
	Use:   "agrigpt",
	Short: `A multi-agent agricultural advisory service. Ask farming questions by text or crop photo and get routed expert advice.`,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		// Only load .env for direct binary execution (not when running as
		// a systemd service, which supplies environment directly).
		if !isRunningAsSystemdService() {
			_ = godotenv.Load()
		}
		return nil
	},
	Run: func(_ *cobra.Command, _ []string) {
		instanceProfile := &profile.Profile{
			Mode:    viper.GetString("mode"),
			Addr:    viper.GetString("addr"),
			Port:    viper.GetInt("port"),
			Data:    viper.GetString("data"),
			Version: version.String(),
		}
		instanceProfile.FromEnv()
		if dsn := viper.GetString("dsn"); dsn != "" {
			instanceProfile.DSN = dsn
		}
		if err := instanceProfile.Validate(); err != nil {
			slog.Error("invalid configuration", "error", err)
			os.Exit(1)
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		manager, err := llm.NewManager(llm.Config{
			Provider: instanceProfile.LLMProvider,
			APIKey:   instanceProfile.LLMAPIKey,
			BaseURL:  instanceProfile.LLMBaseURL,
			Timeout:  instanceProfile.LLMTimeout,
		})
		if err != nil {
			slog.Error("failed to create LLM client manager", "error", err)
			os.Exit(1)
		}

		textService := completion.NewTextService(manager, completion.TextConfig{
			Model: instanceProfile.TextModel,
		})
		visionService := completion.NewVisionService(manager, completion.VisionConfig{
			Model: instanceProfile.VisionModel,
		})

		retriever, schemeStore := buildRetriever(ctx, instanceProfile)
		if schemeStore != nil {
			defer schemeStore.Close()
		}

		interactionLog, err := interactionlog.New(filepath.Join(instanceProfile.Data, "query_log.json"))
		if err != nil {
			slog.Error("failed to open interaction log", "error", err)
			os.Exit(1)
		}

		exporter := metrics.NewExporter()
		registry := agent.NewRegistry(textService, visionService, retriever, interactionLog)
		queryRouter := router.New(registry, textService, textService,
			router.WithMetrics(exporter))

		s, err := server.NewServer(ctx, instanceProfile, queryRouter,
			server.WithHistory(interactionLog),
			server.WithWeather(server.NewWeatherService(instanceProfile.OpenWeatherAPIKey)),
			server.WithHealthPinger(manager),
			server.WithMetrics(exporter),
		)
		if err != nil {
			slog.Error("failed to create server", "error", err)
			os.Exit(1)
		}

		c := make(chan os.Signal, 1)
		// The default signal sent by the `kill` command is SIGTERM, which is
		// taken as the graceful shutdown signal by most process managers.
		signal.Notify(c, terminationSignals...)

		if err := s.Start(ctx); err != nil {
			slog.Error("failed to start server", "error", err)
			os.Exit(1)
		}

		printGreetings(instanceProfile)

		go func() {
			<-c
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer shutdownCancel()
			s.Shutdown(shutdownCtx)
			cancel()
		}()

		<-ctx.Done()
	},
}

// buildRetriever wires the scheme database and embedding provider when both
// are configured. A nil retriever disables retrieval; the subsidy agent
// degrades to general-knowledge prompting.
func buildRetriever(ctx context.Context, instanceProfile *profile.Profile) (agent.SchemeRetriever, *store.Store) {
	if !instanceProfile.IsRetrievalEnabled() {
		slog.Info("scheme retrieval disabled", "reason", "no DSN or embedding key configured")
		return nil, nil
	}

	driver, err := postgres.NewDB(instanceProfile.DSN, instanceProfile.EmbeddingDimensions)
	if err != nil {
		slog.Warn("scheme database unavailable, retrieval disabled", "error", err)
		return nil, nil
	}

	schemeStore := store.New(driver)
	if err := schemeStore.Migrate(ctx); err != nil {
		slog.Warn("scheme database migration failed, retrieval disabled", "error", err)
		schemeStore.Close()
		return nil, nil
	}

	embedder, err := rag.NewEmbedder(rag.EmbeddingConfig{
		APIKey:     instanceProfile.EmbeddingAPIKey,
		BaseURL:    instanceProfile.EmbeddingBaseURL,
		Model:      instanceProfile.EmbeddingModel,
		Dimensions: instanceProfile.EmbeddingDimensions,
	})
	if err != nil {
		slog.Warn("embedding provider unavailable, retrieval disabled", "error", err)
		schemeStore.Close()
		return nil, nil
	}

	return rag.NewSchemeRetriever(embedder, schemeStore), schemeStore
}

func init() {
	viper.SetDefault("mode", "dev")
	viper.SetDefault("port", 28090)

	rootCmd.PersistentFlags().String("mode", "dev", `mode of server, can be "prod" or "dev" or "demo"`)
	rootCmd.PersistentFlags().String("addr", "", "address of server")
	rootCmd.PersistentFlags().Int("port", 28090, "port of server")
	rootCmd.PersistentFlags().String("data", "", "data directory")
	rootCmd.PersistentFlags().String("dsn", "", "scheme database source name (aka. DSN)")

	for _, flag := range []string{"mode", "addr", "port", "data", "dsn"} {
		if err := viper.BindPFlag(flag, rootCmd.PersistentFlags().Lookup(flag)); err != nil {
			panic(err)
		}
	}

	viper.SetEnvPrefix("agrigpt")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
}

func printGreetings(instanceProfile *profile.Profile) {
	fmt.Printf("AgriGPT %s started successfully!\n", instanceProfile.Version)

	if instanceProfile.IsDev() {
		fmt.Fprint(os.Stderr, "Development mode is enabled\n")
		if instanceProfile.DSN != "" {
			fmt.Fprintf(os.Stderr, "Scheme database: %s\n", instanceProfile.DSN)
		}
	}

	fmt.Printf("Data directory: %s\n", instanceProfile.Data)
	fmt.Printf("Mode: %s\n", instanceProfile.Mode)
	fmt.Printf("LLM provider: %s\n", instanceProfile.LLMProvider)

	if len(instanceProfile.Addr) == 0 {
		fmt.Printf("Server running on port %d\n", instanceProfile.Port)
		fmt.Printf("Access AgriGPT at: http://localhost:%d\n", instanceProfile.Port)
	} else {
		fmt.Printf("Server running on %s:%d\n", instanceProfile.Addr, instanceProfile.Port)
	}
}

// isRunningAsSystemdService detects if the process is running under systemd.
func isRunningAsSystemdService() bool {
	return os.Getenv("INVOCATION_ID") != "" || os.Getenv("WATCHDOG_USEC") != ""
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		panic(err)
	}
}
