package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hrygo/notescopilot/ai/metrics"
	"github.com/hrygo/notescopilot/internal/logging"
	"github.com/hrygo/notescopilot/internal/profile"
	"github.com/hrygo/notescopilot/internal/version"
	"github.com/hrygo/notescopilot/server"
	"github.com/hrygo/notescopilot/store"
	"github.com/hrygo/notescopilot/store/db"
)

var (
	rootCmd = &cobra.Command{
		Use:   "notescopilot",
		Short: `A notes service that summarizes, tags and plans follow-ups for every note, with semantic search.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Systemd units provide their environment through EnvironmentFile.
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
				Driver:  viper.GetString("driver"),
				DSN:     viper.GetString("dsn"),
				Version: version.GetCurrentVersion(viper.GetString("mode")),
			}
			instanceProfile.FromEnv()
			logging.Setup(os.Stdout, instanceProfile.LogLevel, instanceProfile.Mode)
			if err := instanceProfile.Validate(); err != nil {
				fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
				os.Exit(1)
			}

			ctx, cancel := context.WithCancel(context.Background())
			dbDriver, err := db.NewDBDriver(instanceProfile)
			if err != nil {
				cancel()
				printDatabaseError(err, instanceProfile)
				slog.Error("failed to create db driver", "error", err)
				return
			}

			exporter := metrics.NewPrometheusExporter(metrics.Config{IncludeRuntime: true})
			storeInstance := store.New(dbDriver, instanceProfile, store.WithSkipRecorder(exporter))
			if err := storeInstance.Migrate(ctx); err != nil {
				cancel()
				slog.Error("failed to migrate", "error", err)
				return
			}

			s, err := server.NewServer(ctx, instanceProfile, storeInstance, server.WithMetrics(exporter))
			if err != nil {
				cancel()
				slog.Error("failed to create server", "error", err)
				return
			}

			c := make(chan os.Signal, 1)
			// Trigger graceful shutdown on SIGINT or SIGTERM.
			signal.Notify(c, terminationSignals...)

			if err := s.Start(ctx); err != nil {
				cancel()
				slog.Error("failed to start server", "error", err)
				return
			}

			printGreetings(instanceProfile)

			go func() {
				<-c
				s.Shutdown(ctx)
				cancel()
			}()

			// Wait for CTRL-C.
			<-ctx.Done()
		},
	}
)

func init() {
	viper.SetDefault("mode", "dev")
	viper.SetDefault("driver", "sqlite")
	viper.SetDefault("port", 8000)

	rootCmd.PersistentFlags().String("mode", "dev", `mode of server, can be "prod" or "dev" or "demo"`)
	rootCmd.PersistentFlags().String("addr", "", "address of server")
	rootCmd.PersistentFlags().Int("port", 8000, "port of server")
	rootCmd.PersistentFlags().String("data", "", "data directory")
	rootCmd.PersistentFlags().String("driver", "sqlite", "database driver (sqlite, postgres)")
	rootCmd.PersistentFlags().String("dsn", "", "database source name(aka. DSN)")

	for _, name := range []string{"mode", "addr", "port", "data", "driver", "dsn"} {
		if err := viper.BindPFlag(name, rootCmd.PersistentFlags().Lookup(name)); err != nil {
			panic(err)
		}
	}

	viper.SetEnvPrefix("notes")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
}

func printGreetings(profile *profile.Profile) {
	fmt.Printf("Notes Copilot %s started successfully!\n", profile.Version)

	if profile.IsDev() {
		fmt.Fprint(os.Stderr, "Development mode is enabled\n")
		if profile.DSN != "" && profile.Driver == "sqlite" {
			fmt.Fprintf(os.Stderr, "Database: %s\n", profile.DSN)
		}
	}

	fmt.Printf("Database driver: %s\n", profile.Driver)
	fmt.Printf("Mode: %s\n", profile.Mode)
	if profile.IsAzure() {
		fmt.Printf("Model provider: Azure OpenAI (%s)\n", profile.AzureOpenAIEndpoint)
	} else {
		fmt.Printf("Model provider: OpenAI-compatible (%s, %s)\n", profile.OpenAIGenModel, profile.OpenAIEmbedModel)
	}

	host := profile.Addr
	if host == "" {
		host = "localhost"
	}
	fmt.Printf("Server running on port %d\n", profile.Port)
	fmt.Printf("API available at: http://%s:%d%s/notes\n", host, profile.Port, profile.APIPrefix)
	fmt.Printf("Metrics available at: http://%s:%d/metrics\n", host, profile.Port)
}

// isRunningAsSystemdService detects if the process is running under systemd
func isRunningAsSystemdService() bool {
	return os.Getenv("INVOCATION_ID") != "" || os.Getenv("WATCHDOG_USEC") != ""
}

// printDatabaseError provides user-friendly error messages for database connection issues
func printDatabaseError(err error, profile *profile.Profile) {
	fmt.Fprintln(os.Stderr, "\nDatabase connection failed")

	errMsg := err.Error()
	switch {
	case strings.Contains(errMsg, "connection refused") || strings.Contains(errMsg, "no such host"):
		fmt.Fprintln(os.Stderr, "\n  PostgreSQL is not reachable.")
		fmt.Fprintln(os.Stderr, "  Check DATABASE_URL, or use SQLite for development:")
		fmt.Fprintln(os.Stderr, "    DATABASE_URL=sqlite:///./app.db")

	case strings.Contains(errMsg, "SSL is not enabled") || strings.Contains(errMsg, "sslmode"):
		fmt.Fprintln(os.Stderr, "\n  PostgreSQL SSL configuration mismatch.")
		fmt.Fprintln(os.Stderr, "  Add ?sslmode=disable to your DSN.")

	case strings.Contains(errMsg, "password authentication failed"):
		fmt.Fprintln(os.Stderr, "\n  PostgreSQL authentication failed.")
		fmt.Fprintln(os.Stderr, "  Check the credentials in DATABASE_URL or .env.")

	case strings.Contains(errMsg, "extension") && strings.Contains(errMsg, "vector"):
		fmt.Fprintln(os.Stderr, "\n  The pgvector extension is not available on this server.")

	default:
		fmt.Fprintln(os.Stderr, "\n  Error:", errMsg)
	}

	if profile.Driver == "sqlite" {
		fmt.Fprintf(os.Stderr, "\n  SQLite database: %s\n", profile.DSN)
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		panic(err)
	}
}
