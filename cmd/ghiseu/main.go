package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hrygo/ghiseu/internal/profile"
	"github.com/hrygo/ghiseu/server"
	"github.com/hrygo/ghiseu/store"
	"github.com/hrygo/ghiseu/store/db"
)

// version is set at build time.
var version = "0.1.0-dev"

var rootCmd = &cobra.Command{
	Use:   "ghiseu",
	Short: `An assistant for Romanian public-service requests: ID cards, social aid and local taxes.`,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		if cfgFile, _ := cmd.Flags().GetString("config"); cfgFile != "" {
			viper.SetConfigFile(cfgFile)
			if err := viper.ReadInConfig(); err != nil {
				return err
			}
		}
		setupLogger(viper.GetString("mode"), viper.GetBool("verbose"))
		return nil
	},
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runServe(cmd.Context())
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP and websocket API",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runServe(cmd.Context())
	},
}

func init() {
	viper.SetDefault("mode", "dev")
	viper.SetDefault("driver", "sqlite")
	viper.SetDefault("port", 8081)

	rootCmd.PersistentFlags().String("mode", "dev", `mode of server, can be "prod" or "dev" or "demo"`)
	rootCmd.PersistentFlags().String("addr", "", "address of server")
	rootCmd.PersistentFlags().Int("port", 8081, "port of server")
	rootCmd.PersistentFlags().String("data", "", "data directory")
	rootCmd.PersistentFlags().String("driver", "sqlite", "database driver")
	rootCmd.PersistentFlags().String("dsn", "", "database source name(aka. DSN)")
	rootCmd.PersistentFlags().Bool("verbose", false, "enable debug logging")
	rootCmd.PersistentFlags().String("config", "", "config file (yaml, json or toml) overriding the defaults")

	for _, name := range []string{"mode", "addr", "port", "data", "driver", "dsn", "verbose"} {
		if err := viper.BindPFlag(name, rootCmd.PersistentFlags().Lookup(name)); err != nil {
			panic(err)
		}
	}

	viper.SetEnvPrefix("ghiseu")
	viper.AutomaticEnv()

	rootCmd.AddCommand(serveCmd, chatCmd, checklistsCmd)
}

// loadProfile builds the profile from flags, GHISEU_* variables and .env.
func loadProfile() (*profile.Profile, error) {
	p := &profile.Profile{
		Mode:    viper.GetString("mode"),
		Addr:    viper.GetString("addr"),
		Port:    viper.GetInt("port"),
		Data:    viper.GetString("data"),
		Driver:  viper.GetString("driver"),
		DSN:     viper.GetString("dsn"),
		Version: version,
	}
	p.FromEnv()
	if p.Data == "" {
		p.Data = "."
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

func openStore(ctx context.Context, p *profile.Profile) (*store.Store, error) {
	driver, err := db.NewDBDriver(p)
	if err != nil {
		return nil, err
	}
	st := store.New(driver, p)
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, err
	}
	return st, nil
}

func runServe(ctx context.Context) error {
	p, err := loadProfile()
	if err != nil {
		return err
	}
	st, err := openStore(ctx, p)
	if err != nil {
		return err
	}
	defer st.Close()

	s, err := server.NewServer(ctx, p, st)
	if err != nil {
		return err
	}
	printGreetings(p)
	return s.Run(ctx)
}

func setupLogger(mode string, verbose bool) {
	level := slog.LevelInfo
	if verbose || mode == "dev" {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if mode == "prod" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}

func printGreetings(p *profile.Profile) {
	fmt.Printf("Ghiseu %s started successfully!\n", p.Version)
	fmt.Printf("Data directory: %s\nDatabase driver: %s\nSession store: %s\n", p.Data, p.Driver, p.SessionStore)
	fmt.Printf("Server running on port %d\n", p.Port)
}

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "failed to load .env: %v\n", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		slog.Error("ghiseu exited", "error", err)
		os.Exit(1)
	}
}
