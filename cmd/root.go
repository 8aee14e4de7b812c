package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/maximbilan/sensclip/internal/config"
	"github.com/maximbilan/sensclip/internal/logging"
	"github.com/maximbilan/sensclip/internal/validation"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	verbose     bool
	backendFlag string
	socketFlag  string

	appConfig *config.Config
	logger    = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "sensclip",
	Short: "Copy secrets to the clipboard and clear them automatically",
	Long: `sensclip copies sensitive text to the clipboard and schedules it to be
cleared after a delay. Only one clear is ever pending: a new copy restarts
the timer.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if backendFlag != "" {
			cfg.Backend = backendFlag
		}
		if socketFlag != "" {
			cfg.SocketPath = socketFlag
		}
		if err := validation.ValidateBackend(cfg.Backend); err != nil {
			return err
		}

		l, err := logging.New(cfg.LogLevel, verbose)
		if err != nil {
			return err
		}
		appConfig = cfg
		logger = l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var setCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Set a config value",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		if err := config.Set(args[0], args[1]); err != nil {
			fail(err)
		}
		fmt.Printf("Set %s = %s\n", args[0], args[1])
	},
}

var getCmd = &cobra.Command{
	Use:   "get [key]",
	Short: "Get a config value",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		value := config.Get(args[0])
		fmt.Printf("%s = %v\n", args[0], value)
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration file",
	Run: func(cmd *cobra.Command, args []string) {
		configPath, err := config.Dir()
		if err != nil {
			fail(err)
		}
		if err := os.MkdirAll(configPath, config.ConfigDirPerm); err != nil {
			fail(err)
		}

		if err := config.Save(appConfig); err != nil {
			fail(err)
		}

		fmt.Printf("Configuration initialized at %s\n", filepath.Join(configPath, "config.yaml"))
		fmt.Println("Change the default clear delay with: sensclip config set default_duration_seconds 30")
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&backendFlag, "backend", "", "clipboard backend: system or memory")
	rootCmd.PersistentFlags().StringVar(&socketFlag, "socket", "", "daemon socket path")

	configCmd.AddCommand(setCmd)
	configCmd.AddCommand(getCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(copyCmd)
	rootCmd.AddCommand(clearCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(serveCmd)
}

func fail(err error) {
	_ = logger.Sync()
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
