package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/wan2gp/wanctl/pkg/logging"
	"github.com/wan2gp/wanctl/pkg/settings"
)

var (
	serverAddr   string
	outputFormat string
	cfgFile      string
	logLevel     string

	store  *settings.Store
	logger *logging.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "wanctl",
	Short: "Remote control for a wan2gp generation server",
	Long: `wanctl submits media-generation jobs to a LAN-hosted wan2gp server,
follows them to completion and saves the resulting assets into a local
gallery directory.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.wanctl/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&serverAddr, "server", "", "server address as host[:port] (default from config)")
	rootCmd.PersistentFlags().StringVar(&outputFormat, "output", "table", "output format: table or json")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")
}

// initConfig opens the settings store and applies environment overrides
func initConfig() {
	logger = logging.NewLogger(logging.ParseLevel(logLevel), false)

	path := cfgFile
	if path == "" {
		var err error
		path, err = settings.DefaultConfigPath()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			os.Exit(1)
		}
	}

	var err error
	store, err = settings.NewStore(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading config: %v\n", err)
		os.Exit(1)
	}

	viper.AutomaticEnv()
	viper.BindEnv("server_addr", "WANCTL_SERVER")
	if serverAddr == "" && viper.GetString("server_addr") != "" {
		serverAddr = viper.GetString("server_addr")
	}
}

// GetServerAddr returns the server address from flag, environment or config
func GetServerAddr() string {
	if serverAddr != "" {
		return serverAddr
	}
	return store.Load().ServerAddr
}

// IsJSONOutput returns true if JSON output is requested
func IsJSONOutput() bool {
	return outputFormat == "json"
}

// dataDir returns the directory holding the gallery and history,
// alongside the config file
func dataDir() string {
	return filepath.Dir(store.Path())
}
