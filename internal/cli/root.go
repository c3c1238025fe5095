package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/RoNRiShaV/dfd/internal/model"
)

// Version is the CLI version reported by `dfd version`
const Version = "0.1.0"

var (
	cfgFile      string
	verbose      bool
	baseURL      string
	outputFormat string
	envName      string
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "dfd",
	Short: "dfd - forensic report client for the deepfake detection backend",
	Long: `dfd talks to a deepfake detection backend on your behalf.

It retrieves analysis reports for uploaded media, shows and casts community
votes, lists the public history, exports report documents and uploads new
media for analysis.

The backend decides; dfd only shows what it reports.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// PrintError writes a command failure to w. Export failures are skipped since
// the export notifier has already reported them.
func PrintError(w io.Writer, err error) {
	if err == nil || errors.Is(err, model.ErrExportError) {
		return
	}
	fmt.Fprintf(w, "%s %v\n", color.RedString("Error:"), err)
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "dfd v%s\n", Version)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.dfd/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&baseURL, "base-url", "", "backend base URL (overrides api.base_url)")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "", "output format: text, json, yaml")
	rootCmd.PersistentFlags().StringVar(&envName, "env", "", "environment: local, development, test, production")

	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in config file and ENV variables
func initConfig() {
	setDefaults(viper.GetViper(), model.DefaultConfig())

	flags := rootCmd.PersistentFlags()
	_ = viper.BindPFlag("output.verbose", flags.Lookup("verbose"))
	_ = viper.BindPFlag("api.base_url", flags.Lookup("base-url"))
	_ = viper.BindPFlag("output.format", flags.Lookup("output"))
	_ = viper.BindPFlag("env", flags.Lookup("env"))

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}

		viper.AddConfigPath(filepath.Join(home, ".dfd"))
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// DFD_API_BASE_URL maps to api.base_url
	viper.SetEnvPrefix("DFD")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// setDefaults registers every config key so env variables and flags are
// picked up by Unmarshal even when the file does not mention them
func setDefaults(v *viper.Viper, d *model.Config) {
	v.SetDefault("env", d.Env)

	v.SetDefault("api.base_url", d.API.BaseURL)
	v.SetDefault("api.timeout", d.API.Timeout)
	v.SetDefault("api.user_agent", d.API.UserAgent)
	v.SetDefault("api.max_body_bytes", d.API.MaxBodyBytes)
	v.SetDefault("api.http_proxy", d.API.HTTPProxy)
	v.SetDefault("api.https_proxy", d.API.HTTPSProxy)
	v.SetDefault("api.no_proxy", d.API.NoProxy)

	v.SetDefault("rate_limiting.requests_per_second", d.RateLimiting.RequestsPerSecond)
	v.SetDefault("rate_limiting.burst_size", d.RateLimiting.BurstSize)

	v.SetDefault("cache.enabled", d.Cache.Enabled)
	v.SetDefault("cache.dir", d.Cache.Dir)
	v.SetDefault("cache.memory_ttl", d.Cache.MemoryTTL)
	v.SetDefault("cache.disk_ttl", d.Cache.DiskTTL)

	v.SetDefault("history.recent_file", d.History.RecentFile)
	v.SetDefault("history.recent_limit", d.History.RecentLimit)

	v.SetDefault("export.output_dir", d.Export.OutputDir)
	v.SetDefault("export.default_filename", d.Export.DefaultFilename)

	v.SetDefault("concurrency.workers", d.Concurrency.Workers)

	v.SetDefault("output.verbose", d.Output.Verbose)
	v.SetDefault("output.format", d.Output.Format)
}

// loadConfig resolves flags, env, config file and defaults into a Config
func loadConfig(v *viper.Viper) (*model.Config, error) {
	cfg := model.DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
