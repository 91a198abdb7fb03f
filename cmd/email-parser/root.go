package main

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/ShipCreekGroup/email-parser/internal/api"
	"github.com/ShipCreekGroup/email-parser/internal/home"
	"github.com/ShipCreekGroup/email-parser/version"
)

var (
	cfgFile      string
	homeDir      string
	envFile      string
	outputFormat string
)

// configPath resolves the config file to load: an explicit --config wins,
// otherwise the home directory's config.yaml when present. An empty return
// lets the config layer fall back to its search paths and defaults.
func configPath() (string, error) {
	if cfgFile != "" {
		return cfgFile, nil
	}
	h, err := home.New(homeDir)
	if err != nil {
		return "", err
	}
	if err := h.EnsureExists(); err != nil {
		return "", err
	}
	if h.ConfigExists() {
		return h.ConfigPath(), nil
	}
	return "", nil
}

var rootCmd = &cobra.Command{
	Use:   "email-parser",
	Short: "Extract structured email records from pasted text with an LLM",
	Long: `email-parser turns unstructured text containing one or more emails into
structured records (date, sender, subject, preview, body) using a hosted
language model with schema-constrained output.

Records stream incrementally as the model responds, and finished results
can be exported as JSON, CSV, or XLSX.`,
	Version: version.GitRelease,
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./config.yaml or ~/.email-parser/config.yaml)",
	)
	rootCmd.PersistentFlags().StringVar(
		&homeDir, "home", "", "email-parser home directory (default: ~/.email-parser)",
	)
	rootCmd.PersistentFlags().StringVar(
		&envFile, "env-file", "", "env file to load before reading configuration (default: ./.env if present)",
	)
	rootCmd.PersistentFlags().StringVarP(
		&outputFormat, "output", "o", "yaml", "output format: yaml or json",
	)

	// Load env vars and set output format before any command runs
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if envFile != "" {
			_ = godotenv.Load(envFile)
		} else {
			_ = godotenv.Load()
		}
		api.SetOutputFormat(outputFormat)
	}

	rootCmd.AddCommand(versionCmd)
}
