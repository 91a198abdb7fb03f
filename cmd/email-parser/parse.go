package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/ShipCreekGroup/email-parser/internal/config"
	"github.com/ShipCreekGroup/email-parser/internal/emails"
	"github.com/ShipCreekGroup/email-parser/internal/extract"
	"github.com/ShipCreekGroup/email-parser/internal/providers"
)

var (
	parseProvider string
	parseModel    string
	parseFormat   string
	parseOut      string
)

var parseCmd = &cobra.Command{
	Use:   "parse [file]",
	Short: "Extract structured emails from a file or stdin",
	Long: `Parse runs an extraction in-process, without a running server.

Input is read from the given file, or from stdin when no file is given.
The finished result is written as JSON, CSV, or XLSX.

Examples:
  email-parser parse inbox.txt                   # JSON to stdout
  email-parser parse inbox.txt --format csv      # CSV to stdout
  cat inbox.txt | email-parser parse --format xlsx --out emails.xlsx`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		text, err := readInput(args)
		if err != nil {
			return err
		}

		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelWarn,
		}))

		cfgPath, err := configPath()
		if err != nil {
			return err
		}
		cfgMgr, err := config.NewManager(cfgPath)
		if err != nil {
			return err
		}
		cfg := cfgMgr.Get()

		provider := parseProvider
		if provider == "" {
			provider = cfg.Defaults.LLMProvider
		}

		registry := providers.NewRegistryFromConfig(cfg.ToProviderRegistryConfig())
		client, err := registry.Get(provider)
		if err != nil {
			return err
		}

		pipeline := extract.New(extract.Config{
			Client:  client,
			Model:   parseModel,
			Timeout: cfg.Timeout(provider),
			Logger:  logger,
		})

		stream, err := pipeline.Run(cmd.Context(), string(text))
		if err != nil {
			return err
		}
		defer stream.Close()

		last := -1
		for stream.Next() {
			if n := len(stream.Collection()); n != last {
				fmt.Fprintf(os.Stderr, "parsed %d email(s)\n", n)
				last = n
			}
		}
		if err := stream.Err(); err != nil {
			return err
		}

		return writeResult(cmd.OutOrStdout(), stream.Collection())
	},
}

func readInput(args []string) ([]byte, error) {
	if len(args) == 1 {
		return os.ReadFile(args[0])
	}
	return io.ReadAll(os.Stdin)
}

func writeResult(stdout io.Writer, collection emails.Collection) error {
	var (
		data []byte
		err  error
	)
	switch parseFormat {
	case "json":
		data, err = collection.JSON()
	case "csv":
		data, err = collection.CSV()
	case "xlsx":
		data, err = collection.XLSX()
	default:
		return fmt.Errorf("unknown format: %s (want json, csv, or xlsx)", parseFormat)
	}
	if err != nil {
		return err
	}

	if parseOut != "" {
		return os.WriteFile(parseOut, data, 0o644)
	}
	_, err = stdout.Write(data)
	return err
}

func init() {
	parseCmd.Flags().StringVar(&parseProvider, "provider", "", "Provider to use (default: configured default)")
	parseCmd.Flags().StringVar(&parseModel, "model", "", "Model override")
	parseCmd.Flags().StringVar(&parseFormat, "format", "json", "Output format: json, csv, or xlsx")
	parseCmd.Flags().StringVar(&parseOut, "out", "", "Write result to file instead of stdout")

	rootCmd.AddCommand(parseCmd)
}
