package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/wlfogle/OmnioSearch/internal"
	pkgconfig "github.com/wlfogle/OmnioSearch/pkg/config"
)

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	configPath := cmd.String("config")
	if _, err := os.Stat(configPath); err == nil {
		if err := pkgconfig.Load(configPath, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}
	return cfg, nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := internal.Run(ctx, internal.WithConfig(cfg)); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func runSearch(ctx context.Context, cmd *cli.Command) error {
	text := cmd.Args().First()
	if text == "" {
		return fmt.Errorf("usage: search <query>")
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	results, err := internal.RunSearch(ctx, cfg, text)
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		return json.NewEncoder(os.Stdout).Encode(results)
	}
	for _, r := range results {
		fmt.Printf("%8.3f  %s\n", r.RelevanceScore, r.Path)
	}
	fmt.Printf("%d results\n", len(results))
	return nil
}

func runIndex(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return internal.RunIndex(ctx, cfg, cmd.Args().Slice())
}

func runStatus(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	status, err := internal.RunStatus(cfg)
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		return json.NewEncoder(os.Stdout).Encode(status)
	}
	fmt.Printf("total:   %d\n", status.TotalFiles)
	fmt.Printf("indexed: %d\n", status.IndexedFiles)
	fmt.Printf("pending: %d\n", status.PendingFiles)
	fmt.Printf("failed:  %d\n", status.FailedFiles)
	fmt.Printf("size:    %.1f MB\n", status.IndexSizeMB)
	return nil
}

func runInitConfig(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")
	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("%s already exists", configPath)
	}
	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.Save(configPath, cfg); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	fmt.Printf("wrote %s\n", configPath)
	return nil
}

func runMCP(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return internal.RunMCP(cfg)
}

func main() {
	configFlag := &cli.StringFlag{
		Name:        "config",
		Aliases:     []string{"c"},
		Usage:       "Path to config file",
		DefaultText: "config/config.yaml",
		Value:       "config/config.yaml",
		Sources:     cli.EnvVars("APP_CONFIG_FILE"),
	}
	jsonFlag := &cli.BoolFlag{
		Name:  "json",
		Usage: "Emit machine-readable JSON instead of text",
	}

	cmd := &cli.Command{
		Name:   "omniosearch",
		Usage:  "Desktop file search with persistent indexing, natural-language queries, and cloud sources",
		Action: serve,
		Flags:  []cli.Flag{configFlag},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Start the HTTP API server (default)",
				Action: serve,
				Flags:  []cli.Flag{configFlag},
			},
			{
				Name:      "search",
				Usage:     "Run a one-off search from the command line",
				ArgsUsage: "<query>",
				Action:    runSearch,
				Flags:     []cli.Flag{configFlag, jsonFlag},
			},
			{
				Name:      "index",
				Usage:     "Run a bulk indexing pass and wait for completion",
				ArgsUsage: "[roots...]",
				Action:    runIndex,
				Flags:     []cli.Flag{configFlag},
			},
			{
				Name:   "status",
				Usage:  "Print aggregate index statistics",
				Action: runStatus,
				Flags:  []cli.Flag{configFlag, jsonFlag},
			},
			{
				Name:   "init-config",
				Usage:  "Write a default config file",
				Action: runInitConfig,
				Flags:  []cli.Flag{configFlag},
			},
			{
				Name:   "mcp",
				Usage:  "Serve MCP tools over stdio",
				Action: runMCP,
				Flags:  []cli.Flag{configFlag},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
