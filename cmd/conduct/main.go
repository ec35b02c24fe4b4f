package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime/debug"

	"github.com/urfave/cli/v3"

	"github.com/tzrikka/conduct/internal/logger"
	"github.com/tzrikka/conduct/pkg/config"
	"github.com/tzrikka/conduct/pkg/temporal"
)

func main() {
	bi, _ := debug.ReadBuildInfo()

	// Environment variables from a ".env" file must be
	// loaded before the CLI flags read their values.
	temporal.LoadDotEnv(context.Background())

	cmd := &cli.Command{
		Name:    "conduct",
		Usage:   "Track moderation threads and conduct reports in Slack",
		Version: bi.Main.Version,
		Flags:   config.Flags(),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			ctx = initLog(ctx, cmd.Bool("pretty-log"), cmd.Bool("dev"))
			return temporal.Run(ctx, cmd)
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

// initLog initializes the logger for the Temporal worker,
// based on whether it's running in development mode or not.
func initLog(ctx context.Context, pretty, devMode bool) context.Context {
	level := slog.LevelInfo
	if devMode {
		level = slog.LevelDebug
	}

	l := logger.New(os.Stderr, pretty, level)
	slog.SetDefault(l)
	return logger.WithContext(ctx, l)
}
