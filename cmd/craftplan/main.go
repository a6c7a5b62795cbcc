// craftplan computes ordered production plans from recipe catalogs.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/planforge/craftplan/internal/planner/engine"
	"github.com/planforge/craftplan/internal/planner/mcp"
	"github.com/planforge/craftplan/internal/planner/recipefile"
	"github.com/planforge/craftplan/internal/planner/shell"
	"github.com/planforge/craftplan/internal/planner/store"
)

func main() {
	configPath := flag.String("config", "", "Path to config file")
	dbPath := flag.String("db", "", "Path to SQLite session database (overrides config)")
	mcpMode := flag.Bool("mcp", false, "Serve the planner over MCP instead of running the interactive shell")
	verbose := flag.Bool("verbose", false, "Enable verbose logging")
	var recipeFiles []string
	flag.Func("recipes", "Recipe file to load at startup (repeatable)", func(v string) error {
		recipeFiles = append(recipeFiles, v)
		return nil
	})
	flag.Parse()

	cfg, err := LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if *verbose {
		cfg.Log.Level = "debug"
	}
	logger := SetupLogger(cfg)
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("shutting down...")
		cancel()
	}()

	if *dbPath != "" {
		cfg.Database.Path = *dbPath
	}
	var st *store.Store
	if cfg.Database.Path != "" {
		st, err = store.OpenAndInit(ctx, cfg.Database.Path)
		if err != nil {
			logger.Error("failed to open database", "error", err)
			os.Exit(1)
		}
		defer func() { _ = st.Close() }()
	}

	calc := engine.New()
	for _, file := range recipeFiles {
		recipes, err := recipefile.ParseFile(file, cfg.Recipes.DefaultMethod)
		if err != nil {
			logger.Error("failed to load recipes", "file", file, "error", err)
			os.Exit(1)
		}
		logger.Info("loaded recipes", "file", file, "count", len(recipes))
		if err := calc.AddRecipes(recipes...); err != nil {
			logger.Warn("recipes loaded but plan not computable", "file", file, "error", err)
		}
	}

	if *mcpMode {
		server := mcp.NewServer(calc, logger, cfg.Recipes.DefaultMethod)
		logger.Info("starting MCP server")
		if err := server.Run(ctx); err != nil && ctx.Err() == nil {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
		return
	}

	sh := shell.New(calc, st, logger, cfg.Recipes.DefaultMethod, os.Stdin, os.Stdout)
	if err := sh.Run(ctx); err != nil && ctx.Err() == nil {
		logger.Error("shell error", "error", err)
		os.Exit(1)
	}
}
