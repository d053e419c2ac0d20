// Command emolyrics runs the EmoLyrics web application.
package main

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/justestif/emolyrics/internal/analysis"
	"github.com/justestif/emolyrics/internal/blocks"
	"github.com/justestif/emolyrics/internal/config"
	"github.com/justestif/emolyrics/internal/logging"
	"github.com/justestif/emolyrics/internal/metrics"
	"github.com/justestif/emolyrics/internal/scoring"
	"github.com/justestif/emolyrics/internal/web"
	webfs "github.com/justestif/emolyrics/web"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := logging.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)

	// Create sub-filesystems for templates and static files
	templates, err := fs.Sub(webfs.TemplatesFS, "templates")
	if err != nil {
		return fmt.Errorf("creating templates filesystem: %w", err)
	}

	static, err := fs.Sub(webfs.StaticFS, "static")
	if err != nil {
		return fmt.Errorf("creating static filesystem: %w", err)
	}

	// Markup blocks come from the embedded document unless a file is configured
	var store *blocks.Store
	if cfg.BlocksPath != "" {
		store = blocks.New(os.DirFS(filepath.Dir(cfg.BlocksPath)), filepath.Base(cfg.BlocksPath))
	} else {
		store = blocks.New(webfs.BlocksFS, webfs.BlocksFile)
	}
	if err := store.Load(); err != nil {
		// Pages still render, just without header and result card.
		logger.Warn("template blocks unavailable", "error", err)
	}

	m := metrics.NewManager()

	svc := analysis.New(scoring.NewRandom(nil),
		analysis.WithSteps(cfg.AnimationSteps),
		analysis.WithFrameDelay(cfg.FrameDelay),
		analysis.WithLogger(logger),
	)

	// Create and start server
	server, err := web.NewServer(web.ServerConfig{
		Addr:          cfg.Addr,
		TemplatesFS:   templates,
		StaticFS:      static,
		Blocks:        store,
		Analysis:      svc,
		Metrics:       m,
		Logger:        logger,
		SessionTTL:    cfg.SessionTTL,
		AnalyzeRate:   cfg.AnalyzeRate,
		AnalyzeBurst:  cfg.AnalyzeBurst,
		CompareGroups: cfg.CompareGroups,
	})
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	return server.Run()
}
