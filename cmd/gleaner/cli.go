package main

import (
	"context"
	"io"
	"log/slog"

	"github.com/fwojciec/gleaner"
)

// Dependencies holds all services and configuration for command execution.
type Dependencies struct {
	Ctx     context.Context
	Stdout  io.Writer
	Stderr  io.Writer
	Logger  *slog.Logger
	Config  Config
	Service gleaner.ExtractionService
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	Config   string `short:"c" type:"path" env:"GLEANER_CONFIG" help:"YAML configuration file"`
	Verbose  bool   `short:"v" help:"Log debug output to stderr"`
	Browser  bool   `help:"Render YouTube watch pages with headless Chrome"`
	Cache    string `help:"Result cache: memory, none, or a SQLite database path"`
	APIKey   string `name:"youtube-api-key" env:"GLEANER_YOUTUBE_API_KEY" help:"YouTube Data API key"`
	Fallback string `help:"Main-content extractor for Naver pages without an editor container (trafilatura, readability)"`

	Extract  ExtractCmd  `cmd:"" help:"Extract text from a YouTube video or Naver blog post"`
	Validate ValidateCmd `cmd:"" help:"Check whether a URL is supported"`
	Serve    ServeCmd    `cmd:"" help:"Serve the extraction API over HTTP"`
}

// apply overrides file configuration with global flags.
func (c *CLI) apply(cfg *Config) {
	if c.Browser {
		cfg.Browser = true
	}
	if c.Cache != "" {
		cfg.Cache.Store = c.Cache
	}
	if c.APIKey != "" {
		cfg.YouTube.APIKey = c.APIKey
	}
	if c.Fallback != "" {
		cfg.Naver.Fallback = c.Fallback
	}
}
