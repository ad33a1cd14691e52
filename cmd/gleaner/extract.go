package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/fwojciec/gleaner"
	"github.com/fwojciec/gleaner/fs"
)

// ExtractCmd is the "extract" subcommand.
type ExtractCmd struct {
	URL        string        `arg:"" help:"YouTube video or Naver blog post URL"`
	Lang       string        `short:"l" help:"Preferred caption language (YouTube)"`
	Timestamps bool          `short:"t" help:"Prefix caption lines with [mm:ss] (YouTube)"`
	Format     string        `short:"f" enum:"plain,markdown" default:"plain" help:"Output format for Naver posts (plain, markdown)"`
	JSON       bool          `help:"Print the full result envelope as JSON"`
	Output     string        `short:"o" type:"path" help:"Also write the content as Markdown under this directory"`
	Retries    uint64        `short:"r" default:"0" help:"Retry retryable failures up to N times"`
	Timeout    time.Duration `default:"60s" help:"Timeout for each attempt"`
}

// retryInterval is the first delay between retried extractions.
const retryInterval = time.Second

// Run executes the extract command.
func (c *ExtractCmd) Run(deps *Dependencies) error {
	opts := gleaner.Options{
		Language:          strings.TrimSpace(c.Lang),
		IncludeTimestamps: c.Timestamps,
		Format:            c.Format,
		Timeout:           c.Timeout,
	}

	result := ExtractWithRetry(deps.Ctx, deps.Service, c.URL, opts, c.Retries, retryInterval)

	if c.JSON {
		enc := json.NewEncoder(deps.Stdout)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		if err := enc.Encode(result); err != nil {
			return err
		}
	}

	if !result.Success {
		if result.Error == nil {
			return fmt.Errorf("extraction failed")
		}
		if !c.JSON {
			fmt.Fprintf(deps.Stderr, "%s: %s\n", result.Error.Code, result.Error.Message)
		}
		return result.Error
	}

	if !c.JSON {
		if result.Data.Title != "" {
			fmt.Fprintf(deps.Stdout, "%s\n\n", result.Data.Title)
		}
		fmt.Fprintln(deps.Stdout, result.Data.Content)
	}

	if c.Output != "" {
		var w gleaner.ContentWriter = fs.NewWriter(c.Output)
		path, err := w.Write(deps.Ctx, result.Data)
		if err != nil {
			return fmt.Errorf("writing content: %w", err)
		}
		fmt.Fprintf(deps.Stderr, "Saved %s\n", path)
	}
	return nil
}
