package main

import (
	"encoding/json"
	"fmt"
)

// ValidateCmd is the "validate" subcommand.
type ValidateCmd struct {
	URL string `arg:"" help:"URL to check"`
}

// Run executes the validate command. An unsupported URL is reported on
// stdout and as an error.
func (c *ValidateCmd) Run(deps *Dependencies) error {
	v := deps.Service.Validate(c.URL)

	enc := json.NewEncoder(deps.Stdout)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return err
	}

	if !v.Valid {
		return fmt.Errorf("unsupported URL: %s", v.Reason)
	}
	return nil
}
