package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// PurgeCommand deletes every collected event on the server.
type PurgeCommand struct {
	baseCommand
	Token string `long:"token" env:"PAGEFLOW_PURGE_TOKEN" description:"Purge token configured on the server (required)"`
	Force bool   `long:"force" short:"f" description:"Skip the confirmation prompt"`
}

type purgeResult struct {
	Success bool `json:"success"`
	Deleted int  `json:"deleted"`
}

// Execute implements goflags.Commander.
func (c *PurgeCommand) Execute(args []string) error {
	if c.Token == "" {
		return fmt.Errorf("purge requires --token (or PAGEFLOW_PURGE_TOKEN)")
	}
	if !c.Force {
		if !c.env.isTerminal() {
			return fmt.Errorf("refusing to purge without a terminal; pass --force to skip confirmation")
		}
		if err := c.confirm(); err != nil {
			return err
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.globals.Timeout)
	defer cancel()

	raw, err := c.client().do(ctx, http.MethodDelete, "/api/data", url.Values{"confirm": {c.Token}})
	if err != nil {
		return fmt.Errorf("purge failed: %w", err)
	}
	if c.globals.JSON {
		c.printf("%s\n", raw)
		return nil
	}

	var result purgeResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return fmt.Errorf("decode purge response: %w", err)
	}
	c.printf("Purged %d events from %s\n", result.Deleted, c.globals.Server)
	return nil
}

func (c *PurgeCommand) confirm() error {
	c.printf("WARNING: This will permanently delete ALL events collected by %s.\n", c.globals.Server)
	c.printf("This action cannot be undone.\n\n")
	c.printf(`Type "PURGE" to confirm: `)

	scanner := bufio.NewScanner(c.env.stdin)
	if !scanner.Scan() {
		return fmt.Errorf("aborted: no input received")
	}
	if strings.TrimSpace(scanner.Text()) != "PURGE" {
		return fmt.Errorf("aborted: confirmation text did not match")
	}
	return nil
}
