// Package cli implements pfctl, the admin client for a running pageflow server.
package cli

import (
	"fmt"
	"io"
	"os"
	"time"

	goflags "github.com/jessevdk/go-flags"
	"golang.org/x/term"
)

// GlobalFlags are shared by every subcommand.
type GlobalFlags struct {
	Server  string        `long:"server" env:"PAGEFLOW_SERVER" default:"http://localhost:5055" description:"Base URL of the pageflow server"`
	Timeout time.Duration `long:"timeout" default:"30s" description:"Request timeout"`
	JSON    bool          `long:"json" description:"Print raw JSON responses"`
}

// env is the process surface commands talk to; tests swap it out.
type env struct {
	stdout     io.Writer
	stdin      io.Reader
	isTerminal func() bool
}

func defaultEnv() *env {
	return &env{
		stdout: os.Stdout,
		stdin:  os.Stdin,
		isTerminal: func() bool {
			return term.IsTerminal(int(os.Stdin.Fd()))
		},
	}
}

// commands holds references to all subcommand structs for inspection/testing.
type commands struct {
	Stats    *StatsCommand
	Flow     *FlowCommand
	Visitors *VisitorsCommand
	Purge    *PurgeCommand
	Status   *StatusCommand
}

// buildParser constructs the go-flags parser with all subcommands registered.
func buildParser(e *env) (*goflags.Parser, *GlobalFlags, *commands) {
	var globals GlobalFlags

	parser := goflags.NewParser(&globals, goflags.Default)
	parser.Name = "pfctl"
	parser.LongDescription = "Query and administer a running pageflow server."

	base := baseCommand{globals: &globals, env: e}
	cmds := &commands{
		Stats:    &StatsCommand{baseCommand: base},
		Flow:     &FlowCommand{baseCommand: base},
		Visitors: &VisitorsCommand{baseCommand: base},
		Purge:    &PurgeCommand{baseCommand: base},
		Status:   &StatusCommand{baseCommand: base},
	}

	parser.AddCommand("stats", "Show traffic statistics", "Show page views, visitors, trends and breakdowns for a time range.", cmds.Stats)
	parser.AddCommand("flow", "Show navigation flows", "Show the ranked page-to-page transitions up to a depth.", cmds.Flow)
	parser.AddCommand("visitors", "List recent events", "List the most recent events with device details.", cmds.Visitors)
	parser.AddCommand("purge", "Delete ALL collected data", "Delete ALL collected events. Destructive operation with safety prompt.", cmds.Purge)
	parser.AddCommand("status", "Show server health", "Show server health and the number of events in memory.", cmds.Status)

	return parser, &globals, cmds
}

// Run is the main entry point for pfctl using os.Args.
func Run() error {
	return runWithEnv(defaultEnv(), nil)
}

// RunWithArgs parses args and executes the matched subcommand.
func RunWithArgs(args []string) error {
	return runWithEnv(defaultEnv(), args)
}

func runWithEnv(e *env, args []string) error {
	parser, _, _ := buildParser(e)

	var err error
	if args != nil {
		_, err = parser.ParseArgs(args)
	} else {
		_, err = parser.Parse()
	}

	if err != nil {
		if flagsErr, ok := err.(*goflags.Error); ok && flagsErr.Type == goflags.ErrHelp {
			return nil
		}
		return err
	}
	return nil
}

// baseCommand gives every subcommand access to the global flags and process surface.
type baseCommand struct {
	globals *GlobalFlags
	env     *env
}

func (b *baseCommand) client() *apiClient {
	return newAPIClient(b.globals.Server, b.globals.Timeout)
}

func (b *baseCommand) printf(format string, args ...interface{}) {
	fmt.Fprintf(b.env.stdout, format, args...)
}
