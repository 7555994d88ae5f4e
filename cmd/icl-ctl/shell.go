package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/icl-sdk/icl-go/pkg/catalog"
	"github.com/icl-sdk/icl-go/pkg/wire"
)

func init() {
	rootCmd.AddCommand(shellCmd)
}

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Send ICL commands interactively",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		return withSession(ctx, true, func(s *session) error {
			sh, err := newShell(s)
			if err != nil {
				return err
			}
			sh.run(ctx)
			return nil
		})
	},
}

// shell is the interactive command loop.
type shell struct {
	session *session
	rl      *readline.Instance
	out     io.Writer
}

func newShell(s *session) (*shell, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "icl> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		AutoComplete:    shellCompleter(catalog.MustLoad()),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}
	stdout = rl.Stdout()
	return &shell{session: s, rl: rl, out: rl.Stdout()}, nil
}

func shellCompleter(cat *catalog.Catalog) *readline.PrefixCompleter {
	items := []readline.PrefixCompleterInterface{
		readline.PcItem("help"),
		readline.PcItem("devices"),
		readline.PcItem("discover"),
		readline.PcItem("exit"),
	}
	for _, name := range cat.Names() {
		items = append(items, readline.PcItem(name))
	}
	return readline.NewPrefixCompleter(items...)
}

func (sh *shell) run(ctx context.Context) {
	defer sh.rl.Close()

	fmt.Fprintf(sh.out, "Connected to ICL %s. Type 'help' for commands.\n", sh.session.mgr.Version())
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := sh.rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			}
			return
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}
		parts := strings.Fields(input)

		switch parts[0] {
		case "help", "?":
			sh.printHelp()
		case "exit", "quit", "q":
			return
		case "devices":
			sh.printDevices()
		case "discover":
			if err := sh.session.mgr.DiscoverDevices(ctx); err != nil {
				fmt.Fprintf(sh.out, "Error: %v\n", err)
				continue
			}
			sh.printDevices()
		default:
			if err := sh.send(ctx, parts[0], parts[1:]); err != nil {
				fmt.Fprintf(sh.out, "Error: %v\n", err)
			}
		}
	}
}

func (sh *shell) send(ctx context.Context, name string, args []string) error {
	params, err := parseParams(args)
	if err != nil {
		return err
	}
	command := wire.NewCommand(name, params)
	def, err := checkCommand(command, false)
	if err != nil {
		return err
	}
	return sendRaw(ctx, sh.session, command, def)
}

func (sh *shell) printDevices() {
	var listing deviceListing
	for _, d := range sh.session.mgr.ChargedCoupledDevices() {
		listing.CCDs = append(listing.CCDs, d.Info())
	}
	for _, d := range sh.session.mgr.Monochromators() {
		listing.Monochromators = append(listing.Monochromators, d.Info())
	}
	printListing(sh.out, listing)
}

func (sh *shell) printHelp() {
	fmt.Fprintln(sh.out, `Commands:
  <icl command> [key=value ...]  send a command, e.g. ccd_getGain index=0
  devices                        list discovered devices
  discover                       rescan for devices
  help                           show this help
  exit                           leave the shell

Tab completes command names.`)
}
