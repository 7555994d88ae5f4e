package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/icl-sdk/icl-go/pkg/catalog"
	"github.com/icl-sdk/icl-go/pkg/wire"
)

var sendForce bool

func init() {
	sendCmd.Flags().BoolVar(&sendForce, "force", false, "send commands missing from the catalog")
	rootCmd.AddCommand(commandsCmd)
	rootCmd.AddCommand(sendCmd)
}

var commandsCmd = &cobra.Command{
	Use:       "commands [icl|ccd|mono]",
	Short:     "List the known ICL commands",
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{"icl", "ccd", "mono"},
	// The catalog is embedded; no connection or config is needed.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, err := catalog.Load()
		if err != nil {
			return err
		}
		defs := make([]*catalog.CommandDef, 0, len(cat.Commands))
		if len(args) == 1 {
			family := wire.FamilyOf(strings.ToLower(args[0]) + "_")
			if family == wire.FamilyUnknown {
				return fmt.Errorf("unknown command family %q", args[0])
			}
			defs = cat.ByFamily(family)
		} else {
			for _, name := range cat.Names() {
				def, _ := cat.Lookup(name)
				defs = append(defs, def)
			}
		}
		return emit(defs, func(w io.Writer) {
			printCommands(w, defs)
		})
	},
}

func printCommands(w io.Writer, defs []*catalog.CommandDef) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "COMMAND\tPARAMETERS\tDESCRIPTION")
	for _, def := range defs {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", def.Name, strings.Join(def.RequiredParameters(), ","), def.Description)
	}
	tw.Flush()
}

var sendCmd = &cobra.Command{
	Use:   "send <command> [key=value ...]",
	Short: "Send a raw ICL command and print the results",
	Long: "Send a raw ICL command. Values are parsed as YAML scalars, so index=0\n" +
		"is a number, enable=true a boolean and name=abc a string.",
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		params, err := parseParams(args[1:])
		if err != nil {
			return err
		}
		command := wire.NewCommand(args[0], params)
		def, err := checkCommand(command, sendForce)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		discover := def == nil || def.AddressesDevice()
		return withSession(ctx, discover, func(s *session) error {
			return sendRaw(ctx, s, command, def)
		})
	},
}

// checkCommand validates command against the catalog. It returns the
// definition, or nil for an unknown command when force is set.
func checkCommand(command *wire.Command, force bool) (*catalog.CommandDef, error) {
	def, ok := catalog.Lookup(command.Name)
	if !ok {
		if force {
			return nil, nil
		}
		return nil, fmt.Errorf("unknown command %q (use --force to send it anyway)", command.Name)
	}
	if missing := def.MissingParameters(command); len(missing) > 0 {
		return nil, fmt.Errorf("%s: missing parameters %s", command.Name, strings.Join(missing, ", "))
	}
	return def, nil
}

func sendRaw(ctx context.Context, s *session, command *wire.Command, def *catalog.CommandDef) error {
	comm := s.mgr.Communicator()
	if def != nil && !def.Awaited {
		return comm.Send(ctx, command)
	}
	resp, err := comm.SendWithResponse(ctx, command)
	var cmdErr *wire.CommandError
	if err != nil && !errors.As(err, &cmdErr) {
		return err
	}
	if perr := emit(resp.Results, func(w io.Writer) {
		printResults(w, resp.Results)
	}); perr != nil {
		return perr
	}
	return err
}

// parseParams turns key=value arguments into command parameters.
func parseParams(args []string) (map[string]any, error) {
	params := make(map[string]any, len(args))
	for _, arg := range args {
		key, raw, ok := strings.Cut(arg, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("parameter %q: want key=value", arg)
		}
		value, err := parseValue(raw)
		if err != nil {
			return nil, fmt.Errorf("parameter %q: %w", key, err)
		}
		params[key] = value
	}
	return params, nil
}

func parseValue(raw string) (any, error) {
	if raw == "" {
		return "", nil
	}
	var value any
	if err := yaml.Unmarshal([]byte(raw), &value); err != nil {
		return nil, err
	}
	if value == nil {
		return raw, nil
	}
	return value, nil
}
