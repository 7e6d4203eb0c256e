package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dshills/tessera/internal/plugin"
)

type scriptFlags struct {
	command     string
	args        []string
	text        bool
	decorations bool
	json        bool
}

func newScriptCmd(global *globalFlags) *cobra.Command {
	var flags scriptFlags

	cmd := &cobra.Command{
		Use:   "script FILE SCRIPT.lua...",
		Short: "Run Lua scripts against a file and print the result",
		Long: `Load FILE, run the scripts listed in the config followed by each SCRIPT,
optionally run a registered command, measure any block decorations and
print the screen rows.

Scripts reach the session through the global "tessera" table.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(global, args[0])
			if err != nil {
				return err
			}
			defer s.Close()

			host := plugin.NewHost(s.engine,
				plugin.WithLogger(s.logger),
				plugin.WithExecutionTimeout(s.cfg.Plugin.Timeout()),
			)
			defer host.Close()

			ctx := cmd.Context()
			scripts := append(append([]string{}, s.cfg.Plugin.Scripts...), args[1:]...)
			for _, path := range scripts {
				if err := host.DoFile(ctx, path); err != nil {
					return err
				}
			}

			out := cmd.OutOrStdout()
			if flags.command != "" {
				result, err := host.Run(ctx, flags.command, flags.args...)
				if err != nil {
					return err
				}
				if result != nil {
					fmt.Fprintf(out, "%s: %v\n", flags.command, result)
				}
			}

			if err := s.engine.MeasureAll(ctx, textMeasurer(s.cfg.Display.LineHeight)); err != nil {
				return err
			}

			switch {
			case flags.text:
				_, err = fmt.Fprint(out, s.engine.Text())
				return err
			case flags.decorations:
				for _, d := range s.engine.Decorations().Decorations(nil) {
					fmt.Fprintln(out, decorationSummary(d))
				}
				return nil
			case flags.json:
				return writeGridJSON(out, screenGrid(s.engine))
			}
			return writeGrid(out, screenGrid(s.engine))
		},
	}

	cmd.Flags().StringVar(&flags.command, "command", "", "registered command to run after the scripts")
	cmd.Flags().StringArrayVar(&flags.args, "arg", nil, "argument passed to --command (repeatable)")
	cmd.Flags().BoolVar(&flags.text, "text", false, "print the buffer text instead of screen rows")
	cmd.Flags().BoolVar(&flags.decorations, "decorations", false, "list every decoration")
	cmd.Flags().BoolVar(&flags.json, "json", false, "output in JSON format")
	cmd.MarkFlagsMutuallyExclusive("text", "decorations", "json")
	return cmd
}
