package main

import (
	"github.com/spf13/cobra"

	"github.com/dshills/tessera/internal/engine"
)

type layoutFlags struct {
	wrap     int
	wordWrap bool
	folds    []string
	json     bool
	top      float64
	height   float64
}

func newLayoutCmd(global *globalFlags) *cobra.Command {
	var flags layoutFlags

	cmd := &cobra.Command{
		Use:   "layout FILE",
		Short: "Print the screen rows of a file",
		Long: `Print every screen row of FILE with its screen row, buffer row and text.
Continuation rows of a soft-wrapped line show ↪ in place of the buffer row.
With --height only the rows of a viewport that many pixels tall, scrolled
to --top, are printed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var extra []engine.Option
			if cmd.Flags().Changed("wrap") {
				extra = append(extra, engine.WithSoftWrap(flags.wrap))
			}
			if cmd.Flags().Changed("word-wrap") {
				extra = append(extra, engine.WithWordWrap(flags.wordWrap))
			}

			s, err := openSession(global, args[0], extra...)
			if err != nil {
				return err
			}
			defer s.Close()

			if err := applyFolds(s.engine.Display(), flags.folds); err != nil {
				return err
			}

			rows := visibleGrid(s.engine, flags.top, flags.height)
			if flags.json {
				return writeGridJSON(cmd.OutOrStdout(), rows)
			}
			return writeGrid(cmd.OutOrStdout(), rows)
		},
	}

	cmd.Flags().IntVar(&flags.wrap, "wrap", 0, "soft wrap column (0 disables)")
	cmd.Flags().BoolVar(&flags.wordWrap, "word-wrap", false, "wrap at word boundaries")
	cmd.Flags().StringArrayVar(&flags.folds, "fold", nil, "fold buffer rows START-END under START (repeatable)")
	cmd.Flags().BoolVar(&flags.json, "json", false, "output in JSON format")
	cmd.Flags().Float64Var(&flags.top, "top", 0, "viewport scroll position in pixels")
	cmd.Flags().Float64Var(&flags.height, "height", 0, "viewport height in pixels (0 prints every row)")
	return cmd
}
