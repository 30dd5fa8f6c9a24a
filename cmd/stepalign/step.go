package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aria-lang/stepalign-go/pkg/stepalign"
)

const stepHelp = `Commands:
  n, <enter>  step one cell
  u           undo the last step
  f           finish the matrix
  a           list optimal alignments (matrix must be complete)
  m           print the score matrix
  q           quit`

func newStepCmd(opts *options) *cobra.Command {
	var pair pairFlags

	cmd := &cobra.Command{
		Use:   "step [seq1 seq2]",
		Short: "Fill the matrix interactively, one cell at a time",
		Long:  "Reads commands from stdin and prints the explanation for every cell.\n\n" + stepHelp,
		Args:  cobra.RangeArgs(0, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, costs, _, err := opts.setup(cmd)
			if err != nil {
				return err
			}
			s1, s2, err := pair.resolve(args)
			if err != nil {
				return err
			}

			session, err := newSession(cfg, s1, s2, costs)
			if err != nil {
				return err
			}
			return interact(cmd.InOrStdin(), cmd.OutOrStdout(), session, cfg.Limits.MaxAlignments)
		},
	}

	pair.register(cmd)
	return cmd
}

// interact drives session from line commands until q or end of input.
func interact(in io.Reader, out io.Writer, session *stepalign.Session, limit int) error {
	fmt.Fprintln(out, stepHelp)
	scanner := bufio.NewScanner(in)

	for {
		fmt.Fprintf(out, "[%s] > ", session.State())
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}

		switch strings.ToLower(strings.TrimSpace(scanner.Text())) {
		case "", "n":
			o, err := session.Step()
			if err != nil {
				return err
			}
			if !o.Advanced {
				fmt.Fprintln(out, "Alignment already complete.")
				continue
			}
			fmt.Fprintf(out, "(%d,%d) = %s [%s] %s\n",
				o.Row, o.Col, formatScore(o.Score), o.Decision, o.Explanation)
			if o.IsComplete {
				fmt.Fprintln(out, "Alignment complete.")
			}

		case "u":
			o, err := session.Undo()
			if errors.Is(err, stepalign.ErrNoHistory) {
				fmt.Fprintln(out, "Nothing to undo.")
				continue
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Undid (%d,%d)\n", o.Row, o.Col)

		case "f":
			final, err := session.Finish()
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Final score: %s\n", formatScore(final.Score))

		case "a":
			alignments, err := session.Alignments(limit)
			if errors.Is(err, stepalign.ErrIncompleteMatrix) {
				fmt.Fprintln(out, "Matrix is not complete yet.")
				continue
			}
			if err != nil {
				return err
			}
			score, _ := session.FinalScore()
			printAlignments(out, score, alignments)

		case "m":
			printMatrix(out, session, false)

		case "q":
			return nil

		default:
			fmt.Fprintln(out, "Unknown command.")
			fmt.Fprintln(out, stepHelp)
		}
	}
}
