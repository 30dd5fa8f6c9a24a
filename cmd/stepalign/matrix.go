package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/aria-lang/stepalign-go/pkg/stepalign"
)

func newMatrixCmd(opts *options) *cobra.Command {
	var (
		pair      pairFlags
		decisions bool
	)

	cmd := &cobra.Command{
		Use:   "matrix [seq1 seq2]",
		Short: "Print the completed score matrix",
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
			if _, err := session.FinishContext(cmd.Context()); err != nil {
				return err
			}
			printMatrix(cmd.OutOrStdout(), session, decisions)
			return nil
		},
	}

	pair.register(cmd)
	cmd.Flags().BoolVar(&decisions, "decisions", false, "append the winning directions to every cell")
	return cmd
}

// printMatrix writes the score table with sequence 2 across the top and
// sequence 1 down the side. Unset cells print as ".".
func printMatrix(w io.Writer, session *stepalign.Session, decisions bool) {
	s1, s2 := session.Sequences()
	m := session.Matrix()

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)

	header := []string{"", "-"}
	for i := 0; i < s2.Len(); i++ {
		header = append(header, string(s2.Bases[i]))
	}
	fmt.Fprintln(tw, strings.Join(header, "\t")+"\t")

	for i := 0; i < m.Rows(); i++ {
		label := "-"
		if i > 0 {
			label = string(s1.Bases[i-1])
		}
		cells := []string{label}
		for j := 0; j < m.Cols(); j++ {
			cells = append(cells, cellText(m, i, j, decisions))
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t")+"\t")
	}
	tw.Flush()
}

func cellText(m *stepalign.Matrix, i, j int, decisions bool) string {
	score, set := m.Score(i, j)
	if !set {
		return "."
	}
	text := formatScore(score)
	if d := m.Decision(i, j); decisions && !d.IsEmpty() {
		text += " " + arrows(d)
	}
	return text
}

// arrows renders a decision as direction glyphs in diagonal, up, left order.
func arrows(d stepalign.Decision) string {
	var b strings.Builder
	for _, dir := range d.Directions() {
		switch dir {
		case stepalign.Diagonal:
			b.WriteString("\\")
		case stepalign.Up:
			b.WriteString("^")
		case stepalign.Left:
			b.WriteString("<")
		}
	}
	return b.String()
}
