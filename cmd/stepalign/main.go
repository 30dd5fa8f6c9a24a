// Command stepalign provides a CLI for step-wise global sequence alignment.
//
// Usage:
//
//	stepalign [command] [options]
//
// Commands:
//
//	align       Align two sequences and print every optimal alignment
//	step        Fill the matrix interactively, one cell at a time
//	batch       Align consecutive FASTA records pairwise, concurrently
//	matrix      Print the completed score matrix
//	version     Show version information
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/aria-lang/stepalign-go/internal/config"
	"github.com/aria-lang/stepalign-go/internal/logging"
	"github.com/aria-lang/stepalign-go/pkg/stepalign"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// options holds flags shared by every alignment command.
type options struct {
	configPath string
	gapCost    float64
	matrix     string
	alphabet   string
	maxCells   int
	verbose    bool
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "stepalign",
		Short: "Step-wise global sequence alignment",
		Long: `stepalign fills a Needleman-Wunsch score matrix cell by cell, explains
every decision, supports undo, and lists every optimal alignment.`,
		SilenceUsage: true,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "YAML config file")
	flags.Float64Var(&opts.gapCost, "gap", stepalign.DefaultGapCost, "gap cost (negative is a penalty)")
	flags.StringVar(&opts.matrix, "matrix", "", `substitution matrix rows, e.g. "10 2 5 2; 2 10 2 5; 5 2 10 2; 2 5 2 10"`)
	flags.StringVar(&opts.alphabet, "alphabet", "", "symbols in matrix order (default ACGT)")
	flags.IntVar(&opts.maxCells, "max-cells", 0, "largest matrix to fill, in cells (default from config)")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "debug logging to stderr")

	root.AddCommand(
		newAlignCmd(opts),
		newStepCmd(opts),
		newBatchCmd(opts),
		newMatrixCmd(opts),
		newVersionCmd(),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprint(cmd.OutOrStdout(), stepalign.Info())
		},
	}
}

// setup loads configuration and applies command-line overrides.
func (o *options) setup(cmd *cobra.Command) (*config.Config, *stepalign.CostModel, *slog.Logger, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, nil, nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("gap") {
		cfg.Scoring.GapCost = o.gapCost
	}
	if flags.Changed("matrix") {
		cfg.Scoring.Substitution = o.matrix
	}
	if flags.Changed("alphabet") {
		cfg.Scoring.Alphabet = o.alphabet
	}
	if flags.Changed("max-cells") {
		cfg.Limits.MaxCells = o.maxCells
	}
	if o.verbose {
		cfg.Logging.Level = "debug"
	}

	costs, err := cfg.Scoring.CostModel()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("scoring: %w", err)
	}

	var logger *slog.Logger
	if o.verbose {
		logger = logging.New(cfg.Logging, cmd.ErrOrStderr())
	} else {
		logger = logging.Discard()
	}
	return cfg, costs, logger, nil
}

// newSession builds a session once the matrix fits the configured cell cap.
func newSession(cfg *config.Config, s1, s2 *stepalign.Sequence, costs *stepalign.CostModel) (*stepalign.Session, error) {
	if err := stepalign.CheckCells(s1.Len(), s2.Len(), cfg.Limits.MaxCells); err != nil {
		return nil, err
	}
	return stepalign.NewSession(s1, s2, costs)
}

// firstRecord returns the first FASTA record in path.
func firstRecord(path string) (*stepalign.Sequence, error) {
	seqs, err := stepalign.ReadFASTA(path)
	if err != nil {
		return nil, err
	}
	if len(seqs) == 0 {
		return nil, fmt.Errorf("%s: no FASTA records", path)
	}
	return seqs[0], nil
}

func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func printAlignments(w io.Writer, score float64, alignments []*stepalign.Alignment) {
	fmt.Fprintf(w, "Score: %s\n", formatScore(score))
	fmt.Fprintf(w, "Optimal alignments: %d\n", len(alignments))
	for i, a := range alignments {
		fmt.Fprintf(w, "\n#%d\n%s\n", i+1, a.Format())
	}
}
