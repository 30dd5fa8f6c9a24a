package main

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/aria-lang/stepalign-go/internal/stats"
	"github.com/aria-lang/stepalign-go/pkg/stepalign"
)

func newBatchCmd(opts *options) *cobra.Command {
	var (
		fastaPath string
		queryPath string
		workers   int
		limit     int
		show      bool
	)

	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Align consecutive FASTA records pairwise, concurrently",
		Long: `Reads a FASTA file and aligns records 1 and 2, 3 and 4, and so on.
Each pair runs in its own session; pairs are aligned concurrently.

With --query, the first record of the query file is aligned against every
record of --fasta instead, and the best scoring target is reported.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, costs, logger, err := opts.setup(cmd)
			if err != nil {
				return err
			}
			if fastaPath == "" {
				return errors.New("--fasta is required")
			}
			if !cmd.Flags().Changed("limit") {
				limit = cfg.Limits.MaxAlignments
			}

			seqs, err := stepalign.ReadFASTA(fastaPath)
			if err != nil {
				return err
			}
			if queryPath != "" {
				return runQuery(cmd, queryPath, seqs, costs, cfg.Limits.MaxCells, logger)
			}
			if len(seqs)%2 != 0 {
				return fmt.Errorf("%s: %d records, need an even number", fastaPath, len(seqs))
			}

			if lengths, err := stats.FromSequences(seqs); err == nil {
				logger.Debug("batch input", slog.String("lengths", lengths.String()))
			}

			pairs := make([]stepalign.Pair, 0, len(seqs)/2)
			for i := 0; i < len(seqs); i += 2 {
				if err := stepalign.CheckCells(seqs[i].Len(), seqs[i+1].Len(), cfg.Limits.MaxCells); err != nil {
					return fmt.Errorf("pair %d: %w", i/2, err)
				}
				pairs = append(pairs, stepalign.Pair{Seq1: seqs[i], Seq2: seqs[i+1]})
			}
			logger.Debug("batch loaded",
				slog.String("file", fastaPath),
				slog.Int("pairs", len(pairs)),
				slog.Int("workers", workers))

			results, err := stepalign.AlignBatch(cmd.Context(), pairs, costs, workers, limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			summary := make([]stats.Result, 0, len(results))
			for _, r := range results {
				summary = append(summary, stats.Result{Score: r.Score, Alignments: r.Alignments})
				p := pairs[r.Index]
				fmt.Fprintf(out, "%s vs %s: score %s, %d optimal alignment(s)\n",
					p.Seq1.Label(fmt.Sprintf("record%d", 2*r.Index+1)),
					p.Seq2.Label(fmt.Sprintf("record%d", 2*r.Index+2)),
					formatScore(r.Score), len(r.Alignments))
				if show {
					for _, a := range r.Alignments {
						fmt.Fprintf(out, "  %s\n  %s\n", a.AlignedSeq1, a.AlignedSeq2)
					}
				}
			}

			if s, err := stats.FromResults(summary); err == nil {
				fmt.Fprintf(out, "Summary: %s\n", s)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&fastaPath, "fasta", "", "FASTA file with an even number of records")
	cmd.Flags().StringVar(&queryPath, "query", "", "FASTA file whose first record is aligned against every --fasta record")
	cmd.Flags().IntVar(&workers, "workers", 4, "pairs aligned at once (0 means all)")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum alignments per pair (0 means all; default from config)")
	cmd.Flags().BoolVar(&show, "show", false, "print the aligned rows")
	return cmd
}

func runQuery(cmd *cobra.Command, queryPath string, targets []*stepalign.Sequence,
	costs *stepalign.CostModel, maxCells int, logger *slog.Logger) error {
	queries, err := stepalign.ReadFASTA(queryPath)
	if err != nil {
		return err
	}
	if len(queries) == 0 {
		return fmt.Errorf("%s: no records", queryPath)
	}
	query := queries[0]
	for i, t := range targets {
		if err := stepalign.CheckCells(query.Len(), t.Len(), maxCells); err != nil {
			return fmt.Errorf("target %d: %w", i, err)
		}
	}
	logger.Debug("query loaded",
		slog.String("file", queryPath),
		slog.Int("targets", len(targets)))

	results, err := stepalign.AlignAgainstMultiple(query, targets, costs)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	queryName := query.Label("query")
	for _, r := range results {
		fmt.Fprintf(out, "%s vs %s: score %s, identity %.1f%%\n",
			queryName, targets[r.Index].Label(fmt.Sprintf("record%d", r.Index+1)),
			formatScore(r.Alignment.Score), r.Alignment.Identity*100)
	}
	if best := stepalign.BestOf(results); best != nil {
		fmt.Fprintf(out, "Best: %s (score %s)\n",
			targets[best.Index].Label(fmt.Sprintf("record%d", best.Index+1)),
			formatScore(best.Alignment.Score))
	}
	return nil
}
