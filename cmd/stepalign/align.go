package main

import (
	"errors"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/aria-lang/stepalign-go/pkg/stepalign"
)

// pairFlags selects the two input sequences.
type pairFlags struct {
	seq1, seq2     string
	fasta1, fasta2 string
}

func (p *pairFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&p.seq1, "seq1", "", "first sequence")
	cmd.Flags().StringVar(&p.seq2, "seq2", "", "second sequence")
	cmd.Flags().StringVar(&p.fasta1, "fasta1", "", "FASTA file whose first record is the first sequence")
	cmd.Flags().StringVar(&p.fasta2, "fasta2", "", "FASTA file whose first record is the second sequence")
}

// resolve returns the inputs from positional args, or from flags where a
// FASTA file takes precedence over a literal sequence.
func (p *pairFlags) resolve(args []string) (*stepalign.Sequence, *stepalign.Sequence, error) {
	if len(args) == 2 {
		return stepalign.NewSequence(args[0]), stepalign.NewSequence(args[1]), nil
	}
	if len(args) == 1 || (p.seq1 == "" && p.seq2 == "" && p.fasta1 == "" && p.fasta2 == "") {
		return nil, nil, errors.New("give two sequences as arguments, or use --seq1/--seq2 or --fasta1/--fasta2")
	}

	s1, err := p.one(p.seq1, p.fasta1)
	if err != nil {
		return nil, nil, err
	}
	s2, err := p.one(p.seq2, p.fasta2)
	if err != nil {
		return nil, nil, err
	}
	return s1, s2, nil
}

func (p *pairFlags) one(literal, fastaPath string) (*stepalign.Sequence, error) {
	if fastaPath != "" {
		return firstRecord(fastaPath)
	}
	return stepalign.NewSequence(literal), nil
}

func newAlignCmd(opts *options) *cobra.Command {
	var (
		pair  pairFlags
		limit int
	)

	cmd := &cobra.Command{
		Use:   "align [seq1 seq2]",
		Short: "Align two sequences and print every optimal alignment",
		Args:  cobra.RangeArgs(0, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, costs, logger, err := opts.setup(cmd)
			if err != nil {
				return err
			}
			s1, s2, err := pair.resolve(args)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("limit") {
				limit = cfg.Limits.MaxAlignments
			}

			session, err := newSession(cfg, s1, s2, costs)
			if err != nil {
				return err
			}
			final, err := session.FinishContext(cmd.Context())
			if err != nil {
				return err
			}
			alignments, err := session.Alignments(limit)
			if err != nil {
				return err
			}

			logger.Debug("aligned",
				slog.String("seq1", s1.Label("seq1")),
				slog.String("seq2", s2.Label("seq2")),
				slog.Int("alignments", len(alignments)))

			printAlignments(cmd.OutOrStdout(), final.Score, alignments)
			return nil
		},
	}

	pair.register(cmd)
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum alignments to print (0 means all; default from config)")
	return cmd
}
