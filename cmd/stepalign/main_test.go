package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aria-lang/stepalign-go/pkg/stepalign"
)

func runCLI(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetArgs(args)
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	err := root.Execute()
	return out.String(), err
}

func TestAlignCommand(t *testing.T) {
	out, err := runCLI(t, "", "align", "AATAAT", "AAGG")
	require.NoError(t, err)

	assert.Contains(t, out, "Score: 20")
	assert.Contains(t, out, "Optimal alignments: 1")
	assert.Contains(t, out, "Seq1: AATAAT")
	assert.Contains(t, out, "Seq2: AA-GG-")
}

func TestAlignCommandTies(t *testing.T) {
	out, err := runCLI(t, "", "align", "--seq1", "AAAA", "--seq2", "AA", "--limit", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "Optimal alignments: 2")
	assert.Contains(t, out, "Seq2: --AA")
	assert.Contains(t, out, "Seq2: -A-A")
}

func TestAlignCommandScoringFlags(t *testing.T) {
	out, err := runCLI(t, "", "align", "--gap", "-4", "AT", "TA")
	require.NoError(t, err)
	assert.Contains(t, out, "Score: 4")

	out, err = runCLI(t, "", "align", "--alphabet", "XY", "--matrix", "3 -1; -1 3", "--gap", "-1", "XYX", "XX")
	require.NoError(t, err)
	assert.Contains(t, out, "Score: 5")
	assert.Contains(t, out, "Seq2: X-X")
}

func TestAlignCommandCustomAlphabet(t *testing.T) {
	out, err := runCLI(t, "", "align", "--alphabet", "xy", "--matrix", "3 -1; -1 3", "--gap", "-1", "xyx", "XX")
	require.NoError(t, err)
	assert.Contains(t, out, "Score: 5")
	assert.Contains(t, out, "Seq1: XYX")

	_, err = runCLI(t, "", "align", "--alphabet", "A-", "--matrix", "1 0; 0 1", "A-", "A")
	assert.ErrorIs(t, err, stepalign.ErrInvalidAlphabet)
}

func TestCellCap(t *testing.T) {
	_, err := runCLI(t, "", "align", "--max-cells", "20", "AATAAT", "AAGG")
	assert.ErrorIs(t, err, stepalign.ErrMatrixTooLarge)

	_, err = runCLI(t, "", "matrix", "--max-cells", "20", "AATAAT", "AAGG")
	assert.ErrorIs(t, err, stepalign.ErrMatrixTooLarge)

	_, err = runCLI(t, "q\n", "step", "--max-cells", "20", "AATAAT", "AAGG")
	assert.ErrorIs(t, err, stepalign.ErrMatrixTooLarge)

	out, err := runCLI(t, "", "align", "--max-cells", "24", "AATAAT", "AAGG")
	require.NoError(t, err)
	assert.Contains(t, out, "Score: 20")

	path := filepath.Join(t.TempDir(), "pairs.fasta")
	require.NoError(t, os.WriteFile(path, []byte(">q1\nAATAAT\n>t1\nAAGG\n"), 0o600))
	_, err = runCLI(t, "", "batch", "--max-cells", "20", "--fasta", path)
	assert.ErrorIs(t, err, stepalign.ErrMatrixTooLarge)
}

func TestAlignCommandErrors(t *testing.T) {
	_, err := runCLI(t, "", "align")
	assert.Error(t, err)

	_, err = runCLI(t, "", "align", "ACGU", "ACG")
	assert.Error(t, err)

	_, err = runCLI(t, "", "align", "--matrix", "1 2; 3", "AC", "AC")
	assert.Error(t, err)
}

func TestAlignCommandFASTA(t *testing.T) {
	dir := t.TempDir()
	f1 := filepath.Join(dir, "a.fasta")
	f2 := filepath.Join(dir, "b.fasta")
	require.NoError(t, os.WriteFile(f1, []byte(">a\nACGT\n"), 0o600))
	require.NoError(t, os.WriteFile(f2, []byte(">b\nAGT\n"), 0o600))

	out, err := runCLI(t, "", "align", "--fasta1", f1, "--fasta2", f2)
	require.NoError(t, err)
	assert.Contains(t, out, "Score: 25")
	assert.Contains(t, out, "Seq2: A-GT")
}

func TestStepCommand(t *testing.T) {
	out, err := runCLI(t, "u\nn\nn\nn\na\nq\n", "step", "AA", "A")
	require.NoError(t, err)

	assert.Contains(t, out, "Nothing to undo.")
	assert.Contains(t, out, "(1,1) = 10 [diagonal] Match/mismatch between A and A. Cost: 10.")
	assert.Contains(t, out, "(2,1) = 5 [diagonal|up] Match/mismatch between A and A. Cost: 10. | Deletion. Using gap cost.")
	assert.Contains(t, out, "Alignment complete.")
	assert.Contains(t, out, "Alignment already complete.")
	assert.Contains(t, out, "Optimal alignments: 2")
}

func TestStepCommandUndoAndFinish(t *testing.T) {
	out, err := runCLI(t, "a\nn\nu\nf\nm\n", "step", "AATAAT", "AAGG")
	require.NoError(t, err)

	assert.Contains(t, out, "Matrix is not complete yet.")
	assert.Contains(t, out, "Undid (1,1)")
	assert.Contains(t, out, "Final score: 20")
	assert.Contains(t, out, "[complete]")
}

func TestMatrixCommand(t *testing.T) {
	out, err := runCLI(t, "", "matrix", "--decisions", "AA", "A")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[3], "5 \\^")
	assert.Contains(t, lines[2], "10 \\")
}

func TestBatchCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pairs.fasta")
	require.NoError(t, os.WriteFile(path, []byte(">q1\nAATAAT\n>t1\nAAGG\n>q2\nAAAA\n>t2\nAA\n"), 0o600))

	out, err := runCLI(t, "", "batch", "--fasta", path, "--workers", "2", "--show")
	require.NoError(t, err)
	assert.Contains(t, out, "q1 vs t1: score 20, 1 optimal alignment(s)")
	assert.Contains(t, out, "q2 vs t2: score 10, 6 optimal alignment(s)")
	assert.Contains(t, out, "  AA-GG-")
	assert.Contains(t, out, "Summary: 2 pairs, score 10 to 20")
	assert.Contains(t, out, "7 optimal alignments, 1 tied pairs")

	odd := filepath.Join(t.TempDir(), "odd.fasta")
	require.NoError(t, os.WriteFile(odd, []byte(">q1\nA\n"), 0o600))
	_, err = runCLI(t, "", "batch", "--fasta", odd)
	assert.Error(t, err)
}

func TestBatchQuery(t *testing.T) {
	dir := t.TempDir()
	query := filepath.Join(dir, "query.fasta")
	targets := filepath.Join(dir, "targets.fasta")
	require.NoError(t, os.WriteFile(query, []byte(">q\nAATAAT\n"), 0o600))
	require.NoError(t, os.WriteFile(targets, []byte(">t1\nAAGG\n>t2\nAATAAT\n"), 0o600))

	out, err := runCLI(t, "", "batch", "--query", query, "--fasta", targets)
	require.NoError(t, err)
	assert.Contains(t, out, "q vs t1: score 20")
	assert.Contains(t, out, "q vs t2: score 60, identity 100.0%")
	assert.Contains(t, out, "Best: t2 (score 60)")

	_, err = runCLI(t, "", "batch", "--max-cells", "20", "--query", query, "--fasta", targets)
	assert.ErrorIs(t, err, stepalign.ErrMatrixTooLarge)
}

func TestVersionCommand(t *testing.T) {
	out, err := runCLI(t, "", "version")
	require.NoError(t, err)
	assert.Contains(t, out, "stepalign v")
}
