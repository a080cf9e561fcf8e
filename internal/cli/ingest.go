package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"ragchat/internal/app"
	"ragchat/internal/pkg/docparse"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <pattern>...",
	Short: "Parse, chunk and index files",
	Long: `Index every file matching the given patterns. Patterns support ** for
recursive matching. Supported formats are pdf, docx, csv and txt; other
extensions are read as plain text.

Examples:
  ragctl ingest regulamin.pdf
  ragctl ingest "docs/**/*.{pdf,docx}" data/*.csv`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	paths, err := expandPatterns(args)
	if err != nil {
		return err
	}

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	total, err := ingestPaths(cmd.Context(), a.Ingest, paths, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Indexed %d chunks from %d files into %s\n", total, len(paths), cfg.Store.Collection)
	return nil
}

// expandPatterns resolves glob patterns into a sorted, de-duplicated list of
// regular files.
func expandPatterns(patterns []string) ([]string, error) {
	seen := make(map[string]bool)
	var paths []string
	for _, pattern := range patterns {
		matches, err := doublestar.FilepathGlob(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
		}
		for _, m := range matches {
			info, err := os.Stat(m)
			if err != nil || info.IsDir() {
				continue
			}
			m = filepath.Clean(m)
			if !seen[m] {
				seen[m] = true
				paths = append(paths, m)
			}
		}
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no files match %v", patterns)
	}
	sort.Strings(paths)
	return paths, nil
}

// ingestPaths indexes files one at a time so that a failure keeps the files
// already stored.
func ingestPaths(ctx context.Context, svc *app.IngestService, paths []string, out io.Writer) (int, error) {
	bar := progressbar.NewOptions(len(paths),
		progressbar.OptionSetWriter(out),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionSetDescription("Ingesting"),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(out)
		}),
	)

	total := 0
	for _, path := range paths {
		records, err := parsePath(path)
		if err != nil {
			return total, err
		}
		n, err := svc.Ingest(ctx, records)
		if err != nil {
			return total, fmt.Errorf("ingest %s: %w", path, err)
		}
		total += n
		_ = bar.Add(1)
	}
	return total, nil
}

func parsePath(path string) ([]docparse.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return docparse.ParseReader(filepath.Base(path), f)
}
