package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"docharvest/internal/catalog"
	"docharvest/internal/config"
	"docharvest/internal/models"
	"docharvest/internal/pipeline"
	"docharvest/internal/search"
	"docharvest/internal/status"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load(".env")
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	os.Exit(runCLI(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

func runCLI(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("docharvest", flag.ContinueOnError)
	fs.SetOutput(stderr)
	all := fs.Bool("all", false, "download everything and extract text")
	statusOnly := fs.Bool("status", false, "show what's downloaded")
	searchTerm := fs.String("search", "", "search all extracted text for a term")
	archiveOnly := fs.Bool("archive-only", false, "only download from the archive provider")
	githubOnly := fs.Bool("github-only", false, "only download from the OCR archive")
	extractOnly := fs.Bool("extract", false, "only extract PDF text and scan for patterns")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(stderr, "usage: docharvest [--all | --status | --search TERM | --archive-only | --github-only | --extract]")
		return 2
	}

	cfg := config.Load()
	entries, err := catalog.Resolve(cfg.CatalogPath)
	if err != nil {
		fmt.Fprintf(stderr, "catalog: %v\n", err)
		return 1
	}
	logger := slog.New(slog.NewTextHandler(stderr, nil))

	switch {
	case *statusOnly:
		rep, err := status.NewReporter(entries, cfg.DocsRoot, cfg.ExtractedRoot).Report()
		if err != nil {
			fmt.Fprintf(stderr, "status: %v\n", err)
			return 1
		}
		status.Render(stdout, rep)
		return 0

	case *searchTerm != "":
		roots := []string{
			filepath.Join(cfg.DocsRoot, "github_ocr"),
			cfg.ExtractedRoot,
		}
		res, err := search.Search(roots, *searchTerm)
		if err != nil {
			fmt.Fprintf(stderr, "search: %v\n", err)
			return 1
		}
		renderSearch(stdout, *searchTerm, res)
		return 0

	case *all, *archiveOnly, *githubOnly, *extractOnly:
		p, err := pipeline.New(cfg, entries, logger)
		if err != nil {
			fmt.Fprintf(stderr, "configuration: %v\n", err)
			return 1
		}
		var sum models.RunSummary
		var runErr error
		switch {
		case *all:
			sum, runErr = p.RunAll(ctx)
		case *archiveOnly:
			sum, runErr = p.RunFetch(ctx, catalog.ProviderArchive)
		case *githubOnly:
			sum, runErr = p.RunFetch(ctx, catalog.ProviderGitHubOCR)
		case *extractOnly:
			sum, runErr = p.RunExtract(ctx)
		}
		if runErr != nil {
			fmt.Fprintf(stderr, "run: %v\n", runErr)
			return 1
		}
		renderSummary(stdout, sum)
		// Per-item failures are reported above, not via the exit code.
		return 0
	}

	fs.Usage()
	return 2
}

func renderSummary(w io.Writer, sum models.RunSummary) {
	fmt.Fprintf(w, "run %s finished in %s\n", sum.RunID, sum.FinishedAt.Sub(sum.StartedAt).Round(time.Millisecond))
	fmt.Fprintf(w, "  downloaded:  %d (skipped %d, failed %d)\n", sum.Downloaded, sum.SkippedDownloads, sum.FailedDownloads)
	fmt.Fprintf(w, "  extracted:   %d (skipped %d, failed %d)\n", sum.Extracted, sum.SkippedExtraction, sum.FailedExtraction)
	fmt.Fprintf(w, "  findings:    %d\n", sum.Findings)
	if len(sum.Failures) > 0 {
		fmt.Fprintf(w, "  failures (%d):\n", len(sum.Failures))
		for _, f := range sum.Failures {
			fmt.Fprintf(w, "    [%s] %s: %s\n", f.Stage, f.Item, f.Reason)
		}
	}
}

func renderSearch(w io.Writer, term string, res search.Result) {
	if len(res.Hits) == 0 {
		fmt.Fprintf(w, "no matches found for %q\n", term)
	} else {
		fmt.Fprintf(w, "found %d matching lines for %q:\n", len(res.Hits), term)
		for _, h := range res.Hits {
			fmt.Fprintf(w, "  %s:%d: %s\n", h.TextPath, h.Line, h.Snippet)
		}
	}
	for _, s := range res.Skipped {
		fmt.Fprintf(w, "  skipped unreadable file: %s\n", s)
	}
}
