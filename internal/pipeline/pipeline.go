package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"docharvest/internal/catalog"
	"docharvest/internal/config"
	"docharvest/internal/extract"
	"docharvest/internal/fetch"
	"docharvest/internal/models"
	"docharvest/internal/scan"
	"docharvest/internal/util"

	"github.com/google/uuid"
)

// Pipeline wires catalog -> fetchers -> extractor -> scanner and runs them
// as a sequential batch: one item at a time, item failures collected into
// the run summary, never aborting the run. Only configuration problems
// (unwritable roots, invalid catalog) are fatal.
type Pipeline struct {
	cfg       config.Config
	entries   []catalog.Entry
	archive   *fetch.ArchiveFetcher
	github    *fetch.GitHubFetcher
	extractor *extract.Extractor
	scanner   *scan.Scanner
	log       *slog.Logger
}

func New(cfg config.Config, entries []catalog.Entry, logger *slog.Logger) (*Pipeline, error) {
	if err := catalog.Validate(entries); err != nil {
		return nil, err
	}
	if err := util.ProbeWritable(cfg.DocsRoot); err != nil {
		return nil, err
	}
	if err := util.ProbeWritable(cfg.ExtractedRoot); err != nil {
		return nil, err
	}
	client := fetch.NewClient(cfg, logger)
	return &Pipeline{
		cfg:       cfg,
		entries:   entries,
		archive:   fetch.NewArchiveFetcher(cfg, client, logger),
		github:    fetch.NewGitHubFetcher(cfg, client, logger),
		extractor: extract.New(cfg, logger),
		scanner:   scan.NewScanner(logger),
		log:       logger,
	}, nil
}

// SetExtractor swaps the extraction stage; tests use it to run the pipeline
// with stub engines.
func (p *Pipeline) SetExtractor(x *extract.Extractor) {
	p.extractor = x
}

// RunAll is the whole batch: both providers, extraction, pattern scan, then
// a persisted per-run summary.
func (p *Pipeline) RunAll(ctx context.Context) (models.RunSummary, error) {
	sum := p.newSummary()
	p.FetchArchive(ctx, &sum)
	p.FetchGitHub(ctx, &sum)
	p.ExtractAll(ctx, &sum)
	p.ScanAll(ctx, &sum)
	return p.finish(sum)
}

func (p *Pipeline) newSummary() models.RunSummary {
	return models.RunSummary{
		RunID:     uuid.NewString(),
		StartedAt: time.Now().UTC(),
	}
}

func (p *Pipeline) finish(sum models.RunSummary) (models.RunSummary, error) {
	sum.FinishedAt = time.Now().UTC()
	path := filepath.Join(p.cfg.ExtractedRoot, "runs", sum.RunID, "summary.json")
	if err := util.WriteJSONAtomic(path, sum); err != nil {
		return sum, fmt.Errorf("write run summary: %w", err)
	}
	return sum, nil
}

// RunFetch runs the download stage only, optionally restricted to one
// provider (empty provider means both).
func (p *Pipeline) RunFetch(ctx context.Context, only catalog.Provider) (models.RunSummary, error) {
	sum := p.newSummary()
	if only == "" || only == catalog.ProviderArchive {
		p.FetchArchive(ctx, &sum)
	}
	if only == "" || only == catalog.ProviderGitHubOCR {
		p.FetchGitHub(ctx, &sum)
	}
	return p.finish(sum)
}

// RunExtract runs extraction plus the pattern scan over whatever PDFs are
// already on disk.
func (p *Pipeline) RunExtract(ctx context.Context) (models.RunSummary, error) {
	sum := p.newSummary()
	p.ExtractAll(ctx, &sum)
	p.ScanAll(ctx, &sum)
	return p.finish(sum)
}

func (p *Pipeline) FetchArchive(ctx context.Context, sum *models.RunSummary) {
	for _, e := range catalog.ByProvider(p.entries, catalog.ProviderArchive) {
		if ctx.Err() != nil {
			return
		}
		p.log.Info("fetching archive entry", "entry", e.ID, "name", e.Name)
		records, err := p.archive.FetchEntry(ctx, e)
		if err != nil {
			sum.FailedDownloads++
			sum.Failures = append(sum.Failures, models.ItemFailure{
				Stage:  "fetch",
				Item:   e.ID,
				Reason: err.Error(),
			})
			continue
		}
		p.tally(sum, records)
	}
}

func (p *Pipeline) FetchGitHub(ctx context.Context, sum *models.RunSummary) {
	for _, e := range catalog.ByProvider(p.entries, catalog.ProviderGitHubOCR) {
		if ctx.Err() != nil {
			return
		}
		p.log.Info("fetching OCR archive", "entry", e.ID, "repo", e.Repo)
		records, err := p.github.FetchEntry(ctx, e)
		p.tally(sum, records)
		if err != nil && ctx.Err() == nil {
			sum.Failures = append(sum.Failures, models.ItemFailure{
				Stage:  "fetch",
				Item:   e.ID,
				Reason: err.Error(),
			})
		}
	}
}

func (p *Pipeline) tally(sum *models.RunSummary, records []models.DownloadRecord) {
	for _, r := range records {
		switch {
		case r.Skipped:
			sum.SkippedDownloads++
		case r.Completed:
			sum.Downloaded++
		default:
			sum.FailedDownloads++
			sum.Failures = append(sum.Failures, models.ItemFailure{
				Stage:  "fetch",
				Item:   r.LocalPath,
				Reason: r.Error,
			})
		}
	}
}

func (p *Pipeline) ExtractAll(ctx context.Context, sum *models.RunSummary) {
	pdfRoot := filepath.Join(p.cfg.DocsRoot, "internet_archive")
	records, err := p.extractor.ExtractAll(ctx, pdfRoot)
	if err != nil && ctx.Err() == nil {
		sum.Failures = append(sum.Failures, models.ItemFailure{
			Stage:  "extract",
			Item:   pdfRoot,
			Reason: err.Error(),
		})
	}
	for _, r := range records {
		switch {
		case r.Skipped:
			sum.SkippedExtraction++
		case r.Success:
			sum.Extracted++
		default:
			sum.FailedExtraction++
			sum.Failures = append(sum.Failures, models.ItemFailure{
				Stage:  "extract",
				Item:   r.SourcePDFPath,
				Reason: r.Error,
			})
		}
	}
	if len(records) > 0 {
		indexPath := filepath.Join(p.cfg.ExtractedRoot, "extraction_records.json")
		if err := util.WriteJSONAtomic(indexPath, records); err != nil {
			p.log.Warn("write extraction index failed", "error", err)
		}
	}
}

func (p *Pipeline) ScanAll(ctx context.Context, sum *models.RunSummary) {
	if ctx.Err() != nil {
		return
	}
	findings, skipped, err := p.scanner.ScanAll(p.extractor.TextRoot())
	if err != nil {
		sum.Failures = append(sum.Failures, models.ItemFailure{
			Stage:  "scan",
			Item:   p.extractor.TextRoot(),
			Reason: err.Error(),
		})
		return
	}
	for _, path := range skipped {
		sum.Failures = append(sum.Failures, models.ItemFailure{
			Stage:  "scan",
			Item:   path,
			Reason: "unreadable text file, skipped",
		})
	}
	sum.Findings = len(findings)
	if len(findings) > 0 {
		path := filepath.Join(p.cfg.ExtractedRoot, "interesting_finds.json")
		if err := util.WriteJSONAtomic(path, findings); err != nil {
			sum.Failures = append(sum.Failures, models.ItemFailure{
				Stage:  "scan",
				Item:   path,
				Reason: err.Error(),
			})
			return
		}
		p.log.Info("interesting patterns saved", "findings", len(findings))
	}
}
