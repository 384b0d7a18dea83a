package extract

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"docharvest/internal/config"
	"docharvest/internal/models"
	"docharvest/internal/util"
)

const (
	MethodPrimary  = "primary"
	MethodFallback = "fallback"
)

// Extractor produces a plain-text sidecar per PDF: primary engine first,
// command-line fallback second, recorded failure if both are out. It never
// lets a single file abort a batch.
type Extractor struct {
	primary    Engine
	fallback   Engine
	outRoot    string
	blankChars int
	preflight  func(string) (int, error)
	log        *slog.Logger
}

func New(cfg config.Config, logger *slog.Logger) *Extractor {
	return &Extractor{
		primary:    TextLayerEngine{},
		fallback:   NewPdftotextEngine(cfg.FallbackTool),
		outRoot:    cfg.ExtractedRoot,
		blankChars: cfg.BlankPageChars,
		preflight:  Preflight,
		log:        logger,
	}
}

// NewWithEngines wires explicit engines; tests use it to exercise the
// fallback path without real PDFs.
func NewWithEngines(primary, fallback Engine, outRoot string, blankChars int, logger *slog.Logger) *Extractor {
	return &Extractor{
		primary:    primary,
		fallback:   fallback,
		outRoot:    outRoot,
		blankChars: blankChars,
		preflight:  func(string) (int, error) { return 0, nil },
		log:        logger,
	}
}

// TextPath mirrors the PDF's path relative to its root under pdf_text, so
// re-running extraction overwrites instead of duplicating.
func (x *Extractor) TextPath(relPDF string) string {
	rel := strings.TrimSuffix(relPDF, filepath.Ext(relPDF)) + ".txt"
	return filepath.Join(x.outRoot, "pdf_text", rel)
}

// TextRoot is the directory holding every extracted sidecar.
func (x *Extractor) TextRoot() string {
	return filepath.Join(x.outRoot, "pdf_text")
}

// Extract runs both engines in order against one PDF and writes the sidecar.
// Failures end up in the record, never in a panic or batch abort.
func (x *Extractor) Extract(ctx context.Context, pdfPath, relPath string) models.ExtractionRecord {
	rec := models.ExtractionRecord{SourcePDFPath: pdfPath}

	expectedPages, preErr := x.preflight(pdfPath)
	if preErr != nil {
		x.log.Warn("pdf preflight failed", "pdf", pdfPath, "error", preErr)
	}

	pages, method, err := x.extractPages(ctx, pdfPath)
	if err != nil {
		rec.Error = err.Error()
		return rec
	}
	if len(pages) == 0 {
		rec.Error = util.ErrNoExtractableText.Error()
		return rec
	}
	rec.Method = method
	rec.PageCount = len(pages)
	if expectedPages > 0 && expectedPages != len(pages) {
		x.log.Warn("page count mismatch", "pdf", pdfPath, "preflight", expectedPages, "extracted", len(pages))
	}

	blank := make([]int, 0)
	var body strings.Builder
	for _, p := range pages {
		text := util.SanitizeText(p.Text)
		if len(strings.TrimSpace(text)) < x.blankChars {
			blank = append(blank, p.Number)
		}
		fmt.Fprintf(&body, "--- PAGE %d ---\n%s\n\n", p.Number, text)
	}
	sort.Ints(blank)

	var out strings.Builder
	fmt.Fprintf(&out, "SOURCE: %s\n", filepath.Base(pdfPath))
	fmt.Fprintf(&out, "PAGES: %d\n", len(pages))
	fmt.Fprintf(&out, "BLANK PAGES: %d\n", len(blank))
	out.WriteString(strings.Repeat("=", 70) + "\n\n")
	out.WriteString(body.String())

	textPath := x.TextPath(relPath)
	if err := util.WriteTextAtomic(textPath, out.String()); err != nil {
		rec.Error = err.Error()
		return rec
	}
	rec.TextPath = textPath
	rec.BlankPages = blank
	rec.Success = true
	return rec
}

func (x *Extractor) extractPages(ctx context.Context, pdfPath string) ([]PageText, string, error) {
	var primaryErr error
	if x.primary.Available() {
		pages, err := x.primary.ExtractPages(ctx, pdfPath)
		if err == nil {
			return pages, MethodPrimary, nil
		}
		primaryErr = err
		x.log.Info("primary engine failed, trying fallback", "pdf", pdfPath, "engine", x.primary.Name(), "error", err)
	} else {
		primaryErr = util.ErrEngineUnavailable
	}

	if x.fallback.Available() {
		pages, err := x.fallback.ExtractPages(ctx, pdfPath)
		if err == nil {
			return pages, MethodFallback, nil
		}
		return nil, "", fmt.Errorf("primary (%s): %v; fallback (%s): %v", x.primary.Name(), primaryErr, x.fallback.Name(), err)
	}
	return nil, "", fmt.Errorf("primary (%s): %v; fallback (%s): %w", x.primary.Name(), primaryErr, x.fallback.Name(), util.ErrEngineUnavailable)
}

// ExtractAll walks pdfRoot for PDFs in sorted order and extracts each one,
// skipping files whose sidecar already exists. Only PDFs that finished
// downloading are on disk at all, so presence is the completion check.
func (x *Extractor) ExtractAll(ctx context.Context, pdfRoot string) ([]models.ExtractionRecord, error) {
	pdfs, err := listPDFs(pdfRoot)
	if err != nil {
		return nil, err
	}
	records := make([]models.ExtractionRecord, 0, len(pdfs))
	for _, pdfPath := range pdfs {
		if err := ctx.Err(); err != nil {
			return records, err
		}
		rel, err := filepath.Rel(pdfRoot, pdfPath)
		if err != nil {
			rel = filepath.Base(pdfPath)
		}
		textPath := x.TextPath(rel)
		if _, err := os.Stat(textPath); err == nil {
			records = append(records, models.ExtractionRecord{
				SourcePDFPath: pdfPath,
				TextPath:      textPath,
				Success:       true,
				Skipped:       true,
			})
			continue
		}
		x.log.Info("extracting", "pdf", rel)
		records = append(records, x.Extract(ctx, pdfPath, rel))
	}
	return records, nil
}

func listPDFs(root string) ([]string, error) {
	if _, err := os.Stat(root); os.IsNotExist(err) {
		return nil, nil
	}
	var pdfs []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if strings.HasSuffix(strings.ToLower(d.Name()), ".pdf") {
			pdfs = append(pdfs, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}
	sort.Strings(pdfs)
	return pdfs, nil
}
