package status

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"docharvest/internal/catalog"
	"docharvest/internal/models"
	"docharvest/internal/util"
)

// Reporter summarizes on-disk state against the catalog. Pure read: it never
// creates or mutates anything.
type Reporter struct {
	entries       []catalog.Entry
	docsRoot      string
	extractedRoot string
}

func NewReporter(entries []catalog.Entry, docsRoot, extractedRoot string) *Reporter {
	return &Reporter{entries: entries, docsRoot: docsRoot, extractedRoot: extractedRoot}
}

func (r *Reporter) Report() (models.Report, error) {
	var report models.Report

	findingsByDir := r.findingDirs()

	archive := models.ProviderStatus{Provider: string(catalog.ProviderArchive)}
	for _, e := range catalog.ByProvider(r.entries, catalog.ProviderArchive) {
		archive.CatalogEntries++
		dir := filepath.Join(r.docsRoot, "internet_archive", e.ID)
		files, bytes := countFiles(dir, ".pdf")
		archive.Files += files
		archive.Bytes += bytes
		if files > 0 {
			archive.EntriesDownloaded++
		}
		textDir := filepath.Join(r.extractedRoot, "pdf_text", e.ID)
		texts, _ := countFiles(textDir, ".txt")
		if texts > 0 {
			archive.EntriesExtracted++
		}
		if findingsByDir[filepath.Clean(textDir)] {
			archive.EntriesWithFindings++
		}
	}
	report.Providers = append(report.Providers, archive)

	github := models.ProviderStatus{Provider: string(catalog.ProviderGitHubOCR)}
	for range catalog.ByProvider(r.entries, catalog.ProviderGitHubOCR) {
		github.CatalogEntries++
		dir := filepath.Join(r.docsRoot, "github_ocr")
		files, bytes := countFiles(dir, ".txt", ".json")
		github.Files += files
		github.Bytes += bytes
		if files > 0 {
			github.EntriesDownloaded++
			// The OCR archive ships its text already extracted.
			github.EntriesExtracted++
		}
	}
	report.Providers = append(report.Providers, github)

	extracted, _ := countFiles(filepath.Join(r.extractedRoot, "pdf_text"), ".txt")
	report.ExtractedTextFiles = extracted
	for _, p := range report.Providers {
		report.TotalFiles += p.Files
		report.TotalBytes += p.Bytes
	}
	return report, nil
}

// findingDirs maps the directories that hold at least one finding, keyed by
// the per-entry text directory.
func (r *Reporter) findingDirs() map[string]bool {
	out := make(map[string]bool)
	path := filepath.Join(r.extractedRoot, "interesting_finds.json")
	var findings []models.FindingRecord
	if err := util.ReadJSON(path, &findings); err != nil {
		return out
	}
	textRoot := filepath.Clean(filepath.Join(r.extractedRoot, "pdf_text"))
	for _, f := range findings {
		dir := filepath.Clean(filepath.Dir(f.TextPath))
		for dir != "." && dir != string(filepath.Separator) {
			parent := filepath.Dir(dir)
			if parent == textRoot {
				out[dir] = true
				break
			}
			if parent == dir {
				break
			}
			dir = parent
		}
	}
	return out
}

func countFiles(dir string, exts ...string) (int, int64) {
	var files int
	var bytes int64
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if d.IsDir() {
			return nil
		}
		name := strings.ToLower(d.Name())
		for _, ext := range exts {
			if strings.HasSuffix(name, ext) {
				files++
				if fi, err := d.Info(); err == nil {
					bytes += fi.Size()
				}
				break
			}
		}
		return nil
	})
	return files, bytes
}

// Render writes the human-readable status summary.
func Render(w io.Writer, report models.Report) {
	fmt.Fprintln(w, strings.Repeat("=", 70))
	fmt.Fprintln(w, "DOWNLOAD STATUS")
	fmt.Fprintln(w, strings.Repeat("=", 70))
	for _, p := range report.Providers {
		fmt.Fprintf(w, "\n  %s\n", p.Provider)
		fmt.Fprintf(w, "     catalog entries:  %d\n", p.CatalogEntries)
		fmt.Fprintf(w, "     downloaded:       %d\n", p.EntriesDownloaded)
		fmt.Fprintf(w, "     extracted:        %d\n", p.EntriesExtracted)
		fmt.Fprintf(w, "     with findings:    %d\n", p.EntriesWithFindings)
		fmt.Fprintf(w, "     files:            %d (%.1f MB)\n", p.Files, float64(p.Bytes)/1024/1024)
	}
	fmt.Fprintf(w, "\n  extracted text files: %d\n", report.ExtractedTextFiles)
	fmt.Fprintf(w, "  TOTAL: %d files (%.1f MB)\n", report.TotalFiles, float64(report.TotalBytes)/1024/1024)
}
