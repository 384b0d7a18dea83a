package pipeline

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"docharvest/internal/catalog"
	"docharvest/internal/config"
	"docharvest/internal/extract"
	"docharvest/internal/models"
	"docharvest/internal/util"

	"github.com/stretchr/testify/require"
)

type stubEngine struct {
	pages []extract.PageText
	err   error
}

func (s stubEngine) Name() string    { return "stub" }
func (s stubEngine) Available() bool { return true }
func (s stubEngine) ExtractPages(context.Context, string) ([]extract.PageText, error) {
	return s.pages, s.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// archiveServer serves a good entry and an always-failing one.
func archiveServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/metadata/good-item", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"files":[{"name":"doc.pdf","size":"8"}]}`))
	})
	mux.HandleFunc("/download/good-item/doc.pdf", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("%PDF-1.4"))
	})
	mux.HandleFunc("/metadata/bad-item", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func testPipeline(t *testing.T, srvURL string) (*Pipeline, config.Config) {
	t.Helper()
	cfg := config.Load()
	cfg.DocsRoot = t.TempDir()
	cfg.ExtractedRoot = t.TempDir()
	cfg.ArchiveBaseURL = srvURL
	cfg.RetryMax = 1
	cfg.RetryBackoffMillis = 1

	entries := []catalog.Entry{
		{ID: "bad", Provider: catalog.ProviderArchive, ArchiveID: "bad-item", Priority: 0},
		{ID: "good", Provider: catalog.ProviderArchive, ArchiveID: "good-item", Priority: 1},
	}
	p, err := New(cfg, entries, testLogger())
	require.NoError(t, err)

	pageText := "reach me at alice@example.com " + strings.Repeat("filler text ", 10)
	p.SetExtractor(extract.NewWithEngines(
		stubEngine{pages: []extract.PageText{{Number: 1, Text: pageText}}},
		stubEngine{err: os.ErrNotExist},
		cfg.ExtractedRoot, 50, testLogger(),
	))
	return p, cfg
}

func TestRunAllIsolatesEntryFailure(t *testing.T) {
	srv := archiveServer(t)
	p, cfg := testPipeline(t, srv.URL)

	sum, err := p.RunAll(context.Background())
	require.NoError(t, err)

	require.Equal(t, 1, sum.Downloaded)
	require.Equal(t, 1, sum.FailedDownloads)
	require.Equal(t, 1, sum.Extracted)
	require.NotZero(t, sum.Findings)

	var badFailure bool
	for _, f := range sum.Failures {
		if f.Stage == "fetch" && f.Item == "bad" {
			badFailure = true
		}
	}
	require.True(t, badFailure, "failure entry for the bad catalog item must be present")

	// The good entry made it all the way through.
	require.FileExists(t, filepath.Join(cfg.DocsRoot, "internet_archive", "good", "doc.pdf"))
	require.FileExists(t, filepath.Join(cfg.ExtractedRoot, "pdf_text", "good", "doc.txt"))
	require.FileExists(t, filepath.Join(cfg.ExtractedRoot, "interesting_finds.json"))
	require.FileExists(t, filepath.Join(cfg.ExtractedRoot, "extraction_records.json"))

	var findings []models.FindingRecord
	require.NoError(t, util.ReadJSON(filepath.Join(cfg.ExtractedRoot, "interesting_finds.json"), &findings))
	require.Len(t, findings, 1)
	require.Equal(t, "alice@example.com", findings[0].Match)

	// Run summary is persisted under runs/<id>/.
	require.FileExists(t, filepath.Join(cfg.ExtractedRoot, "runs", sum.RunID, "summary.json"))
}

func TestSecondRunSkipsEverything(t *testing.T) {
	srv := archiveServer(t)
	p, _ := testPipeline(t, srv.URL)

	first, err := p.RunAll(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, first.Downloaded)

	second, err := p.RunAll(context.Background())
	require.NoError(t, err)
	require.Zero(t, second.Downloaded)
	require.Equal(t, 1, second.SkippedDownloads)
	require.Zero(t, second.Extracted)
	require.Equal(t, 1, second.SkippedExtraction)
}

func TestRunFetchRestrictedToProvider(t *testing.T) {
	srv := archiveServer(t)
	p, cfg := testPipeline(t, srv.URL)

	sum, err := p.RunFetch(context.Background(), catalog.ProviderArchive)
	require.NoError(t, err)
	require.Equal(t, 1, sum.Downloaded)
	require.Zero(t, sum.Extracted, "fetch-only run must not extract")
	require.NoFileExists(t, filepath.Join(cfg.ExtractedRoot, "pdf_text", "good", "doc.txt"))
}

func TestNewRejectsInvalidCatalog(t *testing.T) {
	cfg := config.Load()
	cfg.DocsRoot = t.TempDir()
	cfg.ExtractedRoot = t.TempDir()
	_, err := New(cfg, nil, testLogger())
	require.Error(t, err)
}
