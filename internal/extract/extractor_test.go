package extract

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

type stubEngine struct {
	name      string
	available bool
	pages     []PageText
	err       error
}

func (s stubEngine) Name() string    { return s.name }
func (s stubEngine) Available() bool { return s.available }
func (s stubEngine) ExtractPages(context.Context, string) ([]PageText, error) {
	return s.pages, s.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fivePages() []PageText {
	full := strings.Repeat("lorem ipsum dolor sit amet ", 4)
	return []PageText{
		{Number: 1, Text: full},
		{Number: 2, Text: "  \n "},
		{Number: 3, Text: full},
		{Number: 4, Text: full},
		{Number: 5, Text: ""},
	}
}

func writeFakePDF(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4 not a real pdf"), 0o644))
	return path
}

func TestExtractPrimarySuccess(t *testing.T) {
	out := t.TempDir()
	x := NewWithEngines(
		stubEngine{name: "primary", available: true, pages: fivePages()},
		stubEngine{name: "fallback", available: true, err: errors.New("should not be called")},
		out, 50, testLogger(),
	)
	pdf := writeFakePDF(t, t.TempDir(), "doc.pdf")

	rec := x.Extract(context.Background(), pdf, "entry/doc.pdf")
	require.True(t, rec.Success)
	require.Equal(t, MethodPrimary, rec.Method)
	require.Equal(t, 5, rec.PageCount)
	require.Equal(t, []int{2, 5}, rec.BlankPages)

	b, err := os.ReadFile(rec.TextPath)
	require.NoError(t, err)
	content := string(b)
	require.Contains(t, content, "SOURCE: doc.pdf")
	require.Contains(t, content, "PAGES: 5")
	require.Contains(t, content, "BLANK PAGES: 2")
	require.Contains(t, content, "--- PAGE 1 ---")
	require.Contains(t, content, "--- PAGE 5 ---")
	// Page order matches physical order.
	require.Less(t, strings.Index(content, "--- PAGE 1 ---"), strings.Index(content, "--- PAGE 2 ---"))
}

func TestExtractFallsBackWhenPrimaryFails(t *testing.T) {
	out := t.TempDir()
	x := NewWithEngines(
		stubEngine{name: "primary", available: true, err: errors.New("parse error")},
		stubEngine{name: "fallback", available: true, pages: fivePages()},
		out, 50, testLogger(),
	)
	pdf := writeFakePDF(t, t.TempDir(), "doc.pdf")

	rec := x.Extract(context.Background(), pdf, "entry/doc.pdf")
	require.True(t, rec.Success)
	require.Equal(t, MethodFallback, rec.Method)
	require.Equal(t, []int{2, 5}, rec.BlankPages)
}

func TestExtractRecordsDoubleFailure(t *testing.T) {
	out := t.TempDir()
	x := NewWithEngines(
		stubEngine{name: "primary", available: true, err: errors.New("parse error")},
		stubEngine{name: "fallback", available: false},
		out, 50, testLogger(),
	)
	pdf := writeFakePDF(t, t.TempDir(), "doc.pdf")

	rec := x.Extract(context.Background(), pdf, "entry/doc.pdf")
	require.False(t, rec.Success)
	require.Empty(t, rec.TextPath)
	require.Contains(t, rec.Error, "parse error")
	require.NoFileExists(t, x.TextPath("entry/doc.pdf"))
}

func TestExtractRejectsEmptyResult(t *testing.T) {
	x := NewWithEngines(
		stubEngine{name: "primary", available: true},
		stubEngine{name: "fallback", available: false},
		t.TempDir(), 50, testLogger(),
	)
	pdf := writeFakePDF(t, t.TempDir(), "doc.pdf")

	rec := x.Extract(context.Background(), pdf, "doc.pdf")
	require.False(t, rec.Success)
	require.Contains(t, rec.Error, "no extractable text")
}

func TestTextPathIsDeterministicAndMirrored(t *testing.T) {
	x := NewWithEngines(stubEngine{}, stubEngine{}, "/out", 50, testLogger())
	require.Equal(t, filepath.Join("/out", "pdf_text", "entry", "doc.txt"), x.TextPath(filepath.Join("entry", "doc.pdf")))
	require.Equal(t, x.TextPath("entry/doc.pdf"), x.TextPath("entry/doc.pdf"))
}

func TestExtractAllSkipsExistingSidecars(t *testing.T) {
	out := t.TempDir()
	pdfRoot := t.TempDir()
	writeFakePDF(t, pdfRoot, filepath.Join("e1", "a.pdf"))
	writeFakePDF(t, pdfRoot, filepath.Join("e1", "b.pdf"))

	x := NewWithEngines(
		stubEngine{name: "primary", available: true, pages: fivePages()},
		stubEngine{name: "fallback", available: false},
		out, 50, testLogger(),
	)

	records, err := x.ExtractAll(context.Background(), pdfRoot)
	require.NoError(t, err)
	require.Len(t, records, 2)
	for _, r := range records {
		require.True(t, r.Success)
		require.False(t, r.Skipped)
	}

	again, err := x.ExtractAll(context.Background(), pdfRoot)
	require.NoError(t, err)
	require.Len(t, again, 2)
	for _, r := range again {
		require.True(t, r.Success)
		require.True(t, r.Skipped)
	}
}

func TestExtractAllMissingRootIsEmpty(t *testing.T) {
	x := NewWithEngines(stubEngine{}, stubEngine{}, t.TempDir(), 50, testLogger())
	records, err := x.ExtractAll(context.Background(), filepath.Join(t.TempDir(), "nope"))
	require.NoError(t, err)
	require.Empty(t, records)
}

func TestPdftotextEngineUnavailable(t *testing.T) {
	e := NewPdftotextEngine("definitely-not-a-real-tool-12345")
	require.False(t, e.Available())
	_, err := e.ExtractPages(context.Background(), "x.pdf")
	require.Error(t, err)
}
