package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRunCLIUsageWithoutFlags(t *testing.T) {
	var out, errOut bytes.Buffer
	code := runCLI(context.Background(), nil, &out, &errOut)
	require.Equal(t, 2, code)
}

func TestRunCLIRejectsPositionalArgs(t *testing.T) {
	var out, errOut bytes.Buffer
	code := runCLI(context.Background(), []string{"extra"}, &out, &errOut)
	require.Equal(t, 2, code)
	require.Contains(t, errOut.String(), "usage:")
}

func TestRunCLIStatusOnEmptyCorpus(t *testing.T) {
	t.Setenv("DOCHARVEST_DOCS_ROOT", t.TempDir())
	t.Setenv("DOCHARVEST_EXTRACTED_ROOT", t.TempDir())

	var out, errOut bytes.Buffer
	code := runCLI(context.Background(), []string{"-status"}, &out, &errOut)
	require.Equal(t, 0, code)
	require.Contains(t, out.String(), "DOWNLOAD STATUS")
}

func TestRunCLISearchEmptyCorpus(t *testing.T) {
	t.Setenv("DOCHARVEST_DOCS_ROOT", t.TempDir())
	t.Setenv("DOCHARVEST_EXTRACTED_ROOT", t.TempDir())

	var out, errOut bytes.Buffer
	code := runCLI(context.Background(), []string{"-search", "anything"}, &out, &errOut)
	require.Equal(t, 0, code)
	require.Contains(t, out.String(), "no matches found")
}

func TestRunCLISearchFindsMatch(t *testing.T) {
	docs := t.TempDir()
	extracted := t.TempDir()
	t.Setenv("DOCHARVEST_DOCS_ROOT", docs)
	t.Setenv("DOCHARVEST_EXTRACTED_ROOT", extracted)

	path := filepath.Join(extracted, "pdf_text", "e1", "a.txt")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("line with Needle here\n"), 0o644))

	var out, errOut bytes.Buffer
	code := runCLI(context.Background(), []string{"-search", "needle"}, &out, &errOut)
	require.Equal(t, 0, code)
	require.Contains(t, out.String(), "a.txt:1:")
}

func TestRunCLIFatalOnBadCatalogFile(t *testing.T) {
	t.Setenv("DOCHARVEST_CATALOG_PATH", filepath.Join(t.TempDir(), "missing.json"))

	var out, errOut bytes.Buffer
	code := runCLI(context.Background(), []string{"-status"}, &out, &errOut)
	require.Equal(t, 1, code)
	require.Contains(t, errOut.String(), "catalog")
}
