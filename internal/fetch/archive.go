package fetch

import (
	"context"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"docharvest/internal/catalog"
	"docharvest/internal/config"
	"docharvest/internal/models"
	"docharvest/internal/util"
)

// ArchiveFetcher pulls the PDF files of an archival-hosting collection. The
// item's metadata endpoint lists every file with its expected size, which
// drives both the download URLs and the skip-if-present check.
type ArchiveFetcher struct {
	client        *Client
	baseURL       string
	docsRoot      string
	sizeTolerance int64
	log           *slog.Logger
}

func NewArchiveFetcher(cfg config.Config, client *Client, logger *slog.Logger) *ArchiveFetcher {
	return &ArchiveFetcher{
		client:        client,
		baseURL:       strings.TrimRight(cfg.ArchiveBaseURL, "/"),
		docsRoot:      cfg.DocsRoot,
		sizeTolerance: cfg.SizeToleranceBytes,
		log:           logger,
	}
}

type archiveMetadata struct {
	Files []archiveFile `json:"files"`
}

type archiveFile struct {
	Name string `json:"name"`
	// The metadata endpoint serializes sizes as strings.
	Size string `json:"size"`
}

// EntryDir is where an entry's PDFs land on disk.
func (f *ArchiveFetcher) EntryDir(entryID string) string {
	return filepath.Join(f.docsRoot, "internet_archive", entryID)
}

// FetchEntry downloads every PDF of one catalog entry, skipping files already
// present with the expected size. A failing file is recorded and the rest of
// the entry continues; a failing metadata lookup fails the whole entry.
func (f *ArchiveFetcher) FetchEntry(ctx context.Context, e catalog.Entry) ([]models.DownloadRecord, error) {
	var meta archiveMetadata
	metaURL := f.baseURL + "/metadata/" + url.PathEscape(e.ArchiveID)
	if err := f.client.GetJSON(ctx, metaURL, &meta); err != nil {
		return nil, &FetchError{EntryID: e.ID, Op: "metadata", Err: err}
	}

	destDir := f.EntryDir(e.ID)
	records := make([]models.DownloadRecord, 0, len(meta.Files))
	for _, file := range meta.Files {
		if !strings.HasSuffix(strings.ToLower(file.Name), ".pdf") {
			continue
		}
		expected, _ := strconv.ParseInt(file.Size, 10, 64)
		dest := util.SafeJoin(destDir, file.Name)
		rec := models.DownloadRecord{EntryID: e.ID, LocalPath: dest}

		if f.alreadyPresent(dest, expected) {
			fi, _ := os.Stat(dest)
			rec.SizeBytes = fi.Size()
			rec.Completed = true
			rec.Skipped = true
			records = append(records, rec)
			continue
		}

		dlURL := f.baseURL + "/download/" + url.PathEscape(e.ArchiveID) + "/" + url.PathEscape(file.Name)
		f.log.Info("downloading", "entry", e.ID, "file", file.Name)
		size, sum, err := f.client.Download(ctx, dlURL, dest)
		if err != nil {
			ferr := &FetchError{EntryID: e.ID, Op: "download " + file.Name, Err: err}
			rec.Error = ferr.Error()
			records = append(records, rec)
			if ctx.Err() != nil {
				return records, ctx.Err()
			}
			continue
		}
		rec.SizeBytes = size
		rec.SHA256 = sum
		rec.Completed = true
		records = append(records, rec)
	}
	if len(records) == 0 {
		f.log.Info("no PDFs listed for entry", "entry", e.ID)
	}
	return records, nil
}

// alreadyPresent reports whether dest exists with the expected size (within
// tolerance). When the listing carries no size, presence alone counts: a
// present file is complete because downloads rename into place atomically.
func (f *ArchiveFetcher) alreadyPresent(dest string, expected int64) bool {
	fi, err := os.Stat(dest)
	if err != nil || fi.IsDir() {
		return false
	}
	if expected <= 0 {
		return true
	}
	diff := fi.Size() - expected
	if diff < 0 {
		diff = -diff
	}
	return diff <= f.sizeTolerance
}
