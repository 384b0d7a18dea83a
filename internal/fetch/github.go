package fetch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"docharvest/internal/catalog"
	"docharvest/internal/config"
	"docharvest/internal/models"
	"docharvest/internal/util"
)

// GitHubFetcher pulls the OCR archive hosted on the code-hosting site: a
// top-level analyses.json plus per-document JSON files under
// results/IMAGES001..IMAGESNNN, each rendered to a readable text file so the
// search pass can treat them like any other extracted text.
type GitHubFetcher struct {
	client      *Client
	apiBase     string
	rawBase     string
	folderCount int
	docsRoot    string
	log         *slog.Logger
}

func NewGitHubFetcher(cfg config.Config, client *Client, logger *slog.Logger) *GitHubFetcher {
	return &GitHubFetcher{
		client:      client,
		apiBase:     strings.TrimRight(cfg.GitHubAPIBase, "/"),
		rawBase:     strings.TrimRight(cfg.GitHubRawBase, "/"),
		folderCount: cfg.GitHubFolderCount,
		docsRoot:    cfg.DocsRoot,
		log:         logger,
	}
}

type contentItem struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	DownloadURL string `json:"download_url"`
}

type ocrDocument struct {
	FullText string         `json:"full_text"`
	Metadata map[string]any `json:"document_metadata"`
	Entities map[string]any `json:"entities"`
}

func (f *GitHubFetcher) Root() string {
	return filepath.Join(f.docsRoot, "github_ocr")
}

// FetchEntry downloads the OCR archive for one catalog entry. Folder listing
// failures are recorded per folder; document failures per document. Nothing
// aborts the batch.
func (f *GitHubFetcher) FetchEntry(ctx context.Context, e catalog.Entry) ([]models.DownloadRecord, error) {
	root := f.Root()
	records := make([]models.DownloadRecord, 0, 64)

	rec, err := f.fetchAnalyses(ctx, e, root)
	if err == nil {
		records = append(records, rec)
	} else {
		records = append(records, models.DownloadRecord{
			EntryID:   e.ID,
			LocalPath: filepath.Join(root, "analyses.json"),
			Error:     err.Error(),
		})
	}

	for i := 1; i <= f.folderCount; i++ {
		folder := fmt.Sprintf("IMAGES%03d", i)
		folderRecs, err := f.fetchFolder(ctx, e, root, folder)
		records = append(records, folderRecs...)
		if err != nil {
			records = append(records, models.DownloadRecord{
				EntryID:   e.ID,
				LocalPath: filepath.Join(root, folder),
				Error:     err.Error(),
			})
		}
		if ctx.Err() != nil {
			return records, ctx.Err()
		}
	}
	return records, nil
}

func (f *GitHubFetcher) fetchAnalyses(ctx context.Context, e catalog.Entry, root string) (models.DownloadRecord, error) {
	dest := filepath.Join(root, "analyses.json")
	rec := models.DownloadRecord{EntryID: e.ID, LocalPath: dest}
	if fi, err := os.Stat(dest); err == nil && !fi.IsDir() {
		rec.SizeBytes = fi.Size()
		rec.Completed = true
		rec.Skipped = true
		return rec, nil
	}
	url := f.rawBase + "/" + e.Repo + "/main/analyses.json"
	size, sum, err := f.client.Download(ctx, url, dest)
	if err != nil {
		return rec, &FetchError{EntryID: e.ID, Op: "analyses.json", Err: err}
	}
	rec.SizeBytes = size
	rec.SHA256 = sum
	rec.Completed = true
	return rec, nil
}

func (f *GitHubFetcher) fetchFolder(ctx context.Context, e catalog.Entry, root, folder string) ([]models.DownloadRecord, error) {
	var items []contentItem
	listURL := f.apiBase + "/repos/" + e.Repo + "/contents/results/" + folder
	if err := f.client.GetJSON(ctx, listURL, &items); err != nil {
		return nil, &FetchError{EntryID: e.ID, Op: "list " + folder, Err: err}
	}

	records := make([]models.DownloadRecord, 0, len(items))
	for _, item := range items {
		if !strings.HasSuffix(item.Name, ".json") {
			continue
		}
		dest := util.SafeJoin(filepath.Join(root, folder), strings.TrimSuffix(item.Name, ".json")+".txt")
		rec := models.DownloadRecord{EntryID: e.ID, LocalPath: dest}
		if fi, err := os.Stat(dest); err == nil && !fi.IsDir() {
			rec.SizeBytes = fi.Size()
			rec.Completed = true
			rec.Skipped = true
			records = append(records, rec)
			continue
		}

		var doc ocrDocument
		if err := f.client.GetJSON(ctx, item.DownloadURL, &doc); err != nil {
			rec.Error = (&FetchError{EntryID: e.ID, Op: "document " + item.Name, Err: err}).Error()
			records = append(records, rec)
			if ctx.Err() != nil {
				return records, ctx.Err()
			}
			continue
		}
		content := renderOCRDocument(doc)
		if err := util.WriteTextAtomic(dest, content); err != nil {
			rec.Error = err.Error()
			records = append(records, rec)
			continue
		}
		rec.SizeBytes = int64(len(content))
		rec.Completed = true
		records = append(records, rec)
	}
	f.log.Info("fetched folder", "entry", e.ID, "folder", folder, "documents", len(records))
	return records, nil
}

// renderOCRDocument flattens one OCR document into the on-disk text layout:
// a metadata block, an entities block, then the full text. Keys are sorted so
// re-rendering the same document is byte-identical.
func renderOCRDocument(doc ocrDocument) string {
	rule := strings.Repeat("=", 70)
	thinRule := strings.Repeat("-", 70)

	var b strings.Builder
	b.WriteString(rule + "\n")
	b.WriteString("DOCUMENT METADATA\n")
	b.WriteString(rule + "\n")
	for _, k := range sortedKeys(doc.Metadata) {
		fmt.Fprintf(&b, "%s: %v\n", k, doc.Metadata[k])
	}

	if len(doc.Entities) > 0 {
		b.WriteString("\n" + thinRule + "\n")
		b.WriteString("ENTITIES\n")
		b.WriteString(thinRule + "\n")
		for _, k := range sortedKeys(doc.Entities) {
			switch v := doc.Entities[k].(type) {
			case []any:
				if len(v) == 0 {
					continue
				}
				parts := make([]string, 0, len(v))
				for _, item := range v {
					parts = append(parts, fmt.Sprintf("%v", item))
				}
				fmt.Fprintf(&b, "%s: %s\n", k, strings.Join(parts, ", "))
			default:
				fmt.Fprintf(&b, "%s: %v\n", k, v)
			}
		}
	}

	b.WriteString("\n" + rule + "\n")
	b.WriteString("FULL TEXT\n")
	b.WriteString(rule + "\n")
	b.WriteString(doc.FullText)
	b.WriteString("\n")
	return b.String()
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
