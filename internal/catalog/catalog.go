package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

type Provider string

const (
	ProviderArchive   Provider = "archive"
	ProviderGitHubOCR Provider = "github_ocr"
)

// Entry is a statically known document collection. Entries are defined at
// process start and never mutated afterwards.
type Entry struct {
	ID           string   `json:"id"`
	Provider     Provider `json:"provider"`
	Name         string   `json:"name"`
	ArchiveID    string   `json:"archive_id,omitempty"`
	Repo         string   `json:"repo,omitempty"`
	ExpectedSize int64    `json:"expected_size_bytes,omitempty"`
	Priority     int      `json:"priority"`
}

// Default is the built-in catalog: the archival-hosting collections plus the
// code-hosting OCR archive the tool was written for.
func Default() []Entry {
	return []Entry{
		{
			ID:        "estate_batch_2",
			Provider:  ProviderArchive,
			Name:      "Estate production batch 2 (OCR)",
			ArchiveID: "estate-production-batch-2-document-1-ocred",
			Priority:  0,
		},
		{
			ID:        "phone_book",
			Provider:  ProviderArchive,
			Name:      "Phone book (2004-2005)",
			ArchiveID: "safari_202508",
			Priority:  0,
		},
		{
			ID:        "giuffre_maxwell",
			Provider:  ProviderArchive,
			Name:      "Giuffre v. Maxwell court case",
			ArchiveID: "giuffre-v.-maxwell-115-cv-07433-all-documents-searchable",
			Priority:  1,
		},
		{
			ID:        "house_oversight_estate",
			Provider:  ProviderArchive,
			Name:      "House Oversight estate records",
			ArchiveID: "house-oversight-committe-epstein-estate-pdf",
			Priority:  2,
		},
		{
			ID:        "house_oversight_estate_alt",
			Provider:  ProviderArchive,
			Name:      "House Oversight estate records (alternate upload)",
			ArchiveID: "epstein-estate-house-oversight-committee-pdf",
			Priority:  3,
		},
		{
			ID:       "ocr_docs",
			Provider: ProviderGitHubOCR,
			Name:     "OCR'd document archive",
			Repo:     "epstein-docs/epstein-docs.github.io",
			Priority: 1,
		},
	}
}

// Resolve returns the catalog to run against: the JSON file at path when one
// is configured, otherwise the built-in default.
func Resolve(path string) ([]Entry, error) {
	if path == "" {
		return Default(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog file: %w", err)
	}
	var entries []Entry
	if err := json.Unmarshal(b, &entries); err != nil {
		return nil, fmt.Errorf("parse catalog file: %w", err)
	}
	if err := Validate(entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func Validate(entries []Entry) error {
	if len(entries) == 0 {
		return fmt.Errorf("catalog is empty")
	}
	seen := make(map[string]bool, len(entries))
	for _, e := range entries {
		if e.ID == "" {
			return fmt.Errorf("catalog entry with empty id")
		}
		if seen[e.ID] {
			return fmt.Errorf("duplicate catalog entry id %q", e.ID)
		}
		seen[e.ID] = true
		switch e.Provider {
		case ProviderArchive:
			if e.ArchiveID == "" {
				return fmt.Errorf("catalog entry %s: archive provider requires archive_id", e.ID)
			}
		case ProviderGitHubOCR:
			if e.Repo == "" {
				return fmt.Errorf("catalog entry %s: github_ocr provider requires repo", e.ID)
			}
		default:
			return fmt.Errorf("catalog entry %s: unknown provider %q", e.ID, e.Provider)
		}
	}
	return nil
}

// ByProvider filters entries, preserving priority order (lower first).
func ByProvider(entries []Entry, p Provider) []Entry {
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if e.Provider == p {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Priority < out[j].Priority })
	return out
}
