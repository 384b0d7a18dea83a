package models

import "time"

// DownloadRecord describes the outcome of fetching one remote file. A record
// with Completed set means the file at LocalPath is whole; partial transfers
// never leave a file behind.
type DownloadRecord struct {
	EntryID   string `json:"entry_id"`
	LocalPath string `json:"local_path"`
	SizeBytes int64  `json:"size_bytes"`
	SHA256    string `json:"sha256,omitempty"`
	Completed bool   `json:"completed"`
	Skipped   bool   `json:"skipped,omitempty"`
	Error     string `json:"error,omitempty"`
}

type ExtractionRecord struct {
	SourcePDFPath string `json:"source_pdf_path"`
	TextPath      string `json:"text_path,omitempty"`
	PageCount     int    `json:"page_count"`
	BlankPages    []int  `json:"blank_pages,omitempty"`
	Method        string `json:"extraction_method,omitempty"`
	Success       bool   `json:"success"`
	Skipped       bool   `json:"skipped,omitempty"`
	Error         string `json:"error,omitempty"`
}

type FindingRecord struct {
	TextPath    string `json:"text_path"`
	PatternKind string `json:"pattern_kind"`
	Match       string `json:"matched_string"`
	Line        int    `json:"line"`
	Page        int    `json:"page,omitempty"`
}

type SearchHit struct {
	TextPath string `json:"text_path"`
	Line     int    `json:"line"`
	Snippet  string `json:"snippet"`
}

// ItemFailure is one per-item failure surfaced in the run summary. Item
// failures never abort the surrounding batch.
type ItemFailure struct {
	Stage  string `json:"stage"`
	Item   string `json:"item"`
	Reason string `json:"reason"`
}

type RunSummary struct {
	RunID             string        `json:"run_id"`
	StartedAt         time.Time     `json:"started_at"`
	FinishedAt        time.Time     `json:"finished_at"`
	Downloaded        int           `json:"downloaded"`
	SkippedDownloads  int           `json:"skipped_downloads"`
	FailedDownloads   int           `json:"failed_downloads"`
	Extracted         int           `json:"extracted"`
	SkippedExtraction int           `json:"skipped_extractions"`
	FailedExtraction  int           `json:"failed_extractions"`
	Findings          int           `json:"findings"`
	Failures          []ItemFailure `json:"failures,omitempty"`
}

type ProviderStatus struct {
	Provider            string `json:"provider"`
	CatalogEntries      int    `json:"catalog_entries"`
	EntriesDownloaded   int    `json:"entries_downloaded"`
	EntriesExtracted    int    `json:"entries_extracted"`
	EntriesWithFindings int    `json:"entries_with_findings"`
	Files               int    `json:"files"`
	Bytes               int64  `json:"bytes"`
}

type Report struct {
	Providers          []ProviderStatus `json:"providers"`
	ExtractedTextFiles int              `json:"extracted_text_files"`
	TotalFiles         int              `json:"total_files"`
	TotalBytes         int64            `json:"total_bytes"`
}
