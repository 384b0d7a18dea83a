package config

import (
	"os"
	"strconv"
)

type Config struct {
	DocsRoot           string
	ExtractedRoot      string
	CatalogPath        string
	ArchiveBaseURL     string
	GitHubAPIBase      string
	GitHubRawBase      string
	GitHubFolderCount  int
	HTTPTimeoutSecs    int
	RetryMax           int
	RetryBackoffMillis int
	SizeToleranceBytes int64
	BlankPageChars     int
	FallbackTool       string
}

func Load() Config {
	return Config{
		DocsRoot:           getenv("DOCHARVEST_DOCS_ROOT", "./documents"),
		ExtractedRoot:      getenv("DOCHARVEST_EXTRACTED_ROOT", "./extracted_text"),
		CatalogPath:        getenv("DOCHARVEST_CATALOG_PATH", ""),
		ArchiveBaseURL:     getenv("DOCHARVEST_ARCHIVE_BASE_URL", "https://archive.org"),
		GitHubAPIBase:      getenv("DOCHARVEST_GITHUB_API_BASE", "https://api.github.com"),
		GitHubRawBase:      getenv("DOCHARVEST_GITHUB_RAW_BASE", "https://raw.githubusercontent.com"),
		GitHubFolderCount:  getenvInt("DOCHARVEST_GITHUB_FOLDER_COUNT", 12),
		HTTPTimeoutSecs:    getenvInt("DOCHARVEST_HTTP_TIMEOUT_SECONDS", 60),
		RetryMax:           getenvInt("DOCHARVEST_RETRY_MAX", 3),
		RetryBackoffMillis: getenvInt("DOCHARVEST_RETRY_BACKOFF_MS", 500),
		SizeToleranceBytes: int64(getenvInt("DOCHARVEST_SIZE_TOLERANCE_BYTES", 1024)),
		BlankPageChars:     getenvInt("DOCHARVEST_BLANK_PAGE_CHARS", 50),
		FallbackTool:       getenv("DOCHARVEST_FALLBACK_TOOL", "pdftotext"),
	}
}

func getenv(k, fallback string) string {
	v := os.Getenv(k)
	if v == "" {
		return fallback
	}
	return v
}

func getenvInt(k string, fallback int) int {
	v := os.Getenv(k)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
