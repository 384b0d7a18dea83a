package search

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"docharvest/internal/models"
)

const snippetLen = 100

// Result is one search pass over the corpus on disk. There is no persistent
// index; the corpus is small and re-scanned per query.
type Result struct {
	Hits    []models.SearchHit `json:"hits"`
	Skipped []string           `json:"skipped,omitempty"`
}

// Search performs a case-insensitive substring search over every .txt file
// under the given roots, in file-enumeration order then line order.
// Unreadable files are skipped and reported in the result.
func Search(roots []string, keyword string) (Result, error) {
	var res Result
	kw := strings.ToLower(keyword)
	if kw == "" {
		return res, fmt.Errorf("empty search keyword")
	}

	for _, root := range roots {
		if _, err := os.Stat(root); os.IsNotExist(err) {
			continue
		}
		var paths []string
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && strings.HasSuffix(strings.ToLower(d.Name()), ".txt") {
				paths = append(paths, path)
			}
			return nil
		})
		if err != nil {
			return res, fmt.Errorf("walk %s: %w", root, err)
		}
		sort.Strings(paths)

		for _, path := range paths {
			content, err := os.ReadFile(path)
			if err != nil {
				res.Skipped = append(res.Skipped, path)
				continue
			}
			text := string(content)
			if !strings.Contains(strings.ToLower(text), kw) {
				continue
			}
			for i, line := range strings.Split(text, "\n") {
				if strings.Contains(strings.ToLower(line), kw) {
					res.Hits = append(res.Hits, models.SearchHit{
						TextPath: path,
						Line:     i + 1,
						Snippet:  snippet(line),
					})
				}
			}
		}
	}
	return res, nil
}

func snippet(line string) string {
	line = strings.TrimSpace(line)
	r := []rune(line)
	if len(r) > snippetLen {
		return string(r[:snippetLen])
	}
	return line
}
