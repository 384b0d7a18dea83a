package scan

import (
	"bufio"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"docharvest/internal/models"
)

const (
	KindEmail = "email"
	KindPhone = "phone"
)

var (
	emailRe = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)
	// Accepts 555-123-4567, 555.123.4567, (555) 123-4567 and bare digits.
	phoneRe = regexp.MustCompile(`\(?\b\d{3}\)?[-. ]?\d{3}[-.]?\d{4}\b`)

	pageMarkerRe = regexp.MustCompile(`^--- PAGE (\d+) ---$`)
)

// Scanner detects email- and phone-shaped substrings in extracted text.
// Scanning is best-effort string matching: it never fails on content, only
// on unreadable files.
type Scanner struct {
	log *slog.Logger
}

func NewScanner(logger *slog.Logger) *Scanner {
	return &Scanner{log: logger}
}

// ScanFile returns every finding in the file ordered by appearance: line
// first, then column. Page markers written by the extractor are tracked so
// findings carry their page index.
func (s *Scanner) ScanFile(textPath string) ([]models.FindingRecord, error) {
	f, err := os.Open(textPath)
	if err != nil {
		return nil, fmt.Errorf("open text file: %w", err)
	}
	defer f.Close()

	findings := make([]models.FindingRecord, 0)
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), 4*1024*1024)

	page := 0
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := sc.Text()
		if m := pageMarkerRe.FindStringSubmatch(line); m != nil {
			page, _ = strconv.Atoi(m[1])
			continue
		}
		for _, match := range matchLine(line) {
			findings = append(findings, models.FindingRecord{
				TextPath:    textPath,
				PatternKind: match.kind,
				Match:       match.text,
				Line:        lineNo,
				Page:        page,
			})
		}
	}
	if err := sc.Err(); err != nil {
		return findings, fmt.Errorf("read text file: %w", err)
	}
	return findings, nil
}

type lineMatch struct {
	kind  string
	start int
	text  string
}

func matchLine(line string) []lineMatch {
	matches := make([]lineMatch, 0, 2)
	for _, loc := range emailRe.FindAllStringIndex(line, -1) {
		matches = append(matches, lineMatch{kind: KindEmail, start: loc[0], text: line[loc[0]:loc[1]]})
	}
	for _, loc := range phoneRe.FindAllStringIndex(line, -1) {
		matches = append(matches, lineMatch{kind: KindPhone, start: loc[0], text: line[loc[0]:loc[1]]})
	}
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].start < matches[j].start })
	return matches
}

// ScanAll regenerates the full findings list from every text file under
// root, in sorted file order. Unreadable files are skipped and reported.
func (s *Scanner) ScanAll(root string) ([]models.FindingRecord, []string, error) {
	if _, err := os.Stat(root); os.IsNotExist(err) {
		return nil, nil, nil
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
		return nil, nil, fmt.Errorf("walk %s: %w", root, err)
	}
	sort.Strings(paths)

	all := make([]models.FindingRecord, 0)
	var skipped []string
	for _, path := range paths {
		findings, err := s.ScanFile(path)
		if err != nil {
			s.log.Warn("skipping unreadable text file", "path", path, "error", err)
			skipped = append(skipped, path)
			continue
		}
		all = append(all, findings...)
	}
	return all, skipped, nil
}
