// Package render prepares review inputs from an exported PDF set: page
// counts, page selection validation, per-page reference files for the
// inference provider, and optional sidecar text extracted upstream.
package render

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// Document wraps one exported PDF. Page numbers are 1-based throughout,
// matching how sheets are referenced on title blocks.
type Document struct {
	Path      string
	PageCount int
}

// Open reads the PDF header and records its page count.
func Open(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	count, err := api.PageCount(f, nil)
	if err != nil {
		return nil, fmt.Errorf("page count for %s: %w", path, err)
	}

	return &Document{Path: path, PageCount: count}, nil
}

// ValidateSelection checks a page selection against a document's page count:
// pages must be unique and within [1, pageCount].
func ValidateSelection(pages []int, pageCount int) error {
	if len(pages) == 0 {
		return fmt.Errorf("no pages selected")
	}

	seen := make(map[int]struct{}, len(pages))
	for _, page := range pages {
		if page < 1 || page > pageCount {
			return fmt.Errorf("page %d out of range 1-%d", page, pageCount)
		}
		if _, dup := seen[page]; dup {
			return fmt.Errorf("page %d selected twice", page)
		}
		seen[page] = struct{}{}
	}
	return nil
}

// PageRef writes a single-page PDF for the given page under workDir and
// returns its path. The file becomes the page's image reference.
func (d *Document) PageRef(workDir string, page int) (string, error) {
	if err := ValidateSelection([]int{page}, d.PageCount); err != nil {
		return "", err
	}
	if err := os.MkdirAll(workDir, 0755); err != nil {
		return "", fmt.Errorf("create work dir: %w", err)
	}

	out := filepath.Join(workDir, fmt.Sprintf("page-%d.pdf", page))
	if err := api.TrimFile(d.Path, out, []string{strconv.Itoa(page)}, nil); err != nil {
		return "", fmt.Errorf("extract page %d: %w", page, err)
	}
	return out, nil
}

// SidecarText loads extracted text for a page from a sidecar file named
// page-N.txt in textDir. A missing sidecar is not an error; the page is
// simply reviewed without text.
func SidecarText(textDir string, page int) (string, error) {
	if textDir == "" {
		return "", nil
	}

	data, err := os.ReadFile(filepath.Join(textDir, fmt.Sprintf("page-%d.txt", page)))
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read sidecar text for page %d: %w", page, err)
	}
	return strings.TrimSpace(string(data)), nil
}

// SidecarPages lists the pages in textDir that carry sidecar text, sorted.
func SidecarPages(textDir string) ([]int, error) {
	entries, err := os.ReadDir(textDir)
	if err != nil {
		return nil, fmt.Errorf("read text dir: %w", err)
	}

	var pages []int
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasPrefix(name, "page-") || !strings.HasSuffix(name, ".txt") {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(name, "page-"), ".txt"))
		if err != nil || n < 1 {
			continue
		}
		pages = append(pages, n)
	}

	sort.Ints(pages)
	return pages, nil
}
