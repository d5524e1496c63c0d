// Package loader reads text and PDF files into documents.
package loader

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"

	"docqa/internal/domain"
	"docqa/internal/logger"
)

// Extensions lists the file types Load accepts.
var Extensions = []string{".txt", ".md", ".pdf"}

// Load expands glob patterns in paths and reads every supported file.
// Directories are walked one level deep. Unsupported files are skipped.
func Load(paths []string) ([]domain.Document, error) {
	files, err := expand(paths)
	if err != nil {
		return nil, err
	}
	var documents []domain.Document
	for _, f := range files {
		doc, err := LoadFile(f)
		if err != nil {
			return nil, err
		}
		documents = append(documents, doc)
	}
	if len(documents) == 0 {
		return nil, fmt.Errorf("%w: supported types are %s", domain.ErrNoDocuments, strings.Join(Extensions, ", "))
	}
	return documents, nil
}

// LoadFile reads a single file. PDFs keep one Page per PDF page.
func LoadFile(path string) (domain.Document, error) {
	doc := domain.Document{ID: hashString(path), Path: path}
	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		pages, err := readPDF(path)
		if err != nil {
			return domain.Document{}, fmt.Errorf("reading %s: %w", path, err)
		}
		texts := make([]string, len(pages))
		for i, p := range pages {
			texts[i] = p.Content
		}
		doc.Pages = pages
		doc.Content = strings.Join(texts, "\n")
		logger.Debug("loaded %s (%d pages)", path, len(pages))
		return doc, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Document{}, err
	}
	doc.Content = string(data)
	logger.Debug("loaded %s (%d bytes)", path, len(data))
	return doc, nil
}

func readPDF(path string) ([]domain.Page, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	pages := make([]domain.Page, 0, r.NumPage())
	for n := 1; n <= r.NumPage(); n++ {
		p := r.Page(n)
		if p.V.IsNull() {
			continue
		}
		text, err := p.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", n, err)
		}
		pages = append(pages, domain.Page{Number: n, Content: text})
	}
	return pages, nil
}

func expand(paths []string) ([]string, error) {
	seen := make(map[string]struct{})
	var out []string
	add := func(p string) {
		if !supported(p) {
			return
		}
		if _, ok := seen[p]; ok {
			return
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	for _, p := range paths {
		matches, err := filepath.Glob(p)
		if err != nil {
			return nil, fmt.Errorf("bad pattern %q: %w", p, err)
		}
		if matches == nil {
			matches = []string{p}
		}
		for _, m := range matches {
			info, err := os.Stat(m)
			if err != nil {
				return nil, err
			}
			if !info.IsDir() {
				add(m)
				continue
			}
			entries, err := os.ReadDir(m)
			if err != nil {
				return nil, err
			}
			names := make([]string, 0, len(entries))
			for _, e := range entries {
				if !e.IsDir() {
					names = append(names, filepath.Join(m, e.Name()))
				}
			}
			sort.Strings(names)
			for _, n := range names {
				add(n)
			}
		}
	}
	return out, nil
}

func supported(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range Extensions {
		if ext == e {
			return true
		}
	}
	return false
}

func hashString(s string) string {
	h := sha1.Sum([]byte(s))
	return hex.EncodeToString(h[:8])
}
