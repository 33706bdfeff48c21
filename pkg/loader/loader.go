package loader

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/tmc/langchaingo/documentloaders"
	"github.com/tmc/langchaingo/schema"

	"github.com/docqa/qalocal/internal/models"
)

type LoaderConfig struct {
	DataDir    string
	OnProgress func(path string) // called after each successfully loaded file
}

// Loader reads supported documents from a directory tree. Unsupported
// extensions are skipped silently; files that fail to parse are logged
// and skipped without aborting the batch.
type Loader struct {
	config LoaderConfig
}

var supportedExts = map[string]bool{
	".pdf":  true,
	".txt":  true,
	".md":   true,
	".html": true,
	".htm":  true,
}

func NewWithConfig(config LoaderConfig) (*Loader, error) {
	if config.DataDir == "" {
		config.DataDir = "data"
	}

	info, err := os.Stat(config.DataDir)
	if err != nil {
		return nil, fmt.Errorf("data directory %s: %w", config.DataDir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", config.DataDir)
	}

	return &Loader{config: config}, nil
}

// Load walks the data directory in lexical order and returns one document
// per file, or per page for PDFs. Every document carries `source` (base
// filename) and `full_path` metadata.
func (l *Loader) Load(ctx context.Context) ([]models.Document, error) {
	var docs []models.Document

	walkErr := filepath.WalkDir(l.config.DataDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			log.Printf("skipping %s: %v", path, err)
			return nil
		}
		if d.IsDir() {
			return nil
		}

		ext := strings.ToLower(filepath.Ext(path))
		if !supportedExts[ext] {
			return nil
		}

		loaded, err := l.loadFile(ctx, path, ext)
		if err != nil {
			log.Printf("failed to load %s: %v", path, err)
			return nil
		}

		docs = append(docs, loaded...)
		if l.config.OnProgress != nil {
			l.config.OnProgress(path)
		}
		return nil
	})
	if walkErr != nil {
		return nil, walkErr
	}

	return docs, nil
}

func (l *Loader) loadFile(ctx context.Context, path, ext string) ([]models.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var loaded []schema.Document

	switch ext {
	case ".pdf":
		info, statErr := f.Stat()
		if statErr != nil {
			return nil, statErr
		}
		loaded, err = documentloaders.NewPDF(f, info.Size()).Load(ctx)
		if err != nil {
			return nil, err
		}
	case ".txt", ".md":
		loaded, err = documentloaders.NewText(f).Load(ctx)
		if err != nil {
			return nil, err
		}
	case ".html", ".htm":
		text, htmlErr := extractHTML(f)
		if htmlErr != nil {
			return nil, htmlErr
		}
		loaded = []schema.Document{{PageContent: text}}
	}

	docs := make([]models.Document, 0, len(loaded))
	for _, doc := range loaded {
		if doc.PageContent == "" {
			continue
		}
		metadata := make(map[string]string, len(doc.Metadata)+2)
		for k, v := range doc.Metadata {
			metadata[k] = fmt.Sprint(v)
		}
		metadata["source"] = filepath.Base(path)
		metadata["full_path"] = path

		docs = append(docs, models.Document{Text: doc.PageContent, Metadata: metadata})
	}
	return docs, nil
}

func extractHTML(r io.Reader) (string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return "", err
	}

	doc.Find("script, style, noscript").Remove()
	text := doc.Find("body").Text()
	if text == "" {
		text = doc.Text()
	}

	// Collapse whitespace runs left behind by the markup
	return strings.Join(strings.Fields(text), " "), nil
}
