// Package ingestion implements the knowledge-base ingestion pipeline.
// It reads markdown files or fetches pages, splits them at their first two
// heading levels, and hands each source's chunks to the vector store, which
// embeds and bulk-inserts them. This pipeline is invoked by the
// `alertrag ingest` CLI command.
package ingestion

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"slices"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/54b3r/alertrag-go/internal/docstore"
)

// Source describes one document to ingest. Exactly one of Path or URL
// locates the content; when both are set Path is read and URL is kept as
// the canonical link shown with answers.
type Source struct {
	Path string
	URL  string
	// SourceName is the display label. Inferred from Path or URL when empty.
	SourceName string
	ScopeID    string
}

// Config holds the configuration for the ingestion pipeline.
type Config struct {
	// AdditionalContext is appended to every chunk's vector content.
	AdditionalContext string

	// HTTPTimeout is the timeout for each page fetch. Defaults to 30s.
	HTTPTimeout time.Duration

	// UserAgent is sent with fetch requests.
	UserAgent string

	// MaxBodyBytes caps each fetched page. Defaults to DefaultMaxBodyBytes.
	MaxBodyBytes int64
}

// DefaultMaxBodyBytes is the page size limit applied when Config.MaxBodyBytes is unset.
const DefaultMaxBodyBytes = 10 << 20

// Progress is reported after each source is stored.
type Progress struct {
	Source string
	Chunks int
	Done   int
	Total  int
}

// Result summarises a completed run.
type Result struct {
	Sources   int
	Documents int
	// Skipped counts sources that produced no chunks.
	Skipped int
}

// Pipeline orchestrates the read → split → embed → insert flow for a set
// of sources.
type Pipeline struct {
	store      docstore.VectorStore
	cfg        Config
	httpClient *http.Client
	log        *slog.Logger
}

// NewPipeline constructs a Pipeline writing to store.
func NewPipeline(store docstore.VectorStore, cfg Config, log *slog.Logger) (*Pipeline, error) {
	if store == nil {
		return nil, errors.New("ingestion: store must not be nil")
	}
	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = 30 * time.Second
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "alertrag-go/1.0 (knowledge base ingestion)"
	}
	if log == nil {
		log = slog.Default()
	}
	return &Pipeline{
		store:      store,
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.HTTPTimeout},
		log:        log,
	}, nil
}

// Ingest stores every source in order and stops at the first error. Each
// source is one all-or-nothing batch.
func (p *Pipeline) Ingest(ctx context.Context, sources []Source, progress func(Progress)) (Result, error) {
	if progress == nil {
		progress = func(Progress) {}
	}

	var res Result
	for i, src := range sources {
		key := sourceKey(src)

		content, err := p.load(ctx, src)
		if err != nil {
			return res, fmt.Errorf("ingestion: load %s: %w", key, err)
		}

		docs := Documents(src, content)
		if len(docs) == 0 {
			p.log.Warn("ingestion: source produced no chunks", slog.String("source", key))
			res.Skipped++
			progress(Progress{Source: key, Done: i + 1, Total: len(sources)})
			continue
		}

		if _, err := p.store.InsertAndEmbedMany(ctx, docs, p.cfg.AdditionalContext); err != nil {
			return res, fmt.Errorf("ingestion: store %s: %w", key, err)
		}
		res.Sources++
		res.Documents += len(docs)

		p.log.Debug("ingestion: stored source", slog.String("source", key), slog.Int("chunks", len(docs)))
		progress(Progress{Source: key, Chunks: len(docs), Done: i + 1, Total: len(sources)})
	}
	return res, nil
}

// Documents splits content into one Document per chunk. IDs are derived from
// the source and chunk index so re-running ingestion yields the same IDs.
func Documents(src Source, content string) []docstore.Document {
	chunks := SplitAtTwoLevels(content)
	if len(chunks) == 0 {
		return nil
	}
	key := sourceKey(src)
	name := src.SourceName
	if name == "" {
		name = InferSourceName(key)
	}

	docs := make([]docstore.Document, len(chunks))
	for i, chunk := range chunks {
		docs[i] = docstore.Document{
			ID:         chunkID(key, i),
			ScopeID:    src.ScopeID,
			SourceName: name,
			Content:    chunk,
			URL:        src.URL,
		}
	}
	return docs
}

// ExpandPaths resolves doublestar patterns such as "docs/**/*.md" into a
// sorted, de-duplicated list of files. A pattern with no glob
// metacharacters that names a missing file is an error.
func ExpandPaths(patterns []string) ([]string, error) {
	seen := make(map[string]struct{})
	var out []string
	for _, pattern := range patterns {
		matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("ingestion: bad pattern %q: %w", pattern, err)
		}
		if len(matches) == 0 {
			if _, err := os.Stat(pattern); err != nil {
				return nil, fmt.Errorf("ingestion: no files match %q", pattern)
			}
		}
		for _, m := range matches {
			if _, ok := seen[m]; ok {
				continue
			}
			seen[m] = struct{}{}
			out = append(out, m)
		}
	}
	slices.Sort(out)
	return out, nil
}

func (p *Pipeline) load(ctx context.Context, src Source) (string, error) {
	if src.Path != "" {
		b, err := os.ReadFile(src.Path)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
	if src.URL == "" {
		return "", errors.New("source has neither path nor url")
	}
	return p.fetch(ctx, src.URL)
}

// fetch retrieves the raw text content of a URL.
func (p *Pipeline) fetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", p.cfg.UserAgent)
	req.Header.Set("Accept", "text/markdown, text/plain, text/html")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("http get: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d for %s", resp.StatusCode, url)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, p.cfg.MaxBodyBytes+1))
	if err != nil {
		return "", fmt.Errorf("reading body: %w", err)
	}
	if int64(len(body)) > p.cfg.MaxBodyBytes {
		return "", fmt.Errorf("body of %s exceeds %d bytes", url, p.cfg.MaxBodyBytes)
	}
	return string(body), nil
}

func sourceKey(src Source) string {
	if src.Path != "" {
		return src.Path
	}
	return src.URL
}

// chunkID generates a deterministic ID for a chunk from its source and index.
func chunkID(source string, index int) string {
	h := sha256.Sum256(fmt.Appendf(nil, "%s#%d", source, index))
	return fmt.Sprintf("%x", h[:16])
}
