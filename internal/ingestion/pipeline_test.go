package ingestion

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/54b3r/alertrag-go/internal/docstore"
)

// fakeStore records every batch it receives.
type fakeStore struct {
	batches [][]docstore.Document
	extra   []string
	err     error
}

func (f *fakeStore) InsertAndEmbed(ctx context.Context, doc docstore.Document, additionalContext string) (docstore.Document, error) {
	docs, err := f.InsertAndEmbedMany(ctx, []docstore.Document{doc}, additionalContext)
	if err != nil {
		return docstore.Document{}, err
	}
	return docs[0], nil
}

func (f *fakeStore) InsertAndEmbedMany(_ context.Context, docs []docstore.Document, additionalContext string) ([]docstore.Document, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.batches = append(f.batches, docs)
	f.extra = append(f.extra, additionalContext)
	return docs, nil
}

func (f *fakeStore) SemanticVectorSearch(context.Context, string, string) ([]docstore.Document, error) {
	return nil, nil
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestPipeline_IngestFilesAndURLs(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") == "" {
			t.Error("missing User-Agent")
		}
		_, _ = w.Write([]byte("# Supplier Risk\nscores\n## Tiers\ntier n"))
	}))
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	file := writeFile(t, dir, "alerts/alert_types.md", "# Alert Types\nstrikes, theft")
	empty := writeFile(t, dir, "empty.md", "  \n")

	store := &fakeStore{}
	p, err := NewPipeline(store, Config{AdditionalContext: "Prewave knowledge base"}, nil)
	if err != nil {
		t.Fatalf("NewPipeline: %v", err)
	}

	var seen []Progress
	res, err := p.Ingest(context.Background(), []Source{
		{Path: file},
		{Path: empty},
		{URL: srv.URL + "/articles/supplier-risk"},
	}, func(pr Progress) { seen = append(seen, pr) })
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}

	if res.Sources != 2 || res.Documents != 3 || res.Skipped != 1 {
		t.Errorf("result = %+v, want 2 sources, 3 documents, 1 skipped", res)
	}
	if len(store.batches) != 2 {
		t.Fatalf("batches = %d, want 2", len(store.batches))
	}
	if got := store.batches[0][0]; got.SourceName != "Alert Types" || got.URL != "" {
		t.Errorf("file document = %+v", got)
	}
	web := store.batches[1]
	if len(web) != 2 || web[0].SourceName != "Supplier Risk" || !strings.HasPrefix(web[1].Content, "## Tiers") {
		t.Errorf("web documents = %+v", web)
	}
	if web[0].URL != srv.URL+"/articles/supplier-risk" {
		t.Errorf("web URL = %q", web[0].URL)
	}
	for _, extra := range store.extra {
		if extra != "Prewave knowledge base" {
			t.Errorf("additional context = %q", extra)
		}
	}
	if len(seen) != 3 || seen[2].Done != 3 || seen[2].Total != 3 {
		t.Errorf("progress = %+v", seen)
	}
}

func TestPipeline_StopsOnError(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	file := writeFile(t, dir, "a.md", "# A\nbody")

	boom := errors.New("embedding quota exceeded")
	p, _ := NewPipeline(&fakeStore{err: boom}, Config{}, nil)

	_, err := p.Ingest(context.Background(), []Source{{Path: file}}, nil)
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}

	_, err = p.Ingest(context.Background(), []Source{{Path: filepath.Join(dir, "missing.md")}}, nil)
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("err = %v, want not-exist", err)
	}
}

func TestPipeline_FetchStatus(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(srv.Close)

	p, _ := NewPipeline(&fakeStore{}, Config{}, nil)
	if _, err := p.Ingest(context.Background(), []Source{{URL: srv.URL}}, nil); err == nil {
		t.Error("expected error for 404")
	}
}

func TestPipeline_FetchBodyLimit(t *testing.T) {
	t.Parallel()
	page := "# Runbook\n" + strings.Repeat("x", 54)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(page))
	}))
	t.Cleanup(srv.Close)

	tests := []struct {
		name    string
		max     int64
		wantErr bool
	}{
		{"fits exactly", int64(len(page)), false},
		{"one byte over", int64(len(page)) - 1, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			store := &fakeStore{}
			p, _ := NewPipeline(store, Config{MaxBodyBytes: tc.max}, nil)

			_, err := p.Ingest(context.Background(), []Source{{URL: srv.URL}}, nil)
			if !tc.wantErr {
				if err != nil {
					t.Fatalf("Ingest: %v", err)
				}
				if len(store.batches) != 1 {
					t.Errorf("batches = %d, want 1", len(store.batches))
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), "exceeds") {
				t.Fatalf("err = %v, want size limit error", err)
			}
			if len(store.batches) != 0 {
				t.Errorf("batches = %d, want none stored", len(store.batches))
			}
		})
	}
}

func TestDocuments_StableIDs(t *testing.T) {
	t.Parallel()
	src := Source{Path: "kb/a.md", SourceName: "A", ScopeID: "tenant-1", URL: "https://kb.example/a"}
	content := "# One\nx\n# Two\ny"

	first := Documents(src, content)
	second := Documents(src, content)
	if len(first) != 2 {
		t.Fatalf("len = %d, want 2", len(first))
	}
	if first[0].ID != second[0].ID || first[1].ID != second[1].ID {
		t.Error("IDs differ between runs")
	}
	if first[0].ID == first[1].ID {
		t.Error("chunks share an ID")
	}
	if first[0].ScopeID != "tenant-1" || first[0].URL != "https://kb.example/a" || first[0].SourceName != "A" {
		t.Errorf("document = %+v", first[0])
	}
}

func TestExpandPaths(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	a := writeFile(t, dir, "docs/a.md", "a")
	b := writeFile(t, dir, "docs/nested/b.md", "b")
	writeFile(t, dir, "docs/nested/c.txt", "c")

	got, err := ExpandPaths([]string{
		filepath.Join(dir, "docs/**/*.md"),
		a,
	})
	if err != nil {
		t.Fatalf("ExpandPaths: %v", err)
	}
	if len(got) != 2 || got[0] != a || got[1] != b {
		t.Errorf("ExpandPaths = %v, want [%s %s]", got, a, b)
	}

	if _, err := ExpandPaths([]string{filepath.Join(dir, "nope.md")}); err == nil {
		t.Error("expected error for missing literal path")
	}
}

func TestNewPipeline_NilStore(t *testing.T) {
	t.Parallel()
	if _, err := NewPipeline(nil, Config{}, nil); err == nil {
		t.Error("expected error for nil store")
	}
}
