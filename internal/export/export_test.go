package export

import (
	"compress/gzip"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"subprep/internal/corpus"
	"subprep/internal/fs"
	"subprep/internal/model"
	"subprep/internal/testutil"
)

// fakeWriter records rows in memory.
type fakeWriter struct {
	words   []model.Word
	metas   []model.Meta
	spans   []model.TimeSpan
	flushes int
}

func (w *fakeWriter) WriteWord(word model.Word) error { w.words = append(w.words, word); return nil }
func (w *fakeWriter) WriteMeta(m model.Meta) error { w.metas = append(w.metas, m); return nil }
func (w *fakeWriter) WriteTimeSpan(t model.TimeSpan) error { w.spans = append(w.spans, t); return nil }
func (w *fakeWriter) Flush() error { w.flushes++; return nil }

var _ RowWriter = (*fakeWriter)(nil)

const sampleDoc = `<?xml version="1.0" encoding="utf-8"?>
<document id="7">
 <meta>
  <subtitle>
   <genre>Drama</genre>
   <language>English</language>
  </subtitle>
 </meta>
 <s id="1">
  <time id="T1S" value="00:00:01,500" />
  <w id="1.1">Hello</w>
  <w id="1.2">world</w>
  <time id="T1E" value="00:00:03,000" />
 </s>
 <s id="2">
  <time id="T2S" value="00:00:04,000" />
  <w id="2.1">Again</w>
  <time id="T2E" value="00:00:05,250" />
 </s>
</document>
`

func writeDoc(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func writeGzDoc(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", name, err)
	}
	gz := gzip.NewWriter(f)
	if _, err := gz.Write([]byte(content)); err != nil {
		t.Fatalf("gzip write: %v", err)
	}
	if err := gz.Close(); err != nil {
		t.Fatalf("gzip close: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	return path
}

func newExporter(w RowWriter, batchSize int) *Exporter {
	return NewExporter(fs.NewOSFilesystemManager(), w, corpus.NewNopLogger(), batchSize)
}

func TestExportFile(t *testing.T) {
	dir := t.TempDir()
	path := writeDoc(t, dir, "1.xml", sampleDoc)

	w := &fakeWriter{}
	if err := newExporter(w, 1).ExportFile("en", path); err != nil {
		t.Fatalf("ExportFile() error = %v", err)
	}

	wantWords := []model.Word{
		{Lang: "en", DocumentID: 7, SentenceID: 1, WordID: 1, Word: "Hello"},
		{Lang: "en", DocumentID: 7, SentenceID: 1, WordID: 2, Word: "world"},
		{Lang: "en", DocumentID: 7, SentenceID: 2, WordID: 1, Word: "Again"},
	}
	if len(w.words) != len(wantWords) {
		t.Fatalf("got %d words, want %d: %+v", len(w.words), len(wantWords), w.words)
	}
	for i := range wantWords {
		if w.words[i] != wantWords[i] {
			t.Errorf("word %d = %+v, want %+v", i, w.words[i], wantWords[i])
		}
	}

	wantMetas := []model.Meta{
		{DocumentID: 7, Key: "genre", Value: "Drama"},
		{DocumentID: 7, Key: "language", Value: "English"},
	}
	if len(w.metas) != len(wantMetas) {
		t.Fatalf("got %d meta rows, want %d: %+v", len(w.metas), len(wantMetas), w.metas)
	}
	for i := range wantMetas {
		if w.metas[i] != wantMetas[i] {
			t.Errorf("meta %d = %+v, want %+v", i, w.metas[i], wantMetas[i])
		}
	}

	wantSpans := []model.TimeSpan{
		{
			Lang: "en", DocumentID: 7, TimeID: 1,
			StartSentenceID: 1, StartWordID: 1, StartTime: "0:0:1.500",
			EndSentenceID: 1, EndWordID: 2, EndTime: "0:0:3.000",
		},
		{
			Lang: "en", DocumentID: 7, TimeID: 2,
			StartSentenceID: 2, StartWordID: 1, StartTime: "0:0:4.000",
			EndSentenceID: 2, EndWordID: 1, EndTime: "0:0:5.250",
		},
	}
	if len(w.spans) != len(wantSpans) {
		t.Fatalf("got %d time spans, want %d: %+v", len(w.spans), len(wantSpans), w.spans)
	}
	for i := range wantSpans {
		if w.spans[i] != wantSpans[i] {
			t.Errorf("span %d = %+v, want %+v", i, w.spans[i], wantSpans[i])
		}
	}
}

func TestExportFile_Gzip(t *testing.T) {
	dir := t.TempDir()
	path := writeGzDoc(t, dir, "1.xml.gz", sampleDoc)

	w := &fakeWriter{}
	if err := newExporter(w, 1).ExportFile("en", path); err != nil {
		t.Fatalf("ExportFile() error = %v", err)
	}
	if len(w.words) != 3 {
		t.Errorf("got %d words from gzip document, want 3", len(w.words))
	}
}

func TestExportFile_NoWordText(t *testing.T) {
	dir := t.TempDir()
	doc := `<document id="9"><s id="1"><w id="1.1"></w></s></document>`
	path := writeDoc(t, dir, "bad.xml", doc)

	err := newExporter(&fakeWriter{}, 1).ExportFile("en", path)

	var werr *NoWordTextError
	if !errors.As(err, &werr) {
		t.Fatalf("error = %v, want NoWordTextError", err)
	}
	if werr.DocumentID != 9 {
		t.Errorf("DocumentID = %d, want 9", werr.DocumentID)
	}
	if werr.WordID != "1.1" {
		t.Errorf("WordID = %q, want %q", werr.WordID, "1.1")
	}
}

func TestExportTree(t *testing.T) {
	dir := t.TempDir()
	writeGzDoc(t, dir, "2001/1/1.xml.gz", sampleDoc)
	writeDoc(t, dir, "2001/2/2.xml", sampleDoc)
	writeDoc(t, dir, "2001/2/notes.txt", "not a document")

	w := &fakeWriter{}
	count, err := newExporter(w, 1).ExportTree("en", dir)
	if err != nil {
		t.Fatalf("ExportTree() error = %v", err)
	}

	if count != 2 {
		t.Errorf("count = %d, want 2", count)
	}
	if len(w.words) != 6 {
		t.Errorf("got %d words, want 6", len(w.words))
	}
	// One flush per document plus the final one.
	if w.flushes != 3 {
		t.Errorf("flushes = %d, want 3", w.flushes)
	}
}

func TestExportTree_IntoDatabase(t *testing.T) {
	dir := t.TempDir()
	writeGzDoc(t, dir, "2001/1/1.xml.gz", sampleDoc)

	db := testutil.NewTestDatabase(t)
	count, err := NewExporter(fs.NewOSFilesystemManager(), db, corpus.NewNopLogger(), 50).ExportTree("en", dir)
	if err != nil {
		t.Fatalf("ExportTree() error = %v", err)
	}
	if count != 1 {
		t.Errorf("count = %d, want 1", count)
	}

	for table, want := range map[string]int64{"words": 3, "meta": 2, "time_spans": 2} {
		n, err := db.CountRows(table)
		if err != nil {
			t.Fatalf("CountRows(%s) error = %v", table, err)
		}
		if n != want {
			t.Errorf("CountRows(%s) = %d, want %d", table, n, want)
		}
	}
}
