// Package export stream-parses extracted subtitle XML documents and loads
// their words, metadata, and subtitle time spans into the database.
package export

import (
	"compress/gzip"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strings"

	"subprep/internal/corpus"
	"subprep/internal/model"
)

// documentPatterns matches the per-document files an extracted tree holds.
var documentPatterns = []string{"*.xml.gz", "*.xml"}

// RowWriter receives the rows produced by an export. Rows may be buffered;
// Flush makes everything written so far durable.
type RowWriter interface {
	WriteWord(w model.Word) error
	WriteMeta(m model.Meta) error
	WriteTimeSpan(t model.TimeSpan) error
	Flush() error
}

// NoWordTextError reports a <w> element without token text. The document is
// malformed and the export aborts rather than load a gap into the corpus.
type NoWordTextError struct {
	File       string
	DocumentID int64
	WordID     string
}

func (e *NoWordTextError) Error() string {
	return fmt.Sprintf("no text in element w %s at document %d (%s)", e.WordID, e.DocumentID, e.File)
}

// Exporter walks an extracted document tree and loads every document's rows
// through a RowWriter.
type Exporter struct {
	fsmgr     corpus.FilesystemManager
	writer    RowWriter
	logger    corpus.Logger
	batchSize int
}

// NewExporter creates an Exporter. batchSize is the number of documents per
// Flush; values below 1 are treated as 1.
func NewExporter(fsmgr corpus.FilesystemManager, writer RowWriter, logger corpus.Logger, batchSize int) *Exporter {
	if batchSize < 1 {
		batchSize = 1
	}
	return &Exporter{fsmgr: fsmgr, writer: writer, logger: logger, batchSize: batchSize}
}

// ExportTree exports every document under srcDir for the given language.
// Returns the number of documents exported.
func (e *Exporter) ExportTree(lang, srcDir string) (int, error) {
	count := 0
	pending := 0

	err := e.fsmgr.WalkFiles(srcDir, documentPatterns, func(path string, _ fs.FileInfo) error {
		e.logger.Info("reading document", "path", path)
		if err := e.ExportFile(lang, path); err != nil {
			return err
		}
		count++
		pending++
		if pending >= e.batchSize {
			if err := e.writer.Flush(); err != nil {
				return err
			}
			pending = 0
		}
		return nil
	})
	if err != nil {
		return count, err
	}

	if err := e.writer.Flush(); err != nil {
		return count, err
	}
	return count, nil
}

// ExportFile parses a single document (gzip-compressed or plain XML) and
// writes its rows.
func (e *Exporter) ExportFile(lang, path string) error {
	f, err := e.fsmgr.Open(path)
	if err != nil {
		return fmt.Errorf("opening document: %w", err)
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return fmt.Errorf("reading gzip stream %s: %w", path, err)
		}
		defer gz.Close()
		r = gz
	}

	p := newDocParser(lang, path, e.writer)
	if err := p.run(xml.NewDecoder(r)); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return nil
}

// docParser is the per-document state machine. A document looks like:
//
//	<document id="123">
//	  <meta> <subtitle><language>...</language></subtitle> ... </meta>
//	  <s id="1">
//	    <time id="T1S" value="00:00:01,500"/>
//	    <w id="1.1">Hello</w>
//	    <time id="T1E" value="00:00:03,000"/>
//	  </s>
//	</document>
//
// A time span opens at a "...S" time element and closes at the matching
// "...E" element; its start position is the first word seen after opening
// and its end position is the last word before closing.
type docParser struct {
	lang   string
	file   string
	writer RowWriter

	docID      int64
	sentenceID int64
	wordID     int64

	timeID        int64
	startTime     string
	startSentence int64 // -1 while no word has landed in the open span
	startWord     int64

	metaDepth int
	elements  []*openElement
}

type openElement struct {
	name string
	text strings.Builder
}

func newDocParser(lang, file string, writer RowWriter) *docParser {
	return &docParser{lang: lang, file: file, writer: writer, startSentence: -1}
}

func (p *docParser) run(dec *xml.Decoder) error {
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if err := p.startElement(t); err != nil {
				return err
			}
		case xml.CharData:
			if n := len(p.elements); n > 0 {
				p.elements[n-1].text.Write(t)
			}
		case xml.EndElement:
			if err := p.endElement(t); err != nil {
				return err
			}
		}
	}
}

func (p *docParser) startElement(t xml.StartElement) error {
	p.elements = append(p.elements, &openElement{name: t.Name.Local})

	switch t.Name.Local {
	case "document":
		id, err := parseInt(attr(t, "id"))
		if err != nil {
			return fmt.Errorf("document id: %w", err)
		}
		p.docID = id
	case "meta":
		p.metaDepth++
	case "s":
		id, err := parseInt(attr(t, "id"))
		if err != nil {
			return fmt.Errorf("sentence id: %w", err)
		}
		p.sentenceID = id
	case "w":
		// A w id looks like "1.20": sentence id before the dot,
		// per-sentence word id after it.
		id := attr(t, "id")
		dot := strings.IndexByte(id, '.')
		if dot < 0 {
			return fmt.Errorf("unexpected w id %q", id)
		}
		sentenceID, err := parseInt(id[:dot])
		if err != nil {
			return fmt.Errorf("w id %q: %w", id, err)
		}
		wordID, err := parseInt(id[dot+1:])
		if err != nil {
			return fmt.Errorf("w id %q: %w", id, err)
		}
		p.sentenceID = sentenceID
		p.wordID = wordID
	case "time":
		if err := p.timeElement(t); err != nil {
			return err
		}
	}
	return nil
}

func (p *docParser) endElement(t xml.EndElement) error {
	n := len(p.elements)
	if n == 0 {
		return nil
	}
	el := p.elements[n-1]
	p.elements = p.elements[:n-1]

	switch el.name {
	case "meta":
		p.metaDepth--
	case "w":
		return p.wordElement(el)
	default:
		// Any element inside <meta> with text becomes a metadata row,
		// keyed by its tag.
		if p.metaDepth > 0 {
			text := strings.TrimSpace(el.text.String())
			if text == "" {
				return nil
			}
			return p.writer.WriteMeta(model.Meta{
				DocumentID: p.docID,
				Key:        el.name,
				Value:      text,
			})
		}
	}
	return nil
}

// wordElement handles </w>, emitting the word row at the position the
// opening tag recorded.
func (p *docParser) wordElement(el *openElement) error {
	sentenceID, wordID := p.sentenceID, p.wordID

	text := strings.TrimSpace(el.text.String())
	if text == "" {
		return &NoWordTextError{File: p.file, DocumentID: p.docID, WordID: fmt.Sprintf("%d.%d", sentenceID, wordID)}
	}

	if err := p.writer.WriteWord(model.Word{
		Lang:       p.lang,
		DocumentID: p.docID,
		SentenceID: sentenceID,
		WordID:     wordID,
		Word:       text,
	}); err != nil {
		return err
	}

	// The first word after a span opens anchors the span's start position.
	if p.startSentence < 0 {
		p.startSentence = sentenceID
		p.startWord = wordID
	}
	return nil
}

func (p *docParser) timeElement(t xml.StartElement) error {
	id := attr(t, "id")
	if len(id) < 3 || id[0] != 'T' {
		return fmt.Errorf("unexpected time id %q", id)
	}

	switch id[len(id)-1] {
	case 'S':
		num, err := parseInt(id[1 : len(id)-1])
		if err != nil {
			return fmt.Errorf("time id %q: %w", id, err)
		}
		start, err := normalizeTime(attr(t, "value"))
		if err != nil {
			return fmt.Errorf("time value: %w", err)
		}
		p.timeID = num
		p.startTime = start
	case 'E':
		end, err := normalizeTime(attr(t, "value"))
		if err != nil {
			return fmt.Errorf("time value: %w", err)
		}
		if err := p.writer.WriteTimeSpan(model.TimeSpan{
			Lang:            p.lang,
			DocumentID:      p.docID,
			TimeID:          p.timeID,
			StartSentenceID: p.startSentence,
			StartWordID:     p.startWord,
			StartTime:       p.startTime,
			EndSentenceID:   p.sentenceID,
			EndWordID:       p.wordID,
			EndTime:         end,
		}); err != nil {
			return err
		}
		p.startSentence = -1
	default:
		return fmt.Errorf("unexpected time id %q", id)
	}
	return nil
}

func attr(t xml.StartElement, name string) string {
	for _, a := range t.Attr {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}
