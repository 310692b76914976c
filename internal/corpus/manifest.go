package corpus

import (
	"bufio"
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// Entry is one alignment record from a manifest: the relative paths of two
// aligned documents, one per language subtree. Paths are relative to the
// corpus xml/ root and include the language code as their first element
// (e.g. "en/2001/12345/1.xml.gz").
type Entry struct {
	Source string
	Target string
}

// Manifest lines describing an alignment look like:
//
//	<linkGrp targType="s" fromDoc="en/2001/12345/1.xml.gz" toDoc="zh_cn/2001/12345/1.xml.gz">
//
// Lines without the marker (headers, link elements, closing tags) are
// expected noise and are skipped.
const (
	linkMarker = "<linkGrp"
	fromPrefix = `fromDoc="`
	toPrefix   = `toDoc="`
)

// ParseManifest reads alignment records from r, in order. A line containing
// the marker token that does not match the expected layout fails the whole
// parse with a MalformedManifestError; duplicates are preserved (the copier
// coalesces them).
func ParseManifest(r io.Reader) ([]Entry, error) {
	var entries []Entry

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := sc.Text()
		if !strings.Contains(line, linkMarker) {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) < 4 {
			return nil, &MalformedManifestError{
				Line:   lineNo,
				Reason: fmt.Sprintf("expected at least 4 fields, got %d", len(fields)),
			}
		}

		source, err := pathField(fields[2], fromPrefix, lineNo)
		if err != nil {
			return nil, err
		}
		target, err := pathField(fields[3], toPrefix, lineNo)
		if err != nil {
			return nil, err
		}

		entries = append(entries, Entry{Source: source, Target: target})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}

	return entries, nil
}

// pathField extracts the quoted path from a `prefix="path"` token. A trailing
// '>' (end of the linkGrp element) is stripped before the closing quote is
// checked.
func pathField(field, prefix string, lineNo int) (string, error) {
	if !strings.HasPrefix(field, prefix) {
		return "", &MalformedManifestError{
			Line:   lineNo,
			Reason: fmt.Sprintf("field %q does not start with %q", field, prefix),
		}
	}
	v := strings.TrimPrefix(field, prefix)
	v = strings.TrimSuffix(v, ">")
	if !strings.HasSuffix(v, `"`) {
		return "", &MalformedManifestError{
			Line:   lineNo,
			Reason: fmt.Sprintf("field %q is missing its closing quote", field),
		}
	}
	v = strings.TrimSuffix(v, `"`)
	if v == "" {
		return "", &MalformedManifestError{Line: lineNo, Reason: "empty document path"}
	}
	if !filepath.IsLocal(v) {
		return "", &MalformedManifestError{
			Line:   lineNo,
			Reason: fmt.Sprintf("document path %q escapes the corpus root", v),
		}
	}
	return v, nil
}
