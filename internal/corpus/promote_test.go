package corpus_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"subprep/internal/corpus"
	"subprep/internal/fs"
	"subprep/internal/testutil"
)

func TestPromoter_Promote(t *testing.T) {
	tmp := t.TempDir()
	orig := filepath.Join(tmp, "xml", "en")
	staging := filepath.Join(tmp, "xml.staging", "en")

	testutil.WriteTree(t, orig, map[string]string{
		"a/1.xml.gz": "old one",
		"a/2.xml.gz": "old two",
	})
	testutil.WriteTree(t, staging, map[string]string{
		"a/1.xml.gz": "new one",
	})

	p := corpus.NewPromoter(fs.NewOSFilesystemManager(), corpus.NewNopLogger())
	if err := p.Promote(staging, orig); err != nil {
		t.Fatalf("Promote() error = %v", err)
	}

	got := testutil.ListTree(t, orig)
	if len(got) != 1 || got[0] != "a/1.xml.gz" {
		t.Errorf("promoted tree = %v, want [a/1.xml.gz]", got)
	}
	data, err := os.ReadFile(filepath.Join(orig, "a/1.xml.gz"))
	if err != nil {
		t.Fatalf("reading promoted file: %v", err)
	}
	if string(data) != "new one" {
		t.Errorf("promoted content = %q, want %q", data, "new one")
	}

	if _, err := os.Stat(orig + ".old"); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("set-aside tree still present: %v", err)
	}
	if _, err := os.Stat(staging); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("staging subtree still present: %v", err)
	}
}

func TestPromoter_SetAsideFailureLeavesCorpusUntouched(t *testing.T) {
	tmp := t.TempDir()
	orig := filepath.Join(tmp, "xml", "en") // does not exist
	staging := filepath.Join(tmp, "xml.staging", "en")
	testutil.WriteTree(t, staging, map[string]string{"a/1.xml.gz": "new"})

	p := corpus.NewPromoter(fs.NewOSFilesystemManager(), corpus.NewNopLogger())
	err := p.Promote(staging, orig)

	var perr *corpus.PromotionError
	if !errors.As(err, &perr) {
		t.Fatalf("error = %v, want PromotionError", err)
	}
	if perr.Step != "set-aside" {
		t.Errorf("Step = %q, want %q", perr.Step, "set-aside")
	}

	// The staging tree must survive a failed promotion.
	if got := testutil.ListTree(t, staging); len(got) != 1 {
		t.Errorf("staging tree = %v, want it preserved", got)
	}
}

func TestPromoter_SwapInFailurePreservesOriginal(t *testing.T) {
	tmp := t.TempDir()
	orig := filepath.Join(tmp, "xml", "en")
	staging := filepath.Join(tmp, "xml.staging", "en") // does not exist

	testutil.WriteTree(t, orig, map[string]string{"a/1.xml.gz": "old"})

	p := corpus.NewPromoter(fs.NewOSFilesystemManager(), corpus.NewNopLogger())
	err := p.Promote(staging, orig)

	var perr *corpus.PromotionError
	if !errors.As(err, &perr) {
		t.Fatalf("error = %v, want PromotionError", err)
	}
	if perr.Step != "swap-in" {
		t.Errorf("Step = %q, want %q", perr.Step, "swap-in")
	}

	// Original survives, set aside under the .old name.
	if got := testutil.ListTree(t, orig+".old"); len(got) != 1 {
		t.Errorf("set-aside tree = %v, want the original's single file", got)
	}
}
