package corpus

// Promoter swaps a fully populated staging subtree into the original
// subtree's place. The swap is three renames wide, not one, so it is not
// atomic: the original is first renamed aside, the staging subtree renamed
// in, then the set-aside original removed. On filesystems with atomic
// rename the inconsistent-state window is two rename calls; a failure
// inside that window is reported as a PromotionError naming the paths the
// operator needs to recover manually. Promotion is never retried.
type Promoter struct {
	fsmgr  FilesystemManager
	logger Logger
}

func NewPromoter(fsmgr FilesystemManager, logger Logger) *Promoter {
	return &Promoter{fsmgr: fsmgr, logger: logger}
}

// Promote replaces origRoot with stagingRoot. After a set-aside failure the
// corpus is untouched. After a swap-in failure the original survives at
// origRoot+".old" and the filtered tree at stagingRoot. A discard failure
// leaves the filtered tree live with the stale ".old" copy beside it.
func (p *Promoter) Promote(stagingRoot, origRoot string) error {
	old := origRoot + ".old"

	if err := p.fsmgr.Rename(origRoot, old); err != nil {
		return &PromotionError{Step: "set-aside", Path: origRoot, Err: err}
	}
	if err := p.fsmgr.Rename(stagingRoot, origRoot); err != nil {
		p.logger.Error("swap-in failed, original tree preserved",
			"original", old, "staging", stagingRoot)
		return &PromotionError{Step: "swap-in", Path: stagingRoot, Err: err}
	}
	if err := p.fsmgr.RemoveAll(old); err != nil {
		return &PromotionError{Step: "discard-old", Path: old, Err: err}
	}

	p.logger.Info("subtree promoted", "root", origRoot)
	return nil
}
