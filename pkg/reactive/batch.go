package reactive

// Batch groups signal writes: listeners touched inside fn are notified once,
// deduplicated, when the outermost batch returns.
func Batch(fn func()) {
	tc := current()
	tc.batchDepth++
	defer func() {
		tc.batchDepth--
		if tc.batchDepth == 0 {
			flush(tc)
			release()
		}
	}()
	fn()
}

func flush(tc *trackingContext) {
	queued := tc.pending
	tc.pending = nil
	if len(queued) == 0 {
		return
	}

	seen := make(map[uint64]struct{}, len(queued))
	for _, l := range queued {
		if _, dup := seen[l.ID()]; dup {
			continue
		}
		seen[l.ID()] = struct{}{}
		l.MarkDirty()
	}
}
