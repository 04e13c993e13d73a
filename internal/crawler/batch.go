package crawler

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/hospscan/hospscan/internal/checkpoint"
)

// runBatch crawls hospitals with up to BatchSize workers. The
// checkpoint cursor only moves over the contiguous prefix of finished
// IDs, so a resume never skips a hospital that an out-of-order worker
// had not finished yet.
func (s *Spider) runBatch(ctx context.Context, start int, resumed bool) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.BatchSize)

	// On resume every ID at or past the cursor is unfinished: a worker
	// may have appended the hospital row and died before its doctors.
	// Those hospitals must be crawled again, not skipped as seen.
	var st *resumeState
	if resumed {
		st = &resumeState{}
	}

	var (
		cursorMu  sync.Mutex
		completed = make(map[int]bool)
		cursor    = start
	)

	markDone := func(id int) error {
		cursorMu.Lock()
		defer cursorMu.Unlock()

		completed[id] = true
		advanced := false
		for completed[cursor] {
			delete(completed, cursor)
			cursor++
			advanced = true
		}
		if !advanced {
			return nil
		}
		return s.saveProgress(checkpoint.Progress{
			HospitalRange:     s.cfg.Range(),
			CurrentHospitalID: cursor,
		})
	}

	for id := start; id <= s.cfg.RangeEnd; id++ {
		g.Go(func() error {
			if err := s.crawlHospital(ctx, id, st); err != nil {
				return err
			}
			if err := markDone(id); err != nil {
				return err
			}
			return s.hospitalPause(ctx)
		})
	}

	return g.Wait()
}
