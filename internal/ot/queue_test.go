package ot_test

import (
	"errors"
	"sync"
	"testing"

	"github.com/serroba/richdocs/internal/ot"
	"github.com/serroba/richdocs/internal/textpos"
)

func TestQueue_NewQueue(t *testing.T) {
	t.Parallel()

	q := ot.NewQueue(100)

	if q.Revision() != 0 {
		t.Errorf("expected initial revision 0, got %d", q.Revision())
	}

	if q.HistorySize() != 100 {
		t.Errorf("expected history size 100, got %d", q.HistorySize())
	}
}

func TestQueue_Append(t *testing.T) {
	t.Parallel()

	q := ot.NewQueue(100)

	first := q.Append(ot.Insert{At: textpos.Pos(0, 0), Text: "a"}, "alice")
	second := q.Append(ot.Insert{At: textpos.Pos(0, 1), Text: "b"}, "bob")

	if first.Revision != 1 || second.Revision != 2 {
		t.Errorf("expected revisions 1 and 2, got %d and %d", first.Revision, second.Revision)
	}

	if second.UserID != "bob" {
		t.Errorf("expected user bob, got %s", second.UserID)
	}

	if q.Revision() != 2 {
		t.Errorf("expected queue revision 2, got %d", q.Revision())
	}
}

func TestQueue_Rebase_CurrentRevision(t *testing.T) {
	t.Parallel()

	q := ot.NewQueue(100)
	q.Append(ot.Insert{At: textpos.Pos(0, 0), Text: "abc"}, "alice")

	got, err := q.Rebase(1, textpos.Pos(0, 2))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got[0] != textpos.Pos(0, 2) {
		t.Errorf("expected unchanged position, got %s", got[0])
	}
}

func TestQueue_Rebase_ThroughConcurrentEdits(t *testing.T) {
	t.Parallel()

	q := ot.NewQueue(100)

	// Alice types two lines at the top while Bob still sees revision 0.
	q.Append(ot.Insert{At: textpos.Pos(0, 0), Text: "hi\nthere\n"}, "alice")
	q.Append(ot.Delete{Range: textpos.MustRange(textpos.Pos(2, 0), textpos.Pos(2, 2))}, "alice")

	got, err := q.Rebase(0, textpos.Pos(0, 0), textpos.Pos(0, 5))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got[0] != textpos.Pos(2, 0) {
		t.Errorf("expected (2:0), got %s", got[0])
	}

	if got[1] != textpos.Pos(2, 3) {
		t.Errorf("expected (2:3), got %s", got[1])
	}
}

func TestQueue_Rebase_FutureRevision(t *testing.T) {
	t.Parallel()

	q := ot.NewQueue(100)

	_, err := q.Rebase(5, textpos.Pos(0, 0))
	if !errors.Is(err, ot.ErrFutureRevision) {
		t.Errorf("expected ErrFutureRevision, got %v", err)
	}
}

func TestQueue_Rebase_RevisionTooOld(t *testing.T) {
	t.Parallel()

	q := ot.NewQueue(2)

	for range 3 {
		q.Append(ot.Insert{At: textpos.Pos(0, 0), Text: "x"}, "alice")
	}

	_, err := q.Rebase(0, textpos.Pos(0, 0))
	if !errors.Is(err, ot.ErrRevisionTooOld) {
		t.Errorf("expected ErrRevisionTooOld, got %v", err)
	}

	got, err := q.Rebase(1, textpos.Pos(0, 0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got[0] != textpos.Pos(0, 2) {
		t.Errorf("expected (0:2), got %s", got[0])
	}
}

func TestQueue_History(t *testing.T) {
	t.Parallel()

	q := ot.NewQueue(100)
	q.Append(ot.Insert{At: textpos.Pos(0, 0), Text: "a"}, "alice")
	q.Append(ot.Insert{At: textpos.Pos(0, 1), Text: "b"}, "bob")
	q.Append(ot.Insert{At: textpos.Pos(0, 2), Text: "c"}, "carol")

	history := q.History(1)

	if len(history) != 2 {
		t.Fatalf("expected 2 operations, got %d", len(history))
	}

	if history[0].UserID != "bob" || history[1].UserID != "carol" {
		t.Errorf("unexpected history order: %s, %s", history[0].UserID, history[1].UserID)
	}
}

func TestQueue_History_Empty(t *testing.T) {
	t.Parallel()

	q := ot.NewQueue(100)

	if history := q.History(0); len(history) != 0 {
		t.Errorf("expected empty history, got %d operations", len(history))
	}
}

func TestQueue_SetRevision(t *testing.T) {
	t.Parallel()

	q := ot.NewQueue(100)
	q.Append(ot.Insert{At: textpos.Pos(0, 0), Text: "a"}, "alice")

	q.SetRevision(42)

	if q.Revision() != 42 {
		t.Errorf("expected revision 42, got %d", q.Revision())
	}

	if history := q.History(0); len(history) != 0 {
		t.Errorf("expected history to be cleared, got %d operations", len(history))
	}

	if op := q.Append(ot.Insert{At: textpos.Pos(0, 0), Text: "b"}, "bob"); op.Revision != 43 {
		t.Errorf("expected revision 43, got %d", op.Revision)
	}
}

func TestQueue_ConcurrentAccess(t *testing.T) {
	t.Parallel()

	q := ot.NewQueue(1000)

	var wg sync.WaitGroup

	for range 50 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			q.Append(ot.Insert{At: textpos.Pos(0, 0), Text: "x"}, "user")
			_, _ = q.Rebase(0, textpos.Pos(0, 0))
		}()
	}

	wg.Wait()

	if q.Revision() != 50 {
		t.Errorf("expected revision 50, got %d", q.Revision())
	}
}

func TestQueue_HistoryPruning(t *testing.T) {
	t.Parallel()

	q := ot.NewQueue(3)

	for range 5 {
		q.Append(ot.Insert{At: textpos.Pos(0, 0), Text: "x"}, "alice")
	}

	history := q.History(0)
	if len(history) != 3 {
		t.Fatalf("expected 3 retained operations, got %d", len(history))
	}

	if history[0].Revision != 3 {
		t.Errorf("expected oldest retained revision 3, got %d", history[0].Revision)
	}
}
