package progress

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/felixgeelhaar/kata/internal/domain"
)

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "progress.json")
	s, err := NewStore(path)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return s, path
}

func TestStoreSolvedLifecycle(t *testing.T) {
	s, _ := newTestStore(t)

	if s.Solved("two-sum") {
		t.Error("fresh store should have nothing solved")
	}
	if err := s.MarkSolved("two-sum"); err != nil {
		t.Fatalf("MarkSolved: %v", err)
	}
	if !s.Solved("two-sum") {
		t.Error("two-sum should be solved")
	}
	if got := s.SolvedCount(); got != 1 {
		t.Errorf("SolvedCount = %d, want 1", got)
	}

	if err := s.MarkUnsolved("two-sum"); err != nil {
		t.Fatalf("MarkUnsolved: %v", err)
	}
	if s.Solved("two-sum") {
		t.Error("two-sum should be unsolved again")
	}
}

func TestStorePersistsAcrossReopen(t *testing.T) {
	s, path := newTestStore(t)
	if err := s.MarkSolved("two-sum"); err != nil {
		t.Fatalf("MarkSolved: %v", err)
	}
	if err := s.SaveCode("two-sum", "class Solution: pass"); err != nil {
		t.Fatalf("SaveCode: %v", err)
	}

	reopened, err := NewStore(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	rec := reopened.Get("two-sum")
	if !rec.Solved {
		t.Error("solved flag lost on reopen")
	}
	if rec.Code != "class Solution: pass" {
		t.Errorf("code = %q", rec.Code)
	}
	if rec.UpdatedAt.IsZero() {
		t.Error("updated_at not persisted")
	}
}

func TestStoreRejectsEmptyProblemID(t *testing.T) {
	s, _ := newTestStore(t)
	if err := s.MarkSolved(""); err == nil {
		t.Fatal("expected error for empty problem id")
	}
}

func TestStoreCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "progress.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewStore(path); err == nil {
		t.Fatal("expected error for corrupt progress file")
	}
}

func TestSaveSubmission(t *testing.T) {
	s, _ := newTestStore(t)

	failing := &domain.GradingReport{Passed: 1, Total: 2}
	if err := s.SaveSubmission("two-sum", "v1", failing); err != nil {
		t.Fatalf("SaveSubmission: %v", err)
	}
	if s.Solved("two-sum") {
		t.Error("partial pass must not mark solved")
	}

	passing := &domain.GradingReport{Passed: 2, Total: 2}
	if err := s.SaveSubmission("two-sum", "v2", passing); err != nil {
		t.Fatalf("SaveSubmission: %v", err)
	}
	rec := s.Get("two-sum")
	if !rec.Solved {
		t.Error("full pass should mark solved")
	}
	if len(rec.Submissions) != 2 {
		t.Fatalf("submissions = %d, want 2", len(rec.Submissions))
	}
	if rec.Code != "v2" {
		t.Errorf("code = %q, want latest submission", rec.Code)
	}
}

func TestSaveSubmissionCapsHistory(t *testing.T) {
	s, _ := newTestStore(t)
	report := &domain.GradingReport{Passed: 0, Total: 1}

	for i := 0; i < maxSubmissions+5; i++ {
		if err := s.SaveSubmission("two-sum", "code", report); err != nil {
			t.Fatalf("SaveSubmission: %v", err)
		}
	}
	if got := len(s.Get("two-sum").Submissions); got != maxSubmissions {
		t.Errorf("submissions = %d, want cap %d", got, maxSubmissions)
	}
}

func TestHintCaching(t *testing.T) {
	s, _ := newTestStore(t)

	if _, ok := s.CachedHint("two-sum", 1); ok {
		t.Error("no hint should be cached yet")
	}
	if err := s.CacheHint("two-sum", 1, "think about complements"); err != nil {
		t.Fatalf("CacheHint: %v", err)
	}
	hint, ok := s.CachedHint("two-sum", 1)
	if !ok || hint != "think about complements" {
		t.Errorf("cached hint = %q, %v", hint, ok)
	}
	if _, ok := s.CachedHint("two-sum", 2); ok {
		t.Error("level 2 should not be cached")
	}
}

func TestRoadmapCompleteDay(t *testing.T) {
	s, _ := newTestStore(t)

	state, err := s.CompleteDay(1, []string{"two-sum", "valid-anagram"})
	if err != nil {
		t.Fatalf("CompleteDay: %v", err)
	}
	if state.CurrentDay != 2 {
		t.Errorf("current day = %d, want 2", state.CurrentDay)
	}
	if !state.DayCompleted(1) {
		t.Error("day 1 should be completed")
	}
	if !s.Solved("two-sum") || !s.Solved("valid-anagram") {
		t.Error("completing a day should bulk-mark its problems solved")
	}

	// Completing an earlier day again must not move the position backwards
	// or duplicate the completion.
	state, err = s.CompleteDay(1, nil)
	if err != nil {
		t.Fatalf("CompleteDay repeat: %v", err)
	}
	if state.CurrentDay != 2 {
		t.Errorf("current day = %d after repeat, want 2", state.CurrentDay)
	}
	if len(state.CompletedDays) != 1 {
		t.Errorf("completed days = %v, want one entry", state.CompletedDays)
	}
}

func TestRoadmapSetDayClamps(t *testing.T) {
	s, _ := newTestStore(t)

	state, err := s.SetDay(200)
	if err != nil {
		t.Fatalf("SetDay: %v", err)
	}
	if state.CurrentDay != domain.RoadmapLastDay {
		t.Errorf("current day = %d, want clamp to %d", state.CurrentDay, domain.RoadmapLastDay)
	}
	if state.Phase() != 4 {
		t.Errorf("phase = %d, want 4", state.Phase())
	}

	state, err = s.SetDay(-1)
	if err != nil {
		t.Fatalf("SetDay: %v", err)
	}
	if state.CurrentDay != domain.RoadmapFirstDay {
		t.Errorf("current day = %d, want clamp to %d", state.CurrentDay, domain.RoadmapFirstDay)
	}
}
