package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/felixgeelhaar/kata/internal/domain"
)

func newTestStore(t *testing.T) *AttemptStore {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "kata.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := db.Migrate(); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	store := NewAttemptStore(db)
	t.Cleanup(func() { store.Close() })
	return store
}

func testAttempt(passed, total int) domain.Attempt {
	p := &domain.Problem{
		ID:         "two-sum",
		Title:      "Two Sum",
		Difficulty: domain.DifficultyEasy,
		TopicTags:  []string{"Array", "Hash Table"},
	}
	report := &domain.GradingReport{
		Passed: passed,
		Total:  total,
		Results: []domain.CaseResult{
			{Index: 0, Passed: passed > 0, Input: "nums = [2,7,11,15], target = 9", Expected: "[0,1]", Actual: "[0, 1]"},
		},
	}
	return domain.NewAttempt(p, report)
}

func TestAttemptStoreRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	a := testAttempt(1, 2)
	if err := store.Record(ctx, a); err != nil {
		t.Fatalf("Record: %v", err)
	}

	got, err := store.ListByProblem(ctx, "two-sum", 10)
	if err != nil {
		t.Fatalf("ListByProblem: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d attempts, want 1", len(got))
	}
	if got[0].ID != a.ID {
		t.Errorf("id = %v, want %v", got[0].ID, a.ID)
	}
	if got[0].Difficulty != domain.DifficultyEasy {
		t.Errorf("difficulty = %q", got[0].Difficulty)
	}
	if len(got[0].Tags) != 2 || got[0].Tags[0] != "Array" {
		t.Errorf("tags = %v", got[0].Tags)
	}
	if got[0].Report == nil || len(got[0].Report.Results) != 1 {
		t.Fatalf("report not round-tripped: %+v", got[0].Report)
	}
	if got[0].Report.Results[0].Expected != "[0,1]" {
		t.Errorf("report expected = %q", got[0].Report.Results[0].Expected)
	}
}

func TestAttemptStoreListOrderAndLimit(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		a := testAttempt(i, 5)
		a.CreatedAt = time.Now().UTC().Add(time.Duration(i) * time.Minute)
		if err := store.Record(ctx, a); err != nil {
			t.Fatalf("Record %d: %v", i, err)
		}
	}

	got, err := store.ListByProblem(ctx, "two-sum", 3)
	if err != nil {
		t.Fatalf("ListByProblem: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d attempts, want limit 3", len(got))
	}
	if got[0].Passed != 4 {
		t.Errorf("first attempt passed = %d, want newest (4)", got[0].Passed)
	}

	other, err := store.ListByProblem(ctx, "unknown", 10)
	if err != nil {
		t.Fatalf("ListByProblem unknown: %v", err)
	}
	if len(other) != 0 {
		t.Errorf("got %d attempts for unknown problem, want 0", len(other))
	}
}

func TestAttemptStoreStats(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	// Two failing attempts, then a full pass on the same problem.
	for _, passed := range []int{0, 1, 1} {
		if err := store.Record(ctx, testAttempt(passed, 1)); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.TotalAttempts != 3 {
		t.Errorf("total attempts = %d, want 3", stats.TotalAttempts)
	}
	if stats.SolvedProblems != 1 {
		t.Errorf("solved problems = %d, want 1 distinct", stats.SolvedProblems)
	}
	if stats.ByDifficulty[domain.DifficultyEasy] != 1 {
		t.Errorf("easy solves = %d, want 1", stats.ByDifficulty[domain.DifficultyEasy])
	}
	if stats.CurrentStreak != 1 {
		t.Errorf("streak = %d, want 1 for today's activity", stats.CurrentStreak)
	}
}

func TestCurrentStreak(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	day := func(offset int) string {
		return now.AddDate(0, 0, offset).Format(time.DateOnly)
	}

	tests := []struct {
		name string
		days []string
		want int
	}{
		{name: "empty", days: nil, want: 0},
		{name: "today only", days: []string{day(0)}, want: 1},
		{name: "three consecutive ending today", days: []string{day(0), day(-1), day(-2)}, want: 3},
		{name: "streak ending yesterday still counts", days: []string{day(-1), day(-2)}, want: 2},
		{name: "gap breaks streak", days: []string{day(0), day(-2), day(-3)}, want: 1},
		{name: "old activity only", days: []string{day(-5)}, want: 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			days := make(map[string]bool, len(tc.days))
			for _, d := range tc.days {
				days[d] = true
			}
			if got := currentStreak(days, now); got != tc.want {
				t.Errorf("got %d, want %d", got, tc.want)
			}
		})
	}
}

func TestMigrateIdempotent(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "kata.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		t.Fatalf("first Migrate: %v", err)
	}
	if err := db.Migrate(); err != nil {
		t.Fatalf("second Migrate: %v", err)
	}

	version, err := db.Version()
	if err != nil {
		t.Fatalf("Version: %v", err)
	}
	if version < 1 {
		t.Errorf("version = %d, want >= 1", version)
	}
}
