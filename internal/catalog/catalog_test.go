package catalog

import (
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/felixgeelhaar/kata/internal/domain"
)

func writeCatalog(t *testing.T, problems []map[string]any, index []map[string]any) string {
	t.Helper()
	dir := t.TempDir()

	data, err := json.Marshal(problems)
	if err != nil {
		t.Fatalf("marshal problems: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, problemsFile), data, 0o644); err != nil {
		t.Fatalf("write problems: %v", err)
	}

	if index != nil {
		data, err = json.Marshal(index)
		if err != nil {
			t.Fatalf("marshal index: %v", err)
		}
		if err := os.WriteFile(filepath.Join(dir, indexFile), data, 0o644); err != nil {
			t.Fatalf("write index: %v", err)
		}
	}
	return dir
}

func testProblems() []map[string]any {
	return []map[string]any{
		{"id": "two-sum", "title": "Two Sum", "difficulty": "Easy", "topic_tags": []string{"Array", "Hash Table"}},
		{"id": "lru-cache", "title": "LRU Cache", "difficulty": "Medium", "topic_tags": []string{"Design"},
			"content": "<p>Build a cache with a <strong>least recently used</strong> eviction policy.</p>"},
		{"id": "word-ladder", "title": "Word Ladder", "difficulty": "Hard", "topic_tags": []string{"BFS"}},
	}
}

func newTestCatalog(t *testing.T, dir string) *Catalog {
	t.Helper()
	return New(dir, slog.New(slog.DiscardHandler))
}

func TestCatalogGet(t *testing.T) {
	dir := writeCatalog(t, testProblems(), nil)
	c := newTestCatalog(t, dir)

	p, err := c.Get("two-sum")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Title != "Two Sum" {
		t.Errorf("title = %q, want %q", p.Title, "Two Sum")
	}
	if p.Difficulty != domain.DifficultyEasy {
		t.Errorf("difficulty = %q, want normalized easy", p.Difficulty)
	}

	if _, err := c.Get("missing"); !errors.Is(err, domain.ErrProblemNotFound) {
		t.Errorf("error = %v, want ErrProblemNotFound", err)
	}
	if _, err := c.Get(""); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("error = %v, want ErrInvalidInput", err)
	}
}

func TestCatalogListFilters(t *testing.T) {
	dir := writeCatalog(t, testProblems(), nil)
	c := newTestCatalog(t, dir)
	solved := func(id string) bool { return id == "two-sum" }

	tests := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{name: "no filter", filter: Filter{}, want: []string{"two-sum", "lru-cache", "word-ladder"}},
		{name: "difficulty", filter: Filter{Difficulty: "medium"}, want: []string{"lru-cache"}},
		{name: "tag case-insensitive", filter: Filter{Tag: "array"}, want: []string{"two-sum"}},
		{name: "search title", filter: Filter{Search: "ladder"}, want: []string{"word-ladder"}},
		{name: "search tag", filter: Filter{Search: "design"}, want: []string{"lru-cache"}},
		{name: "search description text", filter: Filter{Search: "eviction"}, want: []string{"lru-cache"}},
		{name: "solved only", filter: Filter{Solved: boolPtr(true)}, want: []string{"two-sum"}},
		{name: "unsolved only", filter: Filter{Solved: boolPtr(false)}, want: []string{"lru-cache", "word-ladder"}},
		{name: "no match", filter: Filter{Search: "zzz"}, want: nil},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := c.List(tc.filter, solved)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got) != len(tc.want) {
				t.Fatalf("got %d results, want %d", len(got), len(tc.want))
			}
			for i, s := range got {
				if s.ID != tc.want[i] {
					t.Errorf("result %d = %s, want %s", i, s.ID, tc.want[i])
				}
			}
		})
	}

	t.Run("bad difficulty filter", func(t *testing.T) {
		if _, err := c.List(Filter{Difficulty: "brutal"}, nil); !errors.Is(err, domain.ErrInvalidInput) {
			t.Errorf("error = %v, want ErrInvalidInput", err)
		}
	})
}

func TestCatalogRejectsMalformedEntries(t *testing.T) {
	problems := append(testProblems(),
		map[string]any{"id": "", "title": "No ID", "difficulty": "easy"},
		map[string]any{"id": "bad-difficulty", "title": "Bad", "difficulty": "impossible"},
	)
	dir := writeCatalog(t, problems, nil)
	c := newTestCatalog(t, dir)

	got, err := c.List(Filter{}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 3 {
		t.Errorf("got %d problems, want 3 with malformed entries rejected", len(got))
	}
}

func TestCatalogIndexOrder(t *testing.T) {
	index := []map[string]any{
		{"id": "word-ladder"},
		{"id": "two-sum"},
	}
	dir := writeCatalog(t, testProblems(), index)
	c := newTestCatalog(t, dir)

	got, err := c.List(Filter{}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"word-ladder", "two-sum", "lru-cache"}
	for i, s := range got {
		if s.ID != want[i] {
			t.Errorf("position %d = %s, want %s", i, s.ID, want[i])
		}
	}
}

func TestCatalogMissingDataDir(t *testing.T) {
	c := newTestCatalog(t, filepath.Join(t.TempDir(), "nope"))
	if _, err := c.List(Filter{}, nil); err == nil {
		t.Fatal("expected error for missing catalog file")
	}
}

func TestPlainDescription(t *testing.T) {
	tests := []struct {
		name   string
		markup string
		want   string
	}{
		{
			name:   "paragraphs become lines",
			markup: "<p>Given an array.</p><p>Return indices.</p>",
			want:   "Given an array.\n\nReturn indices.",
		},
		{
			name:   "inline markup stripped",
			markup: "Find <code>nums[i]</code> such that <strong>Output:</strong> holds",
			want:   "Find nums[i] such that Output: holds",
		},
		{
			name:   "empty",
			markup: "",
			want:   "",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := PlainDescription(tc.markup)
			if got != tc.want {
				t.Errorf("got %q, want %q", got, tc.want)
			}
		})
	}

	t.Run("plain text passes through", func(t *testing.T) {
		got := PlainDescription("no markup here")
		if !strings.Contains(got, "no markup here") {
			t.Errorf("got %q", got)
		}
	})
}

func boolPtr(b bool) *bool { return &b }
