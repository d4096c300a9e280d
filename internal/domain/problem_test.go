package domain

import (
	"errors"
	"testing"
)

func TestParseDifficulty(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Difficulty
		wantErr bool
	}{
		{name: "easy lowercase", input: "easy", want: DifficultyEasy},
		{name: "medium titlecase", input: "Medium", want: DifficultyMedium},
		{name: "hard with whitespace", input: "  hard ", want: DifficultyHard},
		{name: "unknown", input: "brutal", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseDifficulty(tc.input)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %q", got)
				}
				if !errors.Is(err, ErrInvalidInput) {
					t.Errorf("error = %v, want ErrInvalidInput", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Errorf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestProblemValidate(t *testing.T) {
	valid := Problem{ID: "two-sum", Title: "Two Sum", Difficulty: DifficultyEasy}

	tests := []struct {
		name    string
		mutate  func(*Problem)
		wantErr bool
	}{
		{name: "valid", mutate: func(p *Problem) {}},
		{name: "missing id", mutate: func(p *Problem) { p.ID = " " }, wantErr: true},
		{name: "missing title", mutate: func(p *Problem) { p.Title = "" }, wantErr: true},
		{name: "bad difficulty", mutate: func(p *Problem) { p.Difficulty = "impossible" }, wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := valid
			tc.mutate(&p)
			err := p.Validate()
			if tc.wantErr && err == nil {
				t.Error("expected validation error, got nil")
			}
			if !tc.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestProblemStarterCode(t *testing.T) {
	p := Problem{
		ID:    "two-sum",
		Title: "Two Sum",
		Snippets: []CodeSnippet{
			{Lang: "python", Code: "class Solution(object):"},
			{Lang: "python3", Code: "class Solution:"},
			{Lang: "golang", Code: "func twoSum"},
		},
	}

	if got := p.StarterCode("python3"); got != "class Solution:" {
		t.Errorf("python3 starter = %q, want exact match", got)
	}
	if got := p.StarterCode("python2"); got != "class Solution(object):" {
		t.Errorf("python2 starter = %q, want python family fallback", got)
	}
	if got := p.StarterCode("ruby"); got != "" {
		t.Errorf("ruby starter = %q, want empty", got)
	}
}

func TestProblemHasTag(t *testing.T) {
	p := Problem{TopicTags: []string{"Array", "Hash Table"}}
	if !p.HasTag("array") {
		t.Error("HasTag should match case-insensitively")
	}
	if p.HasTag("graph") {
		t.Error("HasTag matched a tag the problem does not carry")
	}
}
