package runner

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/felixgeelhaar/kata/internal/domain"
)

func TestParseHarnessOutput(t *testing.T) {
	tests := []struct {
		name     string
		stdout   string
		stderr   string
		want     string
		wantErr  bool
		loadFail bool
	}{
		{
			name:   "result marker",
			stdout: "__KATA_RESULT__[0, 1]\n",
			want:   "[0, 1]",
		},
		{
			name:   "candidate prints before the marker",
			stdout: "debugging output\nmore noise\n__KATA_RESULT__42\n",
			want:   "42",
		},
		{
			name:    "error marker",
			stdout:  "__KATA_ERROR__IndexError: list index out of range\n",
			wantErr: true,
		},
		{
			name:     "load marker",
			stdout:   "__KATA_LOAD_FAILED__SyntaxError: invalid syntax\n",
			wantErr:  true,
			loadFail: true,
		},
		{
			name:     "no marker at all",
			stdout:   "",
			stderr:   "python3: command crashed\ntrace line",
			wantErr:  true,
			loadFail: true,
		},
		{
			name:   "last marker wins",
			stdout: "__KATA_RESULT__1\n__KATA_RESULT__2\n",
			want:   "2",
		},
		{
			name:   "empty result",
			stdout: "__KATA_RESULT__None\n",
			want:   "None",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := parseHarnessOutput(tc.stdout, tc.stderr)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %q", got)
				}
				if tc.loadFail != errors.Is(err, domain.ErrLoadFailure) {
					t.Errorf("ErrLoadFailure = %v, want %v (err: %v)",
						errors.Is(err, domain.ErrLoadFailure), tc.loadFail, err)
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

func TestHarnessFiles(t *testing.T) {
	files, err := harnessFiles("class Solution: pass", "twoSum", "", []string{"nums = [1,2]", "target = 3"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, name := range []string{harnessFile, solutionFile, payloadFile} {
		if _, ok := files[name]; !ok {
			t.Errorf("missing file %s", name)
		}
	}
	if files[solutionFile] != "class Solution: pass" {
		t.Errorf("solution content = %q", files[solutionFile])
	}

	var p payload
	if err := json.Unmarshal([]byte(files[payloadFile]), &p); err != nil {
		t.Fatalf("payload does not parse: %v", err)
	}
	if p.Construct != "Solution" {
		t.Errorf("construct = %q, want default Solution", p.Construct)
	}
	if p.EntryPoint != "twoSum" {
		t.Errorf("entry point = %q", p.EntryPoint)
	}
	if len(p.Args) != 2 {
		t.Errorf("args = %v, want 2 entries", p.Args)
	}
	if p.NoInputMarker == "" {
		t.Error("payload missing no-input marker")
	}
}
