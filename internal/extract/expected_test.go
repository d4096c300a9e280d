package extract

import (
	"reflect"
	"testing"
)

func TestExpectedOutputs(t *testing.T) {
	tests := []struct {
		name        string
		description string
		want        []string
	}{
		{
			name:        "plain text output",
			description: "Example 1:\nInput: nums = [2,7,11,15], target = 9\nOutput: [0,1]\n",
			want:        []string{"[0,1]"},
		},
		{
			name:        "bold wrapped output",
			description: "<p><strong>Output:</strong> [1,2]</p>",
			want:        []string{"[1,2]"},
		},
		{
			name: "mixed forms in order of appearance",
			description: "<strong>Output:</strong> [0,1]\nsome text\n" +
				"Output: true\n<strong>Output:</strong> 42",
			want: []string{"[0,1]", "true", "42"},
		},
		{
			name:        "exact duplicates dropped keeping first occurrence",
			description: "Output: [0,1]\nOutput: [1,2]\nOutput: [0,1]",
			want:        []string{"[0,1]", "[1,2]"},
		},
		{
			name:        "formatting variants are distinct values",
			description: "Output: [0,1]\nOutput: [0, 1]",
			want:        []string{"[0,1]", "[0, 1]"},
		},
		{
			name:        "no outputs",
			description: "Given an array of integers, return indices.",
			want:        nil,
		},
		{
			name:        "value stops at markup",
			description: "<strong>Output:</strong> [3,4]<br/>Explanation: because",
			want:        []string{"[3,4]"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := ExpectedOutputs(tc.description)
			if !reflect.DeepEqual(got, tc.want) {
				t.Errorf("got %v, want %v", got, tc.want)
			}
		})
	}
}
