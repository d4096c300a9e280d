package extract

import (
	"regexp"
	"strings"
)

// Descriptions carry expected outputs in one of two shapes: bold-wrapped
// markup ("<strong>Output:</strong> [0,1]") or plain text ("Output: [0,1]").
// The alternation tries the markup form first so the plain form does not
// half-match inside a tag.
var outputPattern = regexp.MustCompile(`(?:<strong>\s*Output:\s*</strong>|Output:)\s*([^<\r\n]+)`)

// ExpectedOutputs scrapes literal expected-output strings from a problem
// description, keeping the first occurrence of each distinct value in order
// of appearance. There is no structural link to which test case each value
// belongs to; the grader pairs them positionally.
func ExpectedOutputs(description string) []string {
	var outputs []string
	seen := make(map[string]struct{})

	for _, m := range outputPattern.FindAllStringSubmatch(description, -1) {
		val := strings.TrimSpace(m[1])
		if val == "" {
			continue
		}
		if _, dup := seen[val]; dup {
			continue
		}
		seen[val] = struct{}{}
		outputs = append(outputs, val)
	}
	return outputs
}
