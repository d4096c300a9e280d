package extract

import (
	"strings"

	"github.com/felixgeelhaar/kata/internal/domain"
)

// NoInputMarker is the sole argument of the sentinel case emitted when an
// example block yields no parseable input at all.
const NoInputMarker = "<no input>"

const (
	inputMarker  = "Input:"
	outputMarker = "Output:"
)

// argsPerCase is the grouping heuristic: example blocks for the common
// two-argument problem shape list one argument per line, so a case closes
// every time it accumulates two lines. A problem with three or more logical
// arguments gets mis-split into a two-line case plus a trailer. That is a
// known limitation of the source data, kept verbatim rather than guessed at.
const argsPerCase = 2

// TestCases turns a free-text example block into a best-effort sequence of
// argument lists. Malformed input degrades to best-effort grouping; this
// never fails.
func TestCases(block string) []domain.TestCase {
	var cases []domain.TestCase
	var current []string

	for _, raw := range strings.Split(block, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		// The expected value after "Output:" belongs to the description
		// scraper, not to case input.
		if i := strings.Index(line, outputMarker); i >= 0 {
			line = strings.TrimSpace(line[:i])
		}
		line = strings.TrimSpace(strings.TrimPrefix(line, inputMarker))
		if line == "" {
			continue
		}

		current = append(current, line)
		if len(current) == argsPerCase {
			cases = append(cases, domain.TestCase{Args: current})
			current = nil
		}
	}

	// A trailing partial case is still a case.
	if len(current) > 0 {
		cases = append(cases, domain.TestCase{Args: current})
	}

	if len(cases) == 0 {
		cases = append(cases, domain.TestCase{Args: []string{NoInputMarker}})
	}
	return cases
}
