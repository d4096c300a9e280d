package domain

// TestCase is an ordered sequence of argument strings derived from a
// problem's free-text example block. Arguments are never validated against
// the entry point's actual parameter count or types.
type TestCase struct {
	Args []string `json:"args"`
}

// NoExpected is reported for a case with no positionally paired expected
// output.
const NoExpected = "N/A"

// CaseResult classifies the outcome of one test case.
type CaseResult struct {
	Index    int    `json:"index"`
	Passed   bool   `json:"passed"`
	Input    string `json:"input"`
	Expected string `json:"expected"`
	Actual   string `json:"actual,omitempty"`
	Error    string `json:"error,omitempty"`
}

// GradingReport is the outcome of grading one submission against all of a
// problem's test cases, in original case order.
type GradingReport struct {
	Passed  int          `json:"passed"`
	Total   int          `json:"total"`
	Results []CaseResult `json:"results"`
}

// AllPassed reports whether every case passed. A report with no cases did
// not pass anything.
func (r *GradingReport) AllPassed() bool {
	return r.Total > 0 && r.Passed == r.Total
}
