package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// cmdProblems browses the problem catalog
func cmdProblems(args []string) error {
	if len(args) < 1 {
		fmt.Println(`Problem commands:

  kata problems list [--difficulty d] [--tag t] [--search q]
  kata problems info <id>            Show problem details`)
		return nil
	}

	switch args[0] {
	case "list":
		return cmdProblemsList(args[1:])
	case "info":
		if len(args) < 2 {
			return fmt.Errorf("problem ID required (e.g., 1)")
		}
		return cmdProblemsInfo(args[1])
	default:
		return fmt.Errorf("unknown problems command: %s", args[0])
	}
}

func cmdProblemsList(args []string) error {
	if !isRunning() {
		return fmt.Errorf("daemon not running (run 'kata start' first)")
	}

	query := url.Values{}
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--difficulty", "--tag", "--search":
			if i+1 >= len(args) {
				return fmt.Errorf("%s requires a value", args[i])
			}
			query.Set(strings.TrimPrefix(args[i], "--"), args[i+1])
			i++
		case "--solved":
			query.Set("solved", "true")
		case "--unsolved":
			query.Set("solved", "false")
		default:
			return fmt.Errorf("unknown flag: %s", args[i])
		}
	}

	reqURL := daemonAddr + "/v1/problems"
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	resp, err := http.Get(reqURL)
	if err != nil {
		return fmt.Errorf("get problems: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("daemon returned status %d", resp.StatusCode)
	}

	var result struct {
		Problems []struct {
			ID         string   `json:"id"`
			Title      string   `json:"title"`
			Difficulty string   `json:"difficulty"`
			TopicTags  []string `json:"topic_tags"`
			Solved     bool     `json:"solved"`
		} `json:"problems"`
		Total int `json:"total"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}

	if result.Total == 0 {
		fmt.Println("No problems match the given filters.")
		return nil
	}

	fmt.Printf("Problems (%d):\n", result.Total)
	for _, p := range result.Problems {
		mark := " "
		if p.Solved {
			mark = "✓"
		}
		fmt.Printf("  [%s] %-4s %-40s %-6s %s\n",
			mark, p.ID, p.Title, p.Difficulty, strings.Join(p.TopicTags, ", "))
	}

	fmt.Println("\nUse 'kata problems info <id>' for details")
	return nil
}

func cmdProblemsInfo(id string) error {
	if !isRunning() {
		return fmt.Errorf("daemon not running (run 'kata start' first)")
	}

	resp, err := http.Get(daemonAddr + "/v1/problems/" + url.PathEscape(id))
	if err != nil {
		return fmt.Errorf("get problem: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("problem not found: %s", id)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("daemon returned status %d", resp.StatusCode)
	}

	var result struct {
		Problem struct {
			ID           string   `json:"id"`
			Title        string   `json:"title"`
			Difficulty   string   `json:"difficulty"`
			TopicTags    []string `json:"topic_tags"`
			ExampleCases string   `json:"example_test_cases"`
		} `json:"problem"`
		Description string `json:"description"`
		Solved      bool   `json:"solved"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}

	solved := ""
	if result.Solved {
		solved = " ✓ solved"
	}

	fmt.Printf("Problem: %s%s\n\n", result.Problem.Title, solved)
	fmt.Printf("ID:         %s\n", result.Problem.ID)
	fmt.Printf("Difficulty: %s\n", result.Problem.Difficulty)
	fmt.Printf("Tags:       %s\n", strings.Join(result.Problem.TopicTags, ", "))
	fmt.Printf("\nDescription:\n%s\n", result.Description)

	if result.Problem.ExampleCases != "" {
		fmt.Printf("\nExample cases:\n%s\n", result.Problem.ExampleCases)
	}

	return nil
}
