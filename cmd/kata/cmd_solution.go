package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/felixgeelhaar/kata/internal/config"
)

// cmdSolution manages local solution files
func cmdSolution(args []string) error {
	if len(args) < 1 {
		fmt.Println(`Solution commands:

  kata solution init <id> [--output path] [--force]
      Create a local solution file from the problem's starter code`)
		return nil
	}

	switch args[0] {
	case "init":
		if len(args) < 2 {
			return fmt.Errorf("problem ID required (e.g., 1)")
		}
		return cmdSolutionInit(args[1], args[2:])
	default:
		return fmt.Errorf("unknown solution command: %s", args[0])
	}
}

func cmdSolutionInit(id string, args []string) error {
	var output string
	var force bool
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--output":
			if i+1 >= len(args) {
				return fmt.Errorf("--output requires a value")
			}
			output = args[i+1]
			i++
		case "--force":
			force = true
		default:
			return fmt.Errorf("unknown flag: %s", args[i])
		}
	}

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
			ID       string `json:"id"`
			Title    string `json:"title"`
			Snippets []struct {
				Lang string `json:"lang"`
				Code string `json:"code"`
			} `json:"code_snippets"`
		} `json:"problem"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}

	starter := ""
	for _, s := range result.Problem.Snippets {
		if s.Lang == "python3" || (starter == "" && s.Lang == "python") {
			starter = s.Code
			if s.Lang == "python3" {
				break
			}
		}
	}
	if starter == "" {
		return fmt.Errorf("no Python starter code found for problem %s", id)
	}

	if output == "" {
		kataDir, err := config.KataDir()
		if err != nil {
			return err
		}
		output = filepath.Join(kataDir, "solutions", fmt.Sprintf("problem_%s.py", id))
	}

	if err := os.MkdirAll(filepath.Dir(output), 0o755); err != nil {
		return fmt.Errorf("create solution dir: %w", err)
	}

	if _, err := os.Stat(output); err == nil && !force {
		fmt.Printf("File already exists: %s\n", output)
		fmt.Println("Use --force to overwrite.")
		return nil
	}

	if err := os.WriteFile(output, []byte(normalizeStarter(starter)), 0o644); err != nil {
		return fmt.Errorf("write solution file: %w", err)
	}

	fmt.Printf("Created starter solution: %s\n", output)
	fmt.Printf("Problem: %s\n", result.Problem.Title)
	return nil
}

// normalizeStarter makes dataset starter snippets runnable: many end at a
// bare method signature line, and typed signatures need the List import.
func normalizeStarter(code string) string {
	candidate := strings.TrimRight(code, " \t\n") + "\n"
	if strings.Contains(candidate, "List[") && !strings.Contains(candidate, "from typing import List") {
		candidate = "from typing import List\n\n" + candidate
	}

	lines := strings.Split(strings.TrimRight(candidate, "\n"), "\n")
	last := ""
	for i := len(lines) - 1; i >= 0; i-- {
		if strings.TrimSpace(lines[i]) != "" {
			last = lines[i]
			break
		}
	}

	if strings.HasSuffix(strings.TrimSpace(last), ":") {
		leading := len(last) - len(strings.TrimLeft(last, " "))
		candidate += strings.Repeat(" ", leading+4) + "pass\n"
	}

	return candidate
}
