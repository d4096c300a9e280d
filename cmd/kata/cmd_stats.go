package main

import (
	"encoding/json"
	"fmt"
	"net/http"
)

const roadmapTotalDays = 60

// cmdStats shows practice statistics
func cmdStats() error {
	if !isRunning() {
		return fmt.Errorf("daemon not running (run 'kata start' first)")
	}

	resp, err := http.Get(daemonAddr + "/v1/stats")
	if err != nil {
		return fmt.Errorf("get stats: %w", err)
	}
	defer resp.Body.Close()

	var result struct {
		Stats struct {
			TotalAttempts  int            `json:"total_attempts"`
			SolvedProblems int            `json:"solved_problems"`
			ByDifficulty   map[string]int `json:"by_difficulty"`
			CurrentStreak  int            `json:"current_streak_days"`
		} `json:"stats"`
		Solved     int `json:"solved"`
		RoadmapDay int `json:"roadmap_day"`
		Phase      int `json:"phase"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}

	fmt.Println("Practice Statistics")
	fmt.Println("===================")
	fmt.Printf("Total Attempts:  %d\n", result.Stats.TotalAttempts)
	fmt.Printf("Solved:          %d\n", result.Solved)
	fmt.Printf("Current Streak:  %d days\n", result.Stats.CurrentStreak)

	if len(result.Stats.ByDifficulty) > 0 {
		fmt.Println("\nSolved by Difficulty")
		fmt.Println("--------------------")
		for _, d := range []string{"easy", "medium", "hard"} {
			if n, ok := result.Stats.ByDifficulty[d]; ok {
				fmt.Printf("  %-8s %d\n", d, n)
			}
		}
	}

	fmt.Println("\nRoadmap")
	fmt.Println("-------")
	progress := float64(result.RoadmapDay) / float64(roadmapTotalDays)
	bar := renderProgressBar(progress, 20)
	fmt.Printf("Day %d of %d %s (phase %d)\n",
		result.RoadmapDay, roadmapTotalDays, bar, result.Phase)

	return nil
}
