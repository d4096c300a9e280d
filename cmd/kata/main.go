package main

import (
	"fmt"
	"os"
	"strings"
)

// Version is set at build time via ldflags
var Version = "dev"

const (
	daemonAddr = "http://127.0.0.1:7433"
	pidFile    = "katad.pid"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "init":
		err = cmdInit()
	case "start":
		err = cmdStart()
	case "stop":
		err = cmdStop()
	case "status":
		err = cmdStatus()
	case "logs":
		err = cmdLogs()
	case "doctor":
		err = cmdDoctor()
	case "config":
		err = cmdConfig()
	case "provider":
		err = cmdProvider(os.Args[2:])
	case "problems":
		err = cmdProblems(os.Args[2:])
	case "solution":
		err = cmdSolution(os.Args[2:])
	case "stats":
		err = cmdStats()
	case "mcp":
		err = cmdMCP()
	case "help", "-h", "--help":
		printUsage()
	case "version", "-v", "--version":
		fmt.Printf("kata %s\n", Version)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`Kata - Local Coding Interview Practice

Usage:
  kata <command> [arguments]

Setup Commands:
  init            Initialize Kata (first-time setup)
  doctor          Check system requirements
  config          Show current configuration
  provider        Manage LLM providers

Daemon Commands:
  start           Start the Kata daemon
  stop            Stop the Kata daemon
  status          Show daemon status
  logs            View daemon logs

Problem Commands:
  problems list   List problems in the catalog
  problems info   Show one problem's details
  solution init   Create a local solution file from starter code

Progress Commands:
  stats           Show attempt history and streak

Integration Commands:
  mcp             Start MCP server (for editor integration)

Other:
  help            Show this help message
  version         Show version information

Examples:
  kata start                       # Start daemon
  kata doctor                      # Check Docker, LLM providers
  kata provider set-key openrouter # Configure OpenRouter API key
  kata problems list --difficulty easy
  kata solution init 1             # Scaffold solutions/problem_1.py
  kata mcp                         # Start MCP server for your editor`)
}

// renderProgressBar creates a visual progress bar
func renderProgressBar(value float64, width int) string {
	filled := int(value * float64(width))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	empty := width - filled

	return "[" + strings.Repeat("█", filled) + strings.Repeat("░", empty) + "]"
}
