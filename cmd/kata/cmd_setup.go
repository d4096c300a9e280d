package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/felixgeelhaar/kata/internal/config"
)

// cmdInit initializes Kata for first-time use
func cmdInit() error {
	fmt.Println("Kata - First-Time Setup")
	fmt.Println("=======================")
	fmt.Println()

	reader := bufio.NewReader(os.Stdin)

	// 1. Create directory structure
	fmt.Print("Creating ~/.kata directory structure... ")
	kataDir, err := config.EnsureKataDir()
	if err != nil {
		return fmt.Errorf("create directories: %w", err)
	}
	fmt.Println("✓")

	// 2. Create default config if it doesn't exist
	configPath := filepath.Join(kataDir, "config.yaml")
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		fmt.Print("Creating default configuration... ")
		if err := config.Save(config.Default(kataDir)); err != nil {
			return fmt.Errorf("save config: %w", err)
		}
		fmt.Println("✓")
	} else {
		fmt.Println("Configuration already exists ✓")
	}

	// 3. Check for the problem catalog
	fmt.Print("Checking problem catalog... ")
	catalogPath := filepath.Join(kataDir, "data", "problems.json")
	if _, err := os.Stat(catalogPath); os.IsNotExist(err) {
		fmt.Println("⚠ not found")
		fmt.Printf("  Place a problems.json dataset at %s\n", catalogPath)
	} else {
		fmt.Println("✓")
	}

	// 4. Configure LLM provider
	fmt.Println()
	fmt.Println("LLM Provider Setup")
	fmt.Println("------------------")
	fmt.Println("Kata supports: OpenRouter (cloud) and Ollama (local)")
	fmt.Println()

	// Load current config to check existing keys
	cfg, _ := config.Load()

	if cfg != nil && cfg.LLM.Providers["openrouter"] != nil && cfg.LLM.Providers["openrouter"].APIKey != "" {
		fmt.Println("OpenRouter API key: already configured ✓")
	} else {
		fmt.Print("Enter OpenRouter API key (or press Enter to skip): ")
		key, _ := reader.ReadString('\n')
		key = strings.TrimSpace(key)
		if key != "" {
			secrets := map[string]string{"openrouter": key}
			if err := config.SaveSecrets(secrets); err != nil {
				fmt.Printf("  ⚠ Failed to save: %v\n", err)
			} else {
				fmt.Println("  ✓ Saved")
			}
		}
	}

	// 5. Check Docker
	fmt.Println()
	fmt.Print("Checking Docker... ")
	if err := checkDocker(); err != nil {
		fmt.Println("⚠ Not available (local execution will be used)")
	} else {
		fmt.Println("✓")
	}

	// 6. Summary
	fmt.Println()
	fmt.Println("Setup Complete!")
	fmt.Println("===============")
	fmt.Println()
	fmt.Println("Next steps:")
	fmt.Println("  1. kata start          # Start the daemon")
	fmt.Println("  2. kata doctor         # Verify configuration")
	fmt.Println("  3. kata problems list  # Browse the catalog")
	fmt.Println()
	fmt.Println("For editor integration:")
	fmt.Println("  - Configure MCP with the 'kata mcp' command")

	return nil
}

// cmdDoctor checks system requirements
func cmdDoctor() error {
	fmt.Println("Checking system requirements...")

	allGood := true

	// Check Python
	fmt.Print("Python:    ")
	if err := checkPython(); err != nil {
		fmt.Printf("✗ %v\n", err)
		allGood = false
	} else {
		fmt.Println("✓ available")
	}

	// Check Docker
	fmt.Print("Docker:    ")
	if err := checkDocker(); err != nil {
		fmt.Printf("✗ %v\n", err)
		allGood = false
	} else {
		fmt.Println("✓ available")
	}

	// Check kata directory
	fmt.Print("Directory: ")
	kataDir, err := config.KataDir()
	if err != nil {
		fmt.Printf("✗ %v\n", err)
		allGood = false
	} else if _, err := os.Stat(kataDir); os.IsNotExist(err) {
		fmt.Println("✗ not created (run 'kata init' to create)")
		allGood = false
	} else {
		fmt.Printf("✓ %s\n", kataDir)
	}

	// Check catalog data
	fmt.Print("Catalog:   ")
	if kataDir != "" {
		catalogPath := filepath.Join(kataDir, "data", "problems.json")
		if _, err := os.Stat(catalogPath); os.IsNotExist(err) {
			fmt.Println("✗ problems.json missing")
			allGood = false
		} else {
			fmt.Println("✓ found")
		}
	} else {
		fmt.Println("✗ skipped")
	}

	// Check config
	fmt.Print("Config:    ")
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("✗ %v\n", err)
		allGood = false
	} else {
		fmt.Println("✓ loaded")

		// Check LLM providers
		fmt.Println("\nLLM Providers:")
		for name, provider := range cfg.LLM.Providers {
			if !provider.Enabled {
				continue
			}

			fmt.Printf("  %s: ", name)
			if name == "ollama" {
				// Check Ollama connectivity
				if err := checkOllama(provider.URL); err != nil {
					fmt.Printf("✗ %v\n", err)
				} else {
					fmt.Printf("✓ available (model: %s)\n", provider.Model)
				}
			} else if provider.APIKey != "" {
				fmt.Printf("✓ configured (model: %s)\n", provider.Model)
			} else {
				fmt.Printf("✗ no API key (run 'kata provider set-key %s')\n", name)
			}
		}
	}

	// Check daemon status
	fmt.Print("\nDaemon:    ")
	if isRunning() {
		fmt.Println("✓ running")
	} else {
		fmt.Println("✗ not running (run 'kata start')")
	}

	fmt.Println()
	if allGood {
		fmt.Println("All checks passed! ✓")
	} else {
		fmt.Println("Some checks failed. Please fix the issues above.")
	}

	return nil
}

// cmdConfig shows current configuration
func cmdConfig() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	fmt.Println("Kata Configuration")

	fmt.Println("Daemon:")
	fmt.Printf("  bind: %s:%d\n", cfg.Daemon.Bind, cfg.Daemon.Port)
	fmt.Printf("  log_level: %s\n", cfg.Daemon.LogLevel)

	fmt.Println("\nLLM:")
	fmt.Printf("  default_provider: %s\n", cfg.LLM.DefaultProvider)
	for name, provider := range cfg.LLM.Providers {
		if provider.Enabled {
			hasKey := provider.APIKey != "" || name == "ollama"
			keyStatus := "✗"
			if hasKey {
				keyStatus = "✓"
			}
			fmt.Printf("  %s: enabled=%t model=%s key=%s\n", name, provider.Enabled, provider.Model, keyStatus)
		}
	}

	fmt.Println("\nRunner:")
	fmt.Printf("  backend: %s\n", cfg.Runner.Backend)
	fmt.Printf("  python: %s\n", cfg.Runner.Python)
	fmt.Printf("  timeout: %ds\n", cfg.Runner.TimeoutSeconds)
	if cfg.Runner.Backend == "docker" {
		fmt.Printf("  image: %s\n", cfg.Runner.Docker.Image)
		fmt.Printf("  memory: %dMB\n", cfg.Runner.Docker.MemoryMB)
	}

	fmt.Println("\nHistory:")
	fmt.Printf("  backend: %s\n", cfg.History.Backend)
	if cfg.History.Backend == "sqlite" {
		fmt.Printf("  path: %s\n", cfg.History.Path)
	}

	fmt.Println("\nEvents:")
	fmt.Printf("  enabled: %t\n", cfg.Events.Enabled)
	if cfg.Events.Enabled {
		fmt.Printf("  workers: %d\n", cfg.Events.Workers)
	}

	kataDir, _ := config.KataDir()
	fmt.Printf("\nConfig path: %s/config.yaml\n", kataDir)

	return nil
}

// cmdProvider manages LLM provider API keys
func cmdProvider(args []string) error {
	if len(args) < 1 {
		fmt.Println(`Provider management commands:

  kata provider list              List configured providers
  kata provider set-key <name>    Set API key for a provider`)
		return nil
	}

	switch args[0] {
	case "list":
		return cmdProviderList()
	case "set-key":
		if len(args) < 2 {
			return fmt.Errorf("provider name required")
		}
		return cmdProviderSetKey(args[1])
	default:
		return fmt.Errorf("unknown provider command: %s", args[0])
	}
}

func cmdProviderList() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	fmt.Println("Configured LLM Providers:")
	for name, provider := range cfg.LLM.Providers {
		status := "disabled"
		if provider.Enabled {
			if provider.APIKey != "" || name == "ollama" {
				status = "ready"
			} else {
				status = "needs API key"
			}
		}

		isDefault := ""
		if name == cfg.LLM.DefaultProvider {
			isDefault = " (default)"
		}

		fmt.Printf("  %s%s\n", name, isDefault)
		fmt.Printf("    status: %s\n", status)
		fmt.Printf("    model:  %s\n", provider.Model)
		if name == "ollama" && provider.URL != "" {
			fmt.Printf("    url:    %s\n", provider.URL)
		}
		fmt.Println()
	}

	return nil
}

func cmdProviderSetKey(provider string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Check if provider exists
	if _, ok := cfg.LLM.Providers[provider]; !ok {
		return fmt.Errorf("unknown provider: %s (valid: openrouter, ollama)", provider)
	}

	if provider == "ollama" {
		fmt.Println("Ollama doesn't require an API key.")
		return nil
	}

	// Prompt for API key
	fmt.Printf("Enter %s API key: ", provider)
	reader := bufio.NewReader(os.Stdin)
	key, err := reader.ReadString('\n')
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	key = strings.TrimSpace(key)

	if key == "" {
		return fmt.Errorf("API key cannot be empty")
	}

	secrets := map[string]string{provider: key}

	if err := config.SaveSecrets(secrets); err != nil {
		return fmt.Errorf("save secrets: %w", err)
	}

	fmt.Printf("✓ API key saved for %s\n", provider)
	fmt.Println("Restart the daemon for changes to take effect.")
	return nil
}
