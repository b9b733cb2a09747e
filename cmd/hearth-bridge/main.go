// ABOUTME: Entry point for the hearth-bridge tool server
// ABOUTME: Commands: serve, init, health, tools

package main

import (
	"bufio"
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"

	"github.com/2389/hearth-bridge/internal/builtins"
	"github.com/2389/hearth-bridge/internal/config"
	"github.com/2389/hearth-bridge/internal/logging"
	"github.com/2389/hearth-bridge/internal/server"
	"github.com/2389/hearth-bridge/internal/store"
	"github.com/2389/hearth-bridge/internal/tools"
)

// version is set by goreleaser at build time.
var version = "dev"

const banner = `
 _                     _   _           _          _     _
| |__   ___  __ _ _ __| |_| |__       | |__  _ __(_) __| | __ _  ___
| '_ \ / _ \/ _' | '__| __| '_ \ _____| '_ \| '__| |/ _' |/ _' |/ _ \
| | | |  __/ (_| | |  | |_| | | |_____| |_) | |  | | (_| | (_| |  __/
|_| |_|\___|\__,_|_|   \__|_| |_|     |_.__/|_|  |_|\__,_|\__, |\___|
                                                          |___/
`

// getConfigPath returns the path to the bridge config file.
// Priority: HEARTH_CONFIG env var > XDG_CONFIG_HOME/hearth/bridge.yaml > ~/.config/hearth/bridge.yaml
func getConfigPath() string {
	if envPath := os.Getenv("HEARTH_CONFIG"); envPath != "" {
		return envPath
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "bridge.yaml" // fallback
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	return filepath.Join(configDir, "hearth", "bridge.yaml")
}

// getDataPath returns the path to the bridge data directory.
func getDataPath() string {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "data" // fallback
		}
		dataDir = filepath.Join(homeDir, ".local", "share")
	}

	return filepath.Join(dataDir, "hearth")
}

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: hearth-bridge <command>")
		fmt.Println()
		fmt.Println("Commands:")
		fmt.Println("  serve                   Start the bridge server")
		fmt.Println("  init                    Create a new config file interactively")
		fmt.Println("  health                  Check bridge health")
		fmt.Println("  tools                   List registered tools")
		fmt.Println("  tools enable <name>     Enable a tool")
		fmt.Println("  tools disable <name>    Disable a tool")
		fmt.Println("  tools profile <cmd>     Save, apply, list, or delete tool profiles")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var err error
	switch os.Args[1] {
	case "serve":
		err = runServe(ctx)
	case "init":
		err = runInit()
	case "health":
		err = runHealth(ctx)
	case "tools":
		err = runTools(ctx, os.Args[2:])
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runServe(ctx context.Context) error {
	configPath := getConfigPath()

	cyan := color.New(color.FgCyan)
	cyan.Print(banner)

	gray := color.New(color.FgHiBlack)
	gray.Printf("    version: %s\n\n", version)

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger, closer, err := logging.Setup(cfg.Logging)
	if err != nil {
		return fmt.Errorf("setting up logging: %w", err)
	}
	if closer != nil {
		defer closer.Close()
	}

	green := color.New(color.FgGreen)
	green.Print("    ▶ ")
	fmt.Printf("Config:   %s\n", configPath)
	green.Print("    ▶ ")
	fmt.Printf("HTTP:     %s\n", cfg.Server.HTTPAddr)
	green.Print("    ▶ ")
	fmt.Printf("Database: %s\n", cfg.Database.Path)
	if cfg.Metrics.Enabled {
		green.Print("    ▶ ")
		fmt.Printf("Metrics:  %s\n", cfg.Metrics.Path)
	}
	fmt.Println()

	logger.Info("starting hearth-bridge",
		"config", configPath,
		"http_addr", cfg.Server.HTTPAddr,
	)

	srv, err := server.New(cfg, version, logger)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func runInit() error {
	reader := bufio.NewReader(os.Stdin)

	fmt.Println("hearth-bridge configuration setup")
	fmt.Println("=================================")
	fmt.Println()

	defaultConfigPath := getConfigPath()
	defaultDbPath := filepath.Join(getDataPath(), "bridge.db")

	outputFile := prompt(reader, "Config file path", defaultConfigPath)

	if _, err := os.Stat(outputFile); err == nil {
		overwrite := prompt(reader, "File exists. Overwrite?", "no")
		if strings.ToLower(overwrite) != "yes" && strings.ToLower(overwrite) != "y" {
			fmt.Println("Aborted.")
			return nil
		}
	}

	fmt.Println("\n--- Server Configuration ---")
	httpAddr := prompt(reader, "HTTP address", "localhost:8080")
	baseURL := prompt(reader, "External base URL", "http://"+httpAddr)

	fmt.Println("\n--- Database Configuration ---")
	dbPath := prompt(reader, "SQLite database path", defaultDbPath)

	fmt.Println("\n--- Auth Configuration ---")
	token := prompt(reader, "Bearer token (leave empty to generate)", "")
	if token == "" {
		generated, err := generateToken()
		if err != nil {
			return fmt.Errorf("generating token: %w", err)
		}
		token = generated
		fmt.Printf("Generated token: %s\n", token)
	}
	identity := prompt(reader, "Acting identity", config.DefaultIdentity)

	fmt.Println("\n--- Logging Configuration ---")
	logLevel := prompt(reader, "Log level (debug/info/warn/error)", "info")
	logFormat := prompt(reader, "Log format (text/json)", "text")

	var cfg strings.Builder
	cfg.WriteString("# hearth-bridge configuration\n")
	cfg.WriteString("# Generated by hearth-bridge init\n\n")

	cfg.WriteString("server:\n")
	cfg.WriteString(fmt.Sprintf("  http_addr: %q\n", httpAddr))
	cfg.WriteString(fmt.Sprintf("  base_url: %q\n", baseURL))
	cfg.WriteString("\n")

	cfg.WriteString("database:\n")
	cfg.WriteString(fmt.Sprintf("  path: %q\n", dbPath))
	cfg.WriteString("\n")

	cfg.WriteString("auth:\n")
	cfg.WriteString(fmt.Sprintf("  token: %q\n", token))
	cfg.WriteString(fmt.Sprintf("  identity: %q\n", identity))
	cfg.WriteString("\n")

	cfg.WriteString("logging:\n")
	cfg.WriteString(fmt.Sprintf("  level: %q\n", logLevel))
	cfg.WriteString(fmt.Sprintf("  format: %q\n", logFormat))
	cfg.WriteString("\n")

	cfg.WriteString("metrics:\n")
	cfg.WriteString("  enabled: true\n")
	cfg.WriteString("  path: \"/metrics\"\n")

	if err := os.MkdirAll(filepath.Dir(outputFile), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(outputFile, []byte(cfg.String()), 0o600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	fmt.Printf("\nWrote %s\n", outputFile)
	return nil
}

func runHealth(ctx context.Context) error {
	cfg, err := config.Load(getConfigPath())
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	url := fmt.Sprintf("http://%s/healthz", cfg.Server.HTTPAddr)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unhealthy: status %d", resp.StatusCode)
	}

	fmt.Println("healthy")
	return nil
}

// runTools operates directly on the database, so the server need not be
// running.
func runTools(ctx context.Context, args []string) error {
	cfg, err := config.Load(getConfigPath())
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	st, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer st.Close()

	registry := tools.NewRegistry(st, nil)
	builtins.RegisterBase(registry)
	builtins.RegisterNotes(registry, st)

	if len(args) >= 1 && args[0] == "profile" {
		return runToolsProfile(ctx, st, registry, args[1:])
	}

	if len(args) >= 2 {
		name := args[1]
		switch args[0] {
		case "enable":
			if err := registry.SetEnabled(ctx, name, true); err != nil {
				return err
			}
			fmt.Printf("enabled %s\n", name)
			return nil
		case "disable":
			if err := registry.SetEnabled(ctx, name, false); err != nil {
				return err
			}
			fmt.Printf("disabled %s\n", name)
			return nil
		default:
			return fmt.Errorf("unknown tools subcommand: %s", args[0])
		}
	}

	green := color.New(color.FgGreen)
	red := color.New(color.FgRed)
	gray := color.New(color.FgHiBlack)

	for _, info := range registry.ListAll() {
		enabled, err := registry.Enabled(ctx, info.Name)
		if err != nil {
			return err
		}
		if enabled {
			green.Print("  ● ")
		} else {
			red.Print("  ○ ")
		}
		fmt.Printf("%-16s", info.Name)
		gray.Printf(" [%s] %s\n", info.Intent, info.Description)
	}
	return nil
}

// runToolsProfile manages named tool profiles: saved subsets of enabled
// tools applied wholesale to the settings.
func runToolsProfile(ctx context.Context, st *store.SQLiteStore, registry *tools.Registry, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: tools profile <save|apply|list|delete> ...")
	}

	switch args[0] {
	case "save":
		if len(args) < 3 {
			return fmt.Errorf("usage: tools profile save <name> <tool>...")
		}
		for _, tool := range args[2:] {
			if registry.Get(tool) == nil {
				return fmt.Errorf("unknown tool %q", tool)
			}
		}
		if err := st.SaveProfile(ctx, &store.Profile{Name: args[1], Tools: args[2:]}); err != nil {
			return err
		}
		fmt.Printf("saved profile %s (%d tools)\n", args[1], len(args[2:]))
		return nil

	case "apply":
		if len(args) < 2 {
			return fmt.Errorf("usage: tools profile apply <name>")
		}
		profile, err := st.GetProfile(ctx, args[1])
		if err != nil {
			return fmt.Errorf("loading profile %q: %w", args[1], err)
		}
		wanted := make(map[string]bool, len(profile.Tools))
		for _, tool := range profile.Tools {
			wanted[tool] = true
		}
		for _, info := range registry.ListAll() {
			if err := registry.SetEnabled(ctx, info.Name, wanted[info.Name]); err != nil {
				return err
			}
		}
		fmt.Printf("applied profile %s\n", profile.Name)
		return nil

	case "list":
		profiles, err := st.ListProfiles(ctx)
		if err != nil {
			return err
		}
		for _, profile := range profiles {
			fmt.Printf("  %-16s %s\n", profile.Name, strings.Join(profile.Tools, ", "))
		}
		return nil

	case "delete":
		if len(args) < 2 {
			return fmt.Errorf("usage: tools profile delete <name>")
		}
		if err := st.DeleteProfile(ctx, args[1]); err != nil {
			return err
		}
		fmt.Printf("deleted profile %s\n", args[1])
		return nil

	default:
		return fmt.Errorf("unknown profile subcommand: %s", args[0])
	}
}

func prompt(reader *bufio.Reader, question, defaultVal string) string {
	if defaultVal != "" {
		fmt.Printf("%s [%s]: ", question, defaultVal)
	} else {
		fmt.Printf("%s: ", question)
	}

	answer, err := reader.ReadString('\n')
	if err != nil {
		return defaultVal
	}
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return defaultVal
	}
	return answer
}

func generateToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(buf), nil
}
