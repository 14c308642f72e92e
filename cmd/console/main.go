package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/cwhitt/adventure-engine/internal/config"
	"github.com/cwhitt/adventure-engine/internal/services"
)

// worldEntry is one selectable world catalogue on disk.
type worldEntry struct {
	Name string
	Path string
}

func main() {
	cfg := config.Load()

	// The TUI owns stdout; engine logs are discarded unless LOG_FILE is
	// set.
	logWriter := io.Writer(io.Discard)
	if path := os.Getenv("LOG_FILE"); path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err == nil {
			defer f.Close()
			logWriter = f
		}
	}
	logger := slog.New(slog.NewTextHandler(logWriter, &slog.HandlerOptions{Level: cfg.LogLevel}))

	worlds, err := listWorlds(filepath.Join(cfg.DataDir, "worlds"))
	if err != nil || len(worlds) == 0 {
		fmt.Fprintf(os.Stderr, "No worlds found under %s/worlds: %v\n", cfg.DataDir, err)
		os.Exit(1)
	}

	p := tea.NewProgram(NewConsoleUI(cfg, logger, worlds),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running program: %v\n", err)
		os.Exit(1)
	}
}

// listWorlds scans the worlds directory for catalogue files.
func listWorlds(dir string) ([]worldEntry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var worlds []worldEntry
	for _, ent := range entries {
		if ent.IsDir() || !strings.HasSuffix(ent.Name(), ".json") {
			continue
		}
		path := filepath.Join(dir, ent.Name())

		raw, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		var probe struct {
			Name string `json:"name"`
		}
		if err := json.Unmarshal(raw, &probe); err != nil {
			continue
		}

		name := probe.Name
		if name == "" {
			name = strings.TrimSuffix(ent.Name(), ".json")
		}
		worlds = append(worlds, worldEntry{Name: name, Path: path})
	}

	sort.Slice(worlds, func(i, j int) bool { return worlds[i].Name < worlds[j].Name })
	return worlds, nil
}

// loadWorld reads and parses a world document from disk.
func loadWorld(path string) (*services.WorldDocument, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read world file: %w", err)
	}
	doc, err := services.LoadDocument(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to parse world file: %w", err)
	}
	return doc, nil
}
