//go:build integration
// +build integration

package integration

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cwhitt/adventure-engine/integration/runner"
	"github.com/cwhitt/adventure-engine/internal/config"
	"github.com/cwhitt/adventure-engine/internal/handlers"
	"github.com/cwhitt/adventure-engine/internal/services"
	"github.com/cwhitt/adventure-engine/internal/storage"
)

func TestMain(m *testing.M) {
	fmt.Println("Running adventure engine integration tests")
	os.Exit(m.Run())
}

// baseURL returns the API under test. With API_BASE_URL set the suites
// run against that deployment; otherwise an in-process server backed by
// mock storage serves the same handler stack.
func baseURL(t *testing.T) string {
	if url := os.Getenv("API_BASE_URL"); url != "" {
		t.Logf("Testing against %s", url)
		return url
	}
	return startLocalServer(t)
}

func startLocalServer(t *testing.T) string {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	mock := storage.NewMockStorage()

	worldsDir := filepath.Join("..", "data", "worlds")
	entries, err := os.ReadDir(worldsDir)
	if err != nil {
		t.Fatalf("Failed to read worlds dir: %v", err)
	}
	for _, ent := range entries {
		if ent.IsDir() || filepath.Ext(ent.Name()) != ".json" {
			continue
		}
		data, err := os.ReadFile(filepath.Join(worldsDir, ent.Name()))
		if err != nil {
			t.Fatalf("Failed to read world file %s: %v", ent.Name(), err)
		}
		mock.AddWorld(ent.Name(), data)
	}

	cfg := &config.Config{
		Environment:           "test",
		TelemetryEnabled:      true,
		TelemetryCollectInput: true,
	}
	game, err := services.NewGameService(mock, cfg, logger)
	if err != nil {
		t.Fatalf("Failed to create game service: %v", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/health", handlers.NewHealthHandler(mock, logger))
	mux.Handle("/v1/sessions", handlers.NewSessionHandler(mock, game, logger))
	mux.Handle("/v1/sessions/", handlers.NewSessionHandler(mock, game, logger))
	mux.Handle("/v1/worlds", handlers.NewWorldsHandler(mock, logger))

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server.URL
}

func TestIntegrationSuites(t *testing.T) {
	url := baseURL(t)

	files, err := runner.DiscoverCases("cases")
	if err != nil {
		t.Fatalf("Failed to discover case files: %v", err)
	}
	if len(files) == 0 {
		t.Fatal("No case files found in cases directory")
	}

	testRunner := runner.NewRunner(url)
	testRunner.Timeout = 30 * time.Second
	testRunner.Logger = t.Logf

	for _, file := range files {
		suite, err := runner.LoadTestSuite(file)
		if err != nil {
			t.Errorf("Failed to load %s: %v", file, err)
			continue
		}

		t.Run(suite.Name, func(t *testing.T) {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
			defer cancel()

			result, err := testRunner.RunSuite(ctx, suite)
			if err != nil {
				t.Fatalf("Suite failed: %v", err)
			}
			if result.Error != nil {
				t.Fatalf("Suite had failing steps: %v", result.Error)
			}

			steps := 0
			for _, r := range result.Results {
				if !r.IsReset {
					steps++
				}
			}
			t.Logf("Suite %s: %d steps passed in %v (session %s)",
				suite.Name, steps, result.Duration, result.Session)
		})
	}
}
