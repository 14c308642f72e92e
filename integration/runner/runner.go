package runner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cwhitt/adventure-engine/internal/handlers"
)

// Runner executes test suites against a running API.
type Runner struct {
	BaseURL           string
	Timeout           time.Duration
	ErrorHandlingMode string // "continue" or "exit"
	Logger            func(format string, args ...interface{})

	client *http.Client
}

// NewRunner creates a runner targeting the given API base URL.
func NewRunner(baseURL string) *Runner {
	return &Runner{
		BaseURL:           strings.TrimRight(baseURL, "/"),
		Timeout:           30 * time.Second,
		ErrorHandlingMode: "continue",
		client:            &http.Client{},
	}
}

func (r *Runner) logf(format string, args ...interface{}) {
	if r.Logger != nil {
		r.Logger(format, args...)
	}
}

// LoadTestSuite reads a suite definition from a JSON case file.
func LoadTestSuite(path string) (TestSuite, error) {
	var suite TestSuite
	data, err := os.ReadFile(path)
	if err != nil {
		return suite, fmt.Errorf("failed to read case file %s: %w", path, err)
	}
	if err := json.Unmarshal(data, &suite); err != nil {
		return suite, fmt.Errorf("failed to parse case file %s: %w", path, err)
	}
	if suite.Name == "" {
		suite.Name = strings.TrimSuffix(filepath.Base(path), ".json")
	}
	if suite.World == "" {
		return suite, fmt.Errorf("case file %s has no world", path)
	}
	return suite, nil
}

// DiscoverCases lists the JSON case files in a directory, sorted by name.
func DiscoverCases(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, ent := range entries {
		if ent.IsDir() || !strings.HasSuffix(ent.Name(), ".json") {
			continue
		}
		files = append(files, filepath.Join(dir, ent.Name()))
	}
	sort.Strings(files)
	return files, nil
}

// RunSuite creates a session, runs every step against it, and deletes
// the session afterwards.
func (r *Runner) RunSuite(ctx context.Context, suite TestSuite) (*TestRunResult, error) {
	start := time.Now()
	result := &TestRunResult{Suite: suite}

	session, err := r.createSession(ctx, suite.World)
	if err != nil {
		result.Error = fmt.Errorf("failed to create session: %w", err)
		result.Duration = time.Since(start)
		return result, result.Error
	}
	result.Session = session
	defer r.deleteSession(context.Background(), session)

	for i, step := range suite.Steps {
		stepName := step.Name
		if stepName == "" {
			stepName = fmt.Sprintf("step %d", i+1)
		}

		if step.Input == ResetSessionInput {
			r.deleteSession(ctx, session)
			session, err = r.createSession(ctx, suite.World)
			if err != nil {
				result.Error = fmt.Errorf("%s: failed to reset session: %w", stepName, err)
				break
			}
			result.Session = session
			result.Results = append(result.Results, TestResult{
				SuiteName: suite.Name,
				StepName:  stepName,
				Success:   true,
				IsReset:   true,
			})
			continue
		}

		stepResult := r.runStep(ctx, suite.Name, stepName, session, step)
		result.Results = append(result.Results, stepResult)

		if !stepResult.Success {
			r.logf("  FAIL %s: %v", stepName, stepResult.Error)
			if r.ErrorHandlingMode == "exit" {
				result.Error = fmt.Errorf("%s: %w", stepName, stepResult.Error)
				break
			}
			if result.Error == nil {
				result.Error = fmt.Errorf("%s: %w", stepName, stepResult.Error)
			}
		} else {
			r.logf("  ok   %s (%v)", stepName, stepResult.Duration)
		}
	}

	result.Duration = time.Since(start)
	return result, nil
}

func (r *Runner) runStep(ctx context.Context, suiteName, stepName string, session uuid.UUID, step TestStep) TestResult {
	start := time.Now()
	result := TestResult{SuiteName: suiteName, StepName: stepName}

	resp, err := r.executeCommand(ctx, session, step.Input, step.Policy)
	result.Duration = time.Since(start)
	if err != nil {
		result.Error = err
		return result
	}

	result.ResponseText = strings.Join(resp.Messages, "\n")
	if err := checkExpectations(resp, step.Expectations); err != nil {
		result.Error = err
		return result
	}

	result.Success = true
	return result
}

func checkExpectations(resp *handlers.CommandResponse, exp Expectations) error {
	text := strings.Join(resp.Messages, "\n")

	if exp.Room != nil && resp.Player.Room != *exp.Room {
		return fmt.Errorf("room = %q, want %q", resp.Player.Room, *exp.Room)
	}
	if exp.Score != nil && resp.Player.Score != *exp.Score {
		return fmt.Errorf("score = %d, want %d", resp.Player.Score, *exp.Score)
	}
	if exp.Moves != nil && resp.Player.Moves != *exp.Moves {
		return fmt.Errorf("moves = %d, want %d", resp.Player.Moves, *exp.Moves)
	}
	if exp.Status != nil && resp.Status != *exp.Status {
		return fmt.Errorf("status = %q, want %q", resp.Status, *exp.Status)
	}
	if exp.Inventory != nil {
		if err := matchInventory(resp.Player.Inventory, exp.Inventory); err != nil {
			return err
		}
	}
	for _, want := range exp.ResponseContains {
		if !strings.Contains(text, want) {
			return fmt.Errorf("response does not contain %q:\n%s", want, text)
		}
	}
	for _, unwanted := range exp.ResponseNotContains {
		if strings.Contains(text, unwanted) {
			return fmt.Errorf("response contains %q:\n%s", unwanted, text)
		}
	}
	if exp.CommandsExecuted != nil {
		if resp.Report == nil {
			return fmt.Errorf("no dispatch report in response")
		}
		if resp.Report.ExecutedCommands != *exp.CommandsExecuted {
			return fmt.Errorf("executed commands = %d, want %d", resp.Report.ExecutedCommands, *exp.CommandsExecuted)
		}
	}
	if exp.CommandsFailed != nil {
		if resp.Report == nil {
			return fmt.Errorf("no dispatch report in response")
		}
		if resp.Report.FailedCommands != *exp.CommandsFailed {
			return fmt.Errorf("failed commands = %d, want %d", resp.Report.FailedCommands, *exp.CommandsFailed)
		}
	}
	return nil
}

func matchInventory(got, want []string) error {
	if len(got) != len(want) {
		return fmt.Errorf("inventory = %v, want %v", got, want)
	}
	gotSorted := append([]string(nil), got...)
	wantSorted := append([]string(nil), want...)
	sort.Strings(gotSorted)
	sort.Strings(wantSorted)
	for i := range gotSorted {
		if gotSorted[i] != wantSorted[i] {
			return fmt.Errorf("inventory = %v, want %v", got, want)
		}
	}
	return nil
}

func (r *Runner) createSession(ctx context.Context, worldFile string) (uuid.UUID, error) {
	body, err := json.Marshal(handlers.CreateSessionRequest{World: worldFile})
	if err != nil {
		return uuid.Nil, err
	}

	var resp handlers.SessionResponse
	if err := r.doJSON(ctx, http.MethodPost, "/v1/sessions", body, http.StatusCreated, &resp); err != nil {
		return uuid.Nil, err
	}
	return resp.ID, nil
}

func (r *Runner) executeCommand(ctx context.Context, session uuid.UUID, input, policy string) (*handlers.CommandResponse, error) {
	body, err := json.Marshal(handlers.CommandRequest{Input: input, Policy: policy})
	if err != nil {
		return nil, err
	}

	var resp handlers.CommandResponse
	path := fmt.Sprintf("/v1/sessions/%s/command", session)
	if err := r.doJSON(ctx, http.MethodPost, path, body, http.StatusOK, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (r *Runner) deleteSession(ctx context.Context, session uuid.UUID) {
	path := fmt.Sprintf("/v1/sessions/%s", session)
	_ = r.doJSON(ctx, http.MethodDelete, path, nil, http.StatusNoContent, nil)
}

func (r *Runner) doJSON(ctx context.Context, method, path string, body []byte, wantStatus int, out interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, r.Timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, r.BaseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != wantStatus {
		raw, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%s %s: status %d, want %d: %s", method, path, resp.StatusCode, wantStatus, strings.TrimSpace(string(raw)))
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
