package runner

import (
	"time"

	"github.com/google/uuid"
)

// Special input values that trigger non-command actions
const (
	ResetSessionInput = "RESET_SESSION"
)

// TestSuite defines a complete end-to-end scenario against the API.
type TestSuite struct {
	Name  string     `json:"name"`
	World string     `json:"world"`
	Steps []TestStep `json:"steps"`
}

// TestStep defines a single command line and its expected outcomes.
// Use input: "RESET_SESSION" to discard the session and start fresh.
type TestStep struct {
	Name         string       `json:"name,omitempty"`
	Input        string       `json:"input"`
	Policy       string       `json:"policy,omitempty"` // "fail-early" (default) or "best-effort"
	Expectations Expectations `json:"expect"`
}

// Expectations defines what to check after a step executes.
type Expectations struct {
	// Player state, aligned with handlers.PlayerState
	Room      *string  `json:"room,omitempty"`
	Score     *int     `json:"score,omitempty"`
	Moves     *int     `json:"moves,omitempty"`
	Status    *string  `json:"status,omitempty"`    // "playing", "won" or "lost"
	Inventory []string `json:"inventory,omitempty"` // full inventory, order independent

	// Response analysis
	ResponseContains    []string `json:"response_contains,omitempty"`
	ResponseNotContains []string `json:"response_not_contains,omitempty"`

	// Dispatch report
	CommandsExecuted *int `json:"commands_executed,omitempty"`
	CommandsFailed   *int `json:"commands_failed,omitempty"`
}

// TestResult contains the outcome of running a single step.
type TestResult struct {
	SuiteName    string
	StepName     string
	Success      bool
	Error        error
	Duration     time.Duration
	ResponseText string
	IsReset      bool // reset steps don't count toward pass/fail metrics
}

// TestRunResult contains the results of running an entire suite.
type TestRunResult struct {
	Suite    TestSuite
	Results  []TestResult
	Error    error
	Duration time.Duration
	Session  uuid.UUID // ID of the session used for this run
}
