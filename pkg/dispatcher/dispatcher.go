// Package dispatcher executes an ordered list of parsed commands against
// an executor callback, strictly sequentially, under a configurable
// failure policy, and produces a structured execution report.
package dispatcher

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/cwhitt/adventure-engine/pkg/command"
	"github.com/cwhitt/adventure-engine/pkg/telemetry"
)

// Policy controls how a command failure affects the rest of the list.
type Policy string

const (
	// PolicyFailEarly skips every command after the first failure.
	PolicyFailEarly Policy = "fail-early"
	// PolicyBestEffort executes every command regardless of failures.
	PolicyBestEffort Policy = "best-effort"
)

// SkippedMessage is the sentinel output for commands skipped under
// fail-early. Tests assert on it.
const SkippedMessage = "Skipped due to previous error"

// Output is the player-facing outcome of one executed command.
type Output struct {
	Messages []string `json:"messages"`
	Success  bool     `json:"success"`
}

// Executor applies one parsed command to the game state. A returned error
// is an unexpected failure: the dispatcher converts it into a failed
// Output carrying the error message and never propagates it.
type Executor func(ctx context.Context, cmd command.ParsedCommand) (Output, error)

// CommandResult records the execution of one command in the list.
type CommandResult struct {
	Command   command.ParsedCommand `json:"command"`
	Output    Output                `json:"output"`
	Index     int                   `json:"index"`
	Skipped   bool                  `json:"skipped"`
	StartedAt time.Time             `json:"started_at"`
	EndedAt   time.Time             `json:"ended_at"`
}

// Report aggregates per-command results for one submitted line.
type Report struct {
	ID                 uuid.UUID       `json:"id"`
	Results            []CommandResult `json:"results"`
	TotalCommands      int             `json:"total_commands"`
	ExecutedCommands   int             `json:"executed_commands"`
	SuccessfulCommands int             `json:"successful_commands"`
	FailedCommands     int             `json:"failed_commands"`
	SkippedCommands    int             `json:"skipped_commands"`
	OverallSuccess     bool            `json:"overall_success"`
	Policy             Policy          `json:"policy"`
	Duration           time.Duration   `json:"duration"`
}

// Dispatcher runs command lists. It holds no game state of its own; all
// state effects flow through the executor.
type Dispatcher struct {
	logger   *slog.Logger
	recorder *telemetry.Recorder
}

// New creates a dispatcher.
func New(logger *slog.Logger, recorder *telemetry.Recorder) *Dispatcher {
	return &Dispatcher{logger: logger, recorder: recorder}
}

// Execute runs the commands in written order. Command i+1 starts only
// after command i's executor call has returned, so an earlier command's
// state mutation is visible to every later command.
func (d *Dispatcher) Execute(ctx context.Context, commands []command.ParsedCommand, exec Executor, policy Policy) *Report {
	if policy != PolicyFailEarly && policy != PolicyBestEffort {
		policy = PolicyFailEarly
	}

	report := &Report{
		ID:            uuid.New(),
		TotalCommands: len(commands),
		Policy:        policy,
	}
	started := time.Now()

	d.recorder.Record(telemetry.EventDispatchStarted, map[string]interface{}{
		"report_id": report.ID.String(),
		"total":     len(commands),
		"policy":    string(policy),
	})

	failed := false
	for i, cmd := range commands {
		result := CommandResult{Command: cmd, Index: i}

		if failed && policy == PolicyFailEarly {
			result.Skipped = true
			result.StartedAt = time.Now()
			result.EndedAt = result.StartedAt
			result.Output = Output{Messages: []string{SkippedMessage}, Success: false}
			report.Results = append(report.Results, result)
			report.SkippedCommands++
			continue
		}

		result.StartedAt = time.Now()
		out := d.runExecutor(ctx, exec, cmd)
		result.EndedAt = time.Now()
		result.Output = out

		report.Results = append(report.Results, result)
		report.ExecutedCommands++
		if out.Success {
			report.SuccessfulCommands++
		} else {
			report.FailedCommands++
			if !failed && policy == PolicyFailEarly {
				d.recorder.Record(telemetry.EventDispatchEarlyTermination, map[string]interface{}{
					"report_id":    report.ID.String(),
					"failed_index": i,
				})
			}
			failed = true
		}

		d.recorder.Record(telemetry.EventDispatchCommand, map[string]interface{}{
			"report_id":   report.ID.String(),
			"index":       i,
			"verb":        cmd.Verb,
			"success":     out.Success,
			"duration_ms": result.EndedAt.Sub(result.StartedAt).Milliseconds(),
		})
	}

	report.Duration = time.Since(started)
	report.OverallSuccess = report.FailedCommands == 0 && report.SkippedCommands == 0

	d.recorder.Record(telemetry.EventDispatchCompleted, map[string]interface{}{
		"report_id":   report.ID.String(),
		"total":       report.TotalCommands,
		"executed":    report.ExecutedCommands,
		"successful":  report.SuccessfulCommands,
		"failed":      report.FailedCommands,
		"skipped":     report.SkippedCommands,
		"duration_ms": report.Duration.Milliseconds(),
	})

	if d.logger != nil {
		d.logger.Debug("Dispatch complete",
			"report_id", report.ID.String(),
			"total", report.TotalCommands,
			"failed", report.FailedCommands,
			"skipped", report.SkippedCommands)
	}
	return report
}

// runExecutor invokes the executor, converting returned errors and panics
// into failure outputs so nothing propagates to the line-level caller.
func (d *Dispatcher) runExecutor(ctx context.Context, exec Executor, cmd command.ParsedCommand) (out Output) {
	defer func() {
		if r := recover(); r != nil {
			if d.logger != nil {
				d.logger.Error("Executor panicked", "verb", cmd.Verb, "panic", r)
			}
			out = Output{Messages: []string{fmt.Sprintf("%v", r)}, Success: false}
		}
	}()

	out, err := exec(ctx, cmd)
	if err != nil {
		if d.logger != nil {
			d.logger.Warn("Executor returned error", "verb", cmd.Verb, "error", err)
		}
		return Output{Messages: []string{err.Error()}, Success: false}
	}
	return out
}
