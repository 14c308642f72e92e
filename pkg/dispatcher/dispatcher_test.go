package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/cwhitt/adventure-engine/pkg/command"
)

func cmds(verbs ...string) []command.ParsedCommand {
	out := make([]command.ParsedCommand, len(verbs))
	for i, v := range verbs {
		out[i] = command.ParsedCommand{Verb: v, RawInput: v, IsValid: true}
	}
	return out
}

// scriptedExecutor fails on the verbs in failOn and records execution order.
func scriptedExecutor(failOn map[string]bool, order *[]string) Executor {
	return func(ctx context.Context, cmd command.ParsedCommand) (Output, error) {
		*order = append(*order, cmd.Verb)
		if failOn[cmd.Verb] {
			return Output{Messages: []string{"failed: " + cmd.Verb}, Success: false}, nil
		}
		return Output{Messages: []string{"ok: " + cmd.Verb}, Success: true}, nil
	}
}

func TestExecuteAllSucceed(t *testing.T) {
	d := New(nil, nil)
	var order []string

	report := d.Execute(context.Background(), cmds("open", "take", "examine"),
		scriptedExecutor(nil, &order), PolicyFailEarly)

	if !report.OverallSuccess {
		t.Error("all-success run should report overall success")
	}
	if report.TotalCommands != 3 || report.ExecutedCommands != 3 ||
		report.SuccessfulCommands != 3 || report.FailedCommands != 0 || report.SkippedCommands != 0 {
		t.Errorf("report counts wrong: %+v", report)
	}
	if len(order) != 3 || order[0] != "open" || order[1] != "take" || order[2] != "examine" {
		t.Errorf("execution order wrong: %v", order)
	}
}

func TestExecuteFailEarlySkipsRest(t *testing.T) {
	d := New(nil, nil)
	var order []string

	report := d.Execute(context.Background(), cmds("open", "take", "examine", "drop"),
		scriptedExecutor(map[string]bool{"take": true}, &order), PolicyFailEarly)

	if report.OverallSuccess {
		t.Error("failed run must not report overall success")
	}
	if report.ExecutedCommands != 2 || report.SuccessfulCommands != 1 ||
		report.FailedCommands != 1 || report.SkippedCommands != 2 {
		t.Errorf("report counts wrong: %+v", report)
	}

	// Skipped commands never reach the executor.
	if len(order) != 2 {
		t.Errorf("executor ran %d times, want 2: %v", len(order), order)
	}

	for _, res := range report.Results[2:] {
		if !res.Skipped {
			t.Errorf("result %d should be skipped", res.Index)
		}
		if len(res.Output.Messages) != 1 || res.Output.Messages[0] != SkippedMessage {
			t.Errorf("skipped output = %v, want sentinel %q", res.Output.Messages, SkippedMessage)
		}
	}
}

func TestExecuteBestEffortRunsAll(t *testing.T) {
	d := New(nil, nil)
	var order []string

	report := d.Execute(context.Background(), cmds("open", "take", "examine"),
		scriptedExecutor(map[string]bool{"open": true, "examine": true}, &order), PolicyBestEffort)

	if report.OverallSuccess {
		t.Error("run with failures must not report overall success")
	}
	if report.ExecutedCommands != 3 || report.SuccessfulCommands != 1 ||
		report.FailedCommands != 2 || report.SkippedCommands != 0 {
		t.Errorf("report counts wrong: %+v", report)
	}
	if len(order) != 3 {
		t.Errorf("best-effort should execute everything, ran %d", len(order))
	}
}

func TestExecuteConvertsErrors(t *testing.T) {
	d := New(nil, nil)
	exec := func(ctx context.Context, cmd command.ParsedCommand) (Output, error) {
		return Output{}, errors.New("storage unavailable")
	}

	report := d.Execute(context.Background(), cmds("take"), exec, PolicyFailEarly)
	if report.FailedCommands != 1 {
		t.Fatalf("error should count as failure: %+v", report)
	}
	out := report.Results[0].Output
	if out.Success || len(out.Messages) != 1 || out.Messages[0] != "storage unavailable" {
		t.Errorf("error output = %+v", out)
	}
}

func TestExecuteRecoversPanics(t *testing.T) {
	d := New(nil, nil)
	exec := func(ctx context.Context, cmd command.ParsedCommand) (Output, error) {
		panic(fmt.Errorf("handler bug"))
	}

	report := d.Execute(context.Background(), cmds("take", "drop"), exec, PolicyBestEffort)
	if report.FailedCommands != 2 {
		t.Errorf("panics should convert to failures: %+v", report)
	}
}

func TestExecuteEmptyList(t *testing.T) {
	d := New(nil, nil)
	report := d.Execute(context.Background(), nil, scriptedExecutor(nil, &[]string{}), PolicyFailEarly)
	if !report.OverallSuccess || report.TotalCommands != 0 {
		t.Errorf("empty list should trivially succeed: %+v", report)
	}
}

func TestExecuteUnknownPolicyDefaultsToFailEarly(t *testing.T) {
	d := New(nil, nil)
	var order []string
	report := d.Execute(context.Background(), cmds("open", "take"),
		scriptedExecutor(map[string]bool{"open": true}, &order), Policy("bogus"))

	if report.Policy != PolicyFailEarly {
		t.Errorf("policy = %q, want fail-early default", report.Policy)
	}
	if report.SkippedCommands != 1 {
		t.Errorf("second command should be skipped under the default policy: %+v", report)
	}
}
