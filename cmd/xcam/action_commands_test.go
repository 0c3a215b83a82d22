package main

import (
	"context"
	"encoding/json"
	"testing"

	"xcam/internal/command"
	"xcam/internal/ipc"
	"xcam/internal/queue"
)

func TestActionAddListShow(t *testing.T) {
	env := setupCLITestEnv(t)
	registerTestCamera(t, env, "aa:bb:cc:dd:ee:01")

	out, _, err := runCLI(t, []string{"action", "add", command.CaptureAndStitch, "--camera", "1"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("action add: %v", err)
	}
	requireContains(t, out, "Queued action 1")

	out, _, err = runCLI(t, []string{"action", "list"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("action list: %v", err)
	}
	requireContains(t, out, command.CaptureAndStitch)
	requireContains(t, out, "pending")

	out, _, err = runCLI(t, []string{"action", "show", "1"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("action show: %v", err)
	}
	requireContains(t, out, "Command:  "+command.CaptureAndStitch)
	requireContains(t, out, `"camera_id":1`)
}

func TestActionListJSON(t *testing.T) {
	env := setupCLITestEnv(t)
	ctx := context.Background()

	if _, err := env.store.Enqueue(ctx, command.CheckConfig, ""); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	out, _, err := runCLI(t, []string{"action", "list", "--json"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("action list --json: %v", err)
	}
	var actions []ipc.ActionView
	if err := json.Unmarshal([]byte(out), &actions); err != nil {
		t.Fatalf("decode json output: %v", err)
	}
	if len(actions) != 1 || actions[0].Command != command.CheckConfig {
		t.Fatalf("unexpected actions: %+v", actions)
	}
}

func TestActionRetryAndClear(t *testing.T) {
	env := setupCLITestEnv(t)
	ctx := context.Background()

	if _, err := env.store.Enqueue(ctx, command.CheckConfig, ""); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	claimed, err := env.store.ClaimNext(ctx)
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if err := env.store.MarkFailed(ctx, claimed.ID, "probe failed"); err != nil {
		t.Fatalf("mark failed: %v", err)
	}

	out, _, err := runCLI(t, []string{"action", "retry"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("action retry: %v", err)
	}
	requireContains(t, out, "Retried 1 failed actions")

	action, err := env.store.GetByID(ctx, claimed.ID)
	if err != nil {
		t.Fatalf("get after retry: %v", err)
	}
	if action.Status != queue.StatusPending {
		t.Fatalf("expected pending after retry, got %s", action.Status)
	}

	out, _, err = runCLI(t, []string{"action", "clear"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("action clear: %v", err)
	}
	requireContains(t, out, "Cleared 1 actions")
}

func TestActionRetrySpecificNotFailed(t *testing.T) {
	env := setupCLITestEnv(t)
	ctx := context.Background()

	if _, err := env.store.Enqueue(ctx, command.CheckConfig, ""); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	out, _, err := runCLI(t, []string{"action", "retry", "1"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("action retry 1: %v", err)
	}
	requireContains(t, out, "Action 1 is not in failed state")
}

func TestActionResetStuck(t *testing.T) {
	env := setupCLITestEnv(t)
	ctx := context.Background()

	if _, err := env.store.Enqueue(ctx, command.CheckConfig, ""); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if _, err := env.store.ClaimNext(ctx); err != nil {
		t.Fatalf("claim: %v", err)
	}

	out, _, err := runCLI(t, []string{"action", "reset-stuck"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("action reset-stuck: %v", err)
	}
	requireContains(t, out, "Reset 1 actions")
}

func TestActionRemove(t *testing.T) {
	env := setupCLITestEnv(t)
	ctx := context.Background()

	if _, err := env.store.Enqueue(ctx, command.CheckConfig, ""); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	out, _, err := runCLI(t, []string{"action", "remove", "1"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("action remove: %v", err)
	}
	requireContains(t, out, "Removed action 1")

	out, _, err = runCLI(t, []string{"action", "remove", "1"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("action remove missing: %v", err)
	}
	requireContains(t, out, "Action 1 not found")
}

func TestBuildAdditions(t *testing.T) {
	additions, err := buildAdditions(`{"params":{"verbose":true}}`, 3, []string{"aa:bb:cc:dd:ee:01"}, []int{2})
	if err != nil {
		t.Fatalf("buildAdditions: %v", err)
	}
	var doc map[string]any
	if err := json.Unmarshal([]byte(additions), &doc); err != nil {
		t.Fatalf("decode merged additions: %v", err)
	}
	if doc["camera_id"].(float64) != 3 {
		t.Fatalf("camera_id missing: %v", doc)
	}
	if _, ok := doc["params"]; !ok {
		t.Fatalf("params dropped: %v", doc)
	}
	if _, ok := doc["mac_addresses"]; !ok {
		t.Fatalf("mac_addresses missing: %v", doc)
	}

	empty, err := buildAdditions("", 0, nil, nil)
	if err != nil {
		t.Fatalf("empty buildAdditions: %v", err)
	}
	if empty != "" {
		t.Fatalf("expected empty additions, got %q", empty)
	}

	if _, err := buildAdditions("{not json", 0, nil, nil); err == nil {
		t.Fatal("expected error for malformed additions")
	}
}
