package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"xcam/internal/ipc"
)

func TestCameraAddListShow(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{
		"camera", "add",
		"--name", "garage",
		"--ip", "192.168.1.60",
		"--mac", "AA-BB-CC-DD-EE-10",
	}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("camera add: %v", err)
	}
	requireContains(t, out, "Registered camera 1")

	out, _, err = runCLI(t, []string{"camera", "list"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("camera list: %v", err)
	}
	requireContains(t, out, "garage")
	requireContains(t, out, "aa:bb:cc:dd:ee:10")

	out, _, err = runCLI(t, []string{"camera", "show", "1", "--json"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("camera show: %v", err)
	}
	var view ipc.CameraView
	if err := json.Unmarshal([]byte(out), &view); err != nil {
		t.Fatalf("decode camera json: %v", err)
	}
	if view.Name != "garage" || view.MACAddress != "aa:bb:cc:dd:ee:10" {
		t.Fatalf("unexpected camera view: %+v", view)
	}
}

func TestCameraAddRequiresAddress(t *testing.T) {
	env := setupCLITestEnv(t)

	if _, _, err := runCLI(t, []string{"camera", "add", "--mac", "aa:bb:cc:dd:ee:11"}, env.socketPath, env.configPath); err == nil {
		t.Fatal("expected error without --ip")
	}
	if _, _, err := runCLI(t, []string{"camera", "add", "--ip", "192.168.1.61"}, env.socketPath, env.configPath); err == nil {
		t.Fatal("expected error without --mac")
	}
}

func TestCameraActivateDeactivateRemove(t *testing.T) {
	env := setupCLITestEnv(t)
	registerTestCamera(t, env, "aa:bb:cc:dd:ee:20")

	out, _, err := runCLI(t, []string{"camera", "deactivate", "1"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("camera deactivate: %v", err)
	}
	requireContains(t, out, "Camera 1 is now inactive")

	out, _, err = runCLI(t, []string{"camera", "activate", "1"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("camera activate: %v", err)
	}
	requireContains(t, out, "Camera 1 is now active")

	out, _, err = runCLI(t, []string{"camera", "remove", "1"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("camera remove: %v", err)
	}
	requireContains(t, out, "Removed camera 1")

	out, _, err = runCLI(t, []string{"camera", "remove", "1"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("camera remove missing: %v", err)
	}
	requireContains(t, out, "Camera 1 not found")
}

func TestCameraImport(t *testing.T) {
	env := setupCLITestEnv(t)

	seedPath := filepath.Join(t.TempDir(), "cameras.yaml")
	seed := `cameras:
  - name: front-door
    ip_address: 192.168.1.70
    mac_address: aa:bb:cc:dd:ee:30
    channel: 1
  - name: back-yard
    ip_address: 192.168.1.71
    mac_address: aa:bb:cc:dd:ee:31
    status: inactive
`
	if err := os.WriteFile(seedPath, []byte(seed), 0o644); err != nil {
		t.Fatalf("write seed: %v", err)
	}

	out, _, err := runCLI(t, []string{"camera", "import", seedPath}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("camera import: %v", err)
	}
	requireContains(t, out, "Imported 2 cameras")

	out, _, err = runCLI(t, []string{"camera", "list"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("camera list: %v", err)
	}
	requireContains(t, out, "front-door")
	requireContains(t, out, "back-yard")
}

func TestCameraImportEmptySeed(t *testing.T) {
	env := setupCLITestEnv(t)

	seedPath := filepath.Join(t.TempDir(), "empty.yaml")
	if err := os.WriteFile(seedPath, []byte("cameras: []\n"), 0o644); err != nil {
		t.Fatalf("write seed: %v", err)
	}

	if _, _, err := runCLI(t, []string{"camera", "import", seedPath}, env.socketPath, env.configPath); err == nil {
		t.Fatal("expected error for empty seed file")
	}
}
