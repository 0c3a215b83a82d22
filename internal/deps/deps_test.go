package deps_test

import (
	"os"
	"path/filepath"
	"testing"

	"xcam/internal/deps"
)

func TestCheckBinaries(t *testing.T) {
	dir := t.TempDir()
	present := filepath.Join(dir, "present")
	if err := os.WriteFile(present, []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatalf("write stub binary: %v", err)
	}

	results := deps.CheckBinaries([]deps.Requirement{
		{Name: "Present", Command: present},
		{Name: "Missing", Command: filepath.Join(dir, "missing")},
		{Name: "Unset", Command: "  "},
	})

	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if !results[0].Available {
		t.Fatalf("expected %s to be available: %+v", present, results[0])
	}
	if results[1].Available {
		t.Fatal("expected missing binary to be unavailable")
	}
	if results[1].Detail == "" {
		t.Fatal("expected detail for missing binary")
	}
	if results[2].Available || results[2].Detail != "command not configured" {
		t.Fatalf("unexpected unset result: %+v", results[2])
	}
}

func TestRequirementsDefaults(t *testing.T) {
	reqs := deps.Requirements(nil)
	if len(reqs) != 2 {
		t.Fatalf("expected 2 requirements, got %d", len(reqs))
	}
	if reqs[0].Command != "ffmpeg" || reqs[0].Optional {
		t.Fatalf("unexpected ffmpeg requirement: %+v", reqs[0])
	}
	if reqs[1].Command != "arp" || !reqs[1].Optional {
		t.Fatalf("unexpected arp requirement: %+v", reqs[1])
	}
}
