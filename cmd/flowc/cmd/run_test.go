package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRunRunWithoutFixturesDefaultsToEmptyObject(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pipeline.flow")
	src := `[1, 2, 3] |> map(_ + 1) |> ui.table("out");`
	if err := os.WriteFile(path, []byte(src), 0644); err != nil {
		t.Fatalf("failed to write fixture program: %v", err)
	}

	oldFixtures := runFixturesPath
	runFixturesPath = ""
	defer func() { runFixturesPath = oldFixtures }()

	var runErr error
	output := captureStdout(t, func() {
		runErr = runRun(runCmd, []string{path})
	})
	if runErr != nil {
		t.Fatalf("runRun failed: %v\noutput: %s", runErr, output)
	}
	if !strings.Contains(output, `"out":[2,3,4]`) {
		t.Fatalf("expected out table in printed tables, got %q", output)
	}
	if !strings.Contains(output, "[pure] map((_ + 1))") {
		t.Fatalf("expected the printed explain to include the plan, got %q", output)
	}
}

func TestRunRunReadsFixturesFile(t *testing.T) {
	dir := t.TempDir()
	progPath := filepath.Join(dir, "pipeline.flow")
	src := `input.json("xs") |> json |> ui.table("out");`
	if err := os.WriteFile(progPath, []byte(src), 0644); err != nil {
		t.Fatalf("failed to write fixture program: %v", err)
	}
	fixturesPath := filepath.Join(dir, "fixtures.json")
	if err := os.WriteFile(fixturesPath, []byte(`{"xs": [1, 2]}`), 0644); err != nil {
		t.Fatalf("failed to write fixtures file: %v", err)
	}

	oldFixtures := runFixturesPath
	runFixturesPath = fixturesPath
	defer func() { runFixturesPath = oldFixtures }()

	var runErr error
	output := captureStdout(t, func() {
		runErr = runRun(runCmd, []string{progPath})
	})
	if runErr != nil {
		t.Fatalf("runRun failed: %v\noutput: %s", runErr, output)
	}
	if !strings.Contains(output, `"out":[1,2]`) {
		t.Fatalf("expected fixtures to be decoded into the out table, got %q", output)
	}
}

func TestRunRunMissingFixturesFileReturnsError(t *testing.T) {
	dir := t.TempDir()
	progPath := filepath.Join(dir, "pipeline.flow")
	if err := os.WriteFile(progPath, []byte(`[1] |> ui.table("out");`), 0644); err != nil {
		t.Fatalf("failed to write fixture program: %v", err)
	}

	oldFixtures := runFixturesPath
	runFixturesPath = filepath.Join(dir, "missing.json")
	defer func() { runFixturesPath = oldFixtures }()

	if err := runRun(runCmd, []string{progPath}); err == nil {
		t.Fatal("expected an error for a missing fixtures file")
	}
}
