package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// captureStdout redirects os.Stdout for the duration of fn and returns what it wrote.
func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	oldStdout := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("failed to create pipe: %v", err)
	}
	os.Stdout = w
	fn()
	w.Close()
	os.Stdout = oldStdout

	var buf bytes.Buffer
	buf.ReadFrom(r)
	return buf.String()
}

func TestRunCompileOnWellFormedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pipeline.flow")
	src := `xs := [1, 2, 3];
xs |> map(_ + 1) |> ui.table("out");`
	if err := os.WriteFile(path, []byte(src), 0644); err != nil {
		t.Fatalf("failed to write fixture program: %v", err)
	}

	var runErr error
	output := captureStdout(t, func() {
		runErr = runCompile(compileCmd, []string{path})
	})
	if runErr != nil {
		t.Fatalf("runCompile failed: %v\noutput: %s", runErr, output)
	}
	if strings.TrimSpace(output) != "ok" {
		t.Fatalf("expected 'ok', got %q", output)
	}
}

func TestRunCompileOnSyntaxErrorReturnsError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "broken.flow")
	if err := os.WriteFile(path, []byte(`xs := [1, 2`), 0644); err != nil {
		t.Fatalf("failed to write fixture program: %v", err)
	}

	runErr := runCompile(compileCmd, []string{path})
	if runErr == nil {
		t.Fatal("expected an error for a program with a syntax error")
	}
}

func TestRunCompileMissingFileReturnsError(t *testing.T) {
	if err := runCompile(compileCmd, []string{filepath.Join(t.TempDir(), "missing.flow")}); err == nil {
		t.Fatal("expected an error for a missing file")
	}
}
