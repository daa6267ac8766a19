package repl

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func run(t *testing.T, input string) string {
	t.Helper()
	var out bytes.Buffer
	New(DefaultConfig(), strings.NewReader(input), &out).Run()
	return out.String()
}

func TestSessionShowsEmittedCode(t *testing.T) {
	out := run(t, "6 7 +\n:state\n: sq dup + ;\n:finish\n:quit\n")

	for _, want := range []string{
		"+ ori X5, X0, 13",
		"data stack:    [X5(d0)] (offset 0)",
		"+ sq:",
		"jalr",
		"Bye!",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestErrorsAreReported(t *testing.T) {
	out := run(t, "then\n1 2 3 4 5 6 7 8 9\n:reset\n1\n")

	if !strings.Contains(out, "[G0002]") {
		t.Errorf("missing G0002 diagnostic:\n%s", out)
	}
	if !strings.Contains(out, "[G0001]") || !strings.Contains(out, "Session aborted") {
		t.Errorf("missing G0001 diagnostic:\n%s", out)
	}
	if !strings.Contains(out, "Session reset.") || !strings.HasSuffix(out, "\nBye!\n") {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestMultilineComment(t *testing.T) {
	out := run(t, "1 ( open\nstill comment ) 2\n:history\n")
	if !strings.Contains(out, "... ") {
		t.Errorf("no continuation prompt:\n%s", out)
	}
	if !strings.Contains(out, "1  1 ( open\nstill comment ) 2") {
		t.Errorf("history entry not joined:\n%s", out)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.srv")
	if err := os.WriteFile(path, []byte(": two 2 ;\n"), 0644); err != nil {
		t.Fatal(err)
	}
	out := run(t, ":load "+path+"\n:listing\n:load missing.srv\n")
	if !strings.Contains(out, "Loaded: "+path) || !strings.Contains(out, "two:") {
		t.Errorf("unexpected output:\n%s", out)
	}
	if !strings.Contains(out, "Error loading file") {
		t.Errorf("missing file not reported:\n%s", out)
	}
}

func TestIsCommand(t *testing.T) {
	tests := map[string]bool{
		":help":      true,
		"  :q":       true,
		": sq dup ;": false,
		"1 2 +":      false,
		"":           false,
	}
	for line, want := range tests {
		if got := isCommand(line); got != want {
			t.Errorf("isCommand(%q) = %v", line, got)
		}
	}
}
