package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "miner.log")
	l, err := NewFile(path, false)
	if err != nil {
		t.Fatalf("NewFile() error = %v", err)
	}

	l.Printf("attempt %d", 42)
	l.Println("done")
	_ = l.Sync()

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	out := string(content)
	if !strings.Contains(out, "attempt 42") || !strings.Contains(out, "done") {
		t.Errorf("log file missing entries:\n%s", out)
	}
}

func TestVerboseEnablesDebug(t *testing.T) {
	path := filepath.Join(t.TempDir(), "miner.log")

	l, err := NewFile(path, false)
	if err != nil {
		t.Fatal(err)
	}
	l.Debugf("hidden")
	_ = l.Sync()

	v, err := NewFile(path, true)
	if err != nil {
		t.Fatal(err)
	}
	v.Debugf("visible")
	_ = v.Sync()

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	out := string(content)
	if strings.Contains(out, "hidden") {
		t.Error("debug entry logged at info level")
	}
	if !strings.Contains(out, "visible") {
		t.Error("debug entry missing at debug level")
	}
}
