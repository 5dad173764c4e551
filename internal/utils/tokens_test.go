package utils_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/KaramelBytes/instaloom-cli/internal/utils"
)

func TestCountTokens(t *testing.T) {
	cases := []struct {
		name string
		in   string
		min  int
	}{
		{"empty", "", 0},
		{"simple", "olá mundo", 2},
		{"long", strings.Repeat("a", 4000), 900},
	}
	for _, c := range cases {
		if got := utils.CountTokens(c.in); got < c.min {
			t.Errorf("%s: got %d < min %d", c.name, got, c.min)
		}
	}
}

func TestTruncateToTokenLimit(t *testing.T) {
	text := strings.Repeat("Post 1: 1000 views\n", 300)
	trunc := utils.TruncateToTokenLimit(text, 300)
	if n := utils.CountTokens(trunc); n > 300 {
		t.Fatalf("tokens=%d exceeds limit", n)
	}
	if !strings.HasSuffix(trunc, "\n") {
		t.Fatalf("expected cut at a line boundary: %q", trunc[len(trunc)-20:])
	}
	if utils.TruncateToTokenLimit("short", 10) != "short" || utils.TruncateToTokenLimit("x", 0) != "" {
		t.Fatalf("edge cases")
	}
}

func TestSafeWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports", "out.json")
	b, err := utils.PrettyJSON(map[string]int{"posts": 3})
	if err != nil {
		t.Fatal(err)
	}
	if err := utils.SafeWriteFile(path, b); err != nil {
		t.Fatalf("SafeWriteFile: %v", err)
	}
	got, err := os.ReadFile(path)
	if err != nil || !strings.Contains(string(got), "\"posts\": 3") {
		t.Fatalf("read back: %q %v", got, err)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("temp file left behind")
	}
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home dir")
	}
	if got := utils.ExpandHome("~/.instaloom/x.db"); got != filepath.Join(home, ".instaloom/x.db") {
		t.Fatalf("got %q", got)
	}
	if got := utils.ExpandHome("/tmp/x"); got != "/tmp/x" {
		t.Fatalf("got %q", got)
	}
}
