package integration

import (
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func TestStandaloneBinaryWorksOutsideRepo(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("standalone binary copy/exec test is unix-focused")
	}
	goModPathBytes, err := exec.Command("go", "env", "GOMOD").Output()
	if err != nil {
		t.Fatalf("go env GOMOD: %v", err)
	}
	goModPath := strings.TrimSpace(string(goModPathBytes))
	if goModPath == "" {
		t.Fatalf("go env GOMOD returned empty")
	}
	repoRoot := filepath.Dir(goModPath)

	buildDir := t.TempDir()
	binaryPath := filepath.Join(buildDir, "ghlink")

	build := exec.Command("go", "build", "-o", binaryPath, "./cmd/ghlink")
	build.Dir = repoRoot
	build.Env = os.Environ()
	if out, err := build.CombinedOutput(); err != nil {
		t.Fatalf("go build: %v\n%s", err, string(out))
	}

	outside := t.TempDir()
	copiedBinary := filepath.Join(outside, "ghlink")

	// Use a direct file copy to avoid relying on platform-specific tools.
	data, err := os.ReadFile(binaryPath)
	if err != nil {
		t.Fatalf("read built binary: %v", err)
	}
	if err := os.WriteFile(copiedBinary, data, 0o755); err != nil {
		t.Fatalf("write copied binary: %v", err)
	}

	// No token and no config: these commands must still work.
	env := append(os.Environ(), "GHLINK_GITHUB_TOKEN=", "GITHUB_TOKEN=", "XDG_CONFIG_HOME="+outside)
	for _, args := range [][]string{{"version"}, {"--help"}, {"tools", "list", "-o", "json"}} {
		run := exec.Command(copiedBinary, args...)
		run.Dir = outside
		run.Env = env
		out, err := run.CombinedOutput()
		if err != nil {
			t.Fatalf("%v failed: %v\n%s", args, err, string(out))
		}
		if args[0] == "tools" && !strings.Contains(string(out), "get_repository") {
			t.Fatalf("tools list missing get_repository:\n%s", string(out))
		}
	}

	// A tool call without a token exits with the config-invalid code.
	call := exec.Command(copiedBinary, "call", "get_user", "--arg", "username=octocat")
	call.Dir = outside
	call.Env = env
	if err := call.Run(); err == nil {
		t.Fatalf("call without a token should fail")
	}
}
