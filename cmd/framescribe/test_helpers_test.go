package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type cliEnv struct {
	root       string
	outputRoot string
	historyDB  string
	configPath string
}

// setupCLITestEnv writes a config that keeps every path under a temp dir.
// extra is appended verbatim, so it may add whole TOML sections.
func setupCLITestEnv(t *testing.T, extra string) cliEnv {
	t.Helper()
	root := t.TempDir()
	t.Setenv("HOME", root)
	t.Setenv("TARGET_PDF_SIZE_MB", "")
	t.Setenv("COMPRESSED_IMAGE_QUALITY", "")
	t.Setenv("TEMP_FRAME_DIR_NAME", "")

	env := cliEnv{
		root:       root,
		outputRoot: filepath.Join(root, "out"),
		historyDB:  filepath.Join(root, "state", "history.db"),
		configPath: filepath.Join(root, "config.toml"),
	}
	content := fmt.Sprintf(`[paths]
output_root = %q
log_dir = %q
history_db = %q

[logging]
level = "error"
`, env.outputRoot, filepath.Join(root, "logs"), env.historyDB)
	if extra != "" {
		content += "\n" + extra + "\n"
	}
	if err := os.WriteFile(env.configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return env
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	return runCLIWithInput(t, args, configPath, "")
}

func runCLIWithInput(t *testing.T, args []string, configPath, input string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(input))
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}
