package main

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/vango-dev/lessonvars/internal/errors"
	"github.com/vango-dev/lessonvars/internal/lesson"
)

func init() {
	errors.DisableColors()
}

func execute(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err = cmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

const waveDoc = `variables:
  amplitude:
    default: 1
    kind: number
    min: 0
    max: 5
    step: 0.5
  waveform:
    default: sine
    kind: select
    options: [sine, square]
`

func TestVersionShort(t *testing.T) {
	out, _, err := execute(t, "version", "--short")
	if err != nil || strings.TrimSpace(out) != version {
		t.Errorf("version --short = %q, %v", out, err)
	}
}

func TestVarsBuiltIn(t *testing.T) {
	out, _, err := execute(t, "vars")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, lesson.SineAngle) || !strings.Contains(out, "0..360 step 5") {
		t.Errorf("vars table:\n%s", out)
	}
}

func TestVarsJSON(t *testing.T) {
	path := writeFile(t, t.TempDir(), "variables.yaml", waveDoc)
	out, _, err := execute(t, "vars", "--vars", path, "--json")
	if err != nil {
		t.Fatal(err)
	}

	var got []struct {
		Name    string   `json:"name"`
		Kind    string   `json:"kind"`
		Options []string `json:"options"`
	}
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("not JSON: %v\n%s", err, out)
	}
	if len(got) != 2 || got[0].Name != "amplitude" || got[1].Kind != "select" || len(got[1].Options) != 2 {
		t.Errorf("vars --json = %+v", got)
	}
}

func TestCheck(t *testing.T) {
	dir := t.TempDir()
	good := writeFile(t, dir, "good.yaml", waveDoc)
	bad := writeFile(t, dir, "bad.yaml", "variables:\n  a:\n    default: 1\n  a:\n    default: 2\n")

	out, _, err := execute(t, "check", good)
	if err != nil || !strings.Contains(out, "declares 2 variables") {
		t.Errorf("check good = %q, %v", out, err)
	}

	_, errOut, err := execute(t, "check", bad)
	if !stderrors.Is(err, errReported) {
		t.Errorf("check bad error = %v, want errReported", err)
	}
	if !strings.Contains(errOut, "E101") {
		t.Errorf("check bad should print E101:\n%s", errOut)
	}

	if _, _, err := execute(t, "check"); err == nil {
		t.Error("check without an argument should fail")
	}
}

func TestLoadServeConfigOverrides(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "variables.yaml", waveDoc)
	cfgPath := writeFile(t, dir, "lessonvars.json", `{
  "name": "waves",
  "server": {"port": 5000},
  "variables": {"source": "variables.yaml"}
}`)

	cfg, err := loadServeConfig(serveOptions{configPath: cfgPath, addr: "127.0.0.1:6000", dev: true})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Address() != "127.0.0.1:6000" || !cfg.Dev.Enabled {
		t.Errorf("overrides not applied: %s dev=%v", cfg.Address(), cfg.Dev.Enabled)
	}

	reg, loc, err := loadConfigDeclarations(context.Background(), cfg)
	if err != nil {
		t.Fatal(err)
	}
	if reg.Len() != 2 || loc.Path != filepath.Join(dir, "variables.yaml") {
		t.Errorf("declarations = %d from %q", reg.Len(), loc.Path)
	}

	if _, err := loadServeConfig(serveOptions{configPath: cfgPath, addr: "no-port"}); err == nil {
		t.Error("bad --addr accepted")
	}
	if _, err := loadServeConfig(serveOptions{configPath: filepath.Join(dir, "missing.json")}); !errors.HasCode(err, "E401") {
		t.Errorf("missing config = %v, want E401", err)
	}
}

func TestRunServeStopsOnCancel(t *testing.T) {
	dir := t.TempDir()
	vars := writeFile(t, dir, "variables.yaml", waveDoc)
	cfgPath := writeFile(t, dir, "lessonvars.json", `{"log": {"level": "error"}}`)

	ctx, cancel := context.WithCancel(context.Background())
	var stdout, stderr bytes.Buffer
	done := make(chan error, 1)
	go func() {
		done <- runServe(ctx, serveOptions{
			configPath: cfgPath,
			addr:       "127.0.0.1:0",
			vars:       vars,
			watch:      true,
			metrics:    true,
		}, &stdout, &stderr)
	}()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("runServe = %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("runServe did not stop")
	}
	if !strings.Contains(stdout.String(), "Variables:    2") {
		t.Errorf("banner:\n%s", stdout.String())
	}
}

func TestRunServeWatchNeedsFile(t *testing.T) {
	cfgPath := writeFile(t, t.TempDir(), "lessonvars.json", `{}`)
	err := runServe(context.Background(), serveOptions{configPath: cfgPath, watch: true}, &bytes.Buffer{}, &bytes.Buffer{})
	if err == nil || !strings.Contains(err.Error(), "--watch") {
		t.Errorf("watch without a file = %v", err)
	}
}

func TestServeGroupWatchFailureSkipsRun(t *testing.T) {
	errWatch := stderrors.New("watch failed")
	ran := false
	err := serveGroup(context.Background(),
		func(context.Context) error {
			ran = true
			return nil
		},
		func(context.Context) (func(), error) {
			return nil, errWatch
		})
	if !stderrors.Is(err, errWatch) {
		t.Errorf("serveGroup = %v, want %v", err, errWatch)
	}
	if ran {
		t.Error("run started although the watcher failed")
	}
}

func TestServeGroupStopsWatcher(t *testing.T) {
	errRun := stderrors.New("listen failed")
	stopped := make(chan struct{})
	err := serveGroup(context.Background(),
		func(context.Context) error { return errRun },
		func(context.Context) (func(), error) {
			return func() { close(stopped) }, nil
		})
	if !stderrors.Is(err, errRun) {
		t.Errorf("serveGroup = %v, want %v", err, errRun)
	}
	select {
	case <-stopped:
	default:
		t.Error("watcher still running after serveGroup returned")
	}
}

func TestInit(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "trig-101")

	out, _, err := execute(t, "init", dir, "--template", "wave")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Created lesson trig-101") {
		t.Errorf("init output:\n%s", out)
	}

	cfg, err := loadServeConfig(serveOptions{configPath: filepath.Join(dir, "lessonvars.json")})
	if err != nil {
		t.Fatal(err)
	}
	reg, _, err := loadConfigDeclarations(context.Background(), cfg)
	if err != nil || reg.Len() != 4 {
		t.Errorf("scaffolded lesson = %v, %v", reg, err)
	}

	if _, _, err := execute(t, "init", dir); !errors.HasCode(err, "E403") {
		t.Errorf("second init = %v, want E403", err)
	}
	if _, _, err := execute(t, "init", dir, "--template", "cubic"); !errors.HasCode(err, "E403") {
		t.Errorf("unknown template = %v, want E403", err)
	}
}
