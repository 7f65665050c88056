package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/csheth/docview/internal/stub"
	"github.com/csheth/docview/internal/termtest"
)

func TestViewerAnswersQuestion(t *testing.T) {
	cmdDir := moduleDir(t)
	binary := buildBinary(t, cmdDir)
	backend, srv := startStub(t, filepath.Join(cmdDir, "testdata", "fixture.yaml"))
	home := t.TempDir()

	sess, err := termtest.Start(context.Background(), termtest.Options{
		Command: []string{
			binary, "view",
			"--pages", filepath.Join(cmdDir, "testdata", "pages.json"),
			"--no-alt-screen",
			"--base-url", srv.URL,
			"--log-file", filepath.Join(home, "docview.log"),
		},
		Dir:     home,
		Env:     []string{"HOME=" + home},
		Cols:    120,
		Rows:    36,
		Timeout: 20 * time.Second,
	})
	if err != nil {
		t.Fatalf("start viewer: %v", err)
	}
	defer sess.Close()

	step := func(input []byte, want string) {
		t.Helper()
		if input != nil {
			if err := sess.Send(input); err != nil {
				t.Fatalf("send: %v", err)
			}
		}
		if err := sess.WaitFor(want, 5*time.Second); err != nil {
			t.Fatalf("%v\nscreen:\n%s", err, sess.Screen())
		}
	}

	step(nil, "Page 1 of 2")
	step([]byte("l"), "Page 2 of 2")
	step([]byte("q"), "Ask the document")
	if err := sess.Type("What color is the sky?"); err != nil {
		t.Fatalf("type: %v", err)
	}
	step(termtest.KeyEnter, "From page 1 · Position 4-5")
	step(termtest.KeyEnter, "Answer: blue")
	if err := sess.Send(termtest.KeyCtrlC); err != nil {
		t.Fatalf("send ctrl+c: %v", err)
	}
	rec, err := sess.Wait()
	if err != nil {
		t.Fatalf("viewer exit: %v", err)
	}
	if _, ok := rec.FinalFrame(); !ok {
		t.Fatal("no frames captured")
	}

	var asked []stub.Request
	for _, req := range backend.Requests() {
		if req.Path == "/qna" {
			asked = append(asked, req)
		}
	}
	if len(asked) != 1 {
		t.Fatalf("expected one question request, got %#v", backend.Requests())
	}
	if asked[0].Question != "What color is the sky?" || len(asked[0].Contents) != 2 || asked[0].Contents[0] != "The sky is blue." {
		t.Fatalf("unexpected question request %#v", asked[0])
	}
}

func TestAskCommandPrintsRankedAnswers(t *testing.T) {
	cmdDir := moduleDir(t)
	binary := buildBinary(t, cmdDir)
	_, srv := startStub(t, filepath.Join(cmdDir, "testdata", "fixture.yaml"))

	stdout, stderr, err := runCLI(t, binary,
		"ask", "When does water boil?",
		"--pages", filepath.Join(cmdDir, "testdata", "pages.json"),
		"--base-url", srv.URL,
		"-o", "json",
	)
	if err != nil {
		t.Fatalf("ask: %v\n%s", err, stderr)
	}
	var result askResult
	if err := json.Unmarshal(stdout, &result); err != nil {
		t.Fatalf("decode output: %v\n%s", err, stdout)
	}
	if result.Answer != "100C" {
		t.Fatalf("unexpected primary answer %q", result.Answer)
	}
	if len(result.Contexts) != 2 || result.Contexts[0].Page != "2" || result.Contexts[1].Page != "1" {
		t.Fatalf("contexts should keep the service order: %#v", result.Contexts)
	}
	if result.Contexts[0].Position != [2]int{15, 19} {
		t.Fatalf("unexpected position %v", result.Contexts[0].Position)
	}
}

func TestAskCommandReportsFailure(t *testing.T) {
	cmdDir := moduleDir(t)
	binary := buildBinary(t, cmdDir)
	_, srv := startStub(t, filepath.Join(cmdDir, "testdata", "failing.yaml"))

	_, stderr, err := runCLI(t, binary,
		"ask", "What color is the sky?",
		"--pages", filepath.Join(cmdDir, "testdata", "pages.json"),
		"--base-url", srv.URL,
	)
	if err == nil {
		t.Fatal("expected a non-zero exit")
	}
	if !strings.Contains(string(stderr), "Failed to get answer. Please try again.") {
		t.Fatalf("failure message missing from stderr:\n%s", stderr)
	}
}

func TestRunsCommand(t *testing.T) {
	cmdDir := moduleDir(t)
	binary := buildBinary(t, cmdDir)
	_, srv := startStub(t, filepath.Join(cmdDir, "testdata", "fixture.yaml"))

	stdout, stderr, err := runCLI(t, binary, "runs", "--base-url", srv.URL)
	if err != nil {
		t.Fatalf("runs: %v\n%s", err, stderr)
	}
	out := string(stdout)
	first := strings.Index(out, "run-001")
	second := strings.Index(out, "run-002")
	if first < 0 || second < first || !strings.Contains(out, "Discharge summary") {
		t.Fatalf("unexpected runs output:\n%s", out)
	}
}

func TestOCRSaveRoundTrip(t *testing.T) {
	cmdDir := moduleDir(t)
	binary := buildBinary(t, cmdDir)
	_, srv := startStub(t, filepath.Join(cmdDir, "testdata", "fixture.yaml"))
	saved := filepath.Join(t.TempDir(), "current.json")

	_, stderr, err := runCLI(t, binary, "ocr", "--current", "--save", saved, "--base-url", srv.URL)
	if err != nil {
		t.Fatalf("ocr: %v\n%s", err, stderr)
	}
	data, err := os.ReadFile(saved)
	if err != nil {
		t.Fatalf("read saved response: %v", err)
	}
	if !bytes.Contains(data, []byte(`"Water boils at 100C."`)) {
		t.Fatalf("saved response missing page text:\n%s", data)
	}
}

func TestVersionCommand(t *testing.T) {
	binary := buildBinary(t, moduleDir(t))
	stdout, stderr, err := runCLI(t, binary, "version")
	if err != nil {
		t.Fatalf("version: %v\n%s", err, stderr)
	}
	if !strings.HasPrefix(string(stdout), "docview ") {
		t.Fatalf("unexpected version output %q", stdout)
	}
}

func startStub(t *testing.T, fixture string) (*stub.Server, *httptest.Server) {
	t.Helper()
	fix, err := stub.LoadFixture(fixture)
	if err != nil {
		t.Fatalf("load fixture: %v", err)
	}
	backend := stub.NewServer(fix, slog.New(slog.NewTextHandler(io.Discard, nil)))
	srv := httptest.NewServer(backend)
	t.Cleanup(srv.Close)
	return backend, srv
}

func runCLI(t *testing.T, binary string, args ...string) ([]byte, []byte, error) {
	t.Helper()
	home := t.TempDir()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()
	cmd := exec.CommandContext(ctx, binary, args...)
	cmd.Dir = home
	cmd.Env = append(os.Environ(), "HOME="+home)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}

func moduleDir(t *testing.T) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatalf("runtime caller unavailable")
	}
	return filepath.Dir(file)
}

var (
	buildOnce sync.Once
	builtPath string
	buildErr  error
	buildLog  []byte
)

// buildBinary compiles the CLI once per test run.
func buildBinary(t *testing.T, cmdDir string) string {
	t.Helper()
	buildOnce.Do(func() {
		dir, err := os.MkdirTemp("", "docview-integration")
		if err != nil {
			buildErr = err
			return
		}
		name := "docview"
		if runtime.GOOS == "windows" {
			name += ".exe"
		}
		builtPath = filepath.Join(dir, name)
		cmd := exec.Command("go", "build", "-o", builtPath, ".")
		cmd.Dir = cmdDir
		buildLog, buildErr = cmd.CombinedOutput()
	})
	if buildErr != nil {
		t.Fatalf("build CLI: %v\n%s", buildErr, buildLog)
	}
	return builtPath
}
