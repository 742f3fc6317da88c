package audio

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeScript(t *testing.T, name string, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(contents), 0o700); err != nil {
		t.Fatalf("failed to write script: %v", err)
	}
	return path
}

const recordScript = `#!/usr/bin/env bash
out="${@: -1}"
printf 'aac-frames' > "$out"
trap 'exit 0' INT TERM
sleep 5 &
wait $!
`

func TestFFMPEGRecorderStartStopProducesArtifact(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	script := writeScript(t, "record.sh", recordScript)
	recorder := NewFFMPEGRecorder(script, Options{Dir: dir})

	session, err := recorder.Start(context.Background())
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}

	path, err := session.Stop()
	if err != nil {
		t.Fatalf("stop failed: %v", err)
	}
	if filepath.Dir(path) != dir {
		t.Fatalf("artifact outside the configured dir: %q", path)
	}
	if filepath.Ext(path) != ".aac" {
		t.Fatalf("unexpected artifact extension: %q", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read artifact: %v", err)
	}
	if string(data) != "aac-frames" {
		t.Fatalf("unexpected artifact contents: %q", data)
	}
}

func TestFFMPEGRecorderStartEarlyExit(t *testing.T) {
	t.Parallel()

	script := writeScript(t, "fail.sh", "#!/usr/bin/env bash\necho 'boom' 1>&2\nexit 1\n")
	recorder := NewFFMPEGRecorder(script, Options{Dir: t.TempDir()})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	_, err := recorder.Start(ctx)
	if err == nil {
		t.Fatalf("expected early exit error")
	}
	if !strings.Contains(err.Error(), "exited before recording started") {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(err.Error(), "boom") {
		t.Fatalf("expected stderr detail, got: %v", err)
	}
}

func TestFFMPEGRecorderAbortRemovesArtifact(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	script := writeScript(t, "record.sh", recordScript)
	recorder := NewFFMPEGRecorder(script, Options{Dir: dir})

	session, err := recorder.Start(context.Background())
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if err := session.Abort(); err != nil {
		t.Fatalf("abort failed: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected the partial artifact to be removed, found %d entries", len(entries))
	}
}

func TestNormalizeStopErrExitErrorIsIgnored(t *testing.T) {
	t.Parallel()

	err := exec.Command("bash", "-lc", "exit 1").Run()
	if err == nil {
		t.Fatalf("expected command to fail")
	}
	if got := normalizeStopErr(err); got != nil {
		t.Fatalf("expected nil for exit error, got %v", got)
	}
}

func TestStaticPermission(t *testing.T) {
	t.Parallel()

	if !(StaticPermission{Granted: true}).MicrophoneGranted(context.Background()) {
		t.Fatalf("expected a granted probe")
	}
	if (StaticPermission{}).MicrophoneGranted(context.Background()) {
		t.Fatalf("expected a denied probe")
	}
}
