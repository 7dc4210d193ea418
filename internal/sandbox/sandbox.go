// Package sandbox runs untrusted Python inside a network-disabled Docker
// container and extracts any PNG files it wrote to /output, mirroring the
// sandbox service's create/start/wait/extract/remove sequence.
package sandbox

import (
	"archive/tar"
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/mount"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/stdcopy"

	"github.com/orpipe/orpipe"
	"github.com/orpipe/orpipe/internal/config"
)

const outputDir = "/output"

// Sandbox executes code in disposable containers built from a single image,
// applying the configured memory/pids/wall-clock limits to every run.
type Sandbox struct {
	cli    *client.Client
	image  string
	memMB  int64
	pids   int64
	timeout time.Duration
}

// New connects to the local Docker daemon, verifies it is reachable, and
// ensures the configured image is present, pulling it if necessary.
func New(ctx context.Context, cfg config.SandboxConfig) (*Sandbox, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("docker client: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if _, err := cli.Ping(pingCtx); err != nil {
		return nil, fmt.Errorf("docker daemon unreachable: %w", err)
	}

	sb := &Sandbox{
		cli:     cli,
		image:   cfg.Image,
		memMB:   cfg.MemoryLimitMB,
		pids:    cfg.PidsLimit,
		timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
	}
	if err := sb.ensureImage(ctx); err != nil {
		return nil, err
	}
	return sb, nil
}

func (s *Sandbox) ensureImage(ctx context.Context) error {
	if _, _, err := s.cli.ImageInspectWithRaw(ctx, s.image); err == nil {
		return nil
	}

	reader, err := s.cli.ImagePull(ctx, s.image, image.PullOptions{})
	if err != nil {
		return fmt.Errorf("pull image %s: %w", s.image, err)
	}
	defer reader.Close()
	if _, err := io.Copy(io.Discard, reader); err != nil {
		return fmt.Errorf("read pull output: %w", err)
	}
	return nil
}

// Close releases the underlying Docker client.
func (s *Sandbox) Close() error {
	return s.cli.Close()
}

// Run executes code in a fresh container and returns its stdout/stderr,
// exit status, and any generated PNGs. It never returns an error for a
// failing or timed-out user program: those are reported through the
// returned GeneratedCode/ExecutionStatus, matching the worker's contract
// that only infrastructure failures (can't create/start the container)
// are Go errors.
func (s *Sandbox) Run(ctx context.Context, code string) (orpipe.GeneratedCode, orpipe.ExecutionStatus, error) {
	instrumented := "import os\nos.makedirs('/output', exist_ok=True)\n\n" + code

	memBytes := s.memMB * 1024 * 1024
	var pidsLimit *int64
	if s.pids > 0 {
		pidsLimit = &s.pids
	}

	// A host bind-mount is the fallback path for artifact extraction: if
	// the tar-over-socket copy in collectPNGs fails, Run still has a
	// chance to find the PNGs by walking this directory directly.
	hostOutputDir, err := os.MkdirTemp("", "sandbox-output-")
	if err != nil {
		return orpipe.GeneratedCode{}, orpipe.CodeFailed, fmt.Errorf("create host output dir: %w", err)
	}
	defer os.RemoveAll(hostOutputDir)
	// MkdirTemp creates the directory 0700, but the container runs as
	// "nobody" with every capability dropped, so /output must be
	// world-writable for user code to save its PNGs there.
	if err := os.Chmod(hostOutputDir, 0o777); err != nil {
		return orpipe.GeneratedCode{}, orpipe.CodeFailed, fmt.Errorf("chmod host output dir: %w", err)
	}

	resp, err := s.cli.ContainerCreate(ctx, &container.Config{
		Image:           s.image,
		Cmd:             []string{"python3", "-c", instrumented},
		NetworkDisabled: true,
		User:            "nobody",
	}, &container.HostConfig{
		Resources: container.Resources{
			Memory:     memBytes,
			MemorySwap: memBytes,
			PidsLimit:  pidsLimit,
		},
		Mounts: []mount.Mount{
			{
				Type:   mount.TypeBind,
				Source: hostOutputDir,
				Target: outputDir,
			},
		},
		ReadonlyRootfs: false,
		AutoRemove:     false,
		SecurityOpt:    []string{"no-new-privileges"},
		CapDrop:        []string{"ALL"},
	}, nil, nil, "")
	if err != nil {
		return orpipe.GeneratedCode{}, orpipe.CodeFailed, fmt.Errorf("create container: %w", err)
	}
	containerID := resp.ID

	defer func() {
		removeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = s.cli.ContainerRemove(removeCtx, containerID, container.RemoveOptions{Force: true})
	}()

	if err := s.cli.ContainerStart(ctx, containerID, container.StartOptions{}); err != nil {
		return orpipe.GeneratedCode{}, orpipe.CodeFailed, fmt.Errorf("start container: %w", err)
	}

	runCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	statusCh, errCh := s.cli.ContainerWait(runCtx, containerID, container.WaitConditionNotRunning)

	var exitCode int64
	select {
	case <-runCtx.Done():
		killCtx, killCancel := context.WithTimeout(context.Background(), 5*time.Second)
		s.cli.ContainerKill(killCtx, containerID, "SIGKILL")
		killCancel()
		return s.timeoutResult(), orpipe.CodeFailed, nil
	case werr := <-errCh:
		if werr != nil {
			return orpipe.GeneratedCode{StatusCode: -1}, orpipe.CodeFailed, fmt.Errorf("container wait: %w", werr)
		}
	case status := <-statusCh:
		exitCode = status.StatusCode
	}

	stdout, stderr, err := s.collectLogs(context.Background(), containerID)
	if err != nil {
		stderr = stderr + "\n" + err.Error()
	}

	files, err := s.collectPNGs(context.Background(), containerID)
	if err != nil {
		files = walkHostOutputDir(hostOutputDir)
	}

	status := orpipe.CodeExecuted
	if exitCode != 0 {
		status = orpipe.CodeFailed
	}

	return orpipe.GeneratedCode{
		Stdout:         stdout,
		Stderr:         stderr,
		StatusCode:     int(exitCode),
		GeneratedFiles: files,
	}, status, nil
}

// timeoutResult is reported when a run hits the hard wall-clock limit. The
// message substring "Timeout error" matches the original sandbox's contract
// that callers can detect timeouts from stderr text alone.
func (s *Sandbox) timeoutResult() orpipe.GeneratedCode {
	return orpipe.GeneratedCode{
		StatusCode: -1,
		Stderr:     fmt.Sprintf("Timeout error: Code execution exceeded %v.", s.timeout),
	}
}

func (s *Sandbox) collectLogs(ctx context.Context, containerID string) (stdout, stderr string, err error) {
	out, err := s.cli.ContainerLogs(ctx, containerID, container.LogsOptions{ShowStdout: true, ShowStderr: true})
	if err != nil {
		return "", "", err
	}
	defer out.Close()

	var stdoutBuf, stderrBuf bytes.Buffer
	if _, err := stdcopy.StdCopy(&stdoutBuf, &stderrBuf, out); err != nil {
		return "", "", err
	}
	return strings.TrimSpace(stdoutBuf.String()), strings.TrimSpace(stderrBuf.String()), nil
}

// collectPNGs extracts every *.png file under /output from the container's
// filesystem via the tar-over-socket copy API, keyed by basename only.
func (s *Sandbox) collectPNGs(ctx context.Context, containerID string) (map[string]string, error) {
	reader, _, err := s.cli.CopyFromContainer(ctx, containerID, outputDir)
	if err != nil {
		return nil, err
	}
	defer reader.Close()
	return extractPNGsFromTar(reader)
}

// extractPNGsFromTar walks a tar stream (as returned by CopyFromContainer)
// and returns every regular *.png file keyed by basename, base64-encoded.
// Non-PNG entries and directories are skipped.
func extractPNGsFromTar(r io.Reader) (map[string]string, error) {
	tr := tar.NewReader(r)
	files := map[string]string{}
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return files, err
		}
		if hdr.Typeflag != tar.TypeReg || !strings.HasSuffix(strings.ToLower(hdr.Name), ".png") {
			continue
		}
		data, err := io.ReadAll(tr)
		if err != nil {
			continue
		}
		files[path.Base(hdr.Name)] = base64.StdEncoding.EncodeToString(data)
	}
	if len(files) == 0 {
		return nil, nil
	}
	return files, nil
}

// walkHostOutputDir is the fallback when collectPNGs can't reach the
// container's filesystem (already removed, daemon hiccup): it scans the
// host directory bind-mounted at /output instead. Best-effort, like the
// tar path: a read error on one file is skipped rather than aborting the
// whole scan.
func walkHostOutputDir(hostDir string) map[string]string {
	files := map[string]string{}
	_ = filepath.WalkDir(hostDir, func(p string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() || !strings.HasSuffix(strings.ToLower(d.Name()), ".png") {
			return nil
		}
		data, readErr := os.ReadFile(p)
		if readErr != nil {
			return nil
		}
		files[d.Name()] = base64.StdEncoding.EncodeToString(data)
		return nil
	})
	if len(files) == 0 {
		return nil
	}
	return files
}
