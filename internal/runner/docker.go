package runner

import (
	"archive/tar"
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/client"

	"github.com/felixgeelhaar/kata/internal/domain"
)

const workspaceDir = "/workspace"

// DockerSandbox executes submissions inside a shared python container.
// The container is created lazily on first use, kept alive across
// invocations, and removed on Close.
type DockerSandbox struct {
	client *client.Client
	cfg    DockerConfig
	logger *slog.Logger

	mu          sync.Mutex
	containerID string
}

// DockerConfig holds Docker sandbox configuration.
type DockerConfig struct {
	Image      string        // default python:3.12-slim
	MemoryMB   int           // default 256
	CPULimit   float64       // default 0.5
	PidsLimit  int64         // default 64
	NetworkOff bool          // default true
	Timeout    time.Duration // per-invocation wall clock limit
}

// NewDockerSandbox creates a Docker-backed sandbox and verifies the daemon
// is reachable.
func NewDockerSandbox(cfg DockerConfig, logger *slog.Logger) (*DockerSandbox, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("create docker client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := cli.Ping(ctx); err != nil {
		cli.Close()
		return nil, fmt.Errorf("%w: docker not reachable: %v", domain.ErrSandboxUnavailable, err)
	}

	if cfg.Image == "" {
		cfg.Image = "python:3.12-slim"
	}
	if cfg.MemoryMB == 0 {
		cfg.MemoryMB = 256
	}
	if cfg.CPULimit == 0 {
		cfg.CPULimit = 0.5
	}
	if cfg.PidsLimit == 0 {
		cfg.PidsLimit = 64
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}

	return &DockerSandbox{client: cli, cfg: cfg, logger: logger}, nil
}

// Invoke runs the candidate entry point inside the sandbox container.
func (s *DockerSandbox) Invoke(ctx context.Context, source, entryPoint, construct string, args []string) (string, error) {
	files, err := harnessFiles(source, entryPoint, construct, args)
	if err != nil {
		return "", err
	}

	id, err := s.ensureContainer(ctx)
	if err != nil {
		return "", err
	}

	// Each invocation gets its own subdirectory so concurrent requests
	// cannot clobber each other's payloads.
	runDir := fmt.Sprintf("run-%d", time.Now().UnixNano())
	if err := s.copyFiles(ctx, id, runDir, files); err != nil {
		return "", fmt.Errorf("%w: copy files: %v", domain.ErrSandboxUnavailable, err)
	}

	stdout, stderr, err := s.exec(ctx, id, runDir)
	if err != nil {
		return "", err
	}
	return parseHarnessOutput(stdout, stderr)
}

// Close removes the sandbox container and closes the client.
func (s *DockerSandbox) Close() error {
	s.mu.Lock()
	id := s.containerID
	s.containerID = ""
	s.mu.Unlock()

	if id != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		timeout := 5
		_ = s.client.ContainerStop(ctx, id, container.StopOptions{Timeout: &timeout})
		if err := s.client.ContainerRemove(ctx, id, container.RemoveOptions{Force: true}); err != nil {
			s.logger.Warn("remove sandbox container", "error", err)
		}
	}
	return s.client.Close()
}

func (s *DockerSandbox) ensureContainer(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.containerID != "" {
		info, err := s.client.ContainerInspect(ctx, s.containerID)
		if err == nil && info.State.Running {
			return s.containerID, nil
		}
		_ = s.client.ContainerRemove(ctx, s.containerID, container.RemoveOptions{Force: true})
		s.containerID = ""
	}

	if err := s.ensureImage(ctx); err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrSandboxUnavailable, err)
	}

	containerCfg := &container.Config{
		Image:           s.cfg.Image,
		Cmd:             []string{"sh", "-c", "while true; do sleep 3600; done"},
		WorkingDir:      workspaceDir,
		NetworkDisabled: s.cfg.NetworkOff,
		Labels:          map[string]string{"kata.sandbox": "true"},
	}
	hostCfg := &container.HostConfig{
		Resources: container.Resources{
			Memory:    int64(s.cfg.MemoryMB) * 1024 * 1024,
			NanoCPUs:  int64(s.cfg.CPULimit * 1e9),
			PidsLimit: &s.cfg.PidsLimit,
		},
	}

	resp, err := s.client.ContainerCreate(ctx, containerCfg, hostCfg, nil, nil, "")
	if err != nil {
		return "", fmt.Errorf("%w: create container: %v", domain.ErrSandboxUnavailable, err)
	}
	if err := s.client.ContainerStart(ctx, resp.ID, container.StartOptions{}); err != nil {
		_ = s.client.ContainerRemove(ctx, resp.ID, container.RemoveOptions{Force: true})
		return "", fmt.Errorf("%w: start container: %v", domain.ErrSandboxUnavailable, err)
	}

	s.logger.Info("sandbox container started", "image", s.cfg.Image, "container", resp.ID[:12])
	s.containerID = resp.ID
	return resp.ID, nil
}

func (s *DockerSandbox) ensureImage(ctx context.Context) error {
	if _, err := s.client.ImageInspect(ctx, s.cfg.Image); err == nil {
		return nil
	}

	s.logger.Info("pulling sandbox image", "image", s.cfg.Image)
	reader, err := s.client.ImagePull(ctx, s.cfg.Image, image.PullOptions{})
	if err != nil {
		return fmt.Errorf("pull image %s: %w", s.cfg.Image, err)
	}
	defer reader.Close()
	_, _ = io.Copy(io.Discard, reader)
	return nil
}

func (s *DockerSandbox) copyFiles(ctx context.Context, containerID, runDir string, files map[string]string) error {
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)

	for name, content := range files {
		header := &tar.Header{
			Name: runDir + "/" + name,
			Mode: 0o644,
			Size: int64(len(content)),
		}
		if err := tw.WriteHeader(header); err != nil {
			return fmt.Errorf("write tar header: %w", err)
		}
		if _, err := tw.Write([]byte(content)); err != nil {
			return fmt.Errorf("write tar content: %w", err)
		}
	}
	if err := tw.Close(); err != nil {
		return fmt.Errorf("close tar: %w", err)
	}

	return s.client.CopyToContainer(ctx, containerID, workspaceDir, &buf, container.CopyToContainerOptions{})
}

func (s *DockerSandbox) exec(ctx context.Context, containerID, runDir string) (stdout, stderr string, err error) {
	execCtx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	execResp, err := s.client.ContainerExecCreate(execCtx, containerID, container.ExecOptions{
		Cmd:          []string{"python3", harnessFile},
		WorkingDir:   workspaceDir + "/" + runDir,
		AttachStdout: true,
		AttachStderr: true,
	})
	if err != nil {
		return "", "", fmt.Errorf("%w: create exec: %v", domain.ErrSandboxUnavailable, err)
	}

	attachResp, err := s.client.ContainerExecAttach(execCtx, execResp.ID, container.ExecAttachOptions{})
	if err != nil {
		return "", "", fmt.Errorf("%w: attach exec: %v", domain.ErrSandboxUnavailable, err)
	}
	defer attachResp.Close()

	var outBuf bytes.Buffer
	_, _ = io.Copy(&outBuf, attachResp.Reader)

	if execCtx.Err() != nil {
		return "", "", fmt.Errorf("execution timed out after %s", s.cfg.Timeout)
	}

	stdout, stderr = demuxOutput(outBuf.Bytes())
	return stdout, stderr, nil
}

// demuxOutput separates Docker's multiplexed stdout/stderr stream. Frames
// carry 8-byte headers: [type 1=stdout 2=stderr][0][0][0][len u32 BE].
func demuxOutput(data []byte) (stdout, stderr string) {
	var outBuf, errBuf strings.Builder

	for len(data) >= 8 {
		streamType := data[0]
		size := int(data[4])<<24 | int(data[5])<<16 | int(data[6])<<8 | int(data[7])
		data = data[8:]

		if size > len(data) {
			size = len(data)
		}
		chunk := string(data[:size])
		data = data[size:]

		switch streamType {
		case 1:
			outBuf.WriteString(chunk)
		case 2:
			errBuf.WriteString(chunk)
		}
	}

	// No headers at all: treat everything as stdout.
	if outBuf.Len() == 0 && errBuf.Len() == 0 && len(data) > 0 {
		return string(data), ""
	}
	return outBuf.String(), errBuf.String()
}
