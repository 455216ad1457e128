package sandbox

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/network"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/stdcopy"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
	"go.uber.org/zap"
)

// Container layout
const (
	containerWorkdir = "/workspace"
	removeTimeout    = 10 * time.Second
	pidsLimit        = int64(128)
)

// containerEnv lets toolchains that need a writable home run as nobody
var containerEnv = []string{"HOME=/tmp", "GOCACHE=/tmp/.cache/go-build", "GOPATH=/tmp/go"}

// DockerAPI is the subset of the Docker Engine client used by DockerExecutor
type DockerAPI interface {
	ImagePull(ctx context.Context, ref string, options image.PullOptions) (io.ReadCloser, error)
	ContainerCreate(ctx context.Context, config *container.Config, hostConfig *container.HostConfig,
		networkingConfig *network.NetworkingConfig, platform *ocispec.Platform, containerName string) (container.CreateResponse, error)
	ContainerStart(ctx context.Context, containerID string, options container.StartOptions) error
	CopyToContainer(ctx context.Context, containerID, dstPath string, content io.Reader, options container.CopyToContainerOptions) error
	ContainerExecCreate(ctx context.Context, containerID string, options container.ExecOptions) (container.ExecCreateResponse, error)
	ContainerExecAttach(ctx context.Context, execID string, options container.ExecStartOptions) (types.HijackedResponse, error)
	ContainerExecInspect(ctx context.Context, execID string) (container.ExecInspect, error)
	ContainerRemove(ctx context.Context, containerID string, options container.RemoveOptions) error
}

// DockerExecutor implements SandboxExecutor with one throwaway container per
// execution. Force-removing the container on exit also kills every process
// the code started.
type DockerExecutor struct {
	logger   *zap.Logger
	config   *Config
	registry *Registry
	cli      DockerAPI
	fs       FileSystem
}

// DockerExecutorOption defines a functional option for DockerExecutor
type DockerExecutorOption func(*DockerExecutor)

// WithDockerFileSystem sets the FileSystem for DockerExecutor
func WithDockerFileSystem(fs FileSystem) DockerExecutorOption {
	return func(d *DockerExecutor) {
		d.fs = fs
	}
}

// NewDockerExecutor creates a new DockerExecutor on top of cli
func NewDockerExecutor(logger *zap.Logger, config *Config, registry *Registry, cli DockerAPI, opts ...DockerExecutorOption) *DockerExecutor {
	executor := &DockerExecutor{
		logger:   logger,
		config:   config,
		registry: registry,
		cli:      cli,
		fs:       &RealFileSystem{},
	}

	for _, opt := range opts {
		opt(executor)
	}

	return executor
}

// NewDockerClient connects to the Docker daemon configured by the environment
func NewDockerClient() (*client.Client, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("failed to create docker client: %w", err)
	}
	return cli, nil
}

// Execute runs the code in a fresh container
func (d *DockerExecutor) Execute(ctx context.Context, req ExecuteRequest) (result ExecuteResult, err error) {
	tc, err := d.registry.Resolve(req.Language)
	if err != nil {
		return ExecuteResult{}, err
	}
	if strings.TrimSpace(req.Code) == "" {
		return ExecuteResult{}, ErrEmptyCode
	}
	if tc.Image == "" {
		return ExecuteResult{}, fmt.Errorf("no image configured for %s", tc.Language)
	}

	defer func() {
		observe(d.logger, "docker", tc.Language, result, err)
	}()

	ws, err := NewWorkspace(d.fs, tc, req.Code, d.logger)
	if err != nil {
		return ExecuteResult{}, err
	}
	defer func() {
		if closeErr := ws.Close(); closeErr != nil {
			d.logger.Error("Failed to remove workspace", zap.String("path", ws.Root), zap.Error(closeErr))
		}
	}()

	archive, err := ws.Archive(strings.TrimPrefix(containerWorkdir, "/"), tc.EntryFile)
	if err != nil {
		return ExecuteResult{}, err
	}

	containerID, err := d.createContainer(ctx, tc)
	if err != nil {
		return ExecuteResult{}, err
	}
	defer d.removeContainer(containerID)

	if err := d.cli.CopyToContainer(ctx, containerID, "/", bytes.NewReader(archive), container.CopyToContainerOptions{}); err != nil {
		return ExecuteResult{}, fmt.Errorf("failed to copy workspace into container: %w", err)
	}

	paths := Paths{
		Source:  path.Join(containerWorkdir, tc.EntryFile),
		Workdir: containerWorkdir,
		Binary:  path.Join(containerWorkdir, BinaryName),
	}

	return runToolchain(ctx, tc, paths, requestTimeout(req, d.config), func(ctx context.Context, args []string) (CommandOutput, error) {
		return d.exec(ctx, containerID, args)
	})
}

func (d *DockerExecutor) createContainer(ctx context.Context, tc Toolchain) (string, error) {
	networkMode := container.NetworkMode("none")
	if d.config.NetworkEnabled {
		networkMode = "bridge"
	}
	pids := pidsLimit

	cfg := &container.Config{
		Image:      tc.Image,
		Cmd:        []string{"sleep", "infinity"},
		WorkingDir: containerWorkdir,
		Env:        append(append([]string{}, containerEnv...), tc.Env...),
		User:       "nobody",
	}
	hostCfg := &container.HostConfig{
		NetworkMode: networkMode,
		Resources: container.Resources{
			Memory:    int64(d.config.MemoryMB) * 1024 * 1024,
			PidsLimit: &pids,
		},
		CapDrop:     []string{"ALL"},
		SecurityOpt: []string{"no-new-privileges:true"},
	}

	resp, err := d.cli.ContainerCreate(ctx, cfg, hostCfg, nil, nil, "")
	if err != nil && client.IsErrNotFound(err) {
		d.logger.Info("Pulling image", zap.String("image", tc.Image))
		if pullErr := d.pullImage(ctx, tc.Image); pullErr != nil {
			return "", pullErr
		}
		resp, err = d.cli.ContainerCreate(ctx, cfg, hostCfg, nil, nil, "")
	}
	if err != nil {
		return "", fmt.Errorf("failed to create container: %w", err)
	}

	if err := d.cli.ContainerStart(ctx, resp.ID, container.StartOptions{}); err != nil {
		d.removeContainer(resp.ID)
		return "", fmt.Errorf("failed to start container: %w", err)
	}

	return resp.ID, nil
}

func (d *DockerExecutor) pullImage(ctx context.Context, ref string) error {
	reader, err := d.cli.ImagePull(ctx, ref, image.PullOptions{})
	if err != nil {
		return fmt.Errorf("failed to pull image %s: %w", ref, err)
	}
	defer reader.Close()

	// The pull only completes once the progress stream is drained
	if _, err := io.Copy(io.Discard, reader); err != nil {
		return fmt.Errorf("failed to pull image %s: %w", ref, err)
	}
	return nil
}

// removeContainer uses its own context so cleanup still happens after the
// request context expired
func (d *DockerExecutor) removeContainer(id string) {
	ctx, cancel := context.WithTimeout(context.Background(), removeTimeout)
	defer cancel()

	if err := d.cli.ContainerRemove(ctx, id, container.RemoveOptions{Force: true}); err != nil {
		d.logger.Error("Failed to remove container", zap.String("id", id), zap.Error(err))
	}
}

func (d *DockerExecutor) exec(ctx context.Context, containerID string, args []string) (CommandOutput, error) {
	execResp, err := d.cli.ContainerExecCreate(ctx, containerID, container.ExecOptions{
		AttachStdout: true,
		AttachStderr: true,
		WorkingDir:   containerWorkdir,
		Cmd:          args,
	})
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return CommandOutput{ExitCode: TimeoutExitCode, TimedOut: true}, nil
		}
		return CommandOutput{}, fmt.Errorf("failed to create exec: %w", err)
	}

	attachResp, err := d.cli.ContainerExecAttach(ctx, execResp.ID, container.ExecStartOptions{})
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return CommandOutput{ExitCode: TimeoutExitCode, TimedOut: true}, nil
		}
		return CommandOutput{}, fmt.Errorf("failed to attach to exec: %w", err)
	}
	defer attachResp.Close()

	var stdout, stderr bytes.Buffer
	done := make(chan error, 1)
	go func() {
		_, copyErr := stdcopy.StdCopy(&stdout, &stderr, attachResp.Reader)
		done <- copyErr
	}()

	select {
	case copyErr := <-done:
		if copyErr != nil {
			return CommandOutput{}, fmt.Errorf("failed to read exec output: %w", copyErr)
		}
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return CommandOutput{ExitCode: TimeoutExitCode, TimedOut: true}, nil
		}
		return CommandOutput{}, ctx.Err()
	}

	inspect, err := d.cli.ContainerExecInspect(ctx, execResp.ID)
	if err != nil {
		return CommandOutput{}, fmt.Errorf("failed to inspect exec: %w", err)
	}

	return CommandOutput{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		ExitCode: inspect.ExitCode,
	}, nil
}
