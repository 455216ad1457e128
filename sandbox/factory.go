package sandbox

import (
	"fmt"

	"github.com/docker/docker/client"
	"go.uber.org/zap"

	"github.com/isdmx/codeprobe/config"
)

// NewExecutor creates an appropriate sandbox executor based on the configuration
func NewExecutor(logger *zap.Logger, cfg *config.Config, registry *Registry) (SandboxExecutor, error) {
	executorConfig := &Config{
		TimeoutSec:     cfg.Sandbox.TimeoutSec,
		MemoryMB:       cfg.Sandbox.MemoryMB,
		NetworkEnabled: cfg.Sandbox.NetworkEnabled,
	}

	switch cfg.Sandbox.Backend {
	case "docker":
		var (
			cli *client.Client
			err error
		)
		if cfg.Sandbox.Host != "" {
			cli, err = client.NewClientWithOpts(client.WithHost(cfg.Sandbox.Host), client.WithAPIVersionNegotiation())
		} else {
			cli, err = NewDockerClient()
		}
		if err != nil {
			return nil, err
		}
		return NewDockerExecutor(logger, executorConfig, registry, cli), nil
	case "podman":
		cli, err := NewPodmanClient(cfg.Sandbox.Host)
		if err != nil {
			return nil, err
		}
		return NewDockerExecutor(logger, executorConfig, registry, cli), nil
	case "local", "":
		return NewLocalExecutor(logger, executorConfig, registry), nil
	default:
		return nil, fmt.Errorf("unsupported backend: %s", cfg.Sandbox.Backend)
	}
}
