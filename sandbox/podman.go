package sandbox

import (
	"fmt"
	"os"

	"github.com/docker/docker/client"
)

// PodmanHost returns the Podman API endpoint. An explicit host wins, then
// CONTAINER_HOST, then the rootless socket of the current user.
func PodmanHost(host string) string {
	if host != "" {
		return host
	}
	if env := os.Getenv("CONTAINER_HOST"); env != "" {
		return env
	}
	if runtimeDir := os.Getenv("XDG_RUNTIME_DIR"); runtimeDir != "" {
		return "unix://" + runtimeDir + "/podman/podman.sock"
	}
	return fmt.Sprintf("unix:///run/user/%d/podman/podman.sock", os.Getuid())
}

// NewPodmanClient connects to Podman through its Docker-compatible API, so
// DockerExecutor can drive Podman containers unchanged
func NewPodmanClient(host string) (*client.Client, error) {
	cli, err := client.NewClientWithOpts(
		client.WithHost(PodmanHost(host)),
		client.WithAPIVersionNegotiation(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create podman client: %w", err)
	}
	return cli, nil
}
