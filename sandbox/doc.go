// Package sandbox runs untrusted snippets with a per-language toolchain.
//
// Every execution gets its own workspace, created with a unique name and
// removed on every exit path. Interpreted languages run once with the full
// timeout; compiled languages split it evenly between a compile phase and a
// run phase, and a failed compile skips the run. On timeout the whole
// process tree is killed and only the timeout marker is reported.
//
// Backends:
//
//   - local: host processes in their own process group
//   - docker: one throwaway container per execution via the Docker Engine API
//   - podman: the docker backend pointed at Podman's compatible API socket
//
// The local backend kills the process group when a phase ends, so
// background children do not outlive the execution. A child that leaves
// the group with setsid escapes this; use a container backend when that
// matters.
//
// Usage:
//
//	registry, err := sandbox.NewRegistry(cfg.Languages)
//	executor, err := sandbox.NewExecutor(logger, cfg, registry)
//	result, err := executor.Execute(ctx, sandbox.ExecuteRequest{
//	    Language: "python",
//	    Code:     "print('Hello, World!')",
//	})
package sandbox
