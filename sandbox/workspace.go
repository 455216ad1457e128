package sandbox

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/xid"
	"go.uber.org/zap"

	"github.com/isdmx/codeprobe/metrics"
)

// Cleanup retry policy
const (
	cleanupAttempts = 3
	cleanupBackoff  = 50 * time.Millisecond
)

// Workspace is the on-disk scope of one execution: a single temp file for
// interpreted toolchains, or a temp directory holding the entry file and
// its build artifacts for compiled ones. It must be closed on every path.
type Workspace struct {
	// Root is the removable path: the file itself or the directory
	Root   string
	Source string
	Dir    bool

	fs     FileSystem
	logger *zap.Logger
	closed bool
}

// NewWorkspace materializes code for tc under the system temp directory
func NewWorkspace(fs FileSystem, tc Toolchain, code string, logger *zap.Logger) (*Workspace, error) {
	prefix := "codeprobe-" + xid.New().String() + "-"

	if !tc.Compiled() {
		path, err := fs.CreateTemp("", prefix+"*"+tc.Extension(), []byte(code))
		if err != nil {
			return nil, fmt.Errorf("failed to create workspace file: %w", err)
		}
		return &Workspace{Root: path, Source: path, fs: fs, logger: logger}, nil
	}

	dir, err := fs.MkdirTemp("", prefix+"*")
	if err != nil {
		return nil, fmt.Errorf("failed to create workspace directory: %w", err)
	}

	ws := &Workspace{Root: dir, Source: filepath.Join(dir, tc.EntryFile), Dir: true, fs: fs, logger: logger}
	if err := fs.WriteFile(ws.Source, []byte(code), FilePermission); err != nil {
		if closeErr := ws.Close(); closeErr != nil {
			logger.Error("Failed to remove workspace", zap.Error(closeErr))
		}
		return nil, fmt.Errorf("failed to write source file: %w", err)
	}

	return ws, nil
}

// Paths returns the host paths used to expand toolchain commands
func (w *Workspace) Paths() Paths {
	workdir := filepath.Dir(w.Source)
	return Paths{
		Source:  w.Source,
		Workdir: workdir,
		Binary:  filepath.Join(workdir, BinaryName),
	}
}

// Close removes the workspace, retrying transient failures. A workspace that
// is still present afterwards yields ErrResourceLeak. Close is idempotent.
func (w *Workspace) Close() error {
	if w.closed {
		return nil
	}

	var lastErr error
	for attempt := 1; attempt <= cleanupAttempts; attempt++ {
		lastErr = w.fs.RemoveAll(w.Root)
		if lastErr == nil {
			exists, statErr := w.fs.FileExists(w.Root)
			if statErr == nil && !exists {
				w.closed = true
				return nil
			}
			lastErr = statErr
			if lastErr == nil {
				lastErr = fmt.Errorf("path still exists")
			}
		}

		w.logger.Warn("Workspace removal failed",
			zap.String("path", w.Root),
			zap.Int("attempt", attempt),
			zap.Error(lastErr))
		if attempt < cleanupAttempts {
			time.Sleep(time.Duration(attempt) * cleanupBackoff)
		}
	}

	metrics.WorkspaceLeaksTotal.Inc()
	return fmt.Errorf("%w: %s: %v", ErrResourceLeak, w.Root, lastErr)
}

// Archive returns a gzipped tar of the workspace rooted at dirName. Single
// file workspaces are stored under the toolchain entry file name. Entries
// are world-writable so an unprivileged container user can build in place.
func (w *Workspace) Archive(dirName, entryFile string) ([]byte, error) {
	var buf bytes.Buffer
	gzipWriter := gzip.NewWriter(&buf)
	tarWriter := tar.NewWriter(gzipWriter)

	if err := tarWriter.WriteHeader(&tar.Header{
		Name:     dirName + "/",
		Typeflag: tar.TypeDir,
		Mode:     0o777,
		ModTime:  time.Now(),
	}); err != nil {
		return nil, err
	}

	var err error
	if w.Dir {
		err = filepath.Walk(w.Root, func(file string, fi os.FileInfo, err error) error {
			if err != nil {
				return err
			}

			relPath, err := filepath.Rel(w.Root, file)
			if err != nil {
				return err
			}
			if relPath == "." {
				return nil
			}

			header, err := tar.FileInfoHeader(fi, file)
			if err != nil {
				return err
			}
			header.Name = filepath.ToSlash(filepath.Join(dirName, relPath))
			header.Mode = 0o666
			if fi.IsDir() {
				header.Mode = 0o777
			}

			if err := tarWriter.WriteHeader(header); err != nil {
				return err
			}

			if !fi.IsDir() {
				return copyFile(tarWriter, file)
			}
			return nil
		})
	} else {
		err = w.archiveFile(tarWriter, dirName+"/"+entryFile)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to archive workspace: %w", err)
	}

	if err := tarWriter.Close(); err != nil {
		return nil, err
	}
	if err := gzipWriter.Close(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func (w *Workspace) archiveFile(tw *tar.Writer, name string) error {
	fi, err := os.Stat(w.Source)
	if err != nil {
		return err
	}

	header, err := tar.FileInfoHeader(fi, "")
	if err != nil {
		return err
	}
	header.Name = name
	header.Mode = 0o666

	if err := tw.WriteHeader(header); err != nil {
		return err
	}
	return copyFile(tw, w.Source)
}

func copyFile(dst io.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = io.Copy(dst, f)
	return err
}
