// Package packager invokes the external packaging tool that produces the
// per-item XML bundle, caching its output between runs.
package packager

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/miku/clam"
	log "github.com/sirupsen/logrus"
)

// Fetcher runs the packaging tool once per item and caches the result. The
// fetch is skipped when a cached package already exists, unless Force is set.
type Fetcher struct {
	Tool     string // executable name, e.g. "dspace-packager"
	Template string // command template with {id} and {output} placeholders
	CacheDir string
	Force    bool
}

// CheckTool verifies the packaging tool is on PATH. A missing tool aborts the
// whole run before any item is touched.
func (f *Fetcher) CheckTool() error {
	if _, err := exec.LookPath(f.Tool); err != nil {
		return fmt.Errorf("packaging tool: %w", err)
	}
	return nil
}

// Path returns the cache location of the package for a handle.
func (f *Fetcher) Path(handle string) string {
	return filepath.Join(f.CacheDir, strings.ReplaceAll(handle, "/", "_")+".xml")
}

// Fetch ensures the package for a handle exists on disk and returns its
// path. The subprocess call blocks; there is no timeout.
func (f *Fetcher) Fetch(handle string) (string, error) {
	out := f.Path(handle)
	if !f.Force {
		if _, err := os.Stat(out); err == nil {
			log.WithFields(log.Fields{"handle": handle, "path": out}).Debug("package cached, skipping fetch")
			return out, nil
		}
	}
	if err := os.MkdirAll(f.CacheDir, 0o755); err != nil {
		return "", err
	}
	err := clam.Run(f.Template, clam.Map{"id": handle, "output": out})
	if err != nil {
		os.Remove(out)
		return "", fmt.Errorf("package %s: %w", handle, err)
	}
	info, err := os.Stat(out)
	if err != nil {
		return "", fmt.Errorf("package %s: tool produced no output: %w", handle, err)
	}
	if info.Size() == 0 {
		os.Remove(out)
		return "", fmt.Errorf("package %s: tool produced an empty file", handle)
	}
	return out, nil
}
