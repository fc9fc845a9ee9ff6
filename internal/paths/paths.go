// Package paths resolves the application data directory and the bundled
// resource layout (models, helper binaries, rendition output) underneath it.
package paths

import (
	"fmt"
	"os"
	"path/filepath"

	cp "github.com/otiai10/copy"
)

const appDirName = "phototag"

// AppPaths is the resolved set of directories and files the rest of the
// engine reads and writes under. Construct with Discover.
type AppPaths struct {
	Root        string
	DBPath      string
	ThumbsDir   string
	PreviewsDir string
	ModelsDir   string
	BinDir      string

	// devRoot is the working directory at process start, used as a fallback
	// source for bundled resources when running outside a packaged install.
	devRoot string
}

// Discover resolves the app data directory (honoring dataDirOverride if
// non-empty), ensures the standard subdirectories exist, and copies any
// bundled "models"/"bin" resource trees found next to the running binary
// or in the working directory into place on first run.
func Discover(dataDirOverride, modelsDirOverride, binDirOverride string) (*AppPaths, error) {
	root := dataDirOverride
	if root == "" {
		base, err := os.UserConfigDir()
		if err != nil {
			return nil, fmt.Errorf("resolve app data dir: %w", err)
		}
		root = filepath.Join(base, appDirName)
	}

	wd, err := os.Getwd()
	if err != nil {
		wd = "."
	}

	p := &AppPaths{
		Root:        root,
		DBPath:      filepath.Join(root, "library.db"),
		ThumbsDir:   filepath.Join(root, "thumbs"),
		PreviewsDir: filepath.Join(root, "previews"),
		ModelsDir:   nonEmpty(modelsDirOverride, filepath.Join(root, "models")),
		BinDir:      nonEmpty(binDirOverride, filepath.Join(root, "bin")),
		devRoot:     wd,
	}

	for _, dir := range []string{p.ThumbsDir, p.PreviewsDir, p.ModelsDir, p.BinDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create %s: %w", dir, err)
		}
	}

	p.seedBundledResources()

	return p, nil
}

// seedBundledResources copies a "models"/"bin" tree sitting next to the
// executable (or in the working directory, for `go run`) into the resolved
// data directories. Missing bundles are not an error: a dev checkout may
// keep models outside the bundle entirely.
func (p *AppPaths) seedBundledResources() {
	exeDir := p.devRoot
	if exe, err := os.Executable(); err == nil {
		exeDir = filepath.Dir(exe)
	}

	for _, candidate := range []string{exeDir, p.devRoot} {
		copyIfPresent(filepath.Join(candidate, "models"), p.ModelsDir)
		copyIfPresent(filepath.Join(candidate, "bin"), p.BinDir)
	}
}

func copyIfPresent(src, dest string) {
	if info, err := os.Stat(src); err != nil || !info.IsDir() {
		return
	}
	_ = cp.Copy(src, dest)
}

func fileExists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

// ResolveModel resolves a model filename against ModelsDir, unless name is
// already an absolute path.
func (p *AppPaths) ResolveModel(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(p.ModelsDir, name)
}

// ResolveBin resolves a helper binary name against BinDir, falling back to
// a "./bin" directory under the working directory for local dev runs where
// no bundle was ever seeded.
func (p *AppPaths) ResolveBin(name string) string {
	primary := filepath.Join(p.BinDir, name)
	if ok, _ := fileExists(primary); ok {
		return primary
	}
	devFallback := filepath.Join(p.devRoot, "bin", name)
	if ok, _ := fileExists(devFallback); ok {
		return devFallback
	}
	return primary
}

// PreviewsDirPath returns the directory rendition output previews are
// written under.
func (p *AppPaths) PreviewsDirPath() string { return p.PreviewsDir }

// ThumbsDirPath returns the directory rendition output thumbnails are
// written under.
func (p *AppPaths) ThumbsDirPath() string { return p.ThumbsDir }

// EnsureSubdir creates dir (and parents) under Root if it doesn't exist.
func (p *AppPaths) EnsureSubdir(name string) (string, error) {
	dir := filepath.Join(p.Root, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("ensure subdir %s: %w", name, err)
	}
	return dir, nil
}

func nonEmpty(override, fallback string) string {
	if override != "" {
		return override
	}
	return fallback
}
