// Package archive unpacks package archives into the packages folder.
package archive

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"nudeploy/internal/logger"
	"nudeploy/internal/repository"
)

// Fetcher makes a package archive available on the local disk
type Fetcher interface {
	Fetch(ctx context.Context, pkg *repository.Package) (string, error)
}

type Extractor struct {
	fetcher Fetcher
}

func NewExtractor(fetcher Fetcher) *Extractor {
	return &Extractor{fetcher: fetcher}
}

/**
 * Extract a package into "<packagesRoot>/<Id>.<Version>"
 * @param {*repository.Package} pkg - Package to extract
 * @param {string} packagesRoot - Root of installed package folders
 * @returns {string} Path of the package folder
 * @description
 * - Unpacks into a temporary sibling folder and renames it into place
 * - An existing folder of the same version is replaced
 * @throws
 * - Fetch errors, corrupt archives, entries escaping the target folder
 */
func (e *Extractor) Extract(ctx context.Context, pkg *repository.Package, packagesRoot string) (string, error) {
	archivePath, err := e.fetcher.Fetch(ctx, pkg)
	if err != nil {
		return "", fmt.Errorf("fetch '%s': %w", pkg, err)
	}
	if err := os.MkdirAll(packagesRoot, 0o755); err != nil {
		return "", fmt.Errorf("create packages root: %w", err)
	}
	target := filepath.Join(packagesRoot, pkg.String())
	staging, err := os.MkdirTemp(packagesRoot, "."+pkg.String()+".extract-*")
	if err != nil {
		return "", fmt.Errorf("create staging folder: %w", err)
	}
	defer os.RemoveAll(staging)

	if err := Unzip(archivePath, staging); err != nil {
		return "", err
	}
	if err := os.RemoveAll(target); err != nil {
		return "", fmt.Errorf("remove previous '%s': %w", target, err)
	}
	if err := os.Rename(staging, target); err != nil {
		return "", fmt.Errorf("move into '%s': %w", target, err)
	}
	logger.Infof("Archive: extracted '%s' to '%s'", archivePath, target)
	return target, nil
}

// Unzip extracts every entry of the zip file src below dest.
func Unzip(src, dest string) error {
	r, err := zip.OpenReader(src)
	if err != nil {
		return fmt.Errorf("open archive '%s': %w", src, err)
	}
	defer r.Close()

	destRoot, err := filepath.Abs(dest)
	if err != nil {
		return err
	}
	for _, f := range r.File {
		if err := extractFile(f, destRoot); err != nil {
			return fmt.Errorf("extract '%s' from '%s': %w", f.Name, src, err)
		}
	}
	return nil
}

func extractFile(f *zip.File, destRoot string) error {
	name := filepath.FromSlash(strings.ReplaceAll(f.Name, "\\", "/"))
	path := filepath.Join(destRoot, name)
	if path != destRoot && !strings.HasPrefix(path, destRoot+string(os.PathSeparator)) {
		return fmt.Errorf("illegal path outside the package folder")
	}
	if f.FileInfo().IsDir() {
		return os.MkdirAll(path, 0o755)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	mode := f.Mode().Perm()
	if mode == 0 {
		mode = 0o644
	}
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()
	out, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, rc); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
