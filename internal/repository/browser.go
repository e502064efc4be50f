// Package repository locates deployment packages in the configured sources
// and makes their archives available locally.
package repository

import (
	"context"
	"fmt"
	"path/filepath"

	"nudeploy/internal/logger"
	"nudeploy/internal/models"
	"nudeploy/internal/utils"
)

// Browser searches every configured source
type Browser struct {
	sources  *SourceStore
	cacheDir string
}

func NewBrowser(sources *SourceStore, cacheDir string) *Browser {
	return &Browser{sources: sources, cacheDir: cacheDir}
}

func (b *Browser) Sources() ([]models.PackageSource, error) {
	return b.sources.Load()
}

/**
 * Find the latest version of a package across all sources
 * @param {string} packageId - Package id, compared case-insensitively
 * @returns {*Package} Highest version found
 * @returns {bool} false if no source offers the package
 * @description
 * - A failing source is logged and skipped
 * - On equal versions the first configured source wins
 */
func (b *Browser) FindPackage(ctx context.Context, packageId string) (*Package, bool, error) {
	sources, err := b.sources.Load()
	if err != nil {
		return nil, false, err
	}
	var latest *Package
	for _, src := range sources {
		versions, err := NewFeed(src).Versions(ctx, packageId)
		if err != nil {
			logger.Warnf("Repository: source '%s' (%s) failed: %v", src.Name, src.Url, err)
			continue
		}
		for _, p := range versions {
			if latest == nil || p.Version.GreaterThan(latest.Version) {
				latest = p
			}
		}
	}
	if latest == nil {
		return nil, false, nil
	}
	logger.Debugf("Repository: found '%s' in source '%s'", latest, latest.Source)
	return latest, true, nil
}

/**
 * Make the archive of pkg available on the local disk
 * @returns {string} Path of the archive
 * @description
 * - Local archives are used in place
 * - Remote archives are downloaded into the cache directory and verified
 *   against the published sha256 when there is one
 */
func (b *Browser) Fetch(ctx context.Context, pkg *Package) (string, error) {
	if !pkg.IsRemote() {
		return pkg.Location, nil
	}
	savePath := filepath.Join(b.cacheDir, pkg.String()+ArchiveExt)
	logger.Infof("Repository: downloading '%s' to '%s'", pkg.Location, savePath)
	if err := utils.GetFile(ctx, pkg.Location, nil, savePath, utils.WithBearerToken(pkg.Token)); err != nil {
		return "", err
	}
	if pkg.Checksum != "" {
		sum, err := utils.CalcFileSha256(savePath)
		if err != nil {
			return "", err
		}
		if sum != pkg.Checksum {
			return "", fmt.Errorf("checksum mismatch for '%s': expected %s, actual %s", pkg.Location, pkg.Checksum, sum)
		}
	}
	return savePath, nil
}
