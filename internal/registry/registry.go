// Package registry persists the set of installed packages.
//
// The registry is a list of (Id, Version) descriptors, unique by Id compared
// case-insensitively and kept sorted by Id. Every mutation loads the whole
// list, changes it and writes the whole list back.
package registry

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"nudeploy/internal/logger"
)

// ErrInvalidArgument reports a caller error such as an empty package id.
var ErrInvalidArgument = errors.New("invalid argument")

// PackageInfo describes one installed package.
type PackageInfo struct {
	Id      string `json:"Id"`
	Version string `json:"Version"`
}

// IsValid reports whether both fields are set.
func (p PackageInfo) IsValid() bool {
	return strings.TrimSpace(p.Id) != "" && strings.TrimSpace(p.Version) != ""
}

// Equals compares both fields case-insensitively.
func (p PackageInfo) Equals(other PackageInfo) bool {
	return strings.EqualFold(p.Id, other.Id) && strings.EqualFold(p.Version, other.Version)
}

// String returns "<Id>.<Version>", the installed folder name of the package.
func (p PackageInfo) String() string {
	return fmt.Sprintf("%s.%s", p.Id, p.Version)
}

// Store loads and saves the full registry content.
type Store interface {
	Load() ([]PackageInfo, error)
	Save(packages []PackageInfo) error
}

// Locker is implemented by stores that can serialize read-modify-write cycles
// across processes.
type Locker interface {
	WithLock(fn func() error) error
}

// Registry provides add-or-update and remove on top of a Store.
type Registry struct {
	store Store
}

func NewRegistry(store Store) *Registry {
	return &Registry{store: store}
}

/**
 * Get all installed packages
 * @returns {[]PackageInfo} Valid entries, one per package id, sorted by id
 * @description
 * - Drops invalid entries
 * - Removes duplicate ids (case-insensitive), the last entry wins
 */
func (r *Registry) GetInstalledPackages() ([]PackageInfo, error) {
	packages, err := r.store.Load()
	if err != nil {
		return nil, fmt.Errorf("load registry: %w", err)
	}
	return normalize(packages), nil
}

/**
 * Add a package or replace the entry with the same id
 * @param {PackageInfo} pkg - Package to record
 * @returns {bool} true if the registry was saved
 * @description
 * - Invalid descriptors are rejected without touching the storage
 * - The whole registry is rewritten
 */
func (r *Registry) AddOrUpdate(pkg PackageInfo) (bool, error) {
	if !pkg.IsValid() {
		logger.Warnf("Registry: refusing to add invalid package '%s'", pkg)
		return false, nil
	}
	saved := false
	err := r.withLock(func() error {
		existing, err := r.store.Load()
		if err != nil {
			logger.Errorf("Registry: load failed: %v", err)
			return nil
		}
		byId := make(map[string]PackageInfo, len(existing)+1)
		for _, p := range existing {
			if p.IsValid() {
				byId[strings.ToLower(p.Id)] = p
			}
		}
		byId[strings.ToLower(pkg.Id)] = pkg
		if err := r.store.Save(sorted(byId)); err != nil {
			logger.Errorf("Registry: save failed: %v", err)
			return nil
		}
		saved = true
		return nil
	})
	if err != nil {
		logger.Errorf("Registry: %v", err)
		return false, nil
	}
	return saved, nil
}

/**
 * Remove the entry of a package
 * @param {string} packageId - Package id, compared case-insensitively
 * @returns {bool} false if the package is not registered or the save failed
 * @throws
 * - ErrInvalidArgument if packageId is blank
 */
func (r *Registry) Remove(packageId string) (bool, error) {
	if strings.TrimSpace(packageId) == "" {
		return false, fmt.Errorf("%w: package id is required", ErrInvalidArgument)
	}
	removed := false
	err := r.withLock(func() error {
		existing, err := r.store.Load()
		if err != nil {
			logger.Errorf("Registry: load failed: %v", err)
			return nil
		}
		remaining := make([]PackageInfo, 0, len(existing))
		found := false
		for _, p := range existing {
			if strings.EqualFold(p.Id, packageId) {
				found = true
				continue
			}
			remaining = append(remaining, p)
		}
		if !found {
			logger.Infof("Registry: package '%s' is not registered", packageId)
			return nil
		}
		if err := r.store.Save(normalize(remaining)); err != nil {
			logger.Errorf("Registry: save failed: %v", err)
			return nil
		}
		removed = true
		return nil
	})
	if err != nil {
		logger.Errorf("Registry: %v", err)
		return false, nil
	}
	return removed, nil
}

func (r *Registry) withLock(fn func() error) error {
	if locker, ok := r.store.(Locker); ok {
		return locker.WithLock(fn)
	}
	return fn()
}

func normalize(packages []PackageInfo) []PackageInfo {
	byId := make(map[string]PackageInfo, len(packages))
	for _, p := range packages {
		if p.IsValid() {
			byId[strings.ToLower(p.Id)] = p
		}
	}
	return sorted(byId)
}

func sorted(byId map[string]PackageInfo) []PackageInfo {
	list := make([]PackageInfo, 0, len(byId))
	for _, p := range byId {
		list = append(list, p)
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].Id < list[j].Id
	})
	return list
}
