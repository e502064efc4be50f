package repository

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"nudeploy/internal/models"
	"nudeploy/internal/utils"
)

var (
	ErrSourceExists   = errors.New("source already exists")
	ErrSourceNotFound = errors.New("source not found")
)

// SourceStore keeps the configured repositories in a JSON file
type SourceStore struct {
	path string
}

func NewSourceStore(path string) *SourceStore {
	return &SourceStore{path: path}
}

func (s *SourceStore) Path() string {
	return s.path
}

/**
 * Load configured sources
 * @returns {[]models.PackageSource} Sources in file order, empty if the file is missing
 */
func (s *SourceStore) Load() ([]models.PackageSource, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []models.PackageSource{}, nil
		}
		return nil, fmt.Errorf("read '%s': %w", s.path, err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return []models.PackageSource{}, nil
	}
	var sources []models.PackageSource
	if err := json.Unmarshal(data, &sources); err != nil {
		return nil, fmt.Errorf("unmarshal '%s': %w", s.path, err)
	}
	valid := sources[:0]
	for _, src := range sources {
		if strings.TrimSpace(src.Url) != "" {
			valid = append(valid, src)
		}
	}
	return valid, nil
}

func (s *SourceStore) save(sources []models.PackageSource) error {
	sort.SliceStable(sources, func(i, j int) bool {
		return strings.ToLower(sources[i].Name) < strings.ToLower(sources[j].Name)
	})
	data, err := json.MarshalIndent(sources, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal sources: %w", err)
	}
	return utils.WriteFileAtomic(s.path, data, 0o644)
}

// Add configures a repository that needs no credentials
func (s *SourceStore) Add(name, url string) error {
	return s.AddSource(models.PackageSource{Name: name, Url: url})
}

/**
 * Add a repository
 * @param {models.PackageSource} src - Unique name, local directory or
 *   http(s) base URL, and an optional bearer token
 * @throws
 * - ErrSourceExists if the name is already configured
 */
func (s *SourceStore) AddSource(src models.PackageSource) error {
	src.Name = strings.TrimSpace(src.Name)
	src.Url = strings.TrimSpace(src.Url)
	src.Token = strings.TrimSpace(src.Token)
	if src.Name == "" || src.Url == "" {
		return fmt.Errorf("source name and url are required")
	}
	sources, err := s.Load()
	if err != nil {
		return err
	}
	for _, existing := range sources {
		if strings.EqualFold(existing.Name, src.Name) {
			return fmt.Errorf("%w: '%s'", ErrSourceExists, src.Name)
		}
	}
	return s.save(append(sources, src))
}

// Remove deletes the repository named name
func (s *SourceStore) Remove(name string) error {
	sources, err := s.Load()
	if err != nil {
		return err
	}
	remaining := make([]models.PackageSource, 0, len(sources))
	for _, src := range sources {
		if !strings.EqualFold(src.Name, name) {
			remaining = append(remaining, src)
		}
	}
	if len(remaining) == len(sources) {
		return fmt.Errorf("%w: '%s'", ErrSourceNotFound, name)
	}
	return s.save(remaining)
}
