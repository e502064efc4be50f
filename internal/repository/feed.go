package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hashicorp/go-version"

	"nudeploy/internal/models"
	"nudeploy/internal/utils"
)

const (
	ArchiveExt    = ".zip"
	FeedIndexName = "index.json"
)

/**
 * A package available in a repository
 * @property {string} Id - Package id as published
 * @property {*version.Version} Version - Published version
 * @property {string} Location - Archive path (local feed) or URL (http feed)
 * @property {string} Source - Name of the source that offers it
 * @property {string} Checksum - Optional hex sha256 of the archive
 * @property {string} Token - Bearer token of the source, sent on download
 */
type Package struct {
	Id       string
	Version  *version.Version
	Location string
	Source   string
	Checksum string
	Token    string
}

// String returns "<Id>.<Version>"
func (p *Package) String() string {
	return utils.PackageFolderName(p.Id, p.Version)
}

// IsRemote reports whether the archive must be downloaded first
func (p *Package) IsRemote() bool {
	return isHTTP(p.Location)
}

// Feed lists the versions of a package offered by one source
type Feed interface {
	Versions(ctx context.Context, packageId string) ([]*Package, error)
}

func isHTTP(location string) bool {
	l := strings.ToLower(location)
	return strings.HasPrefix(l, "http://") || strings.HasPrefix(l, "https://")
}

// NewFeed picks the feed implementation for src
func NewFeed(src models.PackageSource) Feed {
	if isHTTP(src.Url) {
		return &HTTPFeed{name: src.Name, baseUrl: src.Url, token: src.Token}
	}
	return &LocalFeed{name: src.Name, dir: strings.TrimPrefix(src.Url, "file://")}
}

// LocalFeed is a folder containing "<Id>.<Version>.zip" archives
type LocalFeed struct {
	name string
	dir  string
}

func (f *LocalFeed) Versions(ctx context.Context, packageId string) ([]*Package, error) {
	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return nil, fmt.Errorf("read feed '%s': %w", f.dir, err)
	}
	var found []*Package
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ArchiveExt) {
			continue
		}
		base := strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))
		ver, ok := utils.ParsePackageVersion(base, packageId)
		if !ok {
			continue
		}
		found = append(found, &Package{
			Id:       base[:len(packageId)],
			Version:  ver,
			Location: filepath.Join(f.dir, e.Name()),
			Source:   f.name,
		})
	}
	return found, nil
}

type feedIndex struct {
	Packages []feedEntry `json:"packages"`
}

type feedEntry struct {
	Id       string `json:"id"`
	Version  string `json:"version"`
	Url      string `json:"url"`
	Checksum string `json:"sha256,omitempty"`
}

// HTTPFeed serves "<base>/index.json" listing archives relative to base
type HTTPFeed struct {
	name    string
	baseUrl string
	token   string
}

func (f *HTTPFeed) Versions(ctx context.Context, packageId string) ([]*Package, error) {
	indexUrl, err := utils.ResolveURL(f.baseUrl, FeedIndexName)
	if err != nil {
		return nil, fmt.Errorf("feed '%s': %w", f.baseUrl, err)
	}
	checkToken(f.name, f.token, time.Now())
	data, err := utils.GetBytes(ctx, indexUrl, nil, utils.WithBearerToken(f.token))
	if err != nil {
		return nil, err
	}
	var index feedIndex
	if err := json.Unmarshal(data, &index); err != nil {
		return nil, fmt.Errorf("unmarshal '%s': %w", indexUrl, err)
	}
	var found []*Package
	for _, e := range index.Packages {
		if !strings.EqualFold(e.Id, packageId) {
			continue
		}
		ver, err := utils.ParseVersion(e.Version)
		if err != nil {
			continue
		}
		location := e.Url
		if location == "" {
			location = e.Id + "." + e.Version + ArchiveExt
		}
		if location, err = utils.ResolveURL(f.baseUrl, location); err != nil {
			continue
		}
		found = append(found, &Package{
			Id:       e.Id,
			Version:  ver,
			Location: location,
			Source:   f.name,
			Checksum: strings.ToLower(e.Checksum),
			Token:    f.token,
		})
	}
	return found, nil
}
