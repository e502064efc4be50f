package models

import (
	"github.com/hashicorp/go-version"
)

/**
 * Installed package record, derived from the packages folder and the registry
 * @property {string} Id - Package id
 * @property {*version.Version} Version - Version parsed from the folder name
 * @property {string} Folder - Absolute path of the <Id>.<Version> folder
 * @property {bool} IsActive - Whether the registry points at this version
 */
type InstalledPackage struct {
	Id       string
	Version  *version.Version
	Folder   string
	IsActive bool
}

/**
 * Installed package (serialized to JSON format)
 */
type PackageDetail struct {
	Id       string `json:"id"`
	Version  string `json:"version"`
	Folder   string `json:"folder"`
	IsActive bool   `json:"active"`
}

func (p InstalledPackage) Detail() PackageDetail {
	d := PackageDetail{
		Id:       p.Id,
		Folder:   p.Folder,
		IsActive: p.IsActive,
	}
	if p.Version != nil {
		d.Version = p.Version.Original()
	}
	return d
}

// PackageSource is one configured repository
type PackageSource struct {
	Name  string `json:"Name"`
	Url   string `json:"Url"`
	Token string `json:"Token,omitempty"` // bearer token for http(s) sources
}
