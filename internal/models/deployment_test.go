package models

import (
	"testing"

	"github.com/hashicorp/go-version"
	"github.com/stretchr/testify/assert"
)

func TestParseDeploymentMode(t *testing.T) {
	assert.Equal(t, Full, ParseDeploymentMode("FULL"))
	assert.Equal(t, Update, ParseDeploymentMode(" update "))
	assert.Equal(t, NotRecognized, ParseDeploymentMode("partial"))
	assert.Equal(t, NotRecognized, ParseDeploymentMode(""))
	assert.Equal(t, "Update", Update.String())
}

func TestInstalledPackage_Detail(t *testing.T) {
	p := InstalledPackage{Id: "Package.A", Version: version.Must(version.NewVersion("1.0.0.1")), Folder: "/p/Package.A.1.0.0.1", IsActive: true}
	d := p.Detail()
	assert.Equal(t, "1.0.0.1", d.Version)
	assert.True(t, d.IsActive)
	assert.Empty(t, InstalledPackage{Id: "X"}.Detail().Version)
}
