package utils

import (
	"bytes"
	"testing"

	"github.com/iancoleman/orderedmap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type row struct {
	Id      string `json:"id"`
	Version string `json:"version"`
	Active  bool   `json:"active"`
}

func TestStructToOrderedMap_KeepsFieldOrder(t *testing.T) {
	m, err := StructToOrderedMap(row{Id: "Package.A", Version: "1.0.0", Active: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "version", "active"}, m.Keys())
	v, ok := m.Get("version")
	require.True(t, ok)
	assert.Equal(t, "1.0.0", v)
}

func TestWriteFormat(t *testing.T) {
	a, err := StructToOrderedMap(row{Id: "Package.A", Version: "1.0.0", Active: true})
	require.NoError(t, err)
	b, err := StructToOrderedMap(row{Id: "Package.B"})
	require.NoError(t, err)

	var buf bytes.Buffer
	WriteFormat(&buf, []*orderedmap.OrderedMap{a, b})
	out := buf.String()
	assert.Contains(t, out, "ID")
	assert.Contains(t, out, "Package.A")
	assert.Contains(t, out, "Package.B")
	assert.Contains(t, out, "-")

	buf.Reset()
	WriteFormat(&buf, nil)
	assert.Empty(t, buf.String())
}
