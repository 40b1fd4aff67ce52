package io

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/railgen/pkg/errors"
	"github.com/matzehuels/railgen/pkg/generator"
)

func generate(t *testing.T) *generator.Map {
	t.Helper()
	m, err := generator.Generate(generator.Options{Width: 40, Height: 40, MaxCities: 3, Seed: 1})
	require.NoError(t, err)
	return m
}

func TestRoundTrip(t *testing.T) {
	m := generate(t)

	var buf bytes.Buffer
	require.NoError(t, WriteJSON(m, &buf))

	got, err := ReadJSON(&buf)
	require.NoError(t, err)
	assert.True(t, m.Grid.Equal(got.Grid), "grid changed on round trip")
	assert.Equal(t, m.Hints, got.Hints)
	assert.Equal(t, m.Cities, got.Cities)
	assert.Equal(t, m.Report, got.Report)
	assert.Equal(t, m.Options.Seed, got.Options.Seed)
}

func TestMarshalUnmarshal(t *testing.T) {
	m := generate(t)
	data, err := Marshal(m)
	require.NoError(t, err)

	got, err := Unmarshal(data)
	require.NoError(t, err)
	assert.True(t, m.Grid.Equal(got.Grid))
}

func TestExportImportFile(t *testing.T) {
	m := generate(t)
	path := filepath.Join(t.TempDir(), "map.json")
	require.NoError(t, ExportJSON(m, path))

	got, err := ImportJSON(path)
	require.NoError(t, err)
	assert.Equal(t, m.Grid.Raw(), got.Grid.Raw())
}

func TestImportMissingFile(t *testing.T) {
	_, err := ImportJSON(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestReadJSONRejects(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"version", `{"version":2,"width":1,"height":1,"grid":[0]}`},
		{"grid size", `{"version":1,"width":2,"height":2,"grid":[0,0,0]}`},
		{"zero size", `{"version":1,"width":0,"height":0,"grid":[]}`},
		{"hint count", `{"version":1,"width":2,"height":1,"grid":[0,0],
			"hints":{"city_positions":[{"row":0,"col":0}],"city_orientations":[0]}}`},
		{"city outside", `{"version":1,"width":2,"height":1,"grid":[0,0],
			"hints":{"city_positions":[{"row":4,"col":0}],"city_orientations":[0]},
			"cities":[{"position":{"row":4,"col":0}}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadJSON(strings.NewReader(tt.doc))
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.ErrCodeInvalidMap), "got %v", err)
		})
	}
}

func TestReadJSONMalformed(t *testing.T) {
	_, err := ReadJSON(strings.NewReader("{not json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode")
}

func TestDocumentFields(t *testing.T) {
	m := generate(t)
	doc := NewDocument(m)
	assert.Equal(t, FormatVersion, doc.Version)
	assert.Equal(t, 40, doc.Width)
	assert.Equal(t, 40, doc.Height)
	assert.Len(t, doc.Grid, 1600)
}
