package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/railgen/pkg/generator"
	"github.com/matzehuels/railgen/pkg/geom"
)

// FormatVersion is the version written by this package.
const FormatVersion = 1

// Document is the serialized form of a [generator.Map].
type Document struct {
	Version   int               `json:"version"`
	Width     int               `json:"width"`
	Height    int               `json:"height"`
	Grid      []uint16          `json:"grid"`
	Hints     generator.Hints   `json:"hints"`
	Cities    []generator.City  `json:"cities"`
	Links     []generator.Link  `json:"links,omitempty"`
	FreeRails [][][]geom.Coord  `json:"free_rails,omitempty"`
	Options   generator.Options `json:"options"`
	Report    generator.Report  `json:"report"`
}

// NewDocument captures m for serialization.
func NewDocument(m *generator.Map) Document {
	return Document{
		Version:   FormatVersion,
		Width:     m.Grid.Width(),
		Height:    m.Grid.Height(),
		Grid:      m.Grid.Raw(),
		Hints:     m.Hints,
		Cities:    m.Cities,
		Links:     m.Links,
		FreeRails: m.FreeRails,
		Options:   m.Options,
		Report:    m.Report,
	}
}

// WriteJSON encodes m as JSON and writes it to w.
// The output can be re-imported with [ReadJSON].
func WriteJSON(m *generator.Map, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(NewDocument(m)); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// Marshal returns the compact JSON encoding of m.
func Marshal(m *generator.Map) ([]byte, error) {
	data, err := json.Marshal(NewDocument(m))
	if err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}
	return data, nil
}

// ExportJSON writes m to a JSON file at path.
// This is a convenience wrapper around [WriteJSON] for file-based output.
func ExportJSON(m *generator.Map, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return WriteJSON(m, f)
}
