package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/railgen/pkg/errors"
	"github.com/matzehuels/railgen/pkg/generator"
	"github.com/matzehuels/railgen/pkg/rail"
)

// ReadJSON decodes a map document from r.
//
// The document must carry a supported version, a grid of exactly
// width*height cells and hints that agree with the city list.
func ReadJSON(r io.Reader) (*generator.Map, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return doc.Map()
}

// Unmarshal decodes a map document held in memory.
func Unmarshal(data []byte) (*generator.Map, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return doc.Map()
}

// ImportJSON reads a map from a JSON file.
// This is a convenience wrapper around [ReadJSON] for file-based input.
func ImportJSON(path string) (*generator.Map, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadJSON(f)
}

// Map validates the document and rebuilds the map it describes.
func (d Document) Map() (*generator.Map, error) {
	if d.Version != FormatVersion {
		return nil, errors.New(errors.ErrCodeInvalidMap, "unsupported map version %d", d.Version)
	}
	grid, err := rail.FromRaw(d.Width, d.Height, d.Grid)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidMap, err, "invalid grid")
	}
	n := len(d.Cities)
	if len(d.Hints.CityPositions) != n || len(d.Hints.CityOrientations) != n {
		return nil, errors.New(errors.ErrCodeInvalidMap,
			"hints describe %d cities, map has %d", len(d.Hints.CityPositions), n)
	}
	if len(d.Hints.TrainStations) != 0 && len(d.Hints.TrainStations) != n {
		return nil, errors.New(errors.ErrCodeInvalidMap,
			"stations listed for %d cities, map has %d", len(d.Hints.TrainStations), n)
	}
	for i, c := range d.Hints.CityPositions {
		if !grid.InBounds(c) {
			return nil, errors.New(errors.ErrCodeInvalidMap, "city %d at %v lies outside the map", i, c)
		}
	}
	for _, l := range d.Links {
		if l.From < 0 || l.From >= n || l.To < 0 || l.To >= n {
			return nil, errors.New(errors.ErrCodeInvalidMap, "link %d-%d refers to a missing city", l.From, l.To)
		}
	}
	return &generator.Map{
		Grid:      grid,
		Options:   d.Options,
		Hints:     d.Hints,
		Cities:    d.Cities,
		Links:     d.Links,
		FreeRails: d.FreeRails,
		Report:    d.Report,
	}, nil
}
