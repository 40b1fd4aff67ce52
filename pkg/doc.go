// Package pkg provides the libraries behind railgen, a generator for sparse
// railway networks on a grid.
//
// # Overview
//
// railgen places cities on a grid, joins neighbouring cities with parallel
// corridors, lays inner-city tracks with stations and repairs every cell so
// the result only holds legal track pieces. The pkg directory is organized
// into three areas:
//
//  1. Domain logic: [geom], [rail], [generator], [line], [malfunction]
//  2. Infrastructure: [io], [cache], [store], [observability], [errors]
//  3. Orchestration and output: [pipeline], [render], [render/nodelink],
//     [httputil]
//
// # Architecture
//
// The typical data flow:
//
//	generator.Options
//	         ↓
//	    [generator] package (cities, corridors, inner cities, repair)
//	         ↓
//	    generator.Map (grid + hints + report)
//	         ↓
//	    [render] package (text, SVG, city graph)   [line] package (trains)
//
// [pipeline] wraps generation and rendering with the [cache] so the CLI and
// the HTTP server behave identically, and [store] keeps generated maps.
//
// # Quick Start
//
//	import (
//	    "github.com/matzehuels/railgen/pkg/generator"
//	    "github.com/matzehuels/railgen/pkg/render"
//	)
//
//	m, err := generator.Generate(generator.Options{
//	    Width: 40, Height: 40, MaxCities: 5,
//	    MaxRailsBetweenCities: 2, MaxRailPairsInCity: 2,
//	    Seed: 42,
//	})
//	if err != nil {
//	    return err
//	}
//	fmt.Print(render.ASCII(m, render.ASCIIOptions{Stations: true}))
//
// # Package Guide
//
// [geom] - Grid coordinates, the four headings and Manhattan distance.
//
// [rail] - The transition grid: 16-bit cell masks, the legal piece set,
// straight and A* routed track drawing, neighbour validity and repair.
//
// [generator] - The sparse network generator and its stages.
//
// [line] - Train placement on a generated map.
//
// [malfunction] - Breakdown models for trains.
//
// [io] - JSON encoding of generated maps.
//
// [store] - Map persistence (memory, file, MongoDB).
//
// [cache] - Content-addressed caching of maps and artifacts (file, Redis).
//
// [pipeline] - Generate → render orchestration, batch generation and
// schedules.
//
// [render] - Text and SVG output; [render/nodelink] draws the city graph with
// Graphviz.
//
// # Testing
//
//	go test ./pkg/...                    # All tests
//	go test ./pkg/generator/...          # Specific package
package pkg
