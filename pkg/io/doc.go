// Package io provides JSON import and export for generated rail maps.
//
// # Overview
//
// A map is saved as one self-contained JSON document: the raw transition
// grid, the hints handed to line generators, the city geometry and the
// generation report. The document is the persistence boundary of railgen;
// the file and database stores in [store] and the HTTP API all exchange it
// verbatim.
//
// # JSON Format
//
//	{
//	  "version": 1,
//	  "width": 40,
//	  "height": 40,
//	  "grid": [0, 0, 4608, ...],
//	  "hints": {
//	    "city_positions": [{"row": 5, "col": 5}, ...],
//	    "city_orientations": [1, ...],
//	    "train_stations": [[{"position": {"row": 5, "col": 4}, "track": 0}, ...], ...]
//	  },
//	  "cities": [...],
//	  "free_rails": [...],
//	  "options": {...},
//	  "report": {...}
//	}
//
// The grid holds one 16-bit transition mask per cell in row-major order.
// Each mask has four nibbles, one per heading (N, E, S, W from the most
// significant end), whose bits mark the allowed exits in the same order.
//
// # Import
//
// [ReadJSON] and [ImportJSON] check the version, the grid size and that the
// hints describe the same number of cities as the city list. A document
// that fails these checks is rejected with an errors.ErrCodeInvalidMap
// error rather than producing a half-usable map.
//
// # Export
//
// [WriteJSON] and [ExportJSON] write the indented document. Export followed
// by import reproduces the grid bit for bit.
//
// [store]: github.com/matzehuels/railgen/pkg/store
package io
