package generator

import "github.com/matzehuels/railgen/pkg/geom"

// PlaceStations puts one station in the middle of every free rail.
func PlaceStations(freeRails [][][]geom.Coord) [][]Station {
	stations := make([][]Station, len(freeRails))
	for ci, tracks := range freeRails {
		stations[ci] = make([]Station, 0, len(tracks))
		for k, track := range tracks {
			if len(track) == 0 {
				continue
			}
			stations[ci] = append(stations[ci], Station{Position: track[len(track)/2], Track: k})
		}
	}
	return stations
}
