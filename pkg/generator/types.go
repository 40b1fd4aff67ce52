package generator

import (
	"github.com/matzehuels/railgen/pkg/geom"
	"github.com/matzehuels/railgen/pkg/rail"
)

// City is a square cluster of parallel station tracks.
type City struct {
	Position    geom.Coord     `json:"position"`
	Radius      int            `json:"radius"`
	Orientation geom.Direction `json:"orientation"`

	// Inner holds, per side (N, E, S, W), the end points of the parallel
	// tracks inside the city. Inactive sides are empty.
	Inner [4][]geom.Coord `json:"inner"`

	// Outer holds, per side, the border points corridors attach to.
	Outer [4][]geom.Coord `json:"outer"`
}

// ActiveSides returns the sides that carry connection points, in N, E, S, W
// order.
func (c City) ActiveSides() []geom.Direction {
	var sides []geom.Direction
	for _, d := range geom.Directions {
		if len(c.Inner[d]) > 0 {
			sides = append(sides, d)
		}
	}
	return sides
}

// Contains reports whether cell lies inside the city square.
func (c City) Contains(cell geom.Coord) bool {
	return abs(cell.Row-c.Position.Row) <= c.Radius && abs(cell.Col-c.Position.Col) <= c.Radius
}

// Station is a train station on one of a city's parallel tracks.
type Station struct {
	Position geom.Coord `json:"position"`
	Track    int        `json:"track"`
}

// Hints is the metadata handed to line generators together with the grid.
type Hints struct {
	CityPositions    []geom.Coord     `json:"city_positions"`
	CityOrientations []geom.Direction `json:"city_orientations"`
	TrainStations    [][]Station      `json:"train_stations"`
}

// Report summarizes the recoverable problems of a generation call.
type Report struct {
	RequestedCities int  `json:"requested_cities"`
	PlacedCities    int  `json:"placed_cities"`
	CliqueRetries   int  `json:"clique_retries"`
	FellBackToGrid  bool `json:"fell_back_to_grid,omitempty"`
	Corridors       int  `json:"corridors"`
	RoutingFailures int  `json:"routing_failures"`
	FixedCells      int  `json:"fixed_cells"`
}

// Map is the result of a generation call. The grid must be treated as
// read-only once returned.
type Map struct {
	Grid      *rail.Grid       `json:"-"`
	Options   Options          `json:"options"`
	Hints     Hints            `json:"hints"`
	Cities    []City           `json:"cities"`
	Links     []Link           `json:"links"`
	FreeRails [][][]geom.Coord `json:"free_rails"`
	Report    Report           `json:"report"`
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
