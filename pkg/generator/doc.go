// Package generator builds sparse railway networks: a handful of cities made
// of parallel station tracks, joined by two-track corridors.
//
// # Pipeline
//
// [Generate] runs seven stages in a fixed order on a single [rail.Grid]:
//
//  1. City placement, either on an even lattice ([EvenCityPositions]) or by
//     sampling from a shrinking mask of free cells ([RandomCityPositions]).
//  2. Layout gating with [ContainsCliques] in random mode, so that large maps
//     do not fall apart into separate groups of three or four cities.
//  3. Connection planning ([PlanConnections]): every city faces its nearest
//     neighbour and gets inner and outer connection points on two opposite
//     sides.
//  4. Inter-city routing ([ConnectCities]): outer points are matched greedily
//     to the closest free points of the two nearest cities ([MatchSide]) and
//     the pairs are routed with A*.
//  5. Inner-city tracks ([BuildInnerCities]).
//  6. Train stations ([PlaceStations]) in the middle of every track.
//  7. Transition repair ([RepairTransitions]) on every cell that was drawn.
//
// All randomness comes from one seeded source created per call, so the same
// [Options] always produce the same map. Resetting an environment uses
// Seed+NumResets as the effective seed.
//
// # Errors
//
// A map that cannot hold two cities fails with an
// errors.ErrCodeInfeasibleLayout error. Everything else (fewer cities than
// requested, corridors that could not be routed) is logged as a warning and
// counted in the [Report]; generation still returns a usable map.
//
// # Example
//
//	m, err := generator.Generate(generator.Options{
//	    Width:     40,
//	    Height:    40,
//	    MaxCities: 4,
//	    GridMode:  true,
//	    Seed:      42,
//	})
//	if err != nil {
//	    return err
//	}
//	for city, stations := range m.Hints.TrainStations {
//	    fmt.Println(city, len(stations))
//	}
package generator
