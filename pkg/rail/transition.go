package rail

import (
	"fmt"

	"github.com/matzehuels/railgen/pkg/geom"
)

// Transition is the 16-bit movement mask of a single cell.
type Transition uint16

// Base transition elements. All legal masks are rotations of these.
const (
	Empty            Transition = 0b0000_0000_0000_0000
	Straight         Transition = 0b1000_0000_0010_0000
	SimpleSwitch     Transition = 0b1001_0010_0010_0000
	DiamondCrossing  Transition = 0b1000_0100_0010_0001
	SingleSlip       Transition = 0b1001_0110_0010_0001
	DoubleSlip       Transition = 0b1100_1100_0011_0011
	Symmetrical      Transition = 0b0101_0010_0000_0010
	DeadEnd          Transition = 0b0010_0000_0000_0000
	RightTurn        Transition = 0b0100_0000_0000_0010
	LeftTurn         Transition = 0b0001_0010_0000_0000
	SimpleSwitchLeft Transition = 0b1100_0000_0010_0010
)

// BaseCells lists the base elements in their canonical order.
var BaseCells = [...]Transition{
	Empty,
	Straight,
	SimpleSwitch,
	DiamondCrossing,
	SingleSlip,
	DoubleSlip,
	Symmetrical,
	DeadEnd,
	RightTurn,
	LeftTurn,
	SimpleSwitchLeft,
}

// Frequently used rotated elements.
var (
	// StraightVertical connects North and South.
	StraightVertical = Straight
	// StraightHorizontal connects East and West.
	StraightHorizontal = Straight.Rotate(90)

	switchEastSouth = SimpleSwitchLeft.Rotate(90)
	switchWestSouth = SimpleSwitch.Rotate(270)
)

var validTransitions = func() map[Transition]bool {
	valid := make(map[Transition]bool, len(BaseCells)*4)
	for _, t := range BaseCells {
		for _, deg := range []int{0, 90, 180, 270} {
			valid[t.Rotate(deg)] = true
		}
	}
	return valid
}()

// IsValid reports whether t is one of the legal rail elements.
func IsValid(t Transition) bool {
	return validTransitions[t]
}

// nibble returns the four exit bits for a heading.
func (t Transition) nibble(heading geom.Direction) uint16 {
	return (uint16(t) >> ((3 - uint(heading)) * 4)) & 0xF
}

// Get reports whether a train with the given heading may leave with exit.
func (t Transition) Get(heading, exit geom.Direction) bool {
	return (t.nibble(heading)>>(3-uint(exit)))&1 == 1
}

// Set returns t with the (heading, exit) bit switched on or off.
func (t Transition) Set(heading, exit geom.Direction, on bool) Transition {
	bit := Transition(1) << ((3-uint(heading))*4 + (3 - uint(exit)))
	if on {
		return t | bit
	}
	return t &^ bit
}

// Exits returns the headings a train with the given heading may leave with.
func (t Transition) Exits(heading geom.Direction) []geom.Direction {
	var exits []geom.Direction
	for _, d := range geom.Directions {
		if t.Get(heading, d) {
			exits = append(exits, d)
		}
	}
	return exits
}

// HasExits reports whether any exit is allowed for the heading.
func (t Transition) HasExits(heading geom.Direction) bool {
	return t.nibble(heading) != 0
}

// OutboundDirections returns every direction that some heading can exit with.
func (t Transition) OutboundDirections() []geom.Direction {
	var out []geom.Direction
	for _, exit := range geom.Directions {
		for _, heading := range geom.Directions {
			if t.Get(heading, exit) {
				out = append(out, exit)
				break
			}
		}
	}
	return out
}

// Sides reports which cell edges the element touches, indexed by direction.
// A train with heading h enters through edge h.Mirror().
func (t Transition) Sides() [4]bool {
	var sides [4]bool
	for _, h := range geom.Directions {
		if !t.HasExits(h) {
			continue
		}
		sides[h.Mirror()] = true
		for _, e := range t.Exits(h) {
			sides[e] = true
		}
	}
	return sides
}

// Rotate turns the element clockwise by a multiple of 90 degrees.
func (t Transition) Rotate(degrees int) Transition {
	steps := ((degrees/90)%4 + 4) % 4
	if steps == 0 {
		return t
	}
	var out Transition
	for _, h := range geom.Directions {
		for _, e := range geom.Directions {
			if t.Get(h, e) {
				out = out.Set((h+geom.Direction(steps))%4, (e+geom.Direction(steps))%4, true)
			}
		}
	}
	return out
}

// String renders the mask as four nibbles, e.g. "1000.0000.0010.0000".
func (t Transition) String() string {
	s := fmt.Sprintf("%016b", uint16(t))
	return s[0:4] + "." + s[4:8] + "." + s[8:12] + "." + s[12:16]
}
