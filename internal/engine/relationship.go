package engine

import (
	"errors"
	"fmt"
	"strings"
)

// DefaultBoost is the weight multiplier Dependent applies when Boost is unset
const DefaultBoost = 3.5

var ErrUnknownRelationship = errors.New("unknown relationship")

// Relationship couples event B's draw to event A's outcome. The set is
// closed: Independent, Copy, Complement and Dependent.
type Relationship interface {
	String() string
	relationship()
}

// Independent draws B from its own distribution
type Independent struct{}

// Copy repeats A's outcome as B. Both devices must share an outcome domain.
type Copy struct{}

// Complement sets B to the other face of a coin
type Complement struct{}

// Dependent favours B outcomes in the same half of B's range as A's outcome
// by multiplying their weight by Boost.
type Dependent struct {
	Boost float64
}

func (Independent) relationship() {}
func (Copy) relationship()        {}
func (Complement) relationship()  {}
func (Dependent) relationship()   {}

func (Independent) String() string { return "independent" }
func (Copy) String() string        { return "copy" }
func (Complement) String() string  { return "complement" }
func (Dependent) String() string   { return "dependent" }

// factor returns Boost, falling back to DefaultBoost for unset or invalid values
func (d Dependent) factor() float64 {
	if !(d.Boost > 0) {
		return DefaultBoost
	}
	return d.Boost
}

// ParseRelationship maps a configuration name to a Relationship. boost is
// only used by "dependent"; zero selects DefaultBoost.
func ParseRelationship(name string, boost float64) (Relationship, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "independent":
		return Independent{}, nil
	case "copy":
		return Copy{}, nil
	case "complement":
		return Complement{}, nil
	case "dependent":
		return Dependent{Boost: boost}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownRelationship, name)
	}
}
