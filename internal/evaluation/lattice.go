package evaluation

import (
	"errors"
	"fmt"
)

var (
	// ErrMultipleCandidates means a lattice was not reduced to its best path.
	// The batch runner treats it as fatal.
	ErrMultipleCandidates = errors.New("lattice node holds more than one candidate")
	ErrEmptyNode          = errors.New("lattice node holds no candidate")
)

// Unit is a selected speech unit
type Unit struct {
	Phone  string `json:"phone" yaml:"phone" mapstructure:"phone"`
	UnitID int    `json:"unit_id" yaml:"unit_id" mapstructure:"unit_id"`
}

// LatticeNode is one position of a unit lattice
type LatticeNode struct {
	Candidates []Unit `json:"candidates" yaml:"candidates" mapstructure:"candidates"`
}

// BestPath is a lattice in which every node carries exactly one unit
type BestPath struct {
	units []Unit
}

// NewBestPath validates that every node holds a single candidate
func NewBestPath(nodes []LatticeNode) (*BestPath, error) {
	units := make([]Unit, len(nodes))
	for i, node := range nodes {
		switch len(node.Candidates) {
		case 0:
			return nil, fmt.Errorf("node %d: %w", i, ErrEmptyNode)
		case 1:
			units[i] = node.Candidates[0]
		default:
			return nil, fmt.Errorf("node %d: %w (%d candidates)", i, ErrMultipleCandidates, len(node.Candidates))
		}
	}
	return &BestPath{units: units}, nil
}

func (p *BestPath) Len() int {
	return len(p.units)
}

// Unit returns the unit at node i
func (p *BestPath) Unit(i int) Unit {
	return p.units[i]
}

// Phones returns the phone sequence of the path
func (p *BestPath) Phones() []string {
	phones := make([]string, len(p.units))
	for i, u := range p.units {
		phones[i] = u.Phone
	}
	return phones
}
