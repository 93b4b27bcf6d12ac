package node

import (
	"time"

	"robot-dispatch/internal/geo"

	"github.com/google/uuid"
)

// Type tags what a node is used for
type Type string

const (
	TypePickup   Type = "pickup"
	TypeDropoff  Type = "dropoff"
	TypeCharging Type = "charging"
	TypeDepot    Type = "depot"
	TypeUser     Type = "user"
)

func (t Type) IsValid() bool {
	switch t {
	case TypePickup, TypeDropoff, TypeCharging, TypeDepot, TypeUser:
		return true
	}
	return false
}

// Node is a named geographic point
type Node struct {
	ID        uuid.UUID
	Name      string
	Latitude  float64
	Longitude float64
	Type      Type
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (n *Node) Point() geo.Point {
	return geo.Point{Latitude: n.Latitude, Longitude: n.Longitude}
}

// Nearest returns the node closest to p by great-circle distance, with the
// distance in meters. It returns nil for an empty slice.
func Nearest(nodes []*Node, p geo.Point) (*Node, float64) {
	var (
		best     *Node
		bestDist float64
	)
	for _, n := range nodes {
		d := geo.Distance(p, n.Point())
		if best == nil || d < bestDist {
			best, bestDist = n, d
		}
	}
	return best, bestDist
}
