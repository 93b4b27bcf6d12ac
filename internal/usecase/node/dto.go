package node

import "robot-dispatch/internal/usecase/common"

type CreateNodeRequest struct {
	Name      string  `json:"name" validate:"required,min=1,max=100"`
	Latitude  float64 `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude float64 `json:"longitude" validate:"gte=-180,lte=180"`
	Type      string  `json:"type" validate:"required,node_type"`
}

type ListNodesQuery struct {
	Type string `form:"type" validate:"omitempty,node_type"`
}

type NearestQuery struct {
	Latitude  *float64 `form:"lat" validate:"required"`
	Longitude *float64 `form:"lon" validate:"required"`
	Type      string   `form:"type" validate:"omitempty,node_type"`
}

type NearestResponse struct {
	Node           *common.NodeResponse `json:"node"`
	DistanceMeters float64              `json:"distance_meters"`
}

// SeedFile is the YAML layout of the node catalog seed.
type SeedFile struct {
	Nodes []SeedNode `yaml:"nodes"`
}

type SeedNode struct {
	Name      string  `yaml:"name" validate:"required,max=100"`
	Latitude  float64 `yaml:"latitude" validate:"gte=-90,lte=90"`
	Longitude float64 `yaml:"longitude" validate:"gte=-180,lte=180"`
	Type      string  `yaml:"type" validate:"required,node_type"`
}

type SeedResult struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
}
