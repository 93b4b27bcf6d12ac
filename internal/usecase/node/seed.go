package node

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	domainNode "robot-dispatch/internal/domain/node"
	"robot-dispatch/internal/logger"
	"robot-dispatch/pkg/utils"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// SeedFromFile loads a YAML node catalog. See Seed.
func (s *Service) SeedFromFile(ctx context.Context, path string) (*SeedResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open node seed: %w", err)
	}
	defer f.Close()

	return s.Seed(ctx, f)
}

// Seed upserts nodes by name: existing nodes get the file's coordinates and
// type, missing ones are created. The whole file is validated first.
func (s *Service) Seed(ctx context.Context, r io.Reader) (*SeedResult, error) {
	var file SeedFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode node seed: %w", err)
	}

	seen := make(map[string]struct{}, len(file.Nodes))
	for i := range file.Nodes {
		entry := &file.Nodes[i]
		if err := utils.ValidateStruct(entry); err != nil {
			return nil, fmt.Errorf("node seed entry %d: %w", i, err)
		}
		if _, dup := seen[entry.Name]; dup {
			return nil, fmt.Errorf("node seed entry %d: duplicate name %q", i, entry.Name)
		}
		seen[entry.Name] = struct{}{}
	}

	result := &SeedResult{}
	for _, entry := range file.Nodes {
		existing, err := s.nodeRepo.GetByName(ctx, entry.Name)
		switch {
		case errors.Is(err, domainNode.ErrNodeNotFound):
			n := &domainNode.Node{
				Name:      entry.Name,
				Latitude:  entry.Latitude,
				Longitude: entry.Longitude,
				Type:      domainNode.Type(entry.Type),
			}
			if err := s.nodeRepo.Create(ctx, n); err != nil {
				return result, err
			}
			result.Created++
		case err != nil:
			return result, err
		default:
			existing.Latitude = entry.Latitude
			existing.Longitude = entry.Longitude
			existing.Type = domainNode.Type(entry.Type)
			if err := s.nodeRepo.Update(ctx, existing); err != nil {
				return result, err
			}
			result.Updated++
		}
	}

	logger.Info("Node catalog seeded",
		zap.Int("created", result.Created),
		zap.Int("updated", result.Updated),
	)
	return result, nil
}
