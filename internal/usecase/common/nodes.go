package common

import (
	"context"

	"robot-dispatch/internal/domain/node"

	"github.com/google/uuid"
)

// NodeLookup memoises node reads for the lifetime of one request.
type NodeLookup struct {
	repo node.Repository
	seen map[uuid.UUID]*node.Node
}

func NewNodeLookup(repo node.Repository) *NodeLookup {
	return &NodeLookup{repo: repo, seen: make(map[uuid.UUID]*node.Node)}
}

func (l *NodeLookup) Get(ctx context.Context, id uuid.UUID) (*node.Node, error) {
	if n, ok := l.seen[id]; ok {
		return n, nil
	}
	n, err := l.repo.GetByID(ctx, id)
	if err != nil {
		return nil, NodeErr(err, id)
	}
	l.seen[id] = n
	return n, nil
}
