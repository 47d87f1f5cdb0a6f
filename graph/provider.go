package graph

import (
	"context"
	"sync/atomic"

	"github.com/siherrmann/coderank/database"
	"github.com/siherrmann/coderank/helper"
	"github.com/siherrmann/coderank/model"
)

// LoadFunc builds a fresh snapshot from the stored graph artifact
type LoadFunc func(ctx context.Context) (*Snapshot, error)

// Provider holds the current graph snapshot and swaps it atomically on
// reload. It starts without a snapshot; until the first successful Reload
// the graph is unavailable and expansion degrades cleanly.
type Provider struct {
	load    LoadFunc
	current atomic.Pointer[Snapshot]
}

// NewProvider creates a provider with the given load function.
// No snapshot is loaded yet.
func NewProvider(load LoadFunc) *Provider {
	return &Provider{load: load}
}

// Reload builds a new snapshot and swaps it in. Running queries keep the
// snapshot they pinned; a failed reload leaves the current snapshot in place.
func (p *Provider) Reload(ctx context.Context) error {
	snapshot, err := p.load(ctx)
	if err != nil {
		return helper.NewError("load graph snapshot", err)
	}

	p.current.Store(snapshot)
	return nil
}

// Acquire pins the current snapshot for one query. If no snapshot has been
// loaded yet it returns an accessor reporting the graph as unavailable.
func (p *Provider) Acquire() Accessor {
	snapshot := p.current.Load()
	if snapshot == nil {
		return unavailable{}
	}
	return snapshot
}

// unavailable is the accessor handed out before the first successful reload
type unavailable struct{}

func (unavailable) Neighbors(string, []model.EdgeType, model.Direction) []*model.GraphNode {
	return nil
}

func (unavailable) Degree(string) int { return 0 }

func (unavailable) Available() bool { return false }

// DatabaseLoader returns a LoadFunc reading the full node and edge tables
func DatabaseLoader(nodes database.NodesDBHandlerFunctions, edges database.EdgesDBHandlerFunctions) LoadFunc {
	return func(ctx context.Context) (*Snapshot, error) {
		allNodes, err := nodes.SelectAllNodes()
		if err != nil {
			return nil, helper.NewError("select all nodes", err)
		}

		allEdges, err := edges.SelectAllEdges()
		if err != nil {
			return nil, helper.NewError("select all edges", err)
		}

		return NewSnapshot(allNodes, allEdges), nil
	}
}
