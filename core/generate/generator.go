package generate

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/siherrmann/coderank/model"
	"golang.org/x/sync/errgroup"
)

// DenseSearcher issues one vector-similarity retrieval call for a route
type DenseSearcher interface {
	Search(ctx context.Context, route model.Route, query string, topK int) ([]*model.Candidate, error)
}

// LexicalSearcher issues one term-based retrieval call
type LexicalSearcher interface {
	Search(ctx context.Context, query string, topK int) ([]*model.Candidate, error)
}

// Generator fans retrieval calls out per route, one goroutine each, joined
// with a bounded wait. A timed-out or erroring route yields an empty list
// plus a warning, never a query failure. All routes empty is a normal
// no-match outcome.
type Generator struct {
	dense   DenseSearcher
	lexical LexicalSearcher
	logger  *slog.Logger
}

// NewGenerator creates a candidate generator. The lexical searcher may be
// nil if lexical search is disabled.
func NewGenerator(dense DenseSearcher, lexical LexicalSearcher, logger *slog.Logger) *Generator {
	return &Generator{
		dense:   dense,
		lexical: lexical,
		logger:  logger,
	}
}

// Generate retrieves candidates for every active route concurrently.
// Each per-route list comes back sorted descending by raw score with
// identity tie breaks, so identical inputs reproduce identical output.
func (g *Generator) Generate(ctx context.Context, query string, config *model.PipelineConfig) (map[model.Route][]*model.Candidate, []string) {
	routeLists := make(map[model.Route][]*model.Candidate)
	var warnings []string
	var mu sync.Mutex

	record := func(route model.Route, candidates []*model.Candidate, err error) {
		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			g.logger.Warn("Route retrieval failed", "route", route, "error", err)
			warnings = append(warnings, fmt.Sprintf("route %s failed: %v", route, err))
			routeLists[route] = nil
			return
		}
		model.SortCandidatesByRawScore(candidates)
		routeLists[route] = candidates
	}

	group := new(errgroup.Group)

	for _, route := range []model.Route{model.RouteDenseCode, model.RouteDenseDocs} {
		group.Go(func() error {
			routeCtx, cancel := context.WithTimeout(ctx, config.RouteTimeout)
			defer cancel()

			candidates, err := g.dense.Search(routeCtx, route, query, config.TopK)
			record(route, candidates, err)
			return nil
		})
	}

	if config.LexicalEnabled && g.lexical != nil {
		group.Go(func() error {
			routeCtx, cancel := context.WithTimeout(ctx, config.RouteTimeout)
			defer cancel()

			candidates, err := g.lexical.Search(routeCtx, query, config.TopK)
			record(model.RouteLexical, candidates, err)
			return nil
		})
	}

	group.Wait()

	return routeLists, warnings
}
