// Package follow implements the caller/callee projection (spec §4.6):
// running a symbol search to obtain target symbols, then grouping each
// target's call_ref edges into FollowEdge groups keyed by (name, file,
// kind).
package follow

import (
	"sort"

	"symgrep/internal/engine"
	"symgrep/internal/language"
	"symgrep/internal/model"
)

// Config is the full set of parameters for a single RunFollow call.
type Config struct {
	Pattern   string
	Paths     []string
	Includes  []string
	Excludes  []string
	Language  string
	Literal   bool
	Direction model.FollowDirection
	Limit     int // caps the number of targets, not edges within a target
	Index     *engine.IndexOptions
}

// RunFollow runs a symbol search over cfg's scope and projects each
// matched symbol's call edges into a caller/callee neighborhood.
func RunFollow(registry *language.Registry, cfg Config) (*model.FollowResult, error) {
	searchResult, err := engine.RunSearch(registry, engine.Config{
		Pattern:  cfg.Pattern,
		Paths:    cfg.Paths,
		Includes: cfg.Includes,
		Excludes: cfg.Excludes,
		Language: cfg.Language,
		Mode:     engine.ModeSymbol,
		Literal:  cfg.Literal,
		Limit:    cfg.Limit,
		Index:    cfg.Index,
	})
	if err != nil {
		return nil, err
	}

	return BuildFollowResult(searchResult, cfg.Direction), nil
}

// BuildFollowResult projects a symbol-mode SearchResult's matched
// symbols into a FollowResult for the requested direction. Exported
// separately from RunFollow so a caller already holding a SearchResult
// (e.g. reusing one search for multiple follow directions) need not
// re-run the search.
func BuildFollowResult(result *model.SearchResult, direction model.FollowDirection) *model.FollowResult {
	targets := make([]model.FollowTarget, 0, len(result.Symbols))

	for i := range result.Symbols {
		symbol := result.Symbols[i]
		target := model.FollowTarget{Symbol: symbol}

		if direction == model.DirectionCallers || direction == model.DirectionBoth {
			target.Callers = groupCallEdges(symbol.CalledBy)
		}
		if direction == model.DirectionCallees || direction == model.DirectionBoth {
			target.Callees = groupCallEdges(symbol.Calls)
		}

		targets = append(targets, target)
	}

	return &model.FollowResult{
		Version:   model.FollowResultVersion,
		Direction: direction,
		Query:     result.Query,
		Targets:   targets,
	}
}

type groupKey struct {
	name string
	file string
	kind string
}

// groupCallEdges groups refs by (name, file, kind) into FollowEdge
// entries, each carrying every call site for that triple sorted by
// line, then returns the groups sorted by (name, file, kind) for
// determinism. A different kind for the same (name, file) is a
// distinct group, not a merge candidate.
func groupCallEdges(refs []model.CallRef) []model.FollowEdge {
	if len(refs) == 0 {
		return nil
	}

	order := make([]groupKey, 0)
	sites := make(map[groupKey][]model.CallSite)

	for _, ref := range refs {
		if ref.Line == 0 {
			continue
		}
		key := groupKey{name: ref.Name, file: ref.File, kind: ref.Kind}
		if _, ok := sites[key]; !ok {
			order = append(order, key)
		}
		sites[key] = append(sites[key], model.CallSite{File: ref.File, Line: ref.Line})
	}

	sort.Slice(order, func(i, j int) bool {
		if order[i].name != order[j].name {
			return order[i].name < order[j].name
		}
		if order[i].file != order[j].file {
			return order[i].file < order[j].file
		}
		return order[i].kind < order[j].kind
	})

	edges := make([]model.FollowEdge, 0, len(order))
	for _, key := range order {
		callSites := sites[key]
		sort.Slice(callSites, func(i, j int) bool { return callSites[i].Line < callSites[j].Line })

		var kindPtr *string
		if key.kind != "" {
			kindCopy := key.kind
			kindPtr = &kindCopy
		}

		edges = append(edges, model.FollowEdge{
			Symbol:    model.FollowSymbolRef{Name: key.name, Kind: kindPtr, File: key.file},
			CallSites: callSites,
		})
	}
	return edges
}
