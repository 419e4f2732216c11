// Package search collects search results contributed by hooks connected to
// the search_forum channel.
//
// Each hook may return one *Group. Groups are ordered by priority (1-10,
// higher first), ties by name. The forum's own question results always come
// last.
package search

import (
	"context"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"forumd/internal/signals"
	"forumd/pkg/types"
)

const (
	MinPriority = 1
	MaxPriority = 10
)

// Group is a block of results contributed by one hook.
type Group struct {
	Name     string
	Priority int
	Results  []types.SearchResult
}

func NewGroup(name string, priority int) *Group {
	return &Group{Name: name, Priority: priority}
}

func (g *Group) Add(r types.SearchResult) { g.Results = append(g.Results, r) }

func (g *Group) View() types.SearchGroup {
	rs := g.Results
	if rs == nil {
		rs = []types.SearchResult{}
	}
	return types.SearchGroup{Name: g.Name, Priority: g.Priority, Results: rs}
}

func clamp(p int) int {
	if p < MinPriority {
		return MinPriority
	}
	if p > MaxPriority {
		return MaxPriority
	}
	return p
}

// Run sends query on search_forum and returns the contributed groups in
// display order followed by questions, when given. Failed hooks and
// responses that are not groups are skipped.
func Run(ctx context.Context, reg *signals.Registry, log zerolog.Logger, query string, questions *Group) []types.SearchGroup {
	query = strings.TrimSpace(query)
	var groups []*Group
	for _, r := range reg.Send(ctx, signals.SearchForum, nil, signals.SearchQueryArgs{Query: query}.Args()) {
		if r.Err != nil {
			log.Warn().Str("hook", r.ListenerID).Err(r.Err).Msg("search hook failed")
			continue
		}
		g, ok := r.Value.(*Group)
		if !ok || g == nil {
			continue
		}
		g.Priority = clamp(g.Priority)
		groups = append(groups, g)
	}
	sort.SliceStable(groups, func(i, j int) bool {
		if groups[i].Priority != groups[j].Priority {
			return groups[i].Priority > groups[j].Priority
		}
		return groups[i].Name < groups[j].Name
	})
	out := make([]types.SearchGroup, 0, len(groups)+1)
	for _, g := range groups {
		out = append(out, g.View())
	}
	if questions != nil {
		out = append(out, questions.View())
	}
	return out
}
