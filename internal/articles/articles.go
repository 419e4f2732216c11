// Package articles serves the articles directory: article pages with
// related articles, tag filtered listings and a search hook.
package articles

import (
	"context"
	"math/rand"
	"net/url"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"forumd/internal/search"
	"forumd/internal/signals"
	"forumd/pkg/types"
)

const (
	// PerPage is the listing page size; lists show summaries.
	PerPage = 10
	// DefaultRelated is how many related articles an article page shows.
	DefaultRelated = 5
	// SearchPriority is the priority of the "Articles" search group.
	SearchPriority = 2
	// SearchHookID is the listener ID of the search hook.
	SearchHookID = "articles.search"
)

// Store is the subset of the forum store used here.
type Store interface {
	ArticleBySlug(slug string) (types.Article, error)
	Articles() []types.Article
	TagBySlug(slug string) (types.Tag, error)
	Tags() []types.Tag
}

type Service struct {
	st  Store
	log zerolog.Logger
}

func New(st Store, log *zerolog.Logger) *Service {
	s := &Service{st: st, log: zerolog.Nop()}
	if log != nil {
		s.log = *log
	}
	return s
}

func ArticleURL(slug string) string { return "/articles/" + url.PathEscape(slug) }
func TagURL(slug string) string     { return "/articles/tag/" + url.PathEscape(slug) }

func Summary(a types.Article) types.ArticleSummary {
	return types.ArticleSummary{Title: a.Title, URL: ArticleURL(a.Slug), Teaser: a.Teaser}
}

func TagView(t types.Tag, active bool) types.TagSummary {
	return types.TagSummary{Name: t.Name, URL: TagURL(t.Slug), Description: t.Description, IsActive: active}
}

// Get returns the article with the given slug.
func (s *Service) Get(slug string) (types.Article, error) {
	a, err := s.st.ArticleBySlug(slug)
	if err != nil {
		s.log.Error().Str("slug", slug).Err(err).Msg("article with slug does not exist")
		return a, err
	}
	return a, nil
}

// Related returns up to n articles sharing a tag with a. The choice is
// shuffled with a seed derived from a.ID so an article always shows the
// same related articles.
func (s *Service) Related(a types.Article, n int) []types.Article {
	if n <= 0 {
		n = DefaultRelated
	}
	tags := make(map[string]bool, len(a.Tags))
	for _, t := range a.Tags {
		tags[t] = true
	}
	var rel []types.Article
	for _, cand := range s.st.Articles() {
		if cand.ID == a.ID {
			continue
		}
		for _, t := range cand.Tags {
			if tags[t] {
				rel = append(rel, cand)
				break
			}
		}
	}
	sort.SliceStable(rel, func(i, j int) bool { return rel[i].PublishDate.Before(rel[j].PublishDate) })
	shuffle(rel, a.ID)
	if len(rel) > n {
		rel = rel[:n]
	}
	return rel
}

func shuffle(as []types.Article, seed int64) {
	rnd := rand.New(rand.NewSource(seed))
	rnd.Shuffle(len(as), func(i, j int) { as[i], as[j] = as[j], as[i] })
}

// Page builds the article detail page.
func (s *Service) Page(slug string) (types.ArticlePage, error) {
	a, err := s.Get(slug)
	if err != nil {
		return types.ArticlePage{}, err
	}
	rel := s.Related(a, DefaultRelated)
	out := types.ArticlePage{Article: a, RelatedArticles: make([]types.ArticleSummary, 0, len(rel))}
	for _, r := range rel {
		out.RelatedArticles = append(out.RelatedArticles, Summary(r))
	}
	return out, nil
}

// List returns page of the live articles, newest first. With a tag slug
// only articles carrying that tag are listed and the page is shuffled with
// a seed derived from the tag ID. Out of range pages are clamped.
func (s *Service) List(tagSlug string, page int) (types.ArticleListPage, error) {
	var (
		out     types.ArticleListPage
		current *types.Tag
	)
	baseURL := "/articles"
	if tagSlug != "" {
		t, err := s.st.TagBySlug(tagSlug)
		if err != nil {
			s.log.Error().Str("tag", tagSlug).Err(err).Msg("tag does not exist")
			return out, err
		}
		current = &t
		tv := TagView(t, true)
		out.CurrentTag = &tv
		baseURL = TagURL(t.Slug)
	}

	var live []types.Article
	for _, a := range s.st.Articles() {
		if !a.Live {
			continue
		}
		if current != nil && !hasTag(a, current.Slug) {
			continue
		}
		live = append(live, a)
	}
	sort.SliceStable(live, func(i, j int) bool {
		if !live[i].PublishDate.Equal(live[j].PublishDate) {
			return live[i].PublishDate.After(live[j].PublishDate)
		}
		return live[i].ID > live[j].ID
	})

	p := paginate(len(live), page, PerPage)
	p.BaseURL = baseURL
	out.Paginator = p
	start := (p.Page - 1) * PerPage
	end := start + PerPage
	if end > len(live) {
		end = len(live)
	}
	shown := append([]types.Article(nil), live[start:end]...)
	if current != nil {
		shuffle(shown, current.ID)
	}
	out.Articles = make([]types.ArticleSummary, 0, len(shown))
	for _, a := range shown {
		out.Articles = append(out.Articles, Summary(a))
	}
	for _, t := range s.st.Tags() {
		out.Tags = append(out.Tags, TagView(t, current != nil && t.ID == current.ID))
	}
	if out.Tags == nil {
		out.Tags = []types.TagSummary{}
	}
	return out, nil
}

func hasTag(a types.Article, slug string) bool {
	for _, t := range a.Tags {
		if t == slug {
			return true
		}
	}
	return false
}

func paginate(total, page, per int) types.Paginator {
	pages := (total + per - 1) / per
	if pages < 1 {
		pages = 1
	}
	if page < 1 {
		page = 1
	}
	if page > pages {
		page = pages
	}
	return types.Paginator{
		Page:    page,
		Pages:   pages,
		PerPage: per,
		Total:   total,
		HasPrev: page > 1,
		HasNext: page < pages,
	}
}

// SearchHook returns the listener that contributes the "Articles" search
// group: articles whose title contains the query, ignoring case. An empty
// query matches every article.
func (s *Service) SearchHook() signals.Listener {
	return signals.Listener{ID: SearchHookID, Fn: func(_ context.Context, _ any, args signals.Args) (any, error) {
		q := strings.ToLower(args.String("query"))
		g := search.NewGroup("Articles", SearchPriority)
		for _, a := range s.st.Articles() {
			if strings.Contains(strings.ToLower(a.Title), q) {
				g.Add(types.SearchResult{Title: a.Title, URL: ArticleURL(a.Slug)})
			}
		}
		return g, nil
	}}
}

// Connect registers the search hook on reg.
func (s *Service) Connect(reg *signals.Registry) {
	reg.Connect(signals.SearchForum, s.SearchHook())
}
