// Package forum wires the forum services together: the signal registry, the
// store, badge awarding, articles and the secondary pages. The HTTP layer
// and the CLI talk to an *App only.
package forum

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/rs/zerolog"

	"forumd/internal/articles"
	"forumd/internal/badges"
	"forumd/internal/config"
	"forumd/internal/fixtures"
	"forumd/internal/mail"
	"forumd/internal/meta"
	"forumd/internal/search"
	"forumd/internal/signals"
	"forumd/internal/store"
	"forumd/pkg/types"
)

type App struct {
	*meta.Service

	Registry *signals.Registry
	Store    *store.Store
	Awarder  *badges.Awarder
	articles *articles.Service

	cfg   config.Config
	log   zerolog.Logger
	ready atomic.Bool
}

// New builds an App from cfg, which should already carry defaults. A nil
// mailer logs feedback mail instead of sending it.
func New(cfg config.Config, m mail.Mailer, log zerolog.Logger) *App {
	reg := signals.NewRegistry()
	reg.SetLogger(log.With().Str("component", "signals").Logger())
	signals.DeclareDefaults(reg)

	stLog := log.With().Str("component", "store").Logger()
	st := store.New(reg, store.Options{M2MChanged: cfg.M2MChanged, Logger: &stLog})

	if m == nil {
		m = mail.LogMailer{Log: log.With().Str("component", "mail").Logger()}
	}
	allowAnon := true
	if cfg.Forum.AllowAnonymousFeedback != nil {
		allowAnon = *cfg.Forum.AllowAnonymousFeedback
	}
	metaLog := log.With().Str("component", "meta").Logger()
	artLog := log.With().Str("component", "articles").Logger()
	badgeLog := log.With().Str("component", "badges").Logger()

	a := &App{
		Service: meta.New(meta.Settings{
			AppShortName:           cfg.Forum.AppShortName,
			About:                  cfg.Forum.About,
			FAQ:                    cfg.Forum.FAQ,
			Privacy:                cfg.Forum.Privacy,
			AllowAnonymousFeedback: allowAnon,
			BadgesMode:             cfg.Forum.BadgesMode,
			LoginURL:               cfg.Forum.LoginURL,
		}, st, m, &metaLog),
		Registry: reg,
		Store:    st,
		Awarder:  badges.NewAwarder(st, reg, &badgeLog),
		articles: articles.New(st, &artLog),
		cfg:      cfg,
		log:      log,
	}
	a.Awarder.Connect()
	a.articles.Connect(reg)
	return a
}

// DBChannels is the set of channels detached during bulk loads.
func (a *App) DBChannels() []signals.Name {
	return signals.DBChannels(signals.DBChannelOptions{
		Extra:      []func() signals.Name{badges.Channel},
		M2MChanged: a.cfg.M2MChanged,
	})
}

// Start restores the data file and loads the fixtures directory, both with
// DB signals detached, then syncs the schema and marks the app ready.
func (a *App) Start(ctx context.Context) error {
	if a.cfg.DataFile != "" {
		err := signals.Suppress(a.Registry, a.DBChannels(), func() error {
			return a.Store.Restore(ctx, a.cfg.DataFile)
		})
		if err != nil {
			return fmt.Errorf("restore data: %w", err)
		}
	}
	if a.cfg.FixturesDir != "" {
		if _, err := a.LoadFixtures(ctx, a.cfg.FixturesDir); err != nil {
			return err
		}
	}
	a.Store.Sync(ctx)
	a.ready.Store(true)
	a.log.Info().Int("users", len(a.Store.Users())).Int("articles", len(a.Store.Articles())).Msg("forum ready")
	return nil
}

// LoadFixtures loads a fixtures directory with DB signals detached.
func (a *App) LoadFixtures(ctx context.Context, dir string) (fixtures.Result, error) {
	fxLog := a.log.With().Str("component", "fixtures").Logger()
	res, err := fixtures.LoadDir(ctx, dir, a.Store, a.Registry, fixtures.Options{Channels: a.DBChannels(), Logger: &fxLog})
	if err != nil {
		return res, fmt.Errorf("load fixtures: %w", err)
	}
	return res, nil
}

// Close persists the store to the data file, if one is configured.
func (a *App) Close() error {
	a.ready.Store(false)
	if err := a.Store.Persist(a.cfg.DataFile); err != nil {
		return fmt.Errorf("persist data: %w", err)
	}
	return nil
}

func (a *App) Ready() bool { return a.ready.Load() }

func (a *App) Article(slug string) (types.ArticlePage, error) { return a.articles.Page(slug) }

func (a *App) Articles(tag string, page int) (types.ArticleListPage, error) {
	return a.articles.List(tag, page)
}

// Search runs every search hook for q.
func (a *App) Search(ctx context.Context, q string) types.SearchResponse {
	groups := search.Run(ctx, a.Registry, a.log, q, nil)
	return types.SearchResponse{Query: q, Groups: groups}
}

// CurrentUser resolves a username; an empty name is an anonymous visitor.
func (a *App) CurrentUser(name string) (*types.User, error) {
	if name == "" {
		return nil, nil
	}
	u, err := a.Store.UserByName(name)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Signals describes every channel with its listeners.
func (a *App) Signals() types.SignalsResponse {
	db := map[signals.Name]bool{}
	for _, n := range a.DBChannels() {
		db[n] = true
	}
	var out types.SignalsResponse
	for _, n := range a.Registry.Names() {
		cs := types.ChannelStatus{Name: string(n), Args: a.Registry.DeclaredArgs(n), Listeners: []string{}, DB: db[n]}
		for _, l := range a.Registry.Listeners(n) {
			cs.Listeners = append(cs.Listeners, l.ID)
		}
		out.Channels = append(out.Channels, cs)
	}
	return out
}
