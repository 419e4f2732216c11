// Package badges owns the badge catalog and the award_badges channel.
//
// The channel name lives here rather than in package signals because this
// package imports signals; signals.DBChannels reaches it through Channel.
package badges

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"forumd/internal/signals"
	"forumd/internal/store"
	"forumd/pkg/types"
)

// AwardSignal carries {badge, user, timestamp}: badge is a catalog slug,
// user a username.
const AwardSignal signals.Name = "award_badges"

// Channel resolves AwardSignal for signals.DBChannelOptions.Extra.
func Channel() signals.Name { return AwardSignal }

// Listener IDs.
const (
	AwarderID   = "badges.awarder"
	InstallerID = "badges.installer"
	RetaggerID  = "badges.retagger"
)

// Def is a catalog entry.
type Def struct {
	Slug        string
	Name        string
	Description string
	Level       string
	// Multiple badges can be awarded to the same user more than once.
	Multiple bool
}

// Catalog lists the badges the forum knows how to award, keyed by slug.
var Catalog = map[string]Def{
	"autobiographer": {Slug: "autobiographer", Name: "Autobiographer", Description: "Completed all user profile fields", Level: types.BadgeBronze},
	"citizen-patrol": {Slug: "citizen-patrol", Name: "Citizen patrol", Description: "First flagged post", Level: types.BadgeBronze},
	"civic-duty":     {Slug: "civic-duty", Name: "Civic duty", Description: "Voted 300 times", Level: types.BadgeSilver},
	"enthusiast":     {Slug: "enthusiast", Name: "Enthusiast", Description: "Visited site every day for 30 days in a row", Level: types.BadgeSilver},
	"great-answer":   {Slug: "great-answer", Name: "Great answer", Description: "Answer voted up 100 times", Level: types.BadgeGold, Multiple: true},
	"retagger":       {Slug: "retagger", Name: "Retagger", Description: "Retagged a question", Level: types.BadgeBronze},
	"teacher":        {Slug: "teacher", Name: "Teacher", Description: "Gave an accepted answer upvoted 10 times", Level: types.BadgeBronze},
}

// Known reports whether slug is in the catalog.
func Known(slug string) bool {
	_, ok := Catalog[slug]
	return ok
}

// Store is the subset of the forum store used here.
type Store interface {
	SaveBadge(ctx context.Context, b types.Badge) (types.Badge, error)
	BadgeBySlug(slug string) (types.Badge, error)
	UserByName(name string) (types.User, error)
	SaveAward(ctx context.Context, a types.Award) (types.Award, error)
	Awards() []types.Award
}

type Awarder struct {
	st  Store
	reg *signals.Registry
	log zerolog.Logger
}

func NewAwarder(st Store, reg *signals.Registry, log *zerolog.Logger) *Awarder {
	a := &Awarder{st: st, reg: reg, log: zerolog.Nop()}
	if log != nil {
		a.log = *log
	}
	return a
}

// Install saves every catalog badge missing from the store.
func (a *Awarder) Install(ctx context.Context) error {
	var errs []error
	for _, slug := range sortedSlugs() {
		if _, err := a.st.BadgeBySlug(slug); err == nil {
			continue
		}
		d := Catalog[slug]
		if _, err := a.st.SaveBadge(ctx, types.Badge{Slug: d.Slug, Name: d.Name, Description: d.Description, Level: d.Level}); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Award gives the badge to the user. Single badges already held are not
// awarded again; that case returns a zero Award and no error.
func (a *Awarder) Award(ctx context.Context, slug, username string, at time.Time) (types.Award, error) {
	d, ok := Catalog[slug]
	if !ok {
		return types.Award{}, fmt.Errorf("unknown badge %q", slug)
	}
	b, err := a.st.BadgeBySlug(slug)
	if store.IsNotFound(err) {
		b, err = a.st.SaveBadge(ctx, types.Badge{Slug: d.Slug, Name: d.Name, Description: d.Description, Level: d.Level})
	}
	if err != nil {
		return types.Award{}, err
	}
	u, err := a.st.UserByName(username)
	if err != nil {
		return types.Award{}, err
	}
	if !d.Multiple {
		for _, aw := range a.st.Awards() {
			if aw.UserID == u.ID && aw.BadgeID == b.ID {
				return types.Award{}, nil
			}
		}
	}
	if at.IsZero() {
		at = time.Now()
	}
	aw, err := a.st.SaveAward(ctx, types.Award{UserID: u.ID, BadgeID: b.ID, AwardedAt: at})
	if err != nil {
		return aw, err
	}
	a.log.Info().Str("badge", slug).Str("user", username).Msg("badge awarded")
	return aw, nil
}

// Connect wires the awarder: award_badges records awards, post_syncdb
// installs the catalog, tags_updated awards the retagger badge.
func (a *Awarder) Connect() {
	a.reg.Declare(AwardSignal, "badge", "user", "timestamp")
	a.reg.Connect(AwardSignal, signals.Listener{ID: AwarderID, Fn: func(ctx context.Context, _ any, args signals.Args) (any, error) {
		return a.Award(ctx, args.String("badge"), args.String("user"), args.Time("timestamp"))
	}})
	a.reg.Connect(signals.PostSyncDB, signals.Listener{ID: InstallerID, Fn: func(ctx context.Context, _ any, _ signals.Args) (any, error) {
		return nil, a.Install(ctx)
	}})
	a.reg.Connect(signals.TagsUpdated, signals.Listener{ID: RetaggerID, Fn: func(ctx context.Context, sender any, args signals.Args) (any, error) {
		rs := a.reg.Send(ctx, AwardSignal, sender, signals.Args{
			"badge":     "retagger",
			"user":      args.String("user"),
			"timestamp": args.Time("timestamp"),
		})
		return nil, signals.Errors(rs)
	}})
}
