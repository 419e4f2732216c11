package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"forumd/internal/signals"
	"forumd/pkg/types"
)

// Kind names a stored object type. It is delivered as the "kind" argument
// of the persistence signals.
type Kind string

const (
	KindUser     Kind = "user"
	KindTag      Kind = "tag"
	KindArticle  Kind = "article"
	KindBadge    Kind = "badge"
	KindAward    Kind = "award"
	KindFeedback Kind = "feedback"
)

// Kinds lists every kind in dependency order.
var Kinds = []Kind{KindUser, KindTag, KindArticle, KindBadge, KindAward, KindFeedback}

// Options configure a Store.
type Options struct {
	// M2MChanged makes award saves and deletes also fire m2m_changed.
	M2MChanged bool
	Logger     *zerolog.Logger
}

// Store keeps forum data in memory. Every save and delete fires the
// persistence signals on the registry; listeners run outside the store lock
// and may call back into the store.
type Store struct {
	mu       sync.RWMutex
	reg      *signals.Registry
	m2m      bool
	log      zerolog.Logger
	nextID   map[Kind]int64
	users    map[int64]types.User
	tags     map[int64]types.Tag
	articles map[int64]types.Article
	badges   map[int64]types.Badge
	awards   map[int64]types.Award
	feedback []types.Feedback
}

func New(reg *signals.Registry, opts Options) *Store {
	s := &Store{
		reg:      reg,
		m2m:      opts.M2MChanged,
		log:      zerolog.Nop(),
		nextID:   make(map[Kind]int64),
		users:    make(map[int64]types.User),
		tags:     make(map[int64]types.Tag),
		articles: make(map[int64]types.Article),
		badges:   make(map[int64]types.Badge),
		awards:   make(map[int64]types.Award),
	}
	if opts.Logger != nil {
		s.log = *opts.Logger
	}
	return s
}

// M2MChanged reports whether the store fires m2m_changed.
func (s *Store) M2MChanged() bool { return s.m2m }

// assignID returns id, or the next free id of kind when id is zero. s.mu must be held.
func (s *Store) assignID(kind Kind, id int64) int64 {
	if id == 0 {
		s.nextID[kind]++
		return s.nextID[kind]
	}
	if id > s.nextID[kind] {
		s.nextID[kind] = id
	}
	return id
}

func (s *Store) preSave(ctx context.Context, kind Kind, v any) error {
	rs := s.reg.Send(ctx, signals.PreSave, s, signals.ModelEventArgs{Kind: string(kind), Instance: v}.Args())
	if err := signals.Errors(rs); err != nil {
		return fmt.Errorf("pre_save %s: %w", kind, err)
	}
	return nil
}

func (s *Store) postSave(ctx context.Context, kind Kind, v any, created bool) {
	s.reg.Send(ctx, signals.PostSave, s, signals.ModelEventArgs{Kind: string(kind), Instance: v, Created: created}.Args())
	s.log.Debug().Str("kind", string(kind)).Bool("created", created).Msg("saved")
}

// SaveUser inserts or replaces u. A zero ID allocates a new one.
func (s *Store) SaveUser(ctx context.Context, u types.User) (types.User, error) {
	if strings.TrimSpace(u.Username) == "" {
		return u, invalidError{kind: KindUser, msg: "username is required"}
	}
	if err := s.preSave(ctx, KindUser, u); err != nil {
		return u, err
	}
	s.mu.Lock()
	for id, have := range s.users {
		if id != u.ID && strings.EqualFold(have.Username, u.Username) {
			s.mu.Unlock()
			return u, conflictError{kind: KindUser, key: u.Username}
		}
	}
	u.ID = s.assignID(KindUser, u.ID)
	_, existed := s.users[u.ID]
	s.users[u.ID] = u
	s.mu.Unlock()
	s.postSave(ctx, KindUser, u, !existed)
	if existed {
		s.reg.Send(ctx, signals.UserUpdated, s, signals.UserUpdatedArgs{Instance: u.Username}.Args())
	} else {
		s.reg.Send(ctx, signals.UserRegistered, s, signals.UserRegisteredArgs{User: u.Username}.Args())
	}
	return u, nil
}

func (s *Store) User(id int64) (types.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return u, notFoundError{kind: KindUser, key: fmt.Sprint(id)}
	}
	return u, nil
}

// UserByName looks a user up case-insensitively.
func (s *Store) UserByName(name string) (types.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Username, name) {
			return u, nil
		}
	}
	return types.User{}, notFoundError{kind: KindUser, key: name}
}

func (s *Store) Users() []types.User {
	s.mu.RLock()
	out := make([]types.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u)
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// SaveTag inserts or replaces t. Slugs are unique.
func (s *Store) SaveTag(ctx context.Context, t types.Tag) (types.Tag, error) {
	if t.Slug == "" {
		return t, invalidError{kind: KindTag, msg: "slug is required"}
	}
	if err := s.preSave(ctx, KindTag, t); err != nil {
		return t, err
	}
	s.mu.Lock()
	for id, have := range s.tags {
		if id != t.ID && have.Slug == t.Slug {
			s.mu.Unlock()
			return t, conflictError{kind: KindTag, key: t.Slug}
		}
	}
	t.ID = s.assignID(KindTag, t.ID)
	_, existed := s.tags[t.ID]
	s.tags[t.ID] = t
	s.mu.Unlock()
	s.postSave(ctx, KindTag, t, !existed)
	return t, nil
}

func (s *Store) TagBySlug(slug string) (types.Tag, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, t := range s.tags {
		if t.Slug == slug {
			return t, nil
		}
	}
	return types.Tag{}, notFoundError{kind: KindTag, key: slug}
}

// Tags returns all tags ordered by name.
func (s *Store) Tags() []types.Tag {
	s.mu.RLock()
	out := make([]types.Tag, 0, len(s.tags))
	for _, t := range s.tags {
		out = append(out, t)
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// SaveArticle inserts or replaces a. Every tag slug it references must exist.
func (s *Store) SaveArticle(ctx context.Context, a types.Article) (types.Article, error) {
	if a.Slug == "" {
		return a, invalidError{kind: KindArticle, msg: "slug is required"}
	}
	if err := s.preSave(ctx, KindArticle, a); err != nil {
		return a, err
	}
	s.mu.Lock()
	for id, have := range s.articles {
		if id != a.ID && have.Slug == a.Slug {
			s.mu.Unlock()
			return a, conflictError{kind: KindArticle, key: a.Slug}
		}
	}
	for _, slug := range a.Tags {
		if !s.hasTagLocked(slug) {
			s.mu.Unlock()
			return a, notFoundError{kind: KindTag, key: slug}
		}
	}
	a.Tags = append([]string(nil), a.Tags...)
	a.ID = s.assignID(KindArticle, a.ID)
	_, existed := s.articles[a.ID]
	s.articles[a.ID] = a
	s.mu.Unlock()
	s.postSave(ctx, KindArticle, a, !existed)
	if existed {
		s.reg.Send(ctx, signals.PostUpdated, s, signals.PostUpdatedArgs{Post: a.Slug}.Args())
	}
	return a, nil
}

func (s *Store) hasTagLocked(slug string) bool {
	for _, t := range s.tags {
		if t.Slug == slug {
			return true
		}
	}
	return false
}

func (s *Store) ArticleBySlug(slug string) (types.Article, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, a := range s.articles {
		if a.Slug == slug {
			return a, nil
		}
	}
	return types.Article{}, notFoundError{kind: KindArticle, key: slug}
}

// Articles returns every article ordered by ID.
func (s *Store) Articles() []types.Article {
	s.mu.RLock()
	out := make([]types.Article, 0, len(s.articles))
	for _, a := range s.articles {
		out = append(out, a)
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Store) SaveBadge(ctx context.Context, b types.Badge) (types.Badge, error) {
	if b.Slug == "" {
		return b, invalidError{kind: KindBadge, msg: "slug is required"}
	}
	if err := s.preSave(ctx, KindBadge, b); err != nil {
		return b, err
	}
	s.mu.Lock()
	for id, have := range s.badges {
		if id != b.ID && have.Slug == b.Slug {
			s.mu.Unlock()
			return b, conflictError{kind: KindBadge, key: b.Slug}
		}
	}
	b.ID = s.assignID(KindBadge, b.ID)
	_, existed := s.badges[b.ID]
	s.badges[b.ID] = b
	s.mu.Unlock()
	s.postSave(ctx, KindBadge, b, !existed)
	return b, nil
}

func (s *Store) Badge(id int64) (types.Badge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.badges[id]
	if !ok {
		return b, notFoundError{kind: KindBadge, key: fmt.Sprint(id)}
	}
	return b, nil
}

func (s *Store) BadgeBySlug(slug string) (types.Badge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, b := range s.badges {
		if b.Slug == slug {
			return b, nil
		}
	}
	return types.Badge{}, notFoundError{kind: KindBadge, key: slug}
}

// Badges returns every badge ordered by slug.
func (s *Store) Badges() []types.Badge {
	s.mu.RLock()
	out := make([]types.Badge, 0, len(s.badges))
	for _, b := range s.badges {
		out = append(out, b)
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Slug < out[j].Slug })
	return out
}

// SaveAward records an award. User and badge must exist.
func (s *Store) SaveAward(ctx context.Context, a types.Award) (types.Award, error) {
	if err := s.preSave(ctx, KindAward, a); err != nil {
		return a, err
	}
	s.mu.Lock()
	if _, ok := s.users[a.UserID]; !ok {
		s.mu.Unlock()
		return a, notFoundError{kind: KindUser, key: fmt.Sprint(a.UserID)}
	}
	if _, ok := s.badges[a.BadgeID]; !ok {
		s.mu.Unlock()
		return a, notFoundError{kind: KindBadge, key: fmt.Sprint(a.BadgeID)}
	}
	a.ID = s.assignID(KindAward, a.ID)
	_, existed := s.awards[a.ID]
	s.awards[a.ID] = a
	s.mu.Unlock()
	s.postSave(ctx, KindAward, a, !existed)
	if s.m2m && !existed {
		s.reg.Send(ctx, signals.M2MChanged, s, signals.M2MChangedArgs{
			Kind: string(KindAward), Instance: a, Action: "post_add", PKSet: []int64{a.BadgeID},
		}.Args())
	}
	return a, nil
}

// Awards returns every award ordered by ID.
func (s *Store) Awards() []types.Award {
	s.mu.RLock()
	out := make([]types.Award, 0, len(s.awards))
	for _, a := range s.awards {
		out = append(out, a)
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// SaveFeedback appends f. Feedback is never updated.
func (s *Store) SaveFeedback(ctx context.Context, f types.Feedback) (types.Feedback, error) {
	if err := s.preSave(ctx, KindFeedback, f); err != nil {
		return f, err
	}
	s.mu.Lock()
	s.feedback = append(s.feedback, f)
	s.mu.Unlock()
	s.postSave(ctx, KindFeedback, f, true)
	return f, nil
}

func (s *Store) Feedback() []types.Feedback {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]types.Feedback(nil), s.feedback...)
}

// Delete removes the object of kind with the given id, firing pre_delete
// and post_delete. Deleting a user or badge also deletes its awards.
func (s *Store) Delete(ctx context.Context, kind Kind, id int64) error {
	v, err := s.get(kind, id)
	if err != nil {
		return err
	}
	if kind == KindUser || kind == KindBadge {
		for _, a := range s.Awards() {
			if (kind == KindUser && a.UserID == id) || (kind == KindBadge && a.BadgeID == id) {
				if err := s.Delete(ctx, KindAward, a.ID); err != nil && !IsNotFound(err) {
					return err
				}
			}
		}
	}
	args := signals.ModelEventArgs{Kind: string(kind), Instance: v}.Args()
	s.reg.Send(ctx, signals.PreDelete, s, args)
	s.mu.Lock()
	switch kind {
	case KindUser:
		delete(s.users, id)
	case KindTag:
		delete(s.tags, id)
	case KindArticle:
		delete(s.articles, id)
	case KindBadge:
		delete(s.badges, id)
	case KindAward:
		delete(s.awards, id)
	}
	s.mu.Unlock()
	s.reg.Send(ctx, signals.PostDelete, s, args)
	if kind == KindAward && s.m2m {
		aw := v.(types.Award)
		s.reg.Send(ctx, signals.M2MChanged, s, signals.M2MChangedArgs{
			Kind: string(KindAward), Instance: aw, Action: "post_remove", PKSet: []int64{aw.BadgeID},
		}.Args())
	}
	return nil
}

func (s *Store) get(kind Kind, id int64) (any, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var (
		v  any
		ok bool
	)
	switch kind {
	case KindUser:
		v, ok = s.users[id]
	case KindTag:
		v, ok = s.tags[id]
	case KindArticle:
		v, ok = s.articles[id]
	case KindBadge:
		v, ok = s.badges[id]
	case KindAward:
		v, ok = s.awards[id]
	default:
		return nil, invalidError{kind: kind, msg: "kind cannot be deleted"}
	}
	if !ok {
		return nil, notFoundError{kind: kind, key: fmt.Sprint(id)}
	}
	return v, nil
}

// Sync announces that the schema for every kind is in place.
func (s *Store) Sync(ctx context.Context) {
	kinds := make([]string, len(Kinds))
	for i, k := range Kinds {
		kinds[i] = string(k)
	}
	s.reg.Send(ctx, signals.PostSyncDB, s, signals.Args{"kinds": kinds})
}
