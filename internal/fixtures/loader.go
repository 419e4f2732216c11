// Package fixtures bulk loads forum data from yaml, json or toml files.
//
// Loading runs with every database signal detached, so listeners such as
// badge awarding or notification mail do not fire for imported rows.
package fixtures

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"forumd/internal/common/fsutil"
	"forumd/internal/config"
	"forumd/internal/signals"
	"forumd/internal/store"
	"forumd/pkg/types"
)

var objectsLoaded = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "forumd",
		Subsystem: "fixtures",
		Name:      "objects_loaded_total",
		Help:      "Objects saved by fixture loading",
	},
	[]string{"kind"},
)

func init() {
	prometheus.MustRegister(objectsLoaded)
}

// Fixture is the content of one fixture file.
type Fixture struct {
	Users    []types.User    `json:"users" yaml:"users" toml:"users"`
	Tags     []types.Tag     `json:"tags" yaml:"tags" toml:"tags"`
	Articles []types.Article `json:"articles" yaml:"articles" toml:"articles"`
	Badges   []types.Badge   `json:"badges" yaml:"badges" toml:"badges"`
	Awards   []types.Award   `json:"awards" yaml:"awards" toml:"awards"`
}

// Result counts what a load saved.
type Result struct {
	Files   []string
	Objects map[store.Kind]int
}

// Total is the number of objects saved.
func (r Result) Total() int {
	n := 0
	for _, c := range r.Objects {
		n += c
	}
	return n
}

// Options parameterize a load.
type Options struct {
	// Channels are detached for the duration of the load.
	Channels []signals.Name
	Logger   *zerolog.Logger
}

// ReadFile decodes one fixture file.
func ReadFile(path string) (Fixture, error) {
	var fx Fixture
	b, err := os.ReadFile(path)
	if err != nil {
		return fx, err
	}
	if err := config.Decode(filepath.Ext(path), b, &fx); err != nil {
		return fx, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return fx, nil
}

// LoadDir decodes every fixture file in dir, in name order, and saves the
// objects into st with opts.Channels detached from reg. All files are
// decoded before anything is saved; a decode error saves nothing.
func LoadDir(ctx context.Context, dir string, st *store.Store, reg *signals.Registry, opts Options) (Result, error) {
	files, err := fsutil.Files(dir, func(name string) bool { return config.Supported(filepath.Ext(name)) })
	if err != nil {
		return Result{}, err
	}
	fxs := make([]Fixture, 0, len(files))
	for _, f := range files {
		fx, err := ReadFile(f)
		if err != nil {
			return Result{}, err
		}
		fxs = append(fxs, fx)
	}
	return Load(ctx, fxs, files, st, reg, opts)
}

// Load saves already decoded fixtures. names label the fixtures in the
// result and logs.
func Load(ctx context.Context, fxs []Fixture, names []string, st *store.Store, reg *signals.Registry, opts Options) (Result, error) {
	log := zerolog.Nop()
	if opts.Logger != nil {
		log = *opts.Logger
	}
	res := Result{Files: names, Objects: map[store.Kind]int{}}
	err := signals.Suppress(reg, opts.Channels, func() error {
		for i, fx := range fxs {
			name := fmt.Sprintf("#%d", i)
			if i < len(names) {
				name = filepath.Base(names[i])
			}
			if err := save(ctx, st, fx, res.Objects); err != nil {
				return fmt.Errorf("fixture %s: %w", name, err)
			}
			log.Debug().Str("fixture", name).Msg("fixture loaded")
		}
		return nil
	})
	for kind, n := range res.Objects {
		objectsLoaded.WithLabelValues(string(kind)).Add(float64(n))
	}
	if err != nil {
		return res, err
	}
	log.Info().Int("files", len(fxs)).Int("objects", res.Total()).Msg("fixtures loaded")
	return res, nil
}

func save(ctx context.Context, st *store.Store, fx Fixture, n map[store.Kind]int) error {
	for _, u := range fx.Users {
		if _, err := st.SaveUser(ctx, u); err != nil {
			return err
		}
		n[store.KindUser]++
	}
	for _, t := range fx.Tags {
		if _, err := st.SaveTag(ctx, t); err != nil {
			return err
		}
		n[store.KindTag]++
	}
	for _, a := range fx.Articles {
		if _, err := st.SaveArticle(ctx, a); err != nil {
			return err
		}
		n[store.KindArticle]++
	}
	for _, b := range fx.Badges {
		if _, err := st.SaveBadge(ctx, b); err != nil {
			return err
		}
		n[store.KindBadge]++
	}
	for _, a := range fx.Awards {
		if _, err := st.SaveAward(ctx, a); err != nil {
			return err
		}
		n[store.KindAward]++
	}
	return nil
}
