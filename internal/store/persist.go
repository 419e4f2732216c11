package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"forumd/pkg/types"
)

// dump is the on-disk form of a Store.
type dump struct {
	Users    []types.User     `json:"users"`
	Tags     []types.Tag      `json:"tags"`
	Articles []types.Article  `json:"articles"`
	Badges   []types.Badge    `json:"badges"`
	Awards   []types.Award    `json:"awards"`
	Feedback []types.Feedback `json:"feedback"`
}

// Persist writes the store contents to path as JSON.
func (s *Store) Persist(path string) error {
	if path == "" {
		return nil
	}
	d := dump{
		Users:    s.Users(),
		Tags:     s.Tags(),
		Articles: s.Articles(),
		Badges:   s.Badges(),
		Awards:   s.Awards(),
		Feedback: s.Feedback(),
	}
	b, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return fmt.Errorf("encode store: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return fmt.Errorf("write store: %w", err)
	}
	return os.Rename(tmp, path)
}

// Restore reads a file written by Persist and saves its contents. A missing
// file is not an error. Saves fire the usual signals; callers that load
// bulk data detach them first.
func (s *Store) Restore(ctx context.Context, path string) error {
	if path == "" {
		return nil
	}
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer f.Close()
	var d dump
	if err := json.NewDecoder(f).Decode(&d); err != nil {
		return fmt.Errorf("decode store %s: %w", path, err)
	}
	for _, u := range d.Users {
		if _, err := s.SaveUser(ctx, u); err != nil {
			return err
		}
	}
	for _, t := range d.Tags {
		if _, err := s.SaveTag(ctx, t); err != nil {
			return err
		}
	}
	for _, a := range d.Articles {
		if _, err := s.SaveArticle(ctx, a); err != nil {
			return err
		}
	}
	for _, b := range d.Badges {
		if _, err := s.SaveBadge(ctx, b); err != nil {
			return err
		}
	}
	for _, a := range d.Awards {
		if _, err := s.SaveAward(ctx, a); err != nil {
			return err
		}
	}
	for _, fb := range d.Feedback {
		if _, err := s.SaveFeedback(ctx, fb); err != nil {
			return err
		}
	}
	return nil
}
