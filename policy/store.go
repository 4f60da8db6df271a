// Package policy keeps the allowed topic of every moderated channel.
package policy

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"discord-modbot/models"
)

// Repository persists channel policies.
type Repository interface {
	Upsert(ctx context.Context, channelID string, topic models.TopicLabel) error
	Delete(ctx context.Context, channelID string) error
	LoadAll(ctx context.Context) (map[string]models.TopicLabel, error)
}

// Store is the in-process view of all channel policies. Writes go through to
// the repository before they become visible; reads are served from memory.
// Consistency is per channel: writers to one channel never wait on another.
type Store struct {
	repo     Repository
	policies sync.Map // channel ID -> models.TopicLabel
	locks    sync.Map // channel ID -> *sync.Mutex
}

// NewStore loads every persisted policy from repo.
func NewStore(ctx context.Context, repo Repository) (*Store, error) {
	s := &Store{repo: repo}
	all, err := repo.LoadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load channel policies: %w", err)
	}
	for channelID, topic := range all {
		s.policies.Store(channelID, topic)
	}
	return s, nil
}

func (s *Store) lock(channelID string) func() {
	mu, _ := s.locks.LoadOrStore(channelID, &sync.Mutex{})
	m := mu.(*sync.Mutex)
	m.Lock()
	return m.Unlock
}

// Set makes topic the allowed topic of the channel. The name is matched
// case-insensitively; an unknown name fails with models.ErrUnknownTopic and
// changes nothing.
func (s *Store) Set(ctx context.Context, channelID, topic string) (models.TopicLabel, error) {
	label, err := models.ParseTopic(topic)
	if err != nil {
		return "", err
	}

	unlock := s.lock(channelID)
	defer unlock()

	if current, ok := s.policies.Load(channelID); ok && current.(models.TopicLabel) == label {
		return label, nil
	}
	if err := s.repo.Upsert(ctx, channelID, label); err != nil {
		return "", fmt.Errorf("failed to persist policy for channel %s: %w", channelID, err)
	}
	s.policies.Store(channelID, label)
	return label, nil
}

// Get returns the allowed topic of the channel, if any.
func (s *Store) Get(channelID string) (models.TopicLabel, bool) {
	v, ok := s.policies.Load(channelID)
	if !ok {
		return "", false
	}
	return v.(models.TopicLabel), true
}

// Clear removes the channel's policy. It reports whether a policy existed.
func (s *Store) Clear(ctx context.Context, channelID string) (bool, error) {
	unlock := s.lock(channelID)
	defer unlock()

	if _, ok := s.policies.Load(channelID); !ok {
		return false, nil
	}
	if err := s.repo.Delete(ctx, channelID); err != nil {
		return false, fmt.Errorf("failed to delete policy for channel %s: %w", channelID, err)
	}
	s.policies.Delete(channelID)
	return true, nil
}

// List returns the topic vocabulary, not the current assignments.
func (s *Store) List() []models.TopicLabel {
	return models.AllTopics()
}

// Policies returns the current assignments ordered by channel ID.
func (s *Store) Policies() []models.ChannelTopicPolicy {
	var out []models.ChannelTopicPolicy
	s.policies.Range(func(k, v any) bool {
		out = append(out, models.ChannelTopicPolicy{ChannelID: k.(string), AllowedTopic: v.(models.TopicLabel)})
		return true
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ChannelID < out[j].ChannelID })
	return out
}

// Seed applies defaults to channels that have no policy yet.
func (s *Store) Seed(ctx context.Context, defaults map[string]models.TopicLabel) (int, error) {
	applied := 0
	for channelID, topic := range defaults {
		if _, ok := s.Get(channelID); ok {
			continue
		}
		if _, err := s.Set(ctx, channelID, string(topic)); err != nil {
			return applied, err
		}
		applied++
	}
	return applied, nil
}
