package policy

import (
	"context"
	"sync"

	"discord-modbot/models"
)

// MemoryRepository keeps policies in memory only. Policies do not survive a
// restart; it is used when no database path is configured.
type MemoryRepository struct {
	mu   sync.Mutex
	data map[string]models.TopicLabel
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{data: make(map[string]models.TopicLabel)}
}

func (r *MemoryRepository) Upsert(_ context.Context, channelID string, topic models.TopicLabel) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[channelID] = topic
	return nil
}

func (r *MemoryRepository) Delete(_ context.Context, channelID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.data, channelID)
	return nil
}

func (r *MemoryRepository) LoadAll(_ context.Context) (map[string]models.TopicLabel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]models.TopicLabel, len(r.data))
	for k, v := range r.data {
		out[k] = v
	}
	return out, nil
}

// Len returns the number of stored policies.
func (r *MemoryRepository) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.data)
}
