package policy

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"discord-modbot/models"
)

type failingRepository struct {
	*MemoryRepository
	err error
}

func (r *failingRepository) Upsert(ctx context.Context, channelID string, topic models.TopicLabel) error {
	return r.err
}

func newTestStore(t *testing.T) (*Store, *MemoryRepository) {
	t.Helper()
	repo := NewMemoryRepository()
	s, err := NewStore(context.Background(), repo)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return s, repo
}

func TestSetGet(t *testing.T) {
	s, _ := newTestStore(t)

	got, err := s.Set(context.Background(), "chan", "  sports ")
	if err != nil {
		t.Fatalf("Set: %v", err)
	}
	if got != models.TopicSports {
		t.Errorf("Set returned %q, want Sports", got)
	}

	topic, ok := s.Get("chan")
	if !ok || topic != models.TopicSports {
		t.Errorf("Get = %q, %v; want Sports, true", topic, ok)
	}
	if _, ok := s.Get("other"); ok {
		t.Error("Get on unset channel should report no policy")
	}
}

func TestSetIsIdempotent(t *testing.T) {
	s, repo := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := s.Set(ctx, "chan", "Sports"); err != nil {
			t.Fatalf("Set #%d: %v", i+1, err)
		}
	}
	if n := len(s.Policies()); n != 1 {
		t.Errorf("Policies() has %d entries, want 1", n)
	}
	if repo.Len() != 1 {
		t.Errorf("repository has %d entries, want 1", repo.Len())
	}
}

func TestSetOverwrites(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	if _, err := s.Set(ctx, "chan", "Sports"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Set(ctx, "chan", "Sci/Tech"); err != nil {
		t.Fatal(err)
	}
	if topic, _ := s.Get("chan"); topic != models.TopicSciTech {
		t.Errorf("Get = %q, want Sci/Tech", topic)
	}
}

func TestSetUnknownTopicDoesNotMutate(t *testing.T) {
	s, repo := newTestStore(t)
	ctx := context.Background()

	if _, err := s.Set(ctx, "chan", "World"); err != nil {
		t.Fatal(err)
	}
	_, err := s.Set(ctx, "chan", "Cooking")
	if !errors.Is(err, models.ErrUnknownTopic) {
		t.Fatalf("Set error = %v, want ErrUnknownTopic", err)
	}
	if topic, _ := s.Get("chan"); topic != models.TopicWorld {
		t.Errorf("policy changed to %q after a rejected Set", topic)
	}
	if repo.Len() != 1 {
		t.Errorf("repository has %d entries, want 1", repo.Len())
	}
}

func TestSetPersistenceFailureKeepsOldPolicy(t *testing.T) {
	repo := &failingRepository{MemoryRepository: NewMemoryRepository(), err: errors.New("disk full")}
	s, err := NewStore(context.Background(), repo)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := s.Set(context.Background(), "chan", "Sports"); err == nil {
		t.Fatal("Set should fail when the repository fails")
	}
	if _, ok := s.Get("chan"); ok {
		t.Error("failed write must not become visible")
	}
}

func TestClearIsIdempotent(t *testing.T) {
	s, repo := newTestStore(t)
	ctx := context.Background()

	if _, err := s.Set(ctx, "chan", "Business"); err != nil {
		t.Fatal(err)
	}
	existed, err := s.Clear(ctx, "chan")
	if err != nil || !existed {
		t.Fatalf("first Clear = %v, %v; want true, nil", existed, err)
	}
	existed, err = s.Clear(ctx, "chan")
	if err != nil || existed {
		t.Fatalf("second Clear = %v, %v; want false, nil", existed, err)
	}
	if _, ok := s.Get("chan"); ok {
		t.Error("policy still present after Clear")
	}
	if repo.Len() != 0 {
		t.Errorf("repository has %d entries, want 0", repo.Len())
	}
}

func TestListReturnsVocabulary(t *testing.T) {
	s, _ := newTestStore(t)
	if _, err := s.Set(context.Background(), "chan", "Sports"); err != nil {
		t.Fatal(err)
	}

	got := s.List()
	want := []models.TopicLabel{models.TopicWorld, models.TopicSports, models.TopicBusiness, models.TopicSciTech}
	if len(got) != len(want) {
		t.Fatalf("List() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("List()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestNewStoreLoadsPersistedPolicies(t *testing.T) {
	repo := NewMemoryRepository()
	_ = repo.Upsert(context.Background(), "chan", models.TopicWorld)

	s, err := NewStore(context.Background(), repo)
	if err != nil {
		t.Fatal(err)
	}
	if topic, ok := s.Get("chan"); !ok || topic != models.TopicWorld {
		t.Errorf("Get = %q, %v; want World, true", topic, ok)
	}
}

func TestSeedOnlyFillsUnsetChannels(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	if _, err := s.Set(ctx, "a", "Sports"); err != nil {
		t.Fatal(err)
	}

	n, err := s.Seed(ctx, map[string]models.TopicLabel{"a": models.TopicWorld, "b": models.TopicBusiness})
	if err != nil {
		t.Fatalf("Seed: %v", err)
	}
	if n != 1 {
		t.Errorf("Seed applied %d defaults, want 1", n)
	}
	if topic, _ := s.Get("a"); topic != models.TopicSports {
		t.Errorf("seed overwrote channel a: %q", topic)
	}
	if topic, _ := s.Get("b"); topic != models.TopicBusiness {
		t.Errorf("channel b = %q, want Business", topic)
	}
}

func TestConcurrentChannels(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	topics := models.TopicNames()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			channel := fmt.Sprintf("chan-%d", i%10)
			if _, err := s.Set(ctx, channel, topics[i%len(topics)]); err != nil {
				t.Errorf("Set: %v", err)
			}
			s.Get(channel)
		}(i)
	}
	wg.Wait()

	if n := len(s.Policies()); n != 10 {
		t.Errorf("Policies() has %d entries, want 10", n)
	}
}
