package bot

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cvt-care/support-bot/internal/classifier"
	"github.com/cvt-care/support-bot/internal/engine"
	"github.com/cvt-care/support-bot/internal/models"
	"github.com/cvt-care/support-bot/internal/policy"
	"github.com/cvt-care/support-bot/internal/registry"
	"github.com/cvt-care/support-bot/internal/session"
)

const selfID models.UserID = 1000

// blockingStore parks Append until the test releases it, standing in for a
// slow registry.
type blockingStore struct {
	*registry.MemoryStore
	appendCalled chan models.ChatID
	release      chan error
}

func (s *blockingStore) Append(ctx context.Context, chat models.ChatID) error {
	s.appendCalled <- chat
	return <-s.release
}

type recordingSender struct {
	mu    sync.Mutex
	texts []string
}

func (r *recordingSender) SendText(ctx context.Context, chat models.ChatID, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.texts = append(r.texts, text)
	return nil
}

func (r *recordingSender) SendClaimPrompt(ctx context.Context, chat models.ChatID, text string) (int, error) {
	return 1, nil
}

func (r *recordingSender) DisableClaimPrompt(ctx context.Context, chat models.ChatID, messageID int) error {
	return nil
}

func (r *recordingSender) NotifyActor(ctx context.Context, callbackID, text string) error {
	return nil
}

func (r *recordingSender) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.texts)
}

type noRoster struct{}

func (noRoster) HasStaff(ctx context.Context, chat models.ChatID) (bool, error) {
	return false, nil
}

func newTestBot(t *testing.T, store registry.Store) (*Bot, *recordingSender) {
	t.Helper()

	cache := registry.NewCache(store, time.Minute)
	b := &Bot{
		self:    selfID,
		store:   store,
		cache:   cache,
		logger:  zap.NewNop(),
		staff:   map[models.UserID]bool{},
		workers: make(map[models.ChatID]chan job),
	}

	hours, err := policy.NewHours("Asia/Ho_Chi_Minh", "08:30", "17:00", []time.Weekday{
		time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday, time.Saturday,
	})
	require.NoError(t, err)

	sender := &recordingSender{}
	clf := classifier.New(selfID, nil, nil)
	eng := engine.New(cache, clf, noRoster{}, hours, session.NewStore(), sender, zap.NewNop())
	b.SetEngine(eng)
	return b, sender
}

func TestSelfJoinOnboardsOffTheUpdateLoop(t *testing.T) {
	store := &blockingStore{
		MemoryStore:  registry.NewMemoryStore(),
		appendCalled: make(chan models.ChatID, 1),
		release:      make(chan error),
	}
	b, _ := newTestBot(t, store)

	msg := &tgbotapi.Message{
		Chat:           &tgbotapi.Chat{ID: -100123},
		NewChatMembers: []tgbotapi.User{{ID: int64(selfID), IsBot: true}},
	}

	done := make(chan struct{})
	go func() {
		b.handleMembership(context.Background(), msg)
		close(done)
	}()

	// The update loop must come back while the registry call is still parked.
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("membership handling blocked the update loop")
	}

	select {
	case chat := <-store.appendCalled:
		assert.Equal(t, models.ChatID(-100123), chat)
	case <-time.After(time.Second):
		t.Fatal("onboarding never reached the registry")
	}
	store.release <- errors.New("registry briefly down")
}

func TestHumanJoinIsGreetedThroughTheWorker(t *testing.T) {
	store := registry.NewMemoryStore()
	store.Put(-100123, true)
	b, sender := newTestBot(t, store)

	msg := &tgbotapi.Message{
		Chat: &tgbotapi.Chat{ID: -100123},
		NewChatMembers: []tgbotapi.User{
			{ID: 777, FirstName: "Khách"},
		},
	}
	b.handleMembership(context.Background(), msg)

	require.Eventually(t, func() bool {
		return sender.count() == 1
	}, time.Second, 10*time.Millisecond)
	assert.Contains(t, sender.texts[0], "CVT")
}

func TestJoinInUnregisteredChatStaysSilent(t *testing.T) {
	b, sender := newTestBot(t, registry.NewMemoryStore())

	msg := &tgbotapi.Message{
		Chat:           &tgbotapi.Chat{ID: -555},
		NewChatMembers: []tgbotapi.User{{ID: 777, FirstName: "Khách"}},
	}
	b.handleMembership(context.Background(), msg)

	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, sender.count())
}
