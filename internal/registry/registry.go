// Package registry provides access to the external chat registry, the source
// of truth for which chats the automation acts in, plus a snapshot cache so
// the hot path does not hit the store on every message.
package registry

import (
	"context"

	"github.com/cvt-care/support-bot/internal/models"
)

// Store is the external registry of chats. FetchAll returns the whole table;
// Append is used only by the group-onboarding path when the bot is added to a
// new chat.
type Store interface {
	FetchAll(ctx context.Context) ([]models.RegistryEntry, error)
	Append(ctx context.Context, chat models.ChatID) error
	Close() error
}
