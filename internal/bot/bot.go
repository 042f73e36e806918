// Package bot adapts the Telegram platform to the handoff engine: it
// normalizes updates into events, keeps per-chat ordering, renders the claim
// control and serves the keep-alive endpoint.
package bot

import (
	"context"
	"fmt"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cvt-care/support-bot/internal/engine"
	"github.com/cvt-care/support-bot/internal/models"
	"github.com/cvt-care/support-bot/internal/registry"
)

const claimCallbackData = "claim"

const msgGroupOnboarded = "Xin chào Quý khách.\n" +
	"CVT đã sẵn sàng hỗ trợ tại nhóm này. " +
	"Quý khách cần hỗ trợ vui lòng để lại tin nhắn, đội ngũ tư vấn sẽ phản hồi sớm nhất ạ."

type Bot struct {
	api     *tgbotapi.BotAPI
	self    models.UserID
	store   registry.Store
	cache   *registry.Cache
	engine  *engine.Engine
	logger  *zap.Logger
	staff   map[models.UserID]bool
	rosters *rosterCache

	workersMu sync.Mutex
	workers   map[models.ChatID]chan job
}

func New(token string, staffIDs []models.UserID, rosterTTL time.Duration,
	store registry.Store, cache *registry.Cache, logger *zap.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	staff := make(map[models.UserID]bool, len(staffIDs))
	for _, id := range staffIDs {
		staff[id] = true
	}

	b := &Bot{
		api:     api,
		self:    models.UserID(api.Self.ID),
		store:   store,
		cache:   cache,
		logger:  logger,
		staff:   staff,
		workers: make(map[models.ChatID]chan job),
	}
	b.rosters = newRosterCache(b.fetchHasStaff, rosterTTL)
	return b, nil
}

// SetEngine wires the engine after construction; the engine sends through
// this bot, so the two reference each other.
func (b *Bot) SetEngine(e *engine.Engine) { b.engine = e }

// SelfID is the bot's own platform identity.
func (b *Bot) SelfID() models.UserID { return b.self }

// job is one unit of per-chat work: an inbound message, a membership change,
// the bot's own onboarding, or a claim action.
type job struct {
	chat    models.ChatID
	ev      *models.Event
	join    *models.Event
	onboard bool
	claim   *claimAction
}

type claimAction struct {
	chat       models.ChatID
	actor      models.UserID
	actorName  string
	callbackID string
}

// Start consumes the update stream until ctx is cancelled. Updates for one
// chat are applied in arrival order by that chat's worker; different chats
// proceed concurrently.
func (b *Bot) Start(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	b.logger.Info("bot started", zap.String("username", b.api.Self.UserName))

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			b.route(ctx, update)
		}
	}
}

func (b *Bot) route(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		cb := update.CallbackQuery
		if cb.Data != claimCallbackData || cb.Message == nil || cb.From == nil {
			return
		}
		chat := models.ChatID(cb.Message.Chat.ID)
		b.dispatch(ctx, chat, job{chat: chat, claim: &claimAction{
			chat:       chat,
			actor:      models.UserID(cb.From.ID),
			actorName:  displayName(cb.From),
			callbackID: cb.ID,
		}})

	case update.Message != nil:
		msg := update.Message
		if len(msg.NewChatMembers) > 0 {
			b.handleMembership(ctx, msg)
			return
		}
		if msg.From == nil {
			return
		}
		ev := b.toEvent(msg)
		b.dispatch(ctx, ev.Chat, job{chat: ev.Chat, ev: &ev})
	}
}

// dispatch hands the job to the chat's worker, creating it on first use.
func (b *Bot) dispatch(ctx context.Context, chat models.ChatID, j job) {
	b.workersMu.Lock()
	ch, ok := b.workers[chat]
	if !ok {
		ch = make(chan job, 16)
		b.workers[chat] = ch
		go b.work(ctx, ch)
	}
	b.workersMu.Unlock()

	select {
	case ch <- j:
	case <-ctx.Done():
	}
}

func (b *Bot) work(ctx context.Context, jobs <-chan job) {
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-jobs:
			switch {
			case j.onboard:
				b.onboard(ctx, j.chat)
			case j.join != nil:
				b.engine.HandleJoin(ctx, *j.join)
			case j.ev != nil:
				b.engine.HandleEvent(ctx, *j.ev)
			case j.claim != nil:
				b.engine.HandleClaim(ctx, j.claim.chat, j.claim.actor, j.claim.actorName, j.claim.callbackID)
			}
		}
	}
}

// handleMembership covers group joins: the bot itself being added runs the
// onboarding path (register the chat), anyone else is greeted by the engine.
// Both go through the chat's worker; a slow registry or send must not stall
// dispatch for other chats.
func (b *Bot) handleMembership(ctx context.Context, msg *tgbotapi.Message) {
	chat := models.ChatID(msg.Chat.ID)

	for _, member := range msg.NewChatMembers {
		if models.UserID(member.ID) == b.self {
			b.dispatch(ctx, chat, job{chat: chat, onboard: true})
			return
		}
	}

	ev := models.Event{
		ID:   uuid.New().String(),
		Chat: chat,
	}
	for _, member := range msg.NewChatMembers {
		member := member
		ev.JoinedMembers = append(ev.JoinedMembers, models.Member{
			ID:    models.UserID(member.ID),
			Name:  displayName(&member),
			IsBot: member.IsBot,
		})
	}
	b.dispatch(ctx, chat, job{chat: chat, join: &ev})
}

func (b *Bot) onboard(ctx context.Context, chat models.ChatID) {
	if err := b.store.Append(ctx, chat); err != nil {
		b.logger.Error("failed to register chat",
			zap.Error(err),
			zap.Int64("chat_id", int64(chat)))
		return
	}
	b.cache.Invalidate()
	b.logger.Info("chat registered", zap.Int64("chat_id", int64(chat)))

	if err := b.SendText(ctx, chat, msgGroupOnboarded); err != nil {
		b.logger.Error("failed to send onboarding greeting",
			zap.Error(err),
			zap.Int64("chat_id", int64(chat)))
	}
}

func (b *Bot) toEvent(msg *tgbotapi.Message) models.Event {
	text := msg.Text
	if msg.Caption != "" {
		text = msg.Caption
	}

	ev := models.Event{
		ID:          uuid.New().String(),
		Chat:        models.ChatID(msg.Chat.ID),
		Sender:      models.UserID(msg.From.ID),
		SenderName:  displayName(msg.From),
		SenderIsBot: msg.From.IsBot,
		Text:        text,
		Forwarded:   msg.ForwardFrom != nil || msg.ForwardFromChat != nil,
	}

	switch {
	case len(msg.Photo) > 0:
		ev.Attachment = &models.Attachment{Kind: models.AttachmentPhoto}
	case msg.Document != nil:
		ev.Attachment = &models.Attachment{Kind: models.AttachmentDocument, FileName: msg.Document.FileName}
	case msg.Video != nil:
		ev.Attachment = &models.Attachment{Kind: models.AttachmentVideo, Duration: msg.Video.Duration}
	case msg.Voice != nil:
		ev.Attachment = &models.Attachment{Kind: models.AttachmentVoice, Duration: msg.Voice.Duration}
	}
	return ev
}

func displayName(u *tgbotapi.User) string {
	if u == nil {
		return ""
	}
	name := u.FirstName
	if u.LastName != "" {
		name += " " + u.LastName
	}
	if name == "" {
		name = u.UserName
	}
	return name
}

// --- engine.Sender ---

func (b *Bot) SendText(ctx context.Context, chat models.ChatID, text string) error {
	msg := tgbotapi.NewMessage(int64(chat), text)
	if _, err := b.api.Send(msg); err != nil {
		return fmt.Errorf("sending message to chat %d: %w", chat, err)
	}
	return nil
}

func (b *Bot) SendClaimPrompt(ctx context.Context, chat models.ChatID, text string) (int, error) {
	msg := tgbotapi.NewMessage(int64(chat), text)
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🙋 Tiếp nhận hội thoại", claimCallbackData),
		),
	)
	sent, err := b.api.Send(msg)
	if err != nil {
		return 0, fmt.Errorf("sending claim prompt to chat %d: %w", chat, err)
	}
	return sent.MessageID, nil
}

func (b *Bot) DisableClaimPrompt(ctx context.Context, chat models.ChatID, messageID int) error {
	edit := tgbotapi.NewEditMessageReplyMarkup(int64(chat), messageID,
		tgbotapi.InlineKeyboardMarkup{InlineKeyboard: [][]tgbotapi.InlineKeyboardButton{}})
	if _, err := b.api.Request(edit); err != nil {
		return fmt.Errorf("disabling claim prompt in chat %d: %w", chat, err)
	}
	return nil
}

func (b *Bot) NotifyActor(ctx context.Context, callbackID, text string) error {
	cb := tgbotapi.NewCallbackWithAlert(callbackID, text)
	if _, err := b.api.Request(cb); err != nil {
		return fmt.Errorf("answering callback: %w", err)
	}
	return nil
}

// --- engine.RosterSource ---

// HasStaff reports whether the chat's administrator roster contains an
// internal staff identity; rosters are cached with their own TTL.
func (b *Bot) HasStaff(ctx context.Context, chat models.ChatID) (bool, error) {
	return b.rosters.hasStaff(ctx, chat)
}

func (b *Bot) fetchHasStaff(ctx context.Context, chat models.ChatID) (bool, error) {
	admins, err := b.api.GetChatAdministrators(tgbotapi.ChatAdministratorsConfig{
		ChatConfig: tgbotapi.ChatConfig{ChatID: int64(chat)},
	})
	if err != nil {
		return false, fmt.Errorf("listing administrators of chat %d: %w", chat, err)
	}
	for _, admin := range admins {
		if admin.User != nil && b.staff[models.UserID(admin.User.ID)] {
			return true, nil
		}
	}
	return false, nil
}
