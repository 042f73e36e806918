// Package engine implements the conversation state machine and the staff
// handoff: it decides, for each classified inbound event, what (if anything)
// to send back and how the chat's session phase advances, and it reclaims
// idle staff-claimed conversations.
package engine

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/cvt-care/support-bot/internal/models"
	"github.com/cvt-care/support-bot/internal/policy"
	"github.com/cvt-care/support-bot/internal/session"
)

// Sender delivers outbound actions through the messaging platform. Delivery
// is at-most-once: the engine never retries, and a failed send never rolls
// back a phase transition.
type Sender interface {
	SendText(ctx context.Context, chat models.ChatID, text string) error
	// SendClaimPrompt sends text with a single "claim" control attached and
	// returns the platform message id of the prompt.
	SendClaimPrompt(ctx context.Context, chat models.ChatID, text string) (int, error)
	// DisableClaimPrompt removes the claim control from a sent prompt.
	DisableClaimPrompt(ctx context.Context, chat models.ChatID, messageID int) error
	// NotifyActor answers a claim action with feedback visible only to the
	// actor, never broadcast to the chat.
	NotifyActor(ctx context.Context, callbackID, text string) error
}

// RosterSource reports whether a chat's administrator roster contains any
// internal staff identity. Implementations are expected to cache.
type RosterSource interface {
	HasStaff(ctx context.Context, chat models.ChatID) (bool, error)
}

// Gate answers whether a chat is registered and active.
type Gate interface {
	IsActive(ctx context.Context, chat models.ChatID) (bool, error)
}

// ContentClassifier classifies inbound events and answers staff membership.
type ContentClassifier interface {
	Classify(ev models.Event) models.Class
	IsStaff(id models.UserID) bool
}

type Engine struct {
	gate       Gate
	classifier ContentClassifier
	roster     RosterSource
	hours      *policy.Hours
	sessions   *session.Store
	sender     Sender
	logger     *zap.Logger

	now func() time.Time
}

func New(gate Gate, clf ContentClassifier, roster RosterSource, hours *policy.Hours,
	sessions *session.Store, sender Sender, logger *zap.Logger) *Engine {
	return &Engine{
		gate:       gate,
		classifier: clf,
		roster:     roster,
		hours:      hours,
		sessions:   sessions,
		sender:     sender,
		logger:     logger,
		now:        time.Now,
	}
}

// outbound is a reply planned inside the session lock and sent after it is
// released; sends may be slow and must not stall other chats.
type outbound struct {
	text        string
	claimPrompt bool
}

// HandleEvent runs one inbound message through the registry gate, the
// classifier, the staff-presence gate and the state machine.
func (e *Engine) HandleEvent(ctx context.Context, ev models.Event) {
	active, err := e.gate.IsActive(ctx, ev.Chat)
	if err != nil {
		// Fail closed: silence beats wrong auto-replies during an outage.
		e.logger.Warn("registry unavailable, staying silent",
			zap.Error(err),
			zap.String("event_id", ev.ID),
			zap.Int64("chat_id", int64(ev.Chat)))
		return
	}
	if !active {
		return
	}

	class := e.classifier.Classify(ev)
	switch class {
	case models.ClassBotSelf, models.ClassForwarded, models.ClassSpamFlagged:
		e.logger.Debug("event dropped",
			zap.String("event_id", ev.ID),
			zap.Int64("chat_id", int64(ev.Chat)),
			zap.String("class", class.String()))
		return
	case models.ClassStaffAuthored:
		// Staff messages refresh activity but never advance the phase.
		e.sessions.Touch(ev.Chat, e.now())
		return
	}

	present, err := e.roster.HasStaff(ctx, ev.Chat)
	if err != nil {
		e.logger.Warn("admin roster unavailable",
			zap.Error(err),
			zap.Int64("chat_id", int64(ev.Chat)))
	} else if present {
		// Staff in the chat fully suppresses the automation.
		return
	}

	now := e.now()
	var replies []outbound
	e.sessions.Mutate(ev.Chat, func(s *models.Session) {
		replies = e.transition(s, ev, now)
	})

	for _, r := range replies {
		e.deliver(ctx, ev.Chat, r)
	}
}

// transition applies the state machine to one qualifying customer event.
// Called under the chat's session lock; it performs no I/O.
func (e *Engine) transition(s *models.Session, ev models.Event, now time.Time) []outbound {
	s.Touch(now)

	// A claimed conversation belongs to its staff member: no greetings, no
	// re-prompting, only attachment receipts so the customer knows files
	// arrived.
	if s.Phase == models.PhaseClaimed {
		if ev.Attachment != nil {
			return []outbound{{text: receipt(ev)}}
		}
		return nil
	}

	if !e.hours.InHours(now) {
		stamp := e.hours.SlotStamp(now)
		if s.NotifiedSlot != stamp {
			s.NotifiedSlot = stamp
			s.Phase = models.PhaseOutOfHoursNotified
			return []outbound{{text: outOfHoursNotice(stamp.Slot)}}
		}
		return []outbound{{text: msgOutOfHoursReminder}}
	}

	switch s.Phase {
	case models.PhaseNew:
		s.Phase = models.PhaseGreeted
		return []outbound{{text: msgGreeting}}

	case models.PhaseGreeted, models.PhaseOutOfHoursNotified:
		// An out-of-hours interlude may have parked an outstanding claim
		// prompt; back in-hours the prompt stays claimable rather than
		// being orphaned.
		if s.ClaimMessageID != 0 {
			s.Phase = models.PhaseAwaitingClaim
		} else {
			s.Phase = models.PhaseActive
		}
		return []outbound{{text: receipt(ev)}}

	case models.PhaseActive:
		replies := []outbound{{text: receipt(ev)}}
		if s.ClaimMessageID == 0 {
			s.Phase = models.PhaseAwaitingClaim
			replies = append(replies, outbound{text: msgClaimPrompt, claimPrompt: true})
		}
		return replies

	case models.PhaseAwaitingClaim:
		// Prompt already outstanding; acknowledge the message only.
		return []outbound{{text: receipt(ev)}}
	}

	return nil
}

func (e *Engine) deliver(ctx context.Context, chat models.ChatID, r outbound) {
	if !r.claimPrompt {
		if err := e.sender.SendText(ctx, chat, r.text); err != nil {
			e.logger.Error("failed to send message",
				zap.Error(err),
				zap.Int64("chat_id", int64(chat)))
		}
		return
	}

	msgID, err := e.sender.SendClaimPrompt(ctx, chat, r.text)
	if err != nil {
		// The phase already advanced; the next customer message will not
		// re-prompt. At-most-once, no retry.
		e.logger.Error("failed to send claim prompt",
			zap.Error(err),
			zap.Int64("chat_id", int64(chat)))
		return
	}
	e.sessions.Mutate(chat, func(s *models.Session) {
		if s.Phase == models.PhaseAwaitingClaim && s.ClaimMessageID == 0 {
			s.ClaimMessageID = msgID
		}
	})
}

// HandleJoin welcomes new human members of a registered chat.
func (e *Engine) HandleJoin(ctx context.Context, ev models.Event) {
	active, err := e.gate.IsActive(ctx, ev.Chat)
	if err != nil {
		e.logger.Warn("registry unavailable, staying silent",
			zap.Error(err),
			zap.Int64("chat_id", int64(ev.Chat)))
		return
	}
	if !active {
		return
	}

	for _, m := range ev.JoinedMembers {
		if m.IsBot {
			continue
		}
		if err := e.sender.SendText(ctx, ev.Chat, msgWelcome); err != nil {
			e.logger.Error("failed to send welcome",
				zap.Error(err),
				zap.Int64("chat_id", int64(ev.Chat)),
				zap.Int64("user_id", int64(m.ID)))
		}
		return // one welcome per join update
	}
}

// HandleClaim processes a claim action from the prompt's control. Only staff
// identities may claim; anyone else gets actor-only feedback and no state
// changes.
func (e *Engine) HandleClaim(ctx context.Context, chat models.ChatID, actor models.UserID, actorName, callbackID string) {
	if !e.classifier.IsStaff(actor) {
		e.logger.Info("claim rejected: not staff",
			zap.Int64("chat_id", int64(chat)),
			zap.Int64("user_id", int64(actor)))
		if err := e.sender.NotifyActor(ctx, callbackID, msgClaimRejected); err != nil {
			e.logger.Error("failed to answer claim action", zap.Error(err))
		}
		return
	}

	now := e.now()
	var claimed bool
	var promptID int
	e.sessions.Mutate(chat, func(s *models.Session) {
		if s.Phase != models.PhaseAwaitingClaim {
			return
		}
		id := actor
		s.Phase = models.PhaseClaimed
		s.ClaimedBy = &id
		s.ClaimedByName = actorName
		promptID = s.ClaimMessageID
		s.ClaimMessageID = 0
		s.Touch(now)
		claimed = true
	})

	if !claimed {
		if err := e.sender.NotifyActor(ctx, callbackID, msgClaimStale); err != nil {
			e.logger.Error("failed to answer claim action", zap.Error(err))
		}
		return
	}

	e.logger.Info("conversation claimed",
		zap.Int64("chat_id", int64(chat)),
		zap.Int64("staff_id", int64(actor)))

	if err := e.sender.SendText(ctx, chat, claimedNotice(actorName)); err != nil {
		e.logger.Error("failed to announce claim",
			zap.Error(err),
			zap.Int64("chat_id", int64(chat)))
	}
	if promptID != 0 {
		if err := e.sender.DisableClaimPrompt(ctx, chat, promptID); err != nil {
			e.logger.Error("failed to disable claim prompt",
				zap.Error(err),
				zap.Int64("chat_id", int64(chat)))
		}
	}
	if err := e.sender.NotifyActor(ctx, callbackID, msgClaimAck); err != nil {
		e.logger.Error("failed to answer claim action", zap.Error(err))
	}
}
