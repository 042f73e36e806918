// Package classifier decides how an inbound event should be treated before
// the handoff engine sees it. Classification is a fixed rule chain; the first
// matching rule wins and exactly one class is ever returned.
package classifier

import (
	"strings"

	"github.com/cvt-care/support-bot/internal/models"
)

type Classifier interface {
	Classify(ev models.Event) models.Class
}

// RuleClassifier classifies by sender identity, forward markers and a spam
// keyword set. Check order is fixed: bot-self, staff, forwarded, spam, then
// content kind. Anything anomalous degrades to ClassText so the responder
// stays available.
type RuleClassifier struct {
	selfID   models.UserID
	staff    map[models.UserID]bool
	keywords []string // lower-cased
}

func New(selfID models.UserID, staffIDs []models.UserID, spamKeywords []string) *RuleClassifier {
	staff := make(map[models.UserID]bool, len(staffIDs))
	for _, id := range staffIDs {
		staff[id] = true
	}
	keywords := make([]string, 0, len(spamKeywords))
	for _, kw := range spamKeywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" {
			keywords = append(keywords, kw)
		}
	}
	return &RuleClassifier{selfID: selfID, staff: staff, keywords: keywords}
}

// IsStaff reports whether id belongs to the configured internal staff set.
func (c *RuleClassifier) IsStaff(id models.UserID) bool { return c.staff[id] }

func (c *RuleClassifier) Classify(ev models.Event) models.Class {
	if ev.Sender == c.selfID || ev.SenderIsBot {
		return models.ClassBotSelf
	}
	if c.staff[ev.Sender] {
		return models.ClassStaffAuthored
	}
	if ev.Forwarded {
		return models.ClassForwarded
	}
	if c.isSpam(ev.Text) {
		return models.ClassSpamFlagged
	}
	if ev.Attachment != nil {
		return models.ClassAttachment
	}
	return models.ClassText
}

func (c *RuleClassifier) isSpam(text string) bool {
	if text == "" {
		return false
	}
	lowered := strings.ToLower(text)
	for _, kw := range c.keywords {
		if strings.Contains(lowered, kw) {
			return true
		}
	}
	return false
}
