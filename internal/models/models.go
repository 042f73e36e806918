package models

// ChatID identifies a group conversation on the messaging platform.
type ChatID int64

// UserID identifies a sender. Whether an id belongs to internal staff is
// decided against the configured staff set, not stored here.
type UserID int64

// Member is a chat participant as reported by the platform.
type Member struct {
	ID    UserID
	Name  string
	IsBot bool
}

// RegistryEntry is one row of the external chat registry. A chat absent from
// the registry is unregistered, which is distinct from Active == false.
type RegistryEntry struct {
	Chat   ChatID `json:"chat"`
	Active bool   `json:"active"`
}

// AttachmentKind enumerates the media kinds the router acknowledges.
type AttachmentKind int

const (
	AttachmentPhoto AttachmentKind = iota
	AttachmentDocument
	AttachmentVideo
	AttachmentVoice
)

// Attachment carries just enough metadata to render a receipt confirmation.
type Attachment struct {
	Kind     AttachmentKind
	FileName string // documents
	Duration int    // seconds, video and voice
}

// Event is one inbound platform update, normalized for the engine.
type Event struct {
	ID            string // correlation id for logs
	Chat          ChatID
	Sender        UserID
	SenderName    string
	SenderIsBot   bool
	Text          string
	Forwarded     bool
	Attachment    *Attachment
	JoinedMembers []Member
}

// Class is the outcome of content classification. Exactly one class applies
// to an event; see the classifier for the check order.
type Class int

const (
	ClassBotSelf Class = iota
	ClassStaffAuthored
	ClassForwarded
	ClassSpamFlagged
	ClassAttachment
	ClassText
)

func (c Class) String() string {
	switch c {
	case ClassBotSelf:
		return "bot_self"
	case ClassStaffAuthored:
		return "staff_authored"
	case ClassForwarded:
		return "forwarded"
	case ClassSpamFlagged:
		return "spam_flagged"
	case ClassAttachment:
		return "attachment"
	default:
		return "text"
	}
}
