// Package domain defines the persistence models for sessions, messages and
// WhatsApp contact status. These types are mapped with GORM and form the core
// data layer of the chat relay.
package domain

import "time"

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Message sources (the channel a turn arrived on or was answered through).
const (
	SourceWeb      = "web"
	SourceWhatsApp = "whatsapp"
)

// WhatsApp contact activation states.
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// WhatsAppSessionPrefix is prepended to a phone number to derive the session
// id of a WhatsApp contact.
const WhatsAppSessionPrefix = "wa_"

// WhatsAppSessionID derives the deterministic session id for a contact.
func WhatsAppSessionID(phone string) string { return WhatsAppSessionPrefix + phone }

// Session is one conversational context: a browser visitor or a WhatsApp
// contact. The row is immutable once created and outlives history clears.
//
// Fields:
//   - SessionID: opaque key; a UUID for web visitors, "wa_<phone>" for WhatsApp.
//   - CreatedAt: set once on insert.
type Session struct {
	SessionID string    `json:"session_id" gorm:"type:varchar(128);primaryKey"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName returns the database table name for Session.
func (Session) TableName() string { return "sessions" }

// Message is one turn of a session. Messages are append-only: they are
// inserted once, never updated, and only removed in bulk when a session's
// history is cleared.
//
// Fields:
//   - ID: auto-increment key; breaks ordering ties between equal timestamps.
//   - SessionID: owning session (indexed together with Timestamp).
//   - Role: "user", "assistant" or "system" (enforced by DB constraint).
//   - Content: full message text.
//   - Timestamp: insertion time (UTC).
//   - Source: "web" or "whatsapp".
type Message struct {
	ID        uint      `json:"id"        gorm:"primaryKey;autoIncrement"`
	SessionID string    `json:"session_id" gorm:"type:varchar(128);not null;index:idx_session_msgs,priority:1"`
	Role      string    `json:"role"      gorm:"type:varchar(16);not null;check:role IN ('user','assistant','system')"`
	Content   string    `json:"content"   gorm:"type:text;not null"`
	Timestamp time.Time `json:"timestamp" gorm:"not null;index:idx_session_msgs,priority:2"`
	Source    string    `json:"source"    gorm:"type:varchar(16);not null;default:'web'"`

	// Session is the owning conversation. Messages are cascade-deleted if
	// their session is removed.
	Session Session `json:"-" gorm:"foreignKey:SessionID;references:SessionID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Message.
func (Message) TableName() string { return "messages" }

// WhatsAppUser records whether a WhatsApp contact has an active learning
// session. Each contact has at most one row; writes replace every field.
// A missing row means the contact is inactive.
type WhatsAppUser struct {
	PhoneNumber string    `json:"phone_number" gorm:"type:varchar(64);primaryKey"`
	Status      string    `json:"status"       gorm:"type:varchar(16);not null;default:'inactive';check:status IN ('active','inactive')"`
	Name        string    `json:"name"         gorm:"type:varchar(255)"`
	LastUpdated time.Time `json:"last_updated"`
}

// TableName returns the database table name for WhatsAppUser.
func (WhatsAppUser) TableName() string { return "whatsapp_users" }
