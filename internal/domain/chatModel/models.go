package chatModel

import (
	"context"
	"time"
)

type Role string
type MessageType string
type ConversationKind string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"

	TypeText    MessageType = "text"
	TypeImage   MessageType = "image"
	TypeFile    MessageType = "file"
	TypeContext MessageType = "context"

	KindRoom ConversationKind = "room"
	KindPost ConversationKind = "post"
)

// NormalizeRole maps anything that is not a model role onto the user role.
func NormalizeRole(r Role) Role {
	if r == RoleModel {
		return RoleModel
	}
	return RoleUser
}

// Conversation identifies one append-only message stream.
type Conversation struct {
	Kind ConversationKind `json:"kind"`
	ID   string           `json:"id"`
}

func RoomConversation(id string) Conversation {
	return Conversation{Kind: KindRoom, ID: id}
}

func PostConversation(id string) Conversation {
	return Conversation{Kind: KindPost, ID: id}
}

func (c Conversation) Key() string {
	return string(c.Kind) + ":" + c.ID
}

type Message struct {
	ID             string      `json:"id"`
	ConversationID string      `json:"conversation_id"`
	Role           Role        `json:"role"`
	Type           MessageType `json:"type"`
	Content        string      `json:"content,omitempty"`
	UserID         string      `json:"user_id,omitempty"`

	//file and image messages
	FileName string `json:"file_name,omitempty"`
	MimeType string `json:"mime_type,omitempty"`

	//context messages, 1-based inclusive page range
	DocumentID string `json:"document_id,omitempty"`
	StartPage  *int   `json:"start_page,omitempty"`
	EndPage    *int   `json:"end_page,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// Post is the originating post a post conversation answers.
type Post struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	Content    string    `json:"content,omitempty"`
	DocumentID string    `json:"document_id,omitempty"`
	StartPage  *int      `json:"start_page,omitempty"`
	EndPage    *int      `json:"end_page,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// BlobRef points at a stored blob by its path inside the bucket.
type BlobRef struct {
	Path     string
	MimeType string
}

// Part is either inline text or a blob reference, never both.
type Part struct {
	Text string
	Blob *BlobRef
}

func TextPart(text string) Part {
	return Part{Text: text}
}

func BlobPart(path, mimeType string) Part {
	return Part{Blob: &BlobRef{Path: path, MimeType: mimeType}}
}

func (p Part) IsBlob() bool {
	return p.Blob != nil
}

type Turn struct {
	Role  Role
	Parts []Part
}

// Candidate is one model answer; Texts holds the text of each part in
// order, empty for non-text parts.
type Candidate struct {
	Texts []string
}

type MessageStore interface {
	// ListMessages returns the conversation ordered by creation time, oldest
	// first.
	ListMessages(ctx context.Context, conv Conversation) ([]Message, error)
	AppendMessage(ctx context.Context, conv Conversation, msg Message) error
}

type PostStore interface {
	GetPost(ctx context.Context, id string) (Post, bool, error)
	SavePost(ctx context.Context, post Post) error
}
