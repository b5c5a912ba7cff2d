package pgStore

import (
	"time"

	"github.com/akolanti/studyfellow/internal/domain/chatModel"
	"github.com/akolanti/studyfellow/internal/domain/documentModel"
)

// At most one live record per source path.
type documentRow struct {
	ID         string    `gorm:"type:uuid;primaryKey"`
	Path       string    `gorm:"type:text;not null;index;index:idx_document_live_path,unique,where:status <> 'deleted'"`
	FileName   string    `gorm:"type:text"`
	FileSize   int64     `gorm:"not null;default:0"`
	Subject    string    `gorm:"type:text"`
	Title      string    `gorm:"type:text"`
	TotalPages int       `gorm:"not null;default:0"`
	Status     string    `gorm:"type:varchar(32);not null"`
	CreatedAt  time.Time `gorm:"autoCreateTime"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime"`
}

func (documentRow) TableName() string {
	return "document_metadata"
}

func toDocumentRow(m documentModel.DocumentMetadata) documentRow {
	return documentRow{
		ID:         m.ID,
		Path:       m.Path,
		FileName:   m.FileName,
		FileSize:   m.FileSize,
		Subject:    m.Subject,
		Title:      m.Title,
		TotalPages: m.TotalPages,
		Status:     string(m.Status),
		CreatedAt:  m.CreatedAt,
	}
}

func (r documentRow) toModel() documentModel.DocumentMetadata {
	return documentModel.DocumentMetadata{
		ID:         r.ID,
		Path:       r.Path,
		FileName:   r.FileName,
		FileSize:   r.FileSize,
		Subject:    r.Subject,
		Title:      r.Title,
		TotalPages: r.TotalPages,
		Status:     documentModel.Status(r.Status),
		CreatedAt:  r.CreatedAt,
	}
}

type messageRow struct {
	ID               string `gorm:"type:uuid;primaryKey"`
	ConversationKind string `gorm:"type:varchar(16);not null;index:idx_message_conversation,priority:1"`
	ConversationID   string `gorm:"type:text;not null;index:idx_message_conversation,priority:2"`
	Role             string `gorm:"type:varchar(16);not null"`
	Type             string `gorm:"type:varchar(16)"`
	Content          string `gorm:"type:text"`
	UserID           string `gorm:"type:text"`
	FileName         string `gorm:"type:text"`
	MimeType         string `gorm:"type:varchar(128)"`
	DocumentID       string `gorm:"type:text"`
	StartPage        *int
	EndPage          *int
	CreatedAt        time.Time `gorm:"not null;index:idx_message_conversation,priority:3"`
}

func (messageRow) TableName() string {
	return "chat_messages"
}

func toMessageRow(conv chatModel.Conversation, m chatModel.Message) messageRow {
	return messageRow{
		ID:               m.ID,
		ConversationKind: string(conv.Kind),
		ConversationID:   conv.ID,
		Role:             string(m.Role),
		Type:             string(m.Type),
		Content:          m.Content,
		UserID:           m.UserID,
		FileName:         m.FileName,
		MimeType:         m.MimeType,
		DocumentID:       m.DocumentID,
		StartPage:        m.StartPage,
		EndPage:          m.EndPage,
		CreatedAt:        m.CreatedAt,
	}
}

func (r messageRow) toModel() chatModel.Message {
	return chatModel.Message{
		ID:             r.ID,
		ConversationID: r.ConversationID,
		Role:           chatModel.Role(r.Role),
		Type:           chatModel.MessageType(r.Type),
		Content:        r.Content,
		UserID:         r.UserID,
		FileName:       r.FileName,
		MimeType:       r.MimeType,
		DocumentID:     r.DocumentID,
		StartPage:      r.StartPage,
		EndPage:        r.EndPage,
		CreatedAt:      r.CreatedAt,
	}
}

type postRow struct {
	ID         string `gorm:"type:text;primaryKey"`
	UserID     string `gorm:"type:text;not null"`
	Content    string `gorm:"type:text"`
	DocumentID string `gorm:"type:text"`
	StartPage  *int
	EndPage    *int
	CreatedAt  time.Time
}

func (postRow) TableName() string {
	return "posts"
}

func toPostRow(p chatModel.Post) postRow {
	return postRow{
		ID:         p.ID,
		UserID:     p.UserID,
		Content:    p.Content,
		DocumentID: p.DocumentID,
		StartPage:  p.StartPage,
		EndPage:    p.EndPage,
		CreatedAt:  p.CreatedAt,
	}
}

func (r postRow) toModel() chatModel.Post {
	return chatModel.Post{
		ID:         r.ID,
		UserID:     r.UserID,
		Content:    r.Content,
		DocumentID: r.DocumentID,
		StartPage:  r.StartPage,
		EndPage:    r.EndPage,
		CreatedAt:  r.CreatedAt,
	}
}
