package dto

import (
	"time"

	"cert-evaluator-be/internal/entity"

	"github.com/google/uuid"
)

// IndexDocumentMessage is the payload of the asynchronous indexing topic.
type IndexDocumentMessage struct {
	DocumentId uuid.UUID `json:"document_id"`
}

type DocumentResponse struct {
	Id        uuid.UUID `json:"id"`
	SessionId uuid.UUID `json:"session_id"`
	Name      string    `json:"name"`
	Index     int       `json:"index"`
	MimeType  string    `json:"mime_type"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

func NewDocumentResponse(d *entity.Document) *DocumentResponse {
	if d == nil {
		return nil
	}
	return &DocumentResponse{
		Id:        d.Id,
		SessionId: d.SessionId,
		Name:      d.Name,
		Index:     d.Index,
		MimeType:  d.MimeType,
		Status:    d.Status,
		CreatedAt: d.CreatedAt,
	}
}
