package mapper

import (
	"time"

	"cert-evaluator-be/internal/entity"
	"cert-evaluator-be/internal/model"

	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

type DocumentMapper struct{}

func NewDocumentMapper() *DocumentMapper {
	return &DocumentMapper{}
}

func (m *DocumentMapper) ToEntity(d *model.Document) *entity.Document {
	if d == nil {
		return nil
	}

	var deletedAt *time.Time
	if d.DeletedAt.Valid {
		t := d.DeletedAt.Time
		deletedAt = &t
	}

	return &entity.Document{
		Id:            d.Id,
		SessionId:     d.SessionId,
		Name:          d.Name,
		Index:         d.Index,
		MimeType:      d.MimeType,
		StoragePath:   d.StoragePath,
		ExtractedText: d.ExtractedText,
		Status:        d.Status,
		CreatedAt:     d.CreatedAt,
		DeletedAt:     deletedAt,
		IsDeleted:     d.DeletedAt.Valid,
	}
}

func (m *DocumentMapper) ToModel(d *entity.Document) *model.Document {
	if d == nil {
		return nil
	}

	var deletedAt gorm.DeletedAt
	if d.DeletedAt != nil {
		deletedAt = gorm.DeletedAt{Time: *d.DeletedAt, Valid: true}
	} else if d.IsDeleted {
		deletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
	}

	return &model.Document{
		Id:            d.Id,
		SessionId:     d.SessionId,
		Name:          d.Name,
		Index:         d.Index,
		MimeType:      d.MimeType,
		StoragePath:   d.StoragePath,
		ExtractedText: d.ExtractedText,
		Status:        d.Status,
		CreatedAt:     d.CreatedAt,
		DeletedAt:     deletedAt,
	}
}

func (m *DocumentMapper) ToEntities(documents []*model.Document) []*entity.Document {
	entities := make([]*entity.Document, len(documents))
	for i, d := range documents {
		entities[i] = m.ToEntity(d)
	}
	return entities
}

func (m *DocumentMapper) ChunkToEntity(c *model.DocumentChunk) *entity.DocumentChunk {
	if c == nil {
		return nil
	}
	return &entity.DocumentChunk{
		Id:         c.Id,
		DocumentId: c.DocumentId,
		SessionId:  c.SessionId,
		ChunkIndex: c.ChunkIndex,
		Content:    c.Content,
		Embedding:  c.EmbeddingValue.Slice(),
		CreatedAt:  c.CreatedAt,
	}
}

func (m *DocumentMapper) ChunkToModel(c *entity.DocumentChunk) *model.DocumentChunk {
	if c == nil {
		return nil
	}
	return &model.DocumentChunk{
		Id:             c.Id,
		DocumentId:     c.DocumentId,
		SessionId:      c.SessionId,
		ChunkIndex:     c.ChunkIndex,
		Content:        c.Content,
		EmbeddingValue: pgvector.NewVector(c.Embedding),
		CreatedAt:      c.CreatedAt,
	}
}

func (m *DocumentMapper) ChunksToModels(chunks []*entity.DocumentChunk) []*model.DocumentChunk {
	models := make([]*model.DocumentChunk, len(chunks))
	for i, c := range chunks {
		models[i] = m.ChunkToModel(c)
	}
	return models
}
