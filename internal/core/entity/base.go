package entity

import (
	"context"
	"time"

	"garasi/internal/core/id"
)

// Validatable is implemented by entities that check their own
// invariants. Validation never touches the database.
type Validatable interface {
	// Validate returns nil or an AppError carrying field details.
	Validate(ctx context.Context) error
}

// BaseEntity carries the fields every stored row has. Version backs
// optimistic locking; the repositories bump it in SQL on update.
type BaseEntity struct {
	ID           id.ID `db:"id" json:"id"`
	DeletionMark bool  `db:"deletion_mark" json:"deletionMark"`
	Version      int   `db:"version" json:"version"`
}

// NewBaseEntity returns a BaseEntity with a fresh UUIDv7 and version 1.
func NewBaseEntity() BaseEntity {
	return BaseEntity{
		ID:      id.New(),
		Version: 1,
	}
}

// BaseDocument extends BaseEntity with the audit fields documents
// carry. Catalogs stay lean and skip them.
type BaseDocument struct {
	BaseEntity

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
	CreatedBy string    `db:"created_by" json:"createdBy,omitempty"`
	UpdatedBy string    `db:"updated_by" json:"updatedBy,omitempty"`
}

// NewBaseDocument returns a BaseDocument stamped with the current time.
func NewBaseDocument() BaseDocument {
	now := time.Now().UTC()
	return BaseDocument{
		BaseEntity: NewBaseEntity(),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// BaseCatalog is the embedding point for catalog entities.
type BaseCatalog struct {
	BaseEntity
}

// NewBaseCatalog returns a BaseCatalog with a fresh identity.
func NewBaseCatalog() BaseCatalog {
	return BaseCatalog{
		BaseEntity: NewBaseEntity(),
	}
}
