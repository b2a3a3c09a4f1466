package entity

import (
	"context"

	"garasi/internal/core/apperror"
)

// Catalog is the shared shape of reference data such as products and
// branches. Code is unique per catalog table; empty on create means
// the numerator assigns one.
type Catalog struct {
	BaseCatalog

	Code string `db:"code" json:"code"`
	Name string `db:"name" json:"name"`
}

// NewCatalog creates a Catalog with a generated identity.
func NewCatalog(code, name string) Catalog {
	return Catalog{
		BaseCatalog: NewBaseCatalog(),
		Code:        code,
		Name:        name,
	}
}

// Validate implements Validatable.
func (c *Catalog) Validate(ctx context.Context) error {
	if c.Name == "" {
		return apperror.NewValidation("name is required").
			WithDetail("field", "name")
	}
	return nil
}
