// Package branch provides the Branch catalog.
// Branches are the physical workshop locations that hold their own
// stock, staff and orders.
package branch

import (
	"context"
	"regexp"

	"garasi/internal/core/apperror"
	"garasi/internal/core/entity"
)

// Branch represents a workshop location.
type Branch struct {
	entity.Catalog

	// Address is the physical address
	Address *string `db:"address" json:"address,omitempty"`

	// Phone is the branch contact number
	Phone *string `db:"phone" json:"phone,omitempty"`

	// Email is the branch contact email
	Email *string `db:"email" json:"email,omitempty"`

	// IsActive indicates if the branch is operational
	IsActive bool `db:"is_active" json:"isActive"`
}

// NewBranch creates a new Branch with required fields.
func NewBranch(code, name string) *Branch {
	return &Branch{
		Catalog:  entity.NewCatalog(code, name),
		IsActive: true,
	}
}

// Validate implements entity.Validatable interface.
func (b *Branch) Validate(ctx context.Context) error {
	// Base catalog validation
	if err := b.Catalog.Validate(ctx); err != nil {
		return err
	}

	if b.Email != nil && *b.Email != "" && !isValidEmail(*b.Email) {
		return apperror.NewValidation("invalid email").
			WithDetail("field", "email").
			WithDetail("value", *b.Email)
	}

	return nil
}

func isValidEmail(email string) bool {
	return regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`).MatchString(email)
}
