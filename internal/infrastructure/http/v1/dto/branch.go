package dto

import (
	"garasi/internal/domain/catalogs/branch"
)

// --- Request DTOs ---

// CreateBranchRequest is the request body for creating a branch.
type CreateBranchRequest struct {
	Code    string  `json:"code"`
	Name    string  `json:"name" binding:"required"`
	Address *string `json:"address"`
	Phone   *string `json:"phone"`
	Email   *string `json:"email"`
}

// ToEntity converts the request to a domain entity.
func (r *CreateBranchRequest) ToEntity() *branch.Branch {
	item := branch.NewBranch(r.Code, r.Name)
	item.Address = r.Address
	item.Phone = r.Phone
	item.Email = r.Email
	return item
}

// UpdateBranchRequest is the request body for updating a branch.
// Version is required for optimistic locking.
type UpdateBranchRequest struct {
	Code     string  `json:"code"`
	Name     string  `json:"name" binding:"required"`
	Address  *string `json:"address"`
	Phone    *string `json:"phone"`
	Email    *string `json:"email"`
	IsActive *bool   `json:"isActive"`
	Version  int     `json:"version" binding:"required"`
}

// ApplyTo applies the update to an existing entity.
func (r *UpdateBranchRequest) ApplyTo(item *branch.Branch) {
	item.Code = r.Code
	item.Name = r.Name
	item.Address = r.Address
	item.Phone = r.Phone
	item.Email = r.Email
	if r.IsActive != nil {
		item.IsActive = *r.IsActive
	}
	item.Version = r.Version
}
