package handlers

import (
	"garasi/internal/domain/catalogs/branch"
	"garasi/internal/infrastructure/http/v1/dto"
)

// BranchHTTPHandler serves the branch catalog.
type BranchHTTPHandler = CatalogHandler[*branch.Branch, dto.CreateBranchRequest, dto.UpdateBranchRequest]

// NewBranchHandler wires the generic catalog handler for branches.
func NewBranchHandler(base *BaseHandler, service *branch.Service) *BranchHTTPHandler {
	cfg := CatalogHandlerConfig[*branch.Branch, dto.CreateBranchRequest, dto.UpdateBranchRequest]{
		Service:    service.CatalogService,
		EntityName: "branch",

		MapCreateDTO: func(req dto.CreateBranchRequest) *branch.Branch {
			return req.ToEntity()
		},

		MapUpdateDTO: func(req dto.UpdateBranchRequest, existing *branch.Branch) *branch.Branch {
			req.ApplyTo(existing)
			return existing
		},
	}

	return NewCatalogHandler(base, cfg)
}
