package admin

import (
	"context"
)

const (
	defaultPageSize = 20
	maxPageSize     = 50
)

// QueryResult bundles one listing page with its paging info.
type QueryResult struct {
	Actions []AdminAction `json:"actions"`
	Paging  PagingInfo    `json:"paging"`
}

// QueryService is the read side of the audit trail. It only ever sees
// committed AdminAction rows, so a listing can never observe half an override.
type QueryService struct {
	repo Repository
}

func NewQueryService(repo Repository) *QueryService {
	return &QueryService{repo: repo}
}

// List returns one page of actions matching the filters. One extra row is
// requested to decide whether a next page exists.
func (s *QueryService) List(ctx context.Context, req ListActionsRequest) (QueryResult, error) {
	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	page := req.Page
	if page <= 0 {
		page = 1
	}
	offset := (page - 1) * pageSize

	rows, err := s.repo.ListActions(ctx, req, pageSize+1, offset)
	if err != nil {
		return QueryResult{}, err
	}
	hasNext := len(rows) > pageSize
	if hasNext {
		rows = rows[:pageSize]
	}
	paging := PagingInfo{Page: page, PageSize: pageSize, HasNext: hasNext}
	if page > 1 {
		paging.PrevPage = page - 1
	}
	if hasNext {
		paging.NextPage = page + 1
	}
	return QueryResult{Actions: rows, Paging: paging}, nil
}

// Get returns one action by id.
func (s *QueryService) Get(ctx context.Context, id int64) (*AdminAction, error) {
	return s.repo.GetAction(ctx, id)
}

// PorPeriodo lists every action recorded against one period, newest first.
func (s *QueryService) PorPeriodo(ctx context.Context, periodoID int64) ([]AdminAction, error) {
	return s.repo.ListPorPeriodo(ctx, periodoID)
}

// Export returns the full record set for the filters, unpaged, in the same
// order the listing uses.
func (s *QueryService) Export(ctx context.Context, req ListActionsRequest) ([]AdminAction, error) {
	return s.repo.ListAllActions(ctx, req)
}
