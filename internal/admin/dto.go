package admin

import "time"

// OverrideSubmitRequest is the JSON part of the multipart override call.
// Motivo is mandatory at this boundary; the service trims and re-checks it so
// a whitespace-only value never reaches the state machine either.
type OverrideSubmitRequest struct {
	PeriodoID               int64   `json:"periodoId" validate:"required"`
	OriginalResponsibleID   int64   `json:"originalResponsibleId" validate:"required"`
	Motivo                  string  `json:"motivo" validate:"required"`
	Comentarios             *string `json:"comentarios,omitempty"`
	NotificarSupervisor     bool    `json:"notificarSupervisor"`
	NotificarResponsable    bool    `json:"notificarResponsable"`
	ConfirmoResponsabilidad bool    `json:"confirmoResponsabilidad" validate:"required"`
}

// ListActionsRequest filters the audit listing. Nil fields match everything.
type ListActionsRequest struct {
	AdminID    *int64
	ActionType *ActionType
	PeriodoID  *int64
	StartDate  *time.Time
	EndDate    *time.Time
	Page       int
	PageSize   int
}

// PagingInfo describes the listing window actually served.
type PagingInfo struct {
	Page     int  `json:"page"`
	PageSize int  `json:"page_size"`
	HasNext  bool `json:"has_next"`
	NextPage int  `json:"next_page,omitempty"`
	PrevPage int  `json:"prev_page,omitempty"`
}
