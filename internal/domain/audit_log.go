package domain

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const (
	AuditActionCreatePicture   = "CREATE_PICTURE"
	AuditActionEditPicture     = "EDIT_PICTURE"
	AuditActionDeletePicture   = "DELETE_PICTURE"
	AuditActionProposeChanges  = "PROPOSE_CHANGES"
	AuditActionValidateChanges = "VALIDATE_CHANGES"
	AuditActionRejectChanges   = "REJECT_CHANGES"
	AuditActionClearChanges    = "CLEAR_CHANGES"
)

func IsAuditAction(action string) bool {
	switch action {
	case AuditActionCreatePicture, AuditActionEditPicture, AuditActionDeletePicture,
		AuditActionProposeChanges, AuditActionValidateChanges, AuditActionRejectChanges, AuditActionClearChanges:
		return true
	}
	return false
}

// AuditLog is one mutation of a picture or of its moderation queue, with
// snapshots of the state before and after.
type AuditLog struct {
	ID        uuid.UUID       `json:"id" db:"id"`
	ActorID   uuid.UUID       `json:"actor_id" db:"actor_id"`
	ActorRole Role            `json:"actor_role" db:"actor_role"`
	Action    string          `json:"action" db:"action"`
	PictureID uuid.UUID       `json:"picture_id" db:"picture_id"`
	Before    json.RawMessage `json:"before,omitempty" db:"old_state"`
	After     json.RawMessage `json:"after,omitempty" db:"new_state"`
	IPAddress *string         `json:"ip_address,omitempty" db:"ip_address"`
	UserAgent *string         `json:"user_agent,omitempty" db:"user_agent"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
}

type AuditEntry struct {
	Actor     Actor
	Action    string
	PictureID uuid.UUID
	Before    interface{}
	After     interface{}
}

type AuditFilter struct {
	PictureID *uuid.UUID
	Action    string
}

func (f AuditFilter) Matches(log AuditLog) bool {
	if f.PictureID != nil && log.PictureID != *f.PictureID {
		return false
	}
	return f.Action == "" || log.Action == f.Action
}

// RequestInfo describes the HTTP caller behind a mutation.
type RequestInfo struct {
	IPAddress string
	UserAgent string
}

type requestInfoKey struct{}

func WithRequestInfo(ctx context.Context, info RequestInfo) context.Context {
	return context.WithValue(ctx, requestInfoKey{}, info)
}

func RequestInfoFrom(ctx context.Context) (RequestInfo, bool) {
	info, ok := ctx.Value(requestInfoKey{}).(RequestInfo)
	return info, ok
}
