// Package dto provides data transfer objects for audit event API responses.
package dto

import (
	"time"

	"github.com/google/uuid"

	auditDomain "github.com/allisson/captoken/internal/audit/domain"
)

// EventResponse represents an audit event in API responses. Raw signatures are
// never exposed; Signed reports whether the row carries one.
type EventResponse struct {
	ID           string         `json:"id"`
	RequestID    string         `json:"request_id"`
	ClientID     string         `json:"client_id"`
	Action       string         `json:"action"`
	Granted      bool           `json:"granted"`
	DenyReason   string         `json:"deny_reason,omitempty"`
	ResourcePath string         `json:"resource_path,omitempty"`
	Permissions  string         `json:"permissions,omitempty"`
	PolicyID     string         `json:"policy_id,omitempty"`
	SigningKeyID string         `json:"signing_key_id,omitempty"`
	CallerIP     string         `json:"caller_ip,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	Signed       bool           `json:"signed"`
	AuditKeyID   string         `json:"audit_key_id,omitempty"`
}

// MapEventToResponse converts a domain audit event to an API response.
func MapEventToResponse(event *auditDomain.Event) EventResponse {
	return EventResponse{
		ID:           event.ID.String(),
		RequestID:    event.RequestID.String(),
		ClientID:     event.ClientID.String(),
		Action:       string(event.Action),
		Granted:      event.Granted,
		DenyReason:   event.DenyReason,
		ResourcePath: event.ResourcePath,
		Permissions:  event.Permissions,
		PolicyID:     optionalUUID(event.PolicyID),
		SigningKeyID: optionalUUID(event.SigningKeyID),
		CallerIP:     event.CallerIP,
		Metadata:     event.Metadata,
		CreatedAt:    event.CreatedAt,
		Signed:       len(event.Signature) > 0,
		AuditKeyID:   optionalUUID(event.AuditKeyID),
	}
}

// ListEventsResponse represents a paginated list of audit events in API responses.
type ListEventsResponse struct {
	Data []EventResponse `json:"data"`
}

// MapEventsToListResponse converts a slice of domain audit events to a list API response.
func MapEventsToListResponse(events []*auditDomain.Event) ListEventsResponse {
	eventResponses := make([]EventResponse, 0, len(events))
	for _, event := range events {
		eventResponses = append(eventResponses, MapEventToResponse(event))
	}
	return ListEventsResponse{
		Data: eventResponses,
	}
}

func optionalUUID(id uuid.UUID) string {
	if id == uuid.Nil {
		return ""
	}
	return id.String()
}
