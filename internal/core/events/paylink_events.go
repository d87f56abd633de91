package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypePaymentLinkCreated   = "payment_link.created"
	EventTypePaymentLinkDeleted   = "payment_link.deleted"
	EventTypePaymentSubmitted     = "payment.submitted"
	EventTypePaymentStatusChanged = "payment.status_changed"
)

func newBase(eventType, aggregateID string, data map[string]interface{}) BaseEvent {
	return BaseEvent{
		ID:        uuid.New().String(),
		Type:      eventType,
		Aggregate: aggregateID,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
}

type PaymentLinkCreatedEvent struct {
	BaseEvent
	LinkID     string `json:"link_id"`
	Slug       string `json:"slug"`
	FinalPrice string `json:"final_price"`
	CreatedBy  string `json:"created_by,omitempty"`
}

func NewPaymentLinkCreatedEvent(linkID, slug, finalPrice, createdBy string) *PaymentLinkCreatedEvent {
	return &PaymentLinkCreatedEvent{
		BaseEvent: newBase(EventTypePaymentLinkCreated, linkID, map[string]interface{}{
			"link_id":     linkID,
			"slug":        slug,
			"final_price": finalPrice,
			"created_by":  createdBy,
		}),
		LinkID:     linkID,
		Slug:       slug,
		FinalPrice: finalPrice,
		CreatedBy:  createdBy,
	}
}

type PaymentLinkDeletedEvent struct {
	BaseEvent
	LinkID          string `json:"link_id"`
	Slug            string `json:"slug"`
	DeletedPayments int64  `json:"deleted_payments"`
}

func NewPaymentLinkDeletedEvent(linkID, slug string, deletedPayments int64) *PaymentLinkDeletedEvent {
	return &PaymentLinkDeletedEvent{
		BaseEvent: newBase(EventTypePaymentLinkDeleted, linkID, map[string]interface{}{
			"link_id":          linkID,
			"slug":             slug,
			"deleted_payments": deletedPayments,
		}),
		LinkID:          linkID,
		Slug:            slug,
		DeletedPayments: deletedPayments,
	}
}

type PaymentSubmittedEvent struct {
	BaseEvent
	PaymentID     string `json:"payment_id"`
	LinkID        string `json:"link_id"`
	PaymentMethod string `json:"payment_method"`
	HasProof      bool   `json:"has_proof"`
}

func NewPaymentSubmittedEvent(paymentID, linkID, method string, hasProof bool) *PaymentSubmittedEvent {
	return &PaymentSubmittedEvent{
		BaseEvent: newBase(EventTypePaymentSubmitted, paymentID, map[string]interface{}{
			"payment_id":     paymentID,
			"link_id":        linkID,
			"payment_method": method,
			"has_proof":      hasProof,
		}),
		PaymentID:     paymentID,
		LinkID:        linkID,
		PaymentMethod: method,
		HasProof:      hasProof,
	}
}

type PaymentStatusChangedEvent struct {
	BaseEvent
	PaymentID string `json:"payment_id"`
	From      string `json:"from"`
	To        string `json:"to"`
	ActorID   string `json:"actor_id"`
}

func NewPaymentStatusChangedEvent(paymentID, from, to, actorID string) *PaymentStatusChangedEvent {
	return &PaymentStatusChangedEvent{
		BaseEvent: newBase(EventTypePaymentStatusChanged, paymentID, map[string]interface{}{
			"payment_id": paymentID,
			"from":       from,
			"to":         to,
			"actor_id":   actorID,
		}),
		PaymentID: paymentID,
		From:      from,
		To:        to,
		ActorID:   actorID,
	}
}

// NewGenericEvent builds an event from raw data, as the CLI publisher does.
func NewGenericEvent(eventType, aggregateID string, data map[string]interface{}) *BaseEvent {
	e := newBase(eventType, aggregateID, data)
	return &e
}
