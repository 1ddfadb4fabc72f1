// Package orders owns the order lifecycle: the status graph, the append-only
// timeline, and the HTTP surface for placing, tracking, and settling orders.
package orders

import (
	"errors"
	"sort"
	"time"

	"evenza/models"

	"github.com/google/uuid"
)

// Status is the canonical fine-grained order state.
type Status string

const (
	StatusOrderPlaced        Status = "order_placed"
	StatusOrderConfirmed     Status = "order_confirmed"
	StatusVendorNotified     Status = "vendor_notified"
	StatusVendorAccepted     Status = "vendor_accepted"
	StatusVendorDeclined     Status = "vendor_declined"
	StatusQuotationSent      Status = "quotation_sent"
	StatusQuotationAccepted  Status = "quotation_accepted"
	StatusQuotationRejected  Status = "quotation_rejected"
	StatusPaymentPending     Status = "payment_pending"
	StatusPaymentReceived    Status = "payment_received"
	StatusPreparationStarted Status = "preparation_started"
	StatusInProgress         Status = "in_progress"
	StatusReadyForDelivery   Status = "ready_for_delivery"
	StatusOutForDelivery     Status = "out_for_delivery"
	StatusDelivered          Status = "delivered"
	StatusCompleted          Status = "completed"
	StatusCancelled          Status = "cancelled"
	StatusRefundInitiated    Status = "refund_initiated"
	StatusRefunded           Status = "refunded"
)

// Actors recorded as a timeline entry's author.
const (
	ActorCustomer = "customer"
	ActorVendor   = "vendor"
	ActorAdmin    = "admin"
	ActorSystem   = "system"
)

var (
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrTerminalState     = errors.New("order is in a terminal state")
	ErrActorNotAllowed   = errors.New("actor may not set this status")
	ErrUnknownStatus     = errors.New("unknown order status")
)

// transitions is the single source of legal status moves.
var transitions = map[Status][]Status{
	StatusOrderPlaced:        {StatusOrderConfirmed, StatusVendorNotified, StatusVendorAccepted, StatusCancelled},
	StatusOrderConfirmed:     {StatusVendorNotified, StatusVendorAccepted, StatusCancelled},
	StatusVendorNotified:     {StatusVendorAccepted, StatusVendorDeclined, StatusCancelled},
	StatusVendorAccepted:     {StatusQuotationSent, StatusPaymentPending, StatusCancelled},
	StatusVendorDeclined:     {StatusCancelled},
	StatusQuotationSent:      {StatusQuotationAccepted, StatusQuotationRejected, StatusCancelled},
	StatusQuotationAccepted:  {StatusPaymentPending, StatusCancelled},
	StatusQuotationRejected:  {StatusQuotationSent, StatusCancelled},
	StatusPaymentPending:     {StatusPaymentReceived, StatusCancelled},
	StatusPaymentReceived:    {StatusPreparationStarted, StatusRefundInitiated, StatusCancelled},
	StatusPreparationStarted: {StatusInProgress, StatusRefundInitiated, StatusCancelled},
	StatusInProgress:         {StatusReadyForDelivery, StatusRefundInitiated, StatusCancelled},
	StatusReadyForDelivery:   {StatusOutForDelivery, StatusRefundInitiated, StatusCancelled},
	StatusOutForDelivery:     {StatusDelivered, StatusRefundInitiated, StatusCancelled},
	StatusDelivered:          {StatusCompleted, StatusRefundInitiated},
	StatusRefundInitiated:    {StatusRefunded, StatusCancelled},
	StatusCompleted:          {},
	StatusCancelled:          {},
	StatusRefunded:           {},
}

// allowedActors restricts who may set a status. Statuses not listed accept
// any actor; admin and system are never restricted.
var allowedActors = map[Status][]string{
	StatusVendorAccepted:     {ActorVendor},
	StatusVendorDeclined:     {ActorVendor},
	StatusQuotationSent:      {ActorVendor},
	StatusQuotationAccepted:  {ActorCustomer},
	StatusQuotationRejected:  {ActorCustomer},
	StatusPaymentReceived:    {ActorVendor},
	StatusPreparationStarted: {ActorVendor},
	StatusInProgress:         {ActorVendor},
	StatusReadyForDelivery:   {ActorVendor},
	StatusOutForDelivery:     {ActorVendor},
	StatusDelivered:          {ActorVendor},
}

func (s Status) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// Terminal reports whether no transition leaves s.
func (s Status) Terminal() bool {
	next, ok := transitions[s]
	return ok && len(next) == 0
}

// Simple collapses the fine-grained status to the terse management view:
// pending, confirmed, in_progress, completed or cancelled.
func (s Status) Simple() string {
	switch s {
	case StatusOrderPlaced, StatusOrderConfirmed, StatusVendorNotified,
		StatusQuotationSent, StatusQuotationRejected:
		return "pending"
	case StatusVendorAccepted, StatusQuotationAccepted,
		StatusPaymentPending, StatusPaymentReceived:
		return "confirmed"
	case StatusPreparationStarted, StatusInProgress, StatusReadyForDelivery,
		StatusOutForDelivery, StatusDelivered:
		return "in_progress"
	case StatusCompleted:
		return "completed"
	case StatusVendorDeclined, StatusCancelled, StatusRefundInitiated, StatusRefunded:
		return "cancelled"
	}
	return "pending"
}

// CanTransition reports whether from -> to is a legal move.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func actorAllowed(status Status, actor string) bool {
	if actor == ActorAdmin || actor == ActorSystem {
		return true
	}
	allowed, ok := allowedActors[status]
	if !ok {
		return true
	}
	for _, a := range allowed {
		if a == actor {
			return true
		}
	}
	return false
}

// NewTrackingEvent builds a timeline entry with a collision-free id.
func NewTrackingEvent(status Status, description, updatedBy string, meta *models.EventMetadata) models.TrackingEvent {
	return models.TrackingEvent{
		ID:          uuid.New().String(),
		Status:      string(status),
		Timestamp:   time.Now().UTC(),
		Description: description,
		UpdatedBy:   updatedBy,
		Metadata:    meta,
	}
}

// Apply validates and performs a status transition on the in-memory order:
// it appends a timeline entry and updates status and updatedAt. The caller
// persists both in a single document write.
func Apply(o *models.Order, to Status, description, updatedBy string, meta *models.EventMetadata) (models.TrackingEvent, error) {
	if !to.Valid() {
		return models.TrackingEvent{}, ErrUnknownStatus
	}
	from := Status(o.Status)
	if from.Terminal() {
		return models.TrackingEvent{}, ErrTerminalState
	}
	if !CanTransition(from, to) {
		return models.TrackingEvent{}, ErrInvalidTransition
	}
	if !actorAllowed(to, updatedBy) {
		return models.TrackingEvent{}, ErrActorNotAllowed
	}

	event := NewTrackingEvent(to, description, updatedBy, meta)
	o.Timeline = append(o.Timeline, event)
	o.Status = string(to)
	o.UpdatedAt = event.Timestamp
	return event, nil
}

// Annotate appends an informational timeline entry without changing the
// order's status.
func Annotate(o *models.Order, description, updatedBy string, meta *models.EventMetadata) models.TrackingEvent {
	event := NewTrackingEvent(Status(o.Status), description, updatedBy, meta)
	o.Timeline = append(o.Timeline, event)
	o.UpdatedAt = event.Timestamp
	return event
}

// SortTimeline orders entries chronologically. Append order under concurrent
// writers is not trustworthy; consumers sort before display.
func SortTimeline(timeline []models.TrackingEvent) {
	sort.SliceStable(timeline, func(i, j int) bool {
		return timeline[i].Timestamp.Before(timeline[j].Timestamp)
	})
}
