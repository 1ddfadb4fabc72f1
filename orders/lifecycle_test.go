package orders

import (
	"testing"
	"time"

	"evenza/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func placedOrder() *models.Order {
	return &models.Order{
		OrderID: "o1",
		Status:  string(StatusOrderPlaced),
		Timeline: []models.TrackingEvent{
			NewTrackingEvent(StatusOrderPlaced, "Order placed", ActorCustomer, nil),
		},
	}
}

func TestApplyLegalTransition(t *testing.T) {
	o := placedOrder()

	event, err := Apply(o, StatusVendorAccepted, "Order accepted", ActorVendor, nil)
	require.NoError(t, err)

	assert.Equal(t, string(StatusVendorAccepted), o.Status)
	assert.Equal(t, string(StatusVendorAccepted), event.Status)
	assert.Len(t, o.Timeline, 2)
	assert.NotEmpty(t, event.ID)
	assert.Equal(t, ActorVendor, event.UpdatedBy)
}

func TestApplyIllegalTransition(t *testing.T) {
	o := placedOrder()

	_, err := Apply(o, StatusDelivered, "skip ahead", ActorVendor, nil)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	// order untouched on failure
	assert.Equal(t, string(StatusOrderPlaced), o.Status)
	assert.Len(t, o.Timeline, 1)
}

func TestApplyUnknownStatus(t *testing.T) {
	o := placedOrder()
	_, err := Apply(o, Status("teleported"), "", ActorAdmin, nil)
	assert.ErrorIs(t, err, ErrUnknownStatus)
}

func TestApplyTerminalStateRejectsEverything(t *testing.T) {
	for _, terminal := range []Status{StatusCompleted, StatusCancelled, StatusRefunded} {
		o := placedOrder()
		o.Status = string(terminal)

		_, err := Apply(o, StatusOrderConfirmed, "", ActorAdmin, nil)
		assert.ErrorIs(t, err, ErrTerminalState, "from %s", terminal)
	}
}

func TestApplyActorRestrictions(t *testing.T) {
	o := placedOrder()
	_, err := Apply(o, StatusVendorAccepted, "", ActorCustomer, nil)
	assert.ErrorIs(t, err, ErrActorNotAllowed)

	// admin bypasses actor restrictions
	o = placedOrder()
	_, err = Apply(o, StatusVendorAccepted, "", ActorAdmin, nil)
	assert.NoError(t, err)

	// customer-only statuses reject the vendor
	o = placedOrder()
	o.Status = string(StatusQuotationSent)
	_, err = Apply(o, StatusQuotationAccepted, "", ActorVendor, nil)
	assert.ErrorIs(t, err, ErrActorNotAllowed)
}

func TestTimelineAppendOnly(t *testing.T) {
	o := placedOrder()
	steps := []struct {
		to    Status
		actor string
	}{
		{StatusVendorAccepted, ActorVendor},
		{StatusPaymentPending, ActorSystem},
		{StatusPaymentReceived, ActorVendor},
		{StatusPreparationStarted, ActorVendor},
		{StatusInProgress, ActorVendor},
	}

	for i, step := range steps {
		before := make([]models.TrackingEvent, len(o.Timeline))
		copy(before, o.Timeline)

		_, err := Apply(o, step.to, "", step.actor, nil)
		require.NoError(t, err, "step %d", i)

		require.Len(t, o.Timeline, len(before)+1)
		for j := range before {
			assert.Equal(t, before[j], o.Timeline[j], "existing entry %d mutated", j)
		}
	}
}

func TestAnnotateKeepsStatus(t *testing.T) {
	o := placedOrder()
	event := Annotate(o, "Customer asked about delivery window", ActorVendor, nil)

	assert.Equal(t, string(StatusOrderPlaced), o.Status)
	assert.Equal(t, string(StatusOrderPlaced), event.Status)
	assert.Len(t, o.Timeline, 2)
}

func TestSimpleProjection(t *testing.T) {
	cases := map[Status]string{
		StatusOrderPlaced:        "pending",
		StatusVendorNotified:     "pending",
		StatusQuotationSent:      "pending",
		StatusVendorAccepted:     "confirmed",
		StatusPaymentPending:     "confirmed",
		StatusPaymentReceived:    "confirmed",
		StatusPreparationStarted: "in_progress",
		StatusOutForDelivery:     "in_progress",
		StatusDelivered:          "in_progress",
		StatusCompleted:          "completed",
		StatusVendorDeclined:     "cancelled",
		StatusCancelled:          "cancelled",
		StatusRefunded:           "cancelled",
	}
	for status, want := range cases {
		assert.Equal(t, want, status.Simple(), "status %s", status)
	}
}

func TestEveryStatusReachesATerminalState(t *testing.T) {
	for from := range transitions {
		if from.Terminal() {
			continue
		}
		seen := map[Status]bool{from: true}
		frontier := []Status{from}
		reached := false
		for len(frontier) > 0 && !reached {
			next := frontier[0]
			frontier = frontier[1:]
			for _, to := range transitions[next] {
				if to.Terminal() {
					reached = true
					break
				}
				if !seen[to] {
					seen[to] = true
					frontier = append(frontier, to)
				}
			}
		}
		assert.True(t, reached, "no terminal state reachable from %s", from)
	}
}

func TestSortTimeline(t *testing.T) {
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	timeline := []models.TrackingEvent{
		{ID: "c", Timestamp: base.Add(2 * time.Hour)},
		{ID: "a", Timestamp: base},
		{ID: "b", Timestamp: base.Add(time.Hour)},
	}

	SortTimeline(timeline)

	assert.Equal(t, "a", timeline[0].ID)
	assert.Equal(t, "b", timeline[1].ID)
	assert.Equal(t, "c", timeline[2].ID)
}
