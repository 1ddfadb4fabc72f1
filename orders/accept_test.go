package orders

import (
	"context"
	"errors"
	"testing"
	"time"

	"evenza/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSource backs a Source with an in-memory order map.
type fakeSource struct {
	name   string
	orders map[string]*models.Order
	saved  int
}

func (f *fakeSource) source() Source {
	return Source{
		Name: f.name,
		Find: func(_ context.Context, id string) (*models.Order, error) {
			o, ok := f.orders[id]
			if !ok {
				return nil, ErrOrderNotFound
			}
			cp := *o
			return &cp, nil
		},
		Save: func(_ context.Context, id string, event models.TrackingEvent, vendorID string, at time.Time) error {
			o := f.orders[id]
			o.Timeline = append(o.Timeline, event)
			o.Status = string(StatusVendorAccepted)
			o.AcceptedVendor = vendorID
			o.UpdatedAt = at
			f.saved++
			return nil
		},
	}
}

func pendingRequest(id string) *models.Order {
	return &models.Order{OrderID: id, Status: string(StatusOrderPlaced)}
}

func TestAcceptFromFirstSource(t *testing.T) {
	legacy := &fakeSource{name: "eventrequests", orders: map[string]*models.Order{"o1": pendingRequest("o1")}}
	primary := &fakeSource{name: "orders", orders: map[string]*models.Order{}}

	res, err := acceptAcrossSources(context.Background(), "o1", "v9", "Tasty Catering",
		[]Source{legacy.source(), primary.source()})
	require.NoError(t, err)

	assert.Equal(t, "eventrequests", res.Source)
	assert.Equal(t, "v9", res.Order.AcceptedVendor)
	assert.Equal(t, string(StatusVendorAccepted), res.Order.Status)
	assert.Equal(t, 1, legacy.saved)
	assert.Equal(t, 0, primary.saved)
}

func TestAcceptFallsThroughToSecondSource(t *testing.T) {
	legacy := &fakeSource{name: "eventrequests", orders: map[string]*models.Order{}}
	primary := &fakeSource{name: "orders", orders: map[string]*models.Order{"o2": pendingRequest("o2")}}

	res, err := acceptAcrossSources(context.Background(), "o2", "v9", "Tasty Catering",
		[]Source{legacy.source(), primary.source()})
	require.NoError(t, err)

	assert.Equal(t, "orders", res.Source)
	assert.Equal(t, 0, legacy.saved)
	assert.Equal(t, 1, primary.saved)
}

func TestAcceptUnknownID(t *testing.T) {
	legacy := &fakeSource{name: "eventrequests", orders: map[string]*models.Order{}}
	primary := &fakeSource{name: "orders", orders: map[string]*models.Order{}}

	_, err := acceptAcrossSources(context.Background(), "ghost", "v9", "Tasty Catering",
		[]Source{legacy.source(), primary.source()})
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestAcceptAlreadyAccepted(t *testing.T) {
	order := pendingRequest("o3")
	order.Status = string(StatusVendorAccepted)
	legacy := &fakeSource{name: "eventrequests", orders: map[string]*models.Order{"o3": order}}

	_, err := acceptAcrossSources(context.Background(), "o3", "v9", "Tasty Catering",
		[]Source{legacy.source()})
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, 0, legacy.saved)
}

func TestAcceptPropagatesSourceErrors(t *testing.T) {
	boom := errors.New("connection reset")
	broken := Source{
		Name: "eventrequests",
		Find: func(context.Context, string) (*models.Order, error) { return nil, boom },
	}

	_, err := acceptAcrossSources(context.Background(), "o4", "v9", "Tasty Catering", []Source{broken})
	assert.ErrorIs(t, err, boom)
}
