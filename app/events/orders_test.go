package events

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Rasmogul/greatsoko/app/models"
	"github.com/Rasmogul/greatsoko/pkg/event"
)

type sent struct {
	user string
	data []byte
}

type fakeSender struct{ got []sent }

func (f *fakeSender) SendTo(userID string, data []byte) bool {
	f.got = append(f.got, sent{userID, data})
	return true
}

func TestRelayOrdersSendsToOwner(t *testing.T) {
	bus := event.New()
	to := &fakeSender{}
	RelayOrders(bus, to)

	o := &models.Order{ID: primitive.NewObjectID(), User: primitive.NewObjectID(), TotalPrice: 28}
	bus.Fire(context.Background(), OrderPaid, NewOrder(OrderPaid, o))
	bus.Fire(context.Background(), OrderPaid, "not an order event")

	require.Len(t, to.got, 1)
	assert.Equal(t, o.User.Hex(), to.got[0].user)

	var ev Order
	require.NoError(t, json.Unmarshal(to.got[0].data, &ev))
	assert.Equal(t, OrderPaid, ev.Event)
	assert.Equal(t, o.ID.Hex(), ev.OrderID)
	assert.Equal(t, 28.0, ev.TotalPrice)
}
