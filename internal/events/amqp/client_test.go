package amqp

import (
	"context"
	"errors"
	"testing"

	"github.com/rabbitmq/amqp091-go"

	"github.com/Rajdeepm07/expensechart/internal/events"
)

// fakeAcknowledger records how a delivery was settled.
type fakeAcknowledger struct {
	acked   bool
	nacked  bool
	requeue bool
}

func (f *fakeAcknowledger) Ack(tag uint64, multiple bool) error {
	f.acked = true
	return nil
}

func (f *fakeAcknowledger) Nack(tag uint64, multiple bool, requeue bool) error {
	f.nacked = true
	f.requeue = requeue
	return nil
}

func (f *fakeAcknowledger) Reject(tag uint64, requeue bool) error {
	f.nacked = true
	f.requeue = requeue
	return nil
}

func delivery(ack *fakeAcknowledger, routingKey string, body []byte) amqp091.Delivery {
	return amqp091.Delivery{
		Acknowledger: ack,
		RoutingKey:   routingKey,
		Body:         body,
	}
}

func TestDispatch(t *testing.T) {
	addedBody, _ := events.ExpenseAdded{ID: 7, Title: "lunch", AmountCents: 500}.ToJSON()
	removedBody, _ := events.ExpenseRemoved{ID: 7}.ToJSON()

	t.Run("added delivery acked and handled", func(t *testing.T) {
		c := &Client{}
		ack := &fakeAcknowledger{}
		var got *events.ExpenseAdded

		c.dispatch(context.Background(), delivery(ack, routingKeyAdded, addedBody),
			func(e *events.ExpenseAdded) error { got = e; return nil }, nil)

		if !ack.acked {
			t.Error("delivery not acked")
		}
		if got == nil || got.ID != 7 || got.Title != "lunch" || got.AmountCents != 500 {
			t.Errorf("handler got %+v", got)
		}
	})

	t.Run("removed delivery acked and handled", func(t *testing.T) {
		c := &Client{}
		ack := &fakeAcknowledger{}
		var got *events.ExpenseRemoved

		c.dispatch(context.Background(), delivery(ack, routingKeyRemoved, removedBody),
			nil, func(e *events.ExpenseRemoved) error { got = e; return nil })

		if !ack.acked {
			t.Error("delivery not acked")
		}
		if got == nil || got.ID != 7 {
			t.Errorf("handler got %+v", got)
		}
	})

	t.Run("handler error requeues", func(t *testing.T) {
		c := &Client{}
		ack := &fakeAcknowledger{}

		c.dispatch(context.Background(), delivery(ack, routingKeyAdded, addedBody),
			func(*events.ExpenseAdded) error { return errors.New("boom") }, nil)

		if !ack.nacked || !ack.requeue {
			t.Errorf("handler error: nacked=%v requeue=%v, want nack with requeue", ack.nacked, ack.requeue)
		}
	})

	t.Run("undecodable body dropped", func(t *testing.T) {
		c := &Client{}
		ack := &fakeAcknowledger{}

		c.dispatch(context.Background(), delivery(ack, routingKeyAdded, []byte("not json")),
			func(*events.ExpenseAdded) error { t.Fatal("handler must not run"); return nil }, nil)

		if !ack.nacked || ack.requeue {
			t.Errorf("bad body: nacked=%v requeue=%v, want nack without requeue", ack.nacked, ack.requeue)
		}
	})

	t.Run("unknown routing key dropped", func(t *testing.T) {
		c := &Client{}
		ack := &fakeAcknowledger{}

		c.dispatch(context.Background(), delivery(ack, "expense.audited", addedBody), nil, nil)

		if !ack.nacked || ack.requeue {
			t.Errorf("unknown key: nacked=%v requeue=%v, want nack without requeue", ack.nacked, ack.requeue)
		}
	})

	t.Run("nil handler still acks", func(t *testing.T) {
		c := &Client{}
		ack := &fakeAcknowledger{}

		c.dispatch(context.Background(), delivery(ack, routingKeyAdded, addedBody), nil, nil)

		if !ack.acked {
			t.Error("delivery with nil handler not acked")
		}
	})
}
