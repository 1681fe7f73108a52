package events_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/findthemapp/findthem-core/internal/db"
	"github.com/findthemapp/findthem-core/internal/events"
)

func silentLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestBusDispatchOrder(t *testing.T) {
	bus := events.NewBus(silentLogger())

	var seen []string
	bus.Subscribe(func(_ context.Context, e events.Event) error {
		seen = append(seen, "first:"+e.Name())
		return nil
	})
	bus.Subscribe(func(_ context.Context, e events.Event) error {
		seen = append(seen, "second:"+e.Name())
		return nil
	})

	bus.Publish(context.Background(), events.CaseCreated{Case: db.Case{ID: 1}})

	assert.Equal(t, []string{"first:case.created", "second:case.created"}, seen)
}

func TestBusIsolatesFailingHandlers(t *testing.T) {
	bus := events.NewBus(silentLogger())

	var calls int
	bus.Subscribe(func(context.Context, events.Event) error {
		panic("handler exploded")
	})
	bus.Subscribe(func(context.Context, events.Event) error {
		return errors.New("handler failed")
	})
	bus.Subscribe(func(context.Context, events.Event) error {
		calls++
		return nil
	})

	bus.Publish(context.Background(), events.CaseCreated{Case: db.Case{ID: 1}})
	bus.Publish(context.Background(), events.CaseCreated{Case: db.Case{ID: 2}})

	// the last handler always runs despite the earlier panic and error
	assert.Equal(t, 2, calls)
}
