package listener

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestParseEvent(t *testing.T) {
	ev, err := ParseEvent(`{"source":"file:config/baselines.json","upserted":84,"ts":1760400000}`)
	require.NoError(t, err)
	assert.Equal(t, "file:config/baselines.json", ev.Source)
	assert.Equal(t, 84, ev.Upserted)
	assert.Equal(t, int64(1760400000), ev.Timestamp)

	_, err = ParseEvent("not json")
	assert.Error(t, err)
}

func TestHandle_ReloadsEvenOnBadPayload(t *testing.T) {
	calls := 0
	reload := func(context.Context) error {
		calls++
		return nil
	}
	handle(context.Background(), `{"source":"x","upserted":1,"ts":0}`, reload, quietLogger())
	handle(context.Background(), "garbage", reload, quietLogger())
	assert.Equal(t, 2, calls)
}

func TestHandle_ReloadErrorIsLogged(t *testing.T) {
	assert.NotPanics(t, func() {
		handle(context.Background(), "{}", func(context.Context) error { return errors.New("db down") }, quietLogger())
	})
}

func TestStart_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	done := make(chan struct{})
	go func() {
		Start(ctx, "postgres://invalid:1/none", func(context.Context) error { return nil }, quietLogger())
		close(done)
	}()
	<-done
}
