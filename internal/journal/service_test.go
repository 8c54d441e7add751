package journal

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fix-gateway/internal/config"
	"fix-gateway/internal/domain"
	"fix-gateway/internal/store"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	s, err := store.NewSQLite(config.DatabaseConfig{InMemory: true, MaxOpenConns: 1})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	svc, err := NewService(s, nil)
	require.NoError(t, err)
	return svc
}

func filled(id domain.OrderID, ts time.Time) domain.OrderFilled {
	return domain.OrderFilled{
		EventHeader: domain.NewHeader(ts),
		OrderRef: domain.OrderRef{
			OrderID:  id,
			BrokerID: "B-" + string(id),
			Symbol:   domain.NewSymbol("EURUSD", "FXCM"),
		},
		Execution: domain.Execution{
			ExecutionID:    "E-" + string(id),
			FilledQuantity: decimal.NewFromInt(100),
			AveragePrice:   decimal.RequireFromString("1.2345"),
			ExecutedAt:     ts,
		},
	}
}

func TestHandle_PersistsEventsAndFiltersByKindAndKey(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	ts := time.Date(2024, 3, 1, 12, 0, 0, 123000000, time.UTC)

	require.NoError(t, svc.Handle(ctx, filled("O-1", ts)))
	require.NoError(t, svc.Handle(ctx, filled("O-2", ts.Add(time.Second))))
	require.NoError(t, svc.Handle(ctx, domain.SessionConnected{
		EventHeader: domain.NewHeader(ts),
		Session:     "FIX.4.4:CLIENT->FXCM",
	}))

	all, err := svc.ListEvents(ctx, Query{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, string(domain.KindSessionConnected), all[0].Kind)

	fills, err := svc.ListEvents(ctx, Query{Kind: string(domain.KindOrderFilled)})
	require.NoError(t, err)
	require.Len(t, fills, 2)
	assert.Equal(t, "O-2", fills[0].Key)
	assert.True(t, fills[1].OccurredAt.Equal(ts))

	byOrder, err := svc.ListEvents(ctx, Query{Key: "O-1"})
	require.NoError(t, err)
	require.Len(t, byOrder, 1)

	var payload struct {
		OrderID        string `json:"order_id"`
		FilledQuantity string `json:"filled_quantity"`
	}
	require.NoError(t, json.Unmarshal(byOrder[0].Payload, &payload))
	assert.Equal(t, "O-1", payload.OrderID)
	assert.Equal(t, "100", payload.FilledQuantity)
}

func TestHandle_IgnoresDuplicateEventIDs(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	event := filled("O-9", time.Now().UTC())

	require.NoError(t, svc.Handle(ctx, event))
	require.NoError(t, svc.Handle(ctx, event))

	entries, err := svc.ListEvents(ctx, Query{})
	require.NoError(t, err)
	assert.Len(t, entries, 1)
	assert.Equal(t, event.ID, entries[0].EventID)
}

func TestRecordError_StoresPayload(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	svc.RecordError(ctx, "发送失败", errors.New("boom"), map[string]interface{}{"order_id": "O-1"})

	entries, err := svc.ListEvents(ctx, Query{Kind: KindError, Limit: 5})
	require.NoError(t, err)
	require.Len(t, entries, 1)

	var payload ErrorPayload
	require.NoError(t, json.Unmarshal(entries[0].Payload, &payload))
	assert.Equal(t, "boom", payload.Error)
	assert.Equal(t, "O-1", payload.Context["order_id"])
}

func TestNewService_RequiresStore(t *testing.T) {
	_, err := NewService(nil, nil)
	assert.Error(t, err)
}
