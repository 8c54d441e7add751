package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fix-gateway/internal/config"
)

type fakeConnector struct {
	connected   bool
	connects    int
	disconnects int
	connectErr  error
}

func (c *fakeConnector) Connect(context.Context) error {
	c.connects++
	if c.connectErr != nil {
		return c.connectErr
	}
	c.connected = true
	return nil
}

func (c *fakeConnector) Disconnect(context.Context) error {
	c.disconnects++
	c.connected = false
	return nil
}

func (c *fakeConnector) IsConnected() bool { return c.connected }

type fakeRecorder struct {
	messages []string
}

func (r *fakeRecorder) RecordError(_ context.Context, msg string, _ error, _ map[string]interface{}) {
	r.messages = append(r.messages, msg)
}

func weeklySchedule() config.ScheduleConfig {
	return config.ScheduleConfig{
		Enabled:        true,
		ConnectDay:     "sunday",
		ConnectTime:    "21:30",
		DisconnectDay:  "friday",
		DisconnectTime: "21:30",
		CheckInterval:  time.Minute,
	}
}

func TestInWindow(t *testing.T) {
	sunday := config.Window{Day: time.Sunday, Hour: 21, Minute: 30}
	friday := config.Window{Day: time.Friday, Hour: 21, Minute: 30}

	// 2024-01-07 为周日。
	cases := []struct {
		name string
		at   time.Time
		want bool
	}{
		{"sunday before open", time.Date(2024, 1, 7, 21, 29, 0, 0, time.UTC), false},
		{"sunday at open", time.Date(2024, 1, 7, 21, 30, 0, 0, time.UTC), true},
		{"wednesday", time.Date(2024, 1, 10, 8, 0, 0, 0, time.UTC), true},
		{"friday at close", time.Date(2024, 1, 12, 21, 30, 0, 0, time.UTC), false},
		{"saturday", time.Date(2024, 1, 13, 12, 0, 0, 0, time.UTC), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, inWindow(tc.at, sunday, friday))
		})
	}

	// 跨越周末的窗口。
	assert.True(t, inWindow(time.Date(2024, 1, 13, 12, 0, 0, 0, time.UTC), friday, sunday))
	assert.False(t, inWindow(time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC), friday, sunday))
}

func TestScheduler_ConnectsInsideAndDisconnectsOutsideWindow(t *testing.T) {
	target := &fakeConnector{}
	s, err := newScheduler(weeklySchedule(), target, nil, nil)
	require.NoError(t, err)
	ctx := context.Background()

	s.now = func() time.Time { return time.Date(2024, 1, 13, 12, 0, 0, 0, time.UTC) }
	s.tick(ctx)
	assert.Zero(t, target.connects)
	assert.Zero(t, target.disconnects)

	s.now = func() time.Time { return time.Date(2024, 1, 7, 22, 0, 0, 0, time.UTC) }
	s.tick(ctx)
	s.tick(ctx)
	assert.Equal(t, 1, target.connects)

	// 窗口内掉线后重新连接。
	target.connected = false
	s.tick(ctx)
	assert.Equal(t, 2, target.connects)

	s.now = func() time.Time { return time.Date(2024, 1, 12, 22, 0, 0, 0, time.UTC) }
	s.tick(ctx)
	s.tick(ctx)
	assert.Equal(t, 1, target.disconnects)
}

func TestScheduler_RecordsConnectFailure(t *testing.T) {
	target := &fakeConnector{connectErr: errors.New("refused")}
	recorder := &fakeRecorder{}
	s, err := newScheduler(weeklySchedule(), target, recorder, nil)
	require.NoError(t, err)
	s.now = func() time.Time { return time.Date(2024, 1, 9, 10, 0, 0, 0, time.UTC) }

	s.tick(context.Background())

	assert.Equal(t, 1, target.connects)
	assert.Equal(t, []string{"连接经纪商失败"}, recorder.messages)
}

func TestNewScheduler_RejectsBadWindow(t *testing.T) {
	cfg := weeklySchedule()
	cfg.DisconnectDay = "someday"
	_, err := newScheduler(cfg, &fakeConnector{}, nil, nil)
	assert.Error(t, err)
}
