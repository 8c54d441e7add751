package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `
app:
  environment: test
broker:
  account_id: "01234567"
  username: demo
  session_config: configs/session.cfg
symbols:
  - broker: EUR/USD
    internal: EURUSD
  - broker: USD/JPY
    internal: usdjpy
schedule:
  connect_day: Sunday
  connect_time: "21:30"
  disconnect_day: friday
  disconnect_time: "21:15"
kafka:
  enabled: true
  brokers: "k1:9092,k2:9092"
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_AppliesDefaultsAndDecodesHooks(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleConfig))
	require.NoError(t, err)

	assert.Equal(t, "test", cfg.App.Environment)
	assert.Equal(t, "FXCM", cfg.Broker.Venue)
	assert.Equal(t, "memory", cfg.Broker.MessageStore)
	assert.True(t, cfg.Broker.SendAccountTag)
	assert.Equal(t, time.Minute, cfg.Schedule.CheckInterval)
	assert.Equal(t, 10*time.Millisecond, cfg.Kafka.BatchTimeout)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 1024, cfg.Gateway.ExecutorBuffer)

	symbols := cfg.InternalSymbols()
	require.Len(t, symbols, 2)
	assert.Equal(t, "EURUSD.FXCM", symbols[0].String())
	assert.Equal(t, "USDJPY.FXCM", symbols[1].String())
}

func TestLoad_EnvironmentOverridesFile(t *testing.T) {
	t.Setenv("FIXGW_BROKER_PASSWORD", "secret")
	t.Setenv("FIXGW_MONITOR_PORT", "9100")

	cfg, err := Load(writeConfig(t, sampleConfig))
	require.NoError(t, err)
	assert.Equal(t, "secret", cfg.Broker.Password)
	assert.Equal(t, 9100, cfg.Monitor.Port)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestValidate_CollectsAllProblems(t *testing.T) {
	body := `
app:
  environment: test
broker:
  message_store: redis
symbols:
  - broker: EUR/USD
    internal: EURUSD
  - broker: EUR/USD
    internal: EURGBP
schedule:
  connect_day: someday
`
	_, err := Load(writeConfig(t, body))
	require.Error(t, err)

	msg := err.Error()
	assert.Contains(t, msg, "配置校验失败")
	assert.Contains(t, msg, "broker.account_id")
	assert.Contains(t, msg, "broker.message_store")
	assert.Contains(t, msg, "EUR/USD")
	assert.Contains(t, msg, "schedule.connect")
}

func TestParseWindow(t *testing.T) {
	w, err := ParseWindow("Friday", "21:15")
	require.NoError(t, err)
	assert.Equal(t, Window{Day: time.Friday, Hour: 21, Minute: 15}, w)

	_, err = ParseWindow("friday", "25:00")
	assert.Error(t, err)
}
