package fixengine

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/quickfixgo/quickfix"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"fix-gateway/internal/fix"
	"fix-gateway/internal/outbound"
)

var testSID = quickfix.SessionID{BeginString: "FIX.4.4", SenderCompID: "CLIENT", TargetCompID: "BROKER"}

type recordingHandler struct {
	calls    []string
	messages []*quickfix.Message
}

func (h *recordingHandler) OnCreate(quickfix.SessionID) { h.calls = append(h.calls, "create") }
func (h *recordingHandler) OnLogon(quickfix.SessionID)  { h.calls = append(h.calls, "logon") }
func (h *recordingHandler) OnLogout(quickfix.SessionID) { h.calls = append(h.calls, "logout") }
func (h *recordingHandler) OnMessage(msg *quickfix.Message, _ quickfix.SessionID) {
	h.calls = append(h.calls, "message")
	h.messages = append(h.messages, msg)
}

func newTestApplication(handler Handler, sendAccount bool) *Application {
	return NewApplication(handler,
		Credentials{Username: "user", Password: "secret", Account: "ACC-1"},
		outbound.NewFinalizer("ACC-1", sendAccount), nil, nil)
}

func TestApplication_ForwardsCallbacks(t *testing.T) {
	handler := &recordingHandler{}
	app := newTestApplication(handler, false)

	app.OnCreate(testSID)
	app.OnLogon(testSID)
	msg := fix.NewMessage(fix.MsgTypeExecutionReport)
	assert.Nil(t, app.FromApp(msg, testSID))
	assert.Nil(t, app.FromAdmin(fix.NewMessage("0"), testSID))
	app.OnLogout(testSID)

	assert.Equal(t, []string{"create", "logon", "message", "logout"}, handler.calls)
	assert.Same(t, msg, handler.messages[0])
}

func TestApplication_ToAdminInjectsCredentialsOnLogon(t *testing.T) {
	app := newTestApplication(&recordingHandler{}, false)

	logon := fix.NewMessage(fix.MsgTypeLogon)
	app.ToAdmin(logon, testSID)
	body := &logon.Body.FieldMap
	assert.Equal(t, "user", fix.Get(body, fix.TagUsername))
	assert.Equal(t, "secret", fix.Get(body, fix.TagPassword))
	assert.Equal(t, "ACC-1", fix.Get(body, fix.TagAccount))

	heartbeat := fix.NewMessage("0")
	app.ToAdmin(heartbeat, testSID)
	assert.False(t, heartbeat.Body.Has(fix.TagUsername))
}

func TestApplication_ToAppSuppressesPossDup(t *testing.T) {
	app := newTestApplication(&recordingHandler{}, true)

	msg := fix.NewMessage(fix.MsgTypeNewOrderSingle)
	require.NoError(t, app.ToApp(msg, testSID))
	assert.Equal(t, "ACC-1", fix.Get(&msg.Body.FieldMap, fix.TagAccount))

	dup := fix.NewMessage(fix.MsgTypeNewOrderSingle)
	dup.Header.SetString(fix.TagPossDupFlag, fix.YesFlag)
	assert.ErrorIs(t, app.ToApp(dup, testSID), quickfix.ErrDoNotSend)
}

func TestReadable_MasksPassword(t *testing.T) {
	raw := []byte("8=FIX.4.4\x0135=A\x01553=user\x01554=secret\x0110=000\x01")
	assert.Equal(t, "8=FIX.4.4|35=A|553=user|554=***|10=000|", readable(raw))

	tail := []byte("35=A\x01554=secret")
	assert.Equal(t, "35=A|554=***", readable(tail))
}

func TestZapLog_WritesEvents(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	factory := NewZapLogFactory(zap.New(core))

	log, err := factory.CreateSessionLog(testSID)
	require.NoError(t, err)
	log.OnEventf("Connecting to: %s", "127.0.0.1:9880")
	log.OnIncoming([]byte("35=0\x01"))

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "Connecting to: 127.0.0.1:9880", entries[0].Message)
	assert.Equal(t, "35=0|", entries[1].ContextMap()["raw"])
}

func TestLoadSettings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.cfg")
	content := "[DEFAULT]\nConnectionType=initiator\nHeartBtInt=30\n\n[SESSION]\nBeginString=FIX.4.4\nSenderCompID=CLIENT\nTargetCompID=BROKER\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	settings, err := LoadSettings(path)
	require.NoError(t, err)
	assert.Len(t, settings.SessionSettings(), 1)

	_, err = LoadSettings(filepath.Join(t.TempDir(), "missing.cfg"))
	assert.Error(t, err)
	_, err = LoadSettings("")
	assert.Error(t, err)
}

func TestNewStoreFactory(t *testing.T) {
	settings := quickfix.NewSettings()
	for _, kind := range []string{"", "memory", "FILE"} {
		factory, err := newStoreFactory(kind, settings)
		require.NoError(t, err, kind)
		assert.NotNil(t, factory)
	}
	_, err := newStoreFactory("redis", settings)
	assert.Error(t, err)
}

func TestEngine_StartFailsWithoutSettings(t *testing.T) {
	engine := NewEngine(Config{}, newTestApplication(&recordingHandler{}, false), nil)
	assert.Error(t, engine.Start())
	assert.NotPanics(t, engine.Stop)
}
