package session

// State 为主会话的生命周期状态。
type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateSessionCreated
	StateLoggedOn
	StateLoggedOut
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateSessionCreated:
		return "session_created"
	case StateLoggedOn:
		return "logged_on"
	case StateLoggedOut:
		return "logged_out"
	default:
		return "unknown"
	}
}

// active 表示引擎已启动且会话未结束。
func (s State) active() bool {
	return s == StateConnecting || s == StateSessionCreated || s == StateLoggedOn
}
