package fixengine

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/quickfixgo/quickfix"
	"go.uber.org/zap"
)

// 消息存储类型。
const (
	StoreMemory = "memory"
	StoreFile   = "file"
)

// Config 为引擎配置。
type Config struct {
	// SettingsPath 为 quickfix 会话配置文件路径。
	SettingsPath string
	// MessageStore 为 memory 或 file，file 需要在会话配置中设置 FileStorePath。
	MessageStore string
}

// Engine 包装 quickfix Initiator，每次 Start 都创建新的 Initiator。
type Engine struct {
	cfg        Config
	app        quickfix.Application
	logFactory quickfix.LogFactory
	logger     *zap.Logger

	mu        sync.Mutex
	initiator *quickfix.Initiator
}

func NewEngine(cfg Config, app quickfix.Application, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		cfg:        cfg,
		app:        app,
		logFactory: NewZapLogFactory(logger),
		logger:     logger,
	}
}

// SetApplication 在装配阶段注入 Application，须在 Start 之前调用。
func (e *Engine) SetApplication(app quickfix.Application) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.app = app
}

// Start 读取会话配置并启动 Initiator。已在运行时直接返回。
func (e *Engine) Start() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.initiator != nil {
		return nil
	}
	if e.app == nil {
		return fmt.Errorf("fixengine: application 未设置")
	}

	settings, err := LoadSettings(e.cfg.SettingsPath)
	if err != nil {
		return err
	}
	storeFactory, err := newStoreFactory(e.cfg.MessageStore, settings)
	if err != nil {
		return err
	}
	initiator, err := quickfix.NewInitiator(e.app, storeFactory, settings, e.logFactory)
	if err != nil {
		return fmt.Errorf("fixengine: 创建 initiator 失败: %w", err)
	}
	if err := initiator.Start(); err != nil {
		return fmt.Errorf("fixengine: 启动 initiator 失败: %w", err)
	}
	e.initiator = initiator
	e.logger.Info("FIX initiator 已启动", zap.String("settings", e.cfg.SettingsPath))
	return nil
}

// Stop 停止当前 Initiator，阻塞直到所有会话退出。
func (e *Engine) Stop() {
	e.mu.Lock()
	initiator := e.initiator
	e.initiator = nil
	e.mu.Unlock()
	if initiator == nil {
		return
	}
	initiator.Stop()
	e.logger.Info("FIX initiator 已停止")
}

// Send 交给引擎发送，ToApp 会在真正写出前被调用。
func (e *Engine) Send(msg *quickfix.Message, sid quickfix.SessionID) error {
	if err := quickfix.SendToTarget(msg, sid); err != nil {
		return fmt.Errorf("fixengine: 发送失败: %w", err)
	}
	return nil
}

// LoadSettings 读取 quickfix 会话配置文件。
func LoadSettings(path string) (*quickfix.Settings, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("fixengine: 会话配置路径为空")
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("fixengine: 打开会话配置失败: %w", err)
	}
	defer f.Close()

	settings, err := quickfix.ParseSettings(f)
	if err != nil {
		return nil, fmt.Errorf("fixengine: 解析会话配置失败: %w", err)
	}
	return settings, nil
}

func newStoreFactory(kind string, settings *quickfix.Settings) (quickfix.MessageStoreFactory, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "", StoreMemory:
		return quickfix.NewMemoryStoreFactory(), nil
	case StoreFile:
		return quickfix.NewFileStoreFactory(settings), nil
	default:
		return nil, fmt.Errorf("fixengine: 不支持的消息存储类型 %q", kind)
	}
}
