package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/multierr"

	"fix-gateway/internal/domain"
)

// Config 聚合了网关运行所需的全部配置项。
type Config struct {
	App      AppConfig       `mapstructure:"app"`
	Broker   BrokerConfig    `mapstructure:"broker"`
	Symbols  []SymbolMapping `mapstructure:"symbols"`
	Schedule ScheduleConfig  `mapstructure:"schedule"`
	Gateway  GatewayConfig   `mapstructure:"gateway"`
	Bus      BusConfig       `mapstructure:"bus"`
	Kafka    KafkaConfig     `mapstructure:"kafka"`
	Database DatabaseConfig  `mapstructure:"database"`
	Logging  LoggingConfig   `mapstructure:"logging"`
	Monitor  MonitorConfig   `mapstructure:"monitor"`
}

// AppConfig 控制应用级参数。
type AppConfig struct {
	Environment string `mapstructure:"environment"`
}

// BrokerConfig 描述经纪商身份、账户与 FIX 会话。
type BrokerConfig struct {
	Name            string `mapstructure:"name"`
	Venue           string `mapstructure:"venue"`
	AccountID       string `mapstructure:"account_id"`
	AccountType     string `mapstructure:"account_type"`
	AccountCurrency string `mapstructure:"account_currency"`
	Username        string `mapstructure:"username"`
	Password        string `mapstructure:"password"`
	AccountNumber   string `mapstructure:"account_number"`
	// SessionConfig 为 quickfix 会话配置文件路径。
	SessionConfig       string `mapstructure:"session_config"`
	SendAccountTag      bool   `mapstructure:"send_account_tag"`
	MarketDataQualifier string `mapstructure:"market_data_qualifier"`
	MessageStore        string `mapstructure:"message_store"`
	DeriveSymbols       bool   `mapstructure:"derive_symbols"`
}

// SymbolMapping 为一条经纪商代码到内部代码的映射，内部代码不含场所后缀。
type SymbolMapping struct {
	Broker   string `mapstructure:"broker"`
	Internal string `mapstructure:"internal"`
}

// ScheduleConfig 控制每周的连接窗口，时间均为 UTC。
type ScheduleConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	ConnectDay     string        `mapstructure:"connect_day"`
	ConnectTime    string        `mapstructure:"connect_time"`
	DisconnectDay  string        `mapstructure:"disconnect_day"`
	DisconnectTime string        `mapstructure:"disconnect_time"`
	CheckInterval  time.Duration `mapstructure:"check_interval"`
}

// GatewayConfig 控制网关执行器。
type GatewayConfig struct {
	ExecutorBuffer      int  `mapstructure:"executor_buffer"`
	SubscribeAllOnStart bool `mapstructure:"subscribe_all_on_start"`
}

// BusConfig 控制进程内事件总线。
type BusConfig struct {
	Buffer int `mapstructure:"buffer"`
}

// KafkaConfig 控制事件外发到 Kafka。
type KafkaConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Brokers      []string      `mapstructure:"brokers"`
	Topic        string        `mapstructure:"topic"`
	BatchTimeout time.Duration `mapstructure:"batch_timeout"`
}

// DatabaseConfig 管理数据库连接。
type DatabaseConfig struct {
	Path            string        `mapstructure:"path"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	InMemory        bool          `mapstructure:"in_memory"`
}

// LoggingConfig 控制日志输出。
type LoggingConfig struct {
	Level            string   `mapstructure:"level"`
	Encoding         string   `mapstructure:"encoding"`
	Development      bool     `mapstructure:"development"`
	OutputPaths      []string `mapstructure:"output_paths"`
	ErrorOutputPaths []string `mapstructure:"error_output_paths"`
}

// MonitorConfig 控制 /events 与 /metrics 接口。
type MonitorConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

// Window 为解析后的每周时间点。
type Window struct {
	Day    time.Weekday
	Hour   int
	Minute int
}

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// ParseWindow 解析星期名与 HH:MM。
func ParseWindow(day, clock string) (Window, error) {
	weekday, ok := weekdays[strings.ToLower(strings.TrimSpace(day))]
	if !ok {
		return Window{}, fmt.Errorf("无法识别的星期 %q", day)
	}
	ts, err := time.Parse("15:04", strings.TrimSpace(clock))
	if err != nil {
		return Window{}, fmt.Errorf("无法解析时间 %q: %w", clock, err)
	}
	return Window{Day: weekday, Hour: ts.Hour(), Minute: ts.Minute()}, nil
}

// ConnectWindow 返回每周连接时间点。
func (s ScheduleConfig) ConnectWindow() (Window, error) {
	return ParseWindow(s.ConnectDay, s.ConnectTime)
}

// DisconnectWindow 返回每周断开时间点。
func (s ScheduleConfig) DisconnectWindow() (Window, error) {
	return ParseWindow(s.DisconnectDay, s.DisconnectTime)
}

// InternalSymbols 将映射配置转换为内部标的。
func (c *Config) InternalSymbols() []domain.Symbol {
	out := make([]domain.Symbol, 0, len(c.Symbols))
	for _, m := range c.Symbols {
		out = append(out, domain.NewSymbol(m.Internal, c.Broker.Venue))
	}
	return out
}

// Validate 对配置进行基本校验。
func (c *Config) Validate() error {
	var err error

	if c.App.Environment == "" {
		err = multierr.Append(err, errors.New("app.environment 不能为空"))
	}
	if c.Broker.Name == "" {
		err = multierr.Append(err, errors.New("broker.name 不能为空"))
	}
	if c.Broker.Venue == "" {
		err = multierr.Append(err, errors.New("broker.venue 不能为空"))
	}
	if c.Broker.AccountID == "" {
		err = multierr.Append(err, errors.New("broker.account_id 不能为空"))
	}
	if c.Broker.SessionConfig == "" {
		err = multierr.Append(err, errors.New("broker.session_config 不能为空"))
	}
	switch strings.ToLower(c.Broker.MessageStore) {
	case "memory", "file":
	default:
		err = multierr.Append(err, fmt.Errorf("broker.message_store 仅支持 memory 或 file，当前为 %q", c.Broker.MessageStore))
	}
	err = multierr.Append(err, c.validateSymbols())
	if c.Schedule.Enabled {
		if _, werr := c.Schedule.ConnectWindow(); werr != nil {
			err = multierr.Append(err, fmt.Errorf("schedule.connect: %w", werr))
		}
		if _, werr := c.Schedule.DisconnectWindow(); werr != nil {
			err = multierr.Append(err, fmt.Errorf("schedule.disconnect: %w", werr))
		}
		if c.Schedule.CheckInterval <= 0 {
			err = multierr.Append(err, errors.New("schedule.check_interval 必须大于0"))
		}
	}
	if c.Gateway.ExecutorBuffer <= 0 {
		err = multierr.Append(err, errors.New("gateway.executor_buffer 必须大于0"))
	}
	if c.Bus.Buffer <= 0 {
		err = multierr.Append(err, errors.New("bus.buffer 必须大于0"))
	}
	if c.Kafka.Enabled {
		if len(c.Kafka.Brokers) == 0 {
			err = multierr.Append(err, errors.New("kafka.brokers 不能为空"))
		}
		if c.Kafka.Topic == "" {
			err = multierr.Append(err, errors.New("kafka.topic 不能为空"))
		}
	}
	if c.Database.Path == "" && !c.Database.InMemory {
		err = multierr.Append(err, errors.New("database.path 不能为空"))
	}
	if c.Database.MaxOpenConns <= 0 {
		err = multierr.Append(err, errors.New("database.max_open_conns 必须大于0"))
	}
	if c.Database.MaxIdleConns < 0 {
		err = multierr.Append(err, errors.New("database.max_idle_conns 不能为负"))
	}
	if c.Database.ConnMaxLifetime < 0 {
		err = multierr.Append(err, errors.New("database.conn_max_lifetime 不能为负"))
	}
	if c.Logging.Level == "" {
		err = multierr.Append(err, errors.New("logging.level 不能为空"))
	}
	if c.Logging.Encoding == "" {
		err = multierr.Append(err, errors.New("logging.encoding 不能为空"))
	}
	if len(c.Logging.OutputPaths) == 0 {
		err = multierr.Append(err, errors.New("logging.output_paths 至少包含一个输出目标"))
	}
	if len(c.Logging.ErrorOutputPaths) == 0 {
		err = multierr.Append(err, errors.New("logging.error_output_paths 至少包含一个输出目标"))
	}
	if c.Monitor.Enabled && (c.Monitor.Port <= 0 || c.Monitor.Port > 65535) {
		err = multierr.Append(err, errors.New("monitor.port 必须位于[1,65535]"))
	}

	if err != nil {
		return fmt.Errorf("配置校验失败: %w", err)
	}

	return nil
}

// validateSymbols 检查映射是否一一对应。
func (c *Config) validateSymbols() error {
	var err error
	brokers := make(map[string]string, len(c.Symbols))
	internals := make(map[string]string, len(c.Symbols))
	for i, m := range c.Symbols {
		if m.Broker == "" || m.Internal == "" {
			err = multierr.Append(err, fmt.Errorf("symbols[%d] 的 broker 与 internal 均不能为空", i))
			continue
		}
		internal := strings.ToUpper(m.Internal)
		if prev, ok := brokers[m.Broker]; ok && prev != internal {
			err = multierr.Append(err, fmt.Errorf("symbols: 经纪商代码 %q 同时映射到 %s 与 %s", m.Broker, prev, internal))
		}
		if prev, ok := internals[internal]; ok && prev != m.Broker {
			err = multierr.Append(err, fmt.Errorf("symbols: 内部代码 %s 同时映射到 %q 与 %q", internal, prev, m.Broker))
		}
		brokers[m.Broker] = internal
		internals[internal] = m.Broker
	}
	return err
}
