package config

import (
	"errors"
	"fmt"
	"strings"

	mapstructure "github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

const (
	defaultConfigPath = "configs/config.yaml"
	envPrefix         = "fixgw"
)

// Load 读取配置文件并结合环境变量返回 Config。
// 环境变量形如 FIXGW_BROKER_PASSWORD，会覆盖文件中的同名项。
func Load(path string) (*Config, error) {
	v := viper.New()

	if path == "" {
		path = defaultConfigPath
	}

	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetEnvPrefix(envPrefix)
	replacer := strings.NewReplacer(".", "_")
	v.SetEnvKeyReplacer(replacer)
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil, fmt.Errorf("未找到配置文件 %q: %w", path, err)
		}
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, decodeHook()); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.environment", "development")

	v.SetDefault("broker.name", "fxcm")
	v.SetDefault("broker.venue", "FXCM")
	v.SetDefault("broker.account_type", "1")
	v.SetDefault("broker.account_currency", "USD")
	v.SetDefault("broker.username", "")
	v.SetDefault("broker.password", "")
	v.SetDefault("broker.account_number", "")
	v.SetDefault("broker.session_config", "configs/session.cfg")
	v.SetDefault("broker.send_account_tag", true)
	v.SetDefault("broker.market_data_qualifier", "")
	v.SetDefault("broker.message_store", "memory")
	v.SetDefault("broker.derive_symbols", false)

	v.SetDefault("schedule.enabled", true)
	v.SetDefault("schedule.connect_day", "sunday")
	v.SetDefault("schedule.connect_time", "21:30")
	v.SetDefault("schedule.disconnect_day", "friday")
	v.SetDefault("schedule.disconnect_time", "21:30")
	v.SetDefault("schedule.check_interval", "1m")

	v.SetDefault("gateway.executor_buffer", 1024)
	v.SetDefault("gateway.subscribe_all_on_start", false)

	v.SetDefault("bus.buffer", 4096)

	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("kafka.topic", "fix.gateway.events")
	v.SetDefault("kafka.batch_timeout", "10ms")

	v.SetDefault("database.path", "data/fix_gateway.db")
	v.SetDefault("database.max_open_conns", 4)
	v.SetDefault("database.max_idle_conns", 4)
	v.SetDefault("database.conn_max_lifetime", "1h")
	v.SetDefault("database.in_memory", false)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.encoding", "console")
	v.SetDefault("logging.development", true)
	v.SetDefault("logging.output_paths", []string{"stdout"})
	v.SetDefault("logging.error_output_paths", []string{"stderr"})

	v.SetDefault("monitor.enabled", true)
	v.SetDefault("monitor.port", 8090)
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}
