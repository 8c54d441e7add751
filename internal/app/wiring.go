package app

import (
	"fmt"

	"go.uber.org/zap"

	"fix-gateway/internal/bus"
	"fix-gateway/internal/config"
	"fix-gateway/internal/domain"
	"fix-gateway/internal/fixengine"
	"fix-gateway/internal/gateway"
	"fix-gateway/internal/inbound"
	"fix-gateway/internal/journal"
	"fix-gateway/internal/metrics"
	"fix-gateway/internal/orderid"
	"fix-gateway/internal/outbound"
	"fix-gateway/internal/session"
	"fix-gateway/internal/store"
	"fix-gateway/internal/symbols"
)

// components 为装配完成的运行时组件。
type components struct {
	metrics  *metrics.Metrics
	executor *session.Executor
	bus      *bus.Bus
	kafka    *bus.KafkaSink
	journal  *journal.Service
	session  *session.Session
	gateway  *gateway.Gateway
	engine   *fixengine.Engine
}

// wire 按依赖顺序创建组件。会话与门面、引擎与会话互相引用，创建后再回填。
func wire(cfg *config.Config, logger *zap.Logger, st *store.Store) (*components, error) {
	m := metrics.New()

	mappings := make([]symbols.Mapping, 0, len(cfg.Symbols))
	for _, s := range cfg.Symbols {
		mappings = append(mappings, symbols.Mapping{
			Broker:   s.Broker,
			Internal: domain.NewSymbol(s.Internal, cfg.Broker.Venue),
		})
	}
	mapper, err := symbols.NewMapper(cfg.Broker.Venue, mappings, cfg.Broker.DeriveSymbols)
	if err != nil {
		return nil, fmt.Errorf("app: 构建标的映射失败: %w", err)
	}
	logger.Info("标的映射已加载",
		zap.String("venue", cfg.Broker.Venue),
		zap.Int("symbols", mapper.Len()),
		zap.Bool("derive", cfg.Broker.DeriveSymbols))

	eventBus := bus.New(cfg.Bus.Buffer, m, logger.Named("bus"))

	events, err := journal.NewService(st, logger.Named("journal"))
	if err != nil {
		return nil, err
	}
	eventBus.Subscribe(events)

	var kafkaSink *bus.KafkaSink
	if cfg.Kafka.Enabled {
		kafkaSink, err = bus.NewKafkaSink(bus.KafkaConfig{
			Brokers:      cfg.Kafka.Brokers,
			Topic:        cfg.Kafka.Topic,
			BatchTimeout: cfg.Kafka.BatchTimeout,
		})
		if err != nil {
			return nil, err
		}
		eventBus.Subscribe(kafkaSink)
	}

	correlator := orderid.NewCorrelator()
	builder := outbound.NewBuilder(mapper, correlator, outbound.Account{
		ID:       cfg.Broker.AccountID,
		Type:     cfg.Broker.AccountType,
		Currency: cfg.Broker.AccountCurrency,
	})
	executor := session.NewExecutor(cfg.Gateway.ExecutorBuffer, logger.Named("executor"))

	gw := gateway.New(builder, correlator, mapper, eventBus, logger.Named("gateway"))
	translator := inbound.NewTranslator(mapper, logger.Named("inbound"), inbound.WithOrderLookup(gw))
	sess := session.New(session.Config{MarketDataQualifier: cfg.Broker.MarketDataQualifier},
		nil, executor, builder, translator, gw, m, logger.Named("session"))
	gw.Bind(sess)

	fixApp := fixengine.NewApplication(sess, fixengine.Credentials{
		Username: cfg.Broker.Username,
		Password: cfg.Broker.Password,
		Account:  cfg.Broker.AccountNumber,
	}, outbound.NewFinalizer(cfg.Broker.AccountID, cfg.Broker.SendAccountTag), m, logger.Named("fix"))
	engine := fixengine.NewEngine(fixengine.Config{
		SettingsPath: cfg.Broker.SessionConfig,
		MessageStore: cfg.Broker.MessageStore,
	}, fixApp, logger.Named("fix"))
	sess.SetEngine(engine)

	return &components{
		metrics:  m,
		executor: executor,
		bus:      eventBus,
		kafka:    kafkaSink,
		journal:  events,
		session:  sess,
		gateway:  gw,
		engine:   engine,
	}, nil
}
