package app

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"fix-gateway/internal/domain"
	"fix-gateway/internal/journal"
	"fix-gateway/internal/metrics"
)

const (
	defaultEventLimit = 200
	maxEventLimit     = 1000
	statusTimeout     = 2 * time.Second
)

// eventLister 为 /events 使用的事件查询。
type eventLister interface {
	ListEvents(ctx context.Context, q journal.Query) ([]journal.Entry, error)
}

// statusReporter 为 /status 使用的连接与订阅状态。
type statusReporter interface {
	IsConnected() bool
	Subscriptions(ctx context.Context) ([]domain.Symbol, error)
}

// storePinger 为 /status 使用的数据库探活。
type storePinger interface {
	Ping(ctx context.Context) error
}

type statusResponse struct {
	Connected     bool      `json:"connected"`
	Subscriptions []string  `json:"subscriptions"`
	Store         string    `json:"store"`
	Time          time.Time `json:"time"`
}

func newMonitorMux(events eventLister, m *metrics.Metrics, status statusReporter, db storePinger, logger *zap.Logger) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/events", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		limit := defaultEventLimit
		if qs := q.Get("limit"); qs != "" {
			if v, err := strconv.Atoi(qs); err == nil && v > 0 {
				if v > maxEventLimit {
					v = maxEventLimit
				}
				limit = v
			}
		}

		query := journal.Query{
			Kind:  strings.ToLower(strings.TrimSpace(q.Get("kind"))),
			Key:   strings.TrimSpace(q.Get("key")),
			Limit: limit,
		}
		entries, err := events.ListEvents(r.Context(), query)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, entries, logger)
	})
	mux.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), statusTimeout)
		defer cancel()

		resp := statusResponse{Connected: status.IsConnected(), Store: "ok", Time: time.Now().UTC()}
		subs, err := status.Subscriptions(ctx)
		if err != nil {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		resp.Subscriptions = make([]string, 0, len(subs))
		for _, symbol := range subs {
			resp.Subscriptions = append(resp.Subscriptions, symbol.String())
		}
		if err := db.Ping(ctx); err != nil {
			resp.Store = err.Error()
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		writeJSON(w, resp, logger)
	})
	mux.Handle("/metrics", m.Handler())
	return mux
}

func writeJSON(w http.ResponseWriter, body interface{}, logger *zap.Logger) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Warn("写入监控响应失败", zap.Error(err))
	}
}

func startMonitorServer(ctx context.Context, events eventLister, m *metrics.Metrics, status statusReporter, db storePinger,
	port int, logger *zap.Logger) error {
	addr := fmt.Sprintf(":%d", port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           newMonitorMux(events, m, status, db, logger),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil && err != http.ErrServerClosed {
			logger.Warn("关闭监控服务失败", zap.Error(err))
		}
	}()

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("监控服务异常", zap.Error(err))
		}
	}()

	logger.Info("监控接口已启动", zap.String("addr", addr))
	return nil
}
