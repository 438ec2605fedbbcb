package api

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"chatdesk/metrics"

	"github.com/coder/websocket"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const (
	wsWriteTimeout    = 5 * time.Second
	snapshotTimeout   = 10 * time.Second
	defaultPushPeriod = 5 * time.Second
)

// PushMessage 推送消息
type PushMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type subscriber struct {
	ch chan []byte
}

// MetricsHub 健康快照推送。订阅时立即推送一次，之后每个周期计算一次快照分发给所有连接
type MetricsHub struct {
	source   SnapshotSource
	interval time.Duration

	mu   sync.Mutex
	subs map[*subscriber]struct{}

	done     chan struct{}
	stopOnce sync.Once
}

// NewMetricsHub 创建推送中心
func NewMetricsHub(source SnapshotSource, interval time.Duration) *MetricsHub {
	if interval <= 0 {
		interval = defaultPushPeriod
	}
	return &MetricsHub{
		source:   source,
		interval: interval,
		subs:     make(map[*subscriber]struct{}),
		done:     make(chan struct{}),
	}
}

// Run 定时推送，ctx 取消后退出并关闭所有连接
func (h *MetricsHub) Run(ctx context.Context) {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()
	defer h.stopOnce.Do(func() { close(h.done) })
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.tick(ctx)
		}
	}
}

// Subscribers 当前连接数
func (h *MetricsHub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

func (h *MetricsHub) tick(ctx context.Context) {
	if h.Subscribers() == 0 {
		return
	}
	msg, err := h.snapshotMessage(ctx)
	if err != nil {
		log.Warn().Str("component", "ws").Err(err).Msg("metrics snapshot failed")
		return
	}
	h.broadcast(msg)
}

func (h *MetricsHub) snapshotMessage(ctx context.Context) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, snapshotTimeout)
	defer cancel()
	snap, err := h.source.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return json.Marshal(PushMessage{Type: "metrics", Data: snap})
}

// broadcast 非阻塞投递，消费慢的连接只保留最新一条
func (h *MetricsHub) broadcast(msg []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.subs {
		select {
		case sub.ch <- msg:
			continue
		default:
		}
		select {
		case <-sub.ch:
		default:
		}
		select {
		case sub.ch <- msg:
		default:
		}
	}
}

func (h *MetricsHub) subscribe() *subscriber {
	sub := &subscriber{ch: make(chan []byte, 1)}
	h.mu.Lock()
	h.subs[sub] = struct{}{}
	h.mu.Unlock()
	metrics.Global().WSSubscribers.Inc()
	return sub
}

func (h *MetricsHub) unsubscribe(sub *subscriber) {
	h.mu.Lock()
	delete(h.subs, sub)
	h.mu.Unlock()
	metrics.Global().WSSubscribers.Dec()
}

// Handle websocket 连接
// @Summary 健康指标推送
// @Description websocket 连接，服务端推送 {"type":"metrics","data":快照}
// @Tags 系统
// @Router /ws [get]
func (h *MetricsHub) Handle(c *gin.Context) {
	conn, err := websocket.Accept(c.Writer, c.Request, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		log.Warn().Str("component", "ws").Err(err).Msg("websocket accept failed")
		return
	}
	defer conn.CloseNow()

	sub := h.subscribe()
	defer h.unsubscribe(sub)

	// 不需要客户端消息，连接关闭时 ctx 取消
	ctx := conn.CloseRead(c.Request.Context())

	msg, err := h.snapshotMessage(ctx)
	if err != nil {
		log.Warn().Str("component", "ws").Err(err).Msg("initial snapshot failed")
	} else if err := write(ctx, conn, msg); err != nil {
		return
	}

	for {
		select {
		case <-ctx.Done():
			conn.Close(websocket.StatusNormalClosure, "")
			return
		case <-h.done:
			conn.Close(websocket.StatusGoingAway, "server shutting down")
			return
		case msg := <-sub.ch:
			if err := write(ctx, conn, msg); err != nil {
				return
			}
		}
	}
}

func write(ctx context.Context, conn *websocket.Conn, msg []byte) error {
	ctx, cancel := context.WithTimeout(ctx, wsWriteTimeout)
	defer cancel()
	return conn.Write(ctx, websocket.MessageText, msg)
}
