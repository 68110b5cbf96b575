package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/ran-controller/ran-controller-pro/internal/metrics"
	"github.com/ran-controller/ran-controller-pro/internal/models"
)

// DefaultQueueSize 默认持久化队列长度
const DefaultQueueSize = 256

// Publisher 消息发布，*nats.Conn 满足该接口
type Publisher interface {
	Publish(subject string, data []byte) error
}

// Recorder 事件日志持久化，storage.Store 满足该接口
type Recorder interface {
	CreateEventLog(ctx context.Context, event *models.EventLog) error
}

// Listener 本地事件监听器，在发布者所在的协程内同步调用
type Listener func(ev *models.EventLog)

// Bus 本地事件总线
type Bus struct {
	nc        Publisher
	recorder  Recorder
	listeners []Listener
	queue     chan *models.EventLog
	now       func() time.Time
}

// NewBus creates a bus; nc and recorder may be nil
func NewBus(nc Publisher, recorder Recorder, queueSize int) *Bus {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	return &Bus{
		nc:       nc,
		recorder: recorder,
		queue:    make(chan *models.EventLog, queueSize),
		now:      time.Now,
	}
}

// Subscribe 注册本地监听器，须在启动前调用
func (b *Bus) Subscribe(l Listener) {
	b.listeners = append(b.listeners, l)
}

// CountEvents 按类型和级别统计事件，作为本地监听器注册
func CountEvents(ev *models.EventLog) {
	metrics.EventsTotal.WithLabelValues(string(ev.Type), string(ev.Level)).Inc()
}

// Publish 分发事件：本地监听器、NATS、异步持久化
func (b *Bus) Publish(ev *models.EventLog) {
	if ev.ID == uuid.Nil {
		ev.ID = uuid.New()
	}
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = b.now()
	}

	for _, l := range b.listeners {
		l(ev)
	}

	if b.nc != nil {
		data, err := json.Marshal(ev)
		if err != nil {
			log.Error().Err(err).Str("type", string(ev.Type)).Msg("事件序列化失败")
		} else if err := b.nc.Publish(Subject(ev), data); err != nil {
			log.Error().Err(err).Str("subject", Subject(ev)).Msg("发布事件失败")
		}
	}

	if b.recorder == nil {
		return
	}
	select {
	case b.queue <- ev:
	default:
		metrics.EventsPersistDroppedTotal.Inc()
		log.Warn().Str("type", string(ev.Type)).Msg("事件持久化队列已满，丢弃")
	}
}

// Run 持久化事件直到ctx结束，退出前写完队列中剩余的事件
func (b *Bus) Run(ctx context.Context) error {
	if b.recorder == nil {
		<-ctx.Done()
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			b.drain()
			return nil
		case ev := <-b.queue:
			b.persist(context.Background(), ev)
		}
	}
}

func (b *Bus) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for {
		select {
		case ev := <-b.queue:
			b.persist(ctx, ev)
		default:
			return
		}
	}
}

func (b *Bus) persist(ctx context.Context, ev *models.EventLog) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := b.recorder.CreateEventLog(ctx, ev); err != nil {
		log.Error().Err(err).Str("id", ev.ID.String()).Msg("保存事件日志失败")
	}
}
