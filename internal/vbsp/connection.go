package vbsp

import (
	"net"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ran-controller/ran-controller-pro/internal/metrics"
	"github.com/ran-controller/ran-controller-pro/internal/models"
	"github.com/ran-controller/ran-controller-pro/pkg/emage"
)

// State 连接状态
type State int

const (
	StateConnecting State = iota
	StateEstablished
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateEstablished:
		return "established"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

const writeTimeout = 10 * time.Second

// Connection 与一个基站之间的协议连接
// 除读写协程外，所有字段只在调度循环内访问
type Connection struct {
	id       uint64
	conn     net.Conn
	srv      *Server
	state    State
	vbs      *models.VBS
	seq      uint32
	openedAt time.Time

	out       chan *emage.Message
	done      chan struct{}
	closeOnce sync.Once
}

func newConnection(srv *Server, id uint64, nc net.Conn) *Connection {
	return &Connection{
		id:       id,
		conn:     nc,
		srv:      srv,
		state:    StateConnecting,
		openedAt: srv.now(),
		out:      make(chan *emage.Message, srv.cfg.QueueSize),
		done:     make(chan struct{}),
	}
}

// State 当前状态
func (c *Connection) State() State {
	return c.state
}

// VBS 已绑定的基站，握手前为nil
func (c *Connection) VBS() *models.VBS {
	return c.vbs
}

// Seq 最近一次收到的序号
func (c *Connection) Seq() uint32 {
	return c.seq
}

// RemoteAddr 对端地址
func (c *Connection) RemoteAddr() string {
	if c.conn == nil {
		return ""
	}
	return c.conn.RemoteAddr().String()
}

// Send 以当前序号+1打上消息头并排队发送，不阻塞
func (c *Connection) Send(msg *emage.Message) bool {
	if c.state == StateClosed {
		return false
	}

	msg.Header.Seq = c.seq + 1

	select {
	case c.out <- msg:
		metrics.MessagesSentTotal.WithLabelValues(msg.Body.Kind().String()).Inc()
		return true
	default:
		metrics.IncDropped("queue_full")
		log.Warn().
			Str("remote", c.RemoteAddr()).
			Str("kind", msg.Body.Kind().String()).
			Msg("发送队列已满，丢弃消息")
		return false
	}
}

// readLoop 交替读取4字节长度前缀和消息体
func (c *Connection) readLoop() {
	for {
		payload, err := emage.ReadFrame(c.conn, c.srv.cfg.MaxFrameSize)
		if err != nil {
			c.srv.deliver(inbound{conn: c, err: err})
			return
		}

		msg, err := emage.Decode(payload)
		if err != nil {
			metrics.IncDropped("decode")
			log.Warn().Err(err).
				Str("remote", c.RemoteAddr()).
				Int("size", len(payload)).
				Msg("消息解码失败，丢弃")
			continue
		}

		if !c.srv.deliver(inbound{conn: c, msg: msg}) {
			return
		}
	}
}

func (c *Connection) writeLoop() {
	for {
		select {
		case <-c.done:
			return
		case msg := <-c.out:
			frame, err := emage.Marshal(msg)
			if err != nil {
				metrics.IncDropped("encode")
				log.Error().Err(err).Str("kind", msg.Body.Kind().String()).Msg("消息编码失败")
				continue
			}

			_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if _, err := c.conn.Write(frame); err != nil {
				c.srv.deliver(inbound{conn: c, err: err})
				return
			}
		}
	}
}

// shutdown 停止读写协程，可重复调用
func (c *Connection) shutdown() {
	c.closeOnce.Do(func() {
		close(c.done)
		if c.conn != nil {
			_ = c.conn.Close()
		}
	})
}
