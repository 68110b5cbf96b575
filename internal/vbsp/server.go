package vbsp

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ran-controller/ran-controller-pro/internal/events"
	"github.com/ran-controller/ran-controller-pro/internal/handover"
	"github.com/ran-controller/ran-controller-pro/internal/metrics"
	"github.com/ran-controller/ran-controller-pro/internal/models"
	"github.com/ran-controller/ran-controller-pro/internal/registry"
	"github.com/ran-controller/ran-controller-pro/internal/session"
	"github.com/ran-controller/ran-controller-pro/pkg/emage"
)

var (
	// ErrUnknownPeer 消息引用了注册表中不存在的基站或终端
	ErrUnknownPeer = errors.New("unknown peer")
	// ErrLivenessTimeout 心跳超时
	ErrLivenessTimeout = errors.New("liveness timeout")
	// ErrNotConnected 基站当前不可达
	ErrNotConnected = errors.New("station not connected")
	// ErrServerClosed 调度循环已退出
	ErrServerClosed = errors.New("vbsp server closed")
)

// 默认参数
const (
	DefaultListen            = ":2210"
	DefaultPeriod            = 5 * time.Second
	DefaultHeartbeatInterval = 500 * time.Millisecond
	DefaultQueueSize         = 256

	livenessFactor = 3
)

// Config 协议服务器配置
type Config struct {
	Listen            string
	DefaultPeriod     time.Duration
	HeartbeatInterval time.Duration
	MaxFrameSize      uint32
	QueueSize         int
}

func (c *Config) setDefaults() {
	if c.Listen == "" {
		c.Listen = DefaultListen
	}
	if c.DefaultPeriod <= 0 {
		c.DefaultPeriod = DefaultPeriod
	}
	if c.HeartbeatInterval <= 0 {
		c.HeartbeatInterval = DefaultHeartbeatInterval
	}
	if c.MaxFrameSize == 0 {
		c.MaxFrameSize = emage.DefaultMaxFrameSize
	}
	if c.QueueSize <= 0 {
		c.QueueSize = DefaultQueueSize
	}
}

// EventSink 本地事件分发，events.Bus 满足该接口
type EventSink interface {
	Publish(ev *models.EventLog)
}

type inbound struct {
	conn *Connection
	msg  *emage.Message
	err  error
}

// Server 基站协议服务器
// 单个调度循环串行处理所有连接的消息、定时器和外部调用
type Server struct {
	cfg      Config
	reg      *registry.Registry
	events   EventSink
	handover *handover.Manager
	intents  session.IntentService
	notifier *Notifier
	now      func() time.Time

	accepted chan net.Conn
	inbound  chan inbound
	calls    chan func()
	done     chan struct{}

	conns  map[*Connection]struct{}
	nextID uint64
}

// NewServer creates a protocol server; ho and intents may be nil
func NewServer(cfg Config, reg *registry.Registry, sink EventSink, ho *handover.Manager, intents session.IntentService) *Server {
	cfg.setDefaults()

	s := &Server{
		cfg:      cfg,
		reg:      reg,
		events:   sink,
		handover: ho,
		intents:  intents,
		now:      time.Now,
		accepted: make(chan net.Conn),
		inbound:  make(chan inbound, 64),
		calls:    make(chan func()),
		done:     make(chan struct{}),
		conns:    make(map[*Connection]struct{}),
	}
	s.notifier = &Notifier{srv: s}
	return s
}

// Registry 返回运行时注册表，只能在Do内访问
func (s *Server) Registry() *registry.Registry {
	return s.reg
}

// Notifier 会话变化通知器
func (s *Server) Notifier() session.Notifier {
	return s.notifier
}

// Intents 接入点意图服务
func (s *Server) Intents() session.IntentService {
	return s.intents
}

// Run 监听配置的地址并运行调度循环，直到ctx结束
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Listen)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.cfg.Listen, err)
	}
	return s.Serve(ctx, ln)
}

// Serve 在给定监听器上运行
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	log.Info().Str("addr", ln.Addr().String()).Msg("VBSP 服务器启动")

	go s.acceptLoop(ctx, ln)
	go func() {
		<-ctx.Done()
		_ = ln.Close()
	}()

	return s.loop(ctx)
}

func (s *Server) acceptLoop(ctx context.Context, ln net.Listener) {
	for {
		nc, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Error().Err(err).Msg("接受连接失败")
			time.Sleep(100 * time.Millisecond)
			continue
		}

		select {
		case s.accepted <- nc:
		case <-ctx.Done():
			_ = nc.Close()
			return
		}
	}
}

func (s *Server) loop(ctx context.Context) error {
	defer close(s.done)

	heartbeat := time.NewTicker(s.cfg.HeartbeatInterval)
	defer heartbeat.Stop()

	var hoTick <-chan time.Time
	if s.handover != nil {
		t := time.NewTicker(s.handover.Period())
		defer t.Stop()
		hoTick = t.C
	}

	for {
		select {
		case <-ctx.Done():
			s.closeAll()
			log.Info().Msg("VBSP 服务器停止")
			return nil
		case nc := <-s.accepted:
			c := s.attach(nc)
			go c.readLoop()
			go c.writeLoop()
		case in := <-s.inbound:
			s.receive(in)
		case fn := <-s.calls:
			fn()
		case <-heartbeat.C:
			s.checkLiveness()
		case <-hoTick:
			s.RunHandover()
		}
	}
}

// Do 在调度循环内执行fn并等待其返回
func (s *Server) Do(ctx context.Context, fn func() error) error {
	errc := make(chan error, 1)
	call := func() { errc <- fn() }

	select {
	case s.calls <- call:
	case <-s.done:
		return ErrServerClosed
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// deliver 由读写协程调用，循环退出后返回false
func (s *Server) deliver(in inbound) bool {
	select {
	case s.inbound <- in:
		return true
	case <-s.done:
		return false
	}
}

// attach 登记新连接，不启动读写协程
func (s *Server) attach(nc net.Conn) *Connection {
	s.nextID++
	c := newConnection(s, s.nextID, nc)
	s.conns[c] = struct{}{}

	log.Info().Uint64("conn", c.id).Str("remote", c.RemoteAddr()).Msg("基站连接建立")
	return c
}

func (s *Server) receive(in inbound) {
	if in.conn.state == StateClosed {
		return
	}
	if in.err != nil {
		s.close(in.conn, in.err)
		return
	}
	s.handle(in.conn, in.msg)
}

// checkLiveness 关闭超过3个上报周期没有心跳的连接
func (s *Server) checkLiveness() {
	now := s.now()
	for c := range s.conns {
		var deadline time.Time
		if c.vbs != nil {
			deadline = c.vbs.LastSeenAt.Add(livenessFactor * s.period(c.vbs))
		} else {
			deadline = c.openedAt.Add(livenessFactor * s.cfg.DefaultPeriod)
		}

		if deadline.Before(now) {
			log.Warn().
				Uint64("conn", c.id).
				Str("remote", c.RemoteAddr()).
				Time("deadline", deadline).
				Msg("心跳超时，关闭连接")
			s.close(c, ErrLivenessTimeout)
		}
	}
}

// period 基站上报的周期，未上报时取默认值
func (s *Server) period(v *models.VBS) time.Duration {
	if v.Period == 0 {
		return s.cfg.DefaultPeriod
	}
	return time.Duration(v.Period) * time.Millisecond
}

// close 关闭连接，销毁下行在该基站上的会话和该基站的终端，并复位基站运行时状态
func (s *Server) close(c *Connection, reason error) {
	if c.state == StateClosed {
		return
	}

	wasEstablished := c.state == StateEstablished
	c.state = StateClosed
	c.shutdown()
	delete(s.conns, c)

	metrics.ConnectionsClosedTotal.WithLabelValues(closeReason(reason)).Inc()

	v := c.vbs
	if v == nil || v.Connection != c {
		log.Info().Uint64("conn", c.id).Err(reason).Msg("未握手的连接已关闭")
		return
	}
	if wasEstablished {
		metrics.ConnectedStations.Dec()
	}

	sessions := s.reg.SessionsAt(v.Addr)
	for _, sess := range sessions {
		if _, err := s.reg.RemoveSession(sess.Addr); err != nil {
			continue
		}
		s.publish(events.SessionDown(sess.Addr, v.Addr))
	}

	removed := s.reg.UEsOf(v.Addr)
	for _, ue := range removed {
		if ue.Tenant != nil {
			s.publish(events.UELeave(ue))
		}
		s.reg.RemoveUE(ue)
	}
	s.publish(events.VBSDown(v, reason))
	v.Reset()

	log.Info().
		Str("vbs", v.Addr.String()).
		Int("ues", len(removed)).
		Int("sessions", len(sessions)).
		Err(reason).
		Msg("基站断开")
}

func (s *Server) closeAll() {
	for c := range s.conns {
		s.close(c, ErrServerClosed)
	}
}

func (s *Server) publish(ev *models.EventLog) {
	if s.events != nil {
		s.events.Publish(ev)
	}
}

func closeReason(err error) string {
	switch {
	case err == nil:
		return "unknown"
	case errors.Is(err, ErrLivenessTimeout):
		return "liveness"
	case errors.Is(err, ErrServerClosed):
		return "shutdown"
	case errors.Is(err, emage.ErrFrameTooLarge):
		return "frame_too_large"
	default:
		return "io"
	}
}

// RunHandover 执行一轮负载均衡并下发切换命令
func (s *Server) RunHandover() {
	if s.handover == nil {
		return
	}

	start := time.Now()
	res := s.handover.Run(s.reg)
	metrics.HandoverPassSeconds.Observe(time.Since(start).Seconds())

	for _, cmd := range res.Commands {
		if err := s.SendHandover(cmd); err != nil {
			log.Warn().Err(err).
				Uint32("rnti", cmd.RNTI).
				Str("src", cmd.SrcVBS.String()).
				Msg("切换命令未发出")
		}
	}
}

// SendHandover 通过源基站的连接发出切换命令，须在调度循环内调用
func (s *Server) SendHandover(cmd models.HandoverCommand) error {
	src, ok := s.reg.VBS(cmd.SrcVBS)
	if !ok {
		return fmt.Errorf("source %s: %w", cmd.SrcVBS, ErrUnknownPeer)
	}
	if _, ok := s.reg.VBS(cmd.DstVBS); !ok {
		return fmt.Errorf("target %s: %w", cmd.DstVBS, ErrUnknownPeer)
	}
	if !src.Connected() {
		return fmt.Errorf("source %s: %w", cmd.SrcVBS, ErrNotConnected)
	}

	if !src.Send(emage.HandoverRequest(src.EnbID(), cmd.Request())) {
		return fmt.Errorf("source %s: send queue full", cmd.SrcVBS)
	}

	metrics.HandoversTotal.WithLabelValues(cmd.Cause.String()).Inc()
	s.publish(events.Handover(cmd))

	log.Info().
		Uint32("rnti", cmd.RNTI).
		Str("src", cmd.SrcVBS.String()).
		Uint32("src_cell", cmd.SrcCell).
		Str("dst", cmd.DstVBS.String()).
		Uint32("dst_cell", cmd.DstCell).
		Str("cause", cmd.Cause.String()).
		Msg("下发切换命令")
	return nil
}

// SetRANSharing 下发静态下行资源分配，须在调度循环内调用
func (s *Server) SetRANSharing(addr emage.EtherAddress, alloc []emage.CellAllocation) error {
	v, ok := s.reg.VBS(addr)
	if !ok {
		return fmt.Errorf("vbs %s: %w", addr, ErrUnknownPeer)
	}
	if !v.Connected() {
		return fmt.Errorf("vbs %s: %w", addr, ErrNotConnected)
	}
	if !v.Send(emage.StaticDLAllocRequest(v.EnbID(), alloc)) {
		return fmt.Errorf("vbs %s: send queue full", addr)
	}
	return nil
}
