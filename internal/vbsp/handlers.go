package vbsp

import (
	"github.com/rs/zerolog/log"

	"github.com/ran-controller/ran-controller-pro/internal/events"
	"github.com/ran-controller/ran-controller-pro/internal/metrics"
	"github.com/ran-controller/ran-controller-pro/internal/models"
	"github.com/ran-controller/ran-controller-pro/internal/session"
	"github.com/ran-controller/ran-controller-pro/pkg/emage"
)

// handle 处理一条已解码的消息
func (s *Server) handle(c *Connection, msg *emage.Message) {
	c.seq = msg.Header.Seq
	kind := msg.Body.Kind()
	metrics.MessagesReceivedTotal.WithLabelValues(kind.String()).Inc()

	if c.state != StateEstablished && kind != emage.KindHello {
		metrics.IncDropped("not_established")
		log.Warn().
			Uint64("conn", c.id).
			Str("kind", kind.String()).
			Msg("握手前收到消息，丢弃")
		return
	}

	if !msg.Body.IsReply() {
		metrics.IncDropped("unexpected_request")
		log.Warn().
			Uint64("conn", c.id).
			Str("kind", kind.String()).
			Msg("基站发来请求消息，丢弃")
		return
	}

	switch body := msg.Body.(type) {
	case *emage.Hello:
		s.handleHello(c, msg.Header, body.Repl)
	case *emage.UEsID:
		s.handleUEsID(c, body.Repl)
	case *emage.RRCMeasConf:
		s.handleRRCMeasConf(c, body.Repl)
	case *emage.CellsConf:
		s.handleCellsConf(c, msg.Header, body.Repl)
	case *emage.CellStats:
		s.handleCellStats(c, body.Repl)
	case *emage.RRCMeas:
		s.handleRRCMeas(c, body.Repl)
	case *emage.RANSharingCtrl:
		s.logStatus(c, kind, body.Repl.Status)
	case *emage.CtrlCommands:
		s.logStatus(c, kind, body.Repl.Status)
	case *emage.SessionCtrl:
		s.handleSessionCtrl(c, body.Repl)
	case *emage.SessionStatus:
		s.handleSessionStatus(c, body.Repl)
	default:
		metrics.IncDropped("no_handler")
		log.Warn().Str("kind", kind.String()).Msg("没有对应的处理函数，丢弃")
	}
}

// handleHello 首个hello完成握手并执行引导流程，之后只刷新心跳
func (s *Server) handleHello(c *Connection, hdr emage.Header, repl *emage.HelloRepl) {
	v, ok := s.reg.VBSByEnbID(hdr.BID)
	if !ok {
		metrics.IncDropped("unknown_peer")
		log.Warn().
			Uint64("conn", c.id).
			Str("vbs", emage.FromEnbID(hdr.BID).String()).
			Err(ErrUnknownPeer).
			Msg("未知基站的hello")
		return
	}

	switch {
	case c.vbs == nil && v.Connection != nil:
		metrics.IncDropped("owned")
		log.Warn().
			Uint64("conn", c.id).
			Str("vbs", v.Addr.String()).
			Str("owner", v.Connection.RemoteAddr()).
			Msg("基站已有活动连接，忽略hello")
		return
	case c.vbs != nil && c.vbs != v:
		metrics.IncDropped("owned")
		log.Warn().
			Uint64("conn", c.id).
			Str("bound", c.vbs.Addr.String()).
			Str("vbs", v.Addr.String()).
			Msg("连接已绑定其他基站，忽略hello")
		return
	}

	v.Period = repl.Period
	v.LastSeen = hdr.Seq
	v.LastSeenAt = s.now()

	if c.vbs == nil {
		c.vbs = v
		c.state = StateEstablished
		v.Connection = c
		metrics.ConnectedStations.Inc()

		log.Info().
			Uint64("conn", c.id).
			Str("vbs", v.Addr.String()).
			Str("remote", c.RemoteAddr()).
			Uint32("period", repl.Period).
			Msg("基站上线")

		s.bootstrap(c)
	}

	log.Debug().
		Str("vbs", v.Addr.String()).
		Uint32("seq", hdr.Seq).
		Msg("收到hello")
}

// bootstrap 握手后的固定流程：租户配置、小区配置、终端列表、RAN共享配置、注册事件
func (s *Server) bootstrap(c *Connection) {
	v := c.vbs
	enb := v.EnbID()

	for _, t := range s.reg.TenantsWithVBS(v.Addr) {
		if t.PLMNID == 0 {
			continue
		}
		c.Send(emage.AddTenantRequest(enb, t.PLMNID))
	}

	c.Send(emage.CellsConfRequest(enb))
	c.Send(emage.UEsIDRequest(enb))
	c.Send(emage.RANSharingConfRequest(enb))

	s.publish(events.VBSUp(v))
}

// handleUEsID 以上报的终端列表对账
func (s *Server) handleUEsID(c *Connection, repl *emage.UEsIDRepl) {
	v := c.vbs
	if repl.Status != emage.StatusSuccess {
		log.Warn().Str("vbs", v.Addr.String()).Msg("终端列表请求失败")
		return
	}

	active := make(map[uint32]bool, len(repl.Active))
	for _, id := range repl.Active {
		active[id.RNTI] = true

		key := models.UEKey{VBS: v.Addr, RNTI: id.RNTI}
		ue, ok := s.reg.UE(key)
		if !ok {
			ue = models.NewUE(v, id.RNTI)
			s.reg.AddUE(ue)
			log.Info().Str("ue", key.String()).Uint64("imsi", id.IMSI).Msg("发现新终端")
		}
		ue.IMSI = id.IMSI

		s.reconcileSlice(c, ue, id.PLMNID)
	}

	for _, ue := range s.reg.UEsOf(v.Addr) {
		if active[ue.RNTI()] {
			continue
		}
		if ue.Tenant != nil {
			s.publish(events.UELeave(ue))
		}
		s.reg.RemoveUE(ue)
		log.Info().Str("ue", ue.Key.String()).Msg("终端已离开")
	}
}

// reconcileSlice 根据上报的PLMN更新终端所属切片
func (s *Server) reconcileSlice(c *Connection, ue *models.UE, plmnID uint32) {
	switch {
	case ue.Tenant == nil && plmnID != 0:
		t := s.reg.TenantByPLMN(plmnID)
		if t == nil {
			log.Debug().Str("ue", ue.Key.String()).Uint32("plmn_id", plmnID).Msg("没有对应PLMN的租户")
			return
		}

		t.AddUE(ue)
		s.publish(events.UEJoin(ue))

		enb := c.vbs.EnbID()
		c.Send(emage.RRCMeasConfRequest(enb, ue.RNTI()))
		if cell, ok := c.vbs.FirstCell(); ok && cell.NumRBsDL > 0 {
			c.Send(emage.RRCMeasRequest(enb, ue.RNTI(), cell.CarrierFreq, cell.NumRBsDL))
		}

	case ue.Tenant != nil && plmnID == 0:
		s.publish(events.UELeave(ue))
		ue.Tenant.RemoveUE(ue)
	}
}

// handleRRCMeasConf 更新终端能力，带回载频时请求周期测量
func (s *Server) handleRRCMeasConf(c *Connection, repl *emage.RRCMeasConfRepl) {
	ue, ok := s.reg.UE(models.UEKey{VBS: c.vbs.Addr, RNTI: repl.RNTI})
	if !ok {
		return
	}
	if repl.Status != emage.StatusSuccess {
		log.Warn().Str("ue", ue.Key.String()).Msg("测量配置请求失败")
		return
	}

	ue.RRCState = repl.RRCState
	ue.Capabilities = repl.Capabilities

	if repl.Freq == nil || *repl.Freq == 0 {
		return
	}
	cell, ok := c.vbs.FirstCell()
	if !ok || cell.NumRBsDL == 0 {
		return
	}
	c.Send(emage.RRCMeasRequest(c.vbs.EnbID(), ue.RNTI(), *repl.Freq, cell.NumRBsDL))
}

// handleCellsConf 回复带小区时整体替换小区列表，并为开通该基站的租户订阅小区统计
func (s *Server) handleCellsConf(c *Connection, hdr emage.Header, repl *emage.CellsConfRepl) {
	v := c.vbs
	if hdr.BID != v.EnbID() {
		metrics.IncDropped("unknown_peer")
		log.Warn().
			Str("vbs", v.Addr.String()).
			Str("from", emage.FromEnbID(hdr.BID).String()).
			Msg("小区配置来自其他基站，忽略")
		return
	}
	if repl.Status != emage.StatusSuccess {
		log.Warn().Str("vbs", v.Addr.String()).Msg("小区配置请求失败")
		return
	}

	// 只带RAN共享信息的周期性回复不携带小区
	if len(repl.Cells) > 0 {
		v.Cells = append([]emage.Cell(nil), repl.Cells...)

		tenants := s.reg.TenantsWithVBS(v.Addr)
		for _, cell := range v.Cells {
			for range tenants {
				c.Send(emage.CellStatsRequest(v.EnbID(), cell.PhysCellID))
			}
		}
	}

	if repl.RANSharing != nil {
		v.RANSharing = repl.RANSharing
	}

	log.Debug().Str("vbs", v.Addr.String()).Int("cells", len(v.Cells)).Msg("小区配置已更新")
}

func (s *Server) handleCellStats(c *Connection, repl *emage.CellStatsRepl) {
	if repl.Status != emage.StatusSuccess {
		log.Warn().Str("vbs", c.vbs.Addr.String()).Uint32("cell", repl.CellID).Msg("小区统计请求失败")
		return
	}
	c.vbs.UpdateCellStats(repl.CellID, repl.DLPerc, repl.ULPerc, s.now())
}

func (s *Server) handleRRCMeas(c *Connection, repl *emage.RRCMeasRepl) {
	ue, ok := s.reg.UE(models.UEKey{VBS: c.vbs.Addr, RNTI: repl.RNTI})
	if !ok {
		return
	}
	if repl.Status != emage.StatusSuccess {
		log.Warn().Str("ue", ue.Key.String()).Msg("测量上报失败")
		return
	}
	ue.UpdateMeasurements(repl.PCell, repl.Neighbours)
}

// handleSessionCtrl 确认会话控制消息
func (s *Server) handleSessionCtrl(c *Connection, repl *emage.SessionCtrlRepl) {
	sess, ok := s.reg.Session(repl.Station)
	if !ok {
		log.Debug().Str("session", repl.Station.String()).Err(ErrUnknownPeer).Msg("会话确认对应的会话不存在")
		return
	}

	if !sess.Ack(repl.ModuleID) {
		log.Debug().Str("session", repl.Station.String()).Uint32("module_id", repl.ModuleID).Msg("未知的模块ID")
		return
	}
	if repl.Status != emage.StatusSuccess {
		log.Error().
			Str("session", repl.Station.String()).
			Str("vbs", c.vbs.Addr.String()).
			Uint32("module_id", repl.ModuleID).
			Msg("基站拒绝会话配置")
	}
}

// handleSessionStatus 按基站上报创建、更新或删除会话
func (s *Server) handleSessionStatus(c *Connection, repl *emage.SessionStatusRepl) {
	v := c.vbs
	sess, exists := s.reg.Session(repl.Station)

	if !repl.Attached {
		if !exists {
			return
		}
		if station, ok := sess.Station(); ok && station != v.Addr {
			return
		}
		if _, err := s.reg.RemoveSession(repl.Station); err == nil {
			s.publish(events.SessionDown(repl.Station, v.Addr))
		}
		return
	}

	block, ok := findBlock(v, repl.Block)
	if !ok {
		log.Warn().
			Str("vbs", v.Addr.String()).
			Str("hwaddr", repl.Block.HWAddr.String()).
			Uint32("channel", repl.Block.Channel).
			Msg("会话状态引用了未知的资源块")
		return
	}

	if !exists {
		sess = session.New(repl.Station, repl.NetBSSID, repl.LVAPBSSID, s.notifier, s.intents)
		if err := s.reg.AddSession(sess); err != nil {
			log.Error().Err(err).Msg("注册会话失败")
			return
		}
		s.publish(events.SessionUp(repl.Station, v.Addr))
	}

	if err := sess.Adopt(block); err != nil {
		log.Error().Err(err).Str("session", repl.Station.String()).Msg("记录会话绑定失败")
		return
	}

	var tenant *models.Tenant
	for _, t := range s.reg.Tenants() {
		if repl.SSID != "" && t.Name == repl.SSID {
			tenant = t
			break
		}
	}

	sess.ApplyStatus(
		tenant,
		repl.Flags&emage.SessionAuthenticated != 0,
		repl.Flags&emage.SessionAssociated != 0,
		repl.AssocID,
		nil,
	)
}

func findBlock(v *models.VBS, ref emage.BlockRef) (models.ResourceBlock, bool) {
	for _, b := range v.Supports {
		if b.HWAddr == ref.HWAddr && b.Channel == ref.Channel && b.Band == ref.Band {
			return b, true
		}
	}
	return models.ResourceBlock{}, false
}

func (s *Server) logStatus(c *Connection, kind emage.Kind, status emage.Status) {
	ev := log.Debug()
	if status != emage.StatusSuccess {
		ev = log.Warn()
	}
	ev.Str("vbs", c.vbs.Addr.String()).
		Str("kind", kind.String()).
		Uint32("status", uint32(status)).
		Msg("收到状态回复")
}
