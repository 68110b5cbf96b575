package vbsp

import (
	"github.com/rs/zerolog/log"

	"github.com/ran-controller/ran-controller-pro/internal/session"
	"github.com/ran-controller/ran-controller-pro/pkg/emage"
)

// Notifier 把会话绑定变化转换成会话控制消息，发往资源块所属基站
type Notifier struct {
	srv *Server
}

// AddSession 在端口所属基站安装或刷新会话
func (n *Notifier) AddSession(s *session.Session, port *session.RadioPort, moduleID uint32) bool {
	flags := uint32(0)
	if s.Authenticated() {
		flags |= emage.SessionAuthenticated
	}
	if s.Associated() {
		flags |= emage.SessionAssociated
	}
	if port.Downlink {
		flags |= emage.SessionSetMask
	}

	req := emage.SessionCtrlReq{
		Op:        emage.SessionOpAdd,
		ModuleID:  moduleID,
		Station:   s.Addr,
		NetBSSID:  s.NetBSSID,
		LVAPBSSID: s.LVAPBSSID(),
		Block:     port.Block.Ref(),
		Downlink:  port.Downlink,
		Flags:     flags,
		AssocID:   s.AssocID(),
		SSIDs:     append([]string{s.SSID()}, s.SSIDs()...),
		MCS:       port.MCS,
		Encap:     s.Encap(),
	}
	return n.send(port, req)
}

// DelSession 从端口所属基站删除会话
func (n *Notifier) DelSession(s *session.Session, port *session.RadioPort, moduleID uint32) bool {
	req := emage.SessionCtrlReq{
		Op:        emage.SessionOpDel,
		ModuleID:  moduleID,
		Station:   s.Addr,
		NetBSSID:  s.NetBSSID,
		LVAPBSSID: s.LVAPBSSID(),
		Block:     port.Block.Ref(),
		Downlink:  port.Downlink,
	}
	if tb := s.TargetBlock(); tb != nil {
		ref := tb.Ref()
		req.TargetBlock = &ref
	}
	return n.send(port, req)
}

func (n *Notifier) send(port *session.RadioPort, req emage.SessionCtrlReq) bool {
	v, ok := n.srv.reg.VBS(port.Block.Station)
	if !ok || !v.Connected() {
		log.Debug().
			Str("vbs", port.Block.Station.String()).
			Str("session", req.Station.String()).
			Msg("基站不可达，会话消息未发出")
		return false
	}
	return v.Send(emage.SessionCtrlRequest(v.EnbID(), req))
}
