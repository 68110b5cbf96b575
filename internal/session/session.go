package session

import (
	"errors"
	"fmt"
	"slices"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/ran-controller/ran-controller-pro/internal/models"
	"github.com/ran-controller/ran-controller-pro/pkg/emage"
)

var (
	// ErrInvalidArgument 调用参数非法
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrHandoverInProgress 上一次重分配尚未确认
	ErrHandoverInProgress = errors.New("handover in progress")
	// ErrTargetNotProvisioned 共享租户在目标资源块上没有对应VAP
	ErrTargetNotProvisioned = errors.New("target not provisioned")
)

// DefaultRTSCTS 默认RTS/CTS门限
const DefaultRTSCTS uint32 = 2436

// RadioPort 会话在某个方向上对资源块的绑定
type RadioPort struct {
	Block    models.ResourceBlock `json:"block"`
	Downlink bool                 `json:"downlink"`
	MCS      []uint32             `json:"mcs"`
	NoAck    bool                 `json:"no_ack"`
	RTSCTS   uint32               `json:"rts_cts"`
}

// Notifier 把会话变化推送到资源块所属基站
type Notifier interface {
	// AddSession 在端口所属基站安装/刷新会话，返回消息是否已发出
	AddSession(s *Session, port *RadioPort, moduleID uint32) bool
	// DelSession 从端口所属基站删除会话，返回消息是否已发出
	DelSession(s *Session, port *RadioPort, moduleID uint32) bool
}

// POA 终端接入点意图
type POA struct {
	Version string             `json:"version"`
	DPID    emage.EtherAddress `json:"dpid"`
	Port    uint32             `json:"port"`
	HWAddr  emage.EtherAddress `json:"hwaddr"`
}

// IntentService 接入点意图服务，调用不得阻塞
type IntentService interface {
	AddPOA(poa POA) uuid.UUID
	UpdatePOA(id uuid.UUID, poa POA)
	RemovePOA(id uuid.UUID)
}

// Session 终端上下文（LVAP）
type Session struct {
	Addr     emage.EtherAddress
	NetBSSID emage.EtherAddress

	lvapBSSID emage.EtherAddress
	ssids     []string
	encap     emage.EtherAddress
	assocID   uint32
	tenant    *models.Tenant

	authenticated bool
	associated    bool

	downlink *RadioPort
	uplink   []*RadioPort

	// targetBlock 仅在删除旧下行绑定期间非空
	targetBlock *models.ResourceBlock

	poaID    uuid.UUID
	moduleID uint32
	pending  []uint32

	notifier Notifier
	intents  IntentService
}

// New creates a session without bindings
func New(addr, netBSSID, lvapBSSID emage.EtherAddress, notifier Notifier, intents IntentService) *Session {
	return &Session{
		Addr:      addr,
		NetBSSID:  netBSSID,
		lvapBSSID: lvapBSSID,
		notifier:  notifier,
		intents:   intents,
	}
}

// Blocks 返回下行块在前、上行块在后的绑定列表
func (s *Session) Blocks() []models.ResourceBlock {
	var out []models.ResourceBlock
	if s.downlink != nil {
		out = append(out, s.downlink.Block)
	}
	for _, p := range s.uplink {
		out = append(out, p.Block)
	}
	return out
}

// Downlink 返回下行绑定
func (s *Session) Downlink() (models.ResourceBlock, bool) {
	if s.downlink == nil {
		return models.ResourceBlock{}, false
	}
	return s.downlink.Block, true
}

// Uplink 返回上行绑定
func (s *Session) Uplink() []models.ResourceBlock {
	out := make([]models.ResourceBlock, 0, len(s.uplink))
	for _, p := range s.uplink {
		out = append(out, p.Block)
	}
	return out
}

// Ports 返回全部端口配置的副本
func (s *Session) Ports() []RadioPort {
	var out []RadioPort
	if s.downlink != nil {
		out = append(out, *s.downlink)
	}
	for _, p := range s.uplink {
		out = append(out, *p)
	}
	return out
}

// Station 会话所在基站，即下行块所属基站
func (s *Session) Station() (emage.EtherAddress, bool) {
	if s.downlink == nil {
		return emage.EtherAddress{}, false
	}
	return s.downlink.Block.Station, true
}

// TargetBlock 正在切换的目标块
func (s *Session) TargetBlock() *models.ResourceBlock {
	return s.targetBlock
}

// Pending 返回未确认的模块ID
func (s *Session) Pending() []uint32 {
	return append([]uint32(nil), s.pending...)
}

// Ack 确认一个模块ID，返回该ID是否在等待中
func (s *Session) Ack(moduleID uint32) bool {
	for i, id := range s.pending {
		if id == moduleID {
			s.pending = append(s.pending[:i], s.pending[i+1:]...)
			return true
		}
	}
	return false
}

// POAID 当前接入点意图
func (s *Session) POAID() uuid.UUID {
	return s.poaID
}

func (s *Session) LVAPBSSID() emage.EtherAddress { return s.lvapBSSID }
func (s *Session) SSIDs() []string                { return append([]string(nil), s.ssids...) }
func (s *Session) Encap() emage.EtherAddress     { return s.encap }
func (s *Session) AssocID() uint32               { return s.assocID }
func (s *Session) Tenant() *models.Tenant        { return s.tenant }
func (s *Session) Authenticated() bool           { return s.authenticated }
func (s *Session) Associated() bool              { return s.associated }

// SSID 当前关联的SSID，即租户名
func (s *Session) SSID() string {
	if s.tenant == nil {
		return ""
	}
	return s.tenant.Name
}

// Assign 重新分配资源块：第一个块作为下行，其余去重后作为上行
func (s *Session) Assign(blocks []models.ResourceBlock) error {
	if len(s.pending) > 0 {
		return fmt.Errorf("%w: %s pending %v", ErrHandoverInProgress, s.Addr, s.pending)
	}

	if len(blocks) == 0 {
		log.Info().Str("session", s.Addr.String()).Msg("资源块列表为空，忽略")
		return nil
	}

	for _, b := range blocks {
		if !b.Valid() {
			return fmt.Errorf("%w: block %s", ErrInvalidArgument, b)
		}
	}

	dl := blocks[0]
	current, hasDL := s.Downlink()
	moving := !hasDL || current != dl

	// 共享租户必须在目标块上有对应VAP，检查在任何修改之前
	var vap emage.EtherAddress
	resetTenant := false
	if moving && s.tenant != nil && s.tenant.Shared() {
		vap = emage.GenerateBSSID(s.tenant.Prefix, dl.HWAddr)
		if !s.tenant.HasVAP(vap) {
			log.Error().
				Str("vap", vap.String()).
				Str("tenant", s.tenant.Name).
				Msg("租户上未找到VAP")
			return fmt.Errorf("%w: vap %s on tenant %s", ErrTargetNotProvisioned, vap, s.tenant.Name)
		}
		resetTenant = true
	}

	if moving {
		if resetTenant {
			s.tenant = nil
			s.associated = false
			s.authenticated = false
			s.assocID = 0
			s.lvapBSSID = vap
		}
		s.assignDownlink(dl)
	}
	s.assignUplink(blocks[1:])
	s.setPorts()

	return nil
}

func (s *Session) assignDownlink(dl models.ResourceBlock) {
	s.targetBlock = &dl
	if s.downlink != nil {
		s.sendDel(s.downlink)
	}
	s.targetBlock = nil

	s.downlink = &RadioPort{Block: dl, Downlink: true, RTSCTS: DefaultRTSCTS}
	s.sendAdd(s.downlink)
}

func (s *Session) assignUplink(blocks []models.ResourceBlock) {
	for _, p := range s.uplink {
		s.sendDel(p)
	}
	s.uplink = nil

	seen := make(map[models.ResourceBlock]bool, len(blocks))
	if s.downlink != nil {
		seen[s.downlink.Block] = true
	}

	for _, b := range blocks {
		if seen[b] {
			continue
		}
		seen[b] = true

		port := &RadioPort{Block: b, RTSCTS: DefaultRTSCTS}
		s.uplink = append(s.uplink, port)
		s.sendAdd(port)
	}
}

func (s *Session) setPorts() {
	if s.downlink == nil || s.intents == nil {
		return
	}

	poa := POA{
		Version: "1.0",
		DPID:    s.downlink.Block.Station,
		Port:    0,
		HWAddr:  s.Addr,
	}

	if s.poaID != uuid.Nil {
		s.intents.UpdatePOA(s.poaID, poa)
		return
	}
	s.poaID = s.intents.AddPOA(poa)
}

// MoveTo 把会话迁移到基站上第一个与当前下行块信道、频段一致的资源块；
// 没有匹配的块时不做任何修改
func (s *Session) MoveTo(supports []models.ResourceBlock) error {
	current, hasDL := s.Downlink()

	for _, b := range supports {
		if hasDL && !b.SameSpectrum(current) {
			continue
		}
		return s.Assign([]models.ResourceBlock{b})
	}

	return nil
}

// UpdatePort 修改已绑定块的端口配置并刷新
func (s *Session) UpdatePort(block models.ResourceBlock, mcs []uint32, noAck bool, rtsCts uint32) error {
	var port *RadioPort
	if s.downlink != nil && s.downlink.Block == block {
		port = s.downlink
	}
	for _, p := range s.uplink {
		if p.Block == block {
			port = p
		}
	}
	if port == nil {
		return fmt.Errorf("%w: block %s not bound", ErrInvalidArgument, block)
	}

	port.MCS = append([]uint32(nil), mcs...)
	port.NoAck = noAck
	port.RTSCTS = rtsCts
	s.sendAdd(port)
	return nil
}

// Refresh 在所有绑定的基站上重新安装会话
func (s *Session) Refresh() {
	if s.downlink != nil {
		s.sendAdd(s.downlink)
	}
	for _, p := range s.uplink {
		s.sendAdd(p)
	}
}

// SetSSIDs 修改广播的SSID列表，有变化时刷新
func (s *Session) SetSSIDs(ssids []string) {
	if slices.Equal(s.ssids, ssids) {
		return
	}
	s.ssids = append([]string(nil), ssids...)
	s.Refresh()
}

// SetEncap 修改封装目的地址，有变化时刷新
func (s *Session) SetEncap(encap emage.EtherAddress) {
	if s.encap == encap {
		return
	}
	s.encap = encap
	s.Refresh()
}

// SetAssocID 修改关联ID，有变化时刷新
func (s *Session) SetAssocID(assocID uint32) {
	if s.assocID == assocID {
		return
	}
	s.assocID = assocID
	s.Refresh()
}

// SetLVAPBSSID 修改活动BSSID，有变化时刷新
func (s *Session) SetLVAPBSSID(bssid emage.EtherAddress) {
	if s.lvapBSSID == bssid {
		return
	}
	s.lvapBSSID = bssid
	s.Refresh()
}

// SetTenant 修改所属租户，有变化时刷新
func (s *Session) SetTenant(t *models.Tenant) {
	if s.tenant == t {
		return
	}
	s.tenant = t
	s.Refresh()
}

// ApplyStatus 应用基站上报的认证/关联状态，不产生下发消息
func (s *Session) ApplyStatus(tenant *models.Tenant, authenticated, associated bool, assocID uint32, ssids []string) {
	s.tenant = tenant
	s.authenticated = authenticated
	s.associated = associated
	s.assocID = assocID
	if ssids != nil {
		s.ssids = append([]string(nil), ssids...)
	}
}

// Adopt 记录基站上已存在的下行绑定，不向基站下发消息
func (s *Session) Adopt(dl models.ResourceBlock) error {
	if !dl.Valid() {
		return fmt.Errorf("%w: block %s", ErrInvalidArgument, dl)
	}
	if current, ok := s.Downlink(); ok && current == dl {
		return nil
	}

	s.downlink = &RadioPort{Block: dl, Downlink: true, RTSCTS: DefaultRTSCTS}
	s.uplink = slices.DeleteFunc(s.uplink, func(p *RadioPort) bool { return p.Block == dl })
	s.setPorts()
	return nil
}

// Clear 删除全部绑定并撤销接入点意图
func (s *Session) Clear() {
	if s.downlink != nil {
		s.sendDel(s.downlink)
		s.downlink = nil
	}
	for _, p := range s.uplink {
		s.sendDel(p)
	}
	s.uplink = nil

	if s.poaID != uuid.Nil && s.intents != nil {
		s.intents.RemovePOA(s.poaID)
	}
	s.poaID = uuid.Nil
}

func (s *Session) nextModuleID() uint32 {
	s.moduleID++
	return s.moduleID
}

func (s *Session) sendAdd(port *RadioPort) {
	if s.notifier == nil {
		return
	}
	id := s.nextModuleID()
	if s.notifier.AddSession(s, port, id) {
		s.pending = append(s.pending, id)
	}
}

func (s *Session) sendDel(port *RadioPort) {
	if s.notifier == nil {
		return
	}
	id := s.nextModuleID()
	if s.notifier.DelSession(s, port, id) {
		s.pending = append(s.pending, id)
	}
}
