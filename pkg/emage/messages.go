package emage

// Header 消息头
type Header struct {
	Version uint32 `json:"vers"`
	TID     uint32 `json:"t_id"`
	BID     uint64 `json:"b_id"`
	Seq     uint32 `json:"seq"`
}

// Message emage顶层消息，Event选择单次、周期或触发三种包装之一
type Message struct {
	Header   Header
	Event    EventKind
	Interval uint32 // 仅周期事件
	Action   Action // 周期事件和触发事件
	Body     Body
}

// Kind 具体消息类型，值即事件内的字段号
type Kind uint8

const (
	KindHello Kind = iota + 1
	KindCellsConf
	KindRANSharingCtrl
	KindCtrlCommands
	KindUEsID
	KindRRCMeasConf
	KindCellStats
	KindRRCMeas
	KindSessionCtrl
	KindSessionStatus
)

var kindNames = map[Kind]string{
	KindHello:          "hello",
	KindCellsConf:      "enb_cells",
	KindRANSharingCtrl: "ran_sharing_ctrl",
	KindCtrlCommands:   "ctrl_cmds",
	KindUEsID:          "ues_id",
	KindRRCMeasConf:    "ue_rrc_meas_conf",
	KindCellStats:      "cell_stats",
	KindRRCMeas:        "ue_rrc_meas",
	KindSessionCtrl:    "session_ctrl",
	KindSessionStatus:  "session_status",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Body 消息体，封闭于本包定义的类型
type Body interface {
	Kind() Kind
	// IsReply 报告消息体携带的是应答部分
	IsReply() bool
}

// Hello 基站问候，携带上报周期（毫秒）
type Hello struct {
	Req  *HelloReq
	Repl *HelloRepl
}

type HelloReq struct {
	Period uint32
}

type HelloRepl struct {
	Period uint32
}

func (*Hello) Kind() Kind      { return KindHello }
func (m *Hello) IsReply() bool { return m.Repl != nil }

// Cell 小区配置
type Cell struct {
	PhysCellID  uint32 `json:"phys_cell_id"`
	CarrierFreq uint32 `json:"carrier_freq"`
	NumRBsDL    uint32 `json:"num_rbs_dl"`
	NumRBsUL    uint32 `json:"num_rbs_ul"`
}

// Subframe 一个子帧内的RB分配
type Subframe struct {
	RBsAlloc []uint32 `json:"rbs_alloc"`
}

// CellAllocation 单个小区的静态下行RB分配
type CellAllocation struct {
	PhysCellID uint32     `json:"phy_cell_id"`
	Subframes  []Subframe `json:"sf"`
}

// RANSharingInfo 基站上报的RAN共享信息
type RANSharingInfo struct {
	PLMNIDs []uint32         `json:"plmn_ids"`
	DLAlloc []CellAllocation `json:"rbs_alloc_dl,omitempty"`
}

// CellsConf 小区配置请求/应答
type CellsConf struct {
	Req  *CellsConfReq
	Repl *CellsConfRepl
}

type CellsConfReq struct {
	InfoTypes uint32
}

type CellsConfRepl struct {
	Status     Status
	Cells      []Cell
	RANSharing *RANSharingInfo
}

func (*CellsConf) Kind() Kind      { return KindCellsConf }
func (m *CellsConf) IsReply() bool { return m.Repl != nil }

// TenantRef 以PLMN标识引用租户
type TenantRef struct {
	PLMNID uint32
}

// RANSharingCtrl RAN共享控制
type RANSharingCtrl struct {
	Req  *RANSharingCtrlReq
	Repl *RANSharingCtrlRepl
}

type RANSharingCtrlReq struct {
	AddTenant *TenantRef
	RemTenant *TenantRef
	StaticDL  []CellAllocation
}

type RANSharingCtrlRepl struct {
	Status Status
}

func (*RANSharingCtrl) Kind() Kind      { return KindRANSharingCtrl }
func (m *RANSharingCtrl) IsReply() bool { return m.Repl != nil }

// HandoverReq 切换控制命令
type HandoverReq struct {
	RNTI    uint32
	SCellID uint32
	SEnbID  uint64
	TCellID uint32
	TEnbID  uint64
	Cause   HandoverCause
}

// CtrlCommands 控制命令
type CtrlCommands struct {
	Req  *CtrlCommandsReq
	Repl *CtrlCommandsRepl
}

type CtrlCommandsReq struct {
	Handover *HandoverReq
}

type CtrlCommandsRepl struct {
	Status Status
}

func (*CtrlCommands) Kind() Kind      { return KindCtrlCommands }
func (m *CtrlCommands) IsReply() bool { return m.Repl != nil }

// UEID 终端标识
type UEID struct {
	RNTI   uint32
	IMSI   uint64
	PLMNID uint32
}

// UEsID 终端标识列表请求/应答
type UEsID struct {
	Req  *UEsIDReq
	Repl *UEsIDRepl
}

type UEsIDReq struct {
	Dummy uint32
}

type UEsIDRepl struct {
	Status   Status
	Active   []UEID
	Inactive []UEID
}

func (*UEsID) Kind() Kind      { return KindUEsID }
func (m *UEsID) IsReply() bool { return m.Repl != nil }

// UECapabilities 终端能力
type UECapabilities struct {
	Release  uint32 `json:"release"`
	Category uint32 `json:"category"`
}

// RRCMeasConf 终端RRC测量配置请求/应答
type RRCMeasConf struct {
	Req  *RRCMeasConfReq
	Repl *RRCMeasConfRepl
}

type RRCMeasConfReq struct {
	RNTI uint32
}

type RRCMeasConfRepl struct {
	RNTI         uint32
	Status       Status
	RRCState     uint32
	Capabilities *UECapabilities
	Freq         *uint32
}

func (*RRCMeasConf) Kind() Kind      { return KindRRCMeasConf }
func (m *RRCMeasConf) IsReply() bool { return m.Repl != nil }

// CellStats 小区PRB利用率统计
type CellStats struct {
	Req  *CellStatsReq
	Repl *CellStatsRepl
}

type CellStatsReq struct {
	CellID    uint32
	StatsType uint32
}

type CellStatsRepl struct {
	Status Status
	CellID uint32
	DLPerc *float64
	ULPerc *float64
}

func (*CellStats) Kind() Kind      { return KindCellStats }
func (m *CellStats) IsReply() bool { return m.Repl != nil }

// SignalQuality RSRP/RSRQ读数
type SignalQuality struct {
	RSRP float64
	RSRQ float64
}

// NeighbourMeas 邻区测量
type NeighbourMeas struct {
	PCI  uint32
	RSRP float64
	RSRQ float64
}

// RRCMeas 周期性RRC测量上报
type RRCMeas struct {
	Req  *RRCMeasReq
	Repl *RRCMeasRepl
}

type RRCMeasReq struct {
	RNTI            uint32
	RAT             uint32
	CarrierFreq     uint32
	Bandwidth       uint32
	ReportType      uint32
	ReportInterval  uint32
	TriggerQuantity uint32
	NumReports      int32
	MaxReportCells  uint32
	CellsToMeasure  []uint32
	BlacklistCells  []uint32
}

type RRCMeasRepl struct {
	RNTI       uint32
	Status     Status
	PCell      *SignalQuality
	Neighbours []NeighbourMeas
}

func (*RRCMeas) Kind() Kind      { return KindRRCMeas }
func (m *RRCMeas) IsReply() bool { return m.Repl != nil }

// BlockRef 资源块标识
type BlockRef struct {
	HWAddr  EtherAddress
	Channel uint32
	Band    uint32
}

// SessionCtrl 终端会话安装/删除
type SessionCtrl struct {
	Req  *SessionCtrlReq
	Repl *SessionCtrlRepl
}

type SessionCtrlReq struct {
	Op          uint32
	ModuleID    uint32
	Station     EtherAddress
	NetBSSID    EtherAddress
	LVAPBSSID   EtherAddress
	Block       BlockRef
	Downlink    bool
	Flags       uint32
	AssocID     uint32
	SSIDs       []string
	MCS         []uint32
	Encap       EtherAddress
	TargetBlock *BlockRef
}

type SessionCtrlRepl struct {
	ModuleID uint32
	Station  EtherAddress
	Status   Status
}

func (*SessionCtrl) Kind() Kind      { return KindSessionCtrl }
func (m *SessionCtrl) IsReply() bool { return m.Repl != nil }

// SessionStatus 基站上报的终端会话状态
type SessionStatus struct {
	Req  *SessionStatusReq
	Repl *SessionStatusRepl
}

type SessionStatusReq struct {
	Station EtherAddress
}

type SessionStatusRepl struct {
	Station   EtherAddress
	NetBSSID  EtherAddress
	LVAPBSSID EtherAddress
	Block     BlockRef
	Flags     uint32
	AssocID   uint32
	SSID      string
	Attached  bool
}

func (*SessionStatus) Kind() Kind      { return KindSessionStatus }
func (m *SessionStatus) IsReply() bool { return m.Repl != nil }
