package emage

// 事务标识约定：单次事件为0，触发和周期事件为1
const (
	TIDSingle  uint32 = 0
	TIDTrigger uint32 = 1
)

// RANSharingInterval 周期性RAN共享信息请求的间隔（毫秒）
const RANSharingInterval uint32 = 10000

func newHeader(tid uint32, enbID uint64) Header {
	return Header{Version: Version, TID: tid, BID: enbID}
}

// NewSingle 构造单次事件消息
func NewSingle(enbID uint64, body Body) *Message {
	return &Message{Header: newHeader(TIDSingle, enbID), Event: EventSingle, Body: body}
}

// NewTrigger 构造触发事件消息
func NewTrigger(enbID uint64, action Action, body Body) *Message {
	return &Message{Header: newHeader(TIDTrigger, enbID), Event: EventTriggered, Action: action, Body: body}
}

// NewScheduled 构造周期事件消息
func NewScheduled(enbID uint64, interval uint32, action Action, body Body) *Message {
	return &Message{
		Header:   newHeader(TIDTrigger, enbID),
		Event:    EventScheduled,
		Interval: interval,
		Action:   action,
		Body:     body,
	}
}

// AddTenantRequest 向基站下发租户
func AddTenantRequest(enbID uint64, plmnID uint32) *Message {
	return NewSingle(enbID, &RANSharingCtrl{Req: &RANSharingCtrlReq{AddTenant: &TenantRef{PLMNID: plmnID}}})
}

// RemoveTenantRequest 从基站删除租户
func RemoveTenantRequest(enbID uint64, plmnID uint32) *Message {
	return NewSingle(enbID, &RANSharingCtrl{Req: &RANSharingCtrlReq{RemTenant: &TenantRef{PLMNID: plmnID}}})
}

// StaticDLAllocRequest 下发静态下行RB分配
func StaticDLAllocRequest(enbID uint64, cells []CellAllocation) *Message {
	return NewSingle(enbID, &RANSharingCtrl{Req: &RANSharingCtrlReq{StaticDL: cells}})
}

// CellsConfRequest 请求小区配置
func CellsConfRequest(enbID uint64) *Message {
	return NewSingle(enbID, &CellsConf{Req: &CellsConfReq{InfoTypes: InfoCells}})
}

// RANSharingConfRequest 周期性请求RAN共享信息
func RANSharingConfRequest(enbID uint64) *Message {
	return NewScheduled(enbID, RANSharingInterval, ActionAdd,
		&CellsConf{Req: &CellsConfReq{InfoTypes: InfoRANSharing}})
}

// UEsIDRequest 请求已注册终端
func UEsIDRequest(enbID uint64) *Message {
	return NewTrigger(enbID, ActionAdd, &UEsID{Req: &UEsIDReq{Dummy: 1}})
}

// RRCMeasConfRequest 请求终端RRC测量配置
func RRCMeasConfRequest(enbID uint64, rnti uint32) *Message {
	return NewTrigger(enbID, ActionAdd, &RRCMeasConf{Req: &RRCMeasConfReq{RNTI: rnti}})
}

// RRCMeasRequest 请求周期性参考信号测量上报
func RRCMeasRequest(enbID uint64, rnti, carrierFreq, bandwidth uint32) *Message {
	return NewTrigger(enbID, ActionAdd, &RRCMeas{Req: &RRCMeasReq{
		RNTI:            rnti,
		RAT:             RATEUTRA,
		CarrierFreq:     carrierFreq,
		Bandwidth:       bandwidth,
		ReportType:      ReportPeriodicalRefSig,
		ReportInterval:  RRCReportInterval,
		TriggerQuantity: TriggerQuantityRSRP,
		NumReports:      ReportsInfinite,
		MaxReportCells:  RRCMaxReportCells,
	}})
}

// CellStatsRequest 为小区安装PRB利用率触发
func CellStatsRequest(enbID uint64, cellID uint32) *Message {
	return NewTrigger(enbID, ActionAdd, &CellStats{Req: &CellStatsReq{CellID: cellID, StatsType: StatsPRBUtilization}})
}

// HandoverRequest 下发切换命令
func HandoverRequest(enbID uint64, ho HandoverReq) *Message {
	return NewSingle(enbID, &CtrlCommands{Req: &CtrlCommandsReq{Handover: &ho}})
}

// SessionCtrlRequest 安装或删除终端会话
func SessionCtrlRequest(enbID uint64, req SessionCtrlReq) *Message {
	return NewSingle(enbID, &SessionCtrl{Req: &req})
}
