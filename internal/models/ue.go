package models

import (
	"fmt"

	"github.com/ran-controller/ran-controller-pro/pkg/emage"
)

// UEKey 终端在控制器内的标识：服务基站 + RNTI
type UEKey struct {
	VBS  emage.EtherAddress `json:"vbs"`
	RNTI uint32             `json:"rnti"`
}

func (k UEKey) String() string {
	return fmt.Sprintf("%s/%d", k.VBS, k.RNTI)
}

// Measurement 邻区信号质量，只保留最新值
type Measurement struct {
	RSRP float64 `json:"rsrp"`
	RSRQ float64 `json:"rsrq"`
}

// UE 移动终端
type UE struct {
	Key          UEKey                  `json:"addr"`
	IMSI         uint64                 `json:"imsi"`
	VBS          *VBS                   `json:"-"`
	Tenant       *Tenant                `json:"-"`
	RRCState     uint32                 `json:"rrc_state"`
	Capabilities *emage.UECapabilities  `json:"capabilities,omitempty"`
	PCell        *Measurement           `json:"pcell,omitempty"`
	Measurements map[uint32]Measurement `json:"rrc_meas"`
}

// NewUE creates a terminal served by vbs
func NewUE(vbs *VBS, rnti uint32) *UE {
	return &UE{
		Key:          UEKey{VBS: vbs.Addr, RNTI: rnti},
		VBS:          vbs,
		Measurements: make(map[uint32]Measurement),
	}
}

// RNTI 终端无线网络临时标识
func (u *UE) RNTI() uint32 {
	return u.Key.RNTI
}

// PLMNID 由所属租户得出，未加入切片时为0
func (u *UE) PLMNID() uint32 {
	if u.Tenant == nil {
		return 0
	}
	return u.Tenant.PLMNID
}

// UpdateMeasurements 以测量上报覆盖当前读数
func (u *UE) UpdateMeasurements(pcell *emage.SignalQuality, neighbours []emage.NeighbourMeas) {
	if pcell != nil {
		u.PCell = &Measurement{RSRP: pcell.RSRP, RSRQ: pcell.RSRQ}
	}
	for _, n := range neighbours {
		u.Measurements[n.PCI] = Measurement{RSRP: n.RSRP, RSRQ: n.RSRQ}
	}
}

// RSRQ 返回终端对某小区的RSRQ读数
func (u *UE) RSRQ(pci uint32) (float64, bool) {
	m, ok := u.Measurements[pci]
	return m.RSRQ, ok
}
