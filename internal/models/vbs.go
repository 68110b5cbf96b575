package models

import (
	"time"

	"github.com/ran-controller/ran-controller-pro/pkg/emage"
)

// Link 基站当前的协议连接
type Link interface {
	// Send 非阻塞地排队发送消息，返回是否已入队
	Send(msg *emage.Message) bool
	RemoteAddr() string
}

// CellStats 小区PRB利用率
type CellStats struct {
	CellID    uint32    `json:"cell_id"`
	DLPerc    float64   `json:"dl_prb_utilz"`
	HasDL     bool      `json:"has_dl"`
	ULPerc    float64   `json:"ul_prb_utilz"`
	HasUL     bool      `json:"has_ul"`
	UpdatedAt time.Time `json:"updated_at"`
}

// VBS 基站（eNB）
type VBS struct {
	Addr     emage.EtherAddress `json:"addr"`
	Label    string             `json:"label"`
	Supports []ResourceBlock    `json:"supports"`

	// 以下为运行时字段，连接断开时由Reset统一清空
	Connection Link                  `json:"-"`
	Period     uint32                `json:"period"`
	LastSeen   uint32                `json:"last_seen"`
	LastSeenAt time.Time             `json:"last_seen_ts"`
	Cells      []emage.Cell          `json:"cells"`
	CellStats  []CellStats           `json:"cell_stats"`
	UEs        map[uint32]*UE        `json:"-"`
	RANSharing *emage.RANSharingInfo `json:"ran_sh_i"`
}

// NewVBS creates a station with empty runtime state
func NewVBS(addr emage.EtherAddress, label string) *VBS {
	return &VBS{
		Addr:  addr,
		Label: label,
		UEs:   make(map[uint32]*UE),
	}
}

// EnbID 基站数字标识
func (v *VBS) EnbID() uint64 {
	return v.Addr.EnbID()
}

// Connected 基站当前是否可达
func (v *VBS) Connected() bool {
	return v.Connection != nil
}

// Send 通过当前连接发送，未连接时返回false
func (v *VBS) Send(msg *emage.Message) bool {
	if v.Connection == nil {
		return false
	}
	return v.Connection.Send(msg)
}

// Reset 清空全部运行时字段
func (v *VBS) Reset() {
	v.Connection = nil
	v.Period = 0
	v.LastSeen = 0
	v.LastSeenAt = time.Time{}
	v.Cells = nil
	v.CellStats = nil
	v.UEs = make(map[uint32]*UE)
	v.RANSharing = nil
}

// UpdateCellStats 更新小区利用率，保持小区首次出现的顺序
func (v *VBS) UpdateCellStats(cellID uint32, dl, ul *float64, now time.Time) {
	for i := range v.CellStats {
		if v.CellStats[i].CellID == cellID {
			v.CellStats[i].apply(dl, ul, now)
			return
		}
	}

	st := CellStats{CellID: cellID}
	st.apply(dl, ul, now)
	v.CellStats = append(v.CellStats, st)
}

func (s *CellStats) apply(dl, ul *float64, now time.Time) {
	if dl != nil {
		s.DLPerc, s.HasDL = *dl, true
	}
	if ul != nil {
		s.ULPerc, s.HasUL = *ul, true
	}
	s.UpdatedAt = now
}

// FirstCell 返回第一个小区；终端默认视为接入该小区
func (v *VBS) FirstCell() (emage.Cell, bool) {
	if len(v.Cells) == 0 {
		return emage.Cell{}, false
	}
	return v.Cells[0], true
}
