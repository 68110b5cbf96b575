package models

import (
	"github.com/google/uuid"

	"github.com/ran-controller/ran-controller-pro/pkg/emage"
)

// HandoverCommand 切换意图，由决策引擎或API产生，发出后不跟踪确认
type HandoverCommand struct {
	TenantID *uuid.UUID          `json:"tenant_id,omitempty"`
	RNTI     uint32              `json:"ue"`
	SrcVBS   emage.EtherAddress  `json:"src_vbs"`
	DstVBS   emage.EtherAddress  `json:"dst_vbs"`
	SrcCell  uint32              `json:"src_cell_id"`
	DstCell  uint32              `json:"dst_cell_id"`
	Cause    emage.HandoverCause `json:"cause"`
}

// Request 转换为控制命令
func (c HandoverCommand) Request() emage.HandoverReq {
	return emage.HandoverReq{
		RNTI:    c.RNTI,
		SCellID: c.SrcCell,
		SEnbID:  c.SrcVBS.EnbID(),
		TCellID: c.DstCell,
		TEnbID:  c.DstVBS.EnbID(),
		Cause:   c.Cause,
	}
}
