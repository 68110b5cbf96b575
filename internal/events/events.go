package events

import (
	"fmt"
	"strings"

	"github.com/ran-controller/ran-controller-pro/internal/models"
	"github.com/ran-controller/ran-controller-pro/pkg/emage"
)

// VBSUp 基站完成握手
func VBSUp(v *models.VBS) *models.EventLog {
	return &models.EventLog{
		VBS:         v.Addr.String(),
		Type:        models.EventTypeVBSUp,
		Level:       models.EventLevelInfo,
		Code:        "register",
		Description: fmt.Sprintf("VBS %s connected", v.Addr),
		Details: models.Details{
			"label":  v.Label,
			"enb_id": v.EnbID(),
		},
	}
}

// VBSDown 基站连接关闭
func VBSDown(v *models.VBS, reason error) *models.EventLog {
	ev := &models.EventLog{
		VBS:         v.Addr.String(),
		Type:        models.EventTypeVBSDown,
		Level:       models.EventLevelWarning,
		Code:        "bye",
		Description: fmt.Sprintf("VBS %s disconnected", v.Addr),
		Details:     models.Details{"label": v.Label},
	}
	if reason != nil {
		ev.Details["reason"] = reason.Error()
	}
	return ev
}

// UEJoin 终端加入切片
func UEJoin(ue *models.UE) *models.EventLog {
	return ueEvent(ue, models.EventTypeUEJoin, "ue_join", "joined")
}

// UELeave 终端离开切片
func UELeave(ue *models.UE) *models.EventLog {
	return ueEvent(ue, models.EventTypeUELeave, "ue_leave", "left")
}

func ueEvent(ue *models.UE, typ models.EventType, code, verb string) *models.EventLog {
	ev := &models.EventLog{
		VBS:   ue.Key.VBS.String(),
		UE:    ue.Key.String(),
		Type:  typ,
		Level: models.EventLevelInfo,
		Code:  code,
		Details: models.Details{
			"rnti": ue.RNTI(),
			"imsi": ue.IMSI,
		},
	}
	if ue.Tenant != nil {
		id := ue.Tenant.ID
		ev.TenantID = &id
		ev.Description = fmt.Sprintf("UE %s %s tenant %s", ue.Key, verb, ue.Tenant.Name)
		ev.Details["plmn_id"] = ue.Tenant.PLMNID
	} else {
		ev.Description = fmt.Sprintf("UE %s %s", ue.Key, verb)
	}
	return ev
}

// Handover 已发出的切换命令
func Handover(cmd models.HandoverCommand) *models.EventLog {
	desc := fmt.Sprintf("UE %d handover %s/%d -> %s/%d", cmd.RNTI, cmd.SrcVBS, cmd.SrcCell, cmd.DstVBS, cmd.DstCell)
	return &models.EventLog{
		TenantID:    cmd.TenantID,
		VBS:         cmd.SrcVBS.String(),
		UE:          models.UEKey{VBS: cmd.SrcVBS, RNTI: cmd.RNTI}.String(),
		Type:        models.EventTypeHandover,
		Level:       models.EventLevelInfo,
		Code:        cmd.Cause.String(),
		Description: desc,
		Details: models.Details{
			"src_vbs":     cmd.SrcVBS.String(),
			"dst_vbs":     cmd.DstVBS.String(),
			"src_cell_id": cmd.SrcCell,
			"dst_cell_id": cmd.DstCell,
		},
	}
}

// SessionUp 会话建立
func SessionUp(addr, station emage.EtherAddress) *models.EventLog {
	return &models.EventLog{
		VBS:         station.String(),
		UE:          addr.String(),
		Type:        models.EventTypeSessionUp,
		Level:       models.EventLevelInfo,
		Code:        "session_up",
		Description: fmt.Sprintf("session %s attached to %s", addr, station),
	}
}

// SessionDown 会话删除
func SessionDown(addr, station emage.EtherAddress) *models.EventLog {
	return &models.EventLog{
		VBS:         station.String(),
		UE:          addr.String(),
		Type:        models.EventTypeSessionDown,
		Level:       models.EventLevelInfo,
		Code:        "session_down",
		Description: fmt.Sprintf("session %s detached from %s", addr, station),
	}
}

// Subject 事件对应的NATS主题
func Subject(ev *models.EventLog) string {
	switch ev.Type {
	case models.EventTypeVBSUp:
		return "ran.vbs." + token(ev.VBS) + ".up"
	case models.EventTypeVBSDown:
		return "ran.vbs." + token(ev.VBS) + ".down"
	case models.EventTypeUEJoin:
		return "ran.ue." + token(ev.UE) + ".join"
	case models.EventTypeUELeave:
		return "ran.ue." + token(ev.UE) + ".leave"
	case models.EventTypeHandover:
		return "ran.handover"
	case models.EventTypeSessionUp:
		return "ran.session." + token(ev.UE) + ".up"
	case models.EventTypeSessionDown:
		return "ran.session." + token(ev.UE) + ".down"
	default:
		return "ran.event." + strings.ToLower(string(ev.Type))
	}
}

// token 去掉地址分隔符，避免与主题分隔符冲突
func token(s string) string {
	r := strings.NewReplacer(":", "", "/", "-", ".", "-", " ", "")
	if s == "" {
		return "unknown"
	}
	return r.Replace(s)
}
