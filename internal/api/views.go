package api

import (
	"maps"
	"slices"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/ran-controller/ran-controller-pro/internal/models"
	"github.com/ran-controller/ran-controller-pro/internal/session"
	"github.com/ran-controller/ran-controller-pro/pkg/emage"
)

// Views are detached copies built inside the dispatcher loop, so they can be
// encoded after Do returns.

type vbsView struct {
	Addr       emage.EtherAddress     `json:"addr"`
	Label      string                 `json:"label"`
	Connected  bool                   `json:"connected"`
	Remote     string                 `json:"remote,omitempty"`
	Period     uint32                 `json:"period"`
	LastSeen   uint32                 `json:"last_seen"`
	LastSeenAt *time.Time             `json:"last_seen_ts,omitempty"`
	Supports   []models.ResourceBlock `json:"supports"`
	Cells      []emage.Cell           `json:"cells"`
	CellStats  []models.CellStats     `json:"cell_stats"`
	UEs        int                    `json:"ues"`
	RANSharing *emage.RANSharingInfo  `json:"ran_sh_i,omitempty"`
}

func newVBSView(v *models.VBS) vbsView {
	view := vbsView{
		Addr:      v.Addr,
		Label:     v.Label,
		Connected: v.Connected(),
		Period:    v.Period,
		LastSeen:  v.LastSeen,
		Supports:  slices.Clone(v.Supports),
		Cells:     slices.Clone(v.Cells),
		CellStats: slices.Clone(v.CellStats),
		UEs:       len(v.UEs),
	}
	if v.Connection != nil {
		view.Remote = v.Connection.RemoteAddr()
	}
	if !v.LastSeenAt.IsZero() {
		ts := v.LastSeenAt
		view.LastSeenAt = &ts
	}
	if v.RANSharing != nil {
		view.RANSharing = cloneRANSharing(v.RANSharing)
	}
	return view
}

func cloneRANSharing(in *emage.RANSharingInfo) *emage.RANSharingInfo {
	out := &emage.RANSharingInfo{PLMNIDs: slices.Clone(in.PLMNIDs)}
	for _, a := range in.DLAlloc {
		c := emage.CellAllocation{PhysCellID: a.PhysCellID}
		for _, sf := range a.Subframes {
			c.Subframes = append(c.Subframes, emage.Subframe{RBsAlloc: slices.Clone(sf.RBsAlloc)})
		}
		out.DLAlloc = append(out.DLAlloc, c)
	}
	return out
}

type ueView struct {
	Addr         models.UEKey                  `json:"addr"`
	IMSI         uint64                        `json:"imsi"`
	TenantID     *uuid.UUID                    `json:"tenant_id,omitempty"`
	PLMNID       uint32                        `json:"plmn_id"`
	RRCState     uint32                        `json:"rrc_state"`
	Capabilities *emage.UECapabilities         `json:"capabilities,omitempty"`
	PCell        *models.Measurement           `json:"pcell,omitempty"`
	Measurements map[uint32]models.Measurement `json:"rrc_meas"`
}

func newUEView(ue *models.UE) ueView {
	view := ueView{
		Addr:         ue.Key,
		IMSI:         ue.IMSI,
		PLMNID:       ue.PLMNID(),
		RRCState:     ue.RRCState,
		Measurements: maps.Clone(ue.Measurements),
	}
	if ue.Tenant != nil {
		id := ue.Tenant.ID
		view.TenantID = &id
	}
	if ue.Capabilities != nil {
		c := *ue.Capabilities
		view.Capabilities = &c
	}
	if ue.PCell != nil {
		m := *ue.PCell
		view.PCell = &m
	}
	return view
}

type sessionView struct {
	Addr          emage.EtherAddress     `json:"addr"`
	NetBSSID      emage.EtherAddress     `json:"net_bssid"`
	LVAPBSSID     emage.EtherAddress     `json:"lvap_bssid"`
	SSID          string                 `json:"ssid"`
	SSIDs         []string               `json:"ssids"`
	TenantID      *uuid.UUID             `json:"tenant_id,omitempty"`
	Authenticated bool                   `json:"authentication_state"`
	Associated    bool                   `json:"association_state"`
	AssocID       uint32                 `json:"assoc_id"`
	Encap         emage.EtherAddress     `json:"encap"`
	VBS           *emage.EtherAddress    `json:"vbs,omitempty"`
	Blocks        []models.ResourceBlock `json:"blocks"`
	Ports         []session.RadioPort    `json:"ports"`
	Pending       []uint32               `json:"pending"`
	POA           *uuid.UUID             `json:"poa_id,omitempty"`
}

func newSessionView(s *session.Session) sessionView {
	view := sessionView{
		Addr:          s.Addr,
		NetBSSID:      s.NetBSSID,
		LVAPBSSID:     s.LVAPBSSID(),
		SSID:          s.SSID(),
		SSIDs:         s.SSIDs(),
		Authenticated: s.Authenticated(),
		Associated:    s.Associated(),
		AssocID:       s.AssocID(),
		Encap:         s.Encap(),
		Blocks:        s.Blocks(),
		Ports:         s.Ports(),
		Pending:       s.Pending(),
	}
	if t := s.Tenant(); t != nil {
		id := t.ID
		view.TenantID = &id
	}
	if addr, ok := s.Station(); ok {
		view.VBS = &addr
	}
	if id := s.POAID(); id != uuid.Nil {
		view.POA = &id
	}
	for i := range view.Ports {
		view.Ports[i].MCS = slices.Clone(view.Ports[i].MCS)
	}
	return view
}

type topologyLink struct {
	PCI  uint32  `json:"pci"`
	RSRP float64 `json:"rsrp"`
	RSRQ float64 `json:"rsrq"`
}

type topologyUE struct {
	Addr  models.UEKey        `json:"addr"`
	VBS   emage.EtherAddress  `json:"vbs"`
	PCell *models.Measurement `json:"pcell,omitempty"`
	Links []topologyLink      `json:"links"`
}

type topologyView struct {
	VBSes    []vbsView     `json:"vbses"`
	UEs      []topologyUE  `json:"ues"`
	Sessions []sessionView `json:"sessions"`
}

func newTopologyLinks(ue *models.UE) []topologyLink {
	links := make([]topologyLink, 0, len(ue.Measurements))
	for pci, m := range ue.Measurements {
		links = append(links, topologyLink{PCI: pci, RSRP: m.RSRP, RSRQ: m.RSRQ})
	}
	sort.Slice(links, func(i, j int) bool { return links[i].PCI < links[j].PCI })
	return links
}
