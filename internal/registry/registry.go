package registry

import (
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/ran-controller/ran-controller-pro/internal/models"
	"github.com/ran-controller/ran-controller-pro/internal/session"
	"github.com/ran-controller/ran-controller-pro/pkg/emage"
)

// Common errors
var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("already registered")
)

// Registry 控制器运行时状态：租户、基站、终端、会话
// 只由调度循环访问，不加锁
type Registry struct {
	tenants      []*models.Tenant
	tenantByID   map[uuid.UUID]*models.Tenant
	vbses        []*models.VBS
	vbsByAddr    map[emage.EtherAddress]*models.VBS
	ues          map[models.UEKey]*models.UE
	sessions     []*session.Session
	sessionByMAC map[emage.EtherAddress]*session.Session
}

// New creates an empty registry
func New() *Registry {
	return &Registry{
		tenantByID:   make(map[uuid.UUID]*models.Tenant),
		vbsByAddr:    make(map[emage.EtherAddress]*models.VBS),
		ues:          make(map[models.UEKey]*models.UE),
		sessionByMAC: make(map[emage.EtherAddress]*session.Session),
	}
}

// AddTenant 注册租户；ID为空时自动生成
func (r *Registry) AddTenant(t *models.Tenant) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	if _, ok := r.tenantByID[t.ID]; ok {
		return fmt.Errorf("tenant %s: %w", t.ID, ErrDuplicate)
	}
	if t.PLMNID != 0 {
		if other := r.TenantByPLMN(t.PLMNID); other != nil {
			return fmt.Errorf("tenant plmn %06x owned by %s: %w", t.PLMNID, other.Name, ErrDuplicate)
		}
	}
	if t.UEs == nil {
		t.UEs = make(map[models.UEKey]*models.UE)
	}

	r.tenants = append(r.tenants, t)
	r.tenantByID[t.ID] = t
	return nil
}

// RemoveTenant 删除租户并把其终端移出切片
func (r *Registry) RemoveTenant(id uuid.UUID) error {
	t, ok := r.tenantByID[id]
	if !ok {
		return fmt.Errorf("tenant %s: %w", id, ErrNotFound)
	}

	for _, ue := range t.UEs {
		t.RemoveUE(ue)
	}
	delete(r.tenantByID, id)
	for i, cur := range r.tenants {
		if cur == t {
			r.tenants = append(r.tenants[:i], r.tenants[i+1:]...)
			break
		}
	}
	return nil
}

// TenantByID 按ID查找租户
func (r *Registry) TenantByID(id uuid.UUID) (*models.Tenant, bool) {
	t, ok := r.tenantByID[id]
	return t, ok
}

// TenantByPLMN 按PLMN查找租户，PLMN为0时总是返回nil
func (r *Registry) TenantByPLMN(plmnID uint32) *models.Tenant {
	if plmnID == 0 {
		return nil
	}
	for _, t := range r.tenants {
		if t.PLMNID == plmnID {
			return t
		}
	}
	return nil
}

// Tenants 按注册顺序返回全部租户
func (r *Registry) Tenants() []*models.Tenant {
	return append([]*models.Tenant(nil), r.tenants...)
}

// TenantsWithVBS 返回开通了该基站的租户
func (r *Registry) TenantsWithVBS(addr emage.EtherAddress) []*models.Tenant {
	var out []*models.Tenant
	for _, t := range r.tenants {
		if t.HasVBS(addr) {
			out = append(out, t)
		}
	}
	return out
}

// AddVBS 注册基站
func (r *Registry) AddVBS(v *models.VBS) error {
	if v.Addr.IsZero() {
		return fmt.Errorf("vbs without address: %w", session.ErrInvalidArgument)
	}
	if _, ok := r.vbsByAddr[v.Addr]; ok {
		return fmt.Errorf("vbs %s: %w", v.Addr, ErrDuplicate)
	}
	if v.UEs == nil {
		v.UEs = make(map[uint32]*models.UE)
	}

	r.vbses = append(r.vbses, v)
	r.vbsByAddr[v.Addr] = v
	return nil
}

// VBS 按地址查找基站
func (r *Registry) VBS(addr emage.EtherAddress) (*models.VBS, bool) {
	v, ok := r.vbsByAddr[addr]
	return v, ok
}

// VBSByEnbID 按协议头中的基站标识查找
func (r *Registry) VBSByEnbID(enbID uint64) (*models.VBS, bool) {
	return r.VBS(emage.FromEnbID(enbID))
}

// VBSes 按注册顺序返回全部基站
func (r *Registry) VBSes() []*models.VBS {
	return append([]*models.VBS(nil), r.vbses...)
}

// AddUE 注册终端并挂到服务基站
func (r *Registry) AddUE(ue *models.UE) {
	r.ues[ue.Key] = ue
	if ue.VBS != nil {
		ue.VBS.UEs[ue.RNTI()] = ue
	}
}

// UE 按标识查找终端
func (r *Registry) UE(key models.UEKey) (*models.UE, bool) {
	ue, ok := r.ues[key]
	return ue, ok
}

// UEs 返回全部终端，按基站注册顺序及RNTI排序
func (r *Registry) UEs() []*models.UE {
	var out []*models.UE
	for _, v := range r.vbses {
		out = append(out, r.UEsOf(v.Addr)...)
	}
	return out
}

// UEsOf 返回某基站服务的终端，按RNTI排序
func (r *Registry) UEsOf(addr emage.EtherAddress) []*models.UE {
	v, ok := r.vbsByAddr[addr]
	if !ok {
		return nil
	}
	out := make([]*models.UE, 0, len(v.UEs))
	for _, ue := range v.UEs {
		out = append(out, ue)
	}
	sortUEs(out)
	return out
}

// RemoveUE 删除终端，同时移出切片和服务基站
func (r *Registry) RemoveUE(ue *models.UE) {
	if ue.Tenant != nil {
		ue.Tenant.RemoveUE(ue)
	}
	if ue.VBS != nil && ue.VBS.UEs[ue.RNTI()] == ue {
		delete(ue.VBS.UEs, ue.RNTI())
	}
	delete(r.ues, ue.Key)
}

// AddSession 注册会话
func (r *Registry) AddSession(s *session.Session) error {
	if _, ok := r.sessionByMAC[s.Addr]; ok {
		return fmt.Errorf("session %s: %w", s.Addr, ErrDuplicate)
	}
	r.sessions = append(r.sessions, s)
	r.sessionByMAC[s.Addr] = s
	return nil
}

// Session 按终端地址查找会话
func (r *Registry) Session(addr emage.EtherAddress) (*session.Session, bool) {
	s, ok := r.sessionByMAC[addr]
	return s, ok
}

// Sessions 按创建顺序返回全部会话
func (r *Registry) Sessions() []*session.Session {
	return append([]*session.Session(nil), r.sessions...)
}

// SessionsAt 返回下行绑定在该基站上的会话
func (r *Registry) SessionsAt(station emage.EtherAddress) []*session.Session {
	var out []*session.Session
	for _, s := range r.sessions {
		if addr, ok := s.Station(); ok && addr == station {
			out = append(out, s)
		}
	}
	return out
}

// RemoveSession 清除会话绑定并删除会话
func (r *Registry) RemoveSession(addr emage.EtherAddress) (*session.Session, error) {
	s, ok := r.sessionByMAC[addr]
	if !ok {
		return nil, fmt.Errorf("session %s: %w", addr, ErrNotFound)
	}

	s.Clear()
	delete(r.sessionByMAC, addr)
	for i, cur := range r.sessions {
		if cur == s {
			r.sessions = append(r.sessions[:i], r.sessions[i+1:]...)
			break
		}
	}
	return s, nil
}

func sortUEs(ues []*models.UE) {
	sort.Slice(ues, func(i, j int) bool {
		return ues[i].RNTI() < ues[j].RNTI()
	})
}
