package handover

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/ran-controller/ran-controller-pro/internal/models"
	"github.com/ran-controller/ran-controller-pro/internal/registry"
)

// DefaultPeriod 默认决策周期
const DefaultPeriod = 5 * time.Second

// Manager 周期性负载均衡切换管理器
// 参数可被API并发读写；Run只应在调度循环内调用
type Manager struct {
	mu     sync.RWMutex
	params Params
	period time.Duration
	tenant *uuid.UUID
}

// NewManager creates a manager; tenant limits evaluation to one slice when set
func NewManager(params Params, period time.Duration, tenant *uuid.UUID) (*Manager, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if period <= 0 {
		period = DefaultPeriod
	}
	return &Manager{params: params, period: period, tenant: tenant}, nil
}

// Params 当前参数
func (m *Manager) Params() Params {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.params
}

// SetParams 校验并替换参数，失败时保留原值
func (m *Manager) SetParams(p Params) error {
	if err := p.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	m.params = p
	m.mu.Unlock()

	log.Info().Interface("params", p).Msg("切换参数已更新")
	return nil
}

// Period 决策周期
func (m *Manager) Period() time.Duration {
	return m.period
}

// Tenant 作用范围，为nil时覆盖全部终端
func (m *Manager) Tenant() *uuid.UUID {
	return m.tenant
}

// Run 对注册表执行一轮决策
func (m *Manager) Run(reg *registry.Registry) Result {
	p := m.Params()
	if !p.LoadBalance {
		return Result{}
	}

	ues := reg.UEs()
	if m.tenant != nil {
		t, ok := reg.TenantByID(*m.tenant)
		if !ok {
			log.Warn().Str("tenant", m.tenant.String()).Msg("切换作用租户不存在")
			return Result{}
		}
		ues = sliceUEs(ues, t)
	}

	res := Evaluate(p, reg.VBSes(), ues)
	for i := range res.Commands {
		res.Commands[i].TenantID = m.tenant
	}

	if len(res.Commands) > 0 {
		log.Debug().Int("count", len(res.Commands)).Msg("负载均衡决策完成")
	}
	return res
}

func sliceUEs(ues []*models.UE, t *models.Tenant) []*models.UE {
	var out []*models.UE
	for _, ue := range ues {
		if ue.Tenant == t {
			out = append(out, ue)
		}
	}
	return out
}
