package handover

import (
	"errors"
	"fmt"
)

// ErrInvalidParam 参数超出允许范围
var ErrInvalidParam = errors.New("invalid handover parameter")

// 参数取值范围
const (
	MinRSRQThreshold = -20.0
	MaxRSRQThreshold = -3.0
)

// Params 负载均衡切换参数
type Params struct {
	LoadBalance bool    `json:"load_balance" yaml:"load_balance"`
	SourceDL    float64 `json:"s_dl_thr" yaml:"s_dl_thr"`
	SourceUL    float64 `json:"s_ul_thr" yaml:"s_ul_thr"`
	TargetDL    float64 `json:"t_dl_thr" yaml:"t_dl_thr"`
	TargetUL    float64 `json:"t_ul_thr" yaml:"t_ul_thr"`
	RSRQThr     float64 `json:"rsrq_thr" yaml:"rsrq_thr"`
	MinUE       int     `json:"min_ue" yaml:"min_ue"`
	MaxHOFrom   int     `json:"max_ho_from" yaml:"max_ho_from"`
	MaxHOTo     int     `json:"max_ho_to" yaml:"max_ho_to"`
}

// DefaultParams 默认参数
func DefaultParams() Params {
	return Params{
		LoadBalance: true,
		SourceDL:    10,
		SourceUL:    10,
		TargetDL:    30,
		TargetUL:    30,
		RSRQThr:     -20,
		MinUE:       1,
		MaxHOFrom:   1,
		MaxHOTo:     1,
	}
}

// Validate 检查全部参数的取值范围
func (p Params) Validate() error {
	for _, f := range []struct {
		name  string
		value float64
	}{
		{"s_dl_thr", p.SourceDL},
		{"s_ul_thr", p.SourceUL},
		{"t_dl_thr", p.TargetDL},
		{"t_ul_thr", p.TargetUL},
	} {
		if f.value < 0 || f.value > 100 {
			return fmt.Errorf("%w: %s=%v not in [0, 100]", ErrInvalidParam, f.name, f.value)
		}
	}

	if p.RSRQThr < MinRSRQThreshold || p.RSRQThr > MaxRSRQThreshold {
		return fmt.Errorf("%w: rsrq_thr=%v not in [%v, %v]", ErrInvalidParam, p.RSRQThr, MinRSRQThreshold, MaxRSRQThreshold)
	}

	for _, f := range []struct {
		name  string
		value int
	}{
		{"min_ue", p.MinUE},
		{"max_ho_from", p.MaxHOFrom},
		{"max_ho_to", p.MaxHOTo},
	} {
		if f.value < 0 {
			return fmt.Errorf("%w: %s=%d must not be negative", ErrInvalidParam, f.name, f.value)
		}
	}

	return nil
}
