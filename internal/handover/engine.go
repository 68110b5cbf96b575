package handover

import (
	"github.com/ran-controller/ran-controller-pro/internal/models"
	"github.com/ran-controller/ran-controller-pro/pkg/emage"
)

// Result 一轮决策的输出
type Result struct {
	Commands   []models.HandoverCommand
	Originated map[emage.EtherAddress]int
	Accepted   map[emage.EtherAddress]int
}

type candidate struct {
	vbs    *models.VBS
	cells  []uint32
	ues    []*models.UE
	numUEs int
}

type candidates struct {
	order []*candidate
	index map[emage.EtherAddress]*candidate
}

func newCandidates() *candidates {
	return &candidates{index: make(map[emage.EtherAddress]*candidate)}
}

func (c *candidates) add(v *models.VBS, cellID uint32) {
	cand, ok := c.index[v.Addr]
	if !ok {
		cand = &candidate{vbs: v}
		c.index[v.Addr] = cand
		c.order = append(c.order, cand)
	}
	cand.cells = append(cand.cells, cellID)
}

func (c *candidates) attach(ue *models.UE) {
	if cand, ok := c.index[ue.Key.VBS]; ok {
		cand.ues = append(cand.ues, ue)
		cand.numUEs++
	}
}

// Evaluate 执行一轮贪心的负载均衡决策
// stations 与 ues 的顺序决定扫描顺序；函数只读输入
func Evaluate(p Params, stations []*models.VBS, ues []*models.UE) Result {
	res := Result{
		Originated: make(map[emage.EtherAddress]int),
		Accepted:   make(map[emage.EtherAddress]int),
	}

	sources, targets := newCandidates(), newCandidates()

	for _, v := range stations {
		if !v.Connected() || len(v.CellStats) == 0 {
			continue
		}
		for _, st := range v.CellStats {
			if (st.HasDL && st.DLPerc > p.SourceDL) || (st.HasUL && st.ULPerc > p.SourceUL) {
				sources.add(v, st.CellID)
			}
			if st.HasDL && st.DLPerc < p.TargetDL && st.HasUL && st.ULPerc < p.TargetUL {
				targets.add(v, st.CellID)
			}
		}
	}

	for _, ue := range ues {
		sources.attach(ue)
		targets.attach(ue)
	}

	for _, src := range sources.order {
		if len(src.ues) <= p.MinUE {
			continue
		}

		for _, ue := range src.ues {
			for _, tgt := range targets.order {
				if res.Originated[src.vbs.Addr] >= p.MaxHOFrom {
					continue
				}
				if src.numUEs <= p.MinUE {
					continue
				}
				if res.Accepted[tgt.vbs.Addr] >= p.MaxHOTo {
					continue
				}

				cmd, ok := pick(p, ue, src, tgt)
				if !ok {
					continue
				}

				res.Commands = append(res.Commands, cmd)
				tgt.numUEs++
				src.numUEs--
				res.Accepted[tgt.vbs.Addr]++
				res.Originated[src.vbs.Addr]++
				break
			}
		}
	}

	return res
}

// pick 返回目标基站上第一个满足RSRQ门限的小区
func pick(p Params, ue *models.UE, src, tgt *candidate) (models.HandoverCommand, bool) {
	for _, cell := range tgt.cells {
		rsrq, ok := ue.RSRQ(cell)
		if !ok || rsrq <= p.RSRQThr {
			continue
		}
		return models.HandoverCommand{
			RNTI:    ue.RNTI(),
			SrcVBS:  src.vbs.Addr,
			DstVBS:  tgt.vbs.Addr,
			SrcCell: src.cells[0],
			DstCell: cell,
			Cause:   emage.CauseResourceOptimization,
		}, true
	}
	return models.HandoverCommand{}, false
}
