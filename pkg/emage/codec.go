package emage

import (
	"errors"
	"fmt"
	"math"

	"google.golang.org/protobuf/encoding/protowire"
)

var (
	// ErrDecode 报文格式错误或消息类型无法识别
	ErrDecode = errors.New("emage: decode error")
	// ErrEncode 消息无法编码
	ErrEncode = errors.New("emage: encode error")
)

// 顶层与事件包装的字段号
const (
	fieldHead     protowire.Number = 1
	fieldInterval protowire.Number = 15
	fieldAction   protowire.Number = 16
)

// Encode 将消息编码为protobuf线格式
func Encode(m *Message) ([]byte, error) {
	if m == nil || m.Body == nil {
		return nil, fmt.Errorf("%w: message without body", ErrEncode)
	}
	if m.Event < EventSingle || m.Event > EventTriggered {
		return nil, fmt.Errorf("%w: invalid event kind %d", ErrEncode, m.Event)
	}

	var body encoder
	if err := encodeBody(&body, m.Body); err != nil {
		return nil, err
	}

	var e encoder
	e.message(fieldHead, func(h *encoder) {
		h.varint(1, uint64(m.Header.Version))
		h.varint(2, uint64(m.Header.TID))
		h.varint(3, m.Header.BID)
		h.varint(4, uint64(m.Header.Seq))
	})
	e.message(protowire.Number(m.Event)+1, func(ev *encoder) {
		ev.embed(protowire.Number(m.Body.Kind()), body)
		if m.Event == EventScheduled {
			ev.varint(fieldInterval, uint64(m.Interval))
		}
		if m.Event != EventSingle {
			ev.varint(fieldAction, uint64(m.Action))
		}
	})

	return e, nil
}

// Decode 解析protobuf线格式的消息
func Decode(data []byte) (*Message, error) {
	d := &decoder{}
	m := &Message{}

	d.each(data, func(f field) {
		switch f.num {
		case fieldHead:
			d.each(d.bytes(f), func(g field) {
				switch g.num {
				case 1:
					m.Header.Version = d.u32(g)
				case 2:
					m.Header.TID = d.u32(g)
				case 3:
					m.Header.BID = d.u64(g)
				case 4:
					m.Header.Seq = d.u32(g)
				}
			})
		case 2, 3, 4:
			m.Event = EventKind(f.num - 1)
			d.event(d.bytes(f), m)
		}
	})

	if d.err != nil {
		return nil, d.err
	}
	if m.Event == 0 || m.Body == nil {
		return nil, fmt.Errorf("%w: missing event", ErrDecode)
	}
	return m, nil
}

func (d *decoder) event(b []byte, m *Message) {
	d.each(b, func(f field) {
		switch {
		case f.num == fieldInterval:
			m.Interval = d.u32(f)
		case f.num == fieldAction:
			m.Action = Action(d.u32(f))
		case f.num >= protowire.Number(KindHello) && f.num <= protowire.Number(KindSessionStatus):
			m.Body = d.body(Kind(f.num), d.bytes(f))
		default:
			d.fail(fmt.Errorf("%w: unknown message type %d in %s", ErrDecode, f.num, m.Event))
		}
	})
}

// ---------------------------------------------------------------------------
// 编码

type encoder []byte

func (e *encoder) varint(num protowire.Number, v uint64) {
	if v == 0 {
		return
	}
	*e = protowire.AppendTag(*e, num, protowire.VarintType)
	*e = protowire.AppendVarint(*e, v)
}

func (e *encoder) optVarint(num protowire.Number, v *uint32) {
	if v == nil {
		return
	}
	*e = protowire.AppendTag(*e, num, protowire.VarintType)
	*e = protowire.AppendVarint(*e, uint64(*v))
}

func (e *encoder) boolean(num protowire.Number, v bool) {
	if v {
		e.varint(num, 1)
	}
}

func (e *encoder) sint(num protowire.Number, v int32) {
	e.varint(num, protowire.EncodeZigZag(int64(v)))
}

func (e *encoder) double(num protowire.Number, v float64) {
	if v == 0 {
		return
	}
	e.optDouble(num, &v)
}

func (e *encoder) optDouble(num protowire.Number, v *float64) {
	if v == nil {
		return
	}
	*e = protowire.AppendTag(*e, num, protowire.Fixed64Type)
	*e = protowire.AppendFixed64(*e, math.Float64bits(*v))
}

func (e *encoder) str(num protowire.Number, s string) {
	*e = protowire.AppendTag(*e, num, protowire.BytesType)
	*e = protowire.AppendString(*e, s)
}

func (e *encoder) addr(num protowire.Number, a EtherAddress) {
	if a.IsZero() {
		return
	}
	e.embed(num, a[:])
}

func (e *encoder) packed(num protowire.Number, vs []uint32) {
	if len(vs) == 0 {
		return
	}
	var p []byte
	for _, v := range vs {
		p = protowire.AppendVarint(p, uint64(v))
	}
	e.embed(num, p)
}

func (e *encoder) embed(num protowire.Number, b []byte) {
	*e = protowire.AppendTag(*e, num, protowire.BytesType)
	*e = protowire.AppendBytes(*e, b)
}

func (e *encoder) message(num protowire.Number, fn func(*encoder)) {
	var sub encoder
	fn(&sub)
	e.embed(num, sub)
}

func (e *encoder) reqRepl(hasReq bool, req func(*encoder), hasRepl bool, repl func(*encoder)) {
	if hasReq {
		e.message(1, req)
	}
	if hasRepl {
		e.message(2, repl)
	}
}

func (e *encoder) cellAllocations(num protowire.Number, cells []CellAllocation) {
	for _, c := range cells {
		e.message(num, func(ce *encoder) {
			ce.varint(1, uint64(c.PhysCellID))
			for _, sf := range c.Subframes {
				ce.message(2, func(se *encoder) { se.packed(1, sf.RBsAlloc) })
			}
		})
	}
}

func (e *encoder) block(num protowire.Number, b BlockRef) {
	e.message(num, func(be *encoder) {
		be.addr(1, b.HWAddr)
		be.varint(2, uint64(b.Channel))
		be.varint(3, uint64(b.Band))
	})
}

func encodeBody(e *encoder, body Body) error {
	switch b := body.(type) {
	case *Hello:
		e.reqRepl(b.Req != nil, func(r *encoder) {
			r.varint(1, uint64(b.Req.Period))
		}, b.Repl != nil, func(r *encoder) {
			r.varint(1, uint64(b.Repl.Period))
		})

	case *CellsConf:
		e.reqRepl(b.Req != nil, func(r *encoder) {
			r.varint(1, uint64(b.Req.InfoTypes))
		}, b.Repl != nil, func(r *encoder) {
			r.varint(1, uint64(b.Repl.Status))
			for _, c := range b.Repl.Cells {
				r.message(2, func(ce *encoder) {
					ce.varint(1, uint64(c.PhysCellID))
					ce.varint(2, uint64(c.CarrierFreq))
					ce.varint(3, uint64(c.NumRBsDL))
					ce.varint(4, uint64(c.NumRBsUL))
				})
			}
			if b.Repl.RANSharing != nil {
				r.message(3, func(re *encoder) {
					re.packed(1, b.Repl.RANSharing.PLMNIDs)
					re.cellAllocations(2, b.Repl.RANSharing.DLAlloc)
				})
			}
		})

	case *RANSharingCtrl:
		e.reqRepl(b.Req != nil, func(r *encoder) {
			if b.Req.AddTenant != nil {
				r.message(1, func(t *encoder) { t.varint(1, uint64(b.Req.AddTenant.PLMNID)) })
			}
			if b.Req.RemTenant != nil {
				r.message(2, func(t *encoder) { t.varint(1, uint64(b.Req.RemTenant.PLMNID)) })
			}
			if len(b.Req.StaticDL) > 0 {
				r.message(3, func(sel *encoder) {
					sel.message(1, func(s *encoder) { s.cellAllocations(1, b.Req.StaticDL) })
				})
			}
		}, b.Repl != nil, func(r *encoder) {
			r.varint(1, uint64(b.Repl.Status))
		})

	case *CtrlCommands:
		e.reqRepl(b.Req != nil, func(r *encoder) {
			if ho := b.Req.Handover; ho != nil {
				r.message(1, func(h *encoder) {
					h.varint(1, uint64(ho.RNTI))
					h.varint(2, uint64(ho.SCellID))
					h.varint(3, ho.SEnbID)
					h.varint(4, uint64(ho.TCellID))
					h.varint(5, ho.TEnbID)
					h.varint(6, uint64(ho.Cause))
				})
			}
		}, b.Repl != nil, func(r *encoder) {
			r.varint(1, uint64(b.Repl.Status))
		})

	case *UEsID:
		ueID := func(num protowire.Number, ids []UEID, r *encoder) {
			for _, id := range ids {
				r.message(num, func(u *encoder) {
					u.varint(1, uint64(id.RNTI))
					u.varint(2, id.IMSI)
					u.varint(3, uint64(id.PLMNID))
				})
			}
		}
		e.reqRepl(b.Req != nil, func(r *encoder) {
			r.varint(1, uint64(b.Req.Dummy))
		}, b.Repl != nil, func(r *encoder) {
			r.varint(1, uint64(b.Repl.Status))
			ueID(2, b.Repl.Active, r)
			ueID(3, b.Repl.Inactive, r)
		})

	case *RRCMeasConf:
		e.reqRepl(b.Req != nil, func(r *encoder) {
			r.varint(1, uint64(b.Req.RNTI))
		}, b.Repl != nil, func(r *encoder) {
			r.varint(1, uint64(b.Repl.RNTI))
			r.varint(2, uint64(b.Repl.Status))
			r.varint(3, uint64(b.Repl.RRCState))
			if c := b.Repl.Capabilities; c != nil {
				r.message(4, func(ce *encoder) {
					ce.varint(1, uint64(c.Release))
					ce.varint(2, uint64(c.Category))
				})
			}
			r.optVarint(5, b.Repl.Freq)
		})

	case *CellStats:
		e.reqRepl(b.Req != nil, func(r *encoder) {
			r.varint(1, uint64(b.Req.CellID))
			r.varint(2, uint64(b.Req.StatsType))
		}, b.Repl != nil, func(r *encoder) {
			r.varint(1, uint64(b.Repl.Status))
			r.varint(2, uint64(b.Repl.CellID))
			r.optDouble(3, b.Repl.DLPerc)
			r.optDouble(4, b.Repl.ULPerc)
		})

	case *RRCMeas:
		e.reqRepl(b.Req != nil, func(r *encoder) {
			q := b.Req
			r.varint(1, uint64(q.RNTI))
			r.varint(2, uint64(q.RAT))
			r.varint(3, uint64(q.CarrierFreq))
			r.varint(4, uint64(q.Bandwidth))
			r.varint(5, uint64(q.ReportType))
			r.varint(6, uint64(q.ReportInterval))
			r.varint(7, uint64(q.TriggerQuantity))
			r.sint(8, q.NumReports)
			r.varint(9, uint64(q.MaxReportCells))
			r.packed(10, q.CellsToMeasure)
			r.packed(11, q.BlacklistCells)
		}, b.Repl != nil, func(r *encoder) {
			r.varint(1, uint64(b.Repl.RNTI))
			r.varint(2, uint64(b.Repl.Status))
			if p := b.Repl.PCell; p != nil {
				r.message(3, func(pe *encoder) {
					pe.double(1, p.RSRP)
					pe.double(2, p.RSRQ)
				})
			}
			for _, n := range b.Repl.Neighbours {
				r.message(4, func(ne *encoder) {
					ne.varint(1, uint64(n.PCI))
					ne.double(2, n.RSRP)
					ne.double(3, n.RSRQ)
				})
			}
		})

	case *SessionCtrl:
		e.reqRepl(b.Req != nil, func(r *encoder) {
			q := b.Req
			r.varint(1, uint64(q.Op))
			r.varint(2, uint64(q.ModuleID))
			r.addr(3, q.Station)
			r.addr(4, q.NetBSSID)
			r.addr(5, q.LVAPBSSID)
			r.block(6, q.Block)
			r.boolean(7, q.Downlink)
			r.varint(8, uint64(q.Flags))
			r.varint(9, uint64(q.AssocID))
			for _, s := range q.SSIDs {
				r.str(10, s)
			}
			r.packed(11, q.MCS)
			r.addr(12, q.Encap)
			if q.TargetBlock != nil {
				r.block(13, *q.TargetBlock)
			}
		}, b.Repl != nil, func(r *encoder) {
			r.varint(1, uint64(b.Repl.ModuleID))
			r.addr(2, b.Repl.Station)
			r.varint(3, uint64(b.Repl.Status))
		})

	case *SessionStatus:
		e.reqRepl(b.Req != nil, func(r *encoder) {
			r.addr(1, b.Req.Station)
		}, b.Repl != nil, func(r *encoder) {
			p := b.Repl
			r.addr(1, p.Station)
			r.addr(2, p.NetBSSID)
			r.addr(3, p.LVAPBSSID)
			r.block(4, p.Block)
			r.varint(5, uint64(p.Flags))
			r.varint(6, uint64(p.AssocID))
			if p.SSID != "" {
				r.str(7, p.SSID)
			}
			r.boolean(8, p.Attached)
		})

	default:
		return fmt.Errorf("%w: unsupported body %T", ErrEncode, body)
	}

	return nil
}

// ---------------------------------------------------------------------------
// 解码

type field struct {
	num protowire.Number
	typ protowire.Type
	u   uint64
	b   []byte
}

type decoder struct {
	err error
}

func (d *decoder) fail(err error) {
	if d.err == nil {
		d.err = err
	}
}

func (d *decoder) wrongType(f field) {
	d.fail(fmt.Errorf("%w: field %d has wire type %d", ErrDecode, f.num, f.typ))
}

// each 逐字段遍历，出错后停止
func (d *decoder) each(b []byte, fn func(f field)) {
	for len(b) > 0 && d.err == nil {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			d.fail(fmt.Errorf("%w: %v", ErrDecode, protowire.ParseError(n)))
			return
		}
		b = b[n:]

		f := field{num: num, typ: typ}
		switch typ {
		case protowire.VarintType:
			f.u, n = protowire.ConsumeVarint(b)
		case protowire.Fixed64Type:
			f.u, n = protowire.ConsumeFixed64(b)
		case protowire.Fixed32Type:
			var v uint32
			v, n = protowire.ConsumeFixed32(b)
			f.u = uint64(v)
		case protowire.BytesType:
			f.b, n = protowire.ConsumeBytes(b)
		default:
			n = protowire.ConsumeFieldValue(num, typ, b)
		}
		if n < 0 {
			d.fail(fmt.Errorf("%w: %v", ErrDecode, protowire.ParseError(n)))
			return
		}
		b = b[n:]

		fn(f)
	}
}

func (d *decoder) u32(f field) uint32 {
	if f.typ != protowire.VarintType {
		d.wrongType(f)
		return 0
	}
	return uint32(f.u)
}

func (d *decoder) u64(f field) uint64 {
	if f.typ != protowire.VarintType {
		d.wrongType(f)
		return 0
	}
	return f.u
}

func (d *decoder) sint(f field) int32 {
	if f.typ != protowire.VarintType {
		d.wrongType(f)
		return 0
	}
	return int32(protowire.DecodeZigZag(f.u))
}

func (d *decoder) boolean(f field) bool {
	return d.u64(f) != 0
}

func (d *decoder) f64(f field) float64 {
	if f.typ != protowire.Fixed64Type {
		d.wrongType(f)
		return 0
	}
	return math.Float64frombits(f.u)
}

func (d *decoder) bytes(f field) []byte {
	if f.typ != protowire.BytesType {
		d.wrongType(f)
		return nil
	}
	return f.b
}

func (d *decoder) str(f field) string {
	return string(d.bytes(f))
}

func (d *decoder) addr(f field) EtherAddress {
	var a EtherAddress
	b := d.bytes(f)
	if d.err != nil {
		return a
	}
	if len(b) != len(a) {
		d.fail(fmt.Errorf("%w: field %d address length %d", ErrDecode, f.num, len(b)))
		return a
	}
	copy(a[:], b)
	return a
}

// packed 同时接受打包和非打包编码
func (d *decoder) packed(f field, dst []uint32) []uint32 {
	if f.typ == protowire.VarintType {
		return append(dst, uint32(f.u))
	}
	b := d.bytes(f)
	for len(b) > 0 && d.err == nil {
		v, n := protowire.ConsumeVarint(b)
		if n < 0 {
			d.fail(fmt.Errorf("%w: %v", ErrDecode, protowire.ParseError(n)))
			break
		}
		dst = append(dst, uint32(v))
		b = b[n:]
	}
	return dst
}

func (d *decoder) reqRepl(b []byte, req, repl func([]byte)) {
	d.each(b, func(f field) {
		switch f.num {
		case 1:
			req(d.bytes(f))
		case 2:
			repl(d.bytes(f))
		}
	})
}

func (d *decoder) cellAllocation(b []byte) CellAllocation {
	var c CellAllocation
	d.each(b, func(f field) {
		switch f.num {
		case 1:
			c.PhysCellID = d.u32(f)
		case 2:
			var sf Subframe
			d.each(d.bytes(f), func(g field) {
				if g.num == 1 {
					sf.RBsAlloc = d.packed(g, sf.RBsAlloc)
				}
			})
			c.Subframes = append(c.Subframes, sf)
		}
	})
	return c
}

func (d *decoder) block(b []byte) BlockRef {
	var r BlockRef
	d.each(b, func(f field) {
		switch f.num {
		case 1:
			r.HWAddr = d.addr(f)
		case 2:
			r.Channel = d.u32(f)
		case 3:
			r.Band = d.u32(f)
		}
	})
	return r
}

func (d *decoder) body(kind Kind, b []byte) Body {
	switch kind {
	case KindHello:
		m := &Hello{}
		d.reqRepl(b, func(p []byte) {
			m.Req = &HelloReq{}
			d.each(p, func(f field) {
				if f.num == 1 {
					m.Req.Period = d.u32(f)
				}
			})
		}, func(p []byte) {
			m.Repl = &HelloRepl{}
			d.each(p, func(f field) {
				if f.num == 1 {
					m.Repl.Period = d.u32(f)
				}
			})
		})
		return m

	case KindCellsConf:
		m := &CellsConf{}
		d.reqRepl(b, func(p []byte) {
			m.Req = &CellsConfReq{}
			d.each(p, func(f field) {
				if f.num == 1 {
					m.Req.InfoTypes = d.u32(f)
				}
			})
		}, func(p []byte) {
			m.Repl = &CellsConfRepl{}
			d.each(p, func(f field) {
				switch f.num {
				case 1:
					m.Repl.Status = Status(d.u32(f))
				case 2:
					var c Cell
					d.each(d.bytes(f), func(g field) {
						switch g.num {
						case 1:
							c.PhysCellID = d.u32(g)
						case 2:
							c.CarrierFreq = d.u32(g)
						case 3:
							c.NumRBsDL = d.u32(g)
						case 4:
							c.NumRBsUL = d.u32(g)
						}
					})
					m.Repl.Cells = append(m.Repl.Cells, c)
				case 3:
					info := &RANSharingInfo{}
					d.each(d.bytes(f), func(g field) {
						switch g.num {
						case 1:
							info.PLMNIDs = d.packed(g, info.PLMNIDs)
						case 2:
							info.DLAlloc = append(info.DLAlloc, d.cellAllocation(d.bytes(g)))
						}
					})
					m.Repl.RANSharing = info
				}
			})
		})
		return m

	case KindRANSharingCtrl:
		m := &RANSharingCtrl{}
		tenantRef := func(p []byte) *TenantRef {
			t := &TenantRef{}
			d.each(p, func(f field) {
				if f.num == 1 {
					t.PLMNID = d.u32(f)
				}
			})
			return t
		}
		d.reqRepl(b, func(p []byte) {
			m.Req = &RANSharingCtrlReq{}
			d.each(p, func(f field) {
				switch f.num {
				case 1:
					m.Req.AddTenant = tenantRef(d.bytes(f))
				case 2:
					m.Req.RemTenant = tenantRef(d.bytes(f))
				case 3:
					d.each(d.bytes(f), func(g field) {
						if g.num != 1 {
							return
						}
						d.each(d.bytes(g), func(h field) {
							if h.num == 1 {
								m.Req.StaticDL = append(m.Req.StaticDL, d.cellAllocation(d.bytes(h)))
							}
						})
					})
				}
			})
		}, func(p []byte) {
			m.Repl = &RANSharingCtrlRepl{}
			d.each(p, func(f field) {
				if f.num == 1 {
					m.Repl.Status = Status(d.u32(f))
				}
			})
		})
		return m

	case KindCtrlCommands:
		m := &CtrlCommands{}
		d.reqRepl(b, func(p []byte) {
			m.Req = &CtrlCommandsReq{}
			d.each(p, func(f field) {
				if f.num != 1 {
					return
				}
				ho := &HandoverReq{}
				d.each(d.bytes(f), func(g field) {
					switch g.num {
					case 1:
						ho.RNTI = d.u32(g)
					case 2:
						ho.SCellID = d.u32(g)
					case 3:
						ho.SEnbID = d.u64(g)
					case 4:
						ho.TCellID = d.u32(g)
					case 5:
						ho.TEnbID = d.u64(g)
					case 6:
						ho.Cause = HandoverCause(d.u32(g))
					}
				})
				m.Req.Handover = ho
			})
		}, func(p []byte) {
			m.Repl = &CtrlCommandsRepl{}
			d.each(p, func(f field) {
				if f.num == 1 {
					m.Repl.Status = Status(d.u32(f))
				}
			})
		})
		return m

	case KindUEsID:
		m := &UEsID{}
		ueID := func(p []byte) UEID {
			var id UEID
			d.each(p, func(f field) {
				switch f.num {
				case 1:
					id.RNTI = d.u32(f)
				case 2:
					id.IMSI = d.u64(f)
				case 3:
					id.PLMNID = d.u32(f)
				}
			})
			return id
		}
		d.reqRepl(b, func(p []byte) {
			m.Req = &UEsIDReq{}
			d.each(p, func(f field) {
				if f.num == 1 {
					m.Req.Dummy = d.u32(f)
				}
			})
		}, func(p []byte) {
			m.Repl = &UEsIDRepl{}
			d.each(p, func(f field) {
				switch f.num {
				case 1:
					m.Repl.Status = Status(d.u32(f))
				case 2:
					m.Repl.Active = append(m.Repl.Active, ueID(d.bytes(f)))
				case 3:
					m.Repl.Inactive = append(m.Repl.Inactive, ueID(d.bytes(f)))
				}
			})
		})
		return m

	case KindRRCMeasConf:
		m := &RRCMeasConf{}
		d.reqRepl(b, func(p []byte) {
			m.Req = &RRCMeasConfReq{}
			d.each(p, func(f field) {
				if f.num == 1 {
					m.Req.RNTI = d.u32(f)
				}
			})
		}, func(p []byte) {
			m.Repl = &RRCMeasConfRepl{}
			d.each(p, func(f field) {
				switch f.num {
				case 1:
					m.Repl.RNTI = d.u32(f)
				case 2:
					m.Repl.Status = Status(d.u32(f))
				case 3:
					m.Repl.RRCState = d.u32(f)
				case 4:
					c := &UECapabilities{}
					d.each(d.bytes(f), func(g field) {
						switch g.num {
						case 1:
							c.Release = d.u32(g)
						case 2:
							c.Category = d.u32(g)
						}
					})
					m.Repl.Capabilities = c
				case 5:
					freq := d.u32(f)
					m.Repl.Freq = &freq
				}
			})
		})
		return m

	case KindCellStats:
		m := &CellStats{}
		d.reqRepl(b, func(p []byte) {
			m.Req = &CellStatsReq{}
			d.each(p, func(f field) {
				switch f.num {
				case 1:
					m.Req.CellID = d.u32(f)
				case 2:
					m.Req.StatsType = d.u32(f)
				}
			})
		}, func(p []byte) {
			m.Repl = &CellStatsRepl{}
			d.each(p, func(f field) {
				switch f.num {
				case 1:
					m.Repl.Status = Status(d.u32(f))
				case 2:
					m.Repl.CellID = d.u32(f)
				case 3:
					v := d.f64(f)
					m.Repl.DLPerc = &v
				case 4:
					v := d.f64(f)
					m.Repl.ULPerc = &v
				}
			})
		})
		return m

	case KindRRCMeas:
		m := &RRCMeas{}
		d.reqRepl(b, func(p []byte) {
			q := &RRCMeasReq{}
			d.each(p, func(f field) {
				switch f.num {
				case 1:
					q.RNTI = d.u32(f)
				case 2:
					q.RAT = d.u32(f)
				case 3:
					q.CarrierFreq = d.u32(f)
				case 4:
					q.Bandwidth = d.u32(f)
				case 5:
					q.ReportType = d.u32(f)
				case 6:
					q.ReportInterval = d.u32(f)
				case 7:
					q.TriggerQuantity = d.u32(f)
				case 8:
					q.NumReports = d.sint(f)
				case 9:
					q.MaxReportCells = d.u32(f)
				case 10:
					q.CellsToMeasure = d.packed(f, q.CellsToMeasure)
				case 11:
					q.BlacklistCells = d.packed(f, q.BlacklistCells)
				}
			})
			m.Req = q
		}, func(p []byte) {
			r := &RRCMeasRepl{}
			d.each(p, func(f field) {
				switch f.num {
				case 1:
					r.RNTI = d.u32(f)
				case 2:
					r.Status = Status(d.u32(f))
				case 3:
					q := &SignalQuality{}
					d.each(d.bytes(f), func(g field) {
						switch g.num {
						case 1:
							q.RSRP = d.f64(g)
						case 2:
							q.RSRQ = d.f64(g)
						}
					})
					r.PCell = q
				case 4:
					var n NeighbourMeas
					d.each(d.bytes(f), func(g field) {
						switch g.num {
						case 1:
							n.PCI = d.u32(g)
						case 2:
							n.RSRP = d.f64(g)
						case 3:
							n.RSRQ = d.f64(g)
						}
					})
					r.Neighbours = append(r.Neighbours, n)
				}
			})
			m.Repl = r
		})
		return m

	case KindSessionCtrl:
		m := &SessionCtrl{}
		d.reqRepl(b, func(p []byte) {
			q := &SessionCtrlReq{}
			d.each(p, func(f field) {
				switch f.num {
				case 1:
					q.Op = d.u32(f)
				case 2:
					q.ModuleID = d.u32(f)
				case 3:
					q.Station = d.addr(f)
				case 4:
					q.NetBSSID = d.addr(f)
				case 5:
					q.LVAPBSSID = d.addr(f)
				case 6:
					q.Block = d.block(d.bytes(f))
				case 7:
					q.Downlink = d.boolean(f)
				case 8:
					q.Flags = d.u32(f)
				case 9:
					q.AssocID = d.u32(f)
				case 10:
					q.SSIDs = append(q.SSIDs, d.str(f))
				case 11:
					q.MCS = d.packed(f, q.MCS)
				case 12:
					q.Encap = d.addr(f)
				case 13:
					target := d.block(d.bytes(f))
					q.TargetBlock = &target
				}
			})
			m.Req = q
		}, func(p []byte) {
			r := &SessionCtrlRepl{}
			d.each(p, func(f field) {
				switch f.num {
				case 1:
					r.ModuleID = d.u32(f)
				case 2:
					r.Station = d.addr(f)
				case 3:
					r.Status = Status(d.u32(f))
				}
			})
			m.Repl = r
		})
		return m

	case KindSessionStatus:
		m := &SessionStatus{}
		d.reqRepl(b, func(p []byte) {
			m.Req = &SessionStatusReq{}
			d.each(p, func(f field) {
				if f.num == 1 {
					m.Req.Station = d.addr(f)
				}
			})
		}, func(p []byte) {
			r := &SessionStatusRepl{}
			d.each(p, func(f field) {
				switch f.num {
				case 1:
					r.Station = d.addr(f)
				case 2:
					r.NetBSSID = d.addr(f)
				case 3:
					r.LVAPBSSID = d.addr(f)
				case 4:
					r.Block = d.block(d.bytes(f))
				case 5:
					r.Flags = d.u32(f)
				case 6:
					r.AssocID = d.u32(f)
				case 7:
					r.SSID = d.str(f)
				case 8:
					r.Attached = d.boolean(f)
				}
			})
			m.Repl = r
		})
		return m
	}

	d.fail(fmt.Errorf("%w: unknown message type %d", ErrDecode, kind))
	return nil
}
