package emage

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
)

// Version emage协议版本
const Version uint32 = 1

// EtherAddress 6字节以太网地址，用于标识基站和终端
type EtherAddress [6]byte

// ParseEtherAddress 解析 "00:00:00:00:0E:21" 格式的地址
func ParseEtherAddress(s string) (EtherAddress, error) {
	var a EtherAddress

	raw := strings.ReplaceAll(strings.ReplaceAll(s, ":", ""), "-", "")
	b, err := hex.DecodeString(raw)
	if err != nil {
		return a, fmt.Errorf("invalid ether address %q: %w", s, err)
	}
	if len(b) != 6 {
		return a, fmt.Errorf("invalid ether address length %q", s)
	}

	copy(a[:], b)
	return a, nil
}

// MustParseEtherAddress 解析地址，失败时panic
func MustParseEtherAddress(s string) EtherAddress {
	a, err := ParseEtherAddress(s)
	if err != nil {
		panic(err)
	}
	return a
}

// FromEnbID 由基站数字标识还原地址
func FromEnbID(id uint64) EtherAddress {
	var a EtherAddress
	for i := 5; i >= 0; i-- {
		a[i] = byte(id)
		id >>= 8
	}
	return a
}

// EnbID 返回地址对应的基站数字标识（按十六进制整数解释）
func (a EtherAddress) EnbID() uint64 {
	var id uint64
	for _, b := range a {
		id = id<<8 | uint64(b)
	}
	return id
}

// IsZero 检查地址是否为空
func (a EtherAddress) IsZero() bool {
	return a == EtherAddress{}
}

// String returns colon separated upper case hex
func (a EtherAddress) String() string {
	return fmt.Sprintf("%02X:%02X:%02X:%02X:%02X:%02X", a[0], a[1], a[2], a[3], a[4], a[5])
}

// MarshalText implements encoding.TextMarshaler
func (a EtherAddress) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (a *EtherAddress) UnmarshalText(text []byte) error {
	parsed, err := ParseEtherAddress(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// MarshalJSON implements json.Marshaler
func (a EtherAddress) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

// UnmarshalJSON implements json.Unmarshaler
func (a *EtherAddress) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	return a.UnmarshalText([]byte(s))
}

// GenerateBSSID 由租户前缀和物理地址生成共享BSSID：前3字节取前缀，后3字节取硬件地址
func GenerateBSSID(prefix, hwaddr EtherAddress) EtherAddress {
	var out EtherAddress
	copy(out[:3], prefix[:3])
	copy(out[3:], hwaddr[3:])
	return out
}

// Status 请求处理状态
type Status uint32

const (
	StatusSuccess Status = 0
	StatusFailure Status = 1
)

// Action 事件动作
type Action uint32

const (
	ActionAdd Action = 0
	ActionDel Action = 1
)

// EventKind 事件包装类型
type EventKind uint8

const (
	EventSingle EventKind = iota + 1
	EventScheduled
	EventTriggered
)

func (k EventKind) String() string {
	switch k {
	case EventSingle:
		return "se"
	case EventScheduled:
		return "sche"
	case EventTriggered:
		return "te"
	default:
		return "unknown"
	}
}

// HandoverCause 切换原因
type HandoverCause uint32

const (
	CauseTimeCritical         HandoverCause = 0
	CauseResourceOptimization HandoverCause = 1
)

// String returns the API name of the cause
func (c HandoverCause) String() string {
	switch c {
	case CauseTimeCritical:
		return "time_critical"
	case CauseResourceOptimization:
		return "resource_optimization"
	default:
		return fmt.Sprintf("cause(%d)", uint32(c))
	}
}

// MarshalText implements encoding.TextMarshaler
func (c HandoverCause) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (c *HandoverCause) UnmarshalText(text []byte) error {
	parsed, err := ParseHandoverCause(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// ParseHandoverCause 解析切换原因名称
func ParseHandoverCause(s string) (HandoverCause, error) {
	switch s {
	case "time_critical":
		return CauseTimeCritical, nil
	case "resource_optimization", "":
		return CauseResourceOptimization, nil
	default:
		return 0, fmt.Errorf("unknown handover cause %q", s)
	}
}

// 基站信息类型位图
const (
	InfoCells      uint32 = 1
	InfoRANSharing uint32 = 2
)

// 测量上报参数
const (
	RATEUTRA               uint32 = 0
	ReportPeriodicalRefSig uint32 = 1
	TriggerQuantityRSRP    uint32 = 0
	ReportsInfinite        int32  = -1
	RRCReportInterval      uint32 = 5
	RRCMaxReportCells      uint32 = 3
)

// 统计类型
const (
	StatsPRBUtilization uint32 = 1
)

// 会话控制操作
const (
	SessionOpAdd uint32 = 0
	SessionOpDel uint32 = 1
)

// 会话状态标志
const (
	SessionAuthenticated uint32 = 1 << 0
	SessionAssociated    uint32 = 1 << 1
	SessionSetMask       uint32 = 1 << 2
)
