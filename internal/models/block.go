package models

import (
	"fmt"

	"github.com/ran-controller/ran-controller-pro/pkg/emage"
)

// ResourceBlock 基站上可分配的无线资源（信道/频段），按值比较
type ResourceBlock struct {
	Station emage.EtherAddress `json:"vbs" yaml:"vbs"`
	HWAddr  emage.EtherAddress `json:"hwaddr" yaml:"hwaddr"`
	Channel uint32             `json:"channel" yaml:"channel"`
	Band    uint32             `json:"band" yaml:"band"`
}

// Valid 检查资源块标识是否完整
func (b ResourceBlock) Valid() bool {
	return !b.Station.IsZero() && !b.HWAddr.IsZero()
}

// SameSpectrum 检查两个资源块的信道和频段是否一致
func (b ResourceBlock) SameSpectrum(other ResourceBlock) bool {
	return b.Channel == other.Channel && b.Band == other.Band
}

// Ref 转换为线格式引用
func (b ResourceBlock) Ref() emage.BlockRef {
	return emage.BlockRef{HWAddr: b.HWAddr, Channel: b.Channel, Band: b.Band}
}

func (b ResourceBlock) String() string {
	return fmt.Sprintf("(%s, %s, %d, %d)", b.Station, b.HWAddr, b.Channel, b.Band)
}
