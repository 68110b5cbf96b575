package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/ran-controller/ran-controller-pro/pkg/emage"
)

// BSSIDType 租户BSSID分配方式
type BSSIDType string

const (
	BSSIDUnique BSSIDType = "unique"
	BSSIDShared BSSIDType = "shared"
)

// Tenant represents a network slice owned by an operator
type Tenant struct {
	ID        uuid.UUID `json:"id" db:"id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`

	Name        string `json:"name" db:"name"`
	Description string `json:"description" db:"description"`
	Owner       string `json:"owner" db:"owner"`

	PLMNID    uint32             `json:"plmn_id" db:"plmn_id"`
	BSSIDType BSSIDType          `json:"bssid_type" db:"bssid_type"`
	Prefix    emage.EtherAddress `json:"prefix" db:"prefix"`

	VBSes []emage.EtherAddress `json:"vbses" db:"vbses"`
	VAPs  []emage.EtherAddress `json:"vaps" db:"vaps"`

	IsActive bool `json:"isActive" db:"is_active"`

	// UEs currently attached to the slice, runtime only
	UEs map[UEKey]*UE `json:"-" db:"-"`
}

// Shared reports whether stations broadcast shared VAPs for this tenant
func (t *Tenant) Shared() bool {
	return t.BSSIDType == BSSIDShared
}

// HasVBS reports whether the station is provisioned for this tenant
func (t *Tenant) HasVBS(addr emage.EtherAddress) bool {
	for _, a := range t.VBSes {
		if a == addr {
			return true
		}
	}
	return false
}

// HasVAP reports whether the tenant has a VAP with the given BSSID
func (t *Tenant) HasVAP(bssid emage.EtherAddress) bool {
	for _, a := range t.VAPs {
		if a == bssid {
			return true
		}
	}
	return false
}

// AddUE attaches a terminal to the slice
func (t *Tenant) AddUE(ue *UE) {
	if t.UEs == nil {
		t.UEs = make(map[UEKey]*UE)
	}
	t.UEs[ue.Key] = ue
	ue.Tenant = t
}

// RemoveUE detaches a terminal from the slice
func (t *Tenant) RemoveUE(ue *UE) {
	delete(t.UEs, ue.Key)
	if ue.Tenant == t {
		ue.Tenant = nil
	}
}
