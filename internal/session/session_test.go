package session

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ran-controller/ran-controller-pro/internal/models"
	"github.com/ran-controller/ran-controller-pro/pkg/emage"
)

type sent struct {
	add      bool
	block    models.ResourceBlock
	downlink bool
	moduleID uint32
	target   *models.ResourceBlock
}

type recordingNotifier struct {
	t       *testing.T
	offline bool
	log     []sent
}

func (n *recordingNotifier) record(s *Session, port *RadioPort, id uint32, add bool) bool {
	// 任何外部观察者都不应看到零绑定的会话
	assert.NotEmpty(n.t, s.Blocks(), "observer saw a session without bindings")

	var target *models.ResourceBlock
	if tb := s.TargetBlock(); tb != nil {
		copied := *tb
		target = &copied
	}
	n.log = append(n.log, sent{add: add, block: port.Block, downlink: port.Downlink, moduleID: id, target: target})
	return !n.offline
}

func (n *recordingNotifier) AddSession(s *Session, port *RadioPort, id uint32) bool {
	return n.record(s, port, id, true)
}

func (n *recordingNotifier) DelSession(s *Session, port *RadioPort, id uint32) bool {
	return n.record(s, port, id, false)
}

type recordingIntents struct {
	added   []POA
	updated []POA
	removed []uuid.UUID
}

func (i *recordingIntents) AddPOA(poa POA) uuid.UUID {
	i.added = append(i.added, poa)
	return uuid.New()
}

func (i *recordingIntents) UpdatePOA(_ uuid.UUID, poa POA) {
	i.updated = append(i.updated, poa)
}

func (i *recordingIntents) RemovePOA(id uuid.UUID) {
	i.removed = append(i.removed, id)
}

var (
	staA   = emage.MustParseEtherAddress("00:00:00:00:0E:21")
	staB   = emage.MustParseEtherAddress("00:00:00:00:0E:22")
	ueAddr = emage.MustParseEtherAddress("60:F4:45:D0:3B:FC")

	blockA1 = models.ResourceBlock{Station: staA, HWAddr: emage.MustParseEtherAddress("00:0D:B9:2F:56:64"), Channel: 6, Band: 1}
	blockA2 = models.ResourceBlock{Station: staA, HWAddr: emage.MustParseEtherAddress("00:0D:B9:2F:56:65"), Channel: 36, Band: 2}
	blockB1 = models.ResourceBlock{Station: staB, HWAddr: emage.MustParseEtherAddress("00:0D:B9:30:11:01"), Channel: 6, Band: 1}
	blockB2 = models.ResourceBlock{Station: staB, HWAddr: emage.MustParseEtherAddress("00:0D:B9:30:11:02"), Channel: 11, Band: 1}
)

func newTestSession(t *testing.T) (*Session, *recordingNotifier, *recordingIntents) {
	n := &recordingNotifier{t: t}
	i := &recordingIntents{}
	return New(ueAddr, ueAddr, ueAddr, n, i), n, i
}

func ackAll(s *Session) {
	for _, id := range s.Pending() {
		s.Ack(id)
	}
}

func TestAssignDownlinkAndUplink(t *testing.T) {
	cases := []struct {
		name   string
		blocks []models.ResourceBlock
		wantUL []models.ResourceBlock
	}{
		{"single", []models.ResourceBlock{blockA1}, []models.ResourceBlock{}},
		{"uplinks", []models.ResourceBlock{blockA1, blockA2, blockB1}, []models.ResourceBlock{blockA2, blockB1}},
		{"duplicates", []models.ResourceBlock{blockA1, blockA2, blockA2, blockB1, blockA2}, []models.ResourceBlock{blockA2, blockB1}},
		{"downlink listed as uplink", []models.ResourceBlock{blockA1, blockA1, blockB2}, []models.ResourceBlock{blockB2}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s, _, _ := newTestSession(t)

			require.NoError(t, s.Assign(tc.blocks))

			dl, ok := s.Downlink()
			require.True(t, ok)
			assert.Equal(t, tc.blocks[0], dl)
			if diff := cmp.Diff(tc.wantUL, s.Uplink()); diff != "" {
				t.Fatalf("uplink mismatch (-want +got):\n%s", diff)
			}

			station, ok := s.Station()
			require.True(t, ok)
			assert.Equal(t, tc.blocks[0].Station, station)
		})
	}
}

func TestAssignRejectedWhilePending(t *testing.T) {
	s, n, _ := newTestSession(t)
	require.NoError(t, s.Assign([]models.ResourceBlock{blockA1, blockA2}))
	require.NotEmpty(t, s.Pending())

	before := s.Blocks()
	sends := len(n.log)

	err := s.Assign([]models.ResourceBlock{blockB1})
	assert.ErrorIs(t, err, ErrHandoverInProgress)
	assert.Equal(t, before, s.Blocks())
	assert.Len(t, n.log, sends)

	ackAll(s)
	assert.NoError(t, s.Assign([]models.ResourceBlock{blockB1}))
}

func TestAssignEmptyIsNoop(t *testing.T) {
	s, n, i := newTestSession(t)

	require.NoError(t, s.Assign(nil))
	assert.Empty(t, s.Blocks())
	assert.Empty(t, n.log)
	assert.Empty(t, i.added)
}

func TestAssignInvalidBlock(t *testing.T) {
	s, n, _ := newTestSession(t)
	require.NoError(t, s.Assign([]models.ResourceBlock{blockA1}))
	ackAll(s)
	sends := len(n.log)

	err := s.Assign([]models.ResourceBlock{blockB1, {Channel: 1}})
	assert.ErrorIs(t, err, ErrInvalidArgument)

	dl, _ := s.Downlink()
	assert.Equal(t, blockA1, dl)
	assert.Len(t, n.log, sends)
}

func TestReassignSendsDeleteWithTarget(t *testing.T) {
	s, n, _ := newTestSession(t)
	require.NoError(t, s.Assign([]models.ResourceBlock{blockA1}))
	ackAll(s)
	n.log = nil

	require.NoError(t, s.Assign([]models.ResourceBlock{blockB1}))

	require.Len(t, n.log, 2)
	assert.False(t, n.log[0].add)
	assert.Equal(t, blockA1, n.log[0].block)
	require.NotNil(t, n.log[0].target)
	assert.Equal(t, blockB1, *n.log[0].target)

	assert.True(t, n.log[1].add)
	assert.True(t, n.log[1].downlink)
	assert.Equal(t, blockB1, n.log[1].block)
	assert.Nil(t, s.TargetBlock())

	assert.ElementsMatch(t, []uint32{n.log[0].moduleID, n.log[1].moduleID}, s.Pending())
}

func TestSameDownlinkKeepsBinding(t *testing.T) {
	s, n, _ := newTestSession(t)
	require.NoError(t, s.Assign([]models.ResourceBlock{blockA1, blockA2}))
	ackAll(s)
	n.log = nil

	require.NoError(t, s.Assign([]models.ResourceBlock{blockA1, blockB2}))

	for _, e := range n.log {
		assert.False(t, e.downlink, "downlink must not be reinstalled")
	}
	assert.Equal(t, []models.ResourceBlock{blockB2}, s.Uplink())
}

func TestIntentAllocatedOnceThenUpdated(t *testing.T) {
	s, _, i := newTestSession(t)

	require.NoError(t, s.Assign([]models.ResourceBlock{blockA1}))
	require.Len(t, i.added, 1)
	assert.Equal(t, POA{Version: "1.0", DPID: staA, HWAddr: ueAddr}, i.added[0])
	first := s.POAID()
	ackAll(s)

	require.NoError(t, s.Assign([]models.ResourceBlock{blockB1}))
	assert.Len(t, i.added, 1)
	require.Len(t, i.updated, 1)
	assert.Equal(t, staB, i.updated[0].DPID)
	assert.Equal(t, first, s.POAID())

	s.Clear()
	assert.Equal(t, []uuid.UUID{first}, i.removed)
	assert.Equal(t, uuid.Nil, s.POAID())
	assert.Empty(t, s.Blocks())
}

func TestSharedTenantRequiresVAP(t *testing.T) {
	prefix := emage.MustParseEtherAddress("52:54:00:00:00:00")
	tenant := &models.Tenant{
		Name:      "shared",
		BSSIDType: models.BSSIDShared,
		Prefix:    prefix,
		VAPs:      []emage.EtherAddress{emage.GenerateBSSID(prefix, blockB1.HWAddr)},
	}

	s, n, _ := newTestSession(t)
	require.NoError(t, s.Assign([]models.ResourceBlock{blockA1}))
	ackAll(s)
	s.SetTenant(tenant)
	s.ApplyStatus(tenant, true, true, 7, nil)
	ackAll(s)
	sends := len(n.log)

	err := s.Assign([]models.ResourceBlock{blockB2})
	assert.ErrorIs(t, err, ErrTargetNotProvisioned)
	dl, _ := s.Downlink()
	assert.Equal(t, blockA1, dl)
	assert.Same(t, tenant, s.Tenant())
	assert.True(t, s.Associated())
	assert.Len(t, n.log, sends)

	require.NoError(t, s.Assign([]models.ResourceBlock{blockB1}))
	assert.Nil(t, s.Tenant())
	assert.False(t, s.Associated())
	assert.False(t, s.Authenticated())
	assert.Zero(t, s.AssocID())
	assert.Equal(t, emage.GenerateBSSID(prefix, blockB1.HWAddr), s.LVAPBSSID())
}

func TestMoveToMatchesSpectrum(t *testing.T) {
	s, _, _ := newTestSession(t)
	require.NoError(t, s.Assign([]models.ResourceBlock{blockA1}))
	ackAll(s)

	// 信道不一致时不做修改
	require.NoError(t, s.MoveTo([]models.ResourceBlock{blockB2}))
	dl, _ := s.Downlink()
	assert.Equal(t, blockA1, dl)

	require.NoError(t, s.MoveTo([]models.ResourceBlock{blockB2, blockB1}))
	dl, _ = s.Downlink()
	assert.Equal(t, blockB1, dl)
}

func TestSettersRefreshOnlyOnChange(t *testing.T) {
	s, n, _ := newTestSession(t)
	require.NoError(t, s.Assign([]models.ResourceBlock{blockA1, blockA2}))
	ackAll(s)
	n.log = nil

	s.SetSSIDs([]string{"ran"})
	assert.Len(t, n.log, 2)

	s.SetSSIDs([]string{"ran"})
	s.SetAssocID(0)
	s.SetEncap(emage.EtherAddress{})
	assert.Len(t, n.log, 2)

	s.SetAssocID(5)
	assert.Len(t, n.log, 4)
	assert.Equal(t, []string{"ran"}, s.SSIDs())
}

func TestOfflineStationLeavesNothingPending(t *testing.T) {
	s, n, _ := newTestSession(t)
	n.offline = true

	require.NoError(t, s.Assign([]models.ResourceBlock{blockA1}))
	assert.Empty(t, s.Pending())
	assert.NoError(t, s.Assign([]models.ResourceBlock{blockB1}))
}

func TestUpdatePort(t *testing.T) {
	s, n, _ := newTestSession(t)
	require.NoError(t, s.Assign([]models.ResourceBlock{blockA1}))
	ackAll(s)
	n.log = nil

	require.NoError(t, s.UpdatePort(blockA1, []uint32{6, 12}, true, 100))
	require.Len(t, n.log, 1)
	ports := s.Ports()
	require.Len(t, ports, 1)
	assert.Equal(t, []uint32{6, 12}, ports[0].MCS)
	assert.True(t, ports[0].NoAck)

	assert.ErrorIs(t, s.UpdatePort(blockB1, nil, false, 0), ErrInvalidArgument)
}

func TestAdoptDoesNotNotify(t *testing.T) {
	s, n, i := newTestSession(t)

	require.NoError(t, s.Adopt(blockA1))
	assert.Empty(t, n.log)
	assert.Empty(t, s.Pending())
	require.Len(t, i.added, 1)

	dl, ok := s.Downlink()
	require.True(t, ok)
	assert.Equal(t, blockA1, dl)

	require.NoError(t, s.Adopt(blockA1))
	assert.Empty(t, i.updated)

	assert.ErrorIs(t, s.Adopt(models.ResourceBlock{}), ErrInvalidArgument)
}
