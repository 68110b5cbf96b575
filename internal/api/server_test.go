package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ran-controller/ran-controller-pro/internal/config"
	"github.com/ran-controller/ran-controller-pro/internal/handover"
	"github.com/ran-controller/ran-controller-pro/internal/models"
	"github.com/ran-controller/ran-controller-pro/internal/registry"
	"github.com/ran-controller/ran-controller-pro/internal/session"
	"github.com/ran-controller/ran-controller-pro/internal/storage"
	"github.com/ran-controller/ran-controller-pro/internal/validation"
	"github.com/ran-controller/ran-controller-pro/internal/vbsp"
	"github.com/ran-controller/ran-controller-pro/pkg/crypto"
	"github.com/ran-controller/ran-controller-pro/pkg/emage"
)

var (
	addrA  = emage.MustParseEtherAddress("00:00:00:00:00:01")
	addrB  = emage.MustParseEtherAddress("00:00:00:00:00:02")
	hwA    = emage.MustParseEtherAddress("04:f0:21:00:00:01")
	hwB    = emage.MustParseEtherAddress("04:f0:21:00:00:02")
	staMAC = emage.MustParseEtherAddress("60:57:18:b1:a4:b8")
	prefix = emage.MustParseEtherAddress("02:ca:fe:00:00:00")

	blockA  = models.ResourceBlock{Station: addrA, HWAddr: hwA, Channel: 36, Band: 1}
	blockB  = models.ResourceBlock{Station: addrB, HWAddr: hwB, Channel: 36, Band: 1}
	blockB2 = models.ResourceBlock{Station: addrB, HWAddr: hwB, Channel: 40, Band: 1}
)

type stubLink struct{ sent []*emage.Message }

func (l *stubLink) Send(msg *emage.Message) bool { l.sent = append(l.sent, msg); return true }
func (l *stubLink) RemoteAddr() string           { return "10.0.0.1:40000" }

type ackingNotifier struct{ calls int }

func (n *ackingNotifier) AddSession(*session.Session, *session.RadioPort, uint32) bool {
	n.calls++
	return true
}

func (n *ackingNotifier) DelSession(*session.Session, *session.RadioPort, uint32) bool {
	n.calls++
	return true
}

type fakeController struct {
	reg        *registry.Registry
	notifier   *ackingNotifier
	handovers  []models.HandoverCommand
	ranSharing map[emage.EtherAddress][]emage.CellAllocation
}

func (f *fakeController) Do(_ context.Context, fn func() error) error { return fn() }
func (f *fakeController) Registry() *registry.Registry                { return f.reg }
func (f *fakeController) Notifier() session.Notifier                  { return f.notifier }
func (f *fakeController) Intents() session.IntentService              { return nil }

func (f *fakeController) SendHandover(cmd models.HandoverCommand) error {
	if _, ok := f.reg.VBS(cmd.DstVBS); !ok {
		return fmt.Errorf("target %s: %w", cmd.DstVBS, vbsp.ErrUnknownPeer)
	}
	f.handovers = append(f.handovers, cmd)
	return nil
}

func (f *fakeController) SetRANSharing(addr emage.EtherAddress, alloc []emage.CellAllocation) error {
	v, ok := f.reg.VBS(addr)
	if !ok {
		return fmt.Errorf("vbs %s: %w", addr, vbsp.ErrUnknownPeer)
	}
	if !v.Connected() {
		return fmt.Errorf("vbs %s: %w", addr, vbsp.ErrNotConnected)
	}
	f.ranSharing[addr] = alloc
	return nil
}

type fixture struct {
	srv    *RESTServer
	ctrl   *fakeController
	store  *storage.MemoryStore
	ho     *handover.Manager
	tenant *models.Tenant
	sess   *session.Session
	admin  string
	viewer string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	hash, err := crypto.HashPassword("s3cret")
	require.NoError(t, err)

	cfg := &config.Config{
		API: config.APIConfig{AllowedOrigins: []string{"*"}},
		JWT: config.JWTConfig{Secret: "test", AccessTokenTTL: time.Hour, RefreshTokenTTL: time.Hour},
		Accounts: []models.Account{
			{Username: "root", PasswordHash: hash, IsAdmin: true},
			{Username: "viewer", PasswordHash: hash},
		},
	}

	reg := registry.New()
	vA := models.NewVBS(addrA, "a")
	vA.Supports = []models.ResourceBlock{blockA}
	vA.Cells = []emage.Cell{{PhysCellID: 1, NumRBsDL: 50}}
	vB := models.NewVBS(addrB, "b")
	vB.Supports = []models.ResourceBlock{blockB2, blockB}
	require.NoError(t, reg.AddVBS(vA))
	require.NoError(t, reg.AddVBS(vB))

	tenant := &models.Tenant{
		Name:      "acme",
		PLMNID:    0x222f93,
		BSSIDType: models.BSSIDShared,
		Prefix:    prefix,
		VBSes:     []emage.EtherAddress{addrA, addrB},
		VAPs:      []emage.EtherAddress{emage.GenerateBSSID(prefix, hwA)},
	}
	require.NoError(t, reg.AddTenant(tenant))

	ue := models.NewUE(vA, 71)
	tenant.AddUE(ue)
	reg.AddUE(ue)
	ue.Measurements[2] = models.Measurement{RSRP: -90, RSRQ: -8}

	ctrl := &fakeController{
		reg:        reg,
		notifier:   &ackingNotifier{},
		ranSharing: make(map[emage.EtherAddress][]emage.CellAllocation),
	}
	sess := session.New(staMAC, staMAC, staMAC, ctrl.notifier, nil)
	require.NoError(t, reg.AddSession(sess))

	store := storage.NewMemoryStore(100)
	ho, err := handover.NewManager(handover.DefaultParams(), time.Second, nil)
	require.NoError(t, err)

	srv := NewRESTServer(cfg, store, ctrl, ho)

	token := func(name string) string {
		a, err := srv.auth.Authenticate(name, "s3cret")
		require.NoError(t, err)
		access, _, err := srv.auth.GenerateTokenPair(a)
		require.NoError(t, err)
		return access
	}

	return &fixture{
		srv:    srv,
		ctrl:   ctrl,
		store:  store,
		ho:     ho,
		tenant: tenant,
		sess:   sess,
		admin:  token("root"),
		viewer: token("viewer"),
	}
}

func (f *fixture) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	f.srv.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func TestLoginAndAuth(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{"username": "root", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{"username": "root"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{"username": "root", "password": "s3cret"})
	require.Equal(t, http.StatusOK, rec.Code)
	var login struct {
		AccessToken string `json:"access_token"`
	}
	decodeBody(t, rec, &login)
	require.NotEmpty(t, login.AccessToken)

	assert.Equal(t, http.StatusUnauthorized, f.do(t, http.MethodGet, "/api/v1/vbses", "", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, f.do(t, http.MethodGet, "/api/v1/vbses", "garbage", nil).Code)
	assert.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/api/v1/vbses", login.AccessToken, nil).Code)

	rec = f.do(t, http.MethodGet, "/api/v1/auth/me", login.AccessToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"username":"root"`)
}

func TestHealthIsPublic(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/api/v1/health", "", nil).Code)
	assert.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/metrics", "", nil).Code)
}

func TestListVBSesAndUEs(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/v1/vbses", f.viewer, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var vbses struct {
		VBSes []vbsView `json:"vbses"`
		Total int       `json:"total"`
	}
	decodeBody(t, rec, &vbses)
	assert.Equal(t, 2, vbses.Total)
	assert.Equal(t, addrA, vbses.VBSes[0].Addr)
	assert.Equal(t, 1, vbses.VBSes[0].UEs)

	rec = f.do(t, http.MethodGet, "/api/v1/ues?tenant_id="+f.tenant.ID.String(), f.viewer, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var ues struct {
		UEs []ueView `json:"ues"`
	}
	decodeBody(t, rec, &ues)
	require.Len(t, ues.UEs, 1)
	assert.Equal(t, uint32(0x222f93), ues.UEs[0].PLMNID)

	rec = f.do(t, http.MethodGet, "/api/v1/ues?vbs=00:00:00:00:00:02", f.viewer, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &ues)
	assert.Empty(t, ues.UEs)

	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodGet, "/api/v1/vbses/00:00:00:00:00:09", f.viewer, nil).Code)
	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodGet, "/api/v1/vbses/nope", f.viewer, nil).Code)
}

func TestUEHandover(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/v1/ues/00:00:00:00:00:01/71/handover", f.viewer,
		map[string]interface{}{"dst_vbs": "00:00:00:00:00:02", "dst_cell_id": 2})
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())

	require.Len(t, f.ctrl.handovers, 1)
	cmd := f.ctrl.handovers[0]
	assert.Equal(t, emage.CauseTimeCritical, cmd.Cause)
	assert.Equal(t, uint32(71), cmd.RNTI)
	assert.Equal(t, uint32(1), cmd.SrcCell)
	assert.Equal(t, uint32(2), cmd.DstCell)
	require.NotNil(t, cmd.TenantID)
	assert.Equal(t, f.tenant.ID, *cmd.TenantID)

	tests := []struct {
		name string
		path string
		body map[string]interface{}
		want int
	}{
		{"unknown ue", "/api/v1/ues/00:00:00:00:00:01/99/handover", map[string]interface{}{"dst_vbs": "00:00:00:00:00:02"}, http.StatusNotFound},
		{"bad rnti", "/api/v1/ues/00:00:00:00:00:01/x/handover", map[string]interface{}{"dst_vbs": "00:00:00:00:00:02"}, http.StatusBadRequest},
		{"missing target", "/api/v1/ues/00:00:00:00:00:01/71/handover", map[string]interface{}{}, http.StatusBadRequest},
		{"unknown target", "/api/v1/ues/00:00:00:00:00:01/71/handover", map[string]interface{}{"dst_vbs": "00:00:00:00:00:09"}, http.StatusNotFound},
		{"bad cause", "/api/v1/ues/00:00:00:00:00:01/71/handover", map[string]interface{}{"dst_vbs": "00:00:00:00:00:02", "cause": "whim"}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, f.do(t, http.MethodPost, tt.path, f.viewer, tt.body).Code)
		})
	}
	assert.Len(t, f.ctrl.handovers, 1)
}

func TestRANSharing(t *testing.T) {
	f := newFixture(t)
	path := "/api/v1/vbses/00:00:00:00:00:01/ran_sharing"
	body := map[string]interface{}{
		"operation":    "static_t_alloc_DL",
		"rbs_alloc_dl": []map[string]interface{}{{"phy_cell_id": 1, "sf": []map[string]interface{}{{"rbs_alloc": []int{1, 2}}}}},
	}

	assert.Equal(t, http.StatusServiceUnavailable, f.do(t, http.MethodPost, path, f.viewer, body).Code)

	v, _ := f.ctrl.reg.VBS(addrA)
	v.Connection = &stubLink{}

	rec := f.do(t, http.MethodPost, path, f.viewer, body)
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	require.Len(t, f.ctrl.ranSharing[addrA], 1)
	assert.Equal(t, []uint32{1, 2}, f.ctrl.ranSharing[addrA][0].Subframes[0].RBsAlloc)

	body["operation"] = "dynamic"
	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodPost, path, f.viewer, body).Code)

	v.RANSharing = &emage.RANSharingInfo{PLMNIDs: []uint32{0x222f93}}
	rec = f.do(t, http.MethodGet, path, f.viewer, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var info emage.RANSharingInfo
	decodeBody(t, rec, &info)
	assert.Equal(t, []uint32{0x222f93}, info.PLMNIDs)
}

func TestSessionAssignFlow(t *testing.T) {
	f := newFixture(t)
	path := "/api/v1/sessions/60:57:18:b1:a4:b8/blocks"

	rec := f.do(t, http.MethodPut, path, f.viewer, map[string]interface{}{"blocks": []models.ResourceBlock{blockA}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var view sessionView
	decodeBody(t, rec, &view)
	require.NotNil(t, view.VBS)
	assert.Equal(t, addrA, *view.VBS)
	assert.NotEmpty(t, view.Pending)

	// the first reassignment is not acknowledged yet
	rec = f.do(t, http.MethodPut, path, f.viewer, map[string]interface{}{"blocks": []models.ResourceBlock{blockB}})
	assert.Equal(t, http.StatusConflict, rec.Code)

	for _, id := range f.sess.Pending() {
		f.sess.Ack(id)
	}

	// shared tenant without a VAP on hwB
	f.sess.ApplyStatus(f.tenant, true, true, 1, nil)
	rec = f.do(t, http.MethodPut, path, f.viewer, map[string]interface{}{"blocks": []models.ResourceBlock{blockB}})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	unsupported := models.ResourceBlock{Station: addrA, HWAddr: hwB, Channel: 1, Band: 1}
	rec = f.do(t, http.MethodPut, path, f.viewer, map[string]interface{}{"blocks": []models.ResourceBlock{unsupported}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodPut, "/api/v1/sessions/60:57:18:b1:a4:b9/blocks", f.viewer, map[string]interface{}{"blocks": []models.ResourceBlock{blockA}})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/v1/sessions/60:57:18:b1:a4:b8", f.viewer, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &view)
	assert.Equal(t, "acme", view.SSID)
	assert.Equal(t, []models.ResourceBlock{blockA}, view.Blocks)
}

func TestMoveSession(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.sess.Assign([]models.ResourceBlock{blockA}))
	for _, id := range f.sess.Pending() {
		f.sess.Ack(id)
	}

	rec := f.do(t, http.MethodPut, "/api/v1/sessions/60:57:18:b1:a4:b8/vbs", f.viewer, map[string]string{"vbs": "00:00:00:00:00:02"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var view sessionView
	decodeBody(t, rec, &view)
	// first block on B with the same channel and band
	assert.Equal(t, []models.ResourceBlock{blockB}, view.Blocks)

	rec = f.do(t, http.MethodGet, "/api/v1/sessions?vbs=00:00:00:00:00:02", f.viewer, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Total int `json:"total"`
	}
	decodeBody(t, rec, &list)
	assert.Equal(t, 1, list.Total)

	assert.Equal(t, http.StatusNoContent, f.do(t, http.MethodDelete, "/api/v1/sessions/60:57:18:b1:a4:b8", f.viewer, nil).Code)
	_, ok := f.ctrl.reg.Session(staMAC)
	assert.False(t, ok)
}

func TestSessionSSIDsAndPorts(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.sess.Assign([]models.ResourceBlock{blockA}))

	rec := f.do(t, http.MethodPut, "/api/v1/sessions/60:57:18:b1:a4:b8/ssids", f.viewer, map[string]interface{}{"ssids": []string{"guest"}})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"guest"}, f.sess.SSIDs())

	rec = f.do(t, http.MethodPut, "/api/v1/sessions/60:57:18:b1:a4:b8/ports", f.viewer,
		map[string]interface{}{"block": blockA, "mcs": []int{6, 12}, "no_ack": true, "rts_cts": 100})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	ports := f.sess.Ports()
	require.Len(t, ports, 1)
	assert.Equal(t, []uint32{6, 12}, ports[0].MCS)
	assert.True(t, ports[0].NoAck)

	rec = f.do(t, http.MethodPut, "/api/v1/sessions/60:57:18:b1:a4:b8/ports", f.viewer,
		map[string]interface{}{"block": blockB, "rts_cts": 100})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandoverParams(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/v1/handover", f.viewer, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"rsrq_thr":-20`)

	rec = f.do(t, http.MethodPut, "/api/v1/handover", f.viewer, map[string]interface{}{"rsrq_thr": -1})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, handover.DefaultParams(), f.ho.Params())

	rec = f.do(t, http.MethodPut, "/api/v1/handover", f.viewer, map[string]interface{}{"max_ho_from": 3, "load_balance": false})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 3, f.ho.Params().MaxHOFrom)
	assert.False(t, f.ho.Params().LoadBalance)
	assert.Equal(t, 30.0, f.ho.Params().TargetDL)
}

func TestTenantLifecycle(t *testing.T) {
	f := newFixture(t)
	body := map[string]interface{}{
		"name":       "globex",
		"plmn_id":    "00f110",
		"bssid_type": "unique",
		"vbses":      []string{"00:00:00:00:00:01"},
	}

	assert.Equal(t, http.StatusForbidden, f.do(t, http.MethodPost, "/api/v1/tenants", f.viewer, body).Code)

	rec := f.do(t, http.MethodPost, "/api/v1/tenants", f.admin, body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created models.Tenant
	decodeBody(t, rec, &created)
	assert.Equal(t, uint32(0xf110), created.PLMNID)

	rt, ok := f.ctrl.reg.TenantByID(created.ID)
	require.True(t, ok)
	assert.True(t, rt.HasVBS(addrA))

	assert.Equal(t, http.StatusConflict, f.do(t, http.MethodPost, "/api/v1/tenants", f.admin, body).Code)

	body["name"] = "initech"
	body["plmn_id"] = "222f93"
	// plmn owned by the runtime tenant, the store entry is rolled back
	assert.Equal(t, http.StatusConflict, f.do(t, http.MethodPost, "/api/v1/tenants", f.admin, body).Code)
	_, total, err := f.store.ListTenants(context.Background(), 10, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)

	rec = f.do(t, http.MethodGet, "/api/v1/tenants/"+created.ID.String(), f.viewer, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, http.StatusNoContent, f.do(t, http.MethodDelete, "/api/v1/tenants/"+created.ID.String(), f.admin, nil).Code)
	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodDelete, "/api/v1/tenants/"+created.ID.String(), f.admin, nil).Code)
}

func TestCreateVBS(t *testing.T) {
	f := newFixture(t)
	body := map[string]interface{}{
		"addr":     "00:00:00:00:00:03",
		"label":    "new",
		"supports": []map[string]interface{}{{"hwaddr": "04:f0:21:00:00:03", "channel": 6, "band": 0}},
	}

	rec := f.do(t, http.MethodPost, "/api/v1/vbses", f.admin, body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	v, ok := f.ctrl.reg.VBS(emage.MustParseEtherAddress("00:00:00:00:00:03"))
	require.True(t, ok)
	require.Len(t, v.Supports, 1)
	assert.Equal(t, v.Addr, v.Supports[0].Station)

	stored, err := f.store.GetVBS(context.Background(), v.Addr)
	require.NoError(t, err)
	assert.Equal(t, "new", stored.Label)

	assert.Equal(t, http.StatusConflict, f.do(t, http.MethodPost, "/api/v1/vbses", f.admin, body).Code)
}

func TestListEvents(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.store.CreateEventLog(ctx, &models.EventLog{Type: models.EventTypeVBSUp, Level: models.EventLevelInfo, VBS: addrA.String()}))
	require.NoError(t, f.store.CreateEventLog(ctx, &models.EventLog{Type: models.EventTypeVBSDown, Level: models.EventLevelWarning, VBS: addrA.String()}))

	rec := f.do(t, http.MethodGet, "/api/v1/events?type=VBS_UP", f.viewer, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Events []models.EventLog `json:"events"`
		Total  int64             `json:"total"`
	}
	decodeBody(t, rec, &resp)
	assert.EqualValues(t, 1, resp.Total)

	rec = f.do(t, http.MethodGet, "/api/v1/events?vbs=00:00:00:00:00:01", f.viewer, nil)
	decodeBody(t, rec, &resp)
	assert.EqualValues(t, 2, resp.Total)

	for _, q := range []string{"start=yesterday", "tenant_id=nope", "vbs=nope"} {
		assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodGet, "/api/v1/events?"+q, f.viewer, nil).Code, q)
	}
}

func TestTopology(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/v1/topology", f.viewer, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var topo topologyView
	decodeBody(t, rec, &topo)
	assert.Len(t, topo.VBSes, 2)
	require.Len(t, topo.UEs, 1)
	assert.Equal(t, []topologyLink{{PCI: 2, RSRP: -90, RSRQ: -8}}, topo.UEs[0].Links)
	assert.Len(t, topo.Sessions, 1)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{session.ErrHandoverInProgress, http.StatusConflict},
		{session.ErrTargetNotProvisioned, http.StatusUnprocessableEntity},
		{fmt.Errorf("x: %w", session.ErrInvalidArgument), http.StatusBadRequest},
		{handover.ErrInvalidParam, http.StatusBadRequest},
		{validation.ErrValidation, http.StatusBadRequest},
		{registry.ErrNotFound, http.StatusNotFound},
		{storage.ErrNotFound, http.StatusNotFound},
		{storage.ErrDuplicateKey, http.StatusConflict},
		{vbsp.ErrNotConnected, http.StatusServiceUnavailable},
		{fmt.Errorf("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), tt.err.Error())
	}
}
