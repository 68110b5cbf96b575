package events

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ran-controller/ran-controller-pro/internal/metrics"
	"github.com/ran-controller/ran-controller-pro/internal/models"
	"github.com/ran-controller/ran-controller-pro/pkg/emage"
)

type published struct {
	subject string
	data    []byte
}

type fakePublisher struct {
	msgs []published
	err  error
}

func (p *fakePublisher) Publish(subject string, data []byte) error {
	p.msgs = append(p.msgs, published{subject, data})
	return p.err
}

type fakeRecorder struct {
	mu     sync.Mutex
	stored []*models.EventLog
}

func (r *fakeRecorder) CreateEventLog(_ context.Context, ev *models.EventLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stored = append(r.stored, ev)
	return nil
}

func (r *fakeRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.stored)
}

var station = emage.MustParseEtherAddress("00:00:00:00:0E:21")

func TestSubjects(t *testing.T) {
	v := models.NewVBS(station, "lab")
	ue := models.NewUE(v, 61)

	cases := []struct {
		ev   *models.EventLog
		want string
	}{
		{VBSUp(v), "ran.vbs.000000000E21.up"},
		{VBSDown(v, nil), "ran.vbs.000000000E21.down"},
		{UEJoin(ue), "ran.ue.000000000E21-61.join"},
		{UELeave(ue), "ran.ue.000000000E21-61.leave"},
		{Handover(models.HandoverCommand{SrcVBS: station, RNTI: 61}), "ran.handover"},
		{SessionDown(emage.MustParseEtherAddress("60:F4:45:D0:3B:FC"), station), "ran.session.60F445D03BFC.down"},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, Subject(tc.ev))
	}
}

func TestPublishFansOut(t *testing.T) {
	nc := &fakePublisher{err: errors.New("nats down")}
	rec := &fakeRecorder{}
	bus := NewBus(nc, rec, 4)

	var seen []models.EventType
	bus.Subscribe(func(ev *models.EventLog) { seen = append(seen, ev.Type) })

	tenant := &models.Tenant{ID: uuid.New(), Name: "slice", PLMNID: 0x222f93}
	ue := models.NewUE(models.NewVBS(station, "lab"), 61)
	tenant.AddUE(ue)

	ev := UEJoin(ue)
	bus.Publish(ev)

	assert.Equal(t, []models.EventType{models.EventTypeUEJoin}, seen)
	assert.NotEqual(t, uuid.Nil, ev.ID)
	assert.False(t, ev.CreatedAt.IsZero())
	require.NotNil(t, ev.TenantID)
	assert.Equal(t, tenant.ID, *ev.TenantID)

	require.Len(t, nc.msgs, 1)
	var decoded models.EventLog
	require.NoError(t, json.Unmarshal(nc.msgs[0].data, &decoded))
	assert.Equal(t, ev.ID, decoded.ID)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = bus.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return rec.count() == 1 }, time.Second, 5*time.Millisecond)
	cancel()
	<-done
}

func TestPublishDropsWhenQueueFull(t *testing.T) {
	rec := &fakeRecorder{}
	bus := NewBus(nil, rec, 1)

	bus.Publish(VBSUp(models.NewVBS(station, "lab")))
	bus.Publish(VBSUp(models.NewVBS(station, "lab")))
	assert.Len(t, bus.queue, 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, bus.Run(ctx))
	assert.Equal(t, 1, rec.count())
}

func TestCountEvents(t *testing.T) {
	bus := NewBus(nil, nil, 1)
	bus.Subscribe(CountEvents)

	v := models.NewVBS(station, "lab")
	down := metrics.EventsTotal.WithLabelValues(string(models.EventTypeVBSDown), string(models.EventLevelWarning))
	before := testutil.ToFloat64(down)

	bus.Publish(VBSDown(v, errors.New("liveness timeout")))
	bus.Publish(VBSDown(v, nil))

	assert.Equal(t, before+2, testutil.ToFloat64(down))
}
