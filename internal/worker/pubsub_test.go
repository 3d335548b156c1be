package worker_test

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/aqinsight/aqinsight/internal/store"
	"github.com/aqinsight/aqinsight/internal/worker"
)

func newDispatcher(live *fakeLive, repo *store.InMemoryRepository) *worker.Dispatcher {
	job := worker.NewRefreshJob(worker.RefreshJobConfig{
		Grid:   smallGrid(),
		Live:   live,
		Store:  repo,
		Logger: zerolog.Nop(),
	})
	return worker.NewDispatcher(job, zerolog.Nop())
}

func TestDispatcher_GridRefresh(t *testing.T) {
	repo := store.NewInMemoryRepository()
	d := newDispatcher(&fakeLive{}, repo)

	ack := d.Handle(context.Background(), []byte(`{"job_type":"grid_refresh"}`))

	assert.True(t, ack)
	assert.Equal(t, 6, repo.GridSize())
}

func TestDispatcher_GridRefresh_MostlyFailing(t *testing.T) {
	// Every point sits on the failing latitude.
	live := &fakeLive{failLat: 11}
	repo := store.NewInMemoryRepository()
	job := worker.NewRefreshJob(worker.RefreshJobConfig{
		Grid: worker.GridConfig{
			MinLat: 11, MaxLat: 11, MinLon: 70, MaxLon: 71,
			Step: 1, RequestsPerSecond: 1000,
		},
		Live:   live,
		Store:  repo,
		Logger: zerolog.Nop(),
	})
	d := worker.NewDispatcher(job, zerolog.Nop())

	assert.False(t, d.Handle(context.Background(), []byte(`{"job_type":"grid_refresh"}`)))
}

func TestDispatcher_HealthCheck(t *testing.T) {
	live := &fakeLive{}
	repo := store.NewInMemoryRepository()
	d := newDispatcher(live, repo)

	ack := d.Handle(context.Background(), []byte(`{"job_type":"health_check"}`))

	assert.True(t, ack)
	assert.Equal(t, int32(1), live.calls.Load())
	assert.Equal(t, []worker.Point{{Lat: 10, Lon: 70}}, live.seen)
}

func TestDispatcher_HealthCheckFailure(t *testing.T) {
	d := newDispatcher(&fakeLive{failLat: 10}, store.NewInMemoryRepository())

	assert.False(t, d.Handle(context.Background(), []byte(`{"job_type":"health_check"}`)))
}

func TestDispatcher_UnknownJobTypeAcked(t *testing.T) {
	live := &fakeLive{}
	d := newDispatcher(live, store.NewInMemoryRepository())

	assert.True(t, d.Handle(context.Background(), []byte(`{"job_type":"provider_refresh"}`)))
	assert.Equal(t, int32(0), live.calls.Load())
}

func TestDispatcher_MalformedMessageNacked(t *testing.T) {
	d := newDispatcher(&fakeLive{}, store.NewInMemoryRepository())

	assert.False(t, d.Handle(context.Background(), []byte(`{not json`)))
}

func TestDispatcher_NoJob(t *testing.T) {
	d := worker.NewDispatcher(nil, zerolog.Nop())

	assert.False(t, d.Handle(context.Background(), []byte(`{"job_type":"grid_refresh"}`)))
}
