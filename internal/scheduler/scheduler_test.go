package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BartekS5/opinions-etl/pkg/models"
)

type countingRunner struct {
	runs     atomic.Int32
	inFlight atomic.Int32
	overlap  atomic.Bool
	hold     time.Duration
	block    chan struct{}
	entered  chan struct{}
}

func (r *countingRunner) Run(ctx context.Context) models.Summary {
	if r.inFlight.Add(1) > 1 {
		r.overlap.Store(true)
	}
	defer r.inFlight.Add(-1)

	if r.entered != nil {
		r.entered <- struct{}{}
	}
	if r.block != nil {
		<-r.block
	}
	time.Sleep(r.hold)
	n := int(r.runs.Add(1))
	return models.Summary{TotalSources: 1, SuccessfulSources: 1, TotalRecords: n}
}

type fakeLoader struct {
	calls atomic.Int32
	n     int
	err   error
}

func (l *fakeLoader) LoadPending(context.Context) (int, error) {
	l.calls.Add(1)
	return l.n, l.err
}

func TestNextDelay(t *testing.T) {
	assert.Equal(t, 4*time.Minute, NextDelay(5*time.Minute, time.Minute))
	assert.Equal(t, time.Duration(0), NextDelay(5*time.Minute, 5*time.Minute))
	assert.Equal(t, time.Duration(0), NextDelay(5*time.Minute, 7*time.Minute))
}

func TestRunOnce_LoadsAfterExtract(t *testing.T) {
	loader := &fakeLoader{n: 12}
	s := New(&countingRunner{}, loader, Options{Interval: time.Hour, LoadAfterExtract: true})

	_, ok := s.LastRun()
	assert.False(t, ok)

	cycle, err := s.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 12, cycle.LoadedFacts)
	assert.Equal(t, int32(1), loader.calls.Load())

	last, ok := s.LastRun()
	require.True(t, ok)
	assert.Equal(t, 1, last.Summary.SuccessfulSources)
	assert.Equal(t, 12, last.LoadedFacts)
}

func TestRunOnce_RecordsLoadError(t *testing.T) {
	loader := &fakeLoader{n: 3, err: errors.New("deadlock")}
	s := New(&countingRunner{}, loader, Options{Interval: time.Hour, LoadAfterExtract: true})

	cycle, err := s.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "deadlock", cycle.LoadError)
	assert.Equal(t, 3, cycle.LoadedFacts)
}

func TestRunOnce_SkipsLoadWhenDisabled(t *testing.T) {
	loader := &fakeLoader{}
	s := New(&countingRunner{}, loader, Options{Interval: time.Hour})

	_, err := s.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, loader.calls.Load())
}

func TestRunOnce_BusyWhileCycleInFlight(t *testing.T) {
	runner := &countingRunner{block: make(chan struct{}), entered: make(chan struct{}, 1)}
	s := New(runner, nil, Options{Interval: time.Hour})

	done := make(chan error, 1)
	go func() {
		_, err := s.RunOnce(context.Background())
		done <- err
	}()
	<-runner.entered

	_, err := s.RunOnce(context.Background())
	assert.ErrorIs(t, err, ErrBusy)

	close(runner.block)
	require.NoError(t, <-done)
	assert.Equal(t, int32(1), runner.runs.Load())
}

func TestStart_RunsCyclesWithoutOverlap(t *testing.T) {
	runner := &countingRunner{hold: 15 * time.Millisecond}
	s := New(runner, nil, Options{Interval: 5 * time.Millisecond})

	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()
	s.Start(ctx)

	assert.GreaterOrEqual(t, runner.runs.Load(), int32(3), "overrunning cycles start immediately")
	assert.False(t, runner.overlap.Load())
	_, ok := s.LastRun()
	assert.True(t, ok)
}

func TestStart_StopsDuringInitialDelay(t *testing.T) {
	runner := &countingRunner{}
	s := New(runner, nil, Options{Interval: time.Hour, InitialDelay: time.Hour})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Start(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop")
	}
	assert.Zero(t, runner.runs.Load())
}

type countingPruner struct {
	days  int
	calls int
}

func (p *countingPruner) Prune(days int) (int, error) {
	p.days = days
	p.calls++
	return 2, nil
}

func TestNewRetentionCron(t *testing.T) {
	pruner := &countingPruner{}
	c, err := NewRetentionCron("0 3 * * *", pruner, 7)
	require.NoError(t, err)

	entries := c.Entries()
	require.Len(t, entries, 1)
	entries[0].Job.Run()
	assert.Equal(t, 1, pruner.calls)
	assert.Equal(t, 7, pruner.days)

	_, err = NewRetentionCron("every tuesday", pruner, 7)
	assert.Error(t, err)
}
