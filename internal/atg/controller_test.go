package atg

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/charging-platform/cs-simulator/internal/atgclock"
	"github.com/charging-platform/cs-simulator/internal/ocpp"
	"github.com/charging-platform/cs-simulator/internal/perfstats"
	"github.com/charging-platform/cs-simulator/internal/station"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedTransport answers OCPP calls deterministically and records every
// action it was asked to place, for assertions on call ordering.
type scriptedTransport struct {
	mu            sync.Mutex
	calls         []ocpp.Action
	authorizeVerdict ocpp.AuthorizationStatus
	nextTxID      int
}

func newScriptedTransport() *scriptedTransport {
	return &scriptedTransport{authorizeVerdict: ocpp.AuthorizationStatusAccepted, nextTxID: 1}
}

func (t *scriptedTransport) Call(ctx context.Context, messageID string, action ocpp.Action, payload interface{}) (json.RawMessage, error) {
	t.mu.Lock()
	t.calls = append(t.calls, action)
	t.mu.Unlock()

	switch action {
	case ocpp.ActionAuthorize:
		return json.Marshal(ocpp.AuthorizeResponse{IdTagInfo: ocpp.IdTagInfo{Status: t.authorizeVerdict}})
	case ocpp.ActionStartTransaction:
		t.mu.Lock()
		id := t.nextTxID
		t.nextTxID++
		t.mu.Unlock()
		return json.Marshal(ocpp.StartTransactionResponse{
			IdTagInfo:     ocpp.IdTagInfo{Status: ocpp.AuthorizationStatusAccepted},
			TransactionId: id,
		})
	case ocpp.ActionStopTransaction:
		return json.Marshal(ocpp.StopTransactionResponse{})
	}
	return json.Marshal(struct{}{})
}

func (t *scriptedTransport) callCounts() map[ocpp.Action]int {
	t.mu.Lock()
	defer t.mu.Unlock()
	counts := make(map[ocpp.Action]int)
	for _, a := range t.calls {
		counts[a]++
	}
	return counts
}

type stubConnector struct{ transport ocpp.Transport }

func (c stubConnector) Open(ctx context.Context) (ocpp.Transport, error) { return c.transport, nil }
func (c stubConnector) Close() error                                    { return nil }

func newRegisteredStation(t *testing.T, atgParams station.ATGParams, transport ocpp.Transport) *station.Station {
	t.Helper()
	st := station.New(station.Config{
		HashId:         "CS-TEST",
		ConnectorCount: 2,
		Info:           station.Info{AutomaticTransactionGenerator: atgParams},
		WSConnector:    stubConnector{transport: transport},
	})
	require.NoError(t, st.OpenWSConnection(context.Background()))
	st.SetRegistered(true)
	return st
}

func waitWithTimeout(t *testing.T, c *Controller, timeout time.Duration) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		c.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(timeout):
		t.Fatal("ATG loops did not finish before timeout")
	}
}

func TestHappyPathStartsAndStopsTransactions(t *testing.T) {
	params := station.ATGParams{
		StopAfterHours:                 0.001, // 3.6s budget
		MinDelayBetweenTwoTransactions: 1,
		MaxDelayBetweenTwoTransactions: 1,
		MinDuration:                    1,
		MaxDuration:                    1,
		ProbabilityOfStart:             1,
	}
	transport := newScriptedTransport()
	st := newRegisteredStation(t, params, transport)

	clock := atgclock.NewFake(time.Now())
	random := atgclock.NewFakeRandom([]float64{0}, nil, nil)
	perf := perfstats.NewRecorder()
	ctrl := NewController(st, clock, random, perf, nil)

	ctrl.Start(context.Background())
	waitWithTimeout(t, ctrl, 5*time.Second)

	counts := transport.callCounts()
	assert.GreaterOrEqual(t, counts[ocpp.ActionStartTransaction], 1)
	assert.Equal(t, counts[ocpp.ActionStartTransaction], counts[ocpp.ActionStopTransaction])
	assert.False(t, ctrl.Started())
}

func TestRejectedAuthorizeProducesNoStartTransaction(t *testing.T) {
	params := station.ATGParams{
		StopAfterHours:                 0.001,
		MinDelayBetweenTwoTransactions: 1,
		MaxDelayBetweenTwoTransactions: 1,
		MinDuration:                    1,
		MaxDuration:                    1,
		ProbabilityOfStart:             1,
		RequireAuthorize:               true,
	}
	transport := newScriptedTransport()
	transport.authorizeVerdict = ocpp.AuthorizationStatusBlocked

	st := station.New(station.Config{
		HashId:         "CS-REJECT",
		ConnectorCount: 2,
		AuthorizedTags: []string{"TAG1"},
		Info:           station.Info{AutomaticTransactionGenerator: params},
		WSConnector:    stubConnector{transport: transport},
	})
	require.NoError(t, st.OpenWSConnection(context.Background()))
	st.SetRegistered(true)

	clock := atgclock.NewFake(time.Now())
	random := atgclock.NewFakeRandom([]float64{0}, nil, []int{0})
	perf := perfstats.NewRecorder()
	ctrl := NewController(st, clock, random, perf, nil)

	ctrl.Start(context.Background())
	waitWithTimeout(t, ctrl, 5*time.Second)

	counts := transport.callCounts()
	assert.Equal(t, 0, counts[ocpp.ActionStartTransaction])
	assert.GreaterOrEqual(t, counts[ocpp.ActionAuthorize], 1)
}

func TestProbabilityZeroNeverStarts(t *testing.T) {
	params := station.ATGParams{
		StopAfterHours:                 0.001,
		MinDelayBetweenTwoTransactions: 1,
		MaxDelayBetweenTwoTransactions: 1,
		MinDuration:                    1,
		MaxDuration:                    1,
		ProbabilityOfStart:             0,
	}
	transport := newScriptedTransport()
	st := newRegisteredStation(t, params, transport)

	clock := atgclock.NewFake(time.Now())
	random := atgclock.NewFakeRandom([]float64{0.99}, nil, nil)
	perf := perfstats.NewRecorder()
	ctrl := NewController(st, clock, random, perf, nil)

	ctrl.Start(context.Background())
	waitWithTimeout(t, ctrl, 5*time.Second)

	counts := transport.callCounts()
	assert.Equal(t, 0, counts[ocpp.ActionStartTransaction])

	conn := st.GetConnector(1)
	require.NotNil(t, conn)
	assert.Greater(t, conn.RecentSkipCount, 0)
}

func TestStopAfterHoursZeroExitsImmediately(t *testing.T) {
	params := station.ATGParams{StopAfterHours: 0, ProbabilityOfStart: 1}
	transport := newScriptedTransport()
	st := newRegisteredStation(t, params, transport)

	clock := atgclock.NewFake(time.Now())
	random := atgclock.NewFakeRandom([]float64{0}, nil, nil)
	perf := perfstats.NewRecorder()
	ctrl := NewController(st, clock, random, perf, nil)

	ctrl.Start(context.Background())
	waitWithTimeout(t, ctrl, 2*time.Second)

	assert.Equal(t, 0, transport.callCounts()[ocpp.ActionStartTransaction])
	assert.False(t, ctrl.Started())
}

func TestStopClearsConnectorStartStatusWithinOneTick(t *testing.T) {
	params := station.ATGParams{
		StopAfterHours:                 10, // long budget; Stop() must cut it short
		MinDelayBetweenTwoTransactions: 1,
		MaxDelayBetweenTwoTransactions: 1,
		MinDuration:                    1,
		MaxDuration:                    1,
		ProbabilityOfStart:             1,
	}
	transport := newScriptedTransport()
	st := newRegisteredStation(t, params, transport)

	clock := atgclock.NewFake(time.Now())
	random := atgclock.NewFakeRandom([]float64{0}, nil, nil)
	perf := perfstats.NewRecorder()
	ctrl := NewController(st, clock, random, perf, nil)

	ctrl.Start(context.Background())
	for _, id := range st.ConnectorIds() {
		assert.True(t, ctrl.ConnectorStartStatus(id))
	}

	ctrl.Stop()
	for _, id := range st.ConnectorIds() {
		assert.False(t, ctrl.ConnectorStartStatus(id))
	}

	waitWithTimeout(t, ctrl, 5*time.Second)
}

func TestStopWhileAlreadyStoppedIsNoOp(t *testing.T) {
	params := station.ATGParams{StopAfterHours: 0, ProbabilityOfStart: 0}
	st := newRegisteredStation(t, params, newScriptedTransport())

	clock := atgclock.NewFake(time.Now())
	random := atgclock.NewFakeRandom(nil, nil, nil)
	perf := perfstats.NewRecorder()
	ctrl := NewController(st, clock, random, perf, nil)

	ctrl.Start(context.Background())
	waitWithTimeout(t, ctrl, 2*time.Second)
	assert.False(t, ctrl.Started())

	// Stop while already stopped: must not panic, just warns.
	ctrl.Stop()
}
