package station

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/charging-platform/cs-simulator/internal/atgclock"
	"github.com/charging-platform/cs-simulator/internal/ocpp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubConnector struct {
	opened bool
	closed bool
}

func (c *stubConnector) Open(ctx context.Context) (ocpp.Transport, error) {
	c.opened = true
	return stubTransport{}, nil
}

func (c *stubConnector) Close() error {
	c.closed = true
	return nil
}

type stubTransport struct{}

func (stubTransport) Call(ctx context.Context, messageID string, action ocpp.Action, payload interface{}) (json.RawMessage, error) {
	return nil, nil
}

func newTestStation() *Station {
	return New(Config{
		HashId:         "CS-001",
		ConnectorCount: 2,
		AuthorizedTags: []string{"TAG1", "TAG2"},
		Info:           Info{AutomaticTransactionGenerator: DefaultATGParams()},
	})
}

func TestConnectorIdsExcludesZero(t *testing.T) {
	s := newTestStation()
	assert.Equal(t, []int{1}, s.ConnectorIds())
}

func TestStartStopIdempotent(t *testing.T) {
	s := newTestStation()
	assert.True(t, s.IsChargingStationAvailable())
	s.Start() // no-op, already available
	assert.True(t, s.IsChargingStationAvailable())

	s.Stop()
	assert.False(t, s.IsChargingStationAvailable())
	s.Stop() // no-op, already stopped
	assert.False(t, s.IsChargingStationAvailable())

	s.Start()
	assert.True(t, s.IsChargingStationAvailable())
}

func TestOpenCloseWSConnectionBindsRequestService(t *testing.T) {
	conn := &stubConnector{}
	s := New(Config{HashId: "CS-002", ConnectorCount: 1, WSConnector: conn})

	assert.Nil(t, s.RequestService())
	require.NoError(t, s.OpenWSConnection(context.Background()))
	assert.True(t, conn.opened)
	assert.NotNil(t, s.RequestService())

	require.NoError(t, s.CloseWSConnection())
	assert.True(t, conn.closed)
	assert.Nil(t, s.RequestService())
}

func TestGetRandomIdTagUsesRandomSource(t *testing.T) {
	s := newTestStation()
	r := atgclock.NewFakeRandom(nil, nil, []int{1})
	assert.Equal(t, "TAG2", s.GetRandomIdTag(r))
}

func TestEnergyAndIdTagLookupByTransaction(t *testing.T) {
	s := newTestStation()
	c := s.GetConnector(1)
	c.TransactionStarted = true
	c.TransactionId = 7
	c.TransactionIdTag = "TAG1"
	c.EnergyActiveImportRegister = 1234

	assert.Equal(t, 1234, s.GetEnergyActiveImportRegisterByTransactionId(7, true))
	assert.Equal(t, "TAG1", s.GetTransactionIdTag(7))
	assert.Equal(t, 0, s.GetEnergyActiveImportRegisterByTransactionId(99, true))
}
