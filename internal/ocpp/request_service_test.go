package ocpp

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubTransport struct {
	response json.RawMessage
	err      error
	lastCall Action
}

func (s *stubTransport) Call(ctx context.Context, messageID string, action Action, payload interface{}) (json.RawMessage, error) {
	s.lastCall = action
	return s.response, s.err
}

func TestSendAuthorizeAccepted(t *testing.T) {
	resp, _ := json.Marshal(AuthorizeResponse{IdTagInfo: IdTagInfo{Status: AuthorizationStatusAccepted}})
	svc := NewRequestService(&stubTransport{response: resp})

	out, err := svc.SendAuthorize(context.Background(), 1, "TAG1")
	require.NoError(t, err)
	assert.Equal(t, AuthorizationStatusAccepted, out.IdTagInfo.Status)
}

func TestSendStartTransactionPropagatesOCPPError(t *testing.T) {
	transport := &stubTransport{err: &OCPPError{Action: ActionStartTransaction, Code: "NetworkError", Message: "timeout"}}
	svc := NewRequestService(transport)

	_, err := svc.SendStartTransaction(context.Background(), 1, "TAG1", 0)
	require.Error(t, err)

	var ocppErr *OCPPError
	require.ErrorAs(t, err, &ocppErr)
	assert.Equal(t, "NetworkError", ocppErr.Code)
}

func TestSendStopTransactionWrapsGenericTransportError(t *testing.T) {
	transport := &stubTransport{err: assertError{"boom"}}
	svc := NewRequestService(transport)

	_, err := svc.SendStopTransaction(context.Background(), 42, 100, "TAG1", ReasonLocal)
	require.Error(t, err)

	var ocppErr *OCPPError
	require.ErrorAs(t, err, &ocppErr)
	assert.Equal(t, "GenericError", ocppErr.Code)
}

func TestSendHeartbeatDecodesResponse(t *testing.T) {
	now := NewDateTime(time.Now().UTC().Truncate(time.Second))
	resp, _ := json.Marshal(HeartbeatResponse{CurrentTime: now})
	svc := NewRequestService(&stubTransport{response: resp})

	out, err := svc.SendHeartbeat(context.Background())
	require.NoError(t, err)
	assert.Equal(t, now.Time, out.CurrentTime.Time)
}

type assertError struct{ msg string }

func (e assertError) Error() string { return e.msg }
