package ocpp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// OCPPError is raised by the Request Service when a Call times out, the
// transport fails, or the CSMS replies with a CallError frame. The worker
// dispatcher reports its Message as the thrown-failure response's
// errorMessage and its Code and Details under errorDetails.
type OCPPError struct {
	Action  Action
	Code    string
	Message string
	Details interface{}
}

func (e *OCPPError) Error() string {
	return fmt.Sprintf("ocpp error on %s: %s: %s", e.Action, e.Code, e.Message)
}

// Params controls how a single Call behaves. SkipBufferingOnError and
// ThrowError mirror the two knobs the worker Command Handler Table sets
// per §4.6/§6. Call reads neither: every failure is returned as an error,
// and this simulator never buffers offline requests.
type Params struct {
	ThrowError           bool
	SkipBufferingOnError bool
}

// DefaultParams is {ThrowError: true}, the setting every forwarded worker
// command in §4.6 uses.
func DefaultParams() Params { return Params{ThrowError: true} }

// Transport is the minimum a station's WebSocket session must offer the
// Request Service: frame a Call onto the wire and block until the
// matching CallResult/CallError frame (or ctx) completes it.
type Transport interface {
	Call(ctx context.Context, messageID string, action Action, payload interface{}) (json.RawMessage, error)
}

// RequestService is the OCPP Request Service collaborator: it serializes a
// typed request, transmits it over the station's transport, and returns
// the typed response or an *OCPPError.
type RequestService struct {
	transport Transport
	idGen     func() string
}

// NewRequestService builds a Request Service over the given transport.
func NewRequestService(transport Transport) *RequestService {
	return &RequestService{transport: transport, idGen: uuid.NewString}
}

// Call performs one typed OCPP request/response round trip. Generic type
// parameters let every convenience method below (and the worker Command
// Handler Table) stay free of per-action boilerplate.
func Call[Resp any](ctx context.Context, svc *RequestService, action Action, req interface{}, params Params) (Resp, error) {
	var resp Resp
	messageID := svc.idGen()

	raw, err := svc.transport.Call(ctx, messageID, action, req)
	if err != nil {
		ocppErr, ok := err.(*OCPPError)
		if !ok {
			ocppErr = &OCPPError{Action: action, Code: "GenericError", Message: err.Error()}
		}
		return resp, ocppErr
	}

	if len(raw) == 0 {
		return resp, nil
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return resp, &OCPPError{Action: action, Code: "FormationViolation", Message: err.Error(), Details: string(raw)}
	}
	return resp, nil
}

// SendAuthorize issues an Authorize request for idTag on connectorId.
// connectorId is accepted for parity with the ATG's call site even though
// OCPP 1.6's Authorize payload does not carry it.
func (s *RequestService) SendAuthorize(ctx context.Context, connectorId int, idTag string) (AuthorizeResponse, error) {
	return Call[AuthorizeResponse](ctx, s, ActionAuthorize, AuthorizeRequest{IdTag: idTag}, DefaultParams())
}

// SendStartTransaction issues a StartTransaction request. idTag may be
// empty when the station has no authorized tags configured.
func (s *RequestService) SendStartTransaction(ctx context.Context, connectorId int, idTag string, meterStart int) (StartTransactionResponse, error) {
	req := StartTransactionRequest{
		ConnectorId: connectorId,
		IdTag:       idTag,
		MeterStart:  meterStart,
		Timestamp:   NewDateTime(time.Now()),
	}
	return Call[StartTransactionResponse](ctx, s, ActionStartTransaction, req, DefaultParams())
}

// SendStopTransaction issues a StopTransaction request.
func (s *RequestService) SendStopTransaction(ctx context.Context, transactionId, meterStop int, idTag string, reason Reason) (StopTransactionResponse, error) {
	req := StopTransactionRequest{
		MeterStop:     meterStop,
		Timestamp:     NewDateTime(time.Now()),
		TransactionId: transactionId,
	}
	if idTag != "" {
		req.IdTag = &idTag
	}
	if reason != "" {
		req.Reason = &reason
	}
	return Call[StopTransactionResponse](ctx, s, ActionStopTransaction, req, DefaultParams())
}

// SendHeartbeat issues a Heartbeat request.
func (s *RequestService) SendHeartbeat(ctx context.Context) (HeartbeatResponse, error) {
	return Call[HeartbeatResponse](ctx, s, ActionHeartbeat, HeartbeatRequest{}, DefaultParams())
}

// SendBootNotification issues a BootNotification request.
func (s *RequestService) SendBootNotification(ctx context.Context, req BootNotificationRequest) (BootNotificationResponse, error) {
	return Call[BootNotificationResponse](ctx, s, ActionBootNotification, req, Params{ThrowError: true, SkipBufferingOnError: true})
}

// SendStatusNotification issues a StatusNotification request.
func (s *RequestService) SendStatusNotification(ctx context.Context, req StatusNotificationRequest) (StatusNotificationResponse, error) {
	return Call[StatusNotificationResponse](ctx, s, ActionStatusNotification, req, DefaultParams())
}

// SendMeterValues issues a MeterValues request.
func (s *RequestService) SendMeterValues(ctx context.Context, req MeterValuesRequest) (MeterValuesResponse, error) {
	return Call[MeterValuesResponse](ctx, s, ActionMeterValues, req, DefaultParams())
}

// SendDataTransfer issues a DataTransfer request.
func (s *RequestService) SendDataTransfer(ctx context.Context, req DataTransferRequest) (DataTransferResponse, error) {
	return Call[DataTransferResponse](ctx, s, ActionDataTransfer, req, DefaultParams())
}

// SendDiagnosticsStatusNotification issues a DiagnosticsStatusNotification request.
func (s *RequestService) SendDiagnosticsStatusNotification(ctx context.Context, status string) (DiagnosticsStatusNotificationResponse, error) {
	req := DiagnosticsStatusNotificationRequest{Status: status}
	return Call[DiagnosticsStatusNotificationResponse](ctx, s, ActionDiagnosticsStatusNotification, req, DefaultParams())
}

// SendFirmwareStatusNotification issues a FirmwareStatusNotification request.
func (s *RequestService) SendFirmwareStatusNotification(ctx context.Context, status string) (FirmwareStatusNotificationResponse, error) {
	req := FirmwareStatusNotificationRequest{Status: status}
	return Call[FirmwareStatusNotificationResponse](ctx, s, ActionFirmwareStatusNotification, req, DefaultParams())
}

// SendGetConfiguration issues a GetConfiguration request. An empty keys
// slice asks the station to return every configuration key it holds.
func (s *RequestService) SendGetConfiguration(ctx context.Context, keys []string) (GetConfigurationResponse, error) {
	req := GetConfigurationRequest{Key: keys}
	return Call[GetConfigurationResponse](ctx, s, ActionGetConfiguration, req, DefaultParams())
}

// SendChangeConfiguration issues a ChangeConfiguration request.
func (s *RequestService) SendChangeConfiguration(ctx context.Context, key, value string) (ChangeConfigurationResponse, error) {
	req := ChangeConfigurationRequest{Key: key, Value: value}
	return Call[ChangeConfigurationResponse](ctx, s, ActionChangeConfiguration, req, DefaultParams())
}

// SendReset issues a Reset request.
func (s *RequestService) SendReset(ctx context.Context, resetType ResetType) (ResetResponse, error) {
	req := ResetRequest{Type: resetType}
	return Call[ResetResponse](ctx, s, ActionReset, req, DefaultParams())
}
