// Package worker implements the Worker Command Channel: the message-routed
// control plane that lets an external orchestrator steer a simulated
// station through one uniform request/response envelope (§3, §4.5-4.7).
package worker

// ProcedureName enumerates every command the worker channel accepts.
type ProcedureName string

const (
	ProcStartChargingStation               ProcedureName = "StartChargingStation"
	ProcStopChargingStation                ProcedureName = "StopChargingStation"
	ProcDeleteChargingStations             ProcedureName = "DeleteChargingStations"
	ProcOpenConnection                     ProcedureName = "OpenConnection"
	ProcCloseConnection                    ProcedureName = "CloseConnection"
	ProcStartAutomaticTransactionGenerator ProcedureName = "StartAutomaticTransactionGenerator"
	ProcStopAutomaticTransactionGenerator  ProcedureName = "StopAutomaticTransactionGenerator"
	ProcSetSupervisionUrl                  ProcedureName = "SetSupervisionUrl"
	ProcStartTransaction                   ProcedureName = "StartTransaction"
	ProcStopTransaction                    ProcedureName = "StopTransaction"
	ProcAuthorize                          ProcedureName = "Authorize"
	ProcStatusNotification                 ProcedureName = "StatusNotification"
	ProcHeartbeat                          ProcedureName = "Heartbeat"
	ProcDataTransfer                       ProcedureName = "DataTransfer"
	ProcDiagnosticsStatusNotification      ProcedureName = "DiagnosticsStatusNotification"
	ProcFirmwareStatusNotification         ProcedureName = "FirmwareStatusNotification"
	ProcBootNotification                   ProcedureName = "BootNotification"
	ProcMeterValues                        ProcedureName = "MeterValues"
	ProcGetConfiguration                   ProcedureName = "GetConfiguration"
	ProcChangeConfiguration                ProcedureName = "ChangeConfiguration"
	ProcReset                              ProcedureName = "Reset"
)

// Status is the outcome carried on a response envelope.
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailure Status = "failure"
)

// RequestPayload is the dynamic, procedure-specific payload carried by a
// request envelope. Modelled as a map (rather than one struct per
// procedure) because the dispatcher must inspect and strip the targeting
// fields (hashId, hashIds) uniformly before a handler ever sees it;
// connectorIds is left in place for the handlers that read it.
type RequestPayload map[string]interface{}

// HashIds returns payload.hashIds as a []string, or nil if absent/empty.
func (p RequestPayload) HashIds() []string {
	raw, ok := p["hashIds"]
	if !ok {
		return nil
	}
	items, ok := raw.([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, v := range items {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// HashId returns the legacy singular hashId field, if present.
func (p RequestPayload) HashId() (string, bool) {
	v, ok := p["hashId"]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// ConnectorIds returns payload.connectorIds as a []int, or nil if
// absent/empty.
func (p RequestPayload) ConnectorIds() []int {
	raw, ok := p["connectorIds"]
	if !ok {
		return nil
	}
	items, ok := raw.([]interface{})
	if !ok {
		return nil
	}
	out := make([]int, 0, len(items))
	for _, v := range items {
		switch n := v.(type) {
		case float64:
			out = append(out, int(n))
		case int:
			out = append(out, n)
		}
	}
	return out
}

// connectorIntField reads a single integer field (e.g. "connectorId",
// "transactionId"), tolerating both JSON numbers (float64) and ints.
func (p RequestPayload) connectorIntField(key string) (int, bool) {
	v, ok := p[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return int(n), true
	case int:
		return n, true
	default:
		return 0, false
	}
}

// ConnectorId returns the singular "connectorId" field used by
// METER_VALUES and other per-connector commands.
func (p RequestPayload) ConnectorId() (int, bool) { return p.connectorIntField("connectorId") }

// TransactionId returns the "transactionId" field used by STOP_TRANSACTION.
func (p RequestPayload) TransactionId() (int, bool) { return p.connectorIntField("transactionId") }

// StringSliceField reads a string-array field (e.g. GetConfiguration's
// "key" list), tolerating absence by returning nil.
func (p RequestPayload) StringSliceField(key string) []string {
	raw, ok := p[key]
	if !ok {
		return nil
	}
	items, ok := raw.([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, v := range items {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// StringField reads a string-valued field.
func (p RequestPayload) StringField(key string) (string, bool) {
	v, ok := p[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// BoolField reads a bool-valued field.
func (p RequestPayload) BoolField(key string) (bool, bool) {
	v, ok := p[key]
	if !ok {
		return false, false
	}
	b, ok := v.(bool)
	return b, ok
}

// RequestEnvelope is the `(uuid, command, payload)` tuple the broadcast
// channel delivers.
type RequestEnvelope struct {
	UUID    string         `json:"uuid"`
	Command ProcedureName  `json:"command"`
	Payload RequestPayload `json:"payload"`
}

// ResponsePayload is the `{hashId, status, ...}` tuple published back,
// optionally carrying the failure detail fields §3 describes.
type ResponsePayload struct {
	HashId          string         `json:"hashId"`
	Status          Status         `json:"status"`
	Command         ProcedureName  `json:"command,omitempty"`
	RequestPayload  RequestPayload `json:"requestPayload,omitempty"`
	CommandResponse interface{}    `json:"commandResponse,omitempty"`
	ErrorMessage    string         `json:"errorMessage,omitempty"`
	ErrorStack      string         `json:"errorStack,omitempty"`
	ErrorDetails    interface{}    `json:"errorDetails,omitempty"`
}

// ResponseEnvelope is the `(uuid, payload)` tuple published for every
// accepted request, tagged with its originating uuid.
type ResponseEnvelope struct {
	UUID    string          `json:"uuid"`
	Payload ResponsePayload `json:"payload"`
}

// BaseError is raised for programmer-error conditions the dispatcher
// cannot route around, e.g. a handler-table gap for a new command.
type BaseError struct {
	Message string
}

func (e *BaseError) Error() string { return e.Message }
