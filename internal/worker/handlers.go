package worker

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/charging-platform/cs-simulator/internal/ocpp"
)

// handlerFunc is the signature every entry in the Command Handler Table
// satisfies: given the targeted entity and the (already-stripped, per
// dispatcher.go) request payload, perform the command and return
// whatever belongs in ResponsePayload.CommandResponse.
type handlerFunc func(ctx context.Context, e *Entity, payload RequestPayload) (interface{}, error)

// handlerTable is the static Command Handler Table (§4.6): one entry per
// ProcedureName the dispatcher accepts. A command absent from this table
// is a BaseError, not a classifier failure.
var handlerTable = map[ProcedureName]handlerFunc{
	ProcStartChargingStation: func(ctx context.Context, e *Entity, payload RequestPayload) (interface{}, error) {
		e.Station.Start()
		return struct{}{}, nil
	},
	ProcStopChargingStation: func(ctx context.Context, e *Entity, payload RequestPayload) (interface{}, error) {
		e.Station.Stop()
		return struct{}{}, nil
	},
	ProcDeleteChargingStations: func(ctx context.Context, e *Entity, payload RequestPayload) (interface{}, error) {
		deleteConfiguration, _ := payload.BoolField("deleteConfiguration")
		e.Station.Delete(deleteConfiguration)
		return struct{}{}, nil
	},
	ProcOpenConnection: func(ctx context.Context, e *Entity, payload RequestPayload) (interface{}, error) {
		if err := e.Station.OpenWSConnection(ctx); err != nil {
			return nil, err
		}
		return struct{}{}, nil
	},
	ProcCloseConnection: func(ctx context.Context, e *Entity, payload RequestPayload) (interface{}, error) {
		if err := e.Station.CloseWSConnection(); err != nil {
			return nil, err
		}
		return struct{}{}, nil
	},
	ProcSetSupervisionUrl: func(ctx context.Context, e *Entity, payload RequestPayload) (interface{}, error) {
		url, ok := payload.StringField("supervisionUrl")
		if !ok || url == "" {
			return nil, &BaseError{Message: "SetSupervisionUrl requires a non-empty supervisionUrl"}
		}
		e.Station.SetSupervisionUrl(url)
		return struct{}{}, nil
	},
	ProcStartAutomaticTransactionGenerator: func(ctx context.Context, e *Entity, payload RequestPayload) (interface{}, error) {
		if e.ATG == nil {
			return nil, &BaseError{Message: "station has no ATG controller configured"}
		}
		e.ATG.Start(context.Background(), payload.ConnectorIds()...)
		return struct{}{}, nil
	},
	ProcStopAutomaticTransactionGenerator: func(ctx context.Context, e *Entity, payload RequestPayload) (interface{}, error) {
		if e.ATG == nil {
			return nil, &BaseError{Message: "station has no ATG controller configured"}
		}
		e.ATG.Stop(payload.ConnectorIds()...)
		return struct{}{}, nil
	},
	ProcBootNotification: func(ctx context.Context, e *Entity, payload RequestPayload) (interface{}, error) {
		svc := e.Station.RequestService()
		if svc == nil {
			return nil, fmt.Errorf("station %s: no OCPP request service bound", e.Station.HashId())
		}
		req := e.Station.BootNotificationRequest()
		applyStringOverride(payload, "chargePointVendor", &req.ChargePointVendor)
		applyStringOverride(payload, "chargePointModel", &req.ChargePointModel)
		resp, err := svc.SendBootNotification(ctx, req)
		if err != nil {
			return nil, err
		}
		e.Station.SetRegistered(resp.Status == ocpp.RegistrationStatusAccepted)
		return resp, nil
	},
	ProcHeartbeat: func(ctx context.Context, e *Entity, payload RequestPayload) (interface{}, error) {
		svc := e.Station.RequestService()
		if svc == nil {
			return nil, fmt.Errorf("station %s: no OCPP request service bound", e.Station.HashId())
		}
		return svc.SendHeartbeat(ctx)
	},
	ProcAuthorize: func(ctx context.Context, e *Entity, payload RequestPayload) (interface{}, error) {
		svc := e.Station.RequestService()
		if svc == nil {
			return nil, fmt.Errorf("station %s: no OCPP request service bound", e.Station.HashId())
		}
		connectorId, _ := payload.ConnectorId()
		idTag, _ := payload.StringField("idTag")
		return svc.SendAuthorize(ctx, connectorId, idTag)
	},
	ProcStartTransaction: func(ctx context.Context, e *Entity, payload RequestPayload) (interface{}, error) {
		svc := e.Station.RequestService()
		if svc == nil {
			return nil, fmt.Errorf("station %s: no OCPP request service bound", e.Station.HashId())
		}
		connectorId, _ := payload.ConnectorId()
		idTag, _ := payload.StringField("idTag")
		meterStart := 0
		if v, ok := payload["meterStart"].(float64); ok {
			meterStart = int(v)
		}
		return svc.SendStartTransaction(ctx, connectorId, idTag, meterStart)
	},
	ProcStopTransaction: func(ctx context.Context, e *Entity, payload RequestPayload) (interface{}, error) {
		svc := e.Station.RequestService()
		if svc == nil {
			return nil, fmt.Errorf("station %s: no OCPP request service bound", e.Station.HashId())
		}
		transactionId, _ := payload.TransactionId()
		idTag, _ := payload.StringField("idTag")
		meterStop := e.Station.GetEnergyActiveImportRegisterByTransactionId(transactionId, true)
		if v, ok := payload["meterStop"].(float64); ok {
			meterStop = int(v)
		}
		reason := ocpp.Reason("")
		if r, ok := payload.StringField("reason"); ok {
			reason = ocpp.Reason(r)
		}
		return svc.SendStopTransaction(ctx, transactionId, meterStop, idTag, reason)
	},
	ProcStatusNotification: func(ctx context.Context, e *Entity, payload RequestPayload) (interface{}, error) {
		svc := e.Station.RequestService()
		if svc == nil {
			return nil, fmt.Errorf("station %s: no OCPP request service bound", e.Station.HashId())
		}
		connectorId, _ := payload.ConnectorId()
		status, _ := payload.StringField("status")
		errorCode, ok := payload.StringField("errorCode")
		if !ok {
			errorCode = string(ocpp.ChargePointErrorCodeNoError)
		}
		req := ocpp.StatusNotificationRequest{
			ConnectorId: connectorId,
			ErrorCode:   ocpp.ChargePointErrorCode(errorCode),
			Status:      ocpp.ChargePointStatus(status),
		}
		return svc.SendStatusNotification(ctx, req)
	},
	ProcMeterValues: func(ctx context.Context, e *Entity, payload RequestPayload) (interface{}, error) {
		svc := e.Station.RequestService()
		if svc == nil {
			return nil, fmt.Errorf("station %s: no OCPP request service bound", e.Station.HashId())
		}
		connectorId, _ := payload.ConnectorId()
		conn := e.Station.GetConnector(connectorId)

		var txId *int
		if conn != nil && conn.TransactionStarted {
			id := conn.TransactionId
			txId = &id
		}

		measurand := ocpp.MeasurandEnergyActiveImportRegister
		value := "0"
		if conn != nil {
			value = strconv.Itoa(conn.EnergyActiveImportRegister)
		}

		req := ocpp.MeterValuesRequest{
			ConnectorId:   connectorId,
			TransactionId: txId,
			MeterValue: []ocpp.MeterValue{{
				Timestamp: ocpp.NewDateTime(time.Now()),
				SampledValue: []ocpp.SampledValue{{
					Value:     value,
					Measurand: &measurand,
				}},
			}},
		}
		return svc.SendMeterValues(ctx, req)
	},
	ProcDataTransfer: func(ctx context.Context, e *Entity, payload RequestPayload) (interface{}, error) {
		svc := e.Station.RequestService()
		if svc == nil {
			return nil, fmt.Errorf("station %s: no OCPP request service bound", e.Station.HashId())
		}
		vendorId, _ := payload.StringField("vendorId")
		req := ocpp.DataTransferRequest{VendorId: vendorId, Data: payload["data"]}
		if messageId, ok := payload.StringField("messageId"); ok {
			req.MessageId = &messageId
		}
		return svc.SendDataTransfer(ctx, req)
	},
	ProcDiagnosticsStatusNotification: func(ctx context.Context, e *Entity, payload RequestPayload) (interface{}, error) {
		svc := e.Station.RequestService()
		if svc == nil {
			return nil, fmt.Errorf("station %s: no OCPP request service bound", e.Station.HashId())
		}
		status, _ := payload.StringField("status")
		return svc.SendDiagnosticsStatusNotification(ctx, status)
	},
	ProcFirmwareStatusNotification: func(ctx context.Context, e *Entity, payload RequestPayload) (interface{}, error) {
		svc := e.Station.RequestService()
		if svc == nil {
			return nil, fmt.Errorf("station %s: no OCPP request service bound", e.Station.HashId())
		}
		status, _ := payload.StringField("status")
		return svc.SendFirmwareStatusNotification(ctx, status)
	},
	ProcGetConfiguration: func(ctx context.Context, e *Entity, payload RequestPayload) (interface{}, error) {
		svc := e.Station.RequestService()
		if svc == nil {
			return nil, fmt.Errorf("station %s: no OCPP request service bound", e.Station.HashId())
		}
		return svc.SendGetConfiguration(ctx, payload.StringSliceField("key"))
	},
	ProcChangeConfiguration: func(ctx context.Context, e *Entity, payload RequestPayload) (interface{}, error) {
		svc := e.Station.RequestService()
		if svc == nil {
			return nil, fmt.Errorf("station %s: no OCPP request service bound", e.Station.HashId())
		}
		key, _ := payload.StringField("key")
		value, _ := payload.StringField("value")
		return svc.SendChangeConfiguration(ctx, key, value)
	},
	ProcReset: func(ctx context.Context, e *Entity, payload RequestPayload) (interface{}, error) {
		svc := e.Station.RequestService()
		if svc == nil {
			return nil, fmt.Errorf("station %s: no OCPP request service bound", e.Station.HashId())
		}
		resetType, ok := payload.StringField("type")
		if !ok || resetType == "" {
			resetType = string(ocpp.ResetTypeHard)
		}
		resp, err := svc.SendReset(ctx, ocpp.ResetType(resetType))
		if err != nil {
			return nil, err
		}
		if resp.Status == ocpp.ResetStatusAccepted {
			e.Station.Stop()
		}
		return resp, nil
	},
}

func applyStringOverride(payload RequestPayload, key string, dst *string) {
	if v, ok := payload.StringField(key); ok && v != "" {
		*dst = v
	}
}
