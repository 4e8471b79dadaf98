package atg

import (
	"context"
	"fmt"

	"github.com/charging-platform/cs-simulator/internal/ocpp"
	"github.com/charging-platform/cs-simulator/internal/station"
)

// startTransaction implements §4.3's decision tree, bracketed by the
// "StartTransaction with ATG" measurement.
func (c *Controller) startTransaction(ctx context.Context, connectorId int) (station.StartTransactionOutcome, error) {
	tok := c.perf.BeginMeasure(MeasureStartTransaction)
	defer c.perf.EndMeasure(MeasureStartTransaction, tok)

	svc := c.st.RequestService()
	if svc == nil {
		return station.StartTransactionOutcome{}, fmt.Errorf("connector %d: no OCPP request service bound", connectorId)
	}

	if !c.st.HasAuthorizedTags() {
		resp, err := svc.SendStartTransaction(ctx, connectorId, "", 0)
		if err != nil {
			return station.StartTransactionOutcome{}, err
		}
		c.bindTransaction(connectorId, resp, "")
		return station.StartTransactionOutcome{Started: &resp}, nil
	}

	idTag := c.st.GetRandomIdTag(c.random)

	if c.st.GetAutomaticTransactionGeneratorRequireAuthorize() {
		authResp, err := svc.SendAuthorize(ctx, connectorId, idTag)
		if err != nil {
			return station.StartTransactionOutcome{}, err
		}
		if authResp.IdTagInfo.Status != ocpp.AuthorizationStatusAccepted {
			return station.StartTransactionOutcome{Rejected: &authResp}, nil
		}
	}

	resp, err := svc.SendStartTransaction(ctx, connectorId, idTag, 0)
	if err != nil {
		return station.StartTransactionOutcome{}, err
	}
	c.bindTransaction(connectorId, resp, idTag)
	return station.StartTransactionOutcome{Started: &resp}, nil
}

func (c *Controller) bindTransaction(connectorId int, resp ocpp.StartTransactionResponse, idTag string) {
	if resp.IdTagInfo.Status != ocpp.AuthorizationStatusAccepted {
		return
	}
	conn := c.st.GetConnector(connectorId)
	if conn == nil {
		return
	}
	conn.TransactionStarted = true
	conn.TransactionId = resp.TransactionId
	conn.TransactionIdTag = idTag
}

// stopTransaction implements §4.4. If the connector has no active
// transaction it logs a warning and returns the explicit no-op outcome
// (§9's Open Question) rather than an absent value.
func (c *Controller) stopTransaction(ctx context.Context, connectorId int, reason ocpp.Reason) (station.StopTransactionOutcome, error) {
	tok := c.perf.BeginMeasure(MeasureStopTransaction)
	defer c.perf.EndMeasure(MeasureStopTransaction, tok)

	conn := c.st.GetConnector(connectorId)
	if conn == nil || !conn.TransactionStarted {
		c.warnf("connector %d: stopTransaction called with no active transaction", connectorId)
		return station.StopTransactionOutcome{NoOp: true}, nil
	}

	svc := c.st.RequestService()
	if svc == nil {
		return station.StopTransactionOutcome{}, fmt.Errorf("connector %d: no OCPP request service bound", connectorId)
	}

	transactionId := conn.TransactionId
	meterStop := c.st.GetEnergyActiveImportRegisterByTransactionId(transactionId, true)
	idTag := c.st.GetTransactionIdTag(transactionId)

	resp, err := svc.SendStopTransaction(ctx, transactionId, meterStop, idTag, reason)
	if err != nil {
		return station.StopTransactionOutcome{}, err
	}

	conn.TransactionStarted = false
	conn.TransactionId = 0
	conn.TransactionIdTag = ""

	return station.StopTransactionOutcome{Response: &resp}, nil
}
