package atg

import (
	"context"
	"time"

	"github.com/charging-platform/cs-simulator/internal/metrics"
	"github.com/charging-platform/cs-simulator/internal/ocpp"
	"github.com/charging-platform/cs-simulator/internal/station"
)

// runConnectorLoop drives one connector (§4.2): wait, probabilistically
// start, wait for duration, stop, repeat until deadline or shutdown. It
// always attempts a terminal StopTransaction on exit if one was left
// running, whether the loop ended normally or recovered from a panic.
func (c *Controller) runConnectorLoop(ctx context.Context, connectorId int) {
	defer c.finalStopTransaction(connectorId)
	defer func() {
		if r := recover(); r != nil {
			c.errorf("connector %d: recovered from panic: %v", connectorId, r)
		}
	}()

	for {
		if !c.ConnectorStartStatus(connectorId) {
			return
		}

		now := c.clock.Now()
		if !now.Before(c.stopDateSnapshot()) {
			c.infof("connector %d: ATG deadline reached, stopping", connectorId)
			c.Stop()
			return
		}

		if !c.st.IsRegistered() {
			c.errorf("connector %d: station not registered, exiting ATG loop", connectorId)
			return
		}

		if !c.st.IsChargingStationAvailable() {
			c.infof("connector %d: station unavailable, stopping ATG", connectorId)
			c.Stop()
			return
		}

		if !c.st.IsConnectorAvailable(connectorId) {
			c.infof("connector %d: connector unavailable, exiting ATG loop", connectorId)
			return
		}

		for c.st.RequestService() == nil {
			if err := c.clock.Sleep(ctx, InitPollInterval); err != nil {
				return
			}
			if !c.ConnectorStartStatus(connectorId) {
				return
			}
		}

		params := c.st.StationInfo().AutomaticTransactionGenerator
		delay := c.random.UniformDuration(params.MinDelayBetweenTwoTransactions, params.MaxDelayBetweenTwoTransactions)
		if err := c.clock.Sleep(ctx, delay); err != nil {
			return
		}
		if !c.ConnectorStartStatus(connectorId) {
			return
		}

		if c.random.UniformFloat() < params.ProbabilityOfStart {
			c.runOneTransaction(ctx, connectorId, params)
		} else {
			metrics.ATGSkippedCycles.WithLabelValues(c.st.HashId()).Inc()
			if conn := c.st.GetConnector(connectorId); conn != nil {
				conn.RecentSkipCount++
			}
			c.infof("connector %d: skipped starting a transaction", connectorId)
		}

		c.recordLastRun(c.clock.Now())
	}
}

// runOneTransaction is step 7 of §4.2: start, sleep the drawn duration,
// stop. A rejected start instead sleeps WaitAfterReject and returns to the
// outer loop.
func (c *Controller) runOneTransaction(ctx context.Context, connectorId int, params station.ATGParams) {
	outcome, err := c.startTransaction(ctx, connectorId)
	if err != nil {
		c.errorf("connector %d: startTransaction failed: %v", connectorId, err)
		return
	}
	if !outcome.Accepted() {
		c.infof("connector %d: start rejected, cooling off", connectorId)
		_ = c.clock.Sleep(ctx, WaitAfterReject)
		return
	}

	metrics.ATGTransactionsStarted.WithLabelValues(c.st.HashId()).Inc()
	if conn := c.st.GetConnector(connectorId); conn != nil {
		conn.RecentSkipCount = 0
	}

	duration := c.random.UniformDuration(params.MinDuration, params.MaxDuration)
	_ = c.clock.Sleep(ctx, duration)

	if _, err := c.stopTransaction(ctx, connectorId, ocpp.ReasonNone); err != nil {
		c.errorf("connector %d: stopTransaction failed: %v", connectorId, err)
		return
	}
	metrics.ATGTransactionsStopped.WithLabelValues(c.st.HashId()).Inc()
}

// finalStopTransaction is the terminal StopTransaction a loop attempts on
// exit (cancellation, deadline, or anomaly) if it left a transaction
// running on this connector.
func (c *Controller) finalStopTransaction(connectorId int) {
	conn := c.st.GetConnector(connectorId)
	if conn == nil || !conn.TransactionStarted {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if _, err := c.stopTransaction(ctx, connectorId, ocpp.ReasonOther); err != nil {
		c.errorf("connector %d: final stopTransaction failed: %v", connectorId, err)
		return
	}
	metrics.ATGTransactionsStopped.WithLabelValues(c.st.HashId()).Inc()
}
