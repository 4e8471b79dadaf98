// Package station models the charging station handle the ATG and worker
// packages operate against: the connector table, station metadata, and
// the (optional) OCPP Request Service bound once the WebSocket session is
// established.
package station

import "github.com/charging-platform/cs-simulator/internal/ocpp"

// ATGParams are the `stationInfo.AutomaticTransactionGenerator` knobs the
// per-connector transaction loop reads every iteration.
type ATGParams struct {
	Enable                          bool
	StopAfterHours                  float64
	MinDelayBetweenTwoTransactions  float64
	MaxDelayBetweenTwoTransactions  float64
	MinDuration                     float64
	MaxDuration                     float64
	ProbabilityOfStart              float64
	RequireAuthorize                bool
}

// DefaultATGParams mirrors the contractual defaults in spec §6.
func DefaultATGParams() ATGParams {
	return ATGParams{
		StopAfterHours:                 0.25,
		MinDelayBetweenTwoTransactions: 15,
		MaxDelayBetweenTwoTransactions: 30,
		MinDuration:                    60,
		MaxDuration:                    300,
		ProbabilityOfStart:             1,
	}
}

// Info is the template-derived metadata a Station is built from.
type Info struct {
	HashId                    string
	SupervisionUrl            string
	MeterValueSampleInterval  int // milliseconds; DEFAULT_METER_VALUES_INTERVAL when zero
	AutomaticTransactionGenerator ATGParams
}

// DefaultMeterValuesIntervalMs is DEFAULT_METER_VALUES_INTERVAL from §6.
const DefaultMeterValuesIntervalMs = 60000

// Connector is keyed by a positive integer; id 0 denotes the station
// itself and never runs a transaction.
type Connector struct {
	Available                  bool
	TransactionStarted         bool
	TransactionId              int
	TransactionIdTag           string
	EnergyActiveImportRegister int

	// RecentSkipCount counts consecutive ATG cycles that skipped starting a
	// transaction since the last one actually started; it resets to 0 the
	// moment a transaction starts, unlike the monotonic Prometheus total.
	RecentSkipCount int
}

// StartTransactionOutcome is the tagged variant `startTransaction` returns:
// either the transaction actually started, or an Authorize rejection
// short-circuited it (§4.3, §9 "sum-type response").
type StartTransactionOutcome struct {
	Started   *ocpp.StartTransactionResponse
	Rejected  *ocpp.AuthorizeResponse
}

// Accepted reports whether the outcome represents an accepted, started
// transaction.
func (o StartTransactionOutcome) Accepted() bool {
	return o.Started != nil && o.Started.IdTagInfo.Status == ocpp.AuthorizationStatusAccepted
}

// StopTransactionOutcome is the "no-op" outcome §9's Open Question calls
// for: stopTransaction on a connector with no active transaction returns
// an outcome with NoOp set and a nil Response rather than an absent value.
type StopTransactionOutcome struct {
	Response *ocpp.StopTransactionResponse
	NoOp     bool
}
