package atg

import "time"

// Scheduling constants from spec §4.2/§6. Names mirror the contractual
// CHARGING_STATION_ATG_* constants.
const (
	// InitPollInterval is CHARGING_STATION_ATG_INITIALIZATION_TIME: the
	// only busy-wait permitted, while a connector loop waits for the
	// station's OCPP Request Service to come up.
	InitPollInterval = 1 * time.Second

	// WaitAfterReject is CHARGING_STATION_ATG_WAIT_TIME: the cool-off a
	// loop sleeps after a rejected StartTransaction/Authorize before
	// retrying.
	WaitAfterReject = 5 * time.Second

	// DefaultStopAfterHours is CHARGING_STATION_ATG_DEFAULT_STOP_AFTER_HOURS.
	DefaultStopAfterHours = 0.25
)

// MeasureStartTransaction and MeasureStopTransaction are the perfstats
// measurement ids §4.3/§4.4 specify.
const (
	MeasureStartTransaction = "StartTransaction with ATG"
	MeasureStopTransaction  = "StopTransaction with ATG"
)
