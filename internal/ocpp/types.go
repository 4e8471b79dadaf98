// Package ocpp holds the OCPP 1.6J wire vocabulary: message types, actions,
// status enumerations and the common value types shared across request and
// response payloads.
package ocpp

import "time"

// MessageTypeId identifies the three OCPP-J frame shapes.
type MessageTypeId int

const (
	Call       MessageTypeId = 2
	CallResult MessageTypeId = 3
	CallError  MessageTypeId = 4
)

// Action names the OCPP 1.6 procedures this simulator can issue or receive.
type Action string

const (
	ActionAuthorize                     Action = "Authorize"
	ActionBootNotification              Action = "BootNotification"
	ActionChangeAvailability            Action = "ChangeAvailability"
	ActionChangeConfiguration           Action = "ChangeConfiguration"
	ActionClearCache                    Action = "ClearCache"
	ActionDataTransfer                  Action = "DataTransfer"
	ActionGetConfiguration              Action = "GetConfiguration"
	ActionHeartbeat                     Action = "Heartbeat"
	ActionMeterValues                   Action = "MeterValues"
	ActionRemoteStartTransaction        Action = "RemoteStartTransaction"
	ActionRemoteStopTransaction         Action = "RemoteStopTransaction"
	ActionReset                         Action = "Reset"
	ActionStartTransaction              Action = "StartTransaction"
	ActionStatusNotification            Action = "StatusNotification"
	ActionStopTransaction               Action = "StopTransaction"
	ActionUnlockConnector               Action = "UnlockConnector"
	ActionDiagnosticsStatusNotification Action = "DiagnosticsStatusNotification"
	ActionFirmwareStatusNotification    Action = "FirmwareStatusNotification"
)

// ChargePointStatus is the status a station reports via StatusNotification.
type ChargePointStatus string

const (
	ChargePointStatusAvailable     ChargePointStatus = "Available"
	ChargePointStatusPreparing     ChargePointStatus = "Preparing"
	ChargePointStatusCharging      ChargePointStatus = "Charging"
	ChargePointStatusSuspendedEVSE ChargePointStatus = "SuspendedEVSE"
	ChargePointStatusSuspendedEV   ChargePointStatus = "SuspendedEV"
	ChargePointStatusFinishing     ChargePointStatus = "Finishing"
	ChargePointStatusReserved      ChargePointStatus = "Reserved"
	ChargePointStatusUnavailable   ChargePointStatus = "Unavailable"
	ChargePointStatusFaulted       ChargePointStatus = "Faulted"
)

// ChargePointErrorCode accompanies a StatusNotification.
type ChargePointErrorCode string

const (
	ChargePointErrorCodeNoError            ChargePointErrorCode = "NoError"
	ChargePointErrorCodeConnectorLockFail   ChargePointErrorCode = "ConnectorLockFailure"
	ChargePointErrorCodeEVCommunicationErr  ChargePointErrorCode = "EVCommunicationError"
	ChargePointErrorCodeGroundFailure       ChargePointErrorCode = "GroundFailure"
	ChargePointErrorCodeHighTemperature     ChargePointErrorCode = "HighTemperature"
	ChargePointErrorCodeInternalError       ChargePointErrorCode = "InternalError"
	ChargePointErrorCodeOtherError          ChargePointErrorCode = "OtherError"
	ChargePointErrorCodeOverCurrentFailure  ChargePointErrorCode = "OverCurrentFailure"
	ChargePointErrorCodeOverVoltage         ChargePointErrorCode = "OverVoltage"
	ChargePointErrorCodePowerMeterFailure   ChargePointErrorCode = "PowerMeterFailure"
	ChargePointErrorCodePowerSwitchFailure  ChargePointErrorCode = "PowerSwitchFailure"
	ChargePointErrorCodeReaderFailure       ChargePointErrorCode = "ReaderFailure"
	ChargePointErrorCodeResetFailure        ChargePointErrorCode = "ResetFailure"
	ChargePointErrorCodeUnderVoltage        ChargePointErrorCode = "UnderVoltage"
	ChargePointErrorCodeWeakSignal          ChargePointErrorCode = "WeakSignal"
)

// RegistrationStatus is the BootNotification verdict.
type RegistrationStatus string

const (
	RegistrationStatusAccepted RegistrationStatus = "Accepted"
	RegistrationStatusPending  RegistrationStatus = "Pending"
	RegistrationStatusRejected RegistrationStatus = "Rejected"
)

// AuthorizationStatus is carried inside an IdTagInfo.
type AuthorizationStatus string

const (
	AuthorizationStatusAccepted     AuthorizationStatus = "Accepted"
	AuthorizationStatusBlocked      AuthorizationStatus = "Blocked"
	AuthorizationStatusExpired      AuthorizationStatus = "Expired"
	AuthorizationStatusInvalid      AuthorizationStatus = "Invalid"
	AuthorizationStatusConcurrentTx AuthorizationStatus = "ConcurrentTx"
)

// Reason is the stop reason attached to a StopTransaction request.
type Reason string

const (
	ReasonEmergencyStop Reason = "EmergencyStop"
	ReasonEVDisconnected Reason = "EVDisconnected"
	ReasonHardReset     Reason = "HardReset"
	ReasonLocal         Reason = "Local"
	ReasonNone          Reason = ""
	ReasonOther         Reason = "Other"
	ReasonPowerLoss     Reason = "PowerLoss"
	ReasonReboot        Reason = "Reboot"
	ReasonRemote        Reason = "Remote"
	ReasonSoftReset     Reason = "SoftReset"
	ReasonUnlockCommand Reason = "UnlockCommand"
	ReasonDeAuthorized  Reason = "DeAuthorized"
)

// ResetType distinguishes a hard power-cycle from a soft restart.
type ResetType string

const (
	ResetTypeHard ResetType = "Hard"
	ResetTypeSoft ResetType = "Soft"
)

// ResetStatus is the station's verdict on a Reset request.
type ResetStatus string

const (
	ResetStatusAccepted ResetStatus = "Accepted"
	ResetStatusRejected ResetStatus = "Rejected"
)

// ConfigurationStatus is returned by ChangeConfiguration.
type ConfigurationStatus string

const (
	ConfigurationStatusAccepted       ConfigurationStatus = "Accepted"
	ConfigurationStatusRejected       ConfigurationStatus = "Rejected"
	ConfigurationStatusRebootRequired ConfigurationStatus = "RebootRequired"
	ConfigurationStatusNotSupported   ConfigurationStatus = "NotSupported"
)

// DataTransferStatus is returned by DataTransfer.
type DataTransferStatus string

const (
	DataTransferStatusAccepted         DataTransferStatus = "Accepted"
	DataTransferStatusRejected         DataTransferStatus = "Rejected"
	DataTransferStatusUnknownMessageId DataTransferStatus = "UnknownMessageId"
	DataTransferStatusUnknownVendorId  DataTransferStatus = "UnknownVendorId"
)

// DateTime marshals to RFC3339, the wire format OCPP 1.6 expects.
type DateTime struct {
	time.Time
}

func NewDateTime(t time.Time) DateTime { return DateTime{Time: t} }

func (dt DateTime) MarshalJSON() ([]byte, error) {
	return []byte(`"` + dt.Time.UTC().Format(time.RFC3339) + `"`), nil
}

func (dt *DateTime) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == "null" {
		return nil
	}
	if len(s) >= 2 {
		s = s[1 : len(s)-1]
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return err
	}
	dt.Time = t
	return nil
}

// IdTagInfo is the authorization verdict attached to Authorize,
// StartTransaction and StopTransaction responses.
type IdTagInfo struct {
	ExpiryDate  *DateTime           `json:"expiryDate,omitempty"`
	ParentIdTag *string             `json:"parentIdTag,omitempty" validate:"omitempty,max=20"`
	Status      AuthorizationStatus `json:"status" validate:"required"`
}

// KeyValue is one configuration entry returned by GetConfiguration.
type KeyValue struct {
	Key      string  `json:"key" validate:"required,max=50"`
	Readonly bool    `json:"readonly"`
	Value    *string `json:"value,omitempty" validate:"omitempty,max=500"`
}

// MeterValue is one timestamped sample group sent via MeterValues.
type MeterValue struct {
	Timestamp    DateTime       `json:"timestamp" validate:"required"`
	SampledValue []SampledValue `json:"sampledValue" validate:"required,min=1"`
}

type SampledValue struct {
	Value     string          `json:"value" validate:"required"`
	Context   *ReadingContext `json:"context,omitempty"`
	Format    *ValueFormat    `json:"format,omitempty"`
	Measurand *Measurand      `json:"measurand,omitempty"`
	Phase     *Phase          `json:"phase,omitempty"`
	Location  *Location       `json:"location,omitempty"`
	Unit      *UnitOfMeasure  `json:"unit,omitempty"`
}

type ReadingContext string

const (
	ReadingContextSamplePeriodic ReadingContext = "Sample.Periodic"
	ReadingContextTransactionBegin ReadingContext = "Transaction.Begin"
	ReadingContextTransactionEnd   ReadingContext = "Transaction.End"
	ReadingContextTrigger          ReadingContext = "Trigger"
)

type ValueFormat string

const (
	ValueFormatRaw ValueFormat = "Raw"
)

type Measurand string

const (
	MeasurandEnergyActiveImportRegister Measurand = "Energy.Active.Import.Register"
	MeasurandPowerActiveImport          Measurand = "Power.Active.Import"
	MeasurandCurrentImport              Measurand = "Current.Import"
	MeasurandSoC                        Measurand = "SoC"
)

type Phase string

const (
	PhaseL1 Phase = "L1"
	PhaseL2 Phase = "L2"
	PhaseL3 Phase = "L3"
)

type Location string

const (
	LocationOutlet Location = "Outlet"
	LocationEV     Location = "EV"
)

type UnitOfMeasure string

const (
	UnitOfMeasureWh      UnitOfMeasure = "Wh"
	UnitOfMeasureW       UnitOfMeasure = "W"
	UnitOfMeasureA       UnitOfMeasure = "A"
	UnitOfMeasurePercent UnitOfMeasure = "Percent"
)
