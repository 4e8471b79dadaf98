package worker

import (
	"testing"

	"github.com/charging-platform/cs-simulator/internal/ocpp"
	"github.com/stretchr/testify/assert"
)

func TestClassifyMeterValuesEmptyResponseIsSuccess(t *testing.T) {
	assert.True(t, classify(ProcMeterValues, ocpp.MeterValuesResponse{}))
}

func TestClassifyBootNotificationRejectedIsFailure(t *testing.T) {
	resp := ocpp.BootNotificationResponse{Status: ocpp.RegistrationStatusRejected}
	assert.False(t, classify(ProcBootNotification, resp))
}

func TestClassifyBootNotificationAcceptedIsSuccess(t *testing.T) {
	resp := ocpp.BootNotificationResponse{Status: ocpp.RegistrationStatusAccepted}
	assert.True(t, classify(ProcBootNotification, resp))
}

func TestClassifyStartTransactionRejectedIsFailure(t *testing.T) {
	resp := ocpp.StartTransactionResponse{IdTagInfo: ocpp.IdTagInfo{Status: ocpp.AuthorizationStatusBlocked}}
	assert.False(t, classify(ProcStartTransaction, resp))
}

func TestClassifyStartTransactionAcceptedIsSuccess(t *testing.T) {
	resp := ocpp.StartTransactionResponse{IdTagInfo: ocpp.IdTagInfo{Status: ocpp.AuthorizationStatusAccepted}}
	assert.True(t, classify(ProcStartTransaction, resp))
}

func TestClassifyHeartbeatWithCurrentTimeIsSuccess(t *testing.T) {
	resp := map[string]interface{}{"currentTime": "2026-01-01T00:00:00Z"}
	assert.True(t, classify(ProcHeartbeat, resp))
}

func TestClassifyNilResponseDefaultsToSuccess(t *testing.T) {
	assert.True(t, classify(ProcHeartbeat, nil))
}

func TestClassifyChangeConfigurationAcceptedIsSuccess(t *testing.T) {
	resp := ocpp.ChangeConfigurationResponse{Status: ocpp.ConfigurationStatusAccepted}
	assert.True(t, classify(ProcChangeConfiguration, resp))
}

func TestClassifyChangeConfigurationRejectedIsFailure(t *testing.T) {
	resp := ocpp.ChangeConfigurationResponse{Status: ocpp.ConfigurationStatusRejected}
	assert.False(t, classify(ProcChangeConfiguration, resp))
}

func TestClassifyResetAcceptedIsSuccess(t *testing.T) {
	resp := ocpp.ResetResponse{Status: ocpp.ResetStatusAccepted}
	assert.True(t, classify(ProcReset, resp))
}

func TestClassifyResetRejectedIsFailure(t *testing.T) {
	resp := ocpp.ResetResponse{Status: ocpp.ResetStatusRejected}
	assert.False(t, classify(ProcReset, resp))
}

func TestClassifyGetConfigurationNonNilResponseIsSuccess(t *testing.T) {
	resp := ocpp.GetConfigurationResponse{UnknownKey: []string{"foo"}}
	assert.True(t, classify(ProcGetConfiguration, resp))
}

func TestClassifyGetConfigurationNilResponseIsFailure(t *testing.T) {
	assert.False(t, classify(ProcGetConfiguration, nil))
}

func TestClassifyDataTransferAcceptedIsSuccess(t *testing.T) {
	resp := ocpp.DataTransferResponse{Status: ocpp.DataTransferStatusAccepted}
	assert.True(t, classify(ProcDataTransfer, resp))
}

func TestClassifyDataTransferRejectedIsFailure(t *testing.T) {
	resp := ocpp.DataTransferResponse{Status: ocpp.DataTransferStatusRejected}
	assert.False(t, classify(ProcDataTransfer, resp))
}

func TestClassifyDataTransferUnknownVendorIdIsFailure(t *testing.T) {
	resp := ocpp.DataTransferResponse{Status: ocpp.DataTransferStatusUnknownVendorId}
	assert.False(t, classify(ProcDataTransfer, resp))
}

func TestClassifyStatusNotificationEmptyResponseIsSuccess(t *testing.T) {
	assert.True(t, classify(ProcStatusNotification, ocpp.StatusNotificationResponse{}))
}

func TestClassifyStatusNotificationNonEmptyResponseIsFailure(t *testing.T) {
	resp := map[string]interface{}{"unexpectedField": "value"}
	assert.False(t, classify(ProcStatusNotification, resp))
}

func TestClassifyMeterValuesNonEmptyResponseIsFailure(t *testing.T) {
	resp := map[string]interface{}{"unexpectedField": "value"}
	assert.False(t, classify(ProcMeterValues, resp))
}
