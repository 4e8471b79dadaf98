// Package template expands one fleet template file into the set of
// station.Config values cmd/simulator boots, the way a load-test
// operator names a fleet shape once ("500 stations, 2 connectors each")
// instead of writing out every station by hand.
package template

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/charging-platform/cs-simulator/internal/ocpp"
	"github.com/charging-platform/cs-simulator/internal/station"
)

// BootDefaults is the template's BootNotification section; a blank vendor
// or model falls back to the constants below, and a blank firmwareVersion
// is left out of the boot payload.
type BootDefaults struct {
	ChargePointVendor string `mapstructure:"chargePointVendor"`
	ChargePointModel  string `mapstructure:"chargePointModel"`
	FirmwareVersion   string `mapstructure:"firmwareVersion"`
}

const (
	defaultChargePointVendor = "cs-simulator"
	defaultChargePointModel  = "virtual"
)

// ATGDefaults mirrors station.ATGParams' on-disk shape.
type ATGDefaults struct {
	Enable                         bool    `mapstructure:"enable"`
	StopAfterHours                 float64 `mapstructure:"stopAfterHours"`
	MinDelayBetweenTwoTransactions float64 `mapstructure:"minDelayBetweenTwoTransactions"`
	MaxDelayBetweenTwoTransactions float64 `mapstructure:"maxDelayBetweenTwoTransactions"`
	MinDuration                    float64 `mapstructure:"minDuration"`
	MaxDuration                    float64 `mapstructure:"maxDuration"`
	ProbabilityOfStart             float64 `mapstructure:"probabilityOfStart"`
	RequireAuthorize               bool    `mapstructure:"requireAuthorize"`
}

// StationTemplate is the on-disk shape one fleet file expands from.
type StationTemplate struct {
	IdPrefix                      string       `mapstructure:"idPrefix"`
	Count                         int          `mapstructure:"count"`
	ConnectorsPerStation          int          `mapstructure:"connectorsPerStation"`
	SupervisionUrl                string       `mapstructure:"supervisionUrl"`
	MeterValueSampleIntervalMs    int          `mapstructure:"meterValueSampleIntervalMs"`
	BootNotification              BootDefaults `mapstructure:"bootNotification"`
	AutomaticTransactionGenerator ATGDefaults  `mapstructure:"automaticTransactionGenerator"`
	AuthorizedTags                []string     `mapstructure:"authorizedTags"`
}

// Load reads a fleet template from path (any format viper supports:
// yaml, json, toml) into a StationTemplate.
func Load(path string) (StationTemplate, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return StationTemplate{}, fmt.Errorf("failed to read fleet template %s: %w", path, err)
	}

	var tmpl StationTemplate
	if err := v.Unmarshal(&tmpl); err != nil {
		return StationTemplate{}, fmt.Errorf("failed to parse fleet template %s: %w", path, err)
	}
	if tmpl.Count <= 0 {
		return StationTemplate{}, fmt.Errorf("fleet template %s: count must be positive", path)
	}
	if tmpl.ConnectorsPerStation <= 0 {
		tmpl.ConnectorsPerStation = 1
	}
	return tmpl, nil
}

// Expand produces one station.Config per simulated station, with a
// stable hashId of "<IdPrefix>-<NNN>" (the fleet registry keys its claims
// off this same hashId).
func Expand(tmpl StationTemplate) []station.Config {
	configs := make([]station.Config, 0, tmpl.Count)

	atg := station.ATGParams{
		Enable:                         tmpl.AutomaticTransactionGenerator.Enable,
		StopAfterHours:                 tmpl.AutomaticTransactionGenerator.StopAfterHours,
		MinDelayBetweenTwoTransactions: tmpl.AutomaticTransactionGenerator.MinDelayBetweenTwoTransactions,
		MaxDelayBetweenTwoTransactions: tmpl.AutomaticTransactionGenerator.MaxDelayBetweenTwoTransactions,
		MinDuration:                    tmpl.AutomaticTransactionGenerator.MinDuration,
		MaxDuration:                    tmpl.AutomaticTransactionGenerator.MaxDuration,
		ProbabilityOfStart:             tmpl.AutomaticTransactionGenerator.ProbabilityOfStart,
		RequireAuthorize:               tmpl.AutomaticTransactionGenerator.RequireAuthorize,
	}
	if atg == (station.ATGParams{}) {
		atg = station.DefaultATGParams()
	}

	vendor := tmpl.BootNotification.ChargePointVendor
	if vendor == "" {
		vendor = defaultChargePointVendor
	}
	model := tmpl.BootNotification.ChargePointModel
	if model == "" {
		model = defaultChargePointModel
	}
	bootReq := ocpp.BootNotificationRequest{
		ChargePointVendor: vendor,
		ChargePointModel:  model,
	}
	if fw := tmpl.BootNotification.FirmwareVersion; fw != "" {
		bootReq.FirmwareVersion = &fw
	}

	meterInterval := tmpl.MeterValueSampleIntervalMs
	if meterInterval <= 0 {
		meterInterval = station.DefaultMeterValuesIntervalMs
	}

	idPrefix := strings.TrimSpace(tmpl.IdPrefix)
	if idPrefix == "" {
		idPrefix = "CS"
	}

	for n := 1; n <= tmpl.Count; n++ {
		hashId := fmt.Sprintf("%s-%03d", idPrefix, n)
		configs = append(configs, station.Config{
			HashId: hashId,
			Info: station.Info{
				HashId:                        hashId,
				SupervisionUrl:                tmpl.SupervisionUrl,
				MeterValueSampleInterval:      meterInterval,
				AutomaticTransactionGenerator: atg,
			},
			BootNotificationRequest: bootReq,
			AuthorizedTags:          tmpl.AuthorizedTags,
			ConnectorCount:          tmpl.ConnectorsPerStation + 1,
		})
	}
	return configs
}
