package station

import (
	"context"
	"fmt"
	"sync"

	"github.com/charging-platform/cs-simulator/internal/atgclock"
	"github.com/charging-platform/cs-simulator/internal/logger"
	"github.com/charging-platform/cs-simulator/internal/ocpp"
)

// WSConnector opens and closes the station's WebSocket session, returning
// a Transport the Request Service sends Calls over once open. Concrete
// implementations live in internal/wsclient.
type WSConnector interface {
	Open(ctx context.Context) (ocpp.Transport, error)
	Close() error
}

// Station is the unit of simulation: one simulated charging station with
// its connector table, boot metadata, authorized tag list and (once the
// WebSocket is open) its bound OCPP Request Service.
type Station struct {
	mu sync.RWMutex

	hashId                  string
	info                    Info
	bootNotificationRequest ocpp.BootNotificationRequest
	authorizedTags          []string
	connectors              map[int]*Connector

	wsConnector WSConnector
	requestSvc  *ocpp.RequestService

	registered bool
	available  bool
	deleted    bool

	log *logger.Logger
}

// Config is everything New needs to build a Station; ConnectorCount
// includes connector 0 (the station itself).
type Config struct {
	HashId                  string
	Info                    Info
	BootNotificationRequest ocpp.BootNotificationRequest
	AuthorizedTags          []string
	ConnectorCount          int
	WSConnector             WSConnector
	Logger                  *logger.Logger
}

// New builds a Station with ConnectorCount connectors (0..ConnectorCount-1),
// all initially available, none running a transaction.
func New(cfg Config) *Station {
	connectors := make(map[int]*Connector, cfg.ConnectorCount)
	for i := 0; i < cfg.ConnectorCount; i++ {
		connectors[i] = &Connector{Available: true}
	}
	return &Station{
		hashId:                  cfg.HashId,
		info:                    cfg.Info,
		bootNotificationRequest: cfg.BootNotificationRequest,
		authorizedTags:          cfg.AuthorizedTags,
		connectors:              connectors,
		wsConnector:             cfg.WSConnector,
		available:               true,
		log:                     cfg.Logger,
	}
}

// HashId is the station's stable identifier.
func (s *Station) HashId() string { return s.hashId }

// StationInfo returns the template-derived metadata, including ATG params.
func (s *Station) StationInfo() Info {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.info
}

// BootNotificationRequest returns the default boot payload; the
// BOOT_NOTIFICATION handler overrides only its chargePointVendor and
// chargePointModel from the command payload.
func (s *Station) BootNotificationRequest() ocpp.BootNotificationRequest {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.bootNotificationRequest
}

// Start marks the station operative. Idempotent: a second Start while
// already available only logs.
func (s *Station) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.available {
		s.logf("station %s already started", s.hashId)
		return
	}
	s.available = true
	s.logf("station %s started", s.hashId)
}

// Stop marks the station inoperative; connector loops observe this on
// their next iteration and exit.
func (s *Station) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.available {
		s.logf("station %s already stopped", s.hashId)
		return
	}
	s.available = false
	s.logf("station %s stopped", s.hashId)
}

// Delete tears the station down. deleteConfiguration is accepted for
// interface parity with the worker's DELETE_CHARGING_STATIONS payload;
// this simulator holds no persisted configuration to optionally keep.
func (s *Station) Delete(deleteConfiguration bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.available = false
	s.deleted = true
	_ = s.closeWSConnectionLocked()
}

// OpenWSConnection establishes the station's WebSocket session and binds
// a fresh Request Service to it.
func (s *Station) OpenWSConnection(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.wsConnector == nil {
		return fmt.Errorf("station %s: no WS connector configured", s.hashId)
	}
	transport, err := s.wsConnector.Open(ctx)
	if err != nil {
		return err
	}
	s.requestSvc = ocpp.NewRequestService(transport)
	return nil
}

// CloseWSConnection closes the WebSocket session; the Request Service
// becomes absent again until the next OpenWSConnection.
func (s *Station) CloseWSConnection() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closeWSConnectionLocked()
}

func (s *Station) closeWSConnectionLocked() error {
	s.requestSvc = nil
	if s.wsConnector == nil {
		return nil
	}
	return s.wsConnector.Close()
}

// SetSupervisionUrl updates the CSMS URL the next WS connection dials.
func (s *Station) SetSupervisionUrl(url string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.info.SupervisionUrl = url
}

// IsRegistered reports whether the last BootNotification response was
// Accepted.
func (s *Station) IsRegistered() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.registered
}

// SetRegistered records the outcome of a BootNotification response. Called
// by the worker BOOT_NOTIFICATION handler, the only place registration
// status changes.
func (s *Station) SetRegistered(registered bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.registered = registered
}

// IsChargingStationAvailable reports whether the station as a whole is
// operative.
func (s *Station) IsChargingStationAvailable() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.available
}

// IsConnectorAvailable reports whether connector id exists and is
// available. A missing connector is treated as unavailable.
func (s *Station) IsConnectorAvailable(id int) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.connectors[id]
	return ok && c.Available
}

// HasAuthorizedTags reports whether the station was configured with any
// authorized id-tags.
func (s *Station) HasAuthorizedTags() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.authorizedTags) > 0
}

// GetRandomIdTag draws a random id-tag from the authorized set using r.
// Callers must check HasAuthorizedTags first.
func (s *Station) GetRandomIdTag(r atgclock.Random) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.authorizedTags) == 0 {
		return ""
	}
	return s.authorizedTags[r.Pick(len(s.authorizedTags))]
}

// GetAutomaticTransactionGeneratorRequireAuthorize mirrors the ATG
// parameter of the same name.
func (s *Station) GetAutomaticTransactionGeneratorRequireAuthorize() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.info.AutomaticTransactionGenerator.RequireAuthorize
}

// GetConnector returns connector id, or nil if it doesn't exist.
func (s *Station) GetConnector(id int) *Connector {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.connectors[id]
}

// ConnectorIds returns the positive connector ids in ascending order
// (connector 0 is the station itself and is never included).
func (s *Station) ConnectorIds() []int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]int, 0, len(s.connectors))
	for id := range s.connectors {
		if id > 0 {
			ids = append(ids, id)
		}
	}
	for i := 1; i < len(ids); i++ {
		for j := i; j > 0 && ids[j-1] > ids[j]; j-- {
			ids[j-1], ids[j] = ids[j], ids[j-1]
		}
	}
	return ids
}

// GetEnergyActiveImportRegisterByTransactionId reads the connector's
// cumulative energy counter for the given transaction. final is accepted
// for parity with the consumed interface (§6); this simulator's register
// already reflects the latest sample regardless.
func (s *Station) GetEnergyActiveImportRegisterByTransactionId(transactionId int, final bool) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.connectors {
		if c.TransactionStarted && c.TransactionId == transactionId {
			return c.EnergyActiveImportRegister
		}
	}
	return 0
}

// GetTransactionIdTag returns the id-tag that authorized transactionId.
func (s *Station) GetTransactionIdTag(transactionId int) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.connectors {
		if c.TransactionStarted && c.TransactionId == transactionId {
			return c.TransactionIdTag
		}
	}
	return ""
}

// RequestService returns the bound OCPP Request Service, or nil if the WS
// session has not been opened yet. The ATG loop polls this until non-nil.
func (s *Station) RequestService() *ocpp.RequestService {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.requestSvc
}

func (s *Station) logf(format string, args ...interface{}) {
	if s.log == nil {
		return
	}
	s.log.Infof(format, args...)
}
