// Package atg implements the Automatic Transaction Generator: the
// per-station, per-connector cooperative loop that starts and stops
// synthetic transactions, and the controller that supervises it.
package atg

import (
	"context"
	"sync"
	"time"

	"github.com/charging-platform/cs-simulator/internal/atgclock"
	"github.com/charging-platform/cs-simulator/internal/logger"
	"github.com/charging-platform/cs-simulator/internal/perfstats"
	"github.com/charging-platform/cs-simulator/internal/station"
)

// Controller is the per-station ATG supervisor (§4.1). It starts one loop
// per positive connector id and flips a cooperative stop flag per
// connector on Stop.
type Controller struct {
	mu sync.Mutex

	st     *station.Station
	clock  atgclock.Clock
	random atgclock.Random
	perf   *perfstats.Recorder
	log    *logger.Logger

	started               bool
	startDate             time.Time
	lastRunDate           time.Time
	stopDate              time.Time
	connectorsStartStatus map[int]bool

	wg sync.WaitGroup
}

// NewController builds an ATG controller bound to one station.
func NewController(st *station.Station, clock atgclock.Clock, random atgclock.Random, perf *perfstats.Recorder, log *logger.Logger) *Controller {
	return &Controller{
		st:                    st,
		clock:                 clock,
		random:                random,
		perf:                  perf,
		log:                   log,
		connectorsStartStatus: make(map[int]bool),
	}
}

// Start computes the new stopDate preserving the net running budget across
// start/stop cycles (§3), then schedules one loop per connector in ids (or
// every positive connector when ids is empty, the whole-station case the
// worker's START_AUTOMATIC_TRANSACTION_GENERATOR command falls back to when
// its payload carries no connectorIds). Idempotent: a second Start while
// already started is a no-op with a warning. Start never blocks on a
// loop's first action.
func (c *Controller) Start(ctx context.Context, ids ...int) {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		c.warnf("ATG already started for station %s", c.st.HashId())
		return
	}
	if len(ids) == 0 {
		ids = c.st.ConnectorIds()
	}

	now := c.clock.Now()
	var elapsed time.Duration
	if !c.startDate.IsZero() {
		elapsed = c.lastRunDate.Sub(c.startDate)
	}

	stopAfterHours := c.st.StationInfo().AutomaticTransactionGenerator.StopAfterHours
	budget := time.Duration(stopAfterHours * float64(time.Hour))

	c.startDate = now
	c.lastRunDate = now
	c.stopDate = now.Add(budget - elapsed)
	c.started = true

	if c.connectorsStartStatus == nil {
		c.connectorsStartStatus = make(map[int]bool, len(ids))
	}
	for _, id := range ids {
		c.connectorsStartStatus[id] = true
	}
	c.mu.Unlock()

	c.infof("ATG started for station %s, stopDate=%s", c.st.HashId(), c.stopDate.Format(time.RFC3339))

	for _, id := range ids {
		connectorId := id
		c.wg.Add(1)
		go func() {
			defer c.wg.Done()
			c.runConnectorLoop(ctx, connectorId)
		}()
	}
}

// Stop flips the cooperative stop flag for every connector in ids (or
// every tracked connector when ids is empty). It does not await loop
// completion: loops observe the flag at their next safe point and exit,
// each issuing a final StopTransaction if it has one in flight. Idempotent:
// a second Stop while not started is a no-op with a warning.
func (c *Controller) Stop(ids ...int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.started {
		c.warnf("ATG already stopped for station %s", c.st.HashId())
		return
	}
	if len(ids) == 0 {
		for id := range c.connectorsStartStatus {
			c.connectorsStartStatus[id] = false
		}
	} else {
		for _, id := range ids {
			c.connectorsStartStatus[id] = false
		}
	}

	anyRunning := false
	for _, running := range c.connectorsStartStatus {
		if running {
			anyRunning = true
			break
		}
	}
	if !anyRunning {
		c.started = false
	}
	c.infof("ATG stopped for station %s", c.st.HashId())
}

// Started reports whether the controller believes it is running.
func (c *Controller) Started() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.started
}

// ConnectorStartStatus reports the cooperative stop flag for connectorId.
func (c *Controller) ConnectorStartStatus(connectorId int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connectorsStartStatus[connectorId]
}

func (c *Controller) stopDateSnapshot() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stopDate
}

func (c *Controller) recordLastRun(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastRunDate = t
}

// Wait blocks until every scheduled connector loop has exited. Intended
// for tests and for orderly process shutdown.
func (c *Controller) Wait() { c.wg.Wait() }

func (c *Controller) infof(format string, args ...interface{}) {
	if c.log != nil {
		c.log.Infof(format, args...)
	}
}

func (c *Controller) warnf(format string, args ...interface{}) {
	if c.log != nil {
		c.log.Warnf(format, args...)
	}
}

func (c *Controller) errorf(format string, args ...interface{}) {
	if c.log != nil {
		c.log.Errorf(format, args...)
	}
}
