package dwc2

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ardnew/dwc2/regs/sim"
)

// testConfig returns a config against a fresh simulated register file,
// sized so endpoint 0 plus several more transmit regions fit.
func testConfig(hw *sim.Controller) Config {
	return Config{
		Bus:            hw,
		NumEndpoints:   4,
		TotalFIFOSize:  1280,
		RxFIFOSize:     128,
		HandshakeSpins: 16,
	}
}

// newTestController creates and initializes a controller against the
// simulator, applying mutate to the config first when non-nil.
func newTestController(t *testing.T, mutate func(*Config)) (*Controller, *sim.Controller) {
	t.Helper()
	hw := sim.New()
	cfg := testConfig(hw)
	if mutate != nil {
		mutate(&cfg)
	}
	c, err := New(cfg)
	require.NoError(t, err)
	require.NoError(t, c.Init())
	return c, hw
}

// epEvent is one recorded endpoint callback invocation.
type epEvent struct {
	num   int
	dir   Direction
	event Event
}

// recorder captures every callback the controller fires.
type recorder struct {
	ctrl []Event
	ep   []epEvent
}

func (r *recorder) install(c *Controller) {
	c.SetCallbacks(
		func(_ *Controller, event Event) {
			r.ctrl = append(r.ctrl, event)
		},
		func(ep *Endpoint, event Event) {
			r.ep = append(r.ep, epEvent{num: ep.Number(), dir: ep.Direction(), event: event})
		},
	)
}

// completions counts recorded endpoint transfer completions.
func (r *recorder) completions() int {
	n := 0
	for _, e := range r.ep {
		if e.event == EventTransferComplete {
			n++
		}
	}
	return n
}

// service drains one ISR round-trip: classify, then run the matching
// service call for every EventServiceRequired raised. It mirrors what
// an upper stack's interrupt bottom half does.
func service(c *Controller) {
	pending := &recorder{}
	saveCB, saveEP := c.cb, c.epcb
	pending.install(c)
	c.ISR()
	c.cb, c.epcb = saveCB, saveEP

	for _, e := range pending.ctrl {
		if e == EventServiceRequired {
			c.ServiceController()
		}
	}
	for _, e := range pending.ep {
		if e.event == EventServiceRequired {
			c.ServiceEndpoint(&c.table(e.dir)[e.num])
		}
	}
}
