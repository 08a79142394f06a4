package dwc2

// Event identifies a condition the driver reports to the upper stack.
type Event uint8

// Driver events.
//
// EventServiceRequired is raised from interrupt context and asks the
// upper stack to call [Controller.ServiceController] or
// [Controller.ServiceEndpoint]; the remaining events are raised from
// within those service calls.
const (
	EventServiceRequired  Event = iota // Pending condition needs servicing
	EventResetComplete                 // Bus reset sequencing finished
	EventSuspend                       // Bus entered suspend
	EventResume                        // Bus resumed from suspend
	EventTransferComplete              // In-flight transfer finished
)

// String returns a human-readable event name.
func (e Event) String() string {
	switch e {
	case EventServiceRequired:
		return "service required"
	case EventResetComplete:
		return "reset complete"
	case EventSuspend:
		return "suspend"
	case EventResume:
		return "resume"
	case EventTransferComplete:
		return "transfer complete"
	default:
		return "unknown"
	}
}

// ControllerCallback receives controller-level events.
type ControllerCallback func(c *Controller, event Event)

// EndpointCallback receives per-endpoint events.
type EndpointCallback func(ep *Endpoint, event Event)

// fireController invokes the controller-level callback if one is set.
func (c *Controller) fireController(event Event) {
	if c.cb != nil {
		c.cb(c, event)
	}
}

// fireEndpoint invokes the per-endpoint callback if one is set.
func (c *Controller) fireEndpoint(ep *Endpoint, event Event) {
	if c.epcb != nil {
		c.epcb(ep, event)
	}
}
