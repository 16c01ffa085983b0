package notify

import (
	"log"
	"time"

	"github.com/quickeats/orders-backend/internal/metrics"
)

// Dispatcher multicasts lifecycle events to an audience's live connections.
// Delivery is fire-and-forget: a connection that cannot keep up is dropped,
// nothing is queued for audiences with no listeners, and Publish never
// blocks. The order store stays the source of truth; reconnecting clients
// pull fresh state instead of expecting replay.
type Dispatcher struct {
	registry *Registry
}

func NewDispatcher(registry *Registry) *Dispatcher {
	return &Dispatcher{registry: registry}
}

func (d *Dispatcher) Publish(audience, eventType string, payload interface{}) {
	ev := Event{Type: eventType, At: time.Now().UTC(), Payload: payload}
	for _, c := range d.registry.Lookup(audience) {
		if err := c.Send(ev); err != nil {
			log.Printf("[notify] drop conn audience=%s type=%s err=%v", audience, eventType, err)
			_ = c.Close()
			d.registry.Unregister(c)
			metrics.EventsDropped.Inc()
			continue
		}
		metrics.EventsPublished.Inc()
	}
}
