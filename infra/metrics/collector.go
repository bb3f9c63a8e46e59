package metrics

import (
	"context"

	"github.com/kilianp07/solarbay/infra/logger"
	"github.com/kilianp07/solarbay/internal/eventbus"
)

// StartCollector subscribes to the event bus and records every step in
// the sink. It stops when the context is canceled.
func StartCollector(ctx context.Context, bus *eventbus.Bus, sink Sink, log logger.Logger) {
	if bus == nil || sink == nil {
		return
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	sub := bus.Subscribe()
	go func() {
		defer bus.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case rec, ok := <-sub:
				if !ok {
					return
				}
				if err := sink.RecordStep(rec); err != nil {
					log.Errorf("record step %d: %v", rec.Step, err)
				}
			}
		}
	}()
}
