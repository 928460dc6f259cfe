package notify

import (
	"fmt"
	"io"
	"time"
)

// DeliveryEvent records metadata about one email provider call.
type DeliveryEvent struct {
	LatencyMs int64
	Success   bool
	ErrorCode string
}

// Observer receives delivery events for logging and metrics.
type Observer interface {
	OnDeliveryComplete(event DeliveryEvent)
}

// LogObserver writes delivery events to an io.Writer.
type LogObserver struct {
	w io.Writer
}

func NewLogObserver(w io.Writer) *LogObserver {
	return &LogObserver{w: w}
}

func (o *LogObserver) OnDeliveryComplete(event DeliveryEvent) {
	ts := time.Now().UTC().Format(time.RFC3339)
	status := "ok"
	if !event.Success {
		status = "err:" + event.ErrorCode
	}
	fmt.Fprintf(o.w, "[%s] email_delivery latency_ms=%d status=%s\n",
		ts, event.LatencyMs, status)
}

// NoopObserver discards all events. Useful for tests.
type NoopObserver struct{}

func (NoopObserver) OnDeliveryComplete(DeliveryEvent) {}
