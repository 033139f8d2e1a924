package video

// Observer receives lifecycle events, typically to export metrics
type Observer interface {
	JobCreated(service, tier string, credits int64)
	CallbackHandled(status string, applied bool)
	Refunded(reason string, credits int64)
	DispatchFinished(service string, err error)
	QueueDropped()
}

type nopObserver struct{}

func (nopObserver) JobCreated(string, string, int64) {}
func (nopObserver) CallbackHandled(string, bool)     {}
func (nopObserver) Refunded(string, int64)           {}
func (nopObserver) DispatchFinished(string, error)   {}
func (nopObserver) QueueDropped()                    {}
