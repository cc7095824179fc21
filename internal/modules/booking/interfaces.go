package booking

// Recorder counts booking events. *metrics.Metrics implements it.
type Recorder interface {
	BookingCreated(source string)
	BookingTransition(status string)
}

type nopRecorder struct{}

func (nopRecorder) BookingCreated(string)    {}
func (nopRecorder) BookingTransition(string) {}
