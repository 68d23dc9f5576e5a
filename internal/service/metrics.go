package service

// Recorder receives business events worth counting.
type Recorder interface {
	DocumentGenerated(kind string)
	PaymentCreated()
	PaymentMarkedPaid()
}

type noopRecorder struct{}

func (noopRecorder) DocumentGenerated(string) {}
func (noopRecorder) PaymentCreated()          {}
func (noopRecorder) PaymentMarkedPaid()       {}
