package transform

// Status receives progress updates while a transform runs. Implementations
// back UI spinners or log sinks; all methods must be safe to call from the
// runner's goroutines.
type Status interface {
	StartLoading(text string)
	SetText(text string)
	StopLoading()
}

type nopStatus struct{}

func (nopStatus) StartLoading(string) {}
func (nopStatus) SetText(string)      {}
func (nopStatus) StopLoading()        {}

// NopStatus returns a status sink that discards updates.
func NopStatus() Status { return nopStatus{} }
