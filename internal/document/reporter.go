package document

import "sync"

var _ ProgressReporter = (*FuncReporter)(nil)

// FuncReporter adapts plain callbacks to ProgressReporter. Nil callbacks
// are skipped.
type FuncReporter struct {
	mu sync.RWMutex

	OnStatus    func(text string)
	OnProgress  func(fraction float32, info string)
	CheckCancel func() bool

	cancelled bool
}

// NewFuncReporter creates a reporter with the given callbacks.
func NewFuncReporter(onStatus func(string), onProgress func(float32, string), checkCancel func() bool) *FuncReporter {
	return &FuncReporter{
		OnStatus:    onStatus,
		OnProgress:  onProgress,
		CheckCancel: checkCancel,
	}
}

// SetStatus implements ProgressReporter.
func (r *FuncReporter) SetStatus(text string) {
	if r.OnStatus != nil {
		r.OnStatus(text)
	}
}

// SetProgress implements ProgressReporter.
func (r *FuncReporter) SetProgress(fraction float32, info string) {
	if r.OnProgress != nil {
		r.OnProgress(fraction, info)
	}
}

// IsCancelled implements ProgressReporter.
func (r *FuncReporter) IsCancelled() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.cancelled {
		return true
	}
	if r.CheckCancel != nil {
		return r.CheckCancel()
	}
	return false
}

// Cancel marks the operation as cancelled.
func (r *FuncReporter) Cancel() {
	r.mu.Lock()
	r.cancelled = true
	r.mu.Unlock()
}

// Reset clears the cancelled state.
func (r *FuncReporter) Reset() {
	r.mu.Lock()
	r.cancelled = false
	r.mu.Unlock()
}
