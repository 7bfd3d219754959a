package agent

import "sync"

// Stream stages, in the order they are emitted.
const (
	StageClassified = "classified"
	StageWorking    = "working"
	StageAnalysis   = "analysis"
)

// StreamCallback receives progress while a command is processed.
type StreamCallback func(chunk StreamChunk)

// StreamChunk is one progress event. Specialist is set for analysis chunks.
type StreamChunk struct {
	Stage      string
	Specialist string
	Text       string
}

// streamWriter serializes callbacks coming from fan-out goroutines.
type streamWriter struct {
	mu       sync.Mutex
	callback StreamCallback
}

func newStreamWriter(cb StreamCallback) *streamWriter {
	return &streamWriter{callback: cb}
}

func (w *streamWriter) emit(chunk StreamChunk) {
	if w == nil || w.callback == nil {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.callback(chunk)
}
