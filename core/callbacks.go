package core

// Callbacks are the host functions a core invokes. Any state the host needs
// is captured by the closures.
type Callbacks struct {
	// WriteAudio receives one frame's worth of interleaved PCM in the core's
	// AudioFormat. sampleCount counts individual samples across all
	// channels. It returns the number of bytes accepted, which is either
	// len(buf) or 0 under backpressure. Called on the frame goroutine.
	WriteAudio func(buf []byte, sampleCount int) int

	// DidSave is called after a battery save has been durably written.
	DidSave func(path string)
}

// EmitAudio delivers buf through WriteAudio, tolerating a nil callback.
func (c Callbacks) EmitAudio(buf []byte, sampleCount int) int {
	if c.WriteAudio == nil {
		return 0
	}
	return c.WriteAudio(buf, sampleCount)
}

// NotifySaved calls DidSave when set.
func (c Callbacks) NotifySaved(path string) {
	if c.DidSave != nil {
		c.DidSave(path)
	}
}
