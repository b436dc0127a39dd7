package core

// CommonAudioFormat is the sample encoding a core produces.
type CommonAudioFormat uint32

const (
	AudioFormatOther CommonAudioFormat = iota
	AudioFormatPCMInt16
	AudioFormatPCMInt32
	AudioFormatPCMFloat32
	AudioFormatPCMFloat64
)

// BytesPerSample returns the size of one sample in bytes, or 0 for
// AudioFormatOther.
func (f CommonAudioFormat) BytesPerSample() int {
	switch f {
	case AudioFormatPCMInt16:
		return 2
	case AudioFormatPCMInt32, AudioFormatPCMFloat32:
		return 4
	case AudioFormatPCMFloat64:
		return 8
	default:
		return 0
	}
}

func (f CommonAudioFormat) String() string {
	switch f {
	case AudioFormatPCMInt16:
		return "pcm_s16"
	case AudioFormatPCMInt32:
		return "pcm_s32"
	case AudioFormatPCMFloat32:
		return "pcm_f32"
	case AudioFormatPCMFloat64:
		return "pcm_f64"
	default:
		return "other"
	}
}

// AudioFormat describes the PCM stream a core delivers through
// Callbacks.WriteAudio. It is fixed once the core is set up.
type AudioFormat struct {
	CommonFormat  CommonAudioFormat
	SampleRate    float64
	ChannelCount  uint32
	IsInterleaved bool
}

// FrameSize returns the number of bytes in one sample frame (one sample for
// every channel).
func (a AudioFormat) FrameSize() int {
	return a.CommonFormat.BytesPerSample() * int(a.ChannelCount)
}

// BytesPerSecond returns the byte rate of the stream.
func (a AudioFormat) BytesPerSecond() int {
	return int(a.SampleRate) * a.FrameSize()
}

// VideoRenderingType is how a core presents frames.
type VideoRenderingType uint32

const (
	VideoRenderingFrameBuffer VideoRenderingType = iota
)

// VideoPixelFormat is the in-memory layout of one framebuffer pixel.
type VideoPixelFormat uint32

const (
	PixelFormatBGRA8Unorm VideoPixelFormat = iota
)

// BytesPerPixel returns the pixel size in bytes.
func (p VideoPixelFormat) BytesPerPixel() int {
	switch p {
	case PixelFormatBGRA8Unorm:
		return 4
	default:
		return 0
	}
}

// VideoFormat describes the framebuffer a core renders into.
type VideoFormat struct {
	RenderingType VideoRenderingType
	PixelFormat   VideoPixelFormat
	Width         uint32
	Height        uint32
}

// Stride returns bytes per row.
func (v VideoFormat) Stride() int {
	return int(v.Width) * v.PixelFormat.BytesPerPixel()
}

// BufferSize returns the size in bytes of a full frame.
func (v VideoFormat) BufferSize() int {
	return v.Stride() * int(v.Height)
}
