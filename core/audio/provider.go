package audio

type Provider interface {
	// ConsumeSamples retrieves up to maxFrames interleaved stereo float32
	// samples in [-1, 1] for playback.
	ConsumeSamples(maxFrames int) []float32
	// SetOutputEnabled toggles whether samples accumulate in the output buffer.
	SetOutputEnabled(enabled bool)

	// Audio debugging controls

	ToggleChannel(channel int)
	SoloChannel(channel int)
	GetChannelStatus() (ch1, ch2, ch3, ch4 bool)
}

var _ Provider = (*APU)(nil)
