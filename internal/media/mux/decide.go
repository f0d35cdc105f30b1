package mux

// Strategy selects how audio and video durations are reconciled.
type Strategy string

const (
	// StrategyMux muxes the streams directly, stopping at the shorter one.
	StrategyMux Strategy = "mux"
	// StrategyAudioLoop loops the audio to cover a longer video.
	StrategyAudioLoop Strategy = "audio_loop"
	// StrategyTimescale stretches or compresses the video to match the audio.
	StrategyTimescale Strategy = "timescale"
)

const (
	// durationTolerance is the mismatch, in seconds, below which streams are
	// muxed untouched.
	durationTolerance = 3.0
	speedFactorMin    = 0.5
	speedFactorMax    = 2.0
)

// Decision describes the chosen reconciliation strategy.
type Decision struct {
	Strategy Strategy
	// TargetDuration is the output length for StrategyAudioLoop.
	TargetDuration float64
	// SpeedFactor is the video rate multiplier for StrategyTimescale.
	SpeedFactor float64
}

// Decide picks a reconciliation strategy from the probed durations. A
// near-match muxes directly; longer video loops the audio; longer audio
// slows the video, unless the required factor leaves the [0.5, 2.0] window,
// in which case the streams are muxed as-is.
func Decide(videoDuration, audioDuration float64) Decision {
	diff := videoDuration - audioDuration
	if diff < 0 {
		diff = -diff
	}
	if diff < durationTolerance {
		return Decision{Strategy: StrategyMux}
	}

	if videoDuration > audioDuration {
		return Decision{Strategy: StrategyAudioLoop, TargetDuration: videoDuration}
	}

	factor := videoDuration / audioDuration
	if factor < speedFactorMin || factor > speedFactorMax {
		return Decision{Strategy: StrategyMux}
	}
	return Decision{Strategy: StrategyTimescale, SpeedFactor: factor}
}
