// Package devicehook defines the small interfaces the render loop uses to
// submit finished blocks to an audio device and recover from underruns,
// keeping device enumeration/selection (§1 Non-goals) out of the core.
package devicehook

// Sink receives one finished block of planar stereo samples. Submit may
// block; the render loop always calls it with the voice-table lock
// released (§4.3, §4.4 step 7).
type Sink interface {
	Submit(left, right []int16) error
}

// Recoverer is optionally implemented by a Sink to attempt recovery from
// a device error (e.g. an ALSA underrun) instead of aborting the loop.
type Recoverer interface {
	Recover(err error) error
}
