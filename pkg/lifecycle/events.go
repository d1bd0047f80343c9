// Package lifecycle forwards the lifecycle notifications of a host
// (start, frame ticks, focus changes, shutdown) as typed events.
package lifecycle

// Awake is triggered once when the host starts.
type Awake struct{}

// Tick is triggered for every frame.
type Tick struct {
	// DeltaTime is the time since the previous frame in seconds.
	DeltaTime float64
}

type FocusGained struct{}

type FocusLost struct{}

// Quitting is triggered once when the host shuts down.
type Quitting struct{}
