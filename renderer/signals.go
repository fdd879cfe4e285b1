package renderer

// Signal is a control event delivered to the run loop between frames.
type Signal int

const (
	// SignalNone means keep rendering.
	SignalNone Signal = iota

	// SignalQuit ends the run loop after the device goes idle.
	SignalQuit

	// SignalNextShader advances the shader cycle by one.
	SignalNextShader
)

// SignalSource feeds control events into Engine.Run. Poll is called once per
// frame before drawing and must not block.
type SignalSource interface {
	Poll() Signal
}
