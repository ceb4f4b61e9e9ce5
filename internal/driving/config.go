package driving

// Config holds the process-wide constants SPEC_FULL.md §6/§8/§9 names. Values are
// typically loaded once at process start by internal/simconfig and threaded down into
// driving.New.
type Config struct {
	// TickSeconds is Δt, the fixed discrete timestep (seconds).
	TickSeconds float64
	// TimeToParkOrDepart is TIME_TO_PARK_OR_DEPART (seconds).
	TimeToParkOrDepart float64
	// EpsDist is the snap-to-end-of-traversable epsilon (metres).
	EpsDist float64
	// EpsSpeed is the "effectively stopped" threshold used by the reference router's
	// arrival check, and the tolerance stepContinue allows above the clamped speed
	// limit (m/s).
	EpsSpeed float64
}

// DefaultConfig matches the constants named in SPEC_FULL.md §6/§9.
func DefaultConfig() Config {
	return Config{
		TickSeconds:        0.1,
		TimeToParkOrDepart: 10,
		EpsDist:            1e-9,
		EpsSpeed:           1e-9,
	}
}
