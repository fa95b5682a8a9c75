package bootstrap

// Status records how a store's last hydration went. Hydration never fails
// outward; Status is how a caller tells "storage unavailable" apart from
// "nothing saved yet".
type Status string

const (
	// StatusPending means Hydrate has not completed.
	StatusPending Status = "pending"

	// StatusLoaded means a persisted snapshot was read and decoded.
	StatusLoaded Status = "loaded"

	// StatusEmpty means no snapshot was persisted.
	StatusEmpty Status = "empty"

	// StatusReadFailed means storage could not be read. The store started empty.
	StatusReadFailed Status = "read_failed"

	// StatusMalformed means the snapshot could not be decoded. The store started empty.
	StatusMalformed Status = "malformed"
)

// Degraded reports whether the store started empty because of a failure.
func (s Status) Degraded() bool {
	return s == StatusReadFailed || s == StatusMalformed
}

func (s Status) String() string {
	return string(s)
}
