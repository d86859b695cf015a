package entities

// SessionStatus is the lifecycle state of a diagnosis session. Transitions
// are monotonic: analyzing moves to completed or failed exactly once, and a
// terminal session never changes again.
type SessionStatus string

const (
	SessionAnalyzing SessionStatus = "analyzing"
	SessionCompleted SessionStatus = "completed"
	SessionFailed    SessionStatus = "failed"
)

// Prediction is a single (disease label, confidence) pair returned by the
// external classifier. Confidence is in [0,1]; lists arrive sorted by
// descending confidence and that order is preserved everywhere downstream.
type Prediction struct {
	Label      string  `json:"class"`
	Confidence float64 `json:"confidence"`
}

// DiagnosisSession is one user-initiated analysis attempt. Exactly one
// session is live per client at a time; starting a new analysis replaces
// the previous session wholesale.
type DiagnosisSession struct {
	ID            string        `json:"id"`
	CreatedAt     int64         `json:"timestamp"` // epoch millis
	PlantCategory string        `json:"plant"`
	SourceImage   string        `json:"imageData,omitempty"`
	Predictions   []Prediction  `json:"predictions"`
	Status        SessionStatus `json:"status"`
	FailureReason string        `json:"error,omitempty"`
}

// IsTerminal reports whether the session reached a final status.
func (s *DiagnosisSession) IsTerminal() bool {
	return s.Status == SessionCompleted || s.Status == SessionFailed
}
