package domain

// UploadState is the lifecycle position of one resumable upload session.
type UploadState string

const (
	StateInitiating   UploadState = "INITIATING"
	StateTransferring UploadState = "TRANSFERRING"
	StateInterrupted  UploadState = "INTERRUPTED"
	StateResuming     UploadState = "RESUMING"
	StateCompleted    UploadState = "COMPLETED"
	StateFailed       UploadState = "FAILED"
)

// validTransitions encodes the session state machine. A session is advanced
// by a single thread of control at a time, so transitions need no locking,
// only legality checks.
var validTransitions = map[UploadState][]UploadState{
	StateInitiating:   {StateTransferring, StateFailed},
	StateTransferring: {StateInterrupted, StateCompleted, StateFailed},
	StateInterrupted:  {StateResuming, StateFailed},
	StateResuming:     {StateTransferring, StateInterrupted, StateCompleted, StateFailed},
	StateCompleted:    {},
	StateFailed:       {},
}

// CanTransitionTo reports whether moving from s to next is legal.
func (s UploadState) CanTransitionTo(next UploadState) bool {
	for _, allowed := range validTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the session can make no further progress.
func (s UploadState) IsTerminal() bool {
	return s == StateCompleted || s == StateFailed
}
