package execution

import "fmt"

// Status is a unit's position in the run lifecycle.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusSent       Status = "sent"
	StatusError      Status = "error"
)

// transition validates a status move. Units only advance
// pending → processing → sent|error; a new run resets them to pending
// first.
func transition(from, to Status) (Status, error) {
	allowed := map[Status][]Status{
		StatusPending:    {StatusProcessing, StatusPending},
		StatusProcessing: {StatusSent, StatusError, StatusPending},
		StatusSent:       {StatusPending},
		StatusError:      {StatusPending},
	}
	for _, s := range allowed[from] {
		if s == to {
			return to, nil
		}
	}
	return from, fmt.Errorf("illegal status transition %s -> %s", from, to)
}
