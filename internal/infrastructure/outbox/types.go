package outbox

import (
	"time"

	"github.com/google/uuid"
)

// Job is one pending email notification. Jobs survive restarts; delivery is
// best-effort with bounded retries and is never reported back to the request
// that enqueued them.
type Job struct {
	ID        string    `json:"id"`
	Subject   string    `json:"subject"`
	Body      string    `json:"body"`
	To        string    `json:"to"`
	Retries   int       `json:"retries"`
	Timestamp time.Time `json:"timestamp"`

	bucketKey []byte
}

func (j *Job) normalize() {
	if j.ID == "" {
		j.ID = uuid.NewString()
	}
	if j.Timestamp.IsZero() {
		j.Timestamp = time.Now()
	}
}
