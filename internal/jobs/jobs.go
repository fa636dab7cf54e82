package jobs

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type JobType string

const (
	JobSendWelcome JobType = "send_welcome"
)

func (t JobType) IsValid() bool {
	switch t {
	case JobSendWelcome:
		return true
	default:
		return false
	}
}

// Job is one unit of asynchronous work carried over the queue as JSON.
type Job struct {
	ID        string    `json:"id"`
	Type      JobType   `json:"type"`
	Payload   []byte    `json:"payload"` // raw json
	Attempts  int       `json:"attempts"`
	MaxTries  int       `json:"maxTries"`
	CreatedAt time.Time `json:"createdAt"`
}

func NewJob(t JobType, payloadJSON []byte) (Job, error) {
	if !t.IsValid() {
		return Job{}, ErrInvalidJobType
	}

	return Job{
		ID:        uuid.NewString(),
		Type:      t,
		Payload:   payloadJSON,
		Attempts:  0,
		MaxTries:  5,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// SendWelcomePayload greets a freshly registered user.
type SendWelcomePayload struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	Name   string `json:"name"`
}

func EncodePayload(t JobType, payload any) ([]byte, error) {
	if !t.IsValid() {
		return nil, ErrInvalidJobType
	}

	switch t {
	case JobSendWelcome:
		_, ok := payload.(SendWelcomePayload)

		if !ok {
			_, ok2 := payload.(*SendWelcomePayload)

			if !ok2 {
				return nil, ErrPayloadTypeMismatch
			}
		}
	}

	b, err := json.Marshal(payload)

	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJobPayload, err)
	}

	return b, nil
}

// DecodePayload unmarshals job.Payload into the correct typed payload struct.
func DecodePayload(j Job) (any, error) {
	if !j.Type.IsValid() {
		return nil, ErrInvalidJobType
	}
	if len(j.Payload) == 0 {
		return nil, ErrInvalidJobPayload
	}

	switch j.Type {
	case JobSendWelcome:
		var p SendWelcomePayload
		if err := json.Unmarshal(j.Payload, &p); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidJobPayload, err)
		}
		return p, nil
	}

	return nil, ErrInvalidJobType
}
