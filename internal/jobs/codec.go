package jobs

import (
	"encoding/json"
	"fmt"

	"github.com/geocoder89/ciaan/internal/domain/job"
)

func EncodePayload(t JobType, payload any) ([]byte, error) {
	if !t.IsValid() {
		return nil, ErrInvalidJobType
	}

	switch t {
	case JobSendWelcomeNotification:
		switch payload.(type) {
		case WelcomeNotificationPayload, *WelcomeNotificationPayload:
		default:
			return nil, ErrPayloadTypeMismatch
		}
	}

	b, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJobPayload, err)
	}

	return b, nil
}

// DecodePayload unmarshals a stored job's payload into its typed struct.
func DecodePayload(j job.Job) (any, error) {
	t := JobType(j.Type)
	if !t.IsValid() {
		return nil, ErrInvalidJobType
	}
	if len(j.Payload) == 0 {
		return nil, ErrInvalidJobPayload
	}

	switch t {
	case JobSendWelcomeNotification:
		var p WelcomeNotificationPayload
		if err := json.Unmarshal(j.Payload, &p); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidJobPayload, err)
		}
		return p, nil

	default:
		return nil, ErrInvalidJobType
	}
}

// NewWelcomeJob builds the create request for a welcome notification.
// The idempotency key keeps a retried registration from queueing twice.
func NewWelcomeJob(p WelcomeNotificationPayload) (job.CreateRequest, error) {
	if err := ValidatePayload(JobSendWelcomeNotification, p); err != nil {
		return job.CreateRequest{}, err
	}

	b, err := EncodePayload(JobSendWelcomeNotification, p)
	if err != nil {
		return job.CreateRequest{}, err
	}

	key := "welcome:" + p.UserID
	return job.CreateRequest{
		Type:           string(JobSendWelcomeNotification),
		Payload:        b,
		IdempotencyKey: &key,
	}, nil
}
