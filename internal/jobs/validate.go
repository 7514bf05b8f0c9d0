package jobs

import "strings"

// ValidatePayload checks the fields a handler cannot run without.
func ValidatePayload(t JobType, payload any) error {
	if !t.IsValid() {
		return ErrInvalidJobType
	}

	trim := strings.TrimSpace

	switch t {
	case JobSendWelcomeNotification:
		var p WelcomeNotificationPayload
		switch v := payload.(type) {
		case WelcomeNotificationPayload:
			p = v
		case *WelcomeNotificationPayload:
			p = *v
		default:
			return ErrPayloadTypeMismatch
		}
		if trim(p.UserID) == "" || trim(p.Email) == "" {
			return ErrInvalidJobPayload
		}
		return nil

	default:
		return ErrInvalidJobType
	}
}
