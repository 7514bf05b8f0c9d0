package jobs

// WelcomeNotificationPayload carries a snapshot of the new account so the worker needs no lookup.
type WelcomeNotificationPayload struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	Name   string `json:"name"`
}
