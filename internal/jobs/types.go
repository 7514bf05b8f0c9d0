package jobs

type JobType string

const (
	JobSendWelcomeNotification JobType = "send_welcome_notification"
)

func (t JobType) IsValid() bool {
	switch t {
	case JobSendWelcomeNotification:
		return true
	default:
		return false
	}
}
