package reminder

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// Task types handled by the reminder worker.
const (
	TypeBookingReminder = "booking:reminder"
	TypeReviewPrompt    = "booking:review-prompt"
)

// Lead times for scheduled tasks.
const (
	ReminderLead      = time.Hour
	ReviewPromptDelay = time.Hour
)

// BookingTaskPayload is the payload shared by booking-scoped tasks.
type BookingTaskPayload struct {
	BookingID  uuid.UUID `json:"booking_id"`
	CustomerID uuid.UUID `json:"customer_id"`
	StartTime  time.Time `json:"start_time"`
}

// NewBookingReminderTask schedules a reminder an hour before the slot.
func NewBookingReminderTask(p BookingTaskPayload) (*asynq.Task, []asynq.Option, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return nil, nil, err
	}
	opts := []asynq.Option{
		asynq.ProcessAt(p.StartTime.Add(-ReminderLead)),
		asynq.MaxRetry(3),
	}
	return asynq.NewTask(TypeBookingReminder, b), opts, nil
}

// NewReviewPromptTask schedules a review prompt after the visit.
func NewReviewPromptTask(p BookingTaskPayload) (*asynq.Task, []asynq.Option, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return nil, nil, err
	}
	opts := []asynq.Option{
		asynq.ProcessIn(ReviewPromptDelay),
		asynq.MaxRetry(3),
	}
	return asynq.NewTask(TypeReviewPrompt, b), opts, nil
}
