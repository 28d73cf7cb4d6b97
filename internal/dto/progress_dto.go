package dto

import (
	"time"

	"github.com/rtdacademy/roster-api/internal/quiz"
)

// ProgressAnswerRequest records one quiz answer against a lesson. Correct is
// only trusted when the question is not in the server-side bank; bank entries
// are graded here. Required lists the lesson's question IDs so completion can
// be derived from the updated answer set.
type ProgressAnswerRequest struct {
	QuestionID string   `json:"question_id" validate:"required,max=128"`
	Answer     string   `json:"answer" validate:"required,oneof=A B C D"`
	Correct    bool     `json:"correct"`
	Required   []string `json:"required,omitempty" validate:"omitempty,dive,max=128"`
}

// ProgressResponse is the API view of a student's lesson progress.
type ProgressResponse struct {
	StudentKey   string                  `json:"student_key"`
	LessonID     string                  `json:"lesson_id"`
	Answers      map[string]quiz.Outcome `json:"answers"`
	Answered     int                     `json:"answered"`
	CorrectCount int                     `json:"correct_count"`
	CompletedAt  *time.Time              `json:"completed_at,omitempty"`
}

// RosterEvent is one roster change fanned out to live subscribers.
type RosterEvent struct {
	ID         string                 `json:"id"`
	Type       string                 `json:"type"`
	Key        string                 `json:"key,omitempty"`
	ActorKey   string                 `json:"actor_key,omitempty"`
	Payload    map[string]interface{} `json:"payload,omitempty"`
	OccurredAt time.Time              `json:"occurred_at"`
}
