package dto

import (
	"time"

	"github.com/rtdacademy/roster-api/internal/models"
)

// GenerateQuestionRequest asks the AI generator for a quiz question.
type GenerateQuestionRequest struct {
	Difficulty   string `json:"difficulty,omitempty" validate:"omitempty,oneof=beginner intermediate advanced"`
	QuestionType string `json:"questionType,omitempty" validate:"omitempty,max=64"`
	Topic        string `json:"topic,omitempty" validate:"omitempty,max=255"`
	LessonID     string `json:"lessonId,omitempty" validate:"omitempty,max=128"`
}

// GeneratedQuestionPayload is the question body inside a generation response.
type GeneratedQuestionPayload struct {
	Question          string   `json:"question"`
	Options           []string `json:"options"`
	CorrectAnswer     string   `json:"correctAnswer"`
	Explanation       string   `json:"explanation"`
	Category          string   `json:"category"`
	Difficulty        string   `json:"difficulty"`
	LearningObjective string   `json:"learningObjective"`
}

// GenerateQuestionResponse is the envelope returned by the generation
// endpoint. GeneratedBy is "AI" when the model produced the question and
// "Fallback" when the canned question was served instead.
type GenerateQuestionResponse struct {
	Success     bool                     `json:"success"`
	Question    GeneratedQuestionPayload `json:"question"`
	Timestamp   time.Time                `json:"timestamp"`
	GeneratedBy string                   `json:"generatedBy"`
	LessonID    string                   `json:"lessonId,omitempty"`
}

// QuestionResponse serves a bank entry with the correct answer withheld.
type QuestionResponse struct {
	Slug              string            `json:"slug"`
	Question          string            `json:"question"`
	Options           map[string]string `json:"options"`
	Category          string            `json:"category,omitempty"`
	Difficulty        string            `json:"difficulty,omitempty"`
	LearningObjective string            `json:"learning_objective,omitempty"`
}

// NewQuestionResponse maps a bank entry onto its answer-free API view.
func NewQuestionResponse(q models.QuizQuestion) QuestionResponse {
	options := make(map[string]string, len(q.Options))
	for key, value := range q.Options {
		if text, ok := value.(string); ok {
			options[key] = text
		}
	}
	return QuestionResponse{
		Slug:              q.Slug,
		Question:          q.Question,
		Options:           options,
		Category:          q.Category,
		Difficulty:        q.Difficulty,
		LearningObjective: q.LearningObjective,
	}
}

// AnswerRequest submits an answer for grading.
type AnswerRequest struct {
	Answer string `json:"answer" validate:"required,oneof=A B C D"`
}

// GradeResponse reports whether the submitted answer was correct.
type GradeResponse struct {
	Correct       bool   `json:"correct"`
	CorrectAnswer string `json:"correct_answer"`
	Explanation   string `json:"explanation,omitempty"`
}
