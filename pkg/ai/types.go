package ai

import "context"

// QuestionRequest describes the quiz question being asked for.
type QuestionRequest struct {
	Topic        string
	Difficulty   string
	QuestionType string
}

// Question is a generated multiple-choice question. Options always holds
// exactly four entries and CorrectAnswer is one of A-D; GenerateQuestion
// enforces both before returning.
type Question struct {
	Question          string   `json:"question"`
	Options           []string `json:"options"`
	CorrectAnswer     string   `json:"correctAnswer"`
	Explanation       string   `json:"explanation"`
	Category          string   `json:"category"`
	Difficulty        string   `json:"difficulty"`
	LearningObjective string   `json:"learningObjective"`
}

// Generator describes an AI model capable of producing quiz questions.
type Generator interface {
	Generate(ctx context.Context, req QuestionRequest) (Question, error)
}
