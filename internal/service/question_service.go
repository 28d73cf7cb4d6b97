package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/rtdacademy/roster-api/internal/dto"
	"github.com/rtdacademy/roster-api/internal/repository"
	"github.com/rtdacademy/roster-api/pkg/ai"
)

var ErrQuestionNotFound = errors.New("question not found")

// QuestionService generates quiz questions and serves the pre-authored bank.
// Served questions never expose the correct answer; grading happens server
// side against the stored entry.
type QuestionService interface {
	Generate(ctx context.Context, req dto.GenerateQuestionRequest) dto.GenerateQuestionResponse
	Get(ctx context.Context, slug string) (dto.QuestionResponse, error)
	Grade(ctx context.Context, slug string, req dto.AnswerRequest) (dto.GradeResponse, error)
}

type questionService struct {
	bank      repository.QuestionRepository
	generator ai.Generator
	logger    zerolog.Logger
	now       func() time.Time
}

// NewQuestionService constructs the question service. generator may be nil,
// in which case every generation serves the fallback question.
func NewQuestionService(bank repository.QuestionRepository, generator ai.Generator, logger zerolog.Logger) QuestionService {
	return &questionService{
		bank:      bank,
		generator: generator,
		logger:    logger.With().Str("component", "question_service").Logger(),
		now:       time.Now,
	}
}

// Generate asks the model for a question and falls back to the canned
// orientation question on any failure. The endpoint never errors: a broken
// or unconfigured model still hands the student something to answer.
func (s *questionService) Generate(ctx context.Context, req dto.GenerateQuestionRequest) dto.GenerateQuestionResponse {
	aiReq := ai.QuestionRequest{
		Topic:        req.Topic,
		Difficulty:   req.Difficulty,
		QuestionType: req.QuestionType,
	}

	generatedBy := "AI"
	var question ai.Question
	if s.generator == nil {
		question = ai.FallbackQuestion(aiReq)
		generatedBy = "Fallback"
	} else {
		generated, err := s.generator.Generate(ctx, aiReq)
		if err != nil {
			s.logger.Warn().Err(err).Str("topic", req.Topic).Msg("question generation failed, serving fallback")
			generated = ai.FallbackQuestion(aiReq)
			generatedBy = "Fallback"
		}
		question = generated
	}

	return dto.GenerateQuestionResponse{
		Success: true,
		Question: dto.GeneratedQuestionPayload{
			Question:          question.Question,
			Options:           question.Options,
			CorrectAnswer:     question.CorrectAnswer,
			Explanation:       question.Explanation,
			Category:          question.Category,
			Difficulty:        question.Difficulty,
			LearningObjective: question.LearningObjective,
		},
		Timestamp:   s.now().UTC(),
		GeneratedBy: generatedBy,
		LessonID:    req.LessonID,
	}
}

func (s *questionService) Get(ctx context.Context, slug string) (dto.QuestionResponse, error) {
	question, err := s.bank.GetBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.QuestionResponse{}, ErrQuestionNotFound
		}
		return dto.QuestionResponse{}, err
	}
	return dto.NewQuestionResponse(question), nil
}

func (s *questionService) Grade(ctx context.Context, slug string, req dto.AnswerRequest) (dto.GradeResponse, error) {
	question, err := s.bank.GetBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.GradeResponse{}, ErrQuestionNotFound
		}
		return dto.GradeResponse{}, err
	}

	correct := req.Answer == question.CorrectAnswer
	response := dto.GradeResponse{
		Correct:       correct,
		CorrectAnswer: question.CorrectAnswer,
	}
	if correct {
		response.Explanation = question.Explanation
	}
	return response, nil
}
