package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/rtdacademy/roster-api/internal/dto"
	"github.com/rtdacademy/roster-api/internal/models"
	"github.com/rtdacademy/roster-api/internal/quiz"
	"github.com/rtdacademy/roster-api/internal/repository"
)

// ProgressService persists per-lesson quiz progress. All progress math lives
// in the quiz package; this layer only loads, applies, and saves.
type ProgressService interface {
	Get(ctx context.Context, studentKey, lessonID string) (dto.ProgressResponse, error)
	Answer(ctx context.Context, studentKey, lessonID string, req dto.ProgressAnswerRequest) (dto.ProgressResponse, error)
}

type progressService struct {
	progress repository.ProgressRepository
	bank     repository.QuestionRepository
	logger   zerolog.Logger
	now      func() time.Time
}

// NewProgressService constructs the progress service.
func NewProgressService(progress repository.ProgressRepository, bank repository.QuestionRepository, logger zerolog.Logger) ProgressService {
	return &progressService{
		progress: progress,
		bank:     bank,
		logger:   logger.With().Str("component", "progress_service").Logger(),
		now:      time.Now,
	}
}

// Get returns the stored progress, or an empty progress for a lesson the
// student has not started. Not-started is not an error.
func (s *progressService) Get(ctx context.Context, studentKey, lessonID string) (dto.ProgressResponse, error) {
	record, err := s.progress.Get(ctx, studentKey, lessonID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return progressResponse(studentKey, lessonID, quiz.New(), nil), nil
		}
		return dto.ProgressResponse{}, err
	}

	state, err := progressFromRecord(record)
	if err != nil {
		return dto.ProgressResponse{}, err
	}
	return progressResponse(studentKey, lessonID, state, record.CompletedAt), nil
}

func (s *progressService) Answer(ctx context.Context, studentKey, lessonID string, req dto.ProgressAnswerRequest) (dto.ProgressResponse, error) {
	record, err := s.progress.Get(ctx, studentKey, lessonID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.ProgressResponse{}, err
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		record = models.LessonProgress{StudentKey: studentKey, LessonID: lessonID}
	}

	state, err := progressFromRecord(record)
	if err != nil {
		return dto.ProgressResponse{}, err
	}

	correct := s.gradeAnswer(ctx, req)
	state = state.Apply(req.QuestionID, req.Answer, correct)

	answers, err := answersToJSONMap(state)
	if err != nil {
		return dto.ProgressResponse{}, err
	}
	record.Answers = answers

	if record.CompletedAt == nil && len(req.Required) > 0 && state.Complete(req.Required) {
		completedAt := s.now().UTC()
		record.CompletedAt = &completedAt
		s.logger.Info().
			Str("student_key", studentKey).
			Str("lesson_id", lessonID).
			Msg("lesson completed")
	}

	if err := s.progress.Save(ctx, &record); err != nil {
		return dto.ProgressResponse{}, err
	}

	return progressResponse(studentKey, lessonID, state, record.CompletedAt), nil
}

// gradeAnswer grades server side when the question is in the bank, and only
// falls back to the client-reported result for questions the bank does not
// know about.
func (s *progressService) gradeAnswer(ctx context.Context, req dto.ProgressAnswerRequest) bool {
	question, err := s.bank.GetBySlug(ctx, req.QuestionID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Warn().Err(err).Str("question_id", req.QuestionID).Msg("failed to load bank question for grading")
		}
		return req.Correct
	}
	return req.Answer == question.CorrectAnswer
}

func progressResponse(studentKey, lessonID string, state quiz.Progress, completedAt *time.Time) dto.ProgressResponse {
	return dto.ProgressResponse{
		StudentKey:   studentKey,
		LessonID:     lessonID,
		Answers:      state.ToMap(),
		Answered:     state.Answered(),
		CorrectCount: state.CorrectCount(),
		CompletedAt:  completedAt,
	}
}

func progressFromRecord(record models.LessonProgress) (quiz.Progress, error) {
	if len(record.Answers) == 0 {
		return quiz.New(), nil
	}

	raw, err := json.Marshal(record.Answers)
	if err != nil {
		return quiz.Progress{}, err
	}
	var answers map[string]quiz.Outcome
	if err := json.Unmarshal(raw, &answers); err != nil {
		return quiz.Progress{}, err
	}
	return quiz.FromMap(answers), nil
}

func answersToJSONMap(state quiz.Progress) (datatypes.JSONMap, error) {
	raw, err := json.Marshal(state.ToMap())
	if err != nil {
		return nil, err
	}
	var out datatypes.JSONMap
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}
