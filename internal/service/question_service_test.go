package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/rtdacademy/roster-api/internal/dto"
	"github.com/rtdacademy/roster-api/internal/models"
	"github.com/rtdacademy/roster-api/pkg/ai"
)

type questionRepoStub struct {
	questions map[string]models.QuizQuestion
}

func newQuestionRepoStub() *questionRepoStub {
	return &questionRepoStub{questions: map[string]models.QuizQuestion{}}
}

func (s *questionRepoStub) GetBySlug(ctx context.Context, slug string) (models.QuizQuestion, error) {
	question, ok := s.questions[slug]
	if !ok {
		return models.QuizQuestion{}, gorm.ErrRecordNotFound
	}
	return question, nil
}

func (s *questionRepoStub) Create(ctx context.Context, question *models.QuizQuestion) error {
	s.questions[question.Slug] = *question
	return nil
}

type generatorStub struct {
	question ai.Question
	err      error
}

func (g *generatorStub) Generate(ctx context.Context, req ai.QuestionRequest) (ai.Question, error) {
	if g.err != nil {
		return ai.Question{}, g.err
	}
	return g.question, nil
}

func bankQuestion() models.QuizQuestion {
	return models.QuizQuestion{
		Slug:     "course3_lesson2_q1",
		Question: "What is 2 + 2?",
		Options: datatypes.JSONMap{
			"A": "3",
			"B": "4",
			"C": "5",
			"D": "22",
		},
		CorrectAnswer: "B",
		Explanation:   "Two plus two is four.",
		Category:      "arithmetic",
	}
}

func TestGenerateUsesModel(t *testing.T) {
	generator := &generatorStub{question: ai.Question{
		Question:      "Which planet is closest to the sun?",
		Options:       []string{"Mercury", "Venus", "Earth", "Mars"},
		CorrectAnswer: "A",
	}}
	svc := NewQuestionService(newQuestionRepoStub(), generator, testLogger())

	resp := svc.Generate(context.Background(), dto.GenerateQuestionRequest{Topic: "astronomy"})
	require.True(t, resp.Success)
	require.Equal(t, "AI", resp.GeneratedBy)
	require.Equal(t, "Which planet is closest to the sun?", resp.Question.Question)
}

func TestGenerateFallsBackOnError(t *testing.T) {
	generator := &generatorStub{err: errors.New("model unavailable")}
	svc := NewQuestionService(newQuestionRepoStub(), generator, testLogger())

	resp := svc.Generate(context.Background(), dto.GenerateQuestionRequest{Difficulty: "advanced"})
	require.True(t, resp.Success)
	require.Equal(t, "Fallback", resp.GeneratedBy)
	require.NotEmpty(t, resp.Question.Question)
	require.Len(t, resp.Question.Options, 4)
	require.Equal(t, "advanced", resp.Question.Difficulty)
}

func TestGenerateWithoutGenerator(t *testing.T) {
	svc := NewQuestionService(newQuestionRepoStub(), nil, testLogger())

	resp := svc.Generate(context.Background(), dto.GenerateQuestionRequest{})
	require.True(t, resp.Success)
	require.Equal(t, "Fallback", resp.GeneratedBy)
}

func TestGetWithholdsAnswer(t *testing.T) {
	bank := newQuestionRepoStub()
	question := bankQuestion()
	require.NoError(t, bank.Create(context.Background(), &question))
	svc := NewQuestionService(bank, nil, testLogger())

	resp, err := svc.Get(context.Background(), question.Slug)
	require.NoError(t, err)
	require.Equal(t, question.Slug, resp.Slug)
	require.Len(t, resp.Options, 4)
	require.Equal(t, "4", resp.Options["B"])

	_, err = svc.Get(context.Background(), "missing")
	require.ErrorIs(t, err, ErrQuestionNotFound)
}

func TestGradeRevealsExplanationOnlyWhenCorrect(t *testing.T) {
	bank := newQuestionRepoStub()
	question := bankQuestion()
	require.NoError(t, bank.Create(context.Background(), &question))
	svc := NewQuestionService(bank, nil, testLogger())

	wrong, err := svc.Grade(context.Background(), question.Slug, dto.AnswerRequest{Answer: "A"})
	require.NoError(t, err)
	require.False(t, wrong.Correct)
	require.Empty(t, wrong.Explanation)

	right, err := svc.Grade(context.Background(), question.Slug, dto.AnswerRequest{Answer: "B"})
	require.NoError(t, err)
	require.True(t, right.Correct)
	require.Equal(t, "Two plus two is four.", right.Explanation)
}
