package service

import (
	"context"
	"io"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/rtdacademy/roster-api/internal/dto"
	"github.com/rtdacademy/roster-api/internal/models"
	"github.com/rtdacademy/roster-api/internal/utils"
)

func testLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

func testValidator() *validator.Validate {
	return validator.New(validator.WithRequiredStructEnabled())
}

// enrollmentRepoStub keeps enrollments and their summary rows in maps and
// mirrors the repository's summary-sync behavior on Transition.
type enrollmentRepoStub struct {
	nextID      uint
	enrollments map[uint]models.Enrollment
	summaries   map[uint]models.EnrollmentSummary
	students    map[uint]models.Student
	stamps      map[uint]map[string]interface{}
	createErr   error
}

func newEnrollmentRepoStub() *enrollmentRepoStub {
	return &enrollmentRepoStub{
		nextID:      1,
		enrollments: map[uint]models.Enrollment{},
		summaries:   map[uint]models.EnrollmentSummary{},
		students:    map[uint]models.Student{},
		stamps:      map[uint]map[string]interface{}{},
	}
}

func (s *enrollmentRepoStub) seed(e models.Enrollment, student models.Student) models.Enrollment {
	if e.ID == 0 {
		e.ID = s.nextID
		s.nextID++
	}
	e.StudentID = student.ID
	s.enrollments[e.ID] = e
	s.students[e.ID] = student
	s.summaries[e.ID] = models.EnrollmentSummary{
		Key:                  utils.SummaryKey(student.EmailKey, e.CourseID),
		EnrollmentID:         e.ID,
		EmailKey:             student.EmailKey,
		StudentEmail:         student.Email,
		FirstName:            student.FirstName,
		LastName:             student.LastName,
		ASN:                  student.ASN,
		CourseID:             e.CourseID,
		StatusValue:          e.StatusValue,
		ActiveFutureArchived: e.ActiveFutureArchived,
		Categories:           e.Categories,
	}
	return e
}

func (s *enrollmentRepoStub) GetByID(ctx context.Context, id uint) (models.Enrollment, error) {
	e, ok := s.enrollments[id]
	if !ok {
		return models.Enrollment{}, gorm.ErrRecordNotFound
	}
	return e, nil
}

func (s *enrollmentRepoStub) GetWithStudent(ctx context.Context, id uint) (models.Enrollment, error) {
	e, err := s.GetByID(ctx, id)
	if err != nil {
		return models.Enrollment{}, err
	}
	e.Student = s.students[id]
	return e, nil
}

func (s *enrollmentRepoStub) CreateWithSummary(ctx context.Context, enrollment *models.Enrollment, student models.Student) error {
	if s.createErr != nil {
		return s.createErr
	}
	*enrollment = s.seed(*enrollment, student)
	return nil
}

func (s *enrollmentRepoStub) Transition(ctx context.Context, id uint, mutate func(*models.Enrollment) error) (models.Enrollment, error) {
	e, ok := s.enrollments[id]
	if !ok {
		return models.Enrollment{}, gorm.ErrRecordNotFound
	}
	if err := mutate(&e); err != nil {
		return models.Enrollment{}, err
	}
	s.enrollments[id] = e

	summary := s.summaries[id]
	summary.StatusValue = e.StatusValue
	summary.ActiveFutureArchived = e.ActiveFutureArchived
	summary.PaymentStatus = e.PaymentStatus
	summary.StudentType = e.StudentType
	summary.SchoolYear = e.SchoolYear
	summary.Term = e.Term
	summary.DiplomaMonth = e.DiplomaMonth
	summary.PASI = e.PASI
	summary.LastUpdated = time.Now().UTC()
	s.summaries[id] = summary

	return e, nil
}

func (s *enrollmentRepoStub) StampLastChange(ctx context.Context, id uint, stamp map[string]interface{}) error {
	s.stamps[id] = stamp
	return nil
}

func (s *enrollmentRepoStub) SetCategoryFlag(ctx context.Context, id uint, flagKey string, enabled bool, now time.Time) error {
	e, ok := s.enrollments[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if e.Categories == nil {
		e.Categories = datatypes.JSONMap{}
	}
	e.Categories[flagKey] = enabled
	s.enrollments[id] = e

	summary := s.summaries[id]
	if summary.Categories == nil {
		summary.Categories = datatypes.JSONMap{}
	}
	summary.Categories[flagKey] = enabled
	summary.LastUpdated = now
	s.summaries[id] = summary
	return nil
}

func (s *enrollmentRepoStub) ClearCategoryFlag(ctx context.Context, flagKey string, now time.Time) error {
	for id, e := range s.enrollments {
		delete(e.Categories, flagKey)
		s.enrollments[id] = e
	}
	for id, summary := range s.summaries {
		delete(summary.Categories, flagKey)
		summary.LastUpdated = now
		s.summaries[id] = summary
	}
	return nil
}

type studentRepoStub struct {
	nextID   uint
	students map[string]models.Student
}

func newStudentRepoStub() *studentRepoStub {
	return &studentRepoStub{nextID: 1, students: map[string]models.Student{}}
}

func (s *studentRepoStub) GetByID(ctx context.Context, id uint) (models.Student, error) {
	for _, student := range s.students {
		if student.ID == id {
			return student, nil
		}
	}
	return models.Student{}, gorm.ErrRecordNotFound
}

func (s *studentRepoStub) GetByEmailKey(ctx context.Context, emailKey string) (models.Student, error) {
	student, ok := s.students[emailKey]
	if !ok {
		return models.Student{}, gorm.ErrRecordNotFound
	}
	return student, nil
}

func (s *studentRepoStub) FindOrCreate(ctx context.Context, student models.Student) (models.Student, error) {
	if existing, ok := s.students[student.EmailKey]; ok {
		return existing, nil
	}
	student.ID = s.nextID
	s.nextID++
	s.students[student.EmailKey] = student
	return student, nil
}

type statusLogRepoStub struct {
	nextID  uint
	entries []models.StatusLog
}

func (s *statusLogRepoStub) Create(ctx context.Context, entry *models.StatusLog) error {
	s.nextID++
	entry.ID = s.nextID
	entry.CreatedAt = time.Now().UTC()
	s.entries = append(s.entries, *entry)
	return nil
}

func (s *statusLogRepoStub) ListByEnrollment(ctx context.Context, enrollmentID uint) ([]models.StatusLog, error) {
	var out []models.StatusLog
	for _, entry := range s.entries {
		if entry.EnrollmentID == enrollmentID {
			out = append(out, entry)
		}
	}
	return out, nil
}

func (s *statusLogRepoStub) CountMassUpdates(ctx context.Context, enrollmentID uint) (int64, error) {
	var count int64
	for _, entry := range s.entries {
		if entry.EnrollmentID == enrollmentID && entry.IsMassUpdate {
			count++
		}
	}
	return count, nil
}

type asnRepoStub struct {
	records map[string]models.ASNRecord
}

func newASNRepoStub() *asnRepoStub {
	return &asnRepoStub{records: map[string]models.ASNRecord{}}
}

func (s *asnRepoStub) List(ctx context.Context) ([]models.ASNRecord, error) {
	out := make([]models.ASNRecord, 0, len(s.records))
	for _, record := range s.records {
		out = append(out, record)
	}
	return out, nil
}

func (s *asnRepoStub) Get(ctx context.Context, asn string) (models.ASNRecord, error) {
	record, ok := s.records[asn]
	if !ok {
		return models.ASNRecord{}, gorm.ErrRecordNotFound
	}
	return record, nil
}

func (s *asnRepoStub) Upsert(ctx context.Context, record *models.ASNRecord) error {
	s.records[record.ASN] = *record
	return nil
}

// publisherStub records every event so tests can assert on what a mutation
// broadcast.
type publisherStub struct {
	events []dto.RosterEvent
}

func (p *publisherStub) PublishRosterEvent(ctx context.Context, event dto.RosterEvent) {
	p.events = append(p.events, event)
}

func (p *publisherStub) typesSeen() []string {
	out := make([]string, 0, len(p.events))
	for _, event := range p.events {
		out = append(out, event.Type)
	}
	return out
}
