package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/rtdacademy/roster-api/internal/dto"
	"github.com/rtdacademy/roster-api/internal/models"
	"github.com/rtdacademy/roster-api/internal/options"
	"github.com/rtdacademy/roster-api/internal/repository"
	"github.com/rtdacademy/roster-api/internal/utils"
)

// massUpdateRepoStub replays the batch against the in-memory enrollment
// store with all-or-nothing semantics: mutations land only when every key in
// the batch succeeds.
type massUpdateRepoStub struct {
	enrollments *enrollmentRepoStub
	logs        *statusLogRepoStub
}

func (s *massUpdateRepoStub) ApplyBatch(ctx context.Context, keys []string, change repository.BatchChange) (int, error) {
	type staged struct {
		enrollment models.Enrollment
		summary    models.EnrollmentSummary
		entry      *models.StatusLog
	}

	var pending []staged
	for _, key := range keys {
		var found *models.EnrollmentSummary
		for id := range s.enrollments.summaries {
			summary := s.enrollments.summaries[id]
			if summary.Key == key {
				found = &summary
				break
			}
		}
		if found == nil {
			return 0, fmt.Errorf("summary %q: not found", key)
		}

		enrollment := s.enrollments.enrollments[found.EnrollmentID]
		summary := *found
		entry, err := change(&enrollment, &summary)
		if err != nil {
			return 0, err
		}
		pending = append(pending, staged{enrollment: enrollment, summary: summary, entry: entry})
	}

	for _, item := range pending {
		s.enrollments.enrollments[item.enrollment.ID] = item.enrollment
		s.enrollments.summaries[item.enrollment.ID] = item.summary
		if item.entry != nil {
			if err := s.logs.Create(ctx, item.entry); err != nil {
				return 0, err
			}
		}
	}
	return len(pending), nil
}

func newMassUpdateFixture(t *testing.T, count int) (*enrollmentRepoStub, *statusLogRepoStub, *publisherStub, MassUpdateService, []string) {
	t.Helper()

	enrollments := newEnrollmentRepoStub()
	logs := &statusLogRepoStub{}
	categories := newCategoryRepoStub()
	categories.categories["cat-1"] = models.Category{ID: "cat-1", TeacherKey: "teacher@rtd", Name: "Flag"}
	publisher := &publisherStub{}

	keys := make([]string, 0, count)
	for i := 0; i < count; i++ {
		email := fmt.Sprintf("student%d@example.com", i)
		student := models.Student{
			ID:       uint(i + 1),
			Email:    email,
			EmailKey: utils.SanitizeEmail(email),
		}
		seeded := enrollments.seed(models.Enrollment{
			CourseID:             "MATH30-1",
			StatusValue:          "Active",
			ActiveFutureArchived: options.StateActive,
			Categories:           datatypes.JSONMap{},
		}, student)
		keys = append(keys, enrollments.summaries[seeded.ID].Key)
	}

	batches := &massUpdateRepoStub{enrollments: enrollments, logs: logs}
	svc := NewMassUpdateService(batches, categories, testValidator(), publisher, testLogger())
	return enrollments, logs, publisher, svc, keys
}

func TestMassUpdateRequiresAdmin(t *testing.T) {
	_, _, _, svc, keys := newMassUpdateFixture(t, 1)

	_, err := svc.Apply(context.Background(), dto.MassUpdateRequest{
		Keys:     keys,
		Property: dto.MassPropertyStatus,
		Value:    "Behind",
	}, Actor{Key: "teacher@rtd", Role: "teacher"})
	require.ErrorIs(t, err, ErrAdminRequired)
}

func TestMassUpdateStatusWritesAuditPerRecord(t *testing.T) {
	enrollments, logs, publisher, svc, keys := newMassUpdateFixture(t, 3)

	resp, err := svc.Apply(context.Background(), dto.MassUpdateRequest{
		Keys:     keys,
		Property: dto.MassPropertyStatus,
		Value:    "Behind",
	}, Actor{Key: "admin@rtd", Role: "admin"})
	require.NoError(t, err)
	require.Equal(t, 3, resp.Updated)

	require.Len(t, logs.entries, 3)
	for _, entry := range logs.entries {
		require.True(t, entry.IsMassUpdate)
		require.Equal(t, 3, entry.TotalStudents)
		require.Equal(t, "Active", entry.PreviousStatus)
		require.Equal(t, "Behind", entry.NewStatus)
		require.Equal(t, "admin@rtd", entry.ActorKey)
	}
	for _, enrollment := range enrollments.enrollments {
		require.Equal(t, "Behind", enrollment.StatusValue)
	}
	for _, summary := range enrollments.summaries {
		require.Equal(t, "Behind", summary.StatusValue)
	}

	require.Equal(t, []string{"roster.mass_update"}, publisher.typesSeen())
}

func TestMassUpdateRejectsGatedStatus(t *testing.T) {
	_, logs, _, svc, keys := newMassUpdateFixture(t, 2)

	_, err := svc.Apply(context.Background(), dto.MassUpdateRequest{
		Keys:     keys,
		Property: dto.MassPropertyStatus,
		Value:    "Completed",
	}, Actor{Key: "admin@rtd", Role: "admin"})
	require.ErrorIs(t, err, ErrInvalidValue)
	require.Empty(t, logs.entries)
}

func TestMassUpdateUnknownKeyAbortsWholeBatch(t *testing.T) {
	enrollments, logs, _, svc, keys := newMassUpdateFixture(t, 2)

	_, err := svc.Apply(context.Background(), dto.MassUpdateRequest{
		Keys:     append(keys, "missing@example,com_MATH30-1"),
		Property: dto.MassPropertyStatus,
		Value:    "Behind",
	}, Actor{Key: "admin@rtd", Role: "admin"})
	require.Error(t, err)

	require.Empty(t, logs.entries)
	for _, enrollment := range enrollments.enrollments {
		require.Equal(t, "Active", enrollment.StatusValue)
	}
}

func TestMassUpdateInvalidValue(t *testing.T) {
	_, _, _, svc, keys := newMassUpdateFixture(t, 1)
	admin := Actor{Key: "admin@rtd", Role: "admin"}

	_, err := svc.Apply(context.Background(), dto.MassUpdateRequest{
		Keys:     keys,
		Property: dto.MassPropertyPASI,
		Value:    "maybe",
	}, admin)
	require.ErrorIs(t, err, ErrInvalidValue)

	_, err = svc.Apply(context.Background(), dto.MassUpdateRequest{
		Keys:     keys,
		Property: "paymentPlan",
		Value:    "monthly",
	}, admin)
	require.ErrorIs(t, err, ErrUnknownProperty)
}

func TestMassUpdateCategoryToggle(t *testing.T) {
	enrollments, logs, _, svc, keys := newMassUpdateFixture(t, 2)
	admin := Actor{Key: "admin@rtd", Role: "admin"}

	_, err := svc.Apply(context.Background(), dto.MassUpdateRequest{
		Keys:     keys,
		Property: dto.MassPropertyCategories,
	}, admin)
	require.ErrorIs(t, err, ErrCategoryRefMissing)

	resp, err := svc.Apply(context.Background(), dto.MassUpdateRequest{
		Keys:     keys,
		Property: dto.MassPropertyCategories,
		Category: &dto.MassCategoryRef{TeacherKey: "teacher@rtd", CategoryID: "cat-1"},
		Enabled:  true,
	}, admin)
	require.NoError(t, err)
	require.Equal(t, 2, resp.Updated)
	require.Empty(t, logs.entries)

	for _, enrollment := range enrollments.enrollments {
		require.Equal(t, true, enrollment.Categories["teacher@rtd:cat-1"])
	}
	for _, summary := range enrollments.summaries {
		require.Equal(t, true, summary.Categories["teacher@rtd:cat-1"])
	}
}
