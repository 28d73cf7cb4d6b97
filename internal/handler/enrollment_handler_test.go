package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/rtdacademy/roster-api/internal/dto"
	"github.com/rtdacademy/roster-api/internal/handler"
	"github.com/rtdacademy/roster-api/internal/service"
)

type mockEnrollmentService struct {
	createFn     func(ctx context.Context, req dto.EnrollmentCreateRequest, actor service.Actor) (dto.EnrollmentResponse, error)
	getFn        func(ctx context.Context, id uint) (dto.EnrollmentResponse, error)
	logsFn       func(ctx context.Context, id uint) ([]dto.StatusLogResponse, error)
	transitionFn func(ctx context.Context, id uint, req dto.StatusTransitionRequest, actor service.Actor) (dto.StatusTransitionResponse, error)
	autoApplyFn  func(ctx context.Context, id uint, actor service.Actor) (dto.StatusTransitionResponse, error)
	setPaymentFn func(ctx context.Context, id uint, req dto.PaymentStatusUpdateRequest, actor service.Actor) (dto.EnrollmentResponse, error)
}

func (m *mockEnrollmentService) Create(ctx context.Context, req dto.EnrollmentCreateRequest, actor service.Actor) (dto.EnrollmentResponse, error) {
	if m.createFn == nil {
		return dto.EnrollmentResponse{}, nil
	}
	return m.createFn(ctx, req, actor)
}

func (m *mockEnrollmentService) Get(ctx context.Context, id uint) (dto.EnrollmentResponse, error) {
	if m.getFn == nil {
		return dto.EnrollmentResponse{}, nil
	}
	return m.getFn(ctx, id)
}

func (m *mockEnrollmentService) Logs(ctx context.Context, id uint) ([]dto.StatusLogResponse, error) {
	if m.logsFn == nil {
		return nil, nil
	}
	return m.logsFn(ctx, id)
}

func (m *mockEnrollmentService) Transition(ctx context.Context, id uint, req dto.StatusTransitionRequest, actor service.Actor) (dto.StatusTransitionResponse, error) {
	if m.transitionFn == nil {
		return dto.StatusTransitionResponse{}, nil
	}
	return m.transitionFn(ctx, id, req, actor)
}

func (m *mockEnrollmentService) AutoApply(ctx context.Context, id uint, actor service.Actor) (dto.StatusTransitionResponse, error) {
	if m.autoApplyFn == nil {
		return dto.StatusTransitionResponse{}, nil
	}
	return m.autoApplyFn(ctx, id, actor)
}

func (m *mockEnrollmentService) SetPaymentStatus(ctx context.Context, id uint, req dto.PaymentStatusUpdateRequest, actor service.Actor) (dto.EnrollmentResponse, error) {
	if m.setPaymentFn == nil {
		return dto.EnrollmentResponse{}, nil
	}
	return m.setPaymentFn(ctx, id, req, actor)
}

type mockCategoryService struct {
	listFn       func(ctx context.Context, actor service.Actor, staffOverride string, includeArchived bool) ([]dto.CategoryResponse, error)
	listAllFn    func(ctx context.Context) ([]dto.CategoryResponse, error)
	createFn     func(ctx context.Context, actor service.Actor, staffOverride string, req dto.CategoryCreateRequest) (dto.CategoryResponse, error)
	updateFn     func(ctx context.Context, actor service.Actor, id string, req dto.CategoryUpdateRequest) (dto.CategoryResponse, error)
	deleteFn     func(ctx context.Context, actor service.Actor, id string) error
	createTypeFn func(ctx context.Context, actor service.Actor, req dto.CategoryTypeCreateRequest) (dto.CategoryTypeResponse, error)
	deleteTypeFn func(ctx context.Context, actor service.Actor, id string) error
	applyFn      func(ctx context.Context, enrollmentID uint, teacherKey, categoryID string, actor service.Actor) error
	removeFn     func(ctx context.Context, enrollmentID uint, teacherKey, categoryID string, actor service.Actor) error
}

func (m *mockCategoryService) List(ctx context.Context, actor service.Actor, staffOverride string, includeArchived bool) ([]dto.CategoryResponse, error) {
	if m.listFn == nil {
		return nil, nil
	}
	return m.listFn(ctx, actor, staffOverride, includeArchived)
}

func (m *mockCategoryService) ListAll(ctx context.Context) ([]dto.CategoryResponse, error) {
	if m.listAllFn == nil {
		return nil, nil
	}
	return m.listAllFn(ctx)
}

func (m *mockCategoryService) Create(ctx context.Context, actor service.Actor, staffOverride string, req dto.CategoryCreateRequest) (dto.CategoryResponse, error) {
	if m.createFn == nil {
		return dto.CategoryResponse{}, nil
	}
	return m.createFn(ctx, actor, staffOverride, req)
}

func (m *mockCategoryService) Update(ctx context.Context, actor service.Actor, id string, req dto.CategoryUpdateRequest) (dto.CategoryResponse, error) {
	if m.updateFn == nil {
		return dto.CategoryResponse{}, nil
	}
	return m.updateFn(ctx, actor, id, req)
}

func (m *mockCategoryService) Delete(ctx context.Context, actor service.Actor, id string) error {
	if m.deleteFn == nil {
		return nil
	}
	return m.deleteFn(ctx, actor, id)
}

func (m *mockCategoryService) ListTypes(context.Context) ([]dto.CategoryTypeResponse, error) {
	return nil, nil
}

func (m *mockCategoryService) CreateType(ctx context.Context, actor service.Actor, req dto.CategoryTypeCreateRequest) (dto.CategoryTypeResponse, error) {
	if m.createTypeFn == nil {
		return dto.CategoryTypeResponse{}, nil
	}
	return m.createTypeFn(ctx, actor, req)
}

func (m *mockCategoryService) UpdateType(context.Context, service.Actor, string, dto.CategoryTypeUpdateRequest) (dto.CategoryTypeResponse, error) {
	return dto.CategoryTypeResponse{}, nil
}

func (m *mockCategoryService) DeleteType(ctx context.Context, actor service.Actor, id string) error {
	if m.deleteTypeFn == nil {
		return nil
	}
	return m.deleteTypeFn(ctx, actor, id)
}

func (m *mockCategoryService) Apply(ctx context.Context, enrollmentID uint, teacherKey, categoryID string, actor service.Actor) error {
	if m.applyFn == nil {
		return nil
	}
	return m.applyFn(ctx, enrollmentID, teacherKey, categoryID, actor)
}

func (m *mockCategoryService) Remove(ctx context.Context, enrollmentID uint, teacherKey, categoryID string, actor service.Actor) error {
	if m.removeFn == nil {
		return nil
	}
	return m.removeFn(ctx, enrollmentID, teacherKey, categoryID, actor)
}

type mockArchiveService struct {
	archiveFn func(ctx context.Context, actor service.Actor, id uint) (dto.ArchiveResponse, error)
	restoreFn func(ctx context.Context, actor service.Actor, id uint) (dto.EnrollmentResponse, error)
}

func (m *mockArchiveService) Archive(ctx context.Context, actor service.Actor, id uint) (dto.ArchiveResponse, error) {
	if m.archiveFn == nil {
		return dto.ArchiveResponse{}, nil
	}
	return m.archiveFn(ctx, actor, id)
}

func (m *mockArchiveService) Restore(ctx context.Context, actor service.Actor, id uint) (dto.EnrollmentResponse, error) {
	if m.restoreFn == nil {
		return dto.EnrollmentResponse{}, nil
	}
	return m.restoreFn(ctx, actor, id)
}

func newEnrollmentApp(enrollments *mockEnrollmentService, categories *mockCategoryService, archive *mockArchiveService) *fiber.App {
	app := fiber.New()
	app.Use(asActor("teacher@rtd", "teacher"))
	handler.NewEnrollmentHandler(enrollments, categories, archive, testValidator(), testLogger()).
		Register(app.Group("/api/enrollments"))
	return app
}

func jsonBody(t *testing.T, payload interface{}) *bytes.Reader {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	return bytes.NewReader(raw)
}

func TestEnrollmentHandler_TransitionInformational(t *testing.T) {
	enrollments := &mockEnrollmentService{
		transitionFn: func(_ context.Context, id uint, req dto.StatusTransitionRequest, actor service.Actor) (dto.StatusTransitionResponse, error) {
			require.Equal(t, uint(7), id)
			require.Equal(t, "Review Needed", req.Status)
			require.Equal(t, "teacher@rtd", actor.Key)
			return dto.StatusTransitionResponse{Applied: false, Reason: "informational status entries are never applied"}, nil
		},
	}
	app := newEnrollmentApp(enrollments, &mockCategoryService{}, &mockArchiveService{})

	req := httptest.NewRequest(http.MethodPatch, "/api/enrollments/7/status",
		jsonBody(t, dto.StatusTransitionRequest{Status: "Review Needed"}))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusAccepted, resp.StatusCode)

	var body struct {
		Success bool                         `json:"success"`
		Data    dto.StatusTransitionResponse `json:"data"`
	}
	decodeResponse(t, resp, &body)
	require.True(t, body.Success)
	require.False(t, body.Data.Applied)
	require.NotEmpty(t, body.Data.Reason)
}

func TestEnrollmentHandler_TransitionMissingDate(t *testing.T) {
	enrollments := &mockEnrollmentService{
		transitionFn: func(context.Context, uint, dto.StatusTransitionRequest, service.Actor) (dto.StatusTransitionResponse, error) {
			return dto.StatusTransitionResponse{}, &service.DateRequiredError{Kind: "finalize"}
		},
	}
	app := newEnrollmentApp(enrollments, &mockCategoryService{}, &mockArchiveService{})

	req := httptest.NewRequest(http.MethodPatch, "/api/enrollments/7/status",
		jsonBody(t, dto.StatusTransitionRequest{Status: "Completed"}))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)

	var body struct {
		Message string `json:"message"`
	}
	decodeResponse(t, resp, &body)
	require.Equal(t, "status requires a finalize date", body.Message)
}

func TestEnrollmentHandler_SetPaymentStatus(t *testing.T) {
	enrollments := &mockEnrollmentService{
		setPaymentFn: func(_ context.Context, id uint, req dto.PaymentStatusUpdateRequest, actor service.Actor) (dto.EnrollmentResponse, error) {
			require.Equal(t, uint(7), id)
			require.Equal(t, "paid", req.PaymentStatus)
			require.Equal(t, "teacher@rtd", actor.Key)
			return dto.EnrollmentResponse{ID: id, PaymentStatus: req.PaymentStatus}, nil
		},
	}
	app := newEnrollmentApp(enrollments, &mockCategoryService{}, &mockArchiveService{})

	req := httptest.NewRequest(http.MethodPatch, "/api/enrollments/7/payment-status",
		jsonBody(t, dto.PaymentStatusUpdateRequest{PaymentStatus: "paid"}))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body struct {
		Data dto.EnrollmentResponse `json:"data"`
	}
	decodeResponse(t, resp, &body)
	require.Equal(t, "paid", body.Data.PaymentStatus)
}

func TestEnrollmentHandler_SetPaymentStatusRejectsUnknownValue(t *testing.T) {
	enrollments := &mockEnrollmentService{
		setPaymentFn: func(context.Context, uint, dto.PaymentStatusUpdateRequest, service.Actor) (dto.EnrollmentResponse, error) {
			return dto.EnrollmentResponse{}, service.ErrInvalidValue
		},
	}
	app := newEnrollmentApp(enrollments, &mockCategoryService{}, &mockArchiveService{})

	req := httptest.NewRequest(http.MethodPatch, "/api/enrollments/7/payment-status",
		jsonBody(t, dto.PaymentStatusUpdateRequest{PaymentStatus: "overdue"}))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
}

func TestEnrollmentHandler_TransitionUnknownStatus(t *testing.T) {
	enrollments := &mockEnrollmentService{
		transitionFn: func(context.Context, uint, dto.StatusTransitionRequest, service.Actor) (dto.StatusTransitionResponse, error) {
			return dto.StatusTransitionResponse{}, service.ErrUnknownStatus
		},
	}
	app := newEnrollmentApp(enrollments, &mockCategoryService{}, &mockArchiveService{})

	req := httptest.NewRequest(http.MethodPatch, "/api/enrollments/7/status",
		jsonBody(t, dto.StatusTransitionRequest{Status: "Graduated"}))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
}

func TestEnrollmentHandler_TransitionInvalidID(t *testing.T) {
	app := newEnrollmentApp(&mockEnrollmentService{}, &mockCategoryService{}, &mockArchiveService{})

	req := httptest.NewRequest(http.MethodPatch, "/api/enrollments/abc/status",
		jsonBody(t, dto.StatusTransitionRequest{Status: "Active"}))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestEnrollmentHandler_GetNotFound(t *testing.T) {
	enrollments := &mockEnrollmentService{
		getFn: func(context.Context, uint) (dto.EnrollmentResponse, error) {
			return dto.EnrollmentResponse{}, service.ErrEnrollmentNotFound
		},
	}
	app := newEnrollmentApp(enrollments, &mockCategoryService{}, &mockArchiveService{})

	req := httptest.NewRequest(http.MethodGet, "/api/enrollments/404", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestEnrollmentHandler_AutoApplyConflicts(t *testing.T) {
	for _, serviceErr := range []error{service.ErrNoSuggestion, service.ErrAutoApplyRefused} {
		enrollments := &mockEnrollmentService{
			autoApplyFn: func(context.Context, uint, service.Actor) (dto.StatusTransitionResponse, error) {
				return dto.StatusTransitionResponse{}, serviceErr
			},
		}
		app := newEnrollmentApp(enrollments, &mockCategoryService{}, &mockArchiveService{})

		req := httptest.NewRequest(http.MethodPost, "/api/enrollments/7/status/auto-apply", nil)
		resp, err := app.Test(req)
		require.NoError(t, err)
		require.Equal(t, fiber.StatusConflict, resp.StatusCode, "error %v", serviceErr)
	}
}

func TestEnrollmentHandler_CategoryRoutes(t *testing.T) {
	var applied, removed bool
	categories := &mockCategoryService{
		applyFn: func(_ context.Context, id uint, teacherKey, categoryID string, _ service.Actor) error {
			require.Equal(t, uint(7), id)
			require.Equal(t, "teacher@rtd", teacherKey)
			require.Equal(t, "cat-1", categoryID)
			applied = true
			return nil
		},
		removeFn: func(context.Context, uint, string, string, service.Actor) error {
			removed = true
			return nil
		},
	}
	app := newEnrollmentApp(&mockEnrollmentService{}, categories, &mockArchiveService{})

	req := httptest.NewRequest(http.MethodPut, "/api/enrollments/7/categories/teacher@rtd/cat-1", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.True(t, applied)

	req = httptest.NewRequest(http.MethodDelete, "/api/enrollments/7/categories/teacher@rtd/cat-1", nil)
	resp, err = app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.True(t, removed)
}

func TestEnrollmentHandler_ArchiveConflict(t *testing.T) {
	archive := &mockArchiveService{
		archiveFn: func(context.Context, service.Actor, uint) (dto.ArchiveResponse, error) {
			return dto.ArchiveResponse{}, service.ErrAlreadyArchived
		},
	}
	app := newEnrollmentApp(&mockEnrollmentService{}, &mockCategoryService{}, archive)

	req := httptest.NewRequest(http.MethodPost, "/api/enrollments/7/archive", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusConflict, resp.StatusCode)
}

func TestEnrollmentHandler_CreateConflict(t *testing.T) {
	enrollments := &mockEnrollmentService{
		createFn: func(context.Context, dto.EnrollmentCreateRequest, service.Actor) (dto.EnrollmentResponse, error) {
			return dto.EnrollmentResponse{}, service.ErrEnrollmentExists
		},
	}
	app := newEnrollmentApp(enrollments, &mockCategoryService{}, &mockArchiveService{})

	req := httptest.NewRequest(http.MethodPost, "/api/enrollments",
		jsonBody(t, dto.EnrollmentCreateRequest{
			Email:     "jane.doe@example.com",
			FirstName: "Jane",
			LastName:  "Doe",
			CourseID:  "MATH30-1",
		}))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusConflict, resp.StatusCode)
}

func TestEnrollmentHandler_CreateValidation(t *testing.T) {
	app := newEnrollmentApp(&mockEnrollmentService{}, &mockCategoryService{}, &mockArchiveService{})

	req := httptest.NewRequest(http.MethodPost, "/api/enrollments",
		jsonBody(t, dto.EnrollmentCreateRequest{Email: "not-an-email"}))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}
