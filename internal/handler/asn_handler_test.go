package handler_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/rtdacademy/roster-api/internal/dto"
	"github.com/rtdacademy/roster-api/internal/handler"
)

type mockASNService struct {
	issuesFn func(ctx context.Context) (dto.ASNIssueListResponse, error)
}

func (m *mockASNService) ListIssues(ctx context.Context) (dto.ASNIssueListResponse, error) {
	if m.issuesFn == nil {
		return dto.ASNIssueListResponse{}, nil
	}
	return m.issuesFn(ctx)
}

func newASNApp(svc *mockASNService) *fiber.App {
	app := fiber.New()
	app.Use(asActor("teacher@rtd", "teacher"))
	handler.NewASNHandler(svc, testLogger()).Register(app.Group("/api/asn"))
	return app
}

func TestASNHandler_Issues(t *testing.T) {
	svc := &mockASNService{
		issuesFn: func(context.Context) (dto.ASNIssueListResponse, error) {
			return dto.ASNIssueListResponse{Items: []dto.ASNIssueResponse{{
				ASN:           "111111111",
				CurrentOwners: []string{"bob,roy@example,com", "jane,doe@example,com"},
				Emails:        []string{"bob.roy@example.com", "jane.doe@example.com"},
			}}}, nil
		},
	}
	app := newASNApp(svc)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/asn/issues", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body struct {
		Data dto.ASNIssueListResponse `json:"data"`
	}
	decodeResponse(t, resp, &body)
	require.Len(t, body.Data.Items, 1)
	require.Equal(t, "111111111", body.Data.Items[0].ASN)
	require.Len(t, body.Data.Items[0].CurrentOwners, 2)
}

func TestASNHandler_IssuesFailure(t *testing.T) {
	svc := &mockASNService{
		issuesFn: func(context.Context) (dto.ASNIssueListResponse, error) {
			return dto.ASNIssueListResponse{}, errors.New("db down")
		},
	}
	app := newASNApp(svc)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/asn/issues", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
}
