package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/gajilabs/payrun/internal/auditctx"
	"github.com/gajilabs/payrun/internal/config"
	"github.com/gajilabs/payrun/internal/deadline"
	"github.com/gajilabs/payrun/internal/orgcontext"
	rundomain "github.com/gajilabs/payrun/internal/payrollrun/domain"
	payslipdomain "github.com/gajilabs/payrun/internal/payslip/domain"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRunService struct {
	lastCtx context.Context

	run       rundomain.PayrollRun
	result    rundomain.CalculationResult
	err       error
	callCount int
}

func (f *fakeRunService) Create(ctx context.Context, req rundomain.CreateRunRequest) (rundomain.PayrollRun, error) {
	f.lastCtx = ctx
	f.callCount++
	return f.run, f.err
}

func (f *fakeRunService) List(ctx context.Context, req rundomain.ListRunsRequest) ([]rundomain.PayrollRun, error) {
	f.lastCtx = ctx
	if f.err != nil {
		return nil, f.err
	}
	return []rundomain.PayrollRun{f.run}, nil
}

func (f *fakeRunService) GetByID(ctx context.Context, id string) (rundomain.PayrollRun, error) {
	f.lastCtx = ctx
	return f.run, f.err
}

func (f *fakeRunService) Calculate(ctx context.Context, id string) (rundomain.CalculationResult, error) {
	f.lastCtx = ctx
	return f.result, f.err
}

func (f *fakeRunService) Recalculate(ctx context.Context, id string) (rundomain.CalculationResult, error) {
	f.lastCtx = ctx
	return f.result, f.err
}

func (f *fakeRunService) Approve(ctx context.Context, id string) (rundomain.PayrollRun, error) {
	f.lastCtx = ctx
	return f.run, f.err
}

func (f *fakeRunService) Finalize(ctx context.Context, id string) (rundomain.PayrollRun, error) {
	f.lastCtx = ctx
	return f.run, f.err
}

func (f *fakeRunService) MarkPaid(ctx context.Context, id string, req rundomain.MarkPaidRequest) (rundomain.PayrollRun, error) {
	f.lastCtx = ctx
	return f.run, f.err
}

func (f *fakeRunService) Cancel(ctx context.Context, id string) (rundomain.PayrollRun, error) {
	f.lastCtx = ctx
	return f.run, f.err
}

func (f *fakeRunService) PaySlips(ctx context.Context, runID string) ([]payslipdomain.PaySlip, error) {
	f.lastCtx = ctx
	return nil, f.err
}

func (f *fakeRunService) Deadline(ctx context.Context, runID string) (deadline.Status, error) {
	f.lastCtx = ctx
	return deadline.Status{}, f.err
}

func (f *fakeRunService) Variance(ctx context.Context, paySlipID string) (rundomain.VarianceResult, error) {
	f.lastCtx = ctx
	return rundomain.VarianceResult{}, f.err
}

func newTestServer(t *testing.T, svc rundomain.Service) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	engine := gin.New()
	engine.Use(ErrorHandlingMiddleware())

	return NewServer(ServerParams{
		Gin:    engine,
		Cfg:    config.Config{Environment: "test"},
		GenID:  node,
		RunSvc: svc,
	})
}

func doRequest(srv *Server, method, path, orgID string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	if orgID != "" {
		req.Header.Set(HeaderOrg, orgID)
	}
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	srv.Engine().ServeHTTP(rec, req)
	return rec
}

func errorType(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp struct {
		Error struct {
			Type string `json:"type"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Error.Type
}

func TestAdminRoutesRequireOrgHeader(t *testing.T) {
	svc := &fakeRunService{}
	srv := newTestServer(t, svc)

	rec := doRequest(srv, http.MethodGet, "/admin/payroll-runs", "", nil)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "unauthorized", errorType(t, rec))
	assert.Zero(t, svc.callCount)
}

func TestOrgHeaderFallsBackToDefaultOrg(t *testing.T) {
	svc := &fakeRunService{}
	srv := newTestServer(t, svc)
	srv.cfg.DefaultOrgID = 42

	rec := doRequest(srv, http.MethodGet, "/admin/payroll-runs", "", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	orgID, ok := orgcontext.OrgIDFromContext(svc.lastCtx)
	require.True(t, ok)
	assert.Equal(t, snowflake.ID(42), orgID)
}

func TestMalformedOrgHeaderRejected(t *testing.T) {
	srv := newTestServer(t, &fakeRunService{})

	rec := doRequest(srv, http.MethodGet, "/admin/payroll-runs", "not-a-number", nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "validation_error", errorType(t, rec))
}

func TestCreatePayrollRunInjectsOrgContext(t *testing.T) {
	svc := &fakeRunService{run: rundomain.PayrollRun{RunNumber: 7}}
	srv := newTestServer(t, svc)

	rec := doRequest(srv, http.MethodPost, "/admin/payroll-runs", "123", rundomain.CreateRunRequest{
		PeriodYear:  2025,
		PeriodMonth: 3,
		PayDate:     "2025-03-28",
	})

	assert.Equal(t, http.StatusCreated, rec.Code)
	orgID, ok := orgcontext.OrgIDFromContext(svc.lastCtx)
	require.True(t, ok)
	assert.Equal(t, snowflake.ID(123), orgID)
}

func TestCreatePayrollRunRejectsMalformedBody(t *testing.T) {
	svc := &fakeRunService{}
	srv := newTestServer(t, svc)

	rec := doRequest(srv, http.MethodPost, "/admin/payroll-runs", "123", gin.H{"period_year": "nope"})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "validation_error", errorType(t, rec))
	assert.Zero(t, svc.callCount)
}

func TestGetPayrollRunNotFound(t *testing.T) {
	svc := &fakeRunService{err: rundomain.ErrRunNotFound}
	srv := newTestServer(t, svc)

	rec := doRequest(srv, http.MethodGet, "/admin/payroll-runs/9001", "123", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", errorType(t, rec))
}

func TestRunIDParamMustBeNumeric(t *testing.T) {
	svc := &fakeRunService{}
	srv := newTestServer(t, svc)

	rec := doRequest(srv, http.MethodGet, "/admin/payroll-runs/abc", "123", nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "validation_error", errorType(t, rec))
}

func TestApproveFromWrongStatusMapsToConflict(t *testing.T) {
	svc := &fakeRunService{err: &rundomain.TransitionError{From: rundomain.StatusDraft, Operation: "approve"}}
	srv := newTestServer(t, svc)

	rec := doRequest(srv, http.MethodPost, "/admin/payroll-runs/9001/approve", "123", nil)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "invalid_state", errorType(t, rec))
}

func TestDuplicatePeriodMapsToConflict(t *testing.T) {
	svc := &fakeRunService{err: rundomain.ErrDuplicatePeriod}
	srv := newTestServer(t, svc)

	rec := doRequest(srv, http.MethodPost, "/admin/payroll-runs", "123", rundomain.CreateRunRequest{
		PeriodYear:  2025,
		PeriodMonth: 3,
		PayDate:     "2025-03-28",
	})

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "conflict", errorType(t, rec))
}

func TestCalculateWithEmptyRosterMapsToUnprocessable(t *testing.T) {
	svc := &fakeRunService{err: rundomain.ErrNoActiveEmployees}
	srv := newTestServer(t, svc)

	rec := doRequest(srv, http.MethodPost, "/admin/payroll-runs/9001/calculate", "123", nil)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "unprocessable", errorType(t, rec))
}

func TestMarkPaidFutureDateMapsToValidationError(t *testing.T) {
	svc := &fakeRunService{err: rundomain.ErrPaymentDateInFuture}
	srv := newTestServer(t, svc)

	rec := doRequest(srv, http.MethodPost, "/admin/payroll-runs/9001/mark-paid", "123", rundomain.MarkPaidRequest{
		PaymentDate: "2099-01-01",
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "validation_error", errorType(t, rec))
}

func TestActorHeaderPropagatesToContext(t *testing.T) {
	svc := &fakeRunService{}
	srv := newTestServer(t, svc)

	req := httptest.NewRequest(http.MethodGet, "/admin/payroll-runs", nil)
	req.Header.Set(HeaderOrg, "123")
	req.Header.Set(HeaderActor, "reviewer-1")
	rec := httptest.NewRecorder()
	srv.Engine().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, svc.lastCtx)
	actorType, actorID := auditctx.ActorFromContext(svc.lastCtx)
	assert.Equal(t, "user", actorType)
	assert.Equal(t, "reviewer-1", actorID)
}
