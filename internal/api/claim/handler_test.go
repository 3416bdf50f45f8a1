package claim

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/medassist/claims-backend/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUsecase struct {
	coverage *entity.CoverageResult
	estimate *entity.EstimateClaimResponse
	policy   *entity.Policy
	err      error
}

func (f *fakeUsecase) AdjudicateClaim(ctx context.Context, req *entity.AdjudicateClaimRequest) (*entity.CoverageResult, error) {
	return f.coverage, f.err
}

func (f *fakeUsecase) EstimateClaim(ctx context.Context, req *entity.EstimateClaimRequest) (*entity.EstimateClaimResponse, error) {
	return f.estimate, f.err
}

func (f *fakeUsecase) GetPolicy(ctx context.Context, policyNumber string) (*entity.Policy, error) {
	return f.policy, f.err
}

func newTestRouter(uc ClaimUsecase) http.Handler {
	r := chi.NewRouter()
	RegisterRoutes(r, NewHandler(uc))
	return r
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestAdjudicateClaim_OK(t *testing.T) {
	router := newTestRouter(&fakeUsecase{
		coverage: &entity.CoverageResult{
			TotalBilled:        1000,
			DeductibleApplied:  200,
			InsuranceCovers:    640,
			OutOfPocket:        360,
			CoveragePercentage: 64,
		},
	})

	rec := doJSON(t, router, http.MethodPost, "/claims/adjudicate", entity.AdjudicateClaimRequest{
		LineItems: []entity.BillLineItem{{ServiceCode: "99213", BilledAmount: 1000}},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp entity.CoverageResult
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, 640.0, resp.InsuranceCovers)
	assert.Equal(t, 64.0, resp.CoveragePercentage)
}

func TestAdjudicateClaim_MalformedBody(t *testing.T) {
	router := newTestRouter(&fakeUsecase{})

	req := httptest.NewRequest(http.MethodPost, "/claims/adjudicate", bytes.NewBufferString("not json"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdjudicateClaim_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{
			name:       "negative line item is unprocessable",
			err:        entity.ErrInvalidLineItem,
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:       "invalid policy terms are a bad request",
			err:        entity.ErrInvalidParameter,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "unknown errors stay internal",
			err:        errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter(&fakeUsecase{err: tt.err})
			rec := doJSON(t, router, http.MethodPost, "/claims/adjudicate", entity.AdjudicateClaimRequest{})
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestEstimateClaim_OK(t *testing.T) {
	router := newTestRouter(&fakeUsecase{
		estimate: &entity.EstimateClaimResponse{
			PolicyNumber:     "POL123456",
			PolicyholderName: "John Doe",
			Coverage:         entity.CoverageResult{TotalBilled: 1000, InsuranceCovers: 640},
		},
	})

	rec := doJSON(t, router, http.MethodPost, "/claims/estimate", entity.EstimateClaimRequest{
		PolicyNumber: "POL123456",
		LineItems:    []entity.BillLineItem{{BilledAmount: 1000}},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp entity.EstimateClaimResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "John Doe", resp.PolicyholderName)
	assert.Equal(t, 640.0, resp.Coverage.InsuranceCovers)
}

func TestEstimateClaim_UnknownPolicy(t *testing.T) {
	router := newTestRouter(&fakeUsecase{err: entity.ErrPolicyNotFound})

	rec := doJSON(t, router, http.MethodPost, "/claims/estimate", entity.EstimateClaimRequest{
		PolicyNumber: "POL000000",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetPolicy_OK(t *testing.T) {
	router := newTestRouter(&fakeUsecase{
		policy: &entity.Policy{PolicyNumber: "POL123456", PolicyholderName: "John Doe", Status: "active"},
	})

	rec := doJSON(t, router, http.MethodGet, "/policies/POL123456", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp entity.Policy
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "POL123456", resp.PolicyNumber)
}

func TestGetPolicy_NotFound(t *testing.T) {
	router := newTestRouter(&fakeUsecase{err: entity.ErrPolicyNotFound})

	rec := doJSON(t, router, http.MethodGet, "/policies/POL000000", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
