package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"lotto/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockLotteryService struct {
	mock.Mock
}

func (m *mockLotteryService) Play(ctx context.Context, userID string) *models.PlayResult {
	args := m.Called(ctx, userID)
	return args.Get(0).(*models.PlayResult)
}

func (m *mockLotteryService) Rules() string {
	return m.Called().String(0)
}

func (m *mockLotteryService) History(ctx context.Context, userID string, limit int) ([]*models.PlayRecord, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.PlayRecord), args.Error(1)
}

func serve(t *testing.T, h http.Handler, method, path string, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRouter_Health(t *testing.T) {
	router := NewRouter(new(mockLotteryService), RouterConfig{})

	rec := serve(t, router, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())

	rec = serve(t, router, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_Rules(t *testing.T) {
	svc := new(mockLotteryService)
	svc.On("Rules").Return("rules text")

	rec := serve(t, NewRouter(svc, RouterConfig{}), http.MethodGet, "/api/v1/lottery/rules", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "rules text", body["rules"])
}

func TestRouter_PlayStatusMapping(t *testing.T) {
	tests := []struct {
		result *models.PlayResult
		status int
	}{
		{&models.PlayResult{Success: true, Outcome: models.OutcomeRefund, Bet: 10, Payout: 10, ResultingBalance: 10}, http.StatusOK},
		{&models.PlayResult{Reason: models.FailureUserNotFound}, http.StatusNotFound},
		{&models.PlayResult{Reason: models.FailureDailyLimitReached}, http.StatusConflict},
		{&models.PlayResult{Reason: models.FailureInsufficientBalance}, http.StatusUnprocessableEntity},
		{&models.PlayResult{Reason: models.FailureBusy}, http.StatusServiceUnavailable},
		{&models.PlayResult{Reason: models.FailureSystemError}, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		name := string(tt.result.Reason)
		if tt.result.Success {
			name = "success"
		}
		t.Run(name, func(t *testing.T) {
			svc := new(mockLotteryService)
			svc.On("Play", mock.Anything, "42").Return(tt.result)

			rec := serve(t, NewRouter(svc, RouterConfig{}), http.MethodPost, "/api/v1/lottery/users/42/play", nil)

			assert.Equal(t, tt.status, rec.Code)
			var body playResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.result.Success, body.Success)
			assert.Equal(t, string(tt.result.Reason), body.Reason)
			svc.AssertExpectations(t)
		})
	}
}

func TestRouter_PlayMasksTransferTarget(t *testing.T) {
	svc := new(mockLotteryService)
	svc.On("Play", mock.Anything, "42").Return(&models.PlayResult{
		Success:        true,
		Outcome:        models.OutcomeTransfer,
		Bet:            500,
		TransferTarget: "12345678",
	})

	rec := serve(t, NewRouter(svc, RouterConfig{}), http.MethodPost, "/api/v1/lottery/users/42/play", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var body playResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "1234****", body.TransferTarget)
	assert.Equal(t, "transfer", body.Outcome)
}

func TestRouter_History(t *testing.T) {
	target := "87654321"
	plays := []*models.PlayRecord{{
		ID:             uuid.New(),
		UserID:         "42",
		Outcome:        models.OutcomeTransfer,
		Roll:           90,
		Bet:            100,
		TransferTarget: &target,
		PlayDate:       time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC),
		PlayCount:      2,
	}}

	svc := new(mockLotteryService)
	svc.On("History", mock.Anything, "42", 10).Return(plays, nil)
	svc.On("History", mock.Anything, "42", 3).Return(plays, nil)
	svc.On("History", mock.Anything, "nobody", 10).Return(nil, fmt.Errorf("wrapped: %w", models.ErrUserNotFound))
	svc.On("History", mock.Anything, "busy", 10).Return(nil, models.ErrStoreBusy)
	router := NewRouter(svc, RouterConfig{})

	rec := serve(t, router, http.MethodGet, "/api/v1/lottery/users/42/history", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Plays []playRecordResponse `json:"plays"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Plays, 1)
	assert.Equal(t, "8765****", body.Plays[0].TransferTarget)
	assert.Equal(t, "2024-01-05", body.Plays[0].PlayDate)

	rec = serve(t, router, http.MethodGet, "/api/v1/lottery/users/42/history?limit=3", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(t, router, http.MethodGet, "/api/v1/lottery/users/42/history?limit=zero", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(t, router, http.MethodGet, "/api/v1/lottery/users/nobody/history", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = serve(t, router, http.MethodGet, "/api/v1/lottery/users/busy/history", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRouter_BearerAuth(t *testing.T) {
	tokens := NewTokenManager("test-secret")
	svc := new(mockLotteryService)
	svc.On("Play", mock.Anything, "42").Return(&models.PlayResult{Success: true, Outcome: models.OutcomeLoss})
	svc.On("Rules").Return("rules")
	router := NewRouter(svc, RouterConfig{Tokens: tokens})

	own, err := tokens.Issue("42", time.Minute)
	require.NoError(t, err)
	other, err := tokens.Issue("43", time.Minute)
	require.NoError(t, err)
	expired, err := tokens.Issue("42", -time.Minute)
	require.NoError(t, err)
	forged, err := NewTokenManager("other-secret").Issue("42", time.Minute)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"not bearer", "Basic abc", http.StatusUnauthorized},
		{"expired", "Bearer " + expired, http.StatusUnauthorized},
		{"wrong secret", "Bearer " + forged, http.StatusUnauthorized},
		{"other user", "Bearer " + other, http.StatusForbidden},
		{"own token", "Bearer " + own, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			header := http.Header{}
			if tt.header != "" {
				header.Set("Authorization", tt.header)
			}
			rec := serve(t, router, http.MethodPost, "/api/v1/lottery/users/42/play", header)
			assert.Equal(t, tt.status, rec.Code)
		})
	}

	// rules stay public
	rec := serve(t, router, http.MethodGet, "/api/v1/lottery/rules", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestTokenManager_Subject(t *testing.T) {
	tokens := NewTokenManager("secret")
	token, err := tokens.Issue("user-7", time.Hour)
	require.NoError(t, err)

	sub, err := tokens.Subject(token)
	require.NoError(t, err)
	assert.Equal(t, "user-7", sub)

	_, err = tokens.Subject("not-a-jwt")
	assert.Error(t, err)

	ctx := context.WithValue(context.Background(), ctxSubjectKey, "user-7")
	got, ok := SubjectFrom(ctx)
	assert.True(t, ok)
	assert.Equal(t, "user-7", got)
}
