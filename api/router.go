package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"lotto/metrics"
	"lotto/models"
	"lotto/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	log "github.com/sirupsen/logrus"
)

// RouterConfig configures the HTTP surface
type RouterConfig struct {
	CORSOrigins []string
	// Tokens enables bearer authentication on per-user routes when set
	Tokens *TokenManager
}

type playResponse struct {
	Success           bool   `json:"success"`
	Message           string `json:"message"`
	Outcome           string `json:"outcome,omitempty"`
	Bet               int64  `json:"bet"`
	Payout            int64  `json:"payout"`
	Balance           int64  `json:"balance"`
	RemainingAttempts int    `json:"remaining_attempts"`
	TransferTarget    string `json:"transfer_target,omitempty"`
	Reason            string `json:"reason,omitempty"`
}

type playRecordResponse struct {
	ID             string    `json:"id"`
	Outcome        string    `json:"outcome"`
	Roll           int       `json:"roll"`
	Bet            int64     `json:"bet"`
	Payout         int64     `json:"payout"`
	BalanceAfter   int64     `json:"balance_after"`
	TransferTarget string    `json:"transfer_target,omitempty"`
	PlayDate       string    `json:"play_date"`
	PlayCount      int       `json:"play_count"`
	CreatedAt      time.Time `json:"created_at"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// NewRouter builds the HTTP handler over the lottery service
func NewRouter(lottery service.LotteryService, cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer, requestLogger, requestMetrics)

	origins := cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte("ok")) })
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api/v1/lottery", func(r chi.Router) {
		r.Get("/rules", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"rules": lottery.Rules()})
		})

		r.Route("/users/{userID}", func(r chi.Router) {
			if cfg.Tokens != nil {
				r.Use(cfg.Tokens.RequireUser)
			}

			r.Post("/play", func(w http.ResponseWriter, r *http.Request) {
				result := lottery.Play(r.Context(), chi.URLParam(r, "userID"))
				writeJSON(w, StatusForResult(result), toPlayResponse(result))
			})

			r.Get("/history", func(w http.ResponseWriter, r *http.Request) {
				userID := chi.URLParam(r, "userID")

				limit := service.DefaultHistoryLimit
				if raw := r.URL.Query().Get("limit"); raw != "" {
					n, err := strconv.Atoi(raw)
					if err != nil || n <= 0 {
						writeError(w, http.StatusBadRequest, "bad_request", "limit must be a positive integer")
						return
					}
					limit = n
				}

				plays, err := lottery.History(r.Context(), userID, limit)
				if err != nil {
					writeHistoryError(w, userID, err)
					return
				}

				out := make([]playRecordResponse, 0, len(plays))
				for _, p := range plays {
					out = append(out, toPlayRecordResponse(p))
				}
				writeJSON(w, http.StatusOK, map[string]any{"plays": out})
			})
		})
	})

	return r
}

// StatusForResult maps a play result onto an HTTP status code
func StatusForResult(result *models.PlayResult) int {
	if result.Success {
		return http.StatusOK
	}
	switch result.Reason {
	case models.FailureUserNotFound:
		return http.StatusNotFound
	case models.FailureDailyLimitReached:
		return http.StatusConflict
	case models.FailureInsufficientBalance:
		return http.StatusUnprocessableEntity
	case models.FailureBusy:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func toPlayResponse(result *models.PlayResult) playResponse {
	resp := playResponse{
		Success:           result.Success,
		Message:           result.Message,
		Outcome:           string(result.Outcome),
		Bet:               result.Bet,
		Payout:            result.Payout,
		Balance:           result.ResultingBalance,
		RemainingAttempts: result.RemainingAttempts,
		Reason:            string(result.Reason),
	}
	if result.TransferTarget != "" {
		resp.TransferTarget = service.MaskUserID(result.TransferTarget)
	}
	return resp
}

func toPlayRecordResponse(p *models.PlayRecord) playRecordResponse {
	resp := playRecordResponse{
		ID:           p.ID.String(),
		Outcome:      string(p.Outcome),
		Roll:         p.Roll,
		Bet:          p.Bet,
		Payout:       p.Payout,
		BalanceAfter: p.BalanceAfter,
		PlayDate:     p.PlayDate.Format("2006-01-02"),
		PlayCount:    p.PlayCount,
		CreatedAt:    p.CreatedAt,
	}
	if p.TransferTarget != nil {
		resp.TransferTarget = service.MaskUserID(*p.TransferTarget)
	}
	return resp
}

func writeHistoryError(w http.ResponseWriter, userID string, err error) {
	switch {
	case errors.Is(err, models.ErrUserNotFound):
		writeError(w, http.StatusNotFound, string(models.FailureUserNotFound), "user does not exist")
	case errors.Is(err, models.ErrStoreBusy):
		writeError(w, http.StatusServiceUnavailable, string(models.FailureBusy), "system busy, please try again later")
	default:
		log.WithFields(log.Fields{"user_id": userID, "error": err}).Error("Failed to load play history")
		writeError(w, http.StatusInternalServerError, string(models.FailureSystemError), "system error")
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Error: code, Message: message})
}
