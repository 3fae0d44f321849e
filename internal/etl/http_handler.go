package etl

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"hubsync/internal/catalog"
	"hubsync/internal/httpx"
	"hubsync/internal/platform/huggingface"
)

type Runner interface {
	Run(ctx context.Context) (*Run, error)
	RunWithLimit(ctx context.Context, limit int) (*Run, error)
}

type HTTPHandler struct {
	svc    Runner
	secret string
}

func NewHTTPHandler(svc Runner, secret string) *HTTPHandler {
	return &HTTPHandler{svc: svc, secret: secret}
}

// Trigger handles POST /internal/jobs/etl
// @Summary Trigger a model metadata sync
// @Description Fetch models from the hub, normalize them and upsert into Postgres
// @Tags internal
// @Produce json
// @Param X-Internal-Secret header string true "Internal secret for authentication"
// @Param limit query int false "Override the configured fetch limit"
// @Success 200 {object} httpx.SuccessResponse
// @Failure 400 {object} httpx.ErrorResponse
// @Failure 401 {object} httpx.ErrorResponse
// @Failure 409 {object} httpx.ErrorResponse
// @Failure 502 {object} httpx.ErrorResponse
// @Router /internal/jobs/etl [post]
func (h *HTTPHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		httpx.JSONError(w, r, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "use POST", nil)
		return
	}

	secret := r.Header.Get("X-Internal-Secret")
	if h.secret != "" && secret != h.secret {
		httpx.JSONError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "invalid internal secret", nil)
		return
	}

	var (
		run *Run
		err error
	)
	if v := r.URL.Query().Get("limit"); v != "" {
		limit, convErr := strconv.Atoi(v)
		if convErr != nil || limit <= 0 {
			httpx.JSONError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "limit must be a positive integer", []httpx.ErrorDetail{
				{Field: "limit", Message: "must be a positive integer"},
			})
			return
		}
		run, err = h.svc.RunWithLimit(r.Context(), limit)
	} else {
		run, err = h.svc.Run(r.Context())
	}

	if err != nil {
		status, code := classify(err)
		httpx.JSONError(w, r, status, code, err.Error(), nil)
		return
	}

	httpx.JSONSuccess(w, r, run, nil)
}

func classify(err error) (int, string) {
	var (
		reqErr    *huggingface.RequestError
		schemaErr *catalog.SchemaError
		storeErr  *catalog.StoreError
	)
	switch {
	case errors.Is(err, ErrRunInProgress):
		return http.StatusConflict, "RUN_IN_PROGRESS"
	case errors.As(err, &reqErr):
		return http.StatusBadGateway, "EXTRACT_FAILED"
	case errors.As(err, &schemaErr):
		return http.StatusUnprocessableEntity, "SCHEMA_INVALID"
	case errors.As(err, &storeErr):
		return http.StatusInternalServerError, "LOAD_FAILED"
	default:
		return http.StatusInternalServerError, "ETL_FAILED"
	}
}
