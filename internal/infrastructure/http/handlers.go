package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/yourusername/telegram-comment-fleet/internal/domain"
	"github.com/yourusername/telegram-comment-fleet/internal/usecase"
)

// AccountHandler exposes the operator API over JSON.
type AccountHandler struct {
	accounts *usecase.AccountUsecase
	logger   zerolog.Logger
}

// NewAccountHandler creates the operator API handler.
func NewAccountHandler(accounts *usecase.AccountUsecase, logger zerolog.Logger) *AccountHandler {
	return &AccountHandler{
		accounts: accounts,
		logger:   logger.With().Str("component", "account_handler").Logger(),
	}
}

// Register mounts the operator routes on the mux.
func (h *AccountHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /accounts", h.register)
	mux.HandleFunc("GET /accounts/{id}", h.info)
	mux.HandleFunc("DELETE /accounts", h.delete)
	mux.HandleFunc("PATCH /accounts/{id}/settings", h.updateSettings)
	mux.HandleFunc("POST /accounts/{id}/channels", h.editChannels)
	mux.HandleFunc("PUT /accounts/{id}/warmup-channels", h.setWarmupChannels)
	mux.HandleFunc("POST /accounts/{id}/mode/toggle", h.toggleMode)
	mux.HandleFunc("POST /accounts/{id}/warmup/reset", h.resetWarmup)
	mux.HandleFunc("POST /accounts/{id}/start", h.start)
	mux.HandleFunc("POST /accounts/{id}/stop", h.stop)
}

type registerRequest struct {
	UserID      int64  `json:"user_id"`
	Phone       string `json:"phone"`
	SessionPath string `json:"session_path"`
}

func (h *AccountHandler) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.UserID == 0 || req.Phone == "" {
		writeError(w, http.StatusBadRequest, errors.New("user_id and phone are required"))
		return
	}

	account, err := h.accounts.Register(r.Context(), req.UserID, req.Phone, req.SessionPath)
	if err != nil {
		h.writeUsecaseError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, account)
}

func (h *AccountHandler) info(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	info, err := h.accounts.Info(r.Context(), id)
	if err != nil {
		h.writeUsecaseError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (h *AccountHandler) delete(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(r.URL.Query().Get("user_id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, errors.New("user_id query parameter is required"))
		return
	}
	phone := r.URL.Query().Get("phone")
	if phone == "" {
		writeError(w, http.StatusBadRequest, errors.New("phone query parameter is required"))
		return
	}

	if err := h.accounts.Delete(r.Context(), userID, phone); err != nil {
		h.writeUsecaseError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type settingsRequest struct {
	Chance       *int     `json:"chance"`
	SystemPrompt *string  `json:"system_prompt"`
	SleepMin     *int     `json:"sleep_min"`
	SleepMax     *int     `json:"sleep_max"`
	Channels     []string `json:"channels"`
}

func (h *AccountHandler) updateSettings(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req settingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	err := h.accounts.UpdateSettings(r.Context(), id, domain.AccountSettings{
		Chance:       req.Chance,
		SystemPrompt: req.SystemPrompt,
		SleepMin:     req.SleepMin,
		SleepMax:     req.SleepMax,
		Channels:     req.Channels,
	})
	if err != nil {
		h.writeUsecaseError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type channelsRequest struct {
	Edits []string `json:"edits"`
}

func (h *AccountHandler) editChannels(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req channelsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	if err := h.accounts.ApplyChannelEdits(r.Context(), id, req.Edits); err != nil {
		h.writeUsecaseError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type warmupChannelsRequest struct {
	Channels []string `json:"channels"`
}

func (h *AccountHandler) setWarmupChannels(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req warmupChannelsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	if err := h.accounts.SetWarmupChannels(r.Context(), id, req.Channels); err != nil {
		h.writeUsecaseError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AccountHandler) toggleMode(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	mode, err := h.accounts.ToggleMode(r.Context(), id)
	if err != nil {
		h.writeUsecaseError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"mode": string(mode)})
}

type resetWarmupRequest struct {
	Days int `json:"days"`
}

func (h *AccountHandler) resetWarmup(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req resetWarmupRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
	}

	if err := h.accounts.ResetWarmup(r.Context(), id, req.Days); err != nil {
		h.writeUsecaseError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AccountHandler) start(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.accounts.Start(r.Context(), id); err != nil {
		h.writeUsecaseError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AccountHandler) stop(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.accounts.Stop(r.Context(), id); err != nil {
		h.writeUsecaseError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AccountHandler) writeUsecaseError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrAccountNotFound), errors.Is(err, domain.ErrEntryNotFound):
		writeError(w, http.StatusNotFound, err)
	case errors.Is(err, domain.ErrAlreadyRunning):
		writeError(w, http.StatusConflict, err)
	default:
		h.logger.Error().Err(err).Msg("request failed")
		writeError(w, http.StatusInternalServerError, err)
	}
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, errors.New("invalid account id"))
		return 0, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
