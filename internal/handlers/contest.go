package handlers

import (
	"net/http"
	"time"

	"github.com/jjudge-oj/grader/internal/services"
	"github.com/jjudge-oj/grader/types"
	"go.uber.org/zap"
)

// ContestHandler provides HTTP handlers for contests and their questions.
type ContestHandler struct {
	contestService *services.ContestService
	logger         *zap.Logger
}

func NewContestHandler(contestService *services.ContestService, logger *zap.Logger) *ContestHandler {
	return &ContestHandler{contestService: contestService, logger: logger}
}

type CreateContestRequest struct {
	Title            string           `json:"title"`
	Description      string           `json:"description"`
	StartTime        time.Time        `json:"start_time"`
	EndTime          time.Time        `json:"end_time"`
	IsActive         *bool            `json:"is_active"`
	AllowedLanguages []types.Language `json:"allowed_languages"`
	MaxAttempts      int              `json:"max_attempts"`
}

type CreateQuestionRequest struct {
	Title       string           `json:"title"`
	Description string           `json:"description"`
	TimeLimit   int64            `json:"time_limit"`
	MemoryLimit int64            `json:"memory_limit"`
	TestCases   []types.TestCase `json:"test_cases"`
}

type SetTestCasesRequest struct {
	TestCases []types.TestCase `json:"test_cases"`
}

// CreateContest handles POST /contests.
func (h *ContestHandler) CreateContest(w http.ResponseWriter, r *http.Request) {
	var req CreateContestRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	contest, err := h.contestService.Create(r.Context(), types.Contest{
		Title:            req.Title,
		Description:      req.Description,
		StartTime:        req.StartTime,
		EndTime:          req.EndTime,
		IsActive:         active,
		AllowedLanguages: req.AllowedLanguages,
		MaxAttempts:      req.MaxAttempts,
	})
	if err != nil {
		writeServiceError(w, h.logger, err, "failed to create contest")
		return
	}
	writeJSON(w, http.StatusCreated, contest)
}

// GetContest handles GET /contests/{contestID}.
func (h *ContestHandler) GetContest(w http.ResponseWriter, r *http.Request) {
	contestID, err := pathID(r, "contestID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	viewer, _ := viewerFromContext(r.Context())

	contest, err := h.contestService.Get(r.Context(), contestID, viewer)
	if err != nil {
		writeServiceError(w, h.logger, err, "failed to load contest")
		return
	}
	writeJSON(w, http.StatusOK, contest)
}

// CreateQuestion handles POST /contests/{contestID}/questions.
func (h *ContestHandler) CreateQuestion(w http.ResponseWriter, r *http.Request) {
	contestID, err := pathID(r, "contestID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req CreateQuestionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	question, err := h.contestService.AddQuestion(r.Context(), contestID, types.Question{
		Title:       req.Title,
		Description: req.Description,
		TimeLimit:   req.TimeLimit,
		MemoryLimit: req.MemoryLimit,
		TestCases:   req.TestCases,
	})
	if err != nil {
		writeServiceError(w, h.logger, err, "failed to create question")
		return
	}
	writeJSON(w, http.StatusCreated, question)
}

// SetTestCases handles PUT /contests/{contestID}/questions/{questionID}/testcases.
func (h *ContestHandler) SetTestCases(w http.ResponseWriter, r *http.Request) {
	contestID, err := pathID(r, "contestID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	questionID, err := pathID(r, "questionID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req SetTestCasesRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	question, err := h.contestService.SetTestCases(r.Context(), contestID, questionID, req.TestCases)
	if err != nil {
		writeServiceError(w, h.logger, err, "failed to update test cases")
		return
	}
	writeJSON(w, http.StatusOK, question)
}
