package handlers

import (
	"net/http"

	"github.com/jjudge-oj/grader/internal/services"
	"go.uber.org/zap"
)

// SubmissionHandler provides HTTP handlers for submitting and running code.
type SubmissionHandler struct {
	submissionService *services.SubmissionService
	logger            *zap.Logger
}

func NewSubmissionHandler(submissionService *services.SubmissionService, logger *zap.Logger) *SubmissionHandler {
	return &SubmissionHandler{submissionService: submissionService, logger: logger}
}

type SubmitRequest struct {
	Code     string `json:"code"`
	Language string `json:"language"`
}

type RunRequest struct {
	Code       string `json:"code"`
	Language   string `json:"language"`
	Input      string `json:"input"`
	ContestID  int64  `json:"contest_id,omitempty"`
	QuestionID int64  `json:"question_id,omitempty"`
}

// Submit handles POST /contests/{contestID}/questions/{questionID}/submissions.
// Grading is synchronous; the response carries the final verdict.
func (h *SubmissionHandler) Submit(w http.ResponseWriter, r *http.Request) {
	viewer, ok := viewerFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
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
	var req SubmitRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	submission, err := h.submissionService.Submit(r.Context(), services.SubmitInput{
		ContestID:  contestID,
		QuestionID: questionID,
		Code:       req.Code,
		Language:   req.Language,
		Viewer:     viewer,
	})
	if err != nil {
		writeServiceError(w, h.logger, err, "failed to submit")
		return
	}
	writeJSON(w, http.StatusCreated, submission)
}

// ListMine handles GET /contests/{contestID}/submissions/me.
func (h *SubmissionHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	viewer, ok := viewerFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	contestID, err := pathID(r, "contestID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	submissions, err := h.submissionService.ListForUser(r.Context(), contestID, viewer)
	if err != nil {
		writeServiceError(w, h.logger, err, "failed to list submissions")
		return
	}
	writeJSON(w, http.StatusOK, submissions)
}

// GetSubmission handles GET /submissions/{submissionID}.
func (h *SubmissionHandler) GetSubmission(w http.ResponseWriter, r *http.Request) {
	viewer, ok := viewerFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	submissionID, err := pathID(r, "submissionID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	submission, err := h.submissionService.Get(r.Context(), submissionID, viewer)
	if err != nil {
		writeServiceError(w, h.logger, err, "failed to load submission")
		return
	}
	writeJSON(w, http.StatusOK, submission)
}

// Run handles POST /run.
func (h *SubmissionHandler) Run(w http.ResponseWriter, r *http.Request) {
	var req RunRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if (req.ContestID == 0) != (req.QuestionID == 0) {
		writeError(w, http.StatusBadRequest, "contest_id and question_id must be given together")
		return
	}

	result, err := h.submissionService.Run(r.Context(), services.RunInput{
		Code:       req.Code,
		Language:   req.Language,
		Input:      req.Input,
		ContestID:  req.ContestID,
		QuestionID: req.QuestionID,
	})
	if err != nil {
		writeServiceError(w, h.logger, err, "failed to run code")
		return
	}
	writeJSON(w, http.StatusOK, result)
}
