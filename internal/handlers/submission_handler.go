package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/leonthanh/listening-service/internal/services"
	"github.com/leonthanh/listening-service/internal/session"
	"github.com/leonthanh/listening-service/internal/utils"
)

type SubmissionHandler struct {
	BaseHandler
	attemptService services.AttemptService
}

func NewSubmissionHandler(attemptService services.AttemptService, logger utils.Logger) *SubmissionHandler {
	return &SubmissionHandler{
		BaseHandler:    NewBaseHandler(logger),
		attemptService: attemptService,
	}
}

// UserRef identifies the student in a request body. Clients send either a
// bare id string or an object with name/student number details.
type UserRef struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	StudentID string `json:"studentId"`
}

func (u *UserRef) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" || trimmed == "null" {
		return nil
	}
	if trimmed[0] == '"' {
		var id string
		if err := json.Unmarshal(data, &id); err != nil {
			return err
		}
		u.ID = id
		return nil
	}
	type alias UserRef
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*u = UserRef(a)
	return nil
}

type autosaveBody struct {
	SubmissionID int64         `json:"submissionId"`
	Answers      session.State `json:"answers"`
	ExpiresAt    int64         `json:"expiresAt"`
	User         UserRef       `json:"user"`
	StudentName  string        `json:"studentName"`
	StudentID    string        `json:"studentId"`
}

type submitBody struct {
	SubmissionID  int64         `json:"submissionId"`
	Answers       session.State `json:"answers"`
	User          UserRef       `json:"user"`
	StudentName   string        `json:"studentName"`
	StudentID     string        `json:"studentId"`
	AutoSubmitted bool          `json:"autoSubmitted"`
}

type cleanupBody struct {
	User UserRef `json:"user"`
}

// Autosave upserts the unfinished submission for a test.
func (h *SubmissionHandler) Autosave(c *gin.Context) {
	testID := h.parseIDParam(c, "id")
	if testID == 0 {
		return
	}

	var body autosaveBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	res, err := h.attemptService.Autosave(c.Request.Context(), &services.AutosaveRequest{
		TestID:       testID,
		SubmissionID: body.SubmissionID,
		UserID:       h.requestUserID(c, body.User.ID),
		StudentName:  firstNonEmpty(body.StudentName, body.User.Name),
		StudentID:    firstNonEmpty(body.StudentID, body.User.StudentID),
		Answers:      body.Answers,
		ExpiresAt:    body.ExpiresAt,
	})
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"submissionId": res.SubmissionID,
		"savedAt":      res.SavedAt,
	})
}

// Active returns the resumable unfinished submission, or null.
func (h *SubmissionHandler) Active(c *gin.Context) {
	testID := h.parseIDParam(c, "id")
	if testID == 0 {
		return
	}

	var submissionID int64
	if raw := c.Query("submissionId"); raw != "" {
		if parsed, err := strconv.ParseInt(raw, 10, 64); err == nil {
			submissionID = parsed
		}
	}
	userID := h.requestUserID(c, c.Query("userId"))

	sub, err := h.attemptService.Active(c.Request.Context(), testID, submissionID, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	if sub == nil {
		c.JSON(http.StatusOK, gin.H{"submission": nil})
		return
	}

	c.JSON(http.StatusOK, gin.H{"submission": gin.H{
		"id":        sub.ID,
		"answers":   sub.Answers,
		"expiresAt": sub.ExpiresAt,
		"finished":  sub.Finished,
	}})
}

// Submit grades and finalizes an attempt.
func (h *SubmissionHandler) Submit(c *gin.Context) {
	testID := h.parseIDParam(c, "id")
	if testID == 0 {
		return
	}

	var body submitBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	sub, err := h.attemptService.Submit(c.Request.Context(), &services.SubmitRequest{
		TestID:        testID,
		SubmissionID:  body.SubmissionID,
		UserID:        h.requestUserID(c, body.User.ID),
		StudentName:   firstNonEmpty(body.StudentName, body.User.Name),
		StudentID:     firstNonEmpty(body.StudentID, body.User.StudentID),
		Answers:       body.Answers,
		AutoSubmitted: body.AutoSubmitted,
	})
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"submissionId":   sub.ID,
		"totalQuestions": sub.TotalQuestions,
		"correct":        sub.Correct,
		"percentage":     sub.Percentage,
		"band":           sub.Band,
	})
}

// GetSubmission returns the authoritative post-submit detail: the submission
// plus its test document.
func (h *SubmissionHandler) GetSubmission(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	detail, err := h.attemptService.GetSubmission(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"submission": detail.Submission,
		"test":       detail.Test,
	})
}

// Cleanup removes leftover unfinished autosave rows for a test. Best-effort
// from the client's point of view; the response carries the deleted count.
func (h *SubmissionHandler) Cleanup(c *gin.Context) {
	testID := h.parseIDParam(c, "id")
	if testID == 0 {
		return
	}

	var body cleanupBody
	// A sendBeacon-style call may carry no body at all.
	_ = c.ShouldBindJSON(&body)

	result, err := h.attemptService.Cleanup(c.Request.Context(), testID, h.requestUserID(c, body.User.ID))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": result.Deleted})
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
