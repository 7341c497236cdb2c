package controller

import (
	"errors"
	"net/http"

	"github.com/CADMP2025/therabrakeacademy-sub000/internal/model"
	"github.com/CADMP2025/therabrakeacademy-sub000/internal/service"
	"github.com/CADMP2025/therabrakeacademy-sub000/internal/util"

	"github.com/gin-gonic/gin"
)

type DeliveryController struct {
	Delivery *service.DeliveryService
	Quizzes  *service.QuizService
	Attempts service.AttemptStore
}

func NewDeliveryController(delivery *service.DeliveryService, quizzes *service.QuizService, attempts service.AttemptStore) *DeliveryController {
	return &DeliveryController{Delivery: delivery, Quizzes: quizzes, Attempts: attempts}
}

// @Summary Start a delivery session
// @Tags Quiz delivery
// @Produce json
// @Security BearerAuth
// @Param id path string true "Quiz ID"
// @Success 201 {object} util.Response
// @Router /api/quizzes/{id}/sessions [post]
func (c *DeliveryController) StartSession(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	quiz, err := c.Quizzes.GetQuiz(ctx.Param("id"))
	if err != nil {
		respondDeliveryError(ctx, err)
		return
	}

	session, err := c.Delivery.Start(ctx.Request.Context(), quiz, claims.UserID)
	if err != nil {
		respondDeliveryError(ctx, err)
		return
	}

	util.Created(ctx, session.View())
}

// @Summary Get the current session state
// @Tags Quiz delivery
// @Produce json
// @Security BearerAuth
// @Param id path string true "Session ID"
// @Success 200 {object} util.Response
// @Router /api/sessions/{id} [get]
func (c *DeliveryController) GetSession(ctx *gin.Context) {
	session, err := c.ownedSession(ctx)
	if err != nil {
		respondDeliveryError(ctx, err)
		return
	}
	util.Success(ctx, session.View())
}

type answerRequest struct {
	QuestionID string   `json:"questionId" binding:"required"`
	Values     []string `json:"values"`
}

// @Summary Record an answer
// @Tags Quiz delivery
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Session ID"
// @Param body body controller.answerRequest true "Answer values"
// @Success 200 {object} util.Response
// @Router /api/sessions/{id}/answer [put]
func (c *DeliveryController) Answer(ctx *gin.Context) {
	session, err := c.ownedSession(ctx)
	if err != nil {
		respondDeliveryError(ctx, err)
		return
	}

	var req answerRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	if err := session.Answer(req.QuestionID, req.Values); err != nil {
		respondDeliveryError(ctx, err)
		return
	}

	util.Success(ctx, session.View())
}

// @Summary Toggle the review flag on the current question
// @Tags Quiz delivery
// @Produce json
// @Security BearerAuth
// @Param id path string true "Session ID"
// @Success 200 {object} util.Response
// @Router /api/sessions/{id}/flag [post]
func (c *DeliveryController) ToggleFlag(ctx *gin.Context) {
	session, err := c.ownedSession(ctx)
	if err != nil {
		respondDeliveryError(ctx, err)
		return
	}

	if err := session.ToggleFlag(); err != nil {
		respondDeliveryError(ctx, err)
		return
	}

	util.Success(ctx, session.View())
}

type gotoRequest struct {
	Index *int `json:"index" binding:"required"`
}

// @Summary Navigate to a question
// @Tags Quiz delivery
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Session ID"
// @Param body body controller.gotoRequest true "Target index"
// @Success 200 {object} util.Response
// @Router /api/sessions/{id}/goto [post]
func (c *DeliveryController) GoTo(ctx *gin.Context) {
	session, err := c.ownedSession(ctx)
	if err != nil {
		respondDeliveryError(ctx, err)
		return
	}

	var req gotoRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	if err := session.GoTo(*req.Index); err != nil {
		respondDeliveryError(ctx, err)
		return
	}

	util.Success(ctx, session.View())
}

// @Summary Submit the session for scoring
// @Tags Quiz delivery
// @Produce json
// @Security BearerAuth
// @Param id path string true "Session ID"
// @Success 200 {object} util.Response
// @Router /api/sessions/{id}/submit [post]
func (c *DeliveryController) Submit(ctx *gin.Context) {
	session, err := c.ownedSession(ctx)
	if err != nil {
		respondDeliveryError(ctx, err)
		return
	}

	attempt, err := c.Delivery.Submit(ctx.Request.Context(), session.ID)
	if err != nil {
		respondDeliveryError(ctx, err)
		return
	}

	util.Success(ctx, attempt)
}

// @Summary Abandon the session without scoring
// @Tags Quiz delivery
// @Produce json
// @Security BearerAuth
// @Param id path string true "Session ID"
// @Success 200 {object} util.Response
// @Router /api/sessions/{id}/abandon [post]
func (c *DeliveryController) Abandon(ctx *gin.Context) {
	session, err := c.ownedSession(ctx)
	if err != nil {
		respondDeliveryError(ctx, err)
		return
	}

	if err := c.Delivery.Abandon(session.ID); err != nil {
		respondDeliveryError(ctx, err)
		return
	}

	util.Success(ctx, nil)
}

// @Summary List the caller's attempts for a quiz
// @Tags Quiz delivery
// @Produce json
// @Security BearerAuth
// @Param id path string true "Quiz ID"
// @Success 200 {object} util.Response
// @Router /api/quizzes/{id}/attempts [get]
func (c *DeliveryController) ListMyAttempts(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	attempts, err := c.Attempts.ListAttempts(ctx.Param("id"), claims.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, attempts)
}

// ownedSession resolves the session and checks it belongs to the caller.
func (c *DeliveryController) ownedSession(ctx *gin.Context) (*service.DeliverySession, error) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		return nil, util.ErrPermissionDenied
	}

	session, err := c.Delivery.Session(ctx.Param("id"))
	if err != nil {
		return nil, err
	}
	if session.UserID != claims.UserID {
		return nil, util.ErrPermissionDenied
	}
	return session, nil
}

func respondDeliveryError(ctx *gin.Context, err error) {
	var verrs model.ValidationErrors
	switch {
	case errors.As(err, &verrs):
		util.ValidationFailed(ctx, verrs)
	case errors.Is(err, util.ErrQuizNotFound),
		errors.Is(err, util.ErrSessionNotFound),
		errors.Is(err, util.ErrAttemptNotFound):
		util.NotFound(ctx)
	case errors.Is(err, util.ErrPermissionDenied):
		util.Forbidden(ctx)
	case errors.Is(err, util.ErrQuizNotActive),
		errors.Is(err, util.ErrMaxAttemptsUsed),
		errors.Is(err, util.ErrSessionNotOpen),
		errors.Is(err, util.ErrSessionSubmitted):
		util.Error(ctx, http.StatusConflict, err.Error())
	case errors.Is(err, util.ErrUnknownQuestion),
		errors.Is(err, util.ErrIndexOutOfRange):
		util.BadRequest(ctx, err.Error())
	case errors.Is(err, util.ErrSubmissionFailed):
		util.Error(ctx, http.StatusBadGateway, "submission could not be persisted, answers preserved")
	default:
		util.LogInternalError(ctx, err)
	}
}
