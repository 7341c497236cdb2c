package controller

import (
	"errors"
	"strconv"

	"github.com/CADMP2025/therabrakeacademy-sub000/internal/model"
	"github.com/CADMP2025/therabrakeacademy-sub000/internal/service"
	"github.com/CADMP2025/therabrakeacademy-sub000/internal/util"

	"github.com/gin-gonic/gin"
)

type QuizController struct {
	Service *service.QuizService
}

func NewQuizController(svc *service.QuizService) *QuizController {
	return &QuizController{Service: svc}
}

// @Summary Create a quiz draft
// @Tags Quiz authoring
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body service.QuizRequest true "Quiz settings"
// @Success 201 {object} util.Response
// @Router /api/instructor/quizzes [post]
func (c *QuizController) CreateQuiz(ctx *gin.Context) {
	var req service.QuizRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	quiz, err := c.Service.CreateQuiz(req)
	if err != nil {
		respondQuizError(ctx, err)
		return
	}

	util.Created(ctx, quiz)
}

// @Summary List quizzes
// @Tags Quiz authoring
// @Produce json
// @Security BearerAuth
// @Param courseId query string false "Course ID"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} util.Response
// @Router /api/instructor/quizzes [get]
func (c *QuizController) ListQuizzes(ctx *gin.Context) {
	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	quizzes, total, err := c.Service.ListQuizzes(ctx.Query("courseId"), page, limit)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, util.PageResponse{
		List:  quizzes,
		Total: total,
		Page:  page,
		Limit: limit,
	})
}

// @Summary Get a quiz with its questions
// @Tags Quiz authoring
// @Produce json
// @Security BearerAuth
// @Param id path string true "Quiz ID"
// @Success 200 {object} util.Response
// @Router /api/instructor/quizzes/{id} [get]
func (c *QuizController) GetQuiz(ctx *gin.Context) {
	quiz, err := c.Service.GetQuiz(ctx.Param("id"))
	if err != nil {
		respondQuizError(ctx, err)
		return
	}
	util.Success(ctx, quiz)
}

// @Summary Update quiz-level settings
// @Tags Quiz authoring
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Quiz ID"
// @Param body body service.QuizRequest true "Quiz settings"
// @Success 200 {object} util.Response
// @Router /api/instructor/quizzes/{id} [put]
func (c *QuizController) UpdateQuiz(ctx *gin.Context) {
	var req service.QuizRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	quiz, err := c.Service.UpdateQuiz(ctx.Param("id"), req)
	if err != nil {
		respondQuizError(ctx, err)
		return
	}

	util.Success(ctx, quiz)
}

// @Summary Delete a quiz
// @Tags Quiz authoring
// @Produce json
// @Security BearerAuth
// @Param id path string true "Quiz ID"
// @Success 200 {object} util.Response
// @Router /api/instructor/quizzes/{id} [delete]
func (c *QuizController) DeleteQuiz(ctx *gin.Context) {
	if err := c.Service.DeleteQuiz(ctx.Param("id")); err != nil {
		respondQuizError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// @Summary Activate a quiz for delivery
// @Tags Quiz authoring
// @Produce json
// @Security BearerAuth
// @Param id path string true "Quiz ID"
// @Success 200 {object} util.Response
// @Router /api/instructor/quizzes/{id}/activate [post]
func (c *QuizController) ActivateQuiz(ctx *gin.Context) {
	quiz, err := c.Service.Activate(ctx.Param("id"))
	if err != nil {
		respondQuizError(ctx, err)
		return
	}
	util.Success(ctx, quiz)
}

// @Summary Deactivate a quiz
// @Tags Quiz authoring
// @Produce json
// @Security BearerAuth
// @Param id path string true "Quiz ID"
// @Success 200 {object} util.Response
// @Router /api/instructor/quizzes/{id}/deactivate [post]
func (c *QuizController) DeactivateQuiz(ctx *gin.Context) {
	quiz, err := c.Service.Deactivate(ctx.Param("id"))
	if err != nil {
		respondQuizError(ctx, err)
		return
	}
	util.Success(ctx, quiz)
}

type addQuestionRequest struct {
	Type model.QuestionType `json:"type" binding:"required"`
}

// @Summary Append a blank question
// @Tags Quiz authoring
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Quiz ID"
// @Param body body controller.addQuestionRequest true "Question type"
// @Success 200 {object} util.Response
// @Router /api/instructor/quizzes/{id}/questions [post]
func (c *QuizController) AddQuestion(ctx *gin.Context) {
	var req addQuestionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	quiz, err := c.Service.AddQuestion(ctx.Param("id"), req.Type)
	if err != nil {
		respondQuizError(ctx, err)
		return
	}

	util.Success(ctx, quiz)
}

// @Summary Update a question in place
// @Tags Quiz authoring
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Quiz ID"
// @Param index path int true "Question index"
// @Param body body service.QuestionUpdate true "Fields to merge"
// @Success 200 {object} util.Response
// @Router /api/instructor/quizzes/{id}/questions/{index} [put]
func (c *QuizController) UpdateQuestion(ctx *gin.Context) {
	index, err := strconv.Atoi(ctx.Param("index"))
	if err != nil {
		util.BadRequest(ctx, "invalid index")
		return
	}

	var upd service.QuestionUpdate
	if err := ctx.ShouldBindJSON(&upd); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	quiz, err := c.Service.UpdateQuestion(ctx.Param("id"), index, upd)
	if err != nil {
		respondQuizError(ctx, err)
		return
	}

	util.Success(ctx, quiz)
}

// @Summary Delete a question
// @Tags Quiz authoring
// @Produce json
// @Security BearerAuth
// @Param id path string true "Quiz ID"
// @Param index path int true "Question index"
// @Success 200 {object} util.Response
// @Router /api/instructor/quizzes/{id}/questions/{index} [delete]
func (c *QuizController) DeleteQuestion(ctx *gin.Context) {
	index, err := strconv.Atoi(ctx.Param("index"))
	if err != nil {
		util.BadRequest(ctx, "invalid index")
		return
	}

	quiz, err := c.Service.DeleteQuestion(ctx.Param("id"), index)
	if err != nil {
		respondQuizError(ctx, err)
		return
	}

	util.Success(ctx, quiz)
}

// @Summary Duplicate a question at the end of the sequence
// @Tags Quiz authoring
// @Produce json
// @Security BearerAuth
// @Param id path string true "Quiz ID"
// @Param index path int true "Question index"
// @Success 200 {object} util.Response
// @Router /api/instructor/quizzes/{id}/questions/{index}/duplicate [post]
func (c *QuizController) DuplicateQuestion(ctx *gin.Context) {
	index, err := strconv.Atoi(ctx.Param("index"))
	if err != nil {
		util.BadRequest(ctx, "invalid index")
		return
	}

	quiz, err := c.Service.DuplicateQuestion(ctx.Param("id"), index)
	if err != nil {
		respondQuizError(ctx, err)
		return
	}

	util.Success(ctx, quiz)
}

type reorderRequest struct {
	From int `json:"from"`
	To   int `json:"to"`
}

// @Summary Move a question to another position
// @Tags Quiz authoring
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Quiz ID"
// @Param body body controller.reorderRequest true "Source and target index"
// @Success 200 {object} util.Response
// @Router /api/instructor/quizzes/{id}/questions/reorder [post]
func (c *QuizController) ReorderQuestion(ctx *gin.Context) {
	var req reorderRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	quiz, err := c.Service.ReorderQuestion(ctx.Param("id"), req.From, req.To)
	if err != nil {
		respondQuizError(ctx, err)
		return
	}

	util.Success(ctx, quiz)
}

type parsePasteRequest struct {
	Text string `json:"text" binding:"required"`
}

// @Summary Parse pasted text into questions
// @Tags Quiz authoring
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Quiz ID"
// @Param body body controller.parsePasteRequest true "Pasted question text"
// @Success 200 {object} util.Response
// @Router /api/instructor/quizzes/{id}/questions/parse [post]
func (c *QuizController) ParseQuestions(ctx *gin.Context) {
	var req parsePasteRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	quiz, err := c.Service.MergeParsedQuestions(ctx.Param("id"), req.Text)
	if err != nil {
		respondQuizError(ctx, err)
		return
	}

	util.Success(ctx, quiz)
}

// respondQuizError maps authoring errors onto the response envelope.
func respondQuizError(ctx *gin.Context, err error) {
	var verrs model.ValidationErrors
	switch {
	case errors.As(err, &verrs):
		util.ValidationFailed(ctx, verrs)
	case errors.Is(err, util.ErrQuizNotFound):
		util.NotFound(ctx)
	case errors.Is(err, util.ErrIndexOutOfRange),
		errors.Is(err, util.ErrInvalidQuestionType):
		util.BadRequest(ctx, err.Error())
	default:
		util.LogInternalError(ctx, err)
	}
}
