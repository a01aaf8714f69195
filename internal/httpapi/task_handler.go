package httpapi

import (
	"io"
	"net/http"
	"strconv"

	"mahalla-taskboard/pkg/errutil"
	"mahalla-taskboard/pkg/rediskey"
	"mahalla-taskboard/services/stats"
	"mahalla-taskboard/services/task"

	"github.com/gin-gonic/gin"
)

func (h *Handler) createTask(c *gin.Context) {
	var req task.CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errutil.BadRequest("invalid request body", err))
		return
	}

	created, err := h.tasks.CreateTask(c.Request.Context(), req)
	if err != nil {
		c.Error(err)
		return
	}

	h.invalidateStats()

	c.JSON(http.StatusCreated, created)
}

func (h *Handler) listTasks(c *gin.Context) {
	filters := task.ListFilters{
		UserID:     c.Query("user_id"),
		MahallaID:  c.Query("mahalla_id"),
		DistrictID: c.Query("district_id"),
		Status:     c.Query("status"),
	}

	if raw := c.Query("telegram_id"); raw != "" {
		telegramID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.Error(errutil.BadRequest("telegram_id must be an integer", err))
			return
		}
		filters.TelegramID = &telegramID
	}

	views, err := h.tasks.ListTasks(c.Request.Context(), filters)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"tasks": views})
}

func (h *Handler) getTask(c *gin.Context) {
	taskID := c.Param("id")

	view, err := h.cache.GetOrLoad(rediskey.BuildTaskKey(taskID), func() (any, error) {
		return h.tasks.GetTask(c.Request.Context(), taskID)
	})
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, view)
}

type appendStatusBody struct {
	ActorID string `json:"actor_id"`
	Status  string `json:"status"`
	Reason  string `json:"rejection_reason"`
}

func (h *Handler) appendStatus(c *gin.Context) {
	var body appendStatusBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.Error(errutil.BadRequest("invalid request body", err))
		return
	}

	event, err := h.tasks.AppendStatus(c.Request.Context(), task.AppendStatusRequest{
		TaskID:  c.Param("id"),
		ActorID: body.ActorID,
		Status:  task.Status(body.Status),
		Reason:  body.Reason,
	})
	if err != nil {
		c.Error(err)
		return
	}

	h.invalidateTask(c.Param("id"))

	c.JSON(http.StatusCreated, event)
}

func (h *Handler) submitReport(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		c.Error(errutil.BadRequest("invalid multipart form", err))
		return
	}

	req := task.SubmitReportRequest{
		TaskID:  c.Param("id"),
		ActorID: c.PostForm("actor_id"),
		Comment: c.PostForm("comment"),
	}

	for _, header := range form.File["files"] {
		f, err := header.Open()
		if err != nil {
			c.Error(errutil.BadRequest("failed to read uploaded file", err))
			return
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			c.Error(errutil.BadRequest("failed to read uploaded file", err))
			return
		}

		req.Files = append(req.Files, task.FileUpload{
			Name:        header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Data:        data,
		})
	}

	submission, err := h.tasks.SubmitReport(c.Request.Context(), req)
	if err != nil {
		c.Error(err)
		return
	}

	h.invalidateTask(c.Param("id"))

	c.JSON(http.StatusCreated, submission)
}

type gradeBody struct {
	Percentage int    `json:"percentage"`
	AdminID    string `json:"admin_id"`
}

func (h *Handler) gradeTask(c *gin.Context) {
	var body gradeBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.Error(errutil.BadRequest("invalid request body", err))
		return
	}

	grade, err := h.tasks.GradeTask(c.Request.Context(), task.GradeRequest{
		TaskID:     c.Param("id"),
		Percentage: body.Percentage,
		AdminID:    body.AdminID,
	})
	if err != nil {
		c.Error(err)
		return
	}

	h.invalidateTask(c.Param("id"))

	c.JSON(http.StatusCreated, grade)
}

func (h *Handler) getTaskStats(c *gin.Context) {
	taskStats, err := h.tasks.GetTaskStats(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, taskStats)
}

// invalidateTask drops the cached task view and the statistics views, which
// all derive from task state.
func (h *Handler) invalidateTask(taskID string) {
	h.cache.Delete(rediskey.BuildTaskKey(taskID))
	h.invalidateStats()
}

func (h *Handler) invalidateStats() {
	for _, period := range []stats.Period{stats.PeriodDaily, stats.PeriodMonthly, stats.PeriodAll} {
		h.cache.Delete(rediskey.BuildStatsKey(period.String()))
	}
}
