package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/notify-fanout/internal/model"
	"github.com/d60-Lab/notify-fanout/internal/service"
	"github.com/d60-Lab/notify-fanout/pkg/response"
)

// DispatchEvent 立即派发单个领域事件
// @Summary 派发领域事件
// @Description 幂等：重复派发同一事件不会产生重复通知
// @Tags 派发
// @Produce json
// @Param id path int true "事件ID"
// @Success 200 {object} response.Response{data=service.Result}
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /api/v1/events/{id}/dispatch [post]
func (h *Handler) DispatchEvent(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.BadRequest(c, "invalid event id")
		return
	}
	res, err := h.svc.Dispatcher.Dispatch(c.Request.Context(), id)
	if errors.Is(err, service.ErrEventNotFound) {
		response.NotFound(c, err.Error())
		return
	}
	if err != nil {
		response.InternalError(c, err)
		return
	}
	if res.Status == service.StatusFailed {
		response.InternalError(c, res.Err)
		return
	}
	response.Success(c, res)
}

// RunFanout 执行一轮 fan-out
// @Summary 处理待派发事件
// @Tags 扫描
// @Produce json
// @Success 200 {object} response.Response{data=service.FanoutSummary}
// @Failure 500 {object} response.Response
// @Router /api/v1/sweeps/fanout [post]
func (h *Handler) RunFanout(c *gin.Context) {
	sum, err := h.svc.Fanout.RunOnce(c.Request.Context())
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Success(c, sum)
}

// SweepStaleThreads 未读线程提醒
// @Summary 扫描长时间未读的聊天线程
// @Tags 扫描
// @Produce json
// @Success 200 {object} response.Response{data=service.StaleSummary}
// @Failure 500 {object} response.Response
// @Router /api/v1/sweeps/stale-threads [post]
func (h *Handler) SweepStaleThreads(c *gin.Context) {
	sum, err := h.svc.StaleThreads.Sweep(c.Request.Context(), h.now())
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Success(c, sum)
}

// SweepResumeNudges 简历完成度提醒
// @Summary 扫描未完成的简历并按档位提醒
// @Tags 扫描
// @Produce json
// @Success 200 {object} response.Response{data=service.NudgeSummary}
// @Failure 500 {object} response.Response
// @Router /api/v1/sweeps/resume-nudges [post]
func (h *Handler) SweepResumeNudges(c *gin.Context) {
	sum, err := h.svc.ResumeNudges.Sweep(c.Request.Context(), h.now())
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Success(c, sum)
}

// SweepMeetingReminders 会议开始前提醒
// @Summary 扫描即将开始的会议
// @Tags 扫描
// @Produce json
// @Success 200 {object} response.Response{data=service.ReminderSummary}
// @Failure 500 {object} response.Response
// @Router /api/v1/sweeps/meeting-reminders [post]
func (h *Handler) SweepMeetingReminders(c *gin.Context) {
	sum, err := h.svc.MeetingReminders.Sweep(c.Request.Context(), h.now())
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Success(c, sum)
}

type resumeEditRequest struct {
	UserID string `json:"user_id" binding:"required"`
	Step   string `json:"step"`
}

// RecordResumeEdit 记录一次简历编辑
// @Summary 记录简历编辑（重置提醒档位）
// @Tags 简历
// @Accept json
// @Produce json
// @Param project_id path string true "项目ID"
// @Param resume_type path string true "简历类型" Enums(project, borrower)
// @Param request body resumeEditRequest true "编辑信息"
// @Success 200 {object} response.Response{data=map[string]interface{}}
// @Failure 400 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /api/v1/projects/{project_id}/resumes/{resume_type}/edits [post]
func (h *Handler) RecordResumeEdit(c *gin.Context) {
	rt := model.ResumeType(c.Param("resume_type"))
	if rt != model.ResumeProject && rt != model.ResumeBorrower {
		response.BadRequest(c, "resume_type must be project or borrower")
		return
	}
	var req resumeEditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	reset, err := h.svc.ResumeNudges.RecordResumeEdit(c.Request.Context(), c.Param("project_id"), req.UserID, rt, req.Step, h.now())
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Success(c, gin.H{"nudges_reset": reset})
}
