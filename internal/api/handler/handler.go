package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/notify-fanout/internal/service"
	"github.com/d60-Lab/notify-fanout/pkg/response"
)

// Handler 暴露派发、扫描与收件箱接口
type Handler struct {
	svc *service.Services
	now func() time.Time
}

func NewHandler(svc *service.Services) *Handler {
	return &Handler{svc: svc, now: func() time.Time { return time.Now().UTC() }}
}

// Register 挂载全部路由
func (h *Handler) Register(r gin.IRouter) {
	r.GET("/health", h.Health)

	v1 := r.Group("/api/v1")
	{
		v1.POST("/events/:id/dispatch", h.DispatchEvent)

		sweeps := v1.Group("/sweeps")
		sweeps.POST("/fanout", h.RunFanout)
		sweeps.POST("/stale-threads", h.SweepStaleThreads)
		sweeps.POST("/resume-nudges", h.SweepResumeNudges)
		sweeps.POST("/meeting-reminders", h.SweepMeetingReminders)

		v1.POST("/projects/:project_id/resumes/:resume_type/edits", h.RecordResumeEdit)

		users := v1.Group("/users/:user_id", RequireSelf())
		users.GET("/notifications", h.ListNotifications)
		users.POST("/notifications/:id/read", h.MarkNotificationRead)
	}
}

// Health 健康检查
// @Summary 健康检查
// @Tags 系统
// @Produce json
// @Success 200 {object} response.Response
// @Router /health [get]
func (h *Handler) Health(c *gin.Context) {
	hits, misses := h.svc.Directory.Stats()
	response.Success(c, gin.H{"status": "ok", "directory_cache_hits": hits, "directory_cache_misses": misses})
}
