package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/notify-fanout/internal/service"
	"github.com/d60-Lab/notify-fanout/pkg/response"
)

// ListNotifications 查询用户站内通知
// @Summary 通知列表（按时间倒序）
// @Tags 收件箱
// @Param X-User-ID header string true "调用者ID（网关注入，须与 user_id 一致）"
// @Param user_id path string true "用户ID"
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页数量" default(20)
// @Success 200 {object} response.Response{data=map[string]interface{}}
// @Failure 500 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /api/v1/users/{user_id}/notifications [get]
func (h *Handler) ListNotifications(c *gin.Context) {
	userID := c.Param("user_id")
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	list, err := h.svc.Inbox.List(c.Request.Context(), userID, page, pageSize)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Success(c, gin.H{"page": page, "page_size": pageSize, "list": list})
}

// MarkNotificationRead 标记已读
// @Summary 标记通知已读
// @Tags 收件箱
// @Param X-User-ID header string true "调用者ID（网关注入，须与 user_id 一致）"
// @Param user_id path string true "用户ID"
// @Param id path string true "通知ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 500 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /api/v1/users/{user_id}/notifications/{id}/read [post]
func (h *Handler) MarkNotificationRead(c *gin.Context) {
	err := h.svc.Inbox.MarkRead(c.Request.Context(), c.Param("user_id"), c.Param("id"))
	if errors.Is(err, service.ErrNotificationNotFound) {
		response.NotFound(c, err.Error())
		return
	}
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Success(c, nil)
}
