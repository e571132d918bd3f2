package notification

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/spikeup/spikeup-api/internal/middleware"
	"github.com/spikeup/spikeup-api/pkg/responses"
)

// NotificationController serves the read side for the UI; the core only writes.
type NotificationController struct {
	db *gorm.DB
}

func NewNotificationController(db *gorm.DB) *NotificationController {
	return &NotificationController{db: db}
}

// @Summary      List my notifications
// @Description  Returns the authenticated user's notifications, newest first.
// @Tags         Notifications
// @Produce      json
// @Param        page       query  int   false  "Page"
// @Param        page_size  query  int   false  "Page size"
// @Param        unread     query  bool  false  "Only unread"
// @Success      200  {object}  responses.PaginatedResponse
// @Router       /notifications [get]
func (nc *NotificationController) ListMine(c *gin.Context) {
	userID, err := middleware.GetUserIDFromContext(c)
	if err != nil {
		responses.Unauthorized(c, "")
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	query := nc.db.Model(&Notification{}).Where("recipient_id = ?", userID)
	if c.Query("unread") == "true" {
		query = query.Where("read = ?", false)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		responses.InternalServerError(c, "Failed to count notifications")
		return
	}

	var items []Notification
	offset := (page - 1) * pageSize
	if err := query.Order("created_at desc").Offset(offset).Limit(pageSize).Find(&items).Error; err != nil {
		responses.InternalServerError(c, "Failed to load notifications")
		return
	}

	responses.SendPaginated(c, http.StatusOK, "", items, total, page, pageSize)
}

// @Summary      Mark a notification as read
// @Tags         Notifications
// @Produce      json
// @Param        id  path  int  true  "Notification ID"
// @Success      200  {object}  responses.SuccessResponse
// @Failure      404  {object}  responses.ErrorResponse
// @Router       /notifications/{id}/read [post]
func (nc *NotificationController) MarkRead(c *gin.Context) {
	userID, err := middleware.GetUserIDFromContext(c)
	if err != nil {
		responses.Unauthorized(c, "")
		return
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		responses.BadRequest(c, "Invalid notification ID")
		return
	}

	res := nc.db.Model(&Notification{}).
		Where("id = ? AND recipient_id = ?", id, userID).
		Update("read", true)
	if res.Error != nil {
		responses.InternalServerError(c, "Failed to update notification")
		return
	}
	if res.RowsAffected == 0 {
		responses.NotFound(c, "Notification")
		return
	}

	responses.SendSuccess(c, http.StatusOK, "Notification marked as read", nil)
}
