package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mautops/docflow-gin/internal/auth"
	"github.com/mautops/docflow-gin/internal/service"
)

// DashboardController 仪表盘控制器
type DashboardController struct {
	statsService service.StatisticsService
}

// NewDashboardController 创建仪表盘控制器
func NewDashboardController(statsService service.StatisticsService) *DashboardController {
	return &DashboardController{statsService: statsService}
}

// Stats 仪表盘统计
// @Summary      仪表盘统计
// @Description  返回调用方可见范围内的文档统计:总量、通过/拒绝数、平均审批耗时、状态分布
// @Tags         仪表盘
// @Accept       json
// @Produce      json
// @Success      200  {object}  Response
// @Failure      401  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /dashboard/stats [get]
// @Security     BearerAuth
func (c *DashboardController) Stats(ctx *gin.Context) {
	stats, err := c.statsService.GetDashboardStats(auth.CallerID(ctx), auth.CallerRole(ctx))
	if err != nil {
		Error(ctx, http.StatusInternalServerError, "failed to get dashboard stats", err.Error())
		return
	}

	Success(ctx, stats)
}
