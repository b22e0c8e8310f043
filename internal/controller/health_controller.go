package controller

import (
	"net/http"

	"quizbot_backend/internal/util"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type HealthController struct {
	DB *gorm.DB
}

func NewHealthController(db *gorm.DB) *HealthController {
	return &HealthController{DB: db}
}

// Check GET /api/health
func (ctl *HealthController) Check(c *gin.Context) {
	sqlDB, err := ctl.DB.DB()
	if err != nil {
		util.Error(c, http.StatusServiceUnavailable, "database unavailable")
		return
	}
	if err := sqlDB.Ping(); err != nil {
		util.Error(c, http.StatusServiceUnavailable, "database unavailable")
		return
	}
	util.Success(c, gin.H{"status": "ok"})
}
