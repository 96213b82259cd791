package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// StatsProvider reports live connection counts.
type StatsProvider interface {
	GetStats() map[string]int
}

type HealthController struct {
	db  *gorm.DB
	hub StatsProvider
}

func NewHealthController(db *gorm.DB, hub StatsProvider) *HealthController {
	return &HealthController{db: db, hub: hub}
}

// Check serves GET /health and GET /ping.
func (hc *HealthController) Check(c *gin.Context) {
	response := gin.H{
		"status":    "ok",
		"message":   "Service is healthy",
		"timestamp": time.Now().Unix(),
		"db":        "ok",
	}
	if hc.hub != nil {
		response["websocket"] = gin.H{"enabled": true, "stats": hc.hub.GetStats()}
	}

	sqlDB, err := hc.db.DB()
	if err != nil {
		response["db"] = "error: cannot get DB instance"
		response["status"] = "degraded"
		c.JSON(http.StatusInternalServerError, response)
		return
	}
	if err := sqlDB.PingContext(c.Request.Context()); err != nil {
		response["db"] = "error: cannot connect to DB"
		response["status"] = "degraded"
		c.JSON(http.StatusInternalServerError, response)
		return
	}
	c.JSON(http.StatusOK, response)
}
