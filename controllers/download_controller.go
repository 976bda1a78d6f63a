package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rakeshsingh12700/dearstudent62-storefront/services"
)

// DownloadController exchanges download tokens for file URLs.
type DownloadController struct {
	downloads services.DownloadService
}

// NewDownloadController creates a new DownloadController.
func NewDownloadController(downloads services.DownloadService) *DownloadController {
	return &DownloadController{downloads: downloads}
}

// Redeem handles GET /downloads/:token. It redirects to the file unless
// format=json is requested.
func (dc *DownloadController) Redeem(ctx *gin.Context) {
	link, svcErr := dc.downloads.Redeem(ctx.Request.Context(), ctx.Param("token"))
	if svcErr != nil {
		respondError(ctx, svcErr)
		return
	}

	if ctx.Query("format") == "json" {
		ctx.JSON(http.StatusOK, gin.H{"ok": true, "download": link})
		return
	}
	ctx.Redirect(http.StatusFound, link.URL)
}
