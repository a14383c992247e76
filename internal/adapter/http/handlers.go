package http

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/baylab/nitrogen-dashboard/internal/adapter/chart"
	"github.com/baylab/nitrogen-dashboard/internal/adapter/xlsx"
	"github.com/baylab/nitrogen-dashboard/internal/domain"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const kindUnknownSection = "unknown_section"

type handlers struct {
	svc    DashboardService
	logger *zap.Logger
}

func (h *handlers) scenarios(c *gin.Context) {
	reg := h.svc.Registry()
	c.JSON(http.StatusOK, gin.H{
		"default":   reg.Default().ID,
		"scenarios": reg.Scenarios(),
	})
}

func (h *handlers) lossCategories(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"categories": domain.LossCategories})
}

func (h *handlers) dashboard(c *gin.Context) {
	dash, ok := h.load(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, dash)
}

func (h *handlers) section(c *gin.Context) {
	dash, ok := h.load(c)
	if !ok {
		return
	}
	name := c.Param("section")
	v, found := dash.Section(name)
	if !found {
		c.JSON(http.StatusNotFound, gin.H{
			"error": fmt.Sprintf("unknown section %q", name),
			"kind":  kindUnknownSection,
		})
		return
	}
	c.JSON(http.StatusOK, v)
}

func (h *handlers) exportWorkbook(c *gin.Context) {
	h.render(c, "xlsx", xlsx.ContentType, xlsx.Write)
}

func (h *handlers) lossChart(c *gin.Context) {
	h.render(c, "png", chart.ContentType, chart.LossBars)
}

// render buffers the whole output so a failed render still gets a JSON error.
func (h *handlers) render(c *gin.Context, ext, contentType string, fn func(io.Writer, *domain.Dashboard) error) {
	dash, ok := h.load(c)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := fn(&buf, dash); err != nil {
		h.fail(c, fmt.Errorf("render %s: %w", ext, err))
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="nitrogen-%s.%s"`, dash.Scenario.ID, ext))
	c.Data(http.StatusOK, contentType, buf.Bytes())
}

func (h *handlers) load(c *gin.Context) (*domain.Dashboard, bool) {
	dash, err := h.svc.Dashboard(c.Request.Context(), domain.ScenarioID(c.Param("id")))
	if err != nil {
		h.fail(c, err)
		return nil, false
	}
	return dash, true
}

func (h *handlers) fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed",
			zap.String("path", c.Request.URL.Path),
			zap.String("kind", domain.ErrorKind(err)),
			zap.Error(err))
	}
	c.JSON(status, gin.H{"error": err.Error(), "kind": domain.ErrorKind(err)})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrUnknownScenario):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrDataUnavailable),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
