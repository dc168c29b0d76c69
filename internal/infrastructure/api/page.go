package api

import (
	"html/template"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/irwan019/GrkApp/internal/application"
	"github.com/irwan019/GrkApp/internal/domain/entities"
)

var templateFuncs = template.FuncMap{
	"value": func(v float64) string {
		if math.IsNaN(v) {
			return "-"
		}
		return strconv.FormatFloat(v, 'f', 1, 64)
	},
	"stamp": func(t time.Time) string { return t.Format("2006-01-02 15:04") },
	"clock": func(t time.Time) string { return t.Format("15:04:05") },
	"date": func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.Format(entities.DateLayout)
	},
}

type pageData struct {
	BasePath  string
	Views     []entities.View
	Locations []entities.Location
	State     entities.ViewState
	Snapshot  *entities.Snapshot
	About     *application.AboutInfo
	Error     string
	MinDate   string
	MaxDate   string
}

// Page renders the HTML dashboard. Query parameters, when present, switch
// the view first, exactly like PUT /view.
func (h *APIHandler) Page(c *gin.Context) {
	data := pageData{
		BasePath:  c.GetString(basePathKey),
		Views:     []entities.View{entities.ViewRealtime, entities.ViewForecast, entities.ViewPeriod, entities.ViewAbout},
		Locations: h.catalog.All(),
	}

	var req ViewRequest
	if err := c.ShouldBindQuery(&req); err == nil && req.View != "" {
		state, err := req.state(h.now(), h.zone)
		if err == nil {
			_, err = h.dashboard.SetView(c.Request.Context(), state)
		}
		if err != nil {
			data.Error = err.Error()
		}
	}

	data.State = h.dashboard.State()
	data.Snapshot = h.dashboard.Snapshot()
	if data.State.View == entities.ViewAbout {
		about := application.About(h.catalog)
		data.About = &about
	}

	today := h.now().In(h.zone)
	data.MaxDate = today.Format(entities.DateLayout)
	data.MinDate = today.AddDate(0, 0, -h.maxDays).Format(entities.DateLayout)

	status := http.StatusOK
	if data.Error != "" {
		status = http.StatusBadRequest
	}
	c.HTML(status, "dashboard.html", data)
}

const basePathKey = "base_path"

// BasePath exposes the API prefix to the page so its links follow config.
func BasePath(path string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(basePathKey, path)
		c.Next()
	}
}
