package server

import (
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"strings"

	usagedomain "github.com/bundlewatch/bundlewatch/internal/usage/domain"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

//go:embed templates/*.html
var templateFS embed.FS

var dashboardTmpl = template.Must(template.ParseFS(templateFS, "templates/dashboard.html"))

type dashboardData struct {
	Stats   usagedomain.StatsResponse
	Records []usagedomain.UsageRecord
	Chart   template.HTML
}

// Dashboard renders the HTML overview: current stats, recent records
// and the balance-over-time chart.
func (s *Server) Dashboard(c *gin.Context) {
	ctx := c.Request.Context()

	stats, err := s.usagesvc.Stats(ctx)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	records, err := s.usagesvc.Latest(ctx, usagedomain.ListRequest{Limit: 10})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	history, err := s.usagesvc.History(ctx, usagedomain.HistoryRequest{Days: 7})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	data := dashboardData{
		Stats:   stats,
		Records: records,
		Chart:   template.HTML(balanceChartSVG(history)),
	}

	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(http.StatusOK)
	if err := dashboardTmpl.Execute(c.Writer, data); err != nil {
		s.log.Error("dashboard render failed", zap.Error(err))
	}
}

// balanceChartSVG draws the remaining balance over time as an inline
// SVG polyline. Records must be in ascending collection order.
func balanceChartSVG(records []usagedomain.UsageRecord) string {
	if len(records) < 2 {
		return `<svg viewBox="0 0 800 400" xmlns="http://www.w3.org/2000/svg"><text x="400" y="200" text-anchor="middle" fill="#6c757d">Need more data points</text></svg>`
	}

	const (
		width   = 800.0
		height  = 400.0
		padding = 60.0
	)
	chartWidth := width - 2*padding
	chartHeight := height - 2*padding

	maxGB := records[0].RemainingBalanceGB
	for _, r := range records {
		if r.RemainingBalanceGB > maxGB {
			maxGB = r.RemainingBalanceGB
		}
	}
	if maxGB <= 0 {
		maxGB = 1
	}

	points := make([]string, len(records))
	for i, r := range records {
		x := padding + (float64(i)/float64(len(records)-1))*chartWidth
		y := padding + chartHeight - (r.RemainingBalanceGB/maxGB)*chartHeight
		points[i] = fmt.Sprintf("%.1f,%.1f", x, y)
	}

	var svg strings.Builder
	svg.WriteString(fmt.Sprintf(`<svg viewBox="0 0 %.0f %.0f" xmlns="http://www.w3.org/2000/svg">`, width, height))
	svg.WriteString(`<rect width="100%" height="100%" fill="#ffffff"/>`)
	svg.WriteString(fmt.Sprintf(`<line x1="%.0f" y1="%.0f" x2="%.0f" y2="%.0f" stroke="#dee2e6" stroke-width="1"/>`, padding, padding, padding, height-padding))
	svg.WriteString(fmt.Sprintf(`<line x1="%.0f" y1="%.0f" x2="%.0f" y2="%.0f" stroke="#dee2e6" stroke-width="1"/>`, padding, height-padding, width-padding, height-padding))
	svg.WriteString(fmt.Sprintf(`<text x="%.0f" y="%.0f" fill="#6c757d" font-size="12">Remaining balance (GB)</text>`, padding, padding-20))
	svg.WriteString(fmt.Sprintf(`<polyline points="%s" fill="none" stroke="#007bff" stroke-width="2"/>`, strings.Join(points, " ")))

	step := len(records) / 5
	if step < 1 {
		step = 1
	}
	for i, r := range records {
		if i%step == 0 || i == len(records)-1 {
			x := padding + (float64(i)/float64(len(records)-1))*chartWidth
			label := r.CollectedAt.Format("01/02")
			svg.WriteString(fmt.Sprintf(`<text x="%.0f" y="%.0f" fill="#6c757d" font-size="10" text-anchor="middle">%s</text>`, x, height-padding+20, label))
		}
	}

	svg.WriteString(`</svg>`)
	return svg.String()
}
