package ghmock

import (
	"fmt"
	"html"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

func (s *Server) dashboard(c *gin.Context) {
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.String(http.StatusOK, s.renderDashboard())
}

func (s *Server) renderDashboard() string {
	repos := s.store.listRepos()

	var rows strings.Builder
	for _, r := range repos {
		visibility := "Public"
		if r.Private {
			visibility = "Private"
		}
		paths := s.store.paths(r.Owner, r.Name)
		var files strings.Builder
		for _, p := range paths {
			files.WriteString(fmt.Sprintf(`<div><code style="color:#79c0ff;">%s</code></div>`, html.EscapeString(p)))
		}
		rows.WriteString(fmt.Sprintf(`
        <tr>
          <td style="padding:12px 16px;border-bottom:1px solid #21262d;vertical-align:top;">%s/%s</td>
          <td style="padding:12px 16px;border-bottom:1px solid #21262d;vertical-align:top;color:#8b949e;">%s</td>
          <td style="padding:12px 16px;border-bottom:1px solid #21262d;font-size:12px;">%s</td>
        </tr>`, html.EscapeString(r.Owner), html.EscapeString(r.Name), visibility, files.String()))
	}

	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
  <title>Mock GitHub</title>
  <style>
    * { margin:0; padding:0; box-sizing:border-box; }
    body { background:#0d1117; color:#c9d1d9; font-family:-apple-system,BlinkMacSystemFont,"Segoe UI",Helvetica,Arial,sans-serif; }
  </style>
</head>
<body>
  <div style="max-width:860px;margin:0 auto;padding:32px 16px;">
    <div style="display:flex;align-items:center;justify-content:space-between;margin-bottom:24px;">
      <h1 style="font-size:20px;font-weight:600;">Repositories</h1>
      <span style="font-size:13px;color:#8b949e;">%d created</span>
    </div>
    <table style="width:100%%;border-collapse:collapse;background:#161b22;border:1px solid #30363d;border-radius:6px;overflow:hidden;">
      <thead>
        <tr>
          <th style="padding:12px 16px;text-align:left;font-size:12px;color:#8b949e;border-bottom:1px solid #21262d;font-weight:500;">Repository</th>
          <th style="padding:12px 16px;text-align:left;font-size:12px;color:#8b949e;border-bottom:1px solid #21262d;font-weight:500;">Visibility</th>
          <th style="padding:12px 16px;text-align:left;font-size:12px;color:#8b949e;border-bottom:1px solid #21262d;font-weight:500;">Files</th>
        </tr>
      </thead>
      <tbody>%s</tbody>
    </table>
  </div>
</body>
</html>`, len(repos), rows.String())
}
