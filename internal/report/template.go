package report

// pageTemplate is the HTML shell around a rendered markdown report.
const pageTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>{{.Title}}</title>
<style>
  :root {
    --bg: #ffffff;
    --text: #1a1a2e;
    --muted: #6b7280;
    --border: #e5e7eb;
    --accent: #2563eb;
    --section-bg: #f8fafc;
  }
  * { margin: 0; padding: 0; box-sizing: border-box; }
  body {
    font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif;
    color: var(--text);
    background: var(--bg);
    line-height: 1.6;
    max-width: 960px;
    margin: 0 auto;
    padding: 20px;
  }
  h1 { font-size: 1.5rem; color: var(--accent); border-bottom: 3px solid var(--accent); padding-bottom: 8px; margin-bottom: 12px; }
  h2 { font-size: 1.2rem; margin: 24px 0 12px; padding-bottom: 6px; border-bottom: 2px solid var(--accent); }
  h3 { font-size: 1rem; margin: 16px 0 8px; }
  p, ul, ol { margin: 6px 0; }
  ul, ol { padding-left: 24px; }
  table { width: 100%; border-collapse: collapse; margin: 8px 0 16px; font-size: 0.9rem; }
  th { background: var(--section-bg); text-align: left; padding: 8px; font-weight: 600; }
  td { padding: 6px 8px; border-bottom: 1px solid var(--border); }
  hr { border: none; border-top: 2px solid var(--border); margin: 24px 0 12px; }
  em { color: var(--muted); font-size: 0.85rem; }

  .charts { display: grid; grid-template-columns: 1fr; gap: 16px; margin: 16px 0; }
  .chart-container { overflow-x: auto; }
  .chart-container svg { max-width: 100%; height: auto; }
  .footer { margin-top: 24px; font-size: 0.8rem; color: var(--muted); text-align: center; }

  @media print {
    body { max-width: 100%; padding: 10px; }
    table, .chart-container { page-break-inside: avoid; }
  }
</style>
</head>
<body>
{{.Body}}
{{if .Charts}}
<div class="charts">
{{range .Charts}}  <div class="chart-container">{{.}}</div>
{{end}}</div>
{{end}}
<div class="footer">Generated {{.Generated}}</div>
</body>
</html>
`
