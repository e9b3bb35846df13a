package output

const headTmpl = `{{define "head"}}<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>{{.Title}}</title>
<style>
:root { color-scheme: light dark; --fg: #1f2328; --muted: #656d76; --bg: #ffffff; --panel: #f6f8fa; --border: #d0d7de; --link: #0969da; --danger: #cf222e; --add: #1a7f37; --del: #cf222e; }
@media (prefers-color-scheme: dark) { :root { --fg: #e6edf3; --muted: #8d96a0; --bg: #0d1117; --panel: #161b22; --border: #30363d; --link: #4493f8; --danger: #f85149; --add: #3fb950; --del: #f85149; } }
body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Helvetica, Arial, sans-serif; color: var(--fg); background: var(--bg); padding: 20px; margin: 0 auto; max-width: 980px; line-height: 1.6; }
.center { display: flex; flex-direction: column; justify-content: center; align-items: center; min-height: 80vh; text-align: center; }
.spinner { border: 3px solid var(--border); border-top: 3px solid var(--link); border-radius: 50%; width: 40px; height: 40px; animation: spin 1s linear infinite; margin-bottom: 20px; }
@keyframes spin { 0% { transform: rotate(0deg); } 100% { transform: rotate(360deg); } }
.status, .muted { color: var(--muted); font-size: 14px; }
.header { margin-bottom: 24px; padding-bottom: 16px; border-bottom: 2px solid var(--border); }
.title-section { display: flex; align-items: center; gap: 12px; margin-bottom: 12px; }
.title-section h1 { margin: 0; font-size: 28px; font-weight: 600; }
.header-icon { width: 32px; height: 32px; }
.powered-by { margin-left: auto; font-size: 12px; font-style: italic; color: var(--muted); padding: 4px 8px; background: var(--panel); border-radius: 12px; }
.info { display: flex; flex-wrap: wrap; gap: 20px; font-size: 13px; color: var(--muted); }
.notice { border-left: 4px solid var(--border); padding: 4px 12px; color: var(--muted); margin: 12px 0; }
.response-container h1, .response-container h2 { border-bottom: 1px solid var(--border); padding-bottom: 6px; }
.response-container code { background: var(--panel); padding: 2px 5px; border-radius: 4px; font-size: 90%; }
.response-container pre, pre.view { background: var(--panel); padding: 12px; border-radius: 6px; overflow-x: auto; }
.response-container pre code { background: none; padding: 0; }
code.file-ref { cursor: pointer; text-decoration: underline; color: var(--link); }
a.diff-ref { font-size: 11px; margin-left: 4px; color: var(--muted); cursor: pointer; }
.actions { margin-top: 24px; }
button { background: var(--link); color: #fff; border: none; padding: 8px 16px; border-radius: 6px; cursor: pointer; font-size: 14px; }
.error-icon { font-size: 48px; }
.error-message { color: var(--danger); background: var(--panel); padding: 12px 16px; border-radius: 6px; white-space: pre-wrap; text-align: left; max-width: 760px; }
.line-add { color: var(--add); } .line-del { color: var(--del); } .line-hunk { color: var(--link); } .line-meta { color: var(--muted); }
</style>
</head>
{{end}}`

const hostScriptTmpl = `{{define "host"}}{{if .Interactive}}
<script>
function post(msg) {
	return fetch('/api/message', {method: 'POST', headers: {'Content-Type': 'application/json'}, body: JSON.stringify(msg)})
		.then(function (r) { return r.json(); })
		.then(function (d) { if (d.url) { window.location.href = d.url; } else if (d.reload) { window.location.reload(); } })
		.catch(function () {});
}
function refresh() { post({command: 'refresh'}); }
function watchState(current, pending) {
	setInterval(function () {
		fetch('/api/state').then(function (r) { return r.json(); }).then(function (s) {
			if (pending ? s.state !== 'loading' : (s.state === 'loading' || s.id !== current)) { window.location.reload(); }
		}).catch(function () {});
	}, 1000);
}
</script>
{{end}}{{end}}`

const loadingTmpl = `{{define "loading"}}{{template "head" .}}
<body>
<div class="center">
	<div class="spinner"></div>
	<h2>Analyzing {{.Source}} with {{.Tool}}...</h2>
	<p class="status">Please wait while {{.Tool}} analyzes your git changes</p>
</div>
{{template "host" .}}{{if .Interactive}}<script>watchState('', true);</script>{{end}}
</body>
</html>
{{end}}`

const idleTmpl = `{{define "idle"}}{{template "head" .}}
<body>
<div class="center">
	<h2>No analysis yet</h2>
	<p class="status">Analyze the working tree changes of {{.Root}}</p>
	{{if .Interactive}}<div class="actions"><button onclick="refresh()">Analyze Changes</button></div>{{end}}
</div>
{{template "host" .}}{{if .Interactive}}<script>watchState('', false);</script>{{end}}
</body>
</html>
{{end}}`

const resultTmpl = `{{define "result"}}{{template "head" .}}
<body>
<div class="header">
	<div class="title-section">
		{{if .IconURI}}<img src="{{.IconURI}}" alt="" class="header-icon">{{end}}
		<h1>Git Diff</h1>
		<span class="powered-by">Powered by {{.Tool}}</span>
	</div>
	<div class="info">
		<span>📅 {{.Timestamp}}</span>
		<span>📊 {{.DiffLength}} characters analyzed</span>
		<span>🔎 {{.Source}}</span>
		{{if .Cached}}<span>♻️ cached response</span>{{end}}
	</div>
	{{if .Truncated}}<div class="notice">The diff exceeded the size limit and was truncated before analysis.</div>{{end}}
	{{if .Redacted}}<div class="notice">{{.Redacted}} secret(s) were redacted before analysis.</div>{{end}}
	{{range .Withheld}}<div class="notice">Content of {{.}} was withheld by path policy.</div>{{end}}
</div>
<div class="response-container" id="markdown-content">
{{.Body}}
</div>
{{if .Interactive}}<div class="actions"><button onclick="refresh()">Re-run Analysis</button></div>{{end}}
{{template "host" .}}{{if .Interactive}}
<script>
(function () {
	var refs = {{.Refs}};
	var inDiff = {{.DiffRefs}};
	document.querySelectorAll('#markdown-content code').forEach(function (el) {
		if (el.parentElement && el.parentElement.tagName === 'PRE') { return; }
		var text = el.textContent.replace(/^\.\//, '').replace(/:\d+$/, '');
		if (refs.indexOf(text) < 0) { return; }
		el.classList.add('file-ref');
		el.title = 'Open ' + text;
		el.addEventListener('click', function () { post({command: 'openFile', file: text}); });
		if (inDiff.indexOf(text) >= 0) {
			var a = document.createElement('a');
			a.className = 'diff-ref';
			a.textContent = 'diff';
			a.addEventListener('click', function () { post({command: 'showDiff', file: text}); });
			el.insertAdjacentElement('afterend', a);
		}
	});
	watchState({{.ID}}, false);
})();
</script>{{end}}
</body>
</html>
{{end}}`

const errorTmpl = `{{define "error"}}{{template "head" .}}
<body>
<div class="center">
	<div class="error-icon">{{if .Notice}}ℹ️{{else}}⚠️{{end}}</div>
	<h2>{{.Heading}}</h2>
	<div class="error-message">{{.Message}}</div>
	{{if .Hint}}<p class="status">{{.Hint}}</p>{{end}}
	{{if .Interactive}}<div class="actions"><button onclick="refresh()">Try Again</button></div>{{end}}
</div>
{{template "host" .}}{{if .Interactive}}<script>watchState('', false);</script>{{end}}
</body>
</html>
{{end}}`

const viewTmpl = `{{define "view"}}{{template "head" .}}
<body>
<div class="header">
	<div class="title-section"><h1>{{.Heading}}</h1></div>
	<div class="info"><a href="/">← Back to analysis</a></div>
</div>
{{if .Lines}}<pre class="view">{{range .Lines}}<span class="{{.Class}}">{{.Text}}</span>
{{end}}</pre>{{else}}<p class="muted">{{.Empty}}</p>{{end}}
</body>
</html>
{{end}}`
