package render

import (
	"fmt"
	"html/template"
	"io"
	"net/url"

	"github.com/mybaseweek/weekstats/internal/domain"
)

// WarpcastComposeURL is the compose flow the share button opens.
const WarpcastComposeURL = "https://warpcast.com/~/compose"

// SharePage is the data behind /share/{userId}. The embed fields are JSON
// documents placed verbatim in meta content attributes.
type SharePage struct {
	UserID       string
	Title        string
	Description  string
	PageURL      string
	ImageURL     string
	MiniAppEmbed string
	FrameEmbed   string
}

const sharePageTmpl = `<!DOCTYPE html>
<html lang="en">
<head>
	<meta charset="UTF-8">
	<meta name="viewport" content="width=device-width, initial-scale=1">
	<title>{{.Title}}</title>
	<meta name="description" content="{{.Description}}">

	<meta property="og:type" content="website">
	<meta property="og:title" content="{{.Title}}">
	<meta property="og:description" content="{{.Description}}">
	<meta property="og:url" content="{{.PageURL}}">
	<meta property="og:image" content="{{.ImageURL}}">
	<meta property="og:image:width" content="1200">
	<meta property="og:image:height" content="630">

	<meta name="twitter:card" content="summary_large_image">
	<meta name="twitter:title" content="{{.Title}}">
	<meta name="twitter:description" content="{{.Description}}">
	<meta name="twitter:image" content="{{.ImageURL}}">

	<meta name="fc:miniapp" content="{{.MiniAppEmbed}}">
	<meta name="fc:frame" content="{{.FrameEmbed}}">
</head>
<body style="margin:0;min-height:100vh;display:flex;align-items:center;justify-content:center;background:#020617;color:#fff;font-family:system-ui,-apple-system,sans-serif;">
	<main style="text-align:center;padding:24px;">
		<img src="{{.ImageURL}}" width="600" height="315" alt="Weekly stats for fid {{.UserID}}" style="max-width:100%;height:auto;border-radius:16px;">
		<p>{{.Description}}</p>
	</main>
</body>
</html>`

// HomePage is the data behind the server-rendered home card. Either Stats or
// Error is set.
type HomePage struct {
	UserID     string
	Days       int
	Stats      *domain.WeeklyStats
	Error      string
	ComposeURL string
}

const homePageTmpl = `<!DOCTYPE html>
<html lang="en">
<head>
	<meta charset="UTF-8">
	<meta name="viewport" content="width=device-width, initial-scale=1">
	<title>My Base Week</title>
	<style>
		body { margin: 0; min-height: 100vh; display: flex; align-items: center; justify-content: center; background: #020617; color: #fff; font-family: system-ui, -apple-system, sans-serif; }
		.card { width: 100%; max-width: 420px; margin: 16px; padding: 24px; border-radius: 24px; background: radial-gradient(circle at 50% 0%, #A78BFA 0, #7C5CFF 38%, #5B21FF 80%); }
		.title { margin: 0; font-size: 24px; }
		.subtitle { margin: 4px 0 16px; opacity: .9; }
		.grid { display: grid; grid-template-columns: 1fr 1fr; gap: 12px; }
		.stat { padding: 12px 14px; border-radius: 16px; background: rgba(55,20,130,.9); border: 1px solid rgba(221,214,254,.9); }
		.stat p { margin: 0; }
		.label { font-size: 13px; opacity: .9; }
		.value { font-size: 26px; font-weight: 700; }
		.top { margin-top: 16px; padding: 14px; border-radius: 16px; background: rgba(2,6,23,.35); }
		.top .text { white-space: pre-wrap; word-break: break-word; }
		.meta span { margin-right: 12px; }
		.share { display: block; margin-top: 16px; padding: 12px; border-radius: 9999px; background: #fff; color: #5B21FF; text-align: center; font-weight: 700; text-decoration: none; }
		.error { max-width: 420px; margin: 16px; padding: 20px; border-radius: 16px; background: #450a0a; border: 1px solid #f87171; }
		.error .title { font-size: 18px; }
	</style>
</head>
<body>
<main>
{{- if .Error}}
	<div class="error">
		<p class="title">Something went wrong</p>
		<p>{{.Error}}</p>
	</div>
{{- else}}
	<div class="card">
		<h1 class="title">My Base Week</h1>
		<p class="subtitle">Last {{.Days}} days on Farcaster</p>
		<div class="grid">
			<div class="stat"><p class="label">Casts</p><p class="value">{{.Stats.TotalPosts}}</p></div>
			<div class="stat"><p class="label">Likes received</p><p class="value">{{.Stats.TotalLikes}}</p></div>
			<div class="stat"><p class="label">Recasts received</p><p class="value">{{.Stats.TotalRecasts}}</p></div>
			<div class="stat"><p class="label">Replies received</p><p class="value">{{.Stats.TotalReplies}}</p></div>
		</div>
		<div class="top">
			<p class="label">Top cast of the week</p>
			{{- with .Stats.TopPost}}
			<p class="text">{{.Text}}</p>
			<p class="meta"><span>❤️ {{.Likes}}</span><span>🔁 {{.Recasts}}</span><span>💬 {{.Replies}}</span></p>
			{{- else}}
			<p>No casts in the last {{.Days}} days.</p>
			{{- end}}
		</div>
		<a class="share" href="{{.ComposeURL}}" target="_blank" rel="noopener">Share</a>
	</div>
{{- end}}
</main>
</body>
</html>`

var (
	shareTemplate = template.Must(template.New("share").Parse(sharePageTmpl))
	homeTemplate  = template.Must(template.New("home").Parse(homePageTmpl))
)

func RenderSharePage(w io.Writer, p SharePage) error {
	if err := shareTemplate.Execute(w, p); err != nil {
		return fmt.Errorf("render share page: %w", err)
	}
	return nil
}

func RenderHomePage(w io.Writer, p HomePage) error {
	if p.Days <= 0 {
		p.Days = domain.DefaultWindowDays
	}
	if p.Error == "" && p.Stats == nil {
		p.Stats = &domain.WeeklyStats{UserID: p.UserID, WindowDays: p.Days}
	}
	if err := homeTemplate.Execute(w, p); err != nil {
		return fmt.Errorf("render home page: %w", err)
	}
	return nil
}

// ShareText is the prefilled cast text for the share button.
func ShareText(s *domain.WeeklyStats) string {
	return fmt.Sprintf("My last %d days on Farcaster: %d casts, %d likes, %d recasts, %d replies. Engagement score %d.",
		s.WindowDays, s.TotalPosts, s.TotalLikes, s.TotalRecasts, s.TotalReplies, s.EngagementScore)
}

// ComposeURL opens the Warpcast composer with text and one embedded link.
func ComposeURL(text, embed string) string {
	q := url.Values{}
	q.Set("text", text)
	if embed != "" {
		q.Add("embeds[]", embed)
	}
	return WarpcastComposeURL + "?" + q.Encode()
}
