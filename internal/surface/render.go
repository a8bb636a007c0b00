package surface

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/fatih/color"
	"github.com/priyanshu2307/Newschat/internal/models"
)

// Welcome text shown over an empty conversation.
const (
	WelcomeTitle    = "Welcome to NewsChat!"
	WelcomeSubtitle = "Ask me anything about the news articles."
)

// RendererOpts controls terminal output.
type RendererOpts struct {
	NoColor   bool // plain text, no ANSI styling
	PlainText bool // print assistant replies verbatim instead of as markdown
	Width     int  // wrap width for markdown, defaults to 80
}

// Renderer formats render state for a terminal.
type Renderer struct {
	markdown *glamour.TermRenderer

	title     *color.Color
	dim       *color.Color
	online    *color.Color
	offline   *color.Color
	user      *color.Color
	assistant *color.Color
	system    *color.Color
	notice    *color.Color
}

// NewRenderer creates a Renderer.
func NewRenderer(opts RendererOpts) (*Renderer, error) {
	width := opts.Width
	if width <= 0 {
		width = 80
	}

	r := &Renderer{
		title:     color.New(color.Bold),
		dim:       color.New(color.Faint),
		online:    color.New(color.FgGreen, color.Bold),
		offline:   color.New(color.FgRed, color.Bold),
		user:      color.New(color.FgCyan, color.Bold),
		assistant: color.New(color.FgMagenta, color.Bold),
		system:    color.New(color.FgRed),
		notice:    color.New(color.FgYellow),
	}
	if opts.NoColor {
		for _, c := range []*color.Color{r.title, r.dim, r.online, r.offline, r.user, r.assistant, r.system, r.notice} {
			c.DisableColor()
		}
	}

	if !opts.PlainText {
		style := glamour.WithAutoStyle()
		if opts.NoColor {
			style = glamour.WithStandardStyle("notty")
		}
		md, err := glamour.NewTermRenderer(style, glamour.WithWordWrap(width))
		if err != nil {
			return nil, fmt.Errorf("surface: markdown renderer: %w", err)
		}
		r.markdown = md
	}
	return r, nil
}

// Header returns the title line with service status and article count.
func (r *Renderer) Header(st RenderState) string {
	var status string
	switch {
	case !st.StatusKnown:
		status = r.dim.Sprint("Loading")
	case st.Status.Ready:
		status = r.online.Sprint("Online")
	default:
		status = r.offline.Sprint("Offline")
	}
	line := fmt.Sprintf("%s  Status: %s", r.title.Sprint("NewsChat"), status)
	if st.Status.Ready {
		line += fmt.Sprintf("  Articles: %d", st.Status.ArticleCount)
	}
	return line
}

// Welcome returns the text shown when the conversation is empty.
func (r *Renderer) Welcome() string {
	return r.title.Sprint(WelcomeTitle) + "\n" + r.dim.Sprint(WelcomeSubtitle)
}

// Message formats one log entry.
func (r *Renderer) Message(m models.Message) string {
	switch m.Role {
	case models.RoleUser:
		return r.user.Sprint("You: ") + m.Content
	case models.RoleAssistant:
		return r.assistant.Sprint("NewsChat:") + "\n" + r.body(m.Content)
	case models.RoleSystem:
		return r.system.Sprint("! " + m.Content)
	}
	return m.Content
}

func (r *Renderer) body(content string) string {
	if r.markdown == nil {
		return content
	}
	out, err := r.markdown.Render(content)
	if err != nil {
		return content
	}
	return strings.Trim(out, "\n")
}

// Notice formats a dismissible notice.
func (r *Renderer) Notice(text string) string {
	return r.notice.Sprint("* " + text + " (/dismiss to hide)")
}

// Pending is shown while an answer is awaited.
func (r *Renderer) Pending() string {
	return r.dim.Sprint("NewsChat is thinking...")
}

// Phase returns the full-screen message for phases without a conversation,
// or "" for PhaseReady.
func (r *Renderer) Phase(st RenderState) string {
	switch st.Phase {
	case PhaseLoading:
		return r.dim.Sprint("Connecting to the news service...")
	case PhaseOffline:
		return r.offline.Sprint("The news service is offline.") + "\n" +
			"Restart newschat once it is back to start chatting."
	case PhaseSessionUnavailable:
		return r.system.Sprint("Couldn't start a chat session.") + "\n" +
			"Type /retry to try again or /quit to leave."
	}
	return ""
}

// Render writes a complete frame for st.
func (r *Renderer) Render(w io.Writer, st RenderState) {
	fmt.Fprintln(w, r.Header(st))
	fmt.Fprintln(w)
	if msg := r.Phase(st); msg != "" {
		fmt.Fprintln(w, msg)
	} else if len(st.Messages) == 0 {
		fmt.Fprintln(w, r.Welcome())
	}
	for _, m := range st.Messages {
		fmt.Fprintln(w, r.Message(m))
	}
	if st.Pending {
		fmt.Fprintln(w, r.Pending())
	}
	if st.Notice != "" {
		fmt.Fprintln(w, r.Notice(st.Notice))
	}
}
