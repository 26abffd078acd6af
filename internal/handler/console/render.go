package console

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/zhouzirui/cyber-shield/backend/internal/model/knowledge"
	"github.com/zhouzirui/cyber-shield/backend/internal/service/dialogue"
)

const (
	bannerTitle    = "SOUTH AFRICAN CYBERSECURITY DEPT."
	bannerSubtitle = "Protecting South Africa's Digital Future - Est. 2015"
	menuTitle      = "CYBER MENU"
	exitTitle      = "SECURE SESSION TERMINATION"
)

// theme holds the styles of every console element, bound to the output's color profile.
type theme struct {
	Banner    lipgloss.Style
	Menu      lipgloss.Style
	Stats     lipgloss.Style
	Resources lipgloss.Style
	Heading   lipgloss.Style
	Error     lipgloss.Style
	Info      lipgloss.Style
	Muted     lipgloss.Style
}

func newTheme(out io.Writer) theme {
	r := lipgloss.NewRenderer(out)
	box := r.NewStyle().Border(lipgloss.DoubleBorder()).Padding(0, 1)

	return theme{
		Banner:    box.BorderForeground(lipgloss.Color("10")).Foreground(lipgloss.Color("10")),
		Menu:      box.BorderForeground(lipgloss.Color("11")),
		Stats:     box.BorderForeground(lipgloss.Color("13")),
		Resources: box.BorderForeground(lipgloss.Color("14")),
		Heading:   r.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		Error:     r.NewStyle().Foreground(lipgloss.Color("9")),
		Info:      r.NewStyle().Foreground(lipgloss.Color("10")),
		Muted:     r.NewStyle().Faint(true),
	}
}

// box renders a titled block of lines.
func box(style lipgloss.Style, title string, lines []string) string {
	body := append([]string{title, ""}, lines...)
	return style.Render(strings.Join(body, "\n"))
}

func renderBanner(t theme) string {
	return box(t.Banner, bannerTitle, []string{bannerSubtitle})
}

func renderMenu(t theme, menu []knowledge.MenuEntry) string {
	lines := make([]string, 0, len(menu))
	for _, entry := range menu {
		lines = append(lines, fmt.Sprintf("%s. %s", entry.Code, entry.Label))
	}
	return box(t.Menu, menuTitle, lines)
}

// choicePrompt names the menu range, e.g. "Enter your choice (1-9): ".
func choicePrompt(menu []knowledge.MenuEntry) string {
	if len(menu) == 0 {
		return "> "
	}
	return fmt.Sprintf("Enter your choice (%s-%s): ", menu[0].Code, menu[len(menu)-1].Code)
}

// renderReply lays a reply out for the terminal. Plain lines keep the order of Reply.Lines.
func renderReply(t theme, reply dialogue.Reply) []string {
	var out []string
	add := func(s string) {
		if s != "" {
			out = append(out, s)
		}
	}

	add(reply.Acknowledgement)
	if reply.Heading != "" {
		add(t.Heading.Render(reply.Heading))
	}
	add(reply.Response)
	add(reply.Guidance)
	add(reply.FollowUp)
	if reply.Statistics != nil {
		add(box(t.Stats, reply.Statistics.Title, reply.Statistics.Lines))
	}
	if reply.Summary != nil {
		add(box(t.Banner, exitTitle, reply.Summary.Lines()))
	}
	if reply.Resources != nil {
		add(box(t.Resources, reply.Resources.Title, reply.Resources.Lines))
	}
	add(reply.Suggestion)
	return out
}
