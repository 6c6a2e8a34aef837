package host

import "github.com/charmbracelet/lipgloss"

// Color palette for the host chrome around the panel
var (
	PrimaryColor = lipgloss.Color("#7D56F4") // Purple - border
	SuccessColor = lipgloss.Color("#43BF6D") // Green - saved snapshots
	ErrorColor   = lipgloss.Color("#FF5555") // Red - errors
	MutedColor   = lipgloss.Color("#626262") // Gray - status line
)

// chromeLines is the terminal height used by everything but the panel
const chromeLines = 5

var (
	// PanelStyle frames the rendered display
	PanelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(PrimaryColor)

	// StatusStyle is for the title and frame counter under the panel
	StatusStyle = lipgloss.NewStyle().
			Foreground(MutedColor).
			PaddingLeft(1)

	// NoticeStyle is for transient confirmations
	NoticeStyle = lipgloss.NewStyle().
			Foreground(SuccessColor).
			PaddingLeft(1)

	// ErrorStyle is for host errors such as a failed snapshot
	ErrorStyle = lipgloss.NewStyle().
			Foreground(ErrorColor).
			Bold(true).
			PaddingLeft(1)
)
