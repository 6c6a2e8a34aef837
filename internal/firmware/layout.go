package firmware

// Screen geometry in pixels
const (
	ScreenWidth  = 240
	ScreenHeight = 135

	HeaderHeight = 25
	FooterLineY  = ScreenHeight - 18
	FooterTextY  = ScreenHeight - 14

	// GlyphWidth and GlyphHeight are the size-1 text cell
	GlyphWidth  = 7
	GlyphHeight = 13
)

// Sniffer plot bounds
const (
	snifferBottom   = ScreenHeight - 20
	snifferMaxBar   = 90
	snifferFloorDBm = -130
	snifferCeilDBm  = -40
	readoutEvery    = 20
)

// Text sizes
const (
	sizeSmall  = 1.0
	sizeMedium = 1.5
	sizeLarge  = 2.0
)

// Help page text area
const (
	helpLineTop     = 44
	helpLineSpacing = 13
)

type helpPage struct {
	title string
	lines []string
}

var helpPages = []helpPage{
	{
		title: "NAVIGATION",
		lines: []string{
			"[ESC] or [`]  Exit / Back",
			"[.] [/]       Next page",
			"[;] [,]       Previous page",
			"Every screen returns to",
			"the GPS monitor on exit.",
		},
	},
	{
		title: "APP MODES",
		lines: []string{
			"[G]  GPS Monitor",
			"[L]  LoRa Terminal",
			"[S]  RSSI Sniffer",
			"[H]  This manual",
		},
	},
	{
		title: "ACTIONS",
		lines: []string{
			"[TAB]  Cycle SF 7/9/12",
			"[ENT]  TX Geo-Beacon",
			"[SPC]  TX Ping",
			"Available on GPS and",
			"Sniffer screens.",
		},
	},
	{
		title: "CHAT TERMINAL",
		lines: []string{
			"Type to compose (30 max)",
			"[ENT]  Send message",
			"[DEL]  Erase last char",
			"[ESC]  Command mode",
		},
	},
	{
		title: "CHAT COMMANDS",
		lines: []string{
			"[SPC]  TX Ping",
			"[ENT]  TX Geo-Beacon",
			"[ESC]  Back to GPS",
			"Any other key resumes",
			"typing.",
		},
	},
}

// HelpPageCount is the number of manual pages
const HelpPageCount = 5

// footerHint returns the bottom line for the active mode
func footerHint(m Mode) string {
	switch v := m.(type) {
	case *HelpMode:
		return "ARROWS: Page | ESC: Exit"
	case *TerminalMode:
		if v.chat == ChatCommand {
			return "SPC:Ping ENT:Geo ESC:Home"
		}
		return "ENT: Send | ESC: Commands"
	default:
		return "Press 'H' for Commands"
	}
}

// textWidth returns the rendered width of s at size
func textWidth(s string, size float64) int {
	return int(float64(len([]rune(s))*GlyphWidth)*size + 0.5)
}

// textHeight returns the rendered cell height at size
func textHeight(size float64) int {
	return int(float64(GlyphHeight)*size + 0.5)
}
