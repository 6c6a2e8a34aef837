package firmware

import (
	"fmt"
	"image/color"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
)

// GPSRefreshInterval bounds how often the GPS numeric fields are repainted
const GPSRefreshInterval = 500 * time.Millisecond

// renderer paints the active mode. It draws the static layout when the
// state is dirty and otherwise repaints only the regions that changed.
type renderer struct {
	display      Display
	clock        clockwork.Clock
	version      string
	snifferPause time.Duration
}

// render draws one frame for the active mode. rssi is the live channel
// reading used by the sniffer.
func (r *renderer) render(s *State, fix GPSFix, rssi float64) {
	switch m := s.mode.(type) {
	case *GPSMode:
		r.renderGPS(s, m, fix)
	case *TerminalMode:
		r.renderTerminal(s, m)
	case *SnifferMode:
		r.renderSniffer(s, m, rssi)
	case *HelpMode:
		r.renderHelp(s, m)
	}
}

// maxTitleChars keeps the title clear of the [SF n] indicator
const maxTitleChars = 25

// header clears the screen and draws the title bar and footer
func (r *renderer) header(s *State, title string, bar color.RGBA) {
	d := r.display
	d.FillScreen(Black)
	d.FillRect(0, 0, ScreenWidth, HeaderHeight, bar)
	if n := []rune(title); len(n) > maxTitleChars {
		title = string(n[:maxTitleChars])
	}
	d.Text(5, 6, title, TextStyle{Foreground: Black, Size: sizeSmall})
	if s.Kind() != ModeHelp {
		d.Text(185, 6, fmt.Sprintf("[SF %d]", s.radio.SpreadingFactor), TextStyle{Foreground: Black, Size: sizeSmall})
	}
	d.HLine(0, FooterLineY, ScreenWidth, DarkGrey)
	hint := footerHint(s.mode)
	d.Text((ScreenWidth-textWidth(hint, sizeSmall))/2, FooterTextY, hint, TextStyle{Foreground: LightGrey, Size: sizeSmall})
}

// banner covers the title bar with a transient notice
func (r *renderer) banner(text string, bar color.RGBA) {
	r.display.FillRect(0, 0, ScreenWidth, HeaderHeight, bar)
	r.display.Text(5, 3, text, TextStyle{Foreground: White, Size: sizeMedium})
}

func (r *renderer) renderGPS(s *State, g *GPSMode, fix GPSFix) {
	d := r.display
	if s.dirty || fix.HasFix != g.fixObserved {
		r.header(s, "GPS MONITOR "+r.version, Green)
		if fix.HasFix {
			label := TextStyle{Foreground: LightGrey, Size: sizeSmall}
			d.Text(5, 34, "LAT", label)
			d.Text(5, 58, "LON", label)
			d.Text(5, 80, "ALT", label)
			d.Text(85, 80, "SPD", label)
			d.Text(165, 80, "SATS", label)
		} else {
			d.Text(50, 45, "NO GPS FIX", TextStyle{Foreground: Red, Size: sizeLarge})
		}
		g.fixObserved = fix.HasFix
		g.lastRefresh = time.Time{}
		s.dirty = false
	}

	now := r.clock.Now()
	if !g.lastRefresh.IsZero() && now.Sub(g.lastRefresh) < GPSRefreshInterval {
		return
	}
	g.lastRefresh = now

	if !fix.HasFix {
		sats := fmt.Sprintf("Sats Visible: %d", fix.Satellites)
		d.FillRect(0, 85, ScreenWidth, GlyphHeight+1, Black)
		d.Text((ScreenWidth-textWidth(sats, sizeSmall))/2, 85, sats, TextStyle{Foreground: White, Size: sizeSmall})
		return
	}

	value := TextStyle{Foreground: White, Background: Black, Size: sizeMedium}
	h := textHeight(sizeMedium)
	d.FillRect(35, 30, 135, h, Black)
	d.Text(35, 30, fmt.Sprintf("%.6f", fix.Lat), value)
	d.FillRect(35, 54, 135, h, Black)
	d.Text(35, 54, fmt.Sprintf("%.6f", fix.Lon), value)
	d.FillRect(5, 95, 75, h, Black)
	d.Text(5, 95, fmt.Sprintf("%.0fm", fix.AltitudeM), value)
	d.FillRect(85, 95, 75, h, Black)
	d.Text(85, 95, fmt.Sprintf("%.0f", fix.SpeedKmh), value)
	d.FillRect(165, 95, 70, h, Black)
	d.Text(165, 95, fmt.Sprintf("%d", fix.Satellites), TextStyle{Foreground: Cyan, Background: Black, Size: sizeMedium})
	d.Text(175, 30, fmt.Sprintf("%02d:%02d", fix.UTCHour, fix.UTCMinute), TextStyle{Foreground: Yellow, Background: Black, Size: sizeMedium})
}

// Terminal layout
const (
	messageBoxY      = 42
	messageBoxHeight = 40
	messageLineChars = (ScreenWidth - 10) / GlyphWidth
	messageLines     = 2
	signalLineY      = 86
	inputLineY       = 101
)

func (r *renderer) renderTerminal(s *State, t *TerminalMode) {
	d := r.display
	if s.dirty {
		r.header(s, "LORA TERMINAL", Orange)
		d.Text(5, 28, "Last Packet:", TextStyle{Foreground: LightGrey, Size: sizeSmall})
		d.DrawRect(0, messageBoxY, ScreenWidth, messageBoxHeight, White)
		t.messageShown = false
		t.inputShown = false
		s.dirty = false
	}

	if !t.messageShown || t.shownMessage != s.lastMessage {
		d.FillRect(2, messageBoxY+2, ScreenWidth-4, messageBoxHeight-4, Black)
		for i, line := range wrapMessage(s.lastMessage, messageLineChars, messageLines) {
			d.Text(5, messageBoxY+6+i*GlyphHeight, line, TextStyle{Foreground: Green, Size: sizeSmall})
		}
		d.FillRect(0, signalLineY, ScreenWidth, GlyphHeight, Black)
		d.Text(5, signalLineY, fmt.Sprintf("RSSI: %.0f dBm   SNR: %.2f", s.rssi, s.snr), TextStyle{Foreground: White, Size: sizeSmall})
		t.shownMessage = s.lastMessage
		t.messageShown = true
	}

	input := string(t.input)
	if !t.inputShown || t.shownInput != input || t.shownChat != t.chat {
		d.FillRect(0, inputLineY, ScreenWidth, GlyphHeight+1, Black)
		if t.chat == ChatCommand {
			d.Text(5, inputLineY, "[CMD] "+input, TextStyle{Foreground: Yellow, Size: sizeSmall})
		} else {
			d.Text(5, inputLineY, "> "+input+"_", TextStyle{Foreground: White, Size: sizeSmall})
		}
		t.shownInput = input
		t.shownChat = t.chat
		t.inputShown = true
	}
}

// wrapMessage splits msg into at most lines rows of width runes, marking
// truncation with a trailing tilde.
func wrapMessage(msg string, width, lines int) []string {
	runes := []rune(strings.ReplaceAll(msg, "\n", " "))
	var out []string
	for len(runes) > 0 && len(out) < lines {
		n := min(width, len(runes))
		out = append(out, string(runes[:n]))
		runes = runes[n:]
	}
	if len(runes) > 0 && len(out) > 0 {
		last := []rune(out[len(out)-1])
		last[len(last)-1] = '~'
		out[len(out)-1] = string(last)
	}
	return out
}

// ClampRSSI limits a reading to the sniffer's plotting range
func ClampRSSI(rssi float64) float64 {
	return max(snifferFloorDBm, min(snifferCeilDBm, rssi))
}

// RSSIColor returns the bar colour band for a clamped reading
func RSSIColor(rssi float64) color.RGBA {
	switch {
	case rssi > -50:
		return Red
	case rssi > -75:
		return Yellow
	case rssi > -95:
		return Green
	default:
		return Blue
	}
}

// barHeight maps a clamped reading onto the plot height
func barHeight(rssi float64) int {
	return int(rssi-snifferFloorDBm) * snifferMaxBar / (snifferCeilDBm - snifferFloorDBm)
}

func (r *renderer) renderSniffer(s *State, sn *SnifferMode, rssi float64) {
	d := r.display
	if s.dirty {
		r.header(s, "LORA SPECTRUM", Red)
		sn.cursor = 0
		s.dirty = false
	}

	x := sn.cursor
	clamped := ClampRSSI(rssi)
	h := barHeight(clamped)
	d.VLine(x, HeaderHeight, snifferBottom-HeaderHeight, Black)
	d.VLine(x, snifferBottom-h, h, RSSIColor(clamped))
	if x+1 < ScreenWidth {
		d.VLine(x+1, HeaderHeight, snifferBottom-HeaderHeight, White)
	}

	if x%readoutEvery == 0 {
		d.FillRect(110, 5, 65, 15, Red)
		d.Text(115, 6, fmt.Sprintf("%.0f dBm", rssi), TextStyle{Foreground: White, Size: sizeSmall})
	}

	sn.cursor = (x + 1) % ScreenWidth
	if r.snifferPause > 0 {
		r.clock.Sleep(r.snifferPause)
	}
}

func (r *renderer) renderHelp(s *State, h *HelpMode) {
	if !s.dirty {
		return
	}
	d := r.display
	r.header(s, "MANUAL / HELP", DarkGrey)
	page := helpPages[h.page]
	d.Text(5, 29, page.title, TextStyle{Foreground: Cyan, Size: sizeSmall})
	d.Text(205, 29, fmt.Sprintf("%d/%d", h.page+1, HelpPageCount), TextStyle{Foreground: Yellow, Size: sizeSmall})
	for i, line := range page.lines {
		d.Text(5, helpLineTop+i*helpLineSpacing, line, TextStyle{Foreground: White, Size: sizeSmall})
	}
	s.dirty = false
}
