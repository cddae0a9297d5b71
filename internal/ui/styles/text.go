package styles

import (
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/muesli/reflow/wordwrap"
	"github.com/rivo/uniseg"
)

// ellipsis is appended to truncated text.
const ellipsis = "…"

// Truncate cuts s to at most width terminal cells, appending an ellipsis
// when anything was removed. Grapheme clusters are never split, so
// emoji and combining marks survive intact.
func Truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) <= width {
		return s
	}
	if width == 1 {
		return ellipsis
	}

	var b strings.Builder
	used := 0
	limit := width - 1 // room for the ellipsis
	g := uniseg.NewGraphemes(s)
	for g.Next() {
		cluster := g.Str()
		w := runewidth.StringWidth(cluster)
		if used+w > limit {
			break
		}
		b.WriteString(cluster)
		used += w
	}
	return b.String() + ellipsis
}

// Wrap reflows s to the given width, breaking on word boundaries.
func Wrap(s string, width int) string {
	if width <= 0 {
		return s
	}
	return wordwrap.String(s, width)
}
