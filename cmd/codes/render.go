package main

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/sib-utrecht/portal/clipboard"
	"github.com/sib-utrecht/portal/countdown"
)

const barWidth = 20

// render writes one line per code: its number (what to type to copy
// it), the committee, the code and the ring drawn as a bar.
func render(w io.Writer, labels []string, state countdown.State, toast *clipboard.Toast) {
	var sb strings.Builder

	if state.Loading {
		if state.Err != nil {
			fmt.Fprintf(&sb, "unable to load codes: %v\n", state.Err)
		} else {
			sb.WriteString("loading...\n")
		}
		io.WriteString(w, sb.String())
		return
	}

	width := 0
	for _, l := range labels {
		width = max(width, len([]rune(l)))
	}

	b := bar(state.Progress)
	if state.Resetting {
		b = strings.Repeat("=", barWidth)
	}

	for i, code := range state.Codes {
		label := ""
		if i < len(labels) {
			label = labels[i]
		}
		fmt.Fprintf(&sb, "%2d  %-*s  %s  [%s] %2ds\n", i+1, width, label, formatCode(code), b, state.SecondsLeft)
	}

	if state.Err != nil {
		fmt.Fprintf(&sb, "codes may be stale: %v\n", state.Err)
	}
	if toast != nil {
		fmt.Fprintf(&sb, "%s (%d)\n", toast.Text, toast.Index+1)
	}
	io.WriteString(w, sb.String())
}

func bar(progress float64) string {
	filled := int(math.Round(progress * barWidth))
	filled = max(0, min(barWidth, filled))
	return strings.Repeat("#", filled) + strings.Repeat("-", barWidth-filled)
}

// 482913 -> 482 913
func formatCode(code string) string {
	if len(code) != 6 {
		return code
	}
	return code[:3] + " " + code[3:]
}
