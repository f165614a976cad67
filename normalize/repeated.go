package normalize

import (
	"fmt"
	"strings"

	"github.com/tsawler/lectern/model"
)

// minRepeatPages is the number of pages a boundary line must repeat across
// verbatim before it is suspected to be a running header or footer.
const minRepeatPages = 3

// FlagRepeatedLines inspects the first and last line of each page and flags
// lines repeated verbatim across at least three pages as suspected running
// headers or footers. Detection is best-effort; removal is a separate,
// optional step (StripRepeatedLines).
func FlagRepeatedLines(pages []model.NormalizedText) []model.Warning {
	repeated := repeatedBoundaryLines(pages)
	if len(repeated) == 0 {
		return nil
	}

	var warnings []model.Warning
	for _, line := range repeated {
		warnings = append(warnings, model.Warning{
			Code:      model.WarnRepeatedLine,
			Message:   fmt.Sprintf("%q repeats across pages; suspected header or footer", line),
			PageIndex: -1,
		})
	}
	return warnings
}

// StripRepeatedLines removes suspected header/footer lines from the page
// boundaries where they occur, returning new NormalizedText values. Pages
// that change get "strip-repeated-lines" appended to their Applied list.
func StripRepeatedLines(pages []model.NormalizedText) []model.NormalizedText {
	repeated := repeatedBoundaryLines(pages)
	if len(repeated) == 0 {
		return pages
	}

	isRepeated := make(map[string]bool, len(repeated))
	for _, line := range repeated {
		isRepeated[line] = true
	}

	out := make([]model.NormalizedText, len(pages))
	for i, page := range pages {
		lines := strings.Split(page.Text, "\n")
		for len(lines) > 0 && isRepeated[strings.TrimSpace(lines[0])] {
			lines = lines[1:]
		}
		for len(lines) > 0 && isRepeated[strings.TrimSpace(lines[len(lines)-1])] {
			lines = lines[:len(lines)-1]
		}

		stripped := strings.TrimSpace(strings.Join(lines, "\n"))
		out[i] = page
		if stripped != page.Text {
			out[i].Text = stripped
			out[i].Applied = append(append([]string(nil), page.Applied...), "strip-repeated-lines")
		}
	}
	return out
}

// repeatedBoundaryLines returns the distinct first/last lines that repeat
// verbatim across minRepeatPages or more pages, in first-seen order.
func repeatedBoundaryLines(pages []model.NormalizedText) []string {
	if len(pages) < minRepeatPages {
		return nil
	}

	counts := make(map[string]int)
	var order []string
	seen := func(line string) {
		line = strings.TrimSpace(line)
		if line == "" {
			return
		}
		if counts[line] == 0 {
			order = append(order, line)
		}
		counts[line]++
	}

	for _, page := range pages {
		lines := strings.Split(page.Text, "\n")
		if len(lines) == 0 {
			continue
		}
		seen(lines[0])
		if len(lines) > 1 {
			seen(lines[len(lines)-1])
		}
	}

	var repeated []string
	for _, line := range order {
		if counts[line] >= minRepeatPages {
			repeated = append(repeated, line)
		}
	}
	return repeated
}
