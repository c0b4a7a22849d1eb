package htmlreport

import (
	"strconv"
	"strings"

	"github.com/alnah/go-qrda2qpp/internal/report"
)

// Markdown renders all as a Markdown document. payload, when non-empty,
// is appended verbatim in a fenced json block.
func Markdown(title string, all *report.AllErrors, payload []byte) string {
	var b strings.Builder
	b.WriteString("# ")
	b.WriteString(escape(title))
	b.WriteString("\n\n")

	if all == nil || len(all.ErrorSources) == 0 {
		b.WriteString("No errors were reported.\n\n")
	} else {
		for _, src := range all.ErrorSources {
			writeSource(&b, src)
		}
	}

	if len(payload) > 0 {
		b.WriteString("## Raw report\n\n")
		b.WriteString(fence(payload))
		b.WriteString("json\n")
		b.Write(payload)
		if payload[len(payload)-1] != '\n' {
			b.WriteByte('\n')
		}
		b.WriteString(fence(payload))
		b.WriteString("\n")
	}
	return b.String()
}

func writeSource(b *strings.Builder, src report.ErrorSource) {
	name := src.SourceIdentifier
	if name == "" {
		name = "(unnamed source)"
	}
	b.WriteString("## ")
	b.WriteString(escape(name))
	b.WriteString("\n\n")

	n := len(src.ValidationErrors)
	b.WriteString(strconv.Itoa(n))
	if n == 1 {
		b.WriteString(" error\n\n")
	} else {
		b.WriteString(" errors\n\n")
	}
	if n == 0 {
		return
	}

	b.WriteString("| # | Error | Path |\n")
	b.WriteString("|---:|---|---|\n")
	for i, e := range src.ValidationErrors {
		b.WriteString("| ")
		b.WriteString(strconv.Itoa(i + 1))
		b.WriteString(" | ")
		b.WriteString(escape(e.ErrorText))
		b.WriteString(" | ")
		if e.Path != "" {
			b.WriteString(escape(e.Path))
		}
		b.WriteString(" |\n")
	}
	b.WriteString("\n")
}

// escape backslash-escapes Markdown punctuation so text renders literally
// inside headings and table cells.
func escape(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch r {
		case '\\', '`', '*', '_', '[', ']', '<', '>', '|', '#', '!', '~', '&':
			b.WriteByte('\\')
		case '\n', '\r':
			r = ' '
		}
		b.WriteRune(r)
	}
	return b.String()
}

// fence returns a backtick fence longer than any backtick run in data.
func fence(data []byte) string {
	longest, run := 0, 0
	for _, c := range data {
		if c == '`' {
			run++
			longest = max(longest, run)
			continue
		}
		run = 0
	}
	return strings.Repeat("`", max(3, longest+1))
}
