package printer

import (
	"bytes"
	"strings"
)

// ESC/POS control bytes
const (
	ESC = 0x1B
	GS  = 0x1D
	LF  = 0x0A
)

// Text alignment
const (
	AlignLeft   = 0
	AlignCenter = 1
	AlignRight  = 2
)

// Character sizes
const (
	FontNormal = 0x00
	FontDouble = 0x11
)

// Paper widths in characters
const (
	Width58mm = 32
	Width80mm = 48
)

// Document accumulates an ESC/POS byte stream
type Document struct {
	buf   bytes.Buffer
	width int
}

// NewDocument starts a document for paper holding width characters per line
func NewDocument(width int) *Document {
	if width <= 0 {
		width = Width58mm
	}
	d := &Document{width: width}
	d.buf.Write([]byte{ESC, '@'})
	return d
}

// Width returns the number of characters per line
func (d *Document) Width() int {
	return d.width
}

// FeedLines sends n line feeds
func (d *Document) FeedLines(n int) *Document {
	for i := 0; i < n; i++ {
		d.buf.WriteByte(LF)
	}
	return d
}

// SetAlign sets text alignment
func (d *Document) SetAlign(align int) *Document {
	d.buf.Write([]byte{ESC, 'a', byte(align)})
	return d
}

// SetBold toggles emphasized text
func (d *Document) SetBold(on bool) *Document {
	b := byte(0)
	if on {
		b = 1
	}
	d.buf.Write([]byte{ESC, 'E', b})
	return d
}

// SetFontSize sets the character size
func (d *Document) SetFontSize(size byte) *Document {
	d.buf.Write([]byte{GS, '!', size})
	return d
}

// Text writes s wrapped to the paper width. Empty strings are skipped.
func (d *Document) Text(s string) *Document {
	for _, line := range wrap(s, d.width) {
		d.buf.WriteString(line)
		d.buf.WriteByte(LF)
	}
	return d
}

// Separator prints a full-width line of char
func (d *Document) Separator(char byte) *Document {
	d.buf.Write(bytes.Repeat([]byte{char}, d.width))
	d.buf.WriteByte(LF)
	return d
}

// KeyValue prints key on the left and value flush right
func (d *Document) KeyValue(key, value string) *Document {
	d.justify(key, value)
	return d
}

// ItemLine prints "qty x description" with the line total flush right.
// Descriptions too long for the line continue on the next ones.
func (d *Document) ItemLine(qty, description, total string) *Document {
	room := d.width - len(total) - 1
	lines := wrap(qty+" x "+description, room)
	if len(lines) == 0 {
		lines = []string{""}
	}
	d.justify(lines[0], total)
	for _, line := range lines[1:] {
		d.buf.WriteString("  " + line)
		d.buf.WriteByte(LF)
	}
	return d
}

// PartialCut feeds and cuts the paper leaving a hinge
func (d *Document) PartialCut() *Document {
	d.buf.Write([]byte{GS, 'V', 0x01})
	return d
}

// Bytes returns the accumulated stream
func (d *Document) Bytes() []byte {
	return d.buf.Bytes()
}

func (d *Document) justify(left, right string) {
	spaces := d.width - len(left) - len(right)
	if spaces < 1 {
		spaces = 1
	}
	d.buf.WriteString(left)
	d.buf.WriteString(strings.Repeat(" ", spaces))
	d.buf.WriteString(right)
	d.buf.WriteByte(LF)
}

// wrap splits s on word boundaries into lines of at most width bytes.
// Words longer than width are cut.
func wrap(s string, width int) []string {
	if width < 1 {
		width = 1
	}
	var lines []string
	var current string
	for _, word := range strings.Fields(s) {
		for len(word) > width {
			if current != "" {
				lines = append(lines, current)
				current = ""
			}
			lines = append(lines, word[:width])
			word = word[width:]
		}
		switch {
		case current == "":
			current = word
		case len(current)+1+len(word) <= width:
			current += " " + word
		default:
			lines = append(lines, current)
			current = word
		}
	}
	if current != "" {
		lines = append(lines, current)
	}
	return lines
}
