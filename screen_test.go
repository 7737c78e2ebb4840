package vlist

import (
	"strings"
	"unicode/utf8"

	"github.com/gdamore/tcell/v3"
	"github.com/rivo/uniseg"
)

type cell struct {
	text  string
	style tcell.Style
}

// testScreen records drawn cells in memory. Methods outside the drawing
// surface panic through the nil embedded Screen.
type testScreen struct {
	tcell.Screen
	width, height int
	cells         []cell
	shows         int
	clears        int
	title         string
	cursorX       int
	cursorY       int
	finalized     bool
}

func newTestScreen(width, height int) *testScreen {
	s := &testScreen{width: width, height: height, cursorX: -1, cursorY: -1}
	s.reset()
	return s
}

func (s *testScreen) reset() {
	s.cells = make([]cell, s.width*s.height)
	for i := range s.cells {
		s.cells[i] = cell{text: " ", style: tcell.StyleDefault}
	}
}

func (s *testScreen) inBounds(x, y int) bool {
	return x >= 0 && y >= 0 && x < s.width && y < s.height
}

func (s *testScreen) Size() (int, int) { return s.width, s.height }

func (s *testScreen) Clear() {
	s.clears++
	s.reset()
}

func (s *testScreen) Show()                 { s.shows++ }
func (s *testScreen) SetTitle(title string) { s.title = title }
func (s *testScreen) ShowCursor(x, y int)   { s.cursorX, s.cursorY = x, y }
func (s *testScreen) HideCursor()           { s.cursorX, s.cursorY = -1, -1 }
func (s *testScreen) SetStyle(tcell.Style)  {}
func (s *testScreen) Fini()                 { s.finalized = true }

func (s *testScreen) Fill(r rune, style tcell.Style) {
	s.fill(string(r), style)
}

func (s *testScreen) fill(text string, style tcell.Style) {
	for i := range s.cells {
		s.cells[i] = cell{text: text, style: style}
	}
}

func (s *testScreen) SetContent(x, y int, primary rune, combining []rune, style tcell.Style) {
	s.Put(x, y, string(primary)+string(combining), style)
}

func (s *testScreen) Get(x, y int) (string, tcell.Style, int) {
	if !s.inBounds(x, y) {
		return "", tcell.StyleDefault, 1
	}
	c := s.cells[y*s.width+x]
	return c.text, c.style, max(uniseg.StringWidth(c.text), 1)
}

func (s *testScreen) Put(x, y int, str string, style tcell.Style) (string, int) {
	if str == "" {
		return "", 0
	}
	cluster, remain, width, _ := uniseg.FirstGraphemeClusterInString(str, -1)
	if cluster == "" {
		_, size := utf8.DecodeRuneInString(str)
		cluster, remain, width = str[:size], str[size:], 1
	}
	if width <= 0 {
		return remain, 0
	}
	if !s.inBounds(x, y) {
		return remain, width
	}
	s.cells[y*s.width+x] = cell{text: cluster, style: style}
	// Trailing columns of wide clusters are left empty.
	for i := 1; i < width && x+i < s.width; i++ {
		s.cells[y*s.width+x+i] = cell{style: style}
	}
	return remain, width
}

func (s *testScreen) PutStr(x, y int, str string) {
	s.PutStrStyled(x, y, str, tcell.StyleDefault)
}

func (s *testScreen) PutStrStyled(x, y int, str string, style tcell.Style) {
	for str != "" && x < s.width {
		remain, width := s.Put(x, y, str, style)
		if width <= 0 || remain == str {
			return
		}
		x += width
		str = remain
	}
}

// row returns the text of row y with trailing spaces removed.
func (s *testScreen) row(y int) string {
	var b strings.Builder
	for x := range s.width {
		b.WriteString(s.cells[y*s.width+x].text)
	}
	return strings.TrimRight(b.String(), " ")
}

// rows returns the text of every row.
func (s *testScreen) rows() []string {
	rows := make([]string, s.height)
	for y := range rows {
		rows[y] = s.row(y)
	}
	return rows
}

// styleAt returns the style of the cell at x, y.
func (s *testScreen) styleAt(x, y int) tcell.Style {
	return s.cells[y*s.width+x].style
}
