package vlist

import (
	"math"

	"github.com/gdamore/tcell/v3"

	"github.com/xqrs/vlist/virtual"
)

// ScrollBarArrows controls which endcaps are rendered.
type ScrollBarArrows uint8

const (
	ScrollBarArrowsNone ScrollBarArrows = iota
	ScrollBarArrowsStart
	ScrollBarArrowsEnd
	ScrollBarArrowsBoth
)

func (a ScrollBarArrows) hasStart() bool {
	return a == ScrollBarArrowsStart || a == ScrollBarArrowsBoth
}

func (a ScrollBarArrows) hasEnd() bool {
	return a == ScrollBarArrowsEnd || a == ScrollBarArrowsBoth
}

// TrackClickBehavior configures what a click on the track outside the thumb
// does.
type TrackClickBehavior uint8

const (
	// TrackClickBehaviorPage scrolls one viewport towards the click.
	TrackClickBehaviorPage TrackClickBehavior = iota
	// TrackClickBehaviorJumpToClick centers the thumb on the click.
	TrackClickBehaviorJumpToClick
)

const subcell = 8

// GlyphSet defines vertical track, arrow, and fractional thumb glyphs.
type GlyphSet struct {
	TrackVertical string

	ArrowVerticalStart string
	ArrowVerticalEnd   string

	ThumbVerticalLower [8]string
	ThumbVerticalUpper [8]string
}

// MinimalGlyphSet returns the minimal glyph set (space track, fractional thumbs).
func MinimalGlyphSet() GlyphSet {
	g := LegacyComputingGlyphSet()
	g.TrackVertical = " "
	return g
}

// LegacyComputingGlyphSet returns legacy-computing symbols for full 1/8 fractional fidelity.
func LegacyComputingGlyphSet() GlyphSet {
	return GlyphSet{
		TrackVertical: "│",

		ArrowVerticalStart: "▲",
		ArrowVerticalEnd:   "▼",

		ThumbVerticalLower: [8]string{"▁", "▂", "▃", "▄", "▅", "▆", "▇", "█"},
		ThumbVerticalUpper: [8]string{"▔", "🮂", "🮃", "▀", "🮄", "🮅", "🮆", "█"},
	}
}

// UnicodeGlyphSet returns a standard-unicode-only approximation set.
func UnicodeGlyphSet() GlyphSet {
	return GlyphSet{
		TrackVertical: "│",

		ArrowVerticalStart: "▲",
		ArrowVerticalEnd:   "▼",

		ThumbVerticalLower: [8]string{"▁", "▂", "▃", "▄", "▅", "▆", "▇", "█"},
		ThumbVerticalUpper: [8]string{"▔", "▔", "▀", "▀", "▀", "▀", "█", "█"},
	}
}

// ScrollBar renders a vertical scroll bar for a [virtual.Extent]. It does not
// scroll anything itself; user interaction is reported through the changed
// handler with the requested offset.
type ScrollBar struct {
	*Box

	autoHide bool
	extent   virtual.Extent

	trackStyle tcell.Style
	thumbStyle tcell.Style
	arrowStyle tcell.Style

	glyphSet GlyphSet
	arrows   ScrollBarArrows

	trackClickBehavior TrackClickBehavior
	scrollStep         int
	showTrack          bool

	// Set while the thumb is dragged.
	dragging bool

	changed func(offset float64)
}

// NewScrollBar returns a new vertical scroll bar.
func NewScrollBar() *ScrollBar {
	return &ScrollBar{
		Box:                NewBox(),
		autoHide:           true,
		trackStyle:         tcell.StyleDefault.Dim(true),
		thumbStyle:         tcell.StyleDefault.Foreground(Styles.ScrollBarColor),
		arrowStyle:         tcell.StyleDefault.Dim(true),
		glyphSet:           MinimalGlyphSet(),
		arrows:             ScrollBarArrowsNone,
		trackClickBehavior: TrackClickBehaviorPage,
		scrollStep:         1,
		showTrack:          true,
	}
}

// SetExtent sets the content, viewport, and offset to display.
func (s *ScrollBar) SetExtent(extent virtual.Extent) *ScrollBar {
	if s.extent != extent {
		s.extent = extent
		s.MarkDirty()
	}
	return s
}

// Extent returns the displayed extent.
func (s *ScrollBar) Extent() virtual.Extent {
	return s.extent
}

// SetChangedFunc sets the handler called with the offset requested by a
// click, drag, or wheel event.
func (s *ScrollBar) SetChangedFunc(handler func(offset float64)) *ScrollBar {
	s.changed = handler
	return s
}

// SetGlyphSet applies a glyph set.
func (s *ScrollBar) SetGlyphSet(g GlyphSet) *ScrollBar {
	s.glyphSet = g
	s.MarkDirty()
	return s
}

// SetArrows sets which arrow endcaps are rendered.
func (s *ScrollBar) SetArrows(arrows ScrollBarArrows) *ScrollBar {
	if s.arrows != arrows {
		s.arrows = arrows
		s.MarkDirty()
	}
	return s
}

// SetTrackClickBehavior sets behavior used for track clicks.
func (s *ScrollBar) SetTrackClickBehavior(behavior TrackClickBehavior) *ScrollBar {
	s.trackClickBehavior = behavior
	return s
}

// SetScrollStep sets how many extent steps a wheel or arrow event scrolls.
func (s *ScrollBar) SetScrollStep(step int) *ScrollBar {
	s.scrollStep = max(step, 1)
	return s
}

// SetAutoHide controls whether the scroll bar is hidden when there is nothing
// to scroll.
func (s *ScrollBar) SetAutoHide(autoHide bool) *ScrollBar {
	if s.autoHide != autoHide {
		s.autoHide = autoHide
		s.MarkDirty()
	}
	return s
}

// SetThumbStyle sets the thumb style.
func (s *ScrollBar) SetThumbStyle(style tcell.Style) *ScrollBar {
	if s.thumbStyle != style {
		s.thumbStyle = style
		s.MarkDirty()
	}
	return s
}

// SetTrackGlyph sets the track symbol and visibility.
func (s *ScrollBar) SetTrackGlyph(glyph string, visible bool) *ScrollBar {
	s.glyphSet.TrackVertical = glyph
	s.showTrack = visible
	s.MarkDirty()
	return s
}

// SetTrackStyle sets the track style.
func (s *ScrollBar) SetTrackStyle(style tcell.Style) *ScrollBar {
	if s.trackStyle != style {
		s.trackStyle = style
		s.MarkDirty()
	}
	return s
}

func (s *ScrollBar) arrowCount() int {
	n := 0
	if s.arrows.hasStart() {
		n++
	}
	if s.arrows.hasEnd() {
		n++
	}
	return n
}

type scrollMetrics struct {
	trackCells int
	trackLen   int
	thumbLen   int
	thumbStart int
	maxOffset  float64
}

// metrics computes the scroll bar geometry for a bar length in cells.
func (s *ScrollBar) metrics(length int) scrollMetrics {
	return computeScrollMetrics(max(length-s.arrowCount(), 0), s.extent)
}

// computeScrollMetrics lays out the thumb in subcell units so it can move in
// 1/8 cell steps while staying proportional to viewport/content size.
func computeScrollMetrics(trackCells int, extent virtual.Extent) scrollMetrics {
	trackLen := trackCells * subcell
	if trackLen == 0 {
		return scrollMetrics{}
	}

	content := max(extent.Content, 1)
	viewport := min(max(extent.Viewport, 1), content)
	maxOffset := content - viewport
	offset := min(max(extent.Offset, 0), maxOffset)

	if maxOffset <= 0 {
		return scrollMetrics{trackCells: trackCells, trackLen: trackLen, thumbLen: trackLen}
	}

	thumbLen := min(max(int(float64(trackLen)*viewport/content), subcell), trackLen)
	thumbTravel := trackLen - thumbLen
	thumbStart := int(math.Round(float64(thumbTravel) * offset / maxOffset))
	return scrollMetrics{
		trackCells: trackCells,
		trackLen:   trackLen,
		thumbLen:   thumbLen,
		thumbStart: thumbStart,
		maxOffset:  maxOffset,
	}
}

func (s *ScrollBar) shouldDraw(m scrollMetrics) bool {
	if m.trackLen == 0 || s.extent.Content <= 0 {
		return false
	}
	return !s.autoHide || s.extent.Content > s.extent.Viewport
}

func cellFill(m scrollMetrics, cellIndex int) (start int, fillLen int) {
	if m.thumbLen == 0 {
		return 0, 0
	}
	cellStart := cellIndex * subcell
	cellEnd := cellStart + subcell
	thumbEnd := m.thumbStart + m.thumbLen
	start = max(m.thumbStart, cellStart)
	end := min(thumbEnd, cellEnd)
	if end <= start {
		return 0, 0
	}
	// Convert absolute subcell coverage into the cell-local range used to pick a
	// fractional glyph.
	fillLen = min(end-start, subcell)
	start = min(max(start-cellStart, 0), subcell)
	return start, fillLen
}

func (s *ScrollBar) glyphForVertical(start, fillLen int) (string, tcell.Style) {
	if fillLen <= 0 {
		if !s.showTrack {
			return " ", s.trackStyle
		}
		return s.glyphSet.TrackVertical, s.trackStyle
	}
	if fillLen >= subcell {
		return s.glyphSet.ThumbVerticalLower[7], s.thumbStyle
	}
	ix := fillLen - 1
	if start == 0 {
		return s.glyphSet.ThumbVerticalUpper[ix], s.thumbStyle
	}
	return s.glyphSet.ThumbVerticalLower[ix], s.thumbStyle
}

// Draw draws the scroll bar.
func (s *ScrollBar) Draw(screen tcell.Screen) {
	s.DrawForSubclass(screen, s)

	x, y, _, height := s.GetInnerRect()
	m := s.metrics(height)
	if height <= 0 || !s.shouldDraw(m) {
		return
	}

	if s.arrows.hasStart() {
		screen.Put(x, y, s.glyphSet.ArrowVerticalStart, s.arrowStyle)
		y++
	}
	for cell := 0; cell < m.trackCells; cell++ {
		glyph, style := s.glyphForVertical(cellFill(m, cell))
		screen.Put(x, y+cell, glyph, style)
	}
	if s.arrows.hasEnd() {
		screen.Put(x, y+m.trackCells, s.glyphSet.ArrowVerticalEnd, s.arrowStyle)
	}
}

// MouseHandler pages or jumps on track clicks, steps on arrow clicks and wheel
// events, and follows the pointer while the thumb is dragged.
func (s *ScrollBar) MouseHandler(action MouseAction, event *tcell.EventMouse) (Primitive, Command) {
	x, y := event.Position()
	return s.handleMouse(action, x, y)
}

func (s *ScrollBar) handleMouse(action MouseAction, x, y int) (Primitive, Command) {
	if s.dragging {
		switch action {
		case MouseMove:
			_, innerY, _, _ := s.GetInnerRect()
			s.scrollTo(s.jumpOffset(y - innerY))
			return s, RedrawCommand{}
		case MouseLeftUp:
			s.dragging = false
			return nil, nil
		}
		return s, nil
	}
	if !s.InRect(x, y) {
		return nil, nil
	}

	_, innerY, _, _ := s.GetInnerRect()
	row := y - innerY
	switch action {
	case MouseLeftDown:
		if s.onThumb(row) {
			s.dragging = true
			return s, nil
		}
	case MouseLeftClick:
		if offset, ok := s.offsetForRow(row); ok {
			s.scrollTo(offset)
			return nil, RedrawCommand{}
		}
	case MouseScrollUp:
		s.scrollTo(s.extent.Offset - s.stepLength())
		return nil, RedrawCommand{}
	case MouseScrollDown:
		s.scrollTo(s.extent.Offset + s.stepLength())
		return nil, RedrawCommand{}
	}
	return nil, nil
}

func (s *ScrollBar) scrollTo(offset float64) {
	if s.changed != nil {
		s.changed(offset)
	}
}

func (s *ScrollBar) stepLength() float64 {
	return max(s.extent.Step, 1) * float64(s.scrollStep)
}

// trackCell converts a row relative to the inner rect into a track cell.
// Arrow rows yield -1 and the cell count.
func (s *ScrollBar) trackCell(row int) int {
	if s.arrows.hasStart() {
		row--
	}
	return row
}

func (s *ScrollBar) onThumb(row int) bool {
	_, _, _, height := s.GetInnerRect()
	m := s.metrics(height)
	cell := s.trackCell(row)
	if cell < 0 || cell >= m.trackCells {
		return false
	}
	_, fill := cellFill(m, cell)
	return fill > 0
}

// offsetForRow returns the offset requested by a click on row, relative to
// the inner rect. Clicks on the thumb request nothing.
func (s *ScrollBar) offsetForRow(row int) (float64, bool) {
	_, _, _, height := s.GetInnerRect()
	m := s.metrics(height)
	if m.trackLen == 0 || m.maxOffset <= 0 {
		return 0, false
	}
	cell := s.trackCell(row)
	switch {
	case cell < 0:
		return s.extent.Offset - s.stepLength(), true
	case cell >= m.trackCells:
		return s.extent.Offset + s.stepLength(), true
	}

	cellStart := cell * subcell
	switch {
	case s.trackClickBehavior == TrackClickBehaviorJumpToClick:
		return s.jumpOffset(row), true
	case cellStart+subcell <= m.thumbStart:
		return s.extent.Offset - s.extent.Viewport, true
	case cellStart >= m.thumbStart+m.thumbLen:
		return s.extent.Offset + s.extent.Viewport, true
	}
	return 0, false
}

// jumpOffset returns the offset that centers the thumb on row.
func (s *ScrollBar) jumpOffset(row int) float64 {
	_, _, _, height := s.GetInnerRect()
	m := s.metrics(height)
	travel := m.trackLen - m.thumbLen
	if travel <= 0 {
		return 0
	}
	center := s.trackCell(row)*subcell + subcell/2
	thumbStart := min(max(center-m.thumbLen/2, 0), travel)
	return float64(thumbStart) / float64(travel) * m.maxOffset
}

var _ Primitive = &ScrollBar{}
