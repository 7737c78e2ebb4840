package vlist

import "github.com/rivo/uniseg"

// stepState represents the current state of the grapheme parser.
type stepState struct {
	unisegState int
	boundaries  int
	grossLength int
}

// LineBreak returns whether the string can be broken into the next line after
// the returned grapheme cluster.
func (s *stepState) LineBreak() (lineBreak, optional bool) {
	switch s.boundaries & uniseg.MaskLine {
	case uniseg.LineCanBreak:
		return true, true
	case uniseg.LineMustBreak:
		return true, false
	}
	return false, false
}

// Width returns the grapheme cluster's width in cells.
func (s *stepState) Width() int {
	return s.boundaries >> uniseg.ShiftWidth
}

// GrossLength returns the grapheme cluster's length in bytes.
func (s *stepState) GrossLength() int {
	return s.grossLength
}

// step iterates over grapheme clusters of a string.
func step(str string, state *stepState) (cluster, rest string, newState *stepState) {
	if state == nil {
		state = &stepState{
			unisegState: -1,
		}
	}
	if len(str) == 0 {
		newState = state
		return
	}

	preState := state.unisegState
	cluster, rest, state.boundaries, state.unisegState = uniseg.StepString(str, preState)
	state.grossLength = len(cluster)
	if rest == "" && !uniseg.HasTrailingLineBreakInString(cluster) {
		state.boundaries &^= uniseg.MaskLine
	}

	newState = state
	return
}

// span is a byte range [start, end) of a string.
type span struct {
	start, end int
}

// wrapLines splits text into lines no wider than width cells and returns
// their byte ranges. Lines break at line break opportunities when possible;
// hard line breaks are not part of the returned ranges, and a space at a wrap
// point is dropped. Empty text yields one empty line.
func wrapLines(text string, width int) []span {
	if width <= 0 {
		return nil
	}

	var (
		state     *stepState
		cluster   string
		lines     []span
		lineStart int
		lineWidth int
		pos       int
		// Last byte offset where the line may break, or -1.
		lastOption      = -1
		lastOptionWidth int
	)
	str := text
	for len(str) > 0 {
		cluster, str, state = step(str, state)
		cWidth := state.Width()

		if lineWidth+cWidth > width && pos > lineStart {
			switch {
			case cluster == " ":
				lines = append(lines, span{lineStart, pos})
				pos += state.GrossLength()
				lineStart, lineWidth, lastOption = pos, 0, -1
				continue
			case lastOption < 0:
				lines = append(lines, span{lineStart, pos})
				lineStart, lineWidth = pos, 0
			default:
				lines = append(lines, span{lineStart, lastOption})
				lineStart = lastOption
				lineWidth -= lastOptionWidth
				lastOption = -1
			}
		}

		pos += state.GrossLength()
		lineWidth += cWidth

		if lineBreak, optional := state.LineBreak(); lineBreak {
			if optional {
				lastOption, lastOptionWidth = pos, lineWidth
			} else {
				lines = append(lines, span{lineStart, trimLineBreak(text, lineStart, pos)})
				lineStart, lineWidth, lastOption = pos, 0, -1
			}
		}
	}
	lines = append(lines, span{lineStart, trimLineBreak(text, lineStart, len(text))})

	return lines
}

func trimLineBreak(text string, start, end int) int {
	for end > start && (text[end-1] == '\n' || text[end-1] == '\r') {
		end--
	}
	return end
}
