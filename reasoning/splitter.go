// Package reasoning separates inline "thinking" text from regular content in
// streamed model output. Some vendors wrap reasoning in start/end markers
// inside the normal content channel; markers may straddle chunk boundaries.
package reasoning

import "strings"

const (
	// DefaultStartMarker opens an inline reasoning block.
	DefaultStartMarker = "<think>"
	// DefaultEndMarker closes an inline reasoning block.
	DefaultEndMarker = "</think>"
)

// State is the splitter's current channel.
type State int

const (
	// Normal means incoming text is content.
	Normal State = iota
	// InReasoning means incoming text is reasoning.
	InReasoning
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case Normal:
		return "NORMAL"
	case InReasoning:
		return "IN_REASONING"
	default:
		return "UNKNOWN"
	}
}

// Segment is one classified run of text. Runs produced by Feed carry either
// Content or Reasoning; a dedicated-field delta passed to Direct may carry
// both.
type Segment struct {
	Content   string
	Reasoning string
}

// Empty reports whether the segment carries no text.
func (s Segment) Empty() bool { return s.Content == "" && s.Reasoning == "" }

// Splitter is an incremental two-state machine. It is not safe for concurrent
// use; create one per streaming call.
type Splitter struct {
	start, end string
	state      State
	pending    string // unresolved suffix that may be the beginning of a marker
	started    bool   // first non-empty content has been emitted
}

// NewSplitter creates a splitter for the given markers. Empty markers fall
// back to DefaultStartMarker / DefaultEndMarker.
func NewSplitter(start, end string) *Splitter {
	if start == "" {
		start = DefaultStartMarker
	}
	if end == "" {
		end = DefaultEndMarker
	}
	return &Splitter{start: start, end: end}
}

// State returns the current state.
func (s *Splitter) State() State { return s.state }

// Feed classifies the next chunk of text and returns its runs in arrival
// order. Text that could be the beginning of the awaited marker is held back
// until the next call resolves it.
func (s *Splitter) Feed(chunk string) []Segment {
	var out []Segment
	data := s.pending + chunk
	s.pending = ""

	for data != "" {
		marker := s.awaited()
		if idx := strings.Index(data, marker); idx >= 0 {
			out = s.appendRun(out, data[:idx])
			data = data[idx+len(marker):]
			s.toggle()
			continue
		}
		keep := partialMarkerSuffix(data, marker)
		out = s.appendRun(out, data[:len(data)-keep])
		s.pending = data[len(data)-keep:]
		break
	}

	return out
}

// Direct handles a delta whose vendor supplied a dedicated reasoning field.
// The inline marker scan is skipped for that delta; text still held back from
// an earlier Feed is released first.
func (s *Splitter) Direct(content, reasoning string) []Segment {
	var out []Segment
	if seg := s.Flush(); !seg.Empty() {
		out = append(out, seg)
	}
	if seg := s.segment(content, reasoning); !seg.Empty() {
		out = append(out, seg)
	}
	return out
}

// Flush releases any held-back text into the current channel. Call it once
// the stream is exhausted.
func (s *Splitter) Flush() Segment {
	if s.pending == "" {
		return Segment{}
	}
	text := s.pending
	s.pending = ""
	if s.state == InReasoning {
		return Segment{Reasoning: text}
	}
	return s.segment(text, "")
}

func (s *Splitter) awaited() string {
	if s.state == InReasoning {
		return s.end
	}
	return s.start
}

func (s *Splitter) toggle() {
	if s.state == InReasoning {
		s.state = Normal
		return
	}
	s.state = InReasoning
}

// appendRun classifies text by the current state. Adjacent runs of the same
// channel (an empty block between them) are merged.
func (s *Splitter) appendRun(out []Segment, text string) []Segment {
	var seg Segment
	if s.state == InReasoning {
		seg = Segment{Reasoning: text}
	} else {
		seg = s.segment(text, "")
	}
	if seg.Empty() {
		return out
	}
	if n := len(out); n > 0 {
		last := &out[n-1]
		switch {
		case seg.Content != "" && last.Reasoning == "":
			last.Content += seg.Content
			return out
		case seg.Reasoning != "" && last.Content == "":
			last.Reasoning += seg.Reasoning
			return out
		}
	}
	return append(out, seg)
}

// segment applies the one-time leading whitespace trim to content.
func (s *Splitter) segment(content, reasoning string) Segment {
	if !s.started && content != "" {
		content = strings.TrimLeft(content, " \t\r\n")
		if content != "" {
			s.started = true
		}
	}
	return Segment{Content: content, Reasoning: reasoning}
}

// partialMarkerSuffix returns the length of the longest suffix of data that
// is a proper prefix of marker.
func partialMarkerSuffix(data, marker string) int {
	n := len(marker) - 1
	if n > len(data) {
		n = len(data)
	}
	for ; n > 0; n-- {
		if strings.HasSuffix(data, marker[:n]) {
			return n
		}
	}
	return 0
}
