package agentchat

import "unicode/utf8"

// TextStreamer chops a finished answer into token events for transports
// that expect incremental delivery. Chunks are split on rune boundaries
// so multi-byte characters are never torn across frames.
type TextStreamer struct {
	chunkSize int
}

// NewTextStreamer creates a TextStreamer emitting chunkSize runes per
// token. A chunkSize below 1 streams one rune at a time.
func NewTextStreamer(chunkSize int) *TextStreamer {
	if chunkSize < 1 {
		chunkSize = 1
	}
	return &TextStreamer{chunkSize: chunkSize}
}

// Stream emits text as a sequence of token events through the emitter.
// An empty text emits nothing. Streaming stops early if the emitter is
// cancelled.
func (s *TextStreamer) Stream(text string, emitter *EventEmitter) {
	for len(text) > 0 {
		select {
		case <-emitter.Cancelled():
			return
		default:
		}

		end := 0
		for i := 0; i < s.chunkSize && end < len(text); i++ {
			_, size := utf8.DecodeRuneInString(text[end:])
			end += size
		}
		emitter.Emit(TokenEvent(text[:end]))
		text = text[end:]
	}
}
