package agentchat

import "testing"

func streamToSlice(text string, chunkSize int) []string {
	emitter := NewEventEmitter("s1", 64)
	NewTextStreamer(chunkSize).Stream(text, emitter)
	emitter.Close()

	var chunks []string
	for ev := range emitter.Events() {
		chunks = append(chunks, ev.Text)
	}
	return chunks
}

func TestTextStreamerSingleRune(t *testing.T) {
	chunks := streamToSlice("abc", 1)
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %v", chunks)
	}
	if chunks[0] != "a" || chunks[1] != "b" || chunks[2] != "c" {
		t.Errorf("unexpected chunks: %v", chunks)
	}
}

func TestTextStreamerMultiByteRunes(t *testing.T) {
	chunks := streamToSlice("héllo wörld", 3)
	joined := ""
	for _, c := range chunks {
		joined += c
	}
	if joined != "héllo wörld" {
		t.Errorf("reassembled text differs: %q", joined)
	}
	for _, c := range chunks {
		for _, r := range c {
			if r == '�' {
				t.Errorf("chunk tore a multi-byte rune: %q", c)
			}
		}
	}
}

func TestTextStreamerEmptyText(t *testing.T) {
	if chunks := streamToSlice("", 4); len(chunks) != 0 {
		t.Errorf("empty text should emit nothing, got %v", chunks)
	}
}

func TestTextStreamerZeroChunkSize(t *testing.T) {
	if chunks := streamToSlice("ab", 0); len(chunks) != 2 {
		t.Errorf("chunk size below 1 should stream rune by rune, got %v", chunks)
	}
}

func TestTextStreamerStopsWhenCancelled(t *testing.T) {
	emitter := NewEventEmitter("s1", 1)
	emitter.Cancel()
	NewTextStreamer(1).Stream("abcdef", emitter)
	emitter.Close()

	for range emitter.Events() {
		t.Error("cancelled emitter should receive nothing")
	}
}
