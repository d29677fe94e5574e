package terminal

import "testing"

func feedAll(p *inputParser, data string) ([]Event, bool) {
	var events []Event
	pending := p.feed([]byte(data), func(ev Event) { events = append(events, ev) })
	return events, pending
}

// TestParsePrintable tests ASCII and multibyte runes arrive with Key 0
func TestParsePrintable(t *testing.T) {
	p := newInputParser()
	events, pending := feedAll(p, "aé")
	if pending {
		t.Errorf("Expected no pending ESC")
	}
	if len(events) != 2 {
		t.Fatalf("Expected 2 events, got %d", len(events))
	}
	if events[0].Key != 0 || events[0].Ch != 'a' {
		t.Errorf("Expected ch 'a', got key=%v ch=%q", events[0].Key, events[0].Ch)
	}
	if events[1].Ch != 'é' {
		t.Errorf("Expected ch 'é', got %q", events[1].Ch)
	}
}

// TestParseSplitUTF8 tests a rune split across reads is reassembled
func TestParseSplitUTF8(t *testing.T) {
	p := newInputParser()
	b := []byte("€")
	events, _ := feedAll(p, string(b[:1]))
	if len(events) != 0 {
		t.Fatalf("Expected no events for partial rune, got %d", len(events))
	}
	events, _ = feedAll(p, string(b[1:]))
	if len(events) != 1 || events[0].Ch != '€' {
		t.Errorf("Expected '€', got %+v", events)
	}
}

// TestParseControlBytes tests control bytes map to their ASCII key codes
func TestParseControlBytes(t *testing.T) {
	tests := []struct {
		in   string
		want Key
	}{
		{"\x01", KeyCtrlA},
		{"\x08", KeyBackspace},
		{"\t", KeyTab},
		{"\r", KeyEnter},
		{" ", KeySpace},
		{"\x7f", KeyBackspace2},
		{"\x00", KeyCtrlSpace},
	}
	for _, tt := range tests {
		events, _ := feedAll(newInputParser(), tt.in)
		if len(events) != 1 {
			t.Errorf("%q: expected 1 event, got %d", tt.in, len(events))
			continue
		}
		if events[0].Key != tt.want || events[0].Ch != 0 {
			t.Errorf("%q: expected key %v, got key=%v ch=%q", tt.in, tt.want, events[0].Key, events[0].Ch)
		}
	}
}

// TestParseEscapeSequences tests CSI and SS3 lookups
func TestParseEscapeSequences(t *testing.T) {
	tests := []struct {
		in   string
		want Key
		mod  Modifier
	}{
		{"\x1b[A", KeyArrowUp, 0},
		{"\x1bOB", KeyArrowDown, 0},
		{"\x1b[3~", KeyDelete, 0},
		{"\x1b[5~", KeyPgup, 0},
		{"\x1b[24~", KeyF12, 0},
		{"\x1bOP", KeyF1, 0},
		{"\x1b[[A", KeyF1, 0},
		{"\x1b[1;3C", KeyArrowRight, ModAlt},
		{"\x1b[1;5D", KeyArrowLeft, 0},
	}
	for _, tt := range tests {
		events, pending := feedAll(newInputParser(), tt.in)
		if pending {
			t.Errorf("%q: expected sequence to complete", tt.in)
		}
		if len(events) != 1 {
			t.Errorf("%q: expected 1 event, got %d", tt.in, len(events))
			continue
		}
		if events[0].Key != tt.want || events[0].Mod != tt.mod {
			t.Errorf("%q: expected %v mod=%d, got %v mod=%d", tt.in, tt.want, tt.mod, events[0].Key, events[0].Mod)
		}
	}
}

// TestParseUnknownCSISwallowed tests unknown sequences produce nothing
func TestParseUnknownCSISwallowed(t *testing.T) {
	events, _ := feedAll(newInputParser(), "\x1b[99zq")
	if len(events) != 1 || events[0].Ch != 'q' {
		t.Errorf("Expected only 'q', got %+v", events)
	}
}

// TestLoneEscapeFlush tests a lone ESC waits for the timeout flush
func TestLoneEscapeFlush(t *testing.T) {
	p := newInputParser()
	events, pending := feedAll(p, "\x1b")
	if !pending {
		t.Fatalf("Expected pending ESC")
	}
	if len(events) != 0 {
		t.Fatalf("Expected no events before flush, got %d", len(events))
	}

	var flushed []Event
	p.flush(func(ev Event) { flushed = append(flushed, ev) })
	if len(flushed) != 1 || flushed[0].Key != KeyEsc {
		t.Errorf("Expected KeyEsc after flush, got %+v", flushed)
	}
}

// TestEscModeVersusAltMode tests ESC+key handling under each input mode
func TestEscModeVersusAltMode(t *testing.T) {
	p := newInputParser()
	events, _ := feedAll(p, "\x1bx")
	if len(events) != 2 || events[0].Key != KeyEsc || events[1].Ch != 'x' || events[1].Mod != 0 {
		t.Errorf("Esc mode: expected Esc then 'x', got %+v", events)
	}

	p = newInputParser()
	p.setMode(InputAlt)
	events, _ = feedAll(p, "\x1bx")
	if len(events) != 1 || events[0].Ch != 'x' || events[0].Mod != ModAlt {
		t.Errorf("Alt mode: expected Alt+'x', got %+v", events)
	}
}

// TestParseSGRMouse tests mouse reports honor the mouse input mode
func TestParseSGRMouse(t *testing.T) {
	p := newInputParser()
	events, _ := feedAll(p, "\x1b[<0;10;5M")
	if len(events) != 0 {
		t.Errorf("Expected mouse report swallowed without InputMouse, got %+v", events)
	}

	p.setMode(InputEsc | InputMouse)
	events, _ = feedAll(p, "\x1b[<0;10;5M\x1b[<0;10;5m\x1b[<64;1;1M\x1b[<34;3;4M")
	if len(events) != 4 {
		t.Fatalf("Expected 4 mouse events, got %d", len(events))
	}
	if events[0].Type != EventMouse || events[0].Key != MouseLeft || events[0].X != 9 || events[0].Y != 4 {
		t.Errorf("Expected left press at 9,4, got %+v", events[0])
	}
	if events[1].Key != MouseRelease {
		t.Errorf("Expected release, got %v", events[1].Key)
	}
	if events[2].Key != MouseWheelUp {
		t.Errorf("Expected wheel up, got %v", events[2].Key)
	}
	if events[3].Key != MouseRight || events[3].Mod&ModMotion == 0 {
		t.Errorf("Expected right drag with motion, got %v mod=%d", events[3].Key, events[3].Mod)
	}
}

// TestParseSGRParams tests parameter extraction and rejection
func TestParseSGRParams(t *testing.T) {
	btn, x, y, ok := parseSGRParams([]byte("32;120;45"))
	if !ok || btn != 32 || x != 120 || y != 45 {
		t.Errorf("Expected 32,120,45, got %d,%d,%d ok=%v", btn, x, y, ok)
	}
	if _, _, _, ok := parseSGRParams([]byte("1;2")); ok {
		t.Errorf("Expected two params to be rejected")
	}
	if _, _, _, ok := parseSGRParams([]byte("1;x;2")); ok {
		t.Errorf("Expected non-digit to be rejected")
	}
}
