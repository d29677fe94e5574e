package terminal

import (
	"bytes"
	"strconv"
	"strings"
	"testing"
)

// TestFlushWritesOnlyChanges tests the second flush of an unchanged buffer writes no cells
func TestFlushWritesOnlyChanges(t *testing.T) {
	var out bytes.Buffer
	o := newOutputBuffer(&out)
	back := NewCellBuffer(4, 2)
	back.Set(1, 0, Cell{Ch: 'h', Fg: ColorRed})

	if err := o.flush(back); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if !strings.Contains(out.String(), "h") {
		t.Errorf("Expected first flush to draw 'h', got %q", out.String())
	}
	if !strings.Contains(out.String(), "\x1b[0;31m") {
		t.Errorf("Expected red foreground SGR, got %q", out.String())
	}

	out.Reset()
	if err := o.flush(back); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if out.String() != string(csiSGR0) {
		t.Errorf("Expected only SGR reset on unchanged flush, got %q", out.String())
	}

	out.Reset()
	back.Set(3, 1, Cell{Ch: 'z'})
	o.flush(back)
	if !strings.Contains(out.String(), "\x1b[2;4H") || !strings.Contains(out.String(), "z") {
		t.Errorf("Expected cursor move to row 2 col 4 and 'z', got %q", out.String())
	}
}

// TestWriteStyleModes tests SGR color encoding per output mode
func TestWriteStyleModes(t *testing.T) {
	tests := []struct {
		mode OutputMode
		fg   Attribute
		bg   Attribute
		want string
	}{
		{OutputNormal, ColorGreen | AttrBold, ColorDefault, "\x1b[0;1;32m"},
		{OutputNormal, ColorDefault | AttrUnderline, ColorBlue | AttrReverse, "\x1b[0;4;7;44m"},
		{Output256, 196, 0, "\x1b[0;38;5;196;48;5;0m"},
		{Output216, 0, 1, "\x1b[0;38;5;16;48;5;17m"},
		{OutputGrayscale, 0, 23, "\x1b[0;38;5;232;48;5;255m"},
	}
	for _, tt := range tests {
		var out bytes.Buffer
		o := newOutputBuffer(&out)
		o.mode = tt.mode
		o.writeStyle(o.writer, tt.fg, tt.bg)
		o.writer.Flush()
		if out.String() != tt.want {
			t.Errorf("mode %d: expected %q, got %q", tt.mode, tt.want, out.String())
		}
	}
}

// TestSetModeRepaints tests switching output mode invalidates drawn cells
func TestSetModeRepaints(t *testing.T) {
	var out bytes.Buffer
	o := newOutputBuffer(&out)
	back := NewCellBuffer(2, 1)
	back.Set(0, 0, Cell{Ch: 'q'})
	o.flush(back)

	o.setMode(Output256)
	out.Reset()
	o.flush(back)
	if !strings.Contains(out.String(), "q") {
		t.Errorf("Expected repaint after mode change, got %q", out.String())
	}
}

// TestWriteInt tests allocation-free integer formatting
func TestWriteInt(t *testing.T) {
	for _, n := range []int{0, 7, 42, 255, 999, 1000, 123456} {
		var out bytes.Buffer
		o := newOutputBuffer(&out)
		writeInt(o.writer, n)
		o.writer.Flush()
		if want := strconv.Itoa(n); out.String() != want {
			t.Errorf("Expected %s, got %s", want, out.String())
		}
	}
}
