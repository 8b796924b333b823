package token

import "testing"

func TestFromPos(t *testing.T) {
	p := Pos{Offset: 12, Line: 3, Column: 5}
	got := FromPos("a.sif", p)
	if got.Filename != "a.sif" || got.Line != 4 || got.Column != 6 {
		t.Fatalf("FromPos: got %+v", got)
	}
}

func TestPositionString(t *testing.T) {
	pos := Position{Filename: "a.sif", Line: 4, Column: 6}
	if got, want := pos.String(), "a.sif:4:6"; got != want {
		t.Fatalf("String: got %q want %q", got, want)
	}
}

func TestRangeString(t *testing.T) {
	r := Range{Start: Pos{Line: 0, Column: 0}, End: Pos{Line: 0, Column: 5}}
	if got, want := RangeString("a.sif", r), "a.sif:1:1"; got != want {
		t.Fatalf("same line/col collapses: got %q want %q", got, want)
	}

	r2 := Range{Start: Pos{Line: 0, Column: 0}, End: Pos{Line: 1, Column: 2}}
	if got, want := RangeString("a.sif", r2), "a.sif:1:1-2:3"; got != want {
		t.Fatalf("widened range: got %q want %q", got, want)
	}
}
