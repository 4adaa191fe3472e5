package lyrics

import "testing"

func ptr(i int64) *int64 { return &i }

func testLines() []Line {
	return []Line{
		{StartTime: 0, EndTime: ptr(1000), Text: "line0"},
		{StartTime: 2000, EndTime: ptr(3000), Text: "line1"},
		{StartTime: 4000, EndTime: ptr(5000), Text: "line2"},
	}
}

func TestCurrentLine_TestableProperty6(t *testing.T) {
	cases := []struct {
		position int64
		want     string
	}{
		{500, "line0"},
		{1500, "line0"}, // gap carry
		{2500, "line1"},
		{3500, "line1"},
		{5500, "line2"},
	}

	lines := testLines()
	for _, c := range cases {
		got := currentLine(lines, c.position)
		if got == nil {
			t.Errorf("position %d: got nil, want %q", c.position, c.want)
			continue
		}
		if got.Text != c.want {
			t.Errorf("position %d: got %q, want %q", c.position, got.Text, c.want)
		}
	}
}

func TestCurrentLine_BeforeFirstLine(t *testing.T) {
	if got := currentLine(testLines(), -100); got != nil {
		t.Errorf("got %v, want nil before the first line starts", got)
	}
}

func TestCurrentLine_UnsyncedEndTimeEqualsStart(t *testing.T) {
	lines := []Line{{StartTime: 1000, Text: "only"}}
	if got := currentLine(lines, 1000); got == nil || got.Text != "only" {
		t.Errorf("got %v, want exact match at StartTime with nil EndTime", got)
	}
	if got := currentLine(lines, 1001); got == nil || got.Text != "only" {
		t.Errorf("got %v, want gap carry past an unsynced single line", got)
	}
}

func TestRelay_CurrentLineNilWhenCellsUnset(t *testing.T) {
	r := New()
	if got := r.CurrentLine(); got != nil {
		t.Errorf("got %v, want nil with no lyrics/progress set", got)
	}

	r.SetLyrics(Lyrics{Lines: testLines()})
	if got := r.CurrentLine(); got != nil {
		t.Errorf("got %v, want nil with lyrics set but no progress", got)
	}

	r.SetProgress(Progress{Position: 500})
	if got := r.CurrentLine(); got == nil || got.Text != "line0" {
		t.Errorf("got %v, want line0 once both cells are set", got)
	}
}

func TestRelay_SnapshotIsolation(t *testing.T) {
	r := New()
	r.SetLyrics(Lyrics{Track: Track{Title: "A"}})
	snap := r.Lyrics()
	r.SetLyrics(Lyrics{Track: Track{Title: "B"}})
	if snap.Track.Title != "A" {
		t.Errorf("earlier snapshot mutated: got %q, want %q", snap.Track.Title, "A")
	}
}
