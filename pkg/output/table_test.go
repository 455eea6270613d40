package output

import (
	"strings"
	"testing"
	"time"
)

func TestTable_AlignsColumns(t *testing.T) {
	table := NewTable("ID", "Title", "Ratio")
	table.AddRow("421", "Add rate limiting", "1/2")
	table.AddRow("7", "Fix typo", "0/0")

	out := table.Render()
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected header, separator and 2 rows, got %d lines", len(lines))
	}

	// Every data line should place the ratio column at the same offset.
	idx1 := strings.Index(lines[2], "1/2")
	idx2 := strings.Index(lines[3], "0/0")
	if idx1 != idx2 {
		t.Errorf("ratio column misaligned: %d vs %d", idx1, idx2)
	}
}

func TestTable_ShortRowsPadded(t *testing.T) {
	table := NewTable("A", "B")
	table.AddRow("only")

	out := table.Render()
	if !strings.Contains(out, "only") {
		t.Errorf("missing cell in output:\n%s", out)
	}
}

func TestVoteCell_PassesThroughText(t *testing.T) {
	// Styles may or may not emit ANSI depending on the terminal profile;
	// the code itself must survive either way.
	for _, status := range []string{"Apprvd", "Sugges", "Reject", "Wait4A", "NoVote", "---", "Unknow"} {
		if got := VoteCell(status); !strings.Contains(got, status) {
			t.Errorf("VoteCell(%q) lost the status text: %q", status, got)
		}
	}
}

func TestRatioCell_PassesThroughText(t *testing.T) {
	for _, ratio := range []string{"0/0", "1/2", "2/2", "0/3"} {
		if got := RatioCell(ratio); !strings.Contains(got, ratio) {
			t.Errorf("RatioCell(%q) lost the ratio text: %q", ratio, got)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("short", 10); got != "short" {
		t.Errorf("expected unchanged string, got %q", got)
	}
	if got := Truncate("a long pull request title", 10); len([]rune(got)) != 10 {
		t.Errorf("expected 10 runes, got %q (%d)", got, len([]rune(got)))
	}
	if got := Truncate("abcdef", 10); got != "abcdef" {
		t.Errorf("expected %q, got %q", "abcdef", got)
	}
}

func TestAge(t *testing.T) {
	if got := Age(time.Time{}); got != "-" {
		t.Errorf("zero time: expected -, got %q", got)
	}
	if got := Age(time.Now().Add(-30 * time.Minute)); got != "30m" && got != "29m" {
		t.Errorf("expected ~30m, got %q", got)
	}
	if got := Age(time.Now().Add(-50 * time.Hour)); got != "2d" {
		t.Errorf("expected 2d, got %q", got)
	}
}

func TestRatioComplete(t *testing.T) {
	tests := []struct {
		ratio string
		want  bool
	}{
		{"2/2", true},
		{"1/2", false},
		{"0/0", true},
		{"garbage", false},
	}
	for _, tt := range tests {
		if got := ratioComplete(tt.ratio); got != tt.want {
			t.Errorf("ratioComplete(%q): expected %v, got %v", tt.ratio, tt.want, got)
		}
	}
}
