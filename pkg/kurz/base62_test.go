package kurz

import "testing"

func TestEncode(t *testing.T) {
	tests := []struct {
		want string
		in   uint64
	}{
		{"0", 0},
		{"1", 1},
		{"z", 35},
		{"A", 36},
		{"Z", 61},
		{"10", 62},
		{"11", 63},
		{"2K", 170},
	}
	for _, tt := range tests {
		if got := Encode(tt.in); got != tt.want {
			t.Errorf("Encode(%d): expected %q, got %q", tt.in, tt.want, got)
		}
	}
}

func TestDecode_RoundTrip(t *testing.T) {
	for _, n := range []uint64{0, 1, 61, 62, 1000, 123456789, 1<<53 + 7} {
		got, err := Decode(Encode(n))
		if err != nil {
			t.Fatalf("Decode(Encode(%d)): %v", n, err)
		}
		if got != n {
			t.Errorf("round trip %d: got %d", n, got)
		}
	}
}

func TestDecode_Invalid(t *testing.T) {
	if _, err := Decode(""); err == nil {
		t.Error("expected error for empty key")
	}
	if _, err := Decode("abc!"); err == nil {
		t.Error("expected error for invalid character")
	}
}
