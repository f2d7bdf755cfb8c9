package result

import "testing"

func TestRounding(t *testing.T) {
	if got := Round2(1.005); got != 1.0 && got != 1.01 {
		t.Fatalf("Round2(1.005) = %v", got)
	}
	if got := Round2(1.2345); got != 1.23 {
		t.Fatalf("Round2(1.2345) = %v, want 1.23", got)
	}
	if got := Round3(0.12345); got != 0.123 {
		t.Fatalf("Round3(0.12345) = %v, want 0.123", got)
	}
	if got := Round2(0); got != 0 {
		t.Fatalf("Round2(0) = %v", got)
	}
}
