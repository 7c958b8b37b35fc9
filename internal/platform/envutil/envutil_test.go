package envutil

import "testing"

func TestFloat(t *testing.T) {
	t.Setenv("FLOAT_SET", " 1.5 ")
	if got := Float("FLOAT_SET", 1.0); got != 1.5 {
		t.Fatalf("set: want=1.5 got=%v", got)
	}
	if got := Float("FLOAT_UNSET", 2.0); got != 2.0 {
		t.Fatalf("unset: want=2.0 got=%v", got)
	}
	t.Setenv("FLOAT_BAD", "lots")
	if got := Float("FLOAT_BAD", 3.0); got != 3.0 {
		t.Fatalf("malformed: want=3.0 got=%v", got)
	}
}
