package logger

import "testing"

func TestNewProductionLogger(t *testing.T) {
	t.Parallel()

	for _, debug := range []bool{true, false} {
		l, err := NewProductionLogger(debug)
		if err != nil || l == nil {
			t.Fatalf("NewProductionLogger(%v) = %v, %v", debug, l, err)
		}
	}
}

func TestNewDevelopmentLogger(t *testing.T) {
	t.Parallel()

	l, err := NewDevelopmentLogger(true)
	if err != nil || l == nil {
		t.Fatalf("NewDevelopmentLogger() = %v, %v", l, err)
	}
}

func TestSync_NilLogger(t *testing.T) {
	t.Parallel()

	if err := Sync(nil); err != nil {
		t.Errorf("Sync(nil) = %v", err)
	}
}
