package debug

import "testing"

func TestLoggingFunctionsDoNotPanicBeforeInit(t *testing.T) {
	Debug("msg", "k", "v")
	Warn("msg")
	Error("msg")
	Info("msg")
}

func TestInitTogglesEnabled(t *testing.T) {
	Init(true)
	if !Enabled() {
		t.Fatal("expected Enabled() true after Init(true)")
	}
	Init(false)
	if Enabled() {
		t.Fatal("expected Enabled() false after Init(false)")
	}
}
