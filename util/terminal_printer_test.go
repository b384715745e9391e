package util

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"
)

func TestTerminalPrinterFinalLines(t *testing.T) {
	var out bytes.Buffer
	p := NewTerminalPrinter(&out, time.Hour)
	first := p.NewLine()
	second := p.NewLine()
	p.Start(context.Background())

	first.Setf("Experiment: %s, Episode %d/%d", "q-learning", 3, 10)
	second.Set("Experiment: sarsa, waiting")
	p.Stop()
	p.Stop()

	text := out.String()
	for _, want := range []string{"q-learning, Episode 3/10", "sarsa, waiting"} {
		if !strings.Contains(text, want) {
			t.Fatalf("output is missing %q:\n%s", want, text)
		}
	}
	if first.Get() != "Experiment: q-learning, Episode 3/10" {
		t.Fatalf("unexpected line text %q", first.Get())
	}
}
