package assetstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTracker(t *testing.T) {
	tr := NewTracker()
	assert.False(t, tr.State().Active)

	tr.Begin("Refreshing", "Validating", 0.1)
	first := tr.State()
	assert.True(t, first.Active)
	assert.Equal(t, "Validating", first.Message)

	tr.Begin("Refreshing", "Saving", 0.8)
	second := tr.State()
	assert.Equal(t, 0.8, second.Fraction)
	assert.Equal(t, first.StartedAt, second.StartedAt)

	tr.End()
	assert.Equal(t, ProgressState{}, tr.State())
}

func TestRenderBar(t *testing.T) {
	tests := []struct {
		name     string
		fraction float64
		width    int
		want     string
	}{
		{"empty", 0, 80, "[....................]   0% Index: start"},
		{"half", 0.5, 80, "[##########..........]  50% Index: start"},
		{"clamped", 1.5, 80, "[####################] 100% Index: start"},
		{"truncated", 0, 11, "[........."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, renderBar("Index", "start", tt.fraction, tt.width))
		})
	}
}

func TestNopProgress(t *testing.T) {
	var p Progress = NopProgress{}
	p.Begin("a", "b", 0.5)
	p.End()
}
