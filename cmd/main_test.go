package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOutputName(t *testing.T) {
	assert.Equal(t, "ReportedeAntigüedad_15052025.xlsx",
		outputName("/tmp/cartera.xlsx", "15052025", false, ""))
	assert.Equal(t, "ReportedeAntigüedad_15052025_colaboradores.xlsx",
		outputName("/tmp/cartera.xlsx", "15052025", false, "_colaboradores"))

	// Several inputs in one run must not collide on the same output path.
	a := outputName("/tmp/cartera_norte.xlsx", "15052025", true, "")
	b := outputName("/tmp/cartera_sur.xlsx", "15052025", true, "")
	assert.Equal(t, "ReportedeAntigüedad_cartera_norte_15052025.xlsx", a)
	assert.Equal(t, "ReportedeAntigüedad_cartera_sur_15052025.xlsx", b)
	assert.NotEqual(t, a, b)
}
