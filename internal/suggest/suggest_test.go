package suggest

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClosest(t *testing.T) {
	passes := []string{"contraction", "clear_loop", "scan_loop", "copy_mul_loop"}

	tests := []struct {
		name string
		want string
		ok   bool
	}{
		{"contration", "contraction", true},
		{"scan_lop", "scan_loop", true},
		{"CLEAR_LOOP", "clear_loop", true},
		{"xyz", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Closest(tt.name, passes)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestUnknownError(t *testing.T) {
	err := Unknown("target", "rsut", []string{"c", "go", "ir", "rust"})
	assert.Equal(t, "rust", err.Suggestion)
	assert.Equal(t, `unknown target "rsut" (did you mean "rust"?): must be one of c, go, ir, rust`, err.Error())

	err = Unknown("level", "turbo", []string{"none", "light"})
	assert.Empty(t, err.Suggestion)
	assert.Equal(t, `unknown level "turbo": must be one of none, light`, err.Error())
}
