package number

import (
	"testing"

	"github.com/bmizerany/assert"
)

func TestCeil(t *testing.T) {
	data := map[string]string{
		"0.10304":     "0.11",
		"0.100000001": "0.11",
		"0.108":       "0.11",
	}

	for k, v := range data {
		t.Run(k, func(t *testing.T) {
			c := Ceil(Decimal(k), 2)
			assert.Equal(t, v, c.String(), "should be ceil")
		})
	}
}

func TestFloor(t *testing.T) {
	data := map[string]string{
		"0.10304":     "0.1",
		"0.119999999": "0.11",
	}

	for k, v := range data {
		t.Run(k, func(t *testing.T) {
			c := Floor(Decimal(k), 2)
			assert.Equal(t, v, c.String(), "should be floor")
		})
	}
}

func TestNonNegative(t *testing.T) {
	assert.Equal(t, "0", NonNegative(Decimal("-0.00000001")).String())
	assert.Equal(t, "1.5", NonNegative(Decimal("1.5")).String())
}
