package money

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSum(t *testing.T) {
	var s Sum
	for i := 0; i < 10; i++ {
		s.Add(0.1)
	}
	assert.Equal(t, 1.0, s.Float())

	s.AddTimes(2.5, 4)
	assert.Equal(t, 11.0, s.Float())
}

func TestRound(t *testing.T) {
	assert.Equal(t, 10.53, Round(10.526))
	assert.Equal(t, 0.0, Round(0.004))
}

func TestFormat(t *testing.T) {
	assert.Contains(t, Format(1234.5), "1.234,50")
}
