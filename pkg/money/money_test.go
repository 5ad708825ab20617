package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestPercentRoundsHalfAwayFromZero(t *testing.T) {
	// 10% of 0.05 is 0.005 which rounds up to 0.01
	assert.True(t, Percent(MustParse("0.05"), decimal.NewFromInt(10)).Equal(MustParse("0.01")))
	assert.True(t, Percent(MustParse("1000"), decimal.NewFromInt(10)).Equal(MustParse("100")))
	assert.True(t, Percent(MustParse("99.99"), decimal.NewFromInt(15)).Equal(MustParse("15.00")))
}

func TestFloorZero(t *testing.T) {
	assert.True(t, FloorZero(MustParse("-12.50")).IsZero())
	assert.True(t, FloorZero(MustParse("3.20")).Equal(MustParse("3.2")))
}

func TestLineAndSum(t *testing.T) {
	line := Line(MustParse("19.99"), 3)
	assert.Equal(t, "59.97", line.StringFixed(Scale))
	assert.Equal(t, "69.97", Sum(line, MustParse("10")).StringFixed(Scale))
	assert.True(t, Sum().IsZero())
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "ZMW 950.00", Format(MustParse("950")))
}
