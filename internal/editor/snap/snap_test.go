package snap

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSnap_OutsideThresholdIsNoop(t *testing.T) {
	f := TemplateFrame()
	size := Size{W: 40, H: 20}

	cases := []struct{ x, y float64 }{
		{0, 0},
		{240, 370},
		{233.5, 401},
		{100, 700},
	}
	for _, c := range cases {
		res := f.Snap(c.x, c.y, size)
		assert.Equal(t, Result{X: c.x, Y: c.y}, res, "input (%v,%v)", c.x, c.y)
	}
}

func TestSnap_CentersWithinThreshold(t *testing.T) {
	f := TemplateFrame()
	size := Size{W: 40, H: 20}

	// center x = 250 is 6.5 from 243.5; y is far away.
	res := f.Snap(230, 10, size)
	assert.True(t, res.GuideX)
	assert.False(t, res.GuideY)
	assert.Equal(t, 223.5, res.X)
	assert.Equal(t, float64(10), res.Y)

	// center y = 395 is 4 from 391.
	res = f.Snap(10, 385, size)
	assert.False(t, res.GuideX)
	assert.True(t, res.GuideY)
	assert.Equal(t, float64(10), res.X)
	assert.Equal(t, float64(381), res.Y)
}

func TestSnap_ThresholdIsStrict(t *testing.T) {
	f := Frame{Width: 100, Height: 100, Threshold: 10}
	// center exactly 10 away does not snap.
	res := f.Snap(60, 0, Size{})
	assert.False(t, res.GuideX)
	assert.Equal(t, float64(60), res.X)
}

func TestSnap_AlreadyCentered(t *testing.T) {
	f := TemplateFrame()
	res := f.Snap(223.5, 381, Size{W: 40, H: 20})
	assert.Equal(t, Result{X: 223.5, Y: 381, GuideX: true, GuideY: true}, res)
}

func TestSnap_DragScenario(t *testing.T) {
	f := TemplateFrame()
	size := Size{W: 40, H: 20}

	// center (260,398): 16.5 off horizontally, 7 off vertically.
	first := f.Snap(240, 388, size)
	assert.False(t, first.GuideX)
	assert.True(t, first.GuideY)
	assert.Equal(t, float64(240), first.X)
	assert.Equal(t, float64(381), first.Y)

	second := f.Snap(223.5, 381, size)
	assert.True(t, second.GuideX && second.GuideY)
	assert.Equal(t, 223.5, second.X)
	assert.Equal(t, float64(381), second.Y)
}

func TestSnap_Offsets(t *testing.T) {
	f := Frame{Width: 100, Height: 100, OffsetX: 20, OffsetY: 20, Threshold: 5}
	res := f.Snap(52, 48, Size{W: 20, H: 20})
	assert.Equal(t, Result{X: 52, Y: 48}, res)

	res = f.Snap(58, 62, Size{W: 20, H: 20})
	assert.Equal(t, Result{X: 60, Y: 60, GuideX: true, GuideY: true}, res)
}

func TestSnap_NaNPropagates(t *testing.T) {
	res := TemplateFrame().Snap(math.NaN(), 0, Size{W: 40, H: 20})
	assert.True(t, math.IsNaN(res.X))
	assert.False(t, res.GuideX)
	assert.False(t, res.Finite())
}
