package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCostFor(t *testing.T) {
	assert.Equal(t, int64(5), CostFor(ServiceSora, TierStandard))
	assert.Equal(t, int64(20), CostFor(ServiceSora, TierPro))
	assert.Equal(t, int64(5), CostFor(ServiceVeo3, TierStandard))
	assert.Equal(t, int64(20), CostFor(ServiceVeo3, TierPro))
	assert.Equal(t, DefaultVideoCost, CostFor("unknown", TierPro))
}

func TestParseService(t *testing.T) {
	for in, want := range map[string]Service{
		"":      ServiceSora,
		"SORA":  ServiceSora,
		"sora2": ServiceSora,
		"VEO 3": ServiceVeo3,
		"veo3":  ServiceVeo3,
	} {
		got, ok := ParseService(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}

	_, ok := ParseService("kling")
	assert.False(t, ok)
}

func TestParseTier(t *testing.T) {
	assert.Equal(t, TierPro, ParseTier("pro"))
	assert.Equal(t, TierPro, ParseTier("SORA 2 Pro"))
	assert.Equal(t, TierPro, ParseTier("veo-3-pro"))
	assert.Equal(t, TierStandard, ParseTier(""))
	assert.Equal(t, TierStandard, ParseTier("SORA 2"))
}
