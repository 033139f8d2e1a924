package entity

import "strings"

// Service is the generation engine family a video is sent to
type Service string

// Supported services
const (
	ServiceSora Service = "sora"
	ServiceVeo3 Service = "veo3"
)

// Tier selects the model quality within a service
type Tier string

// Model tiers
const (
	TierStandard Tier = "standard"
	TierPro      Tier = "pro"
)

// DefaultVideoCost is charged for any (service, tier) pair missing from the price table
const DefaultVideoCost int64 = 5

type priceKey struct {
	service Service
	tier    Tier
}

var priceTable = map[priceKey]int64{
	{ServiceSora, TierStandard}: 5,
	{ServiceSora, TierPro}:      20,
	{ServiceVeo3, TierStandard}: 5,
	{ServiceVeo3, TierPro}:      20,
}

// CostFor returns the credits charged for one video. It is total: unknown
// inputs fall back to DefaultVideoCost.
func CostFor(service Service, tier Tier) int64 {
	if cost, ok := priceTable[priceKey{service, tier}]; ok {
		return cost
	}
	return DefaultVideoCost
}

// ParseService normalises the labels clients send ("SORA", "VEO 3", "veo3")
func ParseService(s string) (Service, bool) {
	switch strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), " ", "")) {
	case "", "sora", "sora2":
		return ServiceSora, true
	case "veo3", "veo":
		return ServiceVeo3, true
	default:
		return "", false
	}
}

// ParseTier accepts either a tier name or a model label such as "SORA 2 Pro"
func ParseTier(s string) Tier {
	v := strings.ToLower(strings.TrimSpace(s))
	if v == string(TierPro) || strings.HasSuffix(v, " pro") || strings.HasSuffix(v, "-pro") {
		return TierPro
	}
	return TierStandard
}
