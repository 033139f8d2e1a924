package video

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/amirhossein-jamali/clipforge/internal/domain/entity"
	"github.com/amirhossein-jamali/clipforge/internal/domain/port/gateway"
)

// ImageLayout tells how source images are named in the worker payload
type ImageLayout int

const (
	ImagesNone   ImageLayout = iota
	ImagesSingle             // image_url
	ImagesFrames             // start_frame_url + end_frame_url
)

// RouteKey selects a dispatch route
type RouteKey struct {
	Service entity.Service
	Tier    entity.Tier
	Type    entity.VideoType
}

// ConfigName is the key of the route's endpoint in configuration,
// e.g. "sora_pro_image"
func (k RouteKey) ConfigName() string {
	kind := "text"
	if k.Type == entity.ImageToVideo {
		kind = "image"
	}
	return fmt.Sprintf("%s_%s_%s", k.Service, k.Tier, kind)
}

// Route is where and how a job is handed to the worker
type Route struct {
	Endpoint string
	Model    string
	Layout   ImageLayout
}

// routeSpecs is the complete routing policy; endpoints come from configuration.
var routeSpecs = map[RouteKey]Route{
	{entity.ServiceSora, entity.TierStandard, entity.TextToVideo}:  {Model: "sora-2", Layout: ImagesNone},
	{entity.ServiceSora, entity.TierPro, entity.TextToVideo}:       {Model: "sora-2-pro", Layout: ImagesNone},
	{entity.ServiceSora, entity.TierStandard, entity.ImageToVideo}: {Model: "sora-2", Layout: ImagesSingle},
	{entity.ServiceSora, entity.TierPro, entity.ImageToVideo}:      {Model: "sora-2-pro", Layout: ImagesSingle},
	{entity.ServiceVeo3, entity.TierStandard, entity.TextToVideo}:  {Model: "veo-3", Layout: ImagesNone},
	{entity.ServiceVeo3, entity.TierPro, entity.TextToVideo}:       {Model: "veo-3-pro", Layout: ImagesNone},
	{entity.ServiceVeo3, entity.TierStandard, entity.ImageToVideo}: {Model: "veo-3", Layout: ImagesFrames},
	{entity.ServiceVeo3, entity.TierPro, entity.ImageToVideo}:      {Model: "veo-3-pro", Layout: ImagesFrames},
}

// DispatchTable resolves a job to its worker endpoint
type DispatchTable struct {
	routes map[RouteKey]Route
}

// NewDispatchTable binds endpoints to the routing policy. endpoints is keyed
// by RouteKey.ConfigName; routes without an entry use defaultURL. Every URL
// must be absolute http(s) and at least one route must be reachable.
func NewDispatchTable(defaultURL string, endpoints map[string]string) (*DispatchTable, error) {
	known := make(map[string]bool, len(routeSpecs))
	routes := make(map[RouteKey]Route, len(routeSpecs))
	reachable := 0

	for key, spec := range routeSpecs {
		name := key.ConfigName()
		known[name] = true

		endpoint := strings.TrimSpace(endpoints[name])
		if endpoint == "" {
			endpoint = strings.TrimSpace(defaultURL)
		}
		if endpoint != "" {
			if err := validateEndpoint(endpoint); err != nil {
				return nil, fmt.Errorf("dispatch route %s: %w", name, err)
			}
			reachable++
		}
		spec.Endpoint = endpoint
		routes[key] = spec
	}

	for name := range endpoints {
		if !known[name] {
			return nil, fmt.Errorf("dispatch route %q is not a known route", name)
		}
	}
	if reachable == 0 {
		return nil, fmt.Errorf("no dispatch endpoint configured")
	}
	return &DispatchTable{routes: routes}, nil
}

// Lookup returns the route for key; ok is false when it has no endpoint
func (t *DispatchTable) Lookup(key RouteKey) (Route, bool) {
	r, found := t.routes[key]
	return r, found && r.Endpoint != ""
}

// Payload builds the worker payload for a job following route's layout
func (r Route) Payload(v *entity.Video, user *entity.User, callbackURL string) gateway.DispatchPayload {
	requested := v.RequestedEmail
	if requested == "" {
		requested = user.Email
	}
	p := gateway.DispatchPayload{
		VideoID:           v.ID.String(),
		UserID:            user.ID.String(),
		UserEmail:         user.Email,
		VideoPrompt:       v.Prompt,
		AdditionalDetails: v.AdditionalDetails,
		CallbackURL:       callbackURL,
		RequestedEmail:    requested,
		AspectRatio:       v.AspectRatio,
		Service:           string(v.Service),
		Model:             r.Model,
		VideoType:         string(v.Type),
	}
	switch r.Layout {
	case ImagesSingle:
		p.ImageURL = v.Images.ImageURL
	case ImagesFrames:
		p.StartFrameURL = v.Images.StartFrameURL
		p.EndFrameURL = v.Images.EndFrameURL
	}
	return p
}

func validateEndpoint(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%q is not an absolute http(s) URL", raw)
	}
	return nil
}
