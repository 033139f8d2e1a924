package crm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	errs "github.com/amirhossein-jamali/clipforge/internal/domain/error"
	coreport "github.com/amirhossein-jamali/clipforge/internal/domain/port/core"
	"github.com/amirhossein-jamali/clipforge/internal/domain/port/gateway"
	"github.com/amirhossein-jamali/clipforge/internal/infrastructure/adapter/httpclient"
)

const (
	provider          = "crm"
	DefaultBaseURL    = "https://services.leadconnectorhq.com"
	DefaultAPIVersion = "2021-07-28"

	// maxMediaBytes caps a video re-hosted through the media library
	maxMediaBytes = 500 << 20
)

// Config configures the CRM client
type Config struct {
	BaseURL      string
	APIVersion   string
	AgencyAPIKey string
	CompanyID    string
	Timeout      time.Duration
	MaxRetries   int
}

// Client talks to the CRM REST API
type Client struct {
	cfg      Config
	api      *httpclient.Executor
	media    *httpclient.Executor
	download *http.Client
	logger   coreport.Logger
}

// NewClient creates a new CRM client
func NewClient(cfg Config, logger coreport.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.APIVersion == "" {
		cfg.APIVersion = DefaultAPIVersion
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}

	return &Client{
		cfg: cfg,
		api: httpclient.NewExecutor(&http.Client{Timeout: cfg.Timeout}, httpclient.Options{
			Name:       "crm",
			MaxRetries: cfg.MaxRetries,
			BaseDelay:  250 * time.Millisecond,
			MaxDelay:   3 * time.Second,
		}, logger),
		media: httpclient.NewExecutor(&http.Client{Timeout: 3 * time.Minute}, httpclient.Options{
			Name:       "crm-media",
			MaxRetries: cfg.MaxRetries,
			BaseDelay:  time.Second,
			MaxDelay:   5 * time.Second,
		}, logger),
		download: &http.Client{Timeout: 2 * time.Minute},
		logger:   logger,
	}
}

// AgencyConfigured reports whether an agency key is set
func (c *Client) AgencyConfigured() bool {
	return c.cfg.AgencyAPIKey != ""
}

func (c *Client) request(method, path string, query url.Values, apiKey string, body io.Reader, contentType string) (*http.Request, error) {
	u := c.cfg.BaseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequest(method, u, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+apiKey)
	req.Header.Set("Version", c.cfg.APIVersion)
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	return req, nil
}

// call runs a JSON request and decodes the answer into a generic document
func (c *Client) call(ctx context.Context, method, path string, query url.Values, apiKey string, payload any) (map[string]any, error) {
	var encoded []byte
	if payload != nil {
		var err error
		if encoded, err = json.Marshal(payload); err != nil {
			return nil, err
		}
	}

	resp, err := c.api.Do(ctx, func(ctx context.Context) (*http.Request, error) {
		var body io.Reader
		contentType := ""
		if encoded != nil {
			body = bytes.NewReader(encoded)
			contentType = "application/json"
		}
		req, err := c.request(method, path, query, apiKey, body, contentType)
		if err != nil {
			return nil, err
		}
		return req.WithContext(ctx), nil
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	return decodeDocument(resp.Body)
}

func decodeDocument(r io.Reader) (map[string]any, error) {
	var decoded any
	if err := json.NewDecoder(r).Decode(&decoded); err != nil {
		if errors.Is(err, io.EOF) {
			return map[string]any{}, nil
		}
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	switch v := decoded.(type) {
	case map[string]any:
		return v, nil
	case []any:
		return map[string]any{"data": v}, nil
	default:
		return map[string]any{}, nil
	}
}

// VerifyLocation checks that the agency can see locationID
func (c *Client) VerifyLocation(ctx context.Context, locationID string) (*gateway.CRMLocation, error) {
	if !c.AgencyConfigured() {
		return nil, errs.NewUpstreamError(provider, "agency credential is not configured", 0, nil)
	}

	doc, err := c.call(ctx, http.MethodGet, "/locations/"+url.PathEscape(locationID), nil, c.cfg.AgencyAPIKey, nil)
	if err != nil {
		if status := statusOf(err); status == http.StatusNotFound || status == http.StatusUnauthorized {
			return nil, fmt.Errorf("%w: location %s", errs.ErrNotFound, locationID)
		}
		return nil, errs.NewUpstreamError(provider, "failed to validate location", statusOf(err), err)
	}

	location := parseLocation(doc)
	if location.ID == "" {
		return nil, fmt.Errorf("%w: location %s", errs.ErrNotFound, locationID)
	}
	if c.cfg.CompanyID != "" && location.CompanyID != c.cfg.CompanyID {
		c.logger.Warn("Location belongs to another agency", map[string]any{
			"location_id": locationID,
			"company_id":  location.CompanyID,
		})
		return nil, errs.ErrForbidden
	}
	return location, nil
}

// GetLocation validates a sub-account key by reading its location
func (c *Client) GetLocation(ctx context.Context, apiKey, locationID string) (*gateway.CRMLocation, error) {
	doc, err := c.call(ctx, http.MethodGet, "/locations/"+url.PathEscape(locationID), nil, apiKey, nil)
	if err != nil {
		return nil, locationError(err)
	}
	location := parseLocation(doc)
	if location.ID == "" {
		return nil, errs.NewUpstreamError(provider, "Could not retrieve location info", 0, nil)
	}
	return location, nil
}

func locationError(err error) error {
	status := statusOf(err)
	message := "Failed to validate API key. Please try again."
	switch status {
	case http.StatusUnauthorized:
		message = `Invalid API key or insufficient permissions. Make sure you have the "locations.readonly" scope enabled.`
	case http.StatusForbidden:
		message = "API key does not have access to this location. Check your Private Integration scopes."
	case http.StatusNotFound:
		message = "Location not found. Please verify your Location ID."
	case http.StatusUnprocessableEntity:
		message = "Invalid Location ID format."
	}
	return errs.NewUpstreamError(provider, message, status, err)
}

// GetBusiness reads the first business of the location, which carries a
// better display name when the key has the scope for it
func (c *Client) GetBusiness(ctx context.Context, apiKey, locationID string) (*gateway.CRMLocation, error) {
	doc, err := c.call(ctx, http.MethodGet, "/businesses/", url.Values{"locationId": {locationID}}, apiKey, nil)
	if err != nil {
		return nil, errs.NewUpstreamError(provider, "business info unavailable", statusOf(err), err)
	}
	businesses := listAt(doc, "businesses")
	if len(businesses) == 0 {
		return nil, fmt.Errorf("%w: no business for location %s", errs.ErrNotFound, locationID)
	}
	b := businesses[0]
	return &gateway.CRMLocation{
		ID:           locationID,
		BusinessName: str(b, "name"),
		Email:        str(b, "email"),
		Phone:        str(b, "phone"),
	}, nil
}

// ListSocialAccounts returns the location's connected social profiles
func (c *Client) ListSocialAccounts(ctx context.Context, apiKey, locationID string) ([]gateway.SocialAccount, error) {
	path := "/social-media-posting/" + url.PathEscape(locationID) + "/accounts"
	doc, err := c.call(ctx, http.MethodGet, path, nil, apiKey, nil)
	if err != nil {
		status := statusOf(err)
		message := "Failed to fetch connected social media accounts."
		switch status {
		case http.StatusUnauthorized:
			message = "Unauthorized. Check your API key and socialplanner/account.readonly scope."
		case http.StatusForbidden:
			message = "Access denied. The socialplanner/account.readonly scope may not be enabled."
		}
		return nil, errs.NewUpstreamError(provider, message, status, err)
	}
	return parseAccounts(doc), nil
}

// FirstUserID returns the id of the location's first CRM user
func (c *Client) FirstUserID(ctx context.Context, apiKey, locationID string) (string, error) {
	doc, err := c.call(ctx, http.MethodGet, "/users/", url.Values{"locationId": {locationID}}, apiKey, nil)
	if err != nil {
		return "", errs.NewUpstreamError(provider, "failed to fetch CRM users", statusOf(err), err)
	}
	users := listAt(doc, "users")
	if len(users) == 0 {
		if results, ok := doc["results"].(map[string]any); ok {
			users = listAt(results, "users")
		}
	}
	if len(users) == 0 {
		users = listAt(doc, "data")
	}
	for _, u := range users {
		if id := firstString(u, "id", "_id"); id != "" {
			return id, nil
		}
	}
	return "", fmt.Errorf("%w: no CRM user for location %s", errs.ErrNotFound, locationID)
}

// CreateSocialPost publishes or schedules a post. The CRM's answer is
// returned as-is with the post id lifted to "postId".
func (c *Client) CreateSocialPost(ctx context.Context, apiKey, locationID string, post gateway.SocialPost) (map[string]any, error) {
	body := map[string]any{
		"accountIds": post.AccountIDs,
		"summary":    post.Summary,
		"media":      []string{post.MediaURL},
		"type":       "post",
	}
	if post.CRMUserID != "" {
		body["userId"] = post.CRMUserID
	}
	if post.ScheduleDate != nil {
		body["status"] = "scheduled"
		body["scheduleDate"] = post.ScheduleDate.UTC().Format(time.RFC3339)
	}

	path := "/social-media-posting/" + url.PathEscape(locationID) + "/posts"
	doc, err := c.call(ctx, http.MethodPost, path, nil, apiKey, body)
	if err != nil {
		return nil, postError(err)
	}

	if id := postID(doc); id != "" {
		doc["postId"] = id
	}
	return doc, nil
}

func postError(err error) error {
	status := statusOf(err)
	message := "Failed to create social media post. Please try again."
	switch status {
	case http.StatusUnauthorized:
		message = "Unauthorized. Check your API key and socialplanner/post.write scope."
	case http.StatusBadRequest:
		message = "Bad request: " + bodyMessage(err, "Invalid request.")
	case http.StatusUnprocessableEntity:
		message = "Validation error: " + bodyMessage(err, "Validation failed.")
	}
	return errs.NewUpstreamError(provider, message, status, err)
}

// UploadMediaFromURL downloads sourceURL and uploads it to the media library
func (c *Client) UploadMediaFromURL(ctx context.Context, apiKey, locationID, sourceURL string) (string, error) {
	content, contentType, err := c.fetch(ctx, sourceURL)
	if err != nil {
		return "", errs.NewUpstreamError(provider, "Failed to download the video for upload.", 0, err)
	}

	filename := fmt.Sprintf("video-%d.mp4", time.Now().UnixMilli())
	resp, err := c.media.Do(ctx, func(ctx context.Context) (*http.Request, error) {
		var buf bytes.Buffer
		form := multipart.NewWriter(&buf)
		part, err := form.CreatePart(map[string][]string{
			"Content-Disposition": {fmt.Sprintf(`form-data; name="file"; filename="%s"`, filename)},
			"Content-Type":        {contentType},
		})
		if err != nil {
			return nil, err
		}
		if _, err := part.Write(content); err != nil {
			return nil, err
		}
		_ = form.WriteField("hosted", "true")
		_ = form.WriteField("fileProcessingType", "video")
		if err := form.Close(); err != nil {
			return nil, err
		}

		req, err := c.request(http.MethodPost, "/medias/upload-file", url.Values{"locationId": {locationID}}, apiKey, &buf, form.FormDataContentType())
		if err != nil {
			return nil, err
		}
		return req.WithContext(ctx), nil
	})
	if err != nil {
		message := "Failed to upload video to media storage."
		if statusOf(err) == http.StatusUnauthorized {
			message = "Unauthorized. Check your API key and medias.write scope."
		}
		return "", errs.NewUpstreamError(provider, message, statusOf(err), err)
	}
	defer resp.Body.Close()

	doc, err := decodeDocument(resp.Body)
	if err != nil {
		return "", errs.NewUpstreamError(provider, "Upload returned an unreadable response.", resp.StatusCode, err)
	}
	hosted := firstString(doc, "url", "fileUrl")
	if hosted == "" {
		return "", errs.NewUpstreamError(provider, "Upload succeeded but no URL was returned.", resp.StatusCode, nil)
	}

	c.logger.Info("Video re-hosted in media library", map[string]any{
		"location_id": locationID,
		"bytes":       len(content),
	})
	return hosted, nil
}

func (c *Client) fetch(ctx context.Context, sourceURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return nil, "", err
	}
	resp, err := c.download.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, "", &httpclient.StatusError{StatusCode: resp.StatusCode}
	}

	content, err := io.ReadAll(io.LimitReader(resp.Body, maxMediaBytes+1))
	if err != nil {
		return nil, "", err
	}
	if len(content) > maxMediaBytes {
		return nil, "", fmt.Errorf("media exceeds %d bytes", maxMediaBytes)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "video/mp4"
	}
	return content, contentType, nil
}

func statusOf(err error) int {
	var statusErr *httpclient.StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode
	}
	return 0
}

func bodyMessage(err error, fallback string) string {
	var statusErr *httpclient.StatusError
	if !errors.As(err, &statusErr) {
		return fallback
	}
	var doc map[string]any
	if json.Unmarshal([]byte(statusErr.Body), &doc) != nil {
		return fallback
	}
	if msg := firstString(doc, "message", "error"); msg != "" {
		return msg
	}
	return fallback
}
