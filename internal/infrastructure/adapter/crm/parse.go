package crm

import (
	"fmt"
	"strings"

	"github.com/amirhossein-jamali/clipforge/internal/domain/port/gateway"
)

// The CRM nests the same data differently across endpoints and versions;
// these helpers read a generic JSON document and fall back to zero values.

func str(m map[string]any, key string) string {
	switch v := m[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return fmt.Sprint(v)
	default:
		return ""
	}
}

func firstString(m map[string]any, keys ...string) string {
	for _, key := range keys {
		if s := str(m, key); s != "" {
			return s
		}
	}
	return ""
}

func object(m map[string]any, key string) map[string]any {
	inner, _ := m[key].(map[string]any)
	return inner
}

func listAt(m map[string]any, key string) []map[string]any {
	raw, _ := m[key].([]any)
	out := make([]map[string]any, 0, len(raw))
	for _, item := range raw {
		if obj, ok := item.(map[string]any); ok {
			out = append(out, obj)
		}
	}
	return out
}

// parseLocation reads a location from {"location": {...}} or a bare object
func parseLocation(doc map[string]any) *gateway.CRMLocation {
	loc := object(doc, "location")
	if loc == nil {
		loc = doc
	}
	return &gateway.CRMLocation{
		ID:        firstString(loc, "id", "_id"),
		Name:      str(loc, "name"),
		Email:     str(loc, "email"),
		Phone:     str(loc, "phone"),
		CompanyID: str(loc, "companyId"),
	}
}

// parseAccounts reads results.accounts, accounts or data
func parseAccounts(doc map[string]any) []gateway.SocialAccount {
	raw := listAt(object(doc, "results"), "accounts")
	if len(raw) == 0 {
		raw = listAt(doc, "accounts")
	}
	if len(raw) == 0 {
		raw = listAt(doc, "data")
	}

	accounts := make([]gateway.SocialAccount, 0, len(raw))
	for _, acc := range raw {
		meta := object(acc, "meta")

		name := firstString(acc, "name", "pageName", "accountName")
		if name == "" {
			name = str(meta, "name")
		}
		if name == "" {
			name = "Unknown Account"
		}

		platform := firstString(acc, "platform", "type", "channel")
		if platform == "" {
			platform = "unknown"
		}

		avatar := firstString(acc, "avatar", "profilePicture", "thumbnail")
		if avatar == "" {
			avatar = str(meta, "picture")
		}

		accounts = append(accounts, gateway.SocialAccount{
			ID:       firstString(acc, "id", "_id"),
			Name:     name,
			Platform: strings.ToLower(platform),
			Type:     firstString(acc, "type", "accountType"),
			Avatar:   avatar,
		})
	}
	return accounts
}

func postID(doc map[string]any) string {
	if id := firstString(doc, "id", "postId", "_id"); id != "" {
		return id
	}
	return firstString(object(doc, "results"), "id", "postId")
}
