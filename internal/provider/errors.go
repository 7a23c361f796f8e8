package provider

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/vadym312/AI-Chatbot/internal/domain"
)

// upstreamError is the error body shape the provider returns on non-2xx.
type upstreamError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error"`
}

// regionCode is the provider-specific code for region-blocked access.
const regionCode = "unsupported_country_region_territory"

// classifyUpstream maps an upstream status and error body to the closest
// taxonomy entry. Unrecognized failures collapse to the generic one.
func classifyUpstream(status int, body []byte) *domain.Error {
	var ue upstreamError
	_ = json.Unmarshal(body, &ue)
	code := strings.ToLower(ue.Error.Code)
	typ := strings.ToLower(ue.Error.Type)
	msg := strings.ToLower(ue.Error.Message)

	switch {
	case code == regionCode || strings.Contains(msg, "country, region, or territory"):
		return domain.ErrRegionRestricted
	case status == http.StatusUnauthorized:
		return domain.ErrInvalidAPIKey
	case status == http.StatusTooManyRequests:
		return domain.ErrRateLimited
	case code == "content_policy_violation" || strings.Contains(typ, "content_policy"):
		return domain.ErrContentPolicy
	case strings.Contains(msg, "safety system") || strings.Contains(typ, "moderation"):
		return domain.ErrSafety
	case status >= 500:
		return domain.ErrModelUnavailable
	default:
		return domain.ErrProcessing
	}
}
