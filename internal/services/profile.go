package services

import (
	"strings"

	"github.com/damacus/bucket-explorer/internal/models"
)

// NormalizeProfile trims the connection fields and applies the default region
func NormalizeProfile(p models.ConnectionProfile) models.ConnectionProfile {
	p.Endpoint = strings.TrimSpace(p.Endpoint)
	p.AccessKeyID = strings.TrimSpace(p.AccessKeyID)
	p.SecretAccessKey = strings.TrimSpace(p.SecretAccessKey)
	p.Region = strings.TrimSpace(p.Region)
	if p.Region == "" {
		p.Region = models.DefaultRegion
	}
	return p
}

// ValidateProfile rejects profiles missing endpoint, access key id or secret
func ValidateProfile(p models.ConnectionProfile) error {
	if strings.TrimSpace(p.Endpoint) == "" ||
		strings.TrimSpace(p.AccessKeyID) == "" ||
		strings.TrimSpace(p.SecretAccessKey) == "" {
		return ErrInvalidProfile()
	}
	return nil
}
