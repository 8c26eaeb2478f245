package services

import (
	"context"
	"net/url"
	"strings"
	"time"

	"codpage_back_end/internal/apperrors"
)

// SignedURL génère une URL de lecture temporaire pour un objet du bucket.
// objectPath peut être une clé ou une URL publique déjà construite.
func (m *MinioCDN) SignedURL(ctx context.Context, objectPath string, duration time.Duration) (string, error) {
	key := objectPath
	if m.publicURL != "" {
		key = strings.TrimPrefix(key, m.publicURL+"/"+m.bucket+"/")
	}

	presignedURL, err := m.client.PresignedGetObject(ctx, m.bucket, key, duration, make(url.Values))
	if err != nil {
		return "", apperrors.Transient("cdn", err)
	}
	return presignedURL.String(), nil
}
