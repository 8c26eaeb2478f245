package services

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"codpage_back_end/internal/apperrors"

	"github.com/minio/minio-go/v7"
)

// MinioCDN stocke les images traitées dans un bucket MinIO.
// Sans URL publique configurée, les objets sont servis par URL signée.
type MinioCDN struct {
	client    *minio.Client
	bucket    string
	publicURL string
	signedTTL time.Duration
}

func NewMinioCDN(client *minio.Client, bucket, publicURL string) *MinioCDN {
	return &MinioCDN{
		client:    client,
		bucket:    bucket,
		publicURL: strings.TrimRight(publicURL, "/"),
		signedTTL: 7 * 24 * time.Hour,
	}
}

// Upload envoie data sous la clé name et renvoie l'URL à publier.
func (m *MinioCDN) Upload(ctx context.Context, name string, data []byte, contentType string) (string, error) {
	if m == nil || m.client == nil {
		return "", apperrors.Transient("cdn", fmt.Errorf("MinIO non initialisé"))
	}

	_, err := m.client.PutObject(ctx, m.bucket, name, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType, CacheControl: "public, max-age=31536000"})
	if err != nil {
		return "", apperrors.Transient("cdn", err)
	}
	log.Printf("📦 Image envoyée sur MinIO: %s/%s (%d octets)", m.bucket, name, len(data))

	if m.publicURL != "" {
		return fmt.Sprintf("%s/%s/%s", m.publicURL, m.bucket, name), nil
	}
	return m.SignedURL(ctx, name, m.signedTTL)
}
