package services

import (
	"context"
	"time"
)

// BackgroundRemover détoure une image via une API compatible remove.bg.
type BackgroundRemover struct {
	api *apiClient
}

func NewBackgroundRemover(baseURL, apiKey string, timeout time.Duration) *BackgroundRemover {
	return &BackgroundRemover{
		api: newAPIClient("removebg", baseURL, timeout, map[string]string{"X-Api-Key": apiKey}),
	}
}

type removeBgRequest struct {
	ImageURL string `json:"image_url"`
	Size     string `json:"size"`
	Format   string `json:"format"`
}

// Remove renvoie le PNG détouré de l'image située à imageURL.
func (r *BackgroundRemover) Remove(ctx context.Context, imageURL string) ([]byte, error) {
	return r.api.postJSON(ctx, "/removebg",
		removeBgRequest{ImageURL: imageURL, Size: "auto", Format: "png"},
		map[string]string{"Accept": "image/png"})
}
