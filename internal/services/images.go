package services

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"
	"log"

	"codpage_back_end/internal/models"

	"github.com/google/uuid"
	"github.com/nfnt/resize"
)

const (
	optimizedWidth = 1200
	thumbnailWidth = 300
)

// Remover détoure une image distante.
type Remover interface {
	Remove(ctx context.Context, imageURL string) ([]byte, error)
}

// Uploader publie un fichier et renvoie son URL.
type Uploader interface {
	Upload(ctx context.Context, name string, data []byte, contentType string) (string, error)
}

// ImagePipeline : détourage, redimensionnement puis envoi sur le CDN.
type ImagePipeline struct {
	remover  Remover
	uploader Uploader
	newID    func() string
}

func NewImagePipeline(remover Remover, uploader Uploader) *ImagePipeline {
	return &ImagePipeline{remover: remover, uploader: uploader, newID: uuid.NewString}
}

// Process traite une image. Toute erreur est renvoyée telle quelle :
// c'est à l'appelant de retomber sur l'image d'origine.
func (p *ImagePipeline) Process(ctx context.Context, imageURL, alt string) (models.ProcessedImage, error) {
	cutout, err := p.remover.Remove(ctx, imageURL)
	if err != nil {
		return models.ProcessedImage{}, err
	}

	img, _, err := image.Decode(bytes.NewReader(cutout))
	if err != nil {
		return models.ProcessedImage{}, fmt.Errorf("décodage image détourée: %w", err)
	}

	prefix := "landing/" + p.newID()
	out := models.ProcessedImage{Original: imageURL, Alt: alt}

	if out.BackgroundRemoved, err = p.uploader.Upload(ctx, prefix+"/cutout.png", cutout, "image/png"); err != nil {
		return models.ProcessedImage{}, err
	}
	if out.Optimized, err = p.uploadResized(ctx, img, optimizedWidth, prefix+"/optimized.png"); err != nil {
		return models.ProcessedImage{}, err
	}
	if out.Thumbnail, err = p.uploadResized(ctx, img, thumbnailWidth, prefix+"/thumb.png"); err != nil {
		return models.ProcessedImage{}, err
	}

	log.Printf("🖼️ Image traitée: %s", imageURL)
	return out, nil
}

func (p *ImagePipeline) uploadResized(ctx context.Context, img image.Image, width uint, name string) (string, error) {
	data, err := resizePNG(img, width)
	if err != nil {
		return "", err
	}
	return p.uploader.Upload(ctx, name, data, "image/png")
}

// resizePNG réduit img à la largeur demandée (jamais d'agrandissement) et l'encode en PNG.
func resizePNG(img image.Image, width uint) ([]byte, error) {
	if uint(img.Bounds().Dx()) > width {
		img = resize.Resize(width, 0, img, resize.Lanczos3)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encodage PNG: %w", err)
	}
	return buf.Bytes(), nil
}
