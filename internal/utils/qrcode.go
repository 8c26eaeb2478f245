package utils

import (
	"encoding/base64"

	"github.com/skip2/go-qrcode"
)

// PageQRCode génère le QR code d'une URL en base64 prêt à mettre dans <img src="...">
func PageQRCode(url string) (string, error) {
	png, err := qrcode.Encode(url, qrcode.Medium, 256)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}
