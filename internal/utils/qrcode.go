package utils

import (
	"encoding/base64"

	"github.com/skip2/go-qrcode"
)

// GenerateQRCode génère un QR code PNG 256x256 pour une URL
func GenerateQRCode(url string) ([]byte, error) {
	return qrcode.Encode(url, qrcode.Medium, 256)
}

// GenerateQRCodeBase64 retourne le QR en base64 prêt à mettre dans <img src="...">
func GenerateQRCodeBase64(url string) (string, error) {
	png, err := GenerateQRCode(url)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}
