// Package qr generates and decodes the QR codes that carry a student's
// registration number.
package qr

import (
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/makiuchi-d/gozxing"
	zxqr "github.com/makiuchi-d/gozxing/qrcode"
	qrcode "github.com/skip2/go-qrcode"
)

// ErrNoCode is returned when no QR code is visible in the image.
var ErrNoCode = errors.New("no qr code found")

// size is the generated QR image edge length in pixels.
const size = 256

// Generate writes a PNG QR code containing the registration number to
// dir and returns the file path.
func Generate(dir, regNo string) (string, error) {
	if regNo == "" {
		return "", fmt.Errorf("registration number must not be empty")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create qr directory: %w", err)
	}

	path := filepath.Join(dir, regNo+".png")
	if err := qrcode.WriteFile(regNo, qrcode.Medium, size, path); err != nil {
		return "", fmt.Errorf("write qr code: %w", err)
	}
	return path, nil
}

// Decode extracts the registration number from a QR code visible in the
// image. Frames without a readable code return ErrNoCode.
func Decode(img image.Image) (string, error) {
	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return "", fmt.Errorf("prepare bitmap: %w", err)
	}

	result, err := zxqr.NewQRCodeReader().Decode(bmp, nil)
	if err != nil {
		return "", ErrNoCode
	}
	return result.GetText(), nil
}
