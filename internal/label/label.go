package label

import (
	"errors"
	"fmt"
	"strings"

	"github.com/skip2/go-qrcode"
)

// Label edge lengths in pixels.
const (
	MinSize     = 128
	MaxSize     = 1024
	DefaultSize = 256
)

// ErrEmptyCode is returned for a blank device code.
var ErrEmptyCode = errors.New("device code is empty")

// ClampSize keeps size within [MinSize, MaxSize]; zero or negative selects
// DefaultSize.
func ClampSize(size int) int {
	switch {
	case size <= 0:
		return DefaultSize
	case size < MinSize:
		return MinSize
	case size > MaxSize:
		return MaxSize
	}
	return size
}

// PNG renders code as a square QR asset tag of the given edge length.
func PNG(code string, size int) ([]byte, error) {
	qr, err := newCode(code)
	if err != nil {
		return nil, err
	}
	png, err := qr.PNG(ClampSize(size))
	if err != nil {
		return nil, fmt.Errorf("failed to render QR label: %w", err)
	}
	return png, nil
}

// Text renders code as a block-character QR for terminals, followed by the
// code itself.
func Text(code string) (string, error) {
	qr, err := newCode(code)
	if err != nil {
		return "", err
	}
	return qr.ToSmallString(false) + strings.TrimSpace(code) + "\n", nil
}

func newCode(code string) (*qrcode.QRCode, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, ErrEmptyCode
	}
	qr, err := qrcode.New(code, qrcode.High)
	if err != nil {
		return nil, fmt.Errorf("failed to generate new QR code: %w", err)
	}
	return qr, nil
}
