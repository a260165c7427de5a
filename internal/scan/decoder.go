package scan

import (
	"image"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/datamatrix"
	"github.com/makiuchi-d/gozxing/oned"
	"github.com/makiuchi-d/gozxing/qrcode"

	"equipment-ledger-backend/internal/parse"
)

// Decoder extracts code text from a single frame.
type Decoder interface {
	// Decode returns the decoded text, or ok=false when the frame holds no
	// readable code.
	Decode(img image.Image) (text string, ok bool)
}

type namedReader struct {
	format string
	reader gozxing.Reader
}

// ZXingDecoder tries the QR, Data Matrix and common 1D symbologies in turn.
type ZXingDecoder struct {
	readers []namedReader
	hints   map[gozxing.DecodeHintType]interface{}
}

// NewDecoder creates a decoder for the formats printed on asset tags.
func NewDecoder() *ZXingDecoder {
	return &ZXingDecoder{
		readers: []namedReader{
			{format: "qr", reader: qrcode.NewQRCodeReader()},
			{format: "datamatrix", reader: datamatrix.NewDataMatrixReader()},
			{format: "code128", reader: oned.NewCode128Reader()},
			{format: "code39", reader: oned.NewCode39Reader()},
			{format: "ean13", reader: oned.NewEAN13Reader()},
			{format: "ean8", reader: oned.NewEAN8Reader()},
		},
		hints: map[gozxing.DecodeHintType]interface{}{
			gozxing.DecodeHintType_TRY_HARDER: true,
		},
	}
}

func (d *ZXingDecoder) Decode(img image.Image) (string, bool) {
	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return "", false
	}
	for _, r := range d.readers {
		result, err := r.reader.Decode(bmp, d.hints)
		if err != nil {
			continue
		}
		if text := parse.ScanText(result.GetText()); text != "" {
			return text, true
		}
	}
	return "", false
}
