package extraction

import (
	"bytes"
	"encoding/base64"
	"strings"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"
)

// stripDataURI returns the payload of a data URI, or s unchanged when it has
// no "data:...," prefix.
func stripDataURI(s string) string {
	if strings.HasPrefix(s, "data:") {
		if i := strings.IndexByte(s, ','); i >= 0 {
			return s[i+1:]
		}
	}
	return s
}

// prepareImage decodes the upload, fits it inside maxEdge and re-encodes it
// as JPEG. Anything that does not decode as an image is returned as is.
func prepareImage(image string, maxEdge, quality int) string {
	payload := stripDataURI(image)

	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return payload
	}

	img, err := imaging.Decode(bytes.NewReader(raw), imaging.AutoOrientation(true))
	if err != nil {
		return payload
	}

	if b := img.Bounds(); maxEdge > 0 && (b.Dx() > maxEdge || b.Dy() > maxEdge) {
		img = imaging.Fit(img, maxEdge, maxEdge, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return payload
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}
