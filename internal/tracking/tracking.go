package tracking

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Generator builds opaque redirect URLs that register a "listing viewed"
// event before forwarding to the source site. The token encodes listing id
// and owning user id and is HMAC-signed so the redirect handler can reject
// tampered links.
type Generator struct {
	baseURL string
	secret  []byte
}

func NewGenerator(baseURL, secret string) *Generator {
	return &Generator{baseURL: strings.TrimSuffix(baseURL, "/"), secret: []byte(secret)}
}

func (g *Generator) URL(listingID, userID string) string {
	payload := base64.RawURLEncoding.EncodeToString([]byte(listingID + "|" + userID))
	return fmt.Sprintf("%s/t/%s.%s", g.baseURL, payload, g.sign(payload))
}

// Decode validates a token produced by URL and returns its parts.
func (g *Generator) Decode(token string) (listingID, userID string, err error) {

	parts := strings.SplitN(token, ".", 2)
	if len(parts) != 2 {
		return "", "", errors.New("malformed tracking token")
	}

	if !hmac.Equal([]byte(g.sign(parts[0])), []byte(parts[1])) {
		return "", "", errors.New("invalid tracking token signature")
	}

	decoded, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return "", "", errors.Wrap(err, "invalid tracking token payload")
	}

	fields := strings.SplitN(string(decoded), "|", 2)
	if len(fields) != 2 {
		return "", "", errors.New("malformed tracking token payload")
	}
	return fields[0], fields[1], nil
}

func (g *Generator) sign(payload string) string {
	mac := hmac.New(sha256.New, g.secret)
	mac.Write([]byte(payload))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
