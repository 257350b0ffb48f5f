package qr

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"invitide/internal/models"

	"github.com/skip2/go-qrcode"
)

// ImageSize is the edge length of generated PNGs in pixels.
const ImageSize = 256

var ErrInvalidPayload = errors.New("invalid scan payload")

// Codec seals identity payloads for the profile QR code and opens them at check-in.
type Codec struct {
	secret []byte
	now    func() time.Time
}

func NewCodec(secret string) *Codec {
	hashed := sha256.Sum256([]byte(secret)) // normalize to 32 bytes
	return &Codec{secret: hashed[:], now: time.Now}
}

// Encode returns the base64url string carried by the QR code.
func (c *Codec) Encode(userID string) (string, error) {
	if userID == "" {
		return "", fmt.Errorf("%w: missing userId", ErrInvalidPayload)
	}
	return c.Seal(models.ScanPayload{UserID: userID, IssuedAt: c.now().UTC()})
}

// Seal encrypts payload as is. Decode still rejects it when UserID is empty.
func (c *Codec) Seal(payload models.ScanPayload) (string, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	return encryptAES(data, c.secret)
}

// Decode opens a scanned string. Anything that does not decrypt to a payload
// with a userId wraps ErrInvalidPayload.
func (c *Codec) Decode(s string) (models.ScanPayload, error) {
	var payload models.ScanPayload

	raw, err := decryptAES(strings.TrimSpace(s), c.secret)
	if err != nil {
		return payload, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return payload, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if payload.UserID == "" {
		return payload, fmt.Errorf("%w: missing userId", ErrInvalidPayload)
	}
	return payload, nil
}

// PNG renders the sealed payload for userID as a QR code image.
func (c *Codec) PNG(userID string) ([]byte, error) {
	encoded, err := c.Encode(userID)
	if err != nil {
		return nil, err
	}
	return qrcode.Encode(encoded, qrcode.Medium, ImageSize)
}

func encryptAES(data []byte, key []byte) (string, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return "", err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}

	sealed := gcm.Seal(nonce, nonce, data, nil)
	return base64.URLEncoding.EncodeToString(sealed), nil
}

func decryptAES(s string, key []byte) ([]byte, error) {
	sealed, err := base64.URLEncoding.DecodeString(s)
	if err != nil {
		return nil, err
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	if len(sealed) < gcm.NonceSize() {
		return nil, errors.New("ciphertext too short")
	}

	nonce, ciphertext := sealed[:gcm.NonceSize()], sealed[gcm.NonceSize():]
	return gcm.Open(nil, nonce, ciphertext, nil)
}
