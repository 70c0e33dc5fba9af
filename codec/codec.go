package codec

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"io"
)

// Key derives an AES-256 key from the server secret.
func Key(secret string) []byte {
	sum := sha256.Sum256([]byte(secret))
	return sum[:]
}

func Encrypt(key, text []byte) (string, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return "", fmt.Errorf("encrypt: could not encrypt: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("encrypt: could not create gcm: %w", err)
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("encrypt: %w", err)
	}
	sealed := gcm.Seal(nonce, nonce, text, nil)
	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

func Decrypt(key []byte, text string) ([]byte, error) {
	cipherText, err := base64.RawURLEncoding.DecodeString(text)
	if err != nil {
		return nil, fmt.Errorf("decrypt: error decoding base64: %w", err)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("decrypt: could not create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("decrypt: could not create gcm: %w", err)
	}
	if len(cipherText) < gcm.NonceSize() {
		return nil, fmt.Errorf("decrypt: ciphertext too short")
	}

	nonce, sealed := cipherText[:gcm.NonceSize()], cipherText[gcm.NonceSize():]
	data, err := gcm.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, fmt.Errorf("decrypt: %w", err)
	}
	return data, nil
}

// EncodeCursor hides a notification sequence number behind an opaque token.
func EncodeCursor(key []byte, seq uint64) (string, error) {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, seq)
	return Encrypt(key, buf)
}

// DecodeCursor reverses EncodeCursor. The empty cursor is the start of the log.
func DecodeCursor(key []byte, cursor string) (uint64, error) {
	if cursor == "" {
		return 0, nil
	}
	data, err := Decrypt(key, cursor)
	if err != nil {
		return 0, fmt.Errorf("decodeCursor: invalid cursor: %w", err)
	}
	if len(data) != 8 {
		return 0, fmt.Errorf("decodeCursor: invalid cursor length %d", len(data))
	}
	return binary.BigEndian.Uint64(data), nil
}
