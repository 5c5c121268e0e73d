package middleware

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"log"

	"github.com/gofiber/fiber/v2"
)

const lineSignatureHeader = "X-Line-Signature"

// VerifyLineSignature checks that body was signed by the LINE channel
// secret. The expected signature is base64(HMAC-SHA256(secret, body)).
// It fails closed: a missing secret or signature is a verification failure,
// never a panic.
func VerifyLineSignature(channelSecret string, body []byte, signature string) bool {
	if channelSecret == "" || signature == "" {
		return false
	}

	mac := hmac.New(sha256.New, []byte(channelSecret))
	mac.Write(body)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	return subtle.ConstantTimeCompare([]byte(expected), []byte(signature)) == 1
}

// LineSignatureMiddleware rejects webhook deliveries whose signature does
// not match the channel secret. The body is not parsed before this gate.
func LineSignatureMiddleware(channelSecret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !VerifyLineSignature(channelSecret, c.Body(), c.Get(lineSignatureHeader)) {
			log.Println("[Webhook] signature verification failed")
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"message": "Forbidden",
			})
		}
		return c.Next()
	}
}
