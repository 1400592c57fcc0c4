package principal

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base32"
	"encoding/base64"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

var (
	tokenSalt = []byte("eduquest.core.principal.password_reset")

	// errors
	errInvalidToken = errors.New("invalid or expired password reset link")
	errTokenExpired = errors.New("password reset link expired")
)

// EncodeUID base64 encodes the ID of p for password reset links.
func EncodeUID(p Principal) string {
	return base64.RawURLEncoding.EncodeToString([]byte(strconv.Itoa(p.ID)))
}

func decodeUID(uid string) (int, error) {
	idBytes, err := base64.RawURLEncoding.DecodeString(uid)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(string(idBytes))
}

// tokenGenerator makes password reset tokens of the form `<base32 days since 2001>-<signature>`.
// A token stops being valid once the password it was issued for changes.
type tokenGenerator struct {
	secretKey string
	timeout   time.Duration
	now       func() time.Time // mockable
}

func (g tokenGenerator) makeToken(p Principal) string {
	return g.makeTokenWithTimestamp(p, numDaysSince2001(g.now()))
}

func (g tokenGenerator) verifyToken(p Principal, token string) error {
	if token == "" {
		return errInvalidToken
	}

	parts := strings.SplitN(token, "-", 2)
	if len(parts) < 2 {
		return errInvalidToken
	}
	data, err := base32.StdEncoding.WithPadding(base32.NoPadding).DecodeString(parts[0])
	if err != nil {
		return errInvalidToken
	}
	ts, err := strconv.Atoi(string(data))
	if err != nil {
		return errInvalidToken
	}

	// check that token has not been tampered with
	if subtle.ConstantTimeCompare([]byte(g.makeTokenWithTimestamp(p, ts)), []byte(token)) == 0 {
		return errInvalidToken
	}

	// check that the timestamp is within limit
	if (numDaysSince2001(g.now()) - ts) > int(g.timeout/(24*time.Hour)) {
		return errTokenExpired
	}
	return nil
}

func (g tokenGenerator) makeTokenWithTimestamp(p Principal, ts int) string {
	tsB32 := base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString([]byte(strconv.Itoa(ts)))
	return fmt.Sprintf("%s-%s", tsB32, g.sign(hashValue(p, ts)))
}

func (g tokenGenerator) sign(val []byte) string {
	key := sha256.Sum256(append(append([]byte(nil), tokenSalt...), g.secretKey...))
	h := hmac.New(sha256.New, key[:])
	_, _ = h.Write(val)
	return base64.RawURLEncoding.EncodeToString(h.Sum(nil))
}

func numDaysSince2001(t time.Time) int {
	ref := time.Date(2001, time.January, 1, 0, 0, 0, 0, time.UTC)
	return int(math.Ceil(t.Sub(ref).Hours() / 24))
}

func hashValue(p Principal, ts int) []byte {
	var val bytes.Buffer
	val.WriteString(strconv.Itoa(p.ID))
	val.Write(p.PasswordHash)
	val.WriteString(p.Email)
	val.WriteString(strconv.Itoa(ts))
	return val.Bytes()
}
