package firebase

import (
	"context"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"errors"
	"fmt"
	"io/ioutil"
	"net/http"
	"time"

	"github.com/dgrijalva/jwt-go"
)

var CertsAPIEndpoint = "https://www.googleapis.com/robot/v1/metadata/x509/securetoken@system.gserviceaccount.com"

// OfflineVerifier checks Firebase ID tokens against Google's signing
// certificates without the Admin SDK. Tokens expired less than Interval ago
// are still accepted.
type OfflineVerifier struct {
	ProjectID string
	Interval  time.Duration
	// Keyfunc resolves the token's signing key; defaults to Google's certificates.
	Keyfunc jwt.Keyfunc
	now     func() time.Time
}

func NewOfflineVerifier(projectID string, interval time.Duration) *OfflineVerifier {
	return &OfflineVerifier{ProjectID: projectID, Interval: interval, Keyfunc: googleKey, now: time.Now}
}

func (v *OfflineVerifier) Verify(_ context.Context, idToken string) (string, error) {
	claims, err := v.verify(idToken)
	if err != nil {
		return "", fmt.Errorf("verify: %w", err)
	}
	return principalOf(claims)
}

func (v *OfflineVerifier) verify(idToken string) (jwt.MapClaims, error) {
	keyfunc := v.Keyfunc
	if keyfunc == nil {
		keyfunc = googleKey
	}
	now := time.Now
	if v.now != nil {
		now = v.now
	}

	parsed, err := jwt.Parse(idToken, keyfunc)
	if err != nil {
		var ve *jwt.ValidationError
		if !errors.As(err, &ve) || ve.Errors != jwt.ValidationErrorExpired {
			return nil, err
		}
		if !withinInterval(parsed.Claims.(jwt.MapClaims), v.Interval, now()) {
			return nil, err
		}
	} else if !parsed.Valid {
		return nil, errors.New("token is invalid")
	}

	if parsed.Header["alg"] != "RS256" {
		return nil, fmt.Errorf("unexpected signing algorithm %v", parsed.Header["alg"])
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("could not parse claims")
	}
	if err := verifyPayload(claims, v.ProjectID, now()); err != nil {
		return nil, err
	}
	return claims, nil
}

func withinInterval(claims jwt.MapClaims, interval time.Duration, now time.Time) bool {
	var exp int64
	switch v := claims["exp"].(type) {
	case float64:
		exp = int64(v)
	case json.Number:
		exp, _ = v.Int64()
	default:
		return false
	}
	return now.Add(-interval).Before(time.Unix(exp, 0))
}

func verifyPayload(claims jwt.MapClaims, projectID string, now time.Time) error {
	if aud, ok := claims["aud"].(string); !ok || aud != projectID {
		return fmt.Errorf("unexpected audience %v", claims["aud"])
	}

	iss := "https://securetoken.google.com/" + projectID
	if claimsIss, ok := claims["iss"].(string); !ok || claimsIss != iss {
		return fmt.Errorf("unexpected issuer %v", claims["iss"])
	}

	if sub, ok := claims["sub"].(string); !ok || sub == "" {
		return errors.New("missing subject")
	}

	authTime, ok := claims["auth_time"].(float64)
	if !ok || !time.Unix(int64(authTime), 0).Before(now) {
		return errors.New("auth_time is missing or in the future")
	}

	iat, ok := claims["iat"].(float64)
	if !ok || !time.Unix(int64(iat), 0).Before(now) {
		return errors.New("iat is missing or in the future")
	}
	return nil
}

func googleKey(t *jwt.Token) (interface{}, error) {
	if _, ok := t.Method.(*jwt.SigningMethodRSA); !ok {
		return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
	}
	cert, err := getCertificateFromToken(t)
	if err != nil {
		return nil, err
	}
	return readPublicKey(cert)
}

func getCertificates() (certs map[string]string, err error) {
	res, err := http.Get(CertsAPIEndpoint)
	if err != nil {
		return
	}
	defer res.Body.Close()

	data, err := ioutil.ReadAll(res.Body)
	if err != nil {
		return
	}

	err = json.Unmarshal(data, &certs)
	return
}

func getCertificateFromToken(token *jwt.Token) ([]byte, error) {
	kid, ok := token.Header["kid"]
	if !ok {
		return nil, errors.New("kid not found")
	}

	kidString, ok := kid.(string)
	if !ok {
		return nil, errors.New("kid cast error to string")
	}

	certs, err := getCertificates()
	if err != nil {
		return nil, err
	}
	return []byte(certs[kidString]), nil
}

func readPublicKey(cert []byte) (*rsa.PublicKey, error) {
	publicKeyBlock, _ := pem.Decode(cert)

	if publicKeyBlock == nil {
		return nil, errors.New("invalid public key data")
	}

	if publicKeyBlock.Type != "CERTIFICATE" {
		return nil, fmt.Errorf("invalid public key type: %s", publicKeyBlock.Type)
	}

	c, err := x509.ParseCertificate(publicKeyBlock.Bytes)
	if err != nil {
		return nil, err
	}

	publicKey, ok := c.PublicKey.(*rsa.PublicKey)
	if !ok {
		return nil, errors.New("not RSA public key")
	}

	return publicKey, nil
}
