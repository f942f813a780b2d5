package amazon

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"
	"time"
)

// signingService is the PA-API service name used in the credential scope
// and signing key derivation.
const signingService = "ProductAdvertisingAPI"

const signedHeaderList = "host;x-amz-date;x-amz-target"

// Signer computes AWS Signature Version 4 authorization headers for
// PA-API requests. The canonical form is fixed to exactly the three
// headers PA-API signs (host, x-amz-date, x-amz-target) with all
// parameters in the JSON body, so the canonical query string is always
// empty. Signatures embed the timestamp and are recomputed per request,
// never cached.
type Signer struct {
	accessKey string
	secretKey string
	region    string
	nowFunc   func() time.Time
}

// SignerOption configures the Signer.
type SignerOption func(*Signer)

// WithSignerNowFunc overrides the time source for testing.
func WithSignerNowFunc(f func() time.Time) SignerOption {
	return func(s *Signer) {
		s.nowFunc = f
	}
}

// NewSigner creates a SigV4 signer for the given credentials and region.
func NewSigner(accessKey, secretKey, region string, opts ...SignerOption) *Signer {
	s := &Signer{
		accessKey: accessKey,
		secretKey: secretKey,
		region:    region,
		nowFunc:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Sign produces the headers for a signed PA-API call: X-Amz-Date,
// X-Amz-Target, Content-Type and Authorization. The server recomputes
// the signature bit-for-bit, so header ordering, casing and newline
// placement in the canonical form must not drift.
func (s *Signer) Sign(method, host, path string, payload []byte, target string) http.Header {
	now := s.nowFunc().UTC()
	amzDate := now.Format("20060102T150405Z")
	dateStamp := amzDate[:8]

	payloadHash := hexSHA256(payload)
	canonical := canonicalRequest(method, host, path, amzDate, target, payloadHash)

	scope := dateStamp + "/" + s.region + "/" + signingService + "/aws4_request"
	toSign := stringToSign(amzDate, scope, canonical)

	kDate := hmacSHA256([]byte("AWS4"+s.secretKey), dateStamp)
	kRegion := hmacSHA256(kDate, s.region)
	kService := hmacSHA256(kRegion, signingService)
	kSigning := hmacSHA256(kService, "aws4_request")
	signature := hex.EncodeToString(hmacSHA256(kSigning, toSign))

	h := http.Header{}
	h.Set("X-Amz-Date", amzDate)
	h.Set("X-Amz-Target", target)
	h.Set("Content-Type", "application/json; charset=utf-8")
	h.Set("Authorization",
		"AWS4-HMAC-SHA256 Credential="+s.accessKey+"/"+scope+
			", SignedHeaders="+signedHeaderList+
			", Signature="+signature)
	return h
}

// canonicalRequest builds the fixed-format request form. Canonical
// headers appear lower-cased in alphabetical order, each terminated by
// a newline, followed by a blank line, the signed-header list, and the
// payload hash. The query-string line is empty.
func canonicalRequest(method, host, path, amzDate, target, payloadHash string) string {
	canonicalHeaders := "host:" + host + "\n" +
		"x-amz-date:" + amzDate + "\n" +
		"x-amz-target:" + target + "\n"

	return strings.Join([]string{
		method,
		path,
		"", // canonical query string
		canonicalHeaders,
		signedHeaderList,
		payloadHash,
	}, "\n")
}

func stringToSign(amzDate, scope, canonical string) string {
	return strings.Join([]string{
		"AWS4-HMAC-SHA256",
		amzDate,
		scope,
		hexSHA256([]byte(canonical)),
	}, "\n")
}

func hexSHA256(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func hmacSHA256(key []byte, data string) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(data))
	return mac.Sum(nil)
}
