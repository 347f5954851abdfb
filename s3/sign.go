package s3

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

const (
	SignatureAlgorithm = "AWS4-HMAC-SHA256"
	MaxExpiresSeconds  = 604800 // 7 days
	DateTimeFormat     = "20060102T150405Z"
	DateFormat         = "20060102"

	unsignedPayload = "UNSIGNED-PAYLOAD"
)

// Credentials is an access key pair for request signing.
type Credentials struct {
	AccessKey string
	SecretKey string
}

// Signer produces AWS Signature V4 signatures, both as Authorization headers
// for direct requests and as query parameters for pre-signed URLs.
type Signer struct {
	Region      string
	Service     string
	Credentials Credentials

	// Now is the clock used for signing timestamps. Defaults to time.Now;
	// tests fix it to get deterministic signatures.
	Now func() time.Time
}

// NewSigner creates a signer for the given region and credentials, using the
// "s3" service name.
func NewSigner(region string, creds Credentials) *Signer {
	return &Signer{
		Region:      region,
		Service:     "s3",
		Credentials: creds,
		Now:         time.Now,
	}
}

func (s *Signer) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// SignRequest adds X-Amz-Date, X-Amz-Content-Sha256, and an Authorization
// header to req. The payload is left unsigned (UNSIGNED-PAYLOAD) so bodies
// can stream without buffering for a hash pass.
func (s *Signer) SignRequest(req *http.Request) {
	requestTime := s.now()
	dateStamp := requestTime.Format(DateFormat)

	req.Header.Set("X-Amz-Date", requestTime.Format(DateTimeFormat))
	req.Header.Set("X-Amz-Content-Sha256", unsignedPayload)

	headers := req.Header.Clone()
	headers.Set("Host", req.Host)
	if headers.Get("Host") == "" {
		headers.Set("Host", req.URL.Host)
	}

	signedHeaders := signedHeaderList(headers)
	signature := calculateSignature(
		s.Credentials.SecretKey,
		req.Method,
		escapePath(req.URL.Path),
		req.URL.Query(),
		headers,
		requestTime,
		dateStamp,
		s.Region,
		s.Service,
		signedHeaders,
	)

	credentialScope := fmt.Sprintf("%s/%s/%s/aws4_request", dateStamp, s.Region, s.Service)
	req.Header.Set("Authorization", fmt.Sprintf("%s Credential=%s/%s, SignedHeaders=%s, Signature=%s",
		SignatureAlgorithm, s.Credentials.AccessKey, credentialScope, signedHeaders, signature))
}

// Presign returns a copy of u carrying the full set of X-Amz-* query
// parameters for a pre-signed request. Only the Host header (plus any headers
// in signHeaders) is signed; the payload is unsigned, as S3 requires for
// browser uploads. expires must be between 1 second and 7 days.
func (s *Signer) Presign(method string, u *url.URL, signHeaders http.Header, expires time.Duration) (string, error) {
	expiresSeconds := int(expires / time.Second)
	if expiresSeconds <= 0 || expiresSeconds > MaxExpiresSeconds {
		return "", fmt.Errorf("presign: expires %s must be between 1s and %ds", expires, MaxExpiresSeconds)
	}

	requestTime := s.now()
	dateStamp := requestTime.Format(DateFormat)
	credentialScope := fmt.Sprintf("%s/%s/%s/aws4_request", dateStamp, s.Region, s.Service)

	headers := http.Header{}
	for k, vs := range signHeaders {
		for _, v := range vs {
			headers.Add(k, v)
		}
	}
	headers.Set("Host", u.Host)
	signedHeaders := signedHeaderList(headers)

	query := u.Query()
	query.Set("X-Amz-Algorithm", SignatureAlgorithm)
	query.Set("X-Amz-Credential", fmt.Sprintf("%s/%s", s.Credentials.AccessKey, credentialScope))
	query.Set("X-Amz-Date", requestTime.Format(DateTimeFormat))
	query.Set("X-Amz-Expires", strconv.Itoa(expiresSeconds))
	query.Set("X-Amz-SignedHeaders", signedHeaders)

	signature := calculateSignature(
		s.Credentials.SecretKey,
		method,
		escapePath(u.Path),
		query,
		headers,
		requestTime,
		dateStamp,
		s.Region,
		s.Service,
		signedHeaders,
	)
	query.Set("X-Amz-Signature", signature)

	signed := *u
	signed.RawQuery = query.Encode()
	return signed.String(), nil
}

// signedHeaderList returns the lowercase, semicolon-joined, sorted header
// names that participate in the signature.
func signedHeaderList(headers http.Header) string {
	names := make([]string, 0, len(headers))
	for name := range headers {
		names = append(names, strings.ToLower(name))
	}
	sort.Strings(names)
	return strings.Join(names, ";")
}

func calculateSignature(
	secretKey, method, path string,
	query url.Values,
	headers http.Header,
	requestTime time.Time,
	dateStamp, region, service, signedHeaders string,
) string {
	canonicalRequest := buildCanonicalRequest(method, path, query, headers, signedHeaders)

	credentialScope := fmt.Sprintf("%s/%s/%s/aws4_request", dateStamp, region, service)
	stringToSign := buildStringToSign(requestTime, credentialScope, canonicalRequest)

	signingKey := deriveSigningKey(secretKey, dateStamp, region, service)

	signature := hmacSHA256(signingKey, []byte(stringToSign))
	return hex.EncodeToString(signature)
}

func buildCanonicalRequest(method, path string, query url.Values, headers http.Header, signedHeaders string) string {
	canonicalQuery := buildCanonicalQueryString(query)
	canonicalHeaders := buildCanonicalHeaders(headers, signedHeaders)

	return fmt.Sprintf("%s\n%s\n%s\n%s\n%s\n%s",
		method,
		path,
		canonicalQuery,
		canonicalHeaders,
		signedHeaders,
		unsignedPayload,
	)
}

// buildCanonicalHeaders builds the canonical headers string from the signed
// headers list. Headers are sorted and formatted as "name:value\n".
func buildCanonicalHeaders(headers http.Header, signedHeaders string) string {
	headerNames := strings.Split(signedHeaders, ";")
	sort.Strings(headerNames)

	var result strings.Builder
	for _, name := range headerNames {
		value := strings.TrimSpace(headers.Get(name))
		result.WriteString(name)
		result.WriteString(":")
		result.WriteString(value)
		result.WriteString("\n")
	}
	return result.String()
}

// buildCanonicalQueryString sorts the query pairs by name and percent-encodes
// them per RFC 3986. url.Values.Encode is close but writes space as "+" and
// escapes "~", which breaks the signature for opaque values such as
// store-issued upload ids.
func buildCanonicalQueryString(query url.Values) string {
	names := make([]string, 0, len(query))
	for name := range query {
		if name != "X-Amz-Signature" {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	pairs := make([]string, 0, len(names))
	for _, name := range names {
		values := append([]string(nil), query[name]...)
		sort.Strings(values)
		for _, v := range values {
			pairs = append(pairs, escapeSegment(name)+"="+escapeSegment(v))
		}
	}
	return strings.Join(pairs, "&")
}

func buildStringToSign(requestTime time.Time, credentialScope, canonicalRequest string) string {
	hashedCanonicalRequest := sha256Hash(canonicalRequest)
	return fmt.Sprintf("%s\n%s\n%s\n%s",
		SignatureAlgorithm,
		requestTime.Format(DateTimeFormat),
		credentialScope,
		hashedCanonicalRequest,
	)
}

func deriveSigningKey(secretKey, dateStamp, region, service string) []byte {
	kDate := hmacSHA256([]byte("AWS4"+secretKey), []byte(dateStamp))
	kRegion := hmacSHA256(kDate, []byte(region))
	kService := hmacSHA256(kRegion, []byte(service))
	kSigning := hmacSHA256(kService, []byte("aws4_request"))
	return kSigning
}

func hmacSHA256(key, data []byte) []byte {
	h := hmac.New(sha256.New, key)
	h.Write(data)
	return h.Sum(nil)
}

func sha256Hash(data string) string {
	h := sha256.New()
	h.Write([]byte(data))
	return hex.EncodeToString(h.Sum(nil))
}

// escapePath URI-escapes each path segment while preserving the separators,
// matching the S3 canonical URI rules.
func escapePath(p string) string {
	if p == "" {
		return "/"
	}
	segments := strings.Split(p, "/")
	for i, seg := range segments {
		segments[i] = escapeSegment(seg)
	}
	return strings.Join(segments, "/")
}

func escapeSegment(seg string) string {
	var b strings.Builder
	for i := 0; i < len(seg); i++ {
		c := seg[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9',
			c == '-', c == '.', c == '_', c == '~':
			b.WriteByte(c)
		default:
			fmt.Fprintf(&b, "%%%02X", c)
		}
	}
	return b.String()
}
