package middleware

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/containerd/errdefs"

	"github.com/abdul-hamid-achik/httpconnect/packages/content"
	"github.com/abdul-hamid-achik/httpconnect/packages/headers"
	httpc "github.com/abdul-hamid-achik/httpconnect/packages/http"
)

const (
	awsAlgorithm       = "AWS4-HMAC-SHA256"
	awsUnsignedBody    = "UNSIGNED-PAYLOAD"
	awsDateFormat      = "20060102T150405Z"
	awsDateStampLayout = "20060102"
)

// AWSCredentials holds the values needed to sign requests with AWS
// Signature Version 4.
type AWSCredentials struct {
	AccessKey    string
	SecretKey    string
	SessionToken string
	Region       string
	Service      string
}

// AWSSigV4 signs every request with AWS Signature Version 4. It sets the
// Host, X-Amz-Date, X-Amz-Content-Sha256 and Authorization headers. Gzip
// bodies are compressed on the wire and are signed as UNSIGNED-PAYLOAD.
func AWSSigV4(creds AWSCredentials) (httpc.Middleware, error) {
	return awsSigV4(creds, time.Now)
}

func awsSigV4(creds AWSCredentials, now func() time.Time) (httpc.Middleware, error) {
	if creds.AccessKey == "" || creds.SecretKey == "" || creds.Region == "" || creds.Service == "" {
		return nil, fmt.Errorf("%w: aws credentials require access key, secret key, region and service", errdefs.ErrInvalidArgument)
	}
	return func(next httpc.Handler) httpc.Handler {
		return func(hc *httpc.Context) error {
			if err := signAWSRequest(hc.Request, creds, now().UTC()); err != nil {
				return fmt.Errorf("aws signing: %w", err)
			}
			return next(hc)
		}
	}, nil
}

func signAWSRequest(req *httpc.Request, creds AWSCredentials, t time.Time) error {
	if req.URI == nil || !req.URI.IsAbs() {
		return fmt.Errorf("%w: cannot sign a relative uri", errdefs.ErrFailedPrecondition)
	}

	amzDate := t.Format(awsDateFormat)
	dateStamp := t.Format(awsDateStampLayout)
	host := req.URI.Host

	payloadHash, err := awsPayloadHash(req.Content)
	if err != nil {
		return err
	}

	signed := map[string]string{
		"host":                 host,
		"x-amz-content-sha256": payloadHash,
		"x-amz-date":           amzDate,
	}
	if creds.SessionToken != "" {
		signed["x-amz-security-token"] = creds.SessionToken
	}
	names := make([]string, 0, len(signed))
	for name := range signed {
		names = append(names, name)
	}
	sort.Strings(names)

	var canonicalHeaders strings.Builder
	for _, name := range names {
		canonicalHeaders.WriteString(name + ":" + strings.TrimSpace(signed[name]) + "\n")
	}
	signedHeaders := strings.Join(names, ";")

	canonicalURI := req.URI.EscapedPath()
	if canonicalURI == "" {
		canonicalURI = "/"
	}

	canonicalRequest := strings.Join([]string{
		req.Method,
		canonicalURI,
		createCanonicalQueryString(req.URI.Query()),
		canonicalHeaders.String(),
		signedHeaders,
		payloadHash,
	}, "\n")

	credentialScope := fmt.Sprintf("%s/%s/%s/aws4_request", dateStamp, creds.Region, creds.Service)
	stringToSign := strings.Join([]string{
		awsAlgorithm,
		amzDate,
		credentialScope,
		sha256Hash(canonicalRequest),
	}, "\n")

	signingKey := getSignatureKey(creds.SecretKey, dateStamp, creds.Region, creds.Service)
	signature := hex.EncodeToString(hmacSHA256(signingKey, stringToSign))

	auth, err := headers.NewAuthorization(awsAlgorithm, fmt.Sprintf("Credential=%s/%s, SignedHeaders=%s, Signature=%s",
		creds.AccessKey, credentialScope, signedHeaders, signature))
	if err != nil {
		return err
	}

	req.Headers.Set(headers.Header{Name: "Host", Value: host})
	req.Headers.Set(headers.Header{Name: "X-Amz-Date", Value: amzDate})
	req.Headers.Set(headers.Header{Name: "X-Amz-Content-Sha256", Value: payloadHash})
	if creds.SessionToken != "" {
		req.Headers.Set(headers.Header{Name: "X-Amz-Security-Token", Value: creds.SessionToken})
	}
	req.Headers.Set(auth)
	return nil
}

func awsPayloadHash(c content.Content) (string, error) {
	if c == nil {
		return sha256Hash(""), nil
	}
	if c.Kind() == content.KindGZip {
		return awsUnsignedBody, nil
	}
	body, err := c.Serialize()
	if err != nil {
		return "", fmt.Errorf("serialize %s content: %w", c.Kind(), err)
	}
	return sha256Hash(body), nil
}

func createCanonicalQueryString(values url.Values) string {
	if len(values) == 0 {
		return ""
	}

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var pairs []string
	for _, k := range keys {
		vals := append([]string(nil), values[k]...)
		sort.Strings(vals)
		for _, v := range vals {
			pairs = append(pairs, awsEscape(k)+"="+awsEscape(v))
		}
	}
	return strings.Join(pairs, "&")
}

// awsEscape percent-encodes s with %20 for spaces, as SigV4 requires.
func awsEscape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

func sha256Hash(s string) string {
	h := sha256.Sum256([]byte(s))
	return hex.EncodeToString(h[:])
}

func hmacSHA256(key []byte, data string) []byte {
	h := hmac.New(sha256.New, key)
	h.Write([]byte(data))
	return h.Sum(nil)
}

func getSignatureKey(secretKey, dateStamp, region, service string) []byte {
	kDate := hmacSHA256([]byte("AWS4"+secretKey), dateStamp)
	kRegion := hmacSHA256(kDate, region)
	kService := hmacSHA256(kRegion, service)
	return hmacSHA256(kService, "aws4_request")
}
