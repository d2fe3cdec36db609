package middleware

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/containerd/errdefs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abdul-hamid-achik/httpconnect/packages/content"
	httpc "github.com/abdul-hamid-achik/httpconnect/packages/http"
)

var testCreds = AWSCredentials{
	AccessKey: "AKIDEXAMPLE",
	SecretKey: "wJalrXUtnFEMI/K7MDENG+bPxRfiCYEXAMPLEKEY",
	Region:    "us-east-1",
	Service:   "execute-api",
}

func fixedClock() time.Time {
	return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
}

func signedRequest(t *testing.T, creds AWSCredentials, c content.Content) *httpc.Request {
	t.Helper()
	mw, err := awsSigV4(creds, fixedClock)
	require.NoError(t, err)

	s := &stub{status: 200}
	req, err := httpc.NewRequest("POST", "https://api.example.com/v1/items?b=2&a=1")
	require.NoError(t, err)
	req.SetContent(c)
	b := httpc.NewBuilder().Use(mw).Use(s.middleware())
	require.NoError(t, b.Build()(httpc.NewContext(context.Background(), req)))
	return req
}

func TestAWSSigV4(t *testing.T) {
	body, err := content.NewRaw(`{"name":"x"}`, "application/json")
	require.NoError(t, err)
	req := signedRequest(t, testCreds, body)

	assert.Equal(t, "api.example.com", req.Header("Host"))
	assert.Equal(t, "20240102T030405Z", req.Header("X-Amz-Date"))
	assert.Equal(t, sha256Hash(`{"name":"x"}`), req.Header("X-Amz-Content-Sha256"))

	auth := req.Header("Authorization")
	assert.True(t, strings.HasPrefix(auth,
		"AWS4-HMAC-SHA256 Credential=AKIDEXAMPLE/20240102/us-east-1/execute-api/aws4_request, "+
			"SignedHeaders=host;x-amz-content-sha256;x-amz-date, Signature="), auth)

	again := signedRequest(t, testCreds, body)
	assert.Equal(t, auth, again.Header("Authorization"))
}

func TestAWSSigV4_SessionToken(t *testing.T) {
	creds := testCreds
	creds.SessionToken = "token"
	req := signedRequest(t, creds, nil)

	assert.Equal(t, "token", req.Header("X-Amz-Security-Token"))
	assert.Contains(t, req.Header("Authorization"), "x-amz-date;x-amz-security-token")
	assert.Equal(t, sha256Hash(""), req.Header("X-Amz-Content-Sha256"))
}

func TestAWSSigV4_GZipIsUnsigned(t *testing.T) {
	inner, err := content.NewRaw("payload", "text/plain")
	require.NoError(t, err)
	gz, err := content.NewGZipped(inner)
	require.NoError(t, err)

	req := signedRequest(t, testCreds, gz)
	assert.Equal(t, "UNSIGNED-PAYLOAD", req.Header("X-Amz-Content-Sha256"))
}

func TestAWSSigV4_RequiresCredentials(t *testing.T) {
	_, err := AWSSigV4(AWSCredentials{AccessKey: "a"})
	assert.True(t, errdefs.IsInvalidArgument(err))
}

func TestCreateCanonicalQueryString(t *testing.T) {
	q := map[string][]string{"b": {"2"}, "a": {"z y", "x"}}
	assert.Equal(t, "a=x&a=z%20y&b=2", createCanonicalQueryString(q))
	assert.Equal(t, "", createCanonicalQueryString(nil))
}
