package payments

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCaptureBodyLeavesMultipartIntact(t *testing.T) {
	body := strings.Repeat("screenshot bytes ", 1024)
	r := httptest.NewRequest("POST", "/api/orders/o1/payments", strings.NewReader(body))
	r.Header.Set("Content-Type", "multipart/form-data; boundary=xyz")

	captured, err := captureBody(r)
	require.NoError(t, err)
	assert.Nil(t, captured)

	// the handler's multipart parser must still see every byte
	rest, err := io.ReadAll(r.Body)
	require.NoError(t, err)
	assert.Equal(t, body, string(rest))
}

func TestCaptureBodyRestoresJSONBody(t *testing.T) {
	body := `{"amount":250}`
	r := httptest.NewRequest("POST", "/api/payments/p1/approve", strings.NewReader(body))
	r.Header.Set("Content-Type", "application/json")

	captured, err := captureBody(r)
	require.NoError(t, err)
	assert.Equal(t, body, string(captured))

	rest, err := io.ReadAll(r.Body)
	require.NoError(t, err)
	assert.Equal(t, body, string(rest))
}

func TestComputeRequestHash(t *testing.T) {
	a := httptest.NewRequest("POST", "/api/orders/o1/payments", nil)
	b := httptest.NewRequest("POST", "/api/orders/o1/payments", nil)

	assert.Equal(t,
		computeRequestHash(a, []byte("x"), "u1"),
		computeRequestHash(b, []byte("x"), "u1"))
	assert.NotEqual(t,
		computeRequestHash(a, []byte("x"), "u1"),
		computeRequestHash(a, []byte("y"), "u1"))
	assert.NotEqual(t,
		computeRequestHash(a, []byte("x"), "u1"),
		computeRequestHash(a, []byte("x"), "u2"))

	// multipart requests hash without a body; same key regardless of upload
	assert.Equal(t,
		computeRequestHash(a, nil, "u1"),
		computeRequestHash(b, nil, "u1"))
}
