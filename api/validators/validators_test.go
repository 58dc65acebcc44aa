package validators

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/angelmondragon/pricesync/pkg/errors"
)

type addBody struct {
	SlaveProductID  int64 `json:"slave_product_id" validate:"required,gt=0,nefield=SourceProductID"`
	SourceProductID int64 `json:"source_product_id" validate:"required,gt=0"`
}

func TestDecodeJSONBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"slave_product_id":1,"source_product_id":2}`))
	var body addBody
	require.NoError(t, DecodeJSONBody(req, &body))
	assert.Equal(t, int64(1), body.SlaveProductID)
	assert.Equal(t, int64(2), body.SourceProductID)
}

func TestDecodeJSONBodyRejectsUnknownFields(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"slave_product_id":1,"source_product_id":2,"extra":true}`))
	var body addBody
	err := DecodeJSONBody(req, &body)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
}

func TestDecodeJSONBodyReportsFieldErrors(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"slave_product_id":3,"source_product_id":3}`))
	var body addBody
	err := DecodeJSONBody(req, &body)
	require.Error(t, err)
	details, ok := pkgerrors.As(err).Details().(map[string]string)
	require.True(t, ok)
	assert.Equal(t, "must differ from SourceProductID", details["slave_product_id"])

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{}`))
	err = DecodeJSONBody(req, &body)
	details = pkgerrors.As(err).Details().(map[string]string)
	assert.Equal(t, "is required", details["source_product_id"])
}

func TestDecodeJSONBodyRejectsEmptyAndOversizedBodies(t *testing.T) {
	var body addBody
	err := DecodeJSONBody(httptest.NewRequest(http.MethodPost, "/", strings.NewReader("")), &body)
	require.Error(t, err)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
	assert.Equal(t, "request body is required", pkgerrors.As(err).Message())

	huge := `{"slave_product_id":1,"source_product_id":2,"pad":"` + strings.Repeat("x", MaxBodyBytes) + `"}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(huge))
	err = DecodeJSONBodyLimited(w, req, &body)
	require.Error(t, err)
	assert.Equal(t, "request body too large", pkgerrors.As(err).Message())
}

func TestParseQueryHelpers(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?limit=20&category_id=7&exclude_ids=1,%202,,3&order=DESC", nil)

	limit, err := ParseQueryInt(req, "limit", 50, 1, 200)
	require.NoError(t, err)
	assert.Equal(t, 20, limit)

	id, err := ParseQueryID(req, "category_id")
	require.NoError(t, err)
	assert.Equal(t, int64(7), id)

	missing, err := ParseQueryID(req, "slave_product_id")
	require.NoError(t, err)
	assert.Zero(t, missing)

	ids, err := ParseQueryIDList(req, "exclude_ids")
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3}, ids)

	assert.True(t, IsDescending(req, "order"))
	assert.False(t, IsDescending(httptest.NewRequest(http.MethodGet, "/", nil), "order"))
}

func TestParseQueryHelpersRejectGarbage(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?limit=500&category_id=abc&exclude_ids=1,x", nil)

	_, err := ParseQueryInt(req, "limit", 50, 1, 200)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
	_, err = ParseQueryID(req, "category_id")
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
	_, err = ParseQueryIDList(req, "exclude_ids")
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
}

func TestSanitizeString(t *testing.T) {
	assert.Equal(t, "desc", SanitizeString("  desc  ", 4))
	assert.Equal(t, "asce", SanitizeString("ascending", 4))
	assert.Equal(t, "x", SanitizeString("x", 0))
	assert.Equal(t, "prix", SanitizeString("prix\x00", 0))
	assert.Equal(t, "été", SanitizeString("étés", 3))
}
