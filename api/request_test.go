package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	jsonpatch "github.com/evanphx/json-patch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wordforms.dev/declensions/logger"
	"wordforms.dev/declensions/pipeline"
	"wordforms.dev/declensions/types"
	"wordforms.dev/declensions/utils"
)

func init() {
	logger.SetOutput(io.Discard)
}

func TestProcessData(t *testing.T) {
	var received pipeline.Request
	handler := &Request{Pipeline: func(ctx context.Context, request pipeline.Request) (*types.GroupedDictionary, error) {
		received = request
		return types.NewGroupedDictionary().
			Insert("z", "zena", types.VariantSet{"zena", "zeny"}).
			Insert("u", "ulica", nil), nil
	}}

	body := "ženy\r\n\nulice\n"
	rec := httptest.NewRecorder()
	handler.ProcessData(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body)))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, []string{"ženy", "ulice"}, received.Lines)
	assert.Equal(t, fmt.Sprintf("api-%016x", utils.HashString(body)), received.Tid)
	expected := `{"z":{"zena":["zena","zeny"]},"u":{"ulica":[]}}`
	assert.True(t, jsonpatch.Equal([]byte(expected), rec.Body.Bytes()), "got %s", rec.Body.String())
}

func TestProcessDataRejectsNonPost(t *testing.T) {
	called := false
	handler := &Request{Pipeline: func(ctx context.Context, request pipeline.Request) (*types.GroupedDictionary, error) {
		called = true
		return types.NewGroupedDictionary(), nil
	}}

	rec := httptest.NewRecorder()
	handler.ProcessData(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.False(t, called)
}

func TestProcessDataStageFailure(t *testing.T) {
	handler := &Request{Pipeline: func(ctx context.Context, request pipeline.Request) (*types.GroupedDictionary, error) {
		return nil, &pipeline.StageError{
			Stage: pipeline.StageLemmatization,
			Index: 1,
			Item:  "ulice",
			Err:   errors.New("malformed tagger response"),
		}
	}}

	rec := httptest.NewRecorder()
	handler.ProcessData(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("ženy\nulice")))

	require.Equal(t, http.StatusBadGateway, rec.Code)
	expected := `{"stage":"lemmatization","index":1,"item":"ulice","error":"malformed tagger response"}`
	assert.True(t, jsonpatch.Equal([]byte(expected), rec.Body.Bytes()), "got %s", rec.Body.String())
}

func TestProcessDataSessionFailure(t *testing.T) {
	handler := &Request{Pipeline: func(ctx context.Context, request pipeline.Request) (*types.GroupedDictionary, error) {
		return nil, &pipeline.StageError{Stage: pipeline.StageCorrection, Index: -1, Err: errors.New("page did not load")}
	}}

	rec := httptest.NewRecorder()
	handler.ProcessData(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("ženy")))

	require.Equal(t, http.StatusBadGateway, rec.Code)
	expected := `{"stage":"correction","error":"page did not load"}`
	assert.True(t, jsonpatch.Equal([]byte(expected), rec.Body.Bytes()), "got %s", rec.Body.String())
}

func TestProcessDataInternalFailure(t *testing.T) {
	handler := &Request{Pipeline: func(ctx context.Context, request pipeline.Request) (*types.GroupedDictionary, error) {
		return nil, errors.New("boom")
	}}

	rec := httptest.NewRecorder()
	handler.ProcessData(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("ženy")))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestRequestTidIsStablePerBody(t *testing.T) {
	assert.Equal(t, requestTid([]byte("ženy\nulice")), requestTid([]byte("ženy\nulice")))
	assert.NotEqual(t, requestTid([]byte("ženy")), requestTid([]byte("ulice")))
	assert.Regexp(t, `^api-[0-9a-f]{16}$`, requestTid(nil))
}
