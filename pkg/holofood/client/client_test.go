package client

import (
	"context"
	"errors"
	"net/http"
	"testing"

	testutils "github.com/diwise/service-chassis/pkg/test/http"
	"github.com/diwise/service-chassis/pkg/test/http/expects"
	"github.com/diwise/service-chassis/pkg/test/http/response"
	hferrors "github.com/holofood-data/holofood-go/pkg/holofood/errors"

	"github.com/matryer/is"
)

var Expects = testutils.Expects
var Returns = testutils.Returns
var anyInput = expects.AnyInput
var method = expects.RequestMethod
var path = expects.RequestPath
var queryParam = expects.QueryParamEquals

func TestFetchPage(t *testing.T) {
	is := is.New(t)

	s := testutils.NewMockServiceThat(
		Expects(
			is,
			method(http.MethodGet),
			path("/api/animals"),
			queryParam("system", "salmon"),
		),
		Returns(
			response.ContentType("application/json"),
			response.Code(http.StatusOK),
			response.Body([]byte(pageJSON)),
		),
	)
	defer s.Close()

	c := New(s.URL())

	page, err := c.FetchPage(context.Background(), "animals", "", Filter("system", "salmon"))

	is.NoErr(err)
	is.Equal(page.Count, int64(3))
	is.Equal(page.NextCursor(), "cD0yMDIz")
	is.Equal(len(page.Items), 2)
}

func TestFetchPageReplaysCursor(t *testing.T) {
	is := is.New(t)

	s := testutils.NewMockServiceThat(
		Expects(
			is,
			path("/api/samples"),
			queryParam("cursor", "cD0yMDIz"),
		),
		Returns(
			response.ContentType("application/json"),
			response.Code(http.StatusOK),
			response.Body([]byte(lastPageJSON)),
		),
	)
	defer s.Close()

	c := New(s.URL())

	page, err := c.FetchPage(context.Background(), "samples", "cD0yMDIz")

	is.NoErr(err)
	is.Equal(page.NextCursor(), "") // null next means no further pages
}

func TestFetchPageHandlesRejectedRequest(t *testing.T) {
	is := is.New(t)

	s := testutils.NewMockServiceThat(
		Expects(is, anyInput()),
		Returns(
			response.Code(http.StatusBadRequest),
			response.Body([]byte(`{"detail": "unknown filter"}`)),
		),
	)
	defer s.Close()

	c := New(s.URL())

	_, err := c.FetchPage(context.Background(), "animals", "")

	is.True(err != nil)
	is.True(errors.Is(err, hferrors.ErrRejected))
	is.Equal(err.Error(), "unknown filter")
}

func TestFetchPageNotFound(t *testing.T) {
	is := is.New(t)

	s := testutils.NewMockServiceThat(
		Expects(is, anyInput()),
		Returns(
			response.Code(http.StatusNotFound),
			response.Body([]byte(`{"detail": "no such entity type"}`)),
		),
	)
	defer s.Close()

	c := New(s.URL())

	_, err := c.FetchPage(context.Background(), "fish", "")

	is.True(errors.Is(err, hferrors.ErrNotFound))
}

func TestFetchPageRateLimitIsTransient(t *testing.T) {
	is := is.New(t)

	s := testutils.NewMockServiceThat(
		Expects(is, anyInput()),
		Returns(
			response.Code(http.StatusTooManyRequests),
			response.Body([]byte(`{"detail": "slow down"}`)),
		),
	)
	defer s.Close()

	c := New(s.URL())

	_, err := c.FetchPage(context.Background(), "animals", "")

	is.True(errors.Is(err, hferrors.ErrTransient))
	is.Equal(hferrors.StatusCodeOf(err), http.StatusTooManyRequests)
}

func TestFetchPageServerErrorIsTransient(t *testing.T) {
	is := is.New(t)

	s := testutils.NewMockServiceThat(
		Expects(is, anyInput()),
		Returns(response.Code(http.StatusBadGateway)),
	)
	defer s.Close()

	c := New(s.URL())

	_, err := c.FetchPage(context.Background(), "animals", "")

	is.True(errors.Is(err, hferrors.ErrTransient))
}

const pageJSON = `{
	"count": 3,
	"next": "cD0yMDIz",
	"items": [
		{"accession": "SAMEA1", "system": "salmon"},
		{"accession": "SAMEA2", "system": "salmon"}
	]
}`

const lastPageJSON = `{
	"count": 3,
	"next": null,
	"items": [
		{"accession": "SAMEA3", "system": "salmon"}
	]
}`
