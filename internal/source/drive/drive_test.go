package drive

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"

	"drivesearch/internal/domain"
)

func TestWebURL(t *testing.T) {
	assert.Equal(t, "https://drive.google.com/file/d/abc123/view", WebURL("abc123"))
}

func TestMapAPIError(t *testing.T) {
	cases := []struct {
		code int
		want error
	}{
		{401, domain.ErrAuthRequired},
		{403, domain.ErrAuthRequired},
		{404, domain.ErrNotFound},
	}
	for _, tc := range cases {
		err := mapAPIError("list files", &googleapi.Error{Code: tc.code})
		require.ErrorIs(t, err, tc.want, "status %d", tc.code)
	}

	plain := errors.New("connection reset")
	err := mapAPIError("download file", plain)
	assert.ErrorIs(t, err, plain)
	assert.NotErrorIs(t, err, domain.ErrAuthRequired)
}

func TestSourceRequiresCredential(t *testing.T) {
	src := NewSource(Config{})

	_, err := src.List(context.Background(), "")
	require.ErrorIs(t, err, domain.ErrAuthRequired)

	_, err = src.Fetch(context.Background(), "", "some-id")
	require.ErrorIs(t, err, domain.ErrAuthRequired)
}

func TestNewSourceDefaults(t *testing.T) {
	src := NewSource(Config{})
	assert.EqualValues(t, 100, src.pageSize)
	assert.EqualValues(t, 8, src.limiter.Limit())
	assert.Equal(t, 10, src.limiter.Burst())
}
