package model_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/m-mizutani/dsfetch/pkg/domain/model"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
)

func TestExitCodeOf(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{name: "nil", err: nil, expected: 0},
		{name: "plain error", err: errors.New("boom"), expected: 1},
		{name: "credentials missing", err: &model.FetchError{Kind: model.FailureCredentialsMissing}, expected: 2},
		{name: "authentication", err: &model.FetchError{Kind: model.FailureAuthentication}, expected: 3},
		{name: "download", err: &model.FetchError{Kind: model.FailureDownload}, expected: 4},
		{name: "archive not found", err: &model.FetchError{Kind: model.FailureArchiveNotFound}, expected: 5},
		{name: "extraction", err: &model.FetchError{Kind: model.FailureExtraction, Partial: true}, expected: 6},
		{
			name:     "wrapped fetch error",
			err:      fmt.Errorf("run: %w", &model.FetchError{Kind: model.FailureDownload}),
			expected: 4,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gt.Value(t, model.ExitCodeOf(tt.err)).Equal(tt.expected)
		})
	}
}

func TestFetchError_Error(t *testing.T) {
	t.Run("credentials missing names the path", func(t *testing.T) {
		err := &model.FetchError{Kind: model.FailureCredentialsMissing, Path: "/home/u/.kaggle/kaggle.json"}
		gt.String(t, err.Error()).Contains("/home/u/.kaggle/kaggle.json")
	})

	t.Run("archive not found", func(t *testing.T) {
		err := &model.FetchError{Kind: model.FailureArchiveNotFound}
		gt.String(t, err.Error()).Contains("no zip file was downloaded")
	})

	t.Run("other kinds use the cause", func(t *testing.T) {
		cause := goerr.New("connection refused")
		err := &model.FetchError{Kind: model.FailureDownload, Cause: cause}
		gt.String(t, err.Error()).Contains("connection refused")
		gt.True(t, errors.Is(err, cause))
	})

	t.Run("unauthorized stays detectable through wrapping", func(t *testing.T) {
		cause := goerr.Wrap(model.ErrUnauthorized, "dataset API returned 401")
		err := &model.FetchError{Kind: model.FailureAuthentication, Cause: cause}
		gt.True(t, errors.Is(err, model.ErrUnauthorized))
	})
}

func TestAsFetchError(t *testing.T) {
	_, ok := model.AsFetchError(errors.New("plain"))
	gt.False(t, ok)

	fetchErr, ok := model.AsFetchError(fmt.Errorf("wrap: %w", &model.FetchError{Kind: model.FailureExtraction}))
	gt.True(t, ok)
	gt.Value(t, fetchErr.Kind).Equal(model.FailureExtraction)
}
