package github

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-github/v59/github"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errUtils "github.com/timid-ci/timid-github/errors"
)

type postedStatus struct {
	owner  string
	repo   string
	ref    string
	status *github.RepoStatus
}

// fakePoster records posted statuses and optionally fails.
type fakePoster struct {
	posted []postedStatus
	err    error
}

func (f *fakePoster) CreateStatus(ctx context.Context, owner, repo, ref string, status *github.RepoStatus) (*github.RepoStatus, *github.Response, error) {
	if f.err != nil {
		return nil, nil, f.err
	}
	f.posted = append(f.posted, postedStatus{owner: owner, repo: repo, ref: ref, status: status})
	return status, nil, nil
}

func newTestReporter(poster *fakePoster) *StatusReporter {
	return &StatusReporter{
		repos: poster,
		owner: "example",
		repo:  "widget",
		sha:   "abc123",
	}
}

func TestReportPostsToLastCommit(t *testing.T) {
	poster := &fakePoster{}
	r := newTestReporter(poster)

	err := r.Report(context.Background(), Status{
		State: StatusPending,
		Text:  "Cloning repository",
		URL:   "https://ci.example.test/build/1",
	})
	require.NoError(t, err)

	require.Len(t, poster.posted, 1)
	p := poster.posted[0]
	assert.Equal(t, "example", p.owner)
	assert.Equal(t, "widget", p.repo)
	assert.Equal(t, "abc123", p.ref)
	assert.Equal(t, "pending", p.status.GetState())
	assert.Equal(t, "Cloning repository", p.status.GetDescription())
	assert.Equal(t, "https://ci.example.test/build/1", p.status.GetTargetURL())
}

func TestReportOmitsEmptyTextAndURL(t *testing.T) {
	poster := &fakePoster{}
	r := newTestReporter(poster)

	err := r.Report(context.Background(), Status{State: StatusSuccess})
	require.NoError(t, err)

	require.Len(t, poster.posted, 1)
	// Nil pointers, not empty strings: "not provided" must stay distinct
	// from "".
	assert.Nil(t, poster.posted[0].status.Description)
	assert.Nil(t, poster.posted[0].status.TargetURL)
}

func TestReportRecordsLastStatus(t *testing.T) {
	poster := &fakePoster{}
	r := newTestReporter(poster)

	assert.Nil(t, r.Last())

	require.NoError(t, r.Report(context.Background(), Status{State: StatusPending, Text: "step one"}))
	require.NotNil(t, r.Last())
	assert.Equal(t, StatusPending, r.Last().State)

	require.NoError(t, r.Report(context.Background(), Status{State: StatusFailure, Text: "oops"}))
	assert.Equal(t, StatusFailure, r.Last().State)
	assert.Equal(t, "oops", r.Last().Text)
}

func TestReportFailureLeavesLastStatusUntouched(t *testing.T) {
	poster := &fakePoster{}
	r := newTestReporter(poster)

	require.NoError(t, r.Report(context.Background(), Status{State: StatusPending, Text: "step one"}))

	poster.err = errors.New("api unavailable")
	err := r.Report(context.Background(), Status{State: StatusFailure})
	require.Error(t, err)
	assert.ErrorIs(t, err, errUtils.ErrStatusPostFailed)

	// Never recorded speculatively.
	assert.Equal(t, StatusPending, r.Last().State)
}
