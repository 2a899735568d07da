// Package github wraps the GitHub API surface the extension consumes:
// client construction, pull-request resolution, repository URL selection,
// and commit-status reporting.
package github

import (
	"strings"

	"github.com/google/go-github/v59/github"
)

// DefaultAPI is the public GitHub API base URL.
const DefaultAPI = "https://api.github.com"

// NewClient returns a go-github client authenticating with username and
// password against apiURL. Any API other than the public one is treated as
// a GitHub Enterprise instance.
func NewClient(apiURL, username, password string) (*github.Client, error) {
	transport := &github.BasicAuthTransport{
		Username: username,
		Password: password,
	}

	client := github.NewClient(transport.Client())
	if apiURL != "" && strings.TrimSuffix(apiURL, "/") != DefaultAPI {
		return client.WithEnterpriseURLs(apiURL, apiURL)
	}
	return client, nil
}
