package github

import (
	"errors"
	"fmt"
	"time"

	"github.com/cli/go-gh/v2/pkg/api"

	"github.com/clawtrends/claw-trends/pkg/models"
)

// ErrListing marks a non-success response from the upstream listing API.
// A listing failure is fatal for the sync cycle that triggered it.
var ErrListing = errors.New("upstream listing error")

// restGetter is the slice of the go-gh REST client the listing code needs.
// Tests substitute a scripted implementation.
type restGetter interface {
	Get(path string, response interface{}) error
}

// Client lists pull requests and issues for one fixed repository.
type Client struct {
	rest  restGetter
	owner string
	repo  string
}

// NewClient creates a GitHub client for owner/repo using the ambient gh auth
// (GITHUB_TOKEN or gh credentials).
func NewClient(owner, repo string) (*Client, error) {
	rest, err := api.DefaultRESTClient()
	if err != nil {
		return nil, fmt.Errorf("failed to create REST client: %w", err)
	}
	return &Client{rest: rest, owner: owner, repo: repo}, nil
}

// apiIssue is the loosely-typed upstream payload for both the /pulls and
// /issues endpoints. Fields missing from the payload keep their zero value and
// are defaulted during conversion.
type apiIssue struct {
	Number         int       `json:"number"`
	Title          string    `json:"title"`
	Body           string    `json:"body"`
	HTMLURL        string    `json:"html_url"`
	State          string    `json:"state"`
	User           apiUser   `json:"user"`
	Comments       int       `json:"comments"`
	ReviewComments int       `json:"review_comments"`
	CreatedAt      time.Time `json:"created_at"`
	PullRequest    *struct{} `json:"pull_request,omitempty"`
}

type apiUser struct {
	Login string `json:"login"`
}

// toRecord validates and converts an upstream payload into a Record.
// Missing body becomes the empty string and missing comment counts become 0;
// a payload without a usable identity is rejected.
func toRecord(ai *apiIssue, typ models.RecordType) (*models.Record, error) {
	if ai.Number <= 0 {
		return nil, fmt.Errorf("payload missing number")
	}
	if ai.CreatedAt.IsZero() {
		return nil, fmt.Errorf("payload #%d missing created_at", ai.Number)
	}

	status := ai.State
	if status != models.StatusClosed {
		status = models.StatusOpen
	}

	comments := ai.Comments
	if typ == models.TypePull {
		comments += ai.ReviewComments
	}

	author := ai.User.Login
	if author == "" {
		author = "unknown"
	}

	return &models.Record{
		Type:      typ,
		Number:    ai.Number,
		Title:     ai.Title,
		Body:      ai.Body,
		URL:       ai.HTMLURL,
		Author:    author,
		Comments:  comments,
		Status:    status,
		CreatedAt: ai.CreatedAt,
	}, nil
}
