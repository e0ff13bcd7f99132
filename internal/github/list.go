package github

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/clawtrends/claw-trends/pkg/models"
)

const perPage = 100

// listPath builds the open-record listing endpoint for one page.
// Both endpoints sort by creation time descending, which the early-stop
// discipline in ListNew depends on.
func (c *Client) listPath(typ models.RecordType, page int) string {
	endpoint := "issues"
	if typ == models.TypePull {
		endpoint = "pulls"
	}

	params := url.Values{}
	params.Set("state", "open")
	params.Set("sort", "created")
	params.Set("direction", "desc")
	params.Set("per_page", strconv.Itoa(perPage))
	params.Set("page", strconv.Itoa(page))

	return fmt.Sprintf("repos/%s/%s/%s?%s", c.owner, c.repo, endpoint, params.Encode())
}

// listPage fetches one page of open records, newest first. The /issues
// endpoint also returns pull requests; those are dropped so the two
// namespaces stay disjoint.
func (c *Client) listPage(ctx context.Context, typ models.RecordType, page int) ([]*models.Record, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	var payload []apiIssue
	if err := c.rest.Get(c.listPath(typ, page), &payload); err != nil {
		return nil, false, fmt.Errorf("%w: %s page %d: %v", ErrListing, typ, page, err)
	}

	records := make([]*models.Record, 0, len(payload))
	for i := range payload {
		ai := &payload[i]
		if typ == models.TypeIssue && ai.PullRequest != nil {
			continue
		}
		rec, err := toRecord(ai, typ)
		if err != nil {
			return nil, false, fmt.Errorf("%w: %s page %d: %v", ErrListing, typ, page, err)
		}
		records = append(records, rec)
	}

	hasMore := len(payload) == perPage
	return records, hasMore, nil
}

// ListNew returns upstream records of the given type that are not in known,
// in discovery order (newest first). Because pages arrive newest-first, the
// walk stops at the first page whose records are all already known, bounding
// the upstream calls to roughly the number of records created since the
// previous sync.
func (c *Client) ListNew(ctx context.Context, typ models.RecordType, known map[string]bool) ([]*models.Record, error) {
	var fresh []*models.Record

	for page := 1; ; page++ {
		records, hasMore, err := c.listPage(ctx, typ, page)
		if err != nil {
			return nil, err
		}

		newInPage := 0
		for _, rec := range records {
			if known[rec.ID()] {
				continue
			}
			fresh = append(fresh, rec)
			newInPage++
		}

		if len(records) > 0 && newInPage == 0 {
			break
		}
		if !hasMore {
			break
		}
	}

	return fresh, nil
}

// ListOpenNumbers enumerates the numbers of every currently-open record of the
// given type. Closure detection must only ever run against this complete
// listing, never a partial one.
func (c *Client) ListOpenNumbers(ctx context.Context, typ models.RecordType) ([]int, error) {
	var numbers []int

	for page := 1; ; page++ {
		records, hasMore, err := c.listPage(ctx, typ, page)
		if err != nil {
			return nil, err
		}
		for _, rec := range records {
			numbers = append(numbers, rec.Number)
		}
		if !hasMore {
			break
		}
	}

	return numbers, nil
}
