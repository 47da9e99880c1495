package salesforce

import (
	"context"
	"net/url"

	"github.com/forceql/forceql/pkg/core"
	"github.com/forceql/forceql/pkg/soql"
)

// queryResponse is one page of query results.
type queryResponse struct {
	TotalSize      int              `json:"totalSize"`
	Done           bool             `json:"done"`
	NextRecordsURL string           `json:"nextRecordsUrl"`
	Records        []map[string]any `json:"records"`
}

// runQuery executes a translated query, following nextRecordsUrl until the
// full result set is collected.
func (c *client) runQuery(ctx context.Context, q *soql.Query) (*core.QueryResult, error) {
	if q.Empty {
		return emptyResult(q), nil
	}

	endpoint := c.basePath() + "/query"
	if q.QueryAll {
		endpoint = c.basePath() + "/queryAll"
	}

	var (
		records   []map[string]any
		totalSize int
	)

	path := endpoint
	params := url.Values{"q": {q.SOQL}}
	for {
		var page queryResponse
		if err := c.get(ctx, path, params, &page); err != nil {
			return nil, err
		}
		if totalSize == 0 {
			totalSize = page.TotalSize
		}
		records = append(records, page.Records...)
		if page.Done || page.NextRecordsURL == "" {
			break
		}
		// nextRecordsUrl is already a full /services path with the
		// locator baked in.
		path = page.NextRecordsURL
		params = nil
	}

	result, err := buildResult(q, records)
	if err != nil {
		return nil, err
	}
	result.TotalSize = totalSize
	return result, nil
}

// runRawQuery executes a SOQL string directly, without translation.
func (c *client) runRawQuery(ctx context.Context, soqlText string, queryAll bool) (*core.QueryResult, error) {
	return c.runQuery(ctx, &soql.Query{SOQL: soqlText, QueryAll: queryAll, Wildcard: true})
}

// queryIDs fetches the primary keys matching a rendered condition. Used by
// UPDATE/DELETE statements whose filter is not pk-only.
func (c *client) queryIDs(ctx context.Context, object, where, pkField string) ([]string, error) {
	soqlText := "SELECT " + pkField + " FROM " + object
	if where != "" {
		soqlText += " WHERE " + where
	}

	q := &soql.Query{
		SOQL:    soqlText,
		Columns: []soql.Column{{Name: pkField, Path: pkField}},
	}
	res, err := c.runQuery(ctx, q)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(res.Rows))
	for _, row := range res.Rows {
		if id, ok := row[0].(string); ok && id != "" {
			ids = append(ids, id)
		}
	}
	return ids, nil
}
