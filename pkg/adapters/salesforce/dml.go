package salesforce

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/forceql/forceql/pkg/core"
	"github.com/forceql/forceql/pkg/soql"
)

// compositeChunkSize is the per-request record cap of the composite
// collections API.
const compositeChunkSize = 200

// saveResponse is the per-record outcome of a DML call.
type saveResponse struct {
	ID      string `json:"id"`
	Success bool   `json:"success"`
	Errors  []struct {
		StatusCode string   `json:"statusCode"`
		Message    string   `json:"message"`
		Fields     []string `json:"fields"`
	} `json:"errors"`
}

func (r saveResponse) toResult() core.SaveResult {
	out := core.SaveResult{ID: r.ID, Success: r.Success}
	for _, e := range r.Errors {
		out.Errors = append(out.Errors, fmt.Sprintf("%s: %s", e.StatusCode, e.Message))
	}
	return out
}

// DMLError reports rows a DML statement failed to save.
type DMLError struct {
	Object  string
	Failed  int
	Total   int
	Details []string
}

func (e *DMLError) Error() string {
	msg := fmt.Sprintf("%d of %d %s rows failed", e.Failed, e.Total, e.Object)
	if len(e.Details) > 0 {
		msg += ": " + strings.Join(e.Details, "; ")
	}
	return msg
}

// executeInsert creates the planned rows, using the composite collections
// endpoint for multi-row statements.
func (c *client) executeInsert(ctx context.Context, plan *soql.InsertPlan, allOrNone bool) (*core.ExecResult, error) {
	if len(plan.Rows) == 1 {
		var resp saveResponse
		path := c.basePath() + "/sobjects/" + plan.Object
		if err := c.do(ctx, "POST", path, nil, plan.Rows[0], &resp); err != nil {
			return nil, c.noteQuirk(err, plan.Object)
		}
		return collectSaveResults(plan.Object, []saveResponse{resp}, []string{resp.ID})
	}

	var (
		results []saveResponse
		ids     []string
	)
	for start := 0; start < len(plan.Rows); start += compositeChunkSize {
		end := min(start+compositeChunkSize, len(plan.Rows))

		records := make([]map[string]any, 0, end-start)
		for _, row := range plan.Rows[start:end] {
			rec := make(map[string]any, len(row)+1)
			for k, v := range row {
				rec[k] = v
			}
			rec["attributes"] = map[string]string{"type": plan.Object}
			records = append(records, rec)
		}

		var page []saveResponse
		body := map[string]any{"allOrNone": allOrNone, "records": records}
		if err := c.do(ctx, "POST", c.basePath()+"/composite/sobjects", nil, body, &page); err != nil {
			return nil, c.noteQuirk(err, plan.Object)
		}
		results = append(results, page...)
		for _, r := range page {
			if r.Success {
				ids = append(ids, r.ID)
			}
		}
	}
	return collectSaveResults(plan.Object, results, ids)
}

// executeUpdate applies the planned field changes to every targeted row.
func (c *client) executeUpdate(ctx context.Context, plan *soql.UpdatePlan, allOrNone bool, pkField string) (*core.ExecResult, error) {
	if plan.Empty {
		return &core.ExecResult{}, nil
	}

	ids := plan.IDs
	if len(ids) == 0 {
		var err error
		ids, err = c.queryIDs(ctx, plan.Object, plan.Where, pkField)
		if err != nil {
			return nil, c.noteQuirk(err, plan.Object)
		}
	}
	if len(ids) == 0 {
		return &core.ExecResult{}, nil
	}

	if len(ids) == 1 {
		path := c.basePath() + "/sobjects/" + plan.Object + "/" + ids[0]
		if err := c.do(ctx, "PATCH", path, nil, plan.Values, nil); err != nil {
			return nil, c.noteQuirk(err, plan.Object)
		}
		return &core.ExecResult{RowsAffected: 1}, nil
	}

	var results []saveResponse
	for start := 0; start < len(ids); start += compositeChunkSize {
		end := min(start+compositeChunkSize, len(ids))

		records := make([]map[string]any, 0, end-start)
		for _, id := range ids[start:end] {
			rec := make(map[string]any, len(plan.Values)+2)
			for k, v := range plan.Values {
				rec[k] = v
			}
			rec[pkField] = id
			rec["attributes"] = map[string]string{"type": plan.Object}
			records = append(records, rec)
		}

		var page []saveResponse
		body := map[string]any{"allOrNone": allOrNone, "records": records}
		if err := c.do(ctx, "PATCH", c.basePath()+"/composite/sobjects", nil, body, &page); err != nil {
			return nil, c.noteQuirk(err, plan.Object)
		}
		results = append(results, page...)
	}
	return collectSaveResults(plan.Object, results, nil)
}

// executeDelete removes every targeted row.
func (c *client) executeDelete(ctx context.Context, plan *soql.DeletePlan, allOrNone bool, pkField string) (*core.ExecResult, error) {
	if plan.Empty {
		return &core.ExecResult{}, nil
	}

	ids := plan.IDs
	if len(ids) == 0 {
		var err error
		ids, err = c.queryIDs(ctx, plan.Object, plan.Where, pkField)
		if err != nil {
			return nil, c.noteQuirk(err, plan.Object)
		}
	}
	if len(ids) == 0 {
		return &core.ExecResult{}, nil
	}

	if len(ids) == 1 {
		path := c.basePath() + "/sobjects/" + plan.Object + "/" + ids[0]
		if err := c.do(ctx, "DELETE", path, nil, nil, nil); err != nil {
			return nil, c.noteQuirk(err, plan.Object)
		}
		return &core.ExecResult{RowsAffected: 1}, nil
	}

	var results []saveResponse
	for start := 0; start < len(ids); start += compositeChunkSize {
		end := min(start+compositeChunkSize, len(ids))

		params := url.Values{
			"ids":       {strings.Join(ids[start:end], ",")},
			"allOrNone": {strconv.FormatBool(allOrNone)},
		}
		var page []saveResponse
		if err := c.do(ctx, "DELETE", c.basePath()+"/composite/sobjects", params, nil, &page); err != nil {
			return nil, c.noteQuirk(err, plan.Object)
		}
		results = append(results, page...)
	}
	return collectSaveResults(plan.Object, results, nil)
}

// collectSaveResults aggregates per-record outcomes into an ExecResult,
// failing when any record was rejected.
func collectSaveResults(object string, results []saveResponse, insertedIDs []string) (*core.ExecResult, error) {
	out := &core.ExecResult{InsertedIDs: insertedIDs}
	var details []string
	for _, r := range results {
		if r.Success {
			out.RowsAffected++
			continue
		}
		sr := r.toResult()
		details = append(details, strings.Join(sr.Errors, "; "))
	}
	if len(details) > 0 {
		return nil, &DMLError{
			Object:  object,
			Failed:  len(details),
			Total:   len(results),
			Details: details,
		}
	}
	return out, nil
}
