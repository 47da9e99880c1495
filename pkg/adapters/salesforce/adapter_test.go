package salesforce

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forceql/forceql/pkg/core"
)

// fakeOrg is an in-process stand-in for the remote API: a token endpoint
// plus whatever REST routes a test registers.
type fakeOrg struct {
	t         *testing.T
	mux       *http.ServeMux
	srv       *httptest.Server
	logins    atomic.Int32
	failLogin bool
}

func newFakeOrg(t *testing.T) *fakeOrg {
	t.Helper()
	f := &fakeOrg{t: t, mux: http.NewServeMux()}
	f.mux.HandleFunc("POST /services/oauth2/token", f.handleToken)
	f.srv = httptest.NewServer(f.mux)
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeOrg) handleToken(w http.ResponseWriter, r *http.Request) {
	require.NoError(f.t, r.ParseForm())
	assert.Equal(f.t, "password", r.PostFormValue("grant_type"))

	if f.failLogin {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"error":             "invalid_grant",
			"error_description": "authentication failure",
		})
		return
	}

	n := f.logins.Add(1)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"access_token": fmt.Sprintf("tok-%d", n),
		"instance_url": f.srv.URL,
		"token_type":   "Bearer",
	})
}

func (f *fakeOrg) handle(pattern string, fn http.HandlerFunc) {
	f.mux.HandleFunc(pattern, fn)
}

func (f *fakeOrg) config() core.ConnectionConfig {
	return core.ConnectionConfig{
		Type:           "salesforce",
		Host:           f.srv.URL,
		Username:       "it@example.com",
		Password:       "hunter2",
		ConsumerKey:    "ck",
		ConsumerSecret: "cs",
	}
}

func connect(t *testing.T, f *fakeOrg, mutate func(*core.ConnectionConfig)) *Adapter {
	t.Helper()
	cfg := f.config()
	if mutate != nil {
		mutate(&cfg)
	}
	a := New(nil)
	require.NoError(t, a.Connect(context.Background(), cfg))
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	require.NoError(t, json.NewEncoder(w).Encode(v))
}

func TestConnectLogsIn(t *testing.T) {
	f := newFakeOrg(t)
	connect(t, f, nil)
	assert.Equal(t, int32(1), f.logins.Load())
}

func TestConnectLazy(t *testing.T) {
	f := newFakeOrg(t)
	f.handle("GET /services/data/v59.0/query", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, queryResponse{Done: true})
	})

	a := connect(t, f, func(cfg *core.ConnectionConfig) { cfg.LazyConnect = true })
	assert.Equal(t, int32(0), f.logins.Load(), "lazy connect must not log in")

	_, err := a.Query(context.Background(), "SELECT Id FROM Account")
	require.NoError(t, err)
	assert.Equal(t, int32(1), f.logins.Load())
}

func TestConnectRejectsIncompleteCredentials(t *testing.T) {
	a := New(nil)
	err := a.Connect(context.Background(), core.ConnectionConfig{Username: "u", Password: "p"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "consumer key")
}

func TestConnectAuthFailure(t *testing.T) {
	f := newFakeOrg(t)
	f.failLogin = true

	a := New(nil)
	err := a.Connect(context.Background(), f.config())
	require.Error(t, err)
	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, "invalid_grant", authErr.Code)
}

func TestQueryMaterializesNestedRecords(t *testing.T) {
	f := newFakeOrg(t)
	f.handle("GET /services/data/v59.0/query", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
		assert.Equal(t,
			"SELECT Contact.LastName, Contact.Account.Name FROM Contact",
			r.URL.Query().Get("q"))
		writeJSON(t, w, queryResponse{
			TotalSize: 1,
			Done:      true,
			Records: []map[string]any{{
				"attributes": map[string]any{"type": "Contact"},
				"LastName":   "Doe",
				"Account": map[string]any{
					"attributes": map[string]any{"type": "Account"},
					"Name":       "Acme",
				},
			}},
		})
	})

	a := connect(t, f, nil)
	res, err := a.Query(context.Background(),
		"SELECT c.LastName, a.Name FROM Contact c JOIN Account a ON c.AccountId = a.Id")
	require.NoError(t, err)

	assert.Equal(t, []string{"LastName", "Account.Name"}, res.Columns)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, []any{"Doe", "Acme"}, res.Rows[0])
	assert.Equal(t, 1, res.TotalSize)
}

func TestQueryFollowsPagination(t *testing.T) {
	f := newFakeOrg(t)
	f.handle("GET /services/data/v59.0/query", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, queryResponse{
			TotalSize:      2,
			NextRecordsURL: "/services/data/v59.0/query/01g000-2000",
			Records:        []map[string]any{{"Id": "a1"}},
		})
	})
	f.handle("GET /services/data/v59.0/query/01g000-2000", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, queryResponse{
			TotalSize: 2,
			Done:      true,
			Records:   []map[string]any{{"Id": "a2"}},
		})
	})

	a := connect(t, f, nil)
	res, err := a.Query(context.Background(), "SELECT Id FROM Account")
	require.NoError(t, err)

	require.Len(t, res.Rows, 2)
	assert.Equal(t, "a1", res.Rows[0][0])
	assert.Equal(t, "a2", res.Rows[1][0])
	assert.Equal(t, 2, res.TotalSize)
}

func TestQueryEmptySetSkipsAPI(t *testing.T) {
	f := newFakeOrg(t)
	var calls atomic.Int32
	f.handle("GET /services/data/v59.0/query", func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeJSON(t, w, queryResponse{Done: true})
	})

	a := connect(t, f, nil)
	res, err := a.Query(context.Background(), "SELECT Id FROM Account LIMIT 0")
	require.NoError(t, err)

	assert.Empty(t, res.Rows)
	assert.Equal(t, []string{"Id"}, res.Columns)
	assert.Equal(t, int32(0), calls.Load(), "empty-set query must not call the API")
}

func TestQueryAllOption(t *testing.T) {
	f := newFakeOrg(t)
	var hitQueryAll atomic.Bool
	f.handle("GET /services/data/v59.0/queryAll", func(w http.ResponseWriter, r *http.Request) {
		hitQueryAll.Store(true)
		writeJSON(t, w, queryResponse{Done: true})
	})

	a := connect(t, f, func(cfg *core.ConnectionConfig) {
		cfg.Options = map[string]string{"query_all": "true"}
	})
	_, err := a.Query(context.Background(), "SELECT Id FROM Account")
	require.NoError(t, err)
	assert.True(t, hitQueryAll.Load())
}

func TestQueryReauthenticatesOnExpiredSession(t *testing.T) {
	f := newFakeOrg(t)
	f.handle("GET /services/data/v59.0/query", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "Bearer tok-1" {
			w.WriteHeader(http.StatusUnauthorized)
			writeJSON(t, w, []RemoteError{{
				Message:   "Session expired or invalid",
				ErrorCode: "INVALID_SESSION_ID",
			}})
			return
		}
		writeJSON(t, w, queryResponse{Done: true, Records: []map[string]any{{"Id": "a1"}}})
	})

	a := connect(t, f, nil)
	res, err := a.Query(context.Background(), "SELECT Id FROM Account")
	require.NoError(t, err)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, int32(2), f.logins.Load(), "expired session should trigger exactly one re-login")
}

func TestQueryRetriesTransientErrors(t *testing.T) {
	f := newFakeOrg(t)
	var calls atomic.Int32
	f.handle("GET /services/data/v59.0/query", func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			writeJSON(t, w, []RemoteError{{Message: "unavailable", ErrorCode: "SERVER_UNAVAILABLE"}})
			return
		}
		writeJSON(t, w, queryResponse{Done: true})
	})

	a := connect(t, f, nil)
	_, err := a.Query(context.Background(), "SELECT Id FROM Account")
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestQuerySurfacesAPIError(t *testing.T) {
	f := newFakeOrg(t)
	f.handle("GET /services/data/v59.0/query", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		writeJSON(t, w, []RemoteError{{Message: "no such column", ErrorCode: "INVALID_FIELD"}})
	})

	a := connect(t, f, nil)
	_, err := a.Query(context.Background(), "SELECT Nope FROM Account")
	require.Error(t, err)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "INVALID_FIELD", apiErr.Code())
	assert.Contains(t, err.Error(), "no such column")
}

func TestExecInsertSingle(t *testing.T) {
	f := newFakeOrg(t)
	f.handle("POST /services/data/v59.0/sobjects/Contact", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Doe", body["LastName"])
		writeJSON(t, w, saveResponse{ID: "003xx1", Success: true})
	})

	a := connect(t, f, nil)
	res, err := a.Exec(context.Background(), "INSERT INTO Contact (LastName) VALUES (?)", "Doe")
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.RowsAffected)
	assert.Equal(t, []string{"003xx1"}, res.InsertedIDs)
}

func TestExecInsertMultiUsesComposite(t *testing.T) {
	f := newFakeOrg(t)
	f.handle("POST /services/data/v59.0/composite/sobjects", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			AllOrNone bool             `json:"allOrNone"`
			Records   []map[string]any `json:"records"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.True(t, body.AllOrNone)
		require.Len(t, body.Records, 2)
		attrs, ok := body.Records[0]["attributes"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "Contact", attrs["type"])

		writeJSON(t, w, []saveResponse{
			{ID: "003xx1", Success: true},
			{ID: "003xx2", Success: true},
		})
	})

	a := connect(t, f, func(cfg *core.ConnectionConfig) {
		cfg.Options = map[string]string{"all_or_none": "true"}
	})
	res, err := a.Exec(context.Background(),
		"INSERT INTO Contact (LastName) VALUES ('Doe'), ('Roe')")
	require.NoError(t, err)
	assert.Equal(t, int64(2), res.RowsAffected)
	assert.Equal(t, []string{"003xx1", "003xx2"}, res.InsertedIDs)
}

func TestExecInsertReportsRowFailures(t *testing.T) {
	f := newFakeOrg(t)
	f.handle("POST /services/data/v59.0/composite/sobjects", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, []map[string]any{
			{"id": "003xx1", "success": true},
			{"success": false, "errors": []map[string]any{
				{"statusCode": "REQUIRED_FIELD_MISSING", "message": "LastName is required"},
			}},
		})
	})

	a := connect(t, f, nil)
	_, err := a.Exec(context.Background(),
		"INSERT INTO Contact (FirstName) VALUES ('Jane'), ('John')")
	require.Error(t, err)
	var dmlErr *DMLError
	require.ErrorAs(t, err, &dmlErr)
	assert.Equal(t, 1, dmlErr.Failed)
	assert.Equal(t, 2, dmlErr.Total)
	assert.Contains(t, err.Error(), "REQUIRED_FIELD_MISSING")
}

func TestExecUpdateByID(t *testing.T) {
	f := newFakeOrg(t)
	f.handle("PATCH /services/data/v59.0/sobjects/Account/0011x1", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Acme", body["Name"])
		w.WriteHeader(http.StatusNoContent)
	})

	a := connect(t, f, nil)
	res, err := a.Exec(context.Background(), "UPDATE Account SET Name = ? WHERE Id = ?", "Acme", "0011x1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.RowsAffected)
}

func TestExecUpdateWithConditionPrefetchesIDs(t *testing.T) {
	f := newFakeOrg(t)
	f.handle("GET /services/data/v59.0/query", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "SELECT Id FROM Account WHERE Account.Industry = 'Energy'", r.URL.Query().Get("q"))
		writeJSON(t, w, queryResponse{
			Done:    true,
			Records: []map[string]any{{"Id": "0011x1"}, {"Id": "0011x2"}},
		})
	})
	f.handle("PATCH /services/data/v59.0/composite/sobjects", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Records []map[string]any `json:"records"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Len(t, body.Records, 2)
		assert.Equal(t, "0011x1", body.Records[0]["Id"])
		assert.Equal(t, "x", body.Records[0]["Name"])
		writeJSON(t, w, []saveResponse{{ID: "0011x1", Success: true}, {ID: "0011x2", Success: true}})
	})

	a := connect(t, f, nil)
	res, err := a.Exec(context.Background(), "UPDATE Account SET Name = 'x' WHERE Industry = 'Energy'")
	require.NoError(t, err)
	assert.Equal(t, int64(2), res.RowsAffected)
}

func TestExecDeleteByIDList(t *testing.T) {
	f := newFakeOrg(t)
	f.handle("DELETE /services/data/v59.0/composite/sobjects", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "00Txx1,00Txx2", r.URL.Query().Get("ids"))
		writeJSON(t, w, []saveResponse{{ID: "00Txx1", Success: true}, {ID: "00Txx2", Success: true}})
	})

	a := connect(t, f, nil)
	res, err := a.Exec(context.Background(), "DELETE FROM Task WHERE Id IN (?)", []string{"00Txx1", "00Txx2"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), res.RowsAffected)
}

func TestExecEmptyFilterSkipsAPI(t *testing.T) {
	f := newFakeOrg(t)

	a := connect(t, f, nil)
	res, err := a.Exec(context.Background(), "DELETE FROM Task WHERE Id IN (?)", []string{})
	require.NoError(t, err)
	assert.Equal(t, int64(0), res.RowsAffected)
}

func TestExecRejectsSelect(t *testing.T) {
	f := newFakeOrg(t)
	a := connect(t, f, nil)
	_, err := a.Exec(context.Background(), "SELECT Id FROM Account")
	require.Error(t, err)
}

func TestListObjects(t *testing.T) {
	f := newFakeOrg(t)
	f.handle("GET /services/data/v59.0/sobjects", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, map[string]any{
			"sobjects": []map[string]any{
				{"name": "Contact", "label": "Contact", "keyPrefix": "003", "queryable": true},
				{"name": "Account", "label": "Account", "keyPrefix": "001", "queryable": true},
			},
		})
	})

	a := connect(t, f, nil)
	objs, err := a.ListObjects(context.Background())
	require.NoError(t, err)
	require.Len(t, objs, 2)
	assert.Equal(t, "Account", objs[0].Name, "objects should be sorted by name")
	assert.Equal(t, "003", objs[1].KeyPrefix)
}

func TestDescribeObject(t *testing.T) {
	f := newFakeOrg(t)
	f.handle("GET /services/data/v59.0/sobjects/Account/describe", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, map[string]any{
			"name":       "Account",
			"label":      "Account",
			"keyPrefix":  "001",
			"queryable":  true,
			"createable": true,
			"fields": []map[string]any{
				{"name": "Id", "type": "id", "length": 18},
				{
					"name": "OwnerId", "type": "reference",
					"referenceTo": []string{"User"}, "relationshipName": "Owner",
				},
				{
					"name": "Industry", "type": "picklist", "nillable": true,
					"picklistValues": []map[string]any{
						{"value": "Banking", "active": true},
						{"value": "Retired", "active": false},
					},
				},
			},
		})
	})

	a := connect(t, f, nil)
	meta, err := a.DescribeObject(context.Background(), "Account")
	require.NoError(t, err)

	assert.Equal(t, "Account", meta.Name)
	require.Len(t, meta.Fields, 3)
	assert.True(t, meta.Fields[0].IsPrimaryKey())
	assert.True(t, meta.Fields[1].IsReference())
	assert.Equal(t, []string{"User"}, meta.Fields[1].ReferenceTo)
	assert.Equal(t, []string{"Banking"}, meta.Fields[2].PicklistValues, "inactive picklist values are dropped")
	require.NotNil(t, meta.FieldByName("Industry"))
	assert.Nil(t, meta.FieldByName("Nope"))
}

func TestDescribeObjectsConcurrent(t *testing.T) {
	f := newFakeOrg(t)
	for _, name := range []string{"Account", "Contact", "Task"} {
		f.handle("GET /services/data/v59.0/sobjects/"+name+"/describe", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(t, w, map[string]any{"name": name})
		})
	}

	a := connect(t, f, nil)
	metas, err := a.DescribeObjects(context.Background(), []string{"Contact", "Account", "Task"})
	require.NoError(t, err)
	require.Len(t, metas, 3)
	assert.Equal(t, "Contact", metas[0].Name, "order follows the request")
	assert.Equal(t, "Account", metas[1].Name)
}

func TestQueryRequiresConnect(t *testing.T) {
	a := New(nil)
	_, err := a.Query(context.Background(), "SELECT Id FROM Account")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not connected")
}
