package quirks

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchBuiltin(t *testing.T) {
	r := NewRegistry(nil, false)

	bug, ok := r.Match("QUERY_TIMEOUT", "Account")
	require.True(t, ok)
	assert.Equal(t, "query-timeout", bug.ID)

	_, ok = r.Match("NOT_A_KNOWN_CODE", "Account")
	assert.False(t, ok)
}

func TestMatchObjectScoped(t *testing.T) {
	r := NewRegistry(nil, false)

	bug, ok := r.Match("MALFORMED_QUERY", "ContentDocumentLink")
	require.True(t, ok)
	assert.Equal(t, "content-document-link-filter", bug.ID)

	// Other objects fall through to the unscoped MALFORMED_QUERY bug.
	bug, ok = r.Match("MALFORMED_QUERY", "Account")
	require.True(t, ok)
	assert.Equal(t, "fields-all-limit", bug.ID)
}

func TestAdd(t *testing.T) {
	r := NewRegistry(nil, false)
	r.Add(Bug{ID: "org-specific", ErrorCode: "CUSTOM_CODE", Summary: "flaky validation rule"})

	bug, ok := r.Match("CUSTOM_CODE", "")
	require.True(t, ok)
	assert.Equal(t, "org-specific", bug.ID)
}

func TestReportOncePerBug(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	r := NewRegistry(logger, false)

	bug, _ := r.Match("QUERY_TIMEOUT", "")
	r.Report(bug, errors.New("boom"))
	r.Report(bug, errors.New("boom again"))

	assert.Equal(t, 1, bytes.Count(buf.Bytes(), []byte("known platform bug")))
	assert.Contains(t, buf.String(), "level=WARN")
}

func TestReportQuiet(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	r := NewRegistry(logger, true)

	bug, _ := r.Match("QUERY_TIMEOUT", "")
	r.Report(bug, errors.New("boom"))

	// Default text handler drops DEBUG records.
	assert.Empty(t, buf.String())
}

func TestQuietFromEnv(t *testing.T) {
	t.Setenv("QUIET_KNOWN_BUGS", "on")
	assert.True(t, QuietFromEnv())

	t.Setenv("QUIET_KNOWN_BUGS", "off")
	assert.False(t, QuietFromEnv())

	t.Setenv("QUIET_KNOWN_BUGS", "")
	assert.False(t, QuietFromEnv())
}
