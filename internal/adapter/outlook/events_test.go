package outlook

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/microsoftgraph/msgraph-sdk-go/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/theakshaypant/opengym/internal/core"
)

func ptr[T any](v T) *T { return &v }

func graphTime(s string) models.DateTimeTimeZoneable {
	dt := models.NewDateTimeTimeZone()
	dt.SetDateTime(ptr(s))
	dt.SetTimeZone(ptr("UTC"))
	return dt
}

func TestParseGraphEvent(t *testing.T) {
	item := models.NewEvent()
	item.SetId(ptr("AAMk1"))
	item.SetSubject(ptr("Beginner Lesson"))
	item.SetStart(graphTime("2026-10-20T17:00:00.0000000"))
	item.SetEnd(graphTime("2026-10-20T18:30:00.0000000"))
	item.SetWebLink(ptr("https://outlook.office365.com/owa/?itemid=AAMk1"))
	loc := models.NewLocation()
	loc.SetDisplayName(ptr("Court 2"))
	item.SetLocation(loc)

	ev, err := parseGraphEvent("outlook", item)
	require.NoError(t, err)

	assert.Equal(t, "AAMk1", ev.ID)
	assert.Equal(t, "outlook", ev.ProviderID)
	assert.Equal(t, core.KindLesson, ev.Kind)
	assert.Equal(t, "Court 2", ev.Location)
	assert.Equal(t, time.Date(2026, 10, 20, 17, 0, 0, 0, time.UTC), ev.Start)
	assert.Equal(t, 90*time.Minute, ev.Duration())
	assert.False(t, ev.IsAllDay)
}

func TestParseGraphEventBadTime(t *testing.T) {
	item := models.NewEvent()
	item.SetId(ptr("x"))
	item.SetStart(graphTime("Tuesday"))
	item.SetEnd(graphTime("2026-10-20T18:30:00"))

	_, err := parseGraphEvent("outlook", item)
	assert.Error(t, err)

	item.SetStart(nil)
	_, err = parseGraphEvent("outlook", item)
	assert.Error(t, err)
}

func TestDedupeByUID(t *testing.T) {
	start := time.Date(2026, 10, 20, 17, 0, 0, 0, time.UTC)
	a := core.NewEvent("1", "OPEN GYM", start, start.Add(time.Hour))
	b := core.NewEvent("2", "OPEN GYM", start, start.Add(time.Hour))
	c := core.NewEvent("3", "Lesson", start, start.Add(time.Hour))

	got := dedupeByUID([]graphEvent{
		{Event: a, uid: "uid-1"},
		{Event: b, uid: "uid-1"},
		{Event: c},
		{Event: c},
	})
	require.Len(t, got, 3)
	assert.Equal(t, "1", got[0].ID)
	assert.Equal(t, "3", got[1].ID)
	assert.Equal(t, "3", got[2].ID)
}

func TestSaveTokenRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.json")
	require.NoError(t, SaveToken(path, &oauth2.Token{AccessToken: "at", RefreshToken: "rt"}))

	tok, err := tokenFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "at", tok.AccessToken)
	assert.Equal(t, "rt", tok.RefreshToken)
}

func TestSavingSourcePersistsNewTokens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.json")
	src := &savingSource{
		src:    oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "fresh", RefreshToken: "rt"}),
		path:   path,
		logger: zap.NewNop(),
		last:   "stale",
	}

	tok, err := src.Token()
	require.NoError(t, err)
	assert.Equal(t, "fresh", tok.AccessToken)

	saved, err := tokenFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "fresh", saved.AccessToken)

	// An unchanged token is not written again.
	require.NoError(t, os.Remove(path))
	_, err = src.Token()
	require.NoError(t, err)
	assert.NoFileExists(t, path)
}

func TestOAuthConfigTenant(t *testing.T) {
	assert.Contains(t, Config{ClientID: "app"}.OAuthConfig().Endpoint.AuthURL, "/common/")
	assert.Contains(t, Config{ClientID: "app", TenantID: "contoso"}.OAuthConfig().Endpoint.AuthURL, "/contoso/")
}
