package outlook

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	msgraphsdk "github.com/microsoftgraph/msgraph-sdk-go"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/microsoft"
)

// Config identifies the Azure app and the saved token.
type Config struct {
	ClientID string
	// TenantID defaults to "common".
	TenantID  string
	TokenFile string
	// CalendarIDs to read. Empty means every calendar on the account.
	CalendarIDs []string
}

// OAuthConfig is the Microsoft identity platform client used by
// `opengym auth` and by token refresh.
func (c Config) OAuthConfig() *oauth2.Config {
	tenant := c.TenantID
	if tenant == "" {
		tenant = "common"
	}
	return &oauth2.Config{
		ClientID: c.ClientID,
		Endpoint: microsoft.AzureADEndpoint(tenant),
		Scopes: []string{
			"https://graph.microsoft.com/Calendars.Read",
			"https://graph.microsoft.com/User.Read",
			"offline_access",
		},
	}
}

// savingSource writes each newly issued token back to the token file so a
// refresh survives restarts.
type savingSource struct {
	src    oauth2.TokenSource
	path   string
	logger *zap.Logger

	mu   sync.Mutex
	last string
}

func (s *savingSource) Token() (*oauth2.Token, error) {
	tok, err := s.src.Token()
	if err != nil {
		return nil, fmt.Errorf("token refresh failed (run 'opengym auth'): %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if tok.AccessToken != s.last {
		if err := SaveToken(s.path, tok); err != nil {
			s.logger.Warn("unable to persist refreshed token", zap.Error(err))
		}
		s.last = tok.AccessToken
	}
	return tok, nil
}

// graphCredential adapts an oauth2.TokenSource to azcore.TokenCredential,
// which is what the Graph SDK authenticates with.
type graphCredential struct {
	src oauth2.TokenSource
}

func (c graphCredential) GetToken(ctx context.Context, _ policy.TokenRequestOptions) (azcore.AccessToken, error) {
	tok, err := c.src.Token()
	if err != nil {
		return azcore.AccessToken{}, err
	}
	return azcore.AccessToken{Token: tok.AccessToken, ExpiresOn: tok.Expiry}, nil
}

// OutlookAdapter reads a gym schedule published as a Microsoft 365 calendar
// through the Graph SDK.
type OutlookAdapter struct {
	id        string
	name      string
	cfg       Config
	logger    *zap.Logger
	client    *msgraphsdk.GraphServiceClient
	calendars map[string]string
}

func NewOutlookAdapter(id, name string, cfg Config, logger *zap.Logger) *OutlookAdapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OutlookAdapter{
		id:        id,
		name:      name,
		cfg:       cfg,
		logger:    logger.Named("outlook"),
		calendars: make(map[string]string),
	}
}

func (o *OutlookAdapter) ID() string   { return o.id }
func (o *OutlookAdapter) Name() string { return o.name }

// Login loads the saved OAuth token and initializes the Graph SDK client.
func (o *OutlookAdapter) Login(ctx context.Context) error {
	tok, err := tokenFromFile(o.cfg.TokenFile)
	if err != nil {
		return fmt.Errorf("read token file (run 'opengym auth' first): %w", err)
	}
	if tok.AccessToken == "" && tok.RefreshToken == "" {
		return fmt.Errorf("token file %s holds no token, run 'opengym auth' again", o.cfg.TokenFile)
	}

	// The refreshing source must outlive ctx, which only covers login.
	src := &savingSource{
		src:    oauth2.ReuseTokenSource(tok, o.cfg.OAuthConfig().TokenSource(context.Background(), tok)),
		path:   o.cfg.TokenFile,
		logger: o.logger,
		last:   tok.AccessToken,
	}

	client, err := msgraphsdk.NewGraphServiceClientWithCredentials(graphCredential{src: src}, []string{
		"https://graph.microsoft.com/.default",
	})
	if err != nil {
		return fmt.Errorf("create graph client: %w", err)
	}
	o.client = client

	if len(o.cfg.CalendarIDs) > 0 {
		for _, id := range o.cfg.CalendarIDs {
			o.calendars[id] = id
		}
		return nil
	}
	o.loadCalendarList(ctx)
	return nil
}

// Calendars returns the calendars the adapter reads (ID -> Name).
func (o *OutlookAdapter) Calendars() map[string]string {
	return o.calendars
}

// loadCalendarList fetches all calendars the user has access to. When the
// list is unavailable the mailbox's default calendar is used.
func (o *OutlookAdapter) loadCalendarList(ctx context.Context) {
	result, err := o.client.Me().Calendars().Get(ctx, nil)
	if err != nil {
		o.logger.Warn("calendar list unavailable, using default calendar", zap.Error(err))
		o.calendars[defaultCalendar] = "Calendar"
		return
	}
	for _, cal := range result.GetValue() {
		id := cal.GetId()
		name := cal.GetName()
		if id != nil && name != nil {
			o.calendars[*id] = *name
		}
	}
}
