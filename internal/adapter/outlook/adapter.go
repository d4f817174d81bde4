package outlook

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	msgraphsdk "github.com/microsoftgraph/msgraph-sdk-go"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/microsoft"
)

// tokenCredential bridges the saved OAuth2 token into the Azure SDK's
// TokenCredential interface used by the Graph SDK.
type tokenCredential struct {
	adapter *OutlookAdapter
}

func (c *tokenCredential) GetToken(ctx context.Context, opts policy.TokenRequestOptions) (azcore.AccessToken, error) {
	tok, err := c.adapter.accessToken(ctx)
	if err != nil {
		return azcore.AccessToken{}, err
	}
	return azcore.AccessToken{
		Token:     tok.AccessToken,
		ExpiresOn: tok.Expiry,
	}, nil
}

// OutlookAdapter imports events from Microsoft Outlook / Office 365
// through Microsoft Graph.
type OutlookAdapter struct {
	id        string
	name      string
	clientID  string
	tenantID  string
	tokenFile string
	calendars map[string]string
	loc       *time.Location
	logger    *zap.Logger

	token   *oauth2.Token
	tokenMu sync.Mutex
	client  *msgraphsdk.GraphServiceClient
}

func NewOutlookAdapter(id, name, clientID, tenantID, tokenFile string, logger *zap.Logger) *OutlookAdapter {
	if tenantID == "" {
		tenantID = "common"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OutlookAdapter{
		id:        id,
		name:      name,
		clientID:  clientID,
		tenantID:  tenantID,
		tokenFile: tokenFile,
		calendars: make(map[string]string),
		loc:       time.Local,
		logger:    logger.With(zap.String("provider", id)),
	}
}

func (o *OutlookAdapter) ID() string   { return o.id }
func (o *OutlookAdapter) Name() string { return o.name }

// OAuthConfig returns the OAuth2 configuration for the Microsoft identity
// platform. Used by the auth command to run the initial OAuth flow.
func (o *OutlookAdapter) OAuthConfig() *oauth2.Config {
	return &oauth2.Config{
		ClientID:    o.clientID,
		Endpoint:    microsoft.AzureADEndpoint(o.tenantID),
		RedirectURL: "http://localhost:8085/callback",
		Scopes: []string{
			"https://graph.microsoft.com/Calendars.Read",
			"https://graph.microsoft.com/User.Read",
			"offline_access",
		},
	}
}

// Login loads the saved OAuth token and initializes the Graph SDK client.
func (o *OutlookAdapter) Login(ctx context.Context) error {
	tok, err := tokenFromFile(o.tokenFile)
	if err != nil {
		return fmt.Errorf("read token file (run 'plan auth --provider outlook' first): %w", err)
	}
	if tok.AccessToken == "" {
		return fmt.Errorf("token file has no access token, delete %s and run 'plan auth' again", o.tokenFile)
	}
	o.token = tok

	client, err := msgraphsdk.NewGraphServiceClientWithCredentials(&tokenCredential{adapter: o}, []string{
		"https://graph.microsoft.com/.default",
	})
	if err != nil {
		return fmt.Errorf("create graph client: %w", err)
	}
	o.client = client

	if err := o.loadCalendarList(ctx); err != nil {
		return fmt.Errorf("load calendar list: %w", err)
	}
	return nil
}

// accessToken returns a valid token, refreshing and persisting it when expired.
func (o *OutlookAdapter) accessToken(ctx context.Context) (*oauth2.Token, error) {
	o.tokenMu.Lock()
	defer o.tokenMu.Unlock()

	if o.token.Valid() {
		return o.token, nil
	}

	newTok, err := o.OAuthConfig().TokenSource(ctx, o.token).Token()
	if err != nil {
		return nil, fmt.Errorf("token expired and refresh failed (delete %s and run 'plan auth'): %w", o.tokenFile, err)
	}
	o.token = newTok

	if err := saveToken(o.tokenFile, newTok); err != nil {
		o.logger.Warn("failed to persist refreshed token", zap.Error(err))
	}
	return newTok, nil
}

// Calendars returns all available calendars (ID -> Name).
func (o *OutlookAdapter) Calendars() map[string]string {
	return o.calendars
}

// loadCalendarList fetches all calendars the user has access to. The
// default calendar is always reachable under the "default" id.
func (o *OutlookAdapter) loadCalendarList(ctx context.Context) error {
	result, err := o.client.Me().Calendars().Get(ctx, nil)
	if err != nil {
		o.logger.Warn("calendar list unavailable, using the default calendar", zap.Error(err))
		o.calendars["default"] = "Calendar"
		return nil
	}
	for _, cal := range result.GetValue() {
		id, name := cal.GetId(), cal.GetName()
		if id != nil && name != nil {
			o.calendars[*id] = *name
		}
	}
	if len(o.calendars) == 0 {
		o.calendars["default"] = "Calendar"
	}
	return nil
}
