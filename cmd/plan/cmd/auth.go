package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/theakshaypant/plan/internal/adapter/google"
	"github.com/theakshaypant/plan/internal/adapter/outlook"
	"github.com/theakshaypant/plan/internal/util"
)

const (
	redirectPort = "8085"
	redirectURL  = "http://localhost:" + redirectPort + "/callback"
	authTimeout  = 5 * time.Minute
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Authenticate with a calendar provider for importing",
	Long: `Authenticate with your calendar provider using OAuth, so 'plan import google'
and 'plan import outlook' can read your events.

  1. Starts a local server to receive the OAuth callback
  2. Opens your browser to sign in
  3. Saves the token for future use

Google needs credentials_file (an OAuth client for a desktop app).
Outlook needs client_id (and optionally tenant_id) of an Azure app registration.`,
	RunE: runAuth,
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.Flags().String("provider", "", "Calendar provider (google, outlook); defaults to the configured one")
}

func runAuth(cmd *cobra.Command, args []string) error {
	tokenFile := expandPath(viper.GetString("token_file"))

	var (
		config   *oauth2.Config
		name     string
		authOpts []oauth2.AuthCodeOption
	)

	switch provider := providerFor(cmd); provider {
	case "google":
		credsFile := expandPath(viper.GetString("credentials_file"))
		adapter := google.NewGoogleAdapter("google", "Google Calendar", credsFile, tokenFile, logger)
		var err error
		if config, err = adapter.OAuthConfig(); err != nil {
			return fmt.Errorf("%w\n\nDownload an OAuth client (Desktop app) from the Google Cloud console and save it as %s", err, credsFile)
		}
		config.RedirectURL = redirectURL
		name = "Google"
		authOpts = []oauth2.AuthCodeOption{oauth2.AccessTypeOffline, oauth2.ApprovalForce}

	case "outlook":
		clientID := viper.GetString("client_id")
		if clientID == "" {
			return fmt.Errorf("client_id not configured\n\nAdd it to your profile config:\n  client_id: \"your-azure-app-client-id\"")
		}
		adapter := outlook.NewOutlookAdapter("outlook", "Outlook Calendar", clientID, viper.GetString("tenant_id"), tokenFile, logger)
		config = adapter.OAuthConfig()
		name = "Microsoft"
		authOpts = []oauth2.AuthCodeOption{oauth2.SetAuthURLParam("prompt", "consent")}

	default:
		return fmt.Errorf("unknown provider: %s (supported: google, outlook)", provider)
	}

	tok, err := getTokenViaLocalServer(cmd.Context(), config, name, authOpts...)
	if err != nil {
		return fmt.Errorf("failed to get token: %w", err)
	}

	if err := saveToken(tokenFile, tok); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}

	fmt.Println("\n✅ Authentication successful!")
	fmt.Printf("📁 Token saved to %s\n", tokenFile)
	fmt.Println("\nYou can now run 'plan calendars' and 'plan import'.")

	return nil
}

const authSuccessPage = `<!DOCTYPE html>
<html>
<head>
	<title>Authorization Successful</title>
	<style>
		body { font-family: -apple-system, sans-serif; display: flex;
		       justify-content: center; align-items: center; height: 100vh;
		       margin: 0; background: #1a1a1a; color: #fff; }
		.card { background: #2d2d2d; padding: 40px; border-radius: 12px; text-align: center; }
		h1 { color: #4ade80; margin-bottom: 10px; }
		p { color: #a1a1aa; }
	</style>
</head>
<body>
	<div class="card">
		<h1>Authorization Successful</h1>
		<p>You can close this window and return to the terminal.</p>
	</div>
</body>
</html>`

func getTokenViaLocalServer(ctx context.Context, config *oauth2.Config, providerName string, authOpts ...oauth2.AuthCodeOption) (*oauth2.Token, error) {
	codeChan := make(chan string, 1)
	errChan := make(chan error, 1)

	mux := http.NewServeMux()
	mux.HandleFunc("/callback", func(w http.ResponseWriter, r *http.Request) {
		code := r.URL.Query().Get("code")
		if code == "" {
			errMsg := r.URL.Query().Get("error")
			http.Error(w, "Authorization failed: "+errMsg, http.StatusBadRequest)
			select {
			case errChan <- fmt.Errorf("authorization failed: %s", errMsg):
			default:
			}
			return
		}

		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, authSuccessPage)

		select {
		case codeChan <- code:
		default:
		}
	})

	server := &http.Server{Addr: ":" + redirectPort, Handler: mux}
	defer server.Shutdown(context.Background())

	go func() {
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			select {
			case errChan <- err:
			default:
			}
		}
	}()

	authURL := config.AuthCodeURL("state-token", authOpts...)

	fmt.Printf("🔐 Opening browser for %s authorization...\n", providerName)
	fmt.Println()

	if err := util.OpenURL(authURL); err != nil {
		logger.Debug("browser launch failed", zap.Error(err))
		fmt.Println("⚠️  Couldn't open browser automatically.")
		fmt.Println("   Please open this URL manually:")
		fmt.Println(authURL)
	}

	fmt.Println("⏳ Waiting for authorization...")

	var code string
	select {
	case code = <-codeChan:
	case err := <-errChan:
		return nil, err
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(authTimeout):
		return nil, fmt.Errorf("timeout waiting for authorization")
	}

	tok, err := config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange code: %w", err)
	}

	return tok, nil
}

func saveToken(path string, token *oauth2.Token) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	defer f.Close()
	return json.NewEncoder(f).Encode(token)
}
