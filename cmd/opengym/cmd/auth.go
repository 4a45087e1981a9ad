package cmd

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/exec"
	"runtime"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/oauth2"

	"github.com/theakshaypant/opengym/internal/adapter/google"
	"github.com/theakshaypant/opengym/internal/adapter/outlook"
)

const (
	callbackAddr = "localhost:8085"
	redirectURL  = "http://" + callbackAddr + "/callback"
	authTimeout  = 5 * time.Minute
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Authenticate with a private gym calendar",
	Long: `Authenticate with Google or Microsoft so opengym can read a private
calendar. Public Google calendars only need api_key and ICS feeds need no
authentication at all.

A local server receives the OAuth callback, your browser opens the sign-in
page and the token is saved to token_file.`,
	RunE: runAuth,
}

func init() {
	rootCmd.AddCommand(authCmd)
}

func runAuth(cmd *cobra.Command, args []string) error {
	tokenFile := expandPath(viper.GetString("token_file"))

	var (
		config *oauth2.Config
		name   string
		opts   []oauth2.AuthCodeOption
	)
	switch provider := viper.GetString("provider"); provider {
	case "google":
		c, err := google.OAuthConfig(expandPath(viper.GetString("credentials_file")))
		if err != nil {
			return err
		}
		config, name = c, "Google"
		opts = []oauth2.AuthCodeOption{oauth2.AccessTypeOffline, oauth2.ApprovalForce}
	case "outlook":
		clientID := viper.GetString("client_id")
		if clientID == "" {
			return fmt.Errorf("client_id not configured\n\nAdd it to your profile config:\n  client_id: \"your-azure-app-client-id\"")
		}
		cfg := outlook.Config{ClientID: clientID, TenantID: viper.GetString("tenant_id")}
		config, name = cfg.OAuthConfig(), "Microsoft"
		opts = []oauth2.AuthCodeOption{oauth2.SetAuthURLParam("prompt", "consent")}
	case "ics":
		fmt.Println("ICS feeds need no authentication.")
		return nil
	default:
		return fmt.Errorf("unknown provider: %s (supported: google, outlook, ics)", provider)
	}
	config.RedirectURL = redirectURL

	tok, err := tokenViaLocalServer(cmd.Context(), config, name, opts...)
	if err != nil {
		return fmt.Errorf("failed to get token: %w", err)
	}

	if err := outlook.SaveToken(tokenFile, tok); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}

	fmt.Println("\n✅ Authentication successful!")
	fmt.Printf("📁 Token saved to %s\n", tokenFile)
	fmt.Println("\nRun 'opengym' or 'opengym ui' to see the schedule.")
	return nil
}

const callbackPage = `<!DOCTYPE html>
<html><head><title>opengym</title></head>
<body style="font-family: sans-serif; text-align: center; margin-top: 20vh">
<h1>Signed in</h1><p>You can close this window and return to the terminal.</p>
</body></html>`

func tokenViaLocalServer(ctx context.Context, config *oauth2.Config, providerName string, authOpts ...oauth2.AuthCodeOption) (*oauth2.Token, error) {
	state, err := randomState()
	if err != nil {
		return nil, err
	}

	ln, err := net.Listen("tcp", callbackAddr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", callbackAddr, err)
	}

	codes := make(chan string, 1)
	errs := make(chan error, 1)

	mux := http.NewServeMux()
	mux.HandleFunc("/callback", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("state") != state {
			http.Error(w, "state mismatch", http.StatusBadRequest)
			return
		}
		code := q.Get("code")
		if code == "" {
			http.Error(w, "Authorization failed: "+q.Get("error"), http.StatusBadRequest)
			report(errs, fmt.Errorf("authorization failed: %s", q.Get("error")))
			return
		}
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, callbackPage)
		report(codes, code)
	})

	server := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			report(errs, err)
		}
	}()
	defer server.Shutdown(context.Background())

	authURL := config.AuthCodeURL(state, authOpts...)
	fmt.Printf("🔐 Opening browser for %s authorization...\n\n", providerName)
	if err := openBrowser(authURL); err != nil {
		fmt.Println("⚠️  Couldn't open browser automatically.")
		fmt.Println("   Please open this URL manually:")
		fmt.Println(authURL)
	}
	fmt.Println("⏳ Waiting for authorization...")

	ctx, cancel := context.WithTimeout(ctx, authTimeout)
	defer cancel()

	select {
	case code := <-codes:
		tok, err := config.Exchange(ctx, code)
		if err != nil {
			return nil, fmt.Errorf("failed to exchange code: %w", err)
		}
		return tok, nil
	case err := <-errs:
		return nil, err
	case <-ctx.Done():
		return nil, fmt.Errorf("timeout waiting for authorization: %w", ctx.Err())
	}
}

// report delivers v unless a result is already waiting. Only the first
// callback counts.
func report[T any](ch chan<- T, v T) {
	select {
	case ch <- v:
	default:
	}
}

func randomState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate state: %w", err)
	}
	return hex.EncodeToString(b), nil
}

func openBrowser(url string) error {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		return fmt.Errorf("unsupported platform")
	}

	return cmd.Start()
}
