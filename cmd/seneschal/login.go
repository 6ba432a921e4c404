package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/cobra"

	"github.com/vanastassiou/seneschal/internal/utils"
)

// loginTimeout bounds how long the loopback server waits for the redirect.
// It matches the pending authorization session's lifetime.
const loginTimeout = 10 * time.Minute

func init() {
	rootCmd.AddCommand(newLoginCmd())
}

func newLoginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Authorize access to Google Drive",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if a.provider.IsConnected() {
				fmt.Println(green("Already logged in"), asEmail(a))
				return nil
			}

			if err := resolveRedirect(a); err != nil {
				return err
			}

			authURL, err := a.provider.Connect()
			if err != nil {
				return err
			}

			done, shutdown, err := serveCallback(a)
			if err != nil {
				return err
			}
			defer shutdown()

			fmt.Println("Open this URL in your browser to authorize access:")
			fmt.Println()
			fmt.Println("  " + cyan(authURL))
			fmt.Println()

			select {
			case err := <-done:
				if err != nil {
					return err
				}
			case <-cmd.Context().Done():
				return cmd.Context().Err()
			case <-time.After(loginTimeout):
				return fmt.Errorf("timed out waiting for authorization")
			}

			fmt.Println(green("Logged in"), asEmail(a))
			return nil
		},
	}
}

// resolveRedirect replaces a ":0" loopback port with a free one before the
// authorization URL is built, for OAuth clients registered with an ephemeral
// loopback redirect.
func resolveRedirect(a *app) error {
	redirect, err := url.Parse(a.cfg.RedirectURI)
	if err != nil {
		return fmt.Errorf("parse redirect_uri: %w", err)
	}
	if redirect.Port() != "0" {
		return nil
	}

	port, err := utils.GetFreePort()
	if err != nil {
		return err
	}
	redirect.Host = net.JoinHostPort(redirect.Hostname(), strconv.Itoa(port))
	a.cfg.RedirectURI = redirect.String()
	a.authReq.RedirectURI = redirect.String()
	return nil
}

// serveCallback starts a loopback HTTP server on the configured redirect URI
// and completes the authorization flow when the provider redirects back.
func serveCallback(a *app) (<-chan error, func(), error) {
	redirect, err := url.Parse(a.cfg.RedirectURI)
	if err != nil {
		return nil, nil, fmt.Errorf("parse redirect_uri: %w", err)
	}
	callbackPath := redirect.Path
	if callbackPath == "" {
		callbackPath = "/"
	}

	done := make(chan error, 1)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.GET(callbackPath, func(c *gin.Context) {
		query := c.Request.URL.Query()
		if !a.provider.HasAuthCallback(query) && query.Get("error") == "" {
			c.String(http.StatusBadRequest, "Missing authorization parameters.")
			return
		}

		if err := a.provider.HandleAuthCallback(c.Request.Context(), query); err != nil {
			c.String(http.StatusBadRequest, "Authorization failed: %s", err)
			done <- err
			return
		}

		c.String(http.StatusOK, "Authorized. You can close this window.")
		done <- nil
	})

	listener, err := net.Listen("tcp", redirect.Host)
	if err != nil {
		return nil, nil, fmt.Errorf("listen on %s: %w", redirect.Host, err)
	}

	srv := &http.Server{Handler: router}
	go srv.Serve(listener)

	shutdown := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(ctx)
	}
	return done, shutdown, nil
}

// asEmail renders the account email from the stored OpenID id_token, when the
// granted scopes included one.
func asEmail(a *app) string {
	email := emailFromIDToken(a.auth.IDToken(providerName))
	if email == "" {
		return ""
	}
	return "as " + email
}

// emailFromIDToken extracts the email claim without verifying the signature.
// The token came straight from the token endpoint over TLS; it is displayed,
// never trusted for authorization.
func emailFromIDToken(idToken string) string {
	if idToken == "" {
		return ""
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(idToken, claims); err != nil {
		return ""
	}
	email, _ := claims["email"].(string)
	return email
}
