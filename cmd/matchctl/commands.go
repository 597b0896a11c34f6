package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	"github.com/tony0935929660/match-platform-web-sub000/core"
)

func newLoginCommand() *cobra.Command {
	var (
		redirect string
		wait     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in through the OAuth provider",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			a, err := newApp(cmd.Context(), cfg, appOptions{
				withOAuth: true,
				navigator: printNavigator(cmd.OutOrStdout()),
			})
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), wait)
			defer cancel()

			resp, err := runLogin(ctx, a.session, redirect)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s (%s)\n", resp.User.DisplayName, resp.User.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&redirect, "redirect", "", "Path to return to after login")
	cmd.Flags().DurationVar(&wait, "wait", 5*time.Minute, "How long to wait for the provider callback")
	return cmd
}

// runLogin serves the callback URL locally, starts the flow and waits for
// the provider to redirect back.
func runLogin(ctx context.Context, session *core.SessionManager, redirect string) (core.OAuthResponse, error) {
	callbackURL, err := url.Parse(session.RedirectURL())
	if err != nil {
		return core.OAuthResponse{}, fmt.Errorf("invalid redirect URL: %w", err)
	}

	listener, err := net.Listen("tcp", callbackURL.Host)
	if err != nil {
		return core.OAuthResponse{}, fmt.Errorf("failed to listen on %s: %w", callbackURL.Host, err)
	}

	results := make(chan core.OAuthResponse, 1)
	srv := &http.Server{
		Handler:           callbackRouter(session, callbackURL.Path, results),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Callback listener stopped", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	var target any
	if redirect != "" {
		target = redirect
	}
	if err := session.Login(target); err != nil {
		return core.OAuthResponse{}, err
	}

	select {
	case resp := <-results:
		if resp.Error != "" {
			return resp, fmt.Errorf("login failed: %s", resp.Error)
		}
		return resp, nil
	case <-ctx.Done():
		return core.OAuthResponse{}, fmt.Errorf("waiting for callback: %w", ctx.Err())
	}
}

func callbackRouter(session *core.SessionManager, path string, results chan<- core.OAuthResponse) http.Handler {
	if path == "" {
		path = "/"
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get(path, func(w http.ResponseWriter, r *http.Request) {
		resp := session.CallbackHandler(r)

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		if resp.Error != "" {
			w.WriteHeader(resp.StatusCode)
			fmt.Fprintf(w, "Login failed: %s\n", resp.Error)
		} else {
			fmt.Fprintln(w, "Login complete. You can close this window.")
		}

		select {
		case results <- resp:
		default:
		}
	})

	return r
}

func newLogoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Clear the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			a, err := newApp(cmd.Context(), cfg, appOptions{})
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.session.Logout(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}
}

func newStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			a, err := newApp(cmd.Context(), cfg, appOptions{})
			if err != nil {
				return err
			}
			defer a.Close()

			out := cmd.OutOrStdout()
			if !a.session.IsAuthenticated() {
				fmt.Fprintln(out, "Not logged in")
				return nil
			}

			user := a.session.User()
			fmt.Fprintf(out, "Logged in as %s (%s)\n", user.DisplayName, user.ID)
			if user.Email != "" {
				fmt.Fprintf(out, "Email: %s\n", user.Email)
			}
			describeExpiry(cmd, a.session.Token())
			return nil
		},
	}
}

func newTokenCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Inspect bearer tokens",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "check TOKEN",
		Short: "Report whether a token is currently valid",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !core.IsTokenValid(args[0]) {
				fmt.Fprintln(cmd.OutOrStdout(), "invalid")
				return errors.New("token is expired or malformed")
			}
			fmt.Fprintln(cmd.OutOrStdout(), "valid")
			describeExpiry(cmd, args[0])
			return nil
		},
	})

	return cmd
}

func newMeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "me",
		Short: "Fetch the logged-in profile from the backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			a, err := newApp(cmd.Context(), cfg, appOptions{})
			if err != nil {
				return err
			}
			defer a.Close()

			user, err := a.client.Me(cmd.Context())
			if err != nil {
				if !a.session.IsAuthenticated() {
					return fmt.Errorf("%w (run matchctl login)", err)
				}
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", user.DisplayName, user.ID)
			return nil
		},
	}
}

func describeExpiry(cmd *cobra.Command, token string) {
	exp, ok, err := core.TokenExpiry(token)
	switch {
	case err != nil:
	case !ok:
		fmt.Fprintln(cmd.OutOrStdout(), "Expires: never")
	default:
		fmt.Fprintf(cmd.OutOrStdout(), "Expires: %s (in %s)\n", exp.Format(time.RFC3339), time.Until(exp).Round(time.Second))
	}
}
