package command

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/urfave/cli/v2"

	"github.com/emplo-ai/emplo/internal/core/domain"
	"github.com/emplo-ai/emplo/internal/credstore"
)

// AuthCommand returns the auth subcommand group.
func AuthCommand() *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Sign up, sign in and out",
		Subcommands: []*cli.Command{
			{
				Name:  "signup",
				Usage: "Create an account",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "email", Aliases: []string{"e"}, Usage: "Email address", Required: true},
					&cli.StringFlag{Name: "password", Aliases: []string{"p"}, Usage: "Password", EnvVars: []string{"EMPLO_PASSWORD"}, Required: true},
					&cli.StringFlag{Name: "role", Aliases: []string{"r"}, Value: string(domain.RoleCandidate), Usage: "Account type: " + roleList()},
					&cli.StringFlag{Name: "first-name", Usage: "First name", Required: true},
					&cli.StringFlag{Name: "last-name", Usage: "Last name", Required: true},
				},
				Action: authSignUp,
			},
			{
				Name:    "login",
				Aliases: []string{"signin"},
				Usage:   "Sign in",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "email", Aliases: []string{"e"}, Usage: "Email address", Required: true},
					&cli.StringFlag{Name: "password", Aliases: []string{"p"}, Usage: "Password", EnvVars: []string{"EMPLO_PASSWORD"}, Required: true},
				},
				Action: authLogin,
			},
			{
				Name:    "logout",
				Aliases: []string{"signout"},
				Usage:   "Sign out and forget the stored token",
				Action:  authLogout,
			},
			{
				Name:   "status",
				Usage:  "Show the current session",
				Action: authStatus,
			},
		},
	}
}

func roleList() string {
	roles := make([]string, 0, len(domain.Roles()))
	for _, r := range domain.Roles() {
		roles = append(roles, string(r))
	}
	return strings.Join(roles, ", ")
}

func authSignUp(c *cli.Context) error {
	rt := runtimeFrom(c)
	store, err := rt.Store()
	if err != nil {
		return err
	}

	ok := store.SignUp(c.Context, domain.Registration{
		Email:     c.String("email"),
		Password:  c.String("password"),
		Role:      domain.Role(c.String("role")),
		FirstName: c.String("first-name"),
		LastName:  c.String("last-name"),
	})
	if !ok {
		return failedOrCancelled(c)
	}
	fmt.Fprintln(rt.stdout, "Run `emplo auth login` to sign in.")
	return nil
}

func authLogin(c *cli.Context) error {
	rt := runtimeFrom(c)
	store, err := rt.Store()
	if err != nil {
		return err
	}

	if !store.SignIn(c.Context, domain.Credentials{
		Email:    c.String("email"),
		Password: c.String("password"),
	}) {
		return failedOrCancelled(c)
	}
	return nil
}

func authLogout(c *cli.Context) error {
	store, err := runtimeFrom(c).Store()
	if err != nil {
		return err
	}
	store.SignOut(c.Context)
	return nil
}

// statusView is what `auth status` prints.
type statusView struct {
	Phase          string           `json:"phase" yaml:"phase"`
	Reason         string           `json:"reason,omitempty" yaml:"reason,omitempty"`
	Identity       *domain.Identity `json:"identity,omitempty" yaml:"identity,omitempty"`
	CachedIdentity *domain.Identity `json:"cached_identity,omitempty" yaml:"cached_identity,omitempty"`
	TokenExpiresAt *time.Time       `json:"token_expires_at,omitempty" yaml:"token_expires_at,omitempty"`
	APIBaseURL     string           `json:"api_base_url" yaml:"api_base_url"`
}

func authStatus(c *cli.Context) error {
	rt := runtimeFrom(c)
	store, err := rt.Store()
	if err != nil {
		return err
	}

	st := store.Initialize(c.Context)
	view := statusView{
		Phase:      st.Phase.String(),
		Reason:     st.Reason,
		APIBaseURL: rt.client.BaseURL(),
	}
	if st.IsAuthenticated() {
		id := st.Identity
		view.Identity = &id
	} else if cached, err := rt.creds.CachedIdentity(c.Context); err == nil {
		view.CachedIdentity = &cached
	} else if !errors.Is(err, credstore.ErrNoIdentity) {
		rt.Logger().Warn("failed to read cached identity", "error", err)
	}

	if token, err := rt.creds.Token(c.Context); err == nil {
		view.TokenExpiresAt = tokenExpiry(token)
	}
	return rt.Print(view)
}

// tokenExpiry reads the exp claim without verifying the signature. The
// client never holds the signing key; the value is informational only.
func tokenExpiry(token string) *time.Time {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return nil
	}
	t := exp.Time
	return &t
}
