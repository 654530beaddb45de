package cli

import (
	"errors"
	"fmt"

	"github.com/aussiebroadwan/tokenkit/pkg/profile"
	"github.com/aussiebroadwan/tokenkit/pkg/service"
)

// ProfilesCmd lists the registered profiles
type ProfilesCmd struct{}

// Run the command
func (cmd *ProfilesCmd) Run(c *Cli) error {
	a, err := c.App()
	if err != nil {
		return err
	}
	return c.WriteJSON(a.Info().Profiles)
}

// IssueCmd issues a token
type IssueCmd struct {
	Profile  string            `arg:"" help:"Profile name"`
	Identity string            `arg:"" help:"Identity the token is issued for"`
	Claim    map[string]string `short:"c" help:"Custom claim as key=value, repeatable"`
	JSON     bool              `name:"json" help:"Print the token with its claims as JSON"`
}

// Run the command
func (cmd *IssueCmd) Run(c *Cli) error {
	a, err := c.App()
	if err != nil {
		return err
	}

	if err := a.Profiles().ValidateName(cmd.Profile); err != nil {
		return err
	}
	if err := profile.ValidateIdentity(cmd.Identity); err != nil {
		return err
	}
	if err := profile.ValidateCustomClaims(cmd.Claim); err != nil {
		return err
	}

	issued, err := a.Issuer().IssueToken(c.Context(), cmd.Profile, cmd.Identity, cmd.Claim)
	if err != nil {
		return err
	}

	if cmd.JSON {
		return c.WriteJSON(issued)
	}
	c.Println(issued.Token)
	return nil
}

// ErrRefused is returned by authorize --strict for any outcome but Valid.
var ErrRefused = errors.New("token refused")

// AuthorizeCmd authorizes a token
type AuthorizeCmd struct {
	Token        string   `arg:"" help:"Token, compact or base64 enveloped"`
	Profile      string   `help:"Validate against this profile instead of the token's own"`
	Issuer       []string `help:"Accepted issuers"`
	Audience     []string `help:"Accepted audiences"`
	NoExpiration bool     `help:"Skip the lifetime check"`
	Strict       bool     `help:"Exit with an error unless the token is valid"`
}

// Run the command
func (cmd *AuthorizeCmd) Run(c *Cli) error {
	a, err := c.App()
	if err != nil {
		return err
	}

	d, err := a.Authorizer().AuthorizeToken(c.Context(), cmd.Token, service.Options{
		Profile:            cmd.Profile,
		Issuers:            cmd.Issuer,
		Audiences:          cmd.Audience,
		ValidateExpiration: !cmd.NoExpiration,
	})
	if err != nil {
		return err
	}

	if err := c.WriteJSON(d); err != nil {
		return err
	}
	if cmd.Strict && !d.Allowed() {
		return fmt.Errorf("%w: %s", ErrRefused, d.Status)
	}
	return nil
}

// RevokeCmd revokes a token
type RevokeCmd struct {
	Token string `arg:"" help:"Token, compact or base64 enveloped"`
}

// Run the command
func (cmd *RevokeCmd) Run(c *Cli) error {
	a, err := c.App()
	if err != nil {
		return err
	}

	id := a.Authorizer().Authenticate(cmd.Token)
	if id == nil {
		return fmt.Errorf("%w: no profile signed this token", service.ErrInvalidToken)
	}

	revoked, err := a.Authorizer().Revoke(c.Context(), id.Token, id.Claims)
	if err != nil {
		return err
	}
	return c.WriteJSON(map[string]bool{"revoked": revoked})
}

// CleanupCmd deletes expired token state
type CleanupCmd struct{}

// Run the command
func (cmd *CleanupCmd) Run(c *Cli) error {
	a, err := c.App()
	if err != nil {
		return err
	}

	n, err := a.Housekeeping().RunOnce(c.Context())
	if err != nil {
		return err
	}
	return c.WriteJSON(map[string]int{"removed": n})
}
