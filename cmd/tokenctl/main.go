package main

import (
	"io"
	"os"

	"github.com/alecthomas/kong"
	"github.com/aussiebroadwan/tokenkit/cmd/tokenctl/cli"
	"github.com/aussiebroadwan/tokenkit/internal/app"
)

type tokenctl struct {
	cli.Cli

	Profiles  cli.ProfilesCmd  `cmd:"" help:"List the registered token profiles"`
	Issue     cli.IssueCmd     `cmd:"" help:"Issue a token for a profile"`
	Authorize cli.AuthorizeCmd `cmd:"" help:"Authorize a token and print the decision"`
	Revoke    cli.RevokeCmd    `cmd:"" help:"Revoke a token"`
	Cleanup   cli.CleanupCmd   `cmd:"" help:"Delete expired token state"`
	JWKS      cli.JWKSCmd      `cmd:"" name:"jwks" help:"Print the public keys of certificate profiles"`
	Gencert   cli.GencertCmd   `cmd:"" help:"Generate a self-signed signing certificate"`
	Secret    cli.SecretCmd    `cmd:"" help:"Generate a random pass-phrase"`
	Serve     cli.ServeCmd     `cmd:"" help:"Serve the token HTTP API"`
}

func main() {
	realMain(os.Args, os.Stdout, os.Stderr, os.Exit)
}

func realMain(args []string, out io.Writer, errout io.Writer, exit func(int)) {
	cl := tokenctl{}
	cl.Cli.WithErrWriter(errout).
		WithWriter(out)

	parser, err := kong.New(&cl,
		kong.Name("tokenctl"),
		kong.Description("Issue, authorize and revoke profile tokens"),
		kong.Writers(out, errout),
		kong.Exit(exit),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{
			"version": app.BuildVersion,
		})
	if err != nil {
		panic(err)
	}

	ctx, err := parser.Parse(args[1:])
	parser.FatalIfErrorf(err)

	if ctx != nil {
		err = ctx.Run(&cl.Cli)
		_ = cl.Cli.Close()
		ctx.FatalIfErrorf(err)
	}
}
