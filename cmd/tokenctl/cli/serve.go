package cli

import "github.com/aussiebroadwan/tokenkit/internal/app"

// Run the command
func (cmd *ServeCmd) Run(c *Cli) error {
	cfg := c.Config()
	cfg.Port = cmd.Port

	a, err := app.New(cfg)
	if err != nil {
		return err
	}
	return a.Run(c.Context())
}
