package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/urfave/cli/v2"

	"github.com/Dosada05/bracket-of-death/app"
	"github.com/Dosada05/bracket-of-death/config"
	"github.com/Dosada05/bracket-of-death/logger"
	"github.com/Dosada05/bracket-of-death/metrics"
	"github.com/Dosada05/bracket-of-death/middleware"
	"github.com/Dosada05/bracket-of-death/models"
	"github.com/Dosada05/bracket-of-death/phase"
	"github.com/Dosada05/bracket-of-death/services"
)

const appKey = "app"

// seedFile preloads the store, which is how the in-memory driver gets data.
type seedFile struct {
	Tournaments []*models.Tournament `json:"tournaments"`
	Players     []*models.Player     `json:"players"`
}

var tournamentFlag = &cli.StringFlag{
	Name:     "tournament",
	Aliases:  []string{"t"},
	Usage:    "tournament id",
	Required: true,
}

func newApp(out io.Writer) *cli.App {
	return &cli.App{
		Name:      "bracketctl",
		Usage:     "drive tournament progression against the configured store",
		Writer:    out,
		ErrWriter: os.Stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Usage: "YAML config file", EnvVars: []string{"CONFIG_FILE"}},
			&cli.StringFlag{Name: "seed", Usage: "JSON file of tournaments and players loaded before the command"},
		},
		Commands: []*cli.Command{
			{
				Name:   "phase",
				Usage:  "show the derived phase of a tournament",
				Flags:  []cli.Flag{tournamentFlag},
				Before: openApp,
				After:  closeApp,
				Action: func(c *cli.Context) error {
					p, err := appFrom(c).Live.Phase(c.Context, c.String("tournament"))
					if err != nil {
						return err
					}
					return printJSON(c, p)
				},
			},
			{
				Name:  "generate",
				Usage: "generate (or regenerate) the matches of one round",
				Flags: []cli.Flag{
					tournamentFlag,
					&cli.StringFlag{Name: "round", Aliases: []string{"r"}, Usage: "round name, e.g. RR_R1 or quarterfinal", Required: true},
				},
				Before: openApp,
				After:  closeApp,
				Action: func(c *cli.Context) error {
					round, err := models.ParseRound(c.String("round"))
					if err != nil {
						return err
					}
					gen, err := appFrom(c).Progression.GenerateMatchesForRound(c.Context, c.String("tournament"), round)
					if err != nil {
						return err
					}
					return printJSON(c, gen)
				},
			},
			{
				Name:   "advance",
				Usage:  "advance the tournament when its current round is finished",
				Flags:  []cli.Flag{tournamentFlag},
				Before: openApp,
				After:  closeApp,
				Action: func(c *cli.Context) error {
					res, err := appFrom(c).Progression.AdvanceRound(c.Context, c.String("tournament"))
					if err != nil {
						return err
					}
					return printJSON(c, res)
				},
			},
			{
				Name:  "action",
				Usage: "run a management action such as start_bracket or reset_tournament",
				Flags: []cli.Flag{
					tournamentFlag,
					&cli.StringFlag{Name: "name", Aliases: []string{"n"}, Usage: "action name", Required: true},
					&cli.StringFlag{Name: "round", Aliases: []string{"r"}, Usage: "round for set_round"},
				},
				Before: openApp,
				After:  closeApp,
				Action: func(c *cli.Context) error {
					req := services.ActionRequest{Action: phase.Action(c.String("name")), Round: c.String("round")}
					res, err := appFrom(c).Progression.ExecuteAction(c.Context, c.String("tournament"), req)
					if err != nil {
						return err
					}
					return printJSON(c, res)
				},
			},
			{
				Name:   "standings",
				Usage:  "print round-robin, live and stored standings",
				Flags:  []cli.Flag{tournamentFlag},
				Before: openApp,
				After:  closeApp,
				Action: func(c *cli.Context) error {
					view, err := appFrom(c).Live.Standings(c.Context, c.String("tournament"))
					if err != nil {
						return err
					}
					return printJSON(c, view)
				},
			},
			{
				Name:  "token",
				Usage: "issue an operator token for the HTTP API",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "user", Aliases: []string{"u"}, Usage: "operator id", Required: true},
					&cli.DurationFlag{Name: "ttl", Value: 24 * time.Hour, Usage: "token lifetime"},
				},
				Action: func(c *cli.Context) error {
					cfg, err := loadConfig(c)
					if err != nil {
						return err
					}
					if cfg.Auth.JWTSecretKey == "" {
						return errors.New("JWT_SECRET_KEY environment variable is not set")
					}
					now := time.Now()
					token, err := middleware.IssueToken([]byte(cfg.Auth.JWTSecretKey), jwt.MapClaims{
						"user_id": c.String("user"),
						"iat":     now.Unix(),
						"exp":     now.Add(c.Duration("ttl")).Unix(),
					})
					if err != nil {
						return err
					}
					_, err = fmt.Fprintln(c.App.Writer, token)
					return err
				},
			},
		},
	}
}

func loadConfig(c *cli.Context) (*config.Config, error) {
	return config.LoadFile(c.String("config"))
}

func openApp(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	// the CLI reports through its output; only problems reach the log
	if cfg.Logging.Level != "error" {
		cfg.Logging.Level = "warn"
	}
	log, err := logger.New(cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}

	a, err := app.New(c.Context, cfg, nil, metrics.NewNop(), log)
	if err != nil {
		return err
	}
	if path := c.String("seed"); path != "" {
		if err := seed(c, a, path); err != nil {
			a.Close()
			return err
		}
	}
	c.App.Metadata = map[string]interface{}{appKey: a}
	return nil
}

func closeApp(c *cli.Context) error {
	if a, ok := c.App.Metadata[appKey].(*app.App); ok {
		a.Close()
	}
	return nil
}

func appFrom(c *cli.Context) *app.App {
	return c.App.Metadata[appKey].(*app.App)
}

func seed(c *cli.Context, a *app.App, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read seed file %s: %w", path, err)
	}
	var data seedFile
	if err := json.Unmarshal(raw, &data); err != nil {
		return fmt.Errorf("failed to parse seed file %s: %w", path, err)
	}
	for _, p := range data.Players {
		if err := a.Store.SavePlayer(c.Context, p); err != nil {
			return fmt.Errorf("failed to seed player %s: %w", p.ID, err)
		}
	}
	for _, t := range data.Tournaments {
		if err := a.Store.SaveTournament(c.Context, t); err != nil {
			return fmt.Errorf("failed to seed tournament %s: %w", t.ID, err)
		}
	}
	return nil
}

func printJSON(c *cli.Context, v interface{}) error {
	enc := json.NewEncoder(c.App.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
