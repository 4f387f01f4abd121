package commands

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/abroad/internal/abroad"
	"github.com/colonyops/abroad/internal/core/currency"
	"github.com/colonyops/abroad/internal/printer"
	"github.com/colonyops/abroad/pkg/iojson"
)

type ConvertCmd struct {
	flags *Flags
	app   *abroad.App

	from       string
	to         string
	list       bool
	jsonOutput bool
}

// NewConvertCmd creates a new convert command
func NewConvertCmd(flags *Flags, app *abroad.App) *ConvertCmd {
	return &ConvertCmd{flags: flags, app: app}
}

// Register adds the convert command to the application
func (cmd *ConvertCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "convert",
		Usage:     "Convert an amount between currencies",
		UsageText: "abroad convert <amount> [--from USD] [--to EUR] [--json]\nabroad convert --list",
		Description: `Uses the fixed indicative rate table. Rates can be replaced with
currency.rates in the config file; --from and --to default to
currency.default_from and currency.default_to.`,
		ArgsUsage: "<amount>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "from",
				Usage:       "source currency code",
				Destination: &cmd.from,
			},
			&cli.StringFlag{
				Name:        "to",
				Usage:       "target currency code",
				Destination: &cmd.to,
			},
			&cli.BoolFlag{
				Name:        "list",
				Aliases:     []string{"l"},
				Usage:       "list supported currency codes",
				Destination: &cmd.list,
			},
			&cli.BoolFlag{
				Name:        "json",
				Usage:       "output as JSON",
				Destination: &cmd.jsonOutput,
			},
		},
		Action: cmd.run,
	})

	return app
}

type conversionJSON struct {
	Amount    float64 `json:"amount"`
	From      string  `json:"from"`
	To        string  `json:"to"`
	Rate      float64 `json:"rate"`
	Result    float64 `json:"result"`
	Formatted string  `json:"formatted"`
}

func (cmd *ConvertCmd) run(ctx context.Context, c *cli.Command) error {
	conv := cmd.app.Currency
	out := c.Root().Writer

	if cmd.list {
		codes := conv.Codes()
		if cmd.jsonOutput {
			return iojson.WriteWith(out, os.Stderr, codes)
		}
		for _, code := range codes {
			_, _ = fmt.Fprintf(out, "%s  %s\n", code, currency.Symbol(code))
		}
		return nil
	}

	if c.Args().Len() != 1 {
		return fmt.Errorf("expected exactly one amount")
	}

	amount, err := strconv.ParseFloat(strings.ReplaceAll(c.Args().First(), ",", ""), 64)
	if err != nil {
		return fmt.Errorf("invalid amount %q", c.Args().First())
	}

	from := cmd.from
	if from == "" {
		from = cmd.app.Config.Currency.DefaultFrom
	}
	to := cmd.to
	if to == "" {
		to = cmd.app.Config.Currency.DefaultTo
	}
	from, to = strings.ToUpper(from), strings.ToUpper(to)

	result, err := conv.Convert(amount, from, to)
	if err != nil {
		return err
	}
	rate, _ := conv.Rate(from, to)

	if cmd.jsonOutput {
		return iojson.WriteWith(out, os.Stderr, conversionJSON{
			Amount:    amount,
			From:      from,
			To:        to,
			Rate:      rate,
			Result:    result,
			Formatted: currency.Format(result, to),
		})
	}

	p := printer.Ctx(ctx)
	p.Printf("%s = %s", currency.Format(amount, from), currency.Format(result, to))
	p.Infof("1 %s = %g %s (indicative)", from, rate, to)
	return nil
}
