package internal

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/vadiminshakov/coinfolio/internal/clients"
)

// ErrQuit ends the interactive shell.
var ErrQuit = errors.New("quit")

var (
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	promptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("6")).Bold(true)
)

type command struct {
	usage string
	help  string
	args  func(n int) bool
	run   func(ctx context.Context, p *Portfolio, args []string) error
}

func exactly(want int) func(int) bool { return func(n int) bool { return n == want } }

func atMost(limit int) func(int) bool { return func(n int) bool { return n <= limit } }

var commands = map[string]command{
	"status": {
		usage: "status", help: "spent, value and gain with change since last check", args: exactly(0),
		run: func(ctx context.Context, p *Portfolio, _ []string) error { return p.Status(ctx) },
	},
	"gain": {
		usage: "gain", help: "gain percent and its change", args: exactly(0),
		run: func(ctx context.Context, p *Portfolio, _ []string) error { return p.Gain(ctx) },
	},
	"balances": {
		usage: "balances", help: "holdings and total value", args: exactly(0),
		run: func(ctx context.Context, p *Portfolio, _ []string) error { return p.Balances(ctx) },
	},
	"prices": {
		usage: "prices [COIN...]", help: "latest prices, with the reference feed for named coins",
		args: func(int) bool { return true },
		run:  func(ctx context.Context, p *Portfolio, args []string) error { return p.Prices(ctx, args...) },
	},
	"deposits": {
		usage: "deposits", help: "deposits counted as spent", args: exactly(0),
		run: func(ctx context.Context, p *Portfolio, _ []string) error { return p.Deposits(ctx) },
	},
	"orders": {
		usage: "orders [buy|sell]", help: "open orders", args: atMost(1),
		run: func(ctx context.Context, p *Portfolio, args []string) error {
			side := ""
			if len(args) == 1 {
				side = args[0]
			}
			return p.Orders(ctx, side)
		},
	},
	"update": {
		usage: "update", help: "write summary, value and gains rows and sync holdings", args: exactly(0),
		run: func(ctx context.Context, p *Portfolio, _ []string) error { return p.Update(ctx) },
	},
	"sync": {
		usage: "sync", help: "sync the holdings table with live balances", args: exactly(0),
		run: func(ctx context.Context, p *Portfolio, _ []string) error { return p.Sync(ctx) },
	},
	"write-deposits": {
		usage: "write-deposits", help: "append all deposits to the spreadsheet", args: exactly(0),
		run: func(ctx context.Context, p *Portfolio, _ []string) error { return p.WriteDeposits(ctx) },
	},
	"trend": {
		usage: "trend", help: "moving averages of recorded values", args: exactly(0),
		run: func(_ context.Context, p *Portfolio, _ []string) error { return p.Trend() },
	},
	"quicksell": {
		usage: "quicksell COIN AMOUNT", help: "quote for selling AMOUNT of COIN", args: exactly(2),
		run: func(ctx context.Context, p *Portfolio, args []string) error {
			amount, err := parseAmount("amount", args[1])
			if err != nil {
				return err
			}
			return p.QuickSell(ctx, args[0], amount)
		},
	},
	"sell": {
		usage: "sell COIN AMOUNT RATE", help: "place a sell order", args: exactly(3),
		run: func(ctx context.Context, p *Portfolio, args []string) error {
			amount, err := parseAmount("amount", args[1])
			if err != nil {
				return err
			}
			rate, err := parseAmount("rate", args[2])
			if err != nil {
				return err
			}
			return p.Sell(ctx, args[0], amount, rate)
		},
	},
	"buy": {
		usage: "buy COIN AMOUNT", help: "place a market buy order", args: exactly(2),
		run: func(ctx context.Context, p *Portfolio, args []string) error {
			amount, err := parseAmount("amount", args[1])
			if err != nil {
				return err
			}
			return p.Buy(ctx, args[0], amount)
		},
	},
	"call": {
		usage: "call PATH", help: "raw read-only call, e.g. call balances/:BTC", args: exactly(1),
		run: func(ctx context.Context, p *Portfolio, args []string) error { return p.Call(ctx, args[0]) },
	},
	"watch": {
		usage: "watch", help: "revalue periodically and serve the dashboard", args: exactly(0),
		run: func(ctx context.Context, p *Portfolio, _ []string) error {
			err := p.Watch(ctx, p.conf.WatchInterval)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	},
}

func parseAmount(name, text string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(text)
	if err != nil {
		return decimal.Zero, errors.Errorf("%s %q is not a number", name, text)
	}
	if !d.IsPositive() {
		return decimal.Zero, errors.Errorf("%s must be positive, got %s", name, text)
	}
	return d, nil
}

// Execute runs one command line.
func (p *Portfolio) Execute(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return nil
	}

	name := strings.ToLower(args[0])
	switch name {
	case "quit", "exit", "q":
		return ErrQuit
	case "help", "?":
		p.help()
		return nil
	}

	cmd, ok := commands[name]
	if !ok {
		return errors.Errorf("unknown command %q, try help", args[0])
	}
	if !cmd.args(len(args) - 1) {
		return errors.Errorf("usage: %s", cmd.usage)
	}
	return cmd.run(ctx, p, args[1:])
}

// Shell reads commands from in until quit or EOF. Failed commands are
// reported and the session continues.
func (p *Portfolio) Shell(ctx context.Context, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(p.out, promptStyle.Render("coinfolio> "))
		if !scanner.Scan() {
			fmt.Fprintln(p.out)
			return scanner.Err()
		}

		err := p.Execute(ctx, strings.Fields(scanner.Text()))
		if errors.Is(err, ErrQuit) {
			return nil
		}
		if err != nil {
			p.ReportError(err)
		}
		if ctx.Err() != nil {
			return nil
		}
	}
}

// ReportError prints err in red. Exchange failures are shown as their
// exception envelope.
func (p *Portfolio) ReportError(err error) {
	text := err.Error()
	var apiErr *clients.APIError
	if errors.As(err, &apiErr) {
		text = apiErr.Envelope()
	}
	fmt.Fprintln(p.out, errorStyle.Render(text))
}

func (p *Portfolio) help() {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		cmd := commands[name]
		fmt.Fprintf(p.out, "  %-24s %s\n", cmd.usage, cmd.help)
	}
	fmt.Fprintf(p.out, "  %-24s %s\n", "help", "this list")
	fmt.Fprintf(p.out, "  %-24s %s\n", "quit", "leave")
}
