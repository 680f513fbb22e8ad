package setup

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"

	"github.com/vadiminshakov/coinfolio/config"
)

var (
	subtle    = lipgloss.AdaptiveColor{Light: "#D9DCCF", Dark: "#383838"}
	highlight = lipgloss.AdaptiveColor{Light: "#874BFD", Dark: "#7D56F4"}
	special   = lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Background(highlight).
			Padding(1, 2).
			Bold(true).
			MarginBottom(1)

	stepStyle = lipgloss.NewStyle().
			Foreground(special).
			Bold(true).
			MarginTop(1).
			MarginBottom(0)
)

const wizardTitle = "COINFOLIO CONFIG WIZARD"

// Answers collects what the wizard asks for.
type Answers struct {
	Site            string
	MyCurrency      string
	MinInterval     string
	SpreadsheetID   string
	CredentialsFile string
	DepositsSince   string
	WatchInterval   string
	WebAddr         string
	ReferencePricer string
}

func defaultAnswers() Answers {
	d := config.Defaults()
	return Answers{
		Site:            d.CoinSpot.Site,
		MyCurrency:      d.MyCurrency,
		MinInterval:     d.CoinSpot.MinInterval.String(),
		CredentialsFile: d.Sheets.CredentialsFile,
		DepositsSince:   d.DepositsSince,
		WatchInterval:   d.WatchInterval.String(),
		WebAddr:         d.WebAddr,
		ReferencePricer: d.ReferencePricer,
	}
}

func step(title string) {
	fmt.Print("\033[H\033[2J") // Clear screen
	fmt.Println(headerStyle.Render(wizardTitle))
	fmt.Println(stepStyle.Render(title))
}

// RunTUI launches the terminal configuration wizard and writes the result to path.
func RunTUI(path string) error {
	a := defaultAnswers()
	var confirm bool

	step("STEP 1: EXCHANGE")
	fmt.Println(lipgloss.NewStyle().Foreground(subtle).Render("API key and secret are read from " +
		config.EnvAPIKey + " and " + config.EnvAPISecret + ".\n"))
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("CoinSpot site").
				Value(&a.Site).
				Validate(notEmpty("site")),
			huh.NewInput().
				Title("Account currency").
				Description("Excluded from portfolio value (e.g. AUD)").
				Value(&a.MyCurrency).
				Validate(notEmpty("currency")),
			huh.NewInput().
				Title("Min interval between private calls").
				Description("Duration string (e.g. 1s)").
				Value(&a.MinInterval).
				Validate(validateDuration),
		),
	).Run()
	if err != nil {
		return err
	}

	step("STEP 2: SPREADSHEET")
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Spreadsheet ID").
				Description("Leave empty to skip spreadsheet updates").
				Value(&a.SpreadsheetID),
			huh.NewInput().
				Title("Service account credentials file").
				Value(&a.CredentialsFile),
		),
	).Run()
	if err != nil {
		return err
	}

	step("STEP 3: TRACKING")
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Count deposits made after").
				Description("Date (e.g. 2020-11-01)").
				Value(&a.DepositsSince).
				Validate(validateDate),
			huh.NewInput().
				Title("Watch interval").
				Description("Duration string (e.g. 15m)").
				Value(&a.WatchInterval).
				Validate(validateDuration),
			huh.NewInput().
				Title("Dashboard address").
				Value(&a.WebAddr),
			huh.NewSelect[string]().
				Title("Reference price feed").
				Options(
					huh.NewOption("Binance", config.PricerBinance),
					huh.NewOption("Bybit", config.PricerBybit),
					huh.NewOption("None", config.PricerNone),
				).
				Value(&a.ReferencePricer),
		),
	).Run()
	if err != nil {
		return err
	}

	step("FINAL CONFIRMATION")
	summary := fmt.Sprintf(
		"Site: %s\nCurrency: %s\nSpreadsheet: %s\nDeposits since: %s\nWatch: %s\n",
		a.Site, a.MyCurrency, a.SpreadsheetID, a.DepositsSince, a.WatchInterval,
	)
	fmt.Println(lipgloss.NewStyle().Border(lipgloss.NormalBorder()).Padding(1).Render(summary))

	err = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Save Configuration?").
				Affirmative("Yes, save").
				Negative("No, exit").
				Value(&confirm),
		),
	).Run()
	if err != nil {
		return err
	}

	if !confirm {
		return fmt.Errorf("setup cancelled by user")
	}

	if err := WriteConfig(path, a); err != nil {
		return err
	}

	fmt.Println(lipgloss.NewStyle().Foreground(special).Render(fmt.Sprintf("\n✓ Configuration saved to %s", path)))
	return nil
}

// Build turns wizard answers into a YAML config document.
func Build(a Answers) (config.ConfigTmp, error) {
	tmp := config.Defaults()

	minInterval, err := time.ParseDuration(a.MinInterval)
	if err != nil {
		return config.ConfigTmp{}, fmt.Errorf("min interval: %w", err)
	}
	watch, err := time.ParseDuration(a.WatchInterval)
	if err != nil {
		return config.ConfigTmp{}, fmt.Errorf("watch interval: %w", err)
	}

	tmp.CoinSpot.Site = a.Site
	tmp.CoinSpot.MinInterval = minInterval
	tmp.MyCurrency = a.MyCurrency
	tmp.Sheets.SpreadsheetID = a.SpreadsheetID
	tmp.Sheets.CredentialsFile = a.CredentialsFile
	tmp.DepositsSince = a.DepositsSince
	tmp.WatchInterval = watch
	tmp.WebAddr = a.WebAddr
	tmp.ReferencePricer = a.ReferencePricer

	return tmp, nil
}

// WriteConfig validates the answers and writes them as YAML.
func WriteConfig(path string, a Answers) error {
	tmp, err := Build(a)
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(tmp)
	if err != nil {
		return fmt.Errorf("failed to generate yaml: %w", err)
	}
	if _, err := config.Parse(data); err != nil {
		return fmt.Errorf("generated config is invalid: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to save config file: %w", err)
	}
	return nil
}

func notEmpty(what string) func(string) error {
	return func(s string) error {
		if s == "" {
			return fmt.Errorf("%s cannot be empty", what)
		}
		return nil
	}
}

func validateDuration(s string) error {
	d, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("must be a duration like 1s or 15m")
	}
	if d <= 0 {
		return fmt.Errorf("must be positive, got %s", strconv.Quote(s))
	}
	return nil
}

func validateDate(s string) error {
	if s == "" {
		return nil
	}
	if _, err := time.Parse("2006-01-02", s); err != nil {
		return fmt.Errorf("must be a date like 2020-11-01")
	}
	return nil
}
