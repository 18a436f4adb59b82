package config

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"
	"golang.org/x/term"
)

var (
	telegramAPIBase = "https://api.telegram.org"
	openAIAPIBase   = "https://api.openai.com/v1"
	geminiAPIBase   = "https://generativelanguage.googleapis.com/v1beta"
)

// envFileOrder is the order keys are written to the env file.
var envFileOrder = []string{"BOT_TOKEN", "LLM_PROVIDER", "OPENAI_API_KEY", "GEMINI_API_KEY", "ADMIN_TELEGRAM_ID", "HISTORY_KEY"}

// IsInteractiveTerminal reports whether a person can answer the setup wizard.
func IsInteractiveTerminal() bool {
	for _, f := range []*os.File{os.Stdin, os.Stdout} {
		if !term.IsTerminal(int(f.Fd())) {
			return false
		}
	}
	return true
}

var (
	headingStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99")).MarginBottom(1)
	okStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

// wizardAnswers collects the form values.
type wizardAnswers struct {
	botToken string
	provider string
	apiKey   string
	adminID  string
}

func (a *wizardAnswers) keyName() string {
	if a.provider == ProviderGemini {
		return "GEMINI_API_KEY"
	}
	return "OPENAI_API_KEY"
}

// env returns the answers as env file values. A fresh HISTORY_KEY is
// generated so history is encrypted from the first run.
func (a *wizardAnswers) env() map[string]string {
	return map[string]string{
		"BOT_TOKEN":         a.botToken,
		"LLM_PROVIDER":      a.provider,
		a.keyName():         a.apiKey,
		"ADMIN_TELEGRAM_ID": a.adminID,
		"HISTORY_KEY":       generateHistoryKey(),
	}
}

func nonEmpty(what string, next func(string) error) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", what)
		}
		if next == nil {
			return nil
		}
		return next(s)
	}
}

func (a *wizardAnswers) form() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(huh.NewInput().
			Title("Telegram bot token").
			Description("Create a bot with @BotFather (/newbot) and paste the token it gives you").
			Value(&a.botToken).
			Validate(nonEmpty("bot token", validateTelegramToken))),
		huh.NewGroup(huh.NewSelect[string]().
			Title("Which model provider writes the copy?").
			Options(
				huh.NewOption("OpenAI", ProviderOpenAI),
				huh.NewOption("Google Gemini", ProviderGemini),
			).
			Value(&a.provider)),
		huh.NewGroup(huh.NewInput().
			TitleFunc(func() string { return a.keyName() }, &a.provider).
			EchoMode(huh.EchoModePassword).
			Value(&a.apiKey).
			Validate(nonEmpty("API key", func(s string) error { return validateAPIKey(a.provider, s) }))),
		huh.NewGroup(huh.NewInput().
			Title("Admin Telegram user ID").
			Description("The account allowed to manage the bot. @userinfobot tells you yours.").
			Value(&a.adminID).
			Validate(nonEmpty("admin user ID", func(s string) error {
				if _, err := strconv.ParseInt(s, 10, 64); err != nil {
					return errors.New("user ID is numeric")
				}
				return nil
			}))),
	).WithTheme(huh.ThemeBase16())
}

// RunSetupWizard asks for the missing configuration, saves it to the env file
// and exports it to the current process. It returns false when the user
// quits or the answers cannot be saved.
func RunSetupWizard() bool {
	fmt.Printf("\n%s\n\n", headingStyle.Render("Copywriter Bot setup"))

	answers := &wizardAnswers{provider: ProviderOpenAI}
	if err := answers.form().Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			fmt.Println("\nSetup aborted, nothing was saved.")
		} else {
			fmt.Printf("\nSetup failed: %v\n", err)
		}
		return false
	}

	values := answers.env()
	path, err := WriteEnvFile(values)
	if err != nil {
		fmt.Printf("\nCould not save configuration: %v\n", err)
		WaitOnWindows()
		return false
	}
	for k, v := range values {
		os.Setenv(k, v)
	}

	fmt.Printf("\n%s\n%s\n\n", okStyle.Render("Saved configuration to"), mutedStyle.Render("  "+path))
	return true
}

func generateHistoryKey() string {
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return fmt.Sprintf("history-%d", time.Now().UnixNano())
	}
	return base64.RawURLEncoding.EncodeToString(key)
}

func newSetupClient() *resty.Client {
	return resty.New().SetTimeout(10 * time.Second)
}

// errOffline is shown when a validation request cannot be made at all.
var errOffline = errors.New("could not reach the server, check the network connection")

// validateTelegramToken asks Telegram's getMe whether the token is live.
func validateTelegramToken(token string) error {
	var reply struct {
		OK     bool   `json:"ok"`
		Reason string `json:"description"`
	}
	if _, err := newSetupClient().R().SetResult(&reply).SetError(&reply).
		Get(telegramAPIBase + "/bot" + token + "/getMe"); err != nil {
		return errOffline
	}
	switch {
	case reply.OK:
		return nil
	case reply.Reason != "":
		return errors.New(reply.Reason)
	default:
		return errors.New("token was not accepted by Telegram")
	}
}

// validateAPIKey checks a model provider key against the provider's
// lightweight models endpoint.
func validateAPIKey(provider, key string) error {
	var apiErr struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}

	req := newSetupClient().R().SetError(&apiErr)
	var url string
	if provider == ProviderGemini {
		req.SetQueryParam("key", key)
		url = geminiAPIBase + "/models"
	} else {
		req.SetAuthToken(key)
		url = openAIAPIBase + "/models"
	}

	resp, err := req.Get(url)
	if err != nil {
		return errOffline
	}

	switch code := resp.StatusCode(); {
	case code == 400 || code == 401 || code == 403:
		if apiErr.Error.Message != "" {
			return errors.New(apiErr.Error.Message)
		}
		return fmt.Errorf("API key rejected (HTTP %d)", code)
	case code != 200:
		return fmt.Errorf("unexpected response (HTTP %d)", code)
	}
	return nil
}

// WriteEnvFile replaces the env file with values, owner-readable only, and
// returns its path. Keys outside envFileOrder are ignored.
func WriteEnvFile(values map[string]string) (string, error) {
	path, err := FilePath()
	if err != nil {
		return "", err
	}

	var buf strings.Builder
	for _, key := range envFileOrder {
		if val, ok := values[key]; ok {
			fmt.Fprintf(&buf, "%s=%q\n", key, val)
		}
	}
	if err := os.WriteFile(path, []byte(buf.String()), 0600); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	// WriteFile keeps the mode of an existing file
	if err := os.Chmod(path, 0600); err != nil {
		return "", fmt.Errorf("restrict %s: %w", path, err)
	}
	return path, nil
}

// WaitOnWindows keeps a double-clicked console window open until Enter.
func WaitOnWindows() {
	if runtime.GOOS != "windows" {
		return
	}
	fmt.Print("\nPress Enter to close this window...")
	fmt.Scanln()
}

// FatalWithWait logs an error and exits, waiting on Windows first.
func FatalWithWait(format string, args ...any) {
	log.Error().Msgf(format, args...)
	WaitOnWindows()
	os.Exit(1)
}
