// envsetup provides a lightweight .env configuration wizard.
// It collects the Telegram bot credentials and the resolution API
// endpoint on first run, so nobody has to hand-write the file.
package envsetup

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type step int

const (
	stepWelcome step = iota
	stepToken
	stepUsername
	stepAPIURL
	stepPort
	stepConfirm
	stepDone
)

const defaultAPIURL = "https://zorouchiha.serv00.net/tiktok/api.php"

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("99")).
			MarginBottom(1)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("82"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))
)

type model struct {
	step     step
	input    textinput.Model
	token    string
	username string
	apiURL   string
	port     string
	err      error
}

func newModel() model {
	ti := textinput.New()
	ti.CharLimit = 256
	ti.Width = 60
	return model{step: stepWelcome, input: ti}
}

func (m model) Init() tea.Cmd {
	return textinput.Blink
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.Type {
		case tea.KeyCtrlC:
			return m, tea.Quit
		case tea.KeyEnter:
			return m.handleEnter()
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m model) handleEnter() (tea.Model, tea.Cmd) {
	m.err = nil
	value := strings.TrimSpace(m.input.Value())

	switch m.step {
	case stepWelcome:
		m.step = stepToken
		m.input.Placeholder = "123456:ABC-DEF..."
		m.input.EchoMode = textinput.EchoPassword
		m.input.Focus()

	case stepToken:
		if value == "" {
			m.err = fmt.Errorf("bot token is required")
			return m, nil
		}
		m.token = value
		m.step = stepUsername
		m.input.Reset()
		m.input.EchoMode = textinput.EchoNormal
		m.input.Placeholder = "@my_downloader_bot"

	case stepUsername:
		if value == "" {
			m.err = fmt.Errorf("bot username is required")
			return m, nil
		}
		if !strings.HasPrefix(value, "@") {
			value = "@" + value
		}
		m.username = value
		m.step = stepAPIURL
		m.input.Reset()
		m.input.Placeholder = defaultAPIURL

	case stepAPIURL:
		if value == "" {
			value = defaultAPIURL
		}
		m.apiURL = value
		m.step = stepPort
		m.input.Reset()
		m.input.Placeholder = "3000"

	case stepPort:
		if value == "" {
			value = "3000"
		}
		if _, err := strconv.Atoi(value); err != nil {
			m.err = fmt.Errorf("port must be a number")
			return m, nil
		}
		m.port = value
		m.step = stepConfirm
		m.input.Reset()
		m.input.Placeholder = "Y/n"

	case stepConfirm:
		choice := strings.ToLower(value)
		if choice == "" || choice == "y" || choice == "yes" {
			if err := m.writeEnvFile(); err != nil {
				m.err = err
				return m, nil
			}
			m.step = stepDone
			return m, tea.Quit
		}
		if choice == "n" || choice == "no" {
			fresh := newModel()
			fresh.step = stepToken
			fresh.input.EchoMode = textinput.EchoPassword
			fresh.input.Focus()
			return fresh, nil
		}
	}

	return m, nil
}

func (m model) writeEnvFile() error {
	content := fmt.Sprintf(`BOT_TOKEN=%s
BOT_USERNAME=%s
API_BASE_URL=%s
PORT=%s
`, m.token, m.username, m.apiURL, m.port)

	return os.WriteFile(".env", []byte(content), 0600)
}

func (m model) View() string {
	var s strings.Builder

	switch m.step {
	case stepWelcome:
		s.WriteString(titleStyle.Render("TikTok Downloader Bot - Env Setup"))
		s.WriteString("\n\n")
		s.WriteString("This wizard will help you configure the bot.\n")
		s.WriteString("You'll need:\n\n")
		s.WriteString("  - A Telegram bot token (from @BotFather)\n")
		s.WriteString("  - Your bot's username\n")
		s.WriteString("  - The resolution API endpoint\n")
		s.WriteString("\n")
		s.WriteString(dimStyle.Render("Press Enter to continue, Ctrl+C to exit"))

	case stepToken:
		s.WriteString(titleStyle.Render("Step 1: Telegram Bot Token"))
		s.WriteString("\n\n")
		s.WriteString("Message @BotFather on Telegram, send /newbot, and copy\n")
		s.WriteString("the token it gives you.\n\n")
		s.WriteString(labelStyle.Render("Paste your bot token:"))
		s.WriteString("\n")
		s.WriteString(m.input.View())

	case stepUsername:
		s.WriteString(titleStyle.Render("Step 2: Bot Username"))
		s.WriteString("\n\n")
		s.WriteString(labelStyle.Render("Enter your bot username (with @):"))
		s.WriteString("\n")
		s.WriteString(m.input.View())

	case stepAPIURL:
		s.WriteString(titleStyle.Render("Step 3: Resolution API"))
		s.WriteString("\n\n")
		s.WriteString("The HTTP endpoint that resolves TikTok links.\n\n")
		s.WriteString(labelStyle.Render("Enter the API base URL (Enter for default):"))
		s.WriteString("\n")
		s.WriteString(m.input.View())

	case stepPort:
		s.WriteString(titleStyle.Render("Step 4: HTTP Port"))
		s.WriteString("\n\n")
		s.WriteString("Used for the health endpoint and webhook mode.\n\n")
		s.WriteString(labelStyle.Render("Enter the port (Enter for 3000):"))
		s.WriteString("\n")
		s.WriteString(m.input.View())

	case stepConfirm, stepDone:
		s.WriteString(titleStyle.Render("Configuration Complete"))
		s.WriteString("\n\n")
		s.WriteString("Your configuration:\n\n")
		s.WriteString("  Bot token:    " + successStyle.Render(maskToken(m.token)) + "\n")
		s.WriteString("  Bot username: " + successStyle.Render(m.username) + "\n")
		s.WriteString("  API URL:      " + successStyle.Render(m.apiURL) + "\n")
		s.WriteString("  Port:         " + successStyle.Render(m.port) + "\n")
		s.WriteString("\n")
		s.WriteString(labelStyle.Render("Save this configuration? [Y/n]:"))
		s.WriteString("\n")
		s.WriteString(m.input.View())
	}

	if m.err != nil {
		s.WriteString("\n" + errorStyle.Render(m.err.Error()))
	}
	s.WriteString("\n")
	return s.String()
}

func maskToken(token string) string {
	if len(token) <= 8 {
		return strings.Repeat("*", len(token))
	}
	return token[:4] + strings.Repeat("*", len(token)-8) + token[len(token)-4:]
}

// Run starts the setup wizard and returns true if a .env was written.
func Run() (bool, error) {
	p := tea.NewProgram(newModel())
	finalModel, err := p.Run()
	if err != nil {
		return false, err
	}

	m := finalModel.(model)
	return m.step == stepDone, nil
}

// NeedsSetup checks if a .env file exists
func NeedsSetup() bool {
	_, err := os.Stat(".env")
	return os.IsNotExist(err)
}
