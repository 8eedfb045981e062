// Package tui contains the interactive emulator picker used by the
// `fluttermcp devices --pick` command.
package tui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/fluttermcp/cli/internal/ui"
)

// LaunchFunc boots the selected emulator image and blocks until it is
// ready (or fails).
type LaunchFunc func(ctx context.Context, image string) error

// launchDoneMsg reports the outcome of a launch attempt.
type launchDoneMsg struct {
	image string
	err   error
}

// launchCmd runs the launch asynchronously.
func launchCmd(launch LaunchFunc, image string) tea.Cmd {
	return func() tea.Msg {
		err := launch(context.Background(), image)
		return launchDoneMsg{image: image, err: err}
	}
}

// pickerModel is the bubbletea model for the AVD picker.
type pickerModel struct {
	images  []string
	cursor  int
	launch  LaunchFunc
	spin    spinner.Model
	booting bool
	booted  string
	err     error
	quit    bool
}

// newPickerModel builds the initial model.
func newPickerModel(images []string, launch LaunchFunc) pickerModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = ui.AccentStyle
	return pickerModel{images: images, launch: launch, spin: sp}
}

// Init implements tea.Model.
func (m pickerModel) Init() tea.Cmd { return nil }

// Update implements tea.Model.
func (m pickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.booting {
			if msg.String() == "ctrl+c" {
				m.quit = true
				return m, tea.Quit
			}
			return m, nil
		}
		switch msg.String() {
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.images)-1 {
				m.cursor++
			}
		case "enter":
			m.booting = true
			return m, tea.Batch(m.spin.Tick, launchCmd(m.launch, m.images[m.cursor]))
		case "q", "esc", "ctrl+c":
			m.quit = true
			return m, tea.Quit
		}
	case launchDoneMsg:
		m.booting = false
		m.err = msg.err
		if msg.err == nil {
			m.booted = msg.image
		}
		return m, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View implements tea.Model.
func (m pickerModel) View() string {
	if m.booting {
		return fmt.Sprintf("%s Booting %s...\n", m.spin.View(), ui.AccentStyle.Render(m.images[m.cursor]))
	}
	if m.booted != "" || m.err != nil || m.quit {
		return ""
	}

	s := ui.TitleStyle.Render("Select an emulator image") + "\n\n"
	for i, image := range m.images {
		cursor := "  "
		line := image
		if i == m.cursor {
			cursor = ui.AccentStyle.Render("> ")
			line = ui.AccentStyle.Render(image)
		}
		s += cursor + line + "\n"
	}
	s += "\n" + ui.DimStyle.Render("↑/↓ move · enter launch · q quit") + "\n"
	return s
}

// PickAndLaunch shows the picker and boots the chosen image.
//
// Returns:
//   - string: the booted image name, or "" if the user quit
//   - error: the launch failure, if any
func PickAndLaunch(images []string, launch LaunchFunc) (string, error) {
	if len(images) == 0 {
		return "", fmt.Errorf("no emulator images available")
	}

	final, err := tea.NewProgram(newPickerModel(images, launch)).Run()
	if err != nil {
		return "", err
	}

	m := final.(pickerModel)
	if m.err != nil {
		return "", m.err
	}
	return m.booted, nil
}
