// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 the wmpstat authors

package cmd

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/hvackit/wmpstat/pkg/client"
	"github.com/hvackit/wmpstat/pkg/wmp"
)

//////////////////////////////////////////////////////////////
// Constants
//////////////////////////////////////////////////////////////

// Focus states
const (
	focusNone = iota
	focusTempInput
)

const maxControlLogEntries = 100

//////////////////////////////////////////////////////////////
// Types
//////////////////////////////////////////////////////////////

type controlLogEntry struct {
	timestamp time.Time
	message   string
	isError   bool
}

// controlModel is the Bubble Tea model for the control TUI
type controlModel struct {
	c        *client.Client
	connInfo string

	// Setpoint entry
	tempInput    textinput.Model
	focusedField int

	// Event log
	eventLog []controlLogEntry

	// UI state
	width    int
	height   int
	quitting bool
}

//////////////////////////////////////////////////////////////
// Messages
//////////////////////////////////////////////////////////////

type controlTickMsg time.Time

type stateChangedMsg struct{}

type clientErrorMsg struct {
	err error
}

//////////////////////////////////////////////////////////////
// Model Initialization
//////////////////////////////////////////////////////////////

func initialControlModel(c *client.Client, connInfo string) controlModel {
	ti := textinput.New()
	ti.Placeholder = "21.0"
	ti.CharLimit = 5
	ti.Width = 8

	return controlModel{
		c:         c,
		connInfo:  connInfo,
		tempInput: ti,
		eventLog:  make([]controlLogEntry, 0),
		width:     80,
		height:    24,
	}
}

//////////////////////////////////////////////////////////////
// Bubble Tea Interface
//////////////////////////////////////////////////////////////

func (m controlModel) Init() tea.Cmd {
	return controlTickCmd()
}

func controlTickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return controlTickMsg(t)
	})
}

func (m controlModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case controlTickMsg:
		return m, controlTickCmd()

	case stateChangedMsg:
		// State getters read live; a repaint is all that is needed.

	case clientErrorMsg:
		m.addLogEntry(msg.err.Error(), true)
	}

	if m.focusedField == focusTempInput {
		var cmd tea.Cmd
		m.tempInput, cmd = m.tempInput.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m *controlModel) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// The temperature input swallows printable keys while focused
	if m.focusedField == focusTempInput {
		switch msg.String() {
		case "esc":
			m.focusedField = focusNone
			m.tempInput.Blur()
			return m, nil
		case "enter":
			m.applySetpoint()
			m.focusedField = focusNone
			m.tempInput.Blur()
			return m, nil
		case "ctrl+c":
			m.quitting = true
			m.c.Stop()
			return m, tea.Quit
		}
		var cmd tea.Cmd
		m.tempInput, cmd = m.tempInput.Update(msg)
		return m, cmd
	}

	switch msg.String() {
	case "q", "ctrl+c":
		m.quitting = true
		m.c.Stop()
		return m, tea.Quit

	case "t":
		m.focusedField = focusTempInput
		m.tempInput.Focus()

	case "p":
		m.togglePower()

	case "m":
		m.cycleValue(wmp.FunctionMode)

	case "f":
		m.cycleValue(wmp.FunctionFanSpeed)

	case "u":
		m.cycleValue(wmp.FunctionVaneUpDown)

	case "l":
		m.cycleValue(wmp.FunctionVaneLeftRight)
	}

	return m, nil
}

//////////////////////////////////////////////////////////////
// Commands
//////////////////////////////////////////////////////////////

func (m *controlModel) applySetpoint() {
	value := strings.TrimSpace(m.tempInput.Value())
	if value == "" {
		return
	}
	degrees, err := strconv.ParseFloat(value, 64)
	if err != nil {
		m.addLogEntry(fmt.Sprintf("Invalid temperature %q", value), true)
		return
	}
	if min, max, ok := m.c.SetpointRange(); ok && (degrees < min || degrees > max) {
		m.addLogEntry(fmt.Sprintf("Setpoint %.1f outside device range %.1f-%.1f", degrees, min, max), true)
		return
	}
	m.c.SetTemperature(degrees)
	m.addLogEntry(fmt.Sprintf("Setpoint -> %.1f°C", degrees), false)
}

func (m *controlModel) togglePower() {
	power, ok := m.c.Power()
	if ok && power == wmp.PowerOn {
		m.c.PowerOff()
		m.addLogEntry("Power -> OFF", false)
		return
	}
	m.c.PowerOn()
	m.addLogEntry("Power -> ON", false)
}

// cycleValue advances a function to the next value in its discovered
// capability list.
func (m *controlModel) cycleValue(function string) {
	caps := m.c.Capabilities()
	var options []string
	switch function {
	case wmp.FunctionMode:
		options = caps.Modes
	case wmp.FunctionFanSpeed:
		options = caps.FanSpeeds
	case wmp.FunctionVaneUpDown:
		options = caps.VaneUD
	case wmp.FunctionVaneLeftRight:
		options = caps.VaneLR
	}
	if len(options) == 0 {
		m.addLogEntry("Capability not supported by this device", true)
		return
	}

	current, _ := m.c.Value(function)
	next := options[0]
	for i, v := range options {
		if v == current {
			next = options[(i+1)%len(options)]
			break
		}
	}

	switch function {
	case wmp.FunctionMode:
		m.c.SetMode(next)
		m.addLogEntry(fmt.Sprintf("Mode -> %s", next), false)
	case wmp.FunctionFanSpeed:
		m.c.SetFanSpeed(next)
		m.addLogEntry(fmt.Sprintf("Fan -> %s", next), false)
	case wmp.FunctionVaneUpDown:
		m.c.SetVaneUpDown(next)
		m.addLogEntry(fmt.Sprintf("Vertical vane -> %s", next), false)
	case wmp.FunctionVaneLeftRight:
		m.c.SetVaneLeftRight(next)
		m.addLogEntry(fmt.Sprintf("Horizontal vane -> %s", next), false)
	}
}

func (m *controlModel) addLogEntry(message string, isError bool) {
	m.eventLog = append(m.eventLog, controlLogEntry{
		timestamp: time.Now(),
		message:   message,
		isError:   isError,
	})
	if len(m.eventLog) > maxControlLogEntries {
		m.eventLog = m.eventLog[len(m.eventLog)-maxControlLogEntries:]
	}
}

//////////////////////////////////////////////////////////////
// View
//////////////////////////////////////////////////////////////

func (m controlModel) View() string {
	if m.quitting {
		return "Shutting down...\n"
	}

	var s strings.Builder

	// Styles
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("12")).
		Background(lipgloss.Color("235")).
		Padding(0, 1)

	headerStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241"))

	labelStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("12")).
		Bold(true)

	valueStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("10"))

	errorStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("9")).
		Bold(true)

	warningStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("11"))

	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1)

	// Header
	s.WriteString(titleStyle.Render("WMPSTAT CONTROL"))
	s.WriteString(" ")
	connStatus := valueStyle.Render(m.c.State().String())
	if m.c.State() != client.Authenticated {
		connStatus = warningStyle.Render(strings.ToUpper(m.c.State().String()))
	}
	helpText := "q=quit t=temp p=power m=mode f=fan u/l=vanes"
	s.WriteString(headerStyle.Render(fmt.Sprintf("| %s | %s | %s", m.connInfo, connStatus, helpText)))
	s.WriteString("\n")

	// Identity line
	if id, ok := m.c.Identity(); ok {
		s.WriteString(fmt.Sprintf(" %s %s",
			labelStyle.Render("Device:"),
			valueStyle.Render(fmt.Sprintf("%s  MAC %s  fw %s  %d dBm", id.Model, id.MAC, id.Version, id.RSSI))))
	}
	s.WriteString("\n\n")

	// State panel
	s.WriteString(m.renderStatePanel(labelStyle, valueStyle, headerStyle, boxStyle))
	s.WriteString("\n\n")

	// Setpoint entry
	s.WriteString(labelStyle.Render("New setpoint: "))
	if m.focusedField == focusTempInput {
		s.WriteString(m.tempInput.View())
		s.WriteString(headerStyle.Render("  (enter=apply esc=cancel)"))
	} else {
		s.WriteString(headerStyle.Render("press t to edit"))
	}
	s.WriteString("\n\n")

	// Event log
	s.WriteString(m.renderEventLog(labelStyle, headerStyle, errorStyle, boxStyle))

	return s.String()
}

func (m controlModel) renderStatePanel(labelStyle, valueStyle, headerStyle, boxStyle lipgloss.Style) string {
	var content strings.Builder

	row := func(label, value string, known bool) {
		content.WriteString(labelStyle.Render(fmt.Sprintf("%-18s", label)))
		if known {
			content.WriteString(valueStyle.Render(value))
		} else {
			content.WriteString(headerStyle.Render("unknown"))
		}
		content.WriteString("\n")
	}

	power, okPower := m.c.Power()
	row("Power", power, okPower)

	mode, okMode := m.c.Mode()
	row("Mode", mode, okMode)

	setpoint, okSet := m.c.Setpoint()
	setpointText := fmt.Sprintf("%.1f°C", setpoint)
	if min, max, ok := m.c.SetpointRange(); ok {
		setpointText += headerStyle.Render(fmt.Sprintf("  (range %.1f-%.1f)", min, max))
	}
	row("Setpoint", setpointText, okSet)

	ambient, okAmb := m.c.AmbientTemp()
	row("Ambient", fmt.Sprintf("%.1f°C", ambient), okAmb)

	fan, okFan := m.c.FanSpeed()
	row("Fan speed", fan, okFan)

	vud, okVUD := m.c.VaneUpDown()
	row("Vertical vane", vud, okVUD)

	vlr, okVLR := m.c.VaneLeftRight()
	row("Horizontal vane", vlr, okVLR)

	errStatus, okErr := m.c.Value(wmp.FunctionErrorStatus)
	row("Error status", errStatus, okErr)

	return boxStyle.Width(m.width - 4).Render(strings.TrimRight(content.String(), "\n"))
}

func (m controlModel) renderEventLog(labelStyle, headerStyle, errorStyle, boxStyle lipgloss.Style) string {
	var s strings.Builder
	s.WriteString(labelStyle.Render("EVENTS"))
	s.WriteString("\n")

	logHeight := 8
	startIdx := len(m.eventLog) - logHeight
	if startIdx < 0 {
		startIdx = 0
	}

	var content strings.Builder
	if len(m.eventLog) == 0 {
		content.WriteString(headerStyle.Render("(no events yet)"))
	} else {
		for i := startIdx; i < len(m.eventLog); i++ {
			entry := m.eventLog[i]
			line := fmt.Sprintf("%s %s", entry.timestamp.Format("15:04:05.000"), entry.message)
			if entry.isError {
				content.WriteString(errorStyle.Render(line))
			} else {
				content.WriteString(line)
			}
			if i < len(m.eventLog)-1 {
				content.WriteString("\n")
			}
		}
	}

	s.WriteString(boxStyle.Width(m.width - 4).Render(content.String()))
	return s.String()
}
