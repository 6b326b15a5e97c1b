// Copyright (C) ConfigHub, Inc.
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/confighub/xp-console/pkg/tree"
)

var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Browse the resource tree interactively",
	Long: `Browse the Crossplane resource hierarchy in an interactive TUI.

Keys:
  ↑/k ↓/j     move
  enter/space expand or collapse
  r           refresh from the cluster
  q           quit
`,
	RunE: runBrowseCmd,
}

func init() {
	rootCmd.AddCommand(browseCmd)
}

func runBrowseCmd(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	model := tree.New(a.run, tree.Config{
		Kubectl:  a.cfg.KubectlBin,
		Denylist: a.cfg.CRDSuffixDenylist,
		Logger:   a.logger,
	})

	p := tea.NewProgram(newBrowseModel(model, getCurrentContext()), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run browser: %w", err)
	}
	return nil
}

var (
	browseTitleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	browseCursorStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	browseCategoryStyle = lipgloss.NewStyle().Bold(true)
	browseStatusStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	browseNoticeStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
)

type browseKeyMap struct {
	Up      key.Binding
	Down    key.Binding
	Toggle  key.Binding
	Refresh key.Binding
	Quit    key.Binding
}

var browseKeys = browseKeyMap{
	Up:      key.NewBinding(key.WithKeys("up", "k")),
	Down:    key.NewBinding(key.WithKeys("down", "j")),
	Toggle:  key.NewBinding(key.WithKeys("enter", " ")),
	Refresh: key.NewBinding(key.WithKeys("r")),
	Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c")),
}

// browseRow is one visible line of the flattened tree.
type browseRow struct {
	node     *tree.Node
	depth    int
	expanded bool
	children []*browseRow
	loaded   bool
}

type browseModel struct {
	tree    *tree.Model
	cluster string

	roots   []*browseRow
	visible []*browseRow
	cursor  int

	spin    spinner.Model
	loading bool
	notice  string
	width   int
	height  int
}

// Messages
type childrenMsg struct {
	row      *browseRow
	children []*browseRow
}

func newBrowseModel(m *tree.Model, cluster string) *browseModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	b := &browseModel{tree: m, cluster: cluster, spin: sp}
	for _, n := range m.Root() {
		b.roots = append(b.roots, &browseRow{node: n})
	}
	b.flatten()
	return b
}

func (b *browseModel) Init() tea.Cmd {
	return b.spin.Tick
}

// expandCmd resolves a row's children off the UI loop; tree expansion runs
// subprocesses and must not block rendering.
func (b *browseModel) expandCmd(row *browseRow) tea.Cmd {
	return func() tea.Msg {
		children := b.tree.GetChildren(context.Background(), row.node)
		rows := make([]*browseRow, 0, len(children))
		for _, c := range children {
			rows = append(rows, &browseRow{node: c, depth: row.depth + 1})
		}
		return childrenMsg{row: row, children: rows}
	}
}

func (b *browseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		b.width = msg.Width
		b.height = msg.Height
		return b, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		b.spin, cmd = b.spin.Update(msg)
		return b, cmd

	case childrenMsg:
		msg.row.children = msg.children
		msg.row.loaded = true
		msg.row.expanded = true
		b.loading = false
		if len(msg.children) == 0 {
			b.notice = "no children"
		}
		b.flatten()
		return b, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, browseKeys.Quit):
			return b, tea.Quit

		case key.Matches(msg, browseKeys.Up):
			if b.cursor > 0 {
				b.cursor--
			}
			return b, nil

		case key.Matches(msg, browseKeys.Down):
			if b.cursor < len(b.visible)-1 {
				b.cursor++
			}
			return b, nil

		case key.Matches(msg, browseKeys.Toggle):
			return b.toggle()

		case key.Matches(msg, browseKeys.Refresh):
			b.tree.Refresh()
			for _, r := range b.roots {
				r.children = nil
				r.loaded = false
				r.expanded = false
			}
			b.cursor = 0
			b.notice = "refreshed"
			b.flatten()
			return b, nil
		}
	}
	return b, nil
}

func (b *browseModel) toggle() (tea.Model, tea.Cmd) {
	if b.cursor >= len(b.visible) {
		return b, nil
	}
	row := b.visible[b.cursor]
	if !row.node.Expandable && !row.node.IsCategory() {
		return b, nil
	}
	if row.expanded {
		row.expanded = false
		b.flatten()
		return b, nil
	}
	if row.loaded {
		row.expanded = true
		b.flatten()
		return b, nil
	}
	b.loading = true
	b.notice = ""
	return b, b.expandCmd(row)
}

// flatten rebuilds the visible row list from the expansion state.
func (b *browseModel) flatten() {
	b.visible = b.visible[:0]
	var walk func(rows []*browseRow)
	walk = func(rows []*browseRow) {
		for _, r := range rows {
			b.visible = append(b.visible, r)
			if r.expanded {
				walk(r.children)
			}
		}
	}
	walk(b.roots)
	if b.cursor >= len(b.visible) && len(b.visible) > 0 {
		b.cursor = len(b.visible) - 1
	}
}

func (b *browseModel) View() string {
	var sb strings.Builder
	sb.WriteString(browseTitleStyle.Render(fmt.Sprintf("xp-console — %s", b.cluster)))
	sb.WriteString("\n\n")

	for i, row := range b.visible {
		indent := strings.Repeat("  ", row.depth)
		marker := "  "
		if row.node.Expandable || row.node.IsCategory() {
			marker = "▸ "
			if row.expanded {
				marker = "▾ "
			}
		}
		line := indent + marker + row.node.Label
		switch {
		case i == b.cursor:
			line = browseCursorStyle.Render("> " + line)
		case row.node.IsCategory():
			line = "  " + browseCategoryStyle.Render(line)
		default:
			line = "  " + line
		}
		sb.WriteString(line)
		sb.WriteString("\n")
	}

	sb.WriteString("\n")
	if b.loading {
		sb.WriteString(b.spin.View() + " loading…\n")
	}
	if b.notice != "" {
		sb.WriteString(browseNoticeStyle.Render(b.notice) + "\n")
	}
	sb.WriteString(browseStatusStyle.Render("↑/↓ move · enter expand · r refresh · q quit"))
	return sb.String()
}
