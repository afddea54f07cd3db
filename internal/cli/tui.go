package cli

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/atomtree/pkg/errors"
	"github.com/matzehuels/atomtree/pkg/interact"
	"github.com/matzehuels/atomtree/pkg/surface"
	"github.com/matzehuels/atomtree/pkg/tree"
	"github.com/matzehuels/atomtree/pkg/viewport"
	"github.com/matzehuels/atomtree/pkg/visualizer"
)

// Viewer styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
	popupBoxStyle     = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(colorPurple).
				Padding(0, 1)
)

const (
	// zoomStep is the wheel delta sent per +/- key press; 250 pixels is a
	// factor of √2.
	zoomStep = 250.0

	// panStep is the viewport shift per arrow key press, in surface units.
	panStep = 50.0

	animDuration = 300 * time.Millisecond
	frameRate    = time.Second / 60
)

// =============================================================================
// Messages
// =============================================================================

// cycleMsg reports a render cycle run outside the program loop.
type cycleMsg struct {
	res visualizer.Result
	err error
}

// frameMsg advances a running viewport animation.
type frameMsg time.Time

func nextFrame() tea.Cmd {
	return tea.Tick(frameRate, func(t time.Time) tea.Msg { return frameMsg(t) })
}

// =============================================================================
// ViewerModel - Interactive tree inspection
// =============================================================================

// viewRow is one line of the node list.
type viewRow struct {
	index int
	depth int
	name  string
	leaf  bool
}

// ViewerModel is the bubbletea model for browsing a drawn tree. Keyboard
// actions are turned into the same surface input a pointer would produce.
type ViewerModel struct {
	vis     *visualizer.Visualizer
	initial viewport.Transform
	fitPad  float64

	Rows   []viewRow
	Cursor int
	Offset int
	Height int

	// Hovered is the index of the node under the virtual pointer, or -1.
	Hovered int

	anim *viewport.Transition
	last visualizer.Result
	err  error
}

// NewViewerModel creates a viewer over vis. initial is the transform
// restored by the r key.
func NewViewerModel(vis *visualizer.Visualizer, initial viewport.Transform, fitPad float64) ViewerModel {
	m := ViewerModel{
		vis:     vis,
		initial: initial,
		fitPad:  fitPad,
		Height:  15,
		Hovered: -1,
	}
	m.Rows = treeRows(vis.Hierarchy())
	return m
}

// treeRows lists the hierarchy in pre-order.
func treeRows(h *tree.Hierarchy) []viewRow {
	if h == nil {
		return nil
	}
	var rows []viewRow
	h.EachBefore(func(n *tree.HierarchyNode) {
		rows = append(rows, viewRow{index: n.Index, depth: n.Depth, name: n.Node.Name, leaf: n.IsLeaf()})
	})
	return rows
}

func (m ViewerModel) Init() tea.Cmd {
	return nil
}

func (m ViewerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case cycleMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.last = msg.res
		if msg.res.Skipped {
			return m, nil
		}
		// A rebuild drops popups along with the old elements.
		m.Hovered = -1
		m.Rows = treeRows(m.vis.Hierarchy())
		if m.Cursor >= len(m.Rows) {
			m.Cursor = max(0, len(m.Rows)-1)
		}
		m.scroll()

	case frameMsg:
		if m.anim == nil {
			return m, nil
		}
		m.vis.SetViewport(m.anim.Step(frameRate))
		if m.anim.Done {
			m.anim = nil
			return m, nil
		}
		return m, nextFrame()

	case tea.KeyMsg:
		return m.handleKey(msg.String())

	case tea.WindowSizeMsg:
		m.Height = max(5, msg.Height-12)
		m.scroll()
	}
	return m, nil
}

func (m ViewerModel) handleKey(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case "up", "k":
		if m.Cursor > 0 {
			m.Cursor--
			m.scroll()
		}
	case "down", "j":
		if m.Cursor < len(m.Rows)-1 {
			m.Cursor++
			m.scroll()
		}
	case "enter", " ":
		m.err = m.togglePopup()
	case "+", "=":
		m.err = m.zoom(-zoomStep)
	case "-", "_":
		m.err = m.zoom(zoomStep)
	case "left", "h":
		m.pan(panStep, 0)
	case "right", "l":
		m.pan(-panStep, 0)
	case "shift+up", "K":
		m.pan(0, panStep)
	case "shift+down", "J":
		m.pan(0, -panStep)
	case "f":
		return m.animateTo(m.vis.Fit(m.fitPad))
	case "r":
		return m.animateTo(m.initial)
	}
	return m, nil
}

// scroll keeps the cursor inside the visible window.
func (m *ViewerModel) scroll() {
	if m.Cursor < m.Offset {
		m.Offset = m.Cursor
	}
	if m.Cursor >= m.Offset+m.Height {
		m.Offset = m.Cursor - m.Height + 1
	}
}

// togglePopup moves the virtual pointer onto the selected node, or off the
// canvas when it is already there.
func (m *ViewerModel) togglePopup() error {
	if len(m.Rows) == 0 {
		return nil
	}
	idx := m.Rows[m.Cursor].index
	if m.Hovered == idx {
		m.Hovered = -1
		return m.vis.Dispatch(surface.Input{Kind: surface.InputPointerOut})
	}

	layer := m.vis.Layer()
	if layer == nil {
		return nil
	}
	p, ok := layer.Position(idx)
	if !ok {
		return errors.New(errors.ErrCodeNotFound, "node %d is not drawn", idx)
	}
	x, y := m.vis.Viewport().Apply(p.X, p.Y)
	if err := m.vis.Dispatch(surface.Input{Kind: surface.InputPointerMove, X: x, Y: y}); err != nil {
		return err
	}
	m.Hovered = idx
	return nil
}

// zoom sends a wheel event at the center of the surface.
func (m *ViewerModel) zoom(deltaY float64) error {
	cx, cy := m.center()
	return m.vis.Dispatch(surface.Input{Kind: surface.InputWheel, X: cx, Y: cy, DeltaY: deltaY})
}

func (m *ViewerModel) pan(dx, dy float64) {
	t := m.vis.Viewport()
	m.vis.SetViewport(viewport.Transform{X: t.X + dx, Y: t.Y + dy, K: t.K})
}

func (m *ViewerModel) center() (float64, float64) {
	if s, ok := m.vis.Surface().(interface{ Size() (float64, float64) }); ok {
		w, h := s.Size()
		return w / 2, h / 2
	}
	return 0, 0
}

func (m ViewerModel) animateTo(to viewport.Transform) (tea.Model, tea.Cmd) {
	m.anim = viewport.NewTransition(m.vis.Viewport(), to, animDuration, nil)
	return m, nextFrame()
}

// popup returns the payload shown for the hovered node, if any.
func (m ViewerModel) popup() (string, string) {
	if m.Hovered < 0 {
		return "", ""
	}
	id := interact.PopupID(m.Hovered)
	for _, p := range m.vis.Popups() {
		if p != id {
			continue
		}
		h := m.vis.Hierarchy()
		if h == nil || m.Hovered >= h.Len() {
			return "", ""
		}
		body, err := h.Nodes()[m.Hovered].Node.MarshalPayload()
		if err != nil {
			return id, err.Error()
		}
		return id, string(body)
	}
	return "", ""
}

func (m ViewerModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("atomtree"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("j/k move  ⏎ inspect  +/- zoom  h/l/J/K pan  f fit  r reset  q quit"))
	b.WriteString("\n\n")

	if len(m.Rows) == 0 {
		b.WriteString(listDimStyle.Render("  waiting for a snapshot…"))
		b.WriteString("\n")
	}

	end := min(m.Offset+m.Height, len(m.Rows))
	for i := m.Offset; i < end; i++ {
		r := m.Rows[i]
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		marker := "○"
		if r.leaf {
			marker = "●"
		}
		line := fmt.Sprintf("%s%s%s %s", cursor, strings.Repeat("  ", r.depth), marker, r.name)
		switch {
		case i == m.Cursor:
			b.WriteString(listSelectedStyle.Render(line))
		case r.leaf:
			b.WriteString(StyleLeaf.Render(line))
		default:
			b.WriteString(listNormalStyle.Render(line))
		}
		b.WriteString("\n")
	}

	if id, body := m.popup(); id != "" {
		b.WriteString("\n")
		b.WriteString(popupBoxStyle.Render(StyleDim.Render(id) + "\n" + StyleValue.Render(body)))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.statusTable())
	b.WriteString("\n")

	if m.err != nil {
		b.WriteString(StyleWarning.Render("  " + errors.UserMessage(m.err)))
		b.WriteString("\n")
	}
	return b.String()
}

func (m ViewerModel) statusTable() string {
	t := m.vis.Viewport()
	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)

	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Nodes", "Cycles", "Last cycle", "Scale", "Translate").
		Row(
			fmt.Sprint(len(m.Rows)),
			fmt.Sprint(m.vis.Cycles()),
			m.last.Duration.Round(time.Microsecond).String(),
			fmt.Sprintf("%.3g", t.K),
			fmt.Sprintf("%.0f, %.0f", t.X, t.Y),
		).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			return lipgloss.NewStyle().Foreground(colorWhite)
		}).
		Render()
}
