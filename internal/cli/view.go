package cli

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/anchorlay/pkg/geom"
	"github.com/matzehuels/anchorlay/pkg/pipeline"
	"github.com/matzehuels/anchorlay/pkg/resolve"
	"github.com/matzehuels/anchorlay/pkg/scene"
	"github.com/matzehuels/anchorlay/pkg/sink"
)

const (
	defaultResizeStep = 40
	defaultRemStep    = 1
	minViewport       = 1
)

// viewCommand creates the interactive viewer command.
func (c *CLI) viewCommand() *cobra.Command {
	var step float64
	opts := pipeline.Options{}
	setCLIDefaults(&opts)

	cmd := &cobra.Command{
		Use:   "view [scene]",
		Short: "Browse resolved nodes and resize the viewport interactively",
		Long: `Browse resolved nodes and resize the viewport interactively.

Arrow keys grow and shrink the viewport, + and - change the root font size.
Every change is queued on a scheduler and the next tick re-resolves the
scene, so the table always shows the current frame.`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: sceneArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Path = args[0]
			opts.Logger = c.Logger
			return c.runView(cmd.Context(), opts, step)
		},
	}

	cmd.Flags().Float64Var(&step, "step", defaultResizeStep, "pixels added or removed per arrow key")
	cmd.Flags().Float64Var(&opts.Width, "width", 0, "initial viewport width (default: scene width)")
	cmd.Flags().Float64Var(&opts.Height, "height", 0, "initial viewport height (default: scene height)")
	cmd.Flags().StringVar(&opts.Measure, "measure", opts.Measure, "text measurement: text (default), cells, none")

	return cmd
}

func (c *CLI) runView(ctx context.Context, opts pipeline.Options, step float64) error {
	if err := opts.ValidateForResolve(); err != nil {
		return err
	}
	sc, _, err := pipeline.Load(ctx, opts)
	if err != nil {
		return err
	}

	// The pass log would scribble over the alternate screen.
	r := resolve.New(nil)
	m := newViewModel(ctx, r, sc, pipeline.Measurer(sc, opts), step)
	if m.err != nil {
		return m.err
	}

	final, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if err != nil {
		return fmt.Errorf("viewer: %w", err)
	}
	if vm, ok := final.(viewModel); ok {
		c.Logger.Info("viewer closed", "passes", vm.passes,
			"viewport", fmt.Sprintf("%gx%g", vm.frame.Width, vm.frame.Height))
	}
	return nil
}

// =============================================================================
// viewModel - Interactive frame table
// =============================================================================

// viewModel is the bubbletea model of the viewer. The scheduler owns the
// viewport and root em; the model only forwards key presses to it.
type viewModel struct {
	ctx       context.Context
	sched     *resolve.Scheduler
	collector *sink.Collector
	scene     *scene.Scene

	frame  sink.Frame
	passes int
	err    error

	step   float64
	cursor int
	offset int
	height int
}

func newViewModel(ctx context.Context, r *resolve.Resolver, sc *scene.Scene, m resolve.Measurer, step float64) viewModel {
	if step <= 0 {
		step = defaultResizeStep
	}
	vm := viewModel{
		ctx:       ctx,
		sched:     resolve.NewScheduler(r, sc.Tree, m, sc.Context()),
		collector: sink.NewCollector(),
		scene:     sc,
		step:      step,
		height:    15,
	}
	return vm.tick()
}

// tick runs the scheduler and refreshes the frame when a pass ran.
func (m viewModel) tick() viewModel {
	m.collector.Reset()
	res, err := m.sched.Tick(m.ctx, m.collector)
	if err != nil {
		m.err = err
		return m
	}
	if res != nil {
		m.frame = sink.NewFrame(m.sched, m.collector.Transforms(), res)
		m.passes++
		m.err = nil
	}
	return m
}

func (m viewModel) resize(dx, dy float64) viewModel {
	vp := m.sched.Viewport()
	m.sched.Notify(resolve.Resize(geom.V(max(vp.X+dx, minViewport), max(vp.Y+dy, minViewport))))
	return m.tick()
}

func (m viewModel) Init() tea.Cmd {
	return nil
}

func (m viewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "right":
			return m.resize(m.step, 0), nil
		case "left":
			return m.resize(-m.step, 0), nil
		case "down":
			return m.resize(0, m.step), nil
		case "up":
			return m.resize(0, -m.step), nil
		case "+", "=":
			m.sched.Notify(resolve.RootEm(m.sched.RootEm() + defaultRemStep))
			return m.tick(), nil
		case "-":
			m.sched.Notify(resolve.RootEm(max(m.sched.RootEm()-defaultRemStep, 1)))
			return m.tick(), nil
		case "r":
			m.sched.Notify(resolve.Resize(m.scene.Viewport))
			m.sched.Notify(resolve.RootEm(m.scene.Context().RootEm()))
			return m.tick(), nil
		case "j", "pgdown":
			if m.cursor < len(m.frame.Nodes)-1 {
				m.cursor++
				if m.cursor >= m.offset+m.height {
					m.offset = m.cursor - m.height + 1
				}
			}
		case "k", "pgup":
			if m.cursor > 0 {
				m.cursor--
				if m.cursor < m.offset {
					m.offset = m.cursor
				}
			}
		}
	case tea.WindowSizeMsg:
		m.height = max(msg.Height-9, 5)
	}
	return m, nil
}

func (m viewModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("anchorlay"))
	b.WriteString(StyleDim.Render(fmt.Sprintf("  viewport %gx%g  rem %g  passes %d",
		m.frame.Width, m.frame.Height, m.frame.Rem, m.passes)))
	b.WriteString("\n")
	b.WriteString(StyleDim.Render("←/→ width  ↑/↓ height  +/- rem  j/k scroll  r reset  q quit"))
	b.WriteString("\n\n")

	if m.err != nil {
		b.WriteString(styleIconError.Render(iconError) + " " + m.err.Error() + "\n")
		return b.String()
	}

	end := min(m.offset+m.height, len(m.frame.Nodes))
	rows := make([][]string, 0, end-m.offset)
	for i := m.offset; i < end; i++ {
		n := m.frame.Nodes[i]
		cursor := "  "
		if i == m.cursor {
			cursor = "▸ "
		}
		rows = append(rows, []string{
			cursor,
			strings.Repeat("  ", n.Depth) + nodeLabel(n),
			fmt.Sprintf("%.1f, %.1f", n.X, n.Y),
			fmt.Sprintf("%.1f x %.1f", n.Width, n.Height),
			fmt.Sprintf("%.0f°", n.Rotation),
			fmt.Sprintf("%g", n.Em),
			fmt.Sprintf("%g", n.Z),
		})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Node", "Center", "Size", "Rot", "Em", "Z").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return styleHeader
			}
			idx := m.offset + row
			if idx >= len(m.frame.Nodes) {
				return lipgloss.NewStyle()
			}
			base := lipgloss.NewStyle()
			if !m.frame.Nodes[idx].Visible {
				base = base.Foreground(colorDim)
			}
			if idx == m.cursor {
				return base.Foreground(colorCyan).Bold(true)
			}
			return base
		})

	b.WriteString(t.Render())
	b.WriteString("\n")
	status := fmt.Sprintf("  [%d/%d]", min(m.cursor+1, len(m.frame.Nodes)), len(m.frame.Nodes))
	if d := len(m.frame.Diagnostics); d > 0 {
		status += "  " + StyleWarning.Render(fmt.Sprintf("%d diagnostics", d))
	}
	if s := len(m.frame.Skipped); s > 0 {
		status += "  " + StyleWarning.Render(fmt.Sprintf("%d skipped", s))
	}
	b.WriteString(StyleDim.Render(status))
	return b.String()
}
