package ui

import (
	"fmt"
	"strings"

	"vidtool/internal/progress"
	"vidtool/internal/util/format"
)

func (m *Model) View() string {
	var b strings.Builder

	b.WriteString(m.styles.Header.Render("vidtool batch encode"))
	b.WriteString(fmt.Sprintf("  %d/%d files\n\n", m.completed, len(m.order)))

	for _, input := range m.order {
		m.viewJob(&b, m.states[input])
	}

	switch {
	case m.done:
		m.viewSummary(&b)
	case m.quitting:
		b.WriteString("\n" + m.styles.Cancelled.Render("cancelling, waiting for ffmpeg to stop..."))
	default:
		b.WriteString("\n" + m.styles.Dim.Render("q to cancel"))
	}
	b.WriteString("\n")
	return b.String()
}

func (m *Model) viewJob(b *strings.Builder, st *jobState) {
	name := truncate(st.Name(), 48)

	switch st.Stage {
	case progress.StageCompleted:
		fmt.Fprintf(b, "%s %s %s\n", m.styles.Done.Render("✓"), m.styles.Input.Render(name), m.styles.Dim.Render(st.Output))
	case progress.StageSkipped:
		fmt.Fprintf(b, "%s %s %s\n", m.styles.Skip.Render("−"), m.styles.Input.Render(name), m.styles.Dim.Render("skipped, output exists"))
	case progress.StageError:
		fmt.Fprintf(b, "%s %s %s\n", m.styles.Fail.Render("✗"), m.styles.Input.Render(name), m.styles.Fail.Render(errText(st)))
	case progress.StageEncoding:
		fmt.Fprintf(b, "%s %s %s\n", m.spinner.View(), m.styles.Input.Render(name), m.styles.Stage.Render("encoding"))
		if st.Percent >= 0 {
			fmt.Fprintf(b, "  %s %s\n", st.Bar.ViewAs(st.Percent/100), m.styles.Dim.Render(m.encodeStats(st)))
		}
		if m.params.Verbose && len(st.Logs) > 0 {
			fmt.Fprintf(b, "  %s\n", m.styles.Log.Render(truncate(st.Logs[len(st.Logs)-1], 100)))
		}
	case progress.StageProbing, progress.StagePlanning:
		fmt.Fprintf(b, "%s %s %s\n", m.spinner.View(), m.styles.Input.Render(name), m.styles.Stage.Render(string(st.Stage)))
	default:
		fmt.Fprintf(b, "%s %s\n", m.styles.Dim.Render("·"), m.styles.Dim.Render(name))
	}
}

func (m *Model) encodeStats(st *jobState) string {
	parts := []string{fmt.Sprintf("%.1f%%", st.Percent)}
	if st.FPS != nil && *st.FPS > 0 {
		parts = append(parts, fmt.Sprintf("%.0f fps", *st.FPS))
	}
	if st.Speed != nil && *st.Speed != "" {
		parts = append(parts, *st.Speed)
	}
	if st.ETA != nil {
		parts = append(parts, "eta "+format.ETA(st.ETA.Seconds()))
	}
	return strings.Join(parts, "  ")
}

func (m *Model) viewSummary(b *strings.Builder) {
	if m.summary == nil {
		return
	}
	b.WriteString("\n" + m.styles.Summary.Render(m.summary.String()))
	if m.runErr != nil {
		b.WriteString("\n" + m.styles.Fail.Render(m.runErr.Error()))
	}
}

func errText(st *jobState) string {
	if st.Err == nil {
		return "failed"
	}
	return truncate(st.Err.Error(), 80)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n <= 3 {
		return s[:n]
	}
	return s[:n-3] + "..."
}
