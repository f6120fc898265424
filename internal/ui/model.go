package ui

import (
	"context"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"vidtool/internal/batch"
	"vidtool/internal/model"
	"vidtool/internal/output"
	"vidtool/internal/probe"
	"vidtool/internal/progress"
	"vidtool/internal/util"
)

// Params carries everything the interactive encode screen needs. The
// caller resolves binaries and assembles the generator before handing
// control to the UI.
type Params struct {
	Files     []string
	Options   model.EncodingOptions
	Generator *output.Generator
	FFmpeg    string
	Probe     probe.Func
	Logger    zerolog.Logger
	DryRun    bool
	Verbose   bool
}

// Model is the bubbletea model for a batch encode session. Files are
// processed strictly one at a time; the event channel bridges reporter
// callbacks from the batch goroutine into the update loop.
type Model struct {
	ctx    context.Context
	cancel context.CancelFunc
	params Params

	states map[string]*jobState
	order  []string
	byID   map[string]string

	spinner   spinner.Model
	styles    styles
	width     int
	eventCh   chan tea.Msg
	cancelTok *util.CancelToken

	done      bool
	quitting  bool
	summary   *batch.Summary
	runErr    error
	completed int
}

func newModel(ctx context.Context, p Params) *Model {
	ctx, cancel := context.WithCancel(ctx)
	sp := spinner.New()
	sp.Spinner = spinner.MiniDot

	m := &Model{
		ctx:       ctx,
		cancel:    cancel,
		params:    p,
		states:    make(map[string]*jobState, len(p.Files)),
		byID:      make(map[string]string, len(p.Files)),
		spinner:   sp,
		styles:    newStyles(),
		eventCh:   make(chan tea.Msg, 64),
		cancelTok: &util.CancelToken{},
	}
	for _, f := range p.Files {
		m.states[f] = newJobState(f)
		m.order = append(m.order, f)
	}
	return m
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.listen(), m.startBatch())
}

func (m *Model) listen() tea.Cmd {
	return func() tea.Msg {
		return <-m.eventCh
	}
}

func (m *Model) startBatch() tea.Cmd {
	return func() tea.Msg {
		runner := batch.Runner{
			FFmpeg:    m.params.FFmpeg,
			Probe:     m.params.Probe,
			Generator: m.params.Generator,
			Options:   m.params.Options,
			Reporter:  &teaReporter{ch: m.eventCh},
			Cancel:    m.cancelTok,
			Logger:    m.params.Logger,
			DryRun:    m.params.DryRun,
		}
		sum, err := runner.Run(m.ctx, m.params.Files)
		return batchDoneMsg{Sum: sum, Err: err}
	}
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			if m.done {
				return m, tea.Quit
			}
			m.quitting = true
			m.cancelTok.Cancel()
			m.cancel()
			return m, nil
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case jobUpdateMsg:
		if st, ok := m.states[msg.U.Input]; ok {
			m.byID[msg.U.JobID] = msg.U.Input
			st.apply(msg.U)
		}
		return m, m.listen()
	case jobLogMsg:
		if input, ok := m.byID[msg.L.JobID]; ok {
			if st, ok := m.states[input]; ok {
				st.appendLog(msg.L.Line)
			}
		}
		return m, m.listen()
	case jobResultMsg:
		if st, ok := m.states[msg.R.InputPath]; ok {
			st.Output = msg.R.OutputPath
			st.Err = msg.R.Err
			st.Skipped = msg.R.Skipped
			switch {
			case msg.R.Err != nil:
				st.Stage = progress.StageError
			case msg.R.Skipped:
				st.Stage = progress.StageSkipped
			default:
				st.Stage = progress.StageCompleted
				st.Percent = 100
			}
			m.completed++
		}
		return m, m.listen()
	case batchDoneMsg:
		m.done = true
		m.summary = &msg.Sum
		m.runErr = msg.Err
		return m, tea.Quit
	}
	return m, nil
}

// teaReporter forwards batch reporter callbacks onto the UI event
// channel. Updates and logs are dropped when the channel is full so a
// chatty ffmpeg never stalls the encode; results always land.
type teaReporter struct {
	ch chan<- tea.Msg
}

func (r *teaReporter) Update(u progress.Update) {
	if u.Stage == progress.StageCompleted || u.Stage == progress.StageError {
		r.ch <- jobUpdateMsg{U: u}
		return
	}
	select {
	case r.ch <- jobUpdateMsg{U: u}:
	default:
	}
}

func (r *teaReporter) Log(l progress.Log) {
	select {
	case r.ch <- jobLogMsg{L: l}:
	default:
	}
}

func (r *teaReporter) Result(res progress.Result) {
	r.ch <- jobResultMsg{R: res}
}
