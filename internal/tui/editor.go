// Package tui is the terminal front end: a menu for editing and saving the
// configuration, and a live view of the zone colors while a sync session
// runs.
package tui

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/coreman2200/glowsync/internal/config"
	"github.com/coreman2200/glowsync/internal/engine"
)

// MenuResult is what the user chose to do next from the menu.
type MenuResult int

const (
	MenuQuit MenuResult = iota
	MenuStartSync
)

// SyncResult is what the user chose while watching a running session.
type SyncResult int

const (
	SyncQuit SyncResult = iota
	SyncBackToMenu
)

var (
	styleDefault  = tcell.StyleDefault
	styleTitle    = tcell.StyleDefault.Foreground(tcell.ColorYellow).Bold(true)
	styleSelected = tcell.StyleDefault.Reverse(true)
	styleDim      = tcell.StyleDefault.Foreground(tcell.ColorGray)
	styleError    = tcell.StyleDefault.Foreground(tcell.ColorRed)
)

// UI owns the tcell screen for the lifetime of the program.
type UI struct {
	screen tcell.Screen
	cfg    *config.Config
	path   string
	fields []Field

	selected  int
	editing   bool
	input     string
	notice    string
	noticeBad bool
}

// New initializes the terminal. Close must be called before the process
// writes to stdout again.
func New(cfg *config.Config, path string) (*UI, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, fmt.Errorf("open terminal: %w", err)
	}
	if err := screen.Init(); err != nil {
		return nil, fmt.Errorf("init terminal: %w", err)
	}
	return &UI{screen: screen, cfg: cfg, path: path, fields: Fields()}, nil
}

func (u *UI) Close() {
	u.screen.Fini()
}

// RunMenu drives the config editor until the user starts a sync or quits.
func (u *UI) RunMenu() (MenuResult, error) {
	for {
		u.drawMenu()
		switch ev := u.screen.PollEvent().(type) {
		case *tcell.EventResize:
			u.screen.Sync()
		case *tcell.EventKey:
			if u.editing {
				u.handleEditKey(ev)
				continue
			}
			switch {
			case ev.Key() == tcell.KeyUp:
				if u.selected > 0 {
					u.selected--
				}
			case ev.Key() == tcell.KeyDown:
				if u.selected < len(u.fields) {
					u.selected++
				}
			case ev.Key() == tcell.KeyEnter:
				if u.selected == len(u.fields) {
					if err := u.saveConfig(); err != nil {
						continue
					}
					return MenuStartSync, nil
				}
				u.editing = true
				u.input = u.fields[u.selected].Get(u.cfg)
				u.notice = ""
			case ev.Rune() == 's' || ev.Rune() == 'S':
				if err := u.saveConfig(); err != nil {
					continue
				}
				return MenuStartSync, nil
			case ev.Key() == tcell.KeyEscape, ev.Rune() == 'q', ev.Rune() == 'Q':
				return MenuQuit, nil
			}
		}
	}
}

func (u *UI) saveConfig() error {
	*u.cfg = u.cfg.Normalize()
	if err := config.Save(u.path, *u.cfg); err != nil {
		u.notice = "save failed: " + err.Error()
		u.noticeBad = true
		return err
	}
	return nil
}

func (u *UI) handleEditKey(ev *tcell.EventKey) {
	switch {
	case ev.Key() == tcell.KeyEnter:
		// A failed parse keeps the old value and shows the reason; the
		// user can see exactly what was rejected.
		if err := u.fields[u.selected].Set(u.cfg, u.input); err != nil {
			u.notice = err.Error()
			u.noticeBad = true
		} else {
			u.notice = ""
			u.noticeBad = false
		}
		u.editing = false
	case ev.Key() == tcell.KeyEscape:
		u.editing = false
		u.notice = ""
	case ev.Key() == tcell.KeyBackspace, ev.Key() == tcell.KeyBackspace2:
		if len(u.input) > 0 {
			u.input = u.input[:len(u.input)-1]
		}
	default:
		if r := ev.Rune(); strconv.IsPrint(r) {
			u.input += string(r)
		}
	}
}

func (u *UI) drawMenu() {
	u.screen.Clear()
	u.drawText(1, 0, styleTitle, "glowsync configuration")
	u.drawText(1, 1, styleDim, "up/down select, enter edit, s save+sync, q quit")

	for i, f := range u.fields {
		style := styleDefault
		if i == u.selected && !u.editing {
			style = styleSelected
		}
		line := fmt.Sprintf("%-26s %s", f.Name, f.Get(u.cfg))
		if i == u.selected && u.editing {
			line = fmt.Sprintf("%-26s %s_", f.Name, u.input)
			style = styleSelected
		}
		u.drawText(1, 3+i, style, line)
	}
	saveStyle := styleDefault
	if u.selected == len(u.fields) {
		saveStyle = styleSelected
	}
	u.drawText(1, 4+len(u.fields), saveStyle, "[ Save and Sync ]")

	if u.selected < len(u.fields) {
		u.drawText(1, 6+len(u.fields), styleDim, u.fields[u.selected].Desc)
	}
	if u.notice != "" {
		style := styleDim
		if u.noticeBad {
			style = styleError
		}
		u.drawText(1, 7+len(u.fields), style, u.notice)
	}
	u.screen.Show()
}

// RunSync shows the live zone colors until the user backs out or ctx ends.
// A cancelled ctx (the session died on its own) drops back to the menu.
func (u *UI) RunSync(ctx context.Context, status func() engine.Status) SyncResult {
	events := make(chan tcell.Event, 16)
	quit := make(chan struct{})
	go u.screen.ChannelEvents(events, quit)
	defer close(quit)

	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return SyncBackToMenu
		case <-ticker.C:
			u.drawSync(status())
		case ev, ok := <-events:
			if !ok {
				return SyncQuit
			}
			switch ev := ev.(type) {
			case *tcell.EventResize:
				u.screen.Sync()
			case *tcell.EventKey:
				switch {
				case ev.Rune() == 'q', ev.Rune() == 'Q', ev.Key() == tcell.KeyCtrlC:
					return SyncQuit
				case ev.Rune() == 'm', ev.Rune() == 'M', ev.Key() == tcell.KeyEscape:
					return SyncBackToMenu
				}
			}
		}
	}
}

func (u *UI) drawSync(st engine.Status) {
	u.screen.Clear()
	u.drawText(1, 0, styleTitle, "glowsync running")
	u.drawText(1, 1, styleDim, fmt.Sprintf("frames %d   m menu, q quit", st.FrameCount))

	for i, c := range st.Colors {
		swatch := tcell.StyleDefault.Background(tcell.NewRGBColor(int32(c.R), int32(c.G), int32(c.B)))
		u.drawText(1, 3+i, styleDefault, fmt.Sprintf("zone %2d ", i))
		for x := 0; x < 16; x++ {
			u.screen.SetContent(10+x, 3+i, ' ', nil, swatch)
		}
		u.drawText(28, 3+i, styleDim, fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B))
	}
	u.screen.Show()
}

func (u *UI) drawText(x, y int, style tcell.Style, text string) {
	for i, r := range text {
		u.screen.SetContent(x+i, y, r, nil, style)
	}
}
