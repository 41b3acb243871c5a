package tui

import (
	"fmt"
	"io"
	"sort"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"masklink/backend/storage"
)

// App is the terminal surface. It starts on a streaming log view and swaps
// to a sender table, sorted by host, once the single-use result channel
// delivers. 'q' or Escape quits at any point; arrow keys move the table
// selection.
type App struct {
	app     *tview.Application
	pages   *tview.Pages
	logView *tview.TextView
	table   *tview.Table
	results <-chan []storage.Sender
}

func New(results <-chan []storage.Sender) *App {
	a := &App{
		app:     tview.NewApplication(),
		pages:   tview.NewPages(),
		logView: tview.NewTextView(),
		table:   tview.NewTable(),
		results: results,
	}

	a.logView.SetScrollable(true).ScrollToEnd()
	a.logView.SetChangedFunc(func() { a.app.Draw() })
	a.logView.SetBorder(true)
	a.logView.SetTitle("Logs")

	a.table.SetSelectable(true, false)
	a.table.SetFixed(1, 0)
	a.table.SetBorder(true)

	a.pages.AddPage("logs", a.logView, true, true)
	a.pages.AddPage("results", a.table, true, false)

	a.app.SetRoot(a.pages, true)
	a.app.SetInputCapture(func(ev *tcell.EventKey) *tcell.EventKey {
		if ev.Rune() == 'q' || ev.Key() == tcell.KeyEscape {
			a.app.Stop()
			return nil
		}
		return ev
	})
	return a
}

// LogWriter returns the writer the run's log should be mirrored to. Safe
// for concurrent use.
func (a *App) LogWriter() io.Writer {
	return a.logView
}

// Run blocks until the user quits. The result set is awaited in the
// background so the input loop never stalls.
func (a *App) Run() error {
	go func() {
		senders, ok := <-a.results
		if !ok {
			return
		}
		a.app.QueueUpdateDraw(func() {
			a.populate(senders)
			a.pages.SwitchToPage("results")
		})
	}()
	return a.app.Run()
}

func (a *App) populate(senders []storage.Sender) {
	sort.SliceStable(senders, func(i, j int) bool {
		return senders[i].Mask.Host.Raw < senders[j].Mask.Host.Raw
	})

	a.table.SetTitle(fmt.Sprintf("%d query results", len(senders)))
	for col, name := range []string{"Nick", "Ident", "Host", "Realname"} {
		a.table.SetCell(0, col, tview.NewTableCell(name).
			SetAttributes(tcell.AttrBold).
			SetSelectable(false).
			SetExpansion(1))
	}
	for row, s := range senders {
		a.table.SetCell(row+1, 0, tview.NewTableCell(string(s.Mask.Nick)).SetExpansion(1))
		a.table.SetCell(row+1, 1, tview.NewTableCell(string(s.Mask.Ident)).SetExpansion(1))
		a.table.SetCell(row+1, 2, tview.NewTableCell(s.Mask.Host.Raw).SetExpansion(1))
		a.table.SetCell(row+1, 3, tview.NewTableCell(s.Realname).SetExpansion(1))
	}
	if len(senders) > 0 {
		a.table.Select(1, 0)
	}
}
