package busdialog

import (
	"context"
	"fmt"
	"image/color"
	"log"
	"slices"
	"strings"

	"gioui.org/app"
	"gioui.org/layout"
	"gioui.org/op"
	"gioui.org/op/clip"
	"gioui.org/op/paint"
	"gioui.org/unit"
	"gioui.org/widget"
	"gioui.org/widget/material"
	"github.com/oligo/gioview/menu"
	"github.com/oligo/gioview/theme"
	"github.com/sqweek/dialog"
	"golang.org/x/exp/shiny/materialdesign/icons"

	"github.com/OpenTraceLab/OpenTraceVLSI/internal/ui"
	"github.com/OpenTraceLab/OpenTraceVLSI/pkg/circuit"
	"github.com/OpenTraceLab/OpenTraceVLSI/pkg/job"
	"github.com/OpenTraceLab/OpenTraceVLSI/pkg/library"
)

// App drives the bus parameter dialog window.
type App struct {
	window *app.Window
	ops    op.Ops

	gvTheme *theme.Theme
	state   *ui.AppState
	config  *ui.Config

	db     *circuit.Database
	queue  *job.Queue
	repo   *library.Repository
	editor *ui.ParamEditor

	// Functions queued by background goroutines, run on the frame loop.
	pending chan func()

	libraryMenu    *menu.DropdownMenu
	libraryMenuBtn widget.Clickable
	menuLibraries  []string

	entryList   widget.List
	entryClicks []widget.Clickable
	selected    int

	nameEditor    widget.Editor
	valueEditor   widget.Editor
	previewEditor widget.Editor

	newBtn       widget.Clickable
	updateBtn    widget.Clickable
	deleteBtn    widget.Clickable
	revertBtn    widget.Clickable
	applyBtn     widget.Clickable
	updateAllBtn widget.Clickable
	openBtn      widget.Clickable

	updateOnApply  widget.Bool
	darkModeSwitch widget.Bool
	onlyTemplated  widget.Bool

	addIcon    *widget.Icon
	editIcon   *widget.Icon
	deleteIcon *widget.Icon
	openIcon   *widget.Icon

	cellList widget.List
	logList  widget.List
}

// New creates the dialog for w.
func New(w *app.Window, state *ui.AppState, opts Options) *App {
	if state == nil {
		state = ui.NewState()
	}
	cfg := opts.Config
	if cfg == nil {
		cfg = ui.DefaultConfig()
	}

	a := &App{
		window:   w,
		gvTheme:  theme.NewTheme("", nil, true),
		state:    state,
		config:   cfg,
		db:       opts.DB,
		queue:    opts.Queue,
		repo:     opts.Repo,
		pending:  make(chan func(), 16),
		selected: -1,
	}
	state.SetInvalidate(a.invalidate)

	var saver ui.Saver
	if opts.Repo != nil {
		saver = opts.Repo
	}
	a.editor = ui.NewParamEditor(opts.DB, opts.Queue, saver, state, cfg.LastLibrary)

	a.nameEditor.SingleLine = true
	a.valueEditor.SingleLine = true
	a.previewEditor.SingleLine = true
	a.entryList.Axis = layout.Vertical
	a.cellList.Axis = layout.Vertical
	a.logList.Axis = layout.Vertical
	a.logList.ScrollToEnd = true

	a.updateOnApply.Value = cfg.UpdateAllOnApply
	a.darkModeSwitch.Value = cfg.DarkMode
	a.onlyTemplated.Value = cfg.Cells.OnlyWithTemplates

	if icon, err := widget.NewIcon(icons.ContentAdd); err == nil {
		a.addIcon = icon
	}
	if icon, err := widget.NewIcon(icons.EditorModeEdit); err == nil {
		a.editIcon = icon
	}
	if icon, err := widget.NewIcon(icons.ActionDelete); err == nil {
		a.deleteIcon = icon
	}
	if icon, err := widget.NewIcon(icons.FileFolderOpen); err == nil {
		a.openIcon = icon
	}

	a.applyPalette()
	a.rebuildLibraryMenu()
	state.Printf("[INFO] Editing bus parameters of %s", a.editor.Library())
	return a
}

// Run blocks processing window events until the window closes.
func (a *App) Run() error {
	for {
		e := a.window.Event()
		switch ev := e.(type) {
		case app.DestroyEvent:
			a.close()
			return ev.Err
		case app.FrameEvent:
			gtx := app.NewContext(&a.ops, ev)
			a.drainPending()
			a.handleEvents(gtx)
			a.layout(gtx)
			ev.Frame(gtx.Ops)
		}
	}
}

func (a *App) drainPending() {
	for {
		select {
		case fn := <-a.pending:
			fn()
		default:
			return
		}
	}
}

func (a *App) handleEvents(gtx layout.Context) {
	entries := a.editor.Entries()
	if len(a.entryClicks) != len(entries) {
		a.entryClicks = make([]widget.Clickable, len(entries))
	}
	for i := range a.entryClicks {
		if a.entryClicks[i].Clicked(gtx) {
			a.selectEntry(i)
		}
	}

	name := strings.TrimSpace(a.nameEditor.Text())
	value := a.valueEditor.Text()
	if a.newBtn.Clicked(gtx) {
		a.edit(a.editor.New(name, value), "Created %s", name)
	}
	if a.updateBtn.Clicked(gtx) {
		a.edit(a.editor.Update(name, value), "Updated %s", name)
	}
	if a.deleteBtn.Clicked(gtx) {
		if a.edit(a.editor.Delete(name), "Deleted %s", name) {
			a.nameEditor.SetText("")
			a.valueEditor.SetText("")
		}
	}
	if a.revertBtn.Clicked(gtx) {
		a.revert()
	}
	if a.applyBtn.Clicked(gtx) {
		a.submit("Applying", a.editor.Apply(context.Background(), a.updateOnApply.Value, false))
	}
	if a.updateAllBtn.Clicked(gtx) {
		a.submit("Updating all templates", a.editor.UpdateAll(context.Background(), false))
	}
	if a.openBtn.Clicked(gtx) {
		a.openLibrary(a.editor.Dirty())
	}

	if a.updateOnApply.Update(gtx) {
		a.config.UpdateAllOnApply = a.updateOnApply.Value
	}
	if a.darkModeSwitch.Update(gtx) {
		a.config.DarkMode = a.darkModeSwitch.Value
		a.applyPalette()
	}
	if a.onlyTemplated.Update(gtx) {
		a.config.Cells.OnlyWithTemplates = a.onlyTemplated.Value
	}
}

// edit reports the outcome of a session edit and returns whether it worked.
func (a *App) edit(err error, format, name string) bool {
	if err != nil {
		a.state.SetError(err)
		a.state.Printf("[ERROR] %v", err)
		return false
	}
	a.selected = -1
	a.state.SetStatus(fmt.Sprintf(format, name) + " (not applied)")
	return true
}

func (a *App) submit(what string, err error) {
	if err != nil {
		a.state.SetError(err)
		a.state.Printf("[ERROR] %s: %v", what, err)
		return
	}
	a.state.SetError(nil)
	a.state.SetBusy(true)
	a.state.SetStatus(what + "...")
	done := job.Func{
		Label: "status",
		Fn: func(context.Context, *circuit.Database) error {
			a.state.SetBusy(false)
			a.state.SetStatus("Ready")
			return nil
		},
	}
	if err := a.queue.Submit(context.Background(), done, false); err != nil {
		a.state.SetBusy(false)
		a.state.SetError(err)
	}
}

func (a *App) selectEntry(i int) {
	name, value, ok := a.editor.Entry(i)
	if !ok {
		return
	}
	a.selected = i
	a.nameEditor.SetText(name)
	a.valueEditor.SetText(value)
}

func (a *App) selectLibrary(name string) {
	if err := a.editor.SelectLibrary(name); err != nil {
		a.state.SetError(err)
		return
	}
	a.selected = -1
	a.nameEditor.SetText("")
	a.valueEditor.SetText("")
	a.state.SetStatus("Editing " + name)
}

func (a *App) revert() {
	if a.editor.Dirty() && !confirmDiscard() {
		return
	}
	a.editor.Reload(a.editor.Library())
	a.selected = -1
	a.state.Printf("[INFO] Reverted unapplied changes")
}

// openLibrary asks for a .vlib file and loads it through the job queue so
// it never races with running updates.
func (a *App) openLibrary(dirty bool) {
	if a.repo == nil {
		a.state.Printf("[ERROR] No library repository attached")
		return
	}
	go func() {
		if dirty && !confirmDiscard() {
			return
		}
		path, err := dialog.File().Filter("VLSI library", "vlib").Title("Open library").Load()
		if err != nil {
			if err != dialog.ErrCancelled {
				a.state.Printf("[ERROR] File picker failed: %v", err)
			}
			return
		}

		load := job.Func{
			Label: "load " + path,
			Fn: func(ctx context.Context, db *circuit.Database) error {
				return a.repo.LoadFiles(db, path)
			},
		}
		if err := a.queue.Submit(context.Background(), load, true); err != nil {
			a.state.SetError(err)
			a.state.Printf("[ERROR] %v", err)
			return
		}
		a.state.Printf("[INFO] Loaded %s", path)
		a.pending <- func() {
			a.editor.Reload(a.editor.Library())
			a.selected = -1
		}
		a.invalidate()
	}()
}

// close runs when the window is destroyed. The window cannot be kept open,
// so unapplied edits are offered for applying instead of discarding. It
// blocks until queued work, including library saves, has finished.
func (a *App) close() {
	apply := a.editor.Dirty() && confirmApply()
	if err := a.editor.Close(context.Background(), apply, a.updateOnApply.Value); err != nil {
		a.state.Printf("[ERROR] Closing: %v", err)
		log.Printf("busdialog: %v", err)
	}
	a.saveConfig()
}

func confirmApply() bool {
	return dialog.Message("%s", "Apply bus parameter changes before closing?").
		Title("Bus Parameters").
		YesNo()
}

func confirmDiscard() bool {
	return dialog.Message("%s", "Discard bus parameter changes that were not applied?").
		Title("Bus Parameters").
		YesNo()
}

func (a *App) saveConfig() {
	a.config.LastLibrary = a.editor.Library()
	if err := ui.SaveConfig(a.config); err != nil {
		a.state.Printf("[ERROR] Saving config failed: %v", err)
	}
}

func (a *App) layout(gtx layout.Context) layout.Dimensions {
	paint.FillShape(gtx.Ops, a.gvTheme.Palette.Bg, clip.Rect{Max: gtx.Constraints.Max}.Op())

	return layout.Flex{Axis: layout.Vertical}.Layout(gtx,
		layout.Rigid(a.layoutHeader),
		layout.Flexed(1, a.layoutBody),
		layout.Rigid(a.layoutLogPane),
		layout.Rigid(a.layoutStatusBar),
	)
}

func (a *App) layoutHeader(gtx layout.Context) layout.Dimensions {
	th := a.gvTheme.Theme
	return layout.UniformInset(unit.Dp(12)).Layout(gtx, func(gtx layout.Context) layout.Dimensions {
		return layout.Flex{Axis: layout.Horizontal, Alignment: layout.Middle}.Layout(gtx,
			layout.Rigid(material.Body1(th, "Library:").Layout),
			layout.Rigid(layout.Spacer{Width: unit.Dp(8)}.Layout),
			layout.Rigid(func(gtx layout.Context) layout.Dimensions {
				a.rebuildLibraryMenu()
				if a.libraryMenu != nil && a.libraryMenuBtn.Clicked(gtx) {
					a.libraryMenu.ToggleVisibility(gtx)
				}
				label := a.editor.Library()
				if label == "" {
					label = "No libraries"
				}
				dims := material.Button(th, &a.libraryMenuBtn, label).Layout(gtx)
				if a.libraryMenu != nil {
					a.libraryMenu.Layout(gtx, a.gvTheme)
				}
				return dims
			}),
			layout.Rigid(layout.Spacer{Width: unit.Dp(8)}.Layout),
			layout.Rigid(func(gtx layout.Context) layout.Dimensions {
				return a.iconButton(gtx, &a.openBtn, a.openIcon, "Open library")
			}),
			layout.Flexed(1, func(gtx layout.Context) layout.Dimensions { return layout.Dimensions{} }),
			layout.Rigid(material.Switch(th, &a.darkModeSwitch, "Dark mode").Layout),
			layout.Rigid(layout.Spacer{Width: unit.Dp(4)}.Layout),
			layout.Rigid(material.Body2(th, "Dark").Layout),
		)
	})
}

func (a *App) layoutBody(gtx layout.Context) layout.Dimensions {
	return layout.Inset{Left: unit.Dp(12), Right: unit.Dp(12)}.Layout(gtx, func(gtx layout.Context) layout.Dimensions {
		return layout.Flex{Axis: layout.Horizontal}.Layout(gtx,
			layout.Flexed(0.35, a.layoutEntries),
			layout.Rigid(layout.Spacer{Width: unit.Dp(12)}.Layout),
			layout.Flexed(0.4, a.layoutEditor),
			layout.Rigid(layout.Spacer{Width: unit.Dp(12)}.Layout),
			layout.Flexed(0.25, a.layoutCells),
		)
	})
}

func (a *App) layoutEntries(gtx layout.Context) layout.Dimensions {
	th := a.gvTheme.Theme
	entries := a.editor.Entries()
	return a.card(gtx, func(gtx layout.Context) layout.Dimensions {
		if len(entries) == 0 {
			return material.Body2(th, "No bus parameters in this library.").Layout(gtx)
		}
		return material.List(th, &a.entryList).Layout(gtx, len(entries), func(gtx layout.Context, i int) layout.Dimensions {
			if i >= len(a.entryClicks) {
				return layout.Dimensions{}
			}
			return material.Clickable(gtx, &a.entryClicks[i], func(gtx layout.Context) layout.Dimensions {
				lbl := material.Body2(th, entries[i])
				if i == a.selected {
					lbl.Color = a.gvTheme.Palette.ContrastBg
				}
				return layout.UniformInset(unit.Dp(4)).Layout(gtx, lbl.Layout)
			})
		})
	})
}

func (a *App) layoutEditor(gtx layout.Context) layout.Dimensions {
	th := a.gvTheme.Theme
	preview := a.previewEditor.Text()
	resolved, err := a.editor.Preview(preview)
	result := "Resolves to: " + resolved
	if err != nil {
		result += " (" + err.Error() + ")"
	}

	return a.card(gtx, func(gtx layout.Context) layout.Dimensions {
		return layout.Flex{Axis: layout.Vertical}.Layout(gtx,
			layout.Rigid(material.Caption(th, "Name").Layout),
			layout.Rigid(a.field(&a.nameEditor, "width")),
			layout.Rigid(layout.Spacer{Height: unit.Dp(8)}.Layout),
			layout.Rigid(material.Caption(th, "Value").Layout),
			layout.Rigid(a.field(&a.valueEditor, "8")),
			layout.Rigid(layout.Spacer{Height: unit.Dp(8)}.Layout),
			layout.Rigid(func(gtx layout.Context) layout.Dimensions {
				return layout.Flex{Axis: layout.Horizontal}.Layout(gtx,
					layout.Rigid(func(gtx layout.Context) layout.Dimensions {
						return a.iconButton(gtx, &a.newBtn, a.addIcon, "New")
					}),
					layout.Rigid(layout.Spacer{Width: unit.Dp(8)}.Layout),
					layout.Rigid(func(gtx layout.Context) layout.Dimensions {
						return a.iconButton(gtx, &a.updateBtn, a.editIcon, "Update")
					}),
					layout.Rigid(layout.Spacer{Width: unit.Dp(8)}.Layout),
					layout.Rigid(func(gtx layout.Context) layout.Dimensions {
						return a.iconButton(gtx, &a.deleteBtn, a.deleteIcon, "Delete")
					}),
				)
			}),
			layout.Rigid(layout.Spacer{Height: unit.Dp(16)}.Layout),
			layout.Rigid(material.Caption(th, "Try a template").Layout),
			layout.Rigid(a.field(&a.previewEditor, "d[$(width)-1:0]")),
			layout.Rigid(material.Body2(th, result).Layout),
			layout.Rigid(layout.Spacer{Height: unit.Dp(16)}.Layout),
			layout.Rigid(material.CheckBox(th, &a.updateOnApply, "Update all templates on apply").Layout),
			layout.Rigid(layout.Spacer{Height: unit.Dp(8)}.Layout),
			layout.Rigid(func(gtx layout.Context) layout.Dimensions {
				return layout.Flex{Axis: layout.Horizontal}.Layout(gtx,
					layout.Rigid(material.Button(th, &a.revertBtn, "Revert").Layout),
					layout.Rigid(layout.Spacer{Width: unit.Dp(8)}.Layout),
					layout.Rigid(material.Button(th, &a.applyBtn, "Apply").Layout),
					layout.Rigid(layout.Spacer{Width: unit.Dp(8)}.Layout),
					layout.Rigid(material.Button(th, &a.updateAllBtn, "Update All").Layout),
				)
			}),
		)
	})
}

func (a *App) layoutCells(gtx layout.Context) layout.Dimensions {
	th := a.gvTheme.Theme
	cells, err := a.db.ListCells(a.config.Cells)
	return a.card(gtx, func(gtx layout.Context) layout.Dimensions {
		return layout.Flex{Axis: layout.Vertical}.Layout(gtx,
			layout.Rigid(material.Caption(th, "Cells").Layout),
			layout.Rigid(material.CheckBox(th, &a.onlyTemplated, "Only with templates").Layout),
			layout.Flexed(1, func(gtx layout.Context) layout.Dimensions {
				if err != nil {
					return material.Body2(th, err.Error()).Layout(gtx)
				}
				return material.List(th, &a.cellList).Layout(gtx, len(cells), func(gtx layout.Context, i int) layout.Dimensions {
					c := cells[i]
					text := fmt.Sprintf("%s:%s  %d/%d", c.Library, c.Name, c.Templates, c.Elements)
					return layout.UniformInset(unit.Dp(2)).Layout(gtx, material.Body2(th, text).Layout)
				})
			}),
		)
	})
}

func (a *App) layoutLogPane(gtx layout.Context) layout.Dimensions {
	snap := a.state.Snapshot()
	h := gtx.Dp(unit.Dp(140))
	gtx.Constraints.Min.Y = h
	gtx.Constraints.Max.Y = h
	paint.FillShape(gtx.Ops, a.gvTheme.Bg2, clip.Rect{Max: gtx.Constraints.Max}.Op())

	return layout.Inset{Left: unit.Dp(16), Right: unit.Dp(16), Top: unit.Dp(6), Bottom: unit.Dp(6)}.Layout(gtx, func(gtx layout.Context) layout.Dimensions {
		gtx.Constraints.Min = gtx.Constraints.Max
		return material.List(a.gvTheme.Theme, &a.logList).Layout(gtx, len(snap.Logs), func(gtx layout.Context, i int) layout.Dimensions {
			return material.Caption(a.gvTheme.Theme, snap.Logs[i]).Layout(gtx)
		})
	})
}

func (a *App) layoutStatusBar(gtx layout.Context) layout.Dimensions {
	th := a.gvTheme.Theme
	snap := a.state.Snapshot()
	msg := snap.Status
	if a.editor.Dirty() {
		msg += "  [unapplied changes]"
	}
	lbl := material.Body2(th, msg)
	if snap.LastError != nil && !snap.Busy {
		lbl.Color = errorColor
	}
	inset := layout.Inset{Left: unit.Dp(16), Right: unit.Dp(16), Top: unit.Dp(8), Bottom: unit.Dp(8)}
	return inset.Layout(gtx, func(gtx layout.Context) layout.Dimensions {
		return layout.Flex{Axis: layout.Horizontal, Alignment: layout.Middle}.Layout(gtx,
			layout.Rigid(func(gtx layout.Context) layout.Dimensions {
				if !snap.Busy {
					return layout.Dimensions{}
				}
				size := gtx.Dp(unit.Dp(14))
				gtx.Constraints.Min.X, gtx.Constraints.Max.X = size, size
				gtx.Constraints.Min.Y, gtx.Constraints.Max.Y = size, size
				return material.Loader(th).Layout(gtx)
			}),
			layout.Rigid(func(gtx layout.Context) layout.Dimensions {
				if !snap.Busy {
					return layout.Dimensions{}
				}
				return layout.Spacer{Width: unit.Dp(8)}.Layout(gtx)
			}),
			layout.Rigid(lbl.Layout),
		)
	})
}

var errorColor = color.NRGBA{R: 200, G: 40, B: 40, A: 255}

func (a *App) card(gtx layout.Context, w layout.Widget) layout.Dimensions {
	border := widget.Border{Color: a.gvTheme.Bg2, CornerRadius: unit.Dp(6), Width: unit.Dp(1)}
	return border.Layout(gtx, func(gtx layout.Context) layout.Dimensions {
		return layout.UniformInset(unit.Dp(8)).Layout(gtx, w)
	})
}

func (a *App) field(ed *widget.Editor, hint string) layout.Widget {
	return func(gtx layout.Context) layout.Dimensions {
		border := widget.Border{Color: a.gvTheme.Bg2, CornerRadius: unit.Dp(4), Width: unit.Dp(1)}
		return border.Layout(gtx, func(gtx layout.Context) layout.Dimensions {
			return layout.UniformInset(unit.Dp(6)).Layout(gtx, material.Editor(a.gvTheme.Theme, ed, hint).Layout)
		})
	}
}

func (a *App) iconButton(gtx layout.Context, btn *widget.Clickable, icon *widget.Icon, label string) layout.Dimensions {
	if icon == nil {
		return material.Button(a.gvTheme.Theme, btn, label).Layout(gtx)
	}
	return material.IconButton(a.gvTheme.Theme, btn, icon, label).Layout(gtx)
}

func (a *App) rebuildLibraryMenu() {
	libs := a.editor.Libraries()
	if a.libraryMenu != nil && slices.Equal(libs, a.menuLibraries) {
		return
	}
	a.menuLibraries = libs
	if len(libs) == 0 {
		a.libraryMenu = nil
		return
	}
	opts := make([]menu.MenuOption, 0, len(libs))
	for _, name := range libs {
		label := name
		opts = append(opts, menu.MenuOption{
			OnClicked: func() error {
				a.selectLibrary(label)
				return nil
			},
			Layout: func(gtx menu.C, th *theme.Theme) menu.D {
				lbl := material.Body1(th.Theme, label)
				if label == a.editor.Library() {
					lbl.Color = th.Palette.ContrastBg
				}
				return layout.Inset{Left: unit.Dp(4), Right: unit.Dp(4)}.Layout(gtx, lbl.Layout)
			},
		})
	}
	drop := menu.NewDropdownMenu([][]menu.MenuOption{opts})
	drop.MaxWidth = unit.Dp(260)
	a.libraryMenu = drop
}

func (a *App) applyPalette() {
	if a.gvTheme == nil {
		return
	}
	if a.config.DarkMode {
		a.gvTheme.WithPalette(theme.Palette{
			Bg:         color.NRGBA{R: 18, G: 20, B: 26, A: 255},
			Fg:         color.NRGBA{R: 233, G: 236, B: 245, A: 255},
			ContrastBg: color.NRGBA{R: 120, G: 150, B: 255, A: 255},
			ContrastFg: color.NRGBA{R: 12, G: 16, B: 24, A: 255},
			Bg2:        color.NRGBA{R: 34, G: 40, B: 50, A: 255},
		})
	} else {
		a.gvTheme.WithPalette(theme.Palette{
			Bg:         color.NRGBA{R: 245, G: 247, B: 253, A: 255},
			Fg:         color.NRGBA{R: 34, G: 37, B: 49, A: 255},
			ContrastBg: color.NRGBA{R: 80, G: 120, B: 255, A: 255},
			ContrastFg: color.NRGBA{R: 255, G: 255, B: 255, A: 255},
			Bg2:        color.NRGBA{R: 225, G: 230, B: 244, A: 255},
		})
	}
}

func (a *App) invalidate() {
	if a.window != nil {
		a.window.Invalidate()
	}
}
