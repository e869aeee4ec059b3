// Package tui is the terminal chat client. It talks to the profile's daemon
// over the API client and redraws on the daemon's event stream.
package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/matheus3301/huddle/internal/api"
	"github.com/matheus3301/huddle/internal/readstate"
	"github.com/matheus3301/huddle/internal/tui/keys"
	"github.com/matheus3301/huddle/internal/tui/model"
	"github.com/matheus3301/huddle/internal/tui/ui"
	"github.com/matheus3301/huddle/internal/tui/views"
	"github.com/rivo/tview"
)

// Page keys.
const (
	pageChats   = "chats"
	pageThread  = "thread"
	pageDetails = "details"
	pageHelp    = "help"
)

const (
	callTimeout     = 5 * time.Second
	refreshInterval = 5 * time.Second
	watchRetry      = 2 * time.Second
)

// App is the main TUI application shell.
type App struct {
	app      *tview.Application
	theme    *ui.Theme
	client   *api.Client
	vm       *model.ViewModel
	registry *keys.Registry

	body     *tview.Flex
	pages    *ui.Pages
	prompt   *ui.Prompt
	menu     *ui.Menu
	crumbs   *ui.Crumbs
	flash    *ui.FlashModel
	flashBar *ui.FlashBar
	info     *ui.ProfileInfo
	logo     *ui.Logo

	chatList *views.ConversationList
	thread   *views.MessageThread
	details  *views.ConversationInfo
	help     *views.HelpView

	ctx    context.Context
	cancel context.CancelFunc
}

// NewApp creates the TUI application.
func NewApp(c *api.Client) *App {
	theme := ui.DefaultTheme()
	theme.Apply()

	ctx, cancel := context.WithCancel(context.Background())
	a := &App{
		app:      tview.NewApplication(),
		theme:    theme,
		client:   c,
		vm:       model.NewViewModel(c),
		registry: keys.NewRegistry(),
		pages:    ui.NewPages(),
		prompt:   ui.NewPrompt(theme),
		menu:     ui.NewMenu(theme),
		crumbs:   ui.NewCrumbs(theme),
		flash:    ui.NewFlashModel(),
		flashBar: ui.NewFlashBar(theme),
		info:     ui.NewProfileInfo(theme),
		logo:     ui.NewLogo(theme),
		chatList: views.NewConversationList(theme),
		thread:   views.NewMessageThread(theme),
		details:  views.NewConversationInfo(theme),
		help:     views.NewHelpView(theme),
		ctx:      ctx,
		cancel:   cancel,
	}

	a.setupPages()
	a.setupCallbacks()
	a.setupBindings()
	a.setupLayout()
	a.pages.Reset(pageChats)

	return a
}

func (a *App) setupPages() {
	a.pages.Register(pageChats, a.chatList)
	a.pages.Register(pageThread, a.thread)
	a.pages.Register(pageDetails, a.details)
	a.pages.Register(pageHelp, a.help)
	a.pages.SetOnChange(func(top ui.Page, labels []string) {
		a.crumbs.Update(labels)
		if top != nil {
			a.menu.Update(top.Hints())
			a.app.SetFocus(top)
		}
	})
}

func (a *App) setupCallbacks() {
	a.chatList.SetSelectedFunc(func(row, _ int) {
		if id := a.chatList.ChatByIndex(row); id != "" {
			a.openChat(id)
		}
	})

	a.thread.SetOnSend(func(text string) {
		a.async(func(ctx context.Context) error {
			return a.vm.Send(ctx, text)
		})
	})

	a.prompt.SetOnChange(func(mode ui.PromptMode, text string) {
		if mode == ui.PromptFilter {
			a.vm.SetFilter(text)
			a.renderChats()
		}
	})
	a.prompt.SetOnSubmit(func(mode ui.PromptMode, text string) {
		a.hidePrompt()
		switch mode {
		case ui.PromptFilter:
			a.vm.SetFilter(text)
			a.renderChats()
		case ui.PromptCommand:
			a.runCommand(ParseCommand(text))
		}
	})
	a.prompt.SetOnCancel(func() {
		if a.prompt.Mode() == ui.PromptFilter {
			a.vm.SetFilter("")
			a.renderChats()
		}
		a.hidePrompt()
	})
}

func (a *App) setupBindings() {
	a.registry.AddGlobal(keys.Rune(':', "Command", func() { a.showPrompt(ui.PromptCommand, "") }))
	a.registry.AddGlobal(keys.Rune('?', "Help", func() { a.pages.Push(pageHelp) }))
	a.registry.AddGlobal(keys.Rune('q', "Quit / Back", a.back))
	a.registry.AddGlobal(keys.Key(tcell.KeyEscape, "Back", a.pop))

	a.registry.AddView(pageChats, keys.Rune('/', "Filter", func() {
		a.showPrompt(ui.PromptFilter, a.vm.Filter())
	}))
	a.registry.AddView(pageChats, keys.Rune('r', "Reload", a.reload))
	a.registry.AddView(pageChats, keys.Rune('0', "Clear filter", func() {
		a.vm.SetFilter("")
		a.renderChats()
	}))
	for n := 1; n <= 9; n++ {
		a.registry.AddView(pageChats, keys.Rune(rune('0'+n), "Jump", func() {
			if id := a.chatList.ChatByIndex(n); id != "" {
				a.openChat(id)
			}
		}))
	}

	a.registry.AddView(pageThread, keys.Rune('i', "Compose", func() {
		a.app.SetFocus(a.thread.Composer())
	}))
	a.registry.AddView(pageThread, keys.Rune('d', "Details", func() {
		a.pages.Push(pageDetails)
	}))
}

func (a *App) setupLayout() {
	header := tview.NewFlex().
		SetDirection(tview.FlexColumn).
		AddItem(a.info, 0, 2, false).
		AddItem(a.menu, 0, 3, false).
		AddItem(a.logo, 30, 0, false)

	a.body = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(header, 7, 0, false).
		AddItem(a.prompt, 0, 0, false).
		AddItem(a.pages, 0, 1, true).
		AddItem(a.crumbs, 1, 0, false).
		AddItem(a.flashBar, 1, 0, false)

	a.app.SetRoot(a.body, true)
	a.app.SetInputCapture(a.handleKey)
}

func (a *App) handleKey(ev *tcell.EventKey) *tcell.EventKey {
	// Text inputs own their keys. Esc leaves the composer.
	switch a.app.GetFocus() {
	case a.thread.Composer():
		if ev.Key() == tcell.KeyEscape {
			a.app.SetFocus(a.thread.Messages())
			return nil
		}
		return ev
	case a.prompt, a.prompt.InputField:
		return ev
	}

	if a.registry.HandleEvent(a.pages.Current(), ev) {
		return nil
	}
	return ev
}

func (a *App) back() {
	if a.pages.Depth() > 1 {
		a.pop()
		return
	}
	a.Stop()
}

// pop leaves the top page. Leaving the thread closes the conversation, so
// later messages count as unread again.
func (a *App) pop() {
	if a.pages.Pop() == pageThread {
		a.vm.Close()
	}
}

func (a *App) showPrompt(mode ui.PromptMode, text string) {
	a.prompt.Activate(mode, text)
	a.body.ResizeItem(a.prompt, 3, 0)
	a.app.SetFocus(a.prompt)
}

func (a *App) hidePrompt() {
	a.body.ResizeItem(a.prompt, 0, 0)
	if top := a.pages.Top(); top != nil {
		a.app.SetFocus(top)
	}
}

func (a *App) runCommand(cmd Command) {
	switch cmd.Name {
	case "":
	case "quit":
		a.Stop()
	case "help":
		a.pages.Push(pageHelp)
	case "reload":
		a.reload()
	case "open":
		if cmd.Args == "" {
			a.flash.Warn("usage: :open <id|title>")
			return
		}
		id := cmd.Args
		if chat, ok := a.vm.FindChat(cmd.Args); ok {
			id = chat.ConversationID
		}
		a.openChat(id)
	case "join":
		if cmd.Args == "" {
			a.flash.Warn("usage: :join <id>")
			return
		}
		id := cmd.Args
		a.async(func(ctx context.Context) error {
			if err := a.vm.Join(ctx, id); err != nil {
				return err
			}
			a.flash.Info("Joined " + id)
			return nil
		})
	default:
		a.flash.Warn(fmt.Sprintf("unknown command: %s", cmd.Name))
	}
}

func (a *App) openChat(id string) {
	go func() {
		ctx, cancel := context.WithTimeout(a.ctx, callTimeout)
		defer cancel()
		if err := a.vm.Open(ctx, id); err != nil {
			a.flash.Err(err)
			return
		}
		a.app.QueueUpdateDraw(func() {
			title := id
			if conv := a.vm.Active(); conv != nil && conv.Title != "" {
				title = conv.Title
			}
			a.thread.SetConversation(id, title)
			a.render()
			a.pages.Push(pageThread)
		})
		// Opening resets unread; refresh the list behind the thread.
		a.refresh(false)
	}()
}

func (a *App) reload() {
	a.async(func(ctx context.Context) error {
		if err := a.vm.LoadChats(ctx); err != nil {
			return err
		}
		a.flash.Info(fmt.Sprintf("Loaded %d chats", a.vm.TotalChats()))
		return nil
	})
}

// async runs fn off the UI goroutine, flashes its error and redraws.
func (a *App) async(fn func(ctx context.Context) error) {
	go func() {
		ctx, cancel := context.WithTimeout(a.ctx, callTimeout)
		defer cancel()
		if err := fn(ctx); err != nil {
			a.flash.Err(err)
		}
		a.app.QueueUpdateDraw(a.render)
	}()
}

// refresh reloads status and chats, and the open thread if thread is set.
// The thread is reloaded read-only; only openChat marks it read.
func (a *App) refresh(thread bool) {
	ctx, cancel := context.WithTimeout(a.ctx, callTimeout)
	defer cancel()

	_ = a.vm.LoadStatus(ctx)
	if err := a.vm.LoadChats(ctx); err != nil && a.ctx.Err() == nil {
		a.flash.Err(err)
	}
	if id := a.vm.ActiveID(); thread && id != "" {
		if err := a.vm.Reload(ctx); err != nil && a.ctx.Err() == nil {
			a.flash.Err(err)
		}
	}
	a.app.QueueUpdateDraw(a.render)
}

// render copies the view model into the views. Must run on the UI goroutine.
func (a *App) render() {
	a.renderChats()
	a.info.Update(profileData(a.vm.Status()))
	if a.vm.ActiveID() != "" {
		a.thread.Update(a.vm.Messages())
		a.details.Update(a.vm.Active())
	}
	a.flashBar.Update(a.flash.GetMessage())
}

func (a *App) renderChats() {
	a.chatList.Update(a.vm.Chats(), a.vm.TotalChats(), a.vm.Filter())
}

func profileData(st *api.GetStatusResponse) *ui.ProfileData {
	if st == nil {
		return nil
	}
	return &ui.ProfileData{
		Profile:       st.Profile,
		Identity:      st.Identity,
		Status:        st.Status,
		Reason:        st.Reason,
		Conversations: st.ConversationCount,
		Messages:      st.MessageCount,
		Uptime:        time.Duration(st.UptimeMs) * time.Millisecond,
	}
}

// watch follows the daemon's event stream and refreshes on every change,
// reconnecting until the app stops.
func (a *App) watch() {
	for a.ctx.Err() == nil {
		recv, err := a.client.WatchEvents(a.ctx, "")
		if err == nil {
			err = a.follow(recv)
		}
		if a.ctx.Err() != nil {
			return
		}
		if err != nil && !errors.Is(err, io.EOF) {
			_ = a.vm.LoadStatus(a.ctx)
			a.app.QueueUpdateDraw(a.render)
		}
		select {
		case <-time.After(watchRetry):
		case <-a.ctx.Done():
			return
		}
	}
}

func (a *App) follow(recv *api.EventReceiver) error {
	for {
		evt, err := recv.Recv()
		if err != nil {
			return err
		}
		a.handleEvent(evt)
	}
}

// handleEvent refreshes after a daemon event. Only a new message in the
// open conversation refetches its thread.
func (a *App) handleEvent(evt *api.EventEnvelope) {
	a.refresh(evt.Kind == readstate.EventMessageAppended && evt.ConversationID == a.vm.ActiveID())
}

func (a *App) tick() {
	ticker := time.NewTicker(refreshInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(a.ctx, callTimeout)
			_ = a.vm.LoadStatus(ctx)
			cancel()
			a.app.QueueUpdateDraw(a.render)
		case m := <-a.flash.Watch():
			a.app.QueueUpdateDraw(func() { a.flashBar.Update(&m) })
		case <-a.ctx.Done():
			return
		}
	}
}

// Run starts the TUI application and blocks until it exits.
func (a *App) Run() error {
	go func() {
		a.refresh(false)
		go a.watch()
		a.tick()
	}()
	defer a.cancel()
	return a.app.Run()
}

// Stop shuts down the TUI.
func (a *App) Stop() {
	a.cancel()
	a.app.Stop()
}
