package handlers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/google/go-cmp/cmp"
	"github.com/jonboulle/clockwork"
	"github.com/spf13/afero"

	"github.com/commitly/commitlybot/internal/bot/tasks"
	"github.com/commitly/commitlybot/internal/broadcast"
	"github.com/commitly/commitlybot/internal/config"
	"github.com/commitly/commitlybot/internal/logger"
	"github.com/commitly/commitlybot/internal/messenger"
	"github.com/commitly/commitlybot/internal/messenger/messengertest"
	"github.com/commitly/commitlybot/internal/news"
	"github.com/commitly/commitlybot/internal/registry"
	"github.com/commitly/commitlybot/internal/templates"
)

type fakeNews struct {
	headline news.Headline
	err      error
	gotTopic string
	gotReg   string
}

func (f *fakeNews) Headline(_ context.Context, topic, region string) (news.Headline, error) {
	f.gotTopic, f.gotReg = topic, region
	return f.headline, f.err
}

type fixedQuote string

func (q fixedQuote) Pick() string { return string(q) }

type env struct {
	deps     HandlerDeps
	sender   *messengertest.Sender
	registry *registry.Registry
	news     *fakeNews
}

func newEnv(t *testing.T, debug bool) *env {
	t.Helper()

	cfg := &config.Config{
		Telegram:  config.TelegramConfig{Token: "t", DebugCommands: debug},
		News:      config.NewsConfig{DefaultRegion: "ru"},
		Scheduler: config.SchedulerConfig{Timezone: "UTC"},
		Messages:  config.DefaultMessages,
	}
	log := logger.Discard()
	sender := &messengertest.Sender{}
	msgr := messenger.New(sender, log)
	reg := registry.New(registry.NewFileStore(afero.NewMemMapFs(), "bot_data.json"), log)
	clock := clockwork.NewFakeClockAt(time.Date(2026, 10, 18, 19, 30, 0, 0, time.UTC))
	fn := &fakeNews{}

	return &env{
		deps: HandlerDeps{
			Logger:    log,
			Config:    cfg,
			Registry:  reg,
			Messenger: msgr,
			News:      fn,
			Tasks: tasks.TaskDeps{
				Logger:      log,
				Config:      cfg,
				Broadcaster: broadcast.NewDispatcher(reg, msgr, broadcast.Options{Concurrency: 2}, log),
				Quotes:      fixedQuote("Стабильно лучше, чем идеально."),
				Clock:       clock,
			},
			Clock: clock,
		},
		sender:   sender,
		registry: reg,
		news:     fn,
	}
}

// run dispatches text from chatID through the registered command table.
func (e *env) run(t *testing.T, chatID int64, text string) {
	t.Helper()

	cmd := strings.Fields(text)[0]
	reg, ok := RegisterAllCommands(e.deps)[cmd]
	if !ok {
		t.Fatalf("command %s is not registered", cmd)
	}
	h := reg.Handler
	for i := len(reg.Middleware) - 1; i >= 0; i-- {
		h = reg.Middleware[i](h)
	}
	h(context.Background(), nil, &models.Update{
		ID:      1,
		Message: &models.Message{ID: 1, Chat: models.Chat{ID: chatID}, Text: text},
	})
}

func (e *env) texts(chatID int64) []string {
	var out []string
	for _, c := range e.sender.CallsTo(chatID) {
		out = append(out, c.Text)
	}
	return out
}

func TestEveryCommandTracksChat(t *testing.T) {
	t.Parallel()

	e := newEnv(t, false)
	for _, cmd := range []string{"/start", "/help", "/about", "/contacts", "/rate"} {
		e.run(t, 111, cmd)
	}
	e.run(t, 222, "/rate")

	if diff := cmp.Diff([]int64{111, 222}, e.registry.Recipients(context.Background())); diff != "" {
		t.Errorf("recipients mismatch (-want +got):\n%s", diff)
	}
	if got := len(e.sender.CallsTo(111)); got != 5 {
		t.Errorf("replies to 111 = %d, want 5", got)
	}
	if got := e.texts(111)[0]; got != templates.Welcome().Text {
		t.Errorf("/start reply = %q", got)
	}
}

func TestAboutFallsBackToPlain(t *testing.T) {
	t.Parallel()

	e := newEnv(t, false)
	e.sender.Fail = messengertest.FailFirstAttempt(errors.New("Bad Request: can't parse entities"), 111)
	e.run(t, 111, "/about")

	calls := e.sender.CallsTo(111)
	if len(calls) != 2 {
		t.Fatalf("calls = %d, want 2", len(calls))
	}
	if calls[0].ParseMode != models.ParseModeHTML || calls[1].ParseMode != "" {
		t.Errorf("parse modes = %q, %q", calls[0].ParseMode, calls[1].ParseMode)
	}
	if calls[1].Text != templates.About().Plain {
		t.Errorf("fallback = %q, want hand-written plain text", calls[1].Text)
	}
}

func TestReplyFailureSendsApology(t *testing.T) {
	t.Parallel()

	e := newEnv(t, false)
	e.sender.Fail = func(c messengertest.Call) error {
		if c.Attempt <= 2 {
			return errors.New("internal server error")
		}
		return nil
	}
	e.run(t, 111, "/contacts")

	texts := e.texts(111)
	if len(texts) != 3 || texts[2] != config.DefaultMessages.GeneralError {
		t.Fatalf("texts = %q, want apology as third message", texts)
	}
}

func TestNewsCommand(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		text   string
		region string
		result news.Headline
		err    error
		want   string
	}{
		{
			name:   "headline",
			text:   "/news golang  generics",
			result: news.Headline{Title: "Go", Summary: "Релиз.", URL: "https://go.dev"},
			want:   "**Go**\n\nРелиз.\n\nhttps://go.dev",
		},
		{
			name:   "stored region",
			text:   "/news",
			region: "us",
			result: news.Headline{Title: "T", Summary: "S"},
			want:   "**T**\n\nS",
		},
		{name: "not found", text: "/news", err: news.ErrNotFound, want: config.DefaultMessages.NewsNotFound},
		{name: "api error", text: "/news", err: fmt.Errorf("%w: boom", news.ErrNotFound), want: config.DefaultMessages.NewsNotFound},
		{name: "no key", text: "/news", err: news.ErrNoAPIKey, want: config.DefaultMessages.NewsUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			e := newEnv(t, false)
			e.news.headline, e.news.err = tt.result, tt.err
			if tt.region != "" {
				if err := e.registry.SetRegion(context.Background(), 111, tt.region); err != nil {
					t.Fatal(err)
				}
			}
			e.run(t, 111, tt.text)

			if diff := cmp.Diff([]string{tt.want}, e.texts(111)); diff != "" {
				t.Errorf("reply mismatch (-want +got):\n%s", diff)
			}
			wantRegion := "ru"
			if tt.region != "" {
				wantRegion = tt.region
			}
			if e.news.gotReg != wantRegion {
				t.Errorf("region = %q, want %q", e.news.gotReg, wantRegion)
			}
			if tt.name == "headline" && e.news.gotTopic != "golang  generics" {
				t.Errorf("topic = %q", e.news.gotTopic)
			}
		})
	}
}

func TestRegionCommand(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	e := newEnv(t, false)
	msgs := config.DefaultMessages

	e.run(t, 111, "/region")
	e.run(t, 111, "/region US")
	e.run(t, 111, "/region asia")
	e.run(t, 111, "/region")

	want := []string{
		fmt.Sprintf(msgs.RegionCurrent, "ru"),
		fmt.Sprintf(msgs.RegionUpdated, "us"),
		fmt.Sprintf(msgs.RegionInvalid, "asia"),
		fmt.Sprintf(msgs.RegionCurrent, "us"),
	}
	if diff := cmp.Diff(want, e.texts(111)); diff != "" {
		t.Errorf("replies mismatch (-want +got):\n%s", diff)
	}
	if region, _ := e.registry.Region(ctx, 111); region != "us" {
		t.Errorf("stored region = %q, want us", region)
	}
}

func TestDebugCommandsDisabled(t *testing.T) {
	t.Parallel()

	e := newEnv(t, false)
	e.run(t, 111, "/test")
	e.run(t, 111, "/test_reminders")

	want := []string{config.DefaultMessages.DebugDisabled, config.DefaultMessages.DebugDisabled}
	if diff := cmp.Diff(want, e.texts(111)); diff != "" {
		t.Errorf("replies mismatch (-want +got):\n%s", diff)
	}

	for name, reg := range RegisterAllCommands(e.deps) {
		if (name == "/test" || name == "/test_reminders") && reg.Description != "" {
			t.Errorf("%s is visible in the command menu while disabled", name)
		}
	}
}

func TestTestCommand(t *testing.T) {
	t.Parallel()

	e := newEnv(t, true)
	e.run(t, 111, "/test")

	texts := e.texts(111)
	if len(texts) != 2 {
		t.Fatalf("texts = %q, want 2 messages", texts)
	}
	if !strings.Contains(texts[0], "19:30:00 18.10.2026") {
		t.Errorf("self test = %q, want test time", texts[0])
	}
	if !strings.Contains(texts[1], "Стабильно лучше") {
		t.Errorf("quote = %q", texts[1])
	}
}

func TestTestRemindersCommand(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	e := newEnv(t, true)
	if _, err := e.registry.Track(ctx, 222); err != nil {
		t.Fatal(err)
	}
	e.run(t, 111, "/test_reminders")

	// 111 is tracked by the middleware: start notice, three broadcasts, summary.
	texts := e.texts(111)
	if len(texts) != 5 {
		t.Fatalf("texts to 111 = %d (%q), want 5", len(texts), texts)
	}
	if texts[0] != templates.RemindersStarted().Text {
		t.Errorf("first = %q", texts[0])
	}
	if want := templates.RemindersFinished(6, 6).Text; texts[4] != want {
		t.Errorf("summary = %q, want %q", texts[4], want)
	}
	if got := len(e.sender.CallsTo(222)); got != 3 {
		t.Errorf("broadcasts to 222 = %d, want 3", got)
	}
}

func TestCommandArgs(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"/news":                  "",
		"/news golang":           "golang",
		"/news@commitly_bot  ai": "ai",
		"/region\nus":            "us",
		"plain":                  "plain",
	}
	for in, want := range tests {
		if got := commandArgs(in); got != want {
			t.Errorf("commandArgs(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestRegisterAllCommandsTable(t *testing.T) {
	t.Parallel()

	handlers := RegisterAllCommands(newEnv(t, true).deps)
	for _, name := range []string{"/start", "/about", "/contacts", "/help", "/rate", "/news", "/region", "/test", "/test_reminders"} {
		reg, ok := handlers[name]
		if !ok {
			t.Errorf("%s not registered", name)
			continue
		}
		if reg.Pattern != strings.TrimPrefix(name, "/") || reg.MatchType != tgbot.MatchTypeCommandStartOnly {
			t.Errorf("%s = %+v", name, reg)
		}
		if reg.Description == "" {
			t.Errorf("%s has no menu description", name)
		}
	}
}
