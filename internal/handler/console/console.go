// Package console drives the dialogue engine over a line-oriented terminal.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/zhouzirui/cyber-shield/backend/internal/logger"
	"github.com/zhouzirui/cyber-shield/backend/internal/model/chat"
	"github.com/zhouzirui/cyber-shield/backend/internal/model/knowledge"
	"github.com/zhouzirui/cyber-shield/backend/internal/service/dialogue"
)

const (
	namePrompt   = "Please enter your name (3-20 characters, letters only):"
	textFallback = "Text fallback: Welcome to the Cybersecurity Awareness Bot. I am here to assist you with online safety."
	timeLayout   = "2006-01-02 15:04:05"
)

// Engine is what the console needs from the dialogue engine.
type Engine interface {
	StartSession(userName string) *chat.Session
	Process(ctx context.Context, session *chat.Session, raw string) (dialogue.Reply, error)
	Store() knowledge.Store
	Now() time.Time
}

// Options tune the presentation.
type Options struct {
	// TypingDelay is slept after every printed character; zero prints lines at once.
	TypingDelay time.Duration
	// WelcomeAudio is the clip announced at start-up. Playback is not supported, so a text
	// greeting is always printed.
	WelcomeAudio string
	ShowMenu     bool
}

// Console is the terminal front end. One Console runs one conversation at a time.
type Console struct {
	engine Engine
	in     *bufio.Scanner
	out    io.Writer
	opts   Options
	theme  theme
	sleep  func(time.Duration)
}

// New creates a console reading from in and writing to out.
func New(engine Engine, in io.Reader, out io.Writer, opts Options) *Console {
	return &Console{
		engine: engine,
		in:     bufio.NewScanner(in),
		out:    out,
		opts:   opts,
		theme:  newTheme(out),
		sleep:  time.Sleep,
	}
}

// Run greets the user and loops over sessions until one is terminated, input ends, or ctx is
// cancelled.
func (c *Console) Run(ctx context.Context) error {
	c.println(renderBanner(c.theme))
	c.welcome()

	for {
		name, ok := c.collectName()
		if !ok {
			return c.inputErr()
		}

		session := c.engine.StartSession(name)
		c.println(fmt.Sprintf("Session started for %s at %s", session.UserName, session.StartTime.Format(timeLayout)))
		logger.Info("console session started", "session", session.ID, "user", session.UserName)

		restart, err := c.converse(ctx, session)
		if err != nil || !restart {
			return err
		}
	}
}

func (c *Console) welcome() {
	if c.opts.WelcomeAudio != "" {
		if _, err := os.Stat(c.opts.WelcomeAudio); err != nil {
			c.println(c.theme.Muted.Render(fmt.Sprintf("Audio failed: %v", err)))
		} else {
			logger.Debug("welcome audio present, playback unsupported", "path", c.opts.WelcomeAudio)
		}
	}
	c.typeln(textFallback)
}

// collectName re-prompts until a valid name is entered. ok is false when input ran out.
func (c *Console) collectName() (string, bool) {
	for {
		c.println(namePrompt)
		line, ok := c.readLine()
		if !ok {
			return "", false
		}

		name, err := chat.ValidateUserName(line)
		if err == nil {
			return name, true
		}
		c.println(c.theme.Error.Render("Error: " + nameErrorText(err)))
	}
}

func nameErrorText(err error) string {
	switch {
	case errors.Is(err, chat.ErrNameTooShort):
		return "Name must be at least 3 characters."
	case errors.Is(err, chat.ErrNameTooLong):
		return "Name must be at most 20 characters."
	case errors.Is(err, chat.ErrNameNotAlphabetic):
		return "Only letters are allowed."
	default:
		return err.Error()
	}
}

// converse runs turns on one session. restart reports whether a new session was requested.
func (c *Console) converse(ctx context.Context, session *chat.Session) (restart bool, err error) {
	menu := c.engine.Store().Menu()
	c.println(c.theme.Info.Render(fmt.Sprintf("Welcome, %s! Your Cybersecurity Shield is active.", session.UserName)))

	for {
		if err := ctx.Err(); err != nil {
			return false, err
		}

		if c.opts.ShowMenu {
			c.println(renderMenu(c.theme, menu))
		}
		c.print(choicePrompt(menu))

		input, ok := c.readLine()
		if !ok {
			return false, c.inputErr()
		}

		reply, err := c.engine.Process(ctx, session, input)
		if err != nil {
			return false, err
		}
		for _, line := range renderReply(c.theme, reply) {
			c.typeln(line)
		}

		switch reply.Outcome {
		case dialogue.OutcomeEnding:
			c.println(fmt.Sprintf("Session ended for %s at %s", session.UserName, c.engine.Now().Format(timeLayout)))
			logger.Info("console session ended", "session", session.ID, "queries", session.QueryCount)
			return false, nil
		case dialogue.OutcomeRestarting:
			c.println("Starting a new session...")
			logger.Info("console session restarted", "session", session.ID)
			return true, nil
		}
	}
}

func (c *Console) readLine() (string, bool) {
	if !c.in.Scan() {
		return "", false
	}
	return c.in.Text(), true
}

// inputErr is nil on a clean EOF.
func (c *Console) inputErr() error {
	if err := c.in.Err(); err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	c.println("")
	return nil
}

func (c *Console) print(s string) {
	fmt.Fprint(c.out, s)
}

func (c *Console) println(s string) {
	fmt.Fprintln(c.out, s)
}

// typeln prints s with the configured typing effect.
func (c *Console) typeln(s string) {
	if c.opts.TypingDelay <= 0 {
		c.println(s)
		return
	}
	for _, r := range s {
		fmt.Fprint(c.out, string(r))
		c.sleep(c.opts.TypingDelay)
	}
	fmt.Fprintln(c.out)
}
