// Package chatcmder provides the chat command, an interactive terminal
// client for the DengueSense health assistant.
package chatcmder

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/papercomputeco/denguesense/pkg/assistant"
	"github.com/papercomputeco/denguesense/pkg/cliui"
	"github.com/papercomputeco/denguesense/pkg/config"
	"github.com/papercomputeco/denguesense/pkg/dotdir"
	"github.com/papercomputeco/denguesense/pkg/llm"
	"github.com/papercomputeco/denguesense/pkg/logger"
	"github.com/papercomputeco/denguesense/pkg/notify"
	"github.com/papercomputeco/denguesense/pkg/sse"
)

var (
	userPrompt      = lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Bold(true).Render("you> ")
	assistantPrompt = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Render("assistant> ")
)

type chatCommander struct {
	endpoint     string
	apiKey       string
	apiTarget    string
	maxRollbacks int
	viaAPI       bool
	resume       bool
	fresh        bool

	configDir string
	debug     bool
	cfg       *config.Config

	in          io.Reader
	out         io.Writer
	errOut      io.Writer
	interactive bool

	ddm    *dotdir.Manager
	logger *zap.Logger
}

const chatLongDesc string = `Chat with the DengueSense health assistant.

Messages are sent to the assistant chat endpoint and the reply streams into
the terminal as it arrives. On a terminal the finished reply is rendered as
markdown.

The conversation is saved to transcript.json in the .denguesense/ directory
after every message. Use --resume to continue it, or --new to discard it.

With --via-api the chat goes through a running API server's /assistant relay,
which adds the server's API key.

Examples:
  denguesense chat
  denguesense chat --resume
  denguesense chat --endpoint https://example.org/functions/v1/health-assistant
  denguesense chat --via-api --api-target http://localhost:8081`

const chatShortDesc string = "Chat with the health assistant"

func NewChatCmd() *cobra.Command {
	cmder := &chatCommander{}

	cmd := &cobra.Command{
		Use:   "chat",
		Short: chatShortDesc,
		Long:  chatLongDesc,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			cmder.configDir, _ = cmd.Flags().GetString("config-dir")

			v, err := config.InitViper(cmder.configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			config.BindRegisteredFlags(v, cmd, config.Flags, []string{
				config.FlagEndpoint,
				config.FlagAPIKey,
				config.FlagAPITarget,
				config.FlagMaxRollbacks,
			})
			cmder.cfg = config.FromViper(v)
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}

			cmder.in = cmd.InOrStdin()
			cmder.out = cmd.OutOrStdout()
			cmder.errOut = cmd.ErrOrStderr()
			if f, ok := cmder.out.(*os.File); ok {
				cmder.interactive = cliui.IsTerminal(f)
			}

			return cmder.run(cmd.Context())
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagEndpoint, &cmder.endpoint)
	config.AddStringFlag(cmd, config.Flags, config.FlagAPIKey, &cmder.apiKey)
	config.AddStringFlag(cmd, config.Flags, config.FlagAPITarget, &cmder.apiTarget)
	config.AddIntFlag(cmd, config.Flags, config.FlagMaxRollbacks, &cmder.maxRollbacks)
	cmd.Flags().BoolVar(&cmder.viaAPI, "via-api", false, "Chat through the API server's /assistant relay")
	cmd.Flags().BoolVarP(&cmder.resume, "resume", "r", false, "Continue the saved conversation")
	cmd.Flags().BoolVar(&cmder.fresh, "new", false, "Discard the saved conversation before starting")

	return cmd
}

func (c *chatCommander) run(ctx context.Context) error {
	// Logs go to stderr so they do not interleave with the streamed reply.
	c.logger = logger.NewLoggerWithWriters(c.debug, c.errOut)
	defer func() { _ = c.logger.Sync() }()

	c.ddm = dotdir.NewManager()

	history, err := c.loadHistory()
	if err != nil {
		return err
	}

	registry := notify.NewRegistry(c.cfg.Notify.Limit)
	unsubscribe := registry.Subscribe(c.toastPrinter())
	defer unsubscribe()

	endpoint, apiKey := c.cfg.Assistant.Endpoint, c.cfg.Assistant.APIKey
	if c.viaAPI {
		// The relay adds the server's key.
		endpoint, apiKey = strings.TrimRight(c.cfg.Client.APITarget, "/")+"/assistant", ""
	}

	session := assistant.NewSession(assistant.Config{
		Endpoint:   endpoint,
		APIKey:     apiKey,
		HTTPClient: &http.Client{Timeout: c.cfg.Assistant.Timeout.Duration},
		Notifier:   registry,
		Logger:     c.logger,
		History:    history,
		ParserOptions: []sse.ChunkParserOption{
			sse.WithMaxRollbacks(c.cfg.Assistant.MaxRollbacks),
			sse.WithMaxBufferBytes(c.cfg.Assistant.MaxBufferBytes),
		},
	})
	defer session.Close()

	c.printIntro(session, len(history))

	scanner := bufio.NewScanner(c.in)
	for {
		fmt.Fprint(c.out, userPrompt)
		if !scanner.Scan() {
			// EOF or error
			break
		}

		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if input == "/exit" {
			break
		}

		if err := c.sendAndStream(ctx, session, input); err != nil {
			c.logger.Debug("send failed", zap.Error(err))
		}

		if err := c.saveHistory(session); err != nil {
			c.logger.Warn("could not save transcript", zap.Error(err))
		}
		fmt.Fprintln(c.out)
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading input: %w", err)
	}

	fmt.Fprintln(c.out)
	return nil
}

func (c *chatCommander) loadHistory() ([]llm.Message, error) {
	if c.fresh {
		if err := c.ddm.ClearTranscript(c.configDir); err != nil {
			return nil, fmt.Errorf("clearing transcript: %w", err)
		}
		return nil, nil
	}

	if !c.resume {
		return nil, nil
	}

	t, err := c.ddm.LoadTranscript(c.configDir)
	if err != nil {
		return nil, fmt.Errorf("loading transcript: %w", err)
	}
	if t == nil {
		return nil, nil
	}
	return t.Messages, nil
}

func (c *chatCommander) saveHistory(session *assistant.Session) error {
	return c.ddm.SaveTranscript(&dotdir.Transcript{
		SavedAt:  time.Now().UTC(),
		Messages: session.History(),
	}, c.configDir)
}

func (c *chatCommander) printIntro(session *assistant.Session, resumed int) {
	fmt.Fprintln(c.out)
	if resumed > 0 {
		fmt.Fprintf(c.out, "  %s Resuming conversation %s\n\n",
			cliui.SuccessMark,
			cliui.DimStyle.Render(fmt.Sprintf("(%d messages)", resumed)),
		)
	}

	greeting := session.Messages()[0].Content
	fmt.Fprintf(c.out, "%s%s\n\n", assistantPrompt, greeting)

	if resumed == 0 {
		fmt.Fprintf(c.out, "  %s\n", cliui.KeyStyle.Render("Try asking:"))
		for _, q := range assistant.SuggestedQuestions {
			fmt.Fprintf(c.out, "    %s\n", cliui.ValueStyle.Render(q))
		}
		fmt.Fprintln(c.out)
	}

	fmt.Fprintf(c.out, "  %s\n\n", cliui.DimStyle.Render("Type your message and press Enter. /exit or Ctrl+D to quit."))
}

// sendAndStream sends input and prints the reply fragments as they arrive.
// Ctrl+C cancels the reply without leaving the chat.
func (c *chatCommander) sendAndStream(ctx context.Context, session *assistant.Session, input string) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	// The reply lands after the user message appended by Send.
	replyIdx := len(session.Messages()) + 1
	printed := 0
	started := false

	unsubscribe := session.Subscribe(func(msgs []llm.Message) {
		if len(msgs) <= replyIdx || msgs[replyIdx].Role != llm.RoleAssistant {
			return
		}
		if !started {
			fmt.Fprint(c.out, assistantPrompt)
			started = true
		}
		content := msgs[replyIdx].Content
		if len(content) > printed {
			fmt.Fprint(c.out, content[printed:])
			printed = len(content)
		}
	})
	err := session.Send(ctx, input)
	unsubscribe()

	if started {
		fmt.Fprintln(c.out)
	}

	if err == nil && started && c.interactive {
		c.rerender(session.Messages()[replyIdx].Content)
	}

	if errors.Is(err, context.Canceled) {
		fmt.Fprintf(c.errOut, "  %s\n", cliui.DimStyle.Render("(cancelled)"))
	}
	return err
}

// rerender replaces the raw streamed reply with its markdown rendering.
func (c *chatCommander) rerender(reply string) {
	f, ok := c.out.(*os.File)
	if !ok {
		return
	}

	rendered, err := cliui.RenderMarkdown(reply)
	if err != nil {
		c.logger.Debug("markdown render failed", zap.Error(err))
		return
	}

	rows := cliui.Rows(assistantPrompt+reply, cliui.TerminalWidth(f, 80))
	fmt.Fprintf(c.out, "\x1b[%dA\x1b[J%s%s", rows, assistantPrompt, strings.TrimLeft(rendered, "\n"))
}

// toastPrinter prints each toast once, when it is first raised.
func (c *chatCommander) toastPrinter() notify.Listener {
	var (
		mu   sync.Mutex
		seen = make(map[string]bool)
	)

	return func(state notify.State) {
		mu.Lock()
		defer mu.Unlock()

		for _, t := range state.Toasts {
			if seen[t.ID] {
				continue
			}
			seen[t.ID] = true

			mark := cliui.SuccessMark
			if t.Variant == notify.VariantDestructive {
				mark = cliui.FailMark
			}
			fmt.Fprintf(c.errOut, "  %s %s %s\n",
				mark,
				cliui.KeyStyle.Render(t.Title+":"),
				t.Description,
			)
		}
	}
}
