package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/voicebridge/voicebridge/internal/dependency"
	"github.com/voicebridge/voicebridge/internal/dispatch"
	"github.com/voicebridge/voicebridge/internal/tools"
)

var (
	askAudio   string
	askChannel string
	askChatID  string
)

var askCmd = &cobra.Command{
	Use:   "ask [command text]",
	Short: "Run one command without starting the server",
	Args:  cobra.ArbitraryArgs,
	RunE:  runAsk,
}

func init() {
	askCmd.Flags().StringVarP(&askAudio, "audio", "a", "", "Path to an audio recording of the command")
	askCmd.Flags().StringVar(&askChannel, "channel", "", "Delivery channel for notifications (telegram, slack)")
	askCmd.Flags().StringVar(&askChatID, "chat-id", "", "Chat or channel ID for notifications")
}

func runAsk(_ *cobra.Command, args []string) error {
	prompt := strings.TrimSpace(strings.Join(args, " "))
	if prompt == "" && askAudio == "" {
		return fmt.Errorf("give the command as arguments, or pass --audio")
	}

	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}

	c, err := dependency.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("wire services: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reqCtx := tools.RequestContext{tools.CtxPrincipal: "cli"}
	if askChannel != "" {
		reqCtx[tools.CtxChannel] = askChannel
	}
	if askChatID != "" {
		reqCtx[tools.CtxChatID] = askChatID
	}

	result := c.Dispatcher().Process(ctx, dispatch.Request{
		Prompt:    prompt,
		AudioPath: askAudio,
		Context:   reqCtx,
		OnProgress: func(line string) {
			fmt.Fprintln(os.Stderr, "… "+line)
		},
	})

	fmt.Println(result.Message)
	if !result.Success {
		return fmt.Errorf("command failed (%s)", result.ErrorKind)
	}
	return nil
}
