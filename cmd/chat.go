package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/they-call-me-electronerd/Ai-Girlfriend/client"
	"github.com/they-call-me-electronerd/Ai-Girlfriend/config"
	"github.com/they-call-me-electronerd/Ai-Girlfriend/models"
	"github.com/they-call-me-electronerd/Ai-Girlfriend/speech"
)

var serverURL string

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with Mira from the terminal",
	RunE:  runChat,
}

func init() {
	chatCmd.Flags().StringVar(&serverURL, "server", "", "Backend URL (defaults to MIRA_SERVER_URL)")
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	if serverURL == "" {
		serverURL = cfg.ServerURL
	}

	opts := []client.Option{}
	if synth, ok := speech.NewSynthesizer(); ok {
		opts = append(opts, client.WithSynthesizer(synth))
	}
	if rec, ok := speech.NewRecognizer(cfg.STTCommand); ok {
		opts = append(opts, client.WithCapture(client.NewCapture(rec)))
	}

	ctrl := client.NewController(client.NewTransport(serverURL), opts...)

	ctx := cmd.Context()
	if err := ctrl.LoadSessions(ctx); err != nil {
		return errors.Wrap(err, "is the backend running?")
	}

	fmt.Println("Hey there, cutie! 💖 I'm Mira~ What's on your mind today? 😊")
	fmt.Println("(/help for commands, /quit to leave)")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("you> ")
		if !scanner.Scan() {
			break
		}
		line := scanner.Text()

		if strings.HasPrefix(line, "/") {
			if quit := runCommand(ctx, ctrl, line); quit {
				break
			}
			continue
		}

		sendAndPrint(ctx, ctrl, line)
	}
	return scanner.Err()
}

// runCommand handles slash commands; returns true when the REPL should exit.
func runCommand(ctx context.Context, ctrl *client.Controller, line string) bool {
	fields := strings.Fields(line)
	switch fields[0] {
	case "/quit", "/exit":
		fmt.Println("Mira 💕> Aww, leaving already? Come back soon, sweetie~")
		return true

	case "/help":
		fmt.Println("  /new          start a new chat")
		fmt.Println("  /list         list your chats")
		fmt.Println("  /switch <n>   switch to chat n")
		fmt.Println("  /delete <n>   delete chat n")
		fmt.Println("  /voice        toggle voice output")
		fmt.Println("  /listen       speak instead of typing")
		fmt.Println("  /quit         leave")

	case "/new":
		if _, err := ctrl.NewSession(ctx); err != nil {
			fmt.Println("couldn't create a chat:", err)
		}

	case "/list":
		sessions := ctrl.Sessions()
		if len(sessions) == 0 {
			fmt.Println("no chats yet — just say something!")
		}
		current, hasCurrent := ctrl.Current()
		for i, s := range sessions {
			marker := " "
			if hasCurrent && s.ID == current.ID {
				marker = "*"
			}
			fmt.Printf("%s %2d. %s\n", marker, i+1, s.Title)
		}

	case "/switch":
		if s, ok := sessionArg(ctrl, fields); ok {
			ctrl.SelectSession(ctx, s)
			fmt.Println("switched to:", s.Title)
		}

	case "/delete":
		if s, ok := sessionArg(ctrl, fields); ok {
			if err := ctrl.DeleteSession(ctx, s.ID); err != nil {
				fmt.Println("couldn't delete:", err)
			}
		}

	case "/voice":
		ctrl.SetSpeechEnabled(!ctrl.SpeechEnabled())
		if ctrl.SpeechEnabled() {
			fmt.Println("voice output on")
		} else {
			fmt.Println("voice output off")
		}

	case "/listen":
		transcript, err := ctrl.CaptureVoice(ctx)
		if err != nil {
			fmt.Println("voice input:", err)
			break
		}
		fmt.Println("you (voice)>", transcript)
		sendAndPrint(ctx, ctrl, transcript)

	default:
		fmt.Println("unknown command, /help lists them")
	}
	return false
}

func sendAndPrint(ctx context.Context, ctrl *client.Controller, text string) {
	if strings.TrimSpace(text) == "" {
		return
	}
	fmt.Println("Mira is typing... 💕")
	if err := ctrl.SendMessage(ctx, text); err != nil {
		fmt.Println("that didn't go through:", err)
		return
	}

	messages := ctrl.Messages()
	if len(messages) > 0 {
		last := messages[len(messages)-1]
		if last.Role == models.RoleAssistant {
			fmt.Println("Mira 💕>", last.Content)
		}
	}
}

func sessionArg(ctrl *client.Controller, fields []string) (models.ChatSession, bool) {
	if len(fields) < 2 {
		fmt.Println("which chat? /list shows the numbers")
		return models.ChatSession{}, false
	}
	n, err := strconv.Atoi(fields[1])
	sessions := ctrl.Sessions()
	if err != nil || n < 1 || n > len(sessions) {
		fmt.Println("no chat with that number")
		return models.ChatSession{}, false
	}
	return sessions[n-1], true
}
