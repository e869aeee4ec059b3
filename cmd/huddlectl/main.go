package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/matheus3301/huddle/internal/api"
	"github.com/matheus3301/huddle/internal/profile"
)

func main() {
	profileFlag := flag.String("profile", "", "profile name (overrides config default)")
	jsonFlag := flag.Bool("json", false, "output in JSON format")
	asFlag := flag.String("as", "", "send as another participant, ID[:Name[:Avatar]]")
	limitFlag := flag.Int("limit", 0, "max chats to list (0 = all)")
	flag.Parse()

	profileName := profile.Resolve(*profileFlag)
	if err := profile.ValidateName(profileName); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	socketPath := profile.SocketPath(profileName)
	c, err := api.Dial(socketPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: cannot connect to daemon for profile %q: %v\n", profileName, err)
		os.Exit(1)
	}
	defer func() { _ = c.Close() }()

	if args[0] == "watch" {
		ns := ""
		if len(args) > 1 {
			ns = args[1]
		}
		cmdWatch(c, ns, *jsonFlag)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	switch args[0] {
	case "status":
		cmdStatus(ctx, c, *jsonFlag)
	case "chats":
		cmdChats(ctx, c, *limitFlag, *jsonFlag)
	case "show":
		requireArgs(args, 2, "show <conversation-id>")
		cmdShow(ctx, c, args[1], *jsonFlag)
	case "open":
		requireArgs(args, 2, "open <conversation-id>")
		cmdOpen(ctx, c, args[1], *jsonFlag)
	case "send":
		requireArgs(args, 3, "send [--as ID[:Name[:Avatar]]] <conversation-id> <text>")
		cmdSend(ctx, c, args[1], strings.Join(args[2:], " "), parseSender(*asFlag), *jsonFlag)
	case "join":
		requireArgs(args, 2, "join <conversation-id>")
		cmdJoin(ctx, c, args[1])
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", args[0])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "usage: huddlectl [--profile <name>] [--json] <command>")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "commands:")
	fmt.Fprintln(os.Stderr, "  status                Show daemon status")
	fmt.Fprintln(os.Stderr, "  chats [--limit N]     List joined conversations, most recent first")
	fmt.Fprintln(os.Stderr, "  show <id>             Show a conversation without marking it read")
	fmt.Fprintln(os.Stderr, "  open <id>             Print the thread and mark it read")
	fmt.Fprintln(os.Stderr, "  send <id> <text>      Send a message (--as to send as someone else)")
	fmt.Fprintln(os.Stderr, "  join <id>             Join a conversation")
	fmt.Fprintln(os.Stderr, "  watch [namespace]     Stream daemon events")
}

func requireArgs(args []string, n int, usage string) {
	if len(args) < n {
		fmt.Fprintf(os.Stderr, "usage: huddlectl %s\n", usage)
		os.Exit(1)
	}
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}

// parseSender reads ID[:Name[:Avatar]]. An empty value means the current user.
func parseSender(val string) *api.Sender {
	if val == "" {
		return nil
	}
	parts := strings.SplitN(val, ":", 3)
	s := &api.Sender{ID: parts[0], Name: parts[0]}
	if len(parts) > 1 && parts[1] != "" {
		s.Name = parts[1]
	}
	if len(parts) > 2 {
		s.Avatar = parts[2]
	}
	return s
}

func cmdStatus(ctx context.Context, c *api.Client, jsonOut bool) {
	resp, err := c.GetStatus(ctx)
	if err != nil {
		fail(err)
	}
	if jsonOut {
		outputJSON(resp)
		return
	}
	status := resp.Status
	if resp.Reason != "" {
		status += " (" + resp.Reason + ")"
	}
	fmt.Printf("Profile:       %s\n", resp.Profile)
	fmt.Printf("Status:        %s\n", status)
	fmt.Printf("Identity:      %s\n", resp.Identity)
	fmt.Printf("Conversations: %d\n", resp.ConversationCount)
	fmt.Printf("Messages:      %d\n", resp.MessageCount)
	fmt.Printf("Uptime:        %dms\n", resp.UptimeMs)
}

func cmdChats(ctx context.Context, c *api.Client, limit int, jsonOut bool) {
	resp, err := c.ListChats(ctx, limit)
	if err != nil {
		fail(err)
	}
	if jsonOut {
		outputJSON(resp)
		return
	}
	if len(resp.Chats) == 0 {
		fmt.Println("No conversations joined.")
		return
	}
	for _, ch := range resp.Chats {
		fmt.Printf("%-20s %-32s %3d unread  %s  %s\n",
			ch.ConversationID, ch.Title, ch.UnreadCount, formatTime(ch.LastMessageAtMs), ch.LastMessageText)
	}
}

func cmdShow(ctx context.Context, c *api.Client, id string, jsonOut bool) {
	resp, err := c.GetConversation(ctx, id)
	if err != nil {
		fail(err)
	}
	if jsonOut {
		outputJSON(resp)
		return
	}
	conv := resp.Conversation
	fmt.Printf("ID:           %s\n", conv.ID)
	fmt.Printf("Title:        %s\n", conv.Title)
	fmt.Printf("Member:       %v\n", conv.IsMember)
	fmt.Printf("People:       %d\n", conv.ParticipantCount)
	fmt.Printf("Messages:     %d\n", conv.MessageCount)
	fmt.Printf("Unread:       %d\n", conv.UnreadCount)
	fmt.Printf("Last message: %s %s\n", formatTime(conv.LastMessageAtMs), conv.LastMessageText)
}

func cmdOpen(ctx context.Context, c *api.Client, id string, jsonOut bool) {
	resp, err := c.OpenConversation(ctx, id)
	if err != nil {
		fail(err)
	}
	if jsonOut {
		outputJSON(resp)
		return
	}
	if len(resp.Messages) == 0 {
		fmt.Println("No messages.")
		return
	}
	for _, m := range resp.Messages {
		name := m.SenderName
		if m.SenderAvatar != "" {
			name = m.SenderAvatar + " " + name
		}
		fmt.Printf("[%s] %s: %s\n", formatTime(m.SentAtMs), name, m.Text)
	}
}

func cmdSend(ctx context.Context, c *api.Client, id, text string, sender *api.Sender, jsonOut bool) {
	resp, err := c.SendMessage(ctx, id, text, sender)
	if err != nil {
		fail(err)
	}
	if jsonOut {
		outputJSON(resp)
		return
	}
	fmt.Printf("Sent %s\n", resp.Message.ID)
}

func cmdJoin(ctx context.Context, c *api.Client, id string) {
	if err := c.JoinConversation(ctx, id); err != nil {
		fail(err)
	}
	fmt.Printf("Joined %s\n", id)
}

func cmdWatch(c *api.Client, namespace string, jsonOut bool) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	recv, err := c.WatchEvents(ctx, namespace)
	if err != nil {
		fail(err)
	}
	for {
		evt, err := recv.Recv()
		if err != nil {
			if errors.Is(err, io.EOF) || ctx.Err() != nil {
				return
			}
			fail(err)
		}
		if jsonOut {
			outputJSON(evt)
			continue
		}
		detail := evt.ConversationID
		if evt.From != "" || evt.To != "" {
			detail = evt.From + " -> " + evt.To
		}
		fmt.Printf("%s %-32s %s\n", formatTime(evt.OccurredAtMs), evt.Kind, detail)
	}
}

func formatTime(ms int64) string {
	if ms == 0 {
		return "-"
	}
	return time.UnixMilli(ms).Format("2006-01-02 15:04")
}

func outputJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "json encode error: %v\n", err)
	}
}
