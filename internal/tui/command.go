package tui

import "strings"

// Command represents a parsed command.
type Command struct {
	Name string
	Args string
}

var commandAliases = map[string]string{
	"q":    "quit",
	"exit": "quit",
	"h":    "help",
	"o":    "open",
	"chat": "open",
	"j":    "join",
	"r":    "reload",
}

// ParseCommand parses a command string (without the leading ':'). Short
// aliases resolve to their full command name.
func ParseCommand(input string) Command {
	input = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(input), ":"))
	name, args, _ := strings.Cut(input, " ")
	cmd := Command{Name: strings.ToLower(name), Args: strings.TrimSpace(args)}
	if full, ok := commandAliases[cmd.Name]; ok {
		cmd.Name = full
	}
	return cmd
}
