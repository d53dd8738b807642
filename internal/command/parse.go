package command

import (
	"strings"
	"unicode"
)

// Command is a parsed console slash command.
type Command struct {
	// Name is the lower-case command name with aliases resolved.
	Name string
	// Alias is the name as typed when it was a short alias.
	Alias string
	// Arg is the text after the name, with one pair of enclosing quotes
	// removed so file names may contain spaces.
	Arg string
}

var aliases = map[string]string{
	"t": "toggle",
	"u": "update",
	"s": "stop",
	"x": "execute",
	"?": "help",
}

// Parse parses a console line and returns a Command if it starts with "/".
// Lines without the prefix are sketch code, not commands.
func Parse(input string) (Command, bool) {
	rest, ok := strings.CutPrefix(strings.TrimLeft(input, " \t"), "/")
	if !ok {
		return Command{}, false
	}
	rest = strings.TrimSpace(rest)
	if rest == "" {
		return Command{}, true
	}
	name, arg := rest, ""
	if i := strings.IndexFunc(rest, unicode.IsSpace); i >= 0 {
		name, arg = rest[:i], strings.TrimSpace(rest[i:])
	}
	cmd := Command{Name: strings.ToLower(name), Arg: unquote(arg)}
	if full, ok := aliases[cmd.Name]; ok {
		cmd.Alias, cmd.Name = cmd.Name, full
	}
	return cmd, true
}

func unquote(s string) string {
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1]
	}
	return s
}
