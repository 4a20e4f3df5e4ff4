package chat

import "strings"

// CommandKind identifies what a received line asks for.
type CommandKind int

const (
	// CmdChat is ordinary chat text for the current room.
	CmdChat CommandKind = iota

	// CmdPrivateMessage is "/pm <user> <message>".
	CmdPrivateMessage

	// CmdHelp is "/help".
	CmdHelp

	// CmdRecent is "/recent".
	CmdRecent

	// CmdJoin is "/join <room>".
	CmdJoin

	// CmdRoom is "/room".
	CmdRoom

	// CmdRoomList is "/rooms".
	CmdRoomList

	// CmdUserList is "/users".
	CmdUserList
)

// String returns the command name used for logging and metrics.
func (k CommandKind) String() string {
	switch k {
	case CmdChat:
		return "chat"
	case CmdPrivateMessage:
		return "pm"
	case CmdHelp:
		return "help"
	case CmdRecent:
		return "recent"
	case CmdJoin:
		return "join"
	case CmdRoom:
		return "room"
	case CmdRoomList:
		return "rooms"
	case CmdUserList:
		return "users"
	default:
		return "unknown"
	}
}

// Command is one classified input line.
type Command struct {
	Kind CommandKind

	// Target is the recipient username for CmdPrivateMessage.
	Target string

	// Body is the message text for CmdPrivateMessage and CmdChat, or the
	// room name for CmdJoin. May be empty for a malformed command.
	Body string
}

// Classify parses one received line into a Command. A command matches only
// when its literal token is followed by end-of-input or whitespace; any
// other "/"-prefixed word falls through to chat text. Trailing line endings
// are trimmed before classification.
func Classify(line string) Command {
	line = strings.TrimRight(line, "\r\n")

	token, rest, _ := strings.Cut(line, " ")
	switch token {
	case "/pm":
		target, body, _ := strings.Cut(rest, " ")
		return Command{Kind: CmdPrivateMessage, Target: target, Body: body}
	case "/help":
		return Command{Kind: CmdHelp}
	case "/recent":
		return Command{Kind: CmdRecent}
	case "/join":
		return Command{Kind: CmdJoin, Body: strings.TrimSpace(rest)}
	case "/room":
		return Command{Kind: CmdRoom}
	case "/rooms":
		return Command{Kind: CmdRoomList}
	case "/users":
		return Command{Kind: CmdUserList}
	default:
		return Command{Kind: CmdChat, Body: line}
	}
}
