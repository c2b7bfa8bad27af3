package proto

import "fmt"

// Command selects which server-side operation handles the rest of an
// exchange. Exactly one command symbol opens every exchange.
type Command uint8

const (
	CommandCreateUser Command = iota + 1
	CommandLogin
	CommandAddItem
	CommandUpdateItem
	CommandDeleteItem
	CommandSearchByItem
	CommandBrowseByTag
	CommandBrowseAll
	CommandExit
)

var commandNames = map[Command]string{
	CommandCreateUser:   "CREATE_USER",
	CommandLogin:        "LOGIN",
	CommandAddItem:      "ADD_ITEM",
	CommandUpdateItem:   "UPDATE_ITEM",
	CommandDeleteItem:   "DELETE_ITEM",
	CommandSearchByItem: "SEARCH_BY_ITEM",
	CommandBrowseByTag:  "BROWSE_BY_TAG",
	CommandBrowseAll:    "BROWSE_ALL",
	CommandExit:         "EXIT",
}

var commandValues = make(map[string]Command, len(commandNames))

func init() {
	for c, name := range commandNames {
		commandValues[name] = c
	}
}

func (c Command) String() string {
	if name, ok := commandNames[c]; ok {
		return name
	}
	return fmt.Sprintf("Command(%d)", uint8(c))
}

// ParseCommand maps a wire string back to its command. An unknown string
// means the peer is corrupt or malicious; the session cannot continue.
func ParseCommand(name string) (Command, error) {
	if c, ok := commandValues[name]; ok {
		return c, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownCommand, name)
}
