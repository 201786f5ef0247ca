package command

import "github.com/bwmarrin/discordgo"

// Kind tags what sort of interaction a descriptor answers.
type Kind int

const (
	ChatInput Kind = iota + 1
	UserContext
	MessageContext
	Button
	SelectMenu
	Modal
	Autocomplete
)

func (k Kind) String() string {
	switch k {
	case ChatInput:
		return "chat-input"
	case UserContext:
		return "user-context"
	case MessageContext:
		return "message-context"
	case Button:
		return "button"
	case SelectMenu:
		return "select-menu"
	case Modal:
		return "modal"
	case Autocomplete:
		return "autocomplete"
	default:
		return "unknown"
	}
}

// Namespace is a registry table. Identities only collide within one.
type Namespace int

const (
	Commands Namespace = iota
	ContextActions
	Buttons
	Modals
	SelectMenus
	Autocompletes
)

// Priority is the order Resolve walks namespaces in.
var Priority = []Namespace{Commands, ContextActions, Buttons, Modals, SelectMenus, Autocompletes}

func (n Namespace) String() string {
	switch n {
	case Commands:
		return "commands"
	case ContextActions:
		return "context-actions"
	case Buttons:
		return "buttons"
	case Modals:
		return "modals"
	case SelectMenus:
		return "select-menus"
	case Autocompletes:
		return "autocomplete"
	default:
		return "unknown"
	}
}

// Namespace returns the table a kind is stored in.
func (k Kind) Namespace() Namespace {
	switch k {
	case UserContext, MessageContext:
		return ContextActions
	case Button:
		return Buttons
	case SelectMenu:
		return SelectMenus
	case Modal:
		return Modals
	case Autocomplete:
		return Autocompletes
	default:
		return Commands
	}
}

// IsComponent reports kinds attached to a message sent by the bot.
func (k Kind) IsComponent() bool {
	return k == Button || k == SelectMenu
}

// IsAPICommand reports kinds that are deployed to Discord.
func (k Kind) IsAPICommand() bool {
	return k == ChatInput || k == UserContext || k == MessageContext
}

func (k Kind) applicationCommandType() discordgo.ApplicationCommandType {
	switch k {
	case UserContext:
		return discordgo.UserApplicationCommand
	case MessageContext:
		return discordgo.MessageApplicationCommand
	default:
		return discordgo.ChatApplicationCommand
	}
}
