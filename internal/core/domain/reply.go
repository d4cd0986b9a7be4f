package domain

// Button is one inline keyboard button. Exactly one of CallbackData and
// WebAppURL is set.
type Button struct {
	Text         string
	CallbackData string
	WebAppURL    string
}

// Reply is a message the bot sends through the chat transport.
type Reply struct {
	ChatID    int64
	Text      string
	ParseMode string
	Buttons   [][]Button
	// EditMessageID replaces the text of an earlier bot message when non-zero.
	EditMessageID int
}

// Callback data carried by the inline buttons.
const (
	CallbackShowCharter   = "show_charte"
	CallbackAcceptCharter = "accept_charte"
)
