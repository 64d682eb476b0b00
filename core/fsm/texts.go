package fsm

import "fmt"

// Replies of the book dialog.
const (
	WelcomeText     = "Hello! I keep track of your books.\nSend /help to see what I can do."
	AskNameText     = "Please, set the name of the book:"
	CancelledText   = "Book entry cancelled."
	FarewellText    = "Bye!"
	askDescription  = "Now enter the description:"
	nameEchoPattern = "Okay, the book name is: %s"
)

func nameCapturedText(name string) string {
	return fmt.Sprintf(nameEchoPattern, name) + "\n" + askDescription
}

func bookAddedText(name string) string {
	return fmt.Sprintf("Book \"%s\" added.", name)
}
