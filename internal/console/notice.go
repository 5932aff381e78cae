// Package console holds the client-side state of the TradeDesk console:
// the orders page with its editor and confirmation flow, and the dashboard.
// Dialogs are modelled as Notice values and Confirmation objects so the
// logic runs without a UI.
package console

import (
	"errors"

	"github.com/tradedesk/tradedesk/internal/client"
	"github.com/tradedesk/tradedesk/internal/shared"
)

// Level is the severity a notice is shown with.
type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Notice is a dismissible message for the user.
type Notice struct {
	Level   Level
	Title   string
	Message string
}

// Notice titles.
const (
	TitleItemAlreadyAdded = "Item Already Added"
	TitleValidation       = "Validation Error"
	TitleError            = "Error"
	TitleSuccess          = "Success"
	TitleNoData           = "No Data"
)

// MsgNoDataToExport is shown when an export is requested for an empty list.
const MsgNoDataToExport = "No data to export"

func warning(err error) Notice {
	return Notice{Level: LevelWarning, Title: TitleValidation, Message: err.Error()}
}

func success(msg string) Notice {
	return Notice{Level: LevelSuccess, Title: TitleSuccess, Message: msg}
}

// failure turns a failed API call into an error notice. Backend rejections
// show the backend message; transport failures show the generic message.
func failure(err error) Notice {
	return Notice{Level: LevelError, Title: TitleError, Message: ErrorMessage(err)}
}

// ErrorMessage returns the user-facing text of a failed call.
func ErrorMessage(err error) string {
	var cerr *client.Error
	if errors.As(err, &cerr) && errors.Is(cerr, client.ErrRejected) && cerr.Message != "" {
		return cerr.Message
	}
	return shared.GenericErrorMessage
}

// notices is an append-only inbox drained by the UI.
type notices struct {
	list []Notice
}

func (n *notices) push(notice Notice) {
	n.list = append(n.list, notice)
}

func (n *notices) drain() []Notice {
	out := n.list
	n.list = nil
	return out
}
