// Package notify wraps go-toast for the desktop completion/failure
// notifications fired when an acquisition reaches a terminal state.
package notify

import (
	toast "git.sr.ht/~jackmordaunt/go-toast/v2"
	"github.com/rs/zerolog"

	"kingo/internal/constants"
)

// Notifier sends desktop toasts on behalf of the coordinator's terminal
// events. A failed push is logged and otherwise ignored — notification
// delivery is never load-bearing.
type Notifier struct {
	iconPath string
	log      zerolog.Logger
}

// New builds a Notifier. iconPath may be empty, in which case the OS
// default notification icon is used.
func New(iconPath string, log zerolog.Logger) *Notifier {
	return &Notifier{iconPath: iconPath, log: log}
}

// Completed announces a finished download with a link to play it.
func (n *Notifier) Completed(videoID, url string) {
	t := toast.Notification{
		AppID: constants.AppName,
		Title: "Video ready",
		Body:  videoID,
		Icon:  n.iconPath,
		Actions: []toast.Action{
			{Type: toast.Protocol, Content: "Play", Arguments: url},
		},
		ActivationArguments: url,
	}
	if err := t.Push(); err != nil {
		n.log.Warn().Err(err).Str("video_id", videoID).Msg("notify: failed to push completion toast")
	}
}

// Failed announces an acquisition that ended in a terminal error.
func (n *Notifier) Failed(videoID, message string) {
	t := toast.Notification{
		AppID: constants.AppName,
		Title: "Download failed",
		Body:  videoID + ": " + message,
		Icon:  n.iconPath,
	}
	if err := t.Push(); err != nil {
		n.log.Warn().Err(err).Str("video_id", videoID).Msg("notify: failed to push failure toast")
	}
}
