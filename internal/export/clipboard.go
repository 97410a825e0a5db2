package export

import (
	"context"
	"fmt"

	"github.com/atotto/clipboard"
)

// ClipboardAvailable reports whether a system clipboard utility was found.
func ClipboardAvailable() bool {
	return !clipboard.Unsupported
}

// ClipboardSharer is the terminal stand-in for a share sheet: attachments are
// saved to Folder and the link goes on the clipboard.
type ClipboardSharer struct {
	Folder string
}

func (s ClipboardSharer) Share(ctx context.Context, data ShareData) error {
	for _, f := range data.Files {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := saveImage(s.Folder, f.Name, f.Data); err != nil {
			return err
		}
	}
	if err := clipboard.WriteAll(data.URL); err != nil {
		return fmt.Errorf("error copying link to clipboard: %w", err)
	}
	return nil
}
