package output

import (
	"bytes"
	"fmt"

	"github.com/atotto/clipboard"
)

// CopyReport places the text report on the system clipboard
func CopyReport(r *Report) error {
	var buf bytes.Buffer
	if err := NewTextFormatter().Write(&buf, r); err != nil {
		return err
	}
	if clipboard.Unsupported {
		return fmt.Errorf("clipboard is not available on this system")
	}
	if err := clipboard.WriteAll(buf.String()); err != nil {
		return fmt.Errorf("failed to copy to clipboard: %w", err)
	}
	return nil
}
