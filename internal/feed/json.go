package feed

import (
	"fmt"
	"io"

	"github.com/bytedance/sonic"
)

// WriteJSON prints v as an indented document followed by a newline.
func WriteJSON(w io.Writer, v any) error {
	b, err := sonic.ConfigStd.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: can't encode output", err)
	}
	if _, err := w.Write(append(b, '\n')); err != nil {
		return fmt.Errorf("%w: can't write output", err)
	}
	return nil
}

func ReadJSON(r io.Reader, v any) error {
	b, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("%w: can't read input", err)
	}
	if err := sonic.ConfigStd.Unmarshal(b, v); err != nil {
		return fmt.Errorf("%w: invalid JSON input", err)
	}
	return nil
}
