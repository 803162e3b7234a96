package output

import (
	"context"
	"fmt"

	"github.com/digestbot/digest/app/config"
	"github.com/digestbot/digest/app/digest"
)

// Writer delivers a finished digest somewhere. Write returns the location
// of the written output, or an empty string when the writer skipped.
type Writer interface {
	Type() string
	Write(ctx context.Context, content string, metadata digest.Metadata, items []digest.Item) (string, error)
}

// New builds the writer for an output configuration. Unknown type tags are
// configuration errors.
func New(outputConfig config.OutputConfig) (Writer, error) {
	switch outputConfig.Type {
	case "markdown":
		return newMarkdownWriter(outputConfig.Config)
	case "email":
		return newEmailWriter(outputConfig.Config)
	default:
		return nil, fmt.Errorf("unknown output type: %q", outputConfig.Type)
	}
}
