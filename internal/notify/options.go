package notify

import (
	"fmt"

	"github.com/mattjoyce/linear-relay/internal/config"
)

// OptionsFromConfig builds formatting options from the format section.
func OptionsFromConfig(f config.FormatConfig) (Options, error) {
	loc, err := f.Location()
	if err != nil {
		return Options{}, fmt.Errorf("failed to load timezone %q: %w", f.Timezone, err)
	}
	return Options{
		Location:          loc,
		ZoneLabel:         f.TimezoneLabel,
		MaxBodyLength:     f.MaxBodyLength,
		PlaceholderAvatar: f.PlaceholderAvatar,
	}, nil
}
