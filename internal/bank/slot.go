package bank

import (
	"fmt"
	"strconv"
	"strings"
)

// SplitSlot parses a composite slot id of the form "channel.position",
// e.g. "4.07" -> channel 4, position "07".
func SplitSlot(slotID string) (channel int, position string, err error) {
	parts := strings.SplitN(slotID, ".", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return 0, "", fmt.Errorf("invalid slot id %q, want channel.position", slotID)
	}

	channel, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, "", fmt.Errorf("invalid slot channel in %q: %w", slotID, err)
	}

	return channel, parts[1], nil
}
